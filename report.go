package validator

// Assertion is a single finding produced by a check or by the engine itself.
// It is immutable once appended to a section.
type Assertion struct {
	// Identifier is the rule or system identifier (e.g. "BR-01", "SYSTEM-003").
	Identifier string `json:"identifier" xml:"identifier,attr"`

	// Text is the human-readable description of the finding.
	Text string `json:"text" xml:"text"`

	// Flag is the effective severity after suppression.
	Flag Flag `json:"flag" xml:"flag,attr"`

	// Location optionally points at the offending part of the document.
	Location string `json:"location,omitempty" xml:"location,omitempty"`
}

// FlagFilterer decides the effective severity an assertion contributes to its
// section. Filtering only ever reduces or leaves unchanged the severity.
type FlagFilterer interface {
	FilterFlag(assertion Assertion) Flag
}

// CombinedFlagFilterer applies a set of filterers in order. Nil entries are
// allowed and skipped, so callers can pass optional policies directly.
type CombinedFlagFilterer struct {
	filterers []FlagFilterer
}

// NewCombinedFlagFilterer creates a filterer combining the given policies.
func NewCombinedFlagFilterer(filterers ...FlagFilterer) *CombinedFlagFilterer {
	return &CombinedFlagFilterer{filterers: filterers}
}

// FilterFlag consults every policy. Each may lower the running severity;
// none may raise it.
func (c *CombinedFlagFilterer) FilterFlag(assertion Assertion) Flag {
	flag := assertion.Flag
	for _, f := range c.filterers {
		if f == nil {
			continue
		}
		assertion.Flag = flag
		if filtered := f.FilterFlag(assertion); filtered < flag {
			flag = filtered
		}
	}
	return flag
}

// Section groups the assertions produced by one check. The engine keeps one
// extra section for its own assertions, placed first in the report.
type Section struct {
	// Title names the check or source of the section.
	Title string `json:"title" xml:"title,attr"`

	// Configuration identifies the configuration the check came from.
	Configuration string `json:"configuration,omitempty" xml:"configuration,attr,omitempty"`

	// Build is the build stamp of that configuration.
	Build string `json:"build,omitempty" xml:"build,attr,omitempty"`

	// Flag is the aggregated severity of the section.
	Flag Flag `json:"flag" xml:"flag,attr"`

	// Assertions lists the findings in the order they were produced.
	Assertions []Assertion `json:"assertions,omitempty" xml:"assertion,omitempty"`

	filterer FlagFilterer
}

// NewSection creates a section whose added assertions pass through the given
// filterer. A nil filterer keeps severities as reported.
func NewSection(title string, filterer FlagFilterer) *Section {
	return &Section{
		Title:    title,
		Flag:     FlagOK,
		filterer: filterer,
	}
}

// Add appends a finding. The stored severity is the effective one after
// suppression, and the section flag tracks the running maximum.
func (s *Section) Add(identifier, text string, flag Flag) {
	s.AddAssertion(Assertion{Identifier: identifier, Text: text, Flag: flag})
}

// AddAssertion appends an already-built assertion, applying suppression.
func (s *Section) AddAssertion(assertion Assertion) {
	if s.filterer != nil {
		assertion.Flag = s.filterer.FilterFlag(assertion)
	}
	s.Assertions = append(s.Assertions, assertion)
	s.Flag = s.Flag.Max(assertion.Flag)
}

// Empty reports whether no assertions were recorded.
func (s *Section) Empty() bool {
	return len(s.Assertions) == 0
}

// Report is the result of validating one document.
type Report struct {
	// ID correlates the report with logs and batch results.
	ID string `json:"id" xml:"id,attr"`

	// Flag is the overall severity, the maximum over all sections.
	Flag Flag `json:"flag" xml:"flag,attr"`

	// Title is the display title of the matched configuration.
	Title string `json:"title" xml:"title"`

	// Configuration identifies the configuration used.
	Configuration string `json:"configuration,omitempty" xml:"configuration,omitempty"`

	// Build is the configuration build stamp.
	Build string `json:"build,omitempty" xml:"build,omitempty"`

	// Description carries the fixture description when expectation mode is on.
	Description string `json:"description,omitempty" xml:"description,omitempty"`

	// Filename labels the report with the validated file, when known.
	Filename string `json:"filename,omitempty" xml:"filename,omitempty"`

	// Runtime is the elapsed wall time, e.g. "12ms".
	Runtime string `json:"runtime" xml:"runtime"`

	// Sections lists check output in execution order. Index 0 holds the
	// engine's own assertions when any were recorded.
	Sections []*Section `json:"sections,omitempty" xml:"section,omitempty"`
}

// AddSection appends a check section and folds its flag into the report.
func (r *Report) AddSection(section *Section) {
	r.Sections = append(r.Sections, section)
	r.Flag = r.Flag.Max(section.Flag)
}

// PrependSection places a section first, used for the engine section.
func (r *Report) PrependSection(section *Section) {
	r.Sections = append([]*Section{section}, r.Sections...)
	r.Flag = r.Flag.Max(section.Flag)
}
