package checker

import (
	"encoding/xml"
	"fmt"
	"io"

	validator "github.com/contaas/vefa-validator"
	"github.com/contaas/vefa-validator/document"
	"gopkg.in/yaml.v3"
)

// rule is one presence rule in a rule artifact.
type rule struct {
	// ID is the assertion identifier reported on violation.
	ID string `yaml:"id"`

	// Element requires an element with this local name to be present.
	Element string `yaml:"element,omitempty"`

	// Forbidden flags an element with this local name when present.
	Forbidden string `yaml:"forbidden,omitempty"`

	// Flag is the severity of a violation. Defaults to ERROR.
	Flag *validator.Flag `yaml:"flag,omitempty"`

	// Message is the text reported on violation.
	Message string `yaml:"message"`
}

func (r rule) severity() validator.Flag {
	if r.Flag == nil {
		return validator.FlagError
	}
	return *r.Flag
}

// ruleFile is the parsed shape of a *.rules.yaml artifact.
type ruleFile struct {
	Title string `yaml:"title"`
	Rules []rule `yaml:"rules"`
}

// Rules checks element presence rules declared in a YAML artifact. It
// covers the structural subset of schematron-style rule sets without an
// external rule engine.
type Rules struct {
	title string
	rules []rule
}

// NewRules parses and validates a rule artifact.
func NewRules(path string, content []byte) (Checker, error) {
	var file ruleFile
	if err := yaml.Unmarshal(content, &file); err != nil {
		return nil, fmt.Errorf("checker: parsing rule artifact %q: %w", path, err)
	}
	for _, r := range file.Rules {
		if r.ID == "" {
			return nil, fmt.Errorf("checker: rule artifact %q contains a rule without id", path)
		}
		if (r.Element == "") == (r.Forbidden == "") {
			return nil, fmt.Errorf("checker: rule %q must set exactly one of element, forbidden", r.ID)
		}
	}
	return &Rules{title: file.Title, rules: file.Rules}, nil
}

// Check implements Checker. The document is scanned once; each rule then
// tests element presence against the collected names.
func (r *Rules) Check(doc *document.Document, section *validator.Section) error {
	if r.title != "" {
		section.Title = r.title
	}

	present, err := elementNames(doc.Reader())
	if err != nil {
		section.Add("XML-001",
			fmt.Sprintf("Document is not well-formed: %s.", err),
			validator.FlagFatal)
		return nil
	}

	for _, rule := range r.rules {
		switch {
		case rule.Element != "" && !present[rule.Element]:
			section.Add(rule.ID, rule.Message, rule.severity())
		case rule.Forbidden != "" && present[rule.Forbidden]:
			section.Add(rule.ID, rule.Message, rule.severity())
		}
	}
	return nil
}

// elementNames collects the local names of all elements in the document.
func elementNames(reader io.Reader) (map[string]bool, error) {
	names := make(map[string]bool)
	decoder := xml.NewDecoder(reader)
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			return names, nil
		}
		if err != nil {
			return nil, err
		}
		if start, ok := token.(xml.StartElement); ok {
			names[start.Name.Local] = true
		}
	}
}
