package validator

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
)

// expectationMarker starts the comment block test fixtures use to declare
// anticipated findings.
const expectationMarker = "TEST"

// Expectation is a test fixture's declaration of anticipated findings.
// Anticipated assertions are downgraded to EXPECTED instead of counting as
// failures, and anticipations that never occur are reported by Verify.
//
// The declaration lives in an XML comment at the top of the fixture:
//
//	<!--
//	TEST
//	Invoice without a seller VAT number.
//
//	warning: BR-CO-09
//	error: BR-S-02
//	-->
//
// Free-text lines before the first severity line form the description.
type Expectation struct {
	// Description is the fixture's own description of the scenario.
	Description string

	anticipated map[string]Flag
	fulfilled   map[string]bool
}

// ParseExpectation extracts the expectation declaration from document
// content. It returns nil when the document carries none.
func ParseExpectation(content []byte) *Expectation {
	decoder := xml.NewDecoder(bytes.NewReader(content))
	for {
		token, err := decoder.Token()
		if err != nil {
			return nil
		}
		comment, ok := token.(xml.Comment)
		if !ok {
			continue
		}
		if e := parseExpectationComment(string(comment)); e != nil {
			return e
		}
	}
}

func parseExpectationComment(comment string) *Expectation {
	scanner := bufio.NewScanner(strings.NewReader(comment))

	// The first non-blank line must be the marker.
	marker := ""
	for scanner.Scan() {
		marker = strings.TrimSpace(scanner.Text())
		if marker != "" {
			break
		}
	}
	if !strings.EqualFold(marker, expectationMarker) {
		return nil
	}

	e := &Expectation{
		anticipated: make(map[string]Flag),
		fulfilled:   make(map[string]bool),
	}

	var description []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		severity, identifier, ok := splitExpectationLine(line)
		if !ok {
			if len(e.anticipated) == 0 {
				description = append(description, line)
			}
			continue
		}
		e.anticipated[strings.ToUpper(identifier)] = severity
	}

	e.Description = strings.Join(description, " ")
	return e
}

func splitExpectationLine(line string) (Flag, string, bool) {
	prefix, rest, found := strings.Cut(line, ":")
	if !found {
		return FlagOK, "", false
	}

	identifier := strings.TrimSpace(rest)
	if identifier == "" {
		return FlagOK, "", false
	}

	switch strings.ToLower(strings.TrimSpace(prefix)) {
	case "warning":
		return FlagWarning, identifier, true
	case "error":
		return FlagError, identifier, true
	case "fatal":
		return FlagFatal, identifier, true
	default:
		return FlagOK, "", false
	}
}

// Anticipates reports whether the identifier is declared as anticipated.
func (e *Expectation) Anticipates(identifier string) bool {
	_, ok := e.anticipated[strings.ToUpper(identifier)]
	return ok
}

// FilterFlag implements FlagFilterer. An anticipated finding is downgraded
// to EXPECTED; anything else passes through unchanged.
func (e *Expectation) FilterFlag(assertion Assertion) Flag {
	key := strings.ToUpper(assertion.Identifier)
	anticipated, ok := e.anticipated[key]
	if !ok || assertion.Flag == FlagOK {
		return assertion.Flag
	}
	// An anticipation covers findings up to its declared severity. A worse
	// finding than anticipated still counts in full.
	if assertion.Flag > anticipated {
		return assertion.Flag
	}
	e.fulfilled[key] = true
	return FlagExpected
}

// Verify records an ERROR for every anticipated finding that never occurred.
// It is given the engine section once all checks have run.
func (e *Expectation) Verify(section *Section) {
	for identifier := range e.anticipated {
		if !e.fulfilled[identifier] {
			section.Add("SYSTEM-009",
				fmt.Sprintf("Expected finding '%s' was not reported.", identifier),
				FlagError)
		}
	}
}
