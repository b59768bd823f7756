package checker

import (
	"encoding/xml"
	"fmt"
	"io"

	validator "github.com/contaas/vefa-validator"
	"github.com/contaas/vefa-validator/document"
)

// WellFormed verifies a document parses as XML. A malformed document is a
// FATAL finding: later checks assume a parseable document and are skipped
// by the orchestrator once a FATAL is recorded.
type WellFormed struct{}

// NewWellFormed builds the well-formedness checker. The artifact content is
// unused; the artifact file only anchors the check in a configuration.
func NewWellFormed(path string, content []byte) (Checker, error) {
	return &WellFormed{}, nil
}

// Check implements Checker.
func (w *WellFormed) Check(doc *document.Document, section *validator.Section) error {
	decoder := xml.NewDecoder(doc.Reader())
	for {
		_, err := decoder.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			section.Add("XML-001",
				fmt.Sprintf("Document is not well-formed: %s.", err),
				validator.FlagFatal)
			return nil
		}
	}
}
