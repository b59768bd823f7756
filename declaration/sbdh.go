package declaration

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

const sbdhNamespace = "http://www.unece.org/cefact/namespaces/StandardBusinessDocumentHeader"

// SBDH recognizes the UN/CEFACT Standard Business Document envelope and
// exposes the business payload(s) it wraps.
type SBDH struct{}

// NewSBDH creates the SBDH envelope matcher.
func NewSBDH() *SBDH {
	return &SBDH{}
}

// Type implements Declaration.
func (s *SBDH) Type() string {
	return "xml.sbdh"
}

// Verify implements Declaration.
func (s *SBDH) Verify(content []byte, parent string) bool {
	return strings.HasPrefix(parent, sbdhNamespace)
}

// Detect implements Declaration.
func (s *SBDH) Detect(content []byte, parent string) (string, error) {
	return "SBDH:1.0", nil
}

// Children implements WithChildren. The source is scanned in a single
// forward pass; every element outside the SBDH namespace is sliced out of
// the raw input by byte offset, so payload encoding, element order and
// whitespace survive exactly as received. Header metadata is never
// materialized.
func (s *SBDH) Children(r io.Reader) ([][]byte, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("declaration: reading envelope: %w", err)
	}

	var payloads [][]byte
	decoder := xml.NewDecoder(bytes.NewReader(content))
	for {
		offset := decoder.InputOffset()
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed before any payload was found is an unwrap
			// failure; a payload already in hand still counts.
			if len(payloads) == 0 {
				return nil, fmt.Errorf("declaration: unwrapping envelope: %w", err)
			}
			break
		}

		start, ok := token.(xml.StartElement)
		if !ok || start.Name.Space == sbdhNamespace {
			continue
		}

		// First non-header element; skip to its matching end tag and
		// slice the raw bytes in between, tags included.
		if err := decoder.Skip(); err != nil {
			if len(payloads) == 0 {
				return nil, fmt.Errorf("declaration: unwrapping envelope: %w", err)
			}
			break
		}
		payloads = append(payloads, content[offset:decoder.InputOffset()])
	}

	if len(payloads) == 0 {
		return nil, ErrNoPayload
	}
	return payloads, nil
}
