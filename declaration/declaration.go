// Package declaration identifies document formats by content inspection.
//
// A Declaration matcher recognizes one format family and computes a type
// identifier for recognized content. Envelope formats additionally expose
// the payload(s) they carry so detection can recurse into them. Matchers are
// consulted in registration order and the first positive match wins, so the
// order of the detector's matcher list is semantically significant.
package declaration

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
)

// ErrNoDeclaration is returned when no registered matcher recognizes the
// content.
var ErrNoDeclaration = errors.New("declaration: no matcher recognized content")

// ErrNoPayload is returned by envelope unwrapping when the envelope carries
// no recognizable inner content. It is distinct from an empty payload.
var ErrNoPayload = errors.New("declaration: envelope carries no payload")

// Declaration recognizes one document format.
type Declaration interface {
	// Type names the format family, e.g. "xml.ubl".
	Type() string

	// Verify reports whether the content belongs to this format. The
	// parent argument is the namespace of the content's root element.
	Verify(content []byte, parent string) bool

	// Detect computes the type identifier for recognized content, e.g.
	// "Invoice::urn:oasis:names:specification:ubl:schema:xsd:Invoice-2".
	Detect(content []byte, parent string) (string, error)
}

// WithChildren is implemented by envelope formats carrying inner payloads.
type WithChildren interface {
	Declaration

	// Children extracts the payload buffers carried by the envelope in a
	// single forward pass. It returns ErrNoPayload when nothing was
	// produced.
	Children(r io.Reader) ([][]byte, error)
}

// WithIdentifiers is implemented by formats from which the customization
// and profile identifiers can be read.
type WithIdentifiers interface {
	Declaration

	// Identifiers extracts (customizationID, profileID) from the content.
	// Either may be empty when the document does not declare it.
	Identifiers(content []byte) (string, string)
}

// Info is the outcome of detecting one buffer.
type Info struct {
	// Type is the matcher's format family.
	Type string

	// Identifier is the detected type identifier.
	Identifier string

	declaration Declaration
}

// Declaration returns the matcher that produced this info.
func (i Info) Declaration() Declaration {
	return i.declaration
}

// Detector scans an ordered list of matchers. The zero value is unusable;
// use NewDetector, which registers the built-in matchers in their canonical
// order.
type Detector struct {
	declarations []Declaration
}

// NewDetector creates a detector with the built-in matchers. Envelope
// matchers are registered before payload matchers so recursion starts at
// the outermost format.
func NewDetector() *Detector {
	return &Detector{
		declarations: []Declaration{
			NewSBDH(),
			NewUBL(),
			NewCrossIndustry(),
		},
	}
}

// Register appends a matcher, giving it the lowest precedence.
func (d *Detector) Register(declaration Declaration) {
	d.declarations = append(d.declarations, declaration)
}

// Detect finds the first matcher recognizing the content and returns its
// detection outcome. It fails with ErrNoDeclaration when none matches.
func (d *Detector) Detect(content []byte) (Info, error) {
	parent, err := rootNamespace(content)
	if err != nil {
		return Info{}, err
	}

	for _, declaration := range d.declarations {
		if !declaration.Verify(content, parent) {
			continue
		}
		identifier, err := declaration.Detect(content, parent)
		if err != nil {
			return Info{}, err
		}
		return Info{
			Type:        declaration.Type(),
			Identifier:  identifier,
			declaration: declaration,
		}, nil
	}

	return Info{}, ErrNoDeclaration
}

// rootNamespace returns the namespace of the first start element.
func rootNamespace(content []byte) (string, error) {
	decoder := xml.NewDecoder(bytes.NewReader(content))
	for {
		token, err := decoder.Token()
		if err != nil {
			return "", ErrNoDeclaration
		}
		if start, ok := token.(xml.StartElement); ok {
			return start.Name.Space, nil
		}
	}
}

// rootElement returns the local name and namespace of the first start
// element.
func rootElement(content []byte) (xml.Name, error) {
	decoder := xml.NewDecoder(bytes.NewReader(content))
	for {
		token, err := decoder.Token()
		if err != nil {
			return xml.Name{}, ErrNoDeclaration
		}
		if start, ok := token.(xml.StartElement); ok {
			return start.Name, nil
		}
	}
}

// nestedElementText returns the character data of the first inner element
// found inside the first outer element.
func nestedElementText(content []byte, outer, inner string) string {
	decoder := xml.NewDecoder(bytes.NewReader(content))
	insideOuter := false
	insideInner := false
	var text bytes.Buffer
	for {
		token, err := decoder.Token()
		if err != nil {
			return ""
		}
		switch t := token.(type) {
		case xml.StartElement:
			if !insideOuter {
				insideOuter = t.Name.Local == outer
			} else if t.Name.Local == inner {
				insideInner = true
			}
		case xml.EndElement:
			if insideInner && t.Name.Local == inner {
				return text.String()
			}
			if insideOuter && t.Name.Local == outer {
				return ""
			}
		case xml.CharData:
			if insideInner {
				text.Write(t)
			}
		}
	}
}

// elementText returns the character data of the first element with the
// given local name, searching in document order.
func elementText(content []byte, local string) string {
	decoder := xml.NewDecoder(bytes.NewReader(content))
	depth := -1
	var text bytes.Buffer
	for {
		token, err := decoder.Token()
		if err != nil {
			return ""
		}
		switch t := token.(type) {
		case xml.StartElement:
			if depth >= 0 {
				depth++
			} else if t.Name.Local == local {
				depth = 0
			}
		case xml.EndElement:
			if depth == 0 {
				return text.String()
			}
			if depth > 0 {
				depth--
			}
		case xml.CharData:
			if depth == 0 {
				text.Write(t)
			}
		}
	}
}
