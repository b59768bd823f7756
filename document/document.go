// Package document resolves raw byte streams into validated documents.
//
// The resolver drives the declaration detector recursively: envelope
// formats are unwrapped until the innermost business payload is reached,
// and the chain of declarations found along the way is kept outermost
// first.
package document

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"

	validator "github.com/contaas/vefa-validator"
	"github.com/contaas/vefa-validator/declaration"
)

// Declaration identifies the pair of identifiers a configuration lookup
// needs. Both fields are required for validation to proceed.
type Declaration struct {
	// CustomizationID identifies the applied customization of the format.
	CustomizationID string

	// ProfileID identifies the business process profile.
	ProfileID string
}

// String renders the pair for logs and error messages.
func (d Declaration) String() string {
	return d.CustomizationID + "#" + d.ProfileID
}

// Document is one resolved validation subject. It is created once per
// validation, is immutable after construction and owned by the validation
// that created it.
type Document struct {
	content      []byte
	declarations []declaration.Info
	declaration  Declaration
	expectation  *validator.Expectation
}

// Content returns the innermost payload bytes.
func (d *Document) Content() []byte {
	return d.content
}

// Reader returns a fresh reader over the innermost payload.
func (d *Document) Reader() io.Reader {
	return bytes.NewReader(d.content)
}

// Declarations returns the detected declaration chain, outermost first.
// Length one means the document was not wrapped in an envelope.
func (d *Document) Declarations() []declaration.Info {
	return d.declarations
}

// Declaration returns the identifier pair extracted from the innermost
// payload. Fields are empty when the payload does not declare them.
func (d *Document) Declaration() Declaration {
	return d.declaration
}

// Expectation returns the fixture expectation, or nil outside expectation
// mode.
func (d *Document) Expectation() *validator.Expectation {
	return d.expectation
}

// Resolver turns byte streams into Documents.
type Resolver struct {
	detector     *declaration.Detector
	expectations bool
	logger       *slog.Logger
}

// NewResolver creates a resolver on top of the given detector. When
// expectations is true, fixture expectation comments are extracted from the
// innermost payload.
func NewResolver(detector *declaration.Detector, expectations bool, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		detector:     detector,
		expectations: expectations,
		logger:       logger,
	}
}

// Resolve reads the stream and recursively detects its declaration chain.
// It fails with declaration.ErrNoDeclaration when the outermost content is
// not recognized; mid-stream unwrap failures degrade to "no children" and
// terminate the chain instead.
func (r *Resolver) Resolve(reader io.Reader) (*Document, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("document: reading input: %w", err)
	}

	document := &Document{content: content}

	for {
		info, err := r.detector.Detect(document.content)
		if err != nil {
			if len(document.declarations) == 0 {
				return nil, err
			}
			// Inner content of a recognized envelope may use a
			// format we do not know; the chain simply ends here.
			break
		}
		document.declarations = append(document.declarations, info)

		children, ok := r.unwrap(info, document.content)
		if !ok {
			break
		}
		document.content = children[0]
	}

	document.declaration = identifiers(document)

	if r.expectations {
		document.expectation = validator.ParseExpectation(document.content)
	}

	return document, nil
}

// unwrap produces the nested payloads of an envelope declaration. Returns
// false when the declaration carries no children, including when unwrapping
// fails mid-stream.
func (r *Resolver) unwrap(info declaration.Info, content []byte) ([][]byte, bool) {
	envelope, ok := info.Declaration().(declaration.WithChildren)
	if !ok {
		return nil, false
	}

	children, err := envelope.Children(bytes.NewReader(content))
	if err != nil {
		r.logger.Warn("envelope unwrapping produced no payload",
			slog.String("declaration", info.Identifier),
			slog.String("error", err.Error()))
		return nil, false
	}
	return children, len(children) > 0
}

// identifiers extracts the customization and profile pair from the
// innermost recognized declaration.
func identifiers(document *Document) Declaration {
	for i := len(document.declarations) - 1; i >= 0; i-- {
		matcher, ok := document.declarations[i].Declaration().(declaration.WithIdentifiers)
		if !ok {
			continue
		}
		customization, profile := matcher.Identifiers(document.content)
		return Declaration{CustomizationID: customization, ProfileID: profile}
	}
	return Declaration{}
}
