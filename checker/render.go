package checker

import (
	"fmt"
	"html/template"
	"io"

	validator "github.com/contaas/vefa-validator"
	"github.com/contaas/vefa-validator/document"
)

// RenderContext is the data a presentation template executes against.
type RenderContext struct {
	// Report is the validation outcome being presented.
	Report *validator.Report

	// Content is the validated payload as text.
	Content string

	// Options carries merged configuration and per-call options.
	Options map[string]string
}

// TemplateRenderer presents a document and its report through an HTML
// template artifact.
type TemplateRenderer struct {
	template *template.Template
}

// NewTemplateRenderer compiles a template artifact.
func NewTemplateRenderer(path string, content []byte) (Renderer, error) {
	tmpl, err := template.New(path).Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("checker: compiling stylesheet %q: %w", path, err)
	}
	return &TemplateRenderer{template: tmpl}, nil
}

// Render implements Renderer.
func (t *TemplateRenderer) Render(doc *document.Document, report *validator.Report, options map[string]string, w io.Writer) error {
	context := RenderContext{
		Report:  report,
		Content: string(doc.Content()),
		Options: options,
	}
	if err := t.template.Execute(w, context); err != nil {
		return fmt.Errorf("checker: executing stylesheet: %w", err)
	}
	return nil
}
