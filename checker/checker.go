// Package checker defines the executors the engine borrows from its pools:
// checkers run one check against a document, renderers run one presentation
// transform.
//
// Executors are built from artifact content by kind, selected on the
// artifact key's suffix. The built-in kinds cover XML well-formedness and
// YAML rule files; schema and schematron engines plug in through Register.
package checker

import (
	"context"
	"fmt"
	"io"
	"strings"

	validator "github.com/contaas/vefa-validator"
	"github.com/contaas/vefa-validator/artifact"
	"github.com/contaas/vefa-validator/document"
)

// Checker executes one check against a document, recording findings in the
// section. An error return means the check infrastructure failed, not that
// the document is invalid.
type Checker interface {
	Check(doc *document.Document, section *validator.Section) error
}

// Renderer executes one presentation transform.
type Renderer interface {
	Render(doc *document.Document, report *validator.Report, options map[string]string, w io.Writer) error
}

// Builder constructs an executor from artifact content. Building is the
// expensive step (parsing, compiling) and happens once per pooled instance.
type Builder[T any] func(path string, content []byte) (T, error)

// Registry maps artifact key suffixes to builders.
type Registry[T any] struct {
	suffixes []string
	builders map[string]Builder[T]
}

// NewRegistry creates an empty registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{builders: make(map[string]Builder[T])}
}

// Register binds a suffix to a builder. Longer suffixes win over shorter
// ones so ".rules.yaml" can coexist with ".yaml".
func (r *Registry[T]) Register(suffix string, builder Builder[T]) {
	if _, exists := r.builders[suffix]; !exists {
		r.suffixes = append(r.suffixes, suffix)
	}
	r.builders[suffix] = builder
}

// Build selects the builder for the artifact key and runs it.
func (r *Registry[T]) Build(path string, content []byte) (T, error) {
	var match string
	for _, suffix := range r.suffixes {
		if strings.HasSuffix(path, suffix) && len(suffix) > len(match) {
			match = suffix
		}
	}
	if match == "" {
		var zero T
		return zero, fmt.Errorf("checker: no executor registered for %q", path)
	}
	return r.builders[match](path, content)
}

// DefaultCheckers returns the checker registry with the built-in kinds.
func DefaultCheckers() *Registry[Checker] {
	registry := NewRegistry[Checker]()
	registry.Register(".wf", NewWellFormed)
	registry.Register(".rules.yaml", NewRules)
	registry.Register(".rules.yml", NewRules)
	return registry
}

// DefaultRenderers returns the renderer registry with the built-in kinds.
func DefaultRenderers() *Registry[Renderer] {
	registry := NewRegistry[Renderer]()
	registry.Register(".tmpl", NewTemplateRenderer)
	return registry
}

// Factory adapts a registry and an artifact store into a pool factory.
type Factory[T any] struct {
	store    artifact.Store
	registry *Registry[T]
}

// NewFactory creates a pool factory building executors from store content.
func NewFactory[T any](store artifact.Store, registry *Registry[T]) *Factory[T] {
	return &Factory[T]{store: store, registry: registry}
}

// Make implements pool.Factory. The artifact is loaded and compiled here,
// once per pooled instance.
func (f *Factory[T]) Make(ctx context.Context, key string) (T, error) {
	content, err := f.store.Artifact(key)
	if err != nil {
		var zero T
		return zero, err
	}
	return f.registry.Build(key, content)
}

// Destroy implements pool.Factory. Built-in executors hold no external
// resources.
func (f *Factory[T]) Destroy(key string, instance T) {}
