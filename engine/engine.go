// Package engine wires the validation pipeline together: declaration
// detection, configuration resolution with caching, pooled check execution
// and report aggregation.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	validator "github.com/contaas/vefa-validator"
	"github.com/contaas/vefa-validator/artifact"
	"github.com/contaas/vefa-validator/cache"
	"github.com/contaas/vefa-validator/checker"
	"github.com/contaas/vefa-validator/config"
	"github.com/contaas/vefa-validator/declaration"
	"github.com/contaas/vefa-validator/document"
	"github.com/contaas/vefa-validator/pool"
)

// ErrClosed is returned by operations on a closed engine.
var ErrClosed = errors.New("engine: closed")

// ErrNoStylesheet is returned when rendering a document whose configuration
// declares no stylesheet.
var ErrNoStylesheet = errors.New("engine: no stylesheet defined for document type")

// ErrNotRenderable is returned when rendering a FATAL report.
var ErrNotRenderable = errors.New("engine: report flag is not supported for rendering")

// Engine validates documents against the configurations of an artifact
// store. One engine serves many concurrent validations; the checker and
// renderer pools are the only shared mutable state.
type Engine struct {
	store   artifact.Store
	options *validator.Options
	logger  *slog.Logger
	metrics *validator.Metrics

	resolver *document.Resolver

	// Normalized configurations, cached for the engine's lifetime.
	configurations *cache.Cache[document.Declaration, *config.Configuration]
	byIdentifier   *cache.Cache[string, *config.Configuration]

	checkers  *pool.Keyed[checker.Checker]
	renderers *pool.Keyed[checker.Renderer]

	closed atomic.Bool
}

// New creates an engine on top of the given artifact store.
func New(store artifact.Store, opts ...validator.Option) (*Engine, error) {
	if store == nil {
		return nil, errors.New("engine: nil artifact store")
	}
	options := validator.NewOptions(opts...)

	e := &Engine{
		store:          store,
		options:        options,
		logger:         options.Logger,
		metrics:        validator.NewMetrics(),
		configurations: cache.New[document.Declaration, *config.Configuration](),
		byIdentifier:   cache.New[string, *config.Configuration](),
	}

	e.resolver = document.NewResolver(declaration.NewDetector(), options.Expectations, e.logger)
	e.checkers = pool.NewKeyed[checker.Checker](
		checker.NewFactory(store, checker.DefaultCheckers()), poolOptions(options.CheckerPool))
	e.renderers = pool.NewKeyed[checker.Renderer](
		checker.NewFactory(store, checker.DefaultRenderers()), poolOptions(options.RendererPool))

	return e, nil
}

func poolOptions(o validator.PoolOptions) pool.Options {
	return pool.Options{
		Block:     o.Block,
		LIFO:      o.LIFO,
		MaxTotal:  o.MaxTotal,
		MaxPerKey: o.MaxPerKey,
	}
}

// Validate runs the full pipeline for one document. Findings, including
// detection and configuration failures, are reported through the returned
// Validation's report; only input read failures and use after Close return
// an error.
func (e *Engine) Validate(ctx context.Context, r io.Reader) (*Validation, error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}
	return newValidation(ctx, e, r)
}

// Packages lists the artifact packages the engine can validate against.
func (e *Engine) Packages() []artifact.Package {
	return e.store.Packages()
}

// Metrics returns the engine's metrics.
func (e *Engine) Metrics() *validator.Metrics {
	return e.metrics
}

// Close drains and closes both pools. No validation or render may borrow
// after Close returns.
func (e *Engine) Close() error {
	if e.closed.Swap(true) {
		return nil
	}
	e.checkers.Close()
	e.renderers.Close()
	return nil
}

// configuration resolves the normalized configuration for a document
// declaration, cached for the engine's lifetime. Concurrent first
// resolutions of the same key may duplicate work; normalization is
// deterministic, so the last write wins.
func (e *Engine) configuration(decl document.Declaration) (*config.Configuration, error) {
	if cached, ok := e.configurations.Get(decl); ok {
		e.metrics.RecordConfigLookup(true)
		return cached, nil
	}
	e.metrics.RecordConfigLookup(false)

	raw, err := e.store.Configuration(decl.CustomizationID, decl.ProfileID)
	if err != nil {
		return nil, err
	}
	configuration, err := e.normalize(raw)
	if err != nil {
		return nil, err
	}

	e.configurations.Set(decl, configuration)
	return configuration, nil
}

// normalize parses a raw configuration document, flattens its inheritance
// chain and records its unavailable artifacts.
func (e *Engine) normalize(raw []byte) (*config.Configuration, error) {
	configuration, err := config.Parse(raw)
	if err != nil {
		return nil, err
	}

	resolver := &parentResolver{engine: e, visiting: map[string]bool{configuration.Identifier: true}}
	if err := configuration.Normalize(resolver); err != nil {
		return nil, err
	}

	notLoaded := make(map[string]bool, len(e.store.NotLoaded()))
	for _, key := range e.store.NotLoaded() {
		notLoaded[key] = true
	}
	for _, check := range configuration.Checks {
		if notLoaded[check.Path] {
			configuration.MarkNotLoaded(check.Path)
		}
	}

	return configuration, nil
}

// parentResolver resolves parent configurations through the identifier
// cache, guarding against inheritance cycles within one resolution.
type parentResolver struct {
	engine   *Engine
	visiting map[string]bool
}

// ByIdentifier implements config.Resolver.
func (r *parentResolver) ByIdentifier(identifier string) (*config.Configuration, error) {
	if r.visiting[identifier] {
		return nil, fmt.Errorf("%w: %s", config.ErrInheritanceLoop, identifier)
	}
	r.visiting[identifier] = true

	return r.engine.byIdentifier.GetOrCompute(identifier, func() (*config.Configuration, error) {
		raw, err := r.engine.store.ConfigurationByIdentifier(identifier)
		if err != nil {
			return nil, err
		}
		configuration, err := config.Parse(raw)
		if err != nil {
			return nil, err
		}
		if err := configuration.Normalize(r); err != nil {
			return nil, err
		}
		return configuration, nil
	})
}

// check borrows a checker for the check's artifact and executes it. The
// borrowed instance is returned to the pool on every path.
func (e *Engine) check(ctx context.Context, chk config.Check, doc *document.Document, filterer validator.FlagFilterer) (*validator.Section, error) {
	instance, err := e.checkers.Borrow(ctx, chk.Path)
	if err != nil {
		return nil, fmt.Errorf("unable to borrow checker for '%s': %w", chk.Path, err)
	}
	defer e.checkers.Return(chk.Path, instance)

	section := validator.NewSection(chk.Path, filterer)
	if err := instance.Check(doc, section); err != nil {
		return nil, fmt.Errorf("check '%s' failed: %w", chk.Path, err)
	}
	return section, nil
}

// render borrows a renderer for the stylesheet and executes it. The pool
// key is the stylesheet's artifact path, which also serves as its
// identifier unless the configuration names one explicitly.
func (e *Engine) render(ctx context.Context, stylesheet *config.Stylesheet, doc *document.Document, report *validator.Report, options map[string]string, w io.Writer) error {
	instance, err := e.renderers.Borrow(ctx, stylesheet.Path)
	if err != nil {
		return fmt.Errorf("unable to borrow renderer for '%s': %w", stylesheet.Identifier, err)
	}
	defer e.renderers.Return(stylesheet.Path, instance)

	return instance.Render(doc, report, options, w)
}
