package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	validator "github.com/contaas/vefa-validator"
	"github.com/contaas/vefa-validator/config"
	"github.com/contaas/vefa-validator/declaration"
	"github.com/contaas/vefa-validator/document"
)

// Validation is the result of validating one document. It keeps the
// resolved document and configuration so the report can be rendered after
// the fact.
type Validation struct {
	engine        *Engine
	document      *document.Document
	configuration *config.Configuration
	report        *validator.Report

	// section gathers the engine's own assertions; it becomes the first
	// report section when non-empty.
	section *validator.Section
}

// newValidation runs the per-document pipeline: resolve the declaration
// chain, resolve the configuration, execute the checks in order and
// aggregate the report.
func newValidation(ctx context.Context, e *Engine, r io.Reader) (*Validation, error) {
	start := time.Now()

	v := &Validation{
		engine: e,
		report: &validator.Report{
			ID:   uuid.NewString(),
			Flag: validator.FlagOK,
		},
		section: validator.NewSection("Validator", nil),
	}

	if err := v.resolve(r); err != nil {
		return nil, err
	}

	v.loadConfiguration()

	if v.configuration != nil {
		v.validate(ctx)
	}

	if !v.section.Empty() {
		v.report.PrependSection(v.section)
	}

	elapsed := time.Since(start)
	v.report.Runtime = fmt.Sprintf("%dms", elapsed.Milliseconds())
	e.metrics.RecordValidation(elapsed, v.report.Flag)

	return v, nil
}

// resolve reads and detects the document. Detection failure is report
// content, not an error: the document stays nil and loadConfiguration
// records the fatal assertion.
func (v *Validation) resolve(r io.Reader) error {
	doc, err := v.engine.resolver.Resolve(r)
	switch {
	case err == nil:
		v.document = doc
		if expectation := doc.Expectation(); expectation != nil {
			v.report.Description = expectation.Description
		}
		return nil
	case errors.Is(err, declaration.ErrNoDeclaration):
		return nil
	default:
		return err
	}
}

// loadConfiguration resolves the configuration for the detected
// declaration. Missing identifiers and unknown document types end the
// validation with a FATAL report and no check sections.
func (v *Validation) loadConfiguration() {
	v.report.Title = "Unknown document type"
	v.report.Flag = validator.FlagFatal

	var decl document.Declaration
	if v.document != nil {
		decl = v.document.Declaration()
	}

	if decl.ProfileID == "" {
		v.section.Add("SYSTEM-001", "Unable to detect ProfileId.", validator.FlagFatal)
		return
	}
	if decl.CustomizationID == "" {
		v.section.Add("SYSTEM-002", "Unable to detect CustomizationId.", validator.FlagFatal)
		return
	}

	configuration, err := v.engine.configuration(decl)
	if err != nil {
		v.engine.logger.Warn("configuration resolution failed",
			slog.String("declaration", decl.String()),
			slog.String("error", err.Error()))
		v.section.Add("SYSTEM-003",
			"Unable to find validation configuration based on ProfileId and CustomizationId.",
			validator.FlagFatal)
		return
	}
	v.configuration = configuration

	notLoadedFlag := validator.FlagWarning
	if v.engine.options.SuppressNotLoaded {
		notLoadedFlag = validator.FlagOK
	}
	for _, key := range configuration.NotLoaded() {
		v.section.Add("SYSTEM-007",
			fmt.Sprintf("Validation artifact '%s' not loaded.", key), notLoadedFlag)
	}

	v.report.Title = configuration.Title
	v.report.Configuration = configuration.Identifier
	v.report.Build = configuration.Build
	v.report.Flag = validator.FlagOK
}

// validate executes the configuration's checks in declared order. A single
// check's infrastructure failure is recorded and the pipeline continues;
// a FATAL flag stops iteration since later checks cannot assume a
// structurally valid document.
func (v *Validation) validate(ctx context.Context) {
	filterer := validator.NewCombinedFlagFilterer(v.filterers()...)

	for _, chk := range v.configuration.Checks {
		v.engine.logger.Debug("check", slog.String("path", chk.Path))

		section, err := v.engine.check(ctx, chk, v.document, filterer)
		v.engine.metrics.RecordCheck(err != nil)
		if err != nil {
			v.section.Add("SYSTEM-008", err.Error(), validator.FlagError)
		} else {
			section.Configuration = chk.Configuration
			section.Build = chk.Build
			v.report.AddSection(section)
		}

		if v.report.Flag == validator.FlagFatal || v.section.Flag == validator.FlagFatal {
			break
		}
	}

	if expectation := v.document.Expectation(); expectation != nil {
		expectation.Verify(v.section)
	}
}

// filterers collects the suppression policies for check sections: the
// configuration's own rules and, in expectation mode, the fixture's
// anticipated findings.
func (v *Validation) filterers() []validator.FlagFilterer {
	filterers := []validator.FlagFilterer{v.configuration}
	if expectation := v.document.Expectation(); expectation != nil {
		filterers = append(filterers, expectation)
	}
	return filterers
}

// Report returns the validation outcome.
func (v *Validation) Report() *validator.Report {
	return v.report
}

// Document returns the resolved document, or nil when detection failed.
func (v *Validation) Document() *document.Document {
	return v.document
}

// Render presents the document through the configuration's stylesheet. It
// fails when the document type declares no stylesheet or when the report
// is FATAL.
func (v *Validation) Render(ctx context.Context, w io.Writer, options map[string]string) error {
	if v.configuration == nil || v.configuration.Stylesheet == nil {
		return ErrNoStylesheet
	}
	if v.report.Flag == validator.FlagFatal {
		return fmt.Errorf("%w: %s", ErrNotRenderable, v.report.Flag)
	}

	return v.engine.render(ctx, v.configuration.Stylesheet, v.document, v.report, options, w)
}
