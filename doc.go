// Package validator provides validation of structured business documents
// against configurable, per-document-type chains of checks.
//
// A document submitted for validation is first identified by content
// inspection, unwrapping envelope formats such as SBDH along the way. The
// detected declaration selects a configuration: an ordered, inheritance
// flattened list of checks served by an artifact store. Checks execute
// sequentially, each borrowing a pooled executor keyed by artifact identity,
// and their findings aggregate into a severity report.
//
// # Quick Start
//
//	store, err := artifact.NewDirectoryStore("artifacts", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	eng, err := engine.New(store)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Close()
//
//	validation, err := eng.Validate(ctx, file)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if validation.Report().Flag >= validator.FlagError {
//	    // handle invalid document
//	}
//
// The root package carries the value types shared across the module: the
// Flag severity scale, the Report/Section/Assertion tree, flag filtering,
// fixture expectations, engine options and metrics.
//
// # Severity
//
// Flags form a total order, OK < EXPECTED < WARNING < ERROR < FATAL. A
// section's flag is the maximum over its assertions, a report's flag the
// maximum over its sections. EXPECTED exists for self-testing of validation
// artifacts: a fixture that fails exactly as anticipated aggregates to
// EXPECTED rather than to a failure.
package validator
