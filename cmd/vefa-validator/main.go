// Package main implements the vefa-validator CLI.
//
// The CLI drives the in-process validation engine for three workflows:
// validating documents, self-testing validation artifacts against
// expectation fixtures, and listing the artifact packages of a store.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	validator "github.com/contaas/vefa-validator"
	"github.com/contaas/vefa-validator/artifact"
	"github.com/contaas/vefa-validator/engine"
	"github.com/contaas/vefa-validator/worker"
)

const version = "0.9.0"

type cliOptions struct {
	store    string
	verbose  bool
	output   string
	workers  int
	suppress bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

func newRootCommand() *cobra.Command {
	opts := &cliOptions{}

	root := &cobra.Command{
		Use:           "vefa-validator",
		Short:         "Validate structured business documents against published profiles",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if opts.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	root.PersistentFlags().StringVarP(&opts.store, "store", "s", "artifacts", "artifact store directory")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newValidateCommand(opts))
	root.AddCommand(newTestCommand(opts))
	root.AddCommand(newPackagesCommand(opts))

	return root
}

func newEngine(opts *cliOptions, engineOpts ...validator.Option) (*engine.Engine, error) {
	store, err := artifact.NewDirectoryStore(opts.store, slog.Default())
	if err != nil {
		return nil, err
	}
	engineOpts = append(engineOpts, validator.WithLogger(slog.Default()))
	return engine.New(store, engineOpts...)
}

func newValidateCommand(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file>...",
		Short: "Validate documents and print their reports",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := newEngine(opts)
			if err != nil {
				return err
			}
			defer eng.Close()

			jobs, err := readJobs(args)
			if err != nil {
				return err
			}

			batch := worker.NewBatch(func(ctx context.Context, content []byte) (*validator.Report, error) {
				validation, err := eng.Validate(ctx, bytes.NewReader(content))
				if err != nil {
					return nil, err
				}
				return validation.Report(), nil
			}, opts.workers)

			results := batch.Run(cmd.Context(), jobs)
			if err := printResults(cmd, opts, results); err != nil {
				return err
			}

			summary := worker.Summarize(results, validator.FlagWarning)
			if summary.Failed > 0 {
				os.Exit(1)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "text", "output format: text or json")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "parallel validations (0 = all CPUs)")
	return cmd
}

func newTestCommand(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test <glob>...",
		Short: "Run expectation fixtures against the store's artifacts",
		Long: "Validates every fixture matching the globs with expectation mode " +
			"enabled. A fixture passes when its report flag does not exceed " +
			"EXPECTED, meaning every finding was anticipated.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := newEngine(opts,
				validator.WithExpectations(true),
				validator.WithSuppressNotLoaded(opts.suppress))
			if err != nil {
				return err
			}
			defer eng.Close()

			files, err := expandGlobs(args)
			if err != nil {
				return err
			}
			jobs, err := readJobs(files)
			if err != nil {
				return err
			}

			batch := worker.NewBatch(func(ctx context.Context, content []byte) (*validator.Report, error) {
				validation, err := eng.Validate(ctx, bytes.NewReader(content))
				if err != nil {
					return nil, err
				}
				return validation.Report(), nil
			}, opts.workers)

			results := batch.Run(cmd.Context(), jobs)
			for _, result := range results {
				switch {
				case result.Err != nil:
					fmt.Fprintf(cmd.ErrOrStderr(), "FAIL %s (%s)\n", result.Filename, result.Err)
				case result.Report.Flag > validator.FlagExpected:
					fmt.Fprintf(cmd.ErrOrStderr(), "FAIL %s (%s)\n", result.Filename, result.Report.Flag)
					for _, section := range result.Report.Sections {
						for _, assertion := range section.Assertions {
							if assertion.Flag > validator.FlagExpected {
								fmt.Fprintf(cmd.ErrOrStderr(), "  * %s %s (%s)\n",
									assertion.Identifier, assertion.Text, assertion.Flag)
							}
						}
					}
				default:
					fmt.Fprintf(cmd.OutOrStdout(), "ok   %s\n", result.Filename)
				}
			}

			summary := worker.Summarize(results, validator.FlagExpected)
			fmt.Fprintf(cmd.OutOrStdout(), "%d tests performed, %d tests failed\n",
				summary.Total, summary.Failed)
			if summary.Failed > 0 {
				os.Exit(1)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "parallel validations (0 = all CPUs)")
	cmd.Flags().BoolVar(&opts.suppress, "suppress-notloaded", true, "treat missing artifacts as non-fatal")
	return cmd
}

func newPackagesCommand(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "packages",
		Short: "List the artifact packages of the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := newEngine(opts)
			if err != nil {
				return err
			}
			defer eng.Close()

			for _, pkg := range eng.Packages() {
				if pkg.Version != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%d configurations)\n",
						pkg.Name, pkg.Version, len(pkg.Configurations))
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "%s (%d configurations)\n",
						pkg.Name, len(pkg.Configurations))
				}
			}
			return nil
		},
	}
}

func readJobs(files []string) ([]worker.Job, error) {
	jobs := make([]worker.Job, 0, len(files))
	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", file, err)
		}
		jobs = append(jobs, worker.Job{Filename: file, Content: content})
	}
	return jobs, nil
}

// expandGlobs resolves doublestar patterns against the filesystem. Plain
// paths pass through untouched so shells without globbing still work.
func expandGlobs(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, pattern := range patterns {
		base, rest := doublestar.SplitPattern(filepath.ToSlash(pattern))
		matches, err := doublestar.Glob(os.DirFS(base), rest)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		for _, match := range matches {
			path := filepath.Join(base, match)
			if !seen[path] {
				seen[path] = true
				files = append(files, path)
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

func printResults(cmd *cobra.Command, opts *cliOptions, results []worker.Result) error {
	if opts.output == "json" {
		reports := make([]*validator.Report, 0, len(results))
		for _, result := range results {
			if result.Report != nil {
				reports = append(reports, result.Report)
			}
		}
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(reports)
	}

	for _, result := range results {
		if result.Err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", result.Filename, result.Err)
			continue
		}
		report := result.Report
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (%s, %s)\n",
			result.Filename, report.Flag, report.Title, report.Runtime)
		for _, section := range report.Sections {
			for _, assertion := range section.Assertions {
				if assertion.Flag > validator.FlagOK {
					fmt.Fprintf(cmd.OutOrStdout(), "  [%s] %s: %s\n",
						assertion.Flag, assertion.Identifier, assertion.Text)
				}
			}
		}
	}
	return nil
}
