// Package worker provides a worker pool for validating many documents in
// parallel against one engine instance.
//
// Parallelism exists across documents only; each validation is sequential
// internally and borrows from the engine's shared executor pools.
package worker

import (
	"context"
	"runtime"
	"sync"
	"time"

	validator "github.com/contaas/vefa-validator"
)

// Job is one document to validate.
type Job struct {
	// Filename labels the report, typically the source path.
	Filename string

	// Content is the raw document.
	Content []byte
}

// Result is the outcome of one job.
type Result struct {
	// Filename matches the job that produced this result.
	Filename string

	// Report is the validation outcome, nil when Err is set.
	Report *validator.Report

	// Err is set when validation could not run at all.
	Err error

	// Duration is the time taken to validate.
	Duration time.Duration
}

// ValidateFunc validates one document and returns its report.
type ValidateFunc func(ctx context.Context, content []byte) (*validator.Report, error)

// Batch validates jobs in parallel with a bounded number of workers.
type Batch struct {
	validate ValidateFunc
	workers  int
}

// NewBatch creates a batch runner. Workers defaults to runtime.NumCPU()
// when non-positive.
func NewBatch(validate ValidateFunc, workers int) *Batch {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Batch{validate: validate, workers: workers}
}

// Run validates all jobs and returns results in job order. A cancelled
// context leaves the remaining results with the context error.
func (b *Batch) Run(ctx context.Context, jobs []Job) []Result {
	results := make([]Result, len(jobs))
	if len(jobs) == 0 {
		return results
	}

	workers := b.workers
	if workers > len(jobs) {
		workers = len(jobs)
	}

	indexes := make(chan int, len(jobs))
	for i := range jobs {
		indexes <- i
	}
	close(indexes)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range indexes {
				results[i] = b.run(ctx, jobs[i])
			}
		}()
	}
	wg.Wait()

	return results
}

func (b *Batch) run(ctx context.Context, job Job) Result {
	result := Result{Filename: job.Filename}

	if err := ctx.Err(); err != nil {
		result.Err = err
		return result
	}

	start := time.Now()
	report, err := b.validate(ctx, job.Content)
	result.Duration = time.Since(start)
	result.Err = err
	result.Report = report
	if report != nil {
		report.Filename = job.Filename
	}
	return result
}

// Summary aggregates a batch outcome.
type Summary struct {
	// Total is the number of jobs run.
	Total int

	// Failed counts reports whose flag exceeds the threshold, plus jobs
	// that errored outright.
	Failed int

	// WorstFlag is the maximum flag across all reports.
	WorstFlag validator.Flag
}

// Summarize counts failures against a flag threshold: a report fails when
// its flag is worse than threshold. Expectation self-tests pass EXPECTED
// as threshold; production batches pass WARNING.
func Summarize(results []Result, threshold validator.Flag) Summary {
	summary := Summary{Total: len(results)}
	for _, result := range results {
		if result.Err != nil {
			summary.Failed++
			continue
		}
		summary.WorstFlag = summary.WorstFlag.Max(result.Report.Flag)
		if result.Report.Flag > threshold {
			summary.Failed++
		}
	}
	return summary
}
