package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	validator "github.com/contaas/vefa-validator"
)

func jobList(n int) []Job {
	jobs := make([]Job, n)
	for i := range jobs {
		jobs[i] = Job{
			Filename: fmt.Sprintf("invoice-%03d.xml", i),
			Content:  []byte(fmt.Sprintf("<doc>%d</doc>", i)),
		}
	}
	return jobs
}

func TestRunPreservesJobOrder(t *testing.T) {
	batch := NewBatch(func(_ context.Context, content []byte) (*validator.Report, error) {
		return &validator.Report{Title: string(content), Flag: validator.FlagOK}, nil
	}, 4)

	jobs := jobList(20)
	results := batch.Run(context.Background(), jobs)
	require.Len(t, results, 20)

	for i, result := range results {
		require.NoError(t, result.Err)
		assert.Equal(t, jobs[i].Filename, result.Filename)
		assert.Equal(t, jobs[i].Filename, result.Report.Filename)
		assert.Equal(t, string(jobs[i].Content), result.Report.Title)
	}
}

func TestRunBoundsParallelism(t *testing.T) {
	var active, peak atomic.Int64
	batch := NewBatch(func(context.Context, []byte) (*validator.Report, error) {
		current := active.Add(1)
		for {
			observed := peak.Load()
			if current <= observed || peak.CompareAndSwap(observed, current) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		active.Add(-1)
		return &validator.Report{Flag: validator.FlagOK}, nil
	}, 3)

	batch.Run(context.Background(), jobList(12))
	assert.LessOrEqual(t, peak.Load(), int64(3))
	assert.Positive(t, peak.Load())
}

func TestRunRecordsErrors(t *testing.T) {
	boom := errors.New("boom")
	batch := NewBatch(func(_ context.Context, content []byte) (*validator.Report, error) {
		if string(content) == "<doc>1</doc>" {
			return nil, boom
		}
		return &validator.Report{Flag: validator.FlagOK}, nil
	}, 2)

	results := batch.Run(context.Background(), jobList(3))
	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, boom)
	assert.Nil(t, results[1].Report)
	assert.NoError(t, results[2].Err)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	batch := NewBatch(func(context.Context, []byte) (*validator.Report, error) {
		return &validator.Report{Flag: validator.FlagOK}, nil
	}, 2)

	results := batch.Run(ctx, jobList(4))
	for _, result := range results {
		assert.ErrorIs(t, result.Err, context.Canceled)
	}
}

func TestRunEmpty(t *testing.T) {
	batch := NewBatch(func(context.Context, []byte) (*validator.Report, error) {
		t.Fatal("must not be called")
		return nil, nil
	}, 2)

	assert.Empty(t, batch.Run(context.Background(), nil))
}

func TestSummarize(t *testing.T) {
	results := []Result{
		{Report: &validator.Report{Flag: validator.FlagOK}},
		{Report: &validator.Report{Flag: validator.FlagExpected}},
		{Report: &validator.Report{Flag: validator.FlagWarning}},
		{Report: &validator.Report{Flag: validator.FlagError}},
		{Err: errors.New("unreadable")},
	}

	// Production threshold tolerates warnings.
	summary := Summarize(results, validator.FlagWarning)
	assert.Equal(t, 5, summary.Total)
	assert.Equal(t, 2, summary.Failed)
	assert.Equal(t, validator.FlagError, summary.WorstFlag)

	// Self-test threshold tolerates only anticipated findings.
	summary = Summarize(results, validator.FlagExpected)
	assert.Equal(t, 3, summary.Failed)
}
