// Package executor runs a resolved job graph concurrently: jobs with no
// unresolved dependencies are eligible, independent eligible jobs run in
// parallel on a fixed worker pool, and a failed job halts exactly its
// dependent subtree. In fail-fast mode the first failure also cancels
// every job not yet started.
package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/genoflow/genoflow/internal/ctxlog"
	"github.com/genoflow/genoflow/internal/graph"
	"github.com/genoflow/genoflow/internal/runstate"
)

// ErrSkipped marks a job that never ran because an upstream dependency
// failed to build.
var ErrSkipped = errors.New("skipped due to upstream failure")

// Options configures an Executor.
type Options struct {
	// Workers is the pool size; values below 1 are treated as 1.
	Workers int

	// FailFast cancels the whole run on the first failure instead of
	// letting independent subtrees finish.
	FailFast bool

	// LogRoot is the provisioned log mirror; used to report log paths.
	LogRoot string

	// Store, when non-nil, records every job outcome.
	Store *runstate.Store
}

// Executor drives one run over a fixed job set.
type Executor struct {
	jobs []*graph.Job
	opts Options
	wg   sync.WaitGroup
}

// New creates an Executor over the fully resolved and staleness-planned
// job set.
func New(jobs []*graph.Job, opts Options) *Executor {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Executor{jobs: jobs, opts: opts}
}

// Run executes the graph and blocks until every job is settled. It returns
// an error naming the failed targets, with the first real failure as the
// root cause; skipped jobs are symptoms and never chosen as the cause.
func (e *Executor) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	readyChan := make(chan *graph.Job, len(e.jobs))
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	rootCount := 0
	for _, job := range e.jobs {
		job.ResetDepCount()
	}
	for _, job := range e.jobs {
		if len(job.Deps) == 0 {
			readyChan <- job
			rootCount++
		}
	}
	logger.Debug("Executor initialized.", "jobs", len(e.jobs), "roots", rootCount, "workers", e.opts.Workers)

	e.wg.Add(len(e.jobs))
	for i := 0; i < e.opts.Workers; i++ {
		go e.worker(runCtx, readyChan, cancel, i)
	}

	e.wg.Wait()
	close(readyChan)
	logger.Debug("All jobs settled.")

	var failed []string
	var rootCause error
	for _, job := range e.jobs {
		if job.State() != graph.Failed {
			continue
		}
		failed = append(failed, job.ID())
		if rootCause == nil && job.Err != nil &&
			!errors.Is(job.Err, ErrSkipped) && !errors.Is(job.Err, context.Canceled) {
			rootCause = job.Err
		}
	}
	if len(failed) > 0 {
		if rootCause == nil {
			rootCause = context.Canceled
		}
		return fmt.Errorf("build failed for %s: %w", strings.Join(failed, ", "), rootCause)
	}
	return nil
}

// worker is the processing loop of one pool member.
func (e *Executor) worker(ctx context.Context, readyChan chan *graph.Job, cancel context.CancelFunc, workerID int) {
	logger := ctxlog.FromContext(ctx)

	for job := range readyChan {
		jobLogger := logger.With("workerID", workerID, "target", job.ID())

		if ctx.Err() != nil {
			job.SkipOnce(func() {
				jobLogger.Warn("Context canceled, job not attempted.")
				job.Err = ctx.Err()
				job.SetState(graph.Failed)
				e.record(job, runstate.StatusSkipped, time.Time{})
				e.wg.Done()
				// Dependents of a canceled job will never see their
				// dep count reach zero, so they must be skipped here
				// or wg.Wait blocks forever.
				e.skipDependents(ctx, job)
			})
			continue
		}

		if job.State() == graph.Satisfied {
			jobLogger.Debug("Outputs up to date, skipping execution.")
			e.record(job, runstate.StatusSatisfied, time.Time{})
			e.settle(job, readyChan)
			continue
		}

		jobLogger.Info("Building target.", "rule", job.Task.Rule.Name())
		job.SetState(graph.Running)
		started := time.Now()
		err := job.Task.Rule.Run(ctx, job.Task)
		if err != nil {
			jobLogger.Error("Job failed.", "error", err)
			job.Err = err
			job.SetState(graph.Failed)
			e.record(job, runstate.StatusFailed, started)
			if e.opts.FailFast {
				cancel()
			}
			e.skipDependents(ctx, job)
			e.wg.Done()
			continue
		}

		jobLogger.Debug("Job succeeded.", "elapsed", time.Since(started))
		e.record(job, runstate.StatusDone, started)
		e.settle(job, readyChan)
	}
}

// settle marks a job done and releases any dependents whose last
// outstanding dependency it was.
func (e *Executor) settle(job *graph.Job, readyChan chan *graph.Job) {
	job.SetState(graph.Done)
	for _, dependent := range job.Dependents {
		if dependent.DecrementDepCount() == 0 {
			readyChan <- dependent
		}
	}
	e.wg.Done()
}

// skipDependents recursively fails every downstream job without running it.
func (e *Executor) skipDependents(ctx context.Context, job *graph.Job) {
	logger := ctxlog.FromContext(ctx)
	for _, dependent := range job.Dependents {
		dependent.SkipOnce(func() {
			logger.Warn("Skipping dependent of failed job.", "target", dependent.ID(), "failed", job.ID())
			dependent.Err = fmt.Errorf("%w: %q", ErrSkipped, job.ID())
			dependent.SetState(graph.Failed)
			e.record(dependent, runstate.StatusSkipped, time.Time{})
			e.wg.Done()
			e.skipDependents(ctx, dependent)
		})
	}
}

// record persists a job outcome when a store is configured.
func (e *Executor) record(job *graph.Job, status runstate.Status, started time.Time) {
	if e.opts.Store == nil {
		return
	}
	result := runstate.JobResult{
		Target:     job.ID(),
		Rule:       job.Task.Rule.Name(),
		Status:     status,
		FinishedAt: time.Now(),
	}
	if !started.IsZero() {
		result.Duration = time.Since(started)
	}
	if job.Err != nil {
		result.Error = job.Err.Error()
	}
	if status == runstate.StatusFailed {
		result.LogPath = graph.LogPath(e.opts.LogRoot, job.ID())
	}
	// A store write failure must not take down the run; the in-memory
	// state still carries the outcome.
	_ = e.opts.Store.Record(result)
}
