package graph

import (
	"sync"
	"sync/atomic"

	"github.com/genoflow/genoflow/internal/rules"
)

// State is the lifecycle state of a job.
type State int32

const (
	// Pending jobs have not yet been picked up by a worker.
	Pending State = iota
	// Satisfied jobs were pruned by the staleness plan: their outputs are
	// newer than every input and no upstream job rebuilds.
	Satisfied
	// Running jobs are currently executing their action.
	Running
	// Done jobs completed successfully (or were Satisfied and confirmed).
	Done
	// Failed jobs returned an error or were skipped after an upstream
	// failure.
	Failed
)

// Job is one concrete instantiation of a rule with fully bound wildcards.
// Jobs are created during graph resolution, at most once per output target,
// and executed at most once.
type Job struct {
	Task *rules.Task

	// Deps are the jobs producing this job's inputs. LeafInputs are the
	// inputs no rule produces; they existed on disk at resolution time.
	Deps       []*Job
	Dependents []*Job
	LeafInputs []string

	// Err records why a Failed job failed.
	Err error

	state    atomic.Int32
	depCount atomic.Int32
	skipOnce sync.Once
}

// ID is the job's identity: its primary output path.
func (j *Job) ID() string { return j.Task.Target() }

// State returns the job's current lifecycle state.
func (j *Job) State() State { return State(j.state.Load()) }

// SetState transitions the job to the given state.
func (j *Job) SetState(s State) { j.state.Store(int32(s)) }

// ResetDepCount initializes the pending-dependency counter before a run.
func (j *Job) ResetDepCount() { j.depCount.Store(int32(len(j.Deps))) }

// DecrementDepCount marks one dependency complete and returns the number
// still outstanding.
func (j *Job) DecrementDepCount() int32 { return j.depCount.Add(-1) }

// SkipOnce runs fn at most once over the job's lifetime; used to guard the
// failure-propagation path so a job is never skipped twice.
func (j *Job) SkipOnce(fn func()) { j.skipOnce.Do(fn) }
