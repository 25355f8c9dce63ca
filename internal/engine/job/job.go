package job

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/dshills/voxedit/internal/engine/geom"
)

// Errors returned by the scheduler.
var (
	// ErrJobFailure is wrapped by every *Error.
	ErrJobFailure = errors.New("job failed")

	// ErrTooManyJobs is returned by StartJob when MaxJobs jobs are active.
	ErrTooManyJobs = errors.New("too many active jobs")

	// ErrUnknownJob is returned for a job that is not registered.
	ErrUnknownJob = errors.New("unknown job")

	// ErrJobFinished is returned when a finished job is used again.
	ErrJobFinished = errors.New("job already finished")
)

// Error describes a failing unit of work.
type Error struct {
	JobID string
	Step  int
	Label string
	Err   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Label != "" {
		return fmt.Sprintf("job %s step %d (%s): %v", e.JobID, e.Step, e.Label, e.Err)
	}
	return fmt.Sprintf("job %s step %d: %v", e.JobID, e.Step, e.Err)
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports ErrJobFailure for every job error.
func (e *Error) Is(target error) bool {
	return target == ErrJobFailure
}

// State represents the lifecycle state of a job.
type State string

const (
	// StatePending indicates the job has been started but no unit has run.
	StatePending State = "pending"
	// StateRunning indicates units are being consumed.
	StateRunning State = "running"
	// StateStepping indicates the job has moved to a new step.
	StateStepping State = "stepping"
	// StateCompleted indicates the job finished successfully.
	StateCompleted State = "completed"
	// StateFailed indicates a unit, or a stage hook, failed.
	StateFailed State = "failed"
)

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Job tracks the progress of one long-running operation. Its fields are
// owned by the Scheduler; read them through the accessors.
type Job struct {
	mu sync.RWMutex

	id     string
	owner  string
	steps  int
	region geom.Region

	step      int
	label     string
	state     State
	stepDone  int
	stepTotal int
	consumed  int
	err       error
	finished  bool

	started time.Time
	ended   time.Time

	span trace.Span
}

// ID returns the unique job identifier.
func (j *Job) ID() string { return j.id }

// Owner returns the session that started the job.
func (j *Job) Owner() string { return j.owner }

// Steps returns the declared number of steps.
func (j *Job) Steps() int { return j.steps }

// Region returns the area the job affects.
func (j *Job) Region() geom.Region { return j.region }

// State returns the current state.
func (j *Job) State() State {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.state
}

// Step returns the current step, starting at 1 after the first NextStep.
func (j *Job) Step() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.step
}

// Label returns the label of the current step.
func (j *Job) Label() string {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.label
}

// Consumed returns the total number of units run for this job.
func (j *Job) Consumed() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.consumed
}

// Err returns the failure, if any.
func (j *Job) Err() error {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.err
}

// Elapsed returns the time since the job started, or its total duration
// once finished.
func (j *Job) Elapsed() time.Duration {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.ended.IsZero() {
		return time.Since(j.started)
	}
	return j.ended.Sub(j.started)
}

// Progress returns a value in [0, 1]. Steps contribute equally; within a step
// progress is only fractional when the step's Work is Sized.
func (j *Job) Progress() float64 {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.state == StateCompleted {
		return 1
	}
	if j.steps <= 0 {
		return 0
	}
	done := float64(max(j.step-1, 0))
	if j.stepTotal > 0 {
		done += min(float64(j.stepDone)/float64(j.stepTotal), 1)
	}
	return min(done/float64(j.steps), 1)
}

// String describes the job.
func (j *Job) String() string {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return fmt.Sprintf("job %s [%s] step %d/%d %q", j.id, j.state, j.step, j.steps, j.label)
}
