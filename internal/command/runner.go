// Package command implements the editing operations an operator invokes:
// set, sphere, stack, copy, cut, paste, brush strokes, undo and redo.
//
// Every operation is started synchronously, validated, and then handed to
// the job scheduler as a program of stages. The result is delivered through
// a Done callback on the tick that finishes the operation. A successful
// operation commits exactly one history record; a failed one restores the
// regions it already touched, cancels its record and reports a count of 0.
package command

import (
	"errors"
	"fmt"

	"github.com/dshills/voxedit/internal/engine/geom"
	"github.com/dshills/voxedit/internal/engine/history"
	"github.com/dshills/voxedit/internal/engine/job"
	"github.com/dshills/voxedit/internal/session"
)

// Errors returned by commands.
var (
	// ErrOutsideWorld is returned when an operation would write outside the
	// vertical bounds of the world.
	ErrOutsideWorld = errors.New("region is outside the world")

	// ErrNotCuboid is returned by operations that need a cuboid selection.
	ErrNotCuboid = errors.New("selection is not a cuboid")

	// ErrInvalidCount is returned for a non-positive repeat count.
	ErrInvalidCount = errors.New("count must be at least 1")
)

// Step labels reported to job listeners.
const (
	labelCopy    = "Copying blocks..."
	labelPaste   = "Pasting blocks..."
	labelSet     = "Setting blocks..."
	labelGen     = "Generating blocks..."
	labelRestore = "Restoring blocks..."
	labelUndo    = "Undoing..."
	labelRedo    = "Redoing..."
)

// Result is the outcome of a finished command.
type Result struct {
	// Count is the number of blocks affected. It is 0 on failure.
	Count int

	// JobID identifies the job that ran the command.
	JobID string
}

// Done receives the result of a command.
type Done func(Result, error)

// Runner starts commands on a scheduler.
type Runner struct {
	jobs *job.Scheduler
}

// NewRunner creates a runner over jobs.
func NewRunner(jobs *job.Scheduler) *Runner {
	return &Runner{jobs: jobs}
}

// Scheduler returns the scheduler commands run on.
func (r *Runner) Scheduler() *job.Scheduler {
	return r.jobs
}

// checkBounds fails when reg leaves the vertical range of the session's world.
func checkBounds(s *session.Session, reg geom.Region) error {
	rng := s.World().Range()
	if reg.Min[1] < rng.Min() || reg.Max[1] > rng.Max() {
		return fmt.Errorf("%w: %s not within y %d..%d", ErrOutsideWorld, reg, rng.Min(), rng.Max())
	}
	return nil
}

// operation tracks one running command: its job, its history record and
// the scratch structures to release when it ends.
type operation struct {
	r    *Runner
	s    *session.Session
	job  *job.Job
	rec  *history.Record
	done Done

	count   int
	cleanup []func()
}

// start opens a job and, when name is not empty, a history record.
func (r *Runner) start(s *session.Session, name string, steps int, reg geom.Region, done Done) (*operation, error) {
	j, err := r.jobs.StartJob(s.Operator(), steps, reg)
	if err != nil {
		return nil, err
	}
	op := &operation{r: r, s: s, job: j, done: done}
	if name != "" {
		op.rec = s.History().Record(name)
	}
	return op, nil
}

// run registers the stages. If registration fails the operation is torn
// down and the error returned.
func (op *operation) run(stages []job.Stage) (Result, error) {
	if err := op.r.jobs.Run(op.job, stages, op.finish); err != nil {
		op.release()
		if op.rec != nil {
			_ = op.s.History().Cancel(op.rec)
		}
		op.r.jobs.FinishJob(op.job)
		return Result{}, err
	}
	return Result{JobID: op.job.ID()}, nil
}

// capture returns a stage that snapshots reg before it is mutated.
func (op *operation) capture(label string, reg geom.Region, kind history.Kind) job.Stage {
	return job.Stage{
		Label: label,
		Begin: func() (job.Work, error) {
			return op.s.History().AddUndoStructure(op.rec, reg.Min, reg.Max, kind)
		},
	}
}

// seal returns a stage that snapshots reg after mutation and adds n to the
// count.
func (op *operation) seal(reg geom.Region, kind history.Kind, n func() int) job.Stage {
	return job.Stage{
		Begin: func() (job.Work, error) {
			return op.s.History().AddRedoStructure(op.rec, reg.Min, reg.Max, kind)
		},
		End: func() error {
			op.count += n()
			return nil
		},
	}
}

// finish is the program callback.
func (op *operation) finish(err error) {
	if err == nil && op.rec != nil {
		err = op.s.History().Commit(op.rec)
	}
	if err == nil || op.rec == nil {
		op.complete(err)
		return
	}
	op.rollback(err)
}

// rollback restores every region already captured, then cancels the
// record. The restore runs as its own job so a large rollback is spread
// over ticks like any other edit.
func (op *operation) rollback(cause error) {
	h := op.s.History()
	w, err := h.Rollback(op.rec)
	if err != nil {
		op.complete(join(cause, err))
		return
	}

	j, err := op.r.jobs.StartJob(op.s.Operator(), 1, op.job.Region())
	if err == nil {
		err = op.r.jobs.Run(j, []job.Stage{{
			Label: labelRestore,
			Begin: func() (job.Work, error) { return w, nil },
		}}, func(rerr error) {
			op.r.jobs.FinishJob(j)
			op.complete(join(cause, rerr))
		})
		if err == nil {
			return
		}
		op.r.jobs.FinishJob(j)
	}

	// No job slot: restore synchronously.
	for u, ok := w.Next(); ok; u, ok = w.Next() {
		if uerr := u(); uerr != nil {
			op.complete(join(cause, uerr))
			return
		}
	}
	op.complete(cause)
}

func (op *operation) complete(err error) {
	if err != nil && op.rec != nil {
		_ = op.s.History().Cancel(op.rec)
	}
	op.release()
	op.r.jobs.FinishJob(op.job)

	res := Result{Count: op.count, JobID: op.job.ID()}
	if err != nil {
		res.Count = 0
	}
	if op.done != nil {
		op.done(res, err)
	}
}

func (op *operation) release() {
	for _, fn := range op.cleanup {
		fn()
	}
	op.cleanup = nil
}

// join keeps cause unwrapped when err adds nothing to it.
func join(cause, err error) error {
	if err == nil || errors.Is(cause, err) || cause.Error() == err.Error() {
		return cause
	}
	return errors.Join(cause, err)
}
