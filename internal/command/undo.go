package command

import (
	"github.com/dshills/voxedit/internal/engine/history"
	"github.com/dshills/voxedit/internal/engine/job"
	"github.com/dshills/voxedit/internal/session"
)

// Undo reverts the most recent committed edit of the session.
func (r *Runner) Undo(s *session.Session, done Done) (Result, error) {
	p, err := s.History().Undo()
	if err != nil {
		return Result{}, err
	}
	return r.replay(s, p, labelUndo, done)
}

// Redo reapplies the most recently undone edit of the session.
func (r *Runner) Redo(s *session.Session, done Done) (Result, error) {
	p, err := s.History().Redo()
	if err != nil {
		return Result{}, err
	}
	return r.replay(s, p, labelRedo, done)
}

func (r *Runner) replay(s *session.Session, p *history.Replay, label string, done Done) (Result, error) {
	j, err := r.jobs.StartJob(s.Operator(), 1, p.Region())
	if err != nil {
		p.Complete(err)
		return Result{}, err
	}
	finish := func(err error) {
		p.Complete(err)
		r.jobs.FinishJob(j)
		res := Result{JobID: j.ID()}
		if err == nil {
			res.Count = p.Volume()
		}
		if done != nil {
			done(res, err)
		}
	}
	err = r.jobs.Run(j, []job.Stage{{
		Label: label,
		Begin: func() (job.Work, error) { return p.Work(), nil },
	}}, finish)
	if err != nil {
		p.Complete(err)
		r.jobs.FinishJob(j)
		return Result{}, err
	}
	return Result{JobID: j.ID()}, nil
}
