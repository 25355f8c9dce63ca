package command

import (
	"github.com/df-mc/dragonfly/server/block/cube"

	"github.com/dshills/voxedit/internal/engine/history"
	"github.com/dshills/voxedit/internal/engine/job"
	"github.com/dshills/voxedit/internal/engine/shape"
	"github.com/dshills/voxedit/internal/engine/structure"
	"github.com/dshills/voxedit/internal/session"
	"github.com/dshills/voxedit/internal/world"
)

// Copy saves the blocks of the selection's bounding region to the
// clipboard. The clipboard is replaced only once the copy completes.
func (r *Runner) Copy(s *session.Session, done Done) (Result, error) {
	reg, err := s.Selection().Range()
	if err != nil {
		return Result{}, err
	}
	op, err := r.start(s, "", 1, reg, done)
	if err != nil {
		return Result{}, err
	}
	clip := structure.New()
	return op.run([]job.Stage{{
		Label: labelCopy,
		Begin: func() (job.Work, error) {
			return clip.SaveProgressive(reg.Min, reg.Max, s.World()), nil
		},
		End: func() error {
			s.SetClipboard(clip)
			op.count = clip.Volume()
			return nil
		},
	}})
}

// Cut copies the selection to the clipboard and then clears it to air.
// Clearing is undoable; the clipboard keeps the copy either way.
func (r *Runner) Cut(s *session.Session, done Done) (Result, error) {
	sh, anchor, err := s.Selection().Shape()
	if err != nil {
		return Result{}, err
	}
	reg := sh.Region(anchor)
	op, err := r.start(s, "cut", 2, reg, done)
	if err != nil {
		return Result{}, err
	}
	clip := structure.New()
	store := s.World()
	cleared := 0
	return op.run([]job.Stage{
		{
			Label: labelCopy,
			Begin: func() (job.Work, error) {
				return clip.SaveProgressive(reg.Min, reg.Max, store), nil
			},
			End: func() error {
				s.SetClipboard(clip)
				return nil
			},
		},
		op.capture(labelSet, reg, history.KindRegion),
		{
			Begin: func() (job.Work, error) {
				c := sh.Iterate(anchor, shape.Filled, nil)
				return job.Each(c, func(pos cube.Pos) error {
					if err := store.SetBlock(pos, world.Air); err != nil {
						return err
					}
					cleared++
					return nil
				}), nil
			},
		},
		op.seal(reg, history.KindRegion, func() int { return cleared }),
	})
}

// Paste writes the clipboard with its minimum corner at at. With skipAir,
// air in the clipboard leaves the destination untouched. The clipboard
// contents are bound when Paste is called.
func (r *Runner) Paste(s *session.Session, at cube.Pos, skipAir bool, done Done) (Result, error) {
	clip := s.Clipboard()
	if clip == nil || !clip.Saved() {
		return Result{}, session.ErrEmptyClipboard
	}
	reg := clip.Region(at)
	if err := checkBounds(s, reg); err != nil {
		return Result{}, err
	}

	load := clip.LoadProgressive(at, s.World(), nil)
	if skipAir {
		load = clip.LoadSolidProgressive(at, s.World())
	}

	op, err := r.start(s, "paste", 1, reg, done)
	if err != nil {
		return Result{}, err
	}
	return op.run([]job.Stage{
		op.capture(labelPaste, reg, history.KindAny),
		{
			Begin: func() (job.Work, error) { return load, nil },
		},
		op.seal(reg, history.KindAny, reg.Volume),
	})
}
