package command

import (
	"github.com/df-mc/dragonfly/server/block/cube"

	"github.com/dshills/voxedit/internal/engine/brush"
	"github.com/dshills/voxedit/internal/engine/geom"
	"github.com/dshills/voxedit/internal/engine/history"
	"github.com/dshills/voxedit/internal/engine/job"
	"github.com/dshills/voxedit/internal/engine/shape"
	"github.com/dshills/voxedit/internal/session"
	"github.com/dshills/voxedit/internal/world"
)

// Set fills the selection with p. A nil p uses the session's picker
// pattern when the session is set to use it. Only positions accepted by
// mask are written.
func (r *Runner) Set(s *session.Session, p world.Pattern, mask world.Mask, done Done) (Result, error) {
	if p == nil || s.UsePicker() {
		pp, err := s.PickerPattern()
		if err != nil {
			return Result{}, err
		}
		p = pp
	}
	sh, anchor, err := s.Selection().Shape()
	if err != nil {
		return Result{}, err
	}
	cursor := func() (shape.Cursor, error) {
		return sh.Iterate(anchor, shape.Filled, mask), nil
	}
	return r.fill(s, "set", labelSet, sh.Region(anchor), cursor, p, done)
}

// Sphere generates a sphere of radius centred at at.
func (r *Runner) Sphere(s *session.Session, at cube.Pos, radius float64, p world.Pattern, hollow bool, done Done) (Result, error) {
	sp, err := shape.NewSphere(radius)
	if err != nil {
		return Result{}, err
	}
	reg := sp.Region(at)
	if err := checkBounds(s, reg); err != nil {
		return Result{}, err
	}
	cursor := func() (shape.Cursor, error) {
		return sp.Iterate(at, shape.FillModeOf(hollow), nil), nil
	}
	return r.fill(s, "sphere", labelGen, reg, cursor, p, done)
}

// fill writes p to every position of the cursor as one undoable edit of
// reg. The count is the number of blocks written.
func (r *Runner) fill(s *session.Session, name, label string, reg geom.Region, cursor func() (shape.Cursor, error), p world.Pattern, done Done) (Result, error) {
	op, err := r.start(s, name, 1, reg, done)
	if err != nil {
		return Result{}, err
	}
	written := 0
	store := s.World()
	return op.run([]job.Stage{
		op.capture(label, reg, history.KindRegion),
		{
			Granular: true,
			Begin: func() (job.Work, error) {
				c, err := cursor()
				if err != nil {
					return nil, err
				}
				return job.Each(c, func(pos cube.Pos) error {
					if err := store.SetBlock(pos, p.Resolve(pos)); err != nil {
						return err
					}
					written++
					return nil
				}), nil
			},
		},
		op.seal(reg, history.KindRegion, func() int { return written }),
	})
}

// Brush applies b at at as one undoable edit. The brush's shape and
// pattern are bound when Brush is called; later changes to b do not affect
// the stroke.
func (r *Runner) Brush(s *session.Session, b brush.Brush, at cube.Pos, mask world.Mask, done Done) (Result, error) {
	reg := b.Region(at)
	if err := checkBounds(s, reg); err != nil {
		return Result{}, err
	}
	stroke := b.Apply(at, s.World(), mask)
	op, err := r.start(s, "brush", 1, reg, done)
	if err != nil {
		return Result{}, err
	}
	return op.run([]job.Stage{
		op.capture(labelGen, reg, history.KindRegion),
		{
			Begin: func() (job.Work, error) { return stroke, nil },
		},
		op.seal(reg, history.KindRegion, reg.Volume),
	})
}
