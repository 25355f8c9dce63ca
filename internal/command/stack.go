package command

import (
	"fmt"
	"strings"

	"github.com/df-mc/dragonfly/server/block/cube"

	"github.com/dshills/voxedit/internal/engine/geom"
	"github.com/dshills/voxedit/internal/engine/history"
	"github.com/dshills/voxedit/internal/engine/job"
	"github.com/dshills/voxedit/internal/session"
)

// ParseFace parses a direction name such as "up" or "east".
func ParseFace(s string) (cube.Face, error) {
	switch strings.ToLower(s) {
	case "down", "d":
		return cube.FaceDown, nil
	case "up", "u":
		return cube.FaceUp, nil
	case "north", "n":
		return cube.FaceNorth, nil
	case "south", "s":
		return cube.FaceSouth, nil
	case "west", "w":
		return cube.FaceWest, nil
	case "east", "e":
		return cube.FaceEast, nil
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

// Stack repeats the cuboid selection count times in direction dir. Each
// copy is placed directly beyond the previous one.
func (r *Runner) Stack(s *session.Session, count int, dir cube.Face, done Done) (Result, error) {
	sel := s.Selection()
	if !sel.IsCuboid() {
		return Result{}, ErrNotCuboid
	}
	if count < 1 {
		return Result{}, ErrInvalidCount
	}
	src, err := sel.Range()
	if err != nil {
		return Result{}, err
	}

	offset := geom.Mul(cube.Pos{}.Side(dir), src.Size())
	loads := make([]geom.Region, count)
	at := src
	for i := range loads {
		at = at.Offset(offset)
		loads[i] = at
	}
	bounds := loads[0].Union(loads[count-1])
	if err := checkBounds(s, bounds); err != nil {
		return Result{}, err
	}

	op, err := r.start(s, "stack", count+1, bounds, done)
	if err != nil {
		return Result{}, err
	}
	temp := s.CreateRegion()
	op.cleanup = append(op.cleanup, func() { s.DeleteRegion(temp) })

	stages := make([]job.Stage, 0, 1+2*count)
	stages = append(stages, job.Stage{
		Label: labelCopy,
		Begin: func() (job.Work, error) {
			return temp.SaveProgressive(src.Min, src.Max, s.World()), nil
		},
	})
	for _, load := range loads {
		load := load
		stages = append(stages,
			job.Stage{
				Label: labelPaste,
				Begin: func() (job.Work, error) {
					undo, err := s.History().AddUndoStructure(op.rec, load.Min, load.Max, history.KindAny)
					if err != nil {
						return nil, err
					}
					return job.Concat(undo, temp.LoadProgressive(load.Min, s.World(), nil)), nil
				},
			},
			op.seal(load, history.KindAny, load.Volume),
		)
	}
	return op.run(stages)
}
