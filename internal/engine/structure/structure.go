// Package structure holds scratch copies of world regions.
//
// A Structure is filled and emptied progressively: SaveProgressive and
// LoadProgressive return job.Work with one unit per voxel, so copying and
// pasting large regions is spread across ticks like any other mutation.
// Structures stage copy/paste, stack and history snapshots.
package structure

import (
	"errors"
	"fmt"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/google/uuid"

	"github.com/dshills/voxedit/internal/engine/geom"
	"github.com/dshills/voxedit/internal/engine/job"
	"github.com/dshills/voxedit/internal/world"
)

// Errors returned by structure operations.
var (
	// ErrNotSaved indicates a load from a structure whose save has not
	// completed.
	ErrNotSaved = errors.New("structure not saved")
)

// Structure is a dense copy of a cuboid of blocks, indexed in sweep order.
// It is not safe for concurrent use.
type Structure struct {
	id     string
	region geom.Region
	blocks []world.Block
	filled int
	saved  bool
}

// New creates an empty structure.
func New() *Structure {
	return &Structure{id: uuid.New().String()}
}

// ID returns the structure identifier.
func (s *Structure) ID() string { return s.id }

// Saved reports whether a save has completed.
func (s *Structure) Saved() bool { return s.saved }

// Size returns the extent of the saved region.
func (s *Structure) Size() cube.Pos {
	if s.blocks == nil {
		return cube.Pos{}
	}
	return s.region.Size()
}

// Volume returns the number of blocks held.
func (s *Structure) Volume() int {
	return len(s.blocks)
}

// Origin returns the minimum corner the structure was saved from.
func (s *Structure) Origin() cube.Pos {
	return s.region.Min
}

// Region returns the region the structure occupies when loaded at.
func (s *Structure) Region(at cube.Pos) geom.Region {
	return s.region.Offset(at.Sub(s.region.Min))
}

// Block returns the saved block at a position relative to the minimum
// corner.
func (s *Structure) Block(rel cube.Pos) world.Block {
	p := s.region.Min.Add(rel)
	if !s.saved || !s.region.Contains(p) {
		return world.Air
	}
	return s.blocks[s.region.Index(p)]
}

// Clear releases the saved blocks.
func (s *Structure) Clear() {
	s.blocks = nil
	s.region = geom.Region{}
	s.filled = 0
	s.saved = false
}

// SaveProgressive returns work that copies the blocks between start and end
// (inclusive, any corner order) from store. Any previous contents are
// discarded as soon as the work is created. The structure is Saved once the
// last unit has run.
func (s *Structure) SaveProgressive(start, end cube.Pos, store world.Store) job.Work {
	r := geom.NewRegion(start, end)
	s.region = r
	s.blocks = make([]world.Block, r.Volume())
	s.filled = 0
	s.saved = false

	total := len(s.blocks)
	i := 0
	return job.WithLen(job.WorkFunc(func() (job.Unit, bool) {
		if i >= total {
			return nil, false
		}
		idx := i
		i++
		return func() error {
			s.blocks[idx] = store.Block(r.At(idx))
			s.filled++
			if s.filled == total {
				s.saved = true
			}
			return nil
		}, true
	}), total)
}

// LoadProgressive returns work that writes the saved blocks with their
// minimum corner at at. A non-nil mask restricts which destination
// positions are written. The blocks are bound when the work is created, so
// clearing or re-saving the structure does not affect it.
func (s *Structure) LoadProgressive(at cube.Pos, store world.Store, mask world.Mask) job.Work {
	return s.load(at, store, mask, false)
}

// LoadSolidProgressive is LoadProgressive that leaves destinations of air
// blocks untouched.
func (s *Structure) LoadSolidProgressive(at cube.Pos, store world.Store) job.Work {
	return s.load(at, store, nil, true)
}

func (s *Structure) load(at cube.Pos, store world.Store, mask world.Mask, skipAir bool) job.Work {
	if !s.saved {
		return job.Units(func() error {
			return fmt.Errorf("load %s: %w", s.id, ErrNotSaved)
		})
	}

	d := at.Sub(s.region.Min)
	blocks := s.blocks
	r := s.region
	i := 0
	return job.WithLen(job.WorkFunc(func() (job.Unit, bool) {
		for i < len(blocks) {
			idx := i
			i++
			if skipAir && blocks[idx].IsAir() {
				continue
			}
			dst := r.At(idx).Add(d)
			if mask != nil && !mask.Test(dst) {
				continue
			}
			return func() error {
				return store.SetBlock(dst, blocks[idx])
			}, true
		}
		return nil, false
	}), len(blocks))
}
