// Package shape generates the voxel coordinates of primitive shapes.
//
// A Shape is pure geometry. Combined with an anchor it yields a bounding
// Region and a lazy Cursor over the voxels that belong to it. Shapes know
// nothing of jobs, sessions or history.
//
//	s, err := shape.NewSphere(4)
//	c := s.Iterate(center, shape.Hollow, nil)
//	for p, ok := c.Next(); ok; p, ok = c.Next() {
//	    // ...
//	}
//
// Every call to Iterate returns a fresh cursor, so the same shape can be
// walked any number of times.
package shape

import (
	"errors"

	"github.com/df-mc/dragonfly/server/block/cube"

	"github.com/dshills/voxedit/internal/engine/geom"
	"github.com/dshills/voxedit/internal/world"
)

// ErrInvalidParameter is returned when a shape is constructed with a size it
// cannot represent.
var ErrInvalidParameter = errors.New("invalid shape parameter")

// FillMode selects between the whole shape and its outer shell.
type FillMode int

const (
	// Filled yields interior and boundary voxels.
	Filled FillMode = iota
	// Hollow yields only the boundary shell.
	Hollow
)

// String returns the fill mode name.
func (m FillMode) String() string {
	switch m {
	case Filled:
		return "filled"
	case Hollow:
		return "hollow"
	default:
		return "unknown"
	}
}

// FillModeOf maps a hollow flag to a FillMode.
func FillModeOf(hollow bool) FillMode {
	if hollow {
		return Hollow
	}
	return Filled
}

// Shape is implemented by Cuboid and Sphere only.
type Shape interface {
	// Region returns the bounding box of the shape placed at anchor.
	Region(anchor cube.Pos) geom.Region

	// Iterate returns a new cursor over the voxels of the shape placed at
	// anchor. Voxels rejected by mask are skipped; a nil mask accepts all.
	Iterate(anchor cube.Pos, fill FillMode, mask world.Mask) Cursor

	// Volume returns the number of voxels of the filled shape. It is exact
	// for cuboids and an analytic estimate for spheres.
	Volume(anchor cube.Pos) int

	// String describes the shape.
	String() string

	sealed()
}

// Cursor is a resumable iterator over voxel coordinates.
type Cursor interface {
	// Next returns the next coordinate, or false once the cursor is exhausted.
	Next() (cube.Pos, bool)
}

// Count drains c and returns the number of coordinates it produced.
func Count(c Cursor) int {
	n := 0
	for _, ok := c.Next(); ok; _, ok = c.Next() {
		n++
	}
	return n
}

// Collect drains c into a slice.
func Collect(c Cursor) []cube.Pos {
	var out []cube.Pos
	for p, ok := c.Next(); ok; p, ok = c.Next() {
		out = append(out, p)
	}
	return out
}

// sweep walks a region in x-outer, y, z-inner order and yields the positions
// accepted by keep and mask.
type sweep struct {
	region geom.Region
	next   int
	total  int
	keep   func(cube.Pos) bool
	mask   world.Mask
}

func newSweep(r geom.Region, keep func(cube.Pos) bool, mask world.Mask) *sweep {
	return &sweep{region: r, total: r.Volume(), keep: keep, mask: mask}
}

// Next implements Cursor.
func (s *sweep) Next() (cube.Pos, bool) {
	for s.next < s.total {
		p := s.region.At(s.next)
		s.next++
		if s.keep != nil && !s.keep(p) {
			continue
		}
		if s.mask != nil && !s.mask.Test(p) {
			continue
		}
		return p, true
	}
	return cube.Pos{}, false
}
