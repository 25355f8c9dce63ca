package shape

import (
	"fmt"

	"github.com/df-mc/dragonfly/server/block/cube"

	"github.com/dshills/voxedit/internal/engine/geom"
	"github.com/dshills/voxedit/internal/world"
)

// Cuboid is an axis-aligned box whose minimum corner is the anchor.
type Cuboid struct {
	width, height, depth int
}

// NewCuboid creates a cuboid with the given extents. All extents must be
// positive.
func NewCuboid(width, height, depth int) (*Cuboid, error) {
	if width <= 0 || height <= 0 || depth <= 0 {
		return nil, fmt.Errorf("%w: cuboid size %dx%dx%d", ErrInvalidParameter, width, height, depth)
	}
	return &Cuboid{width: width, height: height, depth: depth}, nil
}

// Size returns the extents of the cuboid.
func (c *Cuboid) Size() cube.Pos {
	return cube.Pos{c.width, c.height, c.depth}
}

// Region implements Shape.
func (c *Cuboid) Region(anchor cube.Pos) geom.Region {
	return geom.Region{Min: anchor, Max: anchor.Add(cube.Pos{c.width - 1, c.height - 1, c.depth - 1})}
}

// Iterate implements Shape.
func (c *Cuboid) Iterate(anchor cube.Pos, fill FillMode, mask world.Mask) Cursor {
	r := c.Region(anchor)
	var keep func(cube.Pos) bool
	if fill == Hollow {
		keep = func(p cube.Pos) bool {
			for i := 0; i < 3; i++ {
				if p[i] == r.Min[i] || p[i] == r.Max[i] {
					return true
				}
			}
			return false
		}
	}
	return newSweep(r, keep, mask)
}

// Volume implements Shape.
func (c *Cuboid) Volume(cube.Pos) int {
	return c.width * c.height * c.depth
}

// String implements Shape.
func (c *Cuboid) String() string {
	return fmt.Sprintf("cuboid %dx%dx%d", c.width, c.height, c.depth)
}

func (*Cuboid) sealed() {}
