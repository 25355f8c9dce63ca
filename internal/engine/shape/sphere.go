package shape

import (
	"fmt"
	"math"

	"github.com/df-mc/dragonfly/server/block/cube"

	"github.com/dshills/voxedit/internal/engine/geom"
	"github.com/dshills/voxedit/internal/world"
)

// Sphere is a ball of voxels centred on the anchor.
type Sphere struct {
	radius float64
}

// NewSphere creates a sphere. The radius must be positive and finite.
func NewSphere(radius float64) (*Sphere, error) {
	if math.IsNaN(radius) || math.IsInf(radius, 0) || radius <= 0 {
		return nil, fmt.Errorf("%w: sphere radius %v", ErrInvalidParameter, radius)
	}
	return &Sphere{radius: radius}, nil
}

// Radius returns the sphere radius.
func (s *Sphere) Radius() float64 {
	return s.radius
}

// Region implements Shape.
func (s *Sphere) Region(anchor cube.Pos) geom.Region {
	r := int(math.Ceil(s.radius))
	d := cube.Pos{r, r, r}
	return geom.Region{Min: anchor.Sub(d), Max: anchor.Add(d)}
}

// Iterate implements Shape. A voxel belongs to the sphere when its distance
// from the centre is at most radius+0.5. The hollow shell keeps voxels whose
// distance is also greater than radius-1.
func (s *Sphere) Iterate(anchor cube.Pos, fill FillMode, mask world.Mask) Cursor {
	outer := s.radius + 0.5
	outerSq := outer * outer
	inner := s.radius - 1
	innerSq := inner * inner
	hollow := fill == Hollow && inner > 0

	keep := func(p cube.Pos) bool {
		d := distSq(p, anchor)
		if d > outerSq {
			return false
		}
		return !hollow || d > innerSq
	}
	return newSweep(s.Region(anchor), keep, mask)
}

// Volume implements Shape.
func (s *Sphere) Volume(cube.Pos) int {
	return SphereVolume(s.radius)
}

// String implements Shape.
func (s *Sphere) String() string {
	return fmt.Sprintf("sphere r=%g", s.radius)
}

func (*Sphere) sealed() {}

// SphereVolume returns round(4/3 * pi * r^3).
func SphereVolume(radius float64) int {
	return int(math.Round(4.0 / 3.0 * math.Pi * radius * radius * radius))
}

// Distance returns the Euclidean distance between two voxels.
func Distance(a, b cube.Pos) float64 {
	return math.Sqrt(distSq(a, b))
}

func distSq(a, b cube.Pos) float64 {
	dx := float64(a[0] - b[0])
	dy := float64(a[1] - b[1])
	dz := float64(a[2] - b[2])
	return dx*dx + dy*dy + dz*dz
}
