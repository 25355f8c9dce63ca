// Package geom provides the integer region math shared by shapes, selections,
// jobs and history records.
//
// Coordinates are cube.Pos values. They are never mutated in place; every
// helper returns a new value.
package geom

import (
	"fmt"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/go-gl/mathgl/mgl64"
)

// Region is an axis-aligned box of voxels with inclusive corners.
// Min is componentwise less than or equal to Max.
type Region struct {
	Min cube.Pos
	Max cube.Pos
}

// NewRegion creates a region spanning two arbitrary corners.
func NewRegion(a, b cube.Pos) Region {
	return Region{Min: Min(a, b), Max: Max(a, b)}
}

// Bounds returns the smallest region containing all points.
// It returns false when no points are given.
func Bounds(points ...cube.Pos) (Region, bool) {
	if len(points) == 0 {
		return Region{}, false
	}
	r := Region{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		r.Min = Min(r.Min, p)
		r.Max = Max(r.Max, p)
	}
	return r, true
}

// Size returns the extent of the region along each axis.
func (r Region) Size() cube.Pos {
	return r.Max.Sub(r.Min).Add(cube.Pos{1, 1, 1})
}

// Volume returns the number of voxels in the region.
func (r Region) Volume() int {
	s := r.Size()
	return s[0] * s[1] * s[2]
}

// Contains reports whether p lies inside the region.
func (r Region) Contains(p cube.Pos) bool {
	for i := 0; i < 3; i++ {
		if p[i] < r.Min[i] || p[i] > r.Max[i] {
			return false
		}
	}
	return true
}

// Offset returns the region translated by d.
func (r Region) Offset(d cube.Pos) Region {
	return Region{Min: r.Min.Add(d), Max: r.Max.Add(d)}
}

// Union returns the smallest region containing both r and o.
func (r Region) Union(o Region) Region {
	return Region{Min: Min(r.Min, o.Min), Max: Max(r.Max, o.Max)}
}

// Index returns the position of p in x-outer, y, z-inner sweep order.
// p must lie inside the region.
func (r Region) Index(p cube.Pos) int {
	s := r.Size()
	d := p.Sub(r.Min)
	return (d[0]*s[1]+d[1])*s[2] + d[2]
}

// At is the inverse of Index.
func (r Region) At(i int) cube.Pos {
	s := r.Size()
	z := i % s[2]
	i /= s[2]
	y := i % s[1]
	x := i / s[1]
	return r.Min.Add(cube.Pos{x, y, z})
}

// String returns a human-readable form of the region.
func (r Region) String() string {
	return fmt.Sprintf("(%d, %d, %d)..(%d, %d, %d)",
		r.Min[0], r.Min[1], r.Min[2], r.Max[0], r.Max[1], r.Max[2])
}

// Min returns the componentwise minimum of a and b.
func Min(a, b cube.Pos) cube.Pos {
	return cube.Pos{min(a[0], b[0]), min(a[1], b[1]), min(a[2], b[2])}
}

// Max returns the componentwise maximum of a and b.
func Max(a, b cube.Pos) cube.Pos {
	return cube.Pos{max(a[0], b[0]), max(a[1], b[1]), max(a[2], b[2])}
}

// Mul multiplies a and b componentwise.
func Mul(a, b cube.Pos) cube.Pos {
	return cube.Pos{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

// Lerp linearly interpolates between a and b.
func Lerp(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

// Vec returns the corner of p as a float vector.
func Vec(p cube.Pos) mgl64.Vec3 {
	return mgl64.Vec3{float64(p[0]), float64(p[1]), float64(p[2])}
}

// ClampY returns p with its y component clamped into r.
func ClampY(p cube.Pos, r cube.Range) cube.Pos {
	p[1] = min(max(p[1], r.Min()), r.Max())
	return p
}
