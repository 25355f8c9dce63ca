package selection

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/dshills/voxedit/internal/engine/geom"
	"github.com/dshills/voxedit/internal/engine/shape"
)

const (
	maxEdgePoints   = 16
	maxCirclePoints = 72

	// Exact integers snap particles to block centres.
	drawOffset = 0.001
)

// cuboid corner index pairs that form the 12 edges of a box.
var boxEdges = [12][2]int{
	{0, 1}, {2, 3}, {4, 5}, {6, 7},
	{0, 2}, {1, 3}, {4, 6}, {5, 7},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

// DisplayPoints returns the outline points for the current selection.
// The returned slice must not be modified.
func (s *Selection) DisplayPoints() []mgl64.Vec3 {
	return s.drawPoints
}

// Draw returns the outline points when a redraw is due, and nil otherwise.
// It is called once per tick.
func (s *Selection) Draw() []mgl64.Vec3 {
	if !s.visible {
		return nil
	}
	var out []mgl64.Vec3
	if s.drawTimer <= 0 {
		s.drawTimer = s.drawInterval
		out = s.drawPoints
	}
	s.drawTimer--
	return out
}

func (s *Selection) updateDrawPoints() {
	s.drawPoints = nil
	s.drawTimer = 0
	if !s.IsValid() {
		return
	}

	if s.IsCuboid() {
		s.drawPoints = cuboidOutline(s.drawPoints, geom.Vec(geom.Min(s.points[0], s.points[1])),
			geom.Vec(geom.Max(s.points[0], s.points[1])).Add(mgl64.Vec3{1, 1, 1}))
	} else {
		center := geom.Vec(s.points[0])
		radius := shape.Distance(s.points[1], s.points[0]) + 0.5
		s.drawPoints = sphereOutline(s.drawPoints, center, radius)
	}

	for i := range s.drawPoints {
		s.drawPoints[i][0] += drawOffset
		s.drawPoints[i][2] += drawOffset
	}
}

func cuboidOutline(dst []mgl64.Vec3, lo, hi mgl64.Vec3) []mgl64.Vec3 {
	corners := [8]mgl64.Vec3{
		{lo[0], lo[1], lo[2]},
		{hi[0], lo[1], lo[2]},
		{lo[0], hi[1], lo[2]},
		{hi[0], hi[1], lo[2]},
		{lo[0], lo[1], hi[2]},
		{hi[0], lo[1], hi[2]},
		{lo[0], hi[1], hi[2]},
		{hi[0], hi[1], hi[2]},
	}
	dst = append(dst, corners[:]...)

	for _, e := range boxEdges {
		a, b := corners[e[0]], corners[e[1]]
		n := min(int(math.Floor(b.Sub(a).Len())), maxEdgePoints)
		for i := 1; i < n; i++ {
			dst = append(dst, geom.Lerp(a, b, float64(i)/float64(n)))
		}
	}
	return dst
}

func sphereOutline(dst []mgl64.Vec3, center mgl64.Vec3, radius float64) []mgl64.Vec3 {
	axes := [3]struct {
		rotate func(angle float64) mgl64.Mat3
		v      mgl64.Vec3
	}{
		{mgl64.Rotate3DX, mgl64.Vec3{0, 1, 0}},
		{mgl64.Rotate3DY, mgl64.Vec3{1, 0, 0}},
		{mgl64.Rotate3DZ, mgl64.Vec3{0, 1, 0}},
	}
	resolution := int(math.Min(radius*2*math.Pi, maxCirclePoints))
	if resolution < 1 {
		resolution = 1
	}
	half := mgl64.Vec3{0.5, 0.5, 0.5}

	for _, axis := range axes {
		for i := 0; i < resolution; i++ {
			angle := 2 * math.Pi * float64(i) / float64(resolution)
			p := axis.rotate(angle).Mul3x1(axis.v)
			dst = append(dst, p.Mul(radius).Add(center).Add(half))
		}
	}
	return dst
}
