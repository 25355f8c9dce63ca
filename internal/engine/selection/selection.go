package selection

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/dshills/voxedit/internal/engine/geom"
	"github.com/dshills/voxedit/internal/engine/shape"
	"github.com/dshills/voxedit/internal/world"
)

// Errors returned by selection operations.
var (
	// ErrNoPrimaryPoint indicates the second point was set before the first
	// in a mode that derives it from the first.
	ErrNoPrimaryPoint = errors.New("no primary selection point")

	// ErrInvalidSelection indicates a shape was requested from an incomplete
	// selection.
	ErrInvalidSelection = errors.New("incomplete selection")

	// ErrInvalidIndex indicates a point index other than 0 or 1.
	ErrInvalidIndex = errors.New("selection point index must be 0 or 1")

	// ErrUnknownMode indicates an unrecognised mode name.
	ErrUnknownMode = errors.New("unknown selection mode")
)

// DefaultDrawInterval is the number of ticks between outline redraws.
const DefaultDrawInterval = 10

// Mode determines how points are set and which shape they describe.
type Mode int

const (
	// ModeCuboid assigns each point directly; the shape is their bounding box.
	ModeCuboid Mode = iota
	// ModeExtend grows a bounding box around every point set.
	ModeExtend
	// ModeSphere fixes a centre with point 0 and a radius with point 1.
	ModeSphere
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeCuboid:
		return "cuboid"
	case ModeExtend:
		return "extend"
	case ModeSphere:
		return "sphere"
	default:
		return "unknown"
	}
}

// ParseMode parses a mode name.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "cuboid":
		return ModeCuboid, nil
	case "extend":
		return ModeExtend, nil
	case "sphere":
		return ModeSphere, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// cuboidFamily reports whether the mode describes a box.
func (m Mode) cuboidFamily() bool {
	return m == ModeCuboid || m == ModeExtend
}

// Selection is one operator's selection. It is not safe for concurrent use;
// it belongs to a single session.
type Selection struct {
	mode    Mode
	points  [2]cube.Pos
	set     [2]bool
	visible bool
	bounds  world.Bounds

	drawPoints   []mgl64.Vec3
	drawTimer    int
	drawInterval int
}

// Option configures a Selection.
type Option func(*Selection)

// WithVisible sets whether the outline is drawn.
func WithVisible(visible bool) Option {
	return func(s *Selection) {
		s.visible = visible
	}
}

// WithDrawInterval sets the number of ticks between outline redraws.
func WithDrawInterval(ticks int) Option {
	return func(s *Selection) {
		if ticks > 0 {
			s.drawInterval = ticks
		}
	}
}

// WithMode sets the initial mode.
func WithMode(m Mode) Option {
	return func(s *Selection) {
		s.mode = m
	}
}

// New creates an empty selection. Points are clamped to the vertical range of
// bounds; a nil bounds disables clamping.
func New(bounds world.Bounds, opts ...Option) *Selection {
	s := &Selection{
		bounds:       bounds,
		drawInterval: DefaultDrawInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Set sets the first (index 0) or second (index 1) point.
func (s *Selection) Set(index int, p cube.Pos) error {
	if index != 0 && index != 1 {
		return fmt.Errorf("%w: %d", ErrInvalidIndex, index)
	}
	if index == 1 && !s.set[0] && s.mode != ModeCuboid {
		return ErrNoPrimaryPoint
	}

	switch {
	case index == 0 && s.mode != ModeCuboid:
		s.points = [2]cube.Pos{p, p}
		s.set = [2]bool{true, true}
	case s.mode == ModeCuboid:
		s.points[index] = p
		s.set[index] = true
	case s.mode == ModeExtend:
		if !s.set[1] {
			// Coming from cuboid mode with only the first corner.
			s.points[1] = s.points[0]
			s.set[1] = true
		}
		lo := geom.Min(geom.Min(s.points[0], s.points[1]), p)
		hi := geom.Max(geom.Max(lo, s.points[1]), p)
		s.points = [2]cube.Pos{lo, hi}
	case s.mode == ModeSphere:
		s.points[1] = sphereEdge(s.points[0], p)
	}

	if s.bounds != nil {
		rng := s.bounds.Range()
		for i := range s.points {
			if s.set[i] {
				s.points[i] = geom.ClampY(s.points[i], rng)
			}
		}
	}
	s.updateDrawPoints()
	return nil
}

// sphereEdge returns the point at a whole-number distance from center in the
// direction of p.
func sphereEdge(center, p cube.Pos) cube.Pos {
	v := geom.Vec(p).Sub(geom.Vec(center))
	length := v.Len()
	if length == 0 {
		return center
	}
	r := math.Round(length)
	e := geom.Vec(center).Add(v.Mul(r / length))
	return cube.Pos{int(math.Round(e[0])), int(math.Round(e[1])), int(math.Round(e[2]))}
}

// Clear removes all points.
func (s *Selection) Clear() {
	s.points = [2]cube.Pos{}
	s.set = [2]bool{}
	s.updateDrawPoints()
}

// Mode returns the current mode.
func (s *Selection) Mode() Mode {
	return s.mode
}

// SetMode changes the mode. Points are cleared when switching between the
// cuboid family and sphere.
func (s *Selection) SetMode(m Mode) {
	wasCuboid := s.IsCuboid()
	s.mode = m
	if wasCuboid != s.IsCuboid() {
		s.Clear()
		return
	}
	s.updateDrawPoints()
}

// Points returns the points that are set, in index order.
func (s *Selection) Points() []cube.Pos {
	out := make([]cube.Pos, 0, 2)
	for i, p := range s.points {
		if s.set[i] {
			out = append(out, p)
		}
	}
	return out
}

// IsCuboid reports whether the selection describes a box.
func (s *Selection) IsCuboid() bool {
	return s.mode.cuboidFamily()
}

// IsValid reports whether both points are set.
func (s *Selection) IsValid() bool {
	return s.set[0] && s.set[1]
}

// Shape returns the shape described by the selection and the anchor to
// place it at.
func (s *Selection) Shape() (shape.Shape, cube.Pos, error) {
	if !s.IsValid() {
		return nil, cube.Pos{}, ErrInvalidSelection
	}

	if s.IsCuboid() {
		r := geom.NewRegion(s.points[0], s.points[1])
		size := r.Size()
		c, err := shape.NewCuboid(size[0], size[1], size[2])
		if err != nil {
			return nil, cube.Pos{}, err
		}
		return c, r.Min, nil
	}

	center := s.points[0]
	sp, err := shape.NewSphere(shape.Distance(s.points[1], center))
	if err != nil {
		return nil, cube.Pos{}, err
	}
	return sp, center, nil
}

// Range returns the bounding region of the selection.
func (s *Selection) Range() (geom.Region, error) {
	sh, anchor, err := s.Shape()
	if err != nil {
		return geom.Region{}, err
	}
	return sh.Region(anchor), nil
}

// Cursor returns a cursor over the blocks of the selection.
func (s *Selection) Cursor(mask world.Mask) (shape.Cursor, error) {
	sh, anchor, err := s.Shape()
	if err != nil {
		return nil, err
	}
	return sh.Iterate(anchor, shape.Filled, mask), nil
}

// BlockCount returns the exact (cuboid) or estimated (sphere) number of
// blocks selected. It is 0 for an incomplete selection.
func (s *Selection) BlockCount() int {
	if !s.IsValid() {
		return 0
	}
	if s.IsCuboid() {
		return geom.NewRegion(s.points[0], s.points[1]).Volume()
	}
	return shape.SphereVolume(shape.Distance(s.points[1], s.points[0]))
}

// Visible reports whether the outline is drawn.
func (s *Selection) Visible() bool {
	return s.visible
}

// SetVisible sets whether the outline is drawn.
func (s *Selection) SetVisible(v bool) {
	s.visible = v
}

// String describes the selection.
func (s *Selection) String() string {
	pts := s.Points()
	return fmt.Sprintf("%s selection %v", s.mode, pts)
}
