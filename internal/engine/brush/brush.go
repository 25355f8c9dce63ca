// Package brush provides shape brushes applied at a point, typically where
// an operator's line of sight hits a block.
//
// A brush owns a shape, a pattern and a hollow flag. Resizing replaces the
// shape and keeps the rest.
package brush

import (
	"errors"
	"fmt"

	"github.com/df-mc/dragonfly/server/block/cube"

	"github.com/dshills/voxedit/internal/engine/geom"
	"github.com/dshills/voxedit/internal/engine/job"
	"github.com/dshills/voxedit/internal/engine/shape"
	"github.com/dshills/voxedit/internal/world"
)

// ErrSizeOutOfRange is returned for sizes below 1 or above the brush
// maximum.
var ErrSizeOutOfRange = errors.New("brush size out of range")

// DefaultMaxSize is the default largest brush size.
const DefaultMaxSize = 6

// Brush is a shape that can be painted at a point.
type Brush interface {
	// Size returns the brush size.
	Size() int

	// Resize replaces the shape, keeping pattern and fill mode.
	Resize(size int) error

	// PaintWith replaces the pattern.
	PaintWith(p world.Pattern)

	// Pattern returns the current pattern.
	Pattern() world.Pattern

	// Region returns the area the brush covers when applied at a point.
	Region(at cube.Pos) geom.Region

	// Apply returns work that paints the brush at a point. A nil mask
	// accepts every position.
	Apply(at cube.Pos, store world.Store, mask world.Mask) job.Work

	// String describes the brush.
	String() string
}

// Option configures a brush.
type Option func(*base)

// WithMaxSize sets the largest accepted size.
func WithMaxSize(n int) Option {
	return func(b *base) {
		if n > 0 {
			b.maxSize = n
		}
	}
}

// base holds the state shared by all brushes.
type base struct {
	size    int
	maxSize int
	pattern world.Pattern
	fill    shape.FillMode
}

func newBase(size int, p world.Pattern, hollow bool, opts []Option) (base, error) {
	b := base{maxSize: DefaultMaxSize, pattern: p, fill: shape.FillModeOf(hollow)}
	for _, opt := range opts {
		opt(&b)
	}
	if err := b.check(size); err != nil {
		return base{}, err
	}
	b.size = size
	return b, nil
}

func (b *base) check(size int) error {
	if size < 1 || size > b.maxSize {
		return fmt.Errorf("%w: %d not in [1, %d]", ErrSizeOutOfRange, size, b.maxSize)
	}
	return nil
}

func (b *base) Size() int                 { return b.size }
func (b *base) Pattern() world.Pattern    { return b.pattern }
func (b *base) PaintWith(p world.Pattern) { b.pattern = p }

// paint returns work setting every position of c to the pattern.
func (b *base) paint(c shape.Cursor, store world.Store) job.Work {
	p := b.pattern
	return job.Each(c, func(pos cube.Pos) error {
		return store.SetBlock(pos, p.Resolve(pos))
	})
}

// Sphere paints spheres centred on the point.
type Sphere struct {
	base
	shape *shape.Sphere
}

// NewSphere creates a sphere brush.
func NewSphere(radius int, p world.Pattern, hollow bool, opts ...Option) (*Sphere, error) {
	b, err := newBase(radius, p, hollow, opts)
	if err != nil {
		return nil, err
	}
	s := &Sphere{base: b}
	if s.shape, err = shape.NewSphere(float64(radius)); err != nil {
		return nil, err
	}
	return s, nil
}

// Resize implements Brush.
func (s *Sphere) Resize(radius int) error {
	if err := s.check(radius); err != nil {
		return err
	}
	sh, err := shape.NewSphere(float64(radius))
	if err != nil {
		return err
	}
	s.shape = sh
	s.size = radius
	return nil
}

// Region implements Brush.
func (s *Sphere) Region(at cube.Pos) geom.Region {
	return s.shape.Region(at)
}

// Apply implements Brush.
func (s *Sphere) Apply(at cube.Pos, store world.Store, mask world.Mask) job.Work {
	c := s.shape.Iterate(at, s.fill, mask)
	return job.WithLen(s.paint(c, store), s.shape.Volume(at))
}

// String implements Brush.
func (s *Sphere) String() string {
	return fmt.Sprintf("sphere brush r=%d %s", s.size, s.fill)
}

// Cuboid paints cubes centred on the point.
type Cuboid struct {
	base
	shape *shape.Cuboid
}

// NewCuboid creates a cube brush with the given edge length.
func NewCuboid(size int, p world.Pattern, hollow bool, opts ...Option) (*Cuboid, error) {
	b, err := newBase(size, p, hollow, opts)
	if err != nil {
		return nil, err
	}
	c := &Cuboid{base: b}
	if c.shape, err = shape.NewCuboid(size, size, size); err != nil {
		return nil, err
	}
	return c, nil
}

// Resize implements Brush.
func (c *Cuboid) Resize(size int) error {
	if err := c.check(size); err != nil {
		return err
	}
	sh, err := shape.NewCuboid(size, size, size)
	if err != nil {
		return err
	}
	c.shape = sh
	c.size = size
	return nil
}

func (c *Cuboid) anchor(at cube.Pos) cube.Pos {
	h := c.size / 2
	return at.Sub(cube.Pos{h, h, h})
}

// Region implements Brush.
func (c *Cuboid) Region(at cube.Pos) geom.Region {
	return c.shape.Region(c.anchor(at))
}

// Apply implements Brush.
func (c *Cuboid) Apply(at cube.Pos, store world.Store, mask world.Mask) job.Work {
	a := c.anchor(at)
	return job.WithLen(c.paint(c.shape.Iterate(a, c.fill, mask), store), c.shape.Volume(a))
}

// String implements Brush.
func (c *Cuboid) String() string {
	return fmt.Sprintf("cuboid brush %d %s", c.size, c.fill)
}
