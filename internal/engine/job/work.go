package job

import (
	"github.com/df-mc/dragonfly/server/block/cube"
)

// Unit is one bounded piece of work. It runs on the tick goroutine and must
// not block.
type Unit func() error

// Work produces units lazily, in order. Next returns false once exhausted.
// A Work is consumed once.
type Work interface {
	Next() (Unit, bool)
}

// Sized is implemented by Work that knows how many units it will produce in
// total. It lets a job report fractional progress within a step.
type Sized interface {
	Len() int
}

// WorkFunc adapts a function to the Work interface.
type WorkFunc func() (Unit, bool)

// Next calls f.
func (f WorkFunc) Next() (Unit, bool) { return f() }

// Cursor yields voxel positions. shape.Cursor satisfies it.
type Cursor interface {
	Next() (cube.Pos, bool)
}

// Each returns Work with one unit per position of c, each calling fn.
func Each(c Cursor, fn func(cube.Pos) error) Work {
	return WorkFunc(func() (Unit, bool) {
		p, ok := c.Next()
		if !ok {
			return nil, false
		}
		return func() error { return fn(p) }, true
	})
}

// Units returns Work over a fixed list of units.
func Units(units ...Unit) Work {
	return &unitList{units: units}
}

type unitList struct {
	units []Unit
	next  int
}

func (l *unitList) Next() (Unit, bool) {
	if l.next >= len(l.units) {
		return nil, false
	}
	u := l.units[l.next]
	l.next++
	return u, true
}

func (l *unitList) Len() int { return len(l.units) }

// WithLen wraps w with a known total, for progress reporting.
func WithLen(w Work, n int) Work {
	return &sizedWork{Work: w, n: n}
}

type sizedWork struct {
	Work
	n int
}

func (s *sizedWork) Len() int { return s.n }

// Concat returns Work that drains each of ws in order.
func Concat(ws ...Work) Work {
	c := &concat{ws: ws}
	total := 0
	for _, w := range ws {
		sz, ok := w.(Sized)
		if !ok {
			return c
		}
		total += sz.Len()
	}
	return WithLen(c, total)
}

type concat struct {
	ws []Work
}

func (c *concat) Next() (Unit, bool) {
	for len(c.ws) > 0 {
		if u, ok := c.ws[0].Next(); ok {
			return u, true
		}
		c.ws = c.ws[1:]
	}
	return nil, false
}
