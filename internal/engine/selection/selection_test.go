package selection

import (
	"errors"
	"testing"

	"github.com/df-mc/dragonfly/server/block/cube"

	"github.com/dshills/voxedit/internal/engine/geom"
	"github.com/dshills/voxedit/internal/engine/shape"
)

type fixedBounds cube.Range

func (b fixedBounds) Range() cube.Range { return cube.Range(b) }

func newTestSelection(opts ...Option) *Selection {
	return New(fixedBounds{-64, 319}, opts...)
}

func TestCuboidSelectionBlockCount(t *testing.T) {
	s := newTestSelection()
	if err := s.Set(0, cube.Pos{0, 0, 0}); err != nil {
		t.Fatalf("Set(0) error = %v", err)
	}
	if s.IsValid() {
		t.Error("selection with one point should be invalid")
	}
	if got := s.BlockCount(); got != 0 {
		t.Errorf("BlockCount() on incomplete = %d, want 0", got)
	}
	if err := s.Set(1, cube.Pos{4, 4, 4}); err != nil {
		t.Fatalf("Set(1) error = %v", err)
	}
	if got := s.BlockCount(); got != 125 {
		t.Errorf("BlockCount() = %d, want 125", got)
	}
}

func TestCuboidSelectionBlockCountMatchesIteration(t *testing.T) {
	corners := [][2]cube.Pos{
		{{0, 0, 0}, {0, 0, 0}},
		{{3, 10, -2}, {-1, 4, 5}},
		{{10, 0, 10}, {8, 2, 7}},
	}
	for _, c := range corners {
		s := newTestSelection()
		_ = s.Set(0, c[0])
		_ = s.Set(1, c[1])
		cur, err := s.Cursor(nil)
		if err != nil {
			t.Fatalf("Cursor() error = %v", err)
		}
		if got, want := s.BlockCount(), shape.Count(cur); got != want {
			t.Errorf("BlockCount() = %d, iterated %d", got, want)
		}
	}
}

func TestCuboidSetSecondPointFirst(t *testing.T) {
	s := newTestSelection()
	if err := s.Set(1, cube.Pos{1, 2, 3}); err != nil {
		t.Fatalf("cuboid Set(1) before Set(0) error = %v", err)
	}
	if s.IsValid() {
		t.Error("selection should not be valid with only point 1")
	}
	if _, _, err := s.Shape(); !errors.Is(err, ErrInvalidSelection) {
		t.Errorf("Shape() error = %v, want ErrInvalidSelection", err)
	}
}

func TestNoPrimaryPoint(t *testing.T) {
	for _, m := range []Mode{ModeExtend, ModeSphere} {
		s := newTestSelection(WithMode(m))
		if err := s.Set(1, cube.Pos{1, 1, 1}); !errors.Is(err, ErrNoPrimaryPoint) {
			t.Errorf("%s: Set(1) error = %v, want ErrNoPrimaryPoint", m, err)
		}
	}
}

func TestInvalidIndex(t *testing.T) {
	s := newTestSelection()
	if err := s.Set(2, cube.Pos{}); !errors.Is(err, ErrInvalidIndex) {
		t.Errorf("Set(2) error = %v, want ErrInvalidIndex", err)
	}
}

func TestNonCuboidPrimaryResetsSecond(t *testing.T) {
	s := newTestSelection(WithMode(ModeExtend))
	p := cube.Pos{5, 6, 7}
	_ = s.Set(0, p)
	pts := s.Points()
	if len(pts) != 2 || pts[0] != p || pts[1] != p {
		t.Errorf("Points() = %v, want [%v %v]", pts, p, p)
	}
	if got := s.BlockCount(); got != 1 {
		t.Errorf("BlockCount() = %d, want 1", got)
	}
}

func TestExtendNeverShrinks(t *testing.T) {
	s := newTestSelection(WithMode(ModeExtend))
	_ = s.Set(0, cube.Pos{0, 0, 0})
	clicks := []cube.Pos{
		{3, 1, 2}, {1, 1, 1}, {-2, 5, 0}, {0, 0, 0}, {2, -3, 9}, {1, 1, 1},
	}
	prev, _ := s.Range()
	for _, c := range clicks {
		if err := s.Set(1, c); err != nil {
			t.Fatalf("Set(1, %v) error = %v", c, err)
		}
		cur, err := s.Range()
		if err != nil {
			t.Fatalf("Range() error = %v", err)
		}
		if !cur.Contains(prev.Min) || !cur.Contains(prev.Max) {
			t.Fatalf("box shrank from %v to %v after %v", prev, cur, c)
		}
		if !cur.Contains(c) {
			t.Fatalf("box %v does not contain click %v", cur, c)
		}
		prev = cur
	}
	want := geom.Region{Min: cube.Pos{-2, -3, 0}, Max: cube.Pos{3, 5, 9}}
	if prev != want {
		t.Errorf("final Range() = %v, want %v", prev, want)
	}
}

func TestSphereSelection(t *testing.T) {
	s := newTestSelection(WithMode(ModeSphere))
	_ = s.Set(0, cube.Pos{0, 0, 0})
	if err := s.Set(1, cube.Pos{3, 0, 0}); err != nil {
		t.Fatalf("Set(1) error = %v", err)
	}
	sh, anchor, err := s.Shape()
	if err != nil {
		t.Fatalf("Shape() error = %v", err)
	}
	sp, ok := sh.(*shape.Sphere)
	if !ok {
		t.Fatalf("Shape() = %T, want *shape.Sphere", sh)
	}
	if sp.Radius() != 3 {
		t.Errorf("radius = %v, want 3", sp.Radius())
	}
	if anchor != (cube.Pos{0, 0, 0}) {
		t.Errorf("anchor = %v, want origin", anchor)
	}
	if got := s.BlockCount(); got != 113 {
		t.Errorf("BlockCount() = %d, want 113", got)
	}
}

func TestSphereRadiusIsRounded(t *testing.T) {
	s := newTestSelection(WithMode(ModeSphere))
	_ = s.Set(0, cube.Pos{0, 64, 0})
	// distance 3.6 snaps toward 4 along the click direction
	_ = s.Set(1, cube.Pos{3, 66, 0})
	pts := s.Points()
	d := shape.Distance(pts[0], pts[1])
	if d < 3.5 || d > 4.5 {
		t.Errorf("derived radius = %v, want about 4", d)
	}
}

func TestSphereSecondPointIdempotent(t *testing.T) {
	clicks := []cube.Pos{{3, 0, 0}, {2, 2, 1}, {-4, 1, 7}, {0, 0, 0}}
	for _, c := range clicks {
		s := newTestSelection(WithMode(ModeSphere))
		_ = s.Set(0, cube.Pos{0, 0, 0})
		_ = s.Set(1, c)
		first := s.Points()[1]
		_ = s.Set(1, c)
		if second := s.Points()[1]; second != first {
			t.Errorf("Set(1, %v) twice: %v then %v", c, first, second)
		}
	}
}

func TestSphereCenterFixed(t *testing.T) {
	s := newTestSelection(WithMode(ModeSphere))
	center := cube.Pos{10, 70, 10}
	_ = s.Set(0, center)
	_ = s.Set(1, cube.Pos{15, 70, 10})
	_ = s.Set(1, cube.Pos{10, 72, 10})
	if got := s.Points()[0]; got != center {
		t.Errorf("centre moved to %v", got)
	}
}

func TestSetModeClearsOnFamilyChange(t *testing.T) {
	tests := []struct {
		name    string
		from    Mode
		to      Mode
		cleared bool
	}{
		{"cuboid to extend", ModeCuboid, ModeExtend, false},
		{"extend to cuboid", ModeExtend, ModeCuboid, false},
		{"cuboid to sphere", ModeCuboid, ModeSphere, true},
		{"sphere to extend", ModeSphere, ModeExtend, true},
		{"sphere to sphere", ModeSphere, ModeSphere, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSelection(WithMode(tt.from))
			_ = s.Set(0, cube.Pos{0, 0, 0})
			_ = s.Set(1, cube.Pos{2, 0, 0})
			s.SetMode(tt.to)
			if got := len(s.Points()) == 0; got != tt.cleared {
				t.Errorf("cleared = %v, want %v", got, tt.cleared)
			}
			if s.Mode() != tt.to {
				t.Errorf("Mode() = %v, want %v", s.Mode(), tt.to)
			}
		})
	}
}

func TestClampsToWorldBounds(t *testing.T) {
	s := New(fixedBounds{0, 255})
	_ = s.Set(0, cube.Pos{0, -20, 0})
	_ = s.Set(1, cube.Pos{0, 400, 0})
	pts := s.Points()
	if pts[0][1] != 0 || pts[1][1] != 255 {
		t.Errorf("Points() = %v, want y clamped to [0,255]", pts)
	}
}

func TestClear(t *testing.T) {
	s := newTestSelection()
	_ = s.Set(0, cube.Pos{})
	_ = s.Set(1, cube.Pos{1, 1, 1})
	s.Clear()
	if s.IsValid() || len(s.Points()) != 0 || len(s.DisplayPoints()) != 0 {
		t.Error("Clear() left state behind")
	}
}

func TestCuboidDisplayPoints(t *testing.T) {
	s := newTestSelection()
	_ = s.Set(0, cube.Pos{0, 0, 0})
	_ = s.Set(1, cube.Pos{0, 0, 0})
	// a single block: 8 corners, edges of length 1 add nothing
	if got := len(s.DisplayPoints()); got != 8 {
		t.Errorf("len(DisplayPoints()) = %d, want 8", got)
	}

	_ = s.Set(1, cube.Pos{99, 0, 0})
	// four x edges of length 100 capped at 16 subdivisions, other edges length 1
	if got := len(s.DisplayPoints()); got != 8+4*15 {
		t.Errorf("len(DisplayPoints()) = %d, want %d", got, 8+4*15)
	}
	for _, p := range s.DisplayPoints() {
		if p[0] == float64(int(p[0])) && p[0] != 0 {
			t.Fatalf("point %v has no sub-voxel offset", p)
		}
	}
}

func TestSphereDisplayPoints(t *testing.T) {
	s := newTestSelection(WithMode(ModeSphere))
	_ = s.Set(0, cube.Pos{0, 64, 0})
	_ = s.Set(1, cube.Pos{30, 64, 0})
	if got := len(s.DisplayPoints()); got != 3*72 {
		t.Errorf("len(DisplayPoints()) = %d, want %d", got, 3*72)
	}
}

func TestDrawInterval(t *testing.T) {
	s := newTestSelection(WithVisible(true), WithDrawInterval(3))
	_ = s.Set(0, cube.Pos{})
	_ = s.Set(1, cube.Pos{2, 2, 2})

	var drawn []int
	for tick := 0; tick < 7; tick++ {
		if s.Draw() != nil {
			drawn = append(drawn, tick)
		}
	}
	want := []int{0, 3, 6}
	if len(drawn) != len(want) {
		t.Fatalf("drawn at %v, want %v", drawn, want)
	}
	for i := range want {
		if drawn[i] != want[i] {
			t.Errorf("drawn at %v, want %v", drawn, want)
		}
	}

	s.SetVisible(false)
	if s.Draw() != nil {
		t.Error("invisible selection drew")
	}
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{ModeCuboid, ModeExtend, ModeSphere} {
		got, err := ParseMode(m.String())
		if err != nil || got != m {
			t.Errorf("ParseMode(%q) = %v, %v", m.String(), got, err)
		}
	}
	if _, err := ParseMode("polygon"); !errors.Is(err, ErrUnknownMode) {
		t.Errorf("ParseMode(polygon) error = %v, want ErrUnknownMode", err)
	}
}
