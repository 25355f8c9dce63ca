package structure

import (
	"errors"
	"testing"

	"github.com/df-mc/dragonfly/server/block/cube"

	"github.com/dshills/voxedit/internal/engine/job"
	"github.com/dshills/voxedit/internal/world"
)

var (
	stone = world.Block{Name: "minecraft:stone"}
	dirt  = world.Block{Name: "minecraft:dirt"}
)

func drain(t *testing.T, w job.Work) int {
	t.Helper()
	n := 0
	for u, ok := w.Next(); ok; u, ok = w.Next() {
		if err := u(); err != nil {
			t.Fatalf("unit error = %v", err)
		}
		n++
	}
	return n
}

func TestSaveLoadRoundTrip(t *testing.T) {
	m := world.NewMemory(cube.Range{-64, 319})
	_ = m.SetBlock(cube.Pos{0, 0, 0}, stone)
	_ = m.SetBlock(cube.Pos{1, 2, 1}, dirt)

	s := New()
	w := s.SaveProgressive(cube.Pos{1, 2, 1}, cube.Pos{0, 0, 0}, m)
	if sz, ok := w.(job.Sized); !ok || sz.Len() != 12 {
		t.Fatalf("save work not sized to 12")
	}
	if s.Saved() {
		t.Error("Saved() before work ran")
	}
	if n := drain(t, w); n != 12 {
		t.Errorf("save units = %d, want 12", n)
	}
	if !s.Saved() {
		t.Fatal("Saved() = false after save")
	}
	if s.Size() != (cube.Pos{2, 3, 2}) {
		t.Errorf("Size() = %v", s.Size())
	}
	if s.Block(cube.Pos{1, 2, 1}) != dirt {
		t.Errorf("Block(1,2,1) = %v, want dirt", s.Block(cube.Pos{1, 2, 1}))
	}

	at := cube.Pos{10, 5, 10}
	if n := drain(t, s.LoadProgressive(at, m, nil)); n != 12 {
		t.Errorf("load units = %d, want 12", n)
	}
	if got := m.Block(cube.Pos{10, 5, 10}); got != stone {
		t.Errorf("Block(at) = %v, want stone", got)
	}
	if got := m.Block(cube.Pos{11, 7, 11}); got != dirt {
		t.Errorf("Block(at+1,2,1) = %v, want dirt", got)
	}
	if r := s.Region(at); r.Min != at || r.Max != (cube.Pos{11, 7, 11}) {
		t.Errorf("Region(at) = %v", r)
	}
}

func TestLoadOverwritesWithAir(t *testing.T) {
	m := world.NewMemory(cube.Range{-64, 319})
	s := New()
	drain(t, s.SaveProgressive(cube.Pos{0, 0, 0}, cube.Pos{1, 1, 1}, m))

	_ = m.SetBlock(cube.Pos{20, 0, 20}, stone)
	drain(t, s.LoadProgressive(cube.Pos{20, 0, 20}, m, nil))
	if !m.Block(cube.Pos{20, 0, 20}).IsAir() {
		t.Error("air in structure did not overwrite destination")
	}
}

func TestLoadMask(t *testing.T) {
	m := world.NewMemory(cube.Range{-64, 319})
	_ = m.SetBlock(cube.Pos{0, 0, 0}, stone)
	_ = m.SetBlock(cube.Pos{1, 0, 0}, stone)
	s := New()
	drain(t, s.SaveProgressive(cube.Pos{0, 0, 0}, cube.Pos{1, 0, 0}, m))

	onlyFirst := world.MaskFunc(func(p cube.Pos) bool { return p[0] == 5 })
	if n := drain(t, s.LoadProgressive(cube.Pos{5, 0, 0}, m, onlyFirst)); n != 1 {
		t.Errorf("masked load units = %d, want 1", n)
	}
	if m.Block(cube.Pos{5, 0, 0}) != stone || !m.Block(cube.Pos{6, 0, 0}).IsAir() {
		t.Error("mask not applied to destination")
	}
}

func TestLoadBeforeSave(t *testing.T) {
	m := world.NewMemory(cube.Range{-64, 319})
	s := New()
	w := s.LoadProgressive(cube.Pos{}, m, nil)
	u, ok := w.Next()
	if !ok {
		t.Fatal("expected a failing unit")
	}
	if err := u(); !errors.Is(err, ErrNotSaved) {
		t.Errorf("unit error = %v, want ErrNotSaved", err)
	}
}

func TestLoadOutOfBounds(t *testing.T) {
	m := world.NewMemory(cube.Range{0, 15})
	s := New()
	drain(t, s.SaveProgressive(cube.Pos{0, 14, 0}, cube.Pos{0, 15, 0}, m))
	w := s.LoadProgressive(cube.Pos{0, 15, 0}, m, nil)
	var err error
	for u, ok := w.Next(); ok && err == nil; u, ok = w.Next() {
		err = u()
	}
	if !errors.Is(err, world.ErrOutOfBounds) {
		t.Errorf("load error = %v, want ErrOutOfBounds", err)
	}
}

func TestClear(t *testing.T) {
	m := world.NewMemory(cube.Range{-64, 319})
	s := New()
	drain(t, s.SaveProgressive(cube.Pos{}, cube.Pos{2, 2, 2}, m))
	s.Clear()
	if s.Saved() || s.Volume() != 0 || s.Size() != (cube.Pos{}) {
		t.Error("Clear() left data behind")
	}
}

func TestLoadSolidSkipsAir(t *testing.T) {
	m := world.NewMemory(cube.Range{-64, 319})
	_ = m.SetBlock(cube.Pos{0, 0, 0}, stone)
	s := New()
	drain(t, s.SaveProgressive(cube.Pos{0, 0, 0}, cube.Pos{1, 0, 0}, m))

	_ = m.SetBlock(cube.Pos{11, 0, 0}, dirt)
	if n := drain(t, s.LoadSolidProgressive(cube.Pos{10, 0, 0}, m)); n != 1 {
		t.Errorf("load units = %d, want 1", n)
	}
	if got := m.Block(cube.Pos{10, 0, 0}); got != stone {
		t.Errorf("Block(10,0,0) = %v, want stone", got)
	}
	if got := m.Block(cube.Pos{11, 0, 0}); got != dirt {
		t.Errorf("Block(11,0,0) = %v, want dirt kept", got)
	}
}

func TestLoadBindsBlocks(t *testing.T) {
	m := world.NewMemory(cube.Range{-64, 319})
	_ = m.SetBlock(cube.Pos{0, 0, 0}, stone)
	s := New()
	drain(t, s.SaveProgressive(cube.Pos{0, 0, 0}, cube.Pos{0, 0, 0}, m))

	w := s.LoadProgressive(cube.Pos{5, 0, 0}, m, nil)
	s.Clear()
	if n := drain(t, w); n != 1 {
		t.Errorf("load units = %d, want 1", n)
	}
	if got := m.Block(cube.Pos{5, 0, 0}); got != stone {
		t.Errorf("Block(5,0,0) = %v, want stone", got)
	}
}
