package session

import (
	"errors"
	"testing"

	"github.com/df-mc/dragonfly/server/block/cube"

	"github.com/dshills/voxedit/internal/world"
)

func newManager() *Manager {
	return NewManager(world.NewMemory(cube.Range{-64, 319}), DefaultConfig())
}

func TestGetCreatesOnce(t *testing.T) {
	m := newManager()
	if m.Has("alice") {
		t.Fatal("Has() before Get")
	}
	a := m.Get("alice")
	if m.Get("alice") != a {
		t.Error("Get() returned a different session")
	}
	if !m.Has("alice") || m.Len() != 1 {
		t.Errorf("Has() = %v, Len() = %d", m.Has("alice"), m.Len())
	}
	if a.Operator() != "alice" || a.ID() == "" {
		t.Errorf("session = %s", a)
	}
}

func TestLookup(t *testing.T) {
	m := newManager()
	if _, err := m.Lookup("bob"); !errors.Is(err, ErrNoSession) {
		t.Errorf("Lookup() error = %v, want ErrNoSession", err)
	}
	m.Get("bob")
	if _, err := m.Lookup("bob"); err != nil {
		t.Errorf("Lookup() error = %v", err)
	}
}

func TestRemoveReleasesState(t *testing.T) {
	m := newManager()
	s := m.Get("alice")
	s.CreateRegion()
	s.AddPickerPattern(world.Block{Name: "minecraft:stone"})
	_ = s.Selection().Set(0, cube.Pos{})
	_ = s.Selection().Set(1, cube.Pos{1, 1, 1})

	var removed *Session
	m.OnRemove(func(s *Session) { removed = s })

	if !m.Remove("alice") {
		t.Fatal("Remove() = false")
	}
	if removed != s {
		t.Error("remove hook not called with the session")
	}
	if s.Regions() != 0 || s.Selection().IsValid() {
		t.Error("session state not released")
	}
	if _, err := s.PickerPattern(); !errors.Is(err, ErrEmptyPicker) {
		t.Errorf("PickerPattern() error = %v", err)
	}
	if m.Remove("alice") {
		t.Error("second Remove() = true")
	}
	if m.Get("alice") == s {
		t.Error("Get() after Remove returned the old session")
	}
}

func TestPickerPattern(t *testing.T) {
	s := newManager().Get("alice")
	if _, err := s.PickerPattern(); !errors.Is(err, ErrEmptyPicker) {
		t.Errorf("PickerPattern() error = %v, want ErrEmptyPicker", err)
	}
	stone := world.Block{Name: "minecraft:stone"}
	s.AddPickerPattern(stone)
	p, err := s.PickerPattern()
	if err != nil {
		t.Fatalf("PickerPattern() error = %v", err)
	}
	if p.Resolve(cube.Pos{3, 4, 5}) != stone {
		t.Error("single-block picker did not resolve to the block")
	}
	s.ClearPickerPattern()
	if _, err := s.PickerPattern(); err == nil {
		t.Error("PickerPattern() after clear succeeded")
	}
}

func TestRegions(t *testing.T) {
	s := newManager().Get("alice")
	a := s.CreateRegion()
	s.CreateRegion()
	if s.Regions() != 2 {
		t.Errorf("Regions() = %d, want 2", s.Regions())
	}
	s.DeleteRegion(a)
	if s.Regions() != 1 {
		t.Errorf("Regions() = %d, want 1", s.Regions())
	}
}

func TestOperatorsSorted(t *testing.T) {
	m := newManager()
	for _, op := range []string{"carol", "alice", "bob"} {
		m.Get(op)
	}
	got := m.Operators()
	want := []string{"alice", "bob", "carol"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Operators() = %v, want %v", got, want)
		}
	}
}

func TestSetMaxHistory(t *testing.T) {
	m := newManager()
	a := m.Get("alice")
	m.SetMaxHistory(5)
	if a.History().MaxEntries() != 5 || m.Get("bob").History().MaxEntries() != 5 {
		t.Error("SetMaxHistory not applied")
	}
}
