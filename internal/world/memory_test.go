package world

import (
	"errors"
	"testing"

	"github.com/df-mc/dragonfly/server/block/cube"
)

var stone = Block{Name: "minecraft:stone"}

func TestMemoryDefaultsToAir(t *testing.T) {
	m := NewMemory(cube.Range{-64, 319})
	if got := m.Block(cube.Pos{10, 20, -30}); got != Air {
		t.Errorf("Block() = %v, want air", got)
	}
}

func TestMemorySetBlock(t *testing.T) {
	m := NewMemory(cube.Range{-64, 319})
	positions := []cube.Pos{{0, 0, 0}, {-1, -1, -1}, {15, 15, 15}, {16, 16, 16}, {-17, 300, 33}}
	for _, p := range positions {
		if err := m.SetBlock(p, stone); err != nil {
			t.Fatalf("SetBlock(%v) error = %v", p, err)
		}
	}
	for _, p := range positions {
		if got := m.Block(p); got != stone {
			t.Errorf("Block(%v) = %v, want stone", p, got)
		}
	}
	if got := m.Block(cube.Pos{1, 0, 0}); got != Air {
		t.Errorf("neighbour was written: %v", got)
	}
}

func TestMemoryOutOfBounds(t *testing.T) {
	m := NewMemory(cube.Range{0, 15})
	err := m.SetBlock(cube.Pos{0, 16, 0}, stone)
	if !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("SetBlock() error = %v, want ErrOutOfBounds", err)
	}
}

func TestMemoryReleasesEmptyChunks(t *testing.T) {
	m := NewMemory(cube.Range{-64, 319})
	p := cube.Pos{3, 4, 5}
	_ = m.SetBlock(p, stone)
	if m.Chunks() != 1 {
		t.Fatalf("Chunks() = %d, want 1", m.Chunks())
	}
	_ = m.SetBlock(p, Air)
	if m.Chunks() != 0 {
		t.Errorf("Chunks() = %d after clearing, want 0", m.Chunks())
	}
}

func TestBlockString(t *testing.T) {
	tests := []struct {
		b    Block
		want string
	}{
		{stone, "minecraft:stone"},
		{Block{Name: "minecraft:log", State: "axis=y"}, "minecraft:log[axis=y]"},
	}
	for _, tt := range tests {
		if got := tt.b.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestMemoryStats(t *testing.T) {
	m := NewMemory(cube.Range{0, 15})
	_ = m.SetBlock(cube.Pos{1, 1, 1}, stone)
	_ = m.SetBlock(cube.Pos{1, 1, 1}, Air)
	_ = m.SetBlock(cube.Pos{0, 99, 0}, stone)
	m.Block(cube.Pos{1, 1, 1})

	reads, writes := m.Stats()
	if reads != 1 || writes != 2 {
		t.Errorf("Stats() = %d, %d, want 1, 2", reads, writes)
	}
}
