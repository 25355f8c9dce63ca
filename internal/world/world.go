// Package world defines the collaborators the editing engine consumes from the
// host simulation: voxel storage, vertical bounds, patterns and masks.
//
// The engine only ever talks to these interfaces. Memory is a chunked,
// in-process implementation used by the standalone binary and tests.
package world

import (
	"errors"
	"fmt"

	"github.com/df-mc/dragonfly/server/block/cube"
)

// Errors returned by stores.
var (
	// ErrOutOfBounds indicates a position outside the partition's vertical range.
	ErrOutOfBounds = errors.New("position out of bounds")
)

// Block is an opaque block state. Blocks are comparable values.
type Block struct {
	// Name is the namespaced block identifier, e.g. "minecraft:stone".
	Name string
	// State is an optional encoded property set, e.g. "facing=north".
	State string
}

// Air is the empty block.
var Air = Block{Name: "minecraft:air"}

// IsAir reports whether b is air or the zero block.
func (b Block) IsAir() bool {
	return b.Name == "" || b == Air
}

// String returns the block name with its state if present.
func (b Block) String() string {
	if b.State == "" {
		return b.Name
	}
	return fmt.Sprintf("%s[%s]", b.Name, b.State)
}

// Store reads and writes blocks within one spatial partition.
// Calls are cheap and may be repeated many times within one tick.
type Store interface {
	Block(pos cube.Pos) Block
	SetBlock(pos cube.Pos, b Block) error
}

// Bounds provides the vertical limits of a partition.
type Bounds interface {
	Range() cube.Range
}

// Pattern resolves the block to place at a position. Resolution may be
// randomized.
type Pattern interface {
	Resolve(pos cube.Pos) Block
}

// Mask filters positions during shape iteration.
type Mask interface {
	Test(pos cube.Pos) bool
}

// MaskFunc adapts a function to the Mask interface.
type MaskFunc func(pos cube.Pos) bool

// Test calls f(pos).
func (f MaskFunc) Test(pos cube.Pos) bool { return f(pos) }

// PatternFunc adapts a function to the Pattern interface.
type PatternFunc func(pos cube.Pos) Block

// Resolve calls f(pos).
func (f PatternFunc) Resolve(pos cube.Pos) Block { return f(pos) }
