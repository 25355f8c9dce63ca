// Package pattern implements the block patterns and masks used by fills,
// brushes and pastes.
//
// Patterns are written as comma-separated blocks with optional percentage
// weights, e.g. "stone" or "50%stone,dirt". Unweighted entries weigh 1.
// Random patterns are deterministic per position so that a fill replayed on
// the same region produces the same blocks.
package pattern

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/df-mc/dragonfly/server/block/cube"

	"github.com/dshills/voxedit/internal/world"
)

// Errors returned by pattern and mask parsing.
var (
	ErrEmpty         = errors.New("empty pattern")
	ErrInvalidWeight = errors.New("invalid pattern weight")
	ErrInvalidBlock  = errors.New("invalid block")
)

// DefaultNamespace is prefixed to block names given without one.
const DefaultNamespace = "minecraft"

// Entry is one weighted block of a pattern.
type Entry struct {
	Block  world.Block
	Weight float64
}

// Pattern picks among weighted blocks by a hash of the position.
type Pattern struct {
	entries []Entry
	total   float64
	seed    uint32
}

// Of returns a pattern choosing evenly among blocks.
func Of(blocks ...world.Block) *Pattern {
	p := &Pattern{}
	for _, b := range blocks {
		p.Add(b, 1)
	}
	return p
}

// Add appends a block with the given weight. Non-positive weights are
// ignored.
func (p *Pattern) Add(b world.Block, weight float64) {
	if weight <= 0 {
		return
	}
	p.entries = append(p.entries, Entry{Block: b, Weight: weight})
	p.total += weight
}

// WithSeed returns a copy of p that hashes positions with seed.
func (p *Pattern) WithSeed(seed uint32) *Pattern {
	c := *p
	c.entries = append([]Entry(nil), p.entries...)
	c.seed = seed
	return &c
}

// Empty reports whether the pattern has no blocks.
func (p *Pattern) Empty() bool {
	return len(p.entries) == 0
}

// Entries returns the weighted blocks.
func (p *Pattern) Entries() []Entry {
	return append([]Entry(nil), p.entries...)
}

// Resolve implements world.Pattern. An empty pattern resolves to air.
func (p *Pattern) Resolve(pos cube.Pos) world.Block {
	switch len(p.entries) {
	case 0:
		return world.Air
	case 1:
		return p.entries[0].Block
	}
	h := hash3(p.seed, int32(pos[0]), int32(pos[1]), int32(pos[2]))
	r := float64(h) / float64(1<<32) * p.total
	for _, e := range p.entries {
		if r < e.Weight {
			return e.Block
		}
		r -= e.Weight
	}
	return p.entries[len(p.entries)-1].Block
}

// String returns the pattern in parseable form.
func (p *Pattern) String() string {
	parts := make([]string, len(p.entries))
	for i, e := range p.entries {
		name := formatBlock(e.Block)
		if e.Weight != 1 {
			name = strconv.FormatFloat(e.Weight, 'f', -1, 64) + "%" + name
		}
		parts[i] = name
	}
	return strings.Join(parts, ",")
}

// Parse parses a pattern such as "50%stone,dirt" or
// "minecraft:oak_log[axis=y]".
func Parse(s string) (*Pattern, error) {
	p := &Pattern{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		weight := 1.0
		if i := strings.IndexByte(part, '%'); i >= 0 {
			w, err := strconv.ParseFloat(part[:i], 64)
			if err != nil || w <= 0 {
				return nil, fmt.Errorf("%w: %q", ErrInvalidWeight, part[:i])
			}
			weight = w
			part = part[i+1:]
		}
		b, err := ParseBlock(part)
		if err != nil {
			return nil, err
		}
		p.Add(b, weight)
	}
	if p.Empty() {
		return nil, fmt.Errorf("%w: %q", ErrEmpty, s)
	}
	return p, nil
}

// ParseBlock parses a block name with optional namespace and state, e.g.
// "stone" or "minecraft:oak_log[axis=y]".
func ParseBlock(s string) (world.Block, error) {
	s = strings.TrimSpace(s)
	var state string
	if i := strings.IndexByte(s, '['); i >= 0 {
		if !strings.HasSuffix(s, "]") {
			return world.Block{}, fmt.Errorf("%w: unterminated state in %q", ErrInvalidBlock, s)
		}
		state = s[i+1 : len(s)-1]
		s = s[:i]
	}
	if s == "" || strings.ContainsAny(s, " %,[]") {
		return world.Block{}, fmt.Errorf("%w: %q", ErrInvalidBlock, s)
	}
	if !strings.Contains(s, ":") {
		s = DefaultNamespace + ":" + s
	}
	return world.Block{Name: strings.ToLower(s), State: state}, nil
}

func formatBlock(b world.Block) string {
	name := strings.TrimPrefix(b.Name, DefaultNamespace+":")
	if b.State != "" {
		name += "[" + b.State + "]"
	}
	return name
}

// hash3 returns a stable hash for 3D integer coordinates and a seed.
func hash3(seed uint32, x, y, z int32) uint32 {
	h := seed
	h ^= uint32(x) * 0x9e3779b1
	h ^= uint32(y) * 0x85ebca6b
	h ^= uint32(z) * 0xc2b2ae35

	h ^= h >> 16
	h *= 0x7feb352d
	h ^= h >> 15
	h *= 0x846ca68b
	h ^= h >> 16
	return h
}
