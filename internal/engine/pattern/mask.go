package pattern

import (
	"strings"

	"github.com/df-mc/dragonfly/server/block/cube"

	"github.com/dshills/voxedit/internal/world"
)

// Mask keywords accepted by ParseMask.
const (
	maskExisting = "#existing"
	maskAll      = "#all"
)

// Blocks returns a mask accepting positions whose current block is one of
// blocks. Block states are ignored when the candidate has none.
func Blocks(store world.Store, blocks ...world.Block) world.Mask {
	set := make(map[world.Block]struct{}, len(blocks))
	names := make(map[string]struct{}, len(blocks))
	for _, b := range blocks {
		if b.State == "" {
			names[b.Name] = struct{}{}
		} else {
			set[b] = struct{}{}
		}
	}
	return world.MaskFunc(func(p cube.Pos) bool {
		cur := store.Block(p)
		if cur.IsAir() {
			cur = world.Air
		}
		if _, ok := names[cur.Name]; ok {
			return true
		}
		_, ok := set[cur]
		return ok
	})
}

// Existing returns a mask accepting positions that are not air.
func Existing(store world.Store) world.Mask {
	return world.MaskFunc(func(p cube.Pos) bool {
		return !store.Block(p).IsAir()
	})
}

// All returns a mask accepting every position.
func All() world.Mask {
	return world.MaskFunc(func(cube.Pos) bool { return true })
}

// Not inverts m.
func Not(m world.Mask) world.Mask {
	return world.MaskFunc(func(p cube.Pos) bool { return !m.Test(p) })
}

// And accepts positions accepted by every non-nil mask.
func And(masks ...world.Mask) world.Mask {
	return world.MaskFunc(func(p cube.Pos) bool {
		for _, m := range masks {
			if m != nil && !m.Test(p) {
				return false
			}
		}
		return true
	})
}

// ParseMask parses a mask expression against store. Supported forms are a
// block list ("stone,dirt"), "#existing", "#all", and a leading "!" to
// invert any of them.
func ParseMask(s string, store world.Store) (world.Mask, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "!") {
		m, err := ParseMask(s[1:], store)
		if err != nil {
			return nil, err
		}
		return Not(m), nil
	}
	switch strings.ToLower(s) {
	case maskExisting:
		return Existing(store), nil
	case maskAll:
		return All(), nil
	}

	p, err := Parse(s)
	if err != nil {
		return nil, err
	}
	blocks := make([]world.Block, 0, len(p.entries))
	for _, e := range p.entries {
		blocks = append(blocks, e.Block)
	}
	return Blocks(store, blocks...), nil
}
