package world

import (
	"sync"
	"sync/atomic"

	"github.com/df-mc/dragonfly/server/block/cube"
)

// Sub-chunks are 16^3, so indices use shifts:
//
//	idx = x | (z<<4) | (y<<8)
const (
	subSize  = 16
	shiftZ   = 4
	shiftY   = 8
	mask4    = 15
	subBlock = subSize * subSize * subSize
)

// SubChunkPos identifies a 16^3 sub-chunk.
type SubChunkPos [3]int

type subChunk struct {
	// palette[0] is always air, so a zero-filled chunk is empty.
	palette []Block
	ids     [subBlock]uint16
	count   int
}

// Memory is an in-process Store over sparse 16^3 sub-chunks. It is safe for
// concurrent use.
type Memory struct {
	mu     sync.RWMutex
	rng    cube.Range
	chunks map[SubChunkPos]*subChunk

	reads  atomic.Uint64
	writes atomic.Uint64
}

// NewMemory creates an empty store with the given vertical range.
func NewMemory(rng cube.Range) *Memory {
	return &Memory{
		rng:    rng,
		chunks: make(map[SubChunkPos]*subChunk, 64),
	}
}

// Range implements Bounds.
func (m *Memory) Range() cube.Range {
	return m.rng
}

// Block implements Store. Positions never written read as air.
func (m *Memory) Block(pos cube.Pos) Block {
	m.mu.RLock()
	defer m.mu.RUnlock()
	m.reads.Add(1)

	c := m.chunks[chunkOf(pos)]
	if c == nil {
		return Air
	}
	return c.palette[c.ids[index(pos)]]
}

// SetBlock implements Store.
func (m *Memory) SetBlock(pos cube.Pos, b Block) error {
	if pos.OutOfBounds(m.rng) {
		return ErrOutOfBounds
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes.Add(1)

	key := chunkOf(pos)
	c := m.chunks[key]
	if c == nil {
		if b.IsAir() {
			return nil
		}
		c = &subChunk{palette: []Block{Air}}
		m.chunks[key] = c
	}

	idx := index(pos)
	old := c.ids[idx]
	id := c.paletteID(b)
	c.ids[idx] = id

	switch {
	case old == 0 && id != 0:
		c.count++
	case old != 0 && id == 0:
		c.count--
		if c.count == 0 {
			delete(m.chunks, key)
		}
	}
	return nil
}

// Stats returns the number of reads and writes performed.
func (m *Memory) Stats() (reads, writes uint64) {
	return m.reads.Load(), m.writes.Load()
}

// Chunks returns the number of non-empty sub-chunks.
func (m *Memory) Chunks() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chunks)
}

func (c *subChunk) paletteID(b Block) uint16 {
	if b.IsAir() {
		return 0
	}
	for i, p := range c.palette {
		if p == b {
			return uint16(i)
		}
	}
	c.palette = append(c.palette, b)
	return uint16(len(c.palette) - 1)
}

func chunkOf(pos cube.Pos) SubChunkPos {
	return SubChunkPos{pos[0] >> 4, pos[1] >> 4, pos[2] >> 4}
}

func index(pos cube.Pos) int {
	x, y, z := pos[0]&mask4, pos[1]&mask4, pos[2]&mask4
	return x | (z << shiftZ) | (y << shiftY)
}
