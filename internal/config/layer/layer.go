// Package layer merges configuration sources by priority. Higher priority
// layers override values from lower ones.
package layer

import (
	"sort"
	"sync"
)

// Source indicates where a layer came from.
type Source uint8

const (
	// SourceBuiltin is the built-in defaults.
	SourceBuiltin Source = iota
	// SourceFile is a configuration file.
	SourceFile
	// SourceEnv is the process environment.
	SourceEnv
	// SourceArgs is command-line flags.
	SourceArgs
)

// Standard priorities.
const (
	PriorityBuiltin = 0
	PriorityFile    = 100
	PriorityEnv     = 500
	PriorityArgs    = 600
)

// String returns the source name.
func (s Source) String() string {
	switch s {
	case SourceBuiltin:
		return "builtin"
	case SourceFile:
		return "file"
	case SourceEnv:
		return "environment"
	case SourceArgs:
		return "arguments"
	default:
		return "unknown"
	}
}

// DefaultPriority returns the standard priority of a source.
func DefaultPriority(s Source) int {
	switch s {
	case SourceFile:
		return PriorityFile
	case SourceEnv:
		return PriorityEnv
	case SourceArgs:
		return PriorityArgs
	default:
		return PriorityBuiltin
	}
}

// Layer is one configuration source.
type Layer struct {
	Name     string
	Source   Source
	Priority int

	// Path is the file the layer was read from, if any.
	Path string

	// Data holds the values as a nested map.
	Data map[string]any
}

// New creates a layer at the standard priority of its source.
func New(name string, source Source, data map[string]any) *Layer {
	if data == nil {
		data = make(map[string]any)
	}
	return &Layer{
		Name:     name,
		Source:   source,
		Priority: DefaultPriority(source),
		Data:     data,
	}
}

// Manager holds layers sorted by priority and caches their merge.
type Manager struct {
	mu     sync.RWMutex
	layers []*Layer
	merged map[string]any
	dirty  bool
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{dirty: true}
}

// Put adds l, replacing any layer with the same name.
func (m *Manager) Put(l *Layer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, o := range m.layers {
		if o.Name == l.Name {
			m.layers = append(m.layers[:i], m.layers[i+1:]...)
			break
		}
	}
	m.layers = append(m.layers, l)
	sort.SliceStable(m.layers, func(i, j int) bool {
		return m.layers[i].Priority < m.layers[j].Priority
	})
	m.dirty = true
}

// Remove deletes a layer by name and reports whether it existed.
func (m *Manager) Remove(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, l := range m.layers {
		if l.Name == name {
			m.layers = append(m.layers[:i], m.layers[i+1:]...)
			m.dirty = true
			return true
		}
	}
	return false
}

// Layer returns a layer by name, or nil.
func (m *Manager) Layer(name string) *Layer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, l := range m.layers {
		if l.Name == name {
			return l
		}
	}
	return nil
}

// Layers returns the layers in ascending priority.
func (m *Manager) Layers() []*Layer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Layer, len(m.layers))
	copy(out, m.layers)
	return out
}

// Invalidate drops the cached merge after a layer's data changed in place.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	m.dirty = true
	m.mu.Unlock()
}

// Merge returns a copy of all layers merged, lowest priority first.
func (m *Manager) Merge() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dirty || m.merged == nil {
		out := make(map[string]any)
		for _, l := range m.layers {
			out = DeepMerge(out, l.Data)
		}
		m.merged = out
		m.dirty = false
	}
	return Clone(m.merged)
}

// Get returns the effective value at path and the layer providing it.
func (m *Manager) Get(path string) (any, *Layer, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := len(m.layers) - 1; i >= 0; i-- {
		if v, ok := GetByPath(m.layers[i].Data, path); ok {
			return v, m.layers[i], true
		}
	}
	return nil, nil, false
}
