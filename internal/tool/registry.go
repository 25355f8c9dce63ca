// Package tool binds editing tools to held items.
//
// A Registry is created once by the application and owns every binding.
// Tools are registered by kind with a factory. Bindings are per operator and
// keyed by item id and data value; a kind registered with a fixed item is
// available to every operator through that item and cannot be unbound.
package tool

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/df-mc/dragonfly/server/block/cube"

	"github.com/dshills/voxedit/internal/command"
	"github.com/dshills/voxedit/internal/session"
)

// Errors returned by the registry.
var (
	// ErrNoItem is returned when binding or unbinding without an item.
	ErrNoItem = errors.New("no item held")

	// ErrFixedBinding is returned when changing an item bound to a fixed tool.
	ErrFixedBinding = errors.New("item has a fixed binding")

	// ErrUnknownTool is returned for an unregistered kind.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrNotBound is returned when no tool is bound to the item.
	ErrNotBound = errors.New("no tool bound to item")

	// ErrUnknownProperty is returned when a tool has no such property.
	ErrUnknownProperty = errors.New("unknown tool property")
)

// Item identifies a held item.
type Item struct {
	ID   string
	Data int
}

// Key returns the binding key, "id/data".
func (i Item) Key() string {
	return i.ID + "/" + strconv.Itoa(i.Data)
}

// String implements fmt.Stringer.
func (i Item) String() string { return i.Key() }

// ParseItem parses "id/data". A missing data value is 0.
func ParseItem(s string) (Item, error) {
	id, data, ok := strings.Cut(s, "/")
	if !ok {
		return Item{ID: s}, nil
	}
	n, err := strconv.Atoi(data)
	if err != nil {
		return Item{}, fmt.Errorf("invalid item data in %q: %w", s, err)
	}
	return Item{ID: id, Data: n}, nil
}

// Action describes one use of a held item.
type Action struct {
	// Target is the block the item was used on, if any.
	Target *cube.Pos

	// Primary is true for a break action and false for a use action.
	Primary bool
}

// Tool is a bound behavior.
type Tool interface {
	// Kind returns the registered kind.
	Kind() string

	// Use performs the tool's action. done receives the result of any edit
	// the tool starts.
	Use(s *session.Session, a Action, done command.Done) error
}

// Ticker is implemented by tools that act every tick while held.
type Ticker interface {
	Tick(s *session.Session, tick int64)
}

// Configurable is implemented by tools with settable properties.
type Configurable interface {
	// Properties lists the property names.
	Properties() []string

	// SetProperty parses and sets one property.
	SetProperty(s *session.Session, name, value string) error
}

// Factory creates a tool instance.
type Factory func() (Tool, error)

// Registry holds tool kinds and bindings.
type Registry struct {
	mu       sync.RWMutex
	kinds    map[string]Factory
	fixed    map[string]Tool
	bindings map[string]map[string]Tool
	disabled map[string]bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		kinds:    make(map[string]Factory),
		fixed:    make(map[string]Tool),
		bindings: make(map[string]map[string]Tool),
		disabled: make(map[string]bool),
	}
}

// Register adds a tool kind. A non-empty fixed item binds one shared
// instance to that item, data 0, for every operator.
func (r *Registry) Register(kind string, f Factory, fixed string) error {
	var t Tool
	if fixed != "" {
		var err error
		if t, err = f(); err != nil {
			return fmt.Errorf("creating fixed %s tool: %w", kind, err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds[kind] = f
	if t != nil {
		r.fixed[Item{ID: fixed}.Key()] = t
	}
	return nil
}

// Kinds returns the registered kinds, sorted.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.kinds))
	for k := range r.kinds {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Bind creates a tool of kind and binds it to item for operator, replacing
// any previous binding.
func (r *Registry) Bind(operator, kind string, item Item) (Tool, error) {
	if item.ID == "" {
		return nil, ErrNoItem
	}

	r.mu.RLock()
	f, ok := r.kinds[kind]
	_, fixed := r.fixed[Item{ID: item.ID}.Key()]
	r.mu.RUnlock()
	if fixed {
		return nil, ErrFixedBinding
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, kind)
	}

	t, err := f()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.bindings[operator]
	if m == nil {
		m = make(map[string]Tool)
		r.bindings[operator] = m
	}
	m[item.Key()] = t
	return t, nil
}

// Unbind removes operator's binding of item.
func (r *Registry) Unbind(operator string, item Item) error {
	if item.ID == "" {
		return ErrNoItem
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.fixed[Item{ID: item.ID}.Key()]; ok {
		return ErrFixedBinding
	}
	delete(r.bindings[operator], item.Key())
	return nil
}

// HasBinding reports whether item does anything for operator.
func (r *Registry) HasBinding(operator string, item Item) bool {
	if item.ID == "" {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookup(operator, item) != nil
}

// BoundItems returns operator's bound items whose tool is of kind, or all of
// them when kind is empty. Fixed bindings are not included.
func (r *Registry) BoundItems(operator, kind string) []Item {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Item
	for key, t := range r.bindings[operator] {
		if kind != "" && t.Kind() != kind {
			continue
		}
		item, err := ParseItem(key)
		if err != nil {
			continue
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ID != out[j].ID {
			return out[i].ID < out[j].ID
		}
		return out[i].Data < out[j].Data
	})
	return out
}

// DeleteBindings removes all of operator's bindings and re-enables tools.
func (r *Registry) DeleteBindings(operator string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.bindings, operator)
	delete(r.disabled, operator)
}

// SetDisabled turns all tools off or on for operator.
func (r *Registry) SetDisabled(operator string, disabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if disabled {
		r.disabled[operator] = true
	} else {
		delete(r.disabled, operator)
	}
}

// Disabled reports whether tools are off for operator.
func (r *Registry) Disabled(operator string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.disabled[operator]
}

// SetProperty sets a property of the tool s's operator has bound to item.
func (r *Registry) SetProperty(s *session.Session, item Item, name, value string) error {
	if item.ID == "" {
		return ErrNoItem
	}
	r.mu.RLock()
	t := r.bindings[s.Operator()][item.Key()]
	r.mu.RUnlock()
	if t == nil {
		return ErrNotBound
	}
	c, ok := t.(Configurable)
	if !ok || !hasProperty(c, name) {
		return fmt.Errorf("%w: %s has no %q", ErrUnknownProperty, t.Kind(), name)
	}
	return c.SetProperty(s, name, value)
}

// HasProperty reports whether the tool bound to item has a property.
func (r *Registry) HasProperty(operator string, item Item, name string) bool {
	r.mu.RLock()
	t := r.bindings[operator][item.Key()]
	r.mu.RUnlock()
	c, ok := t.(Configurable)
	return ok && hasProperty(c, name)
}

// Use dispatches an item use. It reports whether a tool handled it; the
// host should then cancel its own handling of the event.
func (r *Registry) Use(s *session.Session, item Item, a Action, done command.Done) (bool, error) {
	t := r.active(s.Operator(), item)
	if t == nil {
		return false, nil
	}
	return true, t.Use(s, a, done)
}

// Tick runs the held tool's per-tick behavior, if it has one.
func (r *Registry) Tick(s *session.Session, item Item, tick int64) {
	if tk, ok := r.active(s.Operator(), item).(Ticker); ok {
		tk.Tick(s, tick)
	}
}

func (r *Registry) active(operator string, item Item) Tool {
	if item.ID == "" {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.disabled[operator] {
		return nil
	}
	return r.lookup(operator, item)
}

// lookup prefers operator bindings over fixed ones. Callers hold r.mu.
func (r *Registry) lookup(operator string, item Item) Tool {
	if t, ok := r.bindings[operator][item.Key()]; ok {
		return t
	}
	return r.fixed[item.Key()]
}

func hasProperty(c Configurable, name string) bool {
	for _, p := range c.Properties() {
		if p == name {
			return true
		}
	}
	return false
}
