// Package session holds per-operator editing state: selection, history,
// clipboard, scratch structures and the picker pattern.
package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/dshills/voxedit/internal/engine/history"
	"github.com/dshills/voxedit/internal/engine/pattern"
	"github.com/dshills/voxedit/internal/engine/selection"
	"github.com/dshills/voxedit/internal/engine/structure"
	"github.com/dshills/voxedit/internal/world"
)

// Errors returned by sessions.
var (
	// ErrNoSession is returned when no session exists for an operator.
	ErrNoSession = errors.New("no session")

	// ErrEmptyClipboard is returned by paste with nothing copied.
	ErrEmptyClipboard = errors.New("clipboard is empty")

	// ErrEmptyPicker is returned when the picker pattern is used empty.
	ErrEmptyPicker = errors.New("picker pattern is empty")
)

// Config configures new sessions.
type Config struct {
	// MaxHistory is the undo depth.
	MaxHistory int

	// DrawOutline makes selections visible on creation.
	DrawOutline bool

	// DrawInterval is the number of ticks between outline redraws.
	DrawInterval int

	// Mode is the initial selection mode.
	Mode selection.Mode
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxHistory:   history.DefaultMaxEntries,
		DrawOutline:  true,
		DrawInterval: selection.DefaultDrawInterval,
	}
}

// Session is one operator's editing state. Selection and clipboard are
// used from the tick goroutine only; the picker and scratch registry are
// guarded.
type Session struct {
	id       string
	operator string
	world    World

	selection *selection.Selection
	history   *history.History
	clipboard *structure.Structure

	mu        sync.Mutex
	picker    []world.Block
	regions   map[string]*structure.Structure
	usePicker bool
}

// World is the store and bounds a session edits.
type World interface {
	world.Store
	world.Bounds
}

func newSession(operator string, w World, cfg Config) *Session {
	return &Session{
		id:       uuid.New().String(),
		operator: operator,
		world:    w,
		selection: selection.New(w,
			selection.WithVisible(cfg.DrawOutline),
			selection.WithDrawInterval(cfg.DrawInterval),
			selection.WithMode(cfg.Mode),
		),
		history: history.New(w, history.WithMaxEntries(cfg.MaxHistory)),
		regions: make(map[string]*structure.Structure),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Operator returns the operator the session belongs to.
func (s *Session) Operator() string { return s.operator }

// World returns the store the session edits.
func (s *Session) World() World { return s.world }

// Selection returns the selection.
func (s *Session) Selection() *selection.Selection { return s.selection }

// History returns the undo/redo history.
func (s *Session) History() *history.History { return s.history }

// Clipboard returns the last copied structure, or nil.
func (s *Session) Clipboard() *structure.Structure { return s.clipboard }

// SetClipboard replaces the clipboard, releasing the previous contents.
func (s *Session) SetClipboard(c *structure.Structure) {
	if s.clipboard != nil && s.clipboard != c {
		s.clipboard.Clear()
	}
	s.clipboard = c
}

// CreateRegion allocates a scratch structure owned by the session.
func (s *Session) CreateRegion() *structure.Structure {
	st := structure.New()
	s.mu.Lock()
	s.regions[st.ID()] = st
	s.mu.Unlock()
	return st
}

// DeleteRegion releases a scratch structure.
func (s *Session) DeleteRegion(st *structure.Structure) {
	s.mu.Lock()
	delete(s.regions, st.ID())
	s.mu.Unlock()
	st.Clear()
}

// Regions returns the number of live scratch structures.
func (s *Session) Regions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.regions)
}

// AddPickerPattern appends a block to the picker pattern.
func (s *Session) AddPickerPattern(b world.Block) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.picker = append(s.picker, b)
}

// ClearPickerPattern empties the picker pattern.
func (s *Session) ClearPickerPattern() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.picker = nil
}

// PickerPattern returns a pattern over the picked blocks.
func (s *Session) PickerPattern() (*pattern.Pattern, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.picker) == 0 {
		return nil, ErrEmptyPicker
	}
	return pattern.Of(s.picker...), nil
}

// SetUsePicker sets whether fills use the picker pattern.
func (s *Session) SetUsePicker(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usePicker = v
}

// UsePicker reports whether fills use the picker pattern.
func (s *Session) UsePicker() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usePicker
}

// close releases everything the session holds.
func (s *Session) close() {
	s.mu.Lock()
	for id, st := range s.regions {
		st.Clear()
		delete(s.regions, id)
	}
	s.picker = nil
	s.mu.Unlock()

	s.SetClipboard(nil)
	s.selection.Clear()
	s.history.Clear()
}

// String describes the session.
func (s *Session) String() string {
	return fmt.Sprintf("session %s (%s)", s.id, s.operator)
}
