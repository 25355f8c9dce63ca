package history

import (
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dshills/voxedit/internal/engine/geom"
	"github.com/dshills/voxedit/internal/engine/job"
	"github.com/dshills/voxedit/internal/world"
)

// Common errors for history operations.
var (
	ErrNothingToUndo      = errors.New("nothing to undo")
	ErrNothingToRedo      = errors.New("nothing to redo")
	ErrReplayInProgress   = errors.New("undo or redo already in progress")
	ErrRecordClosed       = errors.New("record already closed")
	ErrUnknownRecord      = errors.New("unknown record")
	ErrCaptureIncomplete  = errors.New("record has incomplete captures")
	ErrTransactionAborted = errors.New("transaction aborted")
)

// DefaultMaxEntries is the default undo depth.
const DefaultMaxEntries = 1000

var (
	historyCommitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voxedit_history_commits_total",
		Help: "Total number of records committed",
	})

	historyCancelsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voxedit_history_cancels_total",
		Help: "Total number of records cancelled",
	})

	historyReplaysTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voxedit_history_replays_total",
		Help: "Total number of completed replays, by direction and outcome",
	}, []string{"direction", "outcome"})
)

// History manages the undo/redo stacks of one session.
type History struct {
	mu sync.Mutex

	store world.Store

	undoStack []*Record
	redoStack []*Record
	open      map[string]*Record
	replay    *Replay

	maxEntries int
}

// Option configures a History.
type Option func(*History)

// WithMaxEntries limits the undo depth. Oldest records are dropped first.
func WithMaxEntries(n int) Option {
	return func(h *History) {
		if n > 0 {
			h.maxEntries = n
		}
	}
}

// New creates a history over store.
func New(store world.Store, opts ...Option) *History {
	h := &History{
		store:      store,
		open:       make(map[string]*Record),
		maxEntries: DefaultMaxEntries,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Replay restores one record. Drain Work, then call Complete with the
// result.
type Replay struct {
	h      *History
	rec    *Record
	undo   bool
	closed bool
}

// Name returns the name of the record being replayed.
func (p *Replay) Name() string { return p.rec.name }

// Undo reports whether this replay is an undo.
func (p *Replay) Undo() bool { return p.undo }

// Volume returns the number of blocks the replay writes.
func (p *Replay) Volume() int { return p.rec.Volume() }

// Region returns the bounds of every region the replay writes.
func (p *Replay) Region() geom.Region {
	var r geom.Region
	for i, e := range p.rec.entries {
		if i == 0 {
			r = e.region
			continue
		}
		r = r.Union(e.region)
	}
	return r
}

// Work returns the work that writes the snapshots back. Undo restores
// entries newest first; redo restores them oldest first.
func (p *Replay) Work() job.Work {
	entries := p.rec.entries
	ws := make([]job.Work, 0, len(entries))
	for i := range entries {
		e := entries[i]
		snap := e.redo
		if p.undo {
			e = entries[len(entries)-1-i]
			snap = e.undo
		}
		if snap == nil {
			continue
		}
		ws = append(ws, snap.LoadProgressive(e.region.Min, p.h.store, nil))
	}
	return job.Concat(ws...)
}

// Complete finishes the replay. On success the record moves to the opposite
// stack; on failure it returns to the stack it came from. Further calls are
// ignored.
func (p *Replay) Complete(err error) {
	h := p.h
	h.mu.Lock()
	defer h.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	if h.replay == p {
		h.replay = nil
	}

	direction := "redo"
	if p.undo {
		direction = "undo"
	}
	outcome := "ok"
	if err != nil {
		outcome = "failed"
	}
	historyReplaysTotal.WithLabelValues(direction, outcome).Inc()

	switch {
	case p.undo == (err == nil):
		h.redoStack = append(h.redoStack, p.rec)
	default:
		h.undoStack = append(h.undoStack, p.rec)
	}
}

// Undo pops the most recent record for replay.
func (h *History) Undo() (*Replay, error) {
	return h.pop(true)
}

// Redo pops the most recently undone record for replay.
func (h *History) Redo() (*Replay, error) {
	return h.pop(false)
}

func (h *History) pop(undo bool) (*Replay, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.replay != nil {
		return nil, ErrReplayInProgress
	}

	stack := &h.redoStack
	if undo {
		stack = &h.undoStack
	}
	if len(*stack) == 0 {
		if undo {
			return nil, ErrNothingToUndo
		}
		return nil, ErrNothingToRedo
	}

	rec := (*stack)[len(*stack)-1]
	*stack = (*stack)[:len(*stack)-1]
	h.replay = &Replay{h: h, rec: rec, undo: undo}
	return h.replay, nil
}

// CanUndo returns true if undo is available.
func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undoStack) > 0
}

// CanRedo returns true if redo is available.
func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redoStack) > 0
}

// UndoCount returns the number of undo steps available.
func (h *History) UndoCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undoStack)
}

// RedoCount returns the number of redo steps available.
func (h *History) RedoCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redoStack)
}

// OpenRecords returns the number of records neither committed nor
// cancelled. Records aborted by Clear count until they are cancelled.
func (h *History) OpenRecords() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.open)
}

// UndoInfo describes the undo stack, oldest first.
func (h *History) UndoInfo() []Info {
	h.mu.Lock()
	defer h.mu.Unlock()
	return infos(h.undoStack)
}

// RedoInfo describes the redo stack, oldest first.
func (h *History) RedoInfo() []Info {
	h.mu.Lock()
	defer h.mu.Unlock()
	return infos(h.redoStack)
}

func infos(stack []*Record) []Info {
	out := make([]Info, len(stack))
	for i, r := range stack {
		out[i] = r.info()
	}
	return out
}

// SetMaxEntries changes the undo depth. If the stack is larger, oldest
// records are removed.
func (h *History) SetMaxEntries(n int) {
	if n <= 0 {
		n = DefaultMaxEntries
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.maxEntries = n
	if len(h.undoStack) > n {
		h.undoStack = h.undoStack[len(h.undoStack)-n:]
	}
}

// MaxEntries returns the undo depth.
func (h *History) MaxEntries() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.maxEntries
}

// Clear removes all undo/redo history. Open records are aborted: further
// captures and Commit fail with ErrRecordClosed, while Rollback and Cancel
// still work so their owners can restore what they already wrote.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, r := range h.open {
		r.state = recordAborted
	}
	h.undoStack = nil
	h.redoStack = nil
}
