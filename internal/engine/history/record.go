package history

import (
	"fmt"
	"time"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/google/uuid"

	"github.com/dshills/voxedit/internal/engine/geom"
	"github.com/dshills/voxedit/internal/engine/job"
	"github.com/dshills/voxedit/internal/engine/structure"
)

// Kind tags what a snapshot was captured for.
type Kind string

const (
	// KindRegion marks a snapshot bounded by a selection or brush shape.
	KindRegion Kind = "region"
	// KindAny marks a snapshot of an arbitrary cuboid, such as a paste
	// destination.
	KindAny Kind = "any"
)

type recordState int

const (
	recordOpen recordState = iota
	recordCommitted
	recordCancelled
	// recordAborted is set by Clear. The record keeps its snapshots so
	// the owner can roll it back, but it can no longer capture or commit.
	recordAborted
)

// entry is one mutated region with its before and after snapshots.
type entry struct {
	region geom.Region
	kind   Kind
	undo   *structure.Structure
	redo   *structure.Structure
}

// Record groups the snapshots of one operation into a single undo step.
type Record struct {
	id      string
	name    string
	created time.Time
	state   recordState
	entries []*entry
}

// ID returns the record identifier.
func (r *Record) ID() string { return r.id }

// Name returns the operation name.
func (r *Record) Name() string { return r.name }

// Len returns the number of captured regions.
func (r *Record) Len() int { return len(r.entries) }

// Volume returns the total number of blocks covered by the record.
func (r *Record) Volume() int {
	n := 0
	for _, e := range r.entries {
		n += e.region.Volume()
	}
	return n
}

// complete reports whether every entry has both snapshots saved.
func (r *Record) complete() bool {
	for _, e := range r.entries {
		if e.undo == nil || e.redo == nil || !e.undo.Saved() || !e.redo.Saved() {
			return false
		}
	}
	return true
}

func (r *Record) release() {
	for _, e := range r.entries {
		if e.undo != nil {
			e.undo.Clear()
		}
		if e.redo != nil {
			e.redo.Clear()
		}
	}
	r.entries = nil
}

// Info describes a committed record.
type Info struct {
	ID        string
	Name      string
	Regions   int
	Volume    int
	Timestamp time.Time
}

func (r *Record) info() Info {
	return Info{
		ID:        r.id,
		Name:      r.name,
		Regions:   len(r.entries),
		Volume:    r.Volume(),
		Timestamp: r.created,
	}
}

// Record opens a new record.
func (h *History) Record(name string) *Record {
	r := &Record{
		id:      uuid.New().String(),
		name:    name,
		created: time.Now(),
	}
	h.mu.Lock()
	h.open[r.id] = r
	h.mu.Unlock()
	return r
}

// checkOpen must be called with h.mu held.
func (h *History) checkOpen(r *Record) error {
	if err := h.checkHeld(r); err != nil {
		return err
	}
	if r.state == recordAborted {
		return fmt.Errorf("%w: %s", ErrRecordClosed, r.name)
	}
	return nil
}

// checkHeld accepts open and aborted records. It must be called with h.mu
// held.
func (h *History) checkHeld(r *Record) error {
	if r == nil || h.open[r.id] != r {
		if r != nil && r.state != recordOpen {
			return fmt.Errorf("%w: %s", ErrRecordClosed, r.name)
		}
		return ErrUnknownRecord
	}
	return nil
}

// AddUndoStructure appends an entry for the region between start and end
// and returns the work that captures it. Drain the work before mutating the
// region.
func (h *History) AddUndoStructure(r *Record, start, end cube.Pos, kind Kind) (job.Work, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.checkOpen(r); err != nil {
		return nil, err
	}

	e := &entry{
		region: geom.NewRegion(start, end),
		kind:   kind,
		undo:   structure.New(),
	}
	r.entries = append(r.entries, e)
	return e.undo.SaveProgressive(start, end, h.store), nil
}

// AddRedoStructure returns the work that captures the region between start
// and end after mutation. It fills the most recent entry for the same region
// that has no redo snapshot yet.
func (h *History) AddRedoStructure(r *Record, start, end cube.Pos, kind Kind) (job.Work, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.checkOpen(r); err != nil {
		return nil, err
	}

	region := geom.NewRegion(start, end)
	var e *entry
	for i := len(r.entries) - 1; i >= 0; i-- {
		if c := r.entries[i]; c.region == region && c.redo == nil {
			e = c
			break
		}
	}
	if e == nil {
		e = &entry{region: region, kind: kind}
		r.entries = append(r.entries, e)
	}
	e.redo = structure.New()
	return e.redo.SaveProgressive(start, end, h.store), nil
}

// Commit closes the record and pushes it onto the undo stack, clearing the
// redo stack. Every capture must have completed. A record with no entries
// is closed without touching the stacks.
func (h *History) Commit(r *Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.checkOpen(r); err != nil {
		return err
	}
	if !r.complete() {
		return fmt.Errorf("%w: %s", ErrCaptureIncomplete, r.name)
	}

	delete(h.open, r.id)
	r.state = recordCommitted
	if len(r.entries) == 0 {
		return nil
	}

	h.undoStack = append(h.undoStack, r)
	h.redoStack = nil
	if len(h.undoStack) > h.maxEntries {
		excess := len(h.undoStack) - h.maxEntries
		h.undoStack = h.undoStack[excess:]
	}
	historyCommitsTotal.Inc()
	return nil
}

// Cancel discards an open or aborted record and its snapshots.
func (h *History) Cancel(r *Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.checkHeld(r); err != nil {
		return err
	}
	delete(h.open, r.id)
	r.state = recordCancelled
	r.release()
	historyCancelsTotal.Inc()
	return nil
}

// Rollback returns work that restores every region of an open or aborted
// record whose undo snapshot is complete, newest first. It is used to undo a
// partially applied operation before cancelling its record.
func (h *History) Rollback(r *Record) (job.Work, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.checkHeld(r); err != nil {
		return nil, err
	}
	var ws []job.Work
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if e.undo == nil || !e.undo.Saved() {
			continue
		}
		ws = append(ws, e.undo.LoadProgressive(e.region.Min, h.store, nil))
	}
	return job.Concat(ws...), nil
}

// Transaction runs fn inside a new record. The record is committed if fn
// succeeds and cancelled otherwise. fn must drain every capture it adds.
func (h *History) Transaction(name string, fn func(*Record) error) error {
	r := h.Record(name)
	if err := fn(r); err != nil {
		if cerr := h.Cancel(r); cerr != nil {
			return fmt.Errorf("%w: %w (cancel: %v)", ErrTransactionAborted, err, cerr)
		}
		return fmt.Errorf("%w: %w", ErrTransactionAborted, err)
	}
	if err := h.Commit(r); err != nil {
		_ = h.Cancel(r)
		return err
	}
	return nil
}
