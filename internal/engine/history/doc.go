// Package history provides transactional undo/redo for bulk world edits.
//
// # Records
//
// Each operation opens a Record and, for every region it is about to
// mutate, captures the region before (AddUndoStructure) and after
// (AddRedoStructure) the mutation. Captures are job.Work, so they are
// spread over ticks like the mutation itself:
//
//	rec := h.Record("stack")
//	w, _ := h.AddUndoStructure(rec, start, end, history.KindAny)
//	// ... drain w, mutate the region ...
//	w, _ = h.AddRedoStructure(rec, start, end, history.KindAny)
//	// ... drain w ...
//	h.Commit(rec)
//
// A committed record becomes one undo step. Cancel discards a record with no
// observable effect on the stacks.
//
// # Undo and Redo
//
// Undo and Redo pop the most recent record and return a Replay. Its Work
// writes the snapshots back; Complete moves the record to the opposite
// stack, or back where it came from if the replay failed. Only one replay
// may be outstanding at a time.
package history
