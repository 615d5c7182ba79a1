// Package history provides the undo/redo engine for documents.
//
// The engine is agnostic to what an edit means. It groups reversible
// records into cycles and moves a cursor across them, flipping each
// record's undone state as the cursor passes.
//
// # Records
//
// A Record is anything with an undone flag and a self-inverse
// ToggleUndoState. Embed Undoable to get the flag for free. A record may be
// registered in several cycles: an entity created in one cycle and deleted
// in a later one belongs to both.
//
// # Cycles
//
// A Cycle is one user operation. Every record registered between
// BeginCycle and EndCycle undoes and redoes together:
//
//	history := NewHistory(WithListener(toolbar))
//
//	history.BeginCycle("Move")
//	history.Register(oldEntity)
//	history.Register(newEntity)
//	history.EndCycle()
//
//	history.Undo()
//	history.Redo()
//
// # Truncation
//
// Opening a cycle while redoable cycles exist discards them. Each record of
// a discarded cycle is removed from every surviving cycle, and disposed when
// it is currently undone. Records that are live in the document are never
// disposed.
//
// # Errors
//
// Misuse is never fatal. Calls made at a boundary or without an open cycle
// return ErrNothingToUndo, ErrNothingToRedo, ErrNoActiveCycle or
// ErrCycleAlreadyOpen and leave the history unchanged.
package history
