package history

// Record is a reversible unit of state owned by the caller.
//
// ToggleUndoState must be self-inverse: two calls restore both the external
// effect and the IsUndone flag. Records are compared by identity, so
// implementations should be pointer types.
type Record interface {
	// IsUndone reports whether the record's effect is currently reverted.
	IsUndone() bool

	// ToggleUndoState flips the undone flag and applies or reverts the effect.
	ToggleUndoState()
}

// Disposable is implemented by records that hold resources which must be
// released when the history discards them for good.
type Disposable interface {
	Dispose()
}

// Undoable is a Record base that only tracks the undone flag.
// Embed it and override ToggleUndoState to add an effect:
//
//	func (e *Entity) ToggleUndoState() {
//	    e.Undoable.ToggleUndoState()
//	    e.doc.invalidate()
//	}
type Undoable struct {
	undone bool
}

// IsUndone reports whether the record is currently undone.
func (u *Undoable) IsUndone() bool {
	return u.undone
}

// SetUndone sets the undone flag without toggling any effect.
func (u *Undoable) SetUndone(undone bool) {
	u.undone = undone
}

// ToggleUndoState flips the undone flag.
func (u *Undoable) ToggleUndoState() {
	u.undone = !u.undone
}
