package history

// Listener is notified when undo or redo availability changes.
// Notifications fire only on the transitions documented on History's
// methods, not on every call.
type Listener interface {
	SetUndoAvailable(available bool)
	SetRedoAvailable(available bool)
}

// ListenerFuncs adapts a pair of functions to the Listener interface.
// Nil fields are ignored.
type ListenerFuncs struct {
	Undo func(available bool)
	Redo func(available bool)
}

// SetUndoAvailable implements Listener.
func (f ListenerFuncs) SetUndoAvailable(available bool) {
	if f.Undo != nil {
		f.Undo(available)
	}
}

// SetRedoAvailable implements Listener.
func (f ListenerFuncs) SetRedoAvailable(available bool) {
	if f.Redo != nil {
		f.Redo(available)
	}
}

type nopListener struct{}

func (nopListener) SetUndoAvailable(bool) {}
func (nopListener) SetRedoAvailable(bool) {}

// Logger receives diagnostics from the history.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}
