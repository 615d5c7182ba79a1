package history

import (
	"errors"
)

// Status errors for history operations. None of them is fatal; each one
// means the call was a no-op.
var (
	ErrNothingToUndo    = errors.New("nothing to undo")
	ErrNothingToRedo    = errors.New("nothing to redo")
	ErrNoActiveCycle    = errors.New("no undo cycle active")
	ErrCycleAlreadyOpen = errors.New("undo cycle already open")
)

// History manages the cycle sequence and the undo cursor for one document.
//
// Cycles at index <= position are applied; cycles above position have been
// undone and can be redone. History is not safe for concurrent use; callers
// serialize access from a single goroutine.
type History struct {
	cycles   []*Cycle
	position int

	// Cycle being filled between BeginCycle and EndCycle.
	pending *Cycle

	// owners maps each record to the closed cycles that reference it.
	owners map[Record]map[*Cycle]struct{}

	listener  Listener
	logger    Logger
	disposeFn func(Record)
}

// Option configures a History.
type Option func(*History)

// WithListener sets the availability listener.
func WithListener(l Listener) Option {
	return func(h *History) {
		if l != nil {
			h.listener = l
		}
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(l Logger) Option {
	return func(h *History) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithDisposeFunc sets a function called for every record the history
// discards for good.
func WithDisposeFunc(fn func(Record)) Option {
	return func(h *History) {
		h.disposeFn = fn
	}
}

// NewHistory creates an empty history.
func NewHistory(opts ...Option) *History {
	h := &History{
		position: -1,
		owners:   make(map[Record]map[*Cycle]struct{}),
		listener: nopListener{},
		logger:   nopLogger{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// SetListener replaces the availability listener.
// Pass nil to stop notifications.
func (h *History) SetListener(l Listener) {
	if l == nil {
		l = nopListener{}
	}
	h.listener = l
}

// BeginCycle discards every redoable cycle and opens a new, empty cycle.
// Records registered until EndCycle undo and redo together.
func (h *History) BeginCycle(label string) error {
	if h.pending != nil {
		h.logger.Warn("undo cycle %q already open, ignoring begin of %q", h.pending.label, label)
		return ErrCycleAlreadyOpen
	}

	h.truncate(nil)
	h.pending = NewCycle(label)
	return nil
}

// Register adds r to the open cycle.
func (h *History) Register(r Record) error {
	if h.pending == nil {
		h.logger.Warn("no undo cycle active, record not registered")
		return ErrNoActiveCycle
	}
	h.pending.add(r)
	return nil
}

// Unregister removes r from the open cycle. It reports whether r was there.
func (h *History) Unregister(r Record) bool {
	if h.pending == nil {
		return false
	}
	return h.pending.remove(r)
}

// EndCycle closes the open cycle and appends it at the cursor.
// The listener is told that undo is available and redo is not.
func (h *History) EndCycle() error {
	if h.pending == nil {
		h.logger.Warn("no undo cycle active, nothing to end")
		return ErrNoActiveCycle
	}

	c := h.pending
	h.pending = nil

	// An undo issued while the cycle was open leaves redoable cycles behind.
	h.truncate(c)

	c.sealed = true
	h.cycles = append(h.cycles, c)
	h.position = len(h.cycles) - 1
	for _, r := range c.records {
		h.own(r, c)
	}

	h.listener.SetUndoAvailable(true)
	h.listener.SetRedoAvailable(false)
	return nil
}

// CancelCycle drops the open cycle without adding it to the history.
// Effects already applied by the caller are not reverted.
func (h *History) CancelCycle() error {
	if h.pending == nil {
		return ErrNoActiveCycle
	}
	h.logger.Debug("undo cycle %q cancelled with %d records", h.pending.label, h.pending.Len())
	h.pending = nil
	return nil
}

// IsCycleOpen returns true between BeginCycle and EndCycle.
func (h *History) IsCycleOpen() bool {
	return h.pending != nil
}

// Undo toggles every record of the cycle at the cursor and moves the cursor
// back. When the cursor reaches the start the listener is told undo is no
// longer available; on success it is told redo is available.
func (h *History) Undo() error {
	if h.position < 0 {
		return ErrNothingToUndo
	}

	var c *Cycle
	for h.position >= 0 {
		c = h.cycles[h.position]
		h.position--
		if c != nil {
			break
		}
	}

	if h.position == -1 {
		h.listener.SetUndoAvailable(false)
	}
	if c == nil {
		return ErrNothingToUndo
	}

	h.logger.Debug("undo %s", c)
	c.toggle()
	h.listener.SetRedoAvailable(true)
	return nil
}

// Redo moves the cursor forward and toggles every record of the cycle it
// lands on. When no redoable cycle remains the listener is told redo is no
// longer available; on success it is told undo is available.
func (h *History) Redo() error {
	if h.position+1 >= len(h.cycles) {
		return ErrNothingToRedo
	}

	var c *Cycle
	for h.position+1 < len(h.cycles) {
		h.position++
		if c = h.cycles[h.position]; c != nil {
			break
		}
	}

	if c == nil {
		h.listener.SetRedoAvailable(false)
		return ErrNothingToRedo
	}

	h.logger.Debug("redo %s", c)
	c.toggle()
	if h.position+1 == len(h.cycles) {
		h.listener.SetRedoAvailable(false)
	}
	h.listener.SetUndoAvailable(true)
	return nil
}

// PeekUndo returns the cycle the next Undo acts on, without moving the cursor.
func (h *History) PeekUndo() (*Cycle, bool) {
	if h.position < 0 || h.position >= len(h.cycles) {
		return nil, false
	}
	c := h.cycles[h.position]
	return c, c != nil
}

// PeekRedo returns the cycle the next Redo acts on, without moving the cursor.
func (h *History) PeekRedo() (*Cycle, bool) {
	next := h.position + 1
	if next < 0 || next >= len(h.cycles) {
		return nil, false
	}
	c := h.cycles[next]
	return c, c != nil
}

// UndoCount returns the number of cycles that can be undone.
func (h *History) UndoCount() int {
	return h.position + 1
}

// RedoCount returns the number of cycles that can be redone.
func (h *History) RedoCount() int {
	return len(h.cycles) - 1 - h.position
}

// CanUndo returns true if undo is available.
func (h *History) CanUndo() bool {
	return h.UndoCount() > 0
}

// CanRedo returns true if redo is available.
func (h *History) CanRedo() bool {
	return h.RedoCount() > 0
}

// Len returns the number of cycles in the history.
func (h *History) Len() int {
	return len(h.cycles)
}

// Position returns the cursor; -1 means nothing is applied.
func (h *History) Position() int {
	return h.position
}

// SyncListener announces the current availability of undo and redo.
// Use it after attaching a listener to an existing history.
func (h *History) SyncListener() {
	h.listener.SetRedoAvailable(len(h.cycles) > 0 && h.CanRedo())
	h.listener.SetUndoAvailable(len(h.cycles) > 0 && h.CanUndo())
}

// RefCount returns the number of closed cycles that reference r.
func (h *History) RefCount(r Record) int {
	return len(h.owners[r])
}

func (h *History) own(r Record, c *Cycle) {
	set, ok := h.owners[r]
	if !ok {
		set = make(map[*Cycle]struct{}, 1)
		h.owners[r] = set
	}
	set[c] = struct{}{}
}

// truncate removes every cycle beyond the cursor. Each record of a removed
// cycle is pruned from all remaining cycles; records that end up unreferenced
// and undone are disposed once the pass completes. Records of keep, the cycle
// being closed, are never disposed.
func (h *History) truncate(keep *Cycle) {
	if len(h.cycles) <= h.position+1 {
		return
	}

	var pendingDisposal []Record
	removed := 0
	for len(h.cycles) > h.position+1 {
		last := len(h.cycles) - 1
		c := h.cycles[last]
		h.cycles[last] = nil
		h.cycles = h.cycles[:last]
		removed++
		if c == nil {
			continue
		}

		for _, r := range c.records {
			for k := range h.owners[r] {
				if k != c {
					k.remove(r)
				}
			}
			delete(h.owners, r)

			if r.IsUndone() {
				pendingDisposal = append(pendingDisposal, r)
			}
		}
	}

	disposed := 0
	for _, r := range pendingDisposal {
		if h.RefCount(r) > 0 || (keep != nil && keep.Contains(r)) {
			continue
		}
		h.dispose(r)
		disposed++
	}
	h.logger.Debug("truncated %d cycles, disposed %d records", removed, disposed)
}

func (h *History) dispose(r Record) {
	if d, ok := r.(Disposable); ok {
		d.Dispose()
	}
	if h.disposeFn != nil {
		h.disposeFn(r)
	}
}
