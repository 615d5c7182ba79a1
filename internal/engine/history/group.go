package history

// CycleScope provides a convenient way to group records using defer.
// Usage:
//
//	func moveEntities(h *History, ents []*Entity) {
//	    defer h.CycleScope("Move").End()
//	    // ... register records ...
//	}
type CycleScope struct {
	history *History
	active  bool
}

// CycleScope starts a new cycle scope.
// If a cycle is already open the scope is inactive and End does nothing,
// so the records join the outer cycle.
func (h *History) CycleScope(label string) *CycleScope {
	if h.IsCycleOpen() {
		return &CycleScope{history: h}
	}
	err := h.BeginCycle(label)
	return &CycleScope{
		history: h,
		active:  err == nil,
	}
}

// End closes the cycle.
// Safe to call multiple times; only the first call has effect.
func (s *CycleScope) End() {
	if s.active {
		_ = s.history.EndCycle()
		s.active = false
	}
}

// Cancel drops the cycle without adding it to the history.
// Note: Effects already applied by the caller are not reverted.
func (s *CycleScope) Cancel() {
	if s.active {
		_ = s.history.CancelCycle()
		s.active = false
	}
}

// Transaction runs fn inside its own cycle.
// If fn returns an error the cycle is cancelled, otherwise it is closed.
// When a cycle is already open fn runs inside it.
func (h *History) Transaction(label string, fn func() error) error {
	scope := h.CycleScope(label)

	if err := fn(); err != nil {
		scope.Cancel()
		return err
	}

	scope.End()
	return nil
}
