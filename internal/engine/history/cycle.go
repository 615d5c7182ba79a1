package history

import (
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// Cycle is an ordered group of records that undo and redo as one unit.
//
// A cycle does not own its records; the same record may sit in several
// cycles. Once a cycle is closed into a History it is sealed and only the
// history may change its membership.
type Cycle struct {
	id      uuid.UUID
	label   string
	records []Record
	sealed  bool
}

// NewCycle creates an empty, unsealed cycle.
func NewCycle(label string) *Cycle {
	return &Cycle{
		id:    uuid.New(),
		label: label,
	}
}

// ID returns the cycle identifier.
func (c *Cycle) ID() uuid.UUID {
	return c.id
}

// Label returns the human-readable cycle label.
func (c *Cycle) Label() string {
	return c.label
}

// Add appends r if it is not already a member.
// Returns false if r was present, nil, or the cycle is sealed.
func (c *Cycle) Add(r Record) bool {
	if c.sealed {
		return false
	}
	return c.add(r)
}

// Remove removes r if present.
// Returns false if r was absent or the cycle is sealed.
func (c *Cycle) Remove(r Record) bool {
	if c.sealed {
		return false
	}
	return c.remove(r)
}

func (c *Cycle) add(r Record) bool {
	if r == nil || c.Contains(r) {
		return false
	}
	c.records = append(c.records, r)
	return true
}

func (c *Cycle) remove(r Record) bool {
	i := slices.Index(c.records, r)
	if i < 0 {
		return false
	}
	c.records = slices.Delete(c.records, i, i+1)
	return true
}

// Contains reports whether r is a member of the cycle.
func (c *Cycle) Contains(r Record) bool {
	return slices.Contains(c.records, r)
}

// Len returns the number of records in the cycle.
func (c *Cycle) Len() int {
	return len(c.records)
}

// IsEmpty returns true if the cycle has no records.
func (c *Cycle) IsEmpty() bool {
	return len(c.records) == 0
}

// IsSealed returns true once the cycle has been closed into a history.
func (c *Cycle) IsSealed() bool {
	return c.sealed
}

// Records returns a copy of the records in insertion order.
func (c *Cycle) Records() []Record {
	return slices.Clone(c.records)
}

// All iterates the records in insertion order.
func (c *Cycle) All() iter.Seq[Record] {
	return func(yield func(Record) bool) {
		for _, r := range c.records {
			if !yield(r) {
				return
			}
		}
	}
}

// toggle flips every record in insertion order.
func (c *Cycle) toggle() {
	for _, r := range c.records {
		r.ToggleUndoState()
	}
}

// String returns a one-line description used by the history dump.
func (c *Cycle) String() string {
	var sb strings.Builder
	sb.WriteString("cycle ")
	sb.WriteString(c.id.String()[:8])
	if c.label != "" {
		fmt.Fprintf(&sb, " %q", c.label)
	}
	fmt.Fprintf(&sb, " (%d)", len(c.records))
	for _, r := range c.records {
		sb.WriteByte(' ')
		if s, ok := r.(fmt.Stringer); ok {
			sb.WriteString(s.String())
		} else {
			fmt.Fprintf(&sb, "%p", r)
		}
		if r.IsUndone() {
			sb.WriteByte('*')
		}
	}
	return sb.String()
}
