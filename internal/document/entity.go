package document

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/dshills/rewind/internal/engine/history"
)

// Entity is one object of a document. It is a history record: while undone
// it is hidden from the document, and once the history disposes it, it is
// removed for good.
//
// Entities are immutable apart from their undone state. Updating an entity
// hides it and inserts a replacement with a new ID.
type Entity struct {
	history.Undoable

	doc   *Document
	id    uint64
	kind  string
	attrs string // JSON object

	// Set when the entity replaces another one.
	parent uint64

	disposed bool
}

// ID returns the entity identifier.
func (e *Entity) ID() uint64 {
	return e.id
}

// Kind returns the entity kind (e.g. "line", "circle").
func (e *Entity) Kind() string {
	return e.kind
}

// Attrs returns the attributes as a JSON object.
func (e *Entity) Attrs() string {
	return e.attrs
}

// Parent returns the ID of the entity this one replaced, or 0.
func (e *Entity) Parent() uint64 {
	return e.parent
}

// Get returns the attribute at a gjson path.
func (e *Entity) Get(path string) gjson.Result {
	return gjson.Get(e.attrs, path)
}

// IsVisible returns true if the entity is part of the live document.
func (e *Entity) IsVisible() bool {
	return !e.disposed && !e.IsUndone()
}

// IsDisposed returns true once the history has discarded the entity.
func (e *Entity) IsDisposed() bool {
	return e.disposed
}

// ToggleUndoState hides or shows the entity.
func (e *Entity) ToggleUndoState() {
	e.Undoable.ToggleUndoState()
	e.doc.touch()
}

func (e *Entity) String() string {
	return fmt.Sprintf("%s#%d", e.kind, e.id)
}
