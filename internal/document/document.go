// Package document provides an entity container whose edits are recorded
// in an undo history.
//
// Every entity is a history record. Inserting registers the new entity,
// deleting hides it and registers it, and updating hides the old entity and
// registers it together with its replacement. Undo and redo then only flip
// entity visibility.
//
// An entity created and then deleted or replaced within the same cycle never
// existed outside it, so it is dropped from the cycle and the document.
package document

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/rewind/internal/engine/history"
)

// Document errors.
var (
	// ErrEntityNotFound indicates no entity has the given ID.
	ErrEntityNotFound = errors.New("entity not found")

	// ErrEntityHidden indicates the entity is not part of the live document.
	ErrEntityHidden = errors.New("entity is not visible")

	// ErrInvalidAttrs indicates attributes are not a JSON object.
	ErrInvalidAttrs = errors.New("attributes must be a JSON object")
)

// Document is a container of entities with an undo history.
// Like History, it is not safe for concurrent use.
type Document struct {
	name    string
	history *history.History

	entities []*Entity // insertion order, may hold disposed entries
	byID     map[uint64]*Entity
	dead     int
	nextID   uint64
	version  uint64

	// Entities created in the open cycle.
	fresh map[*Entity]struct{}

	logger   history.Logger
	listener history.Listener
	recorder Recorder
}

// New creates an empty document.
func New(opts ...Option) *Document {
	d := &Document{
		name:     "untitled",
		byID:     make(map[uint64]*Entity),
		fresh:    make(map[*Entity]struct{}),
		nextID:   1,
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(d)
	}

	d.history = history.NewHistory(
		history.WithLogger(d.logger),
		history.WithListener(d.listener),
		history.WithDisposeFunc(d.remove),
	)
	return d
}

// Name returns the document name.
func (d *Document) Name() string {
	return d.name
}

// History returns the document's undo history.
func (d *Document) History() *history.History {
	return d.history
}

// Version increases every time the visible content changes.
func (d *Document) Version() uint64 {
	return d.version
}

func (d *Document) touch() {
	d.version++
}

// Begin opens an undo cycle. Edits made until Commit undo together.
func (d *Document) Begin(label string) error {
	return d.history.BeginCycle(label)
}

// Commit closes the open undo cycle.
func (d *Document) Commit() error {
	if err := d.history.EndCycle(); err != nil {
		return err
	}
	clear(d.fresh)
	if c, ok := d.history.PeekUndo(); ok {
		d.recorder.RecordCycle(c.Len())
	}
	return nil
}

// Cancel drops the open undo cycle. Edits already made stay in the document
// but can no longer be undone.
func (d *Document) Cancel() error {
	if err := d.history.CancelCycle(); err != nil {
		return err
	}
	clear(d.fresh)
	return nil
}

// edit runs fn in the open cycle, or in a cycle of its own when none is open.
func (d *Document) edit(label string, fn func() error) error {
	if d.history.IsCycleOpen() {
		return fn()
	}
	if err := d.Begin(label); err != nil {
		return err
	}
	if err := fn(); err != nil {
		_ = d.Cancel()
		return err
	}
	return d.Commit()
}

// Insert adds a new entity with the given attributes.
func (d *Document) Insert(kind string, attrs map[string]any) (*Entity, error) {
	raw, err := buildAttrs(attrs)
	if err != nil {
		return nil, err
	}
	return d.InsertJSON(kind, raw)
}

// InsertJSON adds a new entity whose attributes are a raw JSON object.
// An empty string is treated as "{}".
func (d *Document) InsertJSON(kind, attrs string) (*Entity, error) {
	if attrs == "" {
		attrs = "{}"
	}
	if !gjson.Valid(attrs) || !gjson.Parse(attrs).IsObject() {
		return nil, ErrInvalidAttrs
	}

	var e *Entity
	err := d.edit("insert "+kind, func() error {
		e = d.newEntity(kind, attrs, 0)
		return d.history.Register(e)
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Update sets one attribute of a visible entity. The entity is hidden and
// replaced by a copy carrying the new value; the copy is returned.
func (d *Document) Update(id uint64, path string, value any) (*Entity, error) {
	old, err := d.visible(id)
	if err != nil {
		return nil, err
	}

	attrs, err := sjson.Set(old.attrs, path, value)
	if err != nil {
		return nil, fmt.Errorf("set %s on %s: %w", path, old, err)
	}

	var e *Entity
	err = d.edit(fmt.Sprintf("update %s", old), func() error {
		parent := old.id
		if d.isFresh(old) {
			parent = old.parent
		}
		if err := d.retire(old); err != nil {
			return err
		}
		e = d.newEntity(old.kind, attrs, parent)
		return d.history.Register(e)
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Delete hides a visible entity.
func (d *Document) Delete(id uint64) error {
	e, err := d.visible(id)
	if err != nil {
		return err
	}

	return d.edit(fmt.Sprintf("delete %s", e), func() error {
		return d.retire(e)
	})
}

// Undo reverts the most recent cycle.
func (d *Document) Undo() error {
	start := time.Now()
	err := d.history.Undo()
	d.recorder.RecordUndo(time.Since(start), err == nil)
	return err
}

// Redo reapplies the most recently undone cycle.
func (d *Document) Redo() error {
	start := time.Now()
	err := d.history.Redo()
	d.recorder.RecordRedo(time.Since(start), err == nil)
	return err
}

// Entity returns the entity with the given ID, visible or not.
func (d *Document) Entity(id uint64) (*Entity, bool) {
	e, ok := d.byID[id]
	return e, ok
}

// Get returns an attribute of a visible entity.
func (d *Document) Get(id uint64, path string) (gjson.Result, error) {
	e, err := d.visible(id)
	if err != nil {
		return gjson.Result{}, err
	}
	return e.Get(path), nil
}

// Visible returns the live entities in insertion order.
func (d *Document) Visible() []*Entity {
	var out []*Entity
	for _, e := range d.entities {
		if e.IsVisible() {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of visible entities.
func (d *Document) Len() int {
	n := 0
	for _, e := range d.entities {
		if e.IsVisible() {
			n++
		}
	}
	return n
}

// Total returns the number of entities held, including hidden ones kept
// alive by the history.
func (d *Document) Total() int {
	return len(d.byID)
}

func (d *Document) visible(id uint64) (*Entity, error) {
	e, ok := d.byID[id]
	if !ok {
		return nil, fmt.Errorf("entity %d: %w", id, ErrEntityNotFound)
	}
	if !e.IsVisible() {
		return nil, fmt.Errorf("entity %s: %w", e, ErrEntityHidden)
	}
	return e, nil
}

func (d *Document) newEntity(kind, attrs string, parent uint64) *Entity {
	e := &Entity{
		doc:    d,
		id:     d.nextID,
		kind:   kind,
		attrs:  attrs,
		parent: parent,
	}
	d.nextID++
	d.entities = append(d.entities, e)
	d.byID[e.id] = e
	if d.history.IsCycleOpen() {
		d.fresh[e] = struct{}{}
	}
	d.touch()
	return e
}

func (d *Document) isFresh(e *Entity) bool {
	_, ok := d.fresh[e]
	return ok
}

// retire hides e as part of the open cycle. An entity created in that cycle
// is dropped instead.
func (d *Document) retire(e *Entity) error {
	if d.isFresh(e) {
		delete(d.fresh, e)
		d.history.Unregister(e)
		d.drop(e)
		d.debug("dropped %s created in the open cycle", e)
		return nil
	}
	e.SetUndone(true)
	d.touch()
	return d.history.Register(e)
}

// remove deletes an entity the history has discarded.
func (d *Document) remove(r history.Record) {
	e, ok := r.(*Entity)
	if !ok || e.doc != d || e.disposed {
		return
	}

	d.drop(e)
	d.recorder.RecordDispose(1)
	d.debug("disposed %s", e)
}

// drop removes e from the document for good.
func (d *Document) drop(e *Entity) {
	e.disposed = true
	delete(d.byID, e.id)
	d.dead++
	if d.dead > len(d.byID) {
		d.compact()
	}
	d.touch()
}

func (d *Document) debug(msg string, args ...any) {
	if d.logger != nil {
		d.logger.Debug(msg, args...)
	}
}

// compact drops disposed entities from the insertion-order list.
func (d *Document) compact() {
	d.entities = slices.DeleteFunc(d.entities, (*Entity).IsDisposed)
	d.dead = 0
}

// buildAttrs encodes a flat attribute map as a JSON object with sorted keys.
func buildAttrs(attrs map[string]any) (string, error) {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	raw := "{}"
	for _, k := range keys {
		var err error
		raw, err = sjson.Set(raw, escapePath(k), attrs[k])
		if err != nil {
			return "", fmt.Errorf("attribute %q: %w", k, err)
		}
	}
	return raw, nil
}

var pathEscaper = strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`)

// escapePath makes a literal key safe to use as a gjson/sjson path.
func escapePath(key string) string {
	return pathEscaper.Replace(key)
}
