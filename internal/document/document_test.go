package document

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/dshills/rewind/internal/engine/history"
)

type countingRecorder struct {
	cycles, undos, redos, disposed int
	cycleRecords                   []int
}

func (r *countingRecorder) RecordCycle(n int) {
	r.cycles++
	r.cycleRecords = append(r.cycleRecords, n)
}
func (r *countingRecorder) RecordUndo(time.Duration, bool) { r.undos++ }
func (r *countingRecorder) RecordRedo(time.Duration, bool) { r.redos++ }
func (r *countingRecorder) RecordDispose(n int)            { r.disposed += n }

func ids(entities []*Entity) []uint64 {
	out := make([]uint64, len(entities))
	for i, e := range entities {
		out[i] = e.ID()
	}
	return out
}

func TestInsertAutoCommits(t *testing.T) {
	rec := &countingRecorder{}
	d := New(WithRecorder(rec))

	e, err := d.Insert("line", map[string]any{"x1": 0, "y1": 0, "x2": 10, "y2": 5})
	require.NoError(t, err)

	assert.Equal(t, uint64(1), e.ID())
	assert.Equal(t, "line", e.Kind())
	assert.Equal(t, `{"x1":0,"x2":10,"y1":0,"y2":5}`, e.Attrs())
	assert.Equal(t, 1, d.History().UndoCount())
	assert.Equal(t, []int{1}, rec.cycleRecords)

	require.NoError(t, d.Undo())
	assert.Equal(t, 0, d.Len())
	assert.False(t, e.IsVisible())

	require.NoError(t, d.Redo())
	assert.Equal(t, 1, d.Len())
	assert.Equal(t, 1, rec.undos)
	assert.Equal(t, 1, rec.redos)
}

func TestExplicitCycleGroupsEdits(t *testing.T) {
	d := New()
	require.NoError(t, d.Begin("draw"))
	_, err := d.Insert("point", nil)
	require.NoError(t, err)
	_, err = d.Insert("point", nil)
	require.NoError(t, err)
	require.NoError(t, d.Commit())

	assert.Equal(t, 1, d.History().UndoCount())
	assert.Equal(t, 2, d.Len())

	require.NoError(t, d.Undo())
	assert.Equal(t, 0, d.Len())
}

func TestInsertThenDeleteInOneCycle(t *testing.T) {
	rec := &countingRecorder{}
	d := New(WithRecorder(rec))
	keep, err := d.Insert("line", nil)
	require.NoError(t, err)

	require.NoError(t, d.Begin("scratch"))
	e, err := d.Insert("point", nil)
	require.NoError(t, err)
	require.NoError(t, d.Delete(e.ID()))
	require.NoError(t, d.Commit())

	assert.True(t, e.IsDisposed())
	_, ok := d.Entity(e.ID())
	assert.False(t, ok)
	assert.Equal(t, 1, d.Total())
	assert.Equal(t, []int{1, 0}, rec.cycleRecords)

	require.NoError(t, d.Undo())
	assert.Equal(t, []uint64{keep.ID()}, ids(d.Visible()))
	require.NoError(t, d.Undo())
	assert.Equal(t, 0, d.Len())
	require.NoError(t, d.Redo())
	require.NoError(t, d.Redo())
	assert.Equal(t, []uint64{keep.ID()}, ids(d.Visible()))
}

func TestDoubleUpdateInOneCycle(t *testing.T) {
	d := New()
	a, err := d.Insert("line", map[string]any{"x": 1})
	require.NoError(t, err)

	require.NoError(t, d.Begin("move twice"))
	b, err := d.Update(a.ID(), "x", 2)
	require.NoError(t, err)
	c, err := d.Update(b.ID(), "x", 3)
	require.NoError(t, err)
	require.NoError(t, d.Commit())

	assert.True(t, b.IsDisposed())
	assert.Equal(t, a.ID(), c.Parent())
	assert.Equal(t, []uint64{c.ID()}, ids(d.Visible()))
	assert.Equal(t, 2, d.Total())

	require.NoError(t, d.Undo())
	assert.Equal(t, []uint64{a.ID()}, ids(d.Visible()))
	x, err := d.Get(a.ID(), "x")
	require.NoError(t, err)
	assert.Equal(t, int64(1), x.Int())

	require.NoError(t, d.Redo())
	assert.Equal(t, []uint64{c.ID()}, ids(d.Visible()))
}

func TestUpdateThenDeleteInOneCycle(t *testing.T) {
	d := New()
	a, err := d.Insert("circle", nil)
	require.NoError(t, err)

	require.NoError(t, d.Begin("replace and remove"))
	b, err := d.Update(a.ID(), "r", 4)
	require.NoError(t, err)
	require.NoError(t, d.Delete(b.ID()))
	require.NoError(t, d.Commit())

	assert.Equal(t, 0, d.Len())
	require.NoError(t, d.Undo())
	assert.Equal(t, []uint64{a.ID()}, ids(d.Visible()))
}

func TestCancelClearsCreatedEntities(t *testing.T) {
	d := New()
	require.NoError(t, d.Begin("draft"))
	e, err := d.Insert("point", nil)
	require.NoError(t, err)
	require.NoError(t, d.Cancel())

	// No longer part of an open cycle, so deleting records a normal edit.
	require.NoError(t, d.Delete(e.ID()))
	assert.False(t, e.IsDisposed())
	require.NoError(t, d.Undo())
	assert.Equal(t, []uint64{e.ID()}, ids(d.Visible()))
}

func TestInsertJSONValidation(t *testing.T) {
	d := New()

	_, err := d.InsertJSON("bad", `[1,2]`)
	assert.ErrorIs(t, err, ErrInvalidAttrs)
	_, err = d.InsertJSON("bad", `{"x":`)
	assert.ErrorIs(t, err, ErrInvalidAttrs)

	e, err := d.InsertJSON("empty", "")
	require.NoError(t, err)
	assert.Equal(t, "{}", e.Attrs())
	assert.Equal(t, 1, d.History().UndoCount())
}

func TestInsertEscapesKeys(t *testing.T) {
	d := New()
	e, err := d.Insert("text", map[string]any{"font.size": 12})
	require.NoError(t, err)
	assert.Equal(t, `{"font.size":12}`, e.Attrs())
	assert.Equal(t, int64(12), e.Get(`font\.size`).Int())
}

func TestUpdateReplacesEntity(t *testing.T) {
	d := New()
	orig, err := d.Insert("circle", map[string]any{"r": 1})
	require.NoError(t, err)

	upd, err := d.Update(orig.ID(), "r", 5)
	require.NoError(t, err)

	assert.NotEqual(t, orig.ID(), upd.ID())
	assert.Equal(t, orig.ID(), upd.Parent())
	assert.False(t, orig.IsVisible())
	assert.Equal(t, []uint64{upd.ID()}, ids(d.Visible()))

	r, err := d.Get(upd.ID(), "r")
	require.NoError(t, err)
	assert.Equal(t, int64(5), r.Int())

	// orig belongs to both the insert and the update cycle.
	assert.Equal(t, 2, d.History().RefCount(orig))

	require.NoError(t, d.Undo())
	assert.Equal(t, []uint64{orig.ID()}, ids(d.Visible()))

	require.NoError(t, d.Redo())
	assert.Equal(t, []uint64{upd.ID()}, ids(d.Visible()))
}

func TestUpdateHiddenEntity(t *testing.T) {
	d := New()
	e, err := d.Insert("line", nil)
	require.NoError(t, err)
	require.NoError(t, d.Delete(e.ID()))

	_, err = d.Update(e.ID(), "x", 1)
	assert.ErrorIs(t, err, ErrEntityHidden)

	_, err = d.Update(99, "x", 1)
	assert.ErrorIs(t, err, ErrEntityNotFound)

	assert.ErrorIs(t, d.Delete(e.ID()), ErrEntityHidden)
	_, err = d.Get(e.ID(), "x")
	assert.ErrorIs(t, err, ErrEntityHidden)
}

func TestDeleteAndUndo(t *testing.T) {
	d := New()
	e, err := d.Insert("arc", nil)
	require.NoError(t, err)

	v := d.Version()
	require.NoError(t, d.Delete(e.ID()))
	assert.Greater(t, d.Version(), v)
	assert.Equal(t, 0, d.Len())
	assert.Equal(t, 2, d.History().UndoCount())

	require.NoError(t, d.Undo())
	assert.True(t, e.IsVisible())
}

func TestTruncationDisposesReplacedBranch(t *testing.T) {
	rec := &countingRecorder{}
	d := New(WithRecorder(rec))

	orig, err := d.Insert("line", map[string]any{"len": 1})
	require.NoError(t, err)
	upd, err := d.Update(orig.ID(), "len", 2)
	require.NoError(t, err)

	// Undo the update: orig is live again and upd is hidden.
	require.NoError(t, d.Undo())

	// A new edit discards the update branch.
	other, err := d.Insert("point", nil)
	require.NoError(t, err)

	assert.True(t, upd.IsDisposed())
	assert.False(t, orig.IsDisposed())
	assert.Equal(t, 1, rec.disposed)

	_, ok := d.Entity(upd.ID())
	assert.False(t, ok)
	assert.Equal(t, 2, d.Total())
	assert.Equal(t, []uint64{orig.ID(), other.ID()}, ids(d.Visible()))
	assert.Equal(t, 0, d.History().RedoCount())
}

func TestTruncationKeepsLiveEntities(t *testing.T) {
	d := New()
	e, err := d.Insert("line", nil)
	require.NoError(t, err)
	require.NoError(t, d.Delete(e.ID()))
	require.NoError(t, d.Undo())

	_, err = d.Insert("point", nil)
	require.NoError(t, err)

	assert.False(t, e.IsDisposed())
	assert.True(t, e.IsVisible())
}

func TestCancelKeepsEdits(t *testing.T) {
	d := New()
	require.NoError(t, d.Begin("draft"))
	_, err := d.Insert("point", nil)
	require.NoError(t, err)
	require.NoError(t, d.Cancel())

	assert.Equal(t, 1, d.Len())
	assert.Equal(t, 0, d.History().UndoCount())
	assert.ErrorIs(t, d.Commit(), history.ErrNoActiveCycle)
}

func TestListenerOption(t *testing.T) {
	var undo []bool
	d := New(WithListener(history.ListenerFuncs{
		Undo: func(v bool) { undo = append(undo, v) },
	}))

	_, err := d.Insert("point", nil)
	require.NoError(t, err)
	require.NoError(t, d.Undo())

	assert.Equal(t, []bool{true, false}, undo)
}

func TestJSON(t *testing.T) {
	d := New(WithName("drawing"))
	assert.Equal(t, "drawing", d.Name())

	out, err := d.JSON()
	require.NoError(t, err)
	assert.Equal(t, "[]", out)

	_, err = d.Insert("line", map[string]any{"x": 1})
	require.NoError(t, err)
	_, err = d.Insert("circle", map[string]any{"r": 2.5})
	require.NoError(t, err)

	out, err = d.JSON()
	require.NoError(t, err)
	assert.Equal(t, `[{"id":1,"kind":"line","attrs":{"x":1}},{"id":2,"kind":"circle","attrs":{"r":2.5}}]`, out)
	assert.True(t, gjson.Valid(out))

	_, err = d.Update(1, "x", 2)
	require.NoError(t, err)
	out, err = d.JSON()
	require.NoError(t, err)
	assert.Equal(t, int64(1), gjson.Get(out, "1.parent").Int())
	assert.False(t, gjson.Get(out, "0.parent").Exists())

	pretty, err := d.PrettyJSON()
	require.NoError(t, err)
	assert.Contains(t, pretty, "\n")
	assert.Equal(t, int64(2), gjson.Get(pretty, "#").Int())
}

func TestEntityString(t *testing.T) {
	d := New()
	e, err := d.Insert("line", nil)
	require.NoError(t, err)
	assert.Equal(t, "line#1", e.String())
}
