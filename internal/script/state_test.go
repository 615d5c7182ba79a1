package script

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/rewind/internal/document"
)

func newTestState(t *testing.T, opts ...Option) (*State, *document.Document, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	s := NewState(append([]Option{WithOutput(&out)}, opts...)...)
	t.Cleanup(func() { _ = s.Close() })

	d := document.New(document.WithName(t.Name()))
	Bind(s, d)
	return s, d, &out
}

func TestRunEditsDocument(t *testing.T) {
	s, d, out := newTestState(t)

	err := s.Run(context.Background(), "edit.lua", `
		doc.begin("draw")
		local a = doc.insert("line", {x1 = 0, y1 = 0, x2 = 10, y2 = 0})
		local b = doc.insert("circle", {r = 2})
		doc.commit()

		local a2 = doc.update(a, "x2", 20)
		assert(doc.get(a2, "x2") == 20)
		assert(doc.get(a, "x2") == nil, "replaced entity is hidden")

		doc.delete(b)
		print(doc.counts())
		assert(doc.undo())
		assert(doc.undo())
		print(doc.counts())
	`)
	require.NoError(t, err)

	assert.Equal(t, "3\t0\n1\t2\n", out.String())
	assert.Equal(t, 2, d.Len())
	assert.Equal(t, 1, d.History().UndoCount())
	assert.Equal(t, 2, d.History().RedoCount())
}

func TestUndoRedoBoundariesReturnFalse(t *testing.T) {
	s, _, out := newTestState(t)

	err := s.Run(context.Background(), "bounds.lua", `
		print(doc.undo(), doc.redo())
		doc.insert("point")
		print(doc.redo(), doc.undo(), doc.undo())
	`)
	require.NoError(t, err)
	assert.Equal(t, "false\tfalse\nfalse\ttrue\tfalse\n", out.String())
}

func TestTransaction(t *testing.T) {
	s, d, _ := newTestState(t)

	err := s.Run(context.Background(), "tx.lua", `
		doc.transaction("pair", function()
			doc.insert("point", {x = 1})
			doc.insert("point", {x = 2})
		end)
	`)
	require.NoError(t, err)
	assert.Equal(t, 1, d.History().UndoCount())
	assert.Equal(t, 2, d.Len())

	err = s.Run(context.Background(), "tx-fail.lua", `
		doc.transaction("broken", function()
			doc.insert("point")
			error("boom")
		end)
	`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.False(t, d.History().IsCycleOpen())
	assert.Equal(t, 1, d.History().UndoCount())
}

func TestVisibleAndJSON(t *testing.T) {
	s, _, out := newTestState(t)

	err := s.Run(context.Background(), "list.lua", `
		doc.insert("line", {len = 3, tags = {"a", "b"}})
		local v = doc.visible()
		print(#v, v[1].id, v[1].kind, v[1].attrs.len, v[1].attrs.tags[2])
		print(doc.json())
	`)
	require.NoError(t, err)
	assert.Equal(t, "1\t1\tline\t3\tb\n"+`[{"id":1,"kind":"line","attrs":{"len":3,"tags":["a","b"]}}]`+"\n", out.String())
}

func TestVisibleParent(t *testing.T) {
	s, _, out := newTestState(t)

	err := s.Run(context.Background(), "parent.lua", `
		local a = doc.insert("line", {x = 1})
		local b = doc.update(a, "x", 2)
		local v = doc.visible()
		print(#v, v[1].id == b, v[1].parent == a)
		doc.undo()
		print(doc.visible()[1].parent == nil)
	`)
	require.NoError(t, err)
	assert.Equal(t, "1\ttrue\ttrue\ntrue\n", out.String())
}

func TestDocumentErrorsRaise(t *testing.T) {
	s, _, _ := newTestState(t)

	tests := []struct {
		name string
		src  string
		want string
	}{
		{"unknown entity", `doc.update(42, "x", 1)`, "entity not found"},
		{"hidden entity", `local id = doc.insert("p") doc.delete(id) doc.delete(id)`, "not visible"},
		{"commit without cycle", `doc.commit()`, "no undo cycle"},
		{"bad id", `doc.delete(0)`, "entity id must be positive"},
		{"array attrs", `doc.insert("p", {1, 2})`, "string keys"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Run(context.Background(), tt.name, tt.src)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSandbox(t *testing.T) {
	s, _, out := newTestState(t)

	err := s.Run(context.Background(), "sandbox.lua", `
		print(type(dofile), type(loadfile), type(load), type(require))
		print(type(io), type(os), type(debug))
		print(type(string.format), type(math.floor), type(table.insert))
	`)
	require.NoError(t, err)
	assert.Equal(t, "nil\tnil\tnil\tnil\nnil\tnil\tnil\nfunction\tfunction\tfunction\n", out.String())
}

func TestTimeout(t *testing.T) {
	s, _, _ := newTestState(t, WithTimeout(50*time.Millisecond))

	start := time.Now()
	err := s.Run(context.Background(), "spin.lua", `while true do end`)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), 5*time.Second)

	// The state stays usable after a timeout.
	require.NoError(t, s.Run(context.Background(), "after.lua", `doc.insert("p")`))
}

func TestCancelledContext(t *testing.T) {
	s, _, _ := newTestState(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Run(ctx, "spin.lua", `while true do end`)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCallLimit(t *testing.T) {
	s, d, _ := newTestState(t, WithCallLimit(10))

	err := s.Run(context.Background(), "many.lua", `
		for i = 1, 100 do doc.insert("p") end
	`)
	assert.ErrorIs(t, err, ErrCallLimit)
	assert.Equal(t, 10, d.Len())

	// The counter resets per run.
	require.NoError(t, s.Run(context.Background(), "few.lua", `doc.counts()`))
}

func TestCompileError(t *testing.T) {
	s, _, _ := newTestState(t)
	err := s.Run(context.Background(), "broken.lua", `doc.insert(`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compile broken.lua")
}

func TestRunFile(t *testing.T) {
	s, d, _ := newTestState(t)
	path := filepath.Join(t.TempDir(), "file.lua")
	require.NoError(t, os.WriteFile(path, []byte(`doc.insert("p")`), 0o644))

	require.NoError(t, s.RunFile(context.Background(), path))
	assert.Equal(t, 1, d.Len())

	assert.Error(t, s.RunFile(context.Background(), filepath.Join(t.TempDir(), "absent.lua")))
}

func TestClosedState(t *testing.T) {
	s := NewState()
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Run(context.Background(), "x", "return"), ErrStateClosed)
}
