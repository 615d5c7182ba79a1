package playbook

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/rewind/internal/document"
)

const replaceLine = `
name: replace a line
steps:
  - begin: draw
  - insert: {kind: line, attrs: {x: 1, label: first}, as: a}
  - insert: {kind: point, as: p}
  - commit
  - update: {ref: a, path: x, value: 5, as: b}
  - expect: {undo: 2, redo: 0, visible: 2, hidden: [a], attrs: {b: {x: 5, label: first}}}
  - undo
  - expect: {undo: 1, redo: 1, hidden: [b], attrs: {a: {x: 1}}}
  - delete: p
  - expect: {undo: 2, redo: 0, visible: 1, total: 2, disposed: [b]}
  # Discarding the update cycle pruned a from the first cycle, so a stays live.
  - undo: 5
  - expect: {undo: 0, redo: 2, visible: 1, attrs: {a: {x: 1}}}
  - redo: 2
  - expect: {undo: 2, redo: 0, visible: 1}
`

func runPlaybook(t *testing.T, src string) (*Result, *Runner, error) {
	t.Helper()
	pb, err := Parse([]byte(src))
	require.NoError(t, err)
	r := NewRunner(document.New())
	res, err := r.Run(context.Background(), pb)
	return res, r, err
}

func TestParse(t *testing.T) {
	pb, err := Parse([]byte(replaceLine))
	require.NoError(t, err)

	assert.Equal(t, "replace a line", pb.Name)
	require.Len(t, pb.Steps, 14)

	assert.Equal(t, OpBegin, pb.Steps[0].Op)
	assert.Equal(t, "draw", pb.Steps[0].Label)
	assert.Equal(t, 4, pb.Steps[0].Line)

	assert.Equal(t, OpInsert, pb.Steps[1].Op)
	assert.Equal(t, "line", pb.Steps[1].Insert.Kind)
	assert.Equal(t, "a", pb.Steps[1].Insert.As)

	assert.Equal(t, OpCommit, pb.Steps[3].Op)
	assert.Equal(t, 1, pb.Steps[6].Count)
	assert.Equal(t, 5, pb.Steps[10].Count)
	assert.Equal(t, "p", pb.Steps[8].Ref)
	assert.Equal(t, []string{"b"}, pb.Steps[9].Expect.Disposed)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"no steps", "name: empty\n"},
		{"unknown op", "steps:\n  - rotate: 90\n"},
		{"two ops", "steps:\n  - {commit: , cancel: }\n"},
		{"insert without kind", "steps:\n  - insert: {as: a}\n"},
		{"update without path", "steps:\n  - update: {ref: a}\n"},
		{"scalar needing args", "steps:\n  - insert\n"},
		{"bad count", "steps:\n  - undo: many\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src))
			assert.ErrorIs(t, err, ErrInvalidStep)
		})
	}
}

func TestRun(t *testing.T) {
	res, r, err := runPlaybook(t, replaceLine)
	require.NoError(t, err)

	assert.True(t, res.OK(), "failures: %v", res.Failures)
	assert.Equal(t, 14, res.Steps)
	assert.Equal(t, 21, res.Checks)

	id, ok := r.Ref("b")
	assert.True(t, ok)
	assert.NotZero(t, id)
}

func TestRunReportsFailures(t *testing.T) {
	res, _, err := runPlaybook(t, `
steps:
  - insert: {kind: line, attrs: {x: 1}, as: a}
  - expect: {undo: 2, attrs: {a: {x: 2}}, hidden: [a], disposed: [a], visible: 1}
  - expect: {attrs: {ghost: {x: 1}}}
`)
	require.NoError(t, err)
	assert.False(t, res.OK())
	require.Len(t, res.Failures, 5)

	assert.Equal(t, "step 2 (line 4): undo: got 1, want 2", res.Failures[0].String())
	assert.Contains(t, res.Failures[1].Message, "a.x: got 1, want 2")
	assert.Contains(t, res.Failures[2].Message, "visible, want hidden")
	assert.Contains(t, res.Failures[3].Message, "still held")
	assert.Contains(t, res.Failures[4].Message, `unknown ref "ghost"`)
}

func TestRunStopsOnOperationError(t *testing.T) {
	res, _, err := runPlaybook(t, `
steps:
  - insert: {kind: line, as: a}
  - delete: a
  - delete: a
  - commit
`)
	require.ErrorIs(t, err, document.ErrEntityHidden)
	assert.Contains(t, err.Error(), "step 3 (line 5) delete")
	assert.Equal(t, 2, res.Steps)

	_, _, err = runPlaybook(t, "steps:\n  - delete: nobody\n")
	assert.ErrorContains(t, err, `unknown ref "nobody"`)
}

func TestRunCancelledContext(t *testing.T) {
	pb, err := Parse([]byte("steps:\n  - insert: {kind: p}\n"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewRunner(document.New()).Run(ctx, pb)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.yaml")
	require.NoError(t, os.WriteFile(path, []byte("steps:\n  - insert: {kind: p}\n  - undo\n"), 0o644))

	pb, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, pb.Name)
	assert.Len(t, pb.Steps, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
