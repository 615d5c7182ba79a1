package playbook

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/rewind/internal/document"
	"github.com/dshills/rewind/internal/engine/history"
)

// Failure is one unmet expectation.
type Failure struct {
	Step    int
	Line    int
	Message string
}

func (f Failure) String() string {
	return fmt.Sprintf("step %d (line %d): %s", f.Step+1, f.Line, f.Message)
}

// Result summarizes a run.
type Result struct {
	Name     string
	Steps    int
	Checks   int
	Failures []Failure
}

// OK reports whether every expectation held.
func (r *Result) OK() bool {
	return len(r.Failures) == 0
}

// Runner executes playbooks against a document.
type Runner struct {
	doc  *document.Document
	refs map[string]uint64
}

// NewRunner creates a runner for d.
func NewRunner(d *document.Document) *Runner {
	return &Runner{doc: d, refs: make(map[string]uint64)}
}

// Ref returns the entity ID bound to name by an earlier step.
func (r *Runner) Ref(name string) (uint64, bool) {
	id, ok := r.refs[name]
	return id, ok
}

// Run executes every step. Failed expectations are collected in the result.
// An operation that fails stops the run with an error.
func (r *Runner) Run(ctx context.Context, pb *Playbook) (*Result, error) {
	res := &Result{Name: pb.Name}
	for i, step := range pb.Steps {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := r.exec(res, i, step); err != nil {
			return res, fmt.Errorf("step %d (line %d) %s: %w", i+1, step.Line, step.Op, err)
		}
		res.Steps++
	}
	return res, nil
}

func (r *Runner) exec(res *Result, i int, s Step) error {
	switch s.Op {
	case OpBegin:
		return r.doc.Begin(s.Label)
	case OpCommit:
		return r.doc.Commit()
	case OpCancel:
		return r.doc.Cancel()
	case OpInsert:
		e, err := r.doc.Insert(s.Insert.Kind, s.Insert.Attrs)
		if err != nil {
			return err
		}
		r.bind(s.Insert.As, e.ID())
		return nil
	case OpUpdate:
		id, err := r.lookup(s.Update.Ref)
		if err != nil {
			return err
		}
		e, err := r.doc.Update(id, s.Update.Path, s.Update.Value)
		if err != nil {
			return err
		}
		r.bind(s.Update.As, e.ID())
		return nil
	case OpDelete:
		id, err := r.lookup(s.Ref)
		if err != nil {
			return err
		}
		return r.doc.Delete(id)
	case OpUndo:
		return repeat(s.Count, r.doc.Undo, history.ErrNothingToUndo)
	case OpRedo:
		return repeat(s.Count, r.doc.Redo, history.ErrNothingToRedo)
	case OpExpect:
		r.check(res, i, s)
		return nil
	}
	return fmt.Errorf("%w: unknown operation %q", ErrInvalidStep, s.Op)
}

// repeat calls fn up to n times, stopping without error at boundary.
func repeat(n int, fn func() error, boundary error) error {
	for range n {
		if err := fn(); err != nil {
			if errors.Is(err, boundary) {
				return nil
			}
			return err
		}
	}
	return nil
}

func (r *Runner) bind(name string, id uint64) {
	if name != "" {
		r.refs[name] = id
	}
}

func (r *Runner) lookup(name string) (uint64, error) {
	id, ok := r.refs[name]
	if !ok {
		return 0, fmt.Errorf("unknown ref %q", name)
	}
	return id, nil
}

func (r *Runner) check(res *Result, i int, s Step) {
	fail := func(format string, args ...any) {
		res.Failures = append(res.Failures, Failure{Step: i, Line: s.Line, Message: fmt.Sprintf(format, args...)})
	}
	count := func(name string, want *int, got int) {
		if want == nil {
			return
		}
		res.Checks++
		if *want != got {
			fail("%s: got %d, want %d", name, got, *want)
		}
	}

	e := s.Expect
	h := r.doc.History()
	count("undo", e.Undo, h.UndoCount())
	count("redo", e.Redo, h.RedoCount())
	count("visible", e.Visible, r.doc.Len())
	count("total", e.Total, r.doc.Total())

	for _, ref := range sortedKeys(e.Attrs) {
		res.Checks++
		id, err := r.lookup(ref)
		if err != nil {
			fail("%v", err)
			continue
		}
		for _, path := range sortedKeys(e.Attrs[ref]) {
			got, err := r.doc.Get(id, path)
			if err != nil {
				fail("%s: %v", ref, err)
				break
			}
			if !sameValue(got, e.Attrs[ref][path]) {
				fail("%s.%s: got %s, want %v", ref, path, got.Raw, e.Attrs[ref][path])
			}
		}
	}

	for _, ref := range e.Hidden {
		res.Checks++
		id, err := r.lookup(ref)
		if err != nil {
			fail("%v", err)
			continue
		}
		if ent, ok := r.doc.Entity(id); ok && ent.IsVisible() {
			fail("%s: visible, want hidden", ref)
		}
	}

	for _, ref := range e.Disposed {
		res.Checks++
		id, err := r.lookup(ref)
		if err != nil {
			fail("%v", err)
			continue
		}
		if _, ok := r.doc.Entity(id); ok {
			fail("%s: still held, want disposed", ref)
		}
	}
}

// sameValue compares a stored attribute with a YAML value by their JSON form.
func sameValue(got gjson.Result, want any) bool {
	raw, err := sjson.Set(`{}`, "v", want)
	if err != nil {
		return false
	}
	return reflect.DeepEqual(got.Value(), gjson.Get(raw, "v").Value())
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
