package app

import (
	"context"
	"fmt"
	"time"

	"github.com/dshills/rewind/internal/document"
)

// DefaultSelfTestCycles is the size of the reference scenario.
const DefaultSelfTestCycles = 500

// Checkpoint is the history state after one phase of the self test.
type Checkpoint struct {
	Phase    string
	Undo     int
	Redo     int
	WantUndo int
	WantRedo int
	Visible  int
	Elapsed  time.Duration
}

// OK reports whether the counts match.
func (c Checkpoint) OK() bool {
	return c.Undo == c.WantUndo && c.Redo == c.WantRedo
}

// SelfTest replays the reference scenario on a document of n cycles, where
// cycle i inserts i entities:
//
//	add n, undo n, redo n, undo n/2, add 10 cycles of 10,
//	undo 5, redo 5, undo 15, add 1 cycle of 10
//
// Each phase is reported to fn as it completes. n must be at least 30.
// Metrics are reset first, so afterwards they describe the self test alone.
func (app *Application) SelfTest(ctx context.Context, n int, fn func(Checkpoint)) ([]Checkpoint, error) {
	if n < 30 {
		return nil, fmt.Errorf("self test needs at least 30 cycles, got %d", n)
	}

	app.metrics.Reset()
	log := app.logger.WithComponent("selftest")
	doc := app.NewDocument("selftest", nil)
	half := n / 2

	phases := []struct {
		name string
		run  func() error
		undo int
		redo int
	}{
		{fmt.Sprintf("add %d cycles", n), func() error { return addCycles(doc, n, func(i int) int { return i + 1 }) }, n, 0},
		{fmt.Sprintf("undo %d", n), func() error { return repeat(n, doc.Undo) }, 0, n},
		{fmt.Sprintf("redo %d", n), func() error { return repeat(n, doc.Redo) }, n, 0},
		{fmt.Sprintf("undo %d", half), func() error { return repeat(half, doc.Undo) }, n - half, half},
		{"add 10 cycles of 10", func() error { return addCycles(doc, 10, func(int) int { return 10 }) }, n - half + 10, 0},
		{"undo 5", func() error { return repeat(5, doc.Undo) }, n - half + 5, 5},
		{"redo 5", func() error { return repeat(5, doc.Redo) }, n - half + 10, 0},
		{"undo 15", func() error { return repeat(15, doc.Undo) }, n - half - 5, 15},
		{"add 1 cycle of 10", func() error { return addCycles(doc, 1, func(int) int { return 10 }) }, n - half - 4, 0},
	}

	var results []Checkpoint
	for _, p := range phases {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		start := time.Now()
		if err := p.run(); err != nil {
			return results, NewOperationError("selftest", p.name, err)
		}
		h := doc.History()
		cp := Checkpoint{
			Phase:    p.name,
			Undo:     h.UndoCount(),
			Redo:     h.RedoCount(),
			WantUndo: p.undo,
			WantRedo: p.redo,
			Visible:  doc.Len(),
			Elapsed:  time.Since(start),
		}
		results = append(results, cp)
		if fn != nil {
			fn(cp)
		}
		if !cp.OK() {
			log.Error("%s: got (%d, %d), want (%d, %d)", cp.Phase, cp.Undo, cp.Redo, cp.WantUndo, cp.WantRedo)
			return results, fmt.Errorf("%w: %s", ErrSelfTestFailed, cp.Phase)
		}
	}

	log.Info("%d phases passed, %d entities disposed", len(results), app.metrics.Snapshot().Disposed)
	return results, nil
}

// addCycles commits count cycles, cycle i holding size(i) new entities.
func addCycles(doc *document.Document, count int, size func(i int) int) error {
	for i := range count {
		if err := doc.Begin(fmt.Sprintf("cycle %d", i+1)); err != nil {
			return err
		}
		for j := range size(i) {
			if _, err := doc.InsertJSON("point", fmt.Sprintf(`{"n":%d}`, j)); err != nil {
				return err
			}
		}
		if err := doc.Commit(); err != nil {
			return err
		}
	}
	return nil
}

func repeat(n int, fn func() error) error {
	for range n {
		if err := fn(); err != nil {
			return err
		}
	}
	return nil
}
