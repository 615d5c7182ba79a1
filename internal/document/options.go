package document

import (
	"time"

	"github.com/dshills/rewind/internal/engine/history"
)

// Recorder receives document activity for metrics.
type Recorder interface {
	RecordCycle(records int)
	RecordUndo(d time.Duration, ok bool)
	RecordRedo(d time.Duration, ok bool)
	RecordDispose(n int)
}

type nopRecorder struct{}

func (nopRecorder) RecordCycle(int)                {}
func (nopRecorder) RecordUndo(time.Duration, bool) {}
func (nopRecorder) RecordRedo(time.Duration, bool) {}
func (nopRecorder) RecordDispose(int)              {}

// Option configures a Document.
type Option func(*Document)

// WithName sets the document name.
func WithName(name string) Option {
	return func(d *Document) {
		d.name = name
	}
}

// WithLogger sets the logger shared by the document and its history.
func WithLogger(l history.Logger) Option {
	return func(d *Document) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithListener sets the undo/redo availability listener.
func WithListener(l history.Listener) Option {
	return func(d *Document) {
		d.listener = l
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(d *Document) {
		if r != nil {
			d.recorder = r
		}
	}
}
