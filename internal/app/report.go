package app

import (
	"time"

	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/dshills/rewind/internal/document"
)

// Report summarizes a document after a run.
type Report struct {
	Document string
	Undo     int
	Redo     int
	Visible  int
	Total    int
	Elapsed  time.Duration

	// UndoAvailable and RedoAvailable are the last listener notifications.
	UndoAvailable bool
	RedoAvailable bool
	Notifications int

	// Dump is the history listing.
	Dump string

	// Entities is the visible entities as an indented JSON array.
	Entities string
}

func newReport(doc *document.Document, avail *availability, elapsed time.Duration) *Report {
	h := doc.History()
	entities, err := doc.PrettyJSON()
	if err != nil {
		entities = "[]"
	}
	return &Report{
		Document:      doc.Name(),
		Undo:          h.UndoCount(),
		Redo:          h.RedoCount(),
		Visible:       doc.Len(),
		Total:         doc.Total(),
		Elapsed:       elapsed,
		UndoAvailable: avail.undo,
		RedoAvailable: avail.redo,
		Notifications: avail.events,
		Dump:          h.String(),
		Entities:      entities,
	}
}

// JSON renders the report as indented JSON.
func (r *Report) JSON() (string, error) {
	out := "{}"
	var err error
	set := func(path string, v any) {
		if err == nil {
			out, err = sjson.Set(out, path, v)
		}
	}
	set("document", r.Document)
	set("history.undo", r.Undo)
	set("history.redo", r.Redo)
	set("history.undo_available", r.UndoAvailable)
	set("history.redo_available", r.RedoAvailable)
	set("entities.visible", r.Visible)
	set("entities.total", r.Total)
	set("elapsed", r.Elapsed.String())
	if err == nil {
		out, err = sjson.SetRaw(out, "entities.list", r.Entities)
	}
	if err != nil {
		return "", err
	}
	return string(pretty.Pretty([]byte(out))), nil
}
