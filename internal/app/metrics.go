package app

import (
	"sync/atomic"
	"time"
)

// Metrics counts history activity. It implements document.Recorder.
type Metrics struct {
	cycles        atomic.Uint64
	cycleRecords  atomic.Uint64
	undoCount     atomic.Uint64
	undoFailed    atomic.Uint64
	undoTotalNs   atomic.Int64
	undoMaxNs     atomic.Int64
	redoCount     atomic.Uint64
	redoFailed    atomic.Uint64
	redoTotalNs   atomic.Int64
	redoMaxNs     atomic.Int64
	disposed      atomic.Uint64
	scriptRuns    atomic.Uint64
	scriptTotalNs atomic.Int64

	startTime time.Time
}

// NewMetrics creates a zeroed Metrics.
func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// RecordCycle counts a closed cycle holding records entries.
func (m *Metrics) RecordCycle(records int) {
	m.cycles.Add(1)
	m.cycleRecords.Add(uint64(records))
}

// RecordUndo counts an undo attempt.
func (m *Metrics) RecordUndo(d time.Duration, ok bool) {
	if !ok {
		m.undoFailed.Add(1)
		return
	}
	m.undoCount.Add(1)
	m.undoTotalNs.Add(d.Nanoseconds())
	storeMax(&m.undoMaxNs, d.Nanoseconds())
}

// RecordRedo counts a redo attempt.
func (m *Metrics) RecordRedo(d time.Duration, ok bool) {
	if !ok {
		m.redoFailed.Add(1)
		return
	}
	m.redoCount.Add(1)
	m.redoTotalNs.Add(d.Nanoseconds())
	storeMax(&m.redoMaxNs, d.Nanoseconds())
}

// RecordDispose counts records discarded by truncation.
func (m *Metrics) RecordDispose(n int) {
	m.disposed.Add(uint64(n))
}

// RecordScript counts one script or playbook run.
func (m *Metrics) RecordScript(d time.Duration) {
	m.scriptRuns.Add(1)
	m.scriptTotalNs.Add(d.Nanoseconds())
}

func storeMax(v *atomic.Int64, ns int64) {
	for {
		old := v.Load()
		if ns <= old || v.CompareAndSwap(old, ns) {
			return
		}
	}
}

// MetricsSnapshot is a point-in-time copy of Metrics.
type MetricsSnapshot struct {
	Cycles       uint64        `json:"cycles"`
	CycleRecords uint64        `json:"cycle_records"`
	Undos        uint64        `json:"undos"`
	UndoFailed   uint64        `json:"undo_failed"`
	UndoAvg      time.Duration `json:"undo_avg_ns"`
	UndoMax      time.Duration `json:"undo_max_ns"`
	Redos        uint64        `json:"redos"`
	RedoFailed   uint64        `json:"redo_failed"`
	RedoAvg      time.Duration `json:"redo_avg_ns"`
	RedoMax      time.Duration `json:"redo_max_ns"`
	Disposed     uint64        `json:"disposed"`
	ScriptRuns   uint64        `json:"script_runs"`
	ScriptAvg    time.Duration `json:"script_avg_ns"`
	Uptime       time.Duration `json:"uptime_ns"`
}

// Snapshot returns the current values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	s := MetricsSnapshot{
		Cycles:       m.cycles.Load(),
		CycleRecords: m.cycleRecords.Load(),
		Undos:        m.undoCount.Load(),
		UndoFailed:   m.undoFailed.Load(),
		UndoMax:      time.Duration(m.undoMaxNs.Load()),
		Redos:        m.redoCount.Load(),
		RedoFailed:   m.redoFailed.Load(),
		RedoMax:      time.Duration(m.redoMaxNs.Load()),
		Disposed:     m.disposed.Load(),
		ScriptRuns:   m.scriptRuns.Load(),
		Uptime:       time.Since(m.startTime),
	}
	s.UndoAvg = average(m.undoTotalNs.Load(), s.Undos)
	s.RedoAvg = average(m.redoTotalNs.Load(), s.Redos)
	s.ScriptAvg = average(m.scriptTotalNs.Load(), s.ScriptRuns)
	return s
}

// Reset zeroes every counter.
func (m *Metrics) Reset() {
	for _, c := range []*atomic.Uint64{&m.cycles, &m.cycleRecords, &m.undoCount, &m.undoFailed,
		&m.redoCount, &m.redoFailed, &m.disposed, &m.scriptRuns} {
		c.Store(0)
	}
	for _, c := range []*atomic.Int64{&m.undoTotalNs, &m.undoMaxNs, &m.redoTotalNs, &m.redoMaxNs, &m.scriptTotalNs} {
		c.Store(0)
	}
	m.startTime = time.Now()
}

func average(totalNs int64, n uint64) time.Duration {
	if n == 0 {
		return 0
	}
	return time.Duration(totalNs / int64(n))
}
