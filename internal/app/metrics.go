package app

import (
	"sync/atomic"
	"time"
)

// Metrics counts snapshot reloads and the change events they produce.
type Metrics struct {
	reloads       atomic.Uint64
	reloadErrors  atomic.Uint64
	changeEvents  atomic.Uint64
	notifyErrors  atomic.Uint64
	reloadTotalNs atomic.Int64
	lastReloadNs  atomic.Int64
}

// RecordReload records a completed reload and the number of events it
// produced.
func (m *Metrics) RecordReload(duration time.Duration, events int) {
	ns := duration.Nanoseconds()
	m.reloads.Add(1)
	m.reloadTotalNs.Add(ns)
	m.lastReloadNs.Store(ns)
	m.changeEvents.Add(uint64(events))
}

// RecordReloadError records a reload that could not read the snapshot.
func (m *Metrics) RecordReloadError() {
	m.reloadErrors.Add(1)
}

// RecordNotifyError records a change event a provider rejected.
func (m *Metrics) RecordNotifyError() {
	m.notifyErrors.Add(1)
}

// Snapshot returns a point-in-time copy.
func (m *Metrics) Snapshot() MetricsSnapshot {
	reloads := m.reloads.Load()

	var avg time.Duration
	if reloads > 0 {
		avg = time.Duration(m.reloadTotalNs.Load() / int64(reloads))
	}

	return MetricsSnapshot{
		Reloads:      reloads,
		ReloadErrors: m.reloadErrors.Load(),
		ChangeEvents: m.changeEvents.Load(),
		NotifyErrors: m.notifyErrors.Load(),
		AvgReload:    avg,
		LastReload:   time.Duration(m.lastReloadNs.Load()),
	}
}

// MetricsSnapshot is a point-in-time view of Metrics.
type MetricsSnapshot struct {
	Reloads      uint64
	ReloadErrors uint64
	ChangeEvents uint64
	NotifyErrors uint64
	AvgReload    time.Duration
	LastReload   time.Duration
}

// Timer measures elapsed time.
type Timer struct {
	start time.Time
}

// StartTimer creates a new timer.
func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Elapsed returns the elapsed time since the timer started.
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}
