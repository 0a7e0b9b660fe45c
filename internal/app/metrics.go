package app

import (
	"sync/atomic"
	"time"

	"github.com/dshills/procman/internal/process"
	"github.com/dshills/procman/internal/task"
)

// Metrics counts supervision events. The counters are updated from the
// supervisor loop and may be read from any goroutine.
type Metrics struct {
	spawns   atomic.Uint64
	restarts atomic.Uint64

	exits         atomic.Uint64
	failedExits   atomic.Uint64
	signaledExits atomic.Uint64

	// Longest lifetime of a single process instance.
	maxLifetimeNs atomic.Int64

	startTime time.Time
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// RecordSpawn records a successful process start.
func (m *Metrics) RecordSpawn(t *task.Task) {
	m.spawns.Add(1)
	if t.Restarts > 0 {
		m.restarts.Add(1)
	}
}

// RecordExit records a reaped child and how long it ran.
func (m *Metrics) RecordExit(e process.Exit, lifetime time.Duration) {
	m.exits.Add(1)
	switch {
	case e.Status.Signaled():
		m.signaledExits.Add(1)
	case !e.Success():
		m.failedExits.Add(1)
	}

	ns := lifetime.Nanoseconds()
	for {
		old := m.maxLifetimeNs.Load()
		if ns <= old {
			break
		}
		if m.maxLifetimeNs.CompareAndSwap(old, ns) {
			break
		}
	}
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Spawns:        m.spawns.Load(),
		Restarts:      m.restarts.Load(),
		Exits:         m.exits.Load(),
		FailedExits:   m.failedExits.Load(),
		SignaledExits: m.signaledExits.Load(),
		MaxLifetime:   time.Duration(m.maxLifetimeNs.Load()),
		Uptime:        time.Since(m.startTime),
	}
}

// MetricsSnapshot is a point-in-time copy of Metrics.
type MetricsSnapshot struct {
	Spawns        uint64
	Restarts      uint64
	Exits         uint64
	FailedExits   uint64
	SignaledExits uint64
	MaxLifetime   time.Duration
	Uptime        time.Duration
}

// CleanExits returns the number of children that exited with status 0.
func (s MetricsSnapshot) CleanExits() uint64 {
	return s.Exits - s.FailedExits - s.SignaledExits
}

// Timer measures elapsed time.
type Timer struct {
	start time.Time
}

// StartTimer starts a new timer.
func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Elapsed returns the elapsed time since the timer started.
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}
