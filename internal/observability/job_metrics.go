package observability

import (
	"sync/atomic"
	"time"
)

// JobStats is the worker's in-process tally, served on its /stats endpoint.
// Prometheus carries the same outcomes; this view survives without a scraper.
type JobStats struct {
	claimed atomic.Uint64
	done    atomic.Uint64
	retried atomic.Uint64
	failed  atomic.Uint64
	skipped atomic.Uint64

	durationCount atomic.Uint64
	durationTotal atomic.Int64
	durationMax   atomic.Int64
}

func NewJobStats() *JobStats {
	return &JobStats{}
}

func (m *JobStats) IncClaimed() { m.claimed.Add(1) }
func (m *JobStats) IncDone()    { m.done.Add(1) }
func (m *JobStats) IncRetried() { m.retried.Add(1) }
func (m *JobStats) IncFailed()  { m.failed.Add(1) }

// IncSkipped counts jobs whose notification had already been delivered.
func (m *JobStats) IncSkipped() { m.skipped.Add(1) }

func (m *JobStats) ObserveDuration(d time.Duration) {
	ns := d.Nanoseconds()
	m.durationCount.Add(1)
	m.durationTotal.Add(ns)

	for {
		curr := m.durationMax.Load()
		if ns <= curr || m.durationMax.CompareAndSwap(curr, ns) {
			return
		}
	}
}

type JobStatsSnapshot struct {
	Claimed       uint64 `json:"claimed"`
	Done          uint64 `json:"done"`
	Retried       uint64 `json:"retried"`
	Failed        uint64 `json:"failed"`
	Skipped       uint64 `json:"skipped"`
	DurationCount uint64 `json:"durationCount"`
	AvgDurationMs int64  `json:"avgDurationMs"`
	MaxDurationMs int64  `json:"maxDurationMs"`
}

func (m *JobStats) Snapshot() JobStatsSnapshot {
	count := m.durationCount.Load()

	var avg time.Duration
	if count > 0 {
		avg = time.Duration(m.durationTotal.Load() / int64(count))
	}

	return JobStatsSnapshot{
		Claimed:       m.claimed.Load(),
		Done:          m.done.Load(),
		Retried:       m.retried.Load(),
		Failed:        m.failed.Load(),
		Skipped:       m.skipped.Load(),
		DurationCount: count,
		AvgDurationMs: avg.Milliseconds(),
		MaxDurationMs: time.Duration(m.durationMax.Load()).Milliseconds(),
	}
}
