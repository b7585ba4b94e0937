// Package metrics provides in-process instrumentation for the walkthrough
// engine.
//
// It records how long targets take to resolve, how often the controller has
// to poll, how many deferred callbacks were dropped as stale, and how long
// users spend on each step.
//
// Metrics are collected in-memory with atomic operations for thread-safety.
// Collection is enabled by default but can be disabled via TABLESIDE_METRICS=0.
//
// Usage:
//
//	stop := metrics.Timer(metrics.TargetResolve)
//	// ... wait for the element
//	stop()
package metrics

import (
	"os"
	"sync/atomic"
	"time"
)

// enabled controls whether metrics are collected.
var enabled atomic.Bool

func init() {
	enabled.Store(os.Getenv("TABLESIDE_METRICS") != "0")
}

// Enabled returns whether metrics collection is enabled.
func Enabled() bool {
	return enabled.Load()
}

// SetEnabled allows programmatic control of metrics collection.
func SetEnabled(e bool) {
	enabled.Store(e)
}

// TimingMetric tracks timing statistics for a named operation.
// All methods are thread-safe using atomic operations.
type TimingMetric struct {
	name    string
	count   int64
	totalNs int64
	maxNs   int64
	minNs   int64 // 0 means not set
}

func newTimingMetric(name string) *TimingMetric {
	return &TimingMetric{name: name}
}

// Record records a single timing measurement.
func (m *TimingMetric) Record(d time.Duration) {
	if !Enabled() {
		return
	}
	ns := d.Nanoseconds()

	atomic.AddInt64(&m.count, 1)
	atomic.AddInt64(&m.totalNs, ns)

	for {
		old := atomic.LoadInt64(&m.maxNs)
		if ns <= old || atomic.CompareAndSwapInt64(&m.maxNs, old, ns) {
			break
		}
	}

	for {
		old := atomic.LoadInt64(&m.minNs)
		if old != 0 && ns >= old {
			break
		}
		if atomic.CompareAndSwapInt64(&m.minNs, old, ns) {
			break
		}
	}
}

// Name returns the metric name.
func (m *TimingMetric) Name() string {
	return m.name
}

// Count returns the number of recorded measurements.
func (m *TimingMetric) Count() int64 {
	return atomic.LoadInt64(&m.count)
}

// Stats returns all timing statistics at once.
func (m *TimingMetric) Stats() TimingStats {
	count := atomic.LoadInt64(&m.count)
	totalNs := atomic.LoadInt64(&m.totalNs)
	maxNs := atomic.LoadInt64(&m.maxNs)
	minNs := atomic.LoadInt64(&m.minNs)

	var avgNs int64
	if count > 0 {
		avgNs = totalNs / count
	}

	return TimingStats{
		Name:    m.name,
		Count:   count,
		TotalMs: float64(totalNs) / 1e6,
		AvgMs:   float64(avgNs) / 1e6,
		MaxMs:   float64(maxNs) / 1e6,
		MinMs:   float64(minNs) / 1e6,
	}
}

// Reset clears all recorded measurements.
func (m *TimingMetric) Reset() {
	atomic.StoreInt64(&m.count, 0)
	atomic.StoreInt64(&m.totalNs, 0)
	atomic.StoreInt64(&m.maxNs, 0)
	atomic.StoreInt64(&m.minNs, 0)
}

// TimingStats holds a snapshot of timing statistics.
type TimingStats struct {
	Name    string  `json:"name"`
	Count   int64   `json:"count"`
	TotalMs float64 `json:"total_ms"`
	AvgMs   float64 `json:"avg_ms"`
	MaxMs   float64 `json:"max_ms"`
	MinMs   float64 `json:"min_ms,omitempty"`
}

// Timer returns a function that records elapsed time when called.
func Timer(m *TimingMetric) func() {
	if !Enabled() || m == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		m.Record(time.Since(start))
	}
}

// Counter is a monotonically increasing event count.
type Counter struct {
	name string
	n    atomic.Int64
}

func newCounter(name string) *Counter {
	return &Counter{name: name}
}

// Inc adds one.
func (c *Counter) Inc() {
	if !Enabled() {
		return
	}
	c.n.Add(1)
}

// Name returns the counter name.
func (c *Counter) Name() string { return c.name }

// Value returns the current count.
func (c *Counter) Value() int64 { return c.n.Load() }

// Reset zeroes the counter.
func (c *Counter) Reset() { c.n.Store(0) }

// Walkthrough timings.
var (
	TargetResolve = newTimingMetric("target_resolve")
	StepDwell     = newTimingMetric("step_dwell")
	TrackDuration = newTimingMetric("track_duration")
)

// Walkthrough counters.
var (
	PollAttempts = newCounter("poll_attempts")
	Attaches     = newCounter("overlay_attaches")
	StaleTimers  = newCounter("stale_timers_dropped")
	Stalls       = newCounter("target_stalls")
	Navigations  = newCounter("step_navigations")
)

// AllTimingMetrics returns all registered timing metrics.
func AllTimingMetrics() []*TimingMetric {
	return []*TimingMetric{TargetResolve, StepDwell, TrackDuration}
}

// AllCounters returns all registered counters.
func AllCounters() []*Counter {
	return []*Counter{PollAttempts, Attaches, StaleTimers, Stalls, Navigations}
}

// ResetAll resets every metric.
func ResetAll() {
	for _, m := range AllTimingMetrics() {
		m.Reset()
	}
	for _, c := range AllCounters() {
		c.Reset()
	}
}

// AllTimingStats returns stats for all timing metrics that have data.
func AllTimingStats() []TimingStats {
	metrics := AllTimingMetrics()
	stats := make([]TimingStats, 0, len(metrics))
	for _, m := range metrics {
		if m.Count() > 0 {
			stats = append(stats, m.Stats())
		}
	}
	return stats
}

// CounterValues returns a name -> value map of all counters.
func CounterValues() map[string]int64 {
	out := make(map[string]int64)
	for _, c := range AllCounters() {
		out[c.Name()] = c.Value()
	}
	return out
}
