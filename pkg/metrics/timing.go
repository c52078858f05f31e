// Package metrics provides performance instrumentation for livetree.
//
// Timing metrics cover the hot path of every refresh: the tree rebuild, the
// frame paint, and the watcher's debounced batch handling. Metrics are
// collected in-memory with atomic operations because the watcher goroutine and
// the event loop record concurrently.
// Collection is enabled by default but can be disabled via LIVETREE_METRICS=0.
//
// Usage:
//
//	func rebuild() {
//	    defer metrics.Timer(metrics.TreeBuild)()
//	    // ... operation code
//	}
package metrics

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"
)

// enabled controls whether metrics are collected.
// Defaults to true unless LIVETREE_METRICS=0 is set.
var enabled atomic.Bool

func init() {
	enabled.Store(os.Getenv("LIVETREE_METRICS") != "0")
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
	count   atomic.Int64
	totalNs atomic.Int64
	maxNs   atomic.Int64
	minNs   atomic.Int64 // 0 means not set
}

// newTimingMetric creates a new timing metric with the given name.
func newTimingMetric(name string) *TimingMetric {
	return &TimingMetric{name: name}
}

// Record records a single timing measurement.
func (m *TimingMetric) Record(d time.Duration) {
	if !Enabled() {
		return
	}
	ns := d.Nanoseconds()

	m.count.Add(1)
	m.totalNs.Add(ns)

	// Update max atomically using compare-and-swap
	for {
		old := m.maxNs.Load()
		if ns <= old || m.maxNs.CompareAndSwap(old, ns) {
			break
		}
	}

	// Update min atomically using compare-and-swap
	for {
		old := m.minNs.Load()
		if old != 0 && ns >= old {
			break
		}
		if m.minNs.CompareAndSwap(old, ns) {
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
	return m.count.Load()
}

// Stats returns all timing statistics at once.
func (m *TimingMetric) Stats() TimingStats {
	count := m.count.Load()
	totalNs := m.totalNs.Load()

	var avgNs int64
	if count > 0 {
		avgNs = totalNs / count
	}

	return TimingStats{
		Name:    m.name,
		Count:   count,
		TotalMs: float64(totalNs) / 1e6,
		AvgMs:   float64(avgNs) / 1e6,
		MaxMs:   float64(m.maxNs.Load()) / 1e6,
		MinMs:   float64(m.minNs.Load()) / 1e6,
	}
}

// Reset clears all recorded measurements.
func (m *TimingMetric) Reset() {
	m.count.Store(0)
	m.totalNs.Store(0)
	m.maxNs.Store(0)
	m.minNs.Store(0)
}

// TimingStats holds a snapshot of timing statistics.
type TimingStats struct {
	Name    string
	Count   int64
	TotalMs float64
	AvgMs   float64
	MaxMs   float64
	MinMs   float64
}

// String formats the stats on one line.
func (s TimingStats) String() string {
	return fmt.Sprintf("%s: n=%d avg=%.2fms min=%.2fms max=%.2fms total=%.1fms",
		s.Name, s.Count, s.AvgMs, s.MinMs, s.MaxMs, s.TotalMs)
}

// Timer returns a function that records elapsed time when called.
// Use with defer for automatic timing:
//
//	func myFunc() {
//	    defer metrics.Timer(metrics.SomeMetric)()
//	    // ... function body
//	}
func Timer(m *TimingMetric) func() {
	if !Enabled() || m == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		m.Record(time.Since(start))
	}
}

// Global timing metrics for the refresh pipeline.
var (
	TreeBuild  = newTimingMetric("tree_build")
	FramePaint = newTimingMetric("frame_paint")
	WatchBatch = newTimingMetric("watch_batch")
)

// AllTimingMetrics returns all registered timing metrics.
func AllTimingMetrics() []*TimingMetric {
	return []*TimingMetric{
		TreeBuild,
		FramePaint,
		WatchBatch,
	}
}

// ResetAll resets all timing metrics.
func ResetAll() {
	for _, m := range AllTimingMetrics() {
		m.Reset()
	}
}

// AllTimingStats returns stats for all timing metrics.
func AllTimingStats() []TimingStats {
	metrics := AllTimingMetrics()
	stats := make([]TimingStats, 0, len(metrics))
	for _, m := range metrics {
		if m.Count() > 0 { // Only include metrics with data
			stats = append(stats, m.Stats())
		}
	}
	return stats
}

// Summary renders AllTimingStats one per line, or "" when nothing was
// recorded.
func Summary() string {
	stats := AllTimingStats()
	if len(stats) == 0 {
		return ""
	}
	lines := make([]string, len(stats))
	for i, s := range stats {
		lines[i] = s.String()
	}
	return strings.Join(lines, "\n")
}
