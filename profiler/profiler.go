// Package profiler - timing and metric tracking for enhancement stages.
package profiler

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sort"
	"sync"
	"time"
)

// Tracker records per-operation durations and custom metric samples. It is
// safe for concurrent use; BatchRun shares one Tracker across workers.
type Tracker struct {
	mu         sync.RWMutex
	startTime  time.Time
	maxSamples int

	metrics    map[string]*MetricTracker
	operations map[string]*TimeTracker
}

// MetricTracker tracks statistics for a custom metric.
type MetricTracker struct {
	values []float64
	sum    float64
	min    float64
	max    float64
	count  int64
}

// TimeTracker tracks operation timing statistics.
type TimeTracker struct {
	durations []time.Duration
	totalTime time.Duration
	minTime   time.Duration
	maxTime   time.Duration
	count     int64
}

// OperationStats is a snapshot of one operation's timings.
type OperationStats struct {
	Name  string        `json:"name"`
	Count int64         `json:"count"`
	Avg   time.Duration `json:"avg"`
	Min   time.Duration `json:"min"`
	Max   time.Duration `json:"max"`
	Total time.Duration `json:"total"`
}

// MetricStats is a snapshot of one metric.
type MetricStats struct {
	Name  string  `json:"name"`
	Count int64   `json:"count"`
	Avg   float64 `json:"avg"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// Options configures a Tracker.
type Options struct {
	// MaxSamples caps the retained samples per series (default: 600).
	MaxSamples int
}

// New creates a Tracker.
//
// Arguments:
// - opts: Configuration options for the tracker.
//
// Returns:
// - A ready Tracker.
func New(opts Options) *Tracker {
	if opts.MaxSamples <= 0 {
		opts.MaxSamples = 600
	}
	return &Tracker{
		startTime:  time.Now(),
		maxSamples: opts.MaxSamples,
		metrics:    make(map[string]*MetricTracker),
		operations: make(map[string]*TimeTracker),
	}
}

// StartOperation begins timing an operation.
//
// Arguments:
// - name: The name of the operation to track.
//
// Returns:
// - A function to call when the operation completes; it returns the elapsed time.
//
// @example
// done := tracker.StartOperation("resample")
// ...
// elapsed := done()
func (t *Tracker) StartOperation(name string) func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		duration := time.Since(start)
		t.RecordDuration(name, duration)
		return duration
	}
}

// RecordDuration records a completed operation.
func (t *Tracker) RecordDuration(name string, duration time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	tracker, exists := t.operations[name]
	if !exists {
		tracker = &TimeTracker{minTime: duration, maxTime: duration}
		t.operations[name] = tracker
	}

	tracker.durations = append(tracker.durations, duration)
	if len(tracker.durations) > t.maxSamples {
		// Remove oldest sample
		tracker.totalTime -= tracker.durations[0]
		tracker.durations = tracker.durations[1:]
	}

	tracker.totalTime += duration
	tracker.count++
	tracker.minTime = min(tracker.minTime, duration)
	tracker.maxTime = max(tracker.maxTime, duration)
}

// RecordMetric records a custom metric value (e.g. megapixels per second).
func (t *Tracker) RecordMetric(name string, value float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	tracker, exists := t.metrics[name]
	if !exists {
		tracker = &MetricTracker{min: value, max: value}
		t.metrics[name] = tracker
	}

	tracker.values = append(tracker.values, value)
	if len(tracker.values) > t.maxSamples {
		tracker.sum -= tracker.values[0]
		tracker.values = tracker.values[1:]
	}

	tracker.sum += value
	tracker.count++
	tracker.min = min(tracker.min, value)
	tracker.max = max(tracker.max, value)
}

// Operations returns a snapshot of every operation, sorted by name.
func (t *Tracker) Operations() []OperationStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]OperationStats, 0, len(t.operations))
	for name, tr := range t.operations {
		if len(tr.durations) == 0 {
			continue
		}
		out = append(out, OperationStats{
			Name:  name,
			Count: tr.count,
			Avg:   tr.totalTime / time.Duration(len(tr.durations)),
			Min:   tr.minTime,
			Max:   tr.maxTime,
			Total: tr.totalTime,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Metrics returns a snapshot of every metric, sorted by name.
func (t *Tracker) Metrics() []MetricStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]MetricStats, 0, len(t.metrics))
	for name, tr := range t.metrics {
		if len(tr.values) == 0 {
			continue
		}
		out = append(out, MetricStats{
			Name:  name,
			Count: tr.count,
			Avg:   tr.sum / float64(len(tr.values)),
			Min:   tr.min,
			Max:   tr.max,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// WriteReport writes a human-readable status report.
func (t *Tracker) WriteReport(w io.Writer) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	t.mu.RLock()
	uptime := time.Since(t.startTime)
	t.mu.RUnlock()

	fmt.Fprintf(w, "PROFILER STATUS REPORT - %s\n", time.Now().Format("15:04:05.000"))
	fmt.Fprintf(w, "Uptime: %v\n", uptime.Truncate(time.Millisecond))

	fmt.Fprintf(w, "\nMEMORY USAGE:\n")
	fmt.Fprintf(w, "  Heap Alloc: %s\n", FormatBytes(mem.HeapAlloc))
	fmt.Fprintf(w, "  Total Alloc: %s\n", FormatBytes(mem.TotalAlloc))
	fmt.Fprintf(w, "  GC Cycles: %d\n", mem.NumGC)

	if ops := t.Operations(); len(ops) > 0 {
		fmt.Fprintf(w, "\nOPERATION TIMINGS:\n")
		for _, op := range ops {
			fmt.Fprintf(w, "  %s: avg=%v, min=%v, max=%v, count=%d\n",
				op.Name, op.Avg.Truncate(time.Microsecond),
				op.Min.Truncate(time.Microsecond),
				op.Max.Truncate(time.Microsecond),
				op.Count)
		}
	}

	if metrics := t.Metrics(); len(metrics) > 0 {
		fmt.Fprintf(w, "\nCUSTOM METRICS:\n")
		for _, m := range metrics {
			fmt.Fprintf(w, "  %s: avg=%.2f, min=%.2f, max=%.2f, samples=%d\n",
				m.Name, m.Avg, m.Min, m.Max, m.Count)
		}
	}
}

// Run writes a report to w every interval until ctx is cancelled.
func (t *Tracker) Run(ctx context.Context, interval time.Duration, w io.Writer) {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.WriteReport(w)
		}
	}
}

// FormatBytes formats byte counts in human-readable format.
func FormatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
