package stats

import (
	"errors"
	"fmt"
	"io"
	"time"
)

// ErrNeverExecuted is returned by Report when no operation was ever recorded.
var ErrNeverExecuted = errors.New("workload never executed")

// OpResult is the outcome of one completed benchmark operation.
// Both fields must be non-negative; WorkerStats sums them without validating.
type OpResult struct {
	Bytes   int64
	Elapsed time.Duration
}

// Summary holds the derived metrics for one reported workload.
type Summary struct {
	BytesPerSecond float64 `yaml:"bytes_per_second"`
	MicrosPerOp    float64 `yaml:"microseconds_per_operation"`
}

// reportThresholds drives the progress-print cadence: a line is printed
// roughly every tier/10 completed ops, with the cadence coarsening as the
// run passes each tier. The final tier repeats for arbitrarily long runs.
var reportThresholds = [...]int64{1000, 5000, 10000, 50000, 100000, 500000, 1000000}

// WorkerStats accumulates operation outcomes for a single worker.
//
// Each instance is owned by exactly one worker goroutine: Start, Update and
// Stop need no locking. Merge and Report must only run after every worker
// has stopped, from a single goroutine.
type WorkerStats struct {
	start      time.Time
	finish     time.Time
	elapsed    time.Duration
	done       int64
	bytes      int64
	nextReport int64
	tier       int

	now      func() time.Time
	progress io.Writer
}

// New returns worker stats that print progress to w.
func New(w io.Writer) *WorkerStats {
	return NewWithNow(w, time.Now)
}

// NewWithNow returns worker stats with a custom time source (for tests).
func NewWithNow(w io.Writer, now func() time.Time) *WorkerStats {
	if now == nil {
		now = time.Now
	}
	if w == nil {
		w = io.Discard
	}
	return &WorkerStats{
		nextReport: 100,
		now:        now,
		progress:   w,
	}
}

// Start records the moment this worker began. Call exactly once, before
// the first Update.
func (s *WorkerStats) Start() { s.start = s.now() }

// Stop records the moment this worker finished. Call exactly once, after
// the last Update.
func (s *WorkerStats) Stop() { s.finish = s.now() }

// Update folds one completed operation into the running totals.
//
// approxTotalDone is the caller-maintained completed-op count across all
// workers. When it crosses the current watermark a progress line is printed
// and the watermark advances on an escalating schedule. The print is best
// effort: write errors never fail the run.
func (s *WorkerStats) Update(res OpResult, approxTotalDone int64) {
	s.bytes += res.Bytes
	s.elapsed += res.Elapsed
	s.done++

	if approxTotalDone < s.nextReport {
		return
	}
	s.nextReport += reportThresholds[s.tier] / 10
	if s.nextReport > reportThresholds[s.tier] && s.tier < len(reportThresholds)-1 {
		s.tier++
	}
	// Carriage return keeps the line in place; the trailing pad clears
	// whatever a longer previous line left behind.
	fmt.Fprintf(s.progress, "... finished %d ops%30s\r", approxTotalDone, "")
}

// Merge folds other's totals into s. The combined span runs from the
// earliest start to the latest finish, so throughput derived from it
// reflects real wall-clock duration rather than summed per-worker time.
//
// Merge is associative and commutative. Every merged accumulator must have
// completed its Start/Stop lifecycle.
func (s *WorkerStats) Merge(other *WorkerStats) {
	s.done += other.done
	s.bytes += other.bytes
	s.elapsed += other.elapsed
	if other.start.Before(s.start) {
		s.start = other.start
	}
	if other.finish.After(s.finish) {
		s.finish = other.finish
	}
}

// Done returns the number of recorded operations.
func (s *WorkerStats) Done() int64 { return s.done }

// Bytes returns the total bytes transferred by recorded operations.
func (s *WorkerStats) Bytes() int64 { return s.bytes }

// Report computes the derived metrics for the (usually merged) stats and
// writes one human-readable result line to w. It returns ErrNeverExecuted
// when no operation was recorded; the caller decides whether that is fatal.
func (s *WorkerStats) Report(label string, w io.Writer) (Summary, error) {
	if s.done == 0 {
		return Summary{}, ErrNeverExecuted
	}

	var sum Summary
	sum.MicrosPerOp = float64(s.elapsed.Microseconds()) / float64(s.done)

	var rate string
	// Workloads that move no bytes report latency only. A zero wall span
	// also leaves the rate at zero rather than dividing by it.
	if s.bytes > 0 {
		wallSeconds := float64(s.finish.Sub(s.start).Microseconds()) * 1e-6
		if wallSeconds > 0 {
			sum.BytesPerSecond = float64(s.bytes) / wallSeconds
		}
		rate = fmt.Sprintf(" %6.1f KB/s", sum.BytesPerSecond/1024)
	}

	fmt.Fprintf(w, "%-12s : %11.3f micros/op;%s\n", label, sum.MicrosPerOp, rate)
	return sum, nil
}
