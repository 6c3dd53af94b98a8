package workflow

import (
	"sync"
	"time"
)

// TrackerState is the lifecycle state of a TimeTracker.
type TrackerState int

const (
	TrackerIdle TrackerState = iota
	TrackerRunning
	TrackerPaused
	TrackerStopped
)

func (s TrackerState) String() string {
	switch s {
	case TrackerRunning:
		return "running"
	case TrackerPaused:
		return "paused"
	case TrackerStopped:
		return "stopped"
	default:
		return "idle"
	}
}

// Interval is one contiguous span of active work. End is nil while the
// interval is open; at most one interval per tracker is open.
type Interval struct {
	Start time.Time
	End   *time.Time
}

// TimeTracker tracks the active work session of a single program.
// Elapsed time counts running intervals only; paused spans are
// excluded. Transition methods invoked from an invalid state are
// no-ops rather than errors.
type TimeTracker struct {
	mu        sync.Mutex
	state     TrackerState
	startedAt *time.Time
	stoppedAt *time.Time
	intervals []Interval
	now       func() time.Time
}

// NewTimeTracker creates an idle tracker.
func NewTimeTracker() *TimeTracker {
	return &TimeTracker{now: time.Now}
}

// SetClock replaces the tracker's time source. Test hook.
func (t *TimeTracker) SetClock(now func() time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.now = now
}

// Start begins a new session. No-op unless the tracker is idle.
func (t *TimeTracker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != TrackerIdle {
		return
	}
	now := t.now()
	t.state = TrackerRunning
	t.startedAt = &now
	t.stoppedAt = nil
	t.intervals = []Interval{{Start: now}}
}

// Pause closes the open interval. No-op unless running.
func (t *TimeTracker) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != TrackerRunning {
		return
	}
	t.closeOpenInterval(t.now())
	t.state = TrackerPaused
}

// Resume opens a new interval. No-op unless paused.
func (t *TimeTracker) Resume() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != TrackerPaused {
		return
	}
	t.intervals = append(t.intervals, Interval{Start: t.now()})
	t.state = TrackerRunning
}

// Stop ends the session, closing any open interval. No-op unless
// running or paused.
func (t *TimeTracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != TrackerRunning && t.state != TrackerPaused {
		return
	}
	now := t.now()
	t.closeOpenInterval(now)
	t.stoppedAt = &now
	t.state = TrackerStopped
}

// Reset discards all intervals and timestamps from any state.
func (t *TimeTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = TrackerIdle
	t.startedAt = nil
	t.stoppedAt = nil
	t.intervals = nil
}

func (t *TimeTracker) closeOpenInterval(at time.Time) {
	if n := len(t.intervals); n > 0 && t.intervals[n-1].End == nil {
		end := at
		t.intervals[n-1].End = &end
	}
}

// State returns the current tracker state.
func (t *TimeTracker) State() TrackerState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// StartedAt returns the session start timestamp, nil while idle.
func (t *TimeTracker) StartedAt() *time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return copyTime(t.startedAt)
}

// StoppedAt returns the session end timestamp, nil until stopped.
func (t *TimeTracker) StoppedAt() *time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return copyTime(t.stoppedAt)
}

// Elapsed returns the accumulated active duration. While running the
// open interval counts up to the current clock; paused spans are never
// included.
func (t *TimeTracker) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	var total time.Duration
	for _, iv := range t.intervals {
		if iv.End != nil {
			total += iv.End.Sub(iv.Start)
		} else {
			total += t.now().Sub(iv.Start)
		}
	}
	return total
}

// Intervals returns a copy of the session's interval log.
func (t *TimeTracker) Intervals() []Interval {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Interval, len(t.intervals))
	copy(out, t.intervals)
	return out
}

func copyTime(ts *time.Time) *time.Time {
	if ts == nil {
		return nil
	}
	c := *ts
	return &c
}
