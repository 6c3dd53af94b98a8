package workflow

import (
	"testing"
	"time"
)

// fakeClock steps through a scripted sequence of instants.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestTracker() (*TimeTracker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)}
	tr := NewTimeTracker()
	tr.SetClock(clock.now)
	return tr, clock
}

func TestTimeTracker_PauseExcludedFromElapsed(t *testing.T) {
	tr, clock := newTestTracker()

	tr.Start()
	clock.advance(10 * time.Second)
	tr.Pause()
	clock.advance(5 * time.Second)
	tr.Resume()
	clock.advance(10 * time.Second)
	tr.Stop()

	if got, want := tr.Elapsed(), 20*time.Second; got != want {
		t.Errorf("Elapsed() = %v, want %v", got, want)
	}
	if tr.State() != TrackerStopped {
		t.Errorf("State() = %v, want stopped", tr.State())
	}
	if tr.StartedAt() == nil || tr.StoppedAt() == nil {
		t.Fatal("StartedAt/StoppedAt should both be set after Stop")
	}
	if got := tr.StoppedAt().Sub(*tr.StartedAt()); got != 25*time.Second {
		t.Errorf("wall-clock span = %v, want 25s", got)
	}
}

func TestTimeTracker_ElapsedWhileRunning(t *testing.T) {
	tr, clock := newTestTracker()

	tr.Start()
	clock.advance(7 * time.Second)

	if got, want := tr.Elapsed(), 7*time.Second; got != want {
		t.Errorf("Elapsed() = %v, want %v", got, want)
	}
}

func TestTimeTracker_InvalidTransitionsAreNoOps(t *testing.T) {
	tr, clock := newTestTracker()

	// Nothing started yet: all of these must be ignored.
	tr.Pause()
	tr.Resume()
	tr.Stop()
	if tr.State() != TrackerIdle {
		t.Errorf("State() = %v, want idle", tr.State())
	}

	tr.Start()
	tr.Resume() // not paused
	if tr.State() != TrackerRunning {
		t.Errorf("State() = %v, want running", tr.State())
	}

	clock.advance(3 * time.Second)
	tr.Stop()
	tr.Pause() // already stopped
	tr.Stop()  // idempotent
	if tr.State() != TrackerStopped {
		t.Errorf("State() = %v, want stopped", tr.State())
	}
	if got, want := tr.Elapsed(), 3*time.Second; got != want {
		t.Errorf("Elapsed() = %v, want %v", got, want)
	}

	// Start from stopped is a no-op too; only Reset returns to idle.
	tr.Start()
	if tr.State() != TrackerStopped {
		t.Errorf("Start after Stop: State() = %v, want stopped", tr.State())
	}
}

func TestTimeTracker_Reset(t *testing.T) {
	tr, clock := newTestTracker()

	tr.Start()
	clock.advance(time.Minute)
	tr.Stop()
	tr.Reset()

	if tr.State() != TrackerIdle {
		t.Errorf("State() = %v, want idle", tr.State())
	}
	if tr.StartedAt() != nil || tr.StoppedAt() != nil {
		t.Error("timestamps should be cleared after Reset")
	}
	if tr.Elapsed() != 0 {
		t.Errorf("Elapsed() = %v, want 0", tr.Elapsed())
	}
	if len(tr.Intervals()) != 0 {
		t.Errorf("Intervals() = %d entries, want 0", len(tr.Intervals()))
	}
}

func TestTimeTracker_IntervalLog(t *testing.T) {
	tr, clock := newTestTracker()

	tr.Start()
	clock.advance(10 * time.Second)
	tr.Pause()
	clock.advance(5 * time.Second)
	tr.Resume()
	clock.advance(2 * time.Second)
	tr.Stop()

	ivs := tr.Intervals()
	if len(ivs) != 2 {
		t.Fatalf("Intervals() = %d entries, want 2", len(ivs))
	}
	for i, iv := range ivs {
		if iv.End == nil {
			t.Errorf("interval %d still open after Stop", i)
		}
	}
	if got := ivs[1].Start.Sub(*ivs[0].End); got != 5*time.Second {
		t.Errorf("gap between intervals = %v, want 5s", got)
	}
}
