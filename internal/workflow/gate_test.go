package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/moldshop/prodtrack/internal/domain"
)

// readySession builds a session with every completion requirement met.
func readySession(t *testing.T) (*Session, *captureBus) {
	t.Helper()
	dir := &fakeDirectory{employees: map[string]string{"12345": "João Silva"}}
	auth := &fakeAuthenticator{credentials: map[string]string{"12345": "secret"}}
	bus := &captureBus{}
	s := NewSession("a", dir, auth, bus)

	clock := &fakeClock{t: time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)}
	s.Tracker.SetClock(clock.now)
	s.Tracker.Start()
	clock.advance(20 * time.Second)
	s.Tracker.Stop()

	s.Measurement.UpdateNotes("within tolerance")
	if err := s.Measurement.Confirm(); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	if err := s.Roster.SetMatricula(ctx, 0, "12345"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Roster.Authenticate(ctx, 0, "secret"); err != nil {
		t.Fatal(err)
	}

	s.Signature.Set([]byte{0x89, 0x50})
	return s, bus
}

func testGate(store ProgramStore, bus *captureBus) *CompletionGate {
	return NewCompletionGate(NewStatusMachine(store, bus), bus)
}

func TestGate_AttemptSuccess(t *testing.T) {
	s, bus := readySession(t)
	store := newMemStore(
		&domain.Program{ID: "a", Seq: 1, Status: domain.StatusInProgress},
		&domain.Program{ID: "b", Seq: 2, Status: domain.StatusPending},
	)
	gate := testGate(store, bus)

	p, failures, err := gate.Attempt(context.Background(), s)
	if err != nil {
		t.Fatal(err)
	}
	if len(failures) != 0 {
		t.Fatalf("failures = %v, want none", failures)
	}

	if !p.Completed() {
		t.Error("completed program is missing completion artifacts")
	}
	if p.ElapsedSeconds != 20 {
		t.Errorf("ElapsedSeconds = %d, want 20", p.ElapsedSeconds)
	}
	if len(p.Operators) != 1 || p.Operators[0].Nome != "João Silva" {
		t.Errorf("Operators = %+v", p.Operators)
	}
	if p.MeasurementNotes != "within tolerance" {
		t.Errorf("MeasurementNotes = %q", p.MeasurementNotes)
	}

	// Completion event carries the program and the redirect contract.
	completed := bus.byType("program_completed")
	if len(completed) != 1 {
		t.Fatalf("program_completed events = %d, want 1", len(completed))
	}
	ev := completed[0].(domain.ProgramCompleted)
	if ev.RedirectAfter != RedirectDelay {
		t.Errorf("RedirectAfter = %v, want %v", ev.RedirectAfter, RedirectDelay)
	}

	// Next pending program was promoted.
	b, _ := store.Get(context.Background(), "b")
	if b.Status != domain.StatusInProgress {
		t.Errorf("b.Status = %q, want Em Andamento", b.Status)
	}
}

func TestGate_MissingSingleRequirement(t *testing.T) {
	tests := []struct {
		name  string
		mutate func(*Session)
		want  string
	}{
		{"measurement unconfirmed", func(s *Session) {
			s.Measurement.Reset()
			s.Measurement.UpdateNotes("noted but never confirmed")
		}, failMeasurement},
		{"no signature", func(s *Session) { s.Signature.Clear() }, failSignature},
		{"tracker never started", func(s *Session) { s.Tracker.Reset() }, failStartTime},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, bus := readySession(t)
			tt.mutate(s)
			store := newMemStore(&domain.Program{ID: "a", Status: domain.StatusInProgress})
			gate := testGate(store, bus)

			_, failures, err := gate.Attempt(context.Background(), s)
			if err != nil {
				t.Fatal(err)
			}
			if tt.name == "tracker never started" {
				// Resetting the tracker loses both bounds.
				if len(failures) != 2 {
					t.Fatalf("failures = %v, want 2", failures)
				}
			} else if len(failures) != 1 {
				t.Fatalf("failures = %v, want exactly 1", failures)
			}
			if failures[0] != tt.want {
				t.Errorf("failures[0] = %q, want %q", failures[0], tt.want)
			}

			// No mutation: the program stays in progress.
			p, _ := store.Get(context.Background(), "a")
			if p.Status != domain.StatusInProgress {
				t.Errorf("Status = %q, want Em Andamento", p.Status)
			}
		})
	}
}

func TestGate_RunningTrackerFailsEndTimeOnly(t *testing.T) {
	s, bus := readySession(t)
	// Re-run the tracker and leave it running: start is set, end is not.
	s.Tracker.Reset()
	s.Tracker.Start()

	gate := testGate(newMemStore(&domain.Program{ID: "a", Status: domain.StatusInProgress}), bus)
	_, failures, err := gate.Attempt(context.Background(), s)
	if err != nil {
		t.Fatal(err)
	}
	if len(failures) != 1 || failures[0] != failEndTime {
		t.Errorf("failures = %v, want only %q", failures, failEndTime)
	}
}

func TestGate_AllRequirementsMissing(t *testing.T) {
	dir := &fakeDirectory{employees: map[string]string{}}
	auth := &fakeAuthenticator{credentials: map[string]string{}}
	s := NewSession("a", dir, auth, nil)

	gate := testGate(newMemStore(&domain.Program{ID: "a", Status: domain.StatusInProgress}), &captureBus{})
	_, failures, err := gate.Attempt(context.Background(), s)
	if err != nil {
		t.Fatal(err)
	}
	if len(failures) != 5 {
		t.Errorf("failures = %d, want 5: %v", len(failures), failures)
	}
}

func TestGate_UnauthenticatedOperatorBlocksCompletion(t *testing.T) {
	s, bus := readySession(t)
	// Add a second operator that never authenticates.
	s.Roster.AddEntry()
	if err := s.Roster.SetMatricula(context.Background(), 1, "12345"); err != nil {
		t.Fatal(err)
	}

	gate := testGate(newMemStore(&domain.Program{ID: "a", Status: domain.StatusInProgress}), bus)
	_, failures, err := gate.Attempt(context.Background(), s)
	if err != nil {
		t.Fatal(err)
	}
	if len(failures) != 1 || failures[0] != failOperators {
		t.Errorf("failures = %v, want only %q", failures, failOperators)
	}
}

func TestGate_SecondAttemptWhileInFlight(t *testing.T) {
	s, bus := readySession(t)

	store := newMemStore(&domain.Program{ID: "a", Status: domain.StatusInProgress})
	gate := testGate(store, bus)

	// Simulate an in-flight attempt holding the guard.
	gate.mu.Lock()
	gate.inFlight["a"] = true
	gate.mu.Unlock()

	if _, _, err := gate.Attempt(context.Background(), s); !errors.Is(err, ErrCompletionInFlight) {
		t.Errorf("error = %v, want ErrCompletionInFlight", err)
	}
}
