package workflow

import (
	"context"
	"sync"
	"time"

	"github.com/moldshop/prodtrack/internal/domain"
)

// RedirectDelay is how long the UI shows the completion banner before
// redirecting back to the board. Part of the observable contract of
// the ProgramCompleted event.
const RedirectDelay = 5 * time.Second

// Completion requirement messages, aggregated so the operator sees
// every missing item at once.
const (
	failMeasurement = "confirm the measurement verification before completing"
	failStartTime   = "start the time tracking"
	failEndTime     = "stop the time tracking before completing"
	failOperators   = "at least one authenticated operator is required"
	failSignature   = "the digital signature is required"
)

// CompletionGate decides whether a completion attempt is admissible
// and, when it is, drives the Em Andamento → Concluído transition.
type CompletionGate struct {
	machine *StatusMachine
	events  domain.EventPublisher

	mu       sync.Mutex
	inFlight map[string]bool
}

// NewCompletionGate creates a gate over the given status machine.
func NewCompletionGate(machine *StatusMachine, events domain.EventPublisher) *CompletionGate {
	if events == nil {
		events = domain.NopPublisher{}
	}
	return &CompletionGate{
		machine:  machine,
		events:   events,
		inFlight: make(map[string]bool),
	}
}

// Check evaluates every completion requirement against the session and
// returns the full list of unmet ones. An empty list means the attempt
// is admissible. No state is mutated.
func (g *CompletionGate) Check(s *Session) []string {
	var failures []string
	if !s.Measurement.Confirmed() {
		failures = append(failures, failMeasurement)
	}
	if s.Tracker.StartedAt() == nil {
		failures = append(failures, failStartTime)
	}
	if s.Tracker.StoppedAt() == nil {
		failures = append(failures, failEndTime)
	}
	if !s.Roster.Satisfied() {
		failures = append(failures, failOperators)
	}
	if s.Signature.Empty() {
		failures = append(failures, failSignature)
	}
	return failures
}

// Attempt runs the completion gate for the session's program. On
// validation failure it returns the aggregated failure list and leaves
// all state untouched. On success it persists the completion through
// the status machine and publishes ProgramCompleted. A second attempt
// for the same program while one is in flight fails with
// ErrCompletionInFlight.
func (g *CompletionGate) Attempt(ctx context.Context, s *Session) (*domain.Program, []string, error) {
	g.mu.Lock()
	if g.inFlight[s.ProgramID] {
		g.mu.Unlock()
		return nil, nil, ErrCompletionInFlight
	}
	g.inFlight[s.ProgramID] = true
	g.mu.Unlock()
	defer func() {
		g.mu.Lock()
		delete(g.inFlight, s.ProgramID)
		g.mu.Unlock()
	}()

	if failures := g.Check(s); len(failures) > 0 {
		return nil, failures, nil
	}

	start := s.Tracker.StartedAt()
	end := s.Tracker.StoppedAt()
	completion := domain.Completion{
		MeasurementNotes: s.Measurement.Notes(),
		ProcessStartTime: *start,
		ProcessEndTime:   *end,
		ElapsedSeconds:   int64(s.Tracker.Elapsed() / time.Second),
		Operators:        s.Roster.ValidOperators(),
		Signature:        s.Signature.Data(),
	}

	p, err := g.machine.Complete(ctx, s.ProgramID, completion)
	if err != nil {
		return nil, nil, err
	}

	g.events.Publish(domain.ProgramCompleted{Program: p, RedirectAfter: RedirectDelay})
	return p, nil, nil
}
