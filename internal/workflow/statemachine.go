package workflow

import (
	"context"
	"time"

	"github.com/moldshop/prodtrack/internal/domain"
)

// ProgramStore is the persistence collaborator of the status machine.
// Get and FindNextPending return (nil, nil) when no record matches.
// Save has full-record replace semantics.
type ProgramStore interface {
	Get(ctx context.Context, id string) (*domain.Program, error)
	Save(ctx context.Context, p *domain.Program) error
	FindNextPending(ctx context.Context) (*domain.Program, error)
}

// StatusMachine owns the valid status transitions of a program record
// and their side effects. All mutation of persisted programs goes
// through it.
type StatusMachine struct {
	store  ProgramStore
	events domain.EventPublisher
	now    func() time.Time
}

// NewStatusMachine creates a status machine over the given store.
func NewStatusMachine(store ProgramStore, events domain.EventPublisher) *StatusMachine {
	if events == nil {
		events = domain.NopPublisher{}
	}
	return &StatusMachine{store: store, events: events, now: time.Now}
}

// SetClock replaces the machine's time source. Test hook.
func (m *StatusMachine) SetClock(now func() time.Time) { m.now = now }

func (m *StatusMachine) load(ctx context.Context, id string) (*domain.Program, error) {
	p, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, &PersistenceError{Op: "get", Err: err}
	}
	if p == nil {
		return nil, ErrNotFound
	}
	return p, nil
}

func (m *StatusMachine) save(ctx context.Context, p *domain.Program) error {
	if err := m.store.Save(ctx, p); err != nil {
		return &PersistenceError{Op: "save", Err: err}
	}
	return nil
}

// Complete transitions an Em Andamento program to Concluído, stamping
// the completion payload, and promotes the next pending program (by
// insert order) to Em Andamento.
func (m *StatusMachine) Complete(ctx context.Context, id string, c domain.Completion) (*domain.Program, error) {
	p, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != domain.StatusInProgress {
		return nil, ErrInvalidTransition
	}

	from := p.Status
	now := m.now()
	start := c.ProcessStartTime
	end := c.ProcessEndTime
	p.Status = domain.StatusCompleted
	p.MeasurementNotes = c.MeasurementNotes
	p.ProcessStartTime = &start
	p.ProcessEndTime = &end
	p.ElapsedSeconds = c.ElapsedSeconds
	p.Operators = c.Operators
	p.Signature = c.Signature
	p.CompletedAt = &now

	if err := m.save(ctx, p); err != nil {
		return nil, err
	}
	m.events.Publish(domain.StatusChanged{ProgramID: p.ID, From: from, To: p.Status})

	if err := m.promoteNextPending(ctx); err != nil {
		// The completion itself is committed; promotion failures
		// surface so the caller can retry or alert.
		return p, err
	}
	return p, nil
}

// promoteNextPending moves the first pending program (insert order) to
// Em Andamento. No-op when nothing is pending.
func (m *StatusMachine) promoteNextPending(ctx context.Context) error {
	next, err := m.store.FindNextPending(ctx)
	if err != nil {
		return &PersistenceError{Op: "find next pending", Err: err}
	}
	if next == nil {
		return nil
	}
	from := next.Status
	next.Status = domain.StatusInProgress
	if err := m.save(ctx, next); err != nil {
		return err
	}
	m.events.Publish(domain.StatusChanged{ProgramID: next.ID, From: from, To: next.Status})
	return nil
}

// Redo marks an Em Andamento or Concluído program for rework, clearing
// every completion artifact.
func (m *StatusMachine) Redo(ctx context.Context, id string) (*domain.Program, error) {
	p, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != domain.StatusInProgress && p.Status != domain.StatusCompleted {
		return nil, ErrInvalidTransition
	}

	from := p.Status
	p.ClearCompletion()
	p.Status = domain.StatusRedo

	if err := m.save(ctx, p); err != nil {
		return nil, err
	}
	m.events.Publish(domain.StatusChanged{ProgramID: p.ID, From: from, To: p.Status})
	return p, nil
}

// ReturnToProgress moves a Refazer program back to Em Andamento. The
// cleared completion fields are not restored.
func (m *StatusMachine) ReturnToProgress(ctx context.Context, id string) (*domain.Program, error) {
	p, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != domain.StatusRedo {
		return nil, ErrInvalidTransition
	}

	from := p.Status
	p.Status = domain.StatusInProgress

	if err := m.save(ctx, p); err != nil {
		return nil, err
	}
	m.events.Publish(domain.StatusChanged{ProgramID: p.ID, From: from, To: p.Status})
	return p, nil
}
