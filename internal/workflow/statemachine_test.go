package workflow

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/moldshop/prodtrack/internal/domain"
)

// memStore is an in-memory ProgramStore for machine and gate tests.
type memStore struct {
	mu       sync.Mutex
	programs map[string]*domain.Program
	saveErr  error
}

func newMemStore(programs ...*domain.Program) *memStore {
	s := &memStore{programs: make(map[string]*domain.Program)}
	for _, p := range programs {
		cp := *p
		s.programs[p.ID] = &cp
	}
	return s
}

func (s *memStore) Get(ctx context.Context, id string) (*domain.Program, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.programs[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *memStore) Save(ctx context.Context, p *domain.Program) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	cp := *p
	s.programs[p.ID] = &cp
	return nil
}

func (s *memStore) FindNextPending(ctx context.Context) (*domain.Program, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var pending []*domain.Program
	for _, p := range s.programs {
		if p.Status == domain.StatusPending {
			pending = append(pending, p)
		}
	}
	if len(pending) == 0 {
		return nil, nil
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].Seq < pending[j].Seq })
	cp := *pending[0]
	return &cp, nil
}

func testCompletion() domain.Completion {
	start := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	return domain.Completion{
		MeasurementNotes: "within tolerance",
		ProcessStartTime: start,
		ProcessEndTime:   start.Add(20 * time.Second),
		ElapsedSeconds:   20,
		Operators:        []domain.Operator{{Matricula: "12345", Nome: "João Silva"}},
		Signature:        []byte{1, 2, 3},
	}
}

func TestStatusMachine_CompletePromotesNextPending(t *testing.T) {
	store := newMemStore(
		&domain.Program{ID: "a", Seq: 1, ProgramID: "PRG001", Status: domain.StatusInProgress},
		&domain.Program{ID: "b", Seq: 2, ProgramID: "PRG002", Status: domain.StatusPending},
		&domain.Program{ID: "c", Seq: 3, ProgramID: "PRG003", Status: domain.StatusPending},
	)
	bus := &captureBus{}
	m := NewStatusMachine(store, bus)

	p, err := m.Complete(context.Background(), "a", testCompletion())
	if err != nil {
		t.Fatal(err)
	}

	if p.Status != domain.StatusCompleted {
		t.Errorf("Status = %q, want Concluído", p.Status)
	}
	if !p.Completed() {
		t.Error("completed program is missing completion artifacts")
	}

	// Lowest-seq pending program was promoted, the other left alone.
	b, _ := store.Get(context.Background(), "b")
	if b.Status != domain.StatusInProgress {
		t.Errorf("b.Status = %q, want Em Andamento", b.Status)
	}
	c, _ := store.Get(context.Background(), "c")
	if c.Status != domain.StatusPending {
		t.Errorf("c.Status = %q, want Pendente", c.Status)
	}

	changes := bus.byType("status_changed")
	if len(changes) != 2 {
		t.Fatalf("status_changed events = %d, want 2", len(changes))
	}
}

func TestStatusMachine_CompleteRequiresInProgress(t *testing.T) {
	store := newMemStore(&domain.Program{ID: "a", Status: domain.StatusPending})
	m := NewStatusMachine(store, nil)

	if _, err := m.Complete(context.Background(), "a", testCompletion()); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Complete on Pendente: error = %v, want ErrInvalidTransition", err)
	}
}

func TestStatusMachine_NotFound(t *testing.T) {
	m := NewStatusMachine(newMemStore(), nil)
	ctx := context.Background()

	if _, err := m.Complete(ctx, "missing", testCompletion()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Complete: error = %v, want ErrNotFound", err)
	}
	if _, err := m.Redo(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Redo: error = %v, want ErrNotFound", err)
	}
	if _, err := m.ReturnToProgress(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ReturnToProgress: error = %v, want ErrNotFound", err)
	}
}

func TestStatusMachine_SaveFailureSurfacesPersistenceError(t *testing.T) {
	store := newMemStore(&domain.Program{ID: "a", Status: domain.StatusInProgress})
	store.saveErr = errors.New("disk full")
	m := NewStatusMachine(store, nil)

	_, err := m.Complete(context.Background(), "a", testCompletion())
	var perr *PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want *PersistenceError", err)
	}

	// Nothing was committed.
	p, _ := store.Get(context.Background(), "a")
	if p.Status != domain.StatusInProgress {
		t.Errorf("Status after failed save = %q, want Em Andamento", p.Status)
	}
}

func TestStatusMachine_RedoClearsCompletionFields(t *testing.T) {
	now := time.Now()
	store := newMemStore(&domain.Program{
		ID:               "a",
		Status:           domain.StatusCompleted,
		MeasurementNotes: "within tolerance",
		ProcessStartTime: &now,
		ProcessEndTime:   &now,
		Operators:        []domain.Operator{{Matricula: "12345", Nome: "João Silva"}},
		Signature:        []byte{1},
		CompletedAt:      &now,
	})
	m := NewStatusMachine(store, nil)

	p, err := m.Redo(context.Background(), "a")
	if err != nil {
		t.Fatal(err)
	}

	if p.Status != domain.StatusRedo {
		t.Errorf("Status = %q, want Refazer", p.Status)
	}
	if p.MeasurementNotes != "" || p.ProcessStartTime != nil || p.ProcessEndTime != nil ||
		p.Signature != nil || p.CompletedAt != nil || p.Operators != nil {
		t.Errorf("completion fields not cleared: %+v", p)
	}
}

func TestStatusMachine_RedoFromPendingRejected(t *testing.T) {
	store := newMemStore(&domain.Program{ID: "a", Status: domain.StatusPending})
	m := NewStatusMachine(store, nil)

	if _, err := m.Redo(context.Background(), "a"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("error = %v, want ErrInvalidTransition", err)
	}
}

func TestStatusMachine_ReturnToProgress(t *testing.T) {
	store := newMemStore(&domain.Program{ID: "a", Status: domain.StatusRedo})
	m := NewStatusMachine(store, nil)

	p, err := m.ReturnToProgress(context.Background(), "a")
	if err != nil {
		t.Fatal(err)
	}
	if p.Status != domain.StatusInProgress {
		t.Errorf("Status = %q, want Em Andamento", p.Status)
	}
	// The cleared fields stay cleared.
	if p.Signature != nil || p.ProcessEndTime != nil {
		t.Error("ReturnToProgress must not restore completion fields")
	}
}
