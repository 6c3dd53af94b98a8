package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/moldshop/prodtrack/internal/domain"
	"github.com/moldshop/prodtrack/internal/programstore"
)

// Source is the slice of the program store the monitor reads.
type Source interface {
	List(ctx context.Context, opts programstore.ListOptions) ([]*domain.Program, error)
}

// Monitor watches the queue for stalled work and aggregates machining
// metrics.
type Monitor struct {
	source         Source
	stallThreshold time.Duration

	completions []completion
	notified    map[string]time.Time
	mu          sync.RWMutex
}

type completion struct {
	ProgramID      string
	ElapsedSeconds int64
	Operators      int
	CompletedAt    time.Time
}

// Metrics holds aggregated machining metrics
type Metrics struct {
	TotalCompleted  int
	TotalSeconds    int64
	AvgSeconds      int64
	OperatorSignins int
}

// New creates a monitor. Programs in Em Andamento whose record has not
// been touched for stallThreshold are reported as stalled.
func New(source Source, stallThreshold time.Duration) *Monitor {
	return &Monitor{
		source:         source,
		stallThreshold: stallThreshold,
		notified:       make(map[string]time.Time),
	}
}

// IsStalled returns true if an in-progress program looks abandoned.
func (m *Monitor) IsStalled(p *domain.Program) bool {
	if p.Status != domain.StatusInProgress {
		return false
	}
	if p.UpdatedAt.IsZero() {
		return false
	}
	return time.Since(p.UpdatedAt) > m.stallThreshold
}

// Stalled returns the in-progress programs that look abandoned. Each
// program is reported once per stall; touching the record rearms it.
func (m *Monitor) Stalled(ctx context.Context) ([]*domain.Program, error) {
	programs, err := m.source.List(ctx, programstore.ListOptions{Status: domain.StatusInProgress})
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var stalled []*domain.Program
	for _, p := range programs {
		if !m.IsStalled(p) {
			delete(m.notified, p.ID)
			continue
		}
		if last, ok := m.notified[p.ID]; ok && !p.UpdatedAt.After(last) {
			continue
		}
		m.notified[p.ID] = p.UpdatedAt
		stalled = append(stalled, p)
	}
	return stalled, nil
}

// RecordCompletion records a finished program for the metrics view.
func (m *Monitor) RecordCompletion(programID string, elapsedSeconds int64, operators int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.completions = append(m.completions, completion{
		ProgramID:      programID,
		ElapsedSeconds: elapsedSeconds,
		Operators:      operators,
		CompletedAt:    time.Now(),
	})
}

// GetMetrics returns aggregated metrics
func (m *Monitor) GetMetrics() Metrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var metrics Metrics
	for _, c := range m.completions {
		metrics.TotalCompleted++
		metrics.TotalSeconds += c.ElapsedSeconds
		metrics.OperatorSignins += c.Operators
	}
	if metrics.TotalCompleted > 0 {
		metrics.AvgSeconds = metrics.TotalSeconds / int64(metrics.TotalCompleted)
	}
	return metrics
}
