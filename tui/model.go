package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/moldshop/prodtrack/internal/domain"
	"github.com/moldshop/prodtrack/internal/programstore"
)

// Source is where the board reads its data from.
type Source interface {
	List(ctx context.Context, opts programstore.ListOptions) ([]*domain.Program, error)
	Counts(ctx context.Context) (programstore.Stats, error)
}

// Tab indices
const (
	tabBoard = iota
	tabCompleted
	tabCount
)

// Model is the TUI application model
type Model struct {
	source Source

	// Data
	programs []*domain.Program
	stats    programstore.Stats
	loadErr  error

	// UI state
	width       int
	height      int
	activeTab   int
	selectedRow int
	scroll      int

	lastRefresh time.Time
}

// NewModel creates a new TUI model
func NewModel(source Source) Model {
	return Model{source: source}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		refreshCmd(m.source),
		tickCmd(),
	)
}

// TickMsg triggers a refresh
type TickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(2*time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// RefreshMsg carries freshly loaded board data
type RefreshMsg struct {
	Programs []*domain.Program
	Stats    programstore.Stats
	Err      error
}

func refreshCmd(source Source) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		programs, err := source.List(ctx, programstore.ListOptions{})
		if err != nil {
			return RefreshMsg{Err: err}
		}
		stats, err := source.Counts(ctx)
		if err != nil {
			return RefreshMsg{Err: err}
		}
		return RefreshMsg{Programs: programs, Stats: stats}
	}
}

// byStatus returns the loaded programs carrying the given status, in
// queue order.
func (m Model) byStatus(status domain.Status) []*domain.Program {
	var out []*domain.Program
	for _, p := range m.programs {
		if p.Status == status {
			out = append(out, p)
		}
	}
	return out
}
