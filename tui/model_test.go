package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/moldshop/prodtrack/internal/domain"
	"github.com/moldshop/prodtrack/internal/programstore"
)

type fakeSource struct {
	programs []*domain.Program
	stats    programstore.Stats
}

func (f *fakeSource) List(ctx context.Context, opts programstore.ListOptions) ([]*domain.Program, error) {
	return f.programs, nil
}

func (f *fakeSource) Counts(ctx context.Context) (programstore.Stats, error) {
	return f.stats, nil
}

func boardSource() *fakeSource {
	done := time.Now().Add(-time.Hour)
	return &fakeSource{
		programs: []*domain.Program{
			{ID: "p1", ProgramID: "1500", Machine: "F2000", Status: domain.StatusInProgress},
			{ID: "p2", ProgramID: "1501", Machine: "F2000", Status: domain.StatusPending},
			{ID: "p3", ProgramID: "1499", Machine: "F3000", Status: domain.StatusCompleted,
				CompletedAt: &done, ElapsedSeconds: 3725,
				Operators: []domain.Operator{{Matricula: "12345", Nome: "João Silva"}}},
		},
		stats: programstore.Stats{Total: 3, Pending: 1, InProgress: 1, Completed: 1},
	}
}

func loadedModel() Model {
	src := boardSource()
	m := NewModel(src)
	msg := refreshCmd(src)()
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestModel_Refresh(t *testing.T) {
	m := loadedModel()

	if len(m.programs) != 3 {
		t.Errorf("programs = %d, want 3", len(m.programs))
	}
	if m.stats.Pending != 1 {
		t.Errorf("stats.Pending = %d, want 1", m.stats.Pending)
	}
	if m.lastRefresh.IsZero() {
		t.Error("lastRefresh should be set after a refresh")
	}
}

func TestModel_RefreshError(t *testing.T) {
	m := NewModel(boardSource())
	next, _ := m.Update(RefreshMsg{Err: context.DeadlineExceeded})
	m = next.(Model)

	if m.loadErr == nil {
		t.Error("loadErr should carry the refresh failure")
	}

	view := m.View()
	if !strings.Contains(view, "erro") {
		t.Error("view should surface the load error")
	}
}

func TestModel_TabSwitching(t *testing.T) {
	m := loadedModel()

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(Model)
	if m.activeTab != tabCompleted {
		t.Errorf("activeTab = %d, want %d", m.activeTab, tabCompleted)
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(Model)
	if m.activeTab != tabBoard {
		t.Errorf("activeTab = %d, want %d (wraps around)", m.activeTab, tabBoard)
	}
}

func TestModel_Navigation(t *testing.T) {
	m := loadedModel()

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	m = next.(Model)
	if m.selectedRow != 1 {
		t.Errorf("selectedRow = %d, want 1", m.selectedRow)
	}

	// Board has two rows (completed programs are not shown); cursor
	// stays at the last one.
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	m = next.(Model)
	if m.selectedRow != 1 {
		t.Errorf("selectedRow = %d, want 1 (clamped)", m.selectedRow)
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}})
	m = next.(Model)
	if m.selectedRow != 0 {
		t.Errorf("selectedRow = %d, want 0", m.selectedRow)
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}})
	m = next.(Model)
	if m.selectedRow != 0 {
		t.Errorf("selectedRow = %d, want 0 (clamped)", m.selectedRow)
	}
}

func TestModel_QuitCommands(t *testing.T) {
	m := loadedModel()

	for _, key := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune{'q'}},
		{Type: tea.KeyCtrlC},
	} {
		_, cmd := m.Update(key)
		if cmd == nil {
			t.Errorf("key %s should quit", key.String())
		}
	}
}

func TestModel_TickSchedulesRefresh(t *testing.T) {
	m := loadedModel()

	_, cmd := m.Update(TickMsg(time.Now()))
	if cmd == nil {
		t.Error("tick should schedule a refresh")
	}
}

func TestModel_WindowResize(t *testing.T) {
	m := loadedModel()

	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = next.(Model)

	if m.width != 120 || m.height != 40 {
		t.Errorf("size = %dx%d, want 120x40", m.width, m.height)
	}
}

func TestView_BoardGroups(t *testing.T) {
	m := loadedModel()
	view := m.View()

	if !strings.Contains(view, "EM ANDAMENTO") {
		t.Error("board should show the in-progress group")
	}
	if !strings.Contains(view, "PENDENTE") {
		t.Error("board should show the pending group")
	}
	if !strings.Contains(view, "1500") {
		t.Error("board should list the in-progress program")
	}
	if strings.Contains(view, "1499") {
		t.Error("completed programs stay off the board tab")
	}
}

func TestView_CompletedTab(t *testing.T) {
	m := loadedModel()
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(Model)

	view := m.View()
	if !strings.Contains(view, "1499") {
		t.Error("completed tab should list the completed program")
	}
	if !strings.Contains(view, "1:02:05") {
		t.Error("completed tab should show the machining time")
	}
	if !strings.Contains(view, "João Silva") {
		t.Error("completed tab should show the operators")
	}
}

func TestView_StatusBar(t *testing.T) {
	m := loadedModel()
	view := m.View()

	if !strings.Contains(view, "1 pendentes") {
		t.Errorf("status bar missing counts: %s", view)
	}
}
