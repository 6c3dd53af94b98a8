package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/moldshop/prodtrack/internal/domain"
)

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			return m, refreshCmd(m.source)
		case "tab":
			m.activeTab = (m.activeTab + 1) % tabCount
			m.selectedRow = 0
			m.scroll = 0
		case "j", "down":
			if m.selectedRow < m.rowCount()-1 {
				m.selectedRow++
			}
			if m.selectedRow >= m.scroll+visibleRows {
				m.scroll = m.selectedRow - visibleRows + 1
			}
		case "k", "up":
			if m.selectedRow > 0 {
				m.selectedRow--
			}
			if m.selectedRow < m.scroll {
				m.scroll = m.selectedRow
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case TickMsg:
		return m, tea.Batch(refreshCmd(m.source), tickCmd())

	case RefreshMsg:
		if msg.Err != nil {
			m.loadErr = msg.Err
			return m, nil
		}
		m.loadErr = nil
		m.programs = msg.Programs
		m.stats = msg.Stats
		m.lastRefresh = time.Now()
		if m.selectedRow >= m.rowCount() && m.rowCount() > 0 {
			m.selectedRow = m.rowCount() - 1
		}
		return m, nil
	}

	return m, nil
}

const visibleRows = 14

// rowCount is how many selectable rows the active tab shows.
func (m Model) rowCount() int {
	if m.activeTab == tabCompleted {
		return len(m.byStatus(domain.StatusCompleted))
	}
	// The board shows everything except completed programs.
	return len(m.programs) - len(m.byStatus(domain.StatusCompleted))
}
