package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/moldshop/prodtrack/internal/domain"
	"github.com/moldshop/prodtrack/internal/report"
)

var (
	titleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("205")).
		Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
		Background(lipgloss.Color("236")).
		Foreground(lipgloss.Color("255"))

	tabActiveStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("205")).
		Underline(true)

	tabInactiveStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("244"))

	pendingStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("244"))

	inProgressStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("214"))

	completedStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("42"))

	redoStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("196"))

	groupHeaderStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("39"))

	selectedStyle = lipgloss.NewStyle().
		Background(lipgloss.Color("237")).
		Bold(true)

	errStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("196"))
)

func statusStyle(status domain.Status) lipgloss.Style {
	switch status {
	case domain.StatusInProgress:
		return inProgressStyle
	case domain.StatusCompleted:
		return completedStyle
	case domain.StatusRedo:
		return redoStyle
	default:
		return pendingStyle
	}
}

// View renders the TUI
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Prodtrack"))
	b.WriteString("  ")
	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")

	if m.loadErr != nil {
		b.WriteString(errStyle.Render("erro: " + m.loadErr.Error()))
		b.WriteString("\n\n")
	}

	switch m.activeTab {
	case tabCompleted:
		b.WriteString(m.renderCompleted())
	default:
		b.WriteString(m.renderBoard())
	}

	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	return b.String()
}

func (m Model) renderTabs() string {
	labels := []string{"Quadro", "Concluídos"}
	parts := make([]string, len(labels))
	for i, label := range labels {
		if i == m.activeTab {
			parts[i] = tabActiveStyle.Render(label)
		} else {
			parts[i] = tabInactiveStyle.Render(label)
		}
	}
	return strings.Join(parts, "  ")
}

// renderBoard shows the queue grouped by status, in queue order inside
// each group.
func (m Model) renderBoard() string {
	var b strings.Builder

	groups := []struct {
		label  string
		status domain.Status
	}{
		{"EM ANDAMENTO", domain.StatusInProgress},
		{"PENDENTE", domain.StatusPending},
		{"REFAZER", domain.StatusRedo},
	}

	row := 0
	for _, g := range groups {
		programs := m.byStatus(g.status)
		if len(programs) == 0 {
			continue
		}

		b.WriteString(groupHeaderStyle.Render(fmt.Sprintf("%s (%d)", g.label, len(programs))))
		b.WriteString("\n")

		for _, p := range programs {
			line := fmt.Sprintf("  %-8s %-20s %-16s %s",
				p.ProgramID, truncate(p.Machine, 20), truncate(p.Material, 16), truncate(p.Reference, 24))
			line = statusStyle(p.Status).Render(line)
			if m.globalIndex(p) == m.selectedRow {
				line = selectedStyle.Render(line)
			}
			b.WriteString(line)
			b.WriteString("\n")
			row++
		}
		b.WriteString("\n")
	}

	if row == 0 {
		b.WriteString(pendingStyle.Render("  fila vazia"))
		b.WriteString("\n")
	}

	return sectionStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) renderCompleted() string {
	var b strings.Builder

	completed := m.byStatus(domain.StatusCompleted)
	if len(completed) == 0 {
		b.WriteString(pendingStyle.Render("  nenhum programa concluído"))
		return sectionStyle.Render(b.String())
	}

	b.WriteString(groupHeaderStyle.Render(fmt.Sprintf("CONCLUÍDOS (%d)", len(completed))))
	b.WriteString("\n")

	end := len(completed)
	start := m.scroll
	if start > end {
		start = end
	}
	if end-start > visibleRows {
		end = start + visibleRows
	}

	for i, p := range completed[start:end] {
		when := ""
		if p.CompletedAt != nil {
			when = humanize.Time(*p.CompletedAt)
		}
		ops := make([]string, len(p.Operators))
		for j, o := range p.Operators {
			ops[j] = o.Nome
		}

		line := fmt.Sprintf("  %-8s %-20s %-10s %-14s %s",
			p.ProgramID, truncate(p.Machine, 20),
			report.FormatElapsed(p.ElapsedSeconds), when, truncate(strings.Join(ops, ", "), 30))
		line = completedStyle.Render(line)
		if start+i == m.selectedRow {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	return sectionStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) renderStatusBar() string {
	refreshed := "nunca"
	if !m.lastRefresh.IsZero() {
		refreshed = humanize.Time(m.lastRefresh)
	}
	bar := fmt.Sprintf(" %d pendentes · %d em andamento · %d concluídos · %d refazer │ atualizado %s │ q sair · tab alternar · r atualizar ",
		m.stats.Pending, m.stats.InProgress, m.stats.Completed, m.stats.Redo, refreshed)
	return statusBarStyle.Render(bar)
}

// globalIndex is the board row index of a program across all groups,
// matching the j/k cursor.
func (m Model) globalIndex(target *domain.Program) int {
	idx := 0
	for _, status := range []domain.Status{domain.StatusInProgress, domain.StatusPending, domain.StatusRedo} {
		for _, p := range m.byStatus(status) {
			if p.ID == target.ID {
				return idx
			}
			idx++
		}
	}
	return -1
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
