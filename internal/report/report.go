package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/moldshop/prodtrack/internal/domain"
	"github.com/moldshop/prodtrack/internal/programstore"
)

// StatsSource is the slice of the program store the reporter reads.
type StatsSource interface {
	Counts(ctx context.Context) (programstore.Stats, error)
	List(ctx context.Context, opts programstore.ListOptions) ([]*domain.Program, error)
}

// Reporter builds shift summaries from the program queue.
type Reporter struct {
	store StatsSource
}

func NewReporter(store StatsSource) *Reporter {
	return &Reporter{store: store}
}

// ShiftSummary holds the numbers reported at a shift change.
type ShiftSummary struct {
	Stats     programstore.Stats
	Completed []*domain.Program // completed since the previous report
	Since     time.Time
}

// Build collects queue counts and the programs completed since the
// given cutoff.
func (r *Reporter) Build(ctx context.Context, since time.Time) (*ShiftSummary, error) {
	stats, err := r.store.Counts(ctx)
	if err != nil {
		return nil, err
	}

	completed, err := r.store.List(ctx, programstore.ListOptions{Status: domain.StatusCompleted})
	if err != nil {
		return nil, err
	}

	var recent []*domain.Program
	for _, p := range completed {
		if p.CompletedAt != nil && p.CompletedAt.After(since) {
			recent = append(recent, p)
		}
	}

	return &ShiftSummary{Stats: stats, Completed: recent, Since: since}, nil
}

// Format renders the summary as plain text for notifications.
func (s *ShiftSummary) Format() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Fila: %d pendentes, %d em andamento, %d concluídos, %d refazer\n",
		s.Stats.Pending, s.Stats.InProgress, s.Stats.Completed, s.Stats.Redo)

	if len(s.Completed) == 0 {
		b.WriteString("Nenhum programa concluído no turno.")
		return b.String()
	}

	fmt.Fprintf(&b, "Concluídos no turno (%d):\n", len(s.Completed))
	for _, p := range s.Completed {
		fmt.Fprintf(&b, "  %s  %s  %s\n", p.ProgramID, p.Machine, FormatElapsed(p.ElapsedSeconds))
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatElapsed renders elapsed machining seconds as H:MM:SS, matching
// the dashboard clock.
func FormatElapsed(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}
