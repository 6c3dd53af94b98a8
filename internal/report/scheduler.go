package report

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/moldshop/prodtrack/internal/notify"
)

// Scheduler runs the shift report on a cron schedule and pushes the
// result through the notifier.
type Scheduler struct {
	reporter *Reporter
	notifier notify.Notifier
	schedule cron.Schedule

	lastRun time.Time
	running bool
	mu      sync.Mutex

	stopChan chan struct{}
}

// ParseCron parses a standard five-field cron expression.
func ParseCron(expr string) (cron.Schedule, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	return parser.Parse(expr)
}

// NewScheduler creates a scheduler for the given cron expression. The
// expression is validated here so a bad config fails at startup.
func NewScheduler(reporter *Reporter, notifier notify.Notifier, cronExpr string) (*Scheduler, error) {
	sched, err := ParseCron(cronExpr)
	if err != nil {
		return nil, err
	}

	return &Scheduler{
		reporter: reporter,
		notifier: notifier,
		schedule: sched,
		stopChan: make(chan struct{}),
	}, nil
}

// NextRun returns the next scheduled report time.
func (s *Scheduler) NextRun() time.Time {
	return s.schedule.Next(time.Now())
}

// ShouldRun returns true when a report is due.
func (s *Scheduler) ShouldRun() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return false
	}

	lastRun := s.lastRun
	if lastRun.IsZero() {
		lastRun = time.Now().Add(-24 * time.Hour)
	}

	return time.Now().After(s.schedule.Next(lastRun))
}

// Run builds and sends one shift report.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	since := s.lastRun
	if since.IsZero() {
		since = time.Now().Add(-8 * time.Hour) // one shift back
	}
	s.mu.Unlock()

	summary, err := s.reporter.Build(ctx, since)
	if err != nil {
		return err
	}

	return s.notifier.Send(notify.Notification{
		Title:   "Relatório de turno",
		Message: summary.Format(),
		Type:    notify.NotifyInfo,
	})
}

// Start begins the scheduler loop. Blocks until Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		case <-ticker.C:
			if !s.ShouldRun() {
				continue
			}
			s.mu.Lock()
			s.running = true
			s.mu.Unlock()

			go func() {
				if err := s.Run(ctx); err != nil {
					log.Printf("shift report failed: %v", err)
				}
				s.mu.Lock()
				s.running = false
				s.lastRun = time.Now()
				s.mu.Unlock()
			}()
		}
	}
}

// Stop stops the scheduler loop.
func (s *Scheduler) Stop() {
	close(s.stopChan)
}
