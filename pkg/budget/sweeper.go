package budget

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper deactivates expired budgets on a cron schedule so that stale
// entries stop showing up as active in analytics, and refreshes the
// utilization gauges for budgets that are idle between charges. Expiry is
// also enforced synchronously on every charge; the sweeper only tidies
// budgets nobody is charging anymore.
type Sweeper struct {
	service  *Service
	schedule string
	cron     *cron.Cron
	mu       sync.Mutex
	logger   *slog.Logger
	running  bool
}

// NewSweeper creates a sweeper running on the given cron schedule.
func NewSweeper(service *Service, schedule string) *Sweeper {
	return &Sweeper{
		service:  service,
		schedule: schedule,
		cron:     cron.New(),
		logger:   slog.Default().With("component", "budget.sweeper"),
	}
}

// Start begins the scheduled sweep based on the cron expression.
//
// Common cron expressions:
//   - "0 * * * *"   - Hourly
//   - "0 3 * * *"   - Daily at 3 AM
//
// If the schedule is empty, the sweeper does nothing.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == "" {
		s.logger.Info("sweep schedule not configured, skipping sweeper")
		return nil
	}

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}

	_, err := s.cron.AddFunc(s.schedule, func() {
		s.runSweep(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule sweep: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("budget sweeper started", "schedule", s.schedule)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// SweepNow runs one sweep cycle immediately, outside the schedule.
func (s *Sweeper) SweepNow(ctx context.Context) {
	s.runSweep(ctx)
}

// runSweep executes one sweep cycle over all budgets.
func (s *Sweeper) runSweep(ctx context.Context) {
	budgets, err := s.service.ListBudgets(ctx)
	if err != nil {
		s.logger.Error("sweep failed to list budgets", "error", err)
		return
	}

	now := s.service.now()
	deactivated := 0
	for _, b := range budgets {
		if s.service.metrics != nil && b.IsActive {
			s.service.metrics.UpdateUtilization(b.Name, b.Utilization())
		}
		if !b.IsActive || !b.Expired(now) {
			continue
		}
		if _, err := s.service.DeactivateBudget(ctx, b.ID); err != nil {
			s.logger.Error("sweep failed to deactivate expired budget",
				"budget_id", b.ID,
				"error", err,
			)
			continue
		}
		deactivated++
	}

	if deactivated > 0 {
		s.logger.Info("sweep completed", "deactivated_count", deactivated)
	} else {
		s.logger.Debug("sweep completed, no expired budgets")
	}
}

// Stop stops the sweeper and waits for any running sweep to complete.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil && s.running {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.running = false
		s.logger.Info("budget sweeper stopped")
	}
}

// IsRunning returns true if the sweeper is running.
func (s *Sweeper) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// NextRun returns the next scheduled sweep time.
func (s *Sweeper) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		return nil
	}

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}

	next := entries[0].Next
	return &next
}
