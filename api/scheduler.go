/*
scheduler.go - Due reminder scheduler

PURPOSE:
  Periodically looks for bills due within the reminder horizon and
  announces them as a dues.upcoming event plus a log line.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Checks once immediately on Start, then on every tick
  - Reads dues through finance.Reports, so "today" follows the same clock
    as the rest of the API
  - A failed check is logged and retried on the next tick

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour, DUE_CHECK_INTERVAL)
  - HorizonDays:   Days ahead to look (default: 7, DUE_HORIZON_DAYS)
  - Enabled:       Whether scheduler is active (default: true)

USAGE:
  scheduler := NewDueReminderScheduler(handler.Reports, publisher, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: ListUpcomingDues endpoint (same query, on demand)
  - finance/events.go: EventDuesUpcoming
*/
package api

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/bucket-ledger/finance"
)

// DuesUpcomingPayload is the body of a dues.upcoming event.
type DuesUpcomingPayload struct {
	HorizonDays int      `json:"horizon_days"`
	Total       string   `json:"total"`
	Dues        []DueDTO `json:"dues"`
}

// DueReminderScheduler publishes reminders for bills due soon.
type DueReminderScheduler struct {
	Reports       *finance.Reports
	Publisher     finance.Publisher
	CheckInterval time.Duration
	HorizonDays   int
	Enabled       bool

	logger *slog.Logger
	now    func() time.Time

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewDueReminderScheduler creates a new scheduler.
func NewDueReminderScheduler(reports *finance.Reports, publisher finance.Publisher, logger *slog.Logger) *DueReminderScheduler {
	if publisher == nil {
		publisher = finance.NopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DueReminderScheduler{
		Reports:       reports,
		Publisher:     publisher,
		CheckInterval: 1 * time.Hour,
		HorizonDays:   DefaultDueHorizonDays,
		Enabled:       true,
		logger:        logger.With("component", "due-reminder"),
		now:           time.Now,
	}
}

// Start begins the scheduler.
func (s *DueReminderScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Enabled {
		s.logger.Info("scheduler disabled, not starting")
		return
	}
	if s.ticker != nil {
		return
	}

	s.ticker = time.NewTicker(s.CheckInterval)
	s.stop = make(chan struct{})
	s.wg.Add(1)

	go s.run(s.ticker, s.stop)

	s.logger.Info("scheduler started", "interval", s.CheckInterval, "horizon_days", s.HorizonDays)
}

// Stop stops the scheduler and waits for an in-flight check.
func (s *DueReminderScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker == nil {
		return
	}
	s.ticker.Stop()
	close(s.stop)
	s.wg.Wait()
	s.ticker = nil
	s.logger.Info("scheduler stopped")
}

func (s *DueReminderScheduler) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer s.wg.Done()

	// Run immediately on start
	s.RunNow(context.Background())

	for {
		select {
		case <-ticker.C:
			s.RunNow(context.Background())
		case <-stop:
			return
		}
	}
}

// RunNow performs one check and returns the number of dues announced.
func (s *DueReminderScheduler) RunNow(ctx context.Context) int {
	dues, err := s.Reports.UpcomingDues(ctx, s.HorizonDays)
	if err != nil {
		s.logger.Error("upcoming dues check failed", "error", err)
		return 0
	}
	if len(dues) == 0 {
		s.logger.Debug("no upcoming dues", "horizon_days", s.HorizonDays)
		return 0
	}

	total := decimal.Zero
	for _, d := range dues {
		total = total.Add(d.Amount)
	}

	s.logger.Info("upcoming dues",
		"count", len(dues),
		"total", money(total),
		"next", dues[0].Name,
		"next_date", dues[0].DueDate.String(),
	)

	ev := finance.Event{
		Type:       finance.EventDuesUpcoming,
		OccurredAt: s.now(),
		Payload: DuesUpcomingPayload{
			HorizonDays: s.HorizonDays,
			Total:       money(total),
			Dues:        toDueDTOs(dues),
		},
	}
	pubCtx, cancel := context.WithTimeout(ctx, finance.DefaultPublishTimeout)
	defer cancel()
	if err := s.Publisher.Publish(pubCtx, ev); err != nil {
		s.logger.Warn("event publish failed", "type", ev.Type, "error", err)
	}
	return len(dues)
}
