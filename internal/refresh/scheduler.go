package refresh

import (
	"context"
	"log/slog"
	"time"

	"github.com/Adnankhaledd/lingo-staking-dashboard/internal/dune"
	"github.com/Adnankhaledd/lingo-staking-dashboard/internal/metrics"
	"github.com/Adnankhaledd/lingo-staking-dashboard/internal/store"
	"github.com/Adnankhaledd/lingo-staking-dashboard/internal/ws"
)

// Scheduler re-executes the dashboard queries on a fixed interval, as a
// built-in fallback when no external cron hits the refresh endpoint.
type Scheduler struct {
	client   *dune.Client
	store    *store.Store
	hub      *ws.Hub
	logger   *slog.Logger
	interval time.Duration
}

// New returns a scheduler, or nil when the interval is zero (disabled).
func New(client *dune.Client, s *store.Store, hub *ws.Hub, interval time.Duration, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		return nil
	}
	return &Scheduler{
		client:   client,
		store:    s,
		hub:      hub,
		logger:   logger,
		interval: interval,
	}
}

// Run refreshes on the configured interval until ctx is cancelled. The
// first run fires after one full interval so a restart loop does not
// hammer the upstream.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("refresh scheduler started", "interval", s.interval.String())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refresh(ctx)
		}
	}
}

func (s *Scheduler) refresh(ctx context.Context) {
	results := s.client.RefreshAll(ctx)
	metrics.RefreshRunsTotal.Inc()

	succeeded := 0
	outcomes := make([]store.QueryOutcome, len(results))
	for i, r := range results {
		if r.Success {
			succeeded++
		}
		outcomes[i] = store.QueryOutcome{QueryID: r.QueryID, Success: r.Success, Error: r.Error}
	}

	if s.store != nil {
		if _, err := s.store.RecordRun(ctx, "scheduler", outcomes); err != nil {
			s.logger.Error("record scheduled refresh", "error", err)
		}
	}
	if s.hub != nil {
		s.hub.Broadcast("refresh", map[string]any{
			"succeeded": succeeded,
			"total":     len(results),
		})
	}
	s.logger.Info("scheduled refresh complete", "succeeded", succeeded, "total", len(results))
}
