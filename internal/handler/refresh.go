package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Adnankhaledd/lingo-staking-dashboard/internal/dune"
	"github.com/Adnankhaledd/lingo-staking-dashboard/internal/metrics"
	"github.com/Adnankhaledd/lingo-staking-dashboard/internal/store"
	"github.com/Adnankhaledd/lingo-staking-dashboard/internal/ws"
)

// RefreshDune re-executes the dashboard queries upstream. Authorized
// when no shared secret is configured, when the Bearer token matches,
// or when the scheduler header is present.
func RefreshDune(client *dune.Client, s *store.Store, hub *ws.Hub, secret string, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		triggeredBy := "manual"
		if r.Header.Get("X-Cron-Trigger") == "1" {
			triggeredBy = "cron"
		}
		if !authorized(r, secret) {
			http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
			return
		}

		results := client.RefreshAll(r.Context())
		metrics.RefreshRunsTotal.Inc()

		succeeded := 0
		outcomes := make([]store.QueryOutcome, len(results))
		for i, res := range results {
			if res.Success {
				succeeded++
			}
			outcomes[i] = store.QueryOutcome{QueryID: res.QueryID, Success: res.Success, Error: res.Error}
		}

		if s != nil {
			if _, err := s.RecordRun(r.Context(), triggeredBy, outcomes); err != nil {
				logger.Error("record refresh run", "error", err)
			}
		}
		if hub != nil {
			hub.Broadcast("refresh", map[string]any{
				"succeeded": succeeded,
				"total":     len(results),
			})
		}
		logger.Info("dune refresh complete", "triggered_by", triggeredBy,
			"succeeded", succeeded, "total", len(results))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message":   "Refresh triggered",
			"results":   results,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func authorized(r *http.Request, secret string) bool {
	if secret == "" {
		return true
	}
	if r.Header.Get("Authorization") == "Bearer "+secret {
		return true
	}
	return r.Header.Get("X-Cron-Trigger") == "1"
}

// RefreshHistory returns the most recent refresh runs, newest first.
func RefreshHistory(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 20
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
				limit = n
			}
		}

		runs, err := s.RecentRuns(r.Context(), limit)
		if err != nil {
			http.Error(w, `{"error":"failed to load refresh history"}`, http.StatusInternalServerError)
			return
		}
		if runs == nil {
			runs = []store.RefreshRun{}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(runs)
	}
}
