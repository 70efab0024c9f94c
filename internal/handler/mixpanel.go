package handler

import (
	"encoding/json"
	"net/http"

	"github.com/Adnankhaledd/lingo-staking-dashboard/internal/mixpanel"
)

// Mixpanel proxies the analytics API with the server-held secret. The
// dau, wau and mau types forward the upstream body verbatim; metrics and
// monthly-events return the cached aggregates.
func Mixpanel(client *mixpanel.Client, agg *mixpanel.Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		force := r.URL.Query().Get("refresh") == "1"

		var (
			body []byte
			err  error
		)
		switch r.URL.Query().Get("type") {
		case "dau":
			body, err = client.InsightsReport(ctx)
		case "wau":
			body, err = client.EventCounts(ctx, []string{mixpanel.WalletConnectedEvent}, mixpanel.UnitWeek, 7)
		case "mau":
			body, err = client.EventCounts(ctx, []string{mixpanel.WalletConnectedEvent}, mixpanel.UnitMonth, 30)
		case "metrics":
			var m *mixpanel.ActivityMetrics
			if m, err = agg.ActivityMetrics(ctx, force); err == nil {
				body, err = json.Marshal(m)
			}
		case "monthly-events":
			var m mixpanel.MonthlyEvents
			if m, err = agg.MonthlyEvents(ctx, force); err == nil {
				body, err = json.Marshal(m)
			}
		default:
			http.Error(w, `{"error":"unknown type"}`, http.StatusBadRequest)
			return
		}

		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
