package handler

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/Adnankhaledd/lingo-staking-dashboard/internal/cache"
	"github.com/Adnankhaledd/lingo-staking-dashboard/internal/dune"
	"github.com/Adnankhaledd/lingo-staking-dashboard/internal/mixpanel"
)

// universalRow carries every column any query's row type decodes, so a
// single stub body serves all queries.
const universalRow = `{
	"day": "2024-01-15 00:00:00.000 UTC",
	"week": "2024-01-15 00:00:00.000 UTC",
	"month": "2024-01-01 00:00:00.000 UTC",
	"total_staked": 1000,
	"change_from_yesterday": 10,
	"change_pct": 1.5,
	"active_stakers": 50,
	"total_tvl": 5000,
	"new_stakers": 5,
	"cohort_week": "2024-01-15 00:00:00.000 UTC",
	"cohort_size": 100,
	"never_unstaked": 80,
	"partial": 10,
	"fully_exited": 10,
	"pct_diamond_hands": "80",
	"pct_partial": "10",
	"pct_churned": "10",
	"pct_retained": "90",
	"rank": 1,
	"wallet": "0x000000abc1234567890abc1234567890abc12345",
	"lingo_staked": 500,
	"usd_value": 250,
	"pct_of_total": 2.5,
	"total_lingo": 10,
	"avg_price_usd": 0.5,
	"cumulative_lingo": 10,
	"cumulative_usd": 5,
	"num_transfers": 3,
	"lingo_out": 7,
	"avg_transfer_size": 2.3,
	"staked_in": 10,
	"unstaked": 3,
	"net_flow": 7,
	"stakes": 4,
	"unique_stakers": 3,
	"tier": "Whale",
	"lock_type": "12m",
	"users": 12,
	"avg_usd": 50000,
	"total_usd": 600000,
	"unlock_day": "2024-06-01 00:00:00.000 UTC",
	"daily_unlock_lingo": 1000,
	"cumulative_unlock_lingo": 1000
}`

func duneResultsBody() string {
	return `{"is_execution_finished": true, "state": "QUERY_STATE_COMPLETED",
		"result": {"rows": [` + universalRow + `]}}`
}

func mixpanelInsightsBody() string {
	return `{"series": {"A. DAU": {"2024-01-01": 10, "2024-01-02": 20}}}`
}

func mixpanelEventsBody() string {
	return `{"data": {"series": [], "values": {"Wallet Connected": {"2024-01-01": 70}}}}`
}

// upstreamMux serves both external APIs from one stub server.
func upstreamMux(t *testing.T, failQuery string) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/query/") && strings.HasSuffix(r.URL.Path, "/results"):
			if failQuery != "" && strings.Contains(r.URL.Path, failQuery) {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			_, _ = w.Write([]byte(duneResultsBody()))
		case strings.HasPrefix(r.URL.Path, "/query/") && strings.HasSuffix(r.URL.Path, "/execute"):
			if failQuery != "" && strings.Contains(r.URL.Path, failQuery) {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			_, _ = w.Write([]byte(`{"execution_id": "exec-1"}`))
		case strings.HasPrefix(r.URL.Path, "/insights"):
			_, _ = w.Write([]byte(mixpanelInsightsBody()))
		case strings.HasPrefix(r.URL.Path, "/events"):
			_, _ = w.Write([]byte(mixpanelEventsBody()))
		default:
			t.Errorf("unexpected upstream path %q", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

type testEnv struct {
	dune *dune.Client
	mix  *mixpanel.Client
	agg  *mixpanel.Aggregator
}

func setupTestEnv(t *testing.T, failQuery string) *testEnv {
	t.Helper()
	srv := httptest.NewServer(upstreamMux(t, failQuery))
	t.Cleanup(srv.Close)

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	c, err := cache.New("redis://"+mr.Addr(), "")
	if err != nil {
		t.Fatalf("cache: %v", err)
	}

	logger := slog.Default()
	duneClient := dune.NewClient(srv.URL, "test-key", c, logger)
	mixClient := mixpanel.NewClient(srv.URL, "test-secret", "1", "2", logger)
	return &testEnv{
		dune: duneClient,
		mix:  mixClient,
		agg:  mixpanel.NewAggregator(mixClient, c),
	}
}

// envWithBrokenUpstream builds a mixpanel client against a failing server.
func envWithBrokenUpstream(t *testing.T, url string) *mixpanel.Client {
	t.Helper()
	return mixpanel.NewClient(url, "test-secret", "1", "2", slog.Default())
}
