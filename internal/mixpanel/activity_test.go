package mixpanel

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/Adnankhaledd/lingo-staking-dashboard/internal/cache"
)

func setupTestAggregator(t *testing.T, handler http.Handler) (*Aggregator, *httptest.Server, *miniredis.Miniredis) {
	t.Helper()
	srv := httptest.NewServer(handler)

	mr, err := miniredis.Run()
	if err != nil {
		srv.Close()
		t.Fatalf("miniredis: %v", err)
	}
	c, err := cache.New("redis://"+mr.Addr(), "")
	if err != nil {
		srv.Close()
		mr.Close()
		t.Fatalf("cache: %v", err)
	}

	client := NewClient(srv.URL, "secret", "3623820", "75454495", slog.Default())
	client.client = srv.Client()
	return NewAggregator(client, c), srv, mr
}

func insightsBody() string {
	body, _ := json.Marshal(map[string]any{
		"series": map[string]map[string]float64{
			// Deliberately unordered keys; the series must come back
			// sorted by date.
			dauSeriesName: {
				"2024-01-03": 30,
				"2024-01-01": 10,
				"2024-01-02": 21,
			},
		},
		"date_range": map[string]string{"from_date": "2024-01-01", "to_date": "2024-01-03"},
	})
	return string(body)
}

func eventsBody(event string, values map[string]float64) string {
	body, _ := json.Marshal(map[string]any{
		"data": map[string]any{
			"series": []string{},
			"values": map[string]map[string]float64{event: values},
		},
	})
	return string(body)
}

func TestActivityMetrics(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); !strings.HasPrefix(got, "Basic ") {
			t.Errorf("Authorization = %q, want Basic auth", got)
		}
		switch {
		case strings.HasPrefix(r.URL.Path, "/insights"):
			w.Write([]byte(insightsBody()))
		case strings.HasPrefix(r.URL.Path, "/events"):
			unit := r.URL.Query().Get("unit")
			if unit == "week" {
				w.Write([]byte(eventsBody(WalletConnectedEvent, map[string]float64{"2024-01-01": 70})))
			} else {
				w.Write([]byte(eventsBody(WalletConnectedEvent, map[string]float64{
					"2023-12-04": 100,
					"2024-01-01": 150,
				})))
			}
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
		}
	})

	agg, srv, mr := setupTestAggregator(t, handler)
	defer srv.Close()
	defer mr.Close()

	m, err := agg.ActivityMetrics(context.Background(), false)
	if err != nil {
		t.Fatalf("ActivityMetrics: %v", err)
	}

	if len(m.DAUTrend) != 3 {
		t.Fatalf("len(DAUTrend) = %d, want 3", len(m.DAUTrend))
	}
	wantDates := []string{"Jan 1", "Jan 2", "Jan 3"}
	for i, want := range wantDates {
		if m.DAUTrend[i].Date != want {
			t.Errorf("DAUTrend[%d].Date = %q, want %q", i, m.DAUTrend[i].Date, want)
		}
	}
	if m.CurrentDAU != 30 {
		t.Errorf("CurrentDAU = %v, want 30 (last sorted point)", m.CurrentDAU)
	}
	// (10+21+30)/3 = 20.33 → 20
	if m.AvgDAU != 20 {
		t.Errorf("AvgDAU = %v, want 20", m.AvgDAU)
	}
	if m.CurrentWAU != 70 {
		t.Errorf("CurrentWAU = %v, want 70", m.CurrentWAU)
	}
	if m.CurrentMAU != 250 {
		t.Errorf("CurrentMAU = %v, want 250 (summed buckets)", m.CurrentMAU)
	}
}

func TestActivityMetricsEmptySeries(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/insights") {
			w.Write([]byte(`{"series":{}}`))
			return
		}
		w.Write([]byte(eventsBody(WalletConnectedEvent, nil)))
	})

	agg, srv, mr := setupTestAggregator(t, handler)
	defer srv.Close()
	defer mr.Close()

	m, err := agg.ActivityMetrics(context.Background(), false)
	if err != nil {
		t.Fatalf("ActivityMetrics: %v", err)
	}
	if m.CurrentDAU != 0 || m.AvgDAU != 0 {
		t.Errorf("empty series: CurrentDAU = %v, AvgDAU = %v, want 0/0", m.CurrentDAU, m.AvgDAU)
	}
}

func TestActivityMetricsPartialFailure(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/events") && r.URL.Query().Get("unit") == "month" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		if strings.HasPrefix(r.URL.Path, "/insights") {
			w.Write([]byte(insightsBody()))
			return
		}
		w.Write([]byte(eventsBody(WalletConnectedEvent, map[string]float64{"2024-01-01": 70})))
	})

	agg, srv, mr := setupTestAggregator(t, handler)
	defer srv.Close()
	defer mr.Close()

	_, err := agg.ActivityMetrics(context.Background(), false)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("err = %v, want StatusError (no partial data)", err)
	}

	// A failed aggregate must not be cached.
	if _, ok := agg.cache.Get(context.Background(), cache.MixpanelMetricsKey); ok {
		t.Error("failed aggregate should not populate the cache")
	}
}

func TestActivityMetricsCached(t *testing.T) {
	var calls atomic.Int64
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if strings.HasPrefix(r.URL.Path, "/insights") {
			w.Write([]byte(insightsBody()))
			return
		}
		w.Write([]byte(eventsBody(WalletConnectedEvent, map[string]float64{"2024-01-01": 70})))
	})

	agg, srv, mr := setupTestAggregator(t, handler)
	defer srv.Close()
	defer mr.Close()

	ctx := context.Background()
	if _, err := agg.ActivityMetrics(ctx, false); err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	first := calls.Load()
	if first != 3 {
		t.Fatalf("calls = %d, want 3 parallel requests", first)
	}

	if _, err := agg.ActivityMetrics(ctx, false); err != nil {
		t.Fatalf("cached fetch: %v", err)
	}
	if calls.Load() != first {
		t.Errorf("calls = %d after cache hit, want %d", calls.Load(), first)
	}

	// Forced refresh repeats all three requests.
	if _, err := agg.ActivityMetrics(ctx, true); err != nil {
		t.Fatalf("forced fetch: %v", err)
	}
	if calls.Load() != first+3 {
		t.Errorf("calls = %d after force, want %d", calls.Load(), first+3)
	}
}

func TestActivityMetricsMissingSecret(t *testing.T) {
	var calls atomic.Int64
	agg, srv, mr := setupTestAggregator(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()
	defer mr.Close()

	agg.client.secret = ""
	_, err := agg.ActivityMetrics(context.Background(), false)
	if !errors.Is(err, ErrMissingSecret) {
		t.Errorf("err = %v, want ErrMissingSecret", err)
	}
	if calls.Load() != 0 {
		t.Errorf("calls = %d, want 0", calls.Load())
	}
}

func TestMonthlyEvents(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		events := r.URL.Query().Get("event")
		switch {
		case strings.Contains(events, "Stake Completed"):
			w.Write([]byte(eventsBody("Stake Completed", map[string]float64{
				"2024-02-01": 40,
				"2024-01-01": 25,
			})))
		case strings.Contains(events, WalletConnectedEvent):
			w.Write([]byte(eventsBody(WalletConnectedEvent, map[string]float64{
				"2024-01-01": 300,
			})))
		default:
			t.Errorf("unexpected event group %q", events)
		}
	})

	agg, srv, mr := setupTestAggregator(t, handler)
	defer srv.Close()
	defer mr.Close()

	m, err := agg.MonthlyEvents(context.Background(), false)
	if err != nil {
		t.Fatalf("MonthlyEvents: %v", err)
	}

	stakes := m["Stake Completed"]
	if len(stakes) != 2 {
		t.Fatalf("len(stakes) = %d, want 2", len(stakes))
	}
	if stakes[0].Month != "Jan 2024" || stakes[0].Value != 25 {
		t.Errorf("stakes[0] = %+v, want Jan 2024 / 25", stakes[0])
	}
	if stakes[1].Month != "Feb 2024" || stakes[1].Value != 40 {
		t.Errorf("stakes[1] = %+v, want Feb 2024 / 40", stakes[1])
	}
	if len(m[WalletConnectedEvent]) != 1 {
		t.Errorf("wallet connected series = %+v", m[WalletConnectedEvent])
	}
}

func TestMonthlyEventsSecondRequestFails(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		events := r.URL.Query().Get("event")
		if strings.Contains(events, WalletConnectedEvent) {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(eventsBody("Stake Completed", map[string]float64{"2024-01-01": 25})))
	})

	agg, srv, mr := setupTestAggregator(t, handler)
	defer srv.Close()
	defer mr.Close()

	_, err := agg.MonthlyEvents(context.Background(), false)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("err = %v, want StatusError (no partial data)", err)
	}
}

func TestEventCountsWindow(t *testing.T) {
	var gotFrom, gotTo string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotFrom = r.URL.Query().Get("from_date")
		gotTo = r.URL.Query().Get("to_date")
		w.Write([]byte(eventsBody(WalletConnectedEvent, nil)))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "secret", "1", "2", slog.Default())
	client.client = srv.Client()
	client.now = func() time.Time { return time.Date(2024, 1, 8, 12, 0, 0, 0, time.UTC) }

	if _, err := client.EventCounts(context.Background(), []string{WalletConnectedEvent}, UnitWeek, 7); err != nil {
		t.Fatalf("EventCounts: %v", err)
	}
	if gotFrom != "2024-01-01" {
		t.Errorf("from_date = %q, want 2024-01-01", gotFrom)
	}
	if gotTo != "2024-01-08" {
		t.Errorf("to_date = %q, want 2024-01-08", gotTo)
	}
}
