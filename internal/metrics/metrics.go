package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ── HTTP request metrics (RED method) ──────────────────────────────────

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "staking_dashboard",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "path", "status_code"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "staking_dashboard",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})

	HTTPRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "staking_dashboard",
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "Number of HTTP requests currently being processed.",
	})
)

// ── Upstream fetch metrics ─────────────────────────────────────────────

var (
	DuneFetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "staking_dashboard",
		Subsystem: "dune",
		Name:      "fetch_total",
		Help:      "Total result fetches against the Dune API per query.",
	}, []string{"query", "status"})

	DuneFetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "staking_dashboard",
		Subsystem: "dune",
		Name:      "fetch_duration_seconds",
		Help:      "Duration of successful Dune result fetches per query.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"query"})

	MixpanelFetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "staking_dashboard",
		Subsystem: "mixpanel",
		Name:      "fetch_total",
		Help:      "Total requests against the Mixpanel API per endpoint.",
	}, []string{"endpoint", "status"})
)

// ── Cache metrics ──────────────────────────────────────────────────────

var CacheReadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "staking_dashboard",
	Subsystem: "cache",
	Name:      "reads_total",
	Help:      "Cache lookups per store, labelled hit or miss.",
}, []string{"store", "result"})

// ── Refresh metrics ────────────────────────────────────────────────────

var (
	RefreshRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "staking_dashboard",
		Subsystem: "refresh",
		Name:      "runs_total",
		Help:      "Total scheduled or manual query refresh runs.",
	})

	RefreshLastSuccessCount = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "staking_dashboard",
		Subsystem: "refresh",
		Name:      "last_success_count",
		Help:      "Number of queries successfully re-executed in the last run.",
	})
)

// ── Live update metrics ────────────────────────────────────────────────

var WSClientsConnected = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "staking_dashboard",
	Subsystem: "ws",
	Name:      "clients_connected",
	Help:      "Number of websocket clients currently connected.",
})
