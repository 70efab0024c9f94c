package mixpanel

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adnankhaledd/lingo-staking-dashboard/internal/cache"
	"github.com/Adnankhaledd/lingo-staking-dashboard/internal/metrics"
)

// dauSeriesName is the series key of the saved insights report.
const dauSeriesName = "A. DAU"

// insightsResponse is the shape of the saved DAU report.
type insightsResponse struct {
	Series map[string]map[string]float64 `json:"series"`
	DateRange struct {
		FromDate string `json:"from_date"`
		ToDate   string `json:"to_date"`
	} `json:"date_range"`
}

// eventsResponse is the shape of the events endpoint.
type eventsResponse struct {
	Data struct {
		Series []string                      `json:"series"`
		Values map[string]map[string]float64 `json:"values"`
	} `json:"data"`
}

// DailyMetric is one point of the daily active users series. Date is
// display-formatted ("Jan 2").
type DailyMetric struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// ActivityMetrics is the aggregated user-activity payload, cached as a
// whole under a single key.
type ActivityMetrics struct {
	DAUTrend   []DailyMetric `json:"dauTrend"`
	CurrentDAU float64       `json:"currentDAU"`
	CurrentWAU float64       `json:"currentWAU"`
	CurrentMAU float64       `json:"currentMAU"`
	AvgDAU     float64       `json:"avgDAU"`
}

// Aggregator builds cached activity aggregates on top of the raw client.
type Aggregator struct {
	client *Client
	cache  *cache.Cache
}

func NewAggregator(client *Client, c *cache.Cache) *Aggregator {
	return &Aggregator{client: client, cache: c}
}

// ActivityMetrics fetches the DAU report plus weekly and monthly unique
// windows in parallel and folds them into one aggregate. Any of the
// three requests failing fails the whole fetch; partial data is never
// returned or cached.
func (a *Aggregator) ActivityMetrics(ctx context.Context, force bool) (*ActivityMetrics, error) {
	if !force {
		if raw, ok := a.cache.Get(ctx, cache.MixpanelMetricsKey); ok {
			var m ActivityMetrics
			if err := json.Unmarshal(raw, &m); err == nil {
				metrics.CacheReadsTotal.WithLabelValues("mixpanel", "hit").Inc()
				return &m, nil
			}
		}
		metrics.CacheReadsTotal.WithLabelValues("mixpanel", "miss").Inc()
	}

	var (
		dauBody, wauBody, mauBody []byte
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		dauBody, err = a.client.InsightsReport(gctx)
		return err
	})
	g.Go(func() (err error) {
		wauBody, err = a.client.EventCounts(gctx, []string{WalletConnectedEvent}, UnitWeek, 7)
		return err
	})
	g.Go(func() (err error) {
		mauBody, err = a.client.EventCounts(gctx, []string{WalletConnectedEvent}, UnitMonth, 30)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var report insightsResponse
	if err := json.Unmarshal(dauBody, &report); err != nil {
		return nil, fmt.Errorf("decode insights report: %w", err)
	}
	trend := dauTrend(report)

	wau, err := sumEventCounts(wauBody, WalletConnectedEvent)
	if err != nil {
		return nil, err
	}
	mau, err := sumEventCounts(mauBody, WalletConnectedEvent)
	if err != nil {
		return nil, err
	}

	m := &ActivityMetrics{
		DAUTrend:   trend,
		CurrentWAU: wau,
		CurrentMAU: mau,
	}
	if len(trend) > 0 {
		m.CurrentDAU = trend[len(trend)-1].Value
		var sum float64
		for _, p := range trend {
			sum += p.Value
		}
		m.AvgDAU = math.Round(sum / float64(len(trend)))
	}

	a.cache.Set(ctx, cache.MixpanelMetricsKey, m)
	return m, nil
}

// dauTrend flattens the per-date map into a series sorted by actual
// date value, not string order, then display-formats the dates.
func dauTrend(report insightsResponse) []DailyMetric {
	series := report.Series[dauSeriesName]

	type datedPoint struct {
		at    time.Time
		value float64
	}
	points := make([]datedPoint, 0, len(series))
	for dateStr, value := range series {
		at, err := parseReportDate(dateStr)
		if err != nil {
			continue
		}
		points = append(points, datedPoint{at: at, value: value})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].at.Before(points[j].at) })

	trend := make([]DailyMetric, len(points))
	for i, p := range points {
		trend[i] = DailyMetric{Date: p.at.Format("Jan 2"), Value: p.value}
	}
	return trend
}

// parseReportDate accepts the date keys the insights API emits, either
// plain dates or full timestamps.
func parseReportDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05"} {
		if at, err := time.Parse(layout, s); err == nil {
			return at, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized report date %q", s)
}

// sumEventCounts totals every per-bucket value for one event name.
func sumEventCounts(body []byte, event string) (float64, error) {
	var resp eventsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("decode event counts: %w", err)
	}
	var sum float64
	for _, v := range resp.Data.Values[event] {
		sum += v
	}
	return sum, nil
}
