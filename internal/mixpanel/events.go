package mixpanel

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adnankhaledd/lingo-staking-dashboard/internal/cache"
	"github.com/Adnankhaledd/lingo-staking-dashboard/internal/metrics"
)

// Tracked product events, split into the two request groups the events
// API is queried with.
var (
	stakingEvents = []string{"Stake Completed", "Unstake Completed"}
	productEvents = []string{WalletConnectedEvent, "Rewards Claimed"}
)

// monthlyEventsWindowDays is the fixed trailing window of the monthly
// event-count mode.
const monthlyEventsWindowDays = 180

// MonthlyMetric is one month of counts for a single event.
type MonthlyMetric struct {
	Month string  `json:"month"`
	Value float64 `json:"value"`
}

// MonthlyEvents maps event name to its monthly count series.
type MonthlyEvents map[string][]MonthlyMetric

// MonthlyEvents fetches monthly counts for the fixed event groups over
// the fixed trailing window. Both requests must succeed; the combined
// result is cached under one key.
func (a *Aggregator) MonthlyEvents(ctx context.Context, force bool) (MonthlyEvents, error) {
	if !force {
		if raw, ok := a.cache.Get(ctx, cache.MixpanelEventsKey); ok {
			var m MonthlyEvents
			if err := json.Unmarshal(raw, &m); err == nil {
				metrics.CacheReadsTotal.WithLabelValues("mixpanel", "hit").Inc()
				return m, nil
			}
		}
		metrics.CacheReadsTotal.WithLabelValues("mixpanel", "miss").Inc()
	}

	var stakingBody, productBody []byte
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stakingBody, err = a.client.EventCounts(gctx, stakingEvents, UnitMonth, monthlyEventsWindowDays)
		return err
	})
	g.Go(func() (err error) {
		productBody, err = a.client.EventCounts(gctx, productEvents, UnitMonth, monthlyEventsWindowDays)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := MonthlyEvents{}
	for _, body := range [][]byte{stakingBody, productBody} {
		var resp eventsResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("decode event counts: %w", err)
		}
		for event, buckets := range resp.Data.Values {
			out[event] = monthlySeries(buckets)
		}
	}

	a.cache.Set(ctx, cache.MixpanelEventsKey, out)
	return out, nil
}

// monthlySeries orders per-month buckets chronologically and formats
// the month labels for display.
func monthlySeries(buckets map[string]float64) []MonthlyMetric {
	type datedPoint struct {
		at    time.Time
		value float64
	}
	points := make([]datedPoint, 0, len(buckets))
	for dateStr, value := range buckets {
		at, err := parseReportDate(dateStr)
		if err != nil {
			continue
		}
		points = append(points, datedPoint{at: at, value: value})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].at.Before(points[j].at) })

	series := make([]MonthlyMetric, len(points))
	for i, p := range points {
		series[i] = MonthlyMetric{Month: p.at.Format("Jan 2006"), Value: p.value}
	}
	return series
}
