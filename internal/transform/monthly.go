package transform

import (
	"math"
	"sort"

	"github.com/Adnankhaledd/lingo-staking-dashboard/internal/dune"
)

// MonthlyComparisonPoint is one month's closing staked volume and its
// growth against the previous month.
type MonthlyComparisonPoint struct {
	Month  string  `json:"month"`
	Volume float64 `json:"volume"`
	Growth float64 `json:"growth"`
}

// comparisonWindow caps the comparison chart at the most recent months.
const comparisonWindow = 6

// MonthlyComparison buckets daily total-staked rows by calendar month.
// Within a month the later row wins (rows are cumulative totals, not
// increments), so each bucket holds that month's closing value. Growth
// is the percent change versus the previous bucket, rounded to one
// decimal, 0 for the first bucket or a zero previous value.
func MonthlyComparison(rows []dune.TotalStakedRow) []MonthlyComparisonPoint {
	if len(rows) == 0 {
		return []MonthlyComparisonPoint{}
	}

	totals := make(map[string]float64)
	for _, r := range rows {
		key, ok := monthKey(r.Day)
		if !ok {
			continue
		}
		totals[key] = r.TotalStaked
	}

	keys := make([]string, 0, len(totals))
	for k := range totals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > comparisonWindow {
		keys = keys[len(keys)-comparisonWindow:]
	}

	out := make([]MonthlyComparisonPoint, len(keys))
	for i, k := range keys {
		volume := totals[k]
		var growth float64
		if i > 0 {
			if prev := totals[keys[i-1]]; prev > 0 {
				growth = math.Round((volume-prev)/prev*1000) / 10
			}
		}
		out[i] = MonthlyComparisonPoint{Month: monthLabel(k), Volume: volume, Growth: growth}
	}
	return out
}

// FlowPoint is one month of stake inflow and outflow.
type FlowPoint struct {
	Month    string  `json:"month"`
	StakedIn float64 `json:"stakedIn"`
	Unstaked float64 `json:"unstaked"`
	Net      float64 `json:"net"`
}

// MonthlyFlow maps monthly staking-flow rows to chart points.
func MonthlyFlow(rows []dune.MonthlyStakingFlowRow) []FlowPoint {
	if len(rows) == 0 {
		return []FlowPoint{}
	}
	out := make([]FlowPoint, len(rows))
	for i, r := range rows {
		out[i] = FlowPoint{
			Month:    MonthLabel(r.Month),
			StakedIn: r.StakedIn,
			Unstaked: r.Unstaked,
			Net:      r.NetFlow,
		}
	}
	return out
}
