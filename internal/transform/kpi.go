package transform

import (
	"strconv"

	"github.com/Adnankhaledd/lingo-staking-dashboard/internal/dune"
)

// Trend is the direction of a KPI relative to its previous value.
type Trend string

const (
	TrendUp      Trend = "up"
	TrendDown    Trend = "down"
	TrendNeutral Trend = "neutral"
)

// KPI is one headline metric with its change against the previous
// period. TrendValue is a percent delta, 0 when the previous value is 0
// or there are fewer than two data points.
type KPI struct {
	Label         string  `json:"label"`
	Value         float64 `json:"value"`
	PreviousValue float64 `json:"previousValue"`
	Format        string  `json:"format"`
	Suffix        string  `json:"suffix,omitempty"`
	Trend         Trend   `json:"trend"`
	TrendValue    float64 `json:"trendValue"`
}

// retentionKPIWindow is how many of the most recent cohorts feed the
// retention-rate KPI; the same number again makes the comparison window.
const retentionKPIWindow = 8

// CalculateKPIs derives the four headline metrics. Rows are assumed
// chronologically ascending; latest and previous are taken from the end.
func CalculateKPIs(
	totalStaked []dune.TotalStakedRow,
	weeklyStats []dune.WeeklyStatsRow,
	weeklyNewStakers []dune.WeeklyNewStakersRow,
	cohorts []dune.CohortRetentionRow,
) []KPI {
	kpis := make([]KPI, 0, 4)

	// Total staked: the source precomputes the daily change percent.
	staked := KPI{Label: "Total LINGO Staked", Format: "number", Suffix: " LINGO", Trend: TrendNeutral}
	if n := len(totalStaked); n > 0 {
		staked.Value = totalStaked[n-1].TotalStaked
		if n > 1 {
			staked.PreviousValue = totalStaked[n-2].TotalStaked
			staked.Trend = direction(staked.Value, staked.PreviousValue)
			if pct := totalStaked[n-1].ChangePct; pct != nil {
				staked.TrendValue = *pct
			}
		}
	}
	kpis = append(kpis, staked)

	active := KPI{Label: "Active Stakers", Format: "number", Trend: TrendNeutral}
	if n := len(weeklyStats); n > 0 {
		active.Value = float64(weeklyStats[n-1].ActiveStakers)
		if n > 1 {
			active.PreviousValue = float64(weeklyStats[n-2].ActiveStakers)
			active.Trend = direction(active.Value, active.PreviousValue)
			active.TrendValue = percentDelta(active.Value, active.PreviousValue)
		}
	}
	kpis = append(kpis, active)

	fresh := KPI{Label: "New This Week", Format: "number", Trend: TrendNeutral}
	if n := len(weeklyNewStakers); n > 0 {
		fresh.Value = float64(weeklyNewStakers[n-1].NewStakers)
		if n > 1 {
			fresh.PreviousValue = float64(weeklyNewStakers[n-2].NewStakers)
			fresh.Trend = direction(fresh.Value, fresh.PreviousValue)
			fresh.TrendValue = percentDelta(fresh.Value, fresh.PreviousValue)
		}
	}
	kpis = append(kpis, fresh)

	retention := KPI{Label: "Retention Rate", Format: "percent", Trend: TrendNeutral}
	current := averageRetention(tail(cohorts, retentionKPIWindow, 0))
	previous := averageRetention(tail(cohorts, retentionKPIWindow, retentionKPIWindow))
	retention.Value = current
	retention.PreviousValue = previous
	if len(cohorts) > retentionKPIWindow {
		retention.Trend = direction(current, previous)
		retention.TrendValue = percentDelta(current, previous)
	}
	kpis = append(kpis, retention)

	return kpis
}

// direction compares two values; equal means neutral.
func direction(current, previous float64) Trend {
	switch {
	case current > previous:
		return TrendUp
	case current < previous:
		return TrendDown
	default:
		return TrendNeutral
	}
}

// percentDelta is (current-previous)/previous*100, 0 on a zero base.
func percentDelta(current, previous float64) float64 {
	if previous == 0 {
		return 0
	}
	return (current - previous) / previous * 100
}

// tail returns the window of n elements ending skip elements from the
// end, clipped to what exists.
func tail(rows []dune.CohortRetentionRow, n, skip int) []dune.CohortRetentionRow {
	end := len(rows) - skip
	if end <= 0 {
		return nil
	}
	start := end - n
	if start < 0 {
		start = 0
	}
	return rows[start:end]
}

// averageRetention is the unweighted mean of the per-cohort retained
// percentages; 0 for an empty window. Note the monthly rollups in
// retention.go weight by cohort size; this headline KPI does not.
func averageRetention(rows []dune.CohortRetentionRow) float64 {
	if len(rows) == 0 {
		return 0
	}
	var sum float64
	for _, r := range rows {
		pct, err := strconv.ParseFloat(r.PctRetained, 64)
		if err != nil {
			continue
		}
		sum += pct
	}
	return sum / float64(len(rows))
}
