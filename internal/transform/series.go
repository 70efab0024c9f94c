package transform

import (
	"github.com/Adnankhaledd/lingo-staking-dashboard/internal/dune"
)

// TrendPoint is one day of the staking trend chart.
type TrendPoint struct {
	Date   string  `json:"date"`
	Volume float64 `json:"volume"`
	Change float64 `json:"change"`
}

// StakingTrend maps daily total-staked rows to chart points.
func StakingTrend(rows []dune.TotalStakedRow) []TrendPoint {
	if len(rows) == 0 {
		return []TrendPoint{}
	}
	out := make([]TrendPoint, len(rows))
	for i, r := range rows {
		out[i] = TrendPoint{
			Date:   ParseDuneDate(r.Day),
			Volume: r.TotalStaked,
			Change: r.ChangeFromYesterday,
		}
	}
	return out
}

// TVLPoint is one week of TVL and staker counts.
type TVLPoint struct {
	Week    string  `json:"week"`
	TVL     float64 `json:"tvl"`
	Stakers int     `json:"stakers"`
}

// WeeklyTVL maps weekly stats rows to chart points.
func WeeklyTVL(rows []dune.WeeklyStatsRow) []TVLPoint {
	if len(rows) == 0 {
		return []TVLPoint{}
	}
	out := make([]TVLPoint, len(rows))
	for i, r := range rows {
		out[i] = TVLPoint{
			Week:    ParseDuneDate(r.Week),
			TVL:     r.TotalTVL,
			Stakers: r.ActiveStakers,
		}
	}
	return out
}

// CohortSplit is one week of new versus returning stakers.
type CohortSplit struct {
	Week             string `json:"week"`
	NewStakers       int    `json:"newStakers"`
	ReturningStakers int    `json:"returningStakers"`
}

// NewVsReturning joins weekly new-staker counts with weekly active
// totals; returning is the non-negative remainder. Weeks without a
// matching stats row fall back to the new-staker count alone.
func NewVsReturning(newStakers []dune.WeeklyNewStakersRow, stats []dune.WeeklyStatsRow) []CohortSplit {
	if len(newStakers) == 0 || len(stats) == 0 {
		return []CohortSplit{}
	}

	totals := make(map[string]int, len(stats))
	for _, s := range stats {
		totals[ParseDuneDate(s.Week)] = s.ActiveStakers
	}

	out := make([]CohortSplit, len(newStakers))
	for i, r := range newStakers {
		week := ParseDuneDate(r.Week)
		total, ok := totals[week]
		if !ok {
			total = r.NewStakers
		}
		returning := total - r.NewStakers
		if returning < 0 {
			returning = 0
		}
		out[i] = CohortSplit{Week: week, NewStakers: r.NewStakers, ReturningStakers: returning}
	}
	return out
}

// StakesPoint is one week of staking transaction counts.
type StakesPoint struct {
	Week          string `json:"week"`
	Stakes        int    `json:"stakes"`
	UniqueStakers int    `json:"uniqueStakers"`
}

// WeeklyStakesSeries maps weekly stake-count rows to chart points.
func WeeklyStakesSeries(rows []dune.WeeklyStakesRow) []StakesPoint {
	if len(rows) == 0 {
		return []StakesPoint{}
	}
	out := make([]StakesPoint, len(rows))
	for i, r := range rows {
		out[i] = StakesPoint{
			Week:          ParseDuneDate(r.Week),
			Stakes:        r.Stakes,
			UniqueStakers: r.UniqueStakers,
		}
	}
	return out
}
