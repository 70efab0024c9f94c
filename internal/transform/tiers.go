package transform

import (
	"github.com/Adnankhaledd/lingo-staking-dashboard/internal/dune"
)

// TierPoint is one slice of the staking tiers breakdown.
type TierPoint struct {
	Tier     string  `json:"tier"`
	LockType string  `json:"lockType"`
	Users    int     `json:"users"`
	AvgUSD   float64 `json:"avgUsd"`
	TotalUSD float64 `json:"totalUsd"`
}

// TiersBreakdown maps staking tier rows to chart slices.
func TiersBreakdown(rows []dune.StakingTierRow) []TierPoint {
	if len(rows) == 0 {
		return []TierPoint{}
	}
	out := make([]TierPoint, len(rows))
	for i, r := range rows {
		out[i] = TierPoint{
			Tier:     r.Tier,
			LockType: r.LockType,
			Users:    r.Users,
			AvgUSD:   r.AvgUSD,
			TotalUSD: r.TotalUSD,
		}
	}
	return out
}

// UnlockPoint is one day of the token unlock schedule.
type UnlockPoint struct {
	Day        string  `json:"day"`
	Daily      float64 `json:"daily"`
	Cumulative float64 `json:"cumulative"`
}

// UnlockSchedule maps unlock schedule rows to chart points.
func UnlockSchedule(rows []dune.UnlockScheduleRow) []UnlockPoint {
	if len(rows) == 0 {
		return []UnlockPoint{}
	}
	out := make([]UnlockPoint, len(rows))
	for i, r := range rows {
		out[i] = UnlockPoint{
			Day:        ParseDuneDate(r.UnlockDay),
			Daily:      r.DailyUnlockLingo,
			Cumulative: r.CumulativeUnlockLingo,
		}
	}
	return out
}
