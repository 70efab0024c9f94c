package transform

import (
	"github.com/Adnankhaledd/lingo-staking-dashboard/internal/dune"
)

// FeesPoint is one month of collected fees.
type FeesPoint struct {
	Month string  `json:"month"`
	Fees  float64 `json:"fees"`
	Lingo float64 `json:"lingo"`
}

// MonthlyFees maps trading-fee rows to chart points.
func MonthlyFees(rows []dune.TradingFeesRow) []FeesPoint {
	if len(rows) == 0 {
		return []FeesPoint{}
	}
	out := make([]FeesPoint, len(rows))
	for i, r := range rows {
		out[i] = FeesPoint{
			Month: MonthLabel(r.Month),
			Fees:  r.USDValue,
			Lingo: r.TotalLingo,
		}
	}
	return out
}

// CumulativePoint is the running fee total as of a month.
type CumulativePoint struct {
	Month      string  `json:"month"`
	Cumulative float64 `json:"cumulative"`
}

// CumulativeFees maps trading-fee rows to the running-total series.
func CumulativeFees(rows []dune.TradingFeesRow) []CumulativePoint {
	if len(rows) == 0 {
		return []CumulativePoint{}
	}
	out := make([]CumulativePoint, len(rows))
	for i, r := range rows {
		out[i] = CumulativePoint{Month: MonthLabel(r.Month), Cumulative: r.CumulativeUSD}
	}
	return out
}

// TotalFees sums the protocol's fee streams. Each side is the latest
// cumulative USD value of its series, 0 when the series is empty.
type TotalFees struct {
	Trading float64 `json:"trading"`
	LP      float64 `json:"lp"`
	Total   float64 `json:"total"`
}

// CombinedFees folds trading and LP fee rows into grand totals.
func CombinedFees(trading []dune.TradingFeesRow, lp []dune.LPFeesRow) TotalFees {
	var t TotalFees
	if n := len(trading); n > 0 {
		t.Trading = trading[n-1].CumulativeUSD
	}
	if n := len(lp); n > 0 {
		t.LP = lp[n-1].CumulativeUSD
	}
	t.Total = t.Trading + t.LP
	return t
}

// ClaimsPoint is one month of APY reward claims.
type ClaimsPoint struct {
	Month    string  `json:"month"`
	Claims   int     `json:"claims"`
	Lingo    float64 `json:"lingo"`
	USD      float64 `json:"usd"`
	AvgClaim float64 `json:"avgClaim"`
}

// APYClaims maps claim rows to chart points.
func APYClaims(rows []dune.APYClaimsRow) []ClaimsPoint {
	if len(rows) == 0 {
		return []ClaimsPoint{}
	}
	out := make([]ClaimsPoint, len(rows))
	for i, r := range rows {
		out[i] = ClaimsPoint{
			Month:    MonthLabel(r.Month),
			Claims:   r.NumTransfers,
			Lingo:    r.LingoOut,
			USD:      r.USDValue,
			AvgClaim: r.AvgTransferSize,
		}
	}
	return out
}

// ClaimsTotals aggregates claims across all months.
type ClaimsTotals struct {
	TotalClaims int     `json:"totalClaims"`
	TotalLingo  float64 `json:"totalLingo"`
	TotalUSD    float64 `json:"totalUsd"`
}

// APYClaimsTotals sums claim rows; zero-valued for empty input.
func APYClaimsTotals(rows []dune.APYClaimsRow) ClaimsTotals {
	var t ClaimsTotals
	for _, r := range rows {
		t.TotalClaims += r.NumTransfers
		t.TotalLingo += r.LingoOut
		t.TotalUSD += r.USDValue
	}
	return t
}
