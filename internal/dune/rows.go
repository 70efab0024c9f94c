package dune

// Saved query IDs on Dune for the Lingo staking dashboard.
const (
	QueryTotalStakedTrend   = "6590984"
	QueryWeeklyStats        = "6534908"
	QueryWeeklyNewStakers   = "6535206"
	QueryCohortRetention    = "6528806"
	QueryStakingTiers       = "6560698"
	QueryUnlockSchedule     = "6543709"
	QueryTopStakers         = "6632385"
	QueryTradingFees        = "6288543"
	QueryAPYClaims          = "6606898"
	QueryMonthlyStakingFlow = "6535334"
	QueryWeeklyStakes       = "6693660"
	QueryLPFees             = "6693715"
)

// RefreshQueryIDs is the fixed set re-executed by the scheduled refresh.
var RefreshQueryIDs = []string{
	QueryTotalStakedTrend,
	QueryWeeklyStats,
	QueryWeeklyNewStakers,
	QueryCohortRetention,
	QueryTopStakers,
	QueryTradingFees,
	QueryAPYClaims,
	QueryMonthlyStakingFlow,
	QueryWeeklyStakes,
	QueryLPFees,
}

// One row struct per saved query. Dates come back as strings like
// "2024-12-11 00:00:00.000 UTC"; transform.ParseDuneDate trims them.

// TotalStakedRow is one day of the total-staked trend query.
type TotalStakedRow struct {
	Day                 string   `json:"day"`
	TotalStaked         float64  `json:"total_staked"`
	ChangeFromYesterday float64  `json:"change_from_yesterday"`
	ChangePct           *float64 `json:"change_pct"`
}

// WeeklyStatsRow is one week of active stakers and TVL.
type WeeklyStatsRow struct {
	Week          string  `json:"week"`
	ActiveStakers int     `json:"active_stakers"`
	TotalTVL      float64 `json:"total_tvl"`
}

// WeeklyNewStakersRow counts first-time stakers per week.
type WeeklyNewStakersRow struct {
	Week       string `json:"week"`
	NewStakers int    `json:"new_stakers"`
}

// CohortRetentionRow describes one weekly cohort. The pct_* columns are
// strings in the Dune result set.
type CohortRetentionRow struct {
	CohortWeek      string `json:"cohort_week"`
	CohortSize      int    `json:"cohort_size"`
	NeverUnstaked   int    `json:"never_unstaked"`
	Partial         int    `json:"partial"`
	FullyExited     int    `json:"fully_exited"`
	PctDiamondHands string `json:"pct_diamond_hands"`
	PctPartial      string `json:"pct_partial"`
	PctChurned      string `json:"pct_churned"`
	PctRetained     string `json:"pct_retained"`
}

// TopStakerRow is one leaderboard entry. Wallet addresses arrive
// zero-padded after the 0x prefix.
type TopStakerRow struct {
	Rank        int     `json:"rank"`
	Wallet      string  `json:"wallet"`
	LingoStaked float64 `json:"lingo_staked"`
	USDValue    float64 `json:"usd_value"`
	PctOfTotal  float64 `json:"pct_of_total"`
}

// TradingFeesRow is one month of collected trading fees.
type TradingFeesRow struct {
	Month           string  `json:"month"`
	TotalLingo      float64 `json:"total_lingo"`
	AvgPriceUSD     float64 `json:"avg_price_usd"`
	USDValue        float64 `json:"usd_value"`
	CumulativeLingo float64 `json:"cumulative_lingo"`
	CumulativeUSD   float64 `json:"cumulative_usd"`
}

// LPFeesRow is one month of LP fees, shaped like TradingFeesRow.
type LPFeesRow struct {
	Month           string  `json:"month"`
	TotalLingo      float64 `json:"total_lingo"`
	AvgPriceUSD     float64 `json:"avg_price_usd"`
	USDValue        float64 `json:"usd_value"`
	CumulativeLingo float64 `json:"cumulative_lingo"`
	CumulativeUSD   float64 `json:"cumulative_usd"`
}

// APYClaimsRow is one month of APY reward claims.
type APYClaimsRow struct {
	Month           string  `json:"month"`
	NumTransfers    int     `json:"num_transfers"`
	LingoOut        float64 `json:"lingo_out"`
	USDValue        float64 `json:"usd_value"`
	AvgTransferSize float64 `json:"avg_transfer_size"`
}

// MonthlyStakingFlowRow is one month of stake/unstake volume.
type MonthlyStakingFlowRow struct {
	Month    string  `json:"month"`
	StakedIn float64 `json:"staked_in"`
	Unstaked float64 `json:"unstaked"`
	NetFlow  float64 `json:"net_flow"`
}

// WeeklyStakesRow counts staking transactions per week.
type WeeklyStakesRow struct {
	Week          string `json:"week"`
	Stakes        int    `json:"stakes"`
	UniqueStakers int    `json:"unique_stakers"`
}

// StakingTierRow is one tier of the staking tiers breakdown.
type StakingTierRow struct {
	Tier     string  `json:"tier"`
	LockType string  `json:"lock_type"`
	Users    int     `json:"users"`
	AvgUSD   float64 `json:"avg_usd"`
	TotalUSD float64 `json:"total_usd"`
}

// UnlockScheduleRow is one day of the token unlock schedule.
type UnlockScheduleRow struct {
	UnlockDay             string  `json:"unlock_day"`
	DailyUnlockLingo      float64 `json:"daily_unlock_lingo"`
	CumulativeUnlockLingo float64 `json:"cumulative_unlock_lingo"`
}
