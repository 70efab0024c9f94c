package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/Adnankhaledd/lingo-staking-dashboard/internal/dune"
	"github.com/Adnankhaledd/lingo-staking-dashboard/internal/mixpanel"
	"github.com/Adnankhaledd/lingo-staking-dashboard/internal/transform"
)

// DashboardResponse is the full shaped dashboard payload. Sections whose
// sources failed are null, with the failure listed under errors; the
// response itself always succeeds.
type DashboardResponse struct {
	KPIs              []transform.KPI                    `json:"kpis,omitempty"`
	StakingTrend      []transform.TrendPoint             `json:"stakingTrend,omitempty"`
	WeeklyTVL         []transform.TVLPoint               `json:"weeklyTVL,omitempty"`
	NewVsReturning    []transform.CohortSplit            `json:"newVsReturning,omitempty"`
	MonthlyRetention  []transform.MonthlyRetention       `json:"monthlyRetention,omitempty"`
	MonthlyComparison []transform.MonthlyComparisonPoint `json:"monthlyComparison,omitempty"`
	MonthlyFlow       []transform.FlowPoint              `json:"monthlyFlow,omitempty"`
	WeeklyStakes      []transform.StakesPoint            `json:"weeklyStakes,omitempty"`
	MonthlyFees       []transform.FeesPoint              `json:"monthlyFees,omitempty"`
	CumulativeFees    []transform.CumulativePoint        `json:"cumulativeFees,omitempty"`
	TotalFees         *transform.TotalFees               `json:"totalFees,omitempty"`
	APYClaims         []transform.ClaimsPoint            `json:"apyClaims,omitempty"`
	APYClaimsTotals   *transform.ClaimsTotals            `json:"apyClaimsTotals,omitempty"`
	StakingTiers      []transform.TierPoint              `json:"stakingTiers,omitempty"`
	UnlockSchedule    []transform.UnlockPoint            `json:"unlockSchedule,omitempty"`
	TopStakers        []transform.StakerEntry            `json:"topStakers,omitempty"`
	Activity          *mixpanel.ActivityMetrics          `json:"activity,omitempty"`
	Errors            map[string]string                  `json:"errors,omitempty"`
	GeneratedAt       string                             `json:"generatedAt"`
}

// dashboardSources holds everything the dashboard pulls upstream, each
// source carrying its own error.
type dashboardSources struct {
	totalStaked    []dune.TotalStakedRow
	totalStakedErr error

	weeklyStats    []dune.WeeklyStatsRow
	weeklyStatsErr error

	newStakers    []dune.WeeklyNewStakersRow
	newStakersErr error

	cohorts    []dune.CohortRetentionRow
	cohortsErr error

	topStakers    []dune.TopStakerRow
	topStakersErr error

	tradingFees    []dune.TradingFeesRow
	tradingFeesErr error

	lpFees    []dune.LPFeesRow
	lpFeesErr error

	claims    []dune.APYClaimsRow
	claimsErr error

	flow    []dune.MonthlyStakingFlowRow
	flowErr error

	stakes    []dune.WeeklyStakesRow
	stakesErr error

	tiers    []dune.StakingTierRow
	tiersErr error

	unlocks    []dune.UnlockScheduleRow
	unlocksErr error

	activity    *mixpanel.ActivityMetrics
	activityErr error
}

// Dashboard assembles the complete dashboard payload from the query and
// analytics clients. Every source is fetched in parallel; a failed
// source nulls its sections without failing the request. refresh=1
// bypasses the cache on every source.
func Dashboard(client *dune.Client, agg *mixpanel.Aggregator, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		force := r.URL.Query().Get("refresh") == "1"

		src := fetchSources(ctx, client, agg, force)
		resp := assemble(src)
		resp.GeneratedAt = time.Now().UTC().Format(time.RFC3339)

		for section, msg := range resp.Errors {
			logger.Warn("dashboard section failed", "section", section, "error", msg)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func fetchSources(ctx context.Context, client *dune.Client, agg *mixpanel.Aggregator, force bool) *dashboardSources {
	src := &dashboardSources{}

	var wg sync.WaitGroup
	run := func(fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
		}()
	}

	run(func() { src.totalStaked, src.totalStakedErr = client.TotalStakedTrend(ctx, force) })
	run(func() { src.weeklyStats, src.weeklyStatsErr = client.WeeklyStats(ctx, force) })
	run(func() { src.newStakers, src.newStakersErr = client.WeeklyNewStakers(ctx, force) })
	run(func() { src.cohorts, src.cohortsErr = client.CohortRetention(ctx, force) })
	run(func() { src.topStakers, src.topStakersErr = client.TopStakers(ctx, force) })
	run(func() { src.tradingFees, src.tradingFeesErr = client.TradingFees(ctx, force) })
	run(func() { src.lpFees, src.lpFeesErr = client.LPFees(ctx, force) })
	run(func() { src.claims, src.claimsErr = client.APYClaims(ctx, force) })
	run(func() { src.flow, src.flowErr = client.MonthlyStakingFlow(ctx, force) })
	run(func() { src.stakes, src.stakesErr = client.WeeklyStakes(ctx, force) })
	run(func() { src.tiers, src.tiersErr = client.StakingTiers(ctx, force) })
	run(func() { src.unlocks, src.unlocksErr = client.UnlockSchedule(ctx, force) })
	run(func() { src.activity, src.activityErr = agg.ActivityMetrics(ctx, force) })

	wg.Wait()
	return src
}

func assemble(src *dashboardSources) *DashboardResponse {
	resp := &DashboardResponse{Errors: map[string]string{}}
	fail := func(section string, err error) {
		resp.Errors[section] = err.Error()
	}

	switch {
	case src.totalStakedErr != nil:
		fail("kpis", src.totalStakedErr)
	case src.weeklyStatsErr != nil:
		fail("kpis", src.weeklyStatsErr)
	case src.newStakersErr != nil:
		fail("kpis", src.newStakersErr)
	case src.cohortsErr != nil:
		fail("kpis", src.cohortsErr)
	default:
		resp.KPIs = transform.CalculateKPIs(src.totalStaked, src.weeklyStats, src.newStakers, src.cohorts)
	}

	if src.totalStakedErr != nil {
		fail("stakingTrend", src.totalStakedErr)
		fail("monthlyComparison", src.totalStakedErr)
	} else {
		resp.StakingTrend = transform.StakingTrend(src.totalStaked)
		resp.MonthlyComparison = transform.MonthlyComparison(src.totalStaked)
	}

	if src.weeklyStatsErr != nil {
		fail("weeklyTVL", src.weeklyStatsErr)
	} else {
		resp.WeeklyTVL = transform.WeeklyTVL(src.weeklyStats)
	}

	switch {
	case src.newStakersErr != nil:
		fail("newVsReturning", src.newStakersErr)
	case src.weeklyStatsErr != nil:
		fail("newVsReturning", src.weeklyStatsErr)
	default:
		resp.NewVsReturning = transform.NewVsReturning(src.newStakers, src.weeklyStats)
	}

	if src.cohortsErr != nil {
		fail("monthlyRetention", src.cohortsErr)
	} else {
		resp.MonthlyRetention = transform.RetentionByMonth(src.cohorts)
	}

	if src.flowErr != nil {
		fail("monthlyFlow", src.flowErr)
	} else {
		resp.MonthlyFlow = transform.MonthlyFlow(src.flow)
	}

	if src.stakesErr != nil {
		fail("weeklyStakes", src.stakesErr)
	} else {
		resp.WeeklyStakes = transform.WeeklyStakesSeries(src.stakes)
	}

	if src.tradingFeesErr != nil {
		fail("fees", src.tradingFeesErr)
	} else {
		resp.MonthlyFees = transform.MonthlyFees(src.tradingFees)
		resp.CumulativeFees = transform.CumulativeFees(src.tradingFees)
		if src.lpFeesErr != nil {
			fail("totalFees", src.lpFeesErr)
		} else {
			total := transform.CombinedFees(src.tradingFees, src.lpFees)
			resp.TotalFees = &total
		}
	}

	if src.claimsErr != nil {
		fail("apyClaims", src.claimsErr)
	} else {
		resp.APYClaims = transform.APYClaims(src.claims)
		totals := transform.APYClaimsTotals(src.claims)
		resp.APYClaimsTotals = &totals
	}

	if src.tiersErr != nil {
		fail("stakingTiers", src.tiersErr)
	} else {
		resp.StakingTiers = transform.TiersBreakdown(src.tiers)
	}

	if src.unlocksErr != nil {
		fail("unlockSchedule", src.unlocksErr)
	} else {
		resp.UnlockSchedule = transform.UnlockSchedule(src.unlocks)
	}

	if src.topStakersErr != nil {
		fail("topStakers", src.topStakersErr)
	} else {
		resp.TopStakers = transform.TopStakers(src.topStakers)
	}

	if src.activityErr != nil {
		fail("activity", src.activityErr)
	} else {
		resp.Activity = src.activity
	}

	if len(resp.Errors) == 0 {
		resp.Errors = nil
	}
	return resp
}
