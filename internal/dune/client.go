package dune

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/Adnankhaledd/lingo-staking-dashboard/internal/cache"
	"github.com/Adnankhaledd/lingo-staking-dashboard/internal/metrics"
)

const defaultLimit = 1000

// Error taxonomy for a single fetch cycle. All are terminal; there is
// no retry beyond an explicit refresh.
var (
	// ErrMissingAPIKey is returned before any network attempt when the
	// client was built without an API key.
	ErrMissingAPIKey = errors.New("dune API key not configured")

	// ErrNotFinished is returned when the server-side execution has not
	// completed. The client does not poll; the scheduled refresh keeps
	// executions warm so results are normally ready.
	ErrNotFinished = errors.New("query execution not finished")
)

// StatusError is a non-2xx response from the Dune API.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("dune API status: %d", e.Code)
}

// QueryError is a failed server-side execution.
type QueryError struct {
	QueryID string
	Message string
}

func (e *QueryError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("query %s failed", e.QueryID)
	}
	return fmt.Sprintf("query %s failed: %s", e.QueryID, e.Message)
}

// queryResponse mirrors the results endpoint body.
type queryResponse struct {
	ExecutionID         string `json:"execution_id"`
	QueryID             int    `json:"query_id"`
	IsExecutionFinished bool   `json:"is_execution_finished"`
	State               string `json:"state"`
	Result              *struct {
		Rows     []json.RawMessage `json:"rows"`
		Metadata struct {
			ColumnNames   []string `json:"column_names"`
			RowCount      int      `json:"row_count"`
			TotalRowCount int      `json:"total_row_count"`
		} `json:"metadata"`
	} `json:"result"`
	Error string `json:"error"`
}

const stateFailed = "QUERY_STATE_FAILED"

// Client reads saved query results from the Dune API, caching each
// result set for cache.TTL under its query ID. Concurrent fetches for
// the same query are not deduplicated; the last cache write wins.
type Client struct {
	client  *http.Client
	baseURL string
	apiKey  string
	cache   *cache.Cache
	logger  *slog.Logger
}

func NewClient(baseURL, apiKey string, c *cache.Cache, logger *slog.Logger) *Client {
	return &Client{
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: baseURL,
		apiKey:  apiKey,
		cache:   c,
		logger:  logger,
	}
}

// Options controls a single fetch.
type Options struct {
	// Limit caps the number of rows requested. Zero means the default.
	Limit int
	// Force bypasses the cache and overwrites it on success.
	Force bool
}

// Rows fetches the latest result rows for queryID decoded as T.
// A valid cache entry short-circuits the network call unless forced.
func Rows[T any](ctx context.Context, c *Client, queryID string, opts Options) ([]T, error) {
	key := cache.QueryKey(queryID)

	if !opts.Force {
		if raw, ok := c.cache.Get(ctx, key); ok {
			var rows []T
			if err := json.Unmarshal(raw, &rows); err == nil {
				metrics.CacheReadsTotal.WithLabelValues("dune", "hit").Inc()
				return rows, nil
			}
		}
		metrics.CacheReadsTotal.WithLabelValues("dune", "miss").Inc()
	}

	raw, err := c.fetchRows(ctx, queryID, opts.Limit)
	if err != nil {
		return nil, err
	}

	rows := make([]T, 0, len(raw))
	for _, r := range raw {
		var row T
		if err := json.Unmarshal(r, &row); err != nil {
			return nil, fmt.Errorf("decode query %s row: %w", queryID, err)
		}
		rows = append(rows, row)
	}

	c.cache.Set(ctx, key, rows)
	return rows, nil
}

func (c *Client) fetchRows(ctx context.Context, queryID string, limit int) ([]json.RawMessage, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if limit <= 0 {
		limit = defaultLimit
	}

	start := time.Now()
	url := fmt.Sprintf("%s/query/%s/results?limit=%d", c.baseURL, queryID, limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build dune request: %w", err)
	}
	req.Header.Set("X-Dune-API-Key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.DuneFetchTotal.WithLabelValues(queryID, "error").Inc()
		return nil, fmt.Errorf("dune API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.DuneFetchTotal.WithLabelValues(queryID, "error").Inc()
		return nil, &StatusError{Code: resp.StatusCode}
	}

	var body queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		metrics.DuneFetchTotal.WithLabelValues(queryID, "error").Inc()
		return nil, fmt.Errorf("decode dune response: %w", err)
	}

	if body.State == stateFailed {
		metrics.DuneFetchTotal.WithLabelValues(queryID, "failed").Inc()
		return nil, &QueryError{QueryID: queryID, Message: body.Error}
	}
	if !body.IsExecutionFinished {
		metrics.DuneFetchTotal.WithLabelValues(queryID, "unfinished").Inc()
		return nil, fmt.Errorf("query %s: %w", queryID, ErrNotFinished)
	}

	metrics.DuneFetchTotal.WithLabelValues(queryID, "success").Inc()
	metrics.DuneFetchDuration.WithLabelValues(queryID).Observe(time.Since(start).Seconds())

	if body.Result == nil {
		return []json.RawMessage{}, nil
	}
	return body.Result.Rows, nil
}

// Typed accessors, one per dashboard section.

func (c *Client) TotalStakedTrend(ctx context.Context, force bool) ([]TotalStakedRow, error) {
	return Rows[TotalStakedRow](ctx, c, QueryTotalStakedTrend, Options{Force: force})
}

func (c *Client) WeeklyStats(ctx context.Context, force bool) ([]WeeklyStatsRow, error) {
	return Rows[WeeklyStatsRow](ctx, c, QueryWeeklyStats, Options{Force: force})
}

func (c *Client) WeeklyNewStakers(ctx context.Context, force bool) ([]WeeklyNewStakersRow, error) {
	return Rows[WeeklyNewStakersRow](ctx, c, QueryWeeklyNewStakers, Options{Force: force})
}

func (c *Client) CohortRetention(ctx context.Context, force bool) ([]CohortRetentionRow, error) {
	return Rows[CohortRetentionRow](ctx, c, QueryCohortRetention, Options{Force: force})
}

func (c *Client) TopStakers(ctx context.Context, force bool) ([]TopStakerRow, error) {
	return Rows[TopStakerRow](ctx, c, QueryTopStakers, Options{Limit: 50, Force: force})
}

func (c *Client) TradingFees(ctx context.Context, force bool) ([]TradingFeesRow, error) {
	return Rows[TradingFeesRow](ctx, c, QueryTradingFees, Options{Force: force})
}

func (c *Client) LPFees(ctx context.Context, force bool) ([]LPFeesRow, error) {
	return Rows[LPFeesRow](ctx, c, QueryLPFees, Options{Force: force})
}

func (c *Client) APYClaims(ctx context.Context, force bool) ([]APYClaimsRow, error) {
	return Rows[APYClaimsRow](ctx, c, QueryAPYClaims, Options{Force: force})
}

func (c *Client) MonthlyStakingFlow(ctx context.Context, force bool) ([]MonthlyStakingFlowRow, error) {
	return Rows[MonthlyStakingFlowRow](ctx, c, QueryMonthlyStakingFlow, Options{Force: force})
}

func (c *Client) StakingTiers(ctx context.Context, force bool) ([]StakingTierRow, error) {
	return Rows[StakingTierRow](ctx, c, QueryStakingTiers, Options{Force: force})
}

func (c *Client) UnlockSchedule(ctx context.Context, force bool) ([]UnlockScheduleRow, error) {
	return Rows[UnlockScheduleRow](ctx, c, QueryUnlockSchedule, Options{Force: force})
}

func (c *Client) WeeklyStakes(ctx context.Context, force bool) ([]WeeklyStakesRow, error) {
	return Rows[WeeklyStakesRow](ctx, c, QueryWeeklyStakes, Options{Force: force})
}

// RefreshResult is the outcome of re-executing one saved query.
type RefreshResult struct {
	QueryID string `json:"queryId"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// RefreshAll re-executes every query in RefreshQueryIDs in parallel and
// reports per-query outcomes. Individual failures never fail the batch.
func (c *Client) RefreshAll(ctx context.Context) []RefreshResult {
	results := make([]RefreshResult, len(RefreshQueryIDs))

	var wg sync.WaitGroup
	for i, id := range RefreshQueryIDs {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			results[i] = c.execute(ctx, id)
		}(i, id)
	}
	wg.Wait()

	ok := 0
	for _, r := range results {
		if r.Success {
			ok++
		}
	}
	c.logger.Info("dune refresh complete", "ok", ok, "total", len(results))
	metrics.RefreshLastSuccessCount.Set(float64(ok))
	return results
}

func (c *Client) execute(ctx context.Context, queryID string) RefreshResult {
	if c.apiKey == "" {
		return RefreshResult{QueryID: queryID, Error: ErrMissingAPIKey.Error()}
	}

	url := fmt.Sprintf("%s/query/%s/execute", c.baseURL, queryID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return RefreshResult{QueryID: queryID, Error: err.Error()}
	}
	req.Header.Set("X-Dune-API-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return RefreshResult{QueryID: queryID, Error: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return RefreshResult{QueryID: queryID, Error: fmt.Sprintf("HTTP %d", resp.StatusCode)}
	}
	return RefreshResult{QueryID: queryID, Success: true}
}
