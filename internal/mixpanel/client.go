package mixpanel

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/Adnankhaledd/lingo-staking-dashboard/internal/metrics"
)

// ErrMissingSecret is returned before any network attempt when the
// client was built without an API secret.
var ErrMissingSecret = errors.New("mixpanel API secret not configured")

// StatusError is a non-2xx response from the Mixpanel API.
type StatusError struct {
	Endpoint string
	Code     int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("mixpanel %s API status: %d", e.Endpoint, e.Code)
}

// UniqueUnit selects the bucketing of the events endpoint.
type UniqueUnit string

const (
	UnitWeek  UniqueUnit = "week"
	UnitMonth UniqueUnit = "month"
)

// WalletConnectedEvent is the fixed event name behind the WAU/MAU
// counts. Summing its per-bucket values over a trailing window is an
// approximation, not a deduplicated unique count.
const WalletConnectedEvent = "Wallet Connected"

// Client talks to the Mixpanel export API with a server-held secret.
type Client struct {
	client    *http.Client
	baseURL   string
	secret    string
	projectID string
	reportID  string
	logger    *slog.Logger
	now       func() time.Time
}

func NewClient(baseURL, secret, projectID, reportID string, logger *slog.Logger) *Client {
	return &Client{
		client:    &http.Client{Timeout: 15 * time.Second},
		baseURL:   baseURL,
		secret:    secret,
		projectID: projectID,
		reportID:  reportID,
		logger:    logger,
		now:       time.Now,
	}
}

func (c *Client) authHeader() string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(c.secret+":"))
}

func (c *Client) get(ctx context.Context, endpoint, rawURL string) ([]byte, error) {
	if c.secret == "" {
		return nil, ErrMissingSecret
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build mixpanel request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", c.authHeader())

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.MixpanelFetchTotal.WithLabelValues(endpoint, "error").Inc()
		return nil, fmt.Errorf("mixpanel API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.MixpanelFetchTotal.WithLabelValues(endpoint, "error").Inc()
		return nil, &StatusError{Endpoint: endpoint, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.MixpanelFetchTotal.WithLabelValues(endpoint, "error").Inc()
		return nil, fmt.Errorf("read mixpanel response: %w", err)
	}
	metrics.MixpanelFetchTotal.WithLabelValues(endpoint, "success").Inc()
	return body, nil
}

// InsightsReport fetches the saved DAU insights report verbatim.
func (c *Client) InsightsReport(ctx context.Context) ([]byte, error) {
	u := fmt.Sprintf("%s/insights?project_id=%s&bookmark_id=%s",
		c.baseURL, url.QueryEscape(c.projectID), url.QueryEscape(c.reportID))
	return c.get(ctx, "insights", u)
}

// EventCounts fetches per-bucket counts for the named events over a
// trailing window of days, verbatim.
func (c *Client) EventCounts(ctx context.Context, events []string, unit UniqueUnit, days int) ([]byte, error) {
	eventsJSON, err := json.Marshal(events)
	if err != nil {
		return nil, fmt.Errorf("encode event names: %w", err)
	}

	to := c.now()
	from := to.AddDate(0, 0, -days)

	params := url.Values{}
	params.Set("project_id", c.projectID)
	params.Set("event", string(eventsJSON))
	params.Set("type", "unique")
	params.Set("unit", string(unit))
	params.Set("from_date", from.Format("2006-01-02"))
	params.Set("to_date", to.Format("2006-01-02"))

	return c.get(ctx, "events", c.baseURL+"/events?"+params.Encode())
}
