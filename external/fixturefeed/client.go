package fixturefeed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/pitchside/lastman/internal/domain/fixture"
	"github.com/pitchside/lastman/internal/platform/logging"
	"github.com/pitchside/lastman/internal/platform/resilience"
	"github.com/pitchside/lastman/internal/usecase"
)

const (
	defaultBaseURL = "https://api.football-data-hub.io/v2"
	dateParamLayout = "2006-01-02"
)

var apiTokenParamRegex = regexp.MustCompile(`api_token=[^&\s"']+`)
var errFeedTransient = crerr.New("fixture feed transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Token          string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client fetches fixtures and full-time results from the upstream football
// data provider. Identical concurrent lookups are collapsed into one request.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	token          string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		token:          strings.TrimSpace(cfg.Token),
		maxRetries:     maxInt(cfg.MaxRetries, 0),
		logger:         logger,
		breaker:        resilience.NewCircuitBreakerFromConfig(cfg.CircuitBreaker),
		circuitEnabled: cfg.CircuitBreaker.Enabled,
	}
}

type fixturesEnvelope struct {
	Data []feedFixture `json:"data"`
}

type feedFixture struct {
	ID        string `json:"id"`
	Season    string `json:"season"`
	HomeTeam  string `json:"home_team"`
	AwayTeam  string `json:"away_team"`
	KickoffAt string `json:"kickoff_at"`
	Status    string `json:"status"`
	HomeScore *int   `json:"home_score"`
	AwayScore *int   `json:"away_score"`
}

// FixturesBetween lists one competition's fixtures with kickoff in [from, to).
func (c *Client) FixturesBetween(ctx context.Context, countryCode, competitionID string, from, to time.Time) ([]fixture.Fixture, error) {
	countryCode = strings.TrimSpace(countryCode)
	competitionID = strings.TrimSpace(competitionID)
	if countryCode == "" || competitionID == "" {
		return nil, fmt.Errorf("country code and competition id are required")
	}
	if !to.After(from) {
		return nil, fmt.Errorf("invalid window: from=%s to=%s", from, to)
	}

	path := fmt.Sprintf("/competitions/%s/%s/fixtures", url.PathEscape(countryCode), url.PathEscape(competitionID))
	var envelope fixturesEnvelope
	if err := c.doJSON(ctx, path, map[string]string{
		"from": from.UTC().Format(dateParamLayout),
		"to":   to.UTC().Format(dateParamLayout),
	}, &envelope); err != nil {
		return nil, fmt.Errorf("fetch fixtures %s/%s: %w", countryCode, competitionID, err)
	}

	out := make([]fixture.Fixture, 0, len(envelope.Data))
	for _, item := range envelope.Data {
		if strings.TrimSpace(item.ID) == "" {
			continue
		}
		kickoff, err := time.Parse(time.RFC3339, item.KickoffAt)
		if err != nil {
			c.logger.WarnContext(ctx, "skipping fixture with bad kickoff timestamp",
				"fixture_id", item.ID,
				"kickoff_at", item.KickoffAt,
			)
			continue
		}
		out = append(out, fixture.Fixture{
			ID:            item.ID,
			CountryCode:   countryCode,
			CompetitionID: competitionID,
			Season:        item.Season,
			HomeTeam:      item.HomeTeam,
			AwayTeam:      item.AwayTeam,
			KickoffAt:     kickoff.UTC(),
			Status:        item.Status,
			HomeScore:     item.HomeScore,
			AwayScore:     item.AwayScore,
		})
	}

	return out, nil
}

func (c *Client) doJSON(ctx context.Context, path string, query map[string]string, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "fixture feed circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("%w: fixture feed is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	values := url.Values{}
	for key, value := range query {
		values.Set(key, value)
	}
	values.Set("api_token", c.token)

	fullURL := c.baseURL + path + "?" + values.Encode()

	key := path + "?" + values.Encode()
	out, err, _ := c.flight.Do(key, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && crerr.Is(reqErr, errFeedTransient) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return err
	}

	raw, ok := out.([]byte)
	if !ok {
		return fmt.Errorf("unexpected response payload type %T", out)
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode feed payload: %w", err)
	}

	return nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %s", errFeedTransient, sanitizeSensitiveText(err.Error(), c.token))
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 6<<20))
			_ = resp.Body.Close()
			if readErr != nil {
				lastErr = fmt.Errorf("%w: read response body: %v", errFeedTransient, readErr)
			} else if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return raw, nil
			} else if isRetryableStatus(resp.StatusCode) {
				lastErr = fmt.Errorf("%w: feed status=%d body=%s", errFeedTransient, resp.StatusCode, abbreviateBody(raw))
			} else {
				return nil, fmt.Errorf("feed status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("feed request failed")
	}
	c.logger.WarnContext(ctx, "fixture feed request failed", "url", redactAPIURL(fullURL), "error", lastErr)
	return nil, lastErr
}

func isRetryableStatus(statusCode int) bool {
	return statusCode == http.StatusRequestTimeout ||
		statusCode == http.StatusTooManyRequests ||
		statusCode >= http.StatusInternalServerError
}

func sanitizeSensitiveText(value, token string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	if token != "" {
		value = strings.ReplaceAll(value, token, "REDACTED")
	}
	return apiTokenParamRegex.ReplaceAllString(value, "api_token=REDACTED")
}

func redactAPIURL(raw string) string {
	return apiTokenParamRegex.ReplaceAllString(raw, "api_token=REDACTED")
}

func abbreviateBody(raw []byte) string {
	const max = 512
	text := strings.TrimSpace(string(raw))
	if len(text) <= max {
		return text
	}
	return text[:max] + "..."
}

func maxInt(left, right int) int {
	if left > right {
		return left
	}
	return right
}
