package riot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const (
	// DefaultPlatform is the routing value used by the v3 endpoints
	DefaultPlatform = "na1"

	defaultTimeout = 30 * time.Second
)

// Endpoint names, used for metrics labels and error messages
const (
	EndpointSummoner        = "summoner"
	EndpointChampionMastery = "champion-mastery"
	EndpointLeague          = "league"
	EndpointPosition        = "position"
	EndpointMasteries       = "masteries"
	EndpointMatchList       = "matchlist"
	EndpointMatch           = "match"
	EndpointStatus          = "status"
)

// PlatformURL returns the API host for a platform routing value
func PlatformURL(platform string) string {
	return fmt.Sprintf("https://%s.api.riotgames.com", platform)
}

// Client is a paced Riot API client. The API key is injected at construction and
// never read from process state.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *limiter
	breaker    *gobreaker.CircuitBreaker
	logger     *zap.SugaredLogger
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL sets a custom base URL (useful for testing)
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithPlatform points the client at another platform host
func WithPlatform(platform string) Option {
	return func(c *Client) {
		if platform != "" {
			c.baseURL = PlatformURL(platform)
		}
	}
}

// WithTimeout sets a custom timeout for every request
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithRateLimit overrides the per-second and per-two-minute request budgets.
// A non-positive value disables that window.
func WithRateLimit(perSecond, per2Min int) Option {
	return func(c *Client) {
		c.limiter = newLimiter(perSecond, per2Min)
	}
}

// WithLogger sets the logger used for transport events
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger.Sugar()
	}
}

// NewClient creates a new Riot API client for the given key
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key cannot be empty")
	}

	c := &Client{
		apiKey:  apiKey,
		baseURL: PlatformURL(DefaultPlatform),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		limiter: newLimiter(defaultRequestsPerSecond, defaultRequestsPer2Min),
		logger:  zap.NewNop().Sugar(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "riot-api",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		IsSuccessful: func(err error) bool {
			// A missing summoner or a caller that gave up says nothing about API health
			return err == nil || errors.Is(err, ErrNotFound) ||
				errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			c.logger.Warnw("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return c, nil
}

// doRequest makes a paced GET request for path and decodes the JSON body into result
func (c *Client) doRequest(ctx context.Context, endpoint, path string, result interface{}) error {
	url := c.baseURL + path

	if err := c.limiter.Wait(ctx); err != nil {
		return &TransportError{Endpoint: endpoint, URL: url, Err: err}
	}

	start := time.Now()
	status := 0
	_, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("X-Riot-Token", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		status = resp.StatusCode
		if resp.StatusCode != http.StatusOK {
			return nil, statusError(resp.StatusCode)
		}

		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		return nil, nil
	})

	requestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	requestsTotal.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()

	if err != nil {
		c.logger.Debugw("request failed", "endpoint", endpoint, "status", status, "error", err)
		return &TransportError{Endpoint: endpoint, URL: url, Status: status, Err: err}
	}
	return nil
}

// GetSummonerByName fetches the summoner behind a display name
func (c *Client) GetSummonerByName(ctx context.Context, name string) (*SummonerResponse, error) {
	var summoner SummonerResponse
	if err := c.doRequest(ctx, EndpointSummoner, summonerPath(name), &summoner); err != nil {
		return nil, err
	}
	return &summoner, nil
}

// GetMatchList fetches the match list of an account
func (c *Client) GetMatchList(ctx context.Context, accountID string) (*MatchList, error) {
	var list MatchList
	if err := c.doRequest(ctx, EndpointMatchList, matchListPath(accountID), &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// GetMatch fetches full match details
func (c *Client) GetMatch(ctx context.Context, gameID int64) (*Match, error) {
	var match Match
	if err := c.doRequest(ctx, EndpointMatch, matchPath(gameID), &match); err != nil {
		return nil, err
	}
	return &match, nil
}
