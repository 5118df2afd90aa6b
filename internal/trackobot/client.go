// Package trackobot is a client for the Track-o-Bot game history API.
package trackobot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/ramonehamilton/preordain/internal/games"
)

const (
	// DefaultBaseURL is the public Track-o-Bot endpoint.
	DefaultBaseURL = "https://trackobot.com"

	historyPath = "/profile/history.json"

	// DefaultTimeout bounds a single HTTP request.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRetries is the number of retries after a transient failure.
	DefaultMaxRetries = 3

	// DefaultFailureThreshold opens the breaker after this many consecutive failures.
	DefaultFailureThreshold = 5

	// DefaultBreakerTimeout is how long the breaker stays open.
	DefaultBreakerTimeout = 30 * time.Second

	maxBodyBytes = 32 << 20
)

// DefaultRateLimit is one request per second.
var DefaultRateLimit = rate.Every(1 * time.Second)

// ClientOptions configures the history client.
type ClientOptions struct {
	// BaseURL of the service (default: DefaultBaseURL)
	BaseURL string

	// RateLimit controls request frequency (default: 1 req/second)
	RateLimit rate.Limit

	// Timeout for HTTP requests (default: 30 seconds)
	Timeout time.Duration

	// MaxRetries after a transient failure (default: 3, negative disables)
	MaxRetries int

	// InitialBackoff is the first retry delay (default: 500ms)
	InitialBackoff time.Duration

	// FailureThreshold opens the circuit breaker (default: 5)
	FailureThreshold uint32

	// BreakerTimeout is how long an open breaker rejects calls (default: 30s)
	BreakerTimeout time.Duration

	// HTTPClient allows a custom HTTP client
	HTTPClient *http.Client

	// Logger receives retry and breaker events
	Logger zerolog.Logger
}

// DefaultClientOptions returns conservative default options.
func DefaultClientOptions() ClientOptions {
	return ClientOptions{
		BaseURL:          DefaultBaseURL,
		RateLimit:        DefaultRateLimit,
		Timeout:          DefaultTimeout,
		MaxRetries:       DefaultMaxRetries,
		InitialBackoff:   500 * time.Millisecond,
		FailureThreshold: DefaultFailureThreshold,
		BreakerTimeout:   DefaultBreakerTimeout,
		Logger:           zerolog.Nop(),
	}
}

// Client fetches pages of game history.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[*HistoryPage]
	maxRetries int
	initial    time.Duration
	log        zerolog.Logger

	stats   ClientStats
	statsMu sync.RWMutex
}

// NewClient creates a history client. Zero option values take defaults.
func NewClient(options ClientOptions) *Client {
	defaults := DefaultClientOptions()
	if options.BaseURL == "" {
		options.BaseURL = defaults.BaseURL
	}
	if options.RateLimit == 0 {
		options.RateLimit = defaults.RateLimit
	}
	if options.Timeout == 0 {
		options.Timeout = defaults.Timeout
	}
	if options.MaxRetries == 0 {
		options.MaxRetries = defaults.MaxRetries
	}
	if options.InitialBackoff == 0 {
		options.InitialBackoff = defaults.InitialBackoff
	}
	if options.FailureThreshold == 0 {
		options.FailureThreshold = defaults.FailureThreshold
	}
	if options.BreakerTimeout == 0 {
		options.BreakerTimeout = defaults.BreakerTimeout
	}

	httpClient := options.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: options.Timeout}
	}

	c := &Client{
		baseURL:    strings.TrimRight(options.BaseURL, "/"),
		httpClient: httpClient,
		limiter:    rate.NewLimiter(options.RateLimit, 1),
		maxRetries: options.MaxRetries,
		initial:    options.InitialBackoff,
		log:        options.Logger.With().Str("component", "trackobot").Logger(),
	}

	threshold := options.FailureThreshold
	c.breaker = gobreaker.NewCircuitBreaker[*HistoryPage](gobreaker.Settings{
		Name:    "trackobot-history",
		Timeout: options.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// Client mistakes say nothing about the health of the service.
		IsSuccessful: func(err error) bool {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return !apiErr.Temporary()
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})

	return c
}

// FetchPage fetches one page (1-based) of the account's game history.
// Transient failures are retried with exponential backoff.
func (c *Client) FetchPage(ctx context.Context, username, token string, page int) (*HistoryPage, error) {
	if username == "" || token == "" {
		return nil, &APIError{Type: ErrInvalidParams, Message: "username and token are required"}
	}
	if page < 1 {
		return nil, &APIError{Type: ErrInvalidParams, Message: fmt.Sprintf("invalid page %d", page)}
	}

	query := url.Values{}
	query.Set("username", username)
	query.Set("token", token)
	query.Set("page", strconv.Itoa(page))
	fullURL := c.baseURL + historyPath + "?" + query.Encode()

	var result *HistoryPage
	operation := func() error {
		res, err := c.breaker.Execute(func() (*HistoryPage, error) {
			return c.doRequest(ctx, fullURL)
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return backoff.Permanent(&APIError{Type: ErrCircuitOpen, Message: "history service circuit open", Err: err})
		}
		if err != nil {
			var apiErr *APIError
			if errors.As(err, &apiErr) && apiErr.Temporary() && ctx.Err() == nil {
				return err
			}
			return backoff.Permanent(err)
		}
		result = res
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.initial
	policy.MaxElapsedTime = 0
	var b backoff.BackOff
	if c.maxRetries > 0 {
		b = backoff.WithMaxRetries(policy, uint64(c.maxRetries))
	} else {
		b = &backoff.StopBackOff{}
	}

	notify := func(err error, wait time.Duration) {
		c.updateStats(func(s *ClientStats) { s.Retries++ })
		c.log.Warn().Err(err).Int("page", page).Dur("retry_in", wait).Msg("history request failed, retrying")
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(b, ctx), notify); err != nil {
		return nil, err
	}

	return result, nil
}

// doRequest performs a single rate-limited request.
func (c *Client) doRequest(ctx context.Context, fullURL string) (*HistoryPage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &APIError{Type: ErrRateLimited, Message: "rate limiter error", Err: err}
	}

	c.updateStats(func(s *ClientStats) {
		s.TotalRequests++
		s.LastRequestTime = time.Now()
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, &APIError{Type: ErrInvalidParams, Message: "failed to create request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "preordain/1.0")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(start)
	if err != nil {
		c.recordFailure()
		// The URL carries the token, so only the cause is kept.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, &APIError{Type: ErrUnavailable, Message: "failed to execute request", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		c.recordFailure()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, statusError(resp.StatusCode, body)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		c.recordFailure()
		return nil, &APIError{Type: ErrUnavailable, Message: "failed to read response body", Err: err}
	}

	page, err := decodePage(body)
	if err != nil {
		c.recordFailure()
		return nil, &APIError{Type: ErrParseError, Message: "failed to parse history response", Err: err}
	}

	c.recordSuccess(latency)
	return page, nil
}

// historyResponse defers decoding of individual games so that one
// mistyped record cannot fail the whole page.
type historyResponse struct {
	History []json.RawMessage `json:"history"`
	Meta    Meta              `json:"meta"`
}

func decodePage(body []byte) (*HistoryPage, error) {
	var resp historyResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}

	page := &HistoryPage{
		History: make([]games.RawRecord, len(resp.History)),
		Meta:    resp.Meta,
	}
	for i, raw := range resp.History {
		page.History[i] = games.DecodeRecord(raw)
	}
	return page, nil
}

func statusError(code int, body []byte) *APIError {
	msg := fmt.Sprintf("unexpected status code: %d, body: %s", code, strings.TrimSpace(string(body)))
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return &APIError{Type: ErrUnauthorized, StatusCode: code, Message: msg}
	case code == http.StatusTooManyRequests:
		return &APIError{Type: ErrRateLimited, StatusCode: code, Message: msg}
	case code >= 500:
		return &APIError{Type: ErrUnavailable, StatusCode: code, Message: msg}
	default:
		return &APIError{Type: ErrInvalidParams, StatusCode: code, Message: msg}
	}
}

func (c *Client) recordFailure() {
	c.updateStats(func(s *ClientStats) {
		s.FailedRequests++
		s.LastFailureTime = time.Now()
		s.ConsecutiveErrors++
	})
}

func (c *Client) recordSuccess(latency time.Duration) {
	c.updateStats(func(s *ClientStats) {
		s.LastSuccessTime = time.Now()
		s.ConsecutiveErrors = 0
		if s.AverageLatency == 0 {
			s.AverageLatency = latency
		} else {
			s.AverageLatency = (s.AverageLatency + latency) / 2
		}
	})
}

func (c *Client) updateStats(fn func(*ClientStats)) {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	fn(&c.stats)
}

// Stats returns a copy of the current client statistics.
func (c *Client) Stats() ClientStats {
	c.statsMu.RLock()
	defer c.statsMu.RUnlock()
	return c.stats
}

// BreakerState reports the circuit breaker state for diagnostics.
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}
