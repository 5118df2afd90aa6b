package trackobot

import (
	"time"

	"github.com/ramonehamilton/preordain/internal/games"
)

// HistoryPage is one page of the history endpoint.
type HistoryPage struct {
	History []games.RawRecord `json:"history"`
	Meta    Meta              `json:"meta"`
}

// Meta describes the pagination state of a history response.
type Meta struct {
	CurrentPage int  `json:"current_page"`
	NextPage    *int `json:"next_page"`
	PrevPage    *int `json:"prev_page"`
	TotalPages  *int `json:"total_pages"`
	TotalItems  int  `json:"total_items"`
}

// TotalPages returns the number of pages; a missing value means one page.
func (p *HistoryPage) TotalPages() int {
	if p.Meta.TotalPages == nil || *p.Meta.TotalPages < 1 {
		return 1
	}
	return *p.Meta.TotalPages
}

// TotalItems returns the number of games the service reports for the account.
func (p *HistoryPage) TotalItems() int {
	return p.Meta.TotalItems
}

// ClientStats tracks history client statistics.
type ClientStats struct {
	TotalRequests     int
	FailedRequests    int
	Retries           int
	AverageLatency    time.Duration
	LastRequestTime   time.Time
	LastSuccessTime   time.Time
	LastFailureTime   time.Time
	ConsecutiveErrors int
}

// Error types for the history API.
const (
	ErrUnauthorized  = "unauthorized"
	ErrUnavailable   = "unavailable"
	ErrRateLimited   = "rate_limited"
	ErrInvalidParams = "invalid_params"
	ErrParseError    = "parse_error"
	ErrCircuitOpen   = "circuit_open"
)

// APIError represents an error from the history API.
type APIError struct {
	Type       string
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Temporary reports whether retrying the request may succeed.
func (e *APIError) Temporary() bool {
	return e.Type == ErrUnavailable || e.Type == ErrRateLimited
}
