// Package aladhan wraps the AlAdhan public API: daily prayer timings, Hijri
// calendar months, and the qibla cross-check endpoint.
//
// Endpoints are unauthenticated; a token bucket limiter keeps us polite.
package aladhan

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/minaretapp/minaret-data/internal/prayer"
)

// Client is the HTTP client for all AlAdhan endpoints.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	logger     *slog.Logger

	// Day-level memo for the adhan worker: it re-asks for the same
	// timetable every minute, and the upstream answer only changes at
	// midnight.
	mu   sync.Mutex
	days map[string]prayer.Timetable
}

// NewClient creates an AlAdhan HTTP client with rate limiting.
func NewClient(baseURL string, requestsPerMinute int, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	rps := float64(requestsPerMinute) / 60.0
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		logger:     logger,
		days:       make(map[string]prayer.Timetable),
	}
}

// envelope is the common AlAdhan response wrapper.
type envelope struct {
	Code   int             `json:"code"`
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

// get performs a rate-limited GET request to an AlAdhan endpoint.
func (c *Client) get(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("aladhan %s returned %d: %s", path, resp.StatusCode, truncate(body, 200))
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if env.Code != http.StatusOK {
		return nil, fmt.Errorf("aladhan %s: code %d (%s)", path, env.Code, env.Status)
	}

	return env.Data, nil
}

// truncate returns a truncated string representation for error messages.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
