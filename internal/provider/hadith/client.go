// Package hadith fetches a random hadith from the public random-hadith
// generator. Thin facade; one endpoint per collection.
package hadith

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// DefaultBook is the collection used when the caller does not pick one.
const DefaultBook = "bukhari"

var knownBooks = map[string]struct{}{
	"bukhari": {}, "muslim": {}, "abudawud": {}, "ibnmajah": {}, "tirmidhi": {},
}

// Hadith is one fetched narration.
type Hadith struct {
	Book    string `json:"book"`
	Chapter string `json:"chapter,omitempty"`
	Header  string `json:"header,omitempty"`
	Text    string `json:"text"`
	RefNo   string `json:"ref_no,omitempty"`
}

// Client is the HTTP client for the hadith endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a hadith client with rate limiting.
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
	}
}

type hadithResponse struct {
	Data struct {
		Book          string `json:"book"`
		ChapterName   string `json:"bookName"`
		Header        string `json:"header"`
		HadithEnglish string `json:"hadith_english"`
		RefNo         string `json:"refno"`
	} `json:"data"`
}

// Random fetches one random hadith from the named collection. Unknown book
// names fall back to the default rather than erroring; the upstream 404s on
// anything else.
func (c *Client) Random(ctx context.Context, book string) (*Hadith, error) {
	book = strings.ToLower(strings.TrimSpace(book))
	if _, ok := knownBooks[book]; !ok {
		book = DefaultBook
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/hadith/"+book, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("hadith request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("hadith %s returned %d", book, resp.StatusCode)
	}

	var result hadithResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode hadith: %w", err)
	}

	text := strings.TrimSpace(result.Data.HadithEnglish)
	if text == "" {
		return nil, fmt.Errorf("hadith %s: empty text in response", book)
	}

	return &Hadith{
		Book:    book,
		Chapter: strings.TrimSpace(result.Data.ChapterName),
		Header:  strings.TrimSpace(result.Data.Header),
		Text:    text,
		RefNo:   strings.TrimSpace(result.Data.RefNo),
	}, nil
}
