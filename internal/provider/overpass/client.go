// Package overpass finds nearby mosques via the Overpass API, ranked by
// great-circle distance from the requested point.
package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"golang.org/x/time/rate"

	"github.com/minaretapp/minaret-data/internal/geo"
)

const (
	// DefaultRadiusMeters bounds the search when the caller does not say.
	DefaultRadiusMeters = 5000
	// MaxRadiusMeters keeps Overpass queries from timing out.
	MaxRadiusMeters = 20000

	queryTimeoutSeconds = 25
)

// Mosque is one ranked search result.
type Mosque struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	DistanceKm float64 `json:"distance_km"`
	Address    string  `json:"address,omitempty"`
}

// Client is the HTTP client for the Overpass interpreter endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates an Overpass client. Overpass is a shared community
// resource, so the limiter here matters more than elsewhere.
func NewClient(baseURL string, requestsPerMinute int, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	rps := float64(requestsPerMinute) / 60.0
	return &Client{
		httpClient: &http.Client{Timeout: 40 * time.Second},
		baseURL:    baseURL,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		logger:     logger,
	}
}

type overpassResponse struct {
	Elements []struct {
		ID     int64   `json:"id"`
		Lat    float64 `json:"lat"`
		Lon    float64 `json:"lon"`
		Center *struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"center"`
		Tags map[string]string `json:"tags"`
	} `json:"elements"`
}

// Nearby finds mosques within radiusMeters of a point, nearest first.
func (c *Client) Nearby(ctx context.Context, from orb.Point, radiusMeters int) ([]Mosque, error) {
	if radiusMeters <= 0 {
		radiusMeters = DefaultRadiusMeters
	}
	if radiusMeters > MaxRadiusMeters {
		radiusMeters = MaxRadiusMeters
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	query := buildQuery(from, radiusMeters)
	form := url.Values{"data": {query}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("overpass request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("overpass returned %d: %s", resp.StatusCode, truncate(body, 200))
	}

	var result overpassResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode overpass response: %w", err)
	}

	mosques := make([]Mosque, 0, len(result.Elements))
	for _, el := range result.Elements {
		lat, lon := el.Lat, el.Lon
		if el.Center != nil { // ways carry coordinates on .center
			lat, lon = el.Center.Lat, el.Center.Lon
		}
		at, err := geo.NewCoordinate(lat, lon)
		if err != nil {
			continue
		}

		m := Mosque{
			ID:         el.ID,
			Name:       el.Tags["name"],
			Latitude:   lat,
			Longitude:  lon,
			DistanceKm: geo.HaversineKm(from, at),
			Address:    formatAddress(el.Tags),
		}
		if m.Name == "" {
			m.Name = "Mosque"
		}
		mosques = append(mosques, m)
	}

	sort.Slice(mosques, func(i, j int) bool {
		return mosques[i].DistanceKm < mosques[j].DistanceKm
	})
	return mosques, nil
}

// buildQuery assembles the Overpass QL for muslim places of worship around a
// point, covering both node and way elements.
func buildQuery(from orb.Point, radiusMeters int) string {
	lat, lon := from.Lat(), from.Lon()
	return fmt.Sprintf(`[out:json][timeout:%d];
(
  node["amenity"="place_of_worship"]["religion"="muslim"](around:%d,%f,%f);
  way["amenity"="place_of_worship"]["religion"="muslim"](around:%d,%f,%f);
);
out center;`, queryTimeoutSeconds, radiusMeters, lat, lon, radiusMeters, lat, lon)
}

func formatAddress(tags map[string]string) string {
	parts := make([]string, 0, 3)
	if v := tags["addr:street"]; v != "" {
		if num := tags["addr:housenumber"]; num != "" {
			v = num + " " + v
		}
		parts = append(parts, v)
	}
	if v := tags["addr:city"]; v != "" {
		parts = append(parts, v)
	}
	return strings.Join(parts, ", ")
}

func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
