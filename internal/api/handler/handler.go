// Package handler provides HTTP handlers for all API endpoints.
// Deterministic math (qibla, next-prayer) runs locally; everything sourced
// from an upstream goes through the TTL cache with ETag revalidation.
package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/paulmach/orb"

	"github.com/minaretapp/minaret-data/internal/api/respond"
	"github.com/minaretapp/minaret-data/internal/cache"
	"github.com/minaretapp/minaret-data/internal/config"
	"github.com/minaretapp/minaret-data/internal/db"
	"github.com/minaretapp/minaret-data/internal/geo"
	"github.com/minaretapp/minaret-data/internal/playback"
	"github.com/minaretapp/minaret-data/internal/provider/aladhan"
	"github.com/minaretapp/minaret-data/internal/provider/alquran"
	"github.com/minaretapp/minaret-data/internal/provider/hadith"
	"github.com/minaretapp/minaret-data/internal/provider/overpass"
)

// Providers bundles the upstream clients the handlers depend on.
type Providers struct {
	AlAdhan  *aladhan.Client
	AlQuran  *alquran.Client
	Overpass *overpass.Client
	Hadith   *hadith.Client
}

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	pool      *db.Pool
	cache     *cache.Cache
	cfg       *config.Config
	providers Providers
	sessions  *playback.Registry
}

// New creates a Handler with shared dependencies.
func New(pool *db.Pool, c *cache.Cache, cfg *config.Config, p Providers, sessions *playback.Registry) *Handler {
	return &Handler{
		pool:      pool,
		cache:     c,
		cfg:       cfg,
		providers: p,
		sessions:  sessions,
	}
}

// Root serves API info at /.
// @Summary API root info
// @Description Returns API name, version, and status.
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"name":    "Minaret Data API",
		"version": "1.0.0",
		"status":  "running",
		"docs":    "/docs",
	})
}

// HealthCheck returns basic health status.
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity.
// @Summary Database health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/db [get]
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if err := h.pool.HealthCheck(r.Context()); err != nil {
		respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "unhealthy",
			"database":  "disconnected",
			"error":     "Database connection check failed",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckCache returns cache statistics.
// @Summary Cache health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health/cache [get]
func (h *Handler) HealthCheckCache(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"cache":     h.cache.Stats(),
		"sessions":  h.sessions.Len(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// --------------------------------------------------------------------------
// Shared query parsing
// --------------------------------------------------------------------------

// coordParam parses lat/lon query parameters into a validated point.
// Writes a 400 and returns ok=false on failure.
func coordParam(w http.ResponseWriter, r *http.Request) (orb.Point, bool) {
	lat, err1 := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, err2 := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if err1 != nil || err2 != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_COORDINATES", "lat and lon query parameters are required numbers")
		return orb.Point{}, false
	}
	p, err := geo.NewCoordinate(lat, lon)
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "INVALID_COORDINATES", "coordinates out of range", err.Error())
		return orb.Point{}, false
	}
	return p, true
}

// intParam parses an optional integer query parameter.
func intParam(r *http.Request, name string, fallback int) int {
	if v := r.URL.Query().Get(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// strParam returns an optional string query parameter with a fallback.
func strParam(r *http.Request, name, fallback string) string {
	if v := r.URL.Query().Get(name); v != "" {
		return v
	}
	return fallback
}
