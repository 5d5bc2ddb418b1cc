// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/api and cmd/minaretctl.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Table names — single source of truth, matches schema.sql
// --------------------------------------------------------------------------

const (
	DevicesTable        = "devices"
	DeviceSettingsTable = "device_settings"
	LikedAyahsTable     = "liked_ayahs"
	LastReadTable       = "quran_last_read"
	AdhanTriggersTable  = "adhan_triggers"
)

// --------------------------------------------------------------------------
// Config struct — populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Database
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration

	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	Debug       bool

	// CORS
	CORSAllowOrigins []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Provider endpoints
	AlAdhanBaseURL  string
	AlQuranBaseURL  string
	OverpassBaseURL string
	HadithBaseURL   string

	// Provider rate limit (requests per minute, shared default)
	ProviderRequestsPerMinute int

	// Push notifications
	FCMCredentialsFile string

	// Adhan scheduler — the location the background worker watches.
	AdhanEnabled   bool
	AdhanLatitude  float64
	AdhanLongitude float64
	AdhanMethod    int
	AdhanSchool    int
	AdhanTimezone  string

	// Cache
	CacheEnabled bool
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	dbURL := envOr("DATABASE_URL", envOr("NEON_DATABASE_URL", ""))
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL or NEON_DATABASE_URL must be set")
	}

	return &Config{
		DatabaseURL:    dbURL,
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 2),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 10),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 8000)),
		Environment: envOr("ENVIRONMENT", "development"),
		Debug:       envBool("DEBUG", false),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:4321",
			"http://localhost:5173",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		AlAdhanBaseURL:  envOr("ALADHAN_BASE_URL", "https://api.aladhan.com/v1"),
		AlQuranBaseURL:  envOr("ALQURAN_BASE_URL", "https://api.alquran.cloud/v1"),
		OverpassBaseURL: envOr("OVERPASS_BASE_URL", "https://overpass-api.de/api/interpreter"),
		HadithBaseURL:   envOr("HADITH_BASE_URL", "https://random-hadith-generator.vercel.app"),

		ProviderRequestsPerMinute: envInt("PROVIDER_REQUESTS_PER_MINUTE", 60),

		FCMCredentialsFile: envOr("FIREBASE_CREDENTIALS_FILE", ""),

		AdhanEnabled:   envBool("ADHAN_ENABLED", false),
		AdhanLatitude:  envFloat("ADHAN_LATITUDE", 0),
		AdhanLongitude: envFloat("ADHAN_LONGITUDE", 0),
		AdhanMethod:    envInt("ADHAN_METHOD", 2),
		AdhanSchool:    envInt("ADHAN_SCHOOL", 0),
		AdhanTimezone:  envOr("ADHAN_TIMEZONE", "UTC"),

		CacheEnabled: envBool("CACHE_ENABLED", true),
	}, nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
