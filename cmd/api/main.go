// Command api is the Minaret Data API server.
//
// Usage:
//
//	minaret-api
//	API_PORT=8080 minaret-api

// @title Minaret Data API
// @version 1.0.0
// @description Prayer times, qibla bearing, Quran verse playback, nearby mosques, and Hijri calendar for the Minaret companion app.
// @host localhost:8000
// @BasePath /api/v1
// @schemes http https
// @contact.name Minaret
// @license.name MIT
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/minaretapp/minaret-data/internal/adhan"
	"github.com/minaretapp/minaret-data/internal/api"
	"github.com/minaretapp/minaret-data/internal/api/handler"
	"github.com/minaretapp/minaret-data/internal/cache"
	"github.com/minaretapp/minaret-data/internal/config"
	"github.com/minaretapp/minaret-data/internal/db"
	"github.com/minaretapp/minaret-data/internal/notifications"
	"github.com/minaretapp/minaret-data/internal/playback"
	"github.com/minaretapp/minaret-data/internal/provider/aladhan"
	"github.com/minaretapp/minaret-data/internal/provider/alquran"
	"github.com/minaretapp/minaret-data/internal/provider/hadith"
	"github.com/minaretapp/minaret-data/internal/provider/overpass"

	_ "github.com/minaretapp/minaret-data/docs" // swagger docs
)

const maxPlaybackSessions = 1000

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// Connect to database
	logger.Info("Connecting to database...")
	pool, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("Database connected",
		"min_conns", cfg.DBPoolMinConns,
		"max_conns", cfg.DBPoolMaxConns)

	// Initialize cache
	appCache := cache.New(cfg.CacheEnabled)
	logger.Info("Cache initialized", "enabled", cfg.CacheEnabled)

	// Upstream clients
	providers := handler.Providers{
		AlAdhan:  aladhan.NewClient(cfg.AlAdhanBaseURL, cfg.ProviderRequestsPerMinute, logger),
		AlQuran:  alquran.NewClient(cfg.AlQuranBaseURL, cfg.ProviderRequestsPerMinute, logger),
		Overpass: overpass.NewClient(cfg.OverpassBaseURL, cfg.ProviderRequestsPerMinute, logger),
		Hadith:   hadith.NewClient(cfg.HadithBaseURL, cfg.ProviderRequestsPerMinute, logger),
	}

	// FCM sender (nil when FIREBASE_CREDENTIALS_FILE is unset)
	fcmSender, err := notifications.NewFCMSender(ctx, cfg.FCMCredentialsFile, logger)
	if err != nil {
		logger.Error("Failed to initialize FCM", "error", err)
		os.Exit(1)
	}

	// Adhan scheduler: fires the prayer-time push once per (prayer, day)
	if cfg.AdhanEnabled {
		if fcmSender == nil {
			logger.Warn("Adhan scheduler enabled without FCM credentials; pushes will be dropped")
		}
		scheduler := adhan.NewScheduler(adhan.Options{
			Latitude:  cfg.AdhanLatitude,
			Longitude: cfg.AdhanLongitude,
			Method:    cfg.AdhanMethod,
			School:    cfg.AdhanSchool,
			Timezone:  cfg.AdhanTimezone,
		}, adhan.NewPGStore(pool.Pool), providers.AlAdhan, pool, fcmSender, logger)
		go scheduler.Run(ctx)
	} else {
		logger.Info("Adhan scheduler disabled (ADHAN_ENABLED=false)")
	}

	// Live playback sessions
	sessions := playback.NewRegistry(maxPlaybackSessions)

	// Create router
	router := api.NewRouter(pool, appCache, cfg, providers, sessions)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting Minaret Data API",
			"addr", addr,
			"environment", cfg.Environment,
			"docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}
