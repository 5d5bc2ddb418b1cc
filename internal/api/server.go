package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	corslib "github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/minaretapp/minaret-data/internal/api/handler"
	"github.com/minaretapp/minaret-data/internal/cache"
	"github.com/minaretapp/minaret-data/internal/config"
	"github.com/minaretapp/minaret-data/internal/db"
	"github.com/minaretapp/minaret-data/internal/playback"
)

// NewRouter creates and configures the Chi router with all middleware and routes.
func NewRouter(pool *db.Pool, appCache *cache.Cache, cfg *config.Config, providers handler.Providers, sessions *playback.Registry) *chi.Mux {
	r := chi.NewRouter()

	// --- Middleware stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(TimingMiddleware)
	r.Use(middleware.Compress(5)) // gzip

	// CORS
	c := corslib.New(corslib.Options{
		AllowedOrigins:   cfg.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "HEAD", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Encoding", "Content-Type", "If-None-Match", "Cache-Control"},
		ExposedHeaders:   []string{"X-Process-Time", "X-Cache", "Link", "ETag"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	// Rate limiting
	if cfg.RateLimitEnabled {
		r.Use(RateLimitMiddleware(cfg.RateLimitRequests, cfg.RateLimitWindow))
	}

	// --- Handler dependencies ---
	h := handler.New(pool, appCache, cfg, providers, sessions)

	// --- Routes ---

	// Root
	r.Get("/", h.Root)

	// Health checks
	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.HealthCheck)
		r.Get("/db", h.HealthCheckDB)
		r.Get("/cache", h.HealthCheckCache)
	})

	// Swagger UI
	r.Get("/docs/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/doc.json"),
	))

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Qibla
		r.Get("/qibla", h.GetQibla)
		r.Get("/qibla/compass", h.GetQiblaCompass)

		// Prayer times + calendar
		r.Get("/prayers", h.GetPrayers)
		r.Get("/calendar", h.GetCalendar)

		// Mosques
		r.Get("/mosques", h.GetMosques)

		// Quran
		r.Get("/quran", h.ListSurahs)
		r.Get("/quran/{surah}", h.GetSurahPage)

		// Hadith
		r.Get("/hadith/daily", h.GetDailyHadith)

		// Playback sessions
		r.Route("/playback", func(r chi.Router) {
			r.Post("/", h.CreatePlayback)
			r.Get("/{id}", h.GetPlayback)
			r.Delete("/{id}", h.DeletePlayback)
			r.Post("/{id}/seek", h.PlaybackSeek)
			r.Post("/{id}/{action}", h.PlaybackAction)
		})

		// Device state
		r.Route("/devices", func(r chi.Router) {
			r.Post("/", h.RegisterDevice)
			r.Get("/{id}/settings", h.GetSettings)
			r.Put("/{id}/settings", h.PutSettings)
			r.Put("/{id}/reciter", h.PutReciter)
			r.Get("/{id}/likes", h.ListLikes)
			r.Post("/{id}/likes/{key}", h.AddLike)
			r.Delete("/{id}/likes/{key}", h.RemoveLike)
			r.Get("/{id}/last-read", h.GetLastRead)
			r.Put("/{id}/last-read", h.PutLastRead)
		})
	})

	return r
}
