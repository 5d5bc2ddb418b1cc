// Package db provides a pgxpool-based connection pool with prepared statement
// registration and health checking.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/minaretapp/minaret-data/internal/config"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// ActiveTokens lists the push tokens of devices subscribed to the adhan
// feed. Implements the adhan scheduler's TokenSource.
func (p *Pool) ActiveTokens(ctx context.Context) ([]string, error) {
	rows, err := p.Query(ctx, "device_tokens_active")
	if err != nil {
		return nil, fmt.Errorf("list active tokens: %w", err)
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan token: %w", err)
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

// registerPreparedStatements registers all statements the API and the adhan
// worker use. Prepared statements eliminate parse overhead on every request.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		// Health
		"health_check": "SELECT 1",

		// Devices — push token registry
		"device_register": `
			INSERT INTO devices (id, fcm_token, adhan_enabled)
			VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE
			SET fcm_token = EXCLUDED.fcm_token,
			    adhan_enabled = EXCLUDED.adhan_enabled,
			    updated_at = NOW()`,
		"device_tokens_active": `
			SELECT fcm_token FROM devices
			WHERE adhan_enabled = true AND fcm_token <> ''`,

		// Prayer calculation settings + selected reciter (last write wins)
		"settings_upsert": `
			INSERT INTO device_settings (device_id, method, school, latitude_adjustment, midnight_mode)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (device_id) DO UPDATE
			SET method = EXCLUDED.method,
			    school = EXCLUDED.school,
			    latitude_adjustment = EXCLUDED.latitude_adjustment,
			    midnight_mode = EXCLUDED.midnight_mode,
			    updated_at = NOW()`,
		"settings_get": `
			SELECT method, school, latitude_adjustment, midnight_mode, reciter
			FROM device_settings WHERE device_id = $1`,
		"reciter_set": `
			INSERT INTO device_settings (device_id, reciter)
			VALUES ($1, $2)
			ON CONFLICT (device_id) DO UPDATE
			SET reciter = EXCLUDED.reciter, updated_at = NOW()`,

		// Liked ayahs — "<surah>-<ayah>" keys
		"like_add": `
			INSERT INTO liked_ayahs (device_id, ayah_key)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING`,
		"like_remove": `
			DELETE FROM liked_ayahs WHERE device_id = $1 AND ayah_key = $2`,
		"likes_list": `
			SELECT ayah_key FROM liked_ayahs
			WHERE device_id = $1 ORDER BY created_at`,

		// Quran last-read position
		"last_read_upsert": `
			INSERT INTO quran_last_read (device_id, surah, ayah, updated_at)
			VALUES ($1, $2, $3, NOW())
			ON CONFLICT (device_id) DO UPDATE
			SET surah = EXCLUDED.surah, ayah = EXCLUDED.ayah, updated_at = NOW()`,
		"last_read_get": `
			SELECT surah, ayah, updated_at FROM quran_last_read WHERE device_id = $1`,

		// Adhan daily trigger records
		"adhan_trigger_fired": `
			SELECT 1 FROM adhan_triggers
			WHERE event_name = $1 AND trigger_date = $2`,
		"adhan_trigger_mark": `
			INSERT INTO adhan_triggers (event_name, trigger_date)
			VALUES ($1, $2)
			ON CONFLICT (event_name, trigger_date) DO NOTHING`,
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
