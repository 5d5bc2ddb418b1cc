package adhan

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore persists trigger records in Postgres. The unique index on
// (event_name, trigger_date) is what makes the at-most-one invariant hold
// even if two checks race.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore wraps a pool as a TriggerStore.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (s *PGStore) Fired(ctx context.Context, event, dateKey string) (bool, error) {
	var one int
	err := s.pool.QueryRow(ctx, "adhan_trigger_fired", event, dateKey).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query trigger record: %w", err)
	}
	return true, nil
}

func (s *PGStore) MarkFired(ctx context.Context, event, dateKey string) error {
	_, err := s.pool.Exec(ctx, "adhan_trigger_mark", event, dateKey)
	if err != nil {
		return fmt.Errorf("insert trigger record: %w", err)
	}
	return nil
}
