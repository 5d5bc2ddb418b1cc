package adhan

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/minaretapp/minaret-data/internal/prayer"
)

const checkInterval = 60 * time.Second

// TimetableSource supplies one day's prayer timetable for a location.
// Implementations cache per (location, settings, day); the scheduler asks
// once per check and relies on that.
type TimetableSource interface {
	TimetableFor(ctx context.Context, lat, lon float64, date time.Time, method, school int) (prayer.Timetable, error)
}

// Pusher sends the adhan push to a set of device tokens.
type Pusher interface {
	SendMulti(ctx context.Context, tokens []string, title, body string, data map[string]string) error
}

// TokenSource lists the active device tokens subscribed to the adhan feed.
type TokenSource interface {
	ActiveTokens(ctx context.Context) ([]string, error)
}

// Options configure a Scheduler.
type Options struct {
	Latitude  float64
	Longitude float64
	Method    int
	School    int
	Timezone  string

	// Now is the clock; defaults to time.Now. Injected by tests.
	Now func() time.Time
}

// Scheduler polls once a minute (with an immediate check on start) and fires
// the adhan for any canonical prayer whose time matches the current
// wall-clock minute, gated through the trigger store.
type Scheduler struct {
	opts   Options
	loc    *time.Location
	store  TriggerStore
	source TimetableSource
	tokens TokenSource
	push   Pusher
	logger *slog.Logger
}

// NewScheduler builds a scheduler. Timezone falls back to UTC if it fails to
// load, matching how delivery scheduling degrades elsewhere.
func NewScheduler(opts Options, store TriggerStore, source TimetableSource, tokens TokenSource, push Pusher, logger *slog.Logger) *Scheduler {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	loc, err := time.LoadLocation(opts.Timezone)
	if err != nil {
		logger.Warn("invalid adhan timezone, using UTC", "timezone", opts.Timezone)
		loc = time.UTC
	}
	return &Scheduler{
		opts:   opts,
		loc:    loc,
		store:  store,
		source: source,
		tokens: tokens,
		push:   push,
		logger: logger,
	}
}

// Run checks immediately, then every minute until ctx is cancelled.
// Blocks; intended to be called with `go`.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("Adhan scheduler started",
		"lat", s.opts.Latitude, "lon", s.opts.Longitude, "interval", checkInterval)

	if err := s.CheckOnce(ctx); err != nil {
		s.logger.Error("adhan check failed", "error", err)
	}

	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := s.CheckOnce(ctx); err != nil {
				s.logger.Error("adhan check failed", "error", err)
			}
		case <-ctx.Done():
			s.logger.Info("Adhan scheduler stopped")
			return
		}
	}
}

// CheckOnce compares the current minute against today's timetable and fires
// any due prayer that has not fired today. Idempotent per (prayer, day).
func (s *Scheduler) CheckOnce(ctx context.Context) error {
	now := s.opts.Now().In(s.loc)

	tt, err := s.source.TimetableFor(ctx, s.opts.Latitude, s.opts.Longitude, now, s.opts.Method, s.opts.School)
	if err != nil {
		return fmt.Errorf("fetch timetable: %w", err)
	}
	if tt.Empty() {
		return fmt.Errorf("timetable unavailable")
	}

	nowClock := prayer.ClockOf(now)
	dateKey := DateKey(now)

	for _, name := range prayer.Daily() {
		at, present := tt.Get(name)
		if !present || at != nowClock {
			continue
		}
		if err := s.fire(ctx, name, at, dateKey); err != nil {
			s.logger.Error("adhan fire failed", "prayer", name.String(), "error", err)
		}
	}
	return nil
}

func (s *Scheduler) fire(ctx context.Context, name prayer.Name, at prayer.Clock, dateKey string) error {
	event := name.String()

	fire, err := ShouldFire(ctx, s.store, event, dateKey)
	if err != nil {
		return fmt.Errorf("trigger gate: %w", err)
	}
	if !fire {
		return nil
	}

	// Record first: a duplicate push is worse than a lost one here.
	if err := s.store.MarkFired(ctx, event, dateKey); err != nil {
		return fmt.Errorf("mark fired: %w", err)
	}

	tokens, err := s.tokens.ActiveTokens(ctx)
	if err != nil {
		return fmt.Errorf("list tokens: %w", err)
	}
	if len(tokens) == 0 {
		s.logger.Info("adhan due but no subscribed devices", "prayer", event)
		return nil
	}

	data := map[string]string{
		"prayer": event,
		"time":   at.String(),
		"date":   dateKey,
	}
	if err := s.push.SendMulti(ctx, tokens, "Minaret", fmt.Sprintf("It's time for %s (%s)", event, at), data); err != nil {
		return fmt.Errorf("send push: %w", err)
	}

	s.logger.Info("adhan fired", "prayer", event, "time", at.String(), "devices", len(tokens))
	return nil
}
