package adhan

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minaretapp/minaret-data/internal/prayer"
)

func TestShouldFire_IdempotentPerDay(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	fire, err := ShouldFire(ctx, store, "Fajr", "2024-03-01")
	require.NoError(t, err)
	assert.True(t, fire)

	require.NoError(t, store.MarkFired(ctx, "Fajr", "2024-03-01"))

	fire, err = ShouldFire(ctx, store, "Fajr", "2024-03-01")
	require.NoError(t, err)
	assert.False(t, fire)

	// A different event or day is unaffected.
	fire, err = ShouldFire(ctx, store, "Dhuhr", "2024-03-01")
	require.NoError(t, err)
	assert.True(t, fire)

	fire, err = ShouldFire(ctx, store, "Fajr", "2024-03-02")
	require.NoError(t, err)
	assert.True(t, fire)
}

func TestDateKey(t *testing.T) {
	loc := time.FixedZone("X", 3*3600)
	assert.Equal(t, "2024-03-01", DateKey(time.Date(2024, 3, 1, 23, 59, 0, 0, loc)))
}

// --------------------------------------------------------------------------
// Scheduler
// --------------------------------------------------------------------------

type fixedSource struct {
	tt prayer.Timetable
}

func (f *fixedSource) TimetableFor(context.Context, float64, float64, time.Time, int, int) (prayer.Timetable, error) {
	return f.tt, nil
}

type capturePush struct {
	sent []string // prayer names, in order
}

func (p *capturePush) SendMulti(_ context.Context, _ []string, _ string, _ string, data map[string]string) error {
	p.sent = append(p.sent, data["prayer"])
	return nil
}

type staticTokens struct{ tokens []string }

func (s staticTokens) ActiveTokens(context.Context) ([]string, error) {
	return s.tokens, nil
}

func testTimetable(t *testing.T) prayer.Timetable {
	t.Helper()
	tt, errs := prayer.FromTimings(map[string]string{
		"Fajr":    "05:00",
		"Sunrise": "06:30",
		"Dhuhr":   "12:00 (UTC)",
		"Asr":     "15:00",
		"Maghrib": "18:00",
		"Isha":    "19:00",
	})
	require.Empty(t, errs)
	return tt
}

func newTestScheduler(t *testing.T, at time.Time, push Pusher, store TriggerStore) *Scheduler {
	t.Helper()
	return NewScheduler(Options{
		Timezone: "UTC",
		Now:      func() time.Time { return at },
	}, store, &fixedSource{tt: testTimetable(t)}, staticTokens{tokens: []string{"tok-1", "tok-2"}}, push, slog.Default())
}

func TestScheduler_FiresOncePerMinuteMatch(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	push := &capturePush{}

	noon := time.Date(2024, 3, 1, 12, 0, 30, 0, time.UTC)
	s := newTestScheduler(t, noon, push, store)

	require.NoError(t, s.CheckOnce(ctx))
	assert.Equal(t, []string{"Dhuhr"}, push.sent)

	// The same minute re-checked is a safe no-op.
	require.NoError(t, s.CheckOnce(ctx))
	assert.Equal(t, []string{"Dhuhr"}, push.sent)
}

func TestScheduler_NoMatchNoFire(t *testing.T) {
	ctx := context.Background()
	push := &capturePush{}
	s := newTestScheduler(t, time.Date(2024, 3, 1, 12, 1, 0, 0, time.UTC), push, NewMemoryStore())

	require.NoError(t, s.CheckOnce(ctx))
	assert.Empty(t, push.sent)
}

func TestScheduler_SunriseNeverFires(t *testing.T) {
	ctx := context.Background()
	push := &capturePush{}
	s := newTestScheduler(t, time.Date(2024, 3, 1, 6, 30, 0, 0, time.UTC), push, NewMemoryStore())

	require.NoError(t, s.CheckOnce(ctx))
	assert.Empty(t, push.sent, "Sunrise is informational only")
}

func TestScheduler_MarksBeforeSending(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	push := &capturePush{}
	s := newTestScheduler(t, time.Date(2024, 3, 1, 5, 0, 0, 0, time.UTC), push, store)

	require.NoError(t, s.CheckOnce(ctx))

	fired, err := store.Fired(ctx, "Fajr", "2024-03-01")
	require.NoError(t, err)
	assert.True(t, fired)
	assert.Equal(t, []string{"Fajr"}, push.sent)
}
