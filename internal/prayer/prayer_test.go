package prayer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func standardTable(t *testing.T) Timetable {
	t.Helper()
	tt, errs := FromTimings(map[string]string{
		"Fajr":    "05:00",
		"Sunrise": "06:30",
		"Dhuhr":   "12:00",
		"Asr":     "15:00",
		"Maghrib": "18:00",
		"Isha":    "19:00",
	})
	require.Empty(t, errs)
	return tt
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    Clock
		wantErr bool
	}{
		{"05:00", 300, false},
		{"00:00", 0, false},
		{"23:59", 1439, false},
		{"05:12 (BST)", 312, false},
		{"18:07 (+03)", 1087, false},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"noon", 0, true},
		{"", 0, true},
	}
	for _, tc := range tests {
		got, err := ParseClock(tc.in)
		if tc.wantErr {
			assert.Error(t, err, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestNextAfter_MiddleOfDay(t *testing.T) {
	tt := standardTable(t)

	next, ok := NextAfter(tt, mustClock(t, "13:30"))
	require.True(t, ok)
	assert.Equal(t, Asr, next.Name)
	assert.Equal(t, mustClock(t, "15:00"), next.Time)
	assert.False(t, next.Tomorrow)
	assert.Equal(t, 90*time.Minute, next.Until(mustClock(t, "13:30")))
}

func TestNextAfter_Wraparound(t *testing.T) {
	tt := standardTable(t)

	next, ok := NextAfter(tt, mustClock(t, "20:00"))
	require.True(t, ok)
	assert.Equal(t, Fajr, next.Name)
	assert.Equal(t, mustClock(t, "05:00"), next.Time)
	assert.True(t, next.Tomorrow)
	assert.Equal(t, 9*time.Hour, next.Until(mustClock(t, "20:00")))
}

func TestNextAfter_ExactMatchIsPassed(t *testing.T) {
	// Inherited tie-break: a prayer whose time equals now is already passed.
	tt := standardTable(t)

	next, ok := NextAfter(tt, mustClock(t, "12:00"))
	require.True(t, ok)
	assert.Equal(t, Asr, next.Name)
}

func TestNextAfter_SunriseExcluded(t *testing.T) {
	tt := standardTable(t)

	next, ok := NextAfter(tt, mustClock(t, "05:30"))
	require.True(t, ok)
	assert.Equal(t, Dhuhr, next.Name, "Sunrise is informational only")
}

func TestNextAfter_EmptyTable(t *testing.T) {
	var tt Timetable
	_, ok := NextAfter(tt, 0)
	assert.False(t, ok)
	assert.True(t, tt.Empty())
}

func TestNextAfter_SkipsMalformedEntries(t *testing.T) {
	tt, errs := FromTimings(map[string]string{
		"Fajr":  "garbage",
		"Dhuhr": "12:00",
	})
	assert.Len(t, errs, 1)

	// Fajr unusable: wrap lands on the earliest present prayer instead.
	next, ok := NextAfter(tt, mustClock(t, "13:00"))
	require.True(t, ok)
	assert.Equal(t, Dhuhr, next.Name)
	assert.True(t, next.Tomorrow)
}

func TestFromTimings_IgnoresUnknownKeys(t *testing.T) {
	tt, errs := FromTimings(map[string]string{
		"Fajr":     "05:00",
		"Midnight": "00:07",
		"Imsak":    "04:50",
	})
	assert.Empty(t, errs)

	_, present := tt.Get(Fajr)
	assert.True(t, present)
}

func TestUntil_PassedIsNegative(t *testing.T) {
	d := Until(mustClock(t, "05:00"), mustClock(t, "06:00"))
	assert.Equal(t, -time.Hour, d)
}

func TestClockOf(t *testing.T) {
	loc := time.FixedZone("X", 3*3600)
	now := time.Date(2024, 3, 1, 20, 15, 42, 0, loc)
	assert.Equal(t, mustClock(t, "20:15"), ClockOf(now))
}

func TestNameRoundTrip(t *testing.T) {
	for _, n := range All() {
		parsed, ok := ParseName(n.String())
		require.True(t, ok)
		assert.Equal(t, n, parsed)
	}
	_, ok := ParseName("Brunch")
	assert.False(t, ok)

	assert.False(t, Sunrise.Notifiable())
	assert.True(t, Fajr.Notifiable())
}

func mustClock(t *testing.T, s string) Clock {
	t.Helper()
	c, err := ParseClock(s)
	require.NoError(t, err)
	return c
}
