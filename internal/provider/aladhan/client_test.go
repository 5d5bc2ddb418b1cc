package aladhan

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minaretapp/minaret-data/internal/prayer"
)

const timingsBody = `{
	"code": 200,
	"status": "OK",
	"data": {
		"timings": {
			"Fajr": "05:12",
			"Sunrise": "06:40 (BST)",
			"Dhuhr": "12:58",
			"Asr": "16:10",
			"Maghrib": "19:15",
			"Isha": "20:45",
			"Midnight": "00:58"
		},
		"date": {
			"readable": "01 Mar 2024",
			"hijri": {"day": "20", "month": {"en": "Sha'ban"}, "year": "1445"}
		}
	}
}`

func newTimingsServer(t *testing.T, hits *int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			*hits++
		}
		assert.Contains(t, r.URL.Path, "/timings/01-03-2024")
		assert.Equal(t, "51.500000", r.URL.Query().Get("latitude"))
		assert.Equal(t, "2", r.URL.Query().Get("method"))
		w.Write([]byte(timingsBody))
	}))
}

func TestClient_Timings(t *testing.T) {
	srv := newTimingsServer(t, nil)
	defer srv.Close()

	c := NewClient(srv.URL, 600, nil)
	day, err := c.Timings(context.Background(), 51.5, -0.12, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), Params{Method: 2})
	require.NoError(t, err)

	assert.Equal(t, "01 Mar 2024", day.Readable)
	assert.Equal(t, "Sha'ban", day.Hijri.Month)

	at, ok := day.Timetable.Get(prayer.Fajr)
	require.True(t, ok)
	assert.Equal(t, "05:12", at.String())

	// Parenthetical timezone suffixes are stripped, not rejected.
	at, ok = day.Timetable.Get(prayer.Sunrise)
	require.True(t, ok)
	assert.Equal(t, "06:40", at.String())

	assert.Empty(t, day.Warnings)
}

func TestClient_TimingsMalformedEntrySurvives(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":200,"status":"OK","data":{
			"timings": {"Fajr": "nonsense", "Dhuhr": "12:58"},
			"date": {"readable": "01 Mar 2024", "hijri": {"day":"20","month":{"en":"Sha'ban"},"year":"1445"}}
		}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 600, nil)
	day, err := c.Timings(context.Background(), 51.5, -0.12, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Params{})
	require.NoError(t, err)

	assert.Len(t, day.Warnings, 1)
	_, ok := day.Timetable.Get(prayer.Fajr)
	assert.False(t, ok)
	_, ok = day.Timetable.Get(prayer.Dhuhr)
	assert.True(t, ok)
}

func TestClient_TimetableForMemoizesPerDay(t *testing.T) {
	hits := 0
	srv := newTimingsServer(t, &hits)
	defer srv.Close()

	c := NewClient(srv.URL, 600, nil)
	date := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tt1, err := c.TimetableFor(context.Background(), 51.5, -0.12, date, 2, 0)
	require.NoError(t, err)
	tt2, err := c.TimetableFor(context.Background(), 51.5, -0.12, date.Add(time.Minute), 2, 0)
	require.NoError(t, err)

	assert.Equal(t, 1, hits, "second call within the same day hits the memo")
	assert.Equal(t, tt1, tt2)
}

func TestClient_UpstreamErrorCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":400,"status":"Bad Request","data":"invalid"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 600, nil)
	_, err := c.QiblaDirection(context.Background(), 51.5, -0.12)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "code 400")
}

func TestClient_QiblaDirection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/qibla/51.500000/-0.120000")
		w.Write([]byte(`{"code":200,"status":"OK","data":{"latitude":51.5,"longitude":-0.12,"direction":118.98}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 600, nil)
	dir, err := c.QiblaDirection(context.Background(), 51.5, -0.12)
	require.NoError(t, err)
	assert.InDelta(t, 118.98, dir, 0.001)
}

func TestClient_HijriCalendar(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/gToHCalendar/3/2024")
		w.Write([]byte(`{"code":200,"status":"OK","data":[
			{"gregorian":{"date":"01-03-2024","weekday":{"en":"Friday"}},
			 "hijri":{"day":"20","month":{"en":"Sha'ban"},"year":"1445","holidays":[]}},
			{"gregorian":{"date":"02-03-2024","weekday":{"en":"Saturday"}},
			 "hijri":{"day":"oops","month":{"en":"Sha'ban"},"year":"1445","holidays":[]}}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 600, nil)
	days, err := c.HijriCalendar(context.Background(), 3, 2024)
	require.NoError(t, err)

	// The malformed cell is dropped, the good one survives.
	require.Len(t, days, 1)
	assert.Equal(t, 20, days[0].HijriDay)
	assert.Equal(t, "Friday", days[0].Weekday)
}

func TestClient_HijriCalendarMonthRange(t *testing.T) {
	c := NewClient("http://unused", 600, nil)
	_, err := c.HijriCalendar(context.Background(), 13, 2024)
	assert.Error(t, err)
}
