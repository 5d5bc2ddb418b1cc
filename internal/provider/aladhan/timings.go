package aladhan

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/minaretapp/minaret-data/internal/prayer"
)

// Params are the upstream calculation knobs a device can override.
type Params struct {
	Method             int
	School             int
	LatitudeAdjustment int
	MidnightMode       int
}

// HijriDate is the Hijri side of an upstream date block.
type HijriDate struct {
	Day   string `json:"day"`
	Month string `json:"month"`
	Year  string `json:"year"`
}

// Day is one resolved day of prayer timings.
type Day struct {
	Readable  string           `json:"readable"`
	Hijri     HijriDate        `json:"hijri"`
	Timetable *prayer.Timetable `json:"-"`
	// Warnings lists timing keys the upstream sent malformed. The day is
	// still usable for the prayers that parsed.
	Warnings []string `json:"warnings,omitempty"`
}

type timingsData struct {
	Timings map[string]string `json:"timings"`
	Date    struct {
		Readable string `json:"readable"`
		Hijri    struct {
			Day   string `json:"day"`
			Month struct {
				En string `json:"en"`
			} `json:"month"`
			Year string `json:"year"`
		} `json:"hijri"`
	} `json:"date"`
}

// Timings fetches the prayer timetable for one location and day.
func (c *Client) Timings(ctx context.Context, lat, lon float64, date time.Time, p Params) (*Day, error) {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(lat, 'f', 6, 64))
	params.Set("longitude", strconv.FormatFloat(lon, 'f', 6, 64))
	params.Set("method", strconv.Itoa(p.Method))
	params.Set("school", strconv.Itoa(p.School))
	if p.LatitudeAdjustment != 0 {
		params.Set("latitudeAdjustmentMethod", strconv.Itoa(p.LatitudeAdjustment))
	}
	if p.MidnightMode != 0 {
		params.Set("midnightMode", strconv.Itoa(p.MidnightMode))
	}

	raw, err := c.get(ctx, "/timings/"+date.Format("02-01-2006"), params)
	if err != nil {
		return nil, err
	}

	var data timingsData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode timings: %w", err)
	}

	tt, errs := prayer.FromTimings(data.Timings)
	day := &Day{
		Readable: data.Date.Readable,
		Hijri: HijriDate{
			Day:   data.Date.Hijri.Day,
			Month: data.Date.Hijri.Month.En,
			Year:  data.Date.Hijri.Year,
		},
		Timetable: &tt,
	}
	for _, e := range errs {
		c.logger.Warn("malformed timing from upstream", "error", e)
		day.Warnings = append(day.Warnings, e.Error())
	}
	if tt.Empty() {
		return nil, fmt.Errorf("no usable timings for %s", date.Format("2006-01-02"))
	}
	return day, nil
}

// TimetableFor satisfies the adhan scheduler's timetable source. Results are
// memoized per (location, params, day) so the minute loop does not hammer
// the upstream.
func (c *Client) TimetableFor(ctx context.Context, lat, lon float64, date time.Time, method, school int) (prayer.Timetable, error) {
	key := fmt.Sprintf("%.4f,%.4f|%d|%d|%s", lat, lon, method, school, date.Format("2006-01-02"))

	c.mu.Lock()
	if tt, ok := c.days[key]; ok {
		c.mu.Unlock()
		return tt, nil
	}
	c.mu.Unlock()

	day, err := c.Timings(ctx, lat, lon, date, Params{Method: method, School: school})
	if err != nil {
		return prayer.Timetable{}, err
	}

	c.mu.Lock()
	// Yesterday's entry is the only other live key; drop everything stale.
	for k := range c.days {
		if k != key {
			delete(c.days, k)
		}
	}
	c.days[key] = *day.Timetable
	c.mu.Unlock()

	return *day.Timetable, nil
}

// QiblaDirection fetches the upstream's qibla bearing for a point. Used as a
// cross-check against the local great-circle computation.
func (c *Client) QiblaDirection(ctx context.Context, lat, lon float64) (float64, error) {
	path := fmt.Sprintf("/qibla/%s/%s",
		strconv.FormatFloat(lat, 'f', 6, 64), strconv.FormatFloat(lon, 'f', 6, 64))
	raw, err := c.get(ctx, path, nil)
	if err != nil {
		return 0, err
	}

	var data struct {
		Direction float64 `json:"direction"`
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return 0, fmt.Errorf("decode qibla: %w", err)
	}
	return data.Direction, nil
}
