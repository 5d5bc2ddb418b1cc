package aladhan

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// CalendarDay is one cell of a Hijri month grid.
type CalendarDay struct {
	GregorianDate string   `json:"gregorian_date"` // DD-MM-YYYY
	Weekday       string   `json:"weekday"`
	HijriDay      int      `json:"hijri_day"`
	HijriMonth    string   `json:"hijri_month"`
	HijriYear     string   `json:"hijri_year"`
	Holidays      []string `json:"holidays,omitempty"`
}

type calendarCell struct {
	Gregorian struct {
		Date    string `json:"date"`
		Weekday struct {
			En string `json:"en"`
		} `json:"weekday"`
	} `json:"gregorian"`
	Hijri struct {
		Day   string `json:"day"`
		Month struct {
			En string `json:"en"`
		} `json:"month"`
		Year     string   `json:"year"`
		Holidays []string `json:"holidays"`
	} `json:"hijri"`
}

// HijriCalendar fetches the Gregorian-to-Hijri mapping for one calendar
// month. Cells whose Hijri day fails to parse are dropped.
func (c *Client) HijriCalendar(ctx context.Context, month, year int) ([]CalendarDay, error) {
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("month out of range: %d", month)
	}

	params := url.Values{}
	params.Set("month", strconv.Itoa(month))
	params.Set("year", strconv.Itoa(year))
	raw, err := c.get(ctx, "/gToHCalendar/"+strconv.Itoa(month)+"/"+strconv.Itoa(year), params)
	if err != nil {
		return nil, err
	}

	var cells []calendarCell
	if err := json.Unmarshal(raw, &cells); err != nil {
		return nil, fmt.Errorf("decode calendar: %w", err)
	}

	days := make([]CalendarDay, 0, len(cells))
	for _, cell := range cells {
		hd, err := strconv.Atoi(cell.Hijri.Day)
		if err != nil {
			c.logger.Warn("unparseable hijri day in calendar", "value", cell.Hijri.Day)
			continue
		}
		days = append(days, CalendarDay{
			GregorianDate: cell.Gregorian.Date,
			Weekday:       cell.Gregorian.Weekday.En,
			HijriDay:      hd,
			HijriMonth:    cell.Hijri.Month.En,
			HijriYear:     cell.Hijri.Year,
			Holidays:      cell.Hijri.Holidays,
		})
	}
	return days, nil
}
