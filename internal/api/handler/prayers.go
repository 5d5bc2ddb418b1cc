package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/minaretapp/minaret-data/internal/api/respond"
	"github.com/minaretapp/minaret-data/internal/cache"
	"github.com/minaretapp/minaret-data/internal/prayer"
	"github.com/minaretapp/minaret-data/internal/provider/aladhan"
)

// prayersResponse is the cached shape for GET /prayers. The next-prayer
// fields are recomputed per request from the cached timetable, since the
// countdown moves every minute while the timetable holds all day.
type prayersResponse struct {
	Date     string            `json:"date"`
	Hijri    aladhan.HijriDate `json:"hijri"`
	Timings  map[string]string `json:"timings"`
	Warnings []string          `json:"warnings,omitempty"`
}

// GetPrayers returns a day's timetable with the next prayer and countdown.
// @Summary Prayer timetable with next prayer
// @Description Timetable for (lat, lon) today plus the next upcoming prayer
// @Description and a countdown. Sunrise is listed but never "next".
// @Tags prayers
// @Produce json
// @Param lat query number true "Latitude"
// @Param lon query number true "Longitude"
// @Param date query string false "Date (YYYY-MM-DD), defaults to today"
// @Param method query int false "Calculation method"
// @Param school query int false "Asr school (0 standard, 1 hanafi)"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} respond.ErrorResponse
// @Failure 502 {object} respond.ErrorResponse
// @Router /api/v1/prayers [get]
func (h *Handler) GetPrayers(w http.ResponseWriter, r *http.Request) {
	p, ok := coordParam(w, r)
	if !ok {
		return
	}
	method := intParam(r, "method", h.cfg.AdhanMethod)
	school := intParam(r, "school", h.cfg.AdhanSchool)

	date := time.Now()
	if ds := r.URL.Query().Get("date"); ds != "" {
		var err error
		date, err = time.Parse("2006-01-02", ds)
		if err != nil {
			respond.WriteError(w, http.StatusBadRequest, "INVALID_DATE", "date must be YYYY-MM-DD")
			return
		}
	}

	key := fmt.Sprintf("prayers:%.4f:%.4f:%s:%d:%d", p.Lat(), p.Lon(), date.Format("2006-01-02"), method, school)

	var resp prayersResponse
	data, _, hit := h.cache.Get(key)
	if hit {
		if err := json.Unmarshal(data, &resp); err != nil {
			hit = false
		}
	}
	if !hit {
		day, err := h.providers.AlAdhan.Timings(r.Context(), p.Lat(), p.Lon(), date, aladhan.Params{Method: method, School: school})
		if err != nil {
			respond.WriteErrorDetail(w, http.StatusBadGateway, "PROVIDER_ERROR", "prayer times unavailable", err.Error())
			return
		}
		resp = prayersResponse{
			Date:     date.Format("2006-01-02"),
			Hijri:    day.Hijri,
			Timings:  timingsMap(day.Timetable),
			Warnings: day.Warnings,
		}
		if encoded, err := json.Marshal(resp); err == nil {
			h.cache.Set(key, encoded, cache.UntilEndOfDay(time.Now()))
		}
	}

	tt, _ := prayer.FromTimings(resp.Timings)
	out := map[string]interface{}{
		"date":     resp.Date,
		"hijri":    resp.Hijri,
		"timings":  resp.Timings,
		"cache":    hit,
	}
	if len(resp.Warnings) > 0 {
		out["warnings"] = resp.Warnings
	}

	nowClock := prayer.ClockOf(time.Now())
	if next, ok := prayer.NextAfter(tt, nowClock); ok {
		out["next"] = map[string]interface{}{
			"name":              next.Name.String(),
			"time":              next.Time.String(),
			"tomorrow":          next.Tomorrow,
			"countdown_minutes": int(next.Until(nowClock).Minutes()),
		}
	}

	respond.WriteJSONObject(w, http.StatusOK, out)
}

// timingsMap flattens a timetable back to name→"HH:MM" for the wire.
func timingsMap(tt *prayer.Timetable) map[string]string {
	m := make(map[string]string, len(prayer.All()))
	for _, n := range prayer.All() {
		if t, ok := tt.Get(n); ok {
			m[n.String()] = t.String()
		}
	}
	return m
}

// GetCalendar returns the Hijri/Gregorian grid for one month.
// @Summary Hijri calendar month
// @Tags calendar
// @Produce json
// @Param month query int true "Gregorian month (1-12)"
// @Param year query int true "Gregorian year"
// @Success 200 {array} aladhan.CalendarDay
// @Failure 400 {object} respond.ErrorResponse
// @Failure 502 {object} respond.ErrorResponse
// @Router /api/v1/calendar [get]
func (h *Handler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	month := intParam(r, "month", int(now.Month()))
	year := intParam(r, "year", now.Year())
	if month < 1 || month > 12 {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_MONTH", "month must be between 1 and 12")
		return
	}

	key := fmt.Sprintf("calendar:%d:%d", year, month)
	if data, etag, ok := h.cache.Get(key); ok {
		if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
			respond.WriteNotModified(w, etag)
			return
		}
		respond.WriteJSON(w, data, etag, cache.TTLCalendar, true)
		return
	}

	days, err := h.providers.AlAdhan.HijriCalendar(r.Context(), month, year)
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusBadGateway, "PROVIDER_ERROR", "calendar unavailable", err.Error())
		return
	}

	data, err := json.Marshal(days)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "ENCODE_ERROR", "failed to encode calendar")
		return
	}
	etag := h.cache.Set(key, data, cache.TTLCalendar)
	respond.WriteJSON(w, data, etag, cache.TTLCalendar, false)
}
