package handler

import (
	"net/http"
	"strconv"

	"github.com/minaretapp/minaret-data/internal/api/respond"
	"github.com/minaretapp/minaret-data/internal/geo"
)

// GetQibla returns the qibla bearing and distance from a point.
// @Summary Qibla bearing and distance
// @Description Great-circle bearing and distance from (lat, lon) to the Kaaba.
// @Tags qibla
// @Produce json
// @Param lat query number true "Latitude"
// @Param lon query number true "Longitude"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} respond.ErrorResponse
// @Router /api/v1/qibla [get]
func (h *Handler) GetQibla(w http.ResponseWriter, r *http.Request) {
	p, ok := coordParam(w, r)
	if !ok {
		return
	}

	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"latitude":    p.Lat(),
		"longitude":   p.Lon(),
		"bearing":     geo.QiblaBearing(p),
		"distance_km": geo.HaversineKm(p, geo.Kaaba),
	})
}

// GetQiblaCompass returns the relative angle between a device heading and
// the qibla bearing, plus whether the device counts as aligned.
// @Summary Compass alignment to the qibla
// @Tags qibla
// @Produce json
// @Param lat query number true "Latitude"
// @Param lon query number true "Longitude"
// @Param heading query number true "Device compass heading in degrees"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} respond.ErrorResponse
// @Router /api/v1/qibla/compass [get]
func (h *Handler) GetQiblaCompass(w http.ResponseWriter, r *http.Request) {
	p, ok := coordParam(w, r)
	if !ok {
		return
	}
	heading, err := strconv.ParseFloat(r.URL.Query().Get("heading"), 64)
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_HEADING", "heading query parameter is required")
		return
	}

	bearing := geo.QiblaBearing(p)
	rel := geo.RelativeAngle(bearing, geo.Normalize(heading))

	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"bearing":        bearing,
		"heading":        geo.Normalize(heading),
		"relative_angle": rel,
		"aligned":        geo.Aligned(rel),
	})
}
