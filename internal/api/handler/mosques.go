package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/minaretapp/minaret-data/internal/api/respond"
	"github.com/minaretapp/minaret-data/internal/cache"
	"github.com/minaretapp/minaret-data/internal/provider/overpass"
)

// GetMosques returns nearby mosques ranked by distance.
// @Summary Nearby mosques
// @Description Mosques within radius meters of (lat, lon), nearest first.
// @Tags mosques
// @Produce json
// @Param lat query number true "Latitude"
// @Param lon query number true "Longitude"
// @Param radius query int false "Search radius in meters (default 5000, max 20000)"
// @Success 200 {array} overpass.Mosque
// @Failure 400 {object} respond.ErrorResponse
// @Failure 502 {object} respond.ErrorResponse
// @Router /api/v1/mosques [get]
func (h *Handler) GetMosques(w http.ResponseWriter, r *http.Request) {
	p, ok := coordParam(w, r)
	if !ok {
		return
	}
	radius := intParam(r, "radius", overpass.DefaultRadiusMeters)

	// Round the key to ~100 m so adjacent requests share an entry.
	key := fmt.Sprintf("mosques:%.3f:%.3f:%d", p.Lat(), p.Lon(), radius)
	if data, etag, ok := h.cache.Get(key); ok {
		if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
			respond.WriteNotModified(w, etag)
			return
		}
		respond.WriteJSON(w, data, etag, cache.TTLMosques, true)
		return
	}

	mosques, err := h.providers.Overpass.Nearby(r.Context(), p, radius)
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusBadGateway, "PROVIDER_ERROR", "mosque search unavailable", err.Error())
		return
	}

	data, err := json.Marshal(mosques)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "ENCODE_ERROR", "failed to encode mosques")
		return
	}
	etag := h.cache.Set(key, data, cache.TTLMosques)
	respond.WriteJSON(w, data, etag, cache.TTLMosques, false)
}
