package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/minaretapp/minaret-data/internal/api/respond"
	"github.com/minaretapp/minaret-data/internal/cache"
)

// GetDailyHadith returns the hadith of the day. One hadith is drawn per
// local day and pinned in the cache until midnight, so every caller sees
// the same narration.
// @Summary Daily hadith
// @Tags hadith
// @Produce json
// @Param book query string false "Collection (bukhari, muslim, abudawud, ibnmajah, tirmidhi)"
// @Success 200 {object} hadith.Hadith
// @Failure 502 {object} respond.ErrorResponse
// @Router /api/v1/hadith/daily [get]
func (h *Handler) GetDailyHadith(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	book := strParam(r, "book", "")
	key := "hadith:daily:" + now.Format("2006-01-02") + ":" + book

	ttl := cache.UntilEndOfDay(now)
	if data, etag, ok := h.cache.Get(key); ok {
		if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
			respond.WriteNotModified(w, etag)
			return
		}
		respond.WriteJSON(w, data, etag, ttl, true)
		return
	}

	hd, err := h.providers.Hadith.Random(r.Context(), book)
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusBadGateway, "PROVIDER_ERROR", "hadith unavailable", err.Error())
		return
	}

	data, err := json.Marshal(hd)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "ENCODE_ERROR", "failed to encode hadith")
		return
	}
	etag := h.cache.Set(key, data, ttl)
	respond.WriteJSON(w, data, etag, ttl, false)
}
