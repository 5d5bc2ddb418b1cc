package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/minaretapp/minaret-data/internal/api/respond"
	"github.com/minaretapp/minaret-data/internal/cache"
	"github.com/minaretapp/minaret-data/internal/provider/alquran"
)

const (
	defaultReciter     = "ar.alafasy"
	defaultTranslation = "en.asad"
)

// ListSurahs returns metadata for all 114 chapters.
// @Summary Surah list
// @Tags quran
// @Produce json
// @Success 200 {array} alquran.SurahMeta
// @Failure 502 {object} respond.ErrorResponse
// @Router /api/v1/quran [get]
func (h *Handler) ListSurahs(w http.ResponseWriter, r *http.Request) {
	const key = "quran:surahs"
	if data, etag, ok := h.cache.Get(key); ok {
		if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
			respond.WriteNotModified(w, etag)
			return
		}
		respond.WriteJSON(w, data, etag, cache.TTLVersePage, true)
		return
	}

	metas, err := h.providers.AlQuran.Surahs(r.Context())
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusBadGateway, "PROVIDER_ERROR", "surah list unavailable", err.Error())
		return
	}

	data, err := json.Marshal(metas)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "ENCODE_ERROR", "failed to encode surah list")
		return
	}
	etag := h.cache.Set(key, data, cache.TTLVersePage)
	respond.WriteJSON(w, data, etag, cache.TTLVersePage, false)
}

// GetSurahPage returns one window of a surah's verses with audio URLs and
// translation.
// @Summary Surah verse page
// @Tags quran
// @Produce json
// @Param surah path int true "Surah number (1-114)"
// @Param offset query int false "Verses to skip (default 0)"
// @Param limit query int false "Page size (default 10)"
// @Param reciter query string false "Audio edition identifier"
// @Param translation query string false "Translation edition identifier"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} respond.ErrorResponse
// @Failure 502 {object} respond.ErrorResponse
// @Router /api/v1/quran/{surah} [get]
func (h *Handler) GetSurahPage(w http.ResponseWriter, r *http.Request) {
	surah, err := strconv.Atoi(chi.URLParam(r, "surah"))
	if err != nil || surah < 1 || surah > 114 {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_SURAH", "surah must be between 1 and 114")
		return
	}
	offset := intParam(r, "offset", 0)
	limit := intParam(r, "limit", alquran.DefaultPageSize)
	reciter := strParam(r, "reciter", defaultReciter)
	translation := strParam(r, "translation", defaultTranslation)
	if offset < 0 {
		offset = 0
	}

	key := fmt.Sprintf("quran:%d:%s:%s:%d:%d", surah, reciter, translation, offset, limit)
	if data, etag, ok := h.cache.Get(key); ok {
		if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
			respond.WriteNotModified(w, etag)
			return
		}
		respond.WriteJSON(w, data, etag, cache.TTLVersePage, true)
		return
	}

	verses, more, err := h.providers.AlQuran.SurahPage(r.Context(), surah, reciter, translation, offset, limit)
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusBadGateway, "PROVIDER_ERROR", "verse page unavailable", err.Error())
		return
	}

	data, err := json.Marshal(map[string]interface{}{
		"surah":  surah,
		"offset": offset,
		"verses": verses,
		"more":   more,
	})
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "ENCODE_ERROR", "failed to encode verse page")
		return
	}
	etag := h.cache.Set(key, data, cache.TTLVersePage)
	respond.WriteJSON(w, data, etag, cache.TTLVersePage, false)
}
