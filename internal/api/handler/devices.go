package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/minaretapp/minaret-data/internal/api/respond"
)

type registerDeviceRequest struct {
	DeviceID     string `json:"device_id,omitempty"`
	FCMToken     string `json:"fcm_token,omitempty"`
	AdhanEnabled bool   `json:"adhan_enabled"`
}

// RegisterDevice registers or updates a device and its push token.
// @Summary Register a device
// @Description Creates the device row (or refreshes its token) and returns
// @Description the device ID. Omit device_id to mint a new one.
// @Tags devices
// @Accept json
// @Produce json
// @Param request body registerDeviceRequest true "Device registration"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} respond.ErrorResponse
// @Router /api/v1/devices [post]
func (h *Handler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	var req registerDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_BODY", "request body must be JSON")
		return
	}

	deviceID := uuid.New()
	if req.DeviceID != "" {
		var err error
		deviceID, err = uuid.Parse(req.DeviceID)
		if err != nil {
			respond.WriteError(w, http.StatusBadRequest, "INVALID_DEVICE_ID", "device_id must be a UUID")
			return
		}
	}

	if _, err := h.pool.Exec(r.Context(), "device_register", deviceID, req.FCMToken, req.AdhanEnabled); err != nil {
		respond.WriteErrorDetail(w, http.StatusInternalServerError, "DB_ERROR", "failed to register device", err.Error())
		return
	}

	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"device_id":     deviceID,
		"adhan_enabled": req.AdhanEnabled,
	})
}

// --------------------------------------------------------------------------
// Prayer settings
// --------------------------------------------------------------------------

type deviceSettings struct {
	Method             int    `json:"method"`
	School             int    `json:"school"`
	LatitudeAdjustment int    `json:"latitude_adjustment"`
	MidnightMode       int    `json:"midnight_mode"`
	Reciter            string `json:"reciter,omitempty"`
}

// GetSettings returns a device's prayer calculation settings. Unregistered
// devices see the defaults.
// @Summary Device prayer settings
// @Tags devices
// @Produce json
// @Param id path string true "Device ID"
// @Success 200 {object} deviceSettings
// @Failure 400 {object} respond.ErrorResponse
// @Router /api/v1/devices/{id}/settings [get]
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	deviceID, ok := deviceFromPath(w, r)
	if !ok {
		return
	}

	var s deviceSettings
	err := h.pool.QueryRow(r.Context(), "settings_get", deviceID).
		Scan(&s.Method, &s.School, &s.LatitudeAdjustment, &s.MidnightMode, &s.Reciter)
	if errors.Is(err, pgx.ErrNoRows) {
		s = deviceSettings{Method: h.cfg.AdhanMethod, School: h.cfg.AdhanSchool, Reciter: defaultReciter}
	} else if err != nil {
		respond.WriteErrorDetail(w, http.StatusInternalServerError, "DB_ERROR", "failed to load settings", err.Error())
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, s)
}

// PutSettings stores a device's prayer calculation settings. Last write wins.
// @Summary Update device prayer settings
// @Tags devices
// @Accept json
// @Produce json
// @Param id path string true "Device ID"
// @Param request body deviceSettings true "Settings"
// @Success 200 {object} deviceSettings
// @Failure 400 {object} respond.ErrorResponse
// @Router /api/v1/devices/{id}/settings [put]
func (h *Handler) PutSettings(w http.ResponseWriter, r *http.Request) {
	deviceID, ok := deviceFromPath(w, r)
	if !ok {
		return
	}
	var s deviceSettings
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_BODY", "request body must be JSON")
		return
	}

	_, err := h.pool.Exec(r.Context(), "settings_upsert",
		deviceID, s.Method, s.School, s.LatitudeAdjustment, s.MidnightMode)
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "SETTINGS_REJECTED",
			"failed to store settings; is the device registered?", err.Error())
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, s)
}

// PutReciter stores the device's selected recitation edition.
// @Summary Update selected reciter
// @Tags devices
// @Accept json
// @Produce json
// @Param id path string true "Device ID"
// @Success 200 {object} map[string]string
// @Failure 400 {object} respond.ErrorResponse
// @Router /api/v1/devices/{id}/reciter [put]
func (h *Handler) PutReciter(w http.ResponseWriter, r *http.Request) {
	deviceID, ok := deviceFromPath(w, r)
	if !ok {
		return
	}
	var req struct {
		Reciter string `json:"reciter"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Reciter == "" {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_BODY", "reciter is required")
		return
	}

	if _, err := h.pool.Exec(r.Context(), "reciter_set", deviceID, req.Reciter); err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "RECITER_REJECTED",
			"failed to store reciter; is the device registered?", err.Error())
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]string{"reciter": req.Reciter})
}

// --------------------------------------------------------------------------
// Liked ayahs
// --------------------------------------------------------------------------

// AddLike records a liked ayah. Re-liking is a no-op.
// @Summary Like an ayah
// @Tags devices
// @Param id path string true "Device ID"
// @Param key path string true "Ayah key, e.g. 18-10"
// @Success 204
// @Failure 400 {object} respond.ErrorResponse
// @Router /api/v1/devices/{id}/likes/{key} [post]
func (h *Handler) AddLike(w http.ResponseWriter, r *http.Request) {
	deviceID, ok := deviceFromPath(w, r)
	if !ok {
		return
	}
	key, ok := ayahKeyFromPath(w, r)
	if !ok {
		return
	}

	if _, err := h.pool.Exec(r.Context(), "like_add", deviceID, key); err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "LIKE_REJECTED",
			"failed to store like; is the device registered?", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveLike removes a liked ayah. Unliking something never liked is a no-op.
// @Summary Unlike an ayah
// @Tags devices
// @Param id path string true "Device ID"
// @Param key path string true "Ayah key, e.g. 18-10"
// @Success 204
// @Failure 400 {object} respond.ErrorResponse
// @Router /api/v1/devices/{id}/likes/{key} [delete]
func (h *Handler) RemoveLike(w http.ResponseWriter, r *http.Request) {
	deviceID, ok := deviceFromPath(w, r)
	if !ok {
		return
	}
	key, ok := ayahKeyFromPath(w, r)
	if !ok {
		return
	}

	if _, err := h.pool.Exec(r.Context(), "like_remove", deviceID, key); err != nil {
		respond.WriteErrorDetail(w, http.StatusInternalServerError, "DB_ERROR", "failed to remove like", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListLikes returns a device's liked ayah keys in like order.
// @Summary Liked ayahs
// @Tags devices
// @Produce json
// @Param id path string true "Device ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} respond.ErrorResponse
// @Router /api/v1/devices/{id}/likes [get]
func (h *Handler) ListLikes(w http.ResponseWriter, r *http.Request) {
	deviceID, ok := deviceFromPath(w, r)
	if !ok {
		return
	}

	rows, err := h.pool.Query(r.Context(), "likes_list", deviceID)
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusInternalServerError, "DB_ERROR", "failed to list likes", err.Error())
		return
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			respond.WriteErrorDetail(w, http.StatusInternalServerError, "DB_ERROR", "failed to scan likes", err.Error())
			return
		}
		keys = append(keys, k)
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{"likes": keys})
}

// --------------------------------------------------------------------------
// Last-read position
// --------------------------------------------------------------------------

type lastReadRequest struct {
	Surah int `json:"surah"`
	Ayah  int `json:"ayah"`
}

// PutLastRead stores the device's reading position.
// @Summary Update last-read position
// @Tags devices
// @Accept json
// @Param id path string true "Device ID"
// @Param request body lastReadRequest true "Position"
// @Success 204
// @Failure 400 {object} respond.ErrorResponse
// @Router /api/v1/devices/{id}/last-read [put]
func (h *Handler) PutLastRead(w http.ResponseWriter, r *http.Request) {
	deviceID, ok := deviceFromPath(w, r)
	if !ok {
		return
	}
	var req lastReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_BODY", "request body must be JSON")
		return
	}
	if req.Surah < 1 || req.Surah > 114 || req.Ayah < 1 {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_POSITION", "surah must be 1-114 and ayah positive")
		return
	}

	if _, err := h.pool.Exec(r.Context(), "last_read_upsert", deviceID, req.Surah, req.Ayah); err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "POSITION_REJECTED",
			"failed to store position; is the device registered?", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetLastRead returns the device's reading position.
// @Summary Last-read position
// @Tags devices
// @Produce json
// @Param id path string true "Device ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/v1/devices/{id}/last-read [get]
func (h *Handler) GetLastRead(w http.ResponseWriter, r *http.Request) {
	deviceID, ok := deviceFromPath(w, r)
	if !ok {
		return
	}

	var surah, ayah int
	var updatedAt time.Time
	err := h.pool.QueryRow(r.Context(), "last_read_get", deviceID).Scan(&surah, &ayah, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		respond.WriteError(w, http.StatusNotFound, "NO_POSITION", "no reading position recorded")
		return
	}
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusInternalServerError, "DB_ERROR", "failed to load position", err.Error())
		return
	}

	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"surah":      surah,
		"ayah":       ayah,
		"updated_at": updatedAt.UTC().Format(time.RFC3339),
	})
}

// --------------------------------------------------------------------------
// Path helpers
// --------------------------------------------------------------------------

func deviceFromPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_DEVICE_ID", "device id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

// ayahKeyFromPath validates the "<surah>-<ayah>" key format.
func ayahKeyFromPath(w http.ResponseWriter, r *http.Request) (string, bool) {
	key := chi.URLParam(r, "key")
	var surah, ayah int
	if n, err := fmt.Sscanf(key, "%d-%d", &surah, &ayah); n != 2 || err != nil ||
		surah < 1 || surah > 114 || ayah < 1 || strings.Count(key, "-") != 1 {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_AYAH_KEY", "key must look like 18-10")
		return "", false
	}
	return key, true
}
