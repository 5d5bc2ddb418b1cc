package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/minaretapp/minaret-data/internal/api/respond"
	"github.com/minaretapp/minaret-data/internal/playback"
	"github.com/minaretapp/minaret-data/internal/provider/alquran"
)

// defaultVerseDurationSeconds is how long a verse "plays" on the server-side
// wall-clock output when the client does not report real durations.
const defaultVerseDurationSeconds = 30

type createPlaybackRequest struct {
	DeviceID             string  `json:"device_id"`
	Surah                int     `json:"surah"`
	Reciter              string  `json:"reciter,omitempty"`
	Translation          string  `json:"translation,omitempty"`
	StartIndex           int     `json:"start_index,omitempty"`
	VerseDurationSeconds float64 `json:"verse_duration_seconds,omitempty"`
}

type playbackResponse struct {
	Session  *playback.Session `json:"session"`
	Snapshot playback.Snapshot `json:"snapshot"`
}

// CreatePlayback starts a recitation session for a device and surah. An
// existing session for the same device is replaced.
// @Summary Start a playback session
// @Tags playback
// @Accept json
// @Produce json
// @Param request body createPlaybackRequest true "Session parameters"
// @Success 201 {object} playbackResponse
// @Failure 400 {object} respond.ErrorResponse
// @Failure 502 {object} respond.ErrorResponse
// @Router /api/v1/playback [post]
func (h *Handler) CreatePlayback(w http.ResponseWriter, r *http.Request) {
	var req createPlaybackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_BODY", "request body must be JSON")
		return
	}
	deviceID, err := uuid.Parse(req.DeviceID)
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_DEVICE_ID", "device_id must be a UUID")
		return
	}
	if req.Surah < 1 || req.Surah > 114 {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_SURAH", "surah must be between 1 and 114")
		return
	}

	reciter := req.Reciter
	if reciter == "" {
		reciter = h.deviceReciter(r, deviceID)
	}
	translation := req.Translation
	if translation == "" {
		translation = defaultTranslation
	}
	duration := req.VerseDurationSeconds
	if duration <= 0 {
		duration = defaultVerseDurationSeconds
	}

	src := alquran.NewSurahSource(h.providers.AlQuran, req.Surah, reciter, translation)
	seq := playback.New(playback.NewTimedOutput(duration), src)

	if err := seq.PlayIndex(r.Context(), req.StartIndex); err != nil {
		respond.WriteErrorDetail(w, http.StatusBadGateway, "PLAYBACK_START_FAILED", "could not start playback", err.Error())
		return
	}

	session, err := h.sessions.Create(deviceID, req.Surah, reciter, seq)
	if err != nil {
		seq.Stop()
		respond.WriteError(w, http.StatusServiceUnavailable, "SESSION_LIMIT", err.Error())
		return
	}

	respond.WriteJSONObject(w, http.StatusCreated, playbackResponse{
		Session:  session,
		Snapshot: seq.Snapshot(),
	})
}

// deviceReciter looks up the device's stored reciter, falling back to the
// default edition.
func (h *Handler) deviceReciter(r *http.Request, deviceID uuid.UUID) string {
	var method, school, latAdj, midnight int
	var reciter string
	err := h.pool.QueryRow(r.Context(), "settings_get", deviceID).
		Scan(&method, &school, &latAdj, &midnight, &reciter)
	if err != nil || reciter == "" {
		return defaultReciter
	}
	return reciter
}

// GetPlayback returns session metadata and a live snapshot.
// @Summary Playback session state
// @Tags playback
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} playbackResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/v1/playback/{id} [get]
func (h *Handler) GetPlayback(w http.ResponseWriter, r *http.Request) {
	session, ok := h.sessionFromPath(w, r)
	if !ok {
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, playbackResponse{
		Session:  session,
		Snapshot: session.Sequencer.Snapshot(),
	})
}

// PlaybackAction dispatches play/pause/next/previous on a session.
// @Summary Playback control
// @Description End-of-surah is not an error: the snapshot carries the flag
// @Description and the session stays alive for an explicit restart.
// @Tags playback
// @Produce json
// @Param id path string true "Session ID"
// @Param action path string true "One of play, pause, next, previous"
// @Success 200 {object} playbackResponse
// @Failure 404 {object} respond.ErrorResponse
// @Failure 409 {object} respond.ErrorResponse
// @Router /api/v1/playback/{id}/{action} [post]
func (h *Handler) PlaybackAction(w http.ResponseWriter, r *http.Request) {
	session, ok := h.sessionFromPath(w, r)
	if !ok {
		return
	}
	seq := session.Sequencer

	var err error
	switch action := chi.URLParam(r, "action"); action {
	case "play":
		if !seq.Snapshot().IsPlaying {
			err = seq.TogglePlay()
			if errors.Is(err, playback.ErrNoItem) {
				// Idle session (stopped or end of surah): restart from the top.
				err = seq.PlayIndex(r.Context(), 0)
			}
		}
	case "pause":
		if seq.Snapshot().IsPlaying {
			err = seq.TogglePlay()
		}
	case "next":
		err = seq.Next(r.Context())
	case "previous":
		err = seq.Previous(r.Context())
	default:
		respond.WriteError(w, http.StatusNotFound, "UNKNOWN_ACTION", "action must be play, pause, next, or previous")
		return
	}

	if err != nil && !errors.Is(err, playback.ErrEndOfSurah) {
		if errors.Is(err, playback.ErrNoItem) {
			respond.WriteError(w, http.StatusConflict, "NO_ITEM", "no verse loaded")
			return
		}
		respond.WriteErrorDetail(w, http.StatusBadGateway, "PLAYBACK_ERROR", "playback control failed", err.Error())
		return
	}

	respond.WriteJSONObject(w, http.StatusOK, playbackResponse{
		Session:  session,
		Snapshot: seq.Snapshot(),
	})
}

// PlaybackSeek moves within the current verse.
// @Summary Seek within the current verse
// @Tags playback
// @Produce json
// @Param id path string true "Session ID"
// @Param position query number true "Position in seconds"
// @Success 200 {object} playbackResponse
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/v1/playback/{id}/seek [post]
func (h *Handler) PlaybackSeek(w http.ResponseWriter, r *http.Request) {
	session, ok := h.sessionFromPath(w, r)
	if !ok {
		return
	}
	position, err := strconv.ParseFloat(r.URL.Query().Get("position"), 64)
	if err != nil || position < 0 {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_POSITION", "position must be a non-negative number of seconds")
		return
	}

	if err := session.Sequencer.Seek(position); err != nil {
		respond.WriteError(w, http.StatusConflict, "NO_ITEM", "no verse loaded")
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, playbackResponse{
		Session:  session,
		Snapshot: session.Sequencer.Snapshot(),
	})
}

// DeletePlayback stops and removes a session.
// @Summary End a playback session
// @Tags playback
// @Param id path string true "Session ID"
// @Success 204
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/v1/playback/{id} [delete]
func (h *Handler) DeletePlayback(w http.ResponseWriter, r *http.Request) {
	session, ok := h.sessionFromPath(w, r)
	if !ok {
		return
	}
	h.sessions.Remove(session.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) sessionFromPath(w http.ResponseWriter, r *http.Request) (*playback.Session, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_SESSION_ID", "session id must be a UUID")
		return nil, false
	}
	session, err := h.sessions.Get(id)
	if err != nil {
		respond.WriteError(w, http.StatusNotFound, "SESSION_NOT_FOUND", "playback session not found")
		return nil, false
	}
	return session, true
}
