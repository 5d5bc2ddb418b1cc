package playback

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned for unknown or expired session IDs.
var ErrSessionNotFound = errors.New("playback session not found")

// Session is one device's live recitation session: a sequencer plus the
// metadata remote surfaces display.
type Session struct {
	ID        uuid.UUID `json:"id"`
	DeviceID  uuid.UUID `json:"device_id"`
	Surah     int       `json:"surah"`
	Reciter   string    `json:"reciter"`
	CreatedAt time.Time `json:"created_at"`

	Sequencer *Sequencer `json:"-"`
}

// Registry owns the live playback sessions for the process. Sessions are
// in-memory media state, not durable data; a restart simply drops them.
type Registry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	max      int
}

// NewRegistry creates a registry bounded to max concurrent sessions.
func NewRegistry(max int) *Registry {
	if max < 1 {
		max = 1
	}
	return &Registry{
		sessions: make(map[uuid.UUID]*Session),
		max:      max,
	}
}

// Create registers a new session. Any existing session for the same device
// is stopped and replaced: one playback context per device.
func (r *Registry) Create(deviceID uuid.UUID, surah int, reciter string, seq *Sequencer) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, s := range r.sessions {
		if s.DeviceID == deviceID {
			s.Sequencer.Stop()
			delete(r.sessions, id)
		}
	}
	if len(r.sessions) >= r.max {
		return nil, errors.New("too many concurrent playback sessions")
	}

	s := &Session{
		ID:        uuid.New(),
		DeviceID:  deviceID,
		Surah:     surah,
		Reciter:   reciter,
		CreatedAt: time.Now().UTC(),
		Sequencer: seq,
	}
	r.sessions[s.ID] = s
	return s, nil
}

// Get returns a session by ID.
func (r *Registry) Get(id uuid.UUID) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Remove stops and drops a session.
func (r *Registry) Remove(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		s.Sequencer.Stop()
		delete(r.sessions, id)
	}
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
