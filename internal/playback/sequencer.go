package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// State is the sequencer's lifecycle state.
type State int

const (
	StateIdle State = iota
	StateLoading
	StatePlaying
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "idle"
	}
}

var (
	// ErrNoItem is returned by controls that require a loaded item.
	ErrNoItem = errors.New("no item loaded")
	// ErrEndOfSurah is returned when advancing past the last verse of the
	// surah; playback never autoplays into another surah without consent.
	ErrEndOfSurah = errors.New("end of surah")
)

// Snapshot is the externally visible playback state, mirrored to remote
// "now playing" surfaces at a bounded interval.
type Snapshot struct {
	State           string  `json:"state"`
	Index           int     `json:"index"`
	Current         *Verse  `json:"current,omitempty"`
	IsPlaying       bool    `json:"is_playing"`
	IsLoading       bool    `json:"is_loading"`
	PositionSeconds float64 `json:"position_seconds"`
	DurationSeconds float64 `json:"duration_seconds"`
	Muted           bool    `json:"muted"`
	EndOfSurah      bool    `json:"end_of_surah"`
	QueueLen        int     `json:"queue_len"`
	Error           string  `json:"error,omitempty"`
}

// Sequencer owns one Output exclusively and advances through a lazily
// extended queue. Construct one per playback session and pass it to whatever
// needs control; there is no package-level instance.
type Sequencer struct {
	mu    sync.Mutex
	out   Output
	src   Source
	queue *Queue

	state       State
	index       int
	muted       bool
	autoAdvance bool
	extending   bool

	// gen tags each loaded item. A completion callback carries the gen it
	// was registered under; if the sequencer has moved on, the stale event
	// is dropped instead of advancing the wrong item.
	gen   uint64
	unsub func()

	lastErr    error
	endOfSurah bool
}

// New creates a sequencer over the given output and verse source.
// Auto-advance is on by default.
func New(out Output, src Source) *Sequencer {
	return &Sequencer{
		out:         out,
		src:         src,
		queue:       NewQueue(),
		state:       StateIdle,
		index:       -1,
		autoAdvance: true,
	}
}

// SetAutoAdvance toggles advancing on item completion.
func (s *Sequencer) SetAutoAdvance(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autoAdvance = on
}

// SetMuted mutes or unmutes audio without disturbing index tracking. A muted
// sequencer still loads and advances; it just holds the output paused.
func (s *Sequencer) SetMuted(muted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.muted == muted {
		return
	}
	s.muted = muted
	if s.state == StatePlaying {
		if muted {
			s.out.Pause()
		} else {
			_ = s.out.Play()
		}
	}
}

// PlayIndex loads and plays the queue item at index i, extending the queue
// from the source first if i is beyond the loaded window.
func (s *Sequencer) PlayIndex(ctx context.Context, i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playIndexLocked(ctx, i)
}

func (s *Sequencer) playIndexLocked(ctx context.Context, i int) error {
	if i < 0 {
		return ErrNoItem
	}

	for i >= s.queue.Len() && !s.queue.Complete() {
		if err := s.queue.extend(ctx, s.src, i); err != nil {
			s.failLocked(err)
			return err
		}
	}
	item, ok := s.queue.At(i)
	if !ok {
		s.detachLocked()
		s.out.Pause()
		s.state = StateIdle
		s.endOfSurah = true
		return ErrEndOfSurah
	}

	// Cancel the in-flight item: detach its completion handler before
	// anything else so it can never fire for the new item, then reset.
	s.detachLocked()
	s.out.Pause()
	s.out.Seek(0)

	s.gen++
	myGen := s.gen
	s.state = StateLoading
	s.endOfSurah = false
	s.lastErr = nil

	if err := s.out.Load(item.AudioURL); err != nil {
		s.failLocked(fmt.Errorf("load %s: %w", item.Key(), err))
		return s.lastErr
	}

	s.index = i
	s.unsub = s.out.OnComplete(func() { s.handleEnded(myGen) })

	if !s.muted {
		if err := s.out.Play(); err != nil {
			s.failLocked(fmt.Errorf("play %s: %w", item.Key(), err))
			return s.lastErr
		}
	}
	s.state = StatePlaying

	// Keep the window topped up ahead of playback. The source call runs off
	// the lock so controls and snapshots stay responsive; a failed prefetch
	// is not fatal, Next retries and surfaces the error.
	s.prefetchLocked(i)
	return nil
}

// prefetchLocked starts a background page fetch once index is within
// extendThreshold of the loaded end. At most one fetch is in flight at a
// time; the slow part never holds s.mu.
func (s *Sequencer) prefetchLocked(i int) {
	if s.extending || s.src == nil || s.queue.Complete() {
		return
	}
	if s.queue.Len()-i > extendThreshold {
		return
	}
	s.extending = true
	loaded := s.queue.Len()
	go func() {
		// Detached from the caller's context: the call that crossed the
		// threshold finishes long before the page is needed.
		items, more, err := s.src.NextPage(context.Background(), loaded)

		s.mu.Lock()
		defer s.mu.Unlock()
		s.extending = false
		if err != nil {
			return
		}
		s.queue.Append(items...)
		if !more {
			s.queue.markComplete()
		}
	}()
}

// handleEnded runs from the output's completion callback.
func (s *Sequencer) handleEnded(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen || s.state == StateIdle {
		return // stale event from a replaced item
	}
	if !s.autoAdvance {
		s.state = StatePaused
		return
	}

	err := s.playIndexLocked(context.Background(), s.index+1)
	if errors.Is(err, ErrEndOfSurah) {
		// Explicit end-of-surah signal, surfaced via Snapshot; the caller
		// decides whether to start another surah.
		return
	}
}

// TogglePlay flips Playing and Paused without resetting position.
func (s *Sequencer) TogglePlay() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StatePlaying:
		s.out.Pause()
		s.state = StatePaused
		return nil
	case StatePaused:
		if !s.muted {
			if err := s.out.Play(); err != nil {
				return fmt.Errorf("resume: %w", err)
			}
		}
		s.state = StatePlaying
		return nil
	default:
		return ErrNoItem
	}
}

// Seek moves within the loaded item; the output clamps to [0, duration].
func (s *Sequencer) Seek(seconds float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StatePlaying && s.state != StatePaused {
		return ErrNoItem
	}
	s.out.Seek(seconds)
	return nil
}

// Next advances one position, fetching another page first when playback has
// reached the end of the loaded window.
func (s *Sequencer) Next(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index < 0 {
		return s.playIndexLocked(ctx, 0)
	}
	return s.playIndexLocked(ctx, s.index+1)
}

// Previous moves one position back. At index zero it is a no-op.
func (s *Sequencer) Previous(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index <= 0 {
		return nil
	}
	return s.playIndexLocked(ctx, s.index-1)
}

// Stop detaches and returns to Idle. The queue stays loaded.
func (s *Sequencer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detachLocked()
	s.out.Pause()
	s.state = StateIdle
}

// Verses returns a copy of the loaded window, e.g. for rendering the verse
// list. A copy because the prefetch goroutine appends to the live queue.
func (s *Sequencer) Verses() []Verse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Verses()
}

// Snapshot returns the current state with live position/duration.
func (s *Sequencer) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		State:      s.state.String(),
		Index:      s.index,
		IsPlaying:  s.state == StatePlaying,
		IsLoading:  s.state == StateLoading,
		Muted:      s.muted,
		EndOfSurah: s.endOfSurah,
		QueueLen:   s.queue.Len(),
	}
	if s.state == StatePlaying || s.state == StatePaused {
		snap.PositionSeconds = s.out.Position()
		snap.DurationSeconds = s.out.Duration()
	}
	if v, ok := s.queue.At(s.index); ok && s.state != StateIdle {
		snap.Current = &v
	}
	if s.lastErr != nil {
		snap.Error = s.lastErr.Error()
	}
	return snap
}

// Sync mirrors the snapshot to fn at the given interval until ctx is done.
// Remote "now playing" surfaces hang off this loop.
func (s *Sequencer) Sync(ctx context.Context, interval time.Duration, fn func(Snapshot)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			fn(s.Snapshot())
		case <-ctx.Done():
			return
		}
	}
}

func (s *Sequencer) detachLocked() {
	if s.unsub != nil {
		s.unsub()
		s.unsub = nil
	}
}

// failLocked records a recoverable error: the sequencer drops to Idle,
// keeps the queue, and never auto-advances past the failed item.
func (s *Sequencer) failLocked(err error) {
	s.detachLocked()
	s.state = StateIdle
	s.lastErr = err
}
