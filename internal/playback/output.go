package playback

import (
	"sync"
	"time"
)

// Output is the single audio handle a sequencer owns. Implementations wrap
// whatever actually plays sound — a platform audio element on clients, a
// wall-clock simulation on the server.
//
// Completion is delivered through a subscription handle so the sequencer can
// detach the previous item's handler before attaching the next one; a
// handler registered for item A must never observe item B.
type Output interface {
	// Load prepares url for playback, resetting position to zero. An error
	// is recoverable: the output stays usable for other URLs.
	Load(url string) error
	Play() error
	Pause()
	// Seek moves to position seconds, clamped to [0, Duration].
	Seek(seconds float64)
	Position() float64
	Duration() float64
	// OnComplete registers fn to run when the loaded item finishes.
	// The returned function unsubscribes; it is safe to call more than once.
	OnComplete(fn func()) (unsubscribe func())
}

// TimedOutput simulates playback against the wall clock: an item "plays"
// for a fixed duration from Play, then fires completion. It backs
// server-side playback sessions so auto-advance behaves in real time.
type TimedOutput struct {
	mu        sync.Mutex
	loaded    bool
	playing   bool
	duration  float64
	offset    float64   // position when paused, or at last play
	startedAt time.Time // valid while playing
	timer     *time.Timer

	nextSub int
	subs    map[int]func()
}

// NewTimedOutput creates a wall-clock output whose items all report the
// given duration in seconds.
func NewTimedOutput(itemDuration float64) *TimedOutput {
	return &TimedOutput{
		duration: itemDuration,
		subs:     make(map[int]func()),
	}
}

func (o *TimedOutput) Load(url string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stopTimerLocked()
	o.loaded = true
	o.playing = false
	o.offset = 0
	return nil
}

func (o *TimedOutput) Play() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.loaded || o.playing {
		return nil
	}
	o.playing = true
	o.startedAt = time.Now()
	o.armTimerLocked()
	return nil
}

func (o *TimedOutput) Pause() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.playing {
		return
	}
	o.offset = o.positionLocked()
	o.playing = false
	o.stopTimerLocked()
}

func (o *TimedOutput) Seek(seconds float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if seconds < 0 {
		seconds = 0
	}
	if seconds > o.duration {
		seconds = o.duration
	}
	o.offset = seconds
	if o.playing {
		o.startedAt = time.Now()
		o.armTimerLocked()
	}
}

func (o *TimedOutput) Position() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.positionLocked()
}

func (o *TimedOutput) Duration() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.duration
}

func (o *TimedOutput) OnComplete(fn func()) (unsubscribe func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	id := o.nextSub
	o.nextSub++
	o.subs[id] = fn

	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		delete(o.subs, id)
	}
}

func (o *TimedOutput) positionLocked() float64 {
	p := o.offset
	if o.playing {
		p += time.Since(o.startedAt).Seconds()
	}
	if p > o.duration {
		p = o.duration
	}
	return p
}

func (o *TimedOutput) armTimerLocked() {
	o.stopTimerLocked()
	remaining := o.duration - o.offset
	if remaining < 0 {
		remaining = 0
	}
	o.timer = time.AfterFunc(time.Duration(remaining*float64(time.Second)), o.fireComplete)
}

func (o *TimedOutput) stopTimerLocked() {
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
}

func (o *TimedOutput) fireComplete() {
	o.mu.Lock()
	if !o.playing {
		o.mu.Unlock()
		return
	}
	o.playing = false
	o.offset = o.duration
	fns := make([]func(), 0, len(o.subs))
	for _, fn := range o.subs {
		fns = append(fns, fn)
	}
	o.mu.Unlock()

	// Callbacks run outside the lock: they typically re-enter the output
	// (Load/Play for the next item).
	for _, fn := range fns {
		fn()
	}
}
