package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOutput is a hand-driven Output: completion fires only when the test
// says so. It also remembers every completion callback ever registered so
// tests can replay a stale one.
type fakeOutput struct {
	mu      sync.Mutex
	loaded  string
	playing bool
	pos     float64
	dur     float64

	nextSub int
	subs    map[int]func()
	all     []func()

	loadErr map[string]error
	loads   []string
}

func newFakeOutput() *fakeOutput {
	return &fakeOutput{dur: 10, subs: make(map[int]func()), loadErr: make(map[string]error)}
}

func (o *fakeOutput) Load(url string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.loadErr[url]; err != nil {
		return err
	}
	o.loaded = url
	o.loads = append(o.loads, url)
	o.pos = 0
	o.playing = false
	return nil
}

func (o *fakeOutput) Play() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.playing = true
	return nil
}

func (o *fakeOutput) Pause() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.playing = false
}

func (o *fakeOutput) Seek(seconds float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if seconds < 0 {
		seconds = 0
	}
	if seconds > o.dur {
		seconds = o.dur
	}
	o.pos = seconds
}

func (o *fakeOutput) Position() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.pos
}

func (o *fakeOutput) Duration() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.dur
}

func (o *fakeOutput) OnComplete(fn func()) func() {
	o.mu.Lock()
	defer o.mu.Unlock()
	id := o.nextSub
	o.nextSub++
	o.subs[id] = fn
	o.all = append(o.all, fn)
	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		delete(o.subs, id)
	}
}

// fire delivers completion to the currently subscribed handlers.
func (o *fakeOutput) fire() {
	o.mu.Lock()
	fns := make([]func(), 0, len(o.subs))
	for _, fn := range o.subs {
		fns = append(fns, fn)
	}
	o.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// fakeSource serves `total` verses of surah 18 in pages of `pageSize`.
// Fetches can run on the prefetch goroutine, so the counters are locked.
type fakeSource struct {
	total    int
	pageSize int

	mu    sync.Mutex
	calls int
	gate  chan struct{}
}

// setGate makes every later NextPage call wait until the channel is closed.
func (s *fakeSource) setGate(ch chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gate = ch
}

func (s *fakeSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *fakeSource) NextPage(_ context.Context, loaded int) ([]Verse, bool, error) {
	s.mu.Lock()
	s.calls++
	gate := s.gate
	s.mu.Unlock()
	if gate != nil {
		<-gate
	}

	var items []Verse
	for i := loaded + 1; i <= s.total && len(items) < s.pageSize; i++ {
		items = append(items, Verse{
			Surah:         18,
			NumberInSurah: i,
			AudioURL:      fmt.Sprintf("https://cdn.example/18/%d.mp3", i),
			Text:          fmt.Sprintf("verse %d", i),
		})
	}
	return items, loaded+len(items) < s.total, nil
}

// repeatingSource returns the same first page forever while claiming more
// verses remain.
type repeatingSource struct{}

func (repeatingSource) NextPage(context.Context, int) ([]Verse, bool, error) {
	items := make([]Verse, 0, 3)
	for i := 1; i <= 3; i++ {
		items = append(items, Verse{
			Surah:         18,
			NumberInSurah: i,
			AudioURL:      fmt.Sprintf("https://cdn.example/18/%d.mp3", i),
		})
	}
	return items, true, nil
}

func newSequencer(t *testing.T, total, pageSize int) (*Sequencer, *fakeOutput, *fakeSource) {
	t.Helper()
	out := newFakeOutput()
	src := &fakeSource{total: total, pageSize: pageSize}
	return New(out, src), out, src
}

func TestSequencer_PlayAndAutoAdvance(t *testing.T) {
	seq, out, _ := newSequencer(t, 10, 5)
	ctx := context.Background()

	require.NoError(t, seq.PlayIndex(ctx, 0))
	snap := seq.Snapshot()
	assert.Equal(t, "playing", snap.State)
	require.NotNil(t, snap.Current)
	assert.Equal(t, "18-1", snap.Current.Key())
	assert.True(t, out.playing)

	out.fire()
	snap = seq.Snapshot()
	assert.Equal(t, 1, snap.Index)
	assert.Equal(t, "18-2", snap.Current.Key())
	assert.Equal(t, "playing", snap.State)
}

func TestSequencer_StaleEndedNeverAdvances(t *testing.T) {
	seq, out, _ := newSequencer(t, 10, 10)
	ctx := context.Background()

	require.NoError(t, seq.PlayIndex(ctx, 0))
	staleHandler := out.all[0] // item A's completion callback

	require.NoError(t, seq.PlayIndex(ctx, 3)) // switch to item B

	// A's audio finally "ends" after the switch. It must not advance B.
	staleHandler()
	snap := seq.Snapshot()
	assert.Equal(t, 3, snap.Index)
	assert.Equal(t, "18-4", snap.Current.Key())

	// B's own completion still advances normally.
	out.fire()
	assert.Equal(t, 4, seq.Snapshot().Index)
}

func TestSequencer_DetachesHandlerOnSwitch(t *testing.T) {
	seq, out, _ := newSequencer(t, 10, 10)
	ctx := context.Background()

	require.NoError(t, seq.PlayIndex(ctx, 0))
	require.NoError(t, seq.PlayIndex(ctx, 1))

	out.mu.Lock()
	live := len(out.subs)
	out.mu.Unlock()
	assert.Equal(t, 1, live, "previous completion handler must be detached")
}

func TestSequencer_LazyExtension(t *testing.T) {
	seq, _, src := newSequencer(t, 20, 5)
	ctx := context.Background()

	require.NoError(t, seq.PlayIndex(ctx, 0))
	assert.Equal(t, 5, seq.Snapshot().QueueLen, "far from the end, no prefetch")

	require.NoError(t, seq.PlayIndex(ctx, 2))
	require.Eventually(t, func() bool { return seq.Snapshot().QueueLen == 10 },
		time.Second, 5*time.Millisecond, "within 3 of the end, one page prefetched")
	assert.Equal(t, 2, src.callCount())
}

func TestSequencer_PrefetchDoesNotBlockControls(t *testing.T) {
	seq, _, src := newSequencer(t, 20, 5)
	ctx := context.Background()

	require.NoError(t, seq.PlayIndex(ctx, 0)) // first page loads immediately

	// Every later fetch stalls until released.
	release := make(chan struct{})
	src.setGate(release)

	require.NoError(t, seq.PlayIndex(ctx, 2)) // crosses the threshold

	// Controls and snapshots must not wait on the in-flight fetch.
	got := make(chan Snapshot, 1)
	go func() { got <- seq.Snapshot() }()
	select {
	case snap := <-got:
		assert.Equal(t, "playing", snap.State)
		assert.Equal(t, 5, snap.QueueLen)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("snapshot waited on an in-flight queue fetch")
	}
	require.NoError(t, seq.TogglePlay())
	require.NoError(t, seq.TogglePlay())

	// Crossing the threshold again while a fetch is in flight must not
	// start a second one.
	require.NoError(t, seq.PlayIndex(ctx, 3))
	require.NoError(t, seq.PlayIndex(ctx, 4))

	close(release)
	require.Eventually(t, func() bool { return seq.Snapshot().QueueLen == 10 },
		time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, src.callCount(), "one initial page plus one prefetch")
}

func TestSequencer_RepeatingSourceSurfacesError(t *testing.T) {
	seq := New(newFakeOutput(), repeatingSource{})
	ctx := context.Background()

	require.NoError(t, seq.PlayIndex(ctx, 0))

	// Past the loaded window, the source keeps serving the same page; the
	// sequencer must error out rather than refetch forever.
	err := seq.PlayIndex(ctx, 5)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrEndOfSurah)

	snap := seq.Snapshot()
	assert.Equal(t, "idle", snap.State)
	assert.NotEmpty(t, snap.Error)
}

func TestSequencer_NextPastWindowFetches(t *testing.T) {
	seq, _, _ := newSequencer(t, 12, 5)
	ctx := context.Background()

	require.NoError(t, seq.PlayIndex(ctx, 0))
	for i := 1; i <= 11; i++ {
		require.NoError(t, seq.Next(ctx))
	}
	snap := seq.Snapshot()
	assert.Equal(t, 11, snap.Index)
	assert.Equal(t, 12, snap.QueueLen)

	err := seq.Next(ctx)
	assert.ErrorIs(t, err, ErrEndOfSurah)
	snap = seq.Snapshot()
	assert.True(t, snap.EndOfSurah)
	assert.Equal(t, "idle", snap.State)
}

func TestSequencer_EndOfSurahSignal(t *testing.T) {
	seq, out, _ := newSequencer(t, 2, 5)
	ctx := context.Background()

	require.NoError(t, seq.PlayIndex(ctx, 1))
	out.fire() // last verse finished

	snap := seq.Snapshot()
	assert.Equal(t, "idle", snap.State)
	assert.True(t, snap.EndOfSurah, "caller gets an explicit end-of-surah signal")
}

func TestSequencer_TogglePlay(t *testing.T) {
	seq, out, _ := newSequencer(t, 5, 5)
	ctx := context.Background()

	assert.ErrorIs(t, seq.TogglePlay(), ErrNoItem)

	require.NoError(t, seq.PlayIndex(ctx, 0))
	out.Seek(4)

	require.NoError(t, seq.TogglePlay())
	assert.Equal(t, "paused", seq.Snapshot().State)
	assert.False(t, out.playing)
	assert.Equal(t, 4.0, out.pos, "pause keeps position")

	require.NoError(t, seq.TogglePlay())
	assert.Equal(t, "playing", seq.Snapshot().State)
	assert.True(t, out.playing)
}

func TestSequencer_SeekClamped(t *testing.T) {
	seq, out, _ := newSequencer(t, 5, 5)
	ctx := context.Background()

	assert.ErrorIs(t, seq.Seek(3), ErrNoItem)

	require.NoError(t, seq.PlayIndex(ctx, 0))
	require.NoError(t, seq.Seek(99))
	assert.Equal(t, out.dur, out.pos)
	require.NoError(t, seq.Seek(-5))
	assert.Zero(t, out.pos)
}

func TestSequencer_PreviousAtZeroIsNoop(t *testing.T) {
	seq, _, _ := newSequencer(t, 5, 5)
	ctx := context.Background()

	require.NoError(t, seq.PlayIndex(ctx, 0))
	require.NoError(t, seq.Previous(ctx))
	assert.Equal(t, 0, seq.Snapshot().Index)

	require.NoError(t, seq.Next(ctx))
	require.NoError(t, seq.Previous(ctx))
	assert.Equal(t, 0, seq.Snapshot().Index)
}

func TestSequencer_LoadFailureIsRecoverable(t *testing.T) {
	seq, out, _ := newSequencer(t, 5, 5)
	ctx := context.Background()

	require.NoError(t, seq.PlayIndex(ctx, 0))
	out.loadErr["https://cdn.example/18/2.mp3"] = errors.New("boom")

	err := seq.Next(ctx)
	require.Error(t, err)
	snap := seq.Snapshot()
	assert.Equal(t, "idle", snap.State)
	assert.NotEmpty(t, snap.Error)

	// No auto-advance past the failed item; the old handler is gone.
	out.fire()
	assert.Equal(t, "idle", seq.Snapshot().State)

	// The sequencer stays usable for other items.
	require.NoError(t, seq.PlayIndex(ctx, 2))
	assert.Equal(t, "playing", seq.Snapshot().State)
	assert.Empty(t, seq.Snapshot().Error)
}

func TestSequencer_MutedKeepsIndexTracking(t *testing.T) {
	seq, out, _ := newSequencer(t, 5, 5)
	ctx := context.Background()

	seq.SetMuted(true)
	require.NoError(t, seq.PlayIndex(ctx, 0))

	snap := seq.Snapshot()
	assert.Equal(t, "playing", snap.State, "index tracking continues while muted")
	assert.False(t, out.playing, "audio stays silent while muted")

	out.fire()
	assert.Equal(t, 1, seq.Snapshot().Index)

	seq.SetMuted(false)
	assert.True(t, out.playing)
}

func TestSequencer_AutoAdvanceOff(t *testing.T) {
	seq, out, _ := newSequencer(t, 5, 5)
	ctx := context.Background()

	seq.SetAutoAdvance(false)
	require.NoError(t, seq.PlayIndex(ctx, 0))
	out.fire()

	snap := seq.Snapshot()
	assert.Equal(t, 0, snap.Index)
	assert.Equal(t, "paused", snap.State)
}

func TestSequencer_StopDetaches(t *testing.T) {
	seq, out, _ := newSequencer(t, 5, 5)
	ctx := context.Background()

	require.NoError(t, seq.PlayIndex(ctx, 0))
	seq.Stop()
	assert.Equal(t, "idle", seq.Snapshot().State)

	out.fire() // nothing subscribed, nothing advances
	assert.Equal(t, "idle", seq.Snapshot().State)
}
