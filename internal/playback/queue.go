// Package playback drives a single logical "now playing" verse across an
// ordered, lazily-extended queue, using one audio output handle at a time.
package playback

import (
	"context"
	"fmt"
)

// Verse is one audio-bearing queue item.
type Verse struct {
	Surah         int    `json:"surah"`
	NumberInSurah int    `json:"number_in_surah"`
	SurahName     string `json:"surah_name,omitempty"`
	AudioURL      string `json:"audio_url"`
	Text          string `json:"text"`
	Translation   string `json:"translation,omitempty"`
}

// Key identifies a verse as "<surah>-<ayah>"; the same key format is used
// for liked-ayah storage.
func (v Verse) Key() string {
	return fmt.Sprintf("%d-%d", v.Surah, v.NumberInSurah)
}

// Source supplies further pages of verses as playback approaches the end of
// the loaded window. more=false marks the end of the surah.
type Source interface {
	NextPage(ctx context.Context, loaded int) (items []Verse, more bool, err error)
}

// extendThreshold: fetch the next page once the playing index is within this
// many items of the loaded end.
const extendThreshold = 3

// Queue is the loaded window of the playback order. Appends suppress
// duplicate (surah, ayah) pairs.
type Queue struct {
	items    []Verse
	seen     map[string]struct{}
	complete bool
}

// NewQueue returns an empty, extendable queue.
func NewQueue() *Queue {
	return &Queue{seen: make(map[string]struct{})}
}

// Append adds items in order, skipping any whose identity is already
// present. Returns how many were actually added.
func (q *Queue) Append(items ...Verse) int {
	added := 0
	for _, v := range items {
		key := v.Key()
		if _, dup := q.seen[key]; dup {
			continue
		}
		q.seen[key] = struct{}{}
		q.items = append(q.items, v)
		added++
	}
	return added
}

// Len returns the number of loaded items.
func (q *Queue) Len() int { return len(q.items) }

// Verses returns a copy of the loaded items in order.
func (q *Queue) Verses() []Verse {
	out := make([]Verse, len(q.items))
	copy(out, q.items)
	return out
}

// At returns the item at index i.
func (q *Queue) At(i int) (Verse, bool) {
	if i < 0 || i >= len(q.items) {
		return Verse{}, false
	}
	return q.items[i], true
}

// Complete reports whether the source has been exhausted.
func (q *Queue) Complete() bool { return q.complete }

func (q *Queue) markComplete() { q.complete = true }

// extend pulls the next page from src when index is within extendThreshold
// of the loaded end. No-op once the source is exhausted.
func (q *Queue) extend(ctx context.Context, src Source, index int) error {
	if q.complete || src == nil {
		return nil
	}
	if q.Len()-index > extendThreshold {
		return nil
	}
	items, more, err := src.NextPage(ctx, q.Len())
	if err != nil {
		return fmt.Errorf("extend queue: %w", err)
	}
	added := q.Append(items...)
	if !more {
		q.markComplete()
		return nil
	}
	if added == 0 {
		// A page of already-seen verses with more still promised would
		// refetch forever; treat it as an upstream fault instead.
		return fmt.Errorf("extend queue: page at offset %d added no new verses", q.Len())
	}
	return nil
}
