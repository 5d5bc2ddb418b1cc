package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_SetGet(t *testing.T) {
	c := New(true)

	etag := c.Set("prayers:1", []byte(`{"Fajr":"05:00"}`), time.Minute)
	assert.NotEmpty(t, etag)

	data, gotTag, ok := c.Get("prayers:1")
	require.True(t, ok)
	assert.Equal(t, etag, gotTag)
	assert.JSONEq(t, `{"Fajr":"05:00"}`, string(data))
}

func TestCache_Expiry(t *testing.T) {
	c := New(true)
	c.Set("k", []byte("v"), -time.Second)

	_, _, ok := c.Get("k")
	assert.False(t, ok)
}

func TestCache_Disabled(t *testing.T) {
	c := New(false)
	etag := c.Set("k", []byte("v"), time.Minute)
	assert.NotEmpty(t, etag, "disabled cache still computes etags")

	_, _, ok := c.Get("k")
	assert.False(t, ok)
}

func TestCheckETagMatch(t *testing.T) {
	etag := ComputeETag([]byte("body"))
	assert.True(t, CheckETagMatch(etag, etag))
	assert.True(t, CheckETagMatch("*", etag))
	assert.False(t, CheckETagMatch("", etag))
	assert.False(t, CheckETagMatch(`W/"other"`, etag))
}

func TestUntilEndOfDay(t *testing.T) {
	loc := time.FixedZone("X", 2*3600)
	now := time.Date(2024, 3, 1, 22, 0, 0, 0, loc)
	assert.Equal(t, 2*time.Hour, UntilEndOfDay(now))

	// At the stroke of midnight the TTL never collapses to zero.
	almost := time.Date(2024, 3, 1, 23, 59, 59, int(time.Second-time.Nanosecond), loc)
	assert.Equal(t, time.Minute, UntilEndOfDay(almost))
}
