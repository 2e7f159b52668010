package intake

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySessionsRoundTrip(t *testing.T) {
	s := NewMemorySessions(30 * time.Minute)
	now := time.Now()

	state := TokenState{Token: "c0ffee00c0ffee00c0ffee00c0ffee00", IssuedAt: now}
	s.Put("sid-1", state, now)

	got, ok := s.Get("sid-1")
	require.True(t, ok)
	assert.Equal(t, state, got)

	_, ok = s.Get("unknown")
	assert.False(t, ok)
}

func TestMemorySessionsOverwrite(t *testing.T) {
	s := NewMemorySessions(30 * time.Minute)
	now := time.Now()

	s.Put("sid-1", TokenState{Token: "old"}, now)
	s.Put("sid-1", TokenState{Token: "new"}, now)

	got, ok := s.Get("sid-1")
	require.True(t, ok)
	assert.Equal(t, "new", got.Token, "reissue replaces the previous token")
}

func TestMemorySessionsSweep(t *testing.T) {
	s := NewMemorySessions(time.Minute)
	t0 := time.Now().Add(-10 * time.Minute)

	s.Put("stale", TokenState{Token: "a"}, t0)
	s.Put("live", TokenState{Token: "b"}, time.Now())

	s.Sweep(time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.NotContains(t, s.entries, "stale")
	assert.Contains(t, s.entries, "live")
}

func TestNewSessionIDShape(t *testing.T) {
	a := newSessionID()
	b := newSessionID()
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}
