package intake

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"
)

const sessionCookie = "intake_session"

// SessionStore keeps the per-session token state. Sessions are written on
// every response (each response reissues a token), so a plain guarded map
// with a time-to-live is enough; nothing here is contended by a single
// browser's sequential submissions.
type SessionStore interface {
	Get(id string) (TokenState, bool)
	Put(id string, state TokenState, now time.Time)
}

type sessionEntry struct {
	state    TokenState
	expireAt time.Time
}

// MemorySessions is the in-memory SessionStore.
type MemorySessions struct {
	mu      sync.Mutex
	entries map[string]sessionEntry
	ttl     time.Duration
}

func NewMemorySessions(ttl time.Duration) *MemorySessions {
	return &MemorySessions{entries: map[string]sessionEntry{}, ttl: ttl}
}

func (s *MemorySessions) Get(id string) (TokenState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok || time.Now().After(e.expireAt) {
		return TokenState{}, false
	}
	return e.state, true
}

func (s *MemorySessions) Put(id string, state TokenState, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = sessionEntry{state: state, expireAt: now.Add(s.ttl)}
}

// Sweep deletes expired sessions.
func (s *MemorySessions) Sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.entries {
		if now.After(e.expireAt) {
			delete(s.entries, id)
		}
	}
}

// Janitor runs Sweep on every tick until the context is cancelled.
func (s *MemorySessions) Janitor(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			s.Sweep(now)
		}
	}
}

// sessionID reads the session cookie, minting a new identifier when the
// request has none. The second return reports whether a cookie must be set
// on the response.
func sessionID(r *http.Request) (string, bool) {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return c.Value, false
	}
	return newSessionID(), true
}

func newSessionID() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing is unrecoverable for a security identifier
		panic(fmt.Sprintf("session id entropy unavailable: %v", err))
	}
	return hex.EncodeToString(b)
}

func setSessionCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
