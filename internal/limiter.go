package intake

import (
	"context"
	"sync"
	"time"
)

// Limiter decides whether a submission from the given client identity may
// proceed. Implementations are safe for concurrent use. The identity is an
// opaque key; clients behind a missing or empty origin all share the empty
// identity and are limited together.
type Limiter interface {
	Allow(ctx context.Context, identity string, now time.Time) (bool, error)
}

// MemoryLimiter is a sliding-window limiter over an in-process map of
// per-identity timestamp windows. It suits single-instance deployments;
// use RedisLimiter when submissions are spread across instances.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	max     int
	window  time.Duration
}

func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		windows: map[string][]time.Time{},
		max:     max,
		window:  window,
	}
}

// Allow evicts entries older than the window, then admits and records now
// unless the identity already has max entries remaining. A rejected call
// records nothing.
func (l *MemoryLimiter) Allow(_ context.Context, identity string, now time.Time) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	w := l.windows[identity]
	// entries strictly older than the window expire; timestamps are appended
	// in order, so they form a prefix
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(w) && w[i].Before(cutoff) {
		i++
	}
	w = w[i:]

	if len(w) >= l.max {
		l.windows[identity] = w
		return false, nil
	}

	l.windows[identity] = append(w, now)
	return true, nil
}

// Sweep drops identities whose newest entry has aged out of the window,
// bounding map growth over the process lifetime.
func (l *MemoryLimiter) Sweep(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := now.Add(-l.window)
	for id, w := range l.windows {
		if len(w) == 0 || w[len(w)-1].Before(cutoff) {
			delete(l.windows, id)
		}
	}
}

// Janitor runs Sweep on every tick until the context is cancelled. Run it in
// its own goroutine, off the request path.
func (l *MemoryLimiter) Janitor(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			l.Sweep(now)
		}
	}
}
