package session

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Store holds the live sessions of this process. Sessions are not persisted.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Get returns the session for id, creating it on first use.
func (st *Store) Get(id string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[id]
	if !ok {
		s = newSession(id, st.now)
		st.sessions[id] = s
	}
	return s
}

// Delete drops the session for id.
func (st *Store) Delete(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}

// Len is the number of live sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Expire drops sessions idle for longer than ttl and returns how many went.
// Sessions with a payment in flight are kept.
func (st *Store) Expire(ttl time.Duration) int {
	cutoff := st.now().Add(-ttl)

	st.mu.Lock()
	defer st.mu.Unlock()

	n := 0
	for id, s := range st.sessions {
		if !s.lastTouched().Before(cutoff) {
			continue
		}
		if s.paymentPending() {
			continue
		}
		delete(st.sessions, id)
		n++
	}
	return n
}

// RunExpiry calls Expire every interval until ctx is done.
func (st *Store) RunExpiry(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := st.Expire(ttl); n > 0 {
				slog.InfoContext(ctx, "expired idle sessions", "count", n)
			}
		}
	}
}
