package app

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"places_leads/internal/domain"
)

// SessionStore hands out one independent Aggregator per session. Nothing is
// shared between sessions except the stateless relay.
type SessionStore struct {
	relay   domain.Relay
	maxRows int
	now     func() time.Time

	// OnSizeChange, when set, is called with the live session count.
	OnSizeChange func(n int)

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	agg      *Aggregator
	lastSeen time.Time
}

func NewSessionStore(r domain.Relay, maxRows int) *SessionStore {
	return &SessionStore{relay: r, maxRows: maxRows, now: time.Now, sessions: map[string]*session{}}
}

// WithClock replaces the clock used for idle tracking and review recency.
func (s *SessionStore) WithClock(now func() time.Time) *SessionStore {
	s.now = now
	return s
}

func (s *SessionStore) Create() (string, *Aggregator) {
	id := uuid.NewString()
	agg := NewAggregator(s.relay, s.maxRows).WithClock(s.now)

	s.mu.Lock()
	s.sessions[id] = &session{agg: agg, lastSeen: s.now()}
	n := len(s.sessions)
	s.mu.Unlock()

	s.notify(n)
	return id, agg
}

// Get returns the session's aggregator and marks it as recently used.
func (s *SessionStore) Get(id string) (*Aggregator, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	sess.lastSeen = s.now()
	return sess.agg, true
}

// GetOrCreate returns the named session, or a fresh one when id is unknown.
func (s *SessionStore) GetOrCreate(id string) (string, *Aggregator) {
	if id != "" {
		if agg, ok := s.Get(id); ok {
			return id, agg
		}
	}
	return s.Create()
}

func (s *SessionStore) Delete(id string) bool {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	n := len(s.sessions)
	s.mu.Unlock()

	if ok {
		s.notify(n)
	}
	return ok
}

func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Expire drops sessions idle for longer than idle and returns how many went.
func (s *SessionStore) Expire(idle time.Duration) int {
	cutoff := s.now().Add(-idle)

	s.mu.Lock()
	dropped := 0
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
			dropped++
		}
	}
	n := len(s.sessions)
	s.mu.Unlock()

	if dropped > 0 {
		s.notify(n)
	}
	return dropped
}

// Sweep runs Expire every interval until ctx is done.
func (s *SessionStore) Sweep(ctx context.Context, every, idle time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.Expire(idle); n > 0 {
				log.Debug().Int("expired", n).Msg("sessions expired")
			}
		}
	}
}

func (s *SessionStore) notify(n int) {
	if s.OnSizeChange != nil {
		s.OnSizeChange(n)
	}
}
