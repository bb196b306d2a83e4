// Package memory provides a process-local session store for single-instance
// development deployments and tests.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	domainauth "github.com/almacen/almacen-ui/internal/domain/auth"
	"github.com/almacen/almacen-ui/internal/ports"
)

// SessionStore keeps sessions in a map guarded by a RWMutex.
// Expired entries are dropped lazily on read.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domainauth.Session
	now      func() time.Time
}

// NewSessionStore creates an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]domainauth.Session),
		now:      time.Now,
	}
}

func (s *SessionStore) Save(_ context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	if sess.Expired(s.now()) {
		return errors.New("session is expired")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return nil
}

func (s *SessionStore) Get(_ context.Context, id string) (domainauth.Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return domainauth.Session{}, ports.ErrSessionNotFound
	}
	if sess.Expired(s.now()) {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		return domainauth.Session{}, ports.ErrSessionNotFound
	}
	return sess, nil
}

func (s *SessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// List returns live sessions, soonest expiry first.
func (s *SessionStore) List(_ context.Context) ([]domainauth.Session, error) {
	now := s.now()
	s.mu.RLock()
	out := make([]domainauth.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		if !sess.Expired(now) {
			out = append(out, sess)
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	return out, nil
}
