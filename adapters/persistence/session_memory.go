package persistence

import (
	"context"
	"sync"

	"github.com/khoahotran/labour-connect/internal/application/usecase/profile"
)

// MemorySessionStore keeps edit sessions in process. Sessions are copied on
// the way in and out so callers never share state with the store.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*profile.Session
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]*profile.Session)}
}

func (s *MemorySessionStore) Get(_ context.Context, userID string) (*profile.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return nil, profile.ErrSessionNotFound
	}
	return sess.Snapshot(), nil
}

func (s *MemorySessionStore) Put(_ context.Context, sess *profile.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.UserID] = sess.Snapshot()
	return nil
}

func (s *MemorySessionStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
	return nil
}
