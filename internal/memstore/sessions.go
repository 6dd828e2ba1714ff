package memstore

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Sessions is an in-memory stand-in for the redis session store.
type Sessions struct {
	mu     sync.RWMutex
	active map[string]string // session id -> user id
}

func NewSessions() *Sessions {
	return &Sessions{active: map[string]string{}}
}

func (s *Sessions) Create(_ context.Context, userID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.active[id] = userID
	return id, nil
}

func (s *Sessions) UserID(_ context.Context, sessionID string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.active[sessionID]
	return userID, ok, nil
}

func (s *Sessions) Revoke(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, sessionID)
	return nil
}
