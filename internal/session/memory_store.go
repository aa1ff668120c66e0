package session

import (
	"context"
	"errors"
	"sync"
)

// MemoryStore keeps the session in process memory. Used in tests and by
// embedders that manage persistence themselves.
type MemoryStore struct {
	mu   sync.RWMutex
	sess *Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Save(ctx context.Context, sess *Session) error {
	if sess == nil {
		return errors.New("session is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sess = stamp(sess)
	return nil
}

func (s *MemoryStore) Load(ctx context.Context) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.sess == nil {
		return nil, ErrNoSession
	}
	return clone(s.sess), nil
}

func (s *MemoryStore) Patch(ctx context.Context, p Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sess == nil {
		return nil
	}

	sess := clone(s.sess)
	sess.Apply(p)
	s.sess = stamp(sess)
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sess = nil
	return nil
}
