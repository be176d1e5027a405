package sessions

import (
	"context"
	"sync"
)

// MemoryRepository keeps refresh sessions in process; used when neither Redis nor
// Mongo is configured.
type MemoryRepository struct {
	mu   sync.Mutex
	byRT map[string]Session
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byRT: map[string]Session{}}
}

func (r *MemoryRepository) Create(_ context.Context, s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byRT[s.RefreshToken]; ok {
		return ErrSessionExists
	}
	r.byRT[s.RefreshToken] = *s
	return nil
}

func (r *MemoryRepository) GetByRefresh(_ context.Context, refresh string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byRT[refresh]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *MemoryRepository) Take(_ context.Context, refresh string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byRT[refresh]
	if !ok {
		return nil, nil
	}
	delete(r.byRT, refresh)
	return &s, nil
}

func (r *MemoryRepository) DeleteByRefresh(_ context.Context, refresh string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byRT, refresh)
	return nil
}
