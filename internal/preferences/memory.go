package preferences

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore keeps preferences in a map. It is safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]Preferences
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]Preferences)}
}

// Get returns a copy of the stored preferences.
func (s *MemoryStore) Get(ctx context.Context, id string) (Preferences, error) {
	if err := ctx.Err(); err != nil {
		return Preferences{}, err
	}
	if err := ValidateUserID(id); err != nil {
		return Preferences{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.users[id]
	if !ok {
		return Preferences{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return p.clone(), nil
}

// Put stores a copy of p.
func (s *MemoryStore) Put(ctx context.Context, id string, p Preferences) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateUserID(id); err != nil {
		return err
	}
	s.mu.Lock()
	s.users[id] = p.clone()
	s.mu.Unlock()
	return nil
}

// Update applies fn to a copy and stores it only if fn succeeds.
func (s *MemoryStore) Update(ctx context.Context, id string, fn func(*Preferences) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateUserID(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.users[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	p = p.clone()
	if err := fn(&p); err != nil {
		return err
	}
	s.users[id] = p.clone()
	return nil
}

// Create stores empty preferences under a fresh UUID.
func (s *MemoryStore) Create(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		id := newUserID()
		if _, taken := s.users[id]; taken {
			continue
		}
		s.users[id] = Preferences{}.withEmptySlices()
		return id, nil
	}
}

// Delete removes id if present.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateUserID(id); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.users, id)
	s.mu.Unlock()
	return nil
}
