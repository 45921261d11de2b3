package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps conversations in process memory. Entries idle for longer
// than the TTL are treated as missing and pruned lazily.
type MemoryStore struct {
	ttl time.Duration
	now func() time.Time

	mu    sync.Mutex
	convs map[string]*Conversation
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		ttl:   ttl,
		now:   time.Now,
		convs: make(map[string]*Conversation),
	}
}

// Create implements Store.
func (s *MemoryStore) Create(_ context.Context, c *Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.live(c.ID); ok {
		return ErrExists
	}

	now := s.now()
	c.CreatedAt = now
	c.UpdatedAt = now
	c.Version = 1

	s.convs[c.ID] = c.Clone()
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, id string) (*Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.live(id)
	if !ok {
		return nil, ErrNotFound
	}
	return c.Clone(), nil
}

// Update implements Store.
func (s *MemoryStore) Update(_ context.Context, c *Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.live(c.ID)
	if !ok {
		return ErrNotFound
	}
	if stored.Version != c.Version {
		return ErrVersionConflict
	}

	c.Version++
	c.UpdatedAt = s.now()

	s.convs[c.ID] = c.Clone()
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.convs, id)
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clear(s.convs)
	return nil
}

// live returns the stored conversation unless it has expired. Callers hold mu.
func (s *MemoryStore) live(id string) (*Conversation, bool) {
	c, ok := s.convs[id]
	if !ok {
		return nil, false
	}
	if s.now().Sub(c.UpdatedAt) > s.ttl {
		delete(s.convs, id)
		return nil, false
	}
	return c, true
}
