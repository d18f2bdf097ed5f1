package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/marketplace-api/internal/domain"
)

// MockProfileCache is an in-memory profile cache.
type MockProfileCache struct {
	mu      sync.Mutex
	entries map[uuid.UUID]domain.User

	Hits int
}

// NewMockProfileCache creates an empty cache.
func NewMockProfileCache() *MockProfileCache {
	return &MockProfileCache{entries: make(map[uuid.UUID]domain.User)}
}

// Get returns a copy of the cached profile.
func (c *MockProfileCache) Get(ctx context.Context, id uuid.UUID) (*domain.User, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	u, ok := c.entries[id]
	if !ok {
		return nil, false
	}
	c.Hits++
	return cloneUser(&u), true
}

// Set caches a copy of user.
func (c *MockProfileCache) Set(ctx context.Context, user *domain.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[user.ID] = *cloneUser(user)
}

// Invalidate drops the cached profiles of ids.
func (c *MockProfileCache) Invalidate(ctx context.Context, ids ...uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		delete(c.entries, id)
	}
}

// Contains reports whether id is cached.
func (c *MockProfileCache) Contains(id uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[id]
	return ok
}
