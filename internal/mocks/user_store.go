package mocks

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/marketplace-api/internal/domain"
	"github.com/phrazzld/marketplace-api/internal/query"
	"github.com/phrazzld/marketplace-api/internal/store"
)

// MockUserStore is an in-memory store.UserStore. Records are copied on the
// way in and out, so callers never share state with the store.
type MockUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User

	// Err, when set, is returned by every method.
	Err error
}

var _ store.UserStore = (*MockUserStore)(nil)

// NewMockUserStore creates an empty store.
func NewMockUserStore() *MockUserStore {
	return &MockUserStore{users: make(map[uuid.UUID]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	c.Followers = slices.Clone(u.Followers)
	c.Following = slices.Clone(u.Following)
	if c.Followers == nil {
		c.Followers = []uuid.UUID{}
	}
	if c.Following == nil {
		c.Following = []uuid.UUID{}
	}
	return &c
}

func userRecord(u *domain.User) query.Record {
	return query.RecordFunc(func(f query.Field) (any, bool) {
		switch f {
		case query.FieldID:
			return u.ID, true
		case query.FieldUsername:
			return u.Username, true
		case query.FieldFullName:
			return u.FullName, true
		case query.FieldLocation:
			return u.Location, true
		}
		return nil, false
	})
}

// conflictLocked reports a unique violation against users other than self.
func (m *MockUserStore) conflictLocked(self uuid.UUID, email, username string) error {
	for _, u := range m.users {
		if u.ID == self {
			continue
		}
		if strings.EqualFold(u.Email, email) {
			return store.ErrEmailExists
		}
		if u.Username == username {
			return store.ErrUsernameExists
		}
	}
	return nil
}

// Create implements store.UserStore.Create
func (m *MockUserStore) Create(ctx context.Context, user *domain.User) error {
	if m.Err != nil {
		return m.Err
	}
	if err := user.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.conflictLocked(user.ID, user.Email, user.Username); err != nil {
		return err
	}
	if _, exists := m.users[user.ID]; exists {
		return store.ErrDuplicate
	}

	user.Followers, user.Following = []uuid.UUID{}, []uuid.UUID{}
	user.FollowersCount, user.FollowingCount = 0, 0
	m.users[user.ID] = cloneUser(user)
	return nil
}

// Put stores user as-is, bypassing validation and uniqueness checks. Tests
// use it to seed arbitrary, even inconsistent, state.
func (m *MockUserStore) Put(user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = cloneUser(user)
}

func (m *MockUserStore) find(match func(*domain.User) bool) (*domain.User, error) {
	if m.Err != nil {
		return nil, m.Err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if match(u) {
			return cloneUser(u), nil
		}
	}
	return nil, store.ErrUserNotFound
}

// GetByID implements store.UserStore.GetByID
func (m *MockUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return m.find(func(u *domain.User) bool { return u.ID == id })
}

// GetByEmail implements store.UserStore.GetByEmail
func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	return m.find(func(u *domain.User) bool { return strings.EqualFold(u.Email, email) })
}

// GetByUsername implements store.UserStore.GetByUsername
func (m *MockUserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	return m.find(func(u *domain.User) bool { return u.Username == username })
}

// Update implements store.UserStore.Update
func (m *MockUserStore) Update(ctx context.Context, user *domain.User) error {
	if m.Err != nil {
		return m.Err
	}
	if err := user.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.users[user.ID]
	if !ok {
		return store.ErrUserNotFound
	}
	if err := m.conflictLocked(user.ID, user.Email, user.Username); err != nil {
		return err
	}

	updated := cloneUser(user)
	// The follow graph is owned by Follow/Unfollow.
	updated.Followers, updated.Following = existing.Followers, existing.Following
	updated.FollowersCount, updated.FollowingCount = existing.FollowersCount, existing.FollowingCount
	updated.UpdatedAt = time.Now().UTC()
	m.users[user.ID] = updated
	user.UpdatedAt = updated.UpdatedAt
	return nil
}

// List implements store.UserStore.List
func (m *MockUserStore) List(ctx context.Context, filter query.Predicate, page query.Page) ([]*domain.User, int64, error) {
	if m.Err != nil {
		return nil, 0, m.Err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []*domain.User
	for _, u := range m.users {
		if query.Match(filter, userRecord(u)) {
			matched = append(matched, u)
		}
	}
	sortNewestFirst(matched, func(u *domain.User) (time.Time, uuid.UUID) { return u.CreatedAt, u.ID })

	window := query.Window(matched, page)
	out := make([]*domain.User, 0, len(window))
	for _, u := range window {
		out = append(out, cloneUser(u))
	}
	return out, int64(len(matched)), nil
}

func (m *MockUserStore) pairLocked(targetID, actorID uuid.UUID) (*domain.User, *domain.User, error) {
	target, ok := m.users[targetID]
	if !ok {
		return nil, nil, store.ErrUserNotFound
	}
	actor, ok := m.users[actorID]
	if !ok {
		return nil, nil, store.ErrUserNotFound
	}
	return target, actor, nil
}

// Follow implements store.UserStore.Follow
func (m *MockUserStore) Follow(ctx context.Context, targetID, actorID uuid.UUID) (*domain.FollowResult, error) {
	if m.Err != nil {
		return nil, m.Err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	target, actor, err := m.pairLocked(targetID, actorID)
	if err != nil {
		return nil, err
	}
	if target.IsFollowedBy(actorID) {
		return nil, store.ErrAlreadyFollowing
	}

	target.Followers = append(target.Followers, actorID)
	if !actor.Follows(targetID) {
		actor.Following = append(actor.Following, targetID)
	}
	target.SyncCounters()
	actor.SyncCounters()

	return &domain.FollowResult{
		UserID:         targetID,
		FollowerID:     actorID,
		IsFollowing:    true,
		FollowersCount: target.FollowersCount,
		FollowingCount: actor.FollowingCount,
	}, nil
}

// Unfollow implements store.UserStore.Unfollow
func (m *MockUserStore) Unfollow(ctx context.Context, targetID, actorID uuid.UUID) (*domain.FollowResult, error) {
	if m.Err != nil {
		return nil, m.Err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	target, actor, err := m.pairLocked(targetID, actorID)
	if err != nil {
		return nil, err
	}
	if !target.IsFollowedBy(actorID) {
		return nil, store.ErrNotFollowing
	}

	target.Followers = slices.DeleteFunc(target.Followers, func(id uuid.UUID) bool { return id == actorID })
	actor.Following = slices.DeleteFunc(actor.Following, func(id uuid.UUID) bool { return id == targetID })
	target.SyncCounters()
	actor.SyncCounters()

	return &domain.FollowResult{
		UserID:         targetID,
		FollowerID:     actorID,
		IsFollowing:    false,
		FollowersCount: target.FollowersCount,
		FollowingCount: actor.FollowingCount,
	}, nil
}

// RecalculateCounters implements store.UserStore.RecalculateCounters
func (m *MockUserStore) RecalculateCounters(ctx context.Context) (int64, error) {
	if m.Err != nil {
		return 0, m.Err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var changed int64
	for _, u := range m.users {
		if u.SyncCounters() {
			changed++
		}
	}
	return changed, nil
}

// sortNewestFirst orders by creation time then ID, both descending.
func sortNewestFirst[T any](items []T, key func(T) (time.Time, uuid.UUID)) {
	slices.SortFunc(items, func(a, b T) int {
		at, aid := key(a)
		bt, bid := key(b)
		if c := bt.Compare(at); c != 0 {
			return c
		}
		return cmp.Compare(bid.String(), aid.String())
	})
}
