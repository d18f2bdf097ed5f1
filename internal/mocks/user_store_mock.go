package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/marketplace-api/internal/domain"
	"github.com/phrazzld/marketplace-api/internal/query"
	"github.com/phrazzld/marketplace-api/internal/store"
	"github.com/stretchr/testify/mock"
)

// TestifyMockUserStore is a mock of store.UserStore interface for use with testify/mock
type TestifyMockUserStore struct {
	mock.Mock
}

var _ store.UserStore = (*TestifyMockUserStore)(nil)

func userOrNil(args mock.Arguments) *domain.User {
	if user, ok := args.Get(0).(*domain.User); ok {
		return user
	}
	return nil
}

func followResultOrNil(args mock.Arguments) *domain.FollowResult {
	if r, ok := args.Get(0).(*domain.FollowResult); ok {
		return r
	}
	return nil
}

// Create is a mock implementation of store.UserStore.Create
func (m *TestifyMockUserStore) Create(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

// GetByID is a mock implementation of store.UserStore.GetByID
func (m *TestifyMockUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	return userOrNil(args), args.Error(1)
}

// GetByEmail is a mock implementation of store.UserStore.GetByEmail
func (m *TestifyMockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	return userOrNil(args), args.Error(1)
}

// GetByUsername is a mock implementation of store.UserStore.GetByUsername
func (m *TestifyMockUserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	return userOrNil(args), args.Error(1)
}

// Update is a mock implementation of store.UserStore.Update
func (m *TestifyMockUserStore) Update(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

// List is a mock implementation of store.UserStore.List
func (m *TestifyMockUserStore) List(
	ctx context.Context,
	filter query.Predicate,
	page query.Page,
) ([]*domain.User, int64, error) {
	args := m.Called(ctx, filter, page)
	users, _ := args.Get(0).([]*domain.User)
	return users, args.Get(1).(int64), args.Error(2)
}

// Follow is a mock implementation of store.UserStore.Follow
func (m *TestifyMockUserStore) Follow(ctx context.Context, targetID, actorID uuid.UUID) (*domain.FollowResult, error) {
	args := m.Called(ctx, targetID, actorID)
	return followResultOrNil(args), args.Error(1)
}

// Unfollow is a mock implementation of store.UserStore.Unfollow
func (m *TestifyMockUserStore) Unfollow(ctx context.Context, targetID, actorID uuid.UUID) (*domain.FollowResult, error) {
	args := m.Called(ctx, targetID, actorID)
	return followResultOrNil(args), args.Error(1)
}

// RecalculateCounters is a mock implementation of store.UserStore.RecalculateCounters
func (m *TestifyMockUserStore) RecalculateCounters(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
