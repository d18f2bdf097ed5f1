package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/marketplace-api/internal/domain"
	"github.com/phrazzld/marketplace-api/internal/events"
	"github.com/phrazzld/marketplace-api/internal/mocks"
	"github.com/phrazzld/marketplace-api/internal/platform/logger"
	"github.com/phrazzld/marketplace-api/internal/query"
	"github.com/phrazzld/marketplace-api/internal/service"
	"github.com/phrazzld/marketplace-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type userFixture struct {
	svc     *service.UserServiceImpl
	users   *mocks.MockUserStore
	hasher  *mocks.MockPasswordHasher
	cache   *mocks.MockProfileCache
	emitter *mocks.MockEventEmitter
}

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()
	_, log := logger.NewTestLogger(t)
	f := &userFixture{
		users:   mocks.NewMockUserStore(),
		hasher:  mocks.NewMockPasswordHasher(),
		cache:   mocks.NewMockProfileCache(),
		emitter: &mocks.MockEventEmitter{},
	}
	f.svc = service.NewUserService(f.users, f.hasher, log,
		service.WithProfileCache(f.cache),
		service.WithUserEvents(f.emitter))
	return f
}

func (f *userFixture) register(t *testing.T, name string) *domain.User {
	t.Helper()
	u, err := f.svc.Register(context.Background(), service.RegisterInput{
		Email:    name + "@example.com",
		Username: name,
		Password: "password123",
		Location: "Warsaw",
	})
	require.NoError(t, err)
	return u
}

func TestUserService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("creates user with hashed password and empty graph", func(t *testing.T) {
		f := newUserFixture(t)
		u, err := f.svc.Register(ctx, service.RegisterInput{
			Email:    "  anna@example.com ",
			Username: "anna",
			Password: "password123",
			FullName: "Anna Nowak",
		})
		require.NoError(t, err)

		assert.Equal(t, "anna@example.com", u.Email)
		assert.Equal(t, "hashed:password123", u.HashedPassword)
		assert.Empty(t, u.Followers)
		assert.Empty(t, u.Following)
		assert.Zero(t, u.FollowersCount)
		assert.Equal(t, []string{events.UserRegistered}, f.emitter.Types())

		stored, err := f.users.GetByEmail(ctx, "anna@example.com")
		require.NoError(t, err)
		assert.Equal(t, u.ID, stored.ID)
		assert.Equal(t, "Anna Nowak", stored.FullName)
	})

	t.Run("duplicate email", func(t *testing.T) {
		f := newUserFixture(t)
		f.register(t, "anna")

		_, err := f.svc.Register(ctx, service.RegisterInput{
			Email: "ANNA@example.com", Username: "other", Password: "password123",
		})
		assert.ErrorIs(t, err, store.ErrEmailExists)
	})

	t.Run("duplicate username", func(t *testing.T) {
		f := newUserFixture(t)
		f.register(t, "anna")

		_, err := f.svc.Register(ctx, service.RegisterInput{
			Email: "new@example.com", Username: "anna", Password: "password123",
		})
		assert.ErrorIs(t, err, store.ErrUsernameExists)
	})

	t.Run("short password", func(t *testing.T) {
		f := newUserFixture(t)
		_, err := f.svc.Register(ctx, service.RegisterInput{
			Email: "a@example.com", Username: "a", Password: "12345",
		})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("invalid email", func(t *testing.T) {
		f := newUserFixture(t)
		_, err := f.svc.Register(ctx, service.RegisterInput{
			Email: "not-an-email", Username: "a", Password: "password123",
		})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("hash failure is wrapped", func(t *testing.T) {
		f := newUserFixture(t)
		f.hasher.HashErr = errors.New("boom")

		_, err := f.svc.Register(ctx, service.RegisterInput{
			Email: "a@example.com", Username: "a", Password: "password123",
		})
		var serviceErr *service.ServiceError
		require.ErrorAs(t, err, &serviceErr)
		assert.Equal(t, "register", serviceErr.Op)
	})
}

func TestUserService_Authenticate(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture(t)
	u := f.register(t, "anna")

	got, err := f.svc.Authenticate(ctx, "anna@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = f.svc.Authenticate(ctx, "anna@example.com", "wrong")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	_, err = f.svc.Authenticate(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestUserService_GetUser_UsesCache(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture(t)
	u := f.register(t, "anna")

	_, err := f.svc.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, f.cache.Contains(u.ID))

	_, err = f.svc.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, f.cache.Hits)

	_, err = f.svc.GetUser(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrUserNotFound)
}

func TestUserService_UpdateProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("applies given fields only", func(t *testing.T) {
		f := newUserFixture(t)
		u := f.register(t, "anna")
		_, err := f.svc.GetUser(ctx, u.ID)
		require.NoError(t, err)

		bio := "  drone pilot "
		updated, err := f.svc.UpdateProfile(ctx, u.ID, service.ProfileUpdate{Bio: &bio})
		require.NoError(t, err)

		assert.Equal(t, "drone pilot", updated.Bio)
		assert.Equal(t, "Warsaw", updated.Location)
		assert.Equal(t, "anna", updated.Username)
		assert.False(t, f.cache.Contains(u.ID), "profile cache must be invalidated")
	})

	t.Run("keeping own email is not a conflict", func(t *testing.T) {
		f := newUserFixture(t)
		u := f.register(t, "anna")

		email := "ANNA@example.com"
		_, err := f.svc.UpdateProfile(ctx, u.ID, service.ProfileUpdate{Email: &email})
		require.NoError(t, err)
	})

	t.Run("taken username", func(t *testing.T) {
		f := newUserFixture(t)
		u := f.register(t, "anna")
		f.register(t, "bob")

		name := "bob"
		_, err := f.svc.UpdateProfile(ctx, u.ID, service.ProfileUpdate{Username: &name})
		assert.ErrorIs(t, err, store.ErrUsernameExists)

		stored, err := f.users.GetByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "anna", stored.Username)
	})

	t.Run("taken email", func(t *testing.T) {
		f := newUserFixture(t)
		u := f.register(t, "anna")
		f.register(t, "bob")

		email := "bob@example.com"
		_, err := f.svc.UpdateProfile(ctx, u.ID, service.ProfileUpdate{Email: &email})
		assert.ErrorIs(t, err, store.ErrEmailExists)
	})

	t.Run("password is rehashed", func(t *testing.T) {
		f := newUserFixture(t)
		u := f.register(t, "anna")

		pw := "newpassword"
		_, err := f.svc.UpdateProfile(ctx, u.ID, service.ProfileUpdate{Password: &pw})
		require.NoError(t, err)

		_, err = f.svc.Authenticate(ctx, "anna@example.com", "newpassword")
		assert.NoError(t, err)
	})

	t.Run("invalid avatar", func(t *testing.T) {
		f := newUserFixture(t)
		u := f.register(t, "anna")

		avatar := "not a url"
		_, err := f.svc.UpdateProfile(ctx, u.ID, service.ProfileUpdate{Avatar: &avatar})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("unknown user", func(t *testing.T) {
		f := newUserFixture(t)
		bio := "x"
		_, err := f.svc.UpdateProfile(ctx, uuid.New(), service.ProfileUpdate{Bio: &bio})
		assert.ErrorIs(t, err, store.ErrUserNotFound)
	})
}

func TestUserService_ListUsers(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture(t)

	me := f.register(t, "me")
	for i := range 5 {
		f.register(t, fmt.Sprintf("user%d", i))
	}

	t.Run("excludes caller and echoes window", func(t *testing.T) {
		res, err := f.svc.ListUsers(ctx, me.ID, query.UserFilter{}, query.Page{Limit: 2, Offset: 2})
		require.NoError(t, err)

		assert.Equal(t, int64(5), res.Total)
		assert.Equal(t, 2, res.Limit)
		assert.Equal(t, 2, res.Offset)
		assert.Len(t, res.Items, 2)
		for _, u := range res.Items {
			assert.NotEqual(t, me.ID, u.ID)
		}
	})

	t.Run("search", func(t *testing.T) {
		res, err := f.svc.ListUsers(ctx, me.ID, query.UserFilter{Search: "USER3"}, query.DefaultPage)
		require.NoError(t, err)
		require.Len(t, res.Items, 1)
		assert.Equal(t, "user3", res.Items[0].Username)
	})

	t.Run("offset past the end", func(t *testing.T) {
		res, err := f.svc.ListUsers(ctx, me.ID, query.UserFilter{}, query.Page{Limit: 10, Offset: 50})
		require.NoError(t, err)
		assert.Empty(t, res.Items)
		assert.NotNil(t, res.Items)
		assert.Equal(t, int64(5), res.Total)
	})
}

func TestUserService_Availability(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture(t)
	f.register(t, "anna")

	ok, err := f.svc.EmailAvailable(ctx, "anna@example.com")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.svc.EmailAvailable(ctx, "free@example.com")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.svc.UsernameAvailable(ctx, "anna")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = f.svc.UsernameAvailable(ctx, "  ")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUserService_StoreFailureIsWrapped(t *testing.T) {
	_, log := logger.NewTestLogger(t)
	userStore := new(mocks.TestifyMockUserStore)
	dbErr := errors.New("connection reset")
	userStore.On("GetByID", mock.Anything, mock.Anything).Return(nil, dbErr)

	svc := service.NewUserService(userStore, mocks.NewMockPasswordHasher(), log)
	_, err := svc.GetUser(context.Background(), uuid.New())

	var serviceErr *service.ServiceError
	require.ErrorAs(t, err, &serviceErr)
	assert.Equal(t, "user", serviceErr.Service)
	assert.ErrorIs(t, err, dbErr)
	userStore.AssertExpectations(t)
}
