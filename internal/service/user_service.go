package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/marketplace-api/internal/domain"
	"github.com/phrazzld/marketplace-api/internal/events"
	"github.com/phrazzld/marketplace-api/internal/platform/logger"
	"github.com/phrazzld/marketplace-api/internal/query"
	"github.com/phrazzld/marketplace-api/internal/service/auth"
	"github.com/phrazzld/marketplace-api/internal/store"
)

// MinPasswordLength is the shortest accepted plaintext password.
const MinPasswordLength = 6

// RegisterInput carries the fields of a new account.
type RegisterInput struct {
	Email    string
	Username string
	Password string
	Location string
	FullName string
	Avatar   string
}

// ProfileUpdate is a partial profile change. Nil fields are left untouched.
type ProfileUpdate struct {
	Email    *string
	Username *string
	Password *string
	FullName *string
	Avatar   *string
	Bio      *string
	Location *string
}

// UserService provides account, profile and follow-graph operations.
type UserService interface {
	// Register creates an account. Taken emails or usernames are reported as
	// store.ErrEmailExists / store.ErrUsernameExists before anything is written.
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)

	// Authenticate checks credentials. Returns ErrInvalidCredentials on any mismatch.
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)

	// GetUser retrieves a user by ID, served from the profile cache when possible.
	GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)

	// UpdateProfile applies a partial profile change to userID.
	UpdateProfile(ctx context.Context, userID uuid.UUID, upd ProfileUpdate) (*domain.User, error)

	// ListUsers returns a page of users matching filter, never including actorID.
	ListUsers(ctx context.Context, actorID uuid.UUID, filter query.UserFilter, page query.Page) (query.Result[*domain.User], error)

	// EmailAvailable reports whether no account uses email.
	EmailAvailable(ctx context.Context, email string) (bool, error)

	// UsernameAvailable reports whether no account uses username.
	UsernameAvailable(ctx context.Context, username string) (bool, error)

	// Follow makes actorID a follower of targetID.
	Follow(ctx context.Context, targetID, actorID uuid.UUID) (*domain.FollowResult, error)

	// Unfollow removes actorID from the followers of targetID.
	Unfollow(ctx context.Context, targetID, actorID uuid.UUID) (*domain.FollowResult, error)

	// RecalculateAllCounters repairs every user's counters and returns how many changed.
	RecalculateAllCounters(ctx context.Context) (int64, error)
}

// UserServiceImpl implements the UserService interface
type UserServiceImpl struct {
	userStore store.UserStore
	hasher    auth.PasswordHasher
	cache     ProfileCache
	events    publisher
	logger    *slog.Logger
}

// Ensure UserServiceImpl implements UserService
var _ UserService = (*UserServiceImpl)(nil)

// UserServiceOption configures optional collaborators of UserServiceImpl.
type UserServiceOption func(*UserServiceImpl)

// WithProfileCache enables profile caching.
func WithProfileCache(cache ProfileCache) UserServiceOption {
	return func(s *UserServiceImpl) {
		if cache != nil {
			s.cache = cache
		}
	}
}

// WithUserEvents sets the emitter for user.* events.
func WithUserEvents(emitter events.EventEmitter) UserServiceOption {
	return func(s *UserServiceImpl) {
		s.events = newPublisher(emitter, s.logger)
	}
}

// NewUserService creates a new UserService
func NewUserService(
	userStore store.UserStore,
	hasher auth.PasswordHasher,
	logger *slog.Logger,
	opts ...UserServiceOption,
) *UserServiceImpl {
	if logger == nil {
		logger = slog.Default()
	}
	s := &UserServiceImpl{
		userStore: userStore,
		hasher:    hasher,
		cache:     noProfileCache{},
		logger:    logger.With(slog.String("component", "user_service")),
	}
	s.events = newPublisher(nil, s.logger)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *UserServiceImpl) log(ctx context.Context) *slog.Logger {
	return logger.FromContextOrDefault(ctx, s.logger)
}

// ensureAvailable reports store.ErrEmailExists / store.ErrUsernameExists when
// the email or username belongs to a user other than self.
func (s *UserServiceImpl) ensureAvailable(ctx context.Context, self uuid.UUID, email, username string) error {
	if email != "" {
		u, err := s.userStore.GetByEmail(ctx, email)
		switch {
		case err == nil && u.ID != self:
			return store.ErrEmailExists
		case err != nil && !errors.Is(err, store.ErrUserNotFound):
			return err
		}
	}
	if username != "" {
		u, err := s.userStore.GetByUsername(ctx, username)
		switch {
		case err == nil && u.ID != self:
			return store.ErrUsernameExists
		case err != nil && !errors.Is(err, store.ErrUserNotFound):
			return err
		}
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return domain.NewValidationError("password", "must be at least 6 characters")
	}
	return nil
}

// Register implements UserService.Register
func (s *UserServiceImpl) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	log := s.log(ctx)

	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}

	email, username := strings.TrimSpace(in.Email), strings.TrimSpace(in.Username)
	if err := s.ensureAvailable(ctx, uuid.Nil, email, username); err != nil {
		if store.IsDuplicateError(err) {
			log.Debug("registration rejected", slog.String("reason", err.Error()))
		}
		return nil, wrap("user", "register", err)
	}

	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		log.Error("failed to hash password", slog.String("error", err.Error()))
		return nil, newServiceError("user", "register", err)
	}

	user, err := domain.NewUser(email, username, hashed, in.Location)
	if err != nil {
		return nil, err
	}
	user.FullName = strings.TrimSpace(in.FullName)
	user.Avatar = strings.TrimSpace(in.Avatar)
	if err := user.Validate(); err != nil {
		return nil, err
	}

	if err := s.userStore.Create(ctx, user); err != nil {
		return nil, wrap("user", "register", err)
	}

	log.Info("user registered", slog.String("user_id", user.ID.String()))
	s.events.publish(ctx, events.UserRegistered, events.UserPayload{UserID: user.ID, Username: user.Username})
	return user, nil
}

// Authenticate implements UserService.Authenticate
func (s *UserServiceImpl) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.userStore.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			s.log(ctx).Debug("login for unknown email")
			return nil, ErrInvalidCredentials
		}
		return nil, wrap("user", "authenticate", err)
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		s.log(ctx).Debug("login with wrong password", slog.String("user_id", user.ID.String()))
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// GetUser implements UserService.GetUser
func (s *UserServiceImpl) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	if user, ok := s.cache.Get(ctx, userID); ok {
		return user, nil
	}

	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		return nil, wrap("user", "get", err)
	}

	s.cache.Set(ctx, user)
	return user, nil
}

// UpdateProfile implements UserService.UpdateProfile
func (s *UserServiceImpl) UpdateProfile(
	ctx context.Context,
	userID uuid.UUID,
	upd ProfileUpdate,
) (*domain.User, error) {
	log := s.log(ctx).With(slog.String("user_id", userID.String()))

	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		return nil, wrap("user", "update", err)
	}

	var email, username string
	if upd.Email != nil && !strings.EqualFold(strings.TrimSpace(*upd.Email), user.Email) {
		email = strings.TrimSpace(*upd.Email)
	}
	if upd.Username != nil && strings.TrimSpace(*upd.Username) != user.Username {
		username = strings.TrimSpace(*upd.Username)
	}
	if err := s.ensureAvailable(ctx, userID, email, username); err != nil {
		if store.IsDuplicateError(err) {
			log.Debug("profile update rejected", slog.String("reason", err.Error()))
		}
		return nil, wrap("user", "update", err)
	}

	if upd.Email != nil {
		user.Email = strings.TrimSpace(*upd.Email)
	}
	if upd.Username != nil {
		user.Username = strings.TrimSpace(*upd.Username)
	}
	if upd.FullName != nil {
		user.FullName = strings.TrimSpace(*upd.FullName)
	}
	if upd.Avatar != nil {
		user.Avatar = strings.TrimSpace(*upd.Avatar)
	}
	if upd.Bio != nil {
		user.Bio = strings.TrimSpace(*upd.Bio)
	}
	if upd.Location != nil {
		user.Location = strings.TrimSpace(*upd.Location)
	}
	if upd.Password != nil {
		if err := validatePassword(*upd.Password); err != nil {
			return nil, err
		}
		hashed, err := s.hasher.Hash(*upd.Password)
		if err != nil {
			return nil, newServiceError("user", "update", err)
		}
		user.HashedPassword = hashed
	}

	if err := s.userStore.Update(ctx, user); err != nil {
		return nil, wrap("user", "update", err)
	}

	s.cache.Invalidate(ctx, userID)
	log.Info("profile updated")
	return user, nil
}

// ListUsers implements UserService.ListUsers
func (s *UserServiceImpl) ListUsers(
	ctx context.Context,
	actorID uuid.UUID,
	filter query.UserFilter,
	page query.Page,
) (query.Result[*domain.User], error) {
	filter.ExcludeID = actorID

	users, total, err := s.userStore.List(ctx, filter.Predicate(), page)
	if err != nil {
		return query.Result[*domain.User]{}, wrap("user", "list", err)
	}
	return query.NewResult(users, total, page), nil
}

// EmailAvailable implements UserService.EmailAvailable
func (s *UserServiceImpl) EmailAvailable(ctx context.Context, email string) (bool, error) {
	return s.available(ctx, s.userStore.GetByEmail, email)
}

// UsernameAvailable implements UserService.UsernameAvailable
func (s *UserServiceImpl) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	return s.available(ctx, s.userStore.GetByUsername, username)
}

func (s *UserServiceImpl) available(
	ctx context.Context,
	lookup func(context.Context, string) (*domain.User, error),
	value string,
) (bool, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return false, domain.NewValidationError("value", "cannot be empty")
	}

	_, err := lookup(ctx, value)
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, store.ErrUserNotFound):
		return true, nil
	}
	return false, wrap("user", "check availability", err)
}
