package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/marketplace-api/internal/domain"
	"github.com/phrazzld/marketplace-api/internal/query"
)

// UserStore defines the interface for user persistence, including the
// follower/following sets of the social graph.
type UserStore interface {
	// Create saves a new user.
	// Returns ErrEmailExists or ErrUsernameExists on a unique violation.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID. Returns ErrUserNotFound if absent.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByEmail retrieves a user by email (case-insensitive).
	// Returns ErrUserNotFound if absent.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetByUsername retrieves a user by username. Returns ErrUserNotFound if absent.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// Update persists profile fields (email, username, fullName, avatar, bio,
	// location, password). Follower sets and counters are never written here.
	// Returns ErrUserNotFound, ErrEmailExists or ErrUsernameExists.
	Update(ctx context.Context, user *domain.User) error

	// List returns the users matching filter within page, plus the total
	// number of matches.
	List(ctx context.Context, filter query.Predicate, page query.Page) ([]*domain.User, int64, error)

	// Follow records that actorID follows targetID: actorID joins the target's
	// followers, targetID joins the actor's following, and both counters are
	// set to the new set sizes. Both rows change atomically.
	// Returns ErrUserNotFound if either user is missing and ErrAlreadyFollowing
	// if the relation exists.
	Follow(ctx context.Context, targetID, actorID uuid.UUID) (*domain.FollowResult, error)

	// Unfollow removes the relation recorded by Follow.
	// Returns ErrUserNotFound or ErrNotFollowing.
	Unfollow(ctx context.Context, targetID, actorID uuid.UUID) (*domain.FollowResult, error)

	// RecalculateCounters resets every user's counters to the sizes of their
	// sets and returns how many users changed. Safe to run repeatedly.
	RecalculateCounters(ctx context.Context) (int64, error)
}
