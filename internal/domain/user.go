package domain

import (
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

// Profile field limits.
const (
	MaxUsernameLength = 100
	MaxFullNameLength = 100
	MaxLocationLength = 100
	MaxBioLength      = 500
)

// User represents a registered marketplace user together with the
// follower/following sets of the social graph.
//
// FollowersCount and FollowingCount are denormalized copies of the set sizes
// and must always equal len(Followers) and len(Following).
type User struct {
	ID             uuid.UUID   `json:"id"`
	Email          string      `json:"email"`
	Username       string      `json:"username"`
	HashedPassword string      `json:"-"`
	FullName       string      `json:"fullName,omitempty"`
	Avatar         string      `json:"avatar,omitempty"`
	Bio            string      `json:"bio,omitempty"`
	Location       string      `json:"location"`
	Followers      []uuid.UUID `json:"followers"`
	Following      []uuid.UUID `json:"following"`
	FollowersCount int         `json:"followersCount"`
	FollowingCount int         `json:"followingCount"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// NewUser creates a new User with empty follower/following sets.
// The password must already be hashed.
func NewUser(email, username, hashedPassword, location string) (*User, error) {
	now := time.Now().UTC()
	user := &User{
		ID:             uuid.New(),
		Email:          strings.TrimSpace(email),
		Username:       strings.TrimSpace(username),
		HashedPassword: hashedPassword,
		Location:       strings.TrimSpace(location),
		Followers:      []uuid.UUID{},
		Following:      []uuid.UUID{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Validate checks if the User has valid data.
func (u *User) Validate() error {
	var errs ValidationErrors

	if u.ID == uuid.Nil {
		errs.Add("id", "cannot be empty")
	}

	switch {
	case u.Email == "":
		errs.Add("email", "cannot be empty")
	case validate.Var(u.Email, "email") != nil:
		errs.Add("email", "invalid email format")
	}

	switch {
	case u.Username == "":
		errs.Add("username", "cannot be empty")
	case len(u.Username) > MaxUsernameLength:
		errs.Add("username", "must be at most 100 characters")
	}

	if u.HashedPassword == "" {
		errs.Add("password", "hashed password cannot be empty")
	}

	if len(u.FullName) > MaxFullNameLength {
		errs.Add("fullName", "must be at most 100 characters")
	}
	if len(u.Bio) > MaxBioLength {
		errs.Add("bio", "must be at most 500 characters")
	}
	if len(u.Location) > MaxLocationLength {
		errs.Add("location", "must be at most 100 characters")
	}
	if u.Avatar != "" && validate.Var(u.Avatar, "url") != nil {
		errs.Add("avatar", "must be a valid URL")
	}

	return errs.Err()
}

// IsFollowedBy reports whether id is in the user's followers set.
func (u *User) IsFollowedBy(id uuid.UUID) bool {
	return slices.Contains(u.Followers, id)
}

// Follows reports whether id is in the user's following set.
func (u *User) Follows(id uuid.UUID) bool {
	return slices.Contains(u.Following, id)
}

// SyncCounters resets both counters to the current set sizes and reports
// whether anything changed.
func (u *User) SyncCounters() bool {
	followers, following := len(u.Followers), len(u.Following)
	if u.FollowersCount == followers && u.FollowingCount == following {
		return false
	}
	u.FollowersCount = followers
	u.FollowingCount = following
	return true
}

// FollowResult is the outcome of a follow or unfollow operation.
type FollowResult struct {
	// UserID is the followed (or unfollowed) user.
	UserID uuid.UUID `json:"userId"`
	// FollowerID is the acting user.
	FollowerID  uuid.UUID `json:"followerId"`
	IsFollowing bool      `json:"isFollowing"`
	// FollowersCount is the target's follower count after the operation.
	FollowersCount int `json:"followersCount"`
	// FollowingCount is the actor's following count after the operation.
	FollowingCount int `json:"followingCount"`
}
