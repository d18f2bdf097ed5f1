package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/phrazzld/marketplace-api/internal/domain"
	"github.com/phrazzld/marketplace-api/internal/platform/logger"
	"github.com/phrazzld/marketplace-api/internal/query"
	"github.com/phrazzld/marketplace-api/internal/store"
)

const userColumns = `id, email, username, hashed_password, full_name, avatar, bio, location,
	followers, following, followers_count, following_count, created_at, updated_at`

var userFilterColumns = columnMap{
	query.FieldID:       "id",
	query.FieldUsername: "username",
	query.FieldFullName: "full_name",
	query.FieldLocation: "location",
}

// PostgresUserStore implements the store.UserStore interface
// using a PostgreSQL database as the storage backend.
//
// Follower and following sets live in uuid[] columns next to their counters.
// Every statement that changes a set recomputes its counter from the new
// array in the same UPDATE, so the two can never drift apart.
type PostgresUserStore struct {
	db     TxBeginner
	logger *slog.Logger
}

// NewPostgresUserStore creates a new PostgreSQL implementation of the UserStore interface.
func NewPostgresUserStore(db TxBeginner, logger *slog.Logger) *PostgresUserStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresUserStore{
		db:     db,
		logger: logger.With(slog.String("component", "user_store")),
	}
}

// Ensure PostgresUserStore implements store.UserStore interface
var _ store.UserStore = (*PostgresUserStore)(nil)

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Username,
		&u.HashedPassword,
		&u.FullName,
		&u.Avatar,
		&u.Bio,
		&u.Location,
		&u.Followers,
		&u.Following,
		&u.FollowersCount,
		&u.FollowingCount,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if u.Followers == nil {
		u.Followers = []uuid.UUID{}
	}
	if u.Following == nil {
		u.Following = []uuid.UUID{}
	}
	return &u, nil
}

// Create implements store.UserStore.Create
func (s *PostgresUserStore) Create(ctx context.Context, user *domain.User) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := user.Validate(); err != nil {
		log.Warn("user validation failed during create",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return err
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO users (id, email, username, hashed_password, full_name, avatar, bio, location,
			followers, following, followers_count, following_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, '{}', '{}', 0, 0, $9, $10)`,
		user.ID,
		user.Email,
		user.Username,
		user.HashedPassword,
		user.FullName,
		user.Avatar,
		user.Bio,
		user.Location,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		mapped := MapError(err)
		if store.IsDuplicateError(mapped) {
			log.Debug("duplicate user on create", slog.String("error", err.Error()))
			return mapped
		}
		log.Error("failed to create user",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return mapped
	}

	user.Followers, user.Following = []uuid.UUID{}, []uuid.UUID{}
	user.FollowersCount, user.FollowingCount = 0, 0

	log.Info("user created", slog.String("user_id", user.ID.String()))
	return nil
}

func (s *PostgresUserStore) getOne(ctx context.Context, where string, arg any) (*domain.User, error) {
	user, err := scanUser(s.db.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE "+where, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrUserNotFound
		}
		return nil, MapError(err)
	}
	return user, nil
}

// GetByID implements store.UserStore.GetByID
func (s *PostgresUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.getOne(ctx, "id = $1", id)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			log.Debug("user not found", slog.String("user_id", id.String()))
		} else {
			log.Error("failed to get user by ID",
				slog.String("error", err.Error()),
				slog.String("user_id", id.String()))
		}
		return nil, err
	}
	return user, nil
}

// GetByEmail implements store.UserStore.GetByEmail
func (s *PostgresUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.getOne(ctx, "lower(email) = lower($1)", strings.TrimSpace(email))
	if err != nil && !errors.Is(err, store.ErrUserNotFound) {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get user by email",
			slog.String("error", err.Error()))
	}
	return user, err
}

// GetByUsername implements store.UserStore.GetByUsername
func (s *PostgresUserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	user, err := s.getOne(ctx, "username = $1", strings.TrimSpace(username))
	if err != nil && !errors.Is(err, store.ErrUserNotFound) {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get user by username",
			slog.String("error", err.Error()))
	}
	return user, err
}

// Update implements store.UserStore.Update
func (s *PostgresUserStore) Update(ctx context.Context, user *domain.User) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := user.Validate(); err != nil {
		return err
	}

	user.UpdatedAt = time.Now().UTC()

	tag, err := s.db.Exec(ctx, `
		UPDATE users
		SET email = $2, username = $3, hashed_password = $4, full_name = $5,
			avatar = $6, bio = $7, location = $8, updated_at = $9
		WHERE id = $1`,
		user.ID,
		user.Email,
		user.Username,
		user.HashedPassword,
		user.FullName,
		user.Avatar,
		user.Bio,
		user.Location,
		user.UpdatedAt,
	)
	if err != nil {
		mapped := MapError(err)
		if !store.IsDuplicateError(mapped) {
			log.Error("failed to update user",
				slog.String("error", err.Error()),
				slog.String("user_id", user.ID.String()))
		}
		return mapped
	}

	return CheckRowsAffected(tag, store.ErrUserNotFound)
}

// List implements store.UserStore.List
func (s *PostgresUserStore) List(
	ctx context.Context,
	filter query.Predicate,
	page query.Page,
) ([]*domain.User, int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	f := newSQLFilter(userFilterColumns)
	where, err := f.Where(filter)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := s.db.QueryRow(ctx, "SELECT count(*) FROM users WHERE "+where, f.Args()...).Scan(&total); err != nil {
		log.Error("failed to count users", slog.String("error", err.Error()))
		return nil, 0, MapError(err)
	}

	args := append(f.Args(), page.Limit, page.Offset)
	rows, err := s.db.Query(ctx, fmt.Sprintf(
		"SELECT %s FROM users WHERE %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d",
		userColumns, where, len(args)-1, len(args)), args...)
	if err != nil {
		log.Error("failed to list users", slog.String("error", err.Error()))
		return nil, 0, MapError(err)
	}
	defer rows.Close()

	users := make([]*domain.User, 0, page.Limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, MapError(err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, MapError(err)
	}

	return users, total, nil
}

// lockPair locks both user rows in a stable order so that concurrent follows
// in opposite directions cannot deadlock. Returns ErrUserNotFound unless both
// rows exist.
func lockPair(ctx context.Context, tx pgx.Tx, a, b uuid.UUID) error {
	rows, err := tx.Query(ctx,
		`SELECT id FROM users WHERE id = ANY($1) ORDER BY id FOR UPDATE`,
		[]uuid.UUID{a, b})
	if err != nil {
		return MapError(err)
	}
	defer rows.Close()

	found := 0
	for rows.Next() {
		found++
	}
	if err := rows.Err(); err != nil {
		return MapError(err)
	}
	if found < 2 {
		return store.ErrUserNotFound
	}
	return nil
}

// Follow implements store.UserStore.Follow
func (s *PostgresUserStore) Follow(ctx context.Context, targetID, actorID uuid.UUID) (*domain.FollowResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("target_id", targetID.String()),
		slog.String("actor_id", actorID.String()))

	result := &domain.FollowResult{UserID: targetID, FollowerID: actorID, IsFollowing: true}

	err := RunInTransaction(ctx, s.db, func(ctx context.Context, tx pgx.Tx) error {
		if err := lockPair(ctx, tx, targetID, actorID); err != nil {
			return err
		}

		// The conditional WHERE makes the membership test and the append one
		// atomic statement.
		err := tx.QueryRow(ctx, `
			UPDATE users
			SET followers = array_append(followers, $2),
				followers_count = cardinality(array_append(followers, $2)),
				updated_at = now()
			WHERE id = $1 AND NOT ($2 = ANY(followers))
			RETURNING followers_count`,
			targetID, actorID,
		).Scan(&result.FollowersCount)
		if errors.Is(err, pgx.ErrNoRows) {
			return store.ErrAlreadyFollowing
		}
		if err != nil {
			return MapError(err)
		}

		// The actor side tolerates a stale entry left by an earlier partial
		// write and only appends when missing.
		return tx.QueryRow(ctx, `
			UPDATE users
			SET following = CASE WHEN $2 = ANY(following) THEN following ELSE array_append(following, $2) END,
				following_count = cardinality(CASE WHEN $2 = ANY(following) THEN following ELSE array_append(following, $2) END),
				updated_at = now()
			WHERE id = $1
			RETURNING following_count`,
			actorID, targetID,
		).Scan(&result.FollowingCount)
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyFollowing) || errors.Is(err, store.ErrUserNotFound) {
			log.Debug("follow rejected", slog.String("reason", err.Error()))
			return nil, err
		}
		log.Error("failed to follow user", slog.String("error", err.Error()))
		return nil, store.NewStoreError("user", "follow", "failed to update follow relation", MapError(err))
	}

	log.Info("user followed",
		slog.Int("followers_count", result.FollowersCount),
		slog.Int("following_count", result.FollowingCount))
	return result, nil
}

// Unfollow implements store.UserStore.Unfollow
func (s *PostgresUserStore) Unfollow(ctx context.Context, targetID, actorID uuid.UUID) (*domain.FollowResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("target_id", targetID.String()),
		slog.String("actor_id", actorID.String()))

	result := &domain.FollowResult{UserID: targetID, FollowerID: actorID, IsFollowing: false}

	err := RunInTransaction(ctx, s.db, func(ctx context.Context, tx pgx.Tx) error {
		if err := lockPair(ctx, tx, targetID, actorID); err != nil {
			return err
		}

		err := tx.QueryRow(ctx, `
			UPDATE users
			SET followers = array_remove(followers, $2),
				followers_count = cardinality(array_remove(followers, $2)),
				updated_at = now()
			WHERE id = $1 AND $2 = ANY(followers)
			RETURNING followers_count`,
			targetID, actorID,
		).Scan(&result.FollowersCount)
		if errors.Is(err, pgx.ErrNoRows) {
			return store.ErrNotFollowing
		}
		if err != nil {
			return MapError(err)
		}

		return tx.QueryRow(ctx, `
			UPDATE users
			SET following = array_remove(following, $2),
				following_count = cardinality(array_remove(following, $2)),
				updated_at = now()
			WHERE id = $1
			RETURNING following_count`,
			actorID, targetID,
		).Scan(&result.FollowingCount)
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFollowing) || errors.Is(err, store.ErrUserNotFound) {
			log.Debug("unfollow rejected", slog.String("reason", err.Error()))
			return nil, err
		}
		log.Error("failed to unfollow user", slog.String("error", err.Error()))
		return nil, store.NewStoreError("user", "unfollow", "failed to update follow relation", MapError(err))
	}

	log.Info("user unfollowed",
		slog.Int("followers_count", result.FollowersCount),
		slog.Int("following_count", result.FollowingCount))
	return result, nil
}

// RecalculateCounters implements store.UserStore.RecalculateCounters
func (s *PostgresUserStore) RecalculateCounters(ctx context.Context) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	tag, err := s.db.Exec(ctx, `
		UPDATE users
		SET followers_count = cardinality(followers),
			following_count = cardinality(following),
			updated_at = now()
		WHERE followers_count <> cardinality(followers)
			OR following_count <> cardinality(following)`)
	if err != nil {
		log.Error("failed to recalculate counters", slog.String("error", err.Error()))
		return 0, MapError(err)
	}

	log.Info("follower counters recalculated", slog.Int64("updated", tag.RowsAffected()))
	return tag.RowsAffected(), nil
}
