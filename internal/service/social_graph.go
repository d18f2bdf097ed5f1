package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/marketplace-api/internal/domain"
	"github.com/phrazzld/marketplace-api/internal/events"
)

// Follow implements UserService.Follow.
//
// Self-follows are rejected before any lookup. The store checks that both
// users exist and applies both set changes atomically; following twice is a
// conflict and leaves the counters untouched.
func (s *UserServiceImpl) Follow(
	ctx context.Context,
	targetID, actorID uuid.UUID,
) (*domain.FollowResult, error) {
	if targetID == actorID {
		return nil, ErrSelfFollow
	}

	result, err := s.userStore.Follow(ctx, targetID, actorID)
	if err != nil {
		return nil, wrap("user", "follow", err)
	}

	s.cache.Invalidate(ctx, targetID, actorID)
	s.log(ctx).Info("follow recorded",
		slog.String("target_id", targetID.String()),
		slog.String("actor_id", actorID.String()))
	s.events.publish(ctx, events.UserFollowed, followPayload(result))
	return result, nil
}

// Unfollow implements UserService.Unfollow
func (s *UserServiceImpl) Unfollow(
	ctx context.Context,
	targetID, actorID uuid.UUID,
) (*domain.FollowResult, error) {
	if targetID == actorID {
		return nil, ErrSelfFollow
	}

	result, err := s.userStore.Unfollow(ctx, targetID, actorID)
	if err != nil {
		return nil, wrap("user", "unfollow", err)
	}

	s.cache.Invalidate(ctx, targetID, actorID)
	s.log(ctx).Info("follow removed",
		slog.String("target_id", targetID.String()),
		slog.String("actor_id", actorID.String()))
	s.events.publish(ctx, events.UserUnfollowed, followPayload(result))
	return result, nil
}

// RecalculateAllCounters implements UserService.RecalculateAllCounters
func (s *UserServiceImpl) RecalculateAllCounters(ctx context.Context) (int64, error) {
	updated, err := s.userStore.RecalculateCounters(ctx)
	if err != nil {
		return 0, wrap("user", "recalculate counters", err)
	}
	s.log(ctx).Info("counters recalculated", slog.Int64("updated", updated))
	return updated, nil
}

func followPayload(r *domain.FollowResult) events.FollowPayload {
	return events.FollowPayload{
		UserID:         r.UserID,
		FollowerID:     r.FollowerID,
		FollowersCount: r.FollowersCount,
		FollowingCount: r.FollowingCount,
	}
}
