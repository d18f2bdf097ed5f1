package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/marketplace-api/internal/domain"
	"github.com/phrazzld/marketplace-api/internal/events"
	"github.com/phrazzld/marketplace-api/internal/platform/logger"
)

// ProfileCache caches user profiles for read paths. Implementations must
// tolerate backend failures by reporting a miss.
type ProfileCache interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.User, bool)
	Set(ctx context.Context, user *domain.User)
	Invalidate(ctx context.Context, ids ...uuid.UUID)
}

type noProfileCache struct{}

func (noProfileCache) Get(context.Context, uuid.UUID) (*domain.User, bool) { return nil, false }
func (noProfileCache) Set(context.Context, *domain.User)                  {}
func (noProfileCache) Invalidate(context.Context, ...uuid.UUID)           {}

// publisher emits domain events. Failures are logged and never returned:
// the write they describe has already been committed.
type publisher struct {
	emitter events.EventEmitter
	logger  *slog.Logger
}

func newPublisher(emitter events.EventEmitter, log *slog.Logger) publisher {
	if emitter == nil {
		emitter = events.NopEmitter{}
	}
	return publisher{emitter: emitter, logger: log}
}

func (p publisher) publish(ctx context.Context, eventType string, payload any) {
	log := logger.FromContextOrDefault(ctx, p.logger)

	event, err := events.NewEvent(eventType, payload)
	if err != nil {
		log.Error("failed to build event",
			slog.String("event_type", eventType),
			slog.String("error", err.Error()))
		return
	}
	if err := p.emitter.EmitEvent(ctx, event); err != nil {
		log.Warn("failed to emit event",
			slog.String("event_type", eventType),
			slog.String("event_id", event.ID.String()),
			slog.String("error", err.Error()))
	}
}
