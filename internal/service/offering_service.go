package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/marketplace-api/internal/domain"
	"github.com/phrazzld/marketplace-api/internal/events"
	"github.com/phrazzld/marketplace-api/internal/platform/logger"
	"github.com/phrazzld/marketplace-api/internal/query"
	"github.com/phrazzld/marketplace-api/internal/store"
)

// ServiceInput holds every editable field of a service listing. The concrete
// Details type selects the category.
type ServiceInput struct {
	Title       string
	Description string
	Price       float64
	Currency    domain.Currency
	Location    string
	Image       string
	Details     domain.ServiceDetails
}

// ServicePatch is a partial change. A non-nil Details replaces the whole
// detail group and may switch the category.
type ServicePatch struct {
	Title       *string
	Description *string
	Price       *float64
	Currency    *domain.Currency
	Location    *string
	Image       *string
	Details     domain.ServiceDetails
}

// OfferingService manages service and event listings.
type OfferingService interface {
	// CreateService publishes a listing owned by ownerID.
	CreateService(ctx context.Context, ownerID uuid.UUID, in ServiceInput) (*domain.Service, error)

	// GetService finds a listing by UUID or by its external serviceId key.
	GetService(ctx context.Context, idOrKey string) (*domain.Service, error)

	// ListServices returns a page of listings matching filter.
	ListServices(ctx context.Context, filter query.ServiceFilter, page query.Page) (query.Result[*domain.Service], error)

	// ReplaceService overwrites every editable field. Only the owner may do this.
	ReplaceService(ctx context.Context, actorID uuid.UUID, idOrKey string, in ServiceInput) (*domain.Service, error)

	// PatchService changes the given fields. Only the owner may do this.
	PatchService(ctx context.Context, actorID uuid.UUID, idOrKey string, patch ServicePatch) (*domain.Service, error)

	// DeleteService removes a listing. Only the owner may do this.
	DeleteService(ctx context.Context, actorID uuid.UUID, idOrKey string) error
}

// OfferingServiceImpl implements the OfferingService interface
type OfferingServiceImpl struct {
	services store.ServiceStore
	events   publisher
	logger   *slog.Logger
}

// Ensure OfferingServiceImpl implements OfferingService
var _ OfferingService = (*OfferingServiceImpl)(nil)

// NewOfferingService creates a new OfferingService. emitter may be nil.
func NewOfferingService(services store.ServiceStore, emitter events.EventEmitter, logger *slog.Logger) *OfferingServiceImpl {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With(slog.String("component", "offering_service"))
	return &OfferingServiceImpl{
		services: services,
		events:   newPublisher(emitter, log),
		logger:   log,
	}
}

func servicePayload(s *domain.Service) events.ListingPayload {
	return events.ListingPayload{ID: s.ID, Key: s.ServiceID, OwnerID: s.OwnerID}
}

// CreateService implements OfferingService.CreateService
func (s *OfferingServiceImpl) CreateService(
	ctx context.Context,
	ownerID uuid.UUID,
	in ServiceInput,
) (*domain.Service, error) {
	svc, err := domain.NewService(ownerID, in.Title, in.Description, in.Price, in.Currency,
		in.Location, in.Image, in.Details)
	if err != nil {
		return nil, err
	}

	if err := s.services.Create(ctx, svc); err != nil {
		if store.IsDuplicateError(err) {
			logger.FromContextOrDefault(ctx, s.logger).Error("service key collision",
				slog.String("service_id", svc.ServiceID))
			return nil, newServiceError("offering", "create", fmt.Errorf("persist service: %v", err))
		}
		return nil, wrap("offering", "create", err)
	}

	s.events.publish(ctx, events.ServiceCreated, servicePayload(svc))
	return svc, nil
}

// GetService implements OfferingService.GetService
func (s *OfferingServiceImpl) GetService(ctx context.Context, idOrKey string) (*domain.Service, error) {
	var (
		svc *domain.Service
		err error
	)
	if id, parseErr := uuid.Parse(idOrKey); parseErr == nil {
		svc, err = s.services.GetByID(ctx, id)
	} else {
		svc, err = s.services.GetByKey(ctx, strings.TrimSpace(idOrKey))
	}
	if err != nil {
		return nil, wrap("offering", "get", err)
	}
	return svc, nil
}

// ListServices implements OfferingService.ListServices
func (s *OfferingServiceImpl) ListServices(
	ctx context.Context,
	filter query.ServiceFilter,
	page query.Page,
) (query.Result[*domain.Service], error) {
	if filter.Category != "" && !domain.ServiceCategory(filter.Category).IsValid() {
		return query.Result[*domain.Service]{}, domain.NewValidationError("category", "unknown service category")
	}

	services, total, err := s.services.List(ctx, filter.Predicate(), page)
	if err != nil {
		return query.Result[*domain.Service]{}, wrap("offering", "list", err)
	}
	return query.NewResult(services, total, page), nil
}

func (s *OfferingServiceImpl) owned(ctx context.Context, actorID uuid.UUID, idOrKey, op string) (*domain.Service, error) {
	svc, err := s.GetService(ctx, idOrKey)
	if err != nil {
		return nil, err
	}
	if !svc.OwnedBy(actorID) {
		logger.FromContextOrDefault(ctx, s.logger).Warn("service ownership check failed",
			slog.String("operation", op),
			slog.String("service_id", svc.ServiceID),
			slog.String("actor_id", actorID.String()))
		return nil, ErrNotOwned
	}
	return svc, nil
}

// ReplaceService implements OfferingService.ReplaceService
func (s *OfferingServiceImpl) ReplaceService(
	ctx context.Context,
	actorID uuid.UUID,
	idOrKey string,
	in ServiceInput,
) (*domain.Service, error) {
	svc, err := s.owned(ctx, actorID, idOrKey, "replace")
	if err != nil {
		return nil, err
	}

	svc.Title = strings.TrimSpace(in.Title)
	svc.Description = strings.TrimSpace(in.Description)
	svc.Price = in.Price
	svc.Currency = in.Currency
	svc.Location = strings.TrimSpace(in.Location)
	svc.Image = strings.TrimSpace(in.Image)
	svc.Details = in.Details

	return s.save(ctx, svc)
}

// PatchService implements OfferingService.PatchService
func (s *OfferingServiceImpl) PatchService(
	ctx context.Context,
	actorID uuid.UUID,
	idOrKey string,
	patch ServicePatch,
) (*domain.Service, error) {
	svc, err := s.owned(ctx, actorID, idOrKey, "patch")
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		svc.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		svc.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Price != nil {
		svc.Price = *patch.Price
	}
	if patch.Currency != nil {
		svc.Currency = *patch.Currency
	}
	if patch.Location != nil {
		svc.Location = strings.TrimSpace(*patch.Location)
	}
	if patch.Image != nil {
		svc.Image = strings.TrimSpace(*patch.Image)
	}
	if patch.Details != nil {
		svc.Details = patch.Details
	}

	return s.save(ctx, svc)
}

func (s *OfferingServiceImpl) save(ctx context.Context, svc *domain.Service) (*domain.Service, error) {
	if err := svc.Validate(); err != nil {
		return nil, err
	}
	if err := s.services.Update(ctx, svc); err != nil {
		return nil, wrap("offering", "update", err)
	}
	s.events.publish(ctx, events.ServiceUpdated, servicePayload(svc))
	return svc, nil
}

// DeleteService implements OfferingService.DeleteService
func (s *OfferingServiceImpl) DeleteService(ctx context.Context, actorID uuid.UUID, idOrKey string) error {
	svc, err := s.owned(ctx, actorID, idOrKey, "delete")
	if err != nil {
		return err
	}
	if err := s.services.Delete(ctx, svc.ID); err != nil {
		return wrap("offering", "delete", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("service deleted",
		slog.String("service_id", svc.ServiceID))
	s.events.publish(ctx, events.ServiceDeleted, servicePayload(svc))
	return nil
}
