package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/marketplace-api/internal/domain"
	"github.com/phrazzld/marketplace-api/internal/query"
)

// ProductStore defines the interface for product persistence.
type ProductStore interface {
	// Create saves a new product. A productId collision returns ErrDuplicate.
	Create(ctx context.Context, product *domain.Product) error

	// GetByID retrieves a product by its UUID. Returns ErrProductNotFound if absent.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)

	// GetByKey retrieves a product by its external productId.
	// Returns ErrProductNotFound if absent.
	GetByKey(ctx context.Context, productID string) (*domain.Product, error)

	// Update persists all mutable fields. Returns ErrProductNotFound if absent.
	Update(ctx context.Context, product *domain.Product) error

	// Delete removes a product. Returns ErrProductNotFound if absent.
	Delete(ctx context.Context, id uuid.UUID) error

	// List returns the products matching filter within page, plus the total.
	List(ctx context.Context, filter query.Predicate, page query.Page) ([]*domain.Product, int64, error)
}

// ServiceStore defines the interface for service persistence.
type ServiceStore interface {
	// Create saves a new service. A serviceId collision returns ErrDuplicate.
	Create(ctx context.Context, svc *domain.Service) error

	// GetByID retrieves a service by its UUID. Returns ErrServiceNotFound if absent.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Service, error)

	// GetByKey retrieves a service by its external serviceId.
	// Returns ErrServiceNotFound if absent.
	GetByKey(ctx context.Context, serviceID string) (*domain.Service, error)

	// Update persists all mutable fields, including a change of category.
	// Returns ErrServiceNotFound if absent.
	Update(ctx context.Context, svc *domain.Service) error

	// Delete removes a service. Returns ErrServiceNotFound if absent.
	Delete(ctx context.Context, id uuid.UUID) error

	// List returns the services matching filter within page, plus the total.
	List(ctx context.Context, filter query.Predicate, page query.Page) ([]*domain.Service, int64, error)
}
