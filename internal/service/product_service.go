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

// ProductInput holds every editable product field. It is used for creation
// and full replacement.
type ProductInput struct {
	Title       string
	Description string
	Price       float64
	Currency    domain.Currency
	Images      []string
	// Category defaults to domain.DefaultProductCategory when empty.
	Category domain.ProductCategory
}

// ProductPatch is a partial product change. Nil fields are left untouched.
type ProductPatch struct {
	Title       *string
	Description *string
	Price       *float64
	Currency    *domain.Currency
	Images      []string
	Category    *domain.ProductCategory
}

// ProductService manages product listings.
type ProductService interface {
	// CreateProduct publishes a product owned by ownerID.
	CreateProduct(ctx context.Context, ownerID uuid.UUID, in ProductInput) (*domain.Product, error)

	// GetProduct finds a product by UUID or by its external productId key.
	GetProduct(ctx context.Context, idOrKey string) (*domain.Product, error)

	// ListProducts returns a page of products matching filter.
	ListProducts(ctx context.Context, filter query.ProductFilter, page query.Page) (query.Result[*domain.Product], error)

	// ReplaceProduct overwrites every editable field. Only the owner may do this.
	ReplaceProduct(ctx context.Context, actorID uuid.UUID, idOrKey string, in ProductInput) (*domain.Product, error)

	// PatchProduct changes the given fields. Only the owner may do this.
	PatchProduct(ctx context.Context, actorID uuid.UUID, idOrKey string, patch ProductPatch) (*domain.Product, error)

	// DeleteProduct removes a product. Only the owner may do this.
	DeleteProduct(ctx context.Context, actorID uuid.UUID, idOrKey string) error
}

// ProductServiceImpl implements the ProductService interface
type ProductServiceImpl struct {
	products store.ProductStore
	events   publisher
	logger   *slog.Logger
}

// Ensure ProductServiceImpl implements ProductService
var _ ProductService = (*ProductServiceImpl)(nil)

// NewProductService creates a new ProductService. emitter may be nil.
func NewProductService(products store.ProductStore, emitter events.EventEmitter, logger *slog.Logger) *ProductServiceImpl {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With(slog.String("component", "product_service"))
	return &ProductServiceImpl{
		products: products,
		events:   newPublisher(emitter, log),
		logger:   log,
	}
}

func productPayload(p *domain.Product) events.ListingPayload {
	return events.ListingPayload{ID: p.ID, Key: p.ProductID, OwnerID: p.OwnerID}
}

// CreateProduct implements ProductService.CreateProduct
func (s *ProductServiceImpl) CreateProduct(
	ctx context.Context,
	ownerID uuid.UUID,
	in ProductInput,
) (*domain.Product, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	product, err := domain.NewProduct(ownerID, in.Title, in.Description, in.Price, in.Currency,
		trimAll(in.Images), in.Category)
	if err != nil {
		return nil, err
	}

	if err := s.products.Create(ctx, product); err != nil {
		if store.IsDuplicateError(err) {
			// A key collision was not detected up front, so it is not the
			// caller's conflict to resolve.
			log.Error("product key collision", slog.String("product_id", product.ProductID))
			return nil, newServiceError("product", "create", fmt.Errorf("persist product: %v", err))
		}
		return nil, wrap("product", "create", err)
	}

	s.events.publish(ctx, events.ProductCreated, productPayload(product))
	return product, nil
}

// GetProduct implements ProductService.GetProduct
func (s *ProductServiceImpl) GetProduct(ctx context.Context, idOrKey string) (*domain.Product, error) {
	var (
		product *domain.Product
		err     error
	)
	if id, parseErr := uuid.Parse(idOrKey); parseErr == nil {
		product, err = s.products.GetByID(ctx, id)
	} else {
		product, err = s.products.GetByKey(ctx, strings.TrimSpace(idOrKey))
	}
	if err != nil {
		return nil, wrap("product", "get", err)
	}
	return product, nil
}

// ListProducts implements ProductService.ListProducts
func (s *ProductServiceImpl) ListProducts(
	ctx context.Context,
	filter query.ProductFilter,
	page query.Page,
) (query.Result[*domain.Product], error) {
	if filter.Category != "" && !domain.ProductCategory(filter.Category).IsValid() {
		return query.Result[*domain.Product]{}, domain.NewValidationError("category", "unknown product category")
	}

	products, total, err := s.products.List(ctx, filter.Predicate(), page)
	if err != nil {
		return query.Result[*domain.Product]{}, wrap("product", "list", err)
	}
	return query.NewResult(products, total, page), nil
}

// owned loads a product and checks that actorID owns it.
func (s *ProductServiceImpl) owned(ctx context.Context, actorID uuid.UUID, idOrKey, op string) (*domain.Product, error) {
	product, err := s.GetProduct(ctx, idOrKey)
	if err != nil {
		return nil, err
	}
	if !product.OwnedBy(actorID) {
		logger.FromContextOrDefault(ctx, s.logger).Warn("product ownership check failed",
			slog.String("operation", op),
			slog.String("product_id", product.ProductID),
			slog.String("actor_id", actorID.String()))
		return nil, ErrNotOwned
	}
	return product, nil
}

// ReplaceProduct implements ProductService.ReplaceProduct
func (s *ProductServiceImpl) ReplaceProduct(
	ctx context.Context,
	actorID uuid.UUID,
	idOrKey string,
	in ProductInput,
) (*domain.Product, error) {
	product, err := s.owned(ctx, actorID, idOrKey, "replace")
	if err != nil {
		return nil, err
	}

	category := in.Category
	if category == "" {
		category = domain.DefaultProductCategory
	}
	product.Title = strings.TrimSpace(in.Title)
	product.Description = strings.TrimSpace(in.Description)
	product.Price = in.Price
	product.Currency = in.Currency
	product.Images = trimAll(in.Images)
	product.Category = category

	return s.save(ctx, product)
}

// PatchProduct implements ProductService.PatchProduct
func (s *ProductServiceImpl) PatchProduct(
	ctx context.Context,
	actorID uuid.UUID,
	idOrKey string,
	patch ProductPatch,
) (*domain.Product, error) {
	product, err := s.owned(ctx, actorID, idOrKey, "patch")
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		product.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		product.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Price != nil {
		product.Price = *patch.Price
	}
	if patch.Currency != nil {
		product.Currency = *patch.Currency
	}
	if patch.Images != nil {
		product.Images = trimAll(patch.Images)
	}
	if patch.Category != nil {
		product.Category = *patch.Category
	}

	return s.save(ctx, product)
}

func (s *ProductServiceImpl) save(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	if err := product.Validate(); err != nil {
		return nil, err
	}
	if err := s.products.Update(ctx, product); err != nil {
		return nil, wrap("product", "update", err)
	}
	s.events.publish(ctx, events.ProductUpdated, productPayload(product))
	return product, nil
}

// DeleteProduct implements ProductService.DeleteProduct
func (s *ProductServiceImpl) DeleteProduct(ctx context.Context, actorID uuid.UUID, idOrKey string) error {
	product, err := s.owned(ctx, actorID, idOrKey, "delete")
	if err != nil {
		return err
	}
	if err := s.products.Delete(ctx, product.ID); err != nil {
		return wrap("product", "delete", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("product deleted",
		slog.String("product_id", product.ProductID))
	s.events.publish(ctx, events.ProductDeleted, productPayload(product))
	return nil
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, strings.TrimSpace(v))
	}
	return out
}
