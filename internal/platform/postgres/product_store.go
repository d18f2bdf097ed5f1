package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/marketplace-api/internal/domain"
	"github.com/phrazzld/marketplace-api/internal/platform/logger"
	"github.com/phrazzld/marketplace-api/internal/query"
	"github.com/phrazzld/marketplace-api/internal/store"
)

const productColumns = `id, product_id, title, description, price, currency, images, category,
	owner_id, created_at, updated_at`

var productFilterColumns = columnMap{
	query.FieldID:       "id",
	query.FieldOwnerID:  "owner_id",
	query.FieldTitle:    "title",
	query.FieldPrice:    "price",
	query.FieldCategory: "category",
}

// PostgresProductStore implements the store.ProductStore interface
// using a PostgreSQL database as the storage backend.
type PostgresProductStore struct {
	db     DBTX
	logger *slog.Logger
}

// NewPostgresProductStore creates a new PostgreSQL implementation of the ProductStore interface.
func NewPostgresProductStore(db DBTX, logger *slog.Logger) *PostgresProductStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresProductStore{
		db:     db,
		logger: logger.With(slog.String("component", "product_store")),
	}
}

// Ensure PostgresProductStore implements store.ProductStore interface
var _ store.ProductStore = (*PostgresProductStore)(nil)

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	var currency, category string
	err := row.Scan(
		&p.ID,
		&p.ProductID,
		&p.Title,
		&p.Description,
		&p.Price,
		&currency,
		&p.Images,
		&category,
		&p.OwnerID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Currency = domain.Currency(currency)
	p.Category = domain.ProductCategory(category)
	return &p, nil
}

// mapOwnerViolation turns a missing-owner foreign key error into ErrUserNotFound.
func mapOwnerViolation(err error, constraint string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolationCode && pgErr.ConstraintName == constraint {
		return fmt.Errorf("%w: owner does not exist", store.ErrUserNotFound)
	}
	return MapError(err)
}

// Create implements store.ProductStore.Create
func (s *PostgresProductStore) Create(ctx context.Context, product *domain.Product) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := product.Validate(); err != nil {
		log.Warn("product validation failed during create", slog.String("error", err.Error()))
		return err
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO products (id, product_id, title, description, price, currency, images, category,
			owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		product.ID,
		product.ProductID,
		product.Title,
		product.Description,
		product.Price,
		string(product.Currency),
		product.Images,
		string(product.Category),
		product.OwnerID,
		product.CreatedAt,
		product.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create product",
			slog.String("error", err.Error()),
			slog.String("product_id", product.ProductID))
		return mapOwnerViolation(err, productsOwnerFKey)
	}

	log.Info("product created",
		slog.String("product_id", product.ProductID),
		slog.String("owner_id", product.OwnerID.String()))
	return nil
}

func (s *PostgresProductStore) getOne(ctx context.Context, where string, arg any) (*domain.Product, error) {
	p, err := scanProduct(s.db.QueryRow(ctx, "SELECT "+productColumns+" FROM products WHERE "+where, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrProductNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get product",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	return p, nil
}

// GetByID implements store.ProductStore.GetByID
func (s *PostgresProductStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.getOne(ctx, "id = $1", id)
}

// GetByKey implements store.ProductStore.GetByKey
func (s *PostgresProductStore) GetByKey(ctx context.Context, productID string) (*domain.Product, error) {
	return s.getOne(ctx, "product_id = $1", productID)
}

// Update implements store.ProductStore.Update
func (s *PostgresProductStore) Update(ctx context.Context, product *domain.Product) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := product.Validate(); err != nil {
		return err
	}

	product.UpdatedAt = time.Now().UTC()

	tag, err := s.db.Exec(ctx, `
		UPDATE products
		SET title = $2, description = $3, price = $4, currency = $5, images = $6,
			category = $7, updated_at = $8
		WHERE id = $1`,
		product.ID,
		product.Title,
		product.Description,
		product.Price,
		string(product.Currency),
		product.Images,
		string(product.Category),
		product.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to update product",
			slog.String("error", err.Error()),
			slog.String("product_id", product.ProductID))
		return MapError(err)
	}

	return CheckRowsAffected(tag, store.ErrProductNotFound)
}

// Delete implements store.ProductStore.Delete
func (s *PostgresProductStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to delete product",
			slog.String("error", err.Error()),
			slog.String("id", id.String()))
		return MapError(err)
	}
	return CheckRowsAffected(tag, store.ErrProductNotFound)
}

// List implements store.ProductStore.List
func (s *PostgresProductStore) List(
	ctx context.Context,
	filter query.Predicate,
	page query.Page,
) ([]*domain.Product, int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	f := newSQLFilter(productFilterColumns)
	where, err := f.Where(filter)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := s.db.QueryRow(ctx, "SELECT count(*) FROM products WHERE "+where, f.Args()...).Scan(&total); err != nil {
		log.Error("failed to count products", slog.String("error", err.Error()))
		return nil, 0, MapError(err)
	}

	args := append(f.Args(), page.Limit, page.Offset)
	rows, err := s.db.Query(ctx, fmt.Sprintf(
		"SELECT %s FROM products WHERE %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d",
		productColumns, where, len(args)-1, len(args)), args...)
	if err != nil {
		log.Error("failed to list products", slog.String("error", err.Error()))
		return nil, 0, MapError(err)
	}
	defer rows.Close()

	products := make([]*domain.Product, 0, page.Limit)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, MapError(err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, MapError(err)
	}

	return products, total, nil
}
