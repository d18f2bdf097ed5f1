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

const serviceColumns = `id, service_id, title, description, price, currency, location, image,
	owner_id, category, event_start_date, event_end_date, event_start_time, event_end_time,
	available_days, working_from, working_to, created_at, updated_at`

var serviceFilterColumns = columnMap{
	query.FieldID:       "id",
	query.FieldOwnerID:  "owner_id",
	query.FieldTitle:    "title",
	query.FieldLocation: "location",
	query.FieldPrice:    "price",
	query.FieldCategory: "category",
}

// PostgresServiceStore implements the store.ServiceStore interface
// using a PostgreSQL database as the storage backend.
//
// The category-specific detail group is stored in nullable columns; a CHECK
// constraint requires exactly the group matching category to be set.
type PostgresServiceStore struct {
	db     DBTX
	logger *slog.Logger
}

// NewPostgresServiceStore creates a new PostgreSQL implementation of the ServiceStore interface.
func NewPostgresServiceStore(db DBTX, logger *slog.Logger) *PostgresServiceStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresServiceStore{
		db:     db,
		logger: logger.With(slog.String("component", "service_store")),
	}
}

// Ensure PostgresServiceStore implements store.ServiceStore interface
var _ store.ServiceStore = (*PostgresServiceStore)(nil)

// detailColumns holds the nullable detail columns of one services row.
type detailColumns struct {
	StartDate     *time.Time
	EndDate       *time.Time
	StartTime     *string
	EndTime       *string
	AvailableDays []string
	WorkingFrom   *string
	WorkingTo     *string
}

func detailsToColumns(d domain.ServiceDetails) detailColumns {
	var c detailColumns
	switch v := d.(type) {
	case domain.EventSchedule:
		c.StartDate, c.EndDate = &v.StartDate, &v.EndDate
		c.StartTime, c.EndTime = &v.StartTime, &v.EndTime
	case domain.WeeklySchedule:
		c.AvailableDays = make([]string, 0, len(v.AvailableDays))
		for _, day := range v.AvailableDays {
			c.AvailableDays = append(c.AvailableDays, string(day))
		}
		c.WorkingFrom, c.WorkingTo = &v.WorkingHours.From, &v.WorkingHours.To
	}
	return c
}

func columnsToDetails(category string, c detailColumns) (domain.ServiceDetails, error) {
	switch domain.ServiceCategory(category) {
	case domain.ServiceCategoryEvent:
		if c.StartDate == nil || c.EndDate == nil || c.StartTime == nil || c.EndTime == nil {
			return nil, fmt.Errorf("%w: event row missing schedule", store.ErrInvalidEntity)
		}
		return domain.EventSchedule{
			StartDate: *c.StartDate,
			EndDate:   *c.EndDate,
			StartTime: *c.StartTime,
			EndTime:   *c.EndTime,
		}, nil
	case domain.ServiceCategoryService:
		if c.WorkingFrom == nil || c.WorkingTo == nil {
			return nil, fmt.Errorf("%w: service row missing working hours", store.ErrInvalidEntity)
		}
		days := make([]domain.Weekday, 0, len(c.AvailableDays))
		for _, d := range c.AvailableDays {
			days = append(days, domain.Weekday(d))
		}
		return domain.WeeklySchedule{
			AvailableDays: days,
			WorkingHours:  domain.WorkingHours{From: *c.WorkingFrom, To: *c.WorkingTo},
		}, nil
	}
	return nil, fmt.Errorf("%w: unknown service category %q", store.ErrInvalidEntity, category)
}

func scanService(row pgx.Row) (*domain.Service, error) {
	var (
		svc                domain.Service
		currency, category string
		details            detailColumns
	)
	err := row.Scan(
		&svc.ID,
		&svc.ServiceID,
		&svc.Title,
		&svc.Description,
		&svc.Price,
		&currency,
		&svc.Location,
		&svc.Image,
		&svc.OwnerID,
		&category,
		&details.StartDate,
		&details.EndDate,
		&details.StartTime,
		&details.EndTime,
		&details.AvailableDays,
		&details.WorkingFrom,
		&details.WorkingTo,
		&svc.CreatedAt,
		&svc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	svc.Currency = domain.Currency(currency)
	svc.Details, err = columnsToDetails(category, details)
	if err != nil {
		return nil, err
	}
	return &svc, nil
}

// isDetailsViolation reports whether err is the detail-group CHECK failure.
func isDetailsViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == checkViolationCode && pgErr.ConstraintName == servicesDetailsChk
}

var errDetailsMismatch = domain.NewValidationError("category", "details do not match category")

// Create implements store.ServiceStore.Create
func (s *PostgresServiceStore) Create(ctx context.Context, svc *domain.Service) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := svc.Validate(); err != nil {
		log.Warn("service validation failed during create", slog.String("error", err.Error()))
		return err
	}

	d := detailsToColumns(svc.Details)
	_, err := s.db.Exec(ctx, `
		INSERT INTO services (id, service_id, title, description, price, currency, location, image,
			owner_id, category, event_start_date, event_end_date, event_start_time, event_end_time,
			available_days, working_from, working_to, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		svc.ID,
		svc.ServiceID,
		svc.Title,
		svc.Description,
		svc.Price,
		string(svc.Currency),
		svc.Location,
		svc.Image,
		svc.OwnerID,
		string(svc.Category()),
		d.StartDate,
		d.EndDate,
		d.StartTime,
		d.EndTime,
		d.AvailableDays,
		d.WorkingFrom,
		d.WorkingTo,
		svc.CreatedAt,
		svc.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create service",
			slog.String("error", err.Error()),
			slog.String("service_id", svc.ServiceID))
		if isDetailsViolation(err) {
			return errDetailsMismatch
		}
		return mapOwnerViolation(err, servicesOwnerFKey)
	}

	log.Info("service created",
		slog.String("service_id", svc.ServiceID),
		slog.String("category", string(svc.Category())),
		slog.String("owner_id", svc.OwnerID.String()))
	return nil
}

func (s *PostgresServiceStore) getOne(ctx context.Context, where string, arg any) (*domain.Service, error) {
	svc, err := scanService(s.db.QueryRow(ctx, "SELECT "+serviceColumns+" FROM services WHERE "+where, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrServiceNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get service",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	return svc, nil
}

// GetByID implements store.ServiceStore.GetByID
func (s *PostgresServiceStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Service, error) {
	return s.getOne(ctx, "id = $1", id)
}

// GetByKey implements store.ServiceStore.GetByKey
func (s *PostgresServiceStore) GetByKey(ctx context.Context, serviceID string) (*domain.Service, error) {
	return s.getOne(ctx, "service_id = $1", serviceID)
}

// Update implements store.ServiceStore.Update
func (s *PostgresServiceStore) Update(ctx context.Context, svc *domain.Service) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := svc.Validate(); err != nil {
		return err
	}

	svc.UpdatedAt = time.Now().UTC()
	d := detailsToColumns(svc.Details)

	tag, err := s.db.Exec(ctx, `
		UPDATE services
		SET title = $2, description = $3, price = $4, currency = $5, location = $6, image = $7,
			category = $8, event_start_date = $9, event_end_date = $10, event_start_time = $11,
			event_end_time = $12, available_days = $13, working_from = $14, working_to = $15,
			updated_at = $16
		WHERE id = $1`,
		svc.ID,
		svc.Title,
		svc.Description,
		svc.Price,
		string(svc.Currency),
		svc.Location,
		svc.Image,
		string(svc.Category()),
		d.StartDate,
		d.EndDate,
		d.StartTime,
		d.EndTime,
		d.AvailableDays,
		d.WorkingFrom,
		d.WorkingTo,
		svc.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to update service",
			slog.String("error", err.Error()),
			slog.String("service_id", svc.ServiceID))
		if isDetailsViolation(err) {
			return errDetailsMismatch
		}
		return MapError(err)
	}

	return CheckRowsAffected(tag, store.ErrServiceNotFound)
}

// Delete implements store.ServiceStore.Delete
func (s *PostgresServiceStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM services WHERE id = $1`, id)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to delete service",
			slog.String("error", err.Error()),
			slog.String("id", id.String()))
		return MapError(err)
	}
	return CheckRowsAffected(tag, store.ErrServiceNotFound)
}

// List implements store.ServiceStore.List
func (s *PostgresServiceStore) List(
	ctx context.Context,
	filter query.Predicate,
	page query.Page,
) ([]*domain.Service, int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	f := newSQLFilter(serviceFilterColumns)
	where, err := f.Where(filter)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := s.db.QueryRow(ctx, "SELECT count(*) FROM services WHERE "+where, f.Args()...).Scan(&total); err != nil {
		log.Error("failed to count services", slog.String("error", err.Error()))
		return nil, 0, MapError(err)
	}

	args := append(f.Args(), page.Limit, page.Offset)
	rows, err := s.db.Query(ctx, fmt.Sprintf(
		"SELECT %s FROM services WHERE %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d",
		serviceColumns, where, len(args)-1, len(args)), args...)
	if err != nil {
		log.Error("failed to list services", slog.String("error", err.Error()))
		return nil, 0, MapError(err)
	}
	defer rows.Close()

	services := make([]*domain.Service, 0, page.Limit)
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, 0, MapError(err)
		}
		services = append(services, svc)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, MapError(err)
	}

	return services, total, nil
}
