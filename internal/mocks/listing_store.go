package mocks

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/marketplace-api/internal/domain"
	"github.com/phrazzld/marketplace-api/internal/query"
	"github.com/phrazzld/marketplace-api/internal/store"
)

// OwnerLookup reports whether a user exists. The listing stores use it to
// emulate the owner foreign key; a nil lookup accepts every owner.
type OwnerLookup func(id uuid.UUID) bool

// Exists adapts a MockUserStore to OwnerLookup.
func (m *MockUserStore) Exists(id uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.users[id]
	return ok
}

// memTable is an in-memory table keyed by UUID with a unique external key.
type memTable[T any] struct {
	mu      sync.Mutex
	rows    map[uuid.UUID]T
	clone   func(T) T
	id      func(T) uuid.UUID
	key     func(T) string
	owner   func(T) uuid.UUID
	created func(T) time.Time
	record  func(T) query.Record
	owners  OwnerLookup

	notFound error
	// Err, when set, is returned by every method.
	Err error
}

func (t *memTable[T]) create(v T) error {
	if t.Err != nil {
		return t.Err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.owners != nil && !t.owners(t.owner(v)) {
		return store.ErrUserNotFound
	}
	if _, exists := t.rows[t.id(v)]; exists {
		return store.ErrDuplicate
	}
	for _, row := range t.rows {
		if t.key(row) == t.key(v) {
			return store.ErrDuplicate
		}
	}
	t.rows[t.id(v)] = t.clone(v)
	return nil
}

func (t *memTable[T]) get(match func(T) bool) (T, error) {
	var zero T
	if t.Err != nil {
		return zero, t.Err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for _, row := range t.rows {
		if match(row) {
			return t.clone(row), nil
		}
	}
	return zero, t.notFound
}

func (t *memTable[T]) update(v T) error {
	if t.Err != nil {
		return t.Err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.rows[t.id(v)]; !ok {
		return t.notFound
	}
	t.rows[t.id(v)] = t.clone(v)
	return nil
}

func (t *memTable[T]) delete(id uuid.UUID) error {
	if t.Err != nil {
		return t.Err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.rows[id]; !ok {
		return t.notFound
	}
	delete(t.rows, id)
	return nil
}

func (t *memTable[T]) list(filter query.Predicate, page query.Page) ([]T, int64, error) {
	if t.Err != nil {
		return nil, 0, t.Err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	var matched []T
	for _, row := range t.rows {
		if query.Match(filter, t.record(row)) {
			matched = append(matched, row)
		}
	}
	sortNewestFirst(matched, func(v T) (time.Time, uuid.UUID) { return t.created(v), t.id(v) })

	window := query.Window(matched, page)
	out := make([]T, 0, len(window))
	for _, row := range window {
		out = append(out, t.clone(row))
	}
	return out, int64(len(matched)), nil
}

// MockProductStore is an in-memory store.ProductStore.
type MockProductStore struct {
	memTable[*domain.Product]
}

var _ store.ProductStore = (*MockProductStore)(nil)

// NewMockProductStore creates an empty store. owners may be nil.
func NewMockProductStore(owners OwnerLookup) *MockProductStore {
	return &MockProductStore{memTable: memTable[*domain.Product]{
		rows: make(map[uuid.UUID]*domain.Product),
		clone: func(p *domain.Product) *domain.Product {
			c := *p
			c.Images = slices.Clone(p.Images)
			return &c
		},
		id:      func(p *domain.Product) uuid.UUID { return p.ID },
		key:     func(p *domain.Product) string { return p.ProductID },
		owner:   func(p *domain.Product) uuid.UUID { return p.OwnerID },
		created: func(p *domain.Product) time.Time { return p.CreatedAt },
		record: func(p *domain.Product) query.Record {
			return query.RecordFunc(func(f query.Field) (any, bool) {
				switch f {
				case query.FieldID:
					return p.ID, true
				case query.FieldOwnerID:
					return p.OwnerID, true
				case query.FieldTitle:
					return p.Title, true
				case query.FieldPrice:
					return p.Price, true
				case query.FieldCategory:
					return string(p.Category), true
				}
				return nil, false
			})
		},
		owners:   owners,
		notFound: store.ErrProductNotFound,
	}}
}

// Create implements store.ProductStore.Create
func (m *MockProductStore) Create(ctx context.Context, product *domain.Product) error {
	if err := product.Validate(); err != nil {
		return err
	}
	return m.create(product)
}

// GetByID implements store.ProductStore.GetByID
func (m *MockProductStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return m.get(func(p *domain.Product) bool { return p.ID == id })
}

// GetByKey implements store.ProductStore.GetByKey
func (m *MockProductStore) GetByKey(ctx context.Context, productID string) (*domain.Product, error) {
	return m.get(func(p *domain.Product) bool { return p.ProductID == productID })
}

// Update implements store.ProductStore.Update
func (m *MockProductStore) Update(ctx context.Context, product *domain.Product) error {
	if err := product.Validate(); err != nil {
		return err
	}
	product.UpdatedAt = time.Now().UTC()
	return m.update(product)
}

// Delete implements store.ProductStore.Delete
func (m *MockProductStore) Delete(ctx context.Context, id uuid.UUID) error {
	return m.delete(id)
}

// List implements store.ProductStore.List
func (m *MockProductStore) List(ctx context.Context, filter query.Predicate, page query.Page) ([]*domain.Product, int64, error) {
	return m.list(filter, page)
}

// MockServiceStore is an in-memory store.ServiceStore.
type MockServiceStore struct {
	memTable[*domain.Service]
}

var _ store.ServiceStore = (*MockServiceStore)(nil)

func cloneService(s *domain.Service) *domain.Service {
	c := *s
	if w, ok := s.Details.(domain.WeeklySchedule); ok {
		w.AvailableDays = slices.Clone(w.AvailableDays)
		c.Details = w
	}
	return &c
}

// NewMockServiceStore creates an empty store. owners may be nil.
func NewMockServiceStore(owners OwnerLookup) *MockServiceStore {
	return &MockServiceStore{memTable: memTable[*domain.Service]{
		rows:    make(map[uuid.UUID]*domain.Service),
		clone:   cloneService,
		id:      func(s *domain.Service) uuid.UUID { return s.ID },
		key:     func(s *domain.Service) string { return s.ServiceID },
		owner:   func(s *domain.Service) uuid.UUID { return s.OwnerID },
		created: func(s *domain.Service) time.Time { return s.CreatedAt },
		record: func(s *domain.Service) query.Record {
			return query.RecordFunc(func(f query.Field) (any, bool) {
				switch f {
				case query.FieldID:
					return s.ID, true
				case query.FieldOwnerID:
					return s.OwnerID, true
				case query.FieldTitle:
					return s.Title, true
				case query.FieldLocation:
					return s.Location, true
				case query.FieldPrice:
					return s.Price, true
				case query.FieldCategory:
					return string(s.Category()), true
				}
				return nil, false
			})
		},
		owners:   owners,
		notFound: store.ErrServiceNotFound,
	}}
}

// Create implements store.ServiceStore.Create
func (m *MockServiceStore) Create(ctx context.Context, svc *domain.Service) error {
	if err := svc.Validate(); err != nil {
		return err
	}
	return m.create(svc)
}

// GetByID implements store.ServiceStore.GetByID
func (m *MockServiceStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Service, error) {
	return m.get(func(s *domain.Service) bool { return s.ID == id })
}

// GetByKey implements store.ServiceStore.GetByKey
func (m *MockServiceStore) GetByKey(ctx context.Context, serviceID string) (*domain.Service, error) {
	return m.get(func(s *domain.Service) bool { return s.ServiceID == serviceID })
}

// Update implements store.ServiceStore.Update
func (m *MockServiceStore) Update(ctx context.Context, svc *domain.Service) error {
	if err := svc.Validate(); err != nil {
		return err
	}
	svc.UpdatedAt = time.Now().UTC()
	return m.update(svc)
}

// Delete implements store.ServiceStore.Delete
func (m *MockServiceStore) Delete(ctx context.Context, id uuid.UUID) error {
	return m.delete(id)
}

// List implements store.ServiceStore.List
func (m *MockServiceStore) List(ctx context.Context, filter query.Predicate, page query.Page) ([]*domain.Service, int64, error) {
	return m.list(filter, page)
}
