package postgres_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/phrazzld/marketplace-api/internal/domain"
	"github.com/phrazzld/marketplace-api/internal/platform/postgres"
	"github.com/phrazzld/marketplace-api/internal/query"
	"github.com/phrazzld/marketplace-api/internal/store"
	"github.com/phrazzld/marketplace-api/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createUser(t *testing.T, users *postgres.PostgresUserStore, name, location string) *domain.User {
	t.Helper()
	u, err := domain.NewUser(name+"@example.com", name, "$2a$10$hash", location)
	require.NoError(t, err)
	require.NoError(t, users.Create(context.Background(), u))
	return u
}

func TestPostgresUserStore_Integration(t *testing.T) {
	pool := testdb.GetTestPoolWithT(t)
	users := postgres.NewPostgresUserStore(pool, nil)
	ctx := context.Background()

	alice := createUser(t, users, "alice", "Warsaw")
	bob := createUser(t, users, "bob", "Kraków, Poland")

	t.Run("duplicate email", func(t *testing.T) {
		dup, err := domain.NewUser("alice@example.com", "alice2", "$2a$10$hash", "")
		require.NoError(t, err)
		assert.ErrorIs(t, users.Create(ctx, dup), store.ErrEmailExists)
	})

	t.Run("duplicate username", func(t *testing.T) {
		dup, err := domain.NewUser("other@example.com", "bob", "$2a$10$hash", "")
		require.NoError(t, err)
		assert.ErrorIs(t, users.Create(ctx, dup), store.ErrUsernameExists)
	})

	t.Run("lookup by email ignores case", func(t *testing.T) {
		got, err := users.GetByEmail(ctx, "ALICE@example.com")
		require.NoError(t, err)
		assert.Equal(t, alice.ID, got.ID)
	})

	t.Run("follow round trip", func(t *testing.T) {
		res, err := users.Follow(ctx, bob.ID, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, res.FollowersCount)
		assert.Equal(t, 1, res.FollowingCount)

		_, err = users.Follow(ctx, bob.ID, alice.ID)
		assert.ErrorIs(t, err, store.ErrAlreadyFollowing)

		gotBob, err := users.GetByID(ctx, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{alice.ID}, gotBob.Followers)
		assert.Equal(t, 1, gotBob.FollowersCount)

		res, err = users.Unfollow(ctx, bob.ID, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, res.FollowersCount)
		assert.Equal(t, 0, res.FollowingCount)

		_, err = users.Unfollow(ctx, bob.ID, alice.ID)
		assert.ErrorIs(t, err, store.ErrNotFollowing)
	})

	t.Run("follow missing user", func(t *testing.T) {
		_, err := users.Follow(ctx, uuid.New(), alice.ID)
		assert.ErrorIs(t, err, store.ErrUserNotFound)
	})

	t.Run("recalculate repairs drifted counters", func(t *testing.T) {
		_, err := pool.Exec(ctx, `UPDATE users SET followers_count = 7 WHERE id = $1`, alice.ID)
		require.NoError(t, err)

		n, err := users.RecalculateCounters(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		n, err = users.RecalculateCounters(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("list by location part", func(t *testing.T) {
		list, total, err := users.List(ctx, query.UserFilter{Location: "Poland"}.Predicate(), query.DefaultPage)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, list, 1)
		assert.Equal(t, bob.ID, list[0].ID)
	})
}

func TestPostgresListingStores_Integration(t *testing.T) {
	pool := testdb.GetTestPoolWithT(t)
	ctx := context.Background()
	users := postgres.NewPostgresUserStore(pool, nil)
	products := postgres.NewPostgresProductStore(pool, nil)
	services := postgres.NewPostgresServiceStore(pool, nil)

	owner := createUser(t, users, "owner", "Gdańsk")

	t.Run("product crud", func(t *testing.T) {
		p, err := domain.NewProduct(owner.ID, "Mavic 3", "Folding drone", 1999, domain.CurrencyEUR,
			[]string{"https://img.example.com/1.jpg"}, "")
		require.NoError(t, err)
		require.NoError(t, products.Create(ctx, p))

		got, err := products.GetByKey(ctx, p.ProductID)
		require.NoError(t, err)
		assert.Equal(t, p.ID, got.ID)
		assert.Equal(t, domain.DefaultProductCategory, got.Category)

		got.Price = 1799
		require.NoError(t, products.Update(ctx, got))

		maxPrice := 1800.0
		list, total, err := products.List(ctx,
			query.ProductFilter{MaxPrice: &maxPrice}.Predicate(), query.DefaultPage)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, list, 1)

		require.NoError(t, products.Delete(ctx, p.ID))
		assert.ErrorIs(t, products.Delete(ctx, p.ID), store.ErrProductNotFound)
	})

	t.Run("product with missing owner", func(t *testing.T) {
		p, err := domain.NewProduct(uuid.New(), "Orphan", "No owner", 1, domain.CurrencyUSD,
			[]string{"https://img.example.com/2.jpg"}, domain.ProductCategoryPart)
		require.NoError(t, err)
		assert.ErrorIs(t, products.Create(ctx, p), store.ErrUserNotFound)
	})

	t.Run("service changes category", func(t *testing.T) {
		svc, err := domain.NewService(owner.ID, "Drone show", "Night show", 500, domain.CurrencyPLN,
			"Gdańsk", "https://img.example.com/3.jpg", domain.EventSchedule{
				StartDate: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
				EndDate:   time.Date(2026, 6, 2, 0, 0, 0, 0, time.UTC),
				StartTime: "20:00",
				EndTime:   "23:00",
			})
		require.NoError(t, err)
		require.NoError(t, services.Create(ctx, svc))

		svc.Details = domain.WeeklySchedule{
			AvailableDays: []domain.Weekday{domain.Monday, domain.Friday},
			WorkingHours:  domain.WorkingHours{From: "09:00", To: "17:00"},
		}
		require.NoError(t, services.Update(ctx, svc))

		got, err := services.GetByID(ctx, svc.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.ServiceCategoryService, got.Category())
		assert.Equal(t, svc.Details, got.Details)

		list, total, err := services.List(ctx,
			query.ServiceFilter{Location: "gdańsk", Category: "SERVICE"}.Predicate(), query.DefaultPage)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Len(t, list, 1)
	})

	t.Run("deleting the owner removes listings", func(t *testing.T) {
		_, err := pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, owner.ID)
		require.NoError(t, err)

		_, total, err := services.List(ctx, nil, query.DefaultPage)
		require.NoError(t, err)
		assert.Zero(t, total)
	})
}

func TestPostgresStores_TransactionRollback(t *testing.T) {
	pool := testdb.GetTestPoolWithT(t)
	ctx := context.Background()

	var userID, productID uuid.UUID
	testdb.WithTx(t, pool, func(t *testing.T, tx pgx.Tx) {
		users := postgres.NewPostgresUserStore(tx, nil)
		products := postgres.NewPostgresProductStore(tx, nil)

		u := createUser(t, users, "ephemeral", "Poznań")
		userID = u.ID

		p, err := domain.NewProduct(u.ID, "Propeller set", "Spare props", 25, domain.CurrencyPLN,
			[]string{"https://img.example.com/4.jpg"}, domain.ProductCategoryPart)
		require.NoError(t, err)
		require.NoError(t, products.Create(ctx, p))
		productID = p.ID

		_, err = products.GetByID(ctx, p.ID)
		require.NoError(t, err)
	})

	_, err := postgres.NewPostgresUserStore(pool, nil).GetByID(ctx, userID)
	assert.ErrorIs(t, err, store.ErrUserNotFound)
	_, err = postgres.NewPostgresProductStore(pool, nil).GetByID(ctx, productID)
	assert.ErrorIs(t, err, store.ErrProductNotFound)
}

func TestPostgresUserStore_ConcurrentFollows(t *testing.T) {
	pool := testdb.GetTestPoolWithT(t)
	users := postgres.NewPostgresUserStore(pool, nil)
	ctx := context.Background()

	target := createUser(t, users, "popular", "Kraków")
	fans := make([]*domain.User, 8)
	for i := range fans {
		fans[i] = createUser(t, users, "fan"+string(rune('a'+i)), "Kraków")
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(fans))
	for _, fan := range fans {
		wg.Add(1)
		go func(actor uuid.UUID) {
			defer wg.Done()
			_, err := users.Follow(ctx, target.ID, actor)
			errs <- err
		}(fan.ID)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := users.GetByID(ctx, target.ID)
	require.NoError(t, err)
	assert.Len(t, got.Followers, len(fans))
	assert.Equal(t, len(fans), got.FollowersCount)

	updated, err := users.RecalculateCounters(ctx)
	require.NoError(t, err)
	assert.Zero(t, updated)
}
