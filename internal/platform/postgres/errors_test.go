package postgres_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/marketplace-api/internal/platform/postgres"
	"github.com/phrazzld/marketplace-api/internal/store"
	"github.com/stretchr/testify/assert"
)

func newPgError(code, constraint string) *pgconn.PgError {
	return &pgconn.PgError{
		Code:           code,
		Message:        "error message",
		TableName:      "users",
		ColumnName:     "email",
		ConstraintName: constraint,
	}
}

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"plain error", errors.New("boom"), false},
		{"unique violation", newPgError("23505", "users_email_key"), true},
		{"wrapped unique violation", fmt.Errorf("insert: %w", newPgError("23505", "x")), true},
		{"foreign key violation", newPgError("23503", "x"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, postgres.IsUniqueViolation(tt.err))
		})
	}
}

func TestMapError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		target error
	}{
		{"no rows", pgx.ErrNoRows, store.ErrNotFound},
		{"email taken", newPgError("23505", "users_email_key"), store.ErrEmailExists},
		{"username taken", newPgError("23505", "users_username_key"), store.ErrUsernameExists},
		{"product key collision", newPgError("23505", "products_product_id_key"), store.ErrDuplicate},
		{"foreign key", newPgError("23503", "products_owner_id_fkey"), store.ErrInvalidEntity},
		{"check", newPgError("23514", "products_price_check"), store.ErrInvalidEntity},
		{"not null", newPgError("23502", ""), store.ErrInvalidEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.ErrorIs(t, postgres.MapError(tt.err), tt.target)
		})
	}

	t.Run("email and username errors are duplicates", func(t *testing.T) {
		t.Parallel()
		assert.True(t, store.IsDuplicateError(postgres.MapError(newPgError("23505", "users_email_key"))))
		assert.True(t, store.IsDuplicateError(postgres.MapError(newPgError("23505", "users_username_key"))))
	})

	t.Run("nil stays nil", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, postgres.MapError(nil))
	})

	t.Run("unknown errors pass through", func(t *testing.T) {
		t.Parallel()
		err := errors.New("connection reset")
		assert.Same(t, err, postgres.MapError(err))
	})
}

func TestCheckRowsAffected(t *testing.T) {
	t.Parallel()

	assert.NoError(t, postgres.CheckRowsAffected(pgconn.NewCommandTag("UPDATE 1"), store.ErrUserNotFound))
	assert.ErrorIs(t,
		postgres.CheckRowsAffected(pgconn.NewCommandTag("DELETE 0"), store.ErrProductNotFound),
		store.ErrProductNotFound)
}
