package postgres

import (
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/marketplace-api/internal/query"
	"github.com/phrazzld/marketplace-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func TestSQLFilter_Where(t *testing.T) {
	t.Parallel()

	excluded := uuid.MustParse("8d3c9a4e-3f7b-4a55-9c1e-0f1d2b3c4d5e")

	tests := []struct {
		name    string
		columns columnMap
		pred    query.Predicate
		want    string
		args    []any
	}{
		{
			name:    "nil predicate",
			columns: userFilterColumns,
			pred:    nil,
			want:    "TRUE",
		},
		{
			name:    "user search excludes caller",
			columns: userFilterColumns,
			pred:    query.UserFilter{Search: "ann", ExcludeID: excluded}.Predicate(),
			want:    "((username ILIKE $1 OR full_name ILIKE $2) AND id <> $3)",
			args:    []any{"%ann%", "%ann%", excluded},
		},
		{
			name:    "location alternatives stay grouped",
			columns: serviceFilterColumns,
			pred:    query.ServiceFilter{Location: "Warsaw, Poland", MinPrice: ptr(10)}.Predicate(),
			want:    "((location ILIKE $1 OR location ILIKE $2 OR location ILIKE $3) AND (price >= $4))",
			args:    []any{"%Warsaw, Poland%", "%Warsaw%", "%Poland%", 10.0},
		},
		{
			name:    "product price range and category",
			columns: productFilterColumns,
			pred:    query.ProductFilter{MinPrice: ptr(5), MaxPrice: ptr(50), Category: "CAMERA"}.Predicate(),
			want:    "((price >= $1 AND price <= $2) AND category = $3)",
			args:    []any{5.0, 50.0, "CAMERA"},
		},
		{
			name:    "like wildcards are escaped",
			columns: productFilterColumns,
			pred:    query.ProductFilter{Search: `50%_off\`}.Predicate(),
			want:    "title ILIKE $1",
			args:    []any{`%50\%\_off\\%`},
		},
		{
			name:    "empty any matches nothing",
			columns: productFilterColumns,
			pred:    query.Any{},
			want:    "FALSE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newSQLFilter(tt.columns)
			got, err := f.Where(tt.pred)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.args, f.Args())
		})
	}
}

func TestSQLFilter_UnknownField(t *testing.T) {
	t.Parallel()

	// Products have no location column.
	f := newSQLFilter(productFilterColumns)
	_, err := f.Where(query.Location("Warsaw"))
	assert.ErrorIs(t, err, store.ErrInvalidFilter)
}
