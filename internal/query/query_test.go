package query_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/marketplace-api/internal/domain"
	"github.com/phrazzld/marketplace-api/internal/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listing struct {
	id       uuid.UUID
	title    string
	location string
	price    float64
	category string
}

func (l listing) Value(f query.Field) (any, bool) {
	switch f {
	case query.FieldID:
		return l.id, true
	case query.FieldTitle:
		return l.title, true
	case query.FieldLocation:
		return l.location, true
	case query.FieldPrice:
		return l.price, true
	case query.FieldCategory:
		return l.category, true
	}
	return nil, false
}

func ptr[T any](v T) *T { return &v }

func TestLocation(t *testing.T) {
	p := query.Location("Warsaw, Poland")

	tests := []struct {
		stored string
		want   bool
	}{
		{"Warsaw", true},
		{"Warsaw, Poland", true},
		{"Gdańsk, Poland", true},
		{"warsaw", true},
		{"Kraków", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.stored, func(t *testing.T) {
			assert.Equal(t, tt.want, query.Match(p, listing{location: tt.stored}))
		})
	}
}

func TestLocation_Shape(t *testing.T) {
	assert.Nil(t, query.Location("  "))
	assert.Equal(t,
		query.ContainsFold{Field: query.FieldLocation, Value: "Warsaw"},
		query.Location("Warsaw"))

	group, ok := query.Location("Warsaw, Poland,").(query.Any)
	require.True(t, ok)
	assert.Len(t, group, 3, "whole string plus two non-empty parts")
}

func TestServiceFilter_LocationAndPriceStayGrouped(t *testing.T) {
	f := query.ServiceFilter{Location: "Warsaw, Poland", MinPrice: ptr(50.0), MaxPrice: ptr(100.0)}
	p := f.Predicate()

	all, ok := p.(query.All)
	require.True(t, ok, "expected a conjunction, got %T", p)
	require.Len(t, all, 2)
	assert.IsType(t, query.Any{}, all[0])
	assert.IsType(t, query.Between{}, all[1])

	assert.True(t, query.Match(p, listing{location: "Warsaw", price: 75}))
	assert.False(t, query.Match(p, listing{location: "Warsaw", price: 150}),
		"price bound must not be ORed with the location alternatives")
	assert.False(t, query.Match(p, listing{location: "Kraków", price: 75}))
}

func TestPriceRange(t *testing.T) {
	tests := []struct {
		name     string
		min, max *float64
		price    float64
		want     bool
	}{
		{"no bounds", nil, nil, 1, true},
		{"min inclusive", ptr(10.0), nil, 10, true},
		{"below min", ptr(10.0), nil, 9.99, false},
		{"max inclusive", nil, ptr(20.0), 20, true},
		{"above max", nil, ptr(20.0), 20.01, false},
		{"inside both", ptr(10.0), ptr(20.0), 15, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := query.ProductFilter{MinPrice: tt.min, MaxPrice: tt.max}
			assert.Equal(t, tt.want, query.Match(f.Predicate(), listing{price: tt.price}))
		})
	}
}

func TestProductFilter(t *testing.T) {
	f := query.ProductFilter{Search: "MAVIC", Category: string(domain.ProductCategoryDrone)}
	p := f.Predicate()

	assert.True(t, query.Match(p, listing{title: "DJI Mavic 3", category: "DRONE"}))
	assert.False(t, query.Match(p, listing{title: "DJI Mavic 3", category: "CAMERA"}))
	assert.False(t, query.Match(p, listing{title: "Phantom", category: "DRONE"}))
	assert.Nil(t, query.ProductFilter{}.Predicate())
}

func TestUserFilter(t *testing.T) {
	me := uuid.New()
	other := uuid.New()

	p := query.UserFilter{ExcludeID: me}.Predicate()
	assert.False(t, query.Match(p, listing{id: me}))
	assert.True(t, query.Match(p, listing{id: other}))

	search := query.UserFilter{Search: "ann"}.Predicate()
	assert.Equal(t, query.Any{
		query.ContainsFold{Field: query.FieldUsername, Value: "ann"},
		query.ContainsFold{Field: query.FieldFullName, Value: "ann"},
	}, search)
}

func TestTextSearch_IsLiteral(t *testing.T) {
	p := query.TextSearch("a.c", query.FieldTitle)

	assert.True(t, query.Match(p, listing{title: "xa.cx"}))
	assert.False(t, query.Match(p, listing{title: "abc"}))
}

func TestNewPage(t *testing.T) {
	page, err := query.NewPage(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, query.Page{Limit: 10, Offset: 0}, page)

	page, err = query.NewPage(ptr(2), ptr(2))
	require.NoError(t, err)
	assert.Equal(t, query.Page{Limit: 2, Offset: 2}, page)

	_, err = query.NewPage(ptr(0), ptr(-1))
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Len(t, err.(domain.ValidationErrors), 2)

	_, err = query.NewPage(ptr(query.MaxLimit+1), nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestWindow(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e"}

	page, err := query.NewPage(ptr(2), ptr(2))
	require.NoError(t, err)

	result := query.NewResult(query.Window(items, page), int64(len(items)), page)
	assert.Equal(t, []string{"c", "d"}, result.Items)
	assert.Equal(t, int64(5), result.Total)
	assert.Equal(t, 2, result.Limit)
	assert.Equal(t, 2, result.Offset)

	assert.Empty(t, query.Window(items, query.Page{Limit: 10, Offset: 5}))
	assert.Equal(t, []string{"e"}, query.Window(items, query.Page{Limit: 10, Offset: 4}))
}

func TestMapResult(t *testing.T) {
	r := query.NewResult([]int{1, 2}, 7, query.Page{Limit: 2, Offset: 4})
	mapped := query.MapResult(r, func(i int) string { return string(rune('a' + i)) })

	assert.Equal(t, []string{"b", "c"}, mapped.Items)
	assert.Equal(t, int64(7), mapped.Total)
	assert.Equal(t, 4, mapped.Offset)
}
