package query

import (
	"github.com/google/uuid"
)

// UserFilter holds the optional filters of the user listing.
type UserFilter struct {
	// Search matches username or full name.
	Search   string
	Location string
	// ExcludeID omits one user, normally the caller.
	ExcludeID uuid.UUID
}

// Predicate builds the filter expression.
func (f UserFilter) Predicate() Predicate {
	return And(
		TextSearch(f.Search, FieldUsername, FieldFullName),
		Location(f.Location),
		Exclude(FieldID, f.ExcludeID),
	)
}

// ProductFilter holds the optional filters of the product listing.
type ProductFilter struct {
	// Search matches the title.
	Search   string
	MinPrice *float64
	MaxPrice *float64
	Category string
	OwnerID  uuid.UUID
}

// Predicate builds the filter expression.
func (f ProductFilter) Predicate() Predicate {
	return And(
		TextSearch(f.Search, FieldTitle),
		PriceRange(f.MinPrice, f.MaxPrice),
		Exact(FieldCategory, f.Category),
		Exact(FieldOwnerID, f.OwnerID),
	)
}

// ServiceFilter holds the optional filters of the service listing.
type ServiceFilter struct {
	// Search matches the title.
	Search   string
	Location string
	MinPrice *float64
	MaxPrice *float64
	Category string
	OwnerID  uuid.UUID
}

// Predicate builds the filter expression. The location alternatives stay
// grouped, so the result is (location OR ...) AND price AND ...
func (f ServiceFilter) Predicate() Predicate {
	return And(
		TextSearch(f.Search, FieldTitle),
		Location(f.Location),
		PriceRange(f.MinPrice, f.MaxPrice),
		Exact(FieldCategory, f.Category),
		Exact(FieldOwnerID, f.OwnerID),
	)
}
