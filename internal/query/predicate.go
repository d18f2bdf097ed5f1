// Package query builds store-agnostic filter predicates and pagination for
// listing endpoints.
//
// A Predicate is a small expression tree. Stores render it to their own query
// language (the PostgreSQL store renders SQL) and in-memory stores evaluate it
// with Match.
package query

import (
	"strings"
)

// Field names a filterable attribute of a listed entity.
type Field string

const (
	FieldID       Field = "id"
	FieldOwnerID  Field = "owner_id"
	FieldTitle    Field = "title"
	FieldUsername Field = "username"
	FieldFullName Field = "full_name"
	FieldLocation Field = "location"
	FieldPrice    Field = "price"
	FieldCategory Field = "category"
)

// Predicate is a node of a filter expression. A nil Predicate matches everything.
type Predicate interface {
	predicate()
}

// All matches when every child matches (logical AND). An empty All matches everything.
type All []Predicate

// Any matches when at least one child matches (logical OR). An empty Any matches nothing.
type Any []Predicate

// ContainsFold matches when Value is a case-insensitive substring of the field.
// Value is literal text, never a pattern.
type ContainsFold struct {
	Field Field
	Value string
}

// Equals matches when the field equals Value.
type Equals struct {
	Field Field
	Value any
}

// NotEquals matches when the field differs from Value.
type NotEquals struct {
	Field Field
	Value any
}

// Between matches numeric fields within an inclusive range. A nil bound is open.
type Between struct {
	Field Field
	Min   *float64
	Max   *float64
}

func (All) predicate()          {}
func (Any) predicate()          {}
func (ContainsFold) predicate() {}
func (Equals) predicate()       {}
func (NotEquals) predicate()    {}
func (Between) predicate()      {}

// And combines the non-nil predicates with logical AND. Nested Any groups are
// kept as separate children so an OR-group is never flattened into its
// siblings. Returns nil when there is nothing to combine.
func And(preds ...Predicate) Predicate {
	out := make(All, 0, len(preds))
	for _, p := range preds {
		switch v := p.(type) {
		case nil:
		case All:
			out = append(out, v...)
		default:
			out = append(out, v)
		}
	}

	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	}
	return out
}

// TextSearch matches value as a case-insensitive substring of any of the
// given fields. Blank input yields nil.
func TextSearch(value string, fields ...Field) Predicate {
	value = strings.TrimSpace(value)
	if value == "" || len(fields) == 0 {
		return nil
	}
	if len(fields) == 1 {
		return ContainsFold{Field: fields[0], Value: value}
	}

	group := make(Any, 0, len(fields))
	for _, f := range fields {
		group = append(group, ContainsFold{Field: f, Value: value})
	}
	return group
}

// Location matches a free-form location query. The whole query and each of
// its comma-separated parts are alternatives, so "Warsaw, Poland" matches a
// stored "Warsaw" as well as a stored "Poland" or the full string.
func Location(value string) Predicate {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	group := Any{ContainsFold{Field: FieldLocation, Value: value}}
	seen := map[string]bool{strings.ToLower(value): true}
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		key := strings.ToLower(part)
		if part == "" || seen[key] {
			continue
		}
		seen[key] = true
		group = append(group, ContainsFold{Field: FieldLocation, Value: part})
	}

	if len(group) == 1 {
		return group[0]
	}
	return group
}

// PriceRange bounds the price field. Both bounds are inclusive and optional.
func PriceRange(minPrice, maxPrice *float64) Predicate {
	if minPrice == nil && maxPrice == nil {
		return nil
	}
	return Between{Field: FieldPrice, Min: minPrice, Max: maxPrice}
}

// Exact matches field == value unless value is the zero value of its type.
func Exact[T comparable](field Field, value T) Predicate {
	var zero T
	if value == zero {
		return nil
	}
	return Equals{Field: field, Value: value}
}

// Exclude matches field != value unless value is the zero value of its type.
func Exclude[T comparable](field Field, value T) Predicate {
	var zero T
	if value == zero {
		return nil
	}
	return NotEquals{Field: field, Value: value}
}
