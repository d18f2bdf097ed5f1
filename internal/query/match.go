package query

import (
	"strings"
)

// Record exposes field values of an entity to Match. ok is false when the
// entity has no such field.
type Record interface {
	Value(f Field) (v any, ok bool)
}

// RecordFunc adapts a function to Record.
type RecordFunc func(f Field) (any, bool)

// Value implements Record.
func (fn RecordFunc) Value(f Field) (any, bool) { return fn(f) }

// Match evaluates p against r in memory. A nil predicate matches.
func Match(p Predicate, r Record) bool {
	switch v := p.(type) {
	case nil:
		return true
	case All:
		for _, child := range v {
			if !Match(child, r) {
				return false
			}
		}
		return true
	case Any:
		for _, child := range v {
			if Match(child, r) {
				return true
			}
		}
		return false
	case ContainsFold:
		val, ok := r.Value(v.Field)
		s, isString := val.(string)
		return ok && isString && strings.Contains(strings.ToLower(s), strings.ToLower(v.Value))
	case Equals:
		val, ok := r.Value(v.Field)
		return ok && val == v.Value
	case NotEquals:
		val, ok := r.Value(v.Field)
		return !ok || val != v.Value
	case Between:
		val, ok := r.Value(v.Field)
		n, isNumber := val.(float64)
		if !ok || !isNumber {
			return false
		}
		if v.Min != nil && n < *v.Min {
			return false
		}
		if v.Max != nil && n > *v.Max {
			return false
		}
		return true
	}
	return false
}
