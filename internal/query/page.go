package query

import (
	"github.com/phrazzld/marketplace-api/internal/domain"
)

// Pagination defaults and bounds.
const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Page selects a window of a listing.
type Page struct {
	Limit  int
	Offset int
}

// DefaultPage is the window used when the caller gives no pagination.
var DefaultPage = Page{Limit: DefaultLimit, Offset: 0}

// NewPage validates optional limit and offset values and applies defaults.
func NewPage(limit, offset *int) (Page, error) {
	page := DefaultPage
	var errs domain.ValidationErrors

	if limit != nil {
		if *limit < 1 || *limit > MaxLimit {
			errs.Add("limit", "must be between 1 and 100")
		}
		page.Limit = *limit
	}
	if offset != nil {
		if *offset < 0 {
			errs.Add("offset", "must be greater than or equal to 0")
		}
		page.Offset = *offset
	}

	if err := errs.Err(); err != nil {
		return DefaultPage, err
	}
	return page, nil
}

// Result is a page of items plus the total number of matches ignoring
// pagination.
type Result[T any] struct {
	Items  []T   `json:"items"`
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

// NewResult assembles a Result, echoing the requested window.
func NewResult[T any](items []T, total int64, page Page) Result[T] {
	if items == nil {
		items = []T{}
	}
	return Result[T]{Items: items, Total: total, Limit: page.Limit, Offset: page.Offset}
}

// MapResult converts the items of a Result, keeping the envelope.
func MapResult[T, U any](r Result[T], fn func(T) U) Result[U] {
	items := make([]U, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, fn(it))
	}
	return Result[U]{Items: items, Total: r.Total, Limit: r.Limit, Offset: r.Offset}
}

// Window returns the part of items selected by page.
func Window[T any](items []T, page Page) []T {
	if page.Offset >= len(items) {
		return []T{}
	}
	end := min(page.Offset+page.Limit, len(items))
	return items[page.Offset:end]
}
