package postgres

import (
	"fmt"
	"strings"

	"github.com/phrazzld/marketplace-api/internal/query"
	"github.com/phrazzld/marketplace-api/internal/store"
)

// columnMap whitelists the filterable fields of one table.
type columnMap map[query.Field]string

// sqlFilter renders query predicates into a parameterized WHERE clause.
type sqlFilter struct {
	columns columnMap
	args    []any
}

func newSQLFilter(columns columnMap) *sqlFilter {
	return &sqlFilter{columns: columns}
}

// Where renders p. A nil predicate renders as TRUE.
func (f *sqlFilter) Where(p query.Predicate) (string, error) {
	if p == nil {
		return "TRUE", nil
	}
	return f.render(p)
}

// Args returns the positional arguments collected so far.
func (f *sqlFilter) Args() []any {
	return f.args
}

func (f *sqlFilter) bind(v any) string {
	f.args = append(f.args, v)
	return fmt.Sprintf("$%d", len(f.args))
}

func (f *sqlFilter) column(field query.Field) (string, error) {
	col, ok := f.columns[field]
	if !ok {
		return "", fmt.Errorf("%w: unknown field %q", store.ErrInvalidFilter, field)
	}
	return col, nil
}

func (f *sqlFilter) render(p query.Predicate) (string, error) {
	switch v := p.(type) {
	case nil:
		return "TRUE", nil
	case query.All:
		return f.group(v, " AND ", "TRUE")
	case query.Any:
		return f.group(v, " OR ", "FALSE")
	case query.ContainsFold:
		col, err := f.column(v.Field)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s ILIKE %s", col, f.bind("%"+escapeLike(v.Value)+"%")), nil
	case query.Equals:
		col, err := f.column(v.Field)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s = %s", col, f.bind(v.Value)), nil
	case query.NotEquals:
		col, err := f.column(v.Field)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s <> %s", col, f.bind(v.Value)), nil
	case query.Between:
		col, err := f.column(v.Field)
		if err != nil {
			return "", err
		}
		var parts []string
		if v.Min != nil {
			parts = append(parts, fmt.Sprintf("%s >= %s", col, f.bind(*v.Min)))
		}
		if v.Max != nil {
			parts = append(parts, fmt.Sprintf("%s <= %s", col, f.bind(*v.Max)))
		}
		if len(parts) == 0 {
			return "TRUE", nil
		}
		return "(" + strings.Join(parts, " AND ") + ")", nil
	}
	return "", fmt.Errorf("%w: unsupported predicate %T", store.ErrInvalidFilter, p)
}

func (f *sqlFilter) group(children []query.Predicate, op, empty string) (string, error) {
	if len(children) == 0 {
		return empty, nil
	}
	parts := make([]string, 0, len(children))
	for _, child := range children {
		s, err := f.render(child)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	return "(" + strings.Join(parts, op) + ")", nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside a LIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
