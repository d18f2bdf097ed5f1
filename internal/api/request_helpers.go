package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/marketplace-api/internal/api/shared"
	"github.com/phrazzld/marketplace-api/internal/domain"
	"github.com/phrazzld/marketplace-api/internal/platform/logger"
	"github.com/phrazzld/marketplace-api/internal/query"
)

// getUserIDFromContext extracts the authenticated user's UUID placed in the
// context by the authentication middleware.
func getUserIDFromContext(r *http.Request) (uuid.UUID, bool) {
	return shared.UserIDFromContext(r.Context())
}

// requireUserID returns the caller's ID, writing a 401 when it is missing.
func requireUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		logger.FromContextOrDefault(r.Context(), slog.Default()).
			Warn("user ID not found or invalid in request context")
		HandleAPIError(w, r, domain.ErrUnauthorized, "")
		return uuid.Nil, false
	}
	return userID, true
}

// getPathUUID extracts and parses a UUID path parameter.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return uuid.Nil, domain.NewValidationError(paramName, "is required")
	}

	id, err := uuid.Parse(pathParam)
	if err != nil {
		return uuid.Nil, domain.NewValidationError(paramName, "has invalid format")
	}
	return id, nil
}

// handlePathUUID is getPathUUID that writes the error response itself.
func handlePathUUID(w http.ResponseWriter, r *http.Request, paramName string) (uuid.UUID, bool) {
	id, err := getPathUUID(r, paramName)
	if err != nil {
		logger.FromContextOrDefault(r.Context(), slog.Default()).Warn("invalid path parameter",
			slog.String("param_name", paramName),
			slog.String("value", chi.URLParam(r, paramName)))
		HandleAPIError(w, r, err, "")
		return uuid.Nil, false
	}
	return id, true
}

// handleUserIDAndPathUUID extracts both the caller's ID and a UUID path
// parameter, writing an error response if either is missing or invalid.
func handleUserIDAndPathUUID(w http.ResponseWriter, r *http.Request, paramName string) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	pathID, ok := handlePathUUID(w, r, paramName)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return userID, pathID, true
}

// queryParams collects the field errors of one request's query string.
type queryParams struct {
	values map[string][]string
	errs   domain.ValidationErrors
}

func newQueryParams(r *http.Request) *queryParams {
	return &queryParams{values: r.URL.Query()}
}

func (q *queryParams) str(name string) string {
	if v := q.values[name]; len(v) > 0 {
		return v[0]
	}
	return ""
}

func (q *queryParams) integer(name string) *int {
	raw := q.str(name)
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		q.errs.Add(name, "must be an integer")
		return nil
	}
	return &n
}

func (q *queryParams) number(name string) *float64 {
	raw := q.str(name)
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		q.errs.Add(name, "must be a number")
		return nil
	}
	if f < 0 {
		q.errs.Add(name, "must be greater than or equal to 0")
		return nil
	}
	return &f
}

// page reads limit and offset, applying defaults and bounds.
func (q *queryParams) page() query.Page {
	limit, offset := q.integer("limit"), q.integer("offset")
	page, err := query.NewPage(limit, offset)
	var ve domain.ValidationErrors
	if errors.As(err, &ve) {
		q.errs = append(q.errs, ve...)
	}
	return page
}

// oneOf records an error unless value is empty or one of allowed.
func (q *queryParams) oneOf(name, value string, allowed func(string) bool) string {
	if value != "" && !allowed(value) {
		q.errs.Add(name, "has an unsupported value")
	}
	return value
}

func (q *queryParams) err() error {
	return q.errs.Err()
}
