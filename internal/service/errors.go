package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/marketplace-api/internal/domain"
	"github.com/phrazzld/marketplace-api/internal/store"
)

// Common service errors - sentinel errors used across service implementations.
// Callers check for them with errors.Is; the API layer maps them to status codes.
var (
	// ErrNotOwned indicates a resource is owned by a different user than the one making the request.
	// API layer should map this to HTTP 403 Forbidden.
	ErrNotOwned = errors.New("resource is owned by another user")

	// ErrSelfFollow is returned when a user tries to follow or unfollow themselves.
	// It is a validation failure (HTTP 400).
	ErrSelfFollow = fmt.Errorf("%w: users cannot follow themselves", domain.ErrValidation)

	// ErrInvalidCredentials is returned by Authenticate for an unknown email or a wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrAlreadyFollowing and ErrNotFollowing are conflicts (HTTP 409).
	ErrAlreadyFollowing = store.ErrAlreadyFollowing
	ErrNotFollowing     = store.ErrNotFollowing
)

// ServiceError wraps an unexpected failure with the service and operation it
// happened in.
type ServiceError struct {
	Service string
	Op      string
	Err     error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s service %s operation failed: %v", e.Service, e.Op, e.Err)
	}
	return fmt.Sprintf("%s service %s operation failed", e.Service, e.Op)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

func newServiceError(service, op string, err error) error {
	return &ServiceError{Service: service, Op: op, Err: err}
}

// passThrough reports whether err belongs to the expected taxonomy and
// should reach the caller unwrapped.
func passThrough(err error) bool {
	return errors.Is(err, store.ErrNotFound) ||
		errors.Is(err, store.ErrDuplicate) ||
		errors.Is(err, store.ErrConflict) ||
		errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, ErrNotOwned) ||
		errors.Is(err, ErrInvalidCredentials)
}

// wrap returns expected errors unchanged and wraps everything else in a ServiceError.
func wrap(service, op string, err error) error {
	if err == nil || passThrough(err) {
		return err
	}
	return newServiceError(service, op, err)
}
