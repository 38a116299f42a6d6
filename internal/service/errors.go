package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/service/auth"
	"github.com/phrazzld/todo-api/internal/store"
)

// Common service errors - sentinel errors used across service implementations.
// Callers check for them with errors.Is; the API layer maps them to status codes.
var (
	// ErrInactiveUser is returned by Login and Refresh when the account has
	// been deactivated. It wraps auth.ErrInvalidCredentials so the API layer
	// answers 401.
	ErrInactiveUser = fmt.Errorf("%w: account is inactive", auth.ErrInvalidCredentials)

	// ErrUnknownTokenSubject is returned when a valid refresh or reset token
	// names a user that no longer exists.
	ErrUnknownTokenSubject = fmt.Errorf("%w: unknown subject", auth.ErrInvalidToken)
)

// ServiceError wraps unexpected failures with the service and operation that
// produced them.
type ServiceError struct {
	// Service is the component name, e.g. "todo"
	Service string
	// Operation is the operation that failed, e.g. "create"
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s service %s failed: %s: %v", e.Service, e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s service %s failed: %s", e.Service, e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError wraps err in a ServiceError. Expected conditions (not found,
// duplicates, validation and auth failures) are returned unchanged so the API
// layer can map them directly.
func NewServiceError(service, operation, message string, err error) error {
	if err == nil {
		return nil
	}
	if isExpected(err) {
		return err
	}
	return &ServiceError{
		Service:   service,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

func isExpected(err error) bool {
	for _, target := range []error{
		store.ErrNotFound,
		store.ErrDuplicate,
		store.ErrInvalidEntity,
		domain.ErrValidation,
		auth.ErrInvalidCredentials,
		auth.ErrInvalidToken,
		auth.ErrUnauthenticated,
		auth.ErrForbidden,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// hideForeign turns a failed ownership check into notFound so foreign
// resources look exactly like missing ones.
func hideForeign(err, notFound error) error {
	if errors.Is(err, auth.ErrForbidden) {
		return notFound
	}
	return err
}
