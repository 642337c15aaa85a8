package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated covers a missing, malformed, expired or forged token and a failed
	// login. Callers must not be able to tell these apart.
	ErrUnauthenticated = errors.New("could not validate user")
	// ErrAuthorizationFailed is returned when an operation runs without an identity.
	ErrAuthorizationFailed = errors.New("Authorization failed")
	// ErrForbidden is returned when the identity lacks the required role.
	ErrForbidden = errors.New("Unauthorized")
	// ErrInvalidPassword is returned when the current password does not match on password change.
	ErrInvalidPassword = errors.New("Invalid password")

	ErrTodoNotFound = errors.New("Todo not found")
	ErrUserNotFound = errors.New("User not found")

	// ErrConflict indicates a uniqueness violation reported by the store.
	ErrConflict = errors.New("user already exists")

	// ErrStorageUnavailable is returned by export operations when no bucket is configured.
	ErrStorageUnavailable = errors.New("storage not configured")
)

// ValidationError describes a rejected request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
