package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Error kinds. Match with errors.Is.
var (
	ErrValidation      = errors.New("validation error")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("permission denied")
)

// Error carries a user-facing message and one of the kinds above.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func validationError(format string, args ...any) error {
	return newError(ErrValidation, format, args...)
}

func notFound(format string, args ...any) error {
	return newError(ErrNotFound, format, args...)
}

func conflict(format string, args ...any) error {
	return newError(ErrConflict, format, args...)
}

// ErrSignInRequired is returned when an operation needs an actor and got none.
var ErrSignInRequired = &Error{Kind: ErrUnauthenticated, Message: "Please sign in first."}

func forbidden(format string, args ...any) error {
	return newError(ErrForbidden, format, args...)
}

// createUnique inserts row and reports a unique index violation as a
// conflict. It closes the gap between a duplicate check and the insert.
func createUnique(db *gorm.DB, row any, format string, args ...any) error {
	err := db.Create(row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return conflict(format, args...)
	}
	return err
}
