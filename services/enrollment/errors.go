package enrollment

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidID          = errors.New("invalid id")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrForbidden          = errors.New("not enrolled in this course")
	ErrTransactionFailure = errors.New("enrollment transaction failed")

	ErrUserNotFound      = fmt.Errorf("user not found: %w", ErrNotFound)
	ErrSectionCompleted  = fmt.Errorf("section already completed: %w", ErrConflict)
	ErrSectionOutOfRange = fmt.Errorf("section id out of range: %w", ErrInvalidID)
)

// ConflictError is returned when the user is already enrolled. It carries the
// course so callers can send the user to the existing enrollment.
type ConflictError struct {
	CourseID uint
	Title    string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("already enrolled in course %d", e.CourseID)
}

func (e *ConflictError) Unwrap() error {
	return ErrConflict
}
