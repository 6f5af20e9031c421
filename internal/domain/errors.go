package domain

import (
	"errors"
	"fmt"
)

// ErrValidation is wrapped by every input validation error returned from this package.
var ErrValidation = errors.New("validation failed")

var (
	ErrInvalidID       = invalid("invalid id")
	ErrInvalidName     = invalid("invalid name")
	ErrInvalidTitle    = invalid("invalid title")
	ErrInvalidPriority = invalid("invalid priority")
	ErrInvalidPosition = invalid("invalid position")
	ErrInvalidStatus   = invalid("invalid status")
	ErrInvalidColumnID = invalid("invalid column id")
	ErrInvalidSortKey  = invalid("invalid sort key")
	ErrDuplicateColumn = invalid("duplicate column id")
	ErrNoColumns       = invalid("column list is empty")
	ErrLastColumn      = invalid("cannot remove the last column")
	ErrUnknownStatus   = invalid("status does not match any column")
)

// invalid builds a sentinel that matches ErrValidation with errors.Is.
func invalid(msg string) error {
	return fmt.Errorf("%s: %w", msg, ErrValidation)
}
