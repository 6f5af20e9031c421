package app

import (
	"errors"
	"fmt"

	"github.com/evanschultz/kanboard/internal/domain"
)

// ErrNotFound and related errors describe lookup and runtime failures.
var (
	ErrNotFound    = errors.New("not found")
	ErrPersistence = errors.New("persistence failure")
)

// ErrReassignmentRequired is returned when a column that still holds tasks is removed without a
// target column for those tasks.
var ErrReassignmentRequired = fmt.Errorf("column has tasks, reassignment target required: %w", domain.ErrValidation)
