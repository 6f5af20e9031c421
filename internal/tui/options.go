package tui

import (
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/log"

	"github.com/evanschultz/kanboard/internal/domain"
)

type Option func(*Model)

// ClipboardFunc writes text to the system clipboard.
type ClipboardFunc func(string) error

func defaultClipboard(text string) error {
	return clipboard.WriteAll(text)
}

func WithClock(clock func() time.Time) Option {
	return func(m *Model) {
		if clock != nil {
			m.now = clock
		}
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(m *Model) {
		if logger != nil {
			m.logger = logger
		}
	}
}

func WithClipboard(fn ClipboardFunc) Option {
	return func(m *Model) {
		if fn != nil {
			m.copy = fn
		}
	}
}

// WithSort sets the initial in-column order; unknown keys are ignored.
func WithSort(raw string) Option {
	return func(m *Model) {
		if key, err := domain.ParseSortKey(raw); err == nil {
			m.sort = key
		}
	}
}

func WithUpcomingLimit(limit int) Option {
	return func(m *Model) {
		if limit > 0 {
			m.upcomingLimit = limit
		}
	}
}

// WithProjectScope starts the board on one project; 0 shows every project.
func WithProjectScope(projectID int64) Option {
	return func(m *Model) {
		m.scope = max(projectID, 0)
	}
}
