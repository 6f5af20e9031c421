package domain

import (
	"slices"
	"strings"
	"time"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

var validPriorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// ParsePriority normalizes raw priority text; empty input yields PriorityMedium.
func ParsePriority(raw string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(raw)))
	if p == "" {
		return PriorityMedium, nil
	}
	if !slices.Contains(validPriorities, p) {
		return "", ErrInvalidPriority
	}
	return p, nil
}

// Rank orders priorities high > medium > low; unknown values rank lowest.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

type Task struct {
	ID          int64
	ProjectID   int64
	Title       string
	Description string
	Status      string
	Priority    Priority
	DueDate     *time.Time
	Assignee    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type TaskInput struct {
	ID          int64
	ProjectID   int64
	Title       string
	Description string
	Status      string
	Priority    Priority
	DueDate     *time.Time
	Assignee    string
}

func NewTask(in TaskInput, now time.Time) (Task, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Status = strings.TrimSpace(in.Status)
	in.Assignee = strings.TrimSpace(in.Assignee)

	if in.ID <= 0 || in.ProjectID <= 0 {
		return Task{}, ErrInvalidID
	}
	if in.Title == "" {
		return Task{}, ErrInvalidTitle
	}
	if in.Status == "" {
		return Task{}, ErrInvalidStatus
	}
	priority, err := ParsePriority(string(in.Priority))
	if err != nil {
		return Task{}, err
	}

	return Task{
		ID:          in.ID,
		ProjectID:   in.ProjectID,
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    priority,
		DueDate:     normalizeDueDate(in.DueDate),
		Assignee:    in.Assignee,
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}, nil
}

// TaskPatch carries the optional fields of a partial task update. Nil fields are left alone.
type TaskPatch struct {
	Title        *string
	Description  *string
	Status       *string
	Priority     *Priority
	DueDate      *time.Time
	ClearDueDate bool
	Assignee     *string
	ProjectID    *int64
}

// StatusPatch returns a patch that only moves a task to status.
func StatusPatch(status string) TaskPatch {
	return TaskPatch{Status: &status}
}

// IsEmpty reports whether the patch sets nothing.
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil &&
		p.Description == nil &&
		p.Status == nil &&
		p.Priority == nil &&
		p.DueDate == nil &&
		!p.ClearDueDate &&
		p.Assignee == nil &&
		p.ProjectID == nil
}

// Apply merges patch into the task. It reports false and leaves the task untouched when the
// merged value equals the current one. ID and CreatedAt are never written.
func (t *Task) Apply(patch TaskPatch, now time.Time) (bool, error) {
	next := *t
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return false, ErrInvalidTitle
		}
		next.Title = title
	}
	if patch.Description != nil {
		next.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Status != nil {
		status := strings.TrimSpace(*patch.Status)
		if status == "" {
			return false, ErrInvalidStatus
		}
		next.Status = status
	}
	if patch.Priority != nil {
		priority, err := ParsePriority(string(*patch.Priority))
		if err != nil {
			return false, err
		}
		next.Priority = priority
	}
	switch {
	case patch.ClearDueDate:
		next.DueDate = nil
	case patch.DueDate != nil:
		next.DueDate = normalizeDueDate(patch.DueDate)
	}
	if patch.Assignee != nil {
		next.Assignee = strings.TrimSpace(*patch.Assignee)
	}
	if patch.ProjectID != nil {
		if *patch.ProjectID <= 0 {
			return false, ErrInvalidID
		}
		next.ProjectID = *patch.ProjectID
	}

	if next.Equal(*t) {
		return false, nil
	}
	ts := now.UTC()
	if ts.Before(t.UpdatedAt) {
		ts = t.UpdatedAt
	}
	next.UpdatedAt = ts
	*t = next
	return true, nil
}

// Equal compares every field of two tasks, including timestamps.
func (t Task) Equal(other Task) bool {
	return t.ID == other.ID &&
		t.ProjectID == other.ProjectID &&
		t.Title == other.Title &&
		t.Description == other.Description &&
		t.Status == other.Status &&
		t.Priority == other.Priority &&
		equalDueDates(t.DueDate, other.DueDate) &&
		t.Assignee == other.Assignee &&
		t.CreatedAt.Equal(other.CreatedAt) &&
		t.UpdatedAt.Equal(other.UpdatedAt)
}

func equalDueDates(a, b *time.Time) bool {
	switch {
	case a == nil && b == nil:
		return true
	case a == nil || b == nil:
		return false
	default:
		return a.Equal(*b)
	}
}

func normalizeDueDate(dueDate *time.Time) *time.Time {
	if dueDate == nil {
		return nil
	}
	ts := dueDate.UTC().Truncate(time.Second)
	return &ts
}
