package domain

import (
	"cmp"
	"slices"
	"strings"
	"time"
)

// TaskFilter narrows a task list. Zero-valued fields do not filter.
type TaskFilter struct {
	ProjectID  int64
	Statuses   []string
	Priorities []Priority
	Assignee   string
	Query      string
}

// Match reports whether the task passes every set criterion.
func (f TaskFilter) Match(t Task) bool {
	if f.ProjectID > 0 && t.ProjectID != f.ProjectID {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, t.Status) {
		return false
	}
	if len(f.Priorities) > 0 && !slices.Contains(f.Priorities, t.Priority) {
		return false
	}
	if assignee := strings.TrimSpace(f.Assignee); assignee != "" && !strings.EqualFold(assignee, t.Assignee) {
		return false
	}
	return MatchesQuery(t, f.Query)
}

// FilterTasks returns the tasks matching f in their original order.
func FilterTasks(tasks []Task, f TaskFilter) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// MatchesQuery is a case-insensitive substring match over title and description.
// An empty query matches everything.
func MatchesQuery(t Task, query string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(t.Title), query) ||
		strings.Contains(strings.ToLower(t.Description), query)
}

type SortKey string

const (
	SortUpdated  SortKey = "updated"
	SortPriority SortKey = "priority"
	SortDueDate  SortKey = "dueDate"
)

// ParseSortKey accepts the sort key names case-insensitively; empty input sorts by update time.
func ParseSortKey(raw string) (SortKey, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "updated":
		return SortUpdated, nil
	case "priority":
		return SortPriority, nil
	case "duedate", "due":
		return SortDueDate, nil
	default:
		return "", ErrInvalidSortKey
	}
}

// SortTasks returns a sorted copy. Ties keep their input order.
func SortTasks(tasks []Task, key SortKey) []Task {
	out := slices.Clone(tasks)
	switch key {
	case SortPriority:
		slices.SortStableFunc(out, func(a, b Task) int {
			return cmp.Compare(b.Priority.Rank(), a.Priority.Rank())
		})
	case SortDueDate:
		slices.SortStableFunc(out, func(a, b Task) int {
			return compareDueDates(a.DueDate, b.DueDate)
		})
	default:
		slices.SortStableFunc(out, func(a, b Task) int {
			return b.UpdatedAt.Compare(a.UpdatedAt)
		})
	}
	return out
}

// compareDueDates orders ascending with undated tasks last.
func compareDueDates(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	default:
		return a.Compare(*b)
	}
}
