package domain

import (
	"cmp"
	"slices"
	"strings"
	"time"
)

// DoneStatus is the terminal status used when no columns are configured.
const DoneStatus = "done"

// DefaultUpcomingLimit caps the upcoming deadline list.
const DefaultUpcomingLimit = 10

// ColumnTasks pairs a column with the tasks currently in it.
type ColumnTasks struct {
	Column Column
	Tasks  []Task
}

// ColumnCount is a per-column task count.
type ColumnCount struct {
	ColumnID string
	Title    string
	Count    int
}

// BoardStats summarizes a task set against the current columns.
type BoardStats struct {
	Total        int
	ByColumn     []ColumnCount
	Completed    int
	HighPriority int
	Overdue      int
	Orphaned     int
	// Progress is the completed percentage in [0, 100].
	Progress float64
}

// ProjectCount is the task tally of a single project.
type ProjectCount struct {
	ProjectID int64
	Total     int
	Completed int
}

// MemberWorkload is the per-assignee breakdown shown on the team view.
type MemberWorkload struct {
	Assignee   string
	Total      int
	Completed  int
	InProgress int
	Pending    int
	// Workload is the open percentage in [0, 100].
	Workload float64
}

func terminalStatus(columns []Column) string {
	if c, ok := TerminalColumn(columns); ok {
		return c.ID
	}
	return DoneStatus
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// GroupByStatus buckets tasks under their column in column order. Orphaned tasks are omitted.
func GroupByStatus(tasks []Task, columns []Column) []ColumnTasks {
	ordered := SortColumns(columns)
	out := make([]ColumnTasks, len(ordered))
	index := make(map[string]int, len(ordered))
	for i, c := range ordered {
		out[i] = ColumnTasks{Column: c, Tasks: []Task{}}
		index[c.ID] = i
	}
	for _, t := range tasks {
		if i, ok := index[t.Status]; ok {
			out[i].Tasks = append(out[i].Tasks, t)
		}
	}
	return out
}

// IsOverdue reports a past due date on a task outside the terminal column.
func IsOverdue(t Task, terminal string, now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now) && t.Status != terminal
}

// ComputeStats derives board counters from tasks and columns.
func ComputeStats(tasks []Task, columns []Column, now time.Time) BoardStats {
	terminal := terminalStatus(columns)
	stats := BoardStats{Total: len(tasks)}
	for _, group := range GroupByStatus(tasks, columns) {
		stats.ByColumn = append(stats.ByColumn, ColumnCount{
			ColumnID: group.Column.ID,
			Title:    group.Column.Title,
			Count:    len(group.Tasks),
		})
	}
	for _, t := range tasks {
		if t.Status == terminal {
			stats.Completed++
		}
		if t.Priority == PriorityHigh {
			stats.HighPriority++
		}
		if IsOverdue(t, terminal, now) {
			stats.Overdue++
		}
		if !HasColumn(columns, t.Status) {
			stats.Orphaned++
		}
	}
	stats.Progress = percent(stats.Completed, stats.Total)
	return stats
}

// OverdueTasks lists overdue tasks, earliest due date first.
func OverdueTasks(tasks []Task, columns []Column, now time.Time) []Task {
	terminal := terminalStatus(columns)
	out := make([]Task, 0)
	for _, t := range tasks {
		if IsOverdue(t, terminal, now) {
			out = append(out, t)
		}
	}
	return SortTasks(out, SortDueDate)
}

// UpcomingTasks lists tasks due at or after now in ascending order, capped at limit.
// A non-positive limit returns every upcoming task.
func UpcomingTasks(tasks []Task, now time.Time, limit int) []Task {
	out := make([]Task, 0)
	for _, t := range tasks {
		if t.DueDate != nil && !t.DueDate.Before(now) {
			out = append(out, t)
		}
	}
	out = SortTasks(out, SortDueDate)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// OrphanedTasks lists tasks whose status matches no column.
func OrphanedTasks(tasks []Task, columns []Column) []Task {
	out := make([]Task, 0)
	for _, t := range tasks {
		if !HasColumn(columns, t.Status) {
			out = append(out, t)
		}
	}
	return out
}

// CountByProject tallies tasks per project, ordered by project id.
func CountByProject(tasks []Task, columns []Column) []ProjectCount {
	terminal := terminalStatus(columns)
	byID := map[int64]*ProjectCount{}
	for _, t := range tasks {
		pc, ok := byID[t.ProjectID]
		if !ok {
			pc = &ProjectCount{ProjectID: t.ProjectID}
			byID[t.ProjectID] = pc
		}
		pc.Total++
		if t.Status == terminal {
			pc.Completed++
		}
	}
	out := make([]ProjectCount, 0, len(byID))
	for _, pc := range byID {
		out = append(out, *pc)
	}
	slices.SortFunc(out, func(a, b ProjectCount) int {
		return cmp.Compare(a.ProjectID, b.ProjectID)
	})
	return out
}

// WorkloadByAssignee breaks assigned tasks down per person. Unassigned tasks are skipped.
// Tasks in the first column are pending, the terminal column is completed and anything else,
// orphans included, is in progress.
func WorkloadByAssignee(tasks []Task, columns []Column) []MemberWorkload {
	terminal := terminalStatus(columns)
	first := ""
	if c, ok := FirstColumn(columns); ok {
		first = c.ID
	}
	byName := map[string]*MemberWorkload{}
	for _, t := range tasks {
		name := strings.TrimSpace(t.Assignee)
		if name == "" {
			continue
		}
		w, ok := byName[name]
		if !ok {
			w = &MemberWorkload{Assignee: name}
			byName[name] = w
		}
		w.Total++
		switch {
		case t.Status == terminal:
			w.Completed++
		case t.Status == first:
			w.Pending++
		default:
			w.InProgress++
		}
	}
	out := make([]MemberWorkload, 0, len(byName))
	for _, w := range byName {
		w.Workload = percent(w.Total-w.Completed, w.Total)
		out = append(out, *w)
	}
	slices.SortFunc(out, func(a, b MemberWorkload) int {
		return strings.Compare(a.Assignee, b.Assignee)
	})
	return out
}
