package memory

import (
	"time"

	"github.com/evanschultz/kanboard/internal/domain"
)

// Seeded returns a store pre-populated with a small demo board.
func Seeded(now time.Time) *Store {
	s := New()
	now = now.UTC().Truncate(time.Second)
	day := 24 * time.Hour

	projects := []domain.Project{
		{ID: 1, Name: "Inbox", Color: "#64748b"},
		{ID: 2, Name: "Website Redesign", Description: "Refresh the marketing site.", Color: "#6366f1"},
		{ID: 3, Name: "Mobile App", Description: "First public release.", Color: "#10b981"},
	}
	for _, p := range projects {
		p.CreatedAt, p.UpdatedAt = now, now
		s.projects[p.ID] = p
		s.nextProject = max(s.nextProject, p.ID)
	}

	due := func(d time.Duration) *time.Time {
		t := now.Add(d)
		return &t
	}
	tasks := []domain.Task{
		{ID: 1, ProjectID: 2, Title: "Audit current pages", Status: "done", Priority: domain.PriorityMedium, Assignee: "Sarah Chen"},
		{ID: 2, ProjectID: 2, Title: "Draft new navigation", Description: "Cover the **pricing** and *docs* entry points.", Status: "inprogress", Priority: domain.PriorityHigh, DueDate: due(2 * day), Assignee: "Mike Johnson"},
		{ID: 3, ProjectID: 2, Title: "Review hero copy", Status: "review", Priority: domain.PriorityLow, DueDate: due(-day), Assignee: "Sarah Chen"},
		{ID: 4, ProjectID: 3, Title: "Set up crash reporting", Status: "todo", Priority: domain.PriorityHigh, DueDate: due(5 * day), Assignee: "Alex Rivera"},
		{ID: 5, ProjectID: 3, Title: "Store listing screenshots", Status: "todo", Priority: domain.PriorityMedium, Assignee: "Emily Davis"},
		{ID: 6, ProjectID: 1, Title: "Collect feedback notes", Status: "inprogress", Priority: domain.PriorityLow},
	}
	for _, t := range tasks {
		t.CreatedAt, t.UpdatedAt = now, now
		s.tasks[t.ID] = t
		s.nextTask = max(s.nextTask, t.ID)
	}
	return s
}
