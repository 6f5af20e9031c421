package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/evanschultz/kanboard/internal/app"
	"github.com/evanschultz/kanboard/internal/domain"
)

func TestStore_TaskLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	if err := s.CreateTask(ctx, domain.Task{ID: 1, ProjectID: 1, Title: "orphan"}); err == nil {
		t.Fatal("CreateTask() without project error = nil, want error")
	}
	if err := s.CreateProject(ctx, domain.Project{ID: 1, Name: "Inbox", CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}

	due := now.Add(time.Hour)
	in := domain.Task{ID: 1, ProjectID: 1, Title: "t1", Status: "todo", DueDate: &due}
	if err := s.CreateTask(ctx, in); err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	if err := s.CreateTask(ctx, in); err == nil {
		t.Fatal("CreateTask(duplicate) error = nil, want error")
	}

	due = due.Add(time.Hour)
	got, err := s.GetTask(ctx, 1)
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if !got.DueDate.Equal(now.Add(time.Hour)) {
		t.Fatalf("stored due date aliased caller memory: %v", got.DueDate)
	}

	got.Status = "done"
	if err := s.UpdateTask(ctx, got); err != nil {
		t.Fatalf("UpdateTask() error = %v", err)
	}
	if err := s.UpdateTask(ctx, domain.Task{ID: 9, ProjectID: 1}); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("UpdateTask(missing) err = %v, want ErrNotFound", err)
	}
	if err := s.DeleteTask(ctx, 1); err != nil {
		t.Fatalf("DeleteTask() error = %v", err)
	}
	if _, err := s.GetTask(ctx, 1); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("GetTask() after delete err = %v, want ErrNotFound", err)
	}
	next, _ := s.NextTaskID(ctx)
	if next != 2 {
		t.Fatalf("NextTaskID() = %d, want 2", next)
	}
}

func TestStore_ListTasksOrderAndScope(t *testing.T) {
	ctx := context.Background()
	s := Seeded(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	all, err := s.ListTasks(ctx, 0)
	if err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].ID >= all[i].ID {
			t.Fatalf("ListTasks() not ordered by id: %d before %d", all[i-1].ID, all[i].ID)
		}
	}
	scoped, _ := s.ListTasks(ctx, 3)
	if len(scoped) != 2 {
		t.Fatalf("ListTasks(3) len = %d, want 2", len(scoped))
	}

	if err := s.DeleteProject(ctx, 3); err != nil {
		t.Fatalf("DeleteProject() error = %v", err)
	}
	after, _ := s.ListTasks(ctx, 0)
	if len(after) != len(all)-2 {
		t.Fatalf("DeleteProject() left %d tasks, want %d", len(after), len(all)-2)
	}
	projects, _ := s.ListProjects(ctx)
	if len(projects) != 2 || projects[0].ID != 1 || projects[1].ID != 2 {
		t.Fatalf("ListProjects() = %#v", projects)
	}
}

func TestStore_SettingsCopyValues(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, err := s.GetSetting(ctx, "k"); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("GetSetting() err = %v, want ErrNotFound", err)
	}
	value := []byte("abc")
	_ = s.SetSetting(ctx, "k", value)
	value[0] = 'z'
	got, _ := s.GetSetting(ctx, "k")
	if string(got) != "abc" {
		t.Fatalf("GetSetting() = %q, want abc", got)
	}
	if err := s.DeleteSetting(ctx, "k"); err != nil {
		t.Fatalf("DeleteSetting() error = %v", err)
	}
	if err := s.DeleteSetting(ctx, "k"); err != nil {
		t.Fatalf("DeleteSetting(missing) error = %v", err)
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	s := New()
	if err := s.CreateProject(ctx, domain.Project{ID: 1, Name: "Inbox"}); err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}

	var wg sync.WaitGroup
	for i := range 20 {
		id := int64(i + 1)
		wg.Go(func() {
			if err := s.CreateTask(ctx, domain.Task{ID: id, ProjectID: 1, Title: "t", Status: "todo"}); err != nil {
				t.Errorf("CreateTask(%d) error = %v", id, err)
			}
		})
		wg.Go(func() {
			if _, err := s.ListTasks(ctx, 1); err != nil {
				t.Errorf("ListTasks() error = %v", err)
			}
		})
	}
	wg.Wait()

	tasks, _ := s.ListTasks(ctx, 0)
	if len(tasks) != 20 {
		t.Fatalf("ListTasks() len = %d, want 20", len(tasks))
	}
	next, _ := s.NextTaskID(ctx)
	if next != 21 {
		t.Fatalf("NextTaskID() = %d, want 21", next)
	}
}
