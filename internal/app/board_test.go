package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/evanschultz/kanboard/internal/domain"
)

// hookStore wraps a TaskStore, counting calls and running afterUpdate once the underlying update
// has produced its result but before it is returned.
type hookStore struct {
	TaskStore
	updates     int
	afterUpdate func()
}

func (h *hookStore) Update(ctx context.Context, id int64, patch domain.TaskPatch) (domain.Task, error) {
	h.updates++
	task, err := h.TaskStore.Update(ctx, id, patch)
	if h.afterUpdate != nil {
		hook := h.afterUpdate
		h.afterUpdate = nil
		hook()
	}
	return task, err
}

type boardFixture struct {
	board   *Board
	svc     *Service
	repo    *fakeRepo
	store   *hookStore
	columns *ColumnManager
	project domain.Project
	changes []Change
}

func newBoardFixture(t *testing.T, opts ...BoardOption) *boardFixture {
	t.Helper()
	svc, repo, project := newTestService(t)
	f := &boardFixture{
		svc:     svc,
		repo:    repo,
		store:   &hookStore{TaskStore: svc},
		columns: NewColumnManager(newFakeKV()),
		project: project,
	}
	f.board = NewBoard(f.store, f.columns, opts...)
	f.board.Subscribe(func(c Change) {
		f.changes = append(f.changes, c)
	})
	return f
}

func (f *boardFixture) seed(t *testing.T, title, status string) domain.Task {
	t.Helper()
	task, err := f.svc.Create(context.Background(), domain.TaskInput{ProjectID: f.project.ID, Title: title, Status: status})
	if err != nil {
		t.Fatalf("seed Create() error = %v", err)
	}
	return task
}

func (f *boardFixture) load(t *testing.T) {
	t.Helper()
	if err := f.board.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	f.changes = nil
}

func TestBoardLoadKeepsStateOnFailure(t *testing.T) {
	f := newBoardFixture(t)
	f.seed(t, "a", "todo")
	f.load(t)
	if len(f.board.List(0)) != 1 {
		t.Fatalf("expected one task, got %d", len(f.board.List(0)))
	}

	f.repo.failReads = errors.New("offline")
	if err := f.board.Load(context.Background()); !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	if len(f.board.List(0)) != 1 {
		t.Fatal("failed load should keep the previous working set")
	}
	if len(f.changes) != 0 {
		t.Fatalf("failed load should not notify, got %#v", f.changes)
	}
}

func TestBoardCreateValidatesAndNotifies(t *testing.T) {
	f := newBoardFixture(t)
	ctx := context.Background()

	if _, err := f.board.Create(ctx, domain.TaskInput{ProjectID: f.project.ID, Title: " ", Status: "todo"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for empty title, got %v", err)
	}
	if _, err := f.board.Create(ctx, domain.TaskInput{ProjectID: f.project.ID, Title: "x", Status: "archive"}); !errors.Is(err, domain.ErrUnknownStatus) {
		t.Fatalf("expected ErrUnknownStatus, got %v", err)
	}
	if len(f.board.List(0)) != 0 || len(f.changes) != 0 {
		t.Fatal("rejected creates must not change the board")
	}

	task, err := f.board.Create(ctx, domain.TaskInput{ProjectID: f.project.ID, Title: "Write tests", Status: "todo"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if task.ID != 1 || task.Priority != domain.PriorityMedium {
		t.Fatalf("unexpected task %#v", task)
	}
	if len(f.changes) != 1 || f.changes[0].Kind != ChangeCreated || f.changes[0].Tasks[0].ID != task.ID {
		t.Fatalf("unexpected notifications %#v", f.changes)
	}
	if got, ok := f.board.Task(task.ID); !ok || got.Title != "Write tests" {
		t.Fatalf("task missing from working set: %#v", got)
	}
}

func TestBoardMoveStatusSameColumnIsNoop(t *testing.T) {
	f := newBoardFixture(t)
	task := f.seed(t, "a", "todo")
	f.load(t)

	got, err := f.board.MoveStatus(context.Background(), task.ID, "todo")
	if err != nil {
		t.Fatalf("MoveStatus() error = %v", err)
	}
	if !got.UpdatedAt.Equal(task.UpdatedAt) {
		t.Fatal("no-op move should not bump updated_at")
	}
	if f.store.updates != 0 || len(f.changes) != 0 {
		t.Fatalf("no-op move reached the store (%d) or notified (%d)", f.store.updates, len(f.changes))
	}
}

func TestBoardMoveStatus(t *testing.T) {
	f := newBoardFixture(t)
	task := f.seed(t, "a", "todo")
	f.load(t)
	ctx := context.Background()

	moved, err := f.board.MoveStatus(ctx, task.ID, "done")
	if err != nil {
		t.Fatalf("MoveStatus() error = %v", err)
	}
	if moved.Status != "done" || !moved.UpdatedAt.After(task.UpdatedAt) {
		t.Fatalf("unexpected moved task %#v", moved)
	}
	if got, _ := f.board.Task(task.ID); got.Status != "done" {
		t.Fatalf("working set not updated: %#v", got)
	}
	if len(f.changes) != 1 || f.changes[0].Kind != ChangeUpdated {
		t.Fatalf("unexpected notifications %#v", f.changes)
	}

	if _, err := f.board.MoveStatus(ctx, task.ID, "nowhere"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := f.board.MoveStatus(ctx, 999, "todo"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBoardUpdateMergesPatch(t *testing.T) {
	f := newBoardFixture(t)
	task := f.seed(t, "a", "todo")
	f.load(t)

	title := "b"
	high := domain.PriorityHigh
	updated, err := f.board.Update(context.Background(), task.ID, domain.TaskPatch{Title: &title, Priority: &high})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Title != "b" || updated.Priority != domain.PriorityHigh || updated.Status != "todo" || updated.ID != task.ID {
		t.Fatalf("unexpected merge %#v", updated)
	}

	f.changes = nil
	if _, err := f.board.Update(context.Background(), task.ID, domain.TaskPatch{Title: &title}); err != nil {
		t.Fatalf("Update(noop) error = %v", err)
	}
	if len(f.changes) != 0 {
		t.Fatalf("no-op update notified %#v", f.changes)
	}
}

func TestBoardDelete(t *testing.T) {
	f := newBoardFixture(t)
	task := f.seed(t, "a", "todo")
	f.load(t)
	ctx := context.Background()

	if err := f.board.Delete(ctx, 404); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := f.board.Delete(ctx, task.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok := f.board.Task(task.ID); ok {
		t.Fatal("deleted task still in working set")
	}
	if len(f.changes) != 1 || f.changes[0].Kind != ChangeDeleted || f.changes[0].TaskIDs[0] != task.ID {
		t.Fatalf("unexpected notifications %#v", f.changes)
	}
}

func TestBoardDiscardsStaleUpdateForDeletedTask(t *testing.T) {
	f := newBoardFixture(t)
	task := f.seed(t, "a", "todo")
	f.load(t)
	ctx := context.Background()

	f.store.afterUpdate = func() {
		if err := f.board.Delete(ctx, task.ID); err != nil {
			t.Errorf("Delete() error = %v", err)
		}
	}
	if _, err := f.board.MoveStatus(ctx, task.ID, "done"); err != nil {
		t.Fatalf("MoveStatus() error = %v", err)
	}
	if _, ok := f.board.Task(task.ID); ok {
		t.Fatal("stale update resurrected a deleted task")
	}
	for _, c := range f.changes {
		if c.Kind == ChangeUpdated {
			t.Fatalf("stale update was notified: %#v", c)
		}
	}
}

func TestBoardBulkOperations(t *testing.T) {
	f := newBoardFixture(t)
	a := f.seed(t, "a", "todo")
	b := f.seed(t, "b", "todo")
	c := f.seed(t, "c", "review")
	f.load(t)
	ctx := context.Background()

	moved, err := f.board.BulkMove(ctx, []int64{a.ID, b.ID, 99}, "inprogress")
	if err != nil {
		t.Fatalf("BulkMove() error = %v", err)
	}
	if len(moved) != 2 {
		t.Fatalf("expected 2 moved tasks, got %d", len(moved))
	}
	if ids := f.board.TaskIDsInColumn("inprogress"); len(ids) != 2 {
		t.Fatalf("unexpected inprogress ids %v", ids)
	}
	if _, err := f.board.BulkMove(ctx, []int64{a.ID}, "limbo"); !errors.Is(err, domain.ErrUnknownStatus) {
		t.Fatalf("expected ErrUnknownStatus, got %v", err)
	}

	f.changes = nil
	if _, err := f.board.BulkMove(ctx, []int64{a.ID, b.ID}, "inprogress"); err != nil {
		t.Fatalf("BulkMove(noop) error = %v", err)
	}
	if len(f.changes) != 0 {
		t.Fatalf("no-op bulk move notified %#v", f.changes)
	}

	low := domain.PriorityLow
	updated, err := f.board.BulkUpdate(ctx, []int64{c.ID}, domain.TaskPatch{Priority: &low})
	if err != nil || len(updated) != 1 {
		t.Fatalf("unexpected bulk update %#v err=%v", updated, err)
	}

	n, err := f.board.BulkDelete(ctx, []int64{a.ID, c.ID, 1234})
	if err != nil {
		t.Fatalf("BulkDelete() error = %v", err)
	}
	if n != 2 || len(f.board.List(0)) != 1 {
		t.Fatalf("expected 2 deleted and 1 left, got %d and %d", n, len(f.board.List(0)))
	}

	created, err := f.board.Create(ctx, domain.TaskInput{ProjectID: f.project.ID, Title: "d", Status: "todo"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.ID != 4 {
		t.Fatalf("expected id 4, got %d", created.ID)
	}
}

func TestBoardBulkDeletePartialFailureKeepsWorkingSetInSync(t *testing.T) {
	f := newBoardFixture(t)
	a := f.seed(t, "a", "todo")
	b := f.seed(t, "b", "todo")
	c := f.seed(t, "c", "done")
	f.load(t)
	f.repo.failDelete = b.ID

	n, err := f.board.BulkDelete(context.Background(), []int64{a.ID, b.ID, c.ID})
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 deleted before the failure, got %d", n)
	}
	if got, want := len(f.board.List(0)), len(f.repo.tasks); got != want {
		t.Fatalf("working set has %d tasks, store has %d", got, want)
	}
	if _, ok := f.board.Task(a.ID); ok {
		t.Fatalf("task %d should have left the working set", a.ID)
	}
	if _, ok := f.board.Task(b.ID); !ok {
		t.Fatalf("task %d should still be on the board", b.ID)
	}
	if len(f.changes) != 1 || f.changes[0].Kind != ChangeDeleted || len(f.changes[0].TaskIDs) != 1 || f.changes[0].TaskIDs[0] != a.ID {
		t.Fatalf("unexpected changes %#v", f.changes)
	}
}

func TestBoardRemoveColumnReassignsTasks(t *testing.T) {
	f := newBoardFixture(t)
	a := f.seed(t, "a", "review")
	f.seed(t, "b", "todo")
	f.load(t)
	ctx := context.Background()

	if _, err := f.board.RemoveColumn(ctx, "review", ""); !errors.Is(err, ErrReassignmentRequired) {
		t.Fatalf("expected ErrReassignmentRequired, got %v", err)
	}
	if _, err := f.board.RemoveColumn(ctx, "review", "review"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := f.board.RemoveColumn(ctx, "missing", "todo"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	cols, err := f.board.RemoveColumn(ctx, "review", "done")
	if err != nil {
		t.Fatalf("RemoveColumn() error = %v", err)
	}
	if len(cols) != 3 || domain.HasColumn(cols, "review") {
		t.Fatalf("unexpected columns %#v", cols)
	}
	if got, _ := f.board.Task(a.ID); got.Status != "done" {
		t.Fatalf("task not reassigned: %#v", got)
	}
	if orphans := f.board.Orphans(cols); len(orphans) != 0 {
		t.Fatalf("unexpected orphans %#v", orphans)
	}

	if _, err := f.board.RemoveColumn(ctx, "inprogress", ""); err != nil {
		t.Fatalf("RemoveColumn(empty column) error = %v", err)
	}
}

func TestBoardProjectScope(t *testing.T) {
	f := newBoardFixture(t, WithProjectScope(2))
	ctx := context.Background()
	other, err := f.svc.CreateProject(ctx, domain.ProjectInput{Name: "Other"})
	if err != nil || other.ID != 2 {
		t.Fatalf("CreateProject() = %#v, %v", other, err)
	}
	f.seed(t, "inbox task", "todo")
	if _, err := f.svc.Create(ctx, domain.TaskInput{ProjectID: other.ID, Title: "scoped", Status: "todo"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	f.load(t)

	tasks := f.board.List(0)
	if len(tasks) != 1 || tasks[0].Title != "scoped" {
		t.Fatalf("unexpected scoped tasks %#v", tasks)
	}

	created, err := f.board.Create(ctx, domain.TaskInput{Title: "defaults to scope", Status: "todo"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.ProjectID != other.ID {
		t.Fatalf("expected scope project, got %d", created.ProjectID)
	}

	if err := f.board.SetScope(ctx, 0); err != nil {
		t.Fatalf("SetScope() error = %v", err)
	}
	if len(f.board.List(0)) != 3 || len(f.board.List(f.project.ID)) != 1 {
		t.Fatalf("unexpected unscoped list %#v", f.board.List(0))
	}
}

func TestBoardDerivedViews(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f := newBoardFixture(t)
	ctx := context.Background()
	cols := domain.DefaultColumns()

	for i := range 12 {
		due := now.Add(time.Duration(i+1) * time.Hour)
		if _, err := f.svc.Create(ctx, domain.TaskInput{ProjectID: f.project.ID, Title: "t", Status: "todo", DueDate: &due, Assignee: "ana"}); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}
	f.load(t)
	if _, err := f.board.MoveStatus(ctx, 1, "done"); err != nil {
		t.Fatalf("MoveStatus() error = %v", err)
	}

	if got := f.board.Upcoming(now, 0); len(got) != domain.DefaultUpcomingLimit || got[0].ID != 1 {
		t.Fatalf("unexpected upcoming %d first=%d", len(got), got[0].ID)
	}
	stats := f.board.Stats(cols, now)
	if stats.Total != 12 || stats.Completed != 1 {
		t.Fatalf("unexpected stats %#v", stats)
	}
	if got := f.board.Sorted(domain.SortUpdated); got[0].ID != 1 {
		t.Fatalf("expected most recently updated first, got %d", got[0].ID)
	}
	if load := f.board.Workload(cols); len(load) != 1 || load[0].Total != 12 || load[0].Pending != 11 {
		t.Fatalf("unexpected workload %#v", load)
	}
	if counts := f.board.ProjectCounts(cols); len(counts) != 1 || counts[0].Total != 12 {
		t.Fatalf("unexpected project counts %#v", counts)
	}
	if groups := f.board.Grouped(cols); len(groups[0].Tasks) != 11 || len(groups[3].Tasks) != 1 {
		t.Fatalf("unexpected grouping %#v", groups)
	}
	if overdue := f.board.Overdue(cols, now.Add(48*time.Hour)); len(overdue) != 11 {
		t.Fatalf("expected 11 overdue, got %d", len(overdue))
	}
}

func TestBoardSubscribeCancel(t *testing.T) {
	f := newBoardFixture(t)
	count := 0
	cancel := f.board.Subscribe(func(Change) { count++ })
	if _, err := f.board.Create(context.Background(), domain.TaskInput{ProjectID: f.project.ID, Title: "a", Status: "todo"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	cancel()
	if _, err := f.board.Create(context.Background(), domain.TaskInput{ProjectID: f.project.ID, Title: "b", Status: "todo"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 notification before cancel, got %d", count)
	}
}
