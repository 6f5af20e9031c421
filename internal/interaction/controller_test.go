package interaction

import (
	"context"
	"errors"
	"testing"

	"github.com/evanschultz/kanboard/internal/domain"
)

type fakeBoard struct {
	tasks      map[int64]domain.Task
	moves      int
	bulkMoves  int
	bulkDelete [][]int64
	fail       error
}

func newFakeBoard(tasks ...domain.Task) *fakeBoard {
	b := &fakeBoard{tasks: map[int64]domain.Task{}}
	for _, t := range tasks {
		b.tasks[t.ID] = t
	}
	return b
}

func (b *fakeBoard) MoveStatus(_ context.Context, id int64, status string) (domain.Task, error) {
	if b.fail != nil {
		return domain.Task{}, b.fail
	}
	b.moves++
	t := b.tasks[id]
	t.Status = status
	b.tasks[id] = t
	return t, nil
}

func (b *fakeBoard) BulkMove(_ context.Context, ids []int64, status string) ([]domain.Task, error) {
	if b.fail != nil {
		return nil, b.fail
	}
	b.bulkMoves++
	out := make([]domain.Task, 0, len(ids))
	for _, id := range ids {
		t, ok := b.tasks[id]
		if !ok {
			continue
		}
		t.Status = status
		b.tasks[id] = t
		out = append(out, t)
	}
	return out, nil
}

func (b *fakeBoard) BulkUpdate(_ context.Context, ids []int64, patch domain.TaskPatch) ([]domain.Task, error) {
	if b.fail != nil {
		return nil, b.fail
	}
	out := make([]domain.Task, 0, len(ids))
	for _, id := range ids {
		t := b.tasks[id]
		if patch.Priority != nil {
			t.Priority = *patch.Priority
		}
		b.tasks[id] = t
		out = append(out, t)
	}
	return out, nil
}

func (b *fakeBoard) BulkDelete(_ context.Context, ids []int64) (int, error) {
	if b.fail != nil {
		return 0, b.fail
	}
	b.bulkDelete = append(b.bulkDelete, ids)
	n := 0
	for _, id := range ids {
		if _, ok := b.tasks[id]; ok {
			delete(b.tasks, id)
			n++
		}
	}
	return n, nil
}

func (b *fakeBoard) TaskIDsInColumn(status string) []int64 {
	out := []int64{}
	for id := int64(1); id <= 10; id++ {
		if t, ok := b.tasks[id]; ok && t.Status == status {
			out = append(out, id)
		}
	}
	return out
}

func fixture() (*Controller, *fakeBoard) {
	board := newFakeBoard(
		domain.Task{ID: 1, Title: "a", Status: "todo"},
		domain.Task{ID: 2, Title: "b", Status: "todo"},
		domain.Task{ID: 3, Title: "c", Status: "done"},
	)
	return NewController(board, domain.DefaultColumns()), board
}

func TestDropOnOtherColumnMoves(t *testing.T) {
	c, board := fixture()
	c.DragStart(board.tasks[1])
	c.DragEnter("review")
	if c.State() != DragDragging || c.Hover() != "review" {
		t.Fatalf("unexpected drag state %v hover %q", c.State(), c.Hover())
	}
	outcome, err := c.Drop(context.Background(), "review")
	if err != nil {
		t.Fatalf("Drop() error = %v", err)
	}
	if outcome != DropMoved || board.tasks[1].Status != "review" || board.moves != 1 {
		t.Fatalf("unexpected drop outcome %v status %q moves %d", outcome, board.tasks[1].Status, board.moves)
	}
	if c.State() != DragIdle || c.Hover() != "" {
		t.Fatal("controller should be idle after drop")
	}
	if _, ok := c.Dragged(); ok {
		t.Fatal("dragged task should be cleared")
	}
}

func TestDropCancels(t *testing.T) {
	c, board := fixture()
	ctx := context.Background()

	c.DragStart(board.tasks[1])
	if outcome, _ := c.Drop(ctx, "todo"); outcome != DropCancelled {
		t.Fatalf("drop on own column should cancel, got %v", outcome)
	}
	c.DragStart(board.tasks[1])
	if outcome, _ := c.Drop(ctx, "archive"); outcome != DropCancelled {
		t.Fatalf("drop on unknown zone should cancel, got %v", outcome)
	}
	if outcome, _ := c.Drop(ctx, "done"); outcome != DropCancelled {
		t.Fatalf("drop without drag should cancel, got %v", outcome)
	}
	if board.moves != 0 {
		t.Fatalf("cancelled drops should not move, got %d moves", board.moves)
	}
}

func TestDropFailureReturnsToIdle(t *testing.T) {
	c, board := fixture()
	board.fail = errors.New("offline")
	c.DragStart(board.tasks[1])
	if _, err := c.Drop(context.Background(), "done"); err == nil {
		t.Fatal("expected drop error")
	}
	if c.State() != DragIdle {
		t.Fatal("controller should be idle after failed drop")
	}
}

func TestDragLeaveAndEnd(t *testing.T) {
	c, board := fixture()
	c.DragEnter("done")
	if c.Hover() != "" {
		t.Fatal("hover without drag should be ignored")
	}
	c.DragStart(board.tasks[2])
	c.DragEnter("done")
	c.DragLeave("review")
	if c.Hover() != "done" {
		t.Fatal("leaving another column should keep hover")
	}
	c.DragLeave("done")
	if c.Hover() != "" {
		t.Fatal("expected hover cleared")
	}
	c.DragEnd()
	if c.State() != DragIdle {
		t.Fatal("expected idle after DragEnd")
	}
}

func TestSelectionAndColumnToggle(t *testing.T) {
	c, _ := fixture()
	c.Toggle(1)
	if !c.IsSelected(1) || !c.ToolbarVisible() {
		t.Fatal("expected task 1 selected")
	}
	c.ToggleColumn("todo")
	if !c.IsSelected(2) || !c.ColumnFullySelected("todo") {
		t.Fatalf("expected whole column selected, got %v", c.Selected())
	}
	c.ToggleColumn("todo")
	if c.IsSelected(1) || c.IsSelected(2) || c.ToolbarVisible() {
		t.Fatalf("expected column deselected, got %v", c.Selected())
	}
	c.ToggleColumn("review")
	if c.ToolbarVisible() || c.ColumnFullySelected("review") {
		t.Fatal("empty column toggle should do nothing")
	}
	c.SetSelected(3, true)
	c.SetSelected(3, true)
	if got := c.Selected(); len(got) != 1 || got[0] != 3 {
		t.Fatalf("unexpected selection %v", got)
	}
	c.Clear()
	if c.ToolbarVisible() {
		t.Fatal("expected empty selection")
	}
}

func TestToggleColumnHonoursVisibleTasks(t *testing.T) {
	c, _ := fixture()
	c.SetVisible(func(id int64) bool { return id == 2 })

	c.ToggleColumn("todo")
	if c.IsSelected(1) || !c.IsSelected(2) {
		t.Fatalf("expected only the visible task selected, got %v", c.Selected())
	}
	if !c.ColumnFullySelected("todo") {
		t.Fatal("column should count as fully selected when every visible task is selected")
	}
	c.ToggleColumn("todo")
	if c.ToolbarVisible() {
		t.Fatalf("expected visible tasks deselected, got %v", c.Selected())
	}

	c.SetVisible(func(int64) bool { return false })
	c.ToggleColumn("todo")
	if c.ToolbarVisible() || c.ColumnFullySelected("todo") {
		t.Fatal("a column with no visible tasks should not toggle")
	}

	c.SetVisible(nil)
	c.ToggleColumn("todo")
	if !c.IsSelected(1) || !c.IsSelected(2) {
		t.Fatalf("expected whole column selected without a filter, got %v", c.Selected())
	}
}

func TestBulkMoveClearsSelectionOnlyOnSuccess(t *testing.T) {
	c, board := fixture()
	ctx := context.Background()
	c.Toggle(1)
	c.Toggle(2)

	board.fail = errors.New("offline")
	if _, err := c.BulkMove(ctx, "done"); err == nil {
		t.Fatal("expected bulk move error")
	}
	if len(c.Selected()) != 2 {
		t.Fatal("selection should survive a failed bulk move")
	}

	board.fail = nil
	moved, err := c.BulkMove(ctx, "done")
	if err != nil {
		t.Fatalf("BulkMove() error = %v", err)
	}
	if len(moved) != 2 || c.ToolbarVisible() {
		t.Fatalf("unexpected bulk move result %d selected %v", len(moved), c.Selected())
	}

	c.Toggle(3)
	high := domain.PriorityHigh
	if _, err := c.BulkUpdate(ctx, domain.TaskPatch{Priority: &high}); err != nil {
		t.Fatalf("BulkUpdate() error = %v", err)
	}
	if board.tasks[3].Priority != domain.PriorityHigh || c.ToolbarVisible() {
		t.Fatal("expected bulk update applied and selection cleared")
	}
}

func TestBulkDeleteNeedsConfirmation(t *testing.T) {
	c, board := fixture()
	ctx := context.Background()

	if _, err := c.ConfirmBulkDelete(ctx); !errors.Is(err, ErrConfirmationRequired) {
		t.Fatalf("expected ErrConfirmationRequired, got %v", err)
	}

	c.Toggle(1)
	c.Toggle(3)
	if n := c.RequestBulkDelete(); n != 2 {
		t.Fatalf("expected 2 pending, got %d", n)
	}
	if len(board.bulkDelete) != 0 {
		t.Fatal("request must not delete")
	}
	c.CancelBulkDelete()
	if _, err := c.ConfirmBulkDelete(ctx); !errors.Is(err, ErrConfirmationRequired) {
		t.Fatalf("expected ErrConfirmationRequired after cancel, got %v", err)
	}
	if len(c.Selected()) != 2 {
		t.Fatal("cancel should keep the selection")
	}

	c.RequestBulkDelete()
	c.Toggle(2)
	if c.PendingDelete() != 0 {
		t.Fatal("selection change should drop the pending delete")
	}

	c.RequestBulkDelete()
	n, err := c.ConfirmBulkDelete(ctx)
	if err != nil {
		t.Fatalf("ConfirmBulkDelete() error = %v", err)
	}
	if n != 3 || len(board.tasks) != 0 || c.ToolbarVisible() {
		t.Fatalf("unexpected delete n=%d left=%d selected=%v", n, len(board.tasks), c.Selected())
	}
}

func TestSetColumnsDropsStaleHover(t *testing.T) {
	c, board := fixture()
	c.DragStart(board.tasks[1])
	c.DragEnter("review")
	c.SetColumns(domain.DefaultColumns()[:2])
	if c.Hover() != "" {
		t.Fatal("hover on removed column should be cleared")
	}
	if outcome, _ := c.Drop(context.Background(), "review"); outcome != DropCancelled {
		t.Fatal("drop on removed column should cancel")
	}
}
