// Package interaction holds the transient drag and multi-select state of a board view and turns
// gestures into board mutations.
package interaction

import (
	"context"
	"errors"
	"slices"

	"github.com/evanschultz/kanboard/internal/domain"
)

// ErrConfirmationRequired is returned when a bulk delete is confirmed without a pending request.
var ErrConfirmationRequired = errors.New("bulk delete requires confirmation")

// Board is the subset of app.Board the controller drives.
type Board interface {
	MoveStatus(context.Context, int64, string) (domain.Task, error)
	BulkMove(context.Context, []int64, string) ([]domain.Task, error)
	BulkUpdate(context.Context, []int64, domain.TaskPatch) ([]domain.Task, error)
	BulkDelete(context.Context, []int64) (int, error)
	TaskIDsInColumn(string) []int64
}

// DragState is the drag lifecycle phase.
type DragState int

// DragIdle and related constants enumerate drag phases.
const (
	DragIdle DragState = iota
	DragDragging
)

// DropOutcome reports what a drop did.
type DropOutcome int

// DropCancelled and related constants enumerate drop results.
const (
	DropCancelled DropOutcome = iota
	DropMoved
)

func (o DropOutcome) String() string {
	if o == DropMoved {
		return "moved"
	}
	return "cancelled"
}

// Controller owns drag and selection state for one board view. It is not safe for concurrent
// use; the owning UI loop serializes calls.
type Controller struct {
	board   Board
	columns []domain.Column

	dragged *domain.Task
	hover   string

	selected      map[int64]struct{}
	pendingDelete []int64

	// visible limits column-wide selection to the tasks the view shows; nil shows all.
	visible func(int64) bool
}

// NewController constructs a new value for this package.
func NewController(board Board, columns []domain.Column) *Controller {
	return &Controller{
		board:    board,
		columns:  slices.Clone(columns),
		selected: map[int64]struct{}{},
	}
}

// SetColumns replaces the set of valid drop zones.
func (c *Controller) SetColumns(columns []domain.Column) {
	c.columns = slices.Clone(columns)
	if c.hover != "" && !domain.HasColumn(c.columns, c.hover) {
		c.hover = ""
	}
}

// Columns returns the current drop zones.
func (c *Controller) Columns() []domain.Column {
	return slices.Clone(c.columns)
}

// DragStart records task as dragged. A drag already in progress is replaced.
func (c *Controller) DragStart(task domain.Task) {
	t := task
	c.dragged = &t
	c.hover = ""
}

// DragEnter marks columnID as the hovered drop zone.
func (c *Controller) DragEnter(columnID string) {
	if c.dragged == nil {
		return
	}
	c.hover = columnID
}

// DragLeave clears the hover when it is on columnID.
func (c *Controller) DragLeave(columnID string) {
	if c.hover == columnID {
		c.hover = ""
	}
}

// Drop ends the drag over columnID. It moves the dragged task when columnID is a known column
// other than the task's own; anything else cancels. The controller is idle afterwards even when
// the move fails.
func (c *Controller) Drop(ctx context.Context, columnID string) (DropOutcome, error) {
	dragged := c.dragged
	c.dragged = nil
	c.hover = ""
	if dragged == nil || columnID == "" || columnID == dragged.Status || !domain.HasColumn(c.columns, columnID) {
		return DropCancelled, nil
	}
	if _, err := c.board.MoveStatus(ctx, dragged.ID, columnID); err != nil {
		return DropCancelled, err
	}
	return DropMoved, nil
}

// DragEnd cancels any drag in progress.
func (c *Controller) DragEnd() {
	c.dragged = nil
	c.hover = ""
}

// State returns the drag phase.
func (c *Controller) State() DragState {
	if c.dragged != nil {
		return DragDragging
	}
	return DragIdle
}

// Dragged returns the dragged task, if any.
func (c *Controller) Dragged() (domain.Task, bool) {
	if c.dragged == nil {
		return domain.Task{}, false
	}
	return *c.dragged, true
}

// Hover returns the hovered drop zone, empty when none.
func (c *Controller) Hover() string {
	return c.hover
}

// Toggle flips the selection of id.
func (c *Controller) Toggle(id int64) {
	c.SetSelected(id, !c.IsSelected(id))
}

// SetSelected sets the selection of id.
func (c *Controller) SetSelected(id int64, on bool) {
	c.pendingDelete = nil
	if on {
		c.selected[id] = struct{}{}
		return
	}
	delete(c.selected, id)
}

// SetVisible restricts ToggleColumn and ColumnFullySelected to ids for which visible returns true.
// A nil func clears the restriction.
func (c *Controller) SetVisible(visible func(id int64) bool) {
	c.visible = visible
}

// ToggleColumn selects every visible task in columnID, or deselects them all when they are all
// selected already.
func (c *Controller) ToggleColumn(columnID string) {
	ids := c.columnIDs(columnID)
	if len(ids) == 0 {
		return
	}
	on := !c.allSelected(ids)
	for _, id := range ids {
		c.SetSelected(id, on)
	}
}

// ColumnFullySelected reports whether a column has visible tasks and all of them are selected.
func (c *Controller) ColumnFullySelected(columnID string) bool {
	ids := c.columnIDs(columnID)
	return len(ids) > 0 && c.allSelected(ids)
}

func (c *Controller) columnIDs(columnID string) []int64 {
	ids := c.board.TaskIDsInColumn(columnID)
	if c.visible == nil {
		return ids
	}
	return slices.DeleteFunc(ids, func(id int64) bool { return !c.visible(id) })
}

// Clear empties the selection.
func (c *Controller) Clear() {
	c.pendingDelete = nil
	clear(c.selected)
}

// IsSelected reports whether id is selected.
func (c *Controller) IsSelected(id int64) bool {
	_, ok := c.selected[id]
	return ok
}

// Selected returns the selected ids in ascending order.
func (c *Controller) Selected() []int64 {
	out := make([]int64, 0, len(c.selected))
	for id := range c.selected {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// ToolbarVisible reports whether bulk actions apply.
func (c *Controller) ToolbarVisible() bool {
	return len(c.selected) > 0
}

// BulkMove moves the selection to status. The selection is cleared on success and kept on failure.
func (c *Controller) BulkMove(ctx context.Context, status string) ([]domain.Task, error) {
	if len(c.selected) == 0 {
		return nil, nil
	}
	moved, err := c.board.BulkMove(ctx, c.Selected(), status)
	if err != nil {
		return moved, err
	}
	c.Clear()
	return moved, nil
}

// BulkUpdate applies patch to the selection with the same clearing rules as BulkMove.
func (c *Controller) BulkUpdate(ctx context.Context, patch domain.TaskPatch) ([]domain.Task, error) {
	if len(c.selected) == 0 {
		return nil, nil
	}
	updated, err := c.board.BulkUpdate(ctx, c.Selected(), patch)
	if err != nil {
		return updated, err
	}
	c.Clear()
	return updated, nil
}

// RequestBulkDelete snapshots the selection for deletion and returns its size. Nothing is deleted
// until ConfirmBulkDelete.
func (c *Controller) RequestBulkDelete() int {
	if len(c.selected) == 0 {
		c.pendingDelete = nil
		return 0
	}
	c.pendingDelete = c.Selected()
	return len(c.pendingDelete)
}

// PendingDelete reports how many tasks await delete confirmation.
func (c *Controller) PendingDelete() int {
	return len(c.pendingDelete)
}

// ConfirmBulkDelete deletes the snapshotted selection.
func (c *Controller) ConfirmBulkDelete(ctx context.Context) (int, error) {
	if len(c.pendingDelete) == 0 {
		return 0, ErrConfirmationRequired
	}
	ids := c.pendingDelete
	c.pendingDelete = nil
	n, err := c.board.BulkDelete(ctx, ids)
	if err != nil {
		return 0, err
	}
	c.Clear()
	return n, nil
}

// CancelBulkDelete drops a pending delete request and keeps the selection.
func (c *Controller) CancelBulkDelete() {
	c.pendingDelete = nil
}

func (c *Controller) allSelected(ids []int64) bool {
	for _, id := range ids {
		if !c.IsSelected(id) {
			return false
		}
	}
	return true
}
