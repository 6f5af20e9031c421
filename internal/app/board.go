package app

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/evanschultz/kanboard/internal/domain"
)

// TaskStore is the persistence collaborator the board writes through. *Service implements it.
type TaskStore interface {
	GetAll(context.Context) ([]domain.Task, error)
	GetByID(context.Context, int64) (domain.Task, error)
	GetByProjectID(context.Context, int64) ([]domain.Task, error)
	Create(context.Context, domain.TaskInput) (domain.Task, error)
	Update(context.Context, int64, domain.TaskPatch) (domain.Task, error)
	Delete(context.Context, int64) error
	BulkUpdate(context.Context, []int64, domain.TaskPatch) ([]domain.Task, error)
	BulkDelete(context.Context, []int64) (BulkDeleteResult, error)
	BulkMove(context.Context, []int64, string) ([]domain.Task, error)
}

// ColumnStore is the column source used to validate statuses. *ColumnManager implements it.
type ColumnStore interface {
	GetColumns(context.Context) ([]domain.Column, error)
	RemoveColumn(context.Context, string) ([]domain.Column, error)
}

// ChangeKind identifies a board change notification.
type ChangeKind string

// ChangeCreated and related constants name the board notifications.
const (
	ChangeCreated  ChangeKind = "created"
	ChangeUpdated  ChangeKind = "updated"
	ChangeDeleted  ChangeKind = "deleted"
	ChangeReloaded ChangeKind = "reloaded"
)

// Change describes one effective mutation of the working set.
type Change struct {
	Kind    ChangeKind
	Tasks   []domain.Task
	TaskIDs []int64
	At      time.Time
}

// BoardOption configures a Board.
type BoardOption func(*Board)

// WithBoardClock sets the clock used to stamp notifications.
func WithBoardClock(clock Clock) BoardOption {
	return func(b *Board) {
		if clock != nil {
			b.clock = clock
		}
	}
}

// WithBoardLogger sets the board logger.
func WithBoardLogger(logger *log.Logger) BoardOption {
	return func(b *Board) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithProjectScope limits the working set to one project. Zero means every project.
func WithProjectScope(projectID int64) BoardOption {
	return func(b *Board) {
		b.scope = max(projectID, 0)
	}
}

// Board is the in-memory working set of tasks for the active scope. Mutations go through the
// TaskStore first and are applied locally only once it succeeds; the lock is never held across a
// collaborator call.
type Board struct {
	tasks   TaskStore
	columns ColumnStore
	clock   Clock
	logger  *log.Logger

	mu      sync.RWMutex
	scope   int64
	items   []domain.Task
	deleted map[int64]struct{}
	subs    map[int]func(Change)
	nextSub int
}

// NewBoard constructs a new value for this package.
func NewBoard(tasks TaskStore, columns ColumnStore, opts ...BoardOption) *Board {
	b := &Board{
		tasks:   tasks,
		columns: columns,
		clock:   time.Now,
		logger:  log.New(io.Discard),
		items:   []domain.Task{},
		deleted: map[int64]struct{}{},
		subs:    map[int]func(Change){},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Scope returns the active project scope, 0 for all projects.
func (b *Board) Scope() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.scope
}

// SetScope switches the active project and reloads.
func (b *Board) SetScope(ctx context.Context, projectID int64) error {
	b.mu.Lock()
	b.scope = max(projectID, 0)
	b.mu.Unlock()
	return b.Load(ctx)
}

// Load replaces the working set with the scope's tasks. On failure the previous working set is
// kept and the error is returned so callers can retry.
func (b *Board) Load(ctx context.Context) error {
	scope := b.Scope()
	var (
		tasks []domain.Task
		err   error
	)
	if scope > 0 {
		tasks, err = b.tasks.GetByProjectID(ctx, scope)
	} else {
		tasks, err = b.tasks.GetAll(ctx)
	}
	if err != nil {
		b.logger.Error("load board tasks", "project_id", scope, "err", err)
		return fmt.Errorf("load tasks: %w", err)
	}

	b.mu.Lock()
	if b.scope != scope {
		b.mu.Unlock()
		b.logger.Debug("discarding load for previous scope", "project_id", scope)
		return nil
	}
	b.items = slices.Clone(tasks)
	b.mu.Unlock()

	b.emit(Change{Kind: ChangeReloaded, Tasks: slices.Clone(tasks)})
	return nil
}

// List returns the working set, optionally narrowed to one project.
func (b *Board) List(projectID int64) []domain.Task {
	return b.Filter(domain.TaskFilter{ProjectID: projectID})
}

// Filter returns the tasks of the working set that match f.
func (b *Board) Filter(f domain.TaskFilter) []domain.Task {
	return domain.FilterTasks(b.snapshot(), f)
}

// Task returns a task from the working set.
func (b *Board) Task(id int64) (domain.Task, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	idx := b.indexOf(id)
	if idx < 0 {
		return domain.Task{}, false
	}
	return b.items[idx], true
}

// Create validates and stores a new task.
func (b *Board) Create(ctx context.Context, in domain.TaskInput) (domain.Task, error) {
	if strings.TrimSpace(in.Title) == "" {
		return domain.Task{}, domain.ErrInvalidTitle
	}
	in.Status = strings.TrimSpace(in.Status)
	if err := b.requireColumn(ctx, in.Status); err != nil {
		return domain.Task{}, err
	}
	if in.ProjectID <= 0 {
		in.ProjectID = b.Scope()
	}
	task, err := b.tasks.Create(ctx, in)
	if err != nil {
		return domain.Task{}, fmt.Errorf("create task: %w", err)
	}

	b.mu.Lock()
	delete(b.deleted, task.ID)
	inScope := b.inScope(task)
	if inScope && b.indexOf(task.ID) < 0 {
		b.items = append(b.items, task)
	}
	b.mu.Unlock()

	if inScope {
		b.emit(Change{Kind: ChangeCreated, Tasks: []domain.Task{task}})
	}
	return task, nil
}

// Update merges patch into a task. A status in the patch must name a current column.
func (b *Board) Update(ctx context.Context, id int64, patch domain.TaskPatch) (domain.Task, error) {
	if patch.Status != nil {
		status := strings.TrimSpace(*patch.Status)
		if err := b.requireColumn(ctx, status); err != nil {
			return domain.Task{}, err
		}
		patch.Status = &status
	}
	task, err := b.tasks.Update(ctx, id, patch)
	if err != nil {
		return domain.Task{}, fmt.Errorf("update task %d: %w", id, err)
	}
	b.applyUpdated([]domain.Task{task})
	return task, nil
}

// MoveStatus moves a task to another column. Moving to the current column is a no-op that skips
// the collaborator.
func (b *Board) MoveStatus(ctx context.Context, id int64, status string) (domain.Task, error) {
	status = strings.TrimSpace(status)
	current, ok := b.Task(id)
	if ok && current.Status == status {
		return current, nil
	}
	return b.Update(ctx, id, domain.StatusPatch(status))
}

// Delete removes a task and tombstones its id.
func (b *Board) Delete(ctx context.Context, id int64) error {
	if err := b.tasks.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	if removed := b.applyDeleted([]int64{id}, true); len(removed) > 0 {
		b.emit(Change{Kind: ChangeDeleted, TaskIDs: removed})
	}
	return nil
}

// BulkUpdate applies patch to every id. Unknown ids are skipped.
func (b *Board) BulkUpdate(ctx context.Context, ids []int64, patch domain.TaskPatch) ([]domain.Task, error) {
	if patch.Status != nil {
		status := strings.TrimSpace(*patch.Status)
		if err := b.requireColumn(ctx, status); err != nil {
			return nil, err
		}
		patch.Status = &status
	}
	updated, err := b.tasks.BulkUpdate(ctx, ids, patch)
	b.applyUpdated(updated)
	if err != nil {
		return updated, fmt.Errorf("bulk update: %w", err)
	}
	return updated, nil
}

// BulkMove moves every id to status.
func (b *Board) BulkMove(ctx context.Context, ids []int64, status string) ([]domain.Task, error) {
	status = strings.TrimSpace(status)
	if err := b.requireColumn(ctx, status); err != nil {
		return nil, err
	}
	moved, err := b.tasks.BulkMove(ctx, ids, status)
	b.applyUpdated(moved)
	if err != nil {
		return moved, fmt.Errorf("bulk move: %w", err)
	}
	return moved, nil
}

// BulkDelete deletes every id and returns how many tasks the store removed. Tasks removed before
// a failure still leave the working set.
func (b *Board) BulkDelete(ctx context.Context, ids []int64) (int, error) {
	result, err := b.tasks.BulkDelete(ctx, ids)
	if removed := b.applyDeleted(result.DeletedIDs, true); len(removed) > 0 {
		b.emit(Change{Kind: ChangeDeleted, TaskIDs: removed})
	}
	if err != nil {
		return result.DeletedCount, fmt.Errorf("bulk delete: %w", err)
	}
	return result.DeletedCount, nil
}

// RemoveColumn deletes a column. Tasks in it, across every project, are first moved to
// reassignTo, which is required whenever such tasks exist.
func (b *Board) RemoveColumn(ctx context.Context, columnID, reassignTo string) ([]domain.Column, error) {
	columnID = strings.TrimSpace(columnID)
	reassignTo = strings.TrimSpace(reassignTo)
	columns, err := b.columns.GetColumns(ctx)
	if err != nil {
		return nil, err
	}
	if !domain.HasColumn(columns, columnID) {
		return nil, fmt.Errorf("column %q: %w", columnID, ErrNotFound)
	}
	if len(columns) <= 1 {
		return nil, domain.ErrLastColumn
	}

	all, err := b.tasks.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tasks for column %q: %w", columnID, err)
	}
	ids := make([]int64, 0)
	for _, t := range all {
		if t.Status == columnID {
			ids = append(ids, t.ID)
		}
	}
	if len(ids) > 0 {
		if reassignTo == "" {
			return nil, ErrReassignmentRequired
		}
		if reassignTo == columnID || !domain.HasColumn(columns, reassignTo) {
			return nil, fmt.Errorf("reassign to %q: %w", reassignTo, domain.ErrUnknownStatus)
		}
		moved, err := b.tasks.BulkMove(ctx, ids, reassignTo)
		b.applyUpdated(moved)
		if err != nil {
			return nil, fmt.Errorf("reassign tasks from column %q: %w", columnID, err)
		}
	}
	return b.columns.RemoveColumn(ctx, columnID)
}

// Subscribe registers fn for change notifications until cancel is called. fn runs on the
// goroutine that made the change and must not call back into mutating board methods.
func (b *Board) Subscribe(fn func(Change)) (cancel func()) {
	b.mu.Lock()
	id := b.nextSub
	b.nextSub++
	b.subs[id] = fn
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// TaskIDsInColumn returns the ids of the working-set tasks with status.
func (b *Board) TaskIDsInColumn(status string) []int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]int64, 0)
	for _, t := range b.items {
		if t.Status == status {
			out = append(out, t.ID)
		}
	}
	return out
}

// Grouped buckets the working set by column.
func (b *Board) Grouped(columns []domain.Column) []domain.ColumnTasks {
	return domain.GroupByStatus(b.snapshot(), columns)
}

// Stats derives the board counters.
func (b *Board) Stats(columns []domain.Column, now time.Time) domain.BoardStats {
	return domain.ComputeStats(b.snapshot(), columns, now)
}

// Overdue lists overdue tasks.
func (b *Board) Overdue(columns []domain.Column, now time.Time) []domain.Task {
	return domain.OverdueTasks(b.snapshot(), columns, now)
}

// Upcoming lists the next limit due tasks; limit <= 0 uses domain.DefaultUpcomingLimit.
func (b *Board) Upcoming(now time.Time, limit int) []domain.Task {
	if limit <= 0 {
		limit = domain.DefaultUpcomingLimit
	}
	return domain.UpcomingTasks(b.snapshot(), now, limit)
}

// Sorted returns the working set ordered by key.
func (b *Board) Sorted(key domain.SortKey) []domain.Task {
	return domain.SortTasks(b.snapshot(), key)
}

// Orphans lists tasks whose status no longer names a column.
func (b *Board) Orphans(columns []domain.Column) []domain.Task {
	return domain.OrphanedTasks(b.snapshot(), columns)
}

// ProjectCounts tallies the working set per project.
func (b *Board) ProjectCounts(columns []domain.Column) []domain.ProjectCount {
	return domain.CountByProject(b.snapshot(), columns)
}

// Workload breaks the working set down per assignee.
func (b *Board) Workload(columns []domain.Column) []domain.MemberWorkload {
	return domain.WorkloadByAssignee(b.snapshot(), columns)
}

func (b *Board) snapshot() []domain.Task {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.items)
}

func (b *Board) requireColumn(ctx context.Context, status string) error {
	if status == "" {
		return domain.ErrInvalidStatus
	}
	columns, err := b.columns.GetColumns(ctx)
	if err != nil {
		return err
	}
	if !domain.HasColumn(columns, status) {
		return fmt.Errorf("status %q: %w", status, domain.ErrUnknownStatus)
	}
	return nil
}

// indexOf must be called with mu held.
func (b *Board) indexOf(id int64) int {
	return slices.IndexFunc(b.items, func(t domain.Task) bool {
		return t.ID == id
	})
}

// inScope must be called with mu held.
func (b *Board) inScope(t domain.Task) bool {
	return b.scope == 0 || t.ProjectID == b.scope
}

// applyUpdated folds collaborator results into the working set and emits one update for the
// tasks that actually changed. Results for tombstoned ids are dropped.
func (b *Board) applyUpdated(tasks []domain.Task) {
	if len(tasks) == 0 {
		return
	}
	changed := make([]domain.Task, 0, len(tasks))
	removed := make([]int64, 0)

	b.mu.Lock()
	for _, task := range tasks {
		if _, gone := b.deleted[task.ID]; gone {
			b.logger.Debug("discarding stale task response", "task_id", task.ID)
			continue
		}
		idx := b.indexOf(task.ID)
		switch {
		case idx >= 0 && !b.inScope(task):
			b.items = slices.Delete(b.items, idx, idx+1)
			removed = append(removed, task.ID)
		case idx >= 0:
			if b.items[idx].Equal(task) {
				continue
			}
			b.items[idx] = task
			changed = append(changed, task)
		case b.inScope(task):
			b.items = append(b.items, task)
			changed = append(changed, task)
		}
	}
	b.mu.Unlock()

	if len(changed) > 0 {
		b.emit(Change{Kind: ChangeUpdated, Tasks: changed})
	}
	if len(removed) > 0 {
		b.emit(Change{Kind: ChangeDeleted, TaskIDs: removed})
	}
}

// applyDeleted drops ids from the working set and returns the ids that were present. Removed ids
// are tombstoned; confirmed marks ids the store reported as deleted, which are tombstoned even
// when they were not loaded.
func (b *Board) applyDeleted(ids []int64, confirmed bool) []int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	removed := make([]int64, 0, len(ids))
	for _, id := range ids {
		idx := b.indexOf(id)
		if idx >= 0 {
			b.items = slices.Delete(b.items, idx, idx+1)
			removed = append(removed, id)
		}
		if idx >= 0 || confirmed {
			b.deleted[id] = struct{}{}
		}
	}
	return removed
}

func (b *Board) emit(change Change) {
	change.At = b.clock().UTC()
	b.mu.RLock()
	subs := make([]func(Change), 0, len(b.subs))
	for _, fn := range b.subs {
		subs = append(subs, fn)
	}
	b.mu.RUnlock()
	for _, fn := range subs {
		fn(change)
	}
}
