package common

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/evanschultz/kanboard/internal/app"
	"github.com/evanschultz/kanboard/internal/domain"
)

// AdapterConfig tunes derived views served by BoardAdapter.
type AdapterConfig struct {
	UpcomingLimit int
	Now           func() time.Time
}

// BoardAdapter maps transport contracts onto the board, column manager and task service.
type BoardAdapter struct {
	board   *app.Board
	columns *app.ColumnManager
	service *app.Service
	cfg     AdapterConfig
}

// NewBoardAdapter builds one adapter. The board should be loaded with an all-projects scope.
func NewBoardAdapter(board *app.Board, columns *app.ColumnManager, service *app.Service, cfg AdapterConfig) *BoardAdapter {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.UpcomingLimit <= 0 {
		cfg.UpcomingLimit = domain.DefaultUpcomingLimit
	}
	return &BoardAdapter{board: board, columns: columns, service: service, cfg: cfg}
}

// ListTasks returns working-set tasks matching the request filters.
func (a *BoardAdapter) ListTasks(_ context.Context, in ListTasksRequest) ([]Task, error) {
	filter := domain.TaskFilter{
		ProjectID: int64(in.ProjectID),
		Assignee:  in.Assignee,
		Query:     in.Query,
	}
	if status := strings.TrimSpace(in.Status); status != "" {
		filter.Statuses = []string{status}
	}
	if strings.TrimSpace(in.Priority) != "" {
		p, err := domain.ParsePriority(in.Priority)
		if err != nil {
			return nil, mapAppError("list tasks", err)
		}
		filter.Priorities = []domain.Priority{p}
	}
	tasks := a.board.Filter(filter)
	if strings.TrimSpace(in.Sort) != "" {
		key, err := domain.ParseSortKey(in.Sort)
		if err != nil {
			return nil, mapAppError("list tasks", err)
		}
		tasks = domain.SortTasks(tasks, key)
	}
	return mapTasks(tasks), nil
}

// SearchTasks runs a persisted case-insensitive search over titles and descriptions.
func (a *BoardAdapter) SearchTasks(ctx context.Context, query string) ([]Task, error) {
	tasks, err := a.service.Search(ctx, query)
	if err != nil {
		return nil, mapAppError("search tasks", err)
	}
	return mapTasks(tasks), nil
}

// GetTask returns one task.
func (a *BoardAdapter) GetTask(ctx context.Context, id int64) (Task, error) {
	if t, ok := a.board.Task(id); ok {
		return mapTask(t), nil
	}
	t, err := a.service.GetByID(ctx, id)
	if err != nil {
		return Task{}, mapAppError("get task", err)
	}
	return mapTask(t), nil
}

// CreateTask creates one task. An empty status lands the task in the first column.
func (a *BoardAdapter) CreateTask(ctx context.Context, in CreateTaskRequest) (Task, error) {
	priority, err := domain.ParsePriority(in.Priority)
	if err != nil {
		return Task{}, mapAppError("create task", err)
	}
	status := strings.TrimSpace(in.Status)
	if status == "" {
		cols, err := a.columns.GetColumns(ctx)
		if err != nil {
			return Task{}, mapAppError("create task", err)
		}
		if first, ok := domain.FirstColumn(cols); ok {
			status = first.ID
		}
	}
	projectID := int64(in.ProjectID)
	if projectID <= 0 {
		project, err := a.service.EnsureDefaultProject(ctx)
		if err != nil {
			return Task{}, mapAppError("create task", err)
		}
		projectID = project.ID
	}
	task, err := a.board.Create(ctx, domain.TaskInput{
		ProjectID:   projectID,
		Title:       in.Title,
		Description: in.Description,
		Status:      status,
		Priority:    priority,
		DueDate:     in.DueDate,
		Assignee:    in.Assignee,
	})
	if err != nil {
		return Task{}, mapAppError("create task", err)
	}
	return mapTask(task), nil
}

// UpdateTask merges a partial update into one task.
func (a *BoardAdapter) UpdateTask(ctx context.Context, id int64, in UpdateTaskRequest) (Task, error) {
	patch, err := toTaskPatch(in)
	if err != nil {
		return Task{}, mapAppError("update task", err)
	}
	task, err := a.board.Update(ctx, id, patch)
	if err != nil {
		return Task{}, mapAppError("update task", err)
	}
	return mapTask(task), nil
}

// MoveTask moves one task to another column.
func (a *BoardAdapter) MoveTask(ctx context.Context, id int64, status string) (Task, error) {
	task, err := a.board.MoveStatus(ctx, id, status)
	if err != nil {
		return Task{}, mapAppError("move task", err)
	}
	return mapTask(task), nil
}

// DeleteTask deletes one task.
func (a *BoardAdapter) DeleteTask(ctx context.Context, id int64) error {
	return mapAppError("delete task", a.board.Delete(ctx, id))
}

// BulkUpdate applies one patch to many tasks; unknown ids are skipped.
func (a *BoardAdapter) BulkUpdate(ctx context.Context, in BulkUpdateRequest) ([]Task, error) {
	patch, err := toTaskPatch(in.Patch)
	if err != nil {
		return nil, mapAppError("bulk update", err)
	}
	updated, err := a.board.BulkUpdate(ctx, toInt64s(in.IDs), patch)
	if err != nil {
		return nil, mapAppError("bulk update", err)
	}
	return mapTasks(updated), nil
}

// BulkMove moves many tasks to one status.
func (a *BoardAdapter) BulkMove(ctx context.Context, in BulkMoveRequest) ([]Task, error) {
	moved, err := a.board.BulkMove(ctx, toInt64s(in.IDs), in.Status)
	if err != nil {
		return nil, mapAppError("bulk move", err)
	}
	return mapTasks(moved), nil
}

// BulkDelete deletes many tasks; unknown ids are ignored.
func (a *BoardAdapter) BulkDelete(ctx context.Context, in BulkDeleteRequest) (BulkDeleteResult, error) {
	n, err := a.board.BulkDelete(ctx, toInt64s(in.IDs))
	if err != nil {
		return BulkDeleteResult{}, mapAppError("bulk delete", err)
	}
	return BulkDeleteResult{Success: true, DeletedCount: n}, nil
}

// ListColumns returns the ordered columns.
func (a *BoardAdapter) ListColumns(ctx context.Context) ([]Column, error) {
	cols, err := a.columns.GetColumns(ctx)
	if err != nil {
		return nil, mapAppError("list columns", err)
	}
	return mapColumns(cols), nil
}

// AddColumn appends one column.
func (a *BoardAdapter) AddColumn(ctx context.Context, title string) (Column, error) {
	col, err := a.columns.AddColumn(ctx, title)
	if err != nil {
		return Column{}, mapAppError("add column", err)
	}
	return mapColumn(col), nil
}

// RenameColumn changes one column title.
func (a *BoardAdapter) RenameColumn(ctx context.Context, id, title string) (Column, error) {
	col, err := a.columns.RenameColumn(ctx, id, title)
	if err != nil {
		return Column{}, mapAppError("rename column", err)
	}
	return mapColumn(col), nil
}

// RemoveColumn removes one column, moving its tasks to reassignTo first.
func (a *BoardAdapter) RemoveColumn(ctx context.Context, id, reassignTo string) ([]Column, error) {
	cols, err := a.board.RemoveColumn(ctx, id, reassignTo)
	if err != nil {
		return nil, mapAppError("remove column", err)
	}
	return mapColumns(cols), nil
}

// ReorderColumns moves the column at from to to.
func (a *BoardAdapter) ReorderColumns(ctx context.Context, from, to int) ([]Column, error) {
	cols, err := a.columns.ReorderColumns(ctx, from, to)
	if err != nil {
		return nil, mapAppError("reorder columns", err)
	}
	return mapColumns(cols), nil
}

// SaveColumns replaces the column set.
func (a *BoardAdapter) SaveColumns(ctx context.Context, in []Column) ([]Column, error) {
	cols := make([]domain.Column, 0, len(in))
	for _, c := range in {
		cols = append(cols, domain.Column{
			RecordID: c.RecordID,
			ID:       c.ID,
			Title:    c.Title,
			Color:    c.Color,
			BgColor:  c.BgColor,
			Order:    c.Order,
		})
	}
	saved, err := a.columns.SaveColumns(ctx, cols)
	if err != nil {
		return nil, mapAppError("save columns", err)
	}
	return mapColumns(saved), nil
}

// ResetColumns restores the default columns.
func (a *BoardAdapter) ResetColumns(ctx context.Context) ([]Column, error) {
	cols, err := a.columns.ResetToDefaults(ctx)
	if err != nil {
		return nil, mapAppError("reset columns", err)
	}
	return mapColumns(cols), nil
}

// Stats summarizes the board, narrowed to projectID unless it is 0.
func (a *BoardAdapter) Stats(ctx context.Context, projectID int64) (Stats, error) {
	cols, err := a.columns.GetColumns(ctx)
	if err != nil {
		return Stats{}, mapAppError("board stats", err)
	}
	now := a.cfg.Now()
	tasks := a.board.List(projectID)
	stats := domain.ComputeStats(tasks, cols, now)

	out := Stats{
		ProjectID:    projectID,
		Total:        stats.Total,
		ByColumn:     make([]ColumnCount, 0, len(stats.ByColumn)),
		Completed:    stats.Completed,
		HighPriority: stats.HighPriority,
		Overdue:      stats.Overdue,
		Orphaned:     stats.Orphaned,
		Progress:     stats.Progress,
		Upcoming:     mapTasks(domain.UpcomingTasks(tasks, now, a.cfg.UpcomingLimit)),
	}
	for _, c := range stats.ByColumn {
		out.ByColumn = append(out.ByColumn, ColumnCount{ColumnID: c.ColumnID, Title: c.Title, Count: c.Count})
	}
	for _, w := range domain.WorkloadByAssignee(tasks, cols) {
		out.Team = append(out.Team, Workload{
			Assignee:   w.Assignee,
			Total:      w.Total,
			Completed:  w.Completed,
			InProgress: w.InProgress,
			Pending:    w.Pending,
			Workload:   w.Workload,
		})
	}
	return out, nil
}

// ListProjects returns projects with task tallies from the working set.
func (a *BoardAdapter) ListProjects(ctx context.Context) ([]Project, error) {
	projects, err := a.service.ListProjects(ctx)
	if err != nil {
		return nil, mapAppError("list projects", err)
	}
	cols, err := a.columns.GetColumns(ctx)
	if err != nil {
		return nil, mapAppError("list projects", err)
	}
	counts := map[int64]domain.ProjectCount{}
	for _, c := range a.board.ProjectCounts(cols) {
		counts[c.ProjectID] = c
	}
	out := make([]Project, 0, len(projects))
	for _, p := range projects {
		out = append(out, Project{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Color:       p.Color,
			TaskCount:   counts[p.ID].Total,
			Completed:   counts[p.ID].Completed,
			CreatedAt:   p.CreatedAt,
			UpdatedAt:   p.UpdatedAt,
		})
	}
	return out, nil
}

// Subscribe forwards board changes as transport events.
func (a *BoardAdapter) Subscribe(fn func(Event)) (cancel func()) {
	return a.board.Subscribe(func(c app.Change) {
		fn(Event{
			Kind:    string(c.Kind),
			Tasks:   mapTasks(c.Tasks),
			TaskIDs: c.TaskIDs,
			At:      c.At,
		})
	})
}

func toTaskPatch(in UpdateTaskRequest) (domain.TaskPatch, error) {
	patch := domain.TaskPatch{
		Title:        in.Title,
		Description:  in.Description,
		Status:       in.Status,
		DueDate:      in.DueDate,
		ClearDueDate: in.ClearDueDate,
		Assignee:     in.Assignee,
	}
	if in.Priority != nil {
		p, err := domain.ParsePriority(*in.Priority)
		if err != nil {
			return domain.TaskPatch{}, err
		}
		patch.Priority = &p
	}
	if in.ProjectID != nil {
		pid := int64(*in.ProjectID)
		patch.ProjectID = &pid
	}
	return patch, nil
}

func mapTask(t domain.Task) Task {
	return Task{
		ID:          t.ID,
		ProjectID:   t.ProjectID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    string(t.Priority),
		DueDate:     t.DueDate,
		Assignee:    t.Assignee,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func mapTasks(tasks []domain.Task) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, mapTask(t))
	}
	return out
}

func mapColumn(c domain.Column) Column {
	return Column{
		RecordID: c.RecordID,
		ID:       c.ID,
		Title:    c.Title,
		Color:    c.Color,
		BgColor:  c.BgColor,
		Order:    c.Order,
	}
}

func mapColumns(cols []domain.Column) []Column {
	out := make([]Column, 0, len(cols))
	for _, c := range cols {
		out = append(out, mapColumn(c))
	}
	return out
}

// mapAppError converts app and domain failures into transport sentinels.
func mapAppError(operation string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, app.ErrReassignmentRequired):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrReassignmentRequired, err))
	case errors.Is(err, app.ErrNotFound):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrNotFound, err))
	case errors.Is(err, domain.ErrValidation), errors.Is(err, ErrInvalidRequest):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrInvalidRequest, err))
	default:
		return fmt.Errorf("%s: %w", operation, err)
	}
}

var (
	_ BoardService = (*BoardAdapter)(nil)
	_ EventSource  = (*BoardAdapter)(nil)
)
