// Package common provides transport-agnostic server contracts used by HTTP and MCP adapters.
package common

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidRequest reports malformed or semantically invalid input.
var ErrInvalidRequest = errors.New("invalid request")

// ErrNotFound reports missing transport-visible resources.
var ErrNotFound = errors.New("not found")

// ErrReassignmentRequired reports a column removal that needs a target for its tasks.
var ErrReassignmentRequired = errors.New("reassignment target required")

// Task is the wire shape of one task.
type Task struct {
	ID          int64      `json:"id"`
	ProjectID   int64      `json:"project_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Assignee    string     `json:"assignee,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Column is the wire shape of one board column.
type Column struct {
	RecordID int64  `json:"record_id"`
	ID       string `json:"id"`
	Title    string `json:"title"`
	Color    string `json:"color,omitempty"`
	BgColor  string `json:"bg_color,omitempty"`
	Order    int    `json:"order"`
}

// Project is one project with its task tallies.
type Project struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Color       string    `json:"color,omitempty"`
	TaskCount   int       `json:"task_count"`
	Completed   int       `json:"completed_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ColumnCount is one per-column tally inside Stats.
type ColumnCount struct {
	ColumnID string `json:"column_id"`
	Title    string `json:"title"`
	Count    int    `json:"count"`
}

// Workload is one assignee's share of the board.
type Workload struct {
	Assignee   string  `json:"assignee"`
	Total      int     `json:"total"`
	Completed  int     `json:"completed"`
	InProgress int     `json:"in_progress"`
	Pending    int     `json:"pending"`
	Workload   float64 `json:"workload"`
}

// Stats summarizes the board for dashboards.
type Stats struct {
	ProjectID    int64         `json:"project_id,omitempty"`
	Total        int           `json:"total"`
	ByColumn     []ColumnCount `json:"by_column"`
	Completed    int           `json:"completed"`
	HighPriority int           `json:"high_priority"`
	Overdue      int           `json:"overdue"`
	Orphaned     int           `json:"orphaned"`
	Progress     float64       `json:"progress"`
	Upcoming     []Task        `json:"upcoming,omitempty"`
	Team         []Workload    `json:"team,omitempty"`
}

// Event is one board change pushed to feed subscribers.
type Event struct {
	Kind    string    `json:"kind"`
	Tasks   []Task    `json:"tasks,omitempty"`
	TaskIDs []int64   `json:"task_ids,omitempty"`
	At      time.Time `json:"at"`
}

// ListTasksRequest captures list filters. Empty fields do not filter.
type ListTasksRequest struct {
	ProjectID ID     `json:"project_id,omitempty"`
	Status    string `json:"status,omitempty"`
	Priority  string `json:"priority,omitempty"`
	Assignee  string `json:"assignee,omitempty"`
	Query     string `json:"query,omitempty"`
	Sort      string `json:"sort,omitempty"`
}

// CreateTaskRequest captures input for a new task.
type CreateTaskRequest struct {
	ProjectID   ID         `json:"project_id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Assignee    string     `json:"assignee,omitempty"`
}

// UpdateTaskRequest captures a partial task update. Nil fields are left untouched.
type UpdateTaskRequest struct {
	Title        *string    `json:"title,omitempty"`
	Description  *string    `json:"description,omitempty"`
	Status       *string    `json:"status,omitempty"`
	Priority     *string    `json:"priority,omitempty"`
	DueDate      *time.Time `json:"due_date,omitempty"`
	ClearDueDate bool       `json:"clear_due_date,omitempty"`
	Assignee     *string    `json:"assignee,omitempty"`
	ProjectID    *ID        `json:"project_id,omitempty"`
}

// MoveTaskRequest captures a single status move.
type MoveTaskRequest struct {
	Status string `json:"status"`
}

// BulkUpdateRequest applies one patch to many tasks.
type BulkUpdateRequest struct {
	IDs   []ID              `json:"ids"`
	Patch UpdateTaskRequest `json:"patch"`
}

// BulkMoveRequest moves many tasks to one status.
type BulkMoveRequest struct {
	IDs    []ID   `json:"ids"`
	Status string `json:"status"`
}

// BulkDeleteRequest deletes many tasks.
type BulkDeleteRequest struct {
	IDs []ID `json:"ids"`
}

// BulkDeleteResult reports a bulk delete outcome.
type BulkDeleteResult struct {
	Success      bool `json:"success"`
	DeletedCount int  `json:"deleted_count"`
}

// ColumnTitleRequest carries a column title for add and rename.
type ColumnTitleRequest struct {
	Title string `json:"title"`
}

// ReorderColumnsRequest moves the column at From to To.
type ReorderColumnsRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// SaveColumnsRequest replaces the whole column set.
type SaveColumnsRequest struct {
	Columns []Column `json:"columns"`
}

// BoardService is the board surface shared by the HTTP and MCP transports.
type BoardService interface {
	ListTasks(context.Context, ListTasksRequest) ([]Task, error)
	SearchTasks(context.Context, string) ([]Task, error)
	GetTask(context.Context, int64) (Task, error)
	CreateTask(context.Context, CreateTaskRequest) (Task, error)
	UpdateTask(context.Context, int64, UpdateTaskRequest) (Task, error)
	MoveTask(context.Context, int64, string) (Task, error)
	DeleteTask(context.Context, int64) error
	BulkUpdate(context.Context, BulkUpdateRequest) ([]Task, error)
	BulkMove(context.Context, BulkMoveRequest) ([]Task, error)
	BulkDelete(context.Context, BulkDeleteRequest) (BulkDeleteResult, error)

	ListColumns(context.Context) ([]Column, error)
	AddColumn(context.Context, string) (Column, error)
	RenameColumn(context.Context, string, string) (Column, error)
	RemoveColumn(context.Context, string, string) ([]Column, error)
	ReorderColumns(context.Context, int, int) ([]Column, error)
	SaveColumns(context.Context, []Column) ([]Column, error)
	ResetColumns(context.Context) ([]Column, error)

	Stats(context.Context, int64) (Stats, error)
	ListProjects(context.Context) ([]Project, error)
}

// EventSource streams board changes to transports that push them.
type EventSource interface {
	Subscribe(func(Event)) (cancel func())
}
