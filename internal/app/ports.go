package app

import (
	"context"

	"github.com/evanschultz/kanboard/internal/domain"
)

// Repository is the persistence port for projects and tasks. Implementations return ErrNotFound
// for missing rows and never reuse an id handed out by NextProjectID or NextTaskID.
type Repository interface {
	NextProjectID(context.Context) (int64, error)
	CreateProject(context.Context, domain.Project) error
	UpdateProject(context.Context, domain.Project) error
	GetProject(context.Context, int64) (domain.Project, error)
	ListProjects(context.Context) ([]domain.Project, error)
	// DeleteProject removes the project and every task it owns.
	DeleteProject(context.Context, int64) error

	NextTaskID(context.Context) (int64, error)
	CreateTask(context.Context, domain.Task) error
	UpdateTask(context.Context, domain.Task) error
	GetTask(context.Context, int64) (domain.Task, error)
	// ListTasks lists a project's tasks ordered by id; projectID 0 lists every task.
	ListTasks(context.Context, int64) ([]domain.Task, error)
	DeleteTask(context.Context, int64) error
}

// KVStore is a small string-keyed blob store. GetSetting returns ErrNotFound for absent keys.
type KVStore interface {
	GetSetting(context.Context, string) ([]byte, error)
	SetSetting(context.Context, string, []byte) error
	DeleteSetting(context.Context, string) error
}
