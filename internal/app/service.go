package app

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/evanschultz/kanboard/internal/domain"
)

// DefaultProjectName names the project created on first start.
const DefaultProjectName = "Inbox"

// ServiceConfig holds configuration for service.
type ServiceConfig struct {
	DefaultProjectName string
}

// Clock returns the current time.
type Clock func() time.Time

// Service is the task and project persistence collaborator used by the board.
type Service struct {
	repo               Repository
	clock              Clock
	defaultProjectName string
}

// BulkDeleteResult reports the outcome of a bulk delete.
type BulkDeleteResult struct {
	Success      bool
	DeletedCount int
	DeletedIDs   []int64
}

// NewService constructs a new value for this package.
func NewService(repo Repository, clock Clock, cfg ServiceConfig) *Service {
	if clock == nil {
		clock = time.Now
	}
	name := strings.TrimSpace(cfg.DefaultProjectName)
	if name == "" {
		name = DefaultProjectName
	}
	return &Service{
		repo:               repo,
		clock:              clock,
		defaultProjectName: name,
	}
}

// storeErr annotates a repository failure, tagging everything but ErrNotFound as ErrPersistence.
func storeErr(op string, err error) error {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrPersistence) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}

// EnsureDefaultProject returns the first project, creating the default one on an empty store.
func (s *Service) EnsureDefaultProject(ctx context.Context) (domain.Project, error) {
	projects, err := s.ListProjects(ctx)
	if err != nil {
		return domain.Project{}, err
	}
	if len(projects) > 0 {
		return projects[0], nil
	}
	return s.CreateProject(ctx, domain.ProjectInput{
		Name:        s.defaultProjectName,
		Description: "Default project",
	})
}

// ListProjects lists projects ordered by id.
func (s *Service) ListProjects(ctx context.Context) ([]domain.Project, error) {
	projects, err := s.repo.ListProjects(ctx)
	if err != nil {
		return nil, storeErr("list projects", err)
	}
	slices.SortFunc(projects, func(a, b domain.Project) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return projects, nil
}

// GetProject returns a project by id.
func (s *Service) GetProject(ctx context.Context, id int64) (domain.Project, error) {
	project, err := s.repo.GetProject(ctx, id)
	if err != nil {
		return domain.Project{}, storeErr(fmt.Sprintf("get project %d", id), err)
	}
	return project, nil
}

// CreateProject creates project.
func (s *Service) CreateProject(ctx context.Context, in domain.ProjectInput) (domain.Project, error) {
	if strings.TrimSpace(in.Name) == "" {
		return domain.Project{}, domain.ErrInvalidName
	}
	id, err := s.repo.NextProjectID(ctx)
	if err != nil {
		return domain.Project{}, storeErr("allocate project id", err)
	}
	in.ID = id
	project, err := domain.NewProject(in, s.clock())
	if err != nil {
		return domain.Project{}, err
	}
	if err := s.repo.CreateProject(ctx, project); err != nil {
		return domain.Project{}, storeErr("create project", err)
	}
	return project, nil
}

// UpdateProject merges patch into the project. A patch that changes nothing is not written.
func (s *Service) UpdateProject(ctx context.Context, id int64, patch domain.ProjectPatch) (domain.Project, error) {
	project, err := s.GetProject(ctx, id)
	if err != nil {
		return domain.Project{}, err
	}
	changed, err := project.Apply(patch, s.clock())
	if err != nil || !changed {
		return project, err
	}
	if err := s.repo.UpdateProject(ctx, project); err != nil {
		return domain.Project{}, storeErr(fmt.Sprintf("update project %d", id), err)
	}
	return project, nil
}

// DeleteProject removes a project together with its tasks.
func (s *Service) DeleteProject(ctx context.Context, id int64) error {
	if err := s.repo.DeleteProject(ctx, id); err != nil {
		return storeErr(fmt.Sprintf("delete project %d", id), err)
	}
	return nil
}

// GetAll lists every task ordered by id.
func (s *Service) GetAll(ctx context.Context) ([]domain.Task, error) {
	return s.GetByProjectID(ctx, 0)
}

// GetByProjectID lists a project's tasks; projectID 0 lists every task.
func (s *Service) GetByProjectID(ctx context.Context, projectID int64) ([]domain.Task, error) {
	tasks, err := s.repo.ListTasks(ctx, projectID)
	if err != nil {
		return nil, storeErr("list tasks", err)
	}
	slices.SortFunc(tasks, func(a, b domain.Task) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return tasks, nil
}

// GetByID returns a task by id.
func (s *Service) GetByID(ctx context.Context, id int64) (domain.Task, error) {
	task, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return domain.Task{}, storeErr(fmt.Sprintf("get task %d", id), err)
	}
	return task, nil
}

// Create assigns the next task id and stores the task.
func (s *Service) Create(ctx context.Context, in domain.TaskInput) (domain.Task, error) {
	if strings.TrimSpace(in.Title) == "" {
		return domain.Task{}, domain.ErrInvalidTitle
	}
	if _, err := s.GetProject(ctx, in.ProjectID); err != nil {
		return domain.Task{}, err
	}
	id, err := s.repo.NextTaskID(ctx)
	if err != nil {
		return domain.Task{}, storeErr("allocate task id", err)
	}
	in.ID = id
	task, err := domain.NewTask(in, s.clock())
	if err != nil {
		return domain.Task{}, err
	}
	if err := s.repo.CreateTask(ctx, task); err != nil {
		return domain.Task{}, storeErr("create task", err)
	}
	return task, nil
}

// Update merges patch into the task. A patch that changes nothing returns the stored task
// without writing it.
func (s *Service) Update(ctx context.Context, id int64, patch domain.TaskPatch) (domain.Task, error) {
	task, err := s.GetByID(ctx, id)
	if err != nil {
		return domain.Task{}, err
	}
	changed, err := task.Apply(patch, s.clock())
	if err != nil {
		return domain.Task{}, err
	}
	if !changed {
		return task, nil
	}
	if patch.ProjectID != nil {
		_, err := s.GetProject(ctx, task.ProjectID)
		if errors.Is(err, ErrNotFound) {
			return domain.Task{}, fmt.Errorf("move task %d to project %d: %w", id, task.ProjectID, domain.ErrInvalidID)
		}
		if err != nil {
			return domain.Task{}, err
		}
	}
	if err := s.repo.UpdateTask(ctx, task); err != nil {
		return domain.Task{}, storeErr(fmt.Sprintf("update task %d", id), err)
	}
	return task, nil
}

// Delete removes a task.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.DeleteTask(ctx, id); err != nil {
		return storeErr(fmt.Sprintf("delete task %d", id), err)
	}
	return nil
}

// Search returns tasks whose title or description contains query, ignoring case.
func (s *Service) Search(ctx context.Context, query string) ([]domain.Task, error) {
	tasks, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return domain.FilterTasks(tasks, domain.TaskFilter{Query: query}), nil
}

// BulkUpdate applies patch to each id. Unknown ids are skipped; the first other failure stops the
// run and is returned with the tasks updated so far.
func (s *Service) BulkUpdate(ctx context.Context, ids []int64, patch domain.TaskPatch) ([]domain.Task, error) {
	out := make([]domain.Task, 0, len(ids))
	for _, id := range uniqueIDs(ids) {
		task, err := s.Update(ctx, id, patch)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return out, err
		}
		out = append(out, task)
	}
	return out, nil
}

// BulkDelete deletes each id, ignoring unknown ones. On failure the result still lists the ids
// removed before the error.
func (s *Service) BulkDelete(ctx context.Context, ids []int64) (BulkDeleteResult, error) {
	var result BulkDeleteResult
	for _, id := range uniqueIDs(ids) {
		err := s.Delete(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return result, err
		}
		result.DeletedCount++
		result.DeletedIDs = append(result.DeletedIDs, id)
	}
	result.Success = true
	return result, nil
}

// BulkMove moves each id to status.
func (s *Service) BulkMove(ctx context.Context, ids []int64, status string) ([]domain.Task, error) {
	return s.BulkUpdate(ctx, ids, domain.StatusPatch(status))
}

// uniqueIDs drops non-positive and repeated ids, keeping first occurrence order.
func uniqueIDs(in []int64) []int64 {
	out := make([]int64, 0, len(in))
	seen := make(map[int64]struct{}, len(in))
	for _, id := range in {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
