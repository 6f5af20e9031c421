// Package memory provides a process-local implementation of the app persistence ports.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/evanschultz/kanboard/internal/app"
	"github.com/evanschultz/kanboard/internal/domain"
)

// Store keeps projects, tasks and settings in maps. Id counters only grow, so an id is never
// handed out twice even after the highest one is deleted.
type Store struct {
	mu sync.RWMutex

	nextProject int64
	nextTask    int64

	projects map[int64]domain.Project
	tasks    map[int64]domain.Task
	settings map[string][]byte
}

// New returns an empty store.
func New() *Store {
	return &Store{
		projects: make(map[int64]domain.Project),
		tasks:    make(map[int64]domain.Task),
		settings: make(map[string][]byte),
	}
}

// NextProjectID returns one past the highest project id ever stored.
func (s *Store) NextProjectID(context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextProject + 1, nil
}

// CreateProject stores a new project.
func (s *Store) CreateProject(_ context.Context, p domain.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[p.ID]; ok {
		return fmt.Errorf("project %d already exists", p.ID)
	}
	s.projects[p.ID] = p
	s.nextProject = max(s.nextProject, p.ID)
	return nil
}

// UpdateProject replaces a stored project.
func (s *Store) UpdateProject(_ context.Context, p domain.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[p.ID]; !ok {
		return app.ErrNotFound
	}
	s.projects[p.ID] = p
	return nil
}

// GetProject returns a project by id.
func (s *Store) GetProject(_ context.Context, id int64) (domain.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok {
		return domain.Project{}, app.ErrNotFound
	}
	return p, nil
}

// ListProjects returns projects ordered by id.
func (s *Store) ListProjects(context.Context) ([]domain.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Project, 0, len(s.projects))
	for _, id := range slices.Sorted(maps.Keys(s.projects)) {
		out = append(out, s.projects[id])
	}
	return out, nil
}

// DeleteProject removes a project and its tasks.
func (s *Store) DeleteProject(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[id]; !ok {
		return app.ErrNotFound
	}
	delete(s.projects, id)
	maps.DeleteFunc(s.tasks, func(_ int64, t domain.Task) bool {
		return t.ProjectID == id
	})
	return nil
}

// NextTaskID returns one past the highest task id ever stored.
func (s *Store) NextTaskID(context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextTask + 1, nil
}

// CreateTask stores a new task. The owning project must exist.
func (s *Store) CreateTask(_ context.Context, t domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[t.ID]; ok {
		return fmt.Errorf("task %d already exists", t.ID)
	}
	if _, ok := s.projects[t.ProjectID]; !ok {
		return fmt.Errorf("task %d references unknown project %d", t.ID, t.ProjectID)
	}
	s.tasks[t.ID] = cloneTask(t)
	s.nextTask = max(s.nextTask, t.ID)
	return nil
}

// UpdateTask replaces a stored task.
func (s *Store) UpdateTask(_ context.Context, t domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[t.ID]; !ok {
		return app.ErrNotFound
	}
	if _, ok := s.projects[t.ProjectID]; !ok {
		return fmt.Errorf("task %d references unknown project %d", t.ID, t.ProjectID)
	}
	s.tasks[t.ID] = cloneTask(t)
	return nil
}

// GetTask returns a task by id.
func (s *Store) GetTask(_ context.Context, id int64) (domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return domain.Task{}, app.ErrNotFound
	}
	return cloneTask(t), nil
}

// ListTasks returns tasks ordered by id, limited to projectID unless it is 0.
func (s *Store) ListTasks(_ context.Context, projectID int64) ([]domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Task, 0, len(s.tasks))
	for _, id := range slices.Sorted(maps.Keys(s.tasks)) {
		t := s.tasks[id]
		if projectID != 0 && t.ProjectID != projectID {
			continue
		}
		out = append(out, cloneTask(t))
	}
	return out, nil
}

// DeleteTask removes a task.
func (s *Store) DeleteTask(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return app.ErrNotFound
	}
	delete(s.tasks, id)
	return nil
}

// GetSetting returns a copy of the value stored under key.
func (s *Store) GetSetting(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.settings[key]
	if !ok {
		return nil, app.ErrNotFound
	}
	return slices.Clone(v), nil
}

// SetSetting stores value under key.
func (s *Store) SetSetting(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[key] = slices.Clone(value)
	return nil
}

// DeleteSetting removes key; absent keys are ignored.
func (s *Store) DeleteSetting(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.settings, key)
	return nil
}

func cloneTask(t domain.Task) domain.Task {
	if t.DueDate != nil {
		due := *t.DueDate
		t.DueDate = &due
	}
	return t
}

var (
	_ app.Repository = (*Store)(nil)
	_ app.KVStore    = (*Store)(nil)
)
