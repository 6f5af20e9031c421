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

// SnapshotVersion defines a package constant value.
const SnapshotVersion = "kanboard.snapshot.v1"

// Snapshot is a portable copy of a whole board: projects, columns and tasks.
type Snapshot struct {
	Version    string            `json:"version" yaml:"version"`
	ExportedAt time.Time         `json:"exported_at" yaml:"exported_at"`
	Projects   []SnapshotProject `json:"projects" yaml:"projects"`
	Columns    []SnapshotColumn  `json:"columns" yaml:"columns"`
	Tasks      []SnapshotTask    `json:"tasks" yaml:"tasks"`
}

// SnapshotProject represents snapshot project data used by this package.
type SnapshotProject struct {
	ID          int64     `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Color       string    `json:"color,omitempty" yaml:"color,omitempty"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" yaml:"updated_at"`
}

// SnapshotColumn represents snapshot column data used by this package.
type SnapshotColumn struct {
	RecordID int64  `json:"record_id" yaml:"record_id"`
	ID       string `json:"id" yaml:"id"`
	Title    string `json:"title" yaml:"title"`
	Color    string `json:"color,omitempty" yaml:"color,omitempty"`
	BgColor  string `json:"bg_color,omitempty" yaml:"bg_color,omitempty"`
	Order    int    `json:"order" yaml:"order"`
}

// SnapshotTask represents snapshot task data used by this package.
type SnapshotTask struct {
	ID          int64           `json:"id" yaml:"id"`
	ProjectID   int64           `json:"project_id" yaml:"project_id"`
	Title       string          `json:"title" yaml:"title"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
	Status      string          `json:"status" yaml:"status"`
	Priority    domain.Priority `json:"priority" yaml:"priority"`
	DueDate     *time.Time      `json:"due_date,omitempty" yaml:"due_date,omitempty"`
	Assignee    string          `json:"assignee,omitempty" yaml:"assignee,omitempty"`
	CreatedAt   time.Time       `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" yaml:"updated_at"`
}

// SnapshotColumns is the column side of export and import. *ColumnManager implements it.
type SnapshotColumns interface {
	GetColumns(context.Context) ([]domain.Column, error)
	SaveColumns(context.Context, []domain.Column) ([]domain.Column, error)
}

// ExportSnapshot collects every project and task plus the current columns.
func (s *Service) ExportSnapshot(ctx context.Context, columns SnapshotColumns) (Snapshot, error) {
	snap := Snapshot{
		Version:    SnapshotVersion,
		ExportedAt: s.clock().UTC(),
		Projects:   []SnapshotProject{},
		Columns:    []SnapshotColumn{},
		Tasks:      []SnapshotTask{},
	}
	projects, err := s.ListProjects(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	for _, p := range projects {
		snap.Projects = append(snap.Projects, snapshotProjectFromDomain(p))
	}
	tasks, err := s.GetAll(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	for _, t := range tasks {
		snap.Tasks = append(snap.Tasks, snapshotTaskFromDomain(t))
	}
	if columns != nil {
		cols, err := columns.GetColumns(ctx)
		if err != nil {
			return Snapshot{}, err
		}
		for _, c := range cols {
			snap.Columns = append(snap.Columns, snapshotColumnFromDomain(c))
		}
	}
	snap.sort()
	return snap, nil
}

// ImportSnapshot upserts projects and tasks by id and replaces the columns when the snapshot
// carries any.
func (s *Service) ImportSnapshot(ctx context.Context, snap Snapshot, columns SnapshotColumns) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	snap.sort()

	if len(snap.Columns) > 0 && columns != nil {
		cols := make([]domain.Column, 0, len(snap.Columns))
		for _, c := range snap.Columns {
			cols = append(cols, c.toDomain())
		}
		if _, err := columns.SaveColumns(ctx, cols); err != nil {
			return fmt.Errorf("import columns: %w", err)
		}
	}
	for _, p := range snap.Projects {
		if err := s.upsertProject(ctx, p.toDomain()); err != nil {
			return err
		}
	}
	for _, t := range snap.Tasks {
		if err := s.upsertTask(ctx, t.toDomain()); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks ids, required fields and task-to-project references.
func (s *Snapshot) Validate() error {
	if s.Version != "" && s.Version != SnapshotVersion {
		return fmt.Errorf("unsupported snapshot version %q: %w", s.Version, domain.ErrValidation)
	}

	projectIDs := map[int64]struct{}{}
	for i, p := range s.Projects {
		if p.ID <= 0 {
			return fmt.Errorf("projects[%d].id: %w", i, domain.ErrInvalidID)
		}
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("projects[%d].name: %w", i, domain.ErrInvalidName)
		}
		if _, exists := projectIDs[p.ID]; exists {
			return fmt.Errorf("duplicate project id %d: %w", p.ID, domain.ErrInvalidID)
		}
		projectIDs[p.ID] = struct{}{}
	}

	if len(s.Columns) > 0 {
		cols := make([]domain.Column, 0, len(s.Columns))
		for _, c := range s.Columns {
			cols = append(cols, c.toDomain())
		}
		if err := domain.ValidateColumns(cols); err != nil {
			return fmt.Errorf("columns: %w", err)
		}
	}

	taskIDs := map[int64]struct{}{}
	for i, t := range s.Tasks {
		if t.ID <= 0 {
			return fmt.Errorf("tasks[%d].id: %w", i, domain.ErrInvalidID)
		}
		if _, exists := taskIDs[t.ID]; exists {
			return fmt.Errorf("duplicate task id %d: %w", t.ID, domain.ErrInvalidID)
		}
		taskIDs[t.ID] = struct{}{}
		if _, ok := projectIDs[t.ProjectID]; !ok {
			return fmt.Errorf("tasks[%d] references unknown project %d: %w", i, t.ProjectID, domain.ErrInvalidID)
		}
		if strings.TrimSpace(t.Title) == "" {
			return fmt.Errorf("tasks[%d].title: %w", i, domain.ErrInvalidTitle)
		}
		if strings.TrimSpace(t.Status) == "" {
			return fmt.Errorf("tasks[%d].status: %w", i, domain.ErrInvalidStatus)
		}
		if _, err := domain.ParsePriority(string(t.Priority)); err != nil {
			return fmt.Errorf("tasks[%d].priority: %w", i, err)
		}
	}
	return nil
}

func (s *Service) upsertProject(ctx context.Context, p domain.Project) error {
	if _, err := s.repo.GetProject(ctx, p.ID); err == nil {
		if err := s.repo.UpdateProject(ctx, p); err != nil {
			return storeErr(fmt.Sprintf("import project %d", p.ID), err)
		}
		return nil
	} else if !errors.Is(err, ErrNotFound) {
		return storeErr(fmt.Sprintf("import project %d", p.ID), err)
	}
	if err := s.repo.CreateProject(ctx, p); err != nil {
		return storeErr(fmt.Sprintf("import project %d", p.ID), err)
	}
	return nil
}

func (s *Service) upsertTask(ctx context.Context, t domain.Task) error {
	if _, err := s.repo.GetTask(ctx, t.ID); err == nil {
		if err := s.repo.UpdateTask(ctx, t); err != nil {
			return storeErr(fmt.Sprintf("import task %d", t.ID), err)
		}
		return nil
	} else if !errors.Is(err, ErrNotFound) {
		return storeErr(fmt.Sprintf("import task %d", t.ID), err)
	}
	if err := s.repo.CreateTask(ctx, t); err != nil {
		return storeErr(fmt.Sprintf("import task %d", t.ID), err)
	}
	return nil
}

func (s *Snapshot) sort() {
	slices.SortFunc(s.Projects, func(a, b SnapshotProject) int {
		return cmp.Compare(a.ID, b.ID)
	})
	slices.SortStableFunc(s.Columns, func(a, b SnapshotColumn) int {
		return cmp.Compare(a.Order, b.Order)
	})
	slices.SortFunc(s.Tasks, func(a, b SnapshotTask) int {
		return cmp.Compare(a.ID, b.ID)
	})
}

func snapshotProjectFromDomain(p domain.Project) SnapshotProject {
	return SnapshotProject{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Color:       p.Color,
		CreatedAt:   p.CreatedAt.UTC(),
		UpdatedAt:   p.UpdatedAt.UTC(),
	}
}

func snapshotColumnFromDomain(c domain.Column) SnapshotColumn {
	return SnapshotColumn{
		RecordID: c.RecordID,
		ID:       c.ID,
		Title:    c.Title,
		Color:    c.Color,
		BgColor:  c.BgColor,
		Order:    c.Order,
	}
}

func snapshotTaskFromDomain(t domain.Task) SnapshotTask {
	return SnapshotTask{
		ID:          t.ID,
		ProjectID:   t.ProjectID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		DueDate:     copyTimePtr(t.DueDate),
		Assignee:    t.Assignee,
		CreatedAt:   t.CreatedAt.UTC(),
		UpdatedAt:   t.UpdatedAt.UTC(),
	}
}

func (p SnapshotProject) toDomain() domain.Project {
	return domain.Project{
		ID:          p.ID,
		Name:        strings.TrimSpace(p.Name),
		Description: strings.TrimSpace(p.Description),
		Color:       strings.TrimSpace(p.Color),
		CreatedAt:   p.CreatedAt.UTC(),
		UpdatedAt:   p.UpdatedAt.UTC(),
	}
}

func (c SnapshotColumn) toDomain() domain.Column {
	return domain.Column{
		RecordID: c.RecordID,
		ID:       strings.TrimSpace(c.ID),
		Title:    strings.TrimSpace(c.Title),
		Color:    c.Color,
		BgColor:  c.BgColor,
		Order:    c.Order,
	}
}

func (t SnapshotTask) toDomain() domain.Task {
	priority, err := domain.ParsePriority(string(t.Priority))
	if err != nil {
		priority = domain.PriorityMedium
	}
	return domain.Task{
		ID:          t.ID,
		ProjectID:   t.ProjectID,
		Title:       strings.TrimSpace(t.Title),
		Description: strings.TrimSpace(t.Description),
		Status:      strings.TrimSpace(t.Status),
		Priority:    priority,
		DueDate:     copyTimePtr(t.DueDate),
		Assignee:    strings.TrimSpace(t.Assignee),
		CreatedAt:   t.CreatedAt.UTC(),
		UpdatedAt:   t.UpdatedAt.UTC(),
	}
}

func copyTimePtr(in *time.Time) *time.Time {
	if in == nil {
		return nil
	}
	ts := in.UTC()
	return &ts
}
