package domain

import (
	"strings"
	"time"
)

// Project represents project data used by this package.
type Project struct {
	ID          int64
	Name        string
	Description string
	Color       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProjectInput holds the fields accepted when creating a project.
type ProjectInput struct {
	ID          int64
	Name        string
	Description string
	Color       string
}

// ProjectPatch carries optional project field updates.
type ProjectPatch struct {
	Name        *string
	Description *string
	Color       *string
}

// NewProject constructs a new value for this package.
func NewProject(in ProjectInput, now time.Time) (Project, error) {
	name := strings.TrimSpace(in.Name)
	if in.ID <= 0 {
		return Project{}, ErrInvalidID
	}
	if name == "" {
		return Project{}, ErrInvalidName
	}
	return Project{
		ID:          in.ID,
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Color:       strings.TrimSpace(in.Color),
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}, nil
}

// Apply merges patch into the project and reports whether anything changed.
func (p *Project) Apply(patch ProjectPatch, now time.Time) (bool, error) {
	next := *p
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return false, ErrInvalidName
		}
		next.Name = name
	}
	if patch.Description != nil {
		next.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Color != nil {
		next.Color = strings.TrimSpace(*patch.Color)
	}
	if next == *p {
		return false, nil
	}
	next.UpdatedAt = now.UTC()
	*p = next
	return true, nil
}
