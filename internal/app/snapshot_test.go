package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/evanschultz/kanboard/internal/domain"
)

func TestExportSnapshotIncludesBoard(t *testing.T) {
	svc, _, project := newTestService(t)
	ctx := context.Background()
	columns := NewColumnManager(newFakeKV())

	due := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	if _, err := svc.Create(ctx, domain.TaskInput{ProjectID: project.ID, Title: "b", Status: "done", Priority: domain.PriorityHigh, DueDate: &due}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := svc.Create(ctx, domain.TaskInput{ProjectID: project.ID, Title: "a", Status: "todo"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	snap, err := svc.ExportSnapshot(ctx, columns)
	if err != nil {
		t.Fatalf("ExportSnapshot() error = %v", err)
	}
	if snap.Version != SnapshotVersion {
		t.Fatalf("unexpected version %q", snap.Version)
	}
	if len(snap.Projects) != 1 || len(snap.Tasks) != 2 || len(snap.Columns) != 4 {
		t.Fatalf("unexpected snapshot sizes %d/%d/%d", len(snap.Projects), len(snap.Columns), len(snap.Tasks))
	}
	if snap.Tasks[0].ID != 1 || snap.Tasks[1].ID != 2 {
		t.Fatalf("expected tasks ordered by id, got %#v", snap.Tasks)
	}
	if snap.Tasks[0].DueDate == nil || !snap.Tasks[0].DueDate.Equal(due) {
		t.Fatalf("expected due date to survive export, got %v", snap.Tasks[0].DueDate)
	}
	if snap.Columns[0].ID != "todo" || snap.Columns[3].ID != "done" {
		t.Fatalf("expected default column order, got %#v", snap.Columns)
	}
}

func TestExportSnapshotWithoutColumns(t *testing.T) {
	svc, _, _ := newTestService(t)
	snap, err := svc.ExportSnapshot(context.Background(), nil)
	if err != nil {
		t.Fatalf("ExportSnapshot() error = %v", err)
	}
	if snap.Columns == nil || len(snap.Columns) != 0 {
		t.Fatalf("expected empty non-nil columns, got %#v", snap.Columns)
	}
}

func TestImportSnapshotUpsertsAndReplacesColumns(t *testing.T) {
	src, _, project := newTestService(t)
	ctx := context.Background()
	srcColumns := NewColumnManager(newFakeKV(), WithColumnIDGenerator(sequentialColumnIDs()))
	if _, err := srcColumns.AddColumn(ctx, "QA"); err != nil {
		t.Fatalf("AddColumn() error = %v", err)
	}
	if _, err := src.Create(ctx, domain.TaskInput{ProjectID: project.ID, Title: "carry me", Status: "column_1"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	snap, err := src.ExportSnapshot(ctx, srcColumns)
	if err != nil {
		t.Fatalf("ExportSnapshot() error = %v", err)
	}

	dst, dstRepo, _ := newTestService(t)
	dstColumns := NewColumnManager(newFakeKV())
	if _, err := dst.Create(ctx, domain.TaskInput{ProjectID: project.ID, Title: "stale", Status: "todo"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := dst.ImportSnapshot(ctx, snap, dstColumns); err != nil {
		t.Fatalf("ImportSnapshot() error = %v", err)
	}

	got, err := dst.GetByID(ctx, 1)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Title != "carry me" || got.Status != "column_1" {
		t.Fatalf("expected imported task to overwrite id 1, got %#v", got)
	}
	if len(dstRepo.tasks) != 1 {
		t.Fatalf("expected one task after import, got %d", len(dstRepo.tasks))
	}
	cols, err := dstColumns.GetColumns(ctx)
	if err != nil {
		t.Fatalf("GetColumns() error = %v", err)
	}
	if len(cols) != 5 || cols[4].Title != "QA" {
		t.Fatalf("expected imported columns, got %#v", cols)
	}

	// importing twice is idempotent
	if err := dst.ImportSnapshot(ctx, snap, dstColumns); err != nil {
		t.Fatalf("second ImportSnapshot() error = %v", err)
	}
	if len(dstRepo.tasks) != 1 || len(dstRepo.projects) != 1 {
		t.Fatalf("expected no duplicates, got %d tasks %d projects", len(dstRepo.tasks), len(dstRepo.projects))
	}
}

func TestSnapshotValidate(t *testing.T) {
	now := time.Date(2026, 2, 22, 10, 0, 0, 0, time.UTC)
	valid := func() Snapshot {
		return Snapshot{
			Version:  SnapshotVersion,
			Projects: []SnapshotProject{{ID: 1, Name: "Inbox", CreatedAt: now, UpdatedAt: now}},
			Tasks: []SnapshotTask{{
				ID: 1, ProjectID: 1, Title: "t", Status: "todo", Priority: domain.PriorityLow,
				CreatedAt: now, UpdatedAt: now,
			}},
		}
	}
	base := valid()
	if err := base.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Snapshot)
	}{
		{"version", func(s *Snapshot) { s.Version = "other.v9" }},
		{"project id", func(s *Snapshot) { s.Projects[0].ID = 0 }},
		{"project name", func(s *Snapshot) { s.Projects[0].Name = " " }},
		{"duplicate project", func(s *Snapshot) { s.Projects = append(s.Projects, s.Projects[0]) }},
		{"duplicate task", func(s *Snapshot) { s.Tasks = append(s.Tasks, s.Tasks[0]) }},
		{"unknown project", func(s *Snapshot) { s.Tasks[0].ProjectID = 9 }},
		{"task title", func(s *Snapshot) { s.Tasks[0].Title = "" }},
		{"task status", func(s *Snapshot) { s.Tasks[0].Status = "" }},
		{"task priority", func(s *Snapshot) { s.Tasks[0].Priority = "urgent" }},
		{"duplicate column", func(s *Snapshot) {
			s.Columns = []SnapshotColumn{{RecordID: 1, ID: "todo", Title: "A"}, {RecordID: 2, ID: "todo", Title: "B"}}
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			snap := valid()
			tc.mutate(&snap)
			if err := snap.Validate(); !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestImportSnapshotRejectsInvalidWithoutWriting(t *testing.T) {
	svc, repo, _ := newTestService(t)
	snap := Snapshot{Tasks: []SnapshotTask{{ID: 5, ProjectID: 42, Title: "orphan", Status: "todo", Priority: domain.PriorityLow}}}
	if err := svc.ImportSnapshot(context.Background(), snap, nil); err == nil {
		t.Fatal("expected import error")
	}
	if len(repo.tasks) != 0 {
		t.Fatalf("expected no writes, got %d tasks", len(repo.tasks))
	}
}
