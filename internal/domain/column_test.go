package domain

import (
	"errors"
	"math"
	"testing"
	"time"
)

func columnIDs(columns []Column) []string {
	out := make([]string, 0, len(columns))
	for _, c := range columns {
		out = append(out, c.ID)
	}
	return out
}

func assertContiguous(t *testing.T, columns []Column) {
	t.Helper()
	for i, c := range columns {
		if c.Order != i+1 {
			t.Fatalf("column %q has order %d at index %d", c.ID, c.Order, i)
		}
	}
}

func TestDefaultColumns(t *testing.T) {
	cols := DefaultColumns()
	want := []string{"todo", "inprogress", "review", "done"}
	for i, id := range want {
		if cols[i].ID != id || cols[i].RecordID != int64(i+1) {
			t.Fatalf("unexpected default column %#v", cols[i])
		}
	}
	assertContiguous(t, cols)
	cols[0].Title = "changed"
	if DefaultColumns()[0].Title != "To Do" {
		t.Fatal("DefaultColumns should return a fresh copy")
	}
}

func TestMoveColumn(t *testing.T) {
	moved, err := MoveColumn(DefaultColumns(), 3, 0)
	if err != nil {
		t.Fatalf("MoveColumn() error = %v", err)
	}
	got := columnIDs(moved)
	want := []string{"done", "todo", "inprogress", "review"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("MoveColumn() = %v, want %v", got, want)
		}
	}
	assertContiguous(t, moved)
	if _, err := MoveColumn(DefaultColumns(), 0, 9); !errors.Is(err, ErrInvalidPosition) {
		t.Fatalf("expected ErrInvalidPosition, got %v", err)
	}
}

func TestMoveColumnForward(t *testing.T) {
	cols := []Column{
		{RecordID: 1, ID: "a", Title: "A", Order: 1},
		{RecordID: 2, ID: "b", Title: "B", Order: 2},
		{RecordID: 3, ID: "c", Title: "C", Order: 3},
	}
	moved, err := MoveColumn(cols, 0, 2)
	if err != nil {
		t.Fatalf("MoveColumn() error = %v", err)
	}
	if ids := columnIDs(moved); ids[0] != "b" || ids[1] != "c" || ids[2] != "a" {
		t.Fatalf("MoveColumn(0, 2) = %v, want [b c a]", ids)
	}
	assertContiguous(t, moved)
	if cols[0].ID != "a" {
		t.Fatal("MoveColumn should not modify its input")
	}
}

func TestRemoveColumnAt(t *testing.T) {
	out, err := RemoveColumnAt(DefaultColumns(), 1)
	if err != nil {
		t.Fatalf("RemoveColumnAt() error = %v", err)
	}
	if len(out) != 3 || HasColumn(out, "inprogress") {
		t.Fatalf("unexpected columns %v", columnIDs(out))
	}
	assertContiguous(t, out)

	single := DefaultColumns()[:1]
	if _, err := RemoveColumnAt(single, 0); !errors.Is(err, ErrLastColumn) || !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrLastColumn, got %v", err)
	}
}

func TestSortColumnsStableAndRenumbered(t *testing.T) {
	cols := []Column{
		{RecordID: 1, ID: "a", Title: "A", Order: 5},
		{RecordID: 2, ID: "b", Title: "B", Order: 2},
		{RecordID: 3, ID: "c", Title: "C", Order: 5},
	}
	got := SortColumns(cols)
	if ids := columnIDs(got); ids[0] != "b" || ids[1] != "a" || ids[2] != "c" {
		t.Fatalf("unexpected order %v", ids)
	}
	assertContiguous(t, got)
}

func TestSortColumnsExtremeOrders(t *testing.T) {
	cols := []Column{
		{RecordID: 1, ID: "a", Title: "A", Order: math.MaxInt},
		{RecordID: 2, ID: "b", Title: "B", Order: -10},
		{RecordID: 3, ID: "c", Title: "C", Order: 5},
	}
	if ids := columnIDs(SortColumns(cols)); ids[0] != "b" || ids[1] != "c" || ids[2] != "a" {
		t.Fatalf("SortColumns() = %v, want [b c a]", ids)
	}
}

func TestTrimColumns(t *testing.T) {
	in := []Column{{RecordID: 1, ID: " todo ", Title: "  To Do\t"}}
	out := TrimColumns(in)
	if out[0].ID != "todo" || out[0].Title != "To Do" {
		t.Fatalf("unexpected trimmed column %#v", out[0])
	}
	if in[0].ID != " todo " {
		t.Fatal("TrimColumns should not modify its input")
	}
}

func TestValidateColumns(t *testing.T) {
	cases := []struct {
		name string
		cols []Column
		want error
	}{
		{"empty", nil, ErrNoColumns},
		{"missing record id", []Column{{ID: "a", Title: "A"}}, ErrInvalidID},
		{"missing id", []Column{{RecordID: 1, Title: "A"}}, ErrInvalidColumnID},
		{"missing title", []Column{{RecordID: 1, ID: "a"}}, ErrInvalidTitle},
		{"duplicate", []Column{{RecordID: 1, ID: "a", Title: "A"}, {RecordID: 2, ID: "a", Title: "B"}}, ErrDuplicateColumn},
	}
	for _, tc := range cases {
		if err := ValidateColumns(tc.cols); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
	if err := ValidateColumns(DefaultColumns()); err != nil {
		t.Fatalf("ValidateColumns(defaults) error = %v", err)
	}
}

func TestNewColumnAndRename(t *testing.T) {
	c, err := NewColumn(5, "column_x", " Blocked ", 5)
	if err != nil {
		t.Fatalf("NewColumn() error = %v", err)
	}
	if c.Title != "Blocked" || c.Color != DefaultColumnColor || c.BgColor != DefaultColumnBgColor {
		t.Fatalf("unexpected column %#v", c)
	}
	if err := c.Rename("  "); !errors.Is(err, ErrInvalidTitle) {
		t.Fatalf("expected ErrInvalidTitle, got %v", err)
	}
	if NextColumnRecordID([]Column{{RecordID: 7}, {RecordID: 3}}) != 8 {
		t.Fatal("expected next record id 8")
	}
}

func TestStatsAndDerivedViews(t *testing.T) {
	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	past, soon, later := now.Add(-time.Hour), now.Add(time.Hour), now.Add(48*time.Hour)
	tasks := []Task{
		{ID: 1, ProjectID: 1, Status: "todo", Priority: PriorityHigh, DueDate: &past, Assignee: "ana"},
		{ID: 2, ProjectID: 1, Status: "done", Priority: PriorityLow, DueDate: &past, Assignee: "ana"},
		{ID: 3, ProjectID: 2, Status: "review", Priority: PriorityHigh, DueDate: &later, Assignee: "bo"},
		{ID: 4, ProjectID: 2, Status: "gone", DueDate: &soon},
	}
	cols := DefaultColumns()

	stats := ComputeStats(tasks, cols, now)
	if stats.Total != 4 || stats.Completed != 1 || stats.HighPriority != 2 || stats.Overdue != 1 || stats.Orphaned != 1 {
		t.Fatalf("unexpected stats %#v", stats)
	}
	if stats.Progress != 25 {
		t.Fatalf("expected 25%% progress, got %v", stats.Progress)
	}
	if len(stats.ByColumn) != 4 || stats.ByColumn[0].Count != 1 {
		t.Fatalf("unexpected per-column counts %#v", stats.ByColumn)
	}
	if ComputeStats(nil, cols, now).Progress != 0 {
		t.Fatal("expected zero progress for empty board")
	}

	if got := OverdueTasks(tasks, cols, now); len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("unexpected overdue %v", ids(got))
	}
	if got := UpcomingTasks(tasks, now, 1); len(got) != 1 || got[0].ID != 4 {
		t.Fatalf("unexpected upcoming %v", ids(got))
	}
	if got := OrphanedTasks(tasks, cols); len(got) != 1 || got[0].ID != 4 {
		t.Fatalf("unexpected orphans %v", ids(got))
	}

	counts := CountByProject(tasks, cols)
	if len(counts) != 2 || counts[0].ProjectID != 1 || counts[0].Total != 2 || counts[0].Completed != 1 {
		t.Fatalf("unexpected project counts %#v", counts)
	}

	load := WorkloadByAssignee(tasks, cols)
	if len(load) != 2 || load[0].Assignee != "ana" {
		t.Fatalf("unexpected workload %#v", load)
	}
	if load[0].Completed != 1 || load[0].Pending != 1 || load[0].Workload != 50 {
		t.Fatalf("unexpected ana workload %#v", load[0])
	}
	if load[1].InProgress != 1 || load[1].Workload != 100 {
		t.Fatalf("unexpected bo workload %#v", load[1])
	}

	groups := GroupByStatus(tasks, cols)
	if len(groups) != 4 || len(groups[2].Tasks) != 1 || groups[2].Tasks[0].ID != 3 {
		t.Fatalf("unexpected groups %#v", groups)
	}
}
