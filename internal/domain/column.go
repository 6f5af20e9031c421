package domain

import (
	"cmp"
	"slices"
	"strings"
)

const (
	DefaultColumnColor   = "text-gray-700"
	DefaultColumnBgColor = "bg-gray-50"
)

// Column represents one status column of the board. ID is the value tasks carry in Status;
// RecordID is the storage identity.
type Column struct {
	RecordID int64
	ID       string
	Title    string
	Color    string
	BgColor  string
	Order    int
}

// DefaultColumns returns a fresh copy of the built-in column set.
func DefaultColumns() []Column {
	return []Column{
		{RecordID: 1, ID: "todo", Title: "To Do", Color: "text-gray-700", BgColor: "bg-gray-50", Order: 1},
		{RecordID: 2, ID: "inprogress", Title: "In Progress", Color: "text-info", BgColor: "bg-blue-50", Order: 2},
		{RecordID: 3, ID: "review", Title: "Review", Color: "text-warning", BgColor: "bg-yellow-50", Order: 3},
		{RecordID: 4, ID: "done", Title: "Done", Color: "text-success", BgColor: "bg-green-50", Order: 4},
	}
}

// NewColumn constructs a column with the default color hints.
func NewColumn(recordID int64, id, title string, order int) (Column, error) {
	id = strings.TrimSpace(id)
	title = strings.TrimSpace(title)
	if recordID <= 0 {
		return Column{}, ErrInvalidID
	}
	if id == "" {
		return Column{}, ErrInvalidColumnID
	}
	if title == "" {
		return Column{}, ErrInvalidTitle
	}
	if order <= 0 {
		return Column{}, ErrInvalidPosition
	}
	return Column{
		RecordID: recordID,
		ID:       id,
		Title:    title,
		Color:    DefaultColumnColor,
		BgColor:  DefaultColumnBgColor,
		Order:    order,
	}, nil
}

// Rename renames the requested operation.
func (c *Column) Rename(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrInvalidTitle
	}
	c.Title = title
	return nil
}

// RenumberColumns returns a copy whose Order values are 1..N in slice order.
func RenumberColumns(columns []Column) []Column {
	out := slices.Clone(columns)
	for i := range out {
		out[i].Order = i + 1
	}
	return out
}

// SortColumns stable-sorts a copy by Order and renumbers it.
func SortColumns(columns []Column) []Column {
	out := slices.Clone(columns)
	slices.SortStableFunc(out, func(a, b Column) int {
		return cmp.Compare(a.Order, b.Order)
	})
	return RenumberColumns(out)
}

// TrimColumns returns a copy with surrounding whitespace removed from ids and titles.
func TrimColumns(columns []Column) []Column {
	out := slices.Clone(columns)
	for i := range out {
		out[i].ID = strings.TrimSpace(out[i].ID)
		out[i].Title = strings.TrimSpace(out[i].Title)
	}
	return out
}

// MoveColumn moves the column at index from to index to and renumbers.
func MoveColumn(columns []Column, from, to int) ([]Column, error) {
	if from < 0 || from >= len(columns) || to < 0 || to >= len(columns) {
		return nil, ErrInvalidPosition
	}
	out := slices.Clone(columns)
	moved := out[from]
	out = slices.Delete(out, from, from+1)
	out = slices.Insert(out, to, moved)
	return RenumberColumns(out), nil
}

// RemoveColumnAt drops the column at index and renumbers. The last column cannot be removed.
func RemoveColumnAt(columns []Column, index int) ([]Column, error) {
	if index < 0 || index >= len(columns) {
		return nil, ErrInvalidPosition
	}
	if len(columns) <= 1 {
		return nil, ErrLastColumn
	}
	out := slices.Delete(slices.Clone(columns), index, index+1)
	return RenumberColumns(out), nil
}

// ValidateColumns checks a full column set before it is persisted.
func ValidateColumns(columns []Column) error {
	if len(columns) == 0 {
		return ErrNoColumns
	}
	seen := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		if c.RecordID <= 0 {
			return ErrInvalidID
		}
		id := strings.TrimSpace(c.ID)
		if id == "" {
			return ErrInvalidColumnID
		}
		if strings.TrimSpace(c.Title) == "" {
			return ErrInvalidTitle
		}
		if _, ok := seen[id]; ok {
			return ErrDuplicateColumn
		}
		seen[id] = struct{}{}
	}
	return nil
}

// ColumnIndex returns the slice index of the column with id, or -1.
func ColumnIndex(columns []Column, id string) int {
	return slices.IndexFunc(columns, func(c Column) bool {
		return c.ID == id
	})
}

func HasColumn(columns []Column, id string) bool {
	return ColumnIndex(columns, id) >= 0
}

// NextColumnRecordID returns one more than the highest record id (1 for an empty set).
func NextColumnRecordID(columns []Column) int64 {
	var maxID int64
	for _, c := range columns {
		maxID = max(maxID, c.RecordID)
	}
	return maxID + 1
}

// TerminalColumn is the last column by order; tasks there count as completed.
func TerminalColumn(columns []Column) (Column, bool) {
	if len(columns) == 0 {
		return Column{}, false
	}
	last := columns[0]
	for _, c := range columns[1:] {
		if c.Order >= last.Order {
			last = c
		}
	}
	return last, true
}

// FirstColumn is the first column by order.
func FirstColumn(columns []Column) (Column, bool) {
	if len(columns) == 0 {
		return Column{}, false
	}
	first := columns[0]
	for _, c := range columns[1:] {
		if c.Order < first.Order {
			first = c
		}
	}
	return first, true
}
