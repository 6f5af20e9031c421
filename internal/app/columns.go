package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/evanschultz/kanboard/internal/domain"
)

// ColumnsStorageKey is the settings key holding the column blob.
const ColumnsStorageKey = "kanboard.columns"

// ColumnIDGenerator returns the stable id for a newly added column.
type ColumnIDGenerator func() (string, error)

// NewColumnID derives a time-ordered column id from a UUIDv7.
func NewColumnID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate column id: %w", err)
	}
	return "column_" + id.String(), nil
}

// storedColumn is the persisted shape of one column in the blob.
type storedColumn struct {
	RecordID int64  `json:"Id"`
	ID       string `json:"id"`
	Title    string `json:"title"`
	Color    string `json:"color"`
	BgColor  string `json:"bgColor"`
	Order    int    `json:"order"`
}

// ColumnOption configures a ColumnManager.
type ColumnOption func(*ColumnManager)

// WithColumnLogger sets the logger used for degraded reads.
func WithColumnLogger(logger *log.Logger) ColumnOption {
	return func(m *ColumnManager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithColumnIDGenerator replaces the column id generator.
func WithColumnIDGenerator(gen ColumnIDGenerator) ColumnOption {
	return func(m *ColumnManager) {
		if gen != nil {
			m.newID = gen
		}
	}
}

// ColumnManager owns the ordered column definitions. Every mutation is a load-mutate-save cycle
// over the whole blob, serialized by mu.
type ColumnManager struct {
	store  KVStore
	logger *log.Logger
	newID  ColumnIDGenerator

	mu sync.Mutex
}

// NewColumnManager constructs a new value for this package.
func NewColumnManager(store KVStore, opts ...ColumnOption) *ColumnManager {
	m := &ColumnManager{
		store:  store,
		logger: log.New(io.Discard),
		newID:  NewColumnID,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GetColumns returns the columns sorted by order, falling back to the defaults when nothing is
// stored or the stored blob cannot be decoded.
func (m *ColumnManager) GetColumns(ctx context.Context) ([]domain.Column, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load(ctx)
}

// GetColumnByID returns one column.
func (m *ColumnManager) GetColumnByID(ctx context.Context, id string) (domain.Column, error) {
	columns, err := m.GetColumns(ctx)
	if err != nil {
		return domain.Column{}, err
	}
	idx := domain.ColumnIndex(columns, id)
	if idx < 0 {
		return domain.Column{}, fmt.Errorf("column %q: %w", id, ErrNotFound)
	}
	return columns[idx], nil
}

// AddColumn appends a column with a generated id and the default colors.
func (m *ColumnManager) AddColumn(ctx context.Context, title string) (domain.Column, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	columns, err := m.load(ctx)
	if err != nil {
		return domain.Column{}, err
	}
	id, err := m.newID()
	if err != nil {
		return domain.Column{}, err
	}
	column, err := domain.NewColumn(domain.NextColumnRecordID(columns), id, title, len(columns)+1)
	if err != nil {
		return domain.Column{}, err
	}
	if domain.HasColumn(columns, column.ID) {
		return domain.Column{}, domain.ErrDuplicateColumn
	}
	if err := m.save(ctx, append(columns, column)); err != nil {
		return domain.Column{}, err
	}
	return column, nil
}

// RenameColumn changes a column title in place.
func (m *ColumnManager) RenameColumn(ctx context.Context, id, title string) (domain.Column, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	columns, err := m.load(ctx)
	if err != nil {
		return domain.Column{}, err
	}
	idx := domain.ColumnIndex(columns, id)
	if idx < 0 {
		return domain.Column{}, fmt.Errorf("column %q: %w", id, ErrNotFound)
	}
	if err := columns[idx].Rename(title); err != nil {
		return domain.Column{}, err
	}
	if err := m.save(ctx, columns); err != nil {
		return domain.Column{}, err
	}
	return columns[idx], nil
}

// RemoveColumn deletes a column and renumbers the rest. Tasks are not touched here; use
// Board.RemoveColumn to reassign them first.
func (m *ColumnManager) RemoveColumn(ctx context.Context, id string) ([]domain.Column, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	columns, err := m.load(ctx)
	if err != nil {
		return nil, err
	}
	idx := domain.ColumnIndex(columns, id)
	if idx < 0 {
		return nil, fmt.Errorf("column %q: %w", id, ErrNotFound)
	}
	next, err := domain.RemoveColumnAt(columns, idx)
	if err != nil {
		return nil, err
	}
	if err := m.save(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

// ReorderColumns moves the column at index from to index to. Equal indexes do not write.
func (m *ColumnManager) ReorderColumns(ctx context.Context, from, to int) ([]domain.Column, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	columns, err := m.load(ctx)
	if err != nil {
		return nil, err
	}
	next, err := domain.MoveColumn(columns, from, to)
	if err != nil {
		return nil, err
	}
	if from == to {
		return next, nil
	}
	if err := m.save(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

// SaveColumns validates and replaces the full column set. Ids and titles are trimmed, then entries
// are stable-sorted by their Order and renumbered before writing; invalid input leaves the stored blob untouched.
func (m *ColumnManager) SaveColumns(ctx context.Context, columns []domain.Column) ([]domain.Column, error) {
	columns = domain.TrimColumns(columns)
	if err := domain.ValidateColumns(columns); err != nil {
		return nil, err
	}
	next := domain.SortColumns(columns)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.save(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

// ResetToDefaults drops the stored blob and returns the built-in columns.
func (m *ColumnManager) ResetToDefaults(ctx context.Context) ([]domain.Column, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.DeleteSetting(ctx, ColumnsStorageKey); err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("reset columns: %w: %w", ErrPersistence, err)
	}
	return domain.DefaultColumns(), nil
}

func (m *ColumnManager) load(ctx context.Context) ([]domain.Column, error) {
	raw, err := m.store.GetSetting(ctx, ColumnsStorageKey)
	if errors.Is(err, ErrNotFound) {
		return domain.DefaultColumns(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load columns: %w: %w", ErrPersistence, err)
	}
	var stored []storedColumn
	if err := json.Unmarshal(raw, &stored); err != nil {
		m.logger.Warn("column config unreadable, using defaults", "key", ColumnsStorageKey, "err", err)
		return domain.DefaultColumns(), nil
	}
	columns := make([]domain.Column, 0, len(stored))
	for _, sc := range stored {
		columns = append(columns, domain.Column{
			RecordID: sc.RecordID,
			ID:       sc.ID,
			Title:    sc.Title,
			Color:    sc.Color,
			BgColor:  sc.BgColor,
			Order:    sc.Order,
		})
	}
	columns = domain.TrimColumns(columns)
	if err := domain.ValidateColumns(columns); err != nil {
		m.logger.Warn("column config invalid, using defaults", "key", ColumnsStorageKey, "err", err)
		return domain.DefaultColumns(), nil
	}
	return domain.SortColumns(columns), nil
}

func (m *ColumnManager) save(ctx context.Context, columns []domain.Column) error {
	stored := make([]storedColumn, 0, len(columns))
	for _, c := range columns {
		stored = append(stored, storedColumn{
			RecordID: c.RecordID,
			ID:       c.ID,
			Title:    c.Title,
			Color:    c.Color,
			BgColor:  c.BgColor,
			Order:    c.Order,
		})
	}
	raw, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("encode columns: %w", err)
	}
	if err := m.store.SetSetting(ctx, ColumnsStorageKey, raw); err != nil {
		return fmt.Errorf("save columns: %w: %w", ErrPersistence, err)
	}
	return nil
}
