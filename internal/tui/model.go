package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/log"

	"github.com/evanschultz/kanboard/internal/app"
	"github.com/evanschultz/kanboard/internal/domain"
	"github.com/evanschultz/kanboard/internal/interaction"
)

// Board is the task working set the view renders and mutates. *app.Board implements it.
type Board interface {
	interaction.Board
	Scope() int64
	SetScope(context.Context, int64) error
	Grouped([]domain.Column) []domain.ColumnTasks
	Task(int64) (domain.Task, bool)
	Create(context.Context, domain.TaskInput) (domain.Task, error)
	Update(context.Context, int64, domain.TaskPatch) (domain.Task, error)
	Delete(context.Context, int64) error
	RemoveColumn(context.Context, string, string) ([]domain.Column, error)
	Stats([]domain.Column, time.Time) domain.BoardStats
	Upcoming(time.Time, int) []domain.Task
	Workload([]domain.Column) []domain.MemberWorkload
}

// Columns manages the column configuration. *app.ColumnManager implements it.
type Columns interface {
	GetColumns(context.Context) ([]domain.Column, error)
	AddColumn(context.Context, string) (domain.Column, error)
	RenameColumn(context.Context, string, string) (domain.Column, error)
	ReorderColumns(context.Context, int, int) ([]domain.Column, error)
	ResetToDefaults(context.Context) ([]domain.Column, error)
}

// Projects lists the projects offered by the scope switcher. *app.Service implements it.
type Projects interface {
	ListProjects(context.Context) ([]domain.Project, error)
	EnsureDefaultProject(context.Context) (domain.Project, error)
}

// inputMode represents a modal state layered over the board.
type inputMode int

const (
	modeNone inputMode = iota
	modeAddTask
	modeEditTitle
	modeFilter
	modeAddColumn
	modeRenameColumn
	modeReassign
	modeConfirmDelete
	modeConfirmBulkDelete
	modeTaskInfo
	modeStats
)

// sortCycle is the order the sort key rotates through.
var sortCycle = []domain.SortKey{domain.SortUpdated, domain.SortPriority, domain.SortDueDate}

// priorityCycle is the order single-task priority rotates through.
var priorityCycle = []domain.Priority{domain.PriorityLow, domain.PriorityMedium, domain.PriorityHigh}

// Model is the bubbletea board model.
type Model struct {
	board       Board
	columnStore Columns
	projectSvc  Projects
	ctrl        *interaction.Controller

	ready  bool
	width  int
	height int
	err    error
	status string

	help help.Model
	keys keyMap

	now           func() time.Time
	logger        *log.Logger
	copy          ClipboardFunc
	md            *markdownRenderer
	sort          domain.SortKey
	upcomingLimit int
	scope         int64

	projects       []domain.Project
	columns        []domain.Column
	selectedColumn int
	selectedTask   int

	mode         inputMode
	input        textinput.Model
	filterQuery  string
	targetTaskID int64
	reassignFrom string
	reassignIdx  int
}

// loadedMsg carries a full refresh of projects, columns and the board working set.
type loadedMsg struct {
	projects []domain.Project
	columns  []domain.Column
	err      error
}

// actionMsg reports the outcome of one asynchronous mutation.
type actionMsg struct {
	status      string
	err         error
	columns     []domain.Column
	focusTaskID int64
	// needsReassign names a column whose removal is waiting on a reassignment target.
	needsReassign string
}

// NewModel constructs the board model.
func NewModel(board Board, columns Columns, projects Projects, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	m := Model{
		board:         board,
		columnStore:   columns,
		projectSvc:    projects,
		ctrl:          interaction.NewController(board, nil),
		status:        "loading...",
		help:          h,
		keys:          newKeyMap(),
		now:           time.Now,
		logger:        log.New(io.Discard),
		copy:          defaultClipboard,
		md:            &markdownRenderer{},
		sort:          domain.SortUpdated,
		upcomingLimit: 5,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	return m
}

// Init loads the initial board.
func (m Model) Init() tea.Cmd {
	return m.loadData
}

// Update applies one message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.projects = msg.projects
		m.setColumns(msg.columns)
		m.pruneSelection()
		if m.status == "" || strings.HasSuffix(m.status, "loading...") {
			m.status = "ready"
		}
		return m, nil

	case actionMsg:
		if msg.err != nil {
			m.logger.Warn("board action failed", "err", msg.err)
			m.status = "error: " + msg.err.Error()
			return m, nil
		}
		if msg.needsReassign != "" {
			m.startReassign(msg.needsReassign)
			return m, nil
		}
		if msg.columns != nil {
			m.setColumns(msg.columns)
		}
		if msg.focusTaskID > 0 {
			m.focusTask(msg.focusTaskID)
		}
		m.pruneSelection()
		m.clampSelections()
		if msg.status != "" {
			m.status = msg.status
		}
		return m, nil

	case tea.KeyPressMsg:
		if m.mode != modeNone {
			return m.handleInputModeKey(msg)
		}
		return m.handleNormalModeKey(msg)

	case tea.MouseClickMsg:
		return m.handleMouseClick(msg)

	case tea.MouseMotionMsg:
		return m.handleMouseMotion(msg)

	case tea.MouseReleaseMsg:
		return m.handleMouseRelease(msg)

	default:
		return m, nil
	}
}

// loadData reloads projects, columns and the working set of the current scope.
func (m Model) loadData() tea.Msg {
	ctx := context.Background()
	projects, err := m.projectSvc.ListProjects(ctx)
	if err != nil {
		return loadedMsg{err: err}
	}
	if err := m.board.SetScope(ctx, m.scope); err != nil {
		return loadedMsg{err: err}
	}
	columns, err := m.columnStore.GetColumns(ctx)
	if err != nil {
		return loadedMsg{err: err}
	}
	return loadedMsg{projects: projects, columns: columns}
}

// handleNormalModeKey handles keys while no modal is open.
func (m Model) handleNormalModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if m.ctrl.State() == interaction.DragDragging {
		return m.handleDragKey(msg)
	}
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case msg.String() == "esc":
		switch {
		case m.help.ShowAll:
			m.help.ShowAll = false
		case m.ctrl.ToolbarVisible():
			n := len(m.ctrl.Selected())
			m.ctrl.Clear()
			m.status = fmt.Sprintf("cleared %d selected tasks", n)
		case m.filterQuery != "":
			m.setFilter("")
			m.clampSelections()
			m.status = "filter cleared"
		}
		return m, nil
	case key.Matches(msg, m.keys.reload):
		m.status = "reloading..."
		return m, m.loadData
	case key.Matches(msg, m.keys.moveLeft):
		if m.selectedColumn > 0 {
			m.selectedColumn--
			m.selectedTask = 0
		}
		return m, nil
	case key.Matches(msg, m.keys.moveRight):
		if m.selectedColumn < len(m.columns)-1 {
			m.selectedColumn++
			m.selectedTask = 0
		}
		return m, nil
	case key.Matches(msg, m.keys.moveUp):
		if m.selectedTask > 0 {
			m.selectedTask--
		}
		return m, nil
	case key.Matches(msg, m.keys.moveDown):
		if m.selectedTask < len(m.currentColumnTasks())-1 {
			m.selectedTask++
		}
		return m, nil
	case key.Matches(msg, m.keys.project):
		m.scope = m.nextScope()
		m.ctrl.Clear()
		m.selectedTask = 0
		m.status = "project: " + m.scopeName()
		return m, m.loadData
	case key.Matches(msg, m.keys.sort):
		idx := slices.Index(sortCycle, m.sort)
		m.sort = sortCycle[(idx+1)%len(sortCycle)]
		m.status = "sort: " + string(m.sort)
		return m, nil
	case key.Matches(msg, m.keys.filter):
		return m, m.startInput(modeFilter, "filter: ", "title or description", m.filterQuery)
	case key.Matches(msg, m.keys.stats):
		m.mode = modeStats
		return m, nil
	case key.Matches(msg, m.keys.addTask):
		if _, ok := m.currentColumn(); !ok {
			m.status = "no column to add to"
			return m, nil
		}
		return m, m.startInput(modeAddTask, "title: ", "new task title", "")
	case key.Matches(msg, m.keys.addColumn):
		return m, m.startInput(modeAddColumn, "column: ", "new column title", "")
	case key.Matches(msg, m.keys.renameCol):
		column, ok := m.currentColumn()
		if !ok {
			return m, nil
		}
		return m, m.startInput(modeRenameColumn, "rename: ", "column title", column.Title)
	case key.Matches(msg, m.keys.removeCol):
		column, ok := m.currentColumn()
		if !ok {
			return m, nil
		}
		return m, m.removeColumnCmd(column.ID, "")
	case key.Matches(msg, m.keys.colLeft):
		return m, m.reorderColumnCmd(-1)
	case key.Matches(msg, m.keys.colRight):
		return m, m.reorderColumnCmd(1)
	case key.Matches(msg, m.keys.resetCols):
		return m, m.resetColumnsCmd()
	case key.Matches(msg, m.keys.selectCol):
		column, ok := m.currentColumn()
		if !ok {
			return m, nil
		}
		m.ctrl.ToggleColumn(column.ID)
		m.status = fmt.Sprintf("%d tasks selected", len(m.ctrl.Selected()))
		return m, nil
	case key.Matches(msg, m.keys.bulkMove):
		return m.bulkMoveHere()
	case key.Matches(msg, m.keys.bulkPrio):
		return m.bulkSetPriority(domain.PriorityHigh)
	case key.Matches(msg, m.keys.bulkDelete):
		if n := m.ctrl.RequestBulkDelete(); n > 0 {
			m.mode = modeConfirmBulkDelete
			m.status = fmt.Sprintf("delete %d tasks? y/n", n)
		} else {
			m.status = "nothing selected"
		}
		return m, nil
	}

	task, ok := m.currentTask()
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.taskInfo):
		m.mode = modeTaskInfo
		m.targetTaskID = task.ID
		return m, nil
	case key.Matches(msg, m.keys.editTask):
		m.targetTaskID = task.ID
		return m, m.startInput(modeEditTitle, "title: ", "task title", task.Title)
	case key.Matches(msg, m.keys.copyTask):
		m.copyTask(task)
		return m, nil
	case key.Matches(msg, m.keys.deleteTask):
		m.mode = modeConfirmDelete
		m.targetTaskID = task.ID
		m.status = fmt.Sprintf("delete #%d? y/n", task.ID)
		return m, nil
	case key.Matches(msg, m.keys.cyclePrio):
		idx := slices.Index(priorityCycle, task.Priority)
		next := priorityCycle[(idx+1)%len(priorityCycle)]
		return m, m.updateTaskCmd(task.ID, domain.TaskPatch{Priority: &next}, fmt.Sprintf("#%d priority %s", task.ID, next))
	case key.Matches(msg, m.keys.taskLeft):
		return m, m.moveTaskCmd(task, -1)
	case key.Matches(msg, m.keys.taskRight):
		return m, m.moveTaskCmd(task, 1)
	case key.Matches(msg, m.keys.grab):
		m.ctrl.DragStart(task)
		m.ctrl.DragEnter(task.Status)
		m.status = fmt.Sprintf("dragging #%d: h/l choose column, enter drop, esc cancel", task.ID)
		return m, nil
	case key.Matches(msg, m.keys.toggleSel):
		m.ctrl.Toggle(task.ID)
		m.status = fmt.Sprintf("%d tasks selected", len(m.ctrl.Selected()))
		return m, nil
	}
	return m, nil
}

// handleDragKey steers a keyboard drag across columns.
func (m Model) handleDragKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	hover := domain.ColumnIndex(m.columns, m.ctrl.Hover())
	switch {
	case msg.String() == "esc":
		m.ctrl.DragEnd()
		m.status = "drag cancelled"
	case key.Matches(msg, m.keys.moveLeft), key.Matches(msg, m.keys.moveRight):
		step := 1
		if key.Matches(msg, m.keys.moveLeft) {
			step = -1
		}
		next := clamp(hover+step, 0, len(m.columns)-1)
		if hover >= 0 {
			m.ctrl.DragLeave(m.columns[hover].ID)
		}
		m.ctrl.DragEnter(m.columns[next].ID)
	case msg.String() == "enter" || key.Matches(msg, m.keys.grab):
		return m.drop(m.ctrl.Hover())
	case key.Matches(msg, m.keys.quit):
		m.ctrl.DragEnd()
		return m, tea.Quit
	}
	return m, nil
}

// drop finishes the drag over columnID and focuses the moved task.
func (m Model) drop(columnID string) (tea.Model, tea.Cmd) {
	dragged, _ := m.ctrl.Dragged()
	outcome, err := m.ctrl.Drop(context.Background(), columnID)
	if err != nil {
		m.logger.Warn("drop failed", "task_id", dragged.ID, "column", columnID, "err", err)
		m.status = "error: " + err.Error()
		return m, nil
	}
	if outcome == interaction.DropMoved {
		m.focusTask(dragged.ID)
		m.status = fmt.Sprintf("moved #%d to %s", dragged.ID, columnID)
		return m, nil
	}
	m.status = "drop cancelled"
	return m, nil
}

// handleInputModeKey handles keys while a modal is open.
func (m Model) handleInputModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeTaskInfo:
		switch {
		case msg.String() == "esc", key.Matches(msg, m.keys.taskInfo):
			m.mode = modeNone
		case key.Matches(msg, m.keys.copyTask):
			if task, ok := m.board.Task(m.targetTaskID); ok {
				m.copyTask(task)
			}
		}
		return m, nil
	case modeStats:
		if msg.String() == "esc" || key.Matches(msg, m.keys.stats) {
			m.mode = modeNone
		}
		return m, nil
	case modeConfirmDelete:
		m.mode = modeNone
		if msg.String() == "y" || msg.String() == "enter" {
			return m, m.deleteTaskCmd(m.targetTaskID)
		}
		m.status = "delete cancelled"
		return m, nil
	case modeConfirmBulkDelete:
		m.mode = modeNone
		if msg.String() == "y" || msg.String() == "enter" {
			n, err := m.ctrl.ConfirmBulkDelete(context.Background())
			if err != nil {
				m.status = "error: " + err.Error()
				return m, nil
			}
			m.clampSelections()
			m.status = fmt.Sprintf("deleted %d tasks", n)
			return m, nil
		}
		m.ctrl.CancelBulkDelete()
		m.status = "bulk delete cancelled"
		return m, nil
	case modeReassign:
		targets := m.reassignTargets()
		switch {
		case msg.String() == "esc":
			m.mode = modeNone
			m.status = "remove column cancelled"
		case key.Matches(msg, m.keys.moveLeft), key.Matches(msg, m.keys.moveUp):
			m.reassignIdx = clamp(m.reassignIdx-1, 0, len(targets)-1)
		case key.Matches(msg, m.keys.moveRight), key.Matches(msg, m.keys.moveDown):
			m.reassignIdx = clamp(m.reassignIdx+1, 0, len(targets)-1)
		case msg.String() == "enter":
			m.mode = modeNone
			if len(targets) == 0 {
				return m, nil
			}
			return m, m.removeColumnCmd(m.reassignFrom, targets[m.reassignIdx].ID)
		}
		return m, nil
	}

	switch msg.String() {
	case "esc":
		m.mode = modeNone
		m.input.Blur()
		m.status = "cancelled"
		return m, nil
	case "enter":
		return m.submitInput()
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// startInput opens a single-line text modal.
func (m *Model) startInput(mode inputMode, prompt, placeholder, value string) tea.Cmd {
	in := textinput.New()
	in.Prompt = prompt
	in.Placeholder = placeholder
	in.CharLimit = 200
	if value != "" {
		in.SetValue(value)
		in.CursorEnd()
	}
	m.input = in
	m.mode = mode
	return m.input.Focus()
}

// submitInput applies the open text modal.
func (m Model) submitInput() (tea.Model, tea.Cmd) {
	value := strings.TrimSpace(m.input.Value())
	mode := m.mode
	m.mode = modeNone
	m.input.Blur()

	switch mode {
	case modeFilter:
		m.setFilter(value)
		m.selectedTask = 0
		if value == "" {
			m.status = "filter cleared"
		} else {
			m.status = "filter: " + value
		}
		return m, nil
	case modeAddTask:
		column, ok := m.currentColumn()
		if !ok || value == "" {
			m.status = "task title required"
			return m, nil
		}
		return m, m.createTaskCmd(value, column.ID)
	case modeEditTitle:
		if value == "" {
			m.status = "task title required"
			return m, nil
		}
		return m, m.updateTaskCmd(m.targetTaskID, domain.TaskPatch{Title: &value}, fmt.Sprintf("renamed #%d", m.targetTaskID))
	case modeAddColumn:
		return m, m.addColumnCmd(value)
	case modeRenameColumn:
		column, ok := m.currentColumn()
		if !ok {
			return m, nil
		}
		return m, m.renameColumnCmd(column.ID, value)
	}
	return m, nil
}

// bulkMoveHere moves the selection into the cursor column.
func (m Model) bulkMoveHere() (tea.Model, tea.Cmd) {
	column, ok := m.currentColumn()
	if !ok || !m.ctrl.ToolbarVisible() {
		m.status = "nothing selected"
		return m, nil
	}
	moved, err := m.ctrl.BulkMove(context.Background(), column.ID)
	if err != nil {
		m.status = "error: " + err.Error()
		return m, nil
	}
	m.clampSelections()
	m.status = fmt.Sprintf("moved %d tasks to %s", len(moved), column.Title)
	return m, nil
}

// bulkSetPriority applies priority to the selection.
func (m Model) bulkSetPriority(priority domain.Priority) (tea.Model, tea.Cmd) {
	if !m.ctrl.ToolbarVisible() {
		m.status = "nothing selected"
		return m, nil
	}
	updated, err := m.ctrl.BulkUpdate(context.Background(), domain.TaskPatch{Priority: &priority})
	if err != nil {
		m.status = "error: " + err.Error()
		return m, nil
	}
	m.status = fmt.Sprintf("set %d tasks to %s", len(updated), priority)
	return m, nil
}

// copyTask writes a plain-text rendition of task to the clipboard.
func (m *Model) copyTask(task domain.Task) {
	text := fmt.Sprintf("#%d %s", task.ID, task.Title)
	if task.Description != "" {
		text += "\n\n" + task.Description
	}
	if err := m.copy(text); err != nil {
		m.logger.Warn("clipboard write failed", "task_id", task.ID, "err", err)
		m.status = "copy failed: " + err.Error()
		return
	}
	m.status = fmt.Sprintf("copied #%d", task.ID)
}

func (m Model) createTaskCmd(title, status string) tea.Cmd {
	scope := m.scope
	return func() tea.Msg {
		ctx := context.Background()
		projectID := scope
		if projectID <= 0 {
			project, err := m.projectSvc.EnsureDefaultProject(ctx)
			if err != nil {
				return actionMsg{err: err}
			}
			projectID = project.ID
		}
		task, err := m.board.Create(ctx, domain.TaskInput{ProjectID: projectID, Title: title, Status: status})
		if err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{status: fmt.Sprintf("created #%d", task.ID), focusTaskID: task.ID}
	}
}

func (m Model) updateTaskCmd(id int64, patch domain.TaskPatch, status string) tea.Cmd {
	return func() tea.Msg {
		task, err := m.board.Update(context.Background(), id, patch)
		if err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{status: status, focusTaskID: task.ID}
	}
}

func (m Model) deleteTaskCmd(id int64) tea.Cmd {
	return func() tea.Msg {
		if err := m.board.Delete(context.Background(), id); err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{status: fmt.Sprintf("deleted #%d", id)}
	}
}

// moveTaskCmd moves task one column left or right of its current column.
func (m Model) moveTaskCmd(task domain.Task, delta int) tea.Cmd {
	idx := domain.ColumnIndex(m.columns, task.Status)
	next := idx + delta
	if idx < 0 || next < 0 || next >= len(m.columns) {
		return nil
	}
	target := m.columns[next]
	return func() tea.Msg {
		moved, err := m.board.MoveStatus(context.Background(), task.ID, target.ID)
		if err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{status: fmt.Sprintf("moved #%d to %s", moved.ID, target.Title), focusTaskID: moved.ID}
	}
}

func (m Model) addColumnCmd(title string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		column, err := m.columnStore.AddColumn(ctx, title)
		if err != nil {
			return actionMsg{err: err}
		}
		columns, err := m.columnStore.GetColumns(ctx)
		if err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{status: "added column " + column.Title, columns: columns}
	}
}

func (m Model) renameColumnCmd(id, title string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		column, err := m.columnStore.RenameColumn(ctx, id, title)
		if err != nil {
			return actionMsg{err: err}
		}
		columns, err := m.columnStore.GetColumns(ctx)
		if err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{status: "renamed column to " + column.Title, columns: columns}
	}
}

// removeColumnCmd removes id. An empty reassignTo that turns out to be required opens the
// reassignment picker instead of failing.
func (m Model) removeColumnCmd(id, reassignTo string) tea.Cmd {
	return func() tea.Msg {
		columns, err := m.board.RemoveColumn(context.Background(), id, reassignTo)
		if errors.Is(err, app.ErrReassignmentRequired) {
			return actionMsg{needsReassign: id}
		}
		if err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{status: "removed column " + id, columns: columns}
	}
}

func (m Model) reorderColumnCmd(delta int) tea.Cmd {
	from := m.selectedColumn
	to := from + delta
	if to < 0 || to >= len(m.columns) {
		return nil
	}
	return func() tea.Msg {
		columns, err := m.columnStore.ReorderColumns(context.Background(), from, to)
		if err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{status: "columns reordered", columns: columns}
	}
}

func (m Model) resetColumnsCmd() tea.Cmd {
	return func() tea.Msg {
		columns, err := m.columnStore.ResetToDefaults(context.Background())
		if err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{status: "columns reset to defaults", columns: columns}
	}
}

// startReassign opens the reassignment picker for removing column id.
func (m *Model) startReassign(id string) {
	m.mode = modeReassign
	m.reassignFrom = id
	m.reassignIdx = 0
	m.status = "column has tasks: pick a column to move them to"
}

func (m Model) reassignTargets() []domain.Column {
	out := make([]domain.Column, 0, len(m.columns))
	for _, c := range m.columns {
		if c.ID != m.reassignFrom {
			out = append(out, c)
		}
	}
	return out
}

func (m *Model) setColumns(columns []domain.Column) {
	m.columns = domain.SortColumns(columns)
	m.ctrl.SetColumns(m.columns)
	m.clampSelections()
}

// pruneSelection drops selected ids that left the working set.
func (m *Model) pruneSelection() {
	for _, id := range m.ctrl.Selected() {
		if _, ok := m.board.Task(id); !ok {
			m.ctrl.SetSelected(id, false)
		}
	}
}

func (m *Model) clampSelections() {
	m.selectedColumn = clamp(m.selectedColumn, 0, len(m.columns)-1)
	m.selectedTask = clamp(m.selectedTask, 0, len(m.currentColumnTasks())-1)
}

// focusTask moves the cursor onto id when it is visible.
func (m *Model) focusTask(id int64) {
	for colIdx, group := range m.visibleGroups() {
		for taskIdx, task := range group.Tasks {
			if task.ID == id {
				m.selectedColumn = colIdx
				m.selectedTask = taskIdx
				return
			}
		}
	}
	m.clampSelections()
}

// setFilter applies query to the board and to column-wide selection.
func (m *Model) setFilter(query string) {
	m.filterQuery = query
	if query == "" {
		m.ctrl.SetVisible(nil)
		return
	}
	board := m.board
	m.ctrl.SetVisible(func(id int64) bool {
		task, ok := board.Task(id)
		return ok && domain.MatchesQuery(task, query)
	})
}

// visibleGroups buckets the working set by column after filtering and sorting.
func (m Model) visibleGroups() []domain.ColumnTasks {
	groups := m.board.Grouped(m.columns)
	for i := range groups {
		tasks := groups[i].Tasks
		if m.filterQuery != "" {
			tasks = slices.DeleteFunc(tasks, func(t domain.Task) bool {
				return !domain.MatchesQuery(t, m.filterQuery)
			})
		}
		groups[i].Tasks = domain.SortTasks(tasks, m.sort)
	}
	return groups
}

func (m Model) currentColumn() (domain.Column, bool) {
	if len(m.columns) == 0 {
		return domain.Column{}, false
	}
	return m.columns[clamp(m.selectedColumn, 0, len(m.columns)-1)], true
}

func (m Model) currentColumnTasks() []domain.Task {
	groups := m.visibleGroups()
	if len(groups) == 0 {
		return nil
	}
	return groups[clamp(m.selectedColumn, 0, len(groups)-1)].Tasks
}

func (m Model) currentTask() (domain.Task, bool) {
	tasks := m.currentColumnTasks()
	if len(tasks) == 0 {
		return domain.Task{}, false
	}
	return tasks[clamp(m.selectedTask, 0, len(tasks)-1)], true
}

// nextScope rotates all projects -> each project -> all projects.
func (m Model) nextScope() int64 {
	if len(m.projects) == 0 {
		return 0
	}
	idx := slices.IndexFunc(m.projects, func(p domain.Project) bool { return p.ID == m.scope })
	if idx+1 >= len(m.projects) {
		return 0
	}
	return m.projects[idx+1].ID
}

func (m Model) scopeName() string {
	if m.scope == 0 {
		return "all projects"
	}
	for _, p := range m.projects {
		if p.ID == m.scope {
			return p.Name
		}
	}
	return fmt.Sprintf("project %d", m.scope)
}

// clamp bounds v to [minV, maxV]; an empty range yields minV.
func clamp(v, minV, maxV int) int {
	if maxV < minV {
		return minV
	}
	return min(max(v, minV), maxV)
}
