package tui

import (
	"fmt"
	"image/color"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/evanschultz/kanboard/internal/domain"
	"github.com/evanschultz/kanboard/internal/interaction"
)

// Board layout: header, project tabs and a spacer sit above the column boxes. Each box has a
// top border and a title line before the first task, and every task takes two lines.
const (
	boardTop      = 3
	taskRowsStart = boardTop + 2
	taskRowHeight = 2
	footerLines   = 5
	minSlotWidth  = 16
)

// columnHintColors maps stored column color hints onto terminal palette colors.
var columnHintColors = map[string]string{
	"text-gray-700": "250",
	"text-info":     "75",
	"text-warning":  "214",
	"text-success":  "78",
	"text-danger":   "203",
}

// View renders the board.
func (m Model) View() tea.View {
	return newBoardView(m.render())
}

// render draws the full screen as text.
func (m Model) render() string {
	if m.err != nil {
		return "error: " + m.err.Error() + "\n\npress r to retry • q quit\n"
	}
	if !m.ready {
		return "loading..."
	}

	muted := lipgloss.Color("241")
	dim := lipgloss.Color("239")
	accent := lipgloss.Color("62")
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	statusStyle := lipgloss.NewStyle().Foreground(dim)

	header := titleStyle.Render("kanboard") + "  " + m.scopeName() + statusStyle.Render("  sort: "+string(m.sort))
	if m.filterQuery != "" {
		header += statusStyle.Render("  filter: " + m.filterQuery)
	}
	sections := []string{
		truncateLine(header, m.width),
		truncateLine(m.renderProjectTabs(accent, muted), m.width),
		"",
		m.renderColumns(accent, muted, dim),
	}

	if dragged, ok := m.ctrl.Dragged(); ok {
		target := m.ctrl.Hover()
		if target == "" {
			target = "(no column)"
		}
		sections = append(sections, statusStyle.Render(fmt.Sprintf("dragging #%d %s → %s", dragged.ID, dragged.Title, target)))
	}
	if m.ctrl.ToolbarVisible() {
		sections = append(sections, statusStyle.Render(fmt.Sprintf(
			"%d selected • %s move here • %s high priority • %s delete • esc clear",
			len(m.ctrl.Selected()),
			m.keys.bulkMove.Help().Key,
			m.keys.bulkPrio.Help().Key,
			m.keys.bulkDelete.Help().Key,
		)))
	}
	stats := m.board.Stats(m.columns, m.now())
	sections = append(sections, statusStyle.Render(fmt.Sprintf("%d tasks • %.0f%% done • %d overdue", stats.Total, stats.Progress, stats.Overdue)))
	if strings.TrimSpace(m.status) != "" && m.status != "ready" {
		sections = append(sections, statusStyle.Render(m.status))
	}
	content := strings.Join(sections, "\n")

	helpBubble := m.help
	helpBubble.ShowAll = false
	helpBubble.SetWidth(max(0, m.width-2))
	helpLine := lipgloss.NewStyle().
		Foreground(muted).
		BorderTop(true).
		BorderForeground(dim).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(helpBubble.View(m.keys))
	if m.height > 0 {
		content = fitLines(content, max(0, m.height-lipgloss.Height(helpLine)))
	}
	full := content + "\n" + helpLine

	if overlay := m.renderOverlay(accent, muted); overlay != "" {
		height := lipgloss.Height(full)
		if m.height > 0 {
			height = m.height
		}
		full = overlayOnContent(full, overlay, max(1, m.width), max(1, height))
	}
	return full
}

func newBoardView(content string) tea.View {
	v := tea.NewView(content)
	v.MouseMode = tea.MouseModeCellMotion
	v.AltScreen = true
	return v
}

func (m Model) renderProjectTabs(accent, muted color.Color) string {
	active := lipgloss.NewStyle().Bold(true).Foreground(accent)
	inactive := lipgloss.NewStyle().Foreground(muted)
	tabs := make([]string, 0, len(m.projects)+1)
	render := func(name string, on bool) string {
		if on {
			return active.Render("[" + name + "]")
		}
		return inactive.Render(" " + name + " ")
	}
	tabs = append(tabs, render("All", m.scope == 0))
	for _, p := range m.projects {
		tabs = append(tabs, render(p.Name, p.ID == m.scope))
	}
	return strings.Join(tabs, " ")
}

func (m Model) renderColumns(accent, muted, dim color.Color) string {
	if len(m.columns) == 0 {
		return lipgloss.NewStyle().Foreground(muted).Render("no columns: press C to add one")
	}
	slot := m.slotWidth()
	inner := max(4, slot-6)
	visible := m.visibleTaskRows()
	now := m.now()
	terminal, _ := domain.TerminalColumn(m.columns)

	hover := m.ctrl.Hover()
	dragging := m.ctrl.State() == interaction.DragDragging
	dragged, _ := m.ctrl.Dragged()

	cursorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	pickedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Background(lipgloss.Color("237")).Bold(true)
	subStyle := lipgloss.NewStyle().Foreground(muted)
	overdueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("203"))

	views := make([]string, 0, len(m.columns))
	for colIdx, group := range m.visibleGroups() {
		column := group.Column
		titleColor := accent
		if hint, ok := columnHintColors[column.Color]; ok {
			titleColor = lipgloss.Color(hint)
		}
		check := "[ ]"
		if len(group.Tasks) > 0 && m.ctrl.ColumnFullySelected(column.ID) {
			check = "[x]"
		}
		lines := []string{lipgloss.NewStyle().Bold(true).Foreground(titleColor).Render(
			truncate(fmt.Sprintf("%s %s (%d)", check, column.Title, len(group.Tasks)), inner),
		)}

		offset := m.taskOffset(colIdx, len(group.Tasks))
		end := min(len(group.Tasks), offset+visible)
		if len(group.Tasks) == 0 {
			lines = append(lines, subStyle.Render("(empty)"))
		}
		for taskIdx := offset; taskIdx < end; taskIdx++ {
			task := group.Tasks[taskIdx]
			cursor := colIdx == m.selectedColumn && taskIdx == m.selectedTask
			picked := m.ctrl.IsSelected(task.ID)

			prefix := "  "
			switch {
			case cursor && picked:
				prefix = "│*"
			case cursor:
				prefix = "│ "
			case picked:
				prefix = " *"
			}
			if dragging && task.ID == dragged.ID {
				prefix = "⇄ "
			}
			title := prefix + truncate(fmt.Sprintf("#%d %s", task.ID, task.Title), inner-2)
			switch {
			case cursor:
				title = cursorStyle.Render(title)
			case picked:
				title = pickedStyle.Render(title)
			}
			meta := "  " + truncate(taskMeta(task), inner-2)
			if domain.IsOverdue(task, terminal.ID, now) {
				meta = overdueStyle.Render(meta)
			} else {
				meta = subStyle.Render(meta)
			}
			lines = append(lines, title, meta)
		}

		border := dim
		switch {
		case dragging && column.ID == hover:
			border = lipgloss.Color("212")
		case colIdx == m.selectedColumn:
			border = accent
		}
		box := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Padding(0, 1).
			Width(max(1, slot-1)).
			Render(fitLines(strings.Join(lines, "\n"), 1+visible*taskRowHeight))
		views = append(views, box)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, views...)
}

// taskMeta summarizes priority, due date and assignee on one line.
func taskMeta(task domain.Task) string {
	parts := []string{string(task.Priority)}
	if task.DueDate != nil {
		parts = append(parts, "due "+task.DueDate.Format("Jan 2"))
	}
	if task.Assignee != "" {
		parts = append(parts, "@"+task.Assignee)
	}
	return strings.Join(parts, " · ")
}

func (m Model) renderOverlay(accent, muted color.Color) string {
	width := max(30, min(m.width-8, 72))
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(0, 1).
		Width(width)
	title := lipgloss.NewStyle().Bold(true).Foreground(accent)
	hint := lipgloss.NewStyle().Foreground(muted)

	if m.help.ShowAll {
		hb := m.help
		hb.ShowAll = true
		hb.SetWidth(width - 4)
		return box.Render(title.Render("keys") + "\n\n" + hb.View(m.keys))
	}

	switch m.mode {
	case modeAddTask, modeEditTitle, modeFilter, modeAddColumn, modeRenameColumn:
		label := map[inputMode]string{
			modeAddTask:      "New task",
			modeEditTitle:    "Edit title",
			modeFilter:       "Filter tasks",
			modeAddColumn:    "Add column",
			modeRenameColumn: "Rename column",
		}[m.mode]
		return box.Render(title.Render(label) + "\n\n" + m.input.View() + "\n\n" + hint.Render("enter save • esc cancel"))
	case modeConfirmDelete:
		return box.Render(title.Render("Delete task") + "\n\n" + fmt.Sprintf("Delete #%d?", m.targetTaskID) + "\n\n" + hint.Render("y confirm • n cancel"))
	case modeConfirmBulkDelete:
		return box.Render(title.Render("Delete selected") + "\n\n" + fmt.Sprintf("Delete %d tasks?", m.ctrl.PendingDelete()) + "\n\n" + hint.Render("y confirm • n cancel"))
	case modeReassign:
		lines := []string{title.Render("Move tasks out of " + m.reassignFrom), ""}
		for i, c := range m.reassignTargets() {
			marker := "  "
			if i == m.reassignIdx {
				marker = "> "
			}
			lines = append(lines, marker+c.Title)
		}
		lines = append(lines, "", hint.Render("j/k choose • enter remove column • esc cancel"))
		return box.Render(strings.Join(lines, "\n"))
	case modeTaskInfo:
		return box.Render(m.renderTaskInfo(width-4, title, hint))
	case modeStats:
		return box.Render(m.renderStats(title, hint))
	}
	return ""
}

func (m Model) renderTaskInfo(width int, title, hint lipgloss.Style) string {
	task, ok := m.board.Task(m.targetTaskID)
	if !ok {
		return hint.Render("task no longer on the board")
	}
	lines := []string{
		title.Render(fmt.Sprintf("#%d %s", task.ID, task.Title)),
		hint.Render(fmt.Sprintf("%s · %s · updated %s", task.Status, taskMeta(task), task.UpdatedAt.Format("2006-01-02 15:04"))),
		"",
	}
	if desc := m.md.render(task.Description, width); desc != "" {
		lines = append(lines, desc)
	} else {
		lines = append(lines, hint.Render("(no description)"))
	}
	lines = append(lines, "", hint.Render("y copy • esc close"))
	return strings.Join(lines, "\n")
}

func (m Model) renderStats(title, hint lipgloss.Style) string {
	now := m.now()
	stats := m.board.Stats(m.columns, now)
	lines := []string{
		title.Render("Board stats: " + m.scopeName()),
		"",
		fmt.Sprintf("total %d • completed %d (%.0f%%)", stats.Total, stats.Completed, stats.Progress),
		fmt.Sprintf("high priority %d • overdue %d • orphaned %d", stats.HighPriority, stats.Overdue, stats.Orphaned),
		"",
	}
	for _, c := range stats.ByColumn {
		lines = append(lines, fmt.Sprintf("%-16s %d", truncate(c.Title, 16), c.Count))
	}
	if upcoming := m.board.Upcoming(now, m.upcomingLimit); len(upcoming) > 0 {
		lines = append(lines, "", title.Render("Upcoming"))
		for _, t := range upcoming {
			lines = append(lines, fmt.Sprintf("%s  #%d %s", t.DueDate.Format("Jan 2"), t.ID, truncate(t.Title, 40)))
		}
	}
	if team := m.board.Workload(m.columns); len(team) > 0 {
		lines = append(lines, "", title.Render("Team"))
		for _, w := range team {
			lines = append(lines, fmt.Sprintf("%-16s %d open / %d total (%.0f%%)", truncate(w.Assignee, 16), w.Total-w.Completed, w.Total, w.Workload))
		}
	}
	lines = append(lines, "", hint.Render("esc close"))
	return strings.Join(lines, "\n")
}

// handleMouseClick selects the task under the pointer and starts dragging it.
func (m Model) handleMouseClick(msg tea.MouseClickMsg) (tea.Model, tea.Cmd) {
	if m.mode != modeNone || m.help.ShowAll || msg.Button != tea.MouseLeft {
		return m, nil
	}
	colIdx := m.columnAt(msg.X)
	if colIdx < 0 {
		return m, nil
	}
	m.selectedColumn = colIdx
	task, taskIdx, ok := m.taskAt(colIdx, msg.Y)
	if !ok {
		m.selectedTask = 0
		return m, nil
	}
	m.selectedTask = taskIdx
	m.ctrl.DragStart(task)
	m.ctrl.DragEnter(task.Status)
	return m, nil
}

// handleMouseMotion tracks the hovered drop zone while dragging.
func (m Model) handleMouseMotion(msg tea.MouseMotionMsg) (tea.Model, tea.Cmd) {
	if m.ctrl.State() != interaction.DragDragging {
		return m, nil
	}
	target := ""
	if idx := m.columnAt(msg.X); idx >= 0 {
		target = m.columns[idx].ID
	}
	if hover := m.ctrl.Hover(); hover != target {
		m.ctrl.DragLeave(hover)
		if target != "" {
			m.ctrl.DragEnter(target)
		}
	}
	return m, nil
}

// handleMouseRelease drops the dragged task on the column under the pointer.
func (m Model) handleMouseRelease(msg tea.MouseReleaseMsg) (tea.Model, tea.Cmd) {
	if m.ctrl.State() != interaction.DragDragging {
		return m, nil
	}
	dragged, _ := m.ctrl.Dragged()
	target := ""
	if idx := m.columnAt(msg.X); idx >= 0 {
		target = m.columns[idx].ID
	}
	if target == dragged.Status {
		// A click without movement only selects.
		m.ctrl.DragEnd()
		return m, nil
	}
	return m.drop(target)
}

func (m Model) slotWidth() int {
	if len(m.columns) == 0 {
		return minSlotWidth
	}
	return max(minSlotWidth, m.width/len(m.columns))
}

func (m Model) visibleTaskRows() int {
	if m.height <= 0 {
		return 8
	}
	inner := m.height - boardTop - footerLines - 2
	return max(1, (inner-1)/taskRowHeight)
}

// taskOffset is the first task index rendered in column colIdx.
func (m Model) taskOffset(colIdx, count int) int {
	visible := m.visibleTaskRows()
	if colIdx != m.selectedColumn || count <= visible {
		return 0
	}
	return clamp(m.selectedTask-visible+1, 0, count-visible)
}

// columnAt maps a terminal x coordinate to a column index, or -1.
func (m Model) columnAt(x int) int {
	if x < 0 || len(m.columns) == 0 {
		return -1
	}
	idx := x / m.slotWidth()
	if idx >= len(m.columns) {
		return -1
	}
	return idx
}

// taskAt maps a terminal y coordinate inside column colIdx to the task rendered there.
func (m Model) taskAt(colIdx, y int) (domain.Task, int, bool) {
	groups := m.visibleGroups()
	if colIdx < 0 || colIdx >= len(groups) || y < taskRowsStart {
		return domain.Task{}, 0, false
	}
	tasks := groups[colIdx].Tasks
	row := (y - taskRowsStart) / taskRowHeight
	if row >= m.visibleTaskRows() {
		return domain.Task{}, 0, false
	}
	idx := m.taskOffset(colIdx, len(tasks)) + row
	if idx >= len(tasks) {
		return domain.Task{}, 0, false
	}
	return tasks[idx], idx, true
}

// fitLines pads or truncates content to exactly maxLines lines.
func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	switch {
	case len(lines) > maxLines:
		if maxLines == 1 {
			lines = []string{"…"}
		} else {
			lines = append(lines[:maxLines-1], "…")
		}
	case len(lines) < maxLines:
		lines = append(lines, make([]string, maxLines-len(lines))...)
	}
	return strings.Join(lines, "\n")
}

// overlayOnContent centers overlay over base using a layered canvas.
func overlayOnContent(base, overlay string, width, height int) string {
	base = fitLines(base, height)
	canvas := lipgloss.NewCanvas(width, height)
	centered := lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, overlay)
	canvas.Compose(lipgloss.NewLayer(base).X(0).Y(0).Z(0))
	canvas.Compose(lipgloss.NewLayer(centered).X(0).Y(0).Z(10))
	return canvas.Render()
}

func truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	if limit == 1 {
		return string(rs[:1])
	}
	return string(rs[:limit-1]) + "…"
}

// truncateLine cuts a styled line to width cells.
func truncateLine(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(s)
}

