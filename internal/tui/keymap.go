package tui

import "charm.land/bubbles/v2/key"

// keyMap holds the board bindings shown by the help bubble.
type keyMap struct {
	quit       key.Binding
	reload     key.Binding
	toggleHelp key.Binding
	moveLeft   key.Binding
	moveRight  key.Binding
	moveUp     key.Binding
	moveDown   key.Binding
	addTask    key.Binding
	editTask   key.Binding
	taskInfo   key.Binding
	copyTask   key.Binding
	deleteTask key.Binding
	cyclePrio  key.Binding
	taskLeft   key.Binding
	taskRight  key.Binding
	grab       key.Binding
	toggleSel  key.Binding
	selectCol  key.Binding
	bulkMove   key.Binding
	bulkPrio   key.Binding
	bulkDelete key.Binding
	filter     key.Binding
	sort       key.Binding
	project    key.Binding
	stats      key.Binding
	addColumn  key.Binding
	renameCol  key.Binding
	removeCol  key.Binding
	colLeft    key.Binding
	colRight   key.Binding
	resetCols  key.Binding
}

// newKeyMap constructs the default bindings.
func newKeyMap() keyMap {
	return keyMap{
		quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		reload:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		toggleHelp: key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		moveLeft:   key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "column left")),
		moveRight:  key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "column right")),
		moveUp:     key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "task up")),
		moveDown:   key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "task down")),
		addTask:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new task")),
		editTask:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit title")),
		taskInfo:   key.NewBinding(key.WithKeys("i", "enter"), key.WithHelp("i/enter", "task info")),
		copyTask:   key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy task")),
		deleteTask: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete task")),
		cyclePrio:  key.NewBinding(key.WithKeys("!"), key.WithHelp("!", "cycle priority")),
		taskLeft:   key.NewBinding(key.WithKeys("["), key.WithHelp("[", "move task left")),
		taskRight:  key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "move task right")),
		grab:       key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "grab task")),
		toggleSel:  key.NewBinding(key.WithKeys("space", " "), key.WithHelp("space", "select task")),
		selectCol:  key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "select column")),
		bulkMove:   key.NewBinding(key.WithKeys("M"), key.WithHelp("M", "move selected here")),
		bulkPrio:   key.NewBinding(key.WithKeys("H"), key.WithHelp("H", "selected to high")),
		bulkDelete: key.NewBinding(key.WithKeys("X"), key.WithHelp("X", "delete selected")),
		filter:     key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		sort:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "cycle sort")),
		project:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "next project")),
		stats:      key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "stats")),
		addColumn:  key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "add column")),
		renameCol:  key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "rename column")),
		removeCol:  key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "remove column")),
		colLeft:    key.NewBinding(key.WithKeys("<"), key.WithHelp("<", "column order left")),
		colRight:   key.NewBinding(key.WithKeys(">"), key.WithHelp(">", "column order right")),
		resetCols:  key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "reset columns")),
	}
}

// ShortHelp returns the bindings shown in the footer.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.addTask, k.taskInfo, k.grab, k.toggleSel, k.filter, k.stats, k.toggleHelp, k.quit}
}

// FullHelp returns the grouped bindings shown in the help overlay.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.moveLeft, k.moveRight, k.moveUp, k.moveDown, k.project, k.filter, k.sort, k.stats, k.reload, k.toggleHelp, k.quit},
		{k.addTask, k.editTask, k.taskInfo, k.copyTask, k.cyclePrio, k.deleteTask, k.taskLeft, k.taskRight, k.grab},
		{k.toggleSel, k.selectCol, k.bulkMove, k.bulkPrio, k.bulkDelete},
		{k.addColumn, k.renameCol, k.removeCol, k.colLeft, k.colRight, k.resetCols},
	}
}
