package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/evanschultz/kanboard/internal/adapters/server"
	"github.com/evanschultz/kanboard/internal/adapters/server/common"
	"github.com/evanschultz/kanboard/internal/app"
	"github.com/evanschultz/kanboard/internal/domain"
)

const dueDateLayout = "2006-01-02"

func newTasksCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task", "t"},
		Short:   "List and change tasks",
	}
	cmd.AddCommand(
		newTasksListCommand(opts),
		newTasksAddCommand(opts),
		newTasksUpdateCommand(opts),
		newTasksMoveCommand(opts),
		newTasksDeleteCommand(opts),
		newTasksSearchCommand(opts),
	)
	return cmd
}

func newTasksListCommand(opts *globalOptions) *cobra.Command {
	var (
		project  int64
		status   string
		priority string
		assignee string
		query    string
		sortRaw  string
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks on the board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd.Context(), opts, "tasks list", project, func(rt *runtime) error {
				filter := domain.TaskFilter{Assignee: assignee, Query: query}
				if status != "" {
					filter.Statuses = []string{status}
				}
				if priority != "" {
					p, err := domain.ParsePriority(priority)
					if err != nil {
						return err
					}
					filter.Priorities = []domain.Priority{p}
				}
				if sortRaw == "" {
					sortRaw = rt.cfg.Board.DefaultSort
				}
				key, err := domain.ParseSortKey(sortRaw)
				if err != nil {
					return err
				}
				tasks := domain.SortTasks(rt.board.Filter(filter), key)
				if asJSON {
					return writeJSON(opts.stdout, tasks)
				}
				writeTasks(opts.stdout, tasks)
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.Int64Var(&project, "project", 0, "project id (0 = all projects)")
	f.StringVar(&status, "status", "", "column id")
	f.StringVar(&priority, "priority", "", "low, medium or high")
	f.StringVar(&assignee, "assignee", "", "assignee name")
	f.StringVarP(&query, "query", "q", "", "title/description substring")
	f.StringVar(&sortRaw, "sort", "", "updated, priority or dueDate")
	f.BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newTasksAddCommand(opts *globalOptions) *cobra.Command {
	var (
		project     int64
		status      string
		priority    string
		due         string
		assignee    string
		description string
	)
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), opts, "tasks add", 0, func(rt *runtime) error {
				ctx := cmd.Context()
				in := domain.TaskInput{
					ProjectID:   project,
					Title:       strings.Join(args, " "),
					Description: description,
					Status:      status,
					Assignee:    assignee,
				}
				p, err := domain.ParsePriority(priority)
				if err != nil {
					return err
				}
				in.Priority = p
				if in.DueDate, err = parseDueDate(due); err != nil {
					return err
				}
				if in.Status == "" {
					columns, err := rt.columns.GetColumns(ctx)
					if err != nil {
						return err
					}
					if first, ok := domain.FirstColumn(columns); ok {
						in.Status = first.ID
					}
				}
				if in.ProjectID <= 0 {
					defaultProject, err := rt.service.EnsureDefaultProject(ctx)
					if err != nil {
						return err
					}
					in.ProjectID = defaultProject.ID
				}
				task, err := rt.board.Create(ctx, in)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(opts.stdout, "created #%d %s\n", task.ID, task.Title)
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.Int64Var(&project, "project", 0, "project id (default project when omitted)")
	f.StringVar(&status, "status", "", "column id (first column when omitted)")
	f.StringVar(&priority, "priority", "", "low, medium or high")
	f.StringVar(&due, "due", "", "due date YYYY-MM-DD")
	f.StringVar(&assignee, "assignee", "", "assignee name")
	f.StringVarP(&description, "description", "d", "", "markdown description")
	return cmd
}

func newTasksUpdateCommand(opts *globalOptions) *cobra.Command {
	var (
		title, description, status, priority, due, assignee string
		clearDue                                            bool
		project                                             int64
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change task fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var patch domain.TaskPatch
			flags := cmd.Flags()
			if flags.Changed("title") {
				patch.Title = &title
			}
			if flags.Changed("description") {
				patch.Description = &description
			}
			if flags.Changed("status") {
				patch.Status = &status
			}
			if flags.Changed("assignee") {
				patch.Assignee = &assignee
			}
			if flags.Changed("project") {
				patch.ProjectID = &project
			}
			if flags.Changed("priority") {
				p, err := domain.ParsePriority(priority)
				if err != nil {
					return err
				}
				patch.Priority = &p
			}
			if patch.DueDate, err = parseDueDate(due); err != nil {
				return err
			}
			patch.ClearDueDate = clearDue
			return withRuntime(cmd.Context(), opts, "tasks update", 0, func(rt *runtime) error {
				task, err := rt.board.Update(cmd.Context(), id, patch)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(opts.stdout, "updated #%d %s\n", task.ID, task.Title)
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&title, "title", "", "new title")
	f.StringVarP(&description, "description", "d", "", "new description")
	f.StringVar(&status, "status", "", "new column id")
	f.StringVar(&priority, "priority", "", "low, medium or high")
	f.StringVar(&due, "due", "", "due date YYYY-MM-DD")
	f.BoolVar(&clearDue, "clear-due", false, "remove the due date")
	f.StringVar(&assignee, "assignee", "", "new assignee")
	f.Int64Var(&project, "project", 0, "move to project id")
	return cmd
}

func newTasksMoveCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "move <column> <id>...",
		Short: "Move tasks to a column",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args[1:])
			if err != nil {
				return err
			}
			status := args[0]
			return withRuntime(cmd.Context(), opts, "tasks move", 0, func(rt *runtime) error {
				if len(ids) == 1 {
					task, err := rt.board.MoveStatus(cmd.Context(), ids[0], status)
					if err != nil {
						return err
					}
					_, _ = fmt.Fprintf(opts.stdout, "moved #%d to %s\n", task.ID, task.Status)
					return nil
				}
				moved, err := rt.board.BulkMove(cmd.Context(), ids, status)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(opts.stdout, "moved %d tasks to %s\n", len(moved), status)
				return nil
			})
		},
	}
}

func newTasksDeleteCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete tasks",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return withRuntime(cmd.Context(), opts, "tasks delete", 0, func(rt *runtime) error {
				if len(ids) == 1 {
					if err := rt.board.Delete(cmd.Context(), ids[0]); err != nil {
						return err
					}
					_, _ = fmt.Fprintf(opts.stdout, "deleted #%d\n", ids[0])
					return nil
				}
				n, err := rt.board.BulkDelete(cmd.Context(), ids)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(opts.stdout, "deleted %d tasks\n", n)
				return nil
			})
		},
	}
}

func newTasksSearchCommand(opts *globalOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search titles and descriptions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), opts, "tasks search", 0, func(rt *runtime) error {
				tasks, err := rt.service.Search(cmd.Context(), strings.Join(args, " "))
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(opts.stdout, tasks)
				}
				writeTasks(opts.stdout, tasks)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newColumnsCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "columns",
		Aliases: []string{"column", "c"},
		Short:   "Configure board columns",
	}
	list := &cobra.Command{
		Use:   "list",
		Short: "List columns in board order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd.Context(), opts, "columns list", 0, func(rt *runtime) error {
				columns, err := rt.columns.GetColumns(cmd.Context())
				if err != nil {
					return err
				}
				writeColumns(opts.stdout, columns)
				return nil
			})
		},
	}
	add := &cobra.Command{
		Use:   "add <title>",
		Short: "Append a column",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), opts, "columns add", 0, func(rt *runtime) error {
				column, err := rt.columns.AddColumn(cmd.Context(), strings.Join(args, " "))
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(opts.stdout, "added column %s (%s)\n", column.Title, column.ID)
				return nil
			})
		},
	}
	rename := &cobra.Command{
		Use:   "rename <id> <title>",
		Short: "Rename a column",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), opts, "columns rename", 0, func(rt *runtime) error {
				column, err := rt.columns.RenameColumn(cmd.Context(), args[0], strings.Join(args[1:], " "))
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(opts.stdout, "renamed column %s to %s\n", column.ID, column.Title)
				return nil
			})
		},
	}
	var reassignTo string
	remove := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a column, moving its tasks with --reassign-to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), opts, "columns remove", 0, func(rt *runtime) error {
				columns, err := rt.board.RemoveColumn(cmd.Context(), args[0], reassignTo)
				if err != nil {
					return err
				}
				writeColumns(opts.stdout, columns)
				return nil
			})
		},
	}
	remove.Flags().StringVar(&reassignTo, "reassign-to", "", "column that receives the removed column's tasks")
	reorder := &cobra.Command{
		Use:   "reorder <from> <to>",
		Short: "Move the column at position from to position to (0-based)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("from %q: %w", args[0], err)
			}
			to, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("to %q: %w", args[1], err)
			}
			return withRuntime(cmd.Context(), opts, "columns reorder", 0, func(rt *runtime) error {
				columns, err := rt.columns.ReorderColumns(cmd.Context(), from, to)
				if err != nil {
					return err
				}
				writeColumns(opts.stdout, columns)
				return nil
			})
		},
	}
	reset := &cobra.Command{
		Use:   "reset",
		Short: "Restore the default columns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd.Context(), opts, "columns reset", 0, func(rt *runtime) error {
				columns, err := rt.columns.ResetToDefaults(cmd.Context())
				if err != nil {
					return err
				}
				writeColumns(opts.stdout, columns)
				if orphans := rt.board.Orphans(columns); len(orphans) > 0 {
					_, _ = fmt.Fprintf(opts.stdout, "%d tasks now sit outside every column\n", len(orphans))
				}
				return nil
			})
		},
	}
	cmd.AddCommand(list, add, rename, remove, reorder, reset)
	return cmd
}

func newProjectsCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project", "p"},
		Short:   "Manage projects",
	}
	list := &cobra.Command{
		Use:   "list",
		Short: "List projects with task counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd.Context(), opts, "projects list", 0, func(rt *runtime) error {
				projects, err := rt.service.ListProjects(cmd.Context())
				if err != nil {
					return err
				}
				columns, err := rt.columns.GetColumns(cmd.Context())
				if err != nil {
					return err
				}
				counts := map[int64]domain.ProjectCount{}
				for _, c := range rt.board.ProjectCounts(columns) {
					counts[c.ProjectID] = c
				}
				for _, p := range projects {
					c := counts[p.ID]
					_, _ = fmt.Fprintf(opts.stdout, "%-4d %-24s %d tasks, %d done\n", p.ID, p.Name, c.Total, c.Completed)
				}
				return nil
			})
		},
	}
	var description, color string
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a project",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), opts, "projects add", 0, func(rt *runtime) error {
				p, err := rt.service.CreateProject(cmd.Context(), domain.ProjectInput{
					Name:        strings.Join(args, " "),
					Description: description,
					Color:       color,
				})
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(opts.stdout, "created project #%d %s\n", p.ID, p.Name)
				return nil
			})
		},
	}
	add.Flags().StringVarP(&description, "description", "d", "", "project description")
	add.Flags().StringVar(&color, "color", "", "hex color")
	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a project and its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withRuntime(cmd.Context(), opts, "projects delete", 0, func(rt *runtime) error {
				if err := rt.service.DeleteProject(cmd.Context(), id); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(opts.stdout, "deleted project #%d\n", id)
				return nil
			})
		},
	}
	cmd.AddCommand(list, add, del)
	return cmd
}

func newStatsCommand(opts *globalOptions) *cobra.Command {
	var (
		project int64
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print board statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd.Context(), opts, "stats", project, func(rt *runtime) error {
				columns, err := rt.columns.GetColumns(cmd.Context())
				if err != nil {
					return err
				}
				now := time.Now()
				report := statsReport{
					Stats:    rt.board.Stats(columns, now),
					Overdue:  rt.board.Overdue(columns, now),
					Upcoming: rt.board.Upcoming(now, rt.cfg.Board.UpcomingLimit),
					Team:     rt.board.Workload(columns),
				}
				if asJSON {
					return writeJSON(opts.stdout, report)
				}
				writeStats(opts.stdout, report)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&project, "project", 0, "project id (0 = all projects)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

// statsReport bundles the derived board views printed by the stats command.
type statsReport struct {
	Stats    domain.BoardStats       `json:"stats"`
	Overdue  []domain.Task           `json:"overdue"`
	Upcoming []domain.Task           `json:"upcoming"`
	Team     []domain.MemberWorkload `json:"team"`
}

func newServeCommand(opts *globalOptions) *cobra.Command {
	var bind string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API, MCP tools and change feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd.Context(), opts, "serve", 0, func(rt *runtime) error {
				adapter := common.NewBoardAdapter(rt.board, rt.columns, rt.service, common.AdapterConfig{
					UpcomingLimit: rt.cfg.Board.UpcomingLimit,
				})
				cfg := server.Config{
					HTTPBind:       rt.cfg.Server.HTTPBind,
					APIEndpoint:    rt.cfg.Server.APIEndpoint,
					MCPEndpoint:    rt.cfg.Server.MCPEndpoint,
					AllowedOrigins: rt.cfg.Server.AllowedOrigins,
					ServerVersion:  version,
				}
				if bind != "" {
					cfg.HTTPBind = bind
				}
				rt.logger.Info("serving board", "bind", cfg.HTTPBind, "api", cfg.APIEndpoint, "mcp", cfg.MCPEndpoint)
				return server.Run(cmd.Context(), cfg, server.Dependencies{
					Board:  adapter,
					Events: adapter,
					Ready:  rt.ready,
					Logger: rt.logger.Component("server"),
				})
			})
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "listen address (overrides [server] http_bind)")
	return cmd
}

func newExportCommand(opts *globalOptions) *cobra.Command {
	var outPath, format string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a snapshot of projects, columns and tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd.Context(), opts, "export", 0, func(rt *runtime) error {
				return runExport(cmd.Context(), rt, outPath, format, opts.stdout)
			})
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "-", "output file path ('-' for stdout)")
	cmd.Flags().StringVar(&format, "format", "", "json or yaml (from the file extension when omitted)")
	return cmd
}

func newImportCommand(opts *globalOptions) *cobra.Command {
	var inPath, format string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load a snapshot written by export",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if inPath == "" {
				return fmt.Errorf("--in is required")
			}
			return withRuntime(cmd.Context(), opts, "import", 0, func(rt *runtime) error {
				return runImport(cmd.Context(), rt, inPath, format, opts.stdout)
			})
		},
	}
	cmd.Flags().StringVar(&inPath, "in", "", "input snapshot file")
	cmd.Flags().StringVar(&format, "format", "", "json or yaml (from the file extension when omitted)")
	return cmd
}

func runExport(ctx context.Context, rt *runtime, outPath, format string, stdout io.Writer) error {
	snap, err := rt.service.ExportSnapshot(ctx, rt.columns)
	if err != nil {
		return fmt.Errorf("export snapshot: %w", err)
	}
	encoded, err := encodeSnapshot(snap, snapshotFormat(format, outPath))
	if err != nil {
		return err
	}
	if outPath == "-" || outPath == "" {
		if _, err := stdout.Write(encoded); err != nil {
			return fmt.Errorf("write snapshot to stdout: %w", err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create export output dir: %w", err)
	}
	if err := os.WriteFile(outPath, encoded, 0o644); err != nil {
		return fmt.Errorf("write export file: %w", err)
	}
	return nil
}

func runImport(ctx context.Context, rt *runtime, inPath, format string, stdout io.Writer) error {
	content, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("read import file: %w", err)
	}
	var snap app.Snapshot
	switch snapshotFormat(format, inPath) {
	case "yaml":
		err = yaml.Unmarshal(content, &snap)
	default:
		err = json.Unmarshal(content, &snap)
	}
	if err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	if err := rt.service.ImportSnapshot(ctx, snap, rt.columns); err != nil {
		return fmt.Errorf("import snapshot: %w", err)
	}
	_, _ = fmt.Fprintf(stdout, "imported %d projects, %d columns, %d tasks\n", len(snap.Projects), len(snap.Columns), len(snap.Tasks))
	return nil
}

// snapshotFormat picks the explicit format, else infers it from path.
func snapshotFormat(format, path string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "yaml", "yml":
		return "yaml"
	case "json":
		return "json"
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	}
	return "json"
}

func encodeSnapshot(snap app.Snapshot, format string) ([]byte, error) {
	if format == "yaml" {
		encoded, err := yaml.Marshal(snap)
		if err != nil {
			return nil, fmt.Errorf("encode snapshot yaml: %w", err)
		}
		return encoded, nil
	}
	encoded, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot json: %w", err)
	}
	return append(encoded, '\n'), nil
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeTasks(out io.Writer, tasks []domain.Task) {
	if len(tasks) == 0 {
		_, _ = fmt.Fprintln(out, "no tasks")
		return
	}
	for _, t := range tasks {
		due := "-"
		if t.DueDate != nil {
			due = t.DueDate.Format(dueDateLayout)
		}
		_, _ = fmt.Fprintf(out, "#%-4d %-12s %-6s %-10s %-14s %s\n", t.ID, t.Status, t.Priority, due, t.Assignee, t.Title)
	}
}

func writeColumns(out io.Writer, columns []domain.Column) {
	for i, c := range columns {
		_, _ = fmt.Fprintf(out, "%d. %-16s %s\n", i, c.ID, c.Title)
	}
}

func writeStats(out io.Writer, r statsReport) {
	s := r.Stats
	_, _ = fmt.Fprintf(out, "tasks: %d  completed: %d (%.0f%%)\n", s.Total, s.Completed, s.Progress)
	_, _ = fmt.Fprintf(out, "high priority: %d  overdue: %d  orphaned: %d\n", s.HighPriority, s.Overdue, s.Orphaned)
	for _, c := range s.ByColumn {
		_, _ = fmt.Fprintf(out, "  %-16s %d\n", c.Title, c.Count)
	}
	if len(r.Overdue) > 0 {
		_, _ = fmt.Fprintln(out, "overdue:")
		writeTasks(out, r.Overdue)
	}
	if len(r.Upcoming) > 0 {
		_, _ = fmt.Fprintln(out, "upcoming:")
		writeTasks(out, r.Upcoming)
	}
	if len(r.Team) > 0 {
		_, _ = fmt.Fprintln(out, "team:")
		for _, w := range r.Team {
			_, _ = fmt.Fprintf(out, "  %-16s %d total, %d done, %d in progress, %d pending (%.0f%% open)\n",
				w.Assignee, w.Total, w.Completed, w.InProgress, w.Pending, w.Workload)
		}
	}
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(raw), "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", raw)
	}
	return id, nil
}

func parseIDs(raw []string) ([]int64, error) {
	ids := make([]int64, 0, len(raw))
	for _, r := range raw {
		id, err := parseID(r)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// parseDueDate parses YYYY-MM-DD; empty input means no date.
func parseDueDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	due, err := time.ParseInLocation(dueDateLayout, raw, time.Local)
	if err != nil {
		return nil, fmt.Errorf("due date %q: want YYYY-MM-DD", raw)
	}
	return &due, nil
}
