package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/fang"
	charmLog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/evanschultz/kanboard/internal/adapters/storage/memory"
	"github.com/evanschultz/kanboard/internal/adapters/storage/sqlite"
	"github.com/evanschultz/kanboard/internal/app"
	"github.com/evanschultz/kanboard/internal/config"
	"github.com/evanschultz/kanboard/internal/platform"
	"github.com/evanschultz/kanboard/internal/tui"
)

var version = "dev"

// program is the slice of tea.Program the board command needs.
type program interface {
	Run() (tea.Model, error)
}

// programFactory is swapped in tests.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

func main() {
	root := newRootCommand(os.Stdout, os.Stderr)
	if err := fang.Execute(context.Background(), root, fang.WithVersion(version)); err != nil {
		os.Exit(1)
	}
}

// run executes one command line without fang's styling. Tests drive the CLI through it.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := newRootCommand(stdout, stderr)
	root.SetArgs(args)
	root.SilenceErrors = true
	return root.ExecuteContext(ctx)
}

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	dbPath     string
	appName    string
	devMode    bool
	memory     bool

	stdout io.Writer
	stderr io.Writer
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	opts := &globalOptions{stdout: stdout, stderr: stderr}

	defaultDev := version == "dev"
	if envDev, ok := parseBoolEnv("KANBOARD_DEV_MODE"); ok {
		defaultDev = envDev
	}
	appName := platform.DefaultAppName
	if envApp := strings.TrimSpace(os.Getenv("KANBOARD_APP_NAME")); envApp != "" {
		appName = envApp
	}

	root := &cobra.Command{
		Use:          "kanboard",
		Short:        "A kanban board for the terminal",
		Long:         "kanboard keeps tasks in configurable status columns with drag and drop moves, bulk actions and board statistics.",
		Version:      version,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBoard(cmd.Context(), opts, boardFlags{})
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to config TOML")
	flags.StringVar(&opts.dbPath, "db", "", "path to sqlite database")
	flags.StringVar(&opts.appName, "app", appName, "application name for config/data path resolution")
	flags.BoolVar(&opts.devMode, "dev", defaultDev, "use dev mode paths (<app>-dev)")
	flags.BoolVar(&opts.memory, "memory", false, "use a seeded in-memory board instead of sqlite")

	root.AddCommand(
		newBoardCommand(opts),
		newTasksCommand(opts),
		newColumnsCommand(opts),
		newProjectsCommand(opts),
		newStatsCommand(opts),
		newServeCommand(opts),
		newExportCommand(opts),
		newImportCommand(opts),
		newPathsCommand(opts),
	)
	return root
}

// runtime is the wired application for one command.
type runtime struct {
	cfg        config.Config
	configPath string
	paths      platform.Paths
	logger     *runtimeLogger

	service *app.Service
	columns *app.ColumnManager
	board   *app.Board
	ready   func(context.Context) error
	close   func() error
}

// openRuntime resolves paths and config, opens storage and builds the board components. The
// board is loaded with scope before it is returned.
func openRuntime(ctx context.Context, opts *globalOptions, command string, console bool, scope int64) (*runtime, error) {
	paths, err := platform.DefaultPathsWithOptions(platform.Options{AppName: opts.appName, DevMode: opts.devMode})
	if err != nil {
		return nil, err
	}

	configPath := strings.TrimSpace(opts.configPath)
	if configPath == "" {
		if envPath := strings.TrimSpace(os.Getenv("KANBOARD_CONFIG")); envPath != "" {
			configPath = envPath
		} else {
			configPath = paths.ConfigPath
		}
	}
	dbPath := strings.TrimSpace(opts.dbPath)
	dbOverridden := dbPath != ""
	if !dbOverridden {
		if envPath := strings.TrimSpace(os.Getenv("KANBOARD_DB_PATH")); envPath != "" {
			dbPath = envPath
			dbOverridden = true
		} else {
			dbPath = paths.DBPath
		}
	}

	cfg, err := config.Load(configPath, config.Default(dbPath))
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", configPath, err)
	}
	if dbOverridden {
		cfg.Database.Path = dbPath
	}

	logger, err := newRuntimeLogger(opts.stderr, opts.appName, opts.devMode, cfg.Logging, paths.LogDir, time.Now)
	if err != nil {
		return nil, fmt.Errorf("configure runtime logger: %w", err)
	}
	logger.SetConsoleEnabled(console)
	logger.Info("startup configuration resolved", "app", opts.appName, "dev_mode", opts.devMode, "command", command)
	logger.Debug("runtime paths resolved", "config_path", configPath, "data_dir", paths.DataDir, "db_path", cfg.Database.Path)
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Info("dev file logging enabled", "path", devPath)
	}

	rt := &runtime{cfg: cfg, configPath: configPath, paths: paths, logger: logger}
	var (
		repo interface {
			app.Repository
			app.KVStore
		}
		closeRepo = func() error { return nil }
	)
	if opts.memory {
		logger.Info("using seeded in-memory board")
		repo = memory.Seeded(time.Now())
	} else {
		logger.Info("opening sqlite repository", "db_path", cfg.Database.Path)
		sqliteRepo, err := sqlite.Open(cfg.Database.Path)
		if err != nil {
			logger.Error("sqlite open failed", "db_path", cfg.Database.Path, "err", err)
			_ = logger.Close()
			return nil, fmt.Errorf("open sqlite repository: %w", err)
		}
		repo = sqliteRepo
		closeRepo = sqliteRepo.Close
		rt.ready = sqliteRepo.Ping
	}
	rt.close = func() error {
		repoErr := closeRepo()
		if repoErr != nil {
			logger.Warn("repository close failed", "err", repoErr)
		}
		return errors.Join(repoErr, logger.Close())
	}

	clock := time.Now
	rt.service = app.NewService(repo, clock, app.ServiceConfig{DefaultProjectName: cfg.Board.DefaultProject})
	rt.columns = app.NewColumnManager(repo, app.WithColumnLogger(logger.Component("columns")))
	rt.board = app.NewBoard(rt.service, rt.columns,
		app.WithBoardClock(clock),
		app.WithBoardLogger(logger.Component("board")),
		app.WithProjectScope(scope),
	)
	if err := rt.board.Load(ctx); err != nil {
		_ = rt.close()
		return nil, fmt.Errorf("load board: %w", err)
	}
	return rt, nil
}

// withRuntime opens the runtime for a command, runs fn, then closes storage and log sinks.
func withRuntime(ctx context.Context, opts *globalOptions, command string, scope int64, fn func(*runtime) error) error {
	rt, err := openRuntime(ctx, opts, command, true, scope)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := rt.close(); closeErr != nil {
			_, _ = fmt.Fprintf(opts.stderr, "warning: close runtime: %v\n", closeErr)
		}
	}()
	rt.logger.Info("command flow start", "command", command)
	if err := fn(rt); err != nil {
		rt.logger.Error("command flow failed", "command", command, "err", err)
		return err
	}
	rt.logger.Info("command flow complete", "command", command)
	return nil
}

type boardFlags struct {
	project int64
	sort    string
}

func newBoardCommand(opts *globalOptions) *cobra.Command {
	var flags boardFlags
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Open the interactive board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBoard(cmd.Context(), opts, flags)
		},
	}
	cmd.Flags().Int64Var(&flags.project, "project", 0, "start scoped to one project id (0 = all projects)")
	cmd.Flags().StringVar(&flags.sort, "sort", "", "initial sort: updated, priority or dueDate")
	return cmd
}

// runBoard starts the terminal board. Console logging stays off while the board owns the screen.
func runBoard(ctx context.Context, opts *globalOptions, flags boardFlags) error {
	rt, err := openRuntime(ctx, opts, "board", false, flags.project)
	if err != nil {
		return err
	}
	defer func() {
		_ = rt.close()
	}()

	sortKey := flags.sort
	if sortKey == "" {
		sortKey = rt.cfg.Board.DefaultSort
	}
	m := tui.NewModel(rt.board, rt.columns, rt.service,
		tui.WithLogger(rt.logger.Component("tui")),
		tui.WithSort(sortKey),
		tui.WithUpcomingLimit(rt.cfg.Board.UpcomingLimit),
		tui.WithProjectScope(flags.project),
	)
	rt.logger.Info("starting tui program loop")
	if _, err := programFactory(m).Run(); err != nil {
		rt.logger.Error("tui program terminated with error", "err", err)
		return fmt.Errorf("run tui program: %w", err)
	}
	rt.logger.Info("command flow complete", "command", "board")
	return nil
}

func newPathsCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print resolved config, data and log paths",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			paths, err := platform.DefaultPathsWithOptions(platform.Options{AppName: opts.appName, DevMode: opts.devMode})
			if err != nil {
				return err
			}
			out := opts.stdout
			_, _ = fmt.Fprintf(out, "app: %s\n", opts.appName)
			_, _ = fmt.Fprintf(out, "dev_mode: %t\n", opts.devMode)
			_, _ = fmt.Fprintf(out, "config: %s\n", paths.ConfigPath)
			_, _ = fmt.Fprintf(out, "data_dir: %s\n", paths.DataDir)
			_, _ = fmt.Fprintf(out, "db: %s\n", paths.DBPath)
			_, _ = fmt.Fprintf(out, "log_dir: %s\n", paths.LogDir)
			return nil
		},
	}
}

// parseBoolEnv reads a boolean environment variable; ok is false when unset or malformed.
func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}

// discardLogger is handed to components when no sink should receive their output.
func discardLogger() *charmLog.Logger {
	return charmLog.New(io.Discard)
}
