package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/fang"
	charmLog "github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	serveradapter "github.com/tautline/taut/internal/adapters/server"
	servercommon "github.com/tautline/taut/internal/adapters/server/common"
	"github.com/tautline/taut/internal/adapters/storage/memory"
	"github.com/tautline/taut/internal/app"
	"github.com/tautline/taut/internal/config"
	"github.com/tautline/taut/internal/platform"
	"github.com/tautline/taut/internal/report"
	"github.com/tautline/taut/internal/timeunit"
	"github.com/tautline/taut/internal/tui"
)

// version stores a package-level helper value.
var version = "dev"

// program represents program data used by this package.
type program interface {
	Run() (tea.Model, error)
}

// programFactory stores a package-level helper value.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

// serveCommandRunner starts the HTTP+MCP serve flow.
var serveCommandRunner = func(ctx context.Context, cfg serveradapter.Config, deps serveradapter.Dependencies) error {
	return serveradapter.Run(ctx, cfg, deps)
}

// main handles main.
func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// run runs the requested command flow.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	root := newRootCommand(stdout, stderr)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return fang.Execute(ctx, root,
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt, syscall.SIGTERM),
	)
}

// cliOptions holds root flag state shared by every subcommand.
type cliOptions struct {
	configPath   string
	appName      string
	devMode      bool
	snapshotPath string
}

// newRootCommand assembles the CLI command tree.
func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &cliOptions{}

	root := &cobra.Command{
		Use:   "taut",
		Short: "Critical path scheduling in the terminal",
		Long: `Taut tracks project activities with their time estimates and dependencies,
runs critical path analysis over the resulting network, and reports PERT
statistics for completion targets.

Run it without arguments to open the interactive board.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), opts, stderr)
		},
	}

	defaultDevMode := version == "dev"
	if envDev, ok := parseBoolEnv("TAUT_DEV_MODE"); ok {
		defaultDevMode = envDev
	}
	appName := "taut"
	if envApp := strings.TrimSpace(os.Getenv("TAUT_APP_NAME")); envApp != "" {
		appName = envApp
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config TOML")
	root.PersistentFlags().StringVar(&opts.appName, "app", appName, "application name for config/data path resolution")
	root.PersistentFlags().BoolVar(&opts.devMode, "dev", defaultDevMode, "use dev mode paths (<app>-dev)")
	root.PersistentFlags().StringVar(&opts.snapshotPath, "snapshot", "", "seed projects from a snapshot JSON document")

	root.AddCommand(serveCommand(opts, stderr))
	root.AddCommand(demoCommand(opts, stdout, stderr))
	root.AddCommand(exportCommand(opts, stdout, stderr))
	root.AddCommand(pathsCommand(opts, stdout))
	return root
}

// runtimeEnv bundles resolved paths, configuration, logging, and the scheduling service.
type runtimeEnv struct {
	appName    string
	devMode    bool
	configPath string
	paths      platform.Paths
	cfg        config.Config
	logger     *runtimeLogger
	svc        *app.Service
}

// newRuntimeEnv resolves flags, environment, and config into a ready runtime.
// muteConsole silences the console sink before the first log line so TUI runs
// never write runtime events to the terminal.
func newRuntimeEnv(ctx context.Context, opts *cliOptions, stderr io.Writer, muteConsole bool) (*runtimeEnv, error) {
	paths, err := platform.DefaultPathsWithOptions(platform.Options{
		AppName: opts.appName,
		DevMode: opts.devMode,
	})
	if err != nil {
		return nil, err
	}

	configPath := strings.TrimSpace(opts.configPath)
	if configPath == "" {
		if envPath := strings.TrimSpace(os.Getenv("TAUT_CONFIG")); envPath != "" {
			configPath = envPath
		} else {
			configPath = paths.ConfigPath
		}
	}

	cfg, err := config.Load(configPath, config.Default())
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", configPath, err)
	}

	logger, err := newRuntimeLogger(stderr, opts.appName, opts.devMode, paths.DevLogPath, cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("configure runtime logger: %w", err)
	}
	if muteConsole {
		// Keep TUI rendering clean: runtime logs stay in the dev-file sink while the board is active.
		logger.SetConsoleEnabled(false)
	}

	logger.Info("startup configuration resolved", "app", opts.appName, "dev_mode", opts.devMode)
	logger.Debug("runtime paths resolved", "config_path", configPath, "data_dir", paths.DataDir)
	logger.Info("configuration loaded", "config_path", configPath, "display_unit", cfg.Display.TimeUnit, "log_level", cfg.Logging.Level)
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Info("dev file logging enabled", "path", devPath)
	}

	svc := app.NewService(memory.New(), uuid.NewString, nil, app.ServiceConfig{
		DefaultUnit: cfg.Unit(),
	})
	logger.Debug("application service initialized", "default_unit", cfg.Unit())

	if snapshotPath := strings.TrimSpace(opts.snapshotPath); snapshotPath != "" {
		count, err := seedSnapshot(ctx, svc, snapshotPath)
		if err != nil {
			_ = logger.Close()
			return nil, err
		}
		logger.Info("snapshot loaded", "path", snapshotPath, "projects", count)
	}

	return &runtimeEnv{
		appName:    opts.appName,
		devMode:    opts.devMode,
		configPath: configPath,
		paths:      paths,
		cfg:        cfg,
		logger:     logger,
		svc:        svc,
	}, nil
}

// closeLogger closes log sinks, reporting failures to stderr while the console is active.
func (e *runtimeEnv) closeLogger(stderr io.Writer) {
	if closeErr := e.logger.Close(); closeErr != nil && e.logger.shouldLogToSink(e.logger.consoleSink) {
		// Keep TUI shutdown quiet on the terminal when console logging is intentionally muted.
		_, _ = fmt.Fprintf(stderr, "warning: close runtime log sink: %v\n", closeErr)
	}
}

// seedSnapshot loads a snapshot document into the in-memory store.
func seedSnapshot(ctx context.Context, svc *app.Service, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read snapshot %q: %w", path, err)
	}
	snap, err := app.DecodeSnapshot(data)
	if err != nil {
		return 0, fmt.Errorf("load snapshot %q: %w", path, err)
	}
	if err := svc.ImportSnapshot(ctx, snap); err != nil {
		return 0, fmt.Errorf("load snapshot %q: %w", path, err)
	}
	return len(snap.Projects), nil
}

// runTUI starts the interactive board.
func runTUI(ctx context.Context, opts *cliOptions, stderr io.Writer) error {
	env, err := newRuntimeEnv(ctx, opts, stderr, true)
	if err != nil {
		return err
	}
	defer env.closeLogger(stderr)

	env.logger.Info("command flow start", "command", "tui")
	if err := config.EnsureConfigDir(env.configPath); err != nil {
		env.logger.Warn("config dir unavailable", "config_path", env.configPath, "err", err)
	}

	m := tui.NewModel(
		env.svc,
		tui.WithReportOptions(report.Options{
			Unit:         env.cfg.Unit(),
			Decimals:     env.cfg.Display.Decimals,
			ShowVariance: env.cfg.Report.ShowVariance,
			ShowRisk:     env.cfg.Report.ShowRisk,
		}),
	)
	env.logger.Info("starting tui program loop")
	if _, err := programFactory(m).Run(); err != nil {
		env.logger.Error("tui program terminated with error", "err", err)
		return fmt.Errorf("run tui program: %w", err)
	}
	env.logger.Info("command flow complete", "command", "tui")
	return nil
}

// serveCommand builds the serve subcommand.
func serveCommand(opts *cliOptions, stderr io.Writer) *cobra.Command {
	var (
		httpBind    string
		apiEndpoint string
		mcpEndpoint string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the scheduling API over HTTP and MCP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := newRuntimeEnv(cmd.Context(), opts, stderr, false)
			if err != nil {
				return err
			}
			defer env.closeLogger(stderr)

			serveCfg := env.cfg.Server
			if cmd.Flags().Changed("http") {
				serveCfg.HTTPBind = httpBind
			}
			if cmd.Flags().Changed("api-endpoint") {
				serveCfg.APIEndpoint = apiEndpoint
			}
			if cmd.Flags().Changed("mcp-endpoint") {
				serveCfg.MCPEndpoint = mcpEndpoint
			}

			env.logger.Info("command flow start", "command", "serve")
			env.logger.Info("serving scheduling endpoints", "http_bind", serveCfg.HTTPBind, "api_endpoint", serveCfg.APIEndpoint, "mcp_endpoint", serveCfg.MCPEndpoint)
			appAdapter := servercommon.NewAppServiceAdapter(env.svc)
			err = serveCommandRunner(cmd.Context(), serveradapter.Config{
				HTTPBind:      serveCfg.HTTPBind,
				APIEndpoint:   serveCfg.APIEndpoint,
				MCPEndpoint:   serveCfg.MCPEndpoint,
				ServerName:    env.appName,
				ServerVersion: version,
			}, serveradapter.Dependencies{
				Scheduling: appAdapter,
			})
			if err != nil {
				env.logger.Error("command flow failed", "command", "serve", "err", err)
				return fmt.Errorf("run serve command: %w", err)
			}
			env.logger.Info("command flow complete", "command", "serve")
			return nil
		},
	}

	cmd.Flags().StringVar(&httpBind, "http", "127.0.0.1:8080", "HTTP listen address")
	cmd.Flags().StringVar(&apiEndpoint, "api-endpoint", "/api/v1", "HTTP API base endpoint")
	cmd.Flags().StringVar(&mcpEndpoint, "mcp-endpoint", "/mcp", "MCP streamable HTTP endpoint")
	return cmd
}

// demoCommand builds the demo subcommand.
func demoCommand(opts *cliOptions, stdout, stderr io.Writer) *cobra.Command {
	var (
		unitName  string
		target    float64
		withStats bool
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Analyze the built-in sample project and print its schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := newRuntimeEnv(cmd.Context(), opts, stderr, false)
			if err != nil {
				return err
			}
			defer env.closeLogger(stderr)

			env.logger.Info("command flow start", "command", "demo")
			if err := runDemo(cmd.Context(), env, stdout, unitName, target, withStats); err != nil {
				env.logger.Error("command flow failed", "command", "demo", "err", err)
				return fmt.Errorf("run demo command: %w", err)
			}
			env.logger.Info("command flow complete", "command", "demo")
			return nil
		},
	}

	cmd.Flags().StringVar(&unitName, "unit", "", "display unit for reported times (hours, days, weeks, months, years)")
	cmd.Flags().Float64Var(&target, "target", 0, "target duration in the project's time unit")
	cmd.Flags().BoolVar(&withStats, "stats", false, "include the PERT statistics report")
	return cmd
}

// runDemo loads the sample project, analyzes it, and prints its reports.
func runDemo(ctx context.Context, env *runtimeEnv, stdout io.Writer, unitName string, target float64, withStats bool) error {
	rec, err := env.svc.SampleProject(ctx)
	if err != nil {
		return fmt.Errorf("load sample project: %w", err)
	}
	rec, err = env.svc.RunAnalysis(ctx, rec.ID)
	if err != nil {
		return fmt.Errorf("analyze sample project: %w", err)
	}

	reportOpts := report.Options{
		Unit:         rec.Unit,
		Decimals:     env.cfg.Display.Decimals,
		ShowVariance: env.cfg.Report.ShowVariance,
		ShowRisk:     env.cfg.Report.ShowRisk,
	}
	if trimmed := strings.TrimSpace(unitName); trimmed != "" {
		unit, err := timeunit.Parse(trimmed)
		if err != nil {
			return fmt.Errorf("parse display unit: %w", err)
		}
		reportOpts.Unit = unit
	}

	_, _ = fmt.Fprintln(stdout, report.ActivityTable(rec.Project, reportOpts))
	_, _ = fmt.Fprintln(stdout)
	_, _ = fmt.Fprintln(stdout, report.ScheduleTable(rec.Project, reportOpts))

	if !withStats && target <= 0 {
		return nil
	}
	sum, err := env.svc.Statistics(ctx, rec.ID, target)
	if err != nil {
		return fmt.Errorf("compute statistics: %w", err)
	}
	_, _ = fmt.Fprintln(stdout)
	_, _ = fmt.Fprint(stdout, report.StatsMarkdown(rec.Project.Name, sum, reportOpts))
	return nil
}

// exportCommand builds the export subcommand.
func exportCommand(opts *cliOptions, stdout, stderr io.Writer) *cobra.Command {
	var (
		outPath    string
		withSample bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the loaded projects as a snapshot JSON document",
		Long: `Export captures every loaded project as a versioned snapshot document.
The store starts empty each run, so combine it with --snapshot to re-emit an
existing document, or with --sample to produce a starter file to edit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := newRuntimeEnv(cmd.Context(), opts, stderr, false)
			if err != nil {
				return err
			}
			defer env.closeLogger(stderr)

			env.logger.Info("command flow start", "command", "export")
			if err := runExport(cmd.Context(), env, stdout, outPath, withSample); err != nil {
				env.logger.Error("command flow failed", "command", "export", "err", err)
				return fmt.Errorf("run export command: %w", err)
			}
			env.logger.Info("command flow complete", "command", "export")
			return nil
		},
	}

	cmd.Flags().StringVar(&outPath, "out", "-", `snapshot destination path ("-" writes to stdout)`)
	cmd.Flags().BoolVar(&withSample, "sample", false, "include the built-in sample project")
	return cmd
}

// runExport captures the store as a snapshot document and writes it out.
func runExport(ctx context.Context, env *runtimeEnv, stdout io.Writer, outPath string, withSample bool) error {
	if withSample {
		if _, err := env.svc.SampleProject(ctx); err != nil {
			return fmt.Errorf("load sample project: %w", err)
		}
	}
	snap, err := env.svc.ExportSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("export snapshot: %w", err)
	}
	data, err := app.EncodeSnapshot(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	outPath = strings.TrimSpace(outPath)
	if outPath == "" || outPath == "-" {
		_, err := stdout.Write(data)
		return err
	}
	if dir := filepath.Dir(outPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot dir: %w", err)
		}
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	env.logger.Info("snapshot written", "path", outPath, "projects", len(snap.Projects))
	return nil
}

// pathsCommand builds the paths subcommand.
func pathsCommand(opts *cliOptions, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print resolved config and data paths",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			paths, err := platform.DefaultPathsWithOptions(platform.Options{
				AppName: opts.appName,
				DevMode: opts.devMode,
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(stdout, "app: %s\n", opts.appName)
			_, _ = fmt.Fprintf(stdout, "dev_mode: %t\n", opts.devMode)
			_, _ = fmt.Fprintf(stdout, "config: %s\n", paths.ConfigPath)
			_, _ = fmt.Fprintf(stdout, "data_dir: %s\n", paths.DataDir)
			_, _ = fmt.Fprintf(stdout, "dev_log: %s\n", paths.DevLogPath)
			return nil
		},
	}
}

// parseBoolEnv parses input into a normalized form.
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

// runtimeLogger fans log events to a styled console sink and an optional dev-file sink.
type runtimeLogger struct {
	sinks          []*charmLog.Logger
	consoleSink    *charmLog.Logger
	consoleEnabled bool
	closeFile      func() error
	devLog         string
}

// newRuntimeLogger configures runtime log sinks from CLI/config state.
func newRuntimeLogger(stderr io.Writer, appName string, devMode bool, devLogPath string, cfg config.LoggingConfig) (*runtimeLogger, error) {
	level, err := charmLog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse logging level %q: %w", cfg.Level, err)
	}

	if stderr == nil {
		stderr = io.Discard
	}

	consoleLogger := charmLog.NewWithOptions(stderr, charmLog.Options{
		Level:           level,
		Prefix:          appName,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       charmLog.TextFormatter,
	})

	logger := &runtimeLogger{
		sinks:          []*charmLog.Logger{consoleLogger},
		consoleSink:    consoleLogger,
		consoleEnabled: true,
	}
	if !devMode || !cfg.DevLog || strings.TrimSpace(devLogPath) == "" {
		return logger, nil
	}

	if err := os.MkdirAll(filepath.Dir(devLogPath), 0o755); err != nil {
		return nil, fmt.Errorf("create dev log dir: %w", err)
	}
	logFile, err := os.OpenFile(devLogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open dev log file: %w", err)
	}

	// Keep file output parseable and unstyled while preserving styled console logs.
	fileLogger := charmLog.NewWithOptions(logFile, charmLog.Options{
		Level:           level,
		Prefix:          appName,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       charmLog.LogfmtFormatter,
	})
	logger.sinks = append(logger.sinks, fileLogger)
	logger.closeFile = logFile.Close
	logger.devLog = devLogPath
	return logger, nil
}

// DevLogPath returns the active dev log file path.
func (l *runtimeLogger) DevLogPath() string {
	if l == nil {
		return ""
	}
	return l.devLog
}

// Close closes the optional dev-file sink.
func (l *runtimeLogger) Close() error {
	if l == nil || l.closeFile == nil {
		return nil
	}
	return l.closeFile()
}

// SetConsoleEnabled toggles whether the console sink receives runtime events.
func (l *runtimeLogger) SetConsoleEnabled(enabled bool) {
	if l == nil {
		return
	}
	l.consoleEnabled = enabled
}

// shouldLogToSink reports whether one sink should receive runtime output.
func (l *runtimeLogger) shouldLogToSink(sink *charmLog.Logger) bool {
	if l == nil {
		return false
	}
	if sink == nil {
		return false
	}
	if sink == l.consoleSink && !l.consoleEnabled {
		return false
	}
	return true
}

// Debug logs a debug event to all configured sinks.
func (l *runtimeLogger) Debug(msg string, keyvals ...any) {
	if l == nil {
		return
	}
	for _, sink := range l.sinks {
		if !l.shouldLogToSink(sink) {
			continue
		}
		sink.Debug(msg, keyvals...)
	}
}

// Info logs an informational event to all configured sinks.
func (l *runtimeLogger) Info(msg string, keyvals ...any) {
	if l == nil {
		return
	}
	for _, sink := range l.sinks {
		if !l.shouldLogToSink(sink) {
			continue
		}
		sink.Info(msg, keyvals...)
	}
}

// Warn logs a warning event to all configured sinks.
func (l *runtimeLogger) Warn(msg string, keyvals ...any) {
	if l == nil {
		return
	}
	for _, sink := range l.sinks {
		if !l.shouldLogToSink(sink) {
			continue
		}
		sink.Warn(msg, keyvals...)
	}
}

// Error logs an error event to all configured sinks.
func (l *runtimeLogger) Error(msg string, keyvals ...any) {
	if l == nil {
		return
	}
	for _, sink := range l.sinks {
		if !l.shouldLogToSink(sink) {
			continue
		}
		sink.Error(msg, keyvals...)
	}
}
