package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"creditdesk/internal/brain"
	"creditdesk/internal/config"
	"creditdesk/internal/confirm"
	"creditdesk/internal/domain"
	"creditdesk/internal/gateway"
	"creditdesk/internal/llm"
	"creditdesk/internal/router"
	"creditdesk/internal/session"
	"creditdesk/internal/taskstore"
	"creditdesk/internal/tooling"
	"creditdesk/internal/workflow"
)

// buildMeta holds version and build metadata (injectable via ldflags).
type buildMeta struct {
	Version string
	GoOS    string
	GoArch  string
}

func newBuildMeta(version, goos, goarch string) buildMeta {
	if goos == "" {
		goos = runtime.GOOS
	}
	if goarch == "" {
		goarch = runtime.GOARCH
	}
	return buildMeta{Version: version, GoOS: goos, GoArch: goarch}
}

func (m buildMeta) String() string {
	return fmt.Sprintf("creditdesk %s %s/%s", m.Version, m.GoOS, m.GoArch)
}

func newRootCommand(bm buildMeta) *cobra.Command {
	root := &cobra.Command{
		Use:   "creditdesk",
		Short: "Conversational assistant for the commercial credit desk",
		Long:  "Creditdesk answers pipeline and task questions, and stages write actions behind an explicit confirmation step.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion, _ := cmd.Flags().GetBool("version"); showVersion {
				fmt.Fprintln(cmd.OutOrStdout(), bm.String())
				return nil
			}
			return runDaemon(cmd, daemonShutdownCh)
		},
	}
	root.Flags().BoolP("version", "V", false, "print version and build metadata")
	root.PersistentFlags().String("config", "", "path to config file (default $CREDITDESK_CONFIG or creditdesk.json)")

	askCmd := &cobra.Command{
		Use:   "ask <message>",
		Short: "Run a single turn and print the answer",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runAsk,
	}
	askCmd.Flags().String("session", "cli", "session ID for the turn")
	root.AddCommand(askCmd)

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Check config, stores, and gateway settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			fix, _ := cmd.Flags().GetBool("fix")
			code := runCheck(cmd, fix)
			if code != 0 {
				return exitCodeErr(code)
			}
			return nil
		},
	}
	checkCmd.Flags().Bool("fix", false, "write default config if missing")
	root.AddCommand(checkCmd)

	return root
}

// configPath resolves the config file path: --config flag, then
// CREDITDESK_CONFIG, then creditdesk.json in the working directory.
func configPath(cmd *cobra.Command) string {
	if p, _ := cmd.Flags().GetString("config"); p != "" {
		return p
	}
	if p := os.Getenv("CREDITDESK_CONFIG"); p != "" {
		return p
	}
	return "creditdesk.json"
}

// loadConfig loads the config file or falls back to defaults.
func loadConfig(cmd *cobra.Command) *domain.Config {
	path := configPath(cmd)
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintln(cmd.OutOrStdout(), "  (no config file, using defaults)")
		return config.Default()
	}
	return cfg
}

// newLogger builds the process logger from infra config.
func newLogger(infra domain.InfraConfig) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(infra.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.EqualFold(infra.LogFormat, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// app is the fully wired assistant: turn handler plus the resources that
// need closing on shutdown.
type app struct {
	turns  *session.Manager
	store  domain.TaskStore
	closer []func() error
}

func (a *app) close() {
	for _, fn := range a.closer {
		_ = fn()
	}
}

// buildApp wires config into the full turn pipeline: provider, stores,
// workflow client, tools, router, brain, and session manager. SQL-backed
// stores fall back to their in-memory counterparts when not configured.
func buildApp(cfg *domain.Config, logger *slog.Logger) (*app, error) {
	provider, err := llm.NewProvider(&cfg.Model, &cfg.Retry)
	if err != nil {
		return nil, fmt.Errorf("model provider: %w", err)
	}

	a := &app{}

	var store domain.TaskStore
	if cfg.Store.DatabaseURL != "" {
		db, err := taskstore.Connect(cfg.Store.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("task store: %w", err)
		}
		a.closer = append(a.closer, db.Close)
		sqlStore, err := taskstore.NewSQLStore(db)
		if err != nil {
			return nil, fmt.Errorf("task store: %w", err)
		}
		store = sqlStore
	} else {
		logger.Warn("no database configured, using in-memory task store")
		store = taskstore.NewMemStore()
	}
	a.store = store

	var pending domain.PendingStore
	if cfg.Store.PendingPath != "" {
		sqlite, err := confirm.Open(cfg.Store.PendingPath)
		if err != nil {
			return nil, fmt.Errorf("pending store: %w", err)
		}
		a.closer = append(a.closer, sqlite.Close)
		pending = sqlite
	} else {
		logger.Warn("no pending path configured, confirmations will not survive restarts")
		pending = confirm.NewMemStore()
	}

	engine := workflow.NewClient(cfg.Workflow)

	registry := tooling.NewRegistry()
	tools := []tooling.SchemaTool{
		tooling.NewGetTasksTool(store),
		tooling.NewRecordTaskTool(store),
		tooling.NewCreateWorkItemTool(engine, store),
		tooling.NewPipelineSummaryTool(engine),
		tooling.NewReadFileTool("."),
		tooling.NewDebtYieldTool(),
	}
	for _, tool := range tools {
		if err := registry.Register(tool); err != nil {
			return nil, fmt.Errorf("register tool: %w", err)
		}
	}

	rules := router.DefaultRules()
	if cfg.Router.RulesPath != "" {
		loaded, err := router.LoadRules(cfg.Router.RulesPath)
		if err != nil {
			return nil, fmt.Errorf("router rules: %w", err)
		}
		rules = loaded
	}

	b := brain.NewBrain(provider, registry, pending,
		brain.WithRouter(router.New(rules)),
		brain.WithLogger(logger),
	)
	a.turns = session.NewManager(b, session.WithLogger(logger))
	return a, nil
}

// runAsk runs a single turn from the command line and prints the answer.
func runAsk(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(cmd)
	config.CleanPaths(cfg)
	logger := newLogger(cfg.Infra)

	a, err := buildApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	sessionID, _ := cmd.Flags().GetString("session")
	answer, err := a.turns.HandleTurn(cmd.Context(), sessionID, strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), answer)
	return nil
}

// runCheck validates the configuration and probes the stores. Returns 0 when
// everything checks out, 1 otherwise.
func runCheck(cmd *cobra.Command, fix bool) int {
	out := cmd.OutOrStdout()
	path := configPath(cmd)

	cfg, err := config.Load(path)
	if err != nil {
		if !fix {
			fmt.Fprintf(out, "config: %s missing (run with --fix to create)\n", path)
			return 1
		}
		if err := config.WriteDefault(path); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "config: write default: %v\n", err)
			return 1
		}
		fmt.Fprintf(out, "config: wrote defaults to %s\n", path)
		cfg = config.Default()
	} else {
		fmt.Fprintf(out, "config: %s ok\n", path)
	}
	config.CleanPaths(cfg)

	code := 0
	if cfg.Gateway.Port < 0 || cfg.Gateway.Port > 65535 {
		fmt.Fprintf(out, "gateway: invalid port %d\n", cfg.Gateway.Port)
		code = 1
	} else {
		fmt.Fprintf(out, "gateway: port %d\n", cfg.Gateway.Port)
	}

	if cfg.Store.DatabaseURL == "" {
		fmt.Fprintln(out, "store: in-memory (no databaseUrl)")
	} else if db, err := taskstore.Connect(cfg.Store.DatabaseURL); err != nil {
		fmt.Fprintf(out, "store: unreachable: %v\n", err)
		code = 1
	} else {
		db.Close()
		fmt.Fprintln(out, "store: ok")
	}

	fmt.Fprintf(out, "model: %s (%s)\n", cfg.Model.DefaultModel, cfg.Model.Provider)
	return code
}

// runDaemon wires the app and serves the gateway until shutdown. If
// shutdownCh is non-nil, it returns when shutdownCh is closed (for tests);
// otherwise it blocks on OS signals.
func runDaemon(cmd *cobra.Command, shutdownCh <-chan struct{}) error {
	cfg := loadConfig(cmd)
	config.CleanPaths(cfg)
	logger := newLogger(cfg.Infra)
	slog.SetDefault(logger)

	a, err := buildApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	var health gateway.HealthChecker
	if cfg.Store.DatabaseURL != "" {
		health = a.store
	}
	srv, err := gateway.NewServer(&cfg.Gateway, a.turns, health, logger)
	if err != nil {
		return err
	}
	gatewayServerForTest = srv

	gatewayShutdown := make(chan struct{})
	serveDone := make(chan error, 1)
	go func() {
		serveDone <- srv.Run(gatewayShutdown)
	}()

	// Wait until the server has bound so "ready." means clients can connect.
	var bound string
	for i := 0; i < daemonBindWaitIterations; i++ {
		if addr := srv.Addr(); addr != "" {
			bound = addr
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if bound == "" {
		close(gatewayShutdown)
		if err := srv.ListenErr(); err != nil {
			return fmt.Errorf("gateway failed to bind: %w", err)
		}
		return fmt.Errorf("gateway failed to bind (check port or permissions)")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "  listen %s\n  ready.\n", bound)

	if shutdownCh != nil {
		<-shutdownCh
	} else {
		daemonWaitForShutdown()
	}
	close(gatewayShutdown)
	<-serveDone
	return nil
}

func getVersion() string {
	if version != "" {
		return version
	}
	b, err := os.ReadFile("VERSION")
	if err != nil {
		return "dev"
	}
	return strings.TrimSpace(string(b))
}

// version is set at build time via ldflags, e.g.:
//
//	go build -ldflags "-X main.version=1.0.0" -o creditdesk ./cmd/creditdesk
var version string

// daemonShutdownCh is set by tests to unblock runDaemon without signals.
// Production leaves it nil.
var daemonShutdownCh <-chan struct{}

// daemonWaitForShutdown is set by init in main_signal*.go so tests can inject
// a no-op.
var daemonWaitForShutdown func()

// gatewayServerForTest is set when the gateway server starts so tests can
// read Addr().
var gatewayServerForTest *gateway.Server

// daemonBindWaitIterations is the max loop count waiting for the gateway to
// bind. Tests may lower it to cover the bind-failure branch.
var daemonBindWaitIterations = 50

// exitCodeErr carries an exit code for the process.
type exitCodeErr int

func (e exitCodeErr) Error() string { return fmt.Sprintf("exit %d", int(e)) }
func (e exitCodeErr) ExitCode() int { return int(e) }

// runApp runs the root command with the given args and returns the exit code.
func runApp(args []string) int {
	bm := newBuildMeta(version, "", "")
	if bm.Version == "" {
		bm.Version = getVersion()
	}
	root := newRootCommand(bm)
	root.SetArgs(args[1:])
	root.SetContext(context.Background())
	if err := root.Execute(); err != nil {
		if ec, ok := err.(interface{ ExitCode() int }); ok {
			return ec.ExitCode()
		}
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
