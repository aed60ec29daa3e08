package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/wise/internal/alert"
	"github.com/ppiankov/wise/internal/audit"
	"github.com/ppiankov/wise/internal/config"
	"github.com/ppiankov/wise/internal/logging"
	"github.com/ppiankov/wise/internal/metrics"
	"github.com/ppiankov/wise/internal/model"
	"github.com/ppiankov/wise/internal/pipeline"
)

var (
	configPath      string
	verbose         bool
	auditLogPath    string
	metricsTextfile string
)

// newRootCmd builds the full command tree. pflag keeps parse state such as
// the dash position on the command, so each invocation builds its own tree.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "wise",
		Short: "Governance gate and integrity proofs for text pipelines",
		Long: "Gates text before it reaches a command (ALLOW, FLAG or HALT), runs the command,\n" +
			"and seals inputs and outputs with SHA-256 proofs that can be verified later.\n\n" +
			"Exit codes: ALLOW 0, FLAG 3, HALT 4, TAMPERED 2, error 1.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to config YAML (default: ~/.wise/config.yaml)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging on stderr")
	root.PersistentFlags().StringVar(&auditLogPath, "audit-log", "", "Append a hash-chained audit entry to this JSONL file")
	root.PersistentFlags().StringVar(&metricsTextfile, "metrics-textfile", "", "Write Prometheus metrics to this textfile")

	root.AddCommand(
		newGateCmd(),
		newSealCmd(),
		newRunCmd(),
		newProveCmd(),
		newVerifyCmd(),
		newWatchCmd(),
		newAuditCmd(),
		newMCPCmd(),
		newVersionCmd(),
	)
	return root
}

// ExitError carries a process exit code out of a command. A nil Err
// exits silently with Code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// Execute runs the root command and exits with its status.
// SIGINT and SIGTERM cancel the command context, which also kills any
// external command a run started.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes a fresh command tree with args and returns the exit status.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.ExecuteContext(ctx)
	return exitCode(stderr, err)
}

func exitCode(stderr io.Writer, err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Err != nil {
			fmt.Fprintf(stderr, "ERROR: %v\n", exitErr.Err)
		}
		return exitErr.Code
	}
	fmt.Fprintf(stderr, "ERROR: %v\n", err)
	return model.ExitError
}

// env is what a command needs besides its own flags: configuration and
// the side records every flow writes to.
type env struct {
	cfg     *config.Config
	log     *slog.Logger
	audit   *audit.Log
	metrics *metrics.Recorder
	pipe    *pipeline.Pipeline
	command string
	started time.Time
}

// setup loads configuration, applies flag overrides and opens the audit
// log. Callers must close the env.
func setup(cmd *cobra.Command) (*env, error) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := logging.NewWithWriter(cmd.ErrOrStderr(), level)

	cfg, cfgHash, err := config.LoadWithHash(configPath)
	if err != nil {
		return nil, err
	}
	if auditLogPath != "" {
		cfg.AuditLog = auditLogPath
	}
	if metricsTextfile != "" {
		cfg.MetricsTextfile = metricsTextfile
	}

	auditLog, err := audit.OpenOptional(cfg.AuditLog)
	if err != nil {
		return nil, err
	}
	rec := metrics.New(cfg.MetricsTextfile)
	if err := rec.Load(); err != nil {
		logger.Warn("metrics textfile not loaded, counting from zero", "error", err)
	}

	logger.Debug("config loaded", "path", configPath, "config_hash", cfgHash, "audit_log", cfg.AuditLog)

	return &env{
		cfg:     cfg,
		log:     logger,
		audit:   auditLog,
		metrics: rec,
		pipe: pipeline.New(pipeline.Config{
			Logger:     logger,
			Audit:      auditLog,
			Alerts:     alert.NewDispatcher(cfg.Alerts),
			Metrics:    rec,
			ConfigHash: cfgHash,
		}),
		command: cmd.Name(),
		started: time.Now(),
	}, nil
}

// close flushes metrics and closes the audit log. Failures are logged,
// never turned into an exit status.
func (e *env) close() {
	e.metrics.Observe(e.command, e.started)
	if err := e.metrics.Flush(); err != nil {
		e.log.Warn("metrics flush failed", "error", err)
	}
	if err := e.audit.Close(); err != nil {
		e.log.Warn("audit log close failed", "error", err)
	}
}

// outcomeExit turns a decision into the command's exit status.
func outcomeExit(o model.Outcome) error {
	if code := model.ExitCode(o); code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}
