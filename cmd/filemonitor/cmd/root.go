// Package cmd provides the CLI commands for filemonitor.
package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/filemonitor/internal/config"
	monerrors "github.com/Aman-CERP/filemonitor/internal/errors"
	"github.com/Aman-CERP/filemonitor/internal/invoker"
	"github.com/Aman-CERP/filemonitor/internal/logging"
	"github.com/Aman-CERP/filemonitor/internal/monitor"
	"github.com/Aman-CERP/filemonitor/internal/pidfile"
	"github.com/Aman-CERP/filemonitor/internal/resolver"
	"github.com/Aman-CERP/filemonitor/internal/watcher"
	"github.com/Aman-CERP/filemonitor/pkg/version"
)

// options holds the flags shared by the root and check commands.
type options struct {
	envFile        string
	configFile     string
	logLevel       string
	logFile        string
	poll           bool
	pollInterval   time.Duration
	pidFile        string
	handlerTimeout time.Duration
	shutdownGrace  time.Duration
	debug          bool
}

// NewRootCmd creates the root command for the filemonitor CLI.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "filemonitor",
		Short: "Run handlers when watched files and directories change",
		Long: `filemonitor watches the paths named by MONITOR_<NAME> environment
variables and runs the executable named by MONITOR_<NAME>_HANDLER on every
create, modify or delete:

  <handler> <create|modify|delete> <absolute path>

A directory is watched recursively; a file is matched by name inside its
parent directory. Runs until interrupted.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMonitors(cmd.Context(), cmd, opts)
		},
	}

	cmd.SetVersionTemplate("filemonitor version {{.Version}}\n")

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.envFile, "env-file", "", "Load additional variables from a dotenv file (process environment wins)")
	flags.StringVarP(&opts.configFile, "config", "c", "", "YAML config file with monitors and settings")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVar(&opts.logFile, "log-file", "", "Also write logs to this size-rotated file")
	flags.BoolVar(&opts.poll, "poll", false, "Use the polling watcher instead of filesystem notifications")
	flags.DurationVar(&opts.pollInterval, "poll-interval", 0, "Polling interval (default 2s)")
	flags.StringVar(&opts.pidFile, "pid-file", "", "Hold an exclusive lock on this PID file")
	flags.DurationVar(&opts.handlerTimeout, "handler-timeout", 0, "Kill handlers running longer than this (0 disables)")
	flags.DurationVar(&opts.shutdownGrace, "shutdown-grace", 10*time.Second, "How long running handlers may finish after a signal before they are killed")
	flags.BoolVar(&opts.debug, "debug", false, "Enable debug logging")

	cmd.AddCommand(newCheckCmd(opts))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	root := NewRootCmd()
	err := root.Execute()
	if err != nil && monerrors.GetCode(err) != monerrors.ErrCodeNoMonitors {
		_, _ = fmt.Fprintln(root.ErrOrStderr(), monerrors.FormatForCLI(err))
	}
	return err
}

// loadConfig builds the configuration: environment snapshot, optional env
// file, optional YAML file, then flags.
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	env := config.Current()
	if opts.envFile != "" {
		var err error
		env, err = config.LoadEnvFile(env, opts.envFile)
		if err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load(env, opts.configFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = opts.logLevel
	}
	if opts.debug {
		cfg.Log.Level = "debug"
	}
	if flags.Changed("log-file") {
		cfg.Log.File = opts.logFile
	}
	if flags.Changed("poll") {
		cfg.Watch.Poll = opts.poll
	}
	if flags.Changed("poll-interval") {
		cfg.Watch.PollInterval = opts.pollInterval.String()
	}
	if flags.Changed("pid-file") {
		cfg.PIDFile = opts.pidFile
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogger(cfg *config.Config, debug bool, out io.Writer) (*slog.Logger, func(), error) {
	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Log.Level
	if debug {
		logCfg = logging.DebugConfig()
	}
	logCfg.FilePath = cfg.Log.File
	logCfg.Output = out
	return logging.Setup(logCfg)
}

func watchOptions(cfg *config.Config) (watcher.Options, error) {
	interval, err := cfg.PollInterval()
	if err != nil {
		return watcher.Options{}, err
	}
	opts := watcher.DefaultOptions()
	opts.ForcePolling = cfg.Watch.Poll
	opts.PollInterval = interval
	return opts, nil
}

func runMonitors(ctx context.Context, cmd *cobra.Command, opts *options) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	logger, cleanup, err := setupLogger(cfg, opts.debug, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer cleanup()
	slog.SetDefault(logger)

	if cfg.PIDFile != "" {
		pf, err := pidfile.Acquire(cfg.PIDFile)
		if err != nil {
			return err
		}
		defer func() {
			if err := pf.Release(); err != nil {
				logger.Warn("Failed to release PID file", slog.String("error", err.Error()))
			}
		}()
	}

	result := resolver.New(logger).Resolve(cfg)
	if len(result.Pairs) == 0 {
		logger.Error(monitor.NoMonitorsMessage)
		return monerrors.New(monerrors.ErrCodeNoMonitors, monitor.NoMonitorsMessage, nil)
	}

	wopts, err := watchOptions(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	inv := invoker.New(cfg.Env.Environ(), invoker.Options{
		Logger:  logger,
		Timeout: opts.handlerTimeout,
	})
	sup := monitor.NewSupervisor(result.Pairs, inv, monitor.Options{
		Watch:  wopts,
		Logger: logger,
	})

	if err := sup.Start(ctx); err != nil {
		logger.Error(monitor.NoMonitorsMessage)
		return err
	}

	logger.Info("filemonitor started",
		slog.String("version", version.Version),
		slog.String("log_level", logging.LevelFromString(cfg.Log.Level).String()),
		slog.Int("monitors", len(sup.Active())),
		slog.Int("skipped", len(result.Skipped)+len(result.Pairs)-len(sup.Active())))

	waitErr := sup.Wait()
	// Restore default signal handling so a second interrupt terminates.
	stop()

	logger.Info("Shutting down, waiting for running handlers",
		slog.Int64("running", inv.Stats().InFlight),
		slog.Duration("grace", opts.shutdownGrace))

	graceCtx, cancel := context.WithTimeout(context.Background(), opts.shutdownGrace)
	defer cancel()
	killed := inv.Shutdown(graceCtx)

	stats := inv.Stats()
	logger.Info("Stopped",
		slog.Uint64("handlers_run", stats.Started),
		slog.Uint64("handlers_failed", stats.Failed),
		slog.Int("handlers_killed", killed))
	return waitErr
}
