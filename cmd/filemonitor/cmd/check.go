package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	monerrors "github.com/Aman-CERP/filemonitor/internal/errors"
	"github.com/Aman-CERP/filemonitor/internal/monitor"
	"github.com/Aman-CERP/filemonitor/internal/output"
	"github.com/Aman-CERP/filemonitor/internal/preflight"
	"github.com/Aman-CERP/filemonitor/internal/resolver"
)

// newCheckCmd creates the check command.
func newCheckCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate monitor declarations without watching",
		Long: `Resolve every MONITOR_<NAME> declaration and config file entry, print
the monitors that would run and the problems found with the rest.
Exits with status 1 when no monitor is valid.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd, opts)
		},
	}
}

func runCheck(cmd *cobra.Command, opts *options) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	// Problems are printed below; keep the resolver quiet.
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	result := resolver.New(quiet).Resolve(cfg)

	out := output.New(cmd.OutOrStdout())

	if len(result.Pairs) > 0 {
		out.Header("Monitors")
		rows := make([][]string, 0, len(result.Pairs))
		for _, p := range result.Pairs {
			rows = append(rows, []string{p.Name, kindOf(p.WatchedPath), p.WatchedPath, p.HandlerPath})
		}
		out.Table([]string{"NAME", "KIND", "PATH", "HANDLER"}, rows)
		out.Newline()
	}

	for _, s := range result.Skipped {
		out.Warningf("%s skipped", s.Name)
		for _, problem := range s.Problems {
			out.Detail(fmt.Sprintf("%s [%s]", problem.Message, problem.Code))
		}
	}

	if len(result.Pairs) == 0 {
		out.Error(monitor.NoMonitorsMessage)
		return monerrors.New(monerrors.ErrCodeNoMonitors, monitor.NoMonitorsMessage, nil)
	}

	checker := preflight.New()
	checks := checker.RunAll(cmd.Context(), preflight.Request{
		Pairs:   result.Pairs,
		LogFile: cfg.Log.File,
		PIDFile: cfg.PIDFile,
	})

	out.Newline()
	out.Header("System")
	for _, c := range checks {
		switch c.Status {
		case preflight.StatusPass:
			out.Successf("%s: %s", c.Name, c.Message)
		case preflight.StatusWarn:
			out.Warningf("%s: %s", c.Name, c.Message)
		default:
			out.Errorf("%s: %s", c.Name, c.Message)
		}
		if c.Details != "" {
			out.Detail(c.Details)
		}
	}
	out.Newline()

	if checker.HasCriticalFailures(checks) {
		return monerrors.New(monerrors.ErrCodeSettingInvalid, "preflight checks failed", nil)
	}

	out.Successf("%d monitor(s) ready, %d skipped", len(result.Pairs), len(result.Skipped))
	return nil
}

func kindOf(path string) string {
	info, err := os.Stat(path)
	switch {
	case err != nil:
		return "missing"
	case info.IsDir():
		return "directory"
	default:
		return "file"
	}
}
