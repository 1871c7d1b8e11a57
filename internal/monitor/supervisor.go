package monitor

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	monerrors "github.com/Aman-CERP/filemonitor/internal/errors"
	"github.com/Aman-CERP/filemonitor/internal/resolver"
)

// NoMonitorsMessage is logged when nothing could be watched.
const NoMonitorsMessage = "No valid monitors found."

// Supervisor owns the targets of one process.
type Supervisor struct {
	targets []*Target
	active  []*Target
	logger  *slog.Logger

	group *errgroup.Group
}

// NewSupervisor creates one target per pair, in pair order.
func NewSupervisor(pairs []resolver.Pair, dispatcher Dispatcher, opts Options) *Supervisor {
	opts = opts.withDefaults()
	targets := make([]*Target, 0, len(pairs))
	for _, pair := range pairs {
		targets = append(targets, New(pair, dispatcher, opts))
	}
	return &Supervisor{targets: targets, logger: opts.Logger}
}

// Start opens every target and runs the ones that opened. Targets that
// fail to open are logged and skipped. Start returns ERR_401_NO_MONITORS
// when no target is active.
func (s *Supervisor) Start(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	s.group = g

	for _, t := range s.targets {
		if err := t.Open(gctx); err != nil {
			s.logger.Error("Cannot monitor path", monerrors.LogAttrs(err)...)
			continue
		}

		s.logger.Info("Now monitoring",
			slog.String("path", t.WatchedPath()),
			slog.String("handler", t.HandlerPath()),
			slog.String("watcher", t.WatcherType()))

		s.active = append(s.active, t)
		g.Go(func() error {
			t.Run(gctx)
			return nil
		})
	}

	if len(s.active) == 0 {
		return monerrors.New(monerrors.ErrCodeNoMonitors, NoMonitorsMessage, nil).
			WithSuggestion("Set MONITOR_<NAME> and MONITOR_<NAME>_HANDLER, or add monitors to the config file")
	}
	return nil
}

// Wait blocks until every running target has returned.
func (s *Supervisor) Wait() error {
	if s.group == nil {
		return nil
	}
	return s.group.Wait()
}

// Run starts the targets and blocks until ctx is done.
func (s *Supervisor) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	return s.Wait()
}

// Targets returns every target, active or not.
func (s *Supervisor) Targets() []*Target { return s.targets }

// Active returns the targets that opened successfully.
func (s *Supervisor) Active() []*Target { return s.active }
