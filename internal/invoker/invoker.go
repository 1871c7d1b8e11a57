// Package invoker runs handler executables for filesystem events.
//
// Each Invoke spawns exactly one subprocess in its own goroutine:
//
//	<handler> <kind> <absolute path>
//
// with the startup environment passed through unchanged. Output and exit
// status are logged; failures never propagate to the caller. Shutdown
// waits for running handlers and kills whatever outlives its context.
package invoker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	monerrors "github.com/Aman-CERP/filemonitor/internal/errors"
	"github.com/Aman-CERP/filemonitor/internal/watcher"
)

const outputWaitDelay = 2 * time.Second

// Result describes one completed handler run.
type Result struct {
	Handler  string
	Event    watcher.FileEvent
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
	// Err is nil on success, otherwise a *monerrors.MonitorError with an
	// invocation code.
	Err error
}

// Stats counts handler runs since the invoker was created.
type Stats struct {
	Started   uint64
	Succeeded uint64
	Failed    uint64
	InFlight  int64
}

// Options configures an Invoker.
type Options struct {
	// Logger receives dispatch, output and failure lines.
	Logger *slog.Logger
	// Timeout kills a handler that runs longer. Zero means no limit.
	Timeout time.Duration
}

// Invoker spawns handler subprocesses.
type Invoker struct {
	env     []string
	logger  *slog.Logger
	timeout time.Duration

	// base parents every run; Shutdown cancels it to kill stragglers.
	base   context.Context
	cancel context.CancelFunc

	wg        sync.WaitGroup
	started   atomic.Uint64
	succeeded atomic.Uint64
	failed    atomic.Uint64
	inFlight  atomic.Int64
}

// New creates an Invoker that gives every handler env as its environment.
func New(env []string, opts Options) *Invoker {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	base, cancel := context.WithCancel(context.Background())
	return &Invoker{
		env:     env,
		logger:  logger,
		timeout: opts.Timeout,
		base:    base,
		cancel:  cancel,
	}
}

// Invoke starts handler for event and returns immediately. The returned
// channel receives exactly one Result and is then closed; callers may
// ignore it.
func (i *Invoker) Invoke(event watcher.FileEvent, handler string) <-chan Result {
	results := make(chan Result, 1)

	i.started.Add(1)
	i.inFlight.Add(1)
	i.wg.Add(1)

	go func() {
		defer i.wg.Done()
		defer i.inFlight.Add(-1)
		defer close(results)

		result := i.run(handler, event)
		if result.Err != nil {
			i.failed.Add(1)
		} else {
			i.succeeded.Add(1)
		}
		results <- result
	}()

	return results
}

// Wait blocks until every started handler has finished.
func (i *Invoker) Wait() {
	i.wg.Wait()
}

// Shutdown waits for running handlers until ctx is done, then kills the
// remaining ones and waits for them to exit. It returns the number of
// handlers that were killed.
func (i *Invoker) Shutdown(ctx context.Context) int {
	done := make(chan struct{})
	go func() {
		i.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		i.cancel()
		return 0
	case <-ctx.Done():
	}

	killed := int(i.inFlight.Load())
	i.logger.Warn("Shutdown grace period expired, killing handlers",
		slog.Int("running", killed))
	i.cancel()
	<-done
	return killed
}

// Stats returns a snapshot of the run counters.
func (i *Invoker) Stats() Stats {
	return Stats{
		Started:   i.started.Load(),
		Succeeded: i.succeeded.Load(),
		Failed:    i.failed.Load(),
		InFlight:  i.inFlight.Load(),
	}
}

func (i *Invoker) run(handler string, event watcher.FileEvent) (result Result) {
	kind := event.Operation.String()
	result = Result{Handler: handler, Event: event, ExitCode: -1}

	defer func() {
		if r := recover(); r != nil {
			result.Err = monerrors.New(monerrors.ErrCodePanic,
				fmt.Sprintf("handler invocation panicked: %v", r), nil)
			i.logger.Error("Handler invocation panicked", monerrors.LogAttrs(result.Err)...)
		}
	}()

	i.logger.Info("Running handler",
		slog.String("kind", kind),
		slog.String("handler", handler),
		slog.String("path", event.Path))

	ctx := i.base
	if i.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, handler, kind, event.Path)
	cmd.Env = i.env
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// A killed handler's children may keep the output pipes open.
	cmd.WaitDelay = outputWaitDelay

	start := time.Now()
	err := cmd.Run()
	result.Duration = time.Since(start)
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}

	i.logOutput(handler, "stdout", result.Stdout)
	i.logOutput(handler, "stderr", result.Stderr)

	if err != nil {
		result.Err = i.classify(ctx, handler, event, result, err)
		i.logger.Error("Handler failed", monerrors.LogAttrs(result.Err)...)
		return result
	}

	i.logger.Debug("Handler finished",
		slog.String("handler", handler),
		slog.String("path", event.Path),
		slog.Duration("duration", result.Duration))
	return result
}

func (i *Invoker) classify(ctx context.Context, handler string, event watcher.FileEvent, result Result, err error) *monerrors.MonitorError {
	var me *monerrors.MonitorError
	var exitErr *exec.ExitError

	switch {
	case i.base.Err() != nil:
		me = monerrors.InvocationError(monerrors.ErrCodeHandlerKilled,
			fmt.Sprintf("%s killed at shutdown", handler), err)
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		me = monerrors.InvocationError(monerrors.ErrCodeHandlerTimeout,
			fmt.Sprintf("%s timed out after %s", handler, i.timeout), err)
	case errors.As(err, &exitErr):
		me = monerrors.InvocationError(monerrors.ErrCodeHandlerExit,
			fmt.Sprintf("%s exited with status %d", handler, result.ExitCode), err)
	default:
		me = monerrors.InvocationError(monerrors.ErrCodeSpawnFailed,
			fmt.Sprintf("%s could not be started", handler), err)
	}

	return me.
		WithDetail("kind", event.Operation.String()).
		WithDetail("path", event.Path)
}

func (i *Invoker) logOutput(handler, stream, output string) {
	output = strings.TrimRight(output, "\r\n")
	if output == "" {
		return
	}
	i.logger.Info("Handler output",
		slog.String("handler", handler),
		slog.String("stream", stream),
		slog.String("output", output))
}
