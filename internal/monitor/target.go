package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	monerrors "github.com/Aman-CERP/filemonitor/internal/errors"
	"github.com/Aman-CERP/filemonitor/internal/invoker"
	"github.com/Aman-CERP/filemonitor/internal/resolver"
	"github.com/Aman-CERP/filemonitor/internal/watcher"
)

// ErrAlreadyOpen is returned when Open is called on an open target.
var ErrAlreadyOpen = errors.New("target already open")

// Dispatcher runs a handler for an event without blocking the caller.
type Dispatcher interface {
	Invoke(event watcher.FileEvent, handler string) <-chan invoker.Result
}

// WatcherFactory creates the watcher backing a target.
type WatcherFactory func(opts watcher.Options) (watcher.Watcher, error)

// Options configures targets.
type Options struct {
	// Watch is the base watcher configuration. Recursive is decided per
	// target.
	Watch watcher.Options

	// Logger receives lifecycle and diagnostic lines.
	Logger *slog.Logger

	// NewWatcher overrides the watcher backend. Defaults to a HybridWatcher.
	NewWatcher WatcherFactory
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.NewWatcher == nil {
		o.NewWatcher = func(opts watcher.Options) (watcher.Watcher, error) {
			return watcher.NewHybridWatcher(opts)
		}
	}
	o.Watch = o.Watch.WithDefaults()
	return o
}

// Target is one watched path bound to one handler.
type Target struct {
	name        string
	watchedPath string
	handlerPath string

	// Set once by Open.
	isDirectory bool
	watchRoot   string
	w           watcher.Watcher

	dispatcher Dispatcher
	opts       Options
	logger     *slog.Logger

	mu     sync.Mutex
	opened bool

	dispatched atomic.Uint64
	ignored    atomic.Uint64
}

// New creates an inactive target for pair. Call Open before Run.
func New(pair resolver.Pair, dispatcher Dispatcher, opts Options) *Target {
	opts = opts.withDefaults()
	return &Target{
		name:        pair.Name,
		watchedPath: pair.WatchedPath,
		handlerPath: pair.HandlerPath,
		dispatcher:  dispatcher,
		opts:        opts,
		logger:      opts.Logger.With(slog.String("monitor", pair.Name)),
	}
}

// Open resolves the watch root and subscribes to it. On failure the target
// stays inert and the returned error is a *monerrors.MonitorError with a
// subscription code.
func (t *Target) Open(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.opened {
		return ErrAlreadyOpen
	}

	info, err := os.Stat(t.watchedPath)
	if err != nil {
		return monerrors.New(monerrors.ErrCodeStatFailed,
			fmt.Sprintf("cannot stat %s", t.watchedPath), err).
			WithDetail("monitor", t.name)
	}

	isDirectory := info.IsDir()
	watchRoot := t.watchedPath
	if !isDirectory {
		watchRoot = filepath.Dir(t.watchedPath)
	}

	opts := t.opts.Watch
	opts.Recursive = isDirectory

	w, err := t.opts.NewWatcher(opts)
	if err != nil {
		return monerrors.SubscriptionError(
			fmt.Sprintf("cannot create watcher for %s", watchRoot), err).
			WithDetail("monitor", t.name)
	}

	if err := w.Start(ctx, watchRoot); err != nil {
		_ = w.Stop()
		return monerrors.SubscriptionError(
			fmt.Sprintf("cannot watch %s", watchRoot), err).
			WithDetail("monitor", t.name)
	}

	t.isDirectory = isDirectory
	t.watchRoot = watchRoot
	t.w = w
	t.opened = true
	return nil
}

// Run consumes events until ctx is cancelled or the watcher stops. It
// stops the watcher before returning.
func (t *Target) Run(ctx context.Context) {
	t.mu.Lock()
	w := t.w
	t.mu.Unlock()
	if w == nil {
		return
	}
	defer func() { _ = w.Stop() }()

	events := w.Events()
	errs := w.Errors()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-events:
			if !ok {
				return
			}
			t.handle(event)

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			t.logger.Warn("Watcher error",
				slog.String("path", t.watchRoot),
				slog.String("error", err.Error()))
		}
	}
}

// Close stops the underlying watcher. Safe to call on an unopened target.
func (t *Target) Close() error {
	t.mu.Lock()
	w := t.w
	t.mu.Unlock()
	if w == nil {
		return nil
	}
	return w.Stop()
}

// ShouldDispatch reports whether event concerns this target.
func (t *Target) ShouldDispatch(event watcher.FileEvent) bool {
	if t.isDirectory {
		return true
	}
	return filepath.Base(event.Path) == filepath.Base(t.watchedPath)
}

func (t *Target) handle(event watcher.FileEvent) {
	defer func() {
		if r := recover(); r != nil {
			err := monerrors.New(monerrors.ErrCodePanic,
				fmt.Sprintf("panic while handling %s event: %v", event.Operation, r), nil).
				WithDetail("path", event.Path)
			t.logger.Error("Event handling panicked", monerrors.LogAttrs(err)...)
		}
	}()

	if !t.ShouldDispatch(event) {
		t.ignored.Add(1)
		t.logger.Debug("Ignoring event",
			slog.String("kind", event.Operation.String()),
			slog.String("path", event.Path))
		return
	}

	t.dispatched.Add(1)
	t.dispatcher.Invoke(event, t.handlerPath)
}

// Name returns the declaration name.
func (t *Target) Name() string { return t.name }

// WatchedPath returns the absolute watched path.
func (t *Target) WatchedPath() string { return t.watchedPath }

// HandlerPath returns the absolute handler path.
func (t *Target) HandlerPath() string { return t.handlerPath }

// IsDirectory reports whether the watched path was a directory at Open.
func (t *Target) IsDirectory() bool { return t.isDirectory }

// WatchRoot returns the directory subscribed to. Empty before Open.
func (t *Target) WatchRoot() string { return t.watchRoot }

// Dispatched returns how many events were handed to the handler.
func (t *Target) Dispatched() uint64 { return t.dispatched.Load() }

// Ignored returns how many events were filtered out.
func (t *Target) Ignored() uint64 { return t.ignored.Load() }

// WatcherType names the active watcher backend, or "" before Open.
func (t *Target) WatcherType() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if typed, ok := t.w.(interface{ WatcherType() string }); ok {
		return typed.WatcherType()
	}
	return ""
}
