package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ErrAlreadyStarted is returned when Start is called twice.
var ErrAlreadyStarted = errors.New("watcher already started")

// HybridWatcher implements the Watcher interface using fsnotify as the primary
// watching mechanism with polling as a fallback.
type HybridWatcher struct {
	fsWatcher   *fsnotify.Watcher
	pollWatcher *PollingWatcher
	useFsnotify bool
	events      chan FileEvent
	errors      chan error
	stopCh      chan struct{}
	done        chan struct{}
	rootPath    string
	opts        Options
	mu          sync.Mutex
	started     bool
	stopped     bool

	// states is owned by the delivery goroutine once Start returns.
	states map[string]*entryState
}

// entryState is what the fsnotify backend last knew about a path.
type entryState struct {
	isDir      bool
	modTime    time.Time
	createdAt  time.Time
	writeArmed bool
}

// Ensure HybridWatcher implements Watcher interface.
var _ Watcher = (*HybridWatcher)(nil)

// NewHybridWatcher creates a new hybrid watcher with the given options.
// Attempts to use fsnotify first, falls back to polling if it fails.
func NewHybridWatcher(opts Options) (*HybridWatcher, error) {
	opts = opts.WithDefaults()

	h := &HybridWatcher{
		events: make(chan FileEvent, opts.EventBufferSize),
		errors: make(chan error, 10),
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
		opts:   opts,
		states: make(map[string]*entryState),
	}

	if !opts.ForcePolling {
		fsw, err := fsnotify.NewWatcher()
		if err == nil {
			h.fsWatcher = fsw
			h.useFsnotify = true
			return h, nil
		}
		slog.Warn("fsnotify unavailable, using polling",
			slog.String("error", err.Error()))
	}

	h.pollWatcher = NewPollingWatcher(opts.PollInterval, opts.Recursive)
	return h, nil
}

// Start subscribes to path and starts delivering events. It returns once
// the subscription is in place.
func (h *HybridWatcher) Start(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve absolute path: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped {
		return errors.New("watcher stopped")
	}
	if h.started {
		return ErrAlreadyStarted
	}
	h.rootPath = absPath

	if h.useFsnotify {
		if err := h.subscribeFsnotify(); err != nil {
			return err
		}
	}

	if !h.useFsnotify {
		if err := h.pollWatcher.Start(ctx, absPath); err != nil {
			return err
		}
	}

	h.started = true
	go h.run(ctx)
	return nil
}

// subscribeFsnotify adds the root (and subdirectories when recursive). If
// the root exists but cannot be added, the watcher switches to polling.
func (h *HybridWatcher) subscribeFsnotify() error {
	info, err := os.Stat(h.rootPath)
	if err != nil {
		return fmt.Errorf("stat watch root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch root %s is not a directory", h.rootPath)
	}

	if _, err := h.addDirs(h.rootPath, false); err != nil {
		slog.Warn("fsnotify subscription failed, falling back to polling",
			slog.String("root", h.rootPath),
			slog.String("error", err.Error()))
		_ = h.fsWatcher.Close()
		h.fsWatcher = nil
		h.useFsnotify = false
		h.pollWatcher = NewPollingWatcher(h.opts.PollInterval, h.opts.Recursive)
	}
	return nil
}

// addDirs subscribes dir, and every directory under it when recursive, and
// records the entries it finds. With announce set, entries below dir are
// returned as creates; each directory is subscribed before it is listed, so
// an entry is either listed here or notified later.
func (h *HybridWatcher) addDirs(dir string, announce bool) ([]FileEvent, error) {
	if !h.opts.Recursive {
		if err := h.fsWatcher.Add(dir); err != nil {
			return nil, err
		}
		entries, _ := os.ReadDir(dir)
		for _, entry := range entries {
			if info, err := entry.Info(); err == nil {
				h.record(filepath.Join(dir, entry.Name()), info)
			}
		}
		return nil, nil
	}

	var created []FileEvent
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil // Skip entries we can't access
		}

		if path != dir {
			info, infoErr := d.Info()
			if infoErr != nil {
				return nil
			}
			if announce {
				if h.noteCreate(path, info, time.Now()) {
					created = append(created, FileEvent{
						Path:      path,
						Operation: OpCreate,
						IsDir:     d.IsDir(),
						Timestamp: time.Now(),
					})
				}
			} else {
				h.record(path, info)
			}
		}

		if !d.IsDir() {
			return nil
		}
		return h.fsWatcher.Add(path)
	})
	return created, err
}

// record stores info for path without treating it as new.
func (h *HybridWatcher) record(path string, info os.FileInfo) {
	st, ok := h.states[path]
	if !ok {
		st = &entryState{}
		h.states[path] = st
	}
	st.isDir = info.IsDir()
	st.modTime = info.ModTime()
}

// noteCreate records a create for path and reports whether it is new. A
// create already reported within CreateWindow is a duplicate, which happens
// when an entry is both found by a directory walk and notified.
func (h *HybridWatcher) noteCreate(path string, info os.FileInfo, now time.Time) bool {
	if st, ok := h.states[path]; ok && !st.createdAt.IsZero() && now.Sub(st.createdAt) <= h.opts.CreateWindow {
		return false
	}

	st := &entryState{createdAt: now}
	if info != nil {
		st.isDir = info.IsDir()
		st.modTime = info.ModTime()
	}
	st.writeArmed = !st.isDir
	h.states[path] = st
	return true
}

// forget drops path, and everything under it if it was a directory.
func (h *HybridWatcher) forget(path string) {
	st, ok := h.states[path]
	delete(h.states, path)
	if ok && !st.isDir {
		return
	}
	prefix := path + string(filepath.Separator)
	for p := range h.states {
		if strings.HasPrefix(p, prefix) {
			delete(h.states, p)
		}
	}
}

// run is the delivery loop. It owns the output channels and closes them
// when it exits.
func (h *HybridWatcher) run(ctx context.Context) {
	defer func() {
		if h.fsWatcher != nil {
			_ = h.fsWatcher.Close()
		}
		if h.pollWatcher != nil {
			_ = h.pollWatcher.Stop()
		}
		close(h.events)
		close(h.errors)
		close(h.done)
	}()

	if h.useFsnotify {
		h.runFsnotify(ctx)
		return
	}
	h.runPolling(ctx)
}

func (h *HybridWatcher) runFsnotify(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.stopCh:
			return
		case event, ok := <-h.fsWatcher.Events:
			if !ok {
				return
			}
			for _, fe := range h.translate(event) {
				if !h.emit(ctx, fe) {
					return
				}
			}
		case err, ok := <-h.fsWatcher.Errors:
			if !ok {
				return
			}
			h.emitError(err)
		}
	}
}

func (h *HybridWatcher) runPolling(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.stopCh:
			return
		case event, ok := <-h.pollWatcher.Events():
			if !ok {
				return
			}
			if !h.emit(ctx, event) {
				return
			}
		case err, ok := <-h.pollWatcher.Errors():
			if !ok {
				return
			}
			h.emitError(err)
		}
	}
}

// translate classifies an fsnotify event into zero or more file events.
// Create and Remove/Rename map directly. Write is a modify unless it is the
// first write after the file's create. Chmod is a modify only when the mtime
// changed, which covers touch but not permission changes.
func (h *HybridWatcher) translate(event fsnotify.Event) []FileEvent {
	now := time.Now()
	info, statErr := os.Lstat(event.Name)
	if statErr != nil {
		info = nil
	}
	isDir := info != nil && info.IsDir()

	fe := FileEvent{Path: event.Name, IsDir: isDir, Timestamp: now}

	switch {
	case event.Has(fsnotify.Create):
		if !h.noteCreate(event.Name, info, now) {
			return nil
		}
		fe.Operation = OpCreate
		events := []FileEvent{fe}
		if isDir && h.opts.Recursive {
			nested, err := h.addDirs(event.Name, true)
			if err != nil {
				h.emitError(fmt.Errorf("watch new directory %s: %w", event.Name, err))
			}
			events = append(events, nested...)
		}
		return events

	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		if st, ok := h.states[event.Name]; ok {
			fe.IsDir = st.isDir
		}
		h.forget(event.Name)
		fe.Operation = OpDelete
		return []FileEvent{fe}

	case event.Has(fsnotify.Write):
		st, ok := h.states[event.Name]
		if !ok {
			st = &entryState{}
			h.states[event.Name] = st
		}
		if info != nil {
			st.modTime = info.ModTime()
		}
		if st.writeArmed {
			st.writeArmed = false
			if now.Sub(st.createdAt) <= h.opts.CreateWindow {
				return nil
			}
		}
		fe.Operation = OpModify
		return []FileEvent{fe}

	case event.Has(fsnotify.Chmod):
		if info == nil || isDir {
			return nil
		}
		st, ok := h.states[event.Name]
		if !ok {
			h.record(event.Name, info)
			return nil
		}
		if info.ModTime().Equal(st.modTime) {
			return nil
		}
		st.modTime = info.ModTime()
		st.writeArmed = false
		fe.Operation = OpModify
		return []FileEvent{fe}
	}

	return nil
}

// emit blocks until the event is consumed or the watcher shuts down.
func (h *HybridWatcher) emit(ctx context.Context, event FileEvent) bool {
	select {
	case h.events <- event:
		return true
	case <-h.stopCh:
		return false
	case <-ctx.Done():
		return false
	}
}

// emitError sends an error to the error channel, dropping it if the
// buffer is full.
func (h *HybridWatcher) emitError(err error) {
	select {
	case h.errors <- err:
	default:
		slog.Warn("watcher error dropped", slog.String("error", err.Error()))
	}
}

// Stop stops the watcher and releases resources.
func (h *HybridWatcher) Stop() error {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return nil
	}
	h.stopped = true
	started := h.started
	close(h.stopCh)
	h.mu.Unlock()

	if started {
		<-h.done
		return nil
	}

	// Never started: release resources and close channels here.
	if h.fsWatcher != nil {
		_ = h.fsWatcher.Close()
	}
	if h.pollWatcher != nil {
		_ = h.pollWatcher.Stop()
	}
	close(h.events)
	close(h.errors)
	close(h.done)
	return nil
}

// Events returns the channel of file events.
func (h *HybridWatcher) Events() <-chan FileEvent {
	return h.events
}

// Errors returns the channel of errors.
func (h *HybridWatcher) Errors() <-chan error {
	return h.errors
}

// Done is closed once the watcher has fully stopped.
func (h *HybridWatcher) Done() <-chan struct{} {
	return h.done
}

// WatcherType returns the type of watcher being used ("fsnotify" or "polling").
func (h *HybridWatcher) WatcherType() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.useFsnotify {
		return "fsnotify"
	}
	return "polling"
}

// RootPath returns the root path being watched.
func (h *HybridWatcher) RootPath() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rootPath
}
