package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// PollingWatcher watches for file changes by periodically scanning the directory.
// Used as a fallback when fsnotify is not available or fails.
type PollingWatcher struct {
	interval  time.Duration
	recursive bool
	fileState map[string]fileSnapshot
	events    chan FileEvent
	errors    chan error
	stopCh    chan struct{}
	done      chan struct{}
	mu        sync.Mutex
	started   bool
	stopped   bool
	rootPath  string
}

type fileSnapshot struct {
	modTime time.Time
	size    int64
	isDir   bool
}

// NewPollingWatcher creates a new polling watcher with the given interval.
// When recursive is false only the root's direct entries are scanned.
func NewPollingWatcher(interval time.Duration, recursive bool) *PollingWatcher {
	return &PollingWatcher{
		interval:  interval,
		recursive: recursive,
		fileState: make(map[string]fileSnapshot),
		events:    make(chan FileEvent, 100),
		errors:    make(chan error, 10),
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start takes the baseline scan and starts polling in the background.
// It fails if the root cannot be scanned.
func (p *PollingWatcher) Start(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve absolute path: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started || p.stopped {
		return ErrAlreadyStarted
	}
	p.rootPath = absPath

	state, err := p.scan()
	if err != nil {
		return fmt.Errorf("perform initial scan: %w", err)
	}
	p.fileState = state
	p.started = true

	go p.loop(ctx)
	return nil
}

func (p *PollingWatcher) loop(ctx context.Context) {
	defer func() {
		close(p.events)
		close(p.errors)
		close(p.done)
	}()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		case <-ticker.C:
			events, err := p.detectChanges()
			if err != nil {
				// Non-fatal error, send to error channel
				select {
				case p.errors <- err:
				default:
				}
				continue
			}
			for _, event := range events {
				select {
				case p.events <- event:
				case <-p.stopCh:
					return
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

// Stop stops the polling watcher.
func (p *PollingWatcher) Stop() error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	started := p.started
	close(p.stopCh)
	p.mu.Unlock()

	if started {
		<-p.done
		return nil
	}

	close(p.events)
	close(p.errors)
	close(p.done)
	return nil
}

// Events returns the channel of file events.
func (p *PollingWatcher) Events() <-chan FileEvent {
	return p.events
}

// Errors returns the channel of errors.
func (p *PollingWatcher) Errors() <-chan error {
	return p.errors
}

// scan records the state of every entry under the root, keyed by
// absolute path.
func (p *PollingWatcher) scan() (map[string]fileSnapshot, error) {
	if _, err := os.Stat(p.rootPath); err != nil {
		return nil, err
	}

	state := make(map[string]fileSnapshot)
	err := filepath.WalkDir(p.rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == p.rootPath {
				return err
			}
			return nil // Skip entries we can't access
		}
		if path == p.rootPath {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}

		state[path] = fileSnapshot{
			modTime: info.ModTime(),
			size:    info.Size(),
			isDir:   d.IsDir(),
		}

		if d.IsDir() && !p.recursive {
			return filepath.SkipDir
		}
		return nil
	})
	return state, err
}

// detectChanges compares the current state with the previous scan.
// Creates and modifications are reported in path order, then deletions.
func (p *PollingWatcher) detectChanges() ([]FileEvent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	current, err := p.scan()
	if err != nil {
		return nil, fmt.Errorf("scan %s for changes: %w", p.rootPath, err)
	}

	now := time.Now()
	var changed, removed []FileEvent

	for path, snap := range current {
		prev, exists := p.fileState[path]
		switch {
		case !exists:
			changed = append(changed, FileEvent{Path: path, Operation: OpCreate, IsDir: snap.isDir, Timestamp: now})
		case !snap.isDir && (!prev.modTime.Equal(snap.modTime) || prev.size != snap.size):
			changed = append(changed, FileEvent{Path: path, Operation: OpModify, IsDir: false, Timestamp: now})
		}
	}

	for path, snap := range p.fileState {
		if _, exists := current[path]; !exists {
			removed = append(removed, FileEvent{Path: path, Operation: OpDelete, IsDir: snap.isDir, Timestamp: now})
		}
	}

	sortByPath(changed)
	sortByPath(removed)

	p.fileState = current
	return append(changed, removed...), nil
}

func sortByPath(events []FileEvent) {
	sort.Slice(events, func(i, j int) bool {
		return events[i].Path < events[j].Path
	})
}
