package watcher

import (
	"context"
	"time"
)

// Operation represents a file system operation type.
type Operation int

const (
	// OpCreate indicates an entry appeared.
	OpCreate Operation = iota
	// OpModify indicates an existing entry's content or metadata changed.
	OpModify
	// OpDelete indicates an entry disappeared (removed or renamed away).
	OpDelete
)

// String returns the operation name passed to handlers.
func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "create"
	case OpModify:
		return "modify"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// FileEvent represents a file system event.
type FileEvent struct {
	// Path is the absolute path of the affected entry.
	Path string

	// Operation is the type of file system operation.
	Operation Operation

	// IsDir indicates if the entry was a directory when the event was seen.
	IsDir bool

	// Timestamp is when the event was detected.
	Timestamp time.Time
}

// Watcher defines the interface for file system watching.
type Watcher interface {
	// Start subscribes to changes under path and returns once the
	// subscription is established. Events flow until Stop is called or
	// ctx is cancelled.
	Start(ctx context.Context, path string) error

	// Stop stops the watcher and releases resources.
	// Safe to call multiple times.
	Stop() error

	// Events returns a channel of file events.
	// The channel is closed when the watcher stops.
	Events() <-chan FileEvent

	// Errors returns a channel of watcher errors.
	// Non-fatal errors are sent here; the watcher continues running.
	// The channel is closed when the watcher stops.
	Errors() <-chan error
}

// Options configures the watcher behavior.
type Options struct {
	// Recursive watches every directory below the root, including ones
	// created later. When false only the root's direct entries are seen.
	Recursive bool

	// ForcePolling skips fsnotify and uses the polling watcher.
	ForcePolling bool

	// PollInterval is the interval for polling mode.
	// Default: 2s
	PollInterval time.Duration

	// EventBufferSize is the size of the event channel buffer.
	// Default: 256
	EventBufferSize int

	// CreateWindow is how long after a create the first write to the same
	// file is treated as part of the create rather than a modify.
	// Default: 100ms
	CreateWindow time.Duration
}

// DefaultOptions returns the default watcher options.
func DefaultOptions() Options {
	return Options{
		Recursive:       false,
		ForcePolling:    false,
		PollInterval:    2 * time.Second,
		EventBufferSize: 256,
		CreateWindow:    100 * time.Millisecond,
	}
}

// WithDefaults returns options with defaults applied for zero values.
func (o Options) WithDefaults() Options {
	defaults := DefaultOptions()
	if o.PollInterval <= 0 {
		o.PollInterval = defaults.PollInterval
	}
	if o.EventBufferSize <= 0 {
		o.EventBufferSize = defaults.EventBufferSize
	}
	if o.CreateWindow <= 0 {
		o.CreateWindow = defaults.CreateWindow
	}
	return o
}
