package watcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOperation_String(t *testing.T) {
	tests := []struct {
		name string
		op   Operation
		want string
	}{
		{"create", OpCreate, "create"},
		{"modify", OpModify, "modify"},
		{"delete", OpDelete, "delete"},
		{"unknown", Operation(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.op.String())
		})
	}
}

func TestDefaultOptions(t *testing.T) {
	// When: getting default options
	opts := DefaultOptions()

	// Then: defaults are sensible
	assert.False(t, opts.Recursive)
	assert.False(t, opts.ForcePolling)
	assert.Equal(t, 2*time.Second, opts.PollInterval)
	assert.Equal(t, 256, opts.EventBufferSize)
	assert.Equal(t, 100*time.Millisecond, opts.CreateWindow)
}

func TestOptions_WithDefaults(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want Options
	}{
		{
			name: "empty options get defaults",
			opts: Options{},
			want: DefaultOptions(),
		},
		{
			name: "custom values preserved",
			opts: Options{
				Recursive:       true,
				ForcePolling:    true,
				PollInterval:    100 * time.Millisecond,
				EventBufferSize: 8,
				CreateWindow:    time.Second,
			},
			want: Options{
				Recursive:       true,
				ForcePolling:    true,
				PollInterval:    100 * time.Millisecond,
				EventBufferSize: 8,
				CreateWindow:    time.Second,
			},
		},
		{
			name: "negative values replaced",
			opts: Options{PollInterval: -1, EventBufferSize: -5, CreateWindow: -1},
			want: DefaultOptions(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.opts.WithDefaults())
		})
	}
}
