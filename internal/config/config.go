// Package config holds filemonitor's startup configuration: the environment
// snapshot, an optional YAML file with extra monitor declarations, and
// runtime settings.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	monerrors "github.com/Aman-CERP/filemonitor/internal/errors"
	"github.com/Aman-CERP/filemonitor/internal/logging"
)

// Environment variables that tune filemonitor itself. None of them start
// with MONITOR, so they are never mistaken for watch declarations.
const (
	EnvLogLevel     = "FILEMONITOR_LOG_LEVEL"
	EnvLogFile      = "FILEMONITOR_LOG_FILE"
	EnvPoll         = "FILEMONITOR_POLL"
	EnvPollInterval = "FILEMONITOR_POLL_INTERVAL"
	EnvPIDFile      = "FILEMONITOR_PID_FILE"
)

// DefaultPollInterval is used by the polling watcher when none is configured.
const DefaultPollInterval = 2 * time.Second

// Config is the complete startup configuration.
type Config struct {
	// Env is the environment snapshot monitors are discovered from and
	// handlers inherit.
	Env Environment `yaml:"-"`

	// Monitors are declarations from the config file, appended after the
	// environment declarations.
	Monitors []MonitorConfig `yaml:"monitors"`

	Log   LogConfig   `yaml:"log"`
	Watch WatchConfig `yaml:"watch"`

	// PIDFile, when set, holds an exclusive lock for the process lifetime.
	PIDFile string `yaml:"pid_file"`
}

// MonitorConfig declares one watched path and its handler in the config file.
type MonitorConfig struct {
	Name    string `yaml:"name"`
	Path    string `yaml:"path"`
	Handler string `yaml:"handler"`
}

// LogConfig configures the log stream.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// WatchConfig selects the notification backend.
type WatchConfig struct {
	// Poll forces the polling watcher instead of fsnotify.
	Poll bool `yaml:"poll"`
	// PollInterval is a Go duration string, e.g. "2s".
	PollInterval string `yaml:"poll_interval"`
}

// NewConfig returns a Config with defaults and an empty environment.
func NewConfig() *Config {
	return &Config{
		Env: NewEnvironment(nil),
		Log: LogConfig{
			Level: "info",
		},
		Watch: WatchConfig{
			PollInterval: DefaultPollInterval.String(),
		},
	}
}

// Load builds the configuration from env and, when path is not empty, the
// YAML file at path. Precedence, lowest to highest:
//  1. Defaults
//  2. Config file
//  3. FILEMONITOR_* variables in env
func Load(env Environment, path string) (*Config, error) {
	cfg := NewConfig()
	cfg.Env = env

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return monerrors.New(monerrors.ErrCodeConfigFileInvalid,
			fmt.Sprintf("read config file %s", path), err).WithDetail("path", path)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return monerrors.New(monerrors.ErrCodeConfigFileInvalid,
			fmt.Sprintf("parse config file %s", path), err).WithDetail("path", path)
	}

	return nil
}

func (c *Config) applyEnv() error {
	if v, ok := c.Env.Lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
	if v, ok := c.Env.Lookup(EnvLogFile); ok && v != "" {
		c.Log.File = v
	}
	if v, ok := c.Env.Lookup(EnvPoll); ok && v != "" {
		poll, err := strconv.ParseBool(v)
		if err != nil {
			return invalidSetting(EnvPoll, v, err)
		}
		c.Watch.Poll = poll
	}
	if v, ok := c.Env.Lookup(EnvPollInterval); ok && v != "" {
		c.Watch.PollInterval = v
	}
	if v, ok := c.Env.Lookup(EnvPIDFile); ok && v != "" {
		c.PIDFile = v
	}
	return nil
}

// Validate checks settings; monitor declarations are validated by the
// resolver, which skips bad ones instead of failing.
func (c *Config) Validate() error {
	if !logging.ValidLevel(c.Log.Level) {
		return invalidSetting("log level", c.Log.Level, nil).
			WithSuggestion("use one of debug, info, warn, error")
	}

	if _, err := c.PollInterval(); err != nil {
		return err
	}

	for i, m := range c.Monitors {
		if strings.TrimSpace(m.Path) == "" {
			return invalidSetting(fmt.Sprintf("monitors[%d].path", i), m.Path, nil).
				WithSuggestion("every monitor entry needs a path")
		}
	}

	return nil
}

// PollInterval parses Watch.PollInterval.
func (c *Config) PollInterval() (time.Duration, error) {
	if c.Watch.PollInterval == "" {
		return DefaultPollInterval, nil
	}
	d, err := time.ParseDuration(c.Watch.PollInterval)
	if err != nil {
		return 0, invalidSetting("poll interval", c.Watch.PollInterval, err)
	}
	if d <= 0 {
		return 0, invalidSetting("poll interval", c.Watch.PollInterval, nil).
			WithSuggestion("poll interval must be positive")
	}
	return d, nil
}

func invalidSetting(name, value string, cause error) *monerrors.MonitorError {
	return monerrors.New(monerrors.ErrCodeSettingInvalid,
		fmt.Sprintf("invalid %s: %q", name, value), cause).
		WithDetail("setting", name)
}
