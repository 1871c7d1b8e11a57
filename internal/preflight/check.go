package preflight

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Aman-CERP/filemonitor/internal/resolver"
)

// CheckStatus represents the result of a preflight check.
type CheckStatus int

const (
	// StatusPass indicates the check passed successfully.
	StatusPass CheckStatus = iota
	// StatusWarn indicates a non-critical warning.
	StatusWarn
	// StatusFail indicates the check failed.
	StatusFail
)

// String returns the string representation of a CheckStatus.
func (s CheckStatus) String() string {
	switch s {
	case StatusPass:
		return "PASS"
	case StatusWarn:
		return "WARN"
	case StatusFail:
		return "FAIL"
	default:
		return "UNKNOWN"
	}
}

// CheckResult holds the result of a single preflight check.
type CheckResult struct {
	Name     string      `json:"name"`
	Status   CheckStatus `json:"status"`
	Message  string      `json:"message"`
	Details  string      `json:"details,omitempty"`
	Required bool        `json:"required"`
}

// IsCritical returns true if this is a required check that failed.
func (r CheckResult) IsCritical() bool {
	return r.Required && r.Status == StatusFail
}

// Request describes what is about to run.
type Request struct {
	Pairs   []resolver.Pair
	LogFile string
	PIDFile string
}

// Checker performs preflight validation checks.
type Checker struct {
	watchLimitPath string
}

// Option configures a Checker.
type Option func(*Checker)

// WithWatchLimitPath overrides where the inotify watch limit is read from.
func WithWatchLimitPath(path string) Option {
	return func(c *Checker) {
		c.watchLimitPath = path
	}
}

// New creates a new Checker with the given options.
func New(opts ...Option) *Checker {
	c := &Checker{
		watchLimitPath: DefaultWatchLimitPath,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RunAll runs all preflight checks and returns the results.
func (c *Checker) RunAll(_ context.Context, req Request) []CheckResult {
	results := []CheckResult{
		c.CheckFileDescriptors(),
		c.CheckWatchLimit(CountWatches(req.Pairs)),
	}

	if req.LogFile != "" {
		results = append(results, c.CheckWritable("log_file", filepath.Dir(req.LogFile)))
	}
	if req.PIDFile != "" {
		results = append(results, c.CheckWritable("pid_file", filepath.Dir(req.PIDFile)))
	}

	return results
}

// HasCriticalFailures returns true if any required check failed.
func (c *Checker) HasCriticalFailures(results []CheckResult) bool {
	for _, r := range results {
		if r.IsCritical() {
			return true
		}
	}
	return false
}

// SummaryStatus returns a summary status string for the results.
func (c *Checker) SummaryStatus(results []CheckResult) string {
	hasWarnings := false
	hasCriticalFailure := false

	for _, r := range results {
		if r.IsCritical() {
			hasCriticalFailure = true
		}
		if r.Status == StatusWarn || (r.Status == StatusFail && !r.Required) {
			hasWarnings = true
		}
	}

	if hasCriticalFailure {
		return "failed"
	}
	if hasWarnings {
		return "ready_with_warnings"
	}
	return "ready"
}

// CheckWritable checks that files can be created in dir. A missing dir is
// fine as long as its nearest existing ancestor is writable, since it is
// created on demand.
func (c *Checker) CheckWritable(name, dir string) CheckResult {
	result := CheckResult{
		Name:     name,
		Required: true,
	}

	existing := dir
	for {
		if _, err := os.Stat(existing); err == nil {
			break
		}
		parent := filepath.Dir(existing)
		if parent == existing {
			break
		}
		existing = parent
	}

	f, err := os.CreateTemp(existing, ".filemonitor-preflight-*")
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("%s is not writable: %v", existing, err)
		return result
	}
	_ = f.Close()
	_ = os.Remove(f.Name())

	result.Status = StatusPass
	result.Message = dir
	return result
}
