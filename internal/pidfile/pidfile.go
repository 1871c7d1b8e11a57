// Package pidfile keeps a single filemonitor instance per PID file.
//
// The PID file is guarded by an exclusive gofrs/flock lock held on a
// sibling "<path>.lock" file for the life of the process, so a stale PID
// file left by a crash never blocks a restart.
package pidfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/gofrs/flock"

	monerrors "github.com/Aman-CERP/filemonitor/internal/errors"
)

// ErrNotFound is returned when the PID file doesn't exist.
var ErrNotFound = errors.New("PID file not found")

// PIDFile is a held PID file.
type PIDFile struct {
	path  string
	flock *flock.Flock
}

// LockPath returns the lock file guarding path.
func LockPath(path string) string {
	return path + ".lock"
}

// Acquire locks path and writes the current PID into it. It fails with
// ERR_402_INSTANCE_LOCKED when another process holds the lock.
func Acquire(path string) (*PIDFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create PID directory: %w", err)
	}

	fl := flock.New(LockPath(path))
	acquired, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !acquired {
		me := monerrors.New(monerrors.ErrCodeInstanceLocked,
			fmt.Sprintf("another filemonitor instance holds %s", path), nil).
			WithSuggestion("Stop the running instance or use a different --pid-file")
		if pid, err := Read(path); err == nil {
			me = me.WithDetail("pid", strconv.Itoa(pid))
		}
		return nil, me
	}

	data := []byte(strconv.Itoa(os.Getpid()) + "\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		_ = fl.Unlock()
		return nil, fmt.Errorf("failed to write PID file: %w", err)
	}

	return &PIDFile{path: path, flock: fl}, nil
}

// Path returns the PID file path.
func (p *PIDFile) Path() string {
	return p.path
}

// Release removes the PID file and drops the lock. Safe to call more than
// once.
func (p *PIDFile) Release() error {
	if p == nil || !p.flock.Locked() {
		return nil
	}

	var errs []error
	if err := os.Remove(p.path); err != nil && !os.IsNotExist(err) {
		errs = append(errs, fmt.Errorf("failed to remove PID file: %w", err))
	}
	if err := p.flock.Unlock(); err != nil {
		errs = append(errs, fmt.Errorf("failed to release lock: %w", err))
	}
	return errors.Join(errs...)
}

// Read returns the PID recorded in path.
func Read(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("failed to read PID file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid PID in file: %w", err)
	}
	return pid, nil
}

// IsRunning reports whether the process recorded in path is alive.
func IsRunning(path string) bool {
	pid, err := Read(path)
	if err != nil {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// On Unix FindProcess always succeeds; signal 0 checks for existence.
	return process.Signal(syscall.Signal(0)) == nil
}
