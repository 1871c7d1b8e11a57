package preflight

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Aman-CERP/filemonitor/internal/resolver"
)

// DefaultWatchLimitPath is the Linux per-user inotify watch limit.
const DefaultWatchLimitPath = "/proc/sys/fs/inotify/max_user_watches"

// CountWatches estimates how many directory watches pairs need: every
// directory of a watched tree, or one parent directory per watched file.
// Parents shared by several file targets are counted once.
func CountWatches(pairs []resolver.Pair) int {
	dirs := make(map[string]struct{})

	for _, p := range pairs {
		info, err := os.Stat(p.WatchedPath)
		if err != nil {
			continue
		}
		if !info.IsDir() {
			dirs[filepath.Dir(p.WatchedPath)] = struct{}{}
			continue
		}
		_ = filepath.WalkDir(p.WatchedPath, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() {
				dirs[path] = struct{}{}
			}
			return nil
		})
	}

	return len(dirs)
}

// CheckWatchLimit compares needed against the inotify watch limit. When the
// limit is too low the watcher falls back to polling, so this only warns.
func (c *Checker) CheckWatchLimit(needed int) CheckResult {
	result := CheckResult{
		Name: "watch_limit",
	}

	data, err := os.ReadFile(c.watchLimitPath)
	if err != nil {
		result.Status = StatusPass
		result.Message = fmt.Sprintf("%d directories (no inotify limit found)", needed)
		return result
	}

	limit, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("unreadable limit in %s", c.watchLimitPath)
		return result
	}

	result.Message = fmt.Sprintf("%d directories (limit: %d)", needed, limit)
	if needed > limit {
		result.Status = StatusWarn
		result.Details = "Raise fs.inotify.max_user_watches or large trees will be polled"
		return result
	}

	result.Status = StatusPass
	return result
}
