// Package preflight checks the host before monitors start.
//
// The package validates:
//   - File descriptor limits (minimum 1024)
//   - inotify watch limits against the directories that will be watched
//   - Write access for the log file and PID file directories
//
// Use the Checker type to run all validations:
//
//	checker := preflight.New()
//	results := checker.RunAll(ctx, preflight.Request{Pairs: pairs})
//	if checker.HasCriticalFailures(results) {
//	    // Handle failures
//	}
package preflight
