// Package errors provides structured error handling for filemonitor.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors (a candidate monitor is skipped)
//   - 2XX: Subscription errors (a monitor stays inert)
//   - 3XX: Invocation errors (a single handler run failed)
//   - 4XX: Startup errors (the process cannot continue)
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates an invalid monitor declaration.
	CategoryConfig Category = "CONFIG"
	// CategorySubscription indicates a watch root could not be observed.
	CategorySubscription Category = "SUBSCRIPTION"
	// CategoryInvocation indicates a handler run failed.
	CategoryInvocation Category = "INVOCATION"
	// CategoryStartup indicates the process cannot start monitoring.
	CategoryStartup Category = "STARTUP"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, the process exits.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but monitoring continues.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates a skipped candidate or degraded operation.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeHandlerMissing       = "ERR_101_HANDLER_MISSING"
	ErrCodeHandlerNotExecutable = "ERR_102_HANDLER_NOT_EXECUTABLE"
	ErrCodeHandlerIsDirectory   = "ERR_103_HANDLER_IS_DIRECTORY"
	ErrCodePathUnreadable       = "ERR_104_PATH_UNREADABLE"
	ErrCodeEnvFileInvalid       = "ERR_105_ENV_FILE_INVALID"
	ErrCodeConfigFileInvalid    = "ERR_106_CONFIG_FILE_INVALID"
	ErrCodeSettingInvalid       = "ERR_107_SETTING_INVALID"

	// Subscription errors (200-299)
	ErrCodeStatFailed  = "ERR_201_STAT_FAILED"
	ErrCodeWatchFailed = "ERR_202_WATCH_FAILED"

	// Invocation errors (300-399)
	ErrCodeSpawnFailed    = "ERR_301_SPAWN_FAILED"
	ErrCodeHandlerExit    = "ERR_302_HANDLER_EXIT"
	ErrCodeHandlerTimeout = "ERR_303_HANDLER_TIMEOUT"
	ErrCodeHandlerKilled  = "ERR_304_HANDLER_KILLED"

	// Startup errors (400-499)
	ErrCodeNoMonitors     = "ERR_401_NO_MONITORS"
	ErrCodeInstanceLocked = "ERR_402_INSTANCE_LOCKED"

	// Internal errors (500-599)
	ErrCodeInternal = "ERR_501_INTERNAL"
	ErrCodePanic    = "ERR_502_PANIC"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Extract numeric portion (e.g., "101" from "ERR_101_HANDLER_MISSING")
	numStr := code[4:7]

	switch numStr[0] {
	case '1':
		return CategoryConfig
	case '2':
		return CategorySubscription
	case '3':
		return CategoryInvocation
	case '4':
		return CategoryStartup
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch categoryFromCode(code) {
	case CategoryStartup:
		return SeverityFatal
	case CategoryConfig:
		return SeverityWarning
	default:
		return SeverityError
	}
}
