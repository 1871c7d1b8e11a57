// Package logging sets up the operator-facing log stream for filemonitor.
// Lines are human-readable text written to stderr; an optional log file
// receives the same lines with size-based rotation.
package logging
