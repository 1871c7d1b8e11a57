// Package monitor turns validated monitor declarations into live watch
// targets and dispatches qualifying events to their handlers.
//
// A Target is built in two phases. New records the declaration; Open stats
// the watched path once, decides whether it is a file or a directory, and
// subscribes to change notifications on the watch root. Run then consumes
// events in delivery order until its context ends.
//
// Directory targets dispatch every event under the watched tree. File
// targets watch their parent directory and dispatch only events whose base
// name matches the watched file.
//
// The Supervisor opens every target, runs each in its own goroutine and
// fails with ERR_401_NO_MONITORS when none could be opened.
package monitor
