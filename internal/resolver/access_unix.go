//go:build unix

package resolver

import (
	"golang.org/x/sys/unix"
)

// Readable uses access(2) so the check honours the real uid and ACLs.
func (systemAccess) Readable(path string) error {
	return unix.Access(path, unix.R_OK)
}

// Executable uses access(2) with X_OK.
func (systemAccess) Executable(path string) error {
	return unix.Access(path, unix.X_OK)
}
