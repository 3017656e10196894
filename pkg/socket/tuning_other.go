//go:build !linux

package socket

import "syscall"

// Control is a no-op on non-Linux platforms; SO_REUSEPORT in particular
// has no portable equivalent, matching the teacher's tuning_other.go
// fallback behavior.
func (c Config) Control(_, _ string, rc syscall.RawConn) error {
	return nil
}

// ApplyConn is a no-op on non-Linux platforms.
func ApplyConn(fd int, c Config) {}
