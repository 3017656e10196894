//go:build linux

package socket

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// Control returns a net.ListenConfig.Control function that applies
// SO_REUSEADDR (and SO_REUSEPORT where present) to the listening socket
// before bind, adapted from the teacher's applyListenerOptions in
// tuning_linux.go. golang.org/x/sys/unix is the teacher's own genuinely
// imported dependency for this purpose (see DESIGN.md).
func (c Config) Control(_, _ string, rc syscall.RawConn) error {
	var sockErr error
	err := rc.Control(func(fd uintptr) {
		if c.ReuseAddress {
			sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
			if sockErr == nil {
				sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
			}
		}
		if c.RecvBuffer > 0 {
			_ = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_RCVBUF, c.RecvBuffer)
		}
		if c.SendBuffer > 0 {
			_ = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_SNDBUF, c.SendBuffer)
		}
	})
	if err != nil {
		return err
	}
	return sockErr
}

// ApplyConn applies per-connection options (TCP_NODELAY) after accept,
// adapted from the teacher's applyPlatformOptions.
func ApplyConn(fd int, c Config) {
	if c.NoDelay {
		_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)
	}
}
