// Package conn implements the per-connection Write Queue (C3) and
// Connection Driver (C4) described in spec §4.3/§4.4.
package conn

import (
	"errors"
	"io"
	"net"
	"sync"
	"syscall"

	"github.com/shockwave-lite/shockwave-lite/internal/logging"
)

// writeQueue is the per-socket FIFO drain described in spec §4.3. There is
// no direct teacher file for this (the teacher writes synchronously via a
// pooled bufio.Writer inside Connection.Serve, since it never has more
// than one response in flight per connection); this generalizes that
// idiom into an explicit enqueue/drain API the way spec.md's design
// requires, using a slice-backed FIFO behind a mutex plus a single drain
// goroutine, the same "at most one drain task per socket" guarantee the
// teacher's own single-writer-per-connection design gives for free.
type writeQueue struct {
	netConn net.Conn
	logger  logging.Logger

	mu        sync.Mutex
	pending   [][]byte
	draining  bool
	drainDone chan struct{}
	closed    bool
}

func newWriteQueue(netConn net.Conn, logger logging.Logger) *writeQueue {
	return &writeQueue{netConn: netConn, logger: logger}
}

// Enqueue appends bytes to the FIFO and starts a drain goroutine if one
// isn't already running. Safe to call from any goroutine; never blocks.
func (q *writeQueue) Enqueue(b []byte) {
	if len(b) == 0 {
		return
	}
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.pending = append(q.pending, b)
	started := !q.draining
	if started {
		q.draining = true
		q.drainDone = make(chan struct{})
	}
	done := q.drainDone
	q.mu.Unlock()

	if started {
		go q.drain(done)
	}
}

func (q *writeQueue) drain(done chan struct{}) {
	defer close(done)
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.draining = false
			q.mu.Unlock()
			return
		}
		msg := q.pending[0]
		q.pending = q.pending[1:]
		q.mu.Unlock()

		offset := 0
		for offset < len(msg) {
			n, err := q.netConn.Write(msg[offset:])
			if err != nil {
				if isClosedErr(err) {
					q.markClosed()
					return
				}
				if q.logger != nil {
					q.logger.WithError(err).Warn("write queue: send failed")
				}
				q.markClosed()
				return
			}
			offset += n
		}
	}
}

func (q *writeQueue) markClosed() {
	q.mu.Lock()
	q.closed = true
	q.draining = false
	q.mu.Unlock()
}

// WaitForMessages blocks until the currently-active drain (if any)
// finishes, per spec §4.3. If no drain is active it returns immediately.
func (q *writeQueue) WaitForMessages() {
	q.mu.Lock()
	if !q.draining {
		q.mu.Unlock()
		return
	}
	done := q.drainDone
	q.mu.Unlock()
	<-done
}

// isClosedErr reports whether err belongs to the closed-socket error set
// spec §6 names (ConnectionResetByPeer, SocketClosed, BrokenPipe, ...).
func isClosedErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	if errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	return false
}
