// Package tcp implements the raw TCP Primitive (C6) described in spec §4.6:
// a callback-based (open/data/close) accept loop and dialer sharing C5's
// accept-loop skeleton but with all HTTP parsing stripped out.
//
// No teacher file does raw callback TCP (shockwave is HTTP-only); this is
// adapted from internal/server's BaseServer-style registry/connSem pattern
// minus http11 parsing.
package tcp

import (
	"context"
	"errors"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/shockwave-lite/shockwave-lite/internal/config"
	"github.com/shockwave-lite/shockwave-lite/internal/logging"
	"github.com/shockwave-lite/shockwave-lite/pkg/socket"
)

// ErrConnectionRefused is returned by Connect once every resolved address
// candidate has refused the connection, per spec §4.6.
var ErrConnectionRefused = errors.New("tcp: connection refused")

// Callbacks is the user-provided open/data/close trio named in spec §6's
// TCP host/connect options.
type Callbacks struct {
	Open  func(net.Conn)
	Data  func(net.Conn, []byte)
	Close func(net.Conn)
}

// Server is the raw TCP accept loop of spec §4.6.
type Server struct {
	opts   config.TCPOptions
	cb     Callbacks
	logger logging.Logger

	listener net.Listener
	shutdown atomic.Bool
	wg       sync.WaitGroup

	connsMu sync.Mutex
	conns   map[net.Conn]struct{}

	connSem chan struct{}
}

// New builds a raw TCP server. MaxConnections is clamped to the [0,128]
// listen backlog spec §4.6 names.
func New(opts config.TCPOptions, cb Callbacks, logger logging.Logger) *Server {
	if opts.MaxConnections > 128 {
		opts.MaxConnections = 128
	}
	if opts.MaxConnections < 0 {
		opts.MaxConnections = 0
	}
	s := &Server{
		opts:   opts,
		cb:     cb,
		logger: logger,
		conns:  make(map[net.Conn]struct{}),
	}
	if opts.MaxConnections > 0 {
		s.connSem = make(chan struct{}, opts.MaxConnections)
	}
	return s
}

// Listen binds opts.Address:opts.Port and serves until Stop is called.
func (s *Server) Listen() error {
	cfg := socket.Config{ReuseAddress: s.opts.ReuseAddress}
	lc := net.ListenConfig{Control: cfg.Control}
	addr := net.JoinHostPort(s.opts.Address, strconv.Itoa(s.opts.Port))
	l, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(l)
}

// Serve accepts connections on l, parking on connSem for backpressure the
// same way C5 does, and dispatches each to a raw read loop.
func (s *Server) Serve(l net.Listener) error {
	s.listener = l
	defer l.Close()

	for {
		if s.shutdown.Load() {
			return nil
		}
		if s.connSem != nil {
			s.connSem <- struct{}{}
		}
		netConn, err := l.Accept()
		if err != nil {
			if s.shutdown.Load() {
				return nil
			}
			if s.connSem != nil {
				<-s.connSem
			}
			continue
		}
		s.wg.Add(1)
		go s.serveConn(netConn)
	}
}

func (s *Server) serveConn(netConn net.Conn) {
	defer s.wg.Done()
	if s.connSem != nil {
		defer func() { <-s.connSem }()
	}

	s.track(netConn)
	defer s.untrack(netConn)

	if s.cb.Open != nil {
		s.cb.Open(netConn)
	}
	defer func() {
		if s.cb.Close != nil {
			s.cb.Close(netConn)
		}
		netConn.Close()
	}()

	maxRead := s.opts.MaxDataRead
	if maxRead <= 0 {
		maxRead = 8192
	}
	buf := make([]byte, maxRead)
	for {
		n, err := netConn.Read(buf)
		if n > 0 && s.cb.Data != nil {
			s.cb.Data(netConn, buf[:n])
		}
		if err != nil {
			return
		}
	}
}

func (s *Server) track(c net.Conn) {
	s.connsMu.Lock()
	s.conns[c] = struct{}{}
	s.connsMu.Unlock()
}

func (s *Server) untrack(c net.Conn) {
	s.connsMu.Lock()
	delete(s.conns, c)
	s.connsMu.Unlock()
}

// Stop closes the listener and every tracked connection immediately,
// unlike C5's Stop: spec §4.6 says the TCP variant closes eagerly rather
// than draining.
func (s *Server) Stop() {
	if !s.shutdown.CompareAndSwap(false, true) {
		return
	}
	if s.listener != nil {
		s.listener.Close()
	}
	s.connsMu.Lock()
	conns := make([]net.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.connsMu.Unlock()
	for _, c := range conns {
		c.Close()
	}
}

// Wait blocks until every connection's read loop has returned.
func (s *Server) Wait() {
	s.wg.Wait()
}

// Connect resolves addr, dials each candidate in turn, and falls through to
// the next on connection-refused per spec §4.6, returning
// ErrConnectionRefused only once every candidate has been exhausted.
func Connect(addr string, port int) (net.Conn, error) {
	host := addr
	ips, err := net.LookupIP(host)
	if err != nil {
		return nil, err
	}

	portStr := strconv.Itoa(port)
	var lastErr error
	for _, ip := range ips {
		target := net.JoinHostPort(ip.String(), portStr)
		c, err := net.Dial("tcp", target)
		if err == nil {
			return c, nil
		}
		if isRefused(err) {
			lastErr = ErrConnectionRefused
			continue
		}
		return nil, err
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, ErrConnectionRefused
}

func isRefused(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED)
}
