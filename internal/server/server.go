// Package server implements the Accept Loop (C5) described in spec §4.5: it
// binds a listener, parks on a connection semaphore for backpressure, hands
// each accepted socket to an internal/conn.Connection, and tracks live
// connections for Stop's drain-on-listener-close policy.
//
// Grounded on the teacher's BaseServer (pkg/shockwave/server/server.go) for
// the connSem/conns-map/shutdown-flag/wg shape, and on ShockwaveServer.Serve
// (server_shockwave.go) for the accept loop itself. Unlike the teacher's
// Close (eager-close-all), Stop here only closes the listener and lets
// drivers drain, matching spec.md's stated shutdown policy; the teacher's
// eager-close-all instead becomes the model for C6's Stop.
package server

import (
	"context"
	"net"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/shockwave-lite/shockwave-lite/internal/conn"
	"github.com/shockwave-lite/shockwave-lite/internal/config"
	"github.com/shockwave-lite/shockwave-lite/internal/logging"
	"github.com/shockwave-lite/shockwave-lite/internal/metrics"
	"github.com/shockwave-lite/shockwave-lite/pkg/socket"
)

// Server is the accept loop described in spec §4.5.
type Server struct {
	opts    config.Options
	handler conn.Handler
	logger  logging.Logger

	listener net.Listener
	shutdown atomic.Bool
	done     chan struct{}
	wg       sync.WaitGroup

	connsMu sync.Mutex
	conns   map[*conn.Connection]struct{}

	connSem chan struct{}
}

// New builds a Server around the given options and request handler. A
// MaxConnections <= 0 means unlimited, matching the teacher's
// MaxConcurrentConnections == 0 convention.
func New(opts config.Options, handler conn.Handler, logger logging.Logger) *Server {
	s := &Server{
		opts:    opts,
		handler: handler,
		logger:  logger,
		done:    make(chan struct{}),
		conns:   make(map[*conn.Connection]struct{}),
	}
	if opts.MaxConnections > 0 {
		s.connSem = make(chan struct{}, opts.MaxConnections)
	}
	return s
}

// ListenAndServe binds opts.Address:opts.Port with the socket tuning knobs
// in opts (reuseAddress, buffers) and serves until Stop is called.
func (s *Server) ListenAndServe() error {
	cfg := socket.Config{
		ReuseAddress: s.opts.ReuseAddress,
		NoDelay:      s.opts.TCPNoDelay,
		RecvBuffer:   s.opts.RecvBuffer,
		SendBuffer:   s.opts.SendBuffer,
	}
	lc := net.ListenConfig{Control: cfg.Control}
	addr := net.JoinHostPort(s.opts.Address, strconv.Itoa(s.opts.Port))
	l, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(l)
}

// Serve runs the park-accept-dispatch loop of spec §4.5: acquire a slot from
// connSem (parking if the server is at MaxConnections), accept, release the
// slot on accept error, otherwise hand the socket to a new driver goroutine.
func (s *Server) Serve(l net.Listener) error {
	s.listener = l
	defer l.Close()

	for {
		if s.shutdown.Load() {
			return nil
		}

		if s.connSem != nil {
			select {
			case s.connSem <- struct{}{}:
			case <-s.done:
				return nil
			}
		}

		netConn, err := l.Accept()
		if err != nil {
			if s.shutdown.Load() {
				return nil
			}
			metrics.AcceptErrorsTotal.Inc()
			if s.logger != nil {
				s.logger.WithError(err).Warn("accept failed")
			}
			if s.connSem != nil {
				<-s.connSem
			}
			continue
		}

		metrics.TotalConnections.Inc()
		s.wg.Add(1)
		go s.serveConn(netConn)
	}
}

func (s *Server) serveConn(netConn net.Conn) {
	defer s.wg.Done()
	if s.connSem != nil {
		defer func() { <-s.connSem }()
	}

	c := conn.NewConnection(netConn, s.opts, s.handler, s.logger)
	s.track(c)
	defer s.untrack(c)

	metrics.ActiveConnections.Inc()
	defer metrics.ActiveConnections.Dec()

	if err := c.Serve(); err != nil && s.logger != nil {
		s.logger.WithError(err).Debug("connection ended")
	}
}

func (s *Server) track(c *conn.Connection) {
	s.connsMu.Lock()
	s.conns[c] = struct{}{}
	s.connsMu.Unlock()
}

func (s *Server) untrack(c *conn.Connection) {
	s.connsMu.Lock()
	delete(s.conns, c)
	s.connsMu.Unlock()
}

// Stop closes the listener and unparks anything waiting on connSem, but
// does not touch already-accepted connections: spec.md's policy is to let
// the connection driver finish serving in-flight keep-alive requests and
// close on its own. It does not wait for those drivers to finish; callers
// that need that should track s.wg themselves via Wait.
func (s *Server) Stop() {
	if !s.shutdown.CompareAndSwap(false, true) {
		return
	}
	if s.listener != nil {
		s.listener.Close()
	}
	close(s.done)
}

// Wait blocks until every accepted connection's driver has returned.
func (s *Server) Wait() {
	s.wg.Wait()
}
