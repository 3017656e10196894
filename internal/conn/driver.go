package conn

import (
	"fmt"
	"net"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/shockwave-lite/shockwave-lite/internal/config"
	"github.com/shockwave-lite/shockwave-lite/internal/logging"
	"github.com/shockwave-lite/shockwave-lite/internal/metrics"
	"github.com/shockwave-lite/shockwave-lite/internal/wire"
	"github.com/shockwave-lite/shockwave-lite/pkg/wsstub"
)

// Handler is the user request callback named in spec §6: it returns
// either a string (treated as a 200 OK text/plain response, spec §4.2) or
// a *wire.Response. A panic inside Handler is trapped at the driver
// boundary per spec §7; the connection then sends 500 and closes.
type Handler func(*wire.Request) any

// Connection is one accepted socket's state (spec §3 "Connection"),
// grounded directly on the teacher's http11.Connection in
// pkg/shockwave/http11/connection.go: a pooled parser reused across
// keep-alive requests, an atomic closed flag, and a per-connection
// request counter.
type Connection struct {
	netConn net.Conn
	opts    config.Options
	handler Handler
	logger  logging.Logger

	parser            *wire.Parser
	wq                *writeQueue
	requests          int
	requestHeaderRead int
	bodyRan           bool
	upgradeAttempted  bool
	handlerPanicked   bool
	closed            atomic.Bool
	timer             *time.Timer
}

// NewConnection wires a freshly accepted socket into a driver, acquiring
// a pooled parser the way the teacher's NewConnection acquires pooled
// bufio readers/writers.
func NewConnection(netConn net.Conn, opts config.Options, handler Handler, logger logging.Logger) *Connection {
	return &Connection{
		netConn: netConn,
		opts:    opts,
		handler: handler,
		logger:  logger,
		parser:  wire.AcquireParser(),
		wq:      newWriteQueue(netConn, logger),
	}
}

// Close idempotently tears down the connection.
func (c *Connection) Close() {
	if c.closed.CompareAndSwap(false, true) {
		c.netConn.Close()
	}
}

// Serve runs the per-connection state machine of spec §4.4 to
// completion: recv -> parse -> dispatch -> write -> keep-alive or close.
// It returns when the connection should be torn down; the caller (the
// accept loop, C5) is responsible for removing the connection from its
// registry and resuming a parked accept.
func (c *Connection) Serve() error {
	defer func() {
		wire.ReleaseParser(c.parser)
		c.wq.WaitForMessages()
		c.Close()
	}()

	readBuf := make([]byte, 8192)

	for {
		isFirst := c.requests == 0
		c.armTimeout(c.opts.KeepAliveTimeout(isFirst))

		if c.requestHeaderRead >= 8192 {
			c.cancelTimeout()
			return nil
		}

		n, err := c.netConn.Read(readBuf)
		c.cancelTimeout()
		if err != nil {
			if isClosedErr(err) {
				return nil
			}
			return err
		}
		if n == 0 {
			return nil
		}

		c.requestHeaderRead += n
		c.parser.Feed(append([]byte(nil), readBuf[:n]...))

		kind := c.runStages()
		if kind == wire.KindTooSmall {
			continue
		}
		if kind.IsFailure() {
			metrics.ParseErrorsTotal.WithLabelValues(kind.String()).Inc()
			if resp, ok := errorResponse(kind); ok {
				c.wq.Enqueue(wire.Serialize(resp))
			}
			return nil
		}

		c.requests++
		resp := c.dispatch()
		c.wq.Enqueue(wire.Serialize(resp))
		metrics.RequestsTotal.WithLabelValues(metrics.StatusClass(resp.StatusCode)).Inc()

		keepAlive := c.opts.KeepAlive.Enabled && c.parser.CanKeepAlive()
		if c.bodyRan {
			// Spec §4.4 step 6: the body bytes do not count against the
			// next request's pre-body header-bytes ceiling.
			c.requestHeaderRead = -c.opts.MaxBodySize
		}
		if !keepAlive || c.upgradeAttempted || c.handlerPanicked {
			return nil
		}
		c.parser.Reset()
		c.bodyRan = false
	}
}

// runStages invokes each not-yet-satisfied parser stage in order (spec
// §4.4 steps 5-6: method/uri/protocol/headers, then body for non-GET),
// stopping at the first TooSmall (stashing leftover for the next recv) or
// failure.
func (c *Connection) runStages() wire.ErrKind {
	if !c.parser.HasMethod() {
		if k := c.parser.ParseMethod(); k != wire.KindNone {
			if k == wire.KindTooSmall {
				c.parser.Stash()
			}
			return k
		}
	}
	if !c.parser.HasURI() {
		if k := c.parser.ParseURI(c.opts.MaxURISize); k != wire.KindNone {
			if k == wire.KindTooSmall {
				c.parser.Stash()
			}
			return k
		}
	}
	if !c.parser.HasProtocol() {
		if k := c.parser.ParseProtocol(); k != wire.KindNone {
			if k == wire.KindTooSmall {
				c.parser.Stash()
			}
			return k
		}
	}
	if !c.parser.HasHeaders() {
		limits := wire.Limits{
			MaxURISize:     c.opts.MaxURISize,
			MaxHeaders:     c.opts.MaxHeaders,
			MaxHeaderName:  64,
			MaxHeaderValue: 2048,
			MaxBodySize:    c.opts.MaxBodySize,
		}
		if k := c.parser.ParseHeaders(limits); k != wire.KindNone {
			if k == wire.KindTooSmall {
				c.parser.Stash()
			}
			return k
		}
	}
	if c.parser.Request().Method != wire.MethodGET && !c.parser.HasBody() {
		if k := c.parser.ParseBody(c.opts.MaxBodySize); k != wire.KindNone {
			if k == wire.KindTooSmall {
				c.parser.Stash()
			}
			return k
		}
		c.bodyRan = true
	}
	return wire.KindNone
}

// dispatch invokes the user callback (spec §4.4 step 7), trapping a panic
// the way spec §7 requires ("User-callback exceptions are trapped at the
// driver boundary; 500 is sent"). A WebSocket handshake attempt is
// intercepted before it ever reaches the user handler: spec §1 declares
// the upgrade but leaves it unimplemented, so it is answered with 501 and
// never handed to the application (see pkg/wsstub).
func (c *Connection) dispatch() *wire.Response {
	req := c.parser.Request()
	req.Path = decodePath(req.URI)
	if wsstub.IsUpgradeRequest(req) {
		if err := wsstub.Upgrade(req); err == wsstub.ErrNotImplemented {
			c.upgradeAttempted = true
			return wire.WriteError(501, "WebSocket upgrade is not implemented")
		}
	}
	return c.invokeHandler(req)
}

// decodePath percent-decodes the raw request-target into the `path` field
// spec §2/§4.4 step 7 hand to the user callback. Percent-decoding is an
// out-of-scope external collaborator per spec §1; net/url.PathUnescape is
// the natural stdlib call for it. A malformed escape leaves Path equal to
// the raw URI rather than failing the request.
func decodePath(uri string) string {
	if p, err := url.PathUnescape(uri); err == nil {
		return p
	}
	return uri
}

func (c *Connection) invokeHandler(req *wire.Request) (resp *wire.Response) {
	defer func() {
		if r := recover(); r != nil {
			if c.logger != nil {
				c.logger.WithField("panic", fmt.Sprint(r)).Error("request handler panicked")
			}
			c.handlerPanicked = true
			resp = wire.ResponseInternalServerError500()
		}
	}()
	result := c.handler(req)
	return normalizeResult(result)
}

func normalizeResult(v any) *wire.Response {
	switch t := v.(type) {
	case string:
		return wire.NewTextResponse(t)
	case *wire.Response:
		return t
	default:
		return wire.ResponseInternalServerError500()
	}
}

// errorResponse implements the §7 driver-action table for the parse
// failures that get a response before the connection closes.
func errorResponse(kind wire.ErrKind) (*wire.Response, bool) {
	switch kind {
	case wire.KindURITooLarge:
		return wire.ResponseURITooLarge414(), true
	case wire.KindTooManyHeaders, wire.KindHeaderTooLarge:
		return wire.ResponseHeaderFieldsTooLarge431(), true
	case wire.KindTooLarge:
		return wire.ResponseContentTooLarge413(), true
	default:
		// InvalidMethod, InvalidUri, InvalidProtocol, InvalidHeader,
		// InvalidContentLength, NotImplemented: close silently.
		return nil, false
	}
}

// armTimeout schedules the §4.4 step 1 timeout action
// (closeClientTimedoutAsync): enqueue 408, drain, close.
func (c *Connection) armTimeout(d time.Duration) {
	c.timer = time.AfterFunc(d, func() {
		c.wq.Enqueue(wire.Serialize(wire.ResponseTimeout408()))
		c.wq.WaitForMessages()
		c.Close()
	})
}

// cancelTimeout cancels the armed timeout once forward progress (any recv
// return) is observed, per spec §5 "Cancellation & timeouts". Cancelling
// after the timer has already fired is a harmless no-op: the fired
// timeout's own close is idempotent against an already-closed socket.
func (c *Connection) cancelTimeout() {
	if c.timer != nil {
		c.timer.Stop()
	}
}
