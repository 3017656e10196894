package conn

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/shockwave-lite/shockwave-lite/internal/config"
	"github.com/shockwave-lite/shockwave-lite/internal/wire"
)

func testOptions() config.Options {
	o := config.DefaultOptions()
	o.ClientTimeout = 2 * time.Second
	return o
}

func dialAndServe(t *testing.T, opts config.Options, handler Handler) (client net.Conn, done chan error) {
	t.Helper()
	server, cl := net.Pipe()
	c := NewConnection(server, opts, handler, nil)
	done = make(chan error, 1)
	go func() { done <- c.Serve() }()
	return cl, done
}

func TestDriverEchoResponse(t *testing.T) {
	client, _ := dialAndServe(t, testOptions(), func(r *wire.Request) any {
		return "hi"
	})
	defer client.Close()

	client.SetDeadline(time.Now().Add(2 * time.Second))
	client.Write([]byte("GET / HTTP/1.1\r\nConnection: close\r\n\r\n"))

	resp, err := bufio.NewReader(client).ReadString('\n')
	if err != nil {
		t.Fatalf("read status line failed: %v", err)
	}
	if resp != "HTTP/1.1 200 OK\r\n" {
		t.Fatalf("status line = %q", resp)
	}
}

func TestDriverKeepAliveServesTwoRequests(t *testing.T) {
	var seen []string
	client, _ := dialAndServe(t, testOptions(), func(r *wire.Request) any {
		seen = append(seen, r.URI)
		return "ok"
	})
	defer client.Close()

	client.SetDeadline(time.Now().Add(2 * time.Second))
	reader := bufio.NewReader(client)

	client.Write([]byte("GET /one HTTP/1.1\r\n\r\n"))
	readResponse(t, reader)

	client.Write([]byte("GET /two HTTP/1.1\r\nConnection: close\r\n\r\n"))
	readResponse(t, reader)

	if len(seen) != 2 || seen[0] != "/one" || seen[1] != "/two" {
		t.Fatalf("handler saw %v, want [/one /two]", seen)
	}
}

func TestDriverURITooLarge(t *testing.T) {
	client, _ := dialAndServe(t, testOptions(), func(r *wire.Request) any {
		t.Fatalf("handler should not run for an oversized URI")
		return "unreachable"
	})
	defer client.Close()

	longURI := "/"
	for len(longURI) < 400 {
		longURI += "a"
	}
	client.SetDeadline(time.Now().Add(2 * time.Second))
	client.Write([]byte("GET " + longURI + " HTTP/1.1\r\n\r\n"))

	line := readStatusLine(t, client)
	if line != "HTTP/1.1 414 URI Too Large\r\n" {
		t.Fatalf("status line = %q", line)
	}
}

func TestDriverBodyTooLarge(t *testing.T) {
	opts := testOptions()
	opts.MaxBodySize = 4
	client, _ := dialAndServe(t, opts, func(r *wire.Request) any {
		t.Fatalf("handler should not run for an oversized body")
		return "unreachable"
	})
	defer client.Close()

	client.SetDeadline(time.Now().Add(2 * time.Second))
	client.Write([]byte("POST / HTTP/1.1\r\nContent-Length: 100\r\n\r\n"))

	line := readStatusLine(t, client)
	if line != "HTTP/1.1 413 Content Too Large\r\n" {
		t.Fatalf("status line = %q", line)
	}
}

func TestDriverHandlerPanicYields500(t *testing.T) {
	client, done := dialAndServe(t, testOptions(), func(r *wire.Request) any {
		panic("boom")
	})
	defer client.Close()

	client.SetDeadline(time.Now().Add(2 * time.Second))
	// No "Connection: close" header: an HTTP/1.1 request with no close
	// header would normally keep the connection alive, but a panicked
	// handler must force it closed regardless (spec §4.4 step 7/§7).
	client.Write([]byte("GET / HTTP/1.1\r\n\r\n"))

	line := readStatusLine(t, client)
	if line != "HTTP/1.1 500 Internal Server Error\r\n" {
		t.Fatalf("status line = %q", line)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("connection did not close after handler panic")
	}
}

func TestDriverPercentDecodesPathForHandler(t *testing.T) {
	var gotURI, gotPath string
	client, _ := dialAndServe(t, testOptions(), func(r *wire.Request) any {
		gotURI = r.URI
		gotPath = r.Path
		return "ok"
	})
	defer client.Close()

	client.SetDeadline(time.Now().Add(2 * time.Second))
	client.Write([]byte("GET /a%20b%2Fc HTTP/1.1\r\nConnection: close\r\n\r\n"))
	readStatusLine(t, client)

	if gotURI != "/a%20b%2Fc" {
		t.Fatalf("URI = %q, want raw /a%%20b%%2Fc", gotURI)
	}
	if gotPath != "/a b/c" {
		t.Fatalf("Path = %q, want decoded /a b/c", gotPath)
	}
}

func TestDriverSegmentedRequestAcrossWrites(t *testing.T) {
	client, _ := dialAndServe(t, testOptions(), func(r *wire.Request) any {
		if r.URI != "/chunked" {
			t.Fatalf("uri = %q, want /chunked", r.URI)
		}
		return "ok"
	})
	defer client.Close()

	client.SetDeadline(time.Now().Add(2 * time.Second))
	full := "GET /chunked HTTP/1.1\r\nConnection: close\r\n\r\n"
	for i := 0; i < len(full); i++ {
		client.Write([]byte{full[i]})
	}

	line := readStatusLine(t, client)
	if line != "HTTP/1.1 200 OK\r\n" {
		t.Fatalf("status line = %q", line)
	}
}

func TestDriverKeepAliveDisabledClosesAfterOneRequest(t *testing.T) {
	opts := testOptions()
	opts.KeepAlive.Enabled = false
	var seen int
	client, done := dialAndServe(t, opts, func(r *wire.Request) any {
		seen++
		return "ok"
	})
	defer client.Close()

	client.SetDeadline(time.Now().Add(2 * time.Second))
	client.Write([]byte("GET /one HTTP/1.1\r\n\r\n"))
	readResponse(t, bufio.NewReader(client))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("connection did not close after one request with keepAlive.enabled = false")
	}
	if seen != 1 {
		t.Fatalf("handler ran %d times, want 1", seen)
	}
}

func TestDriverWebSocketUpgradeNotImplemented(t *testing.T) {
	client, _ := dialAndServe(t, testOptions(), func(r *wire.Request) any {
		t.Fatalf("handler should not run for a websocket upgrade attempt")
		return "unreachable"
	})
	defer client.Close()

	client.SetDeadline(time.Now().Add(2 * time.Second))
	client.Write([]byte("GET /ws HTTP/1.1\r\nConnection: Upgrade\r\nUpgrade: websocket\r\nSec-WebSocket-Key: dGhlIHNhbXBsZSBub25jZQ==\r\nSec-WebSocket-Version: 13\r\n\r\n"))

	line := readStatusLine(t, client)
	if line != "HTTP/1.1 501 Not Implemented\r\n" {
		t.Fatalf("status line = %q", line)
	}
}

func readResponse(t *testing.T, r *bufio.Reader) {
	t.Helper()
	line, err := r.ReadString('\n')
	if err != nil {
		t.Fatalf("read status line: %v", err)
	}
	if line != "HTTP/1.1 200 OK\r\n" {
		t.Fatalf("status line = %q", line)
	}
	for {
		hdr, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read header: %v", err)
		}
		if hdr == "\r\n" {
			break
		}
	}
}

func readStatusLine(t *testing.T, c net.Conn) string {
	t.Helper()
	r := bufio.NewReader(c)
	line, err := r.ReadString('\n')
	if err != nil {
		t.Fatalf("read status line: %v", err)
	}
	return line
}
