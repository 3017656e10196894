package tcp

import (
	"net"
	"testing"
	"time"

	"github.com/shockwave-lite/shockwave-lite/internal/config"
)

// TestPingPong exercises the spec §8 scenario: a raw TCP client connects,
// sends bytes, and the server's data callback echoes them back.
func TestPingPong(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	opts := config.DefaultTCPOptions()
	var opened, closed int
	srv := New(opts, Callbacks{
		Open: func(c net.Conn) { opened++ },
		Data: func(c net.Conn, b []byte) { c.Write(b) },
		Close: func(c net.Conn) { closed++ },
	}, nil)

	go srv.Serve(l)
	defer srv.Stop()

	conn, err := net.Dial("tcp", l.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(2 * time.Second))
	if _, err := conn.Write([]byte("ping")); err != nil {
		t.Fatalf("write: %v", err)
	}

	buf := make([]byte, 4)
	n, err := readFull(conn, buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(buf[:n]) != "ping" {
		t.Fatalf("got %q, want %q", buf[:n], "ping")
	}
}

func TestMaxConnectionsClampedToBacklog(t *testing.T) {
	opts := config.TCPOptions{MaxConnections: 5000}
	srv := New(opts, Callbacks{}, nil)
	if cap(srv.connSem) != 128 {
		t.Fatalf("connSem capacity = %d, want 128", cap(srv.connSem))
	}
}

func readFull(c net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := c.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
