package conn

import (
	"net"
	"testing"
	"time"
)

func TestWriteQueueOrdering(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	q := newWriteQueue(server, nil)
	q.Enqueue([]byte("first"))
	q.Enqueue([]byte("second"))

	buf := make([]byte, 11)
	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err := readFull(client, buf)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(buf[:n]) != "firstsecond" {
		t.Fatalf("got %q, want %q", buf[:n], "firstsecond")
	}
}

func TestWriteQueueWaitForMessages(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()

	q := newWriteQueue(server, nil)
	done := make(chan struct{})
	go func() {
		buf := make([]byte, 5)
		client.Read(buf)
		close(done)
	}()

	q.Enqueue([]byte("hello"))
	q.WaitForMessages()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("reader never observed the write")
	}
}

func TestWriteQueueDropsAfterClose(t *testing.T) {
	server, client := net.Pipe()
	client.Close()
	server.Close()

	q := newWriteQueue(server, nil)
	q.Enqueue([]byte("x"))
	q.WaitForMessages()
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
