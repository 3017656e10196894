package wire

import (
	"strings"
	"testing"
)

func TestSerializeResponseShape(t *testing.T) {
	r := NewTextResponse("hello")
	out := Serialize(r)

	want := "HTTP/1.1 200 OK\r\n"
	if string(out[:len(want)]) != want {
		t.Fatalf("status line = %q, want prefix %q", out, want)
	}
	if !strings.Contains(string(out), "content-length: 5\r\n") {
		t.Fatalf("expected injected content-length, got %q", out)
	}
	if string(out[len(out)-5:]) != "hello" {
		t.Fatalf("expected trailing body, got %q", out)
	}
}

func TestSerializeNoBodyNoContentLength(t *testing.T) {
	r := &Response{StatusCode: 204, StatusReason: "No Content", Headers: Header{}}
	out := Serialize(r)
	if strings.Contains(string(out), "content-length") {
		t.Fatalf("did not expect content-length for empty body, got %q", out)
	}
	if string(out[len(out)-4:]) != "\r\n\r\n" {
		t.Fatalf("expected response to end with blank line, got %q", out)
	}
}

func TestSerializePreservesExplicitContentLength(t *testing.T) {
	r := &Response{StatusCode: 200, StatusReason: "OK", Headers: Header{"content-length": "99"}, Body: []byte("hi")}
	out := Serialize(r)
	if !strings.Contains(string(out), "content-length: 99\r\n") {
		t.Fatalf("expected caller's content-length preserved, got %q", out)
	}
}
