package wire

import (
	"strconv"
	"strings"
)

// Response is the logical record described in spec §3: a status, headers,
// and an optional body. Either a plain string (spec §4.2: "200 OK" with
// Content-Type text/plain) or a *Response is what a request callback may
// return; the driver normalizes a string into a Response before handing it
// to Serialize.
type Response struct {
	StatusCode   int
	StatusReason string
	Headers      Header
	Body         []byte
}

// NewTextResponse builds the plain-string shortcut spec §4.2 describes.
func NewTextResponse(body string) *Response {
	return &Response{
		StatusCode:   200,
		StatusReason: "OK",
		Headers:      Header{"content-type": "text/plain"},
		Body:         []byte(body),
	}
}

// WriteJSON, WriteText, WriteHTML, WriteError are convenience constructors
// adapted from the teacher's same-named ResponseWriter methods
// (http11/response.go), re-expressed as Response builders since this
// engine's request callback returns a value rather than streaming writes.
func WriteJSON(statusCode int, body []byte) *Response {
	return &Response{StatusCode: statusCode, StatusReason: statusText(statusCode), Headers: Header{"content-type": "application/json"}, Body: body}
}

func WriteText(statusCode int, body string) *Response {
	return &Response{StatusCode: statusCode, StatusReason: statusText(statusCode), Headers: Header{"content-type": "text/plain"}, Body: []byte(body)}
}

func WriteHTML(statusCode int, body string) *Response {
	return &Response{StatusCode: statusCode, StatusReason: statusText(statusCode), Headers: Header{"content-type": "text/html"}, Body: []byte(body)}
}

func WriteError(statusCode int, message string) *Response {
	return WriteText(statusCode, message)
}

// Serialize renders a Response into the wire form described by spec §4.2:
//
//	<protocol> <statusCode> <statusReason>\r\n
//	<Header-Name>: <Value>\r\n     (zero or more)
//	\r\n
//	<body>                         (optional)
//
// Protocol is fixed at HTTP/1.1 regardless of the request's protocol
// (spec §4.2 "protocol fixed at HTTP/1.1"). If a body is present and
// Content-Length is absent from the caller's headers, it is injected;
// otherwise the caller's headers are preserved verbatim, original case.
func Serialize(r *Response) []byte {
	var b strings.Builder
	b.Grow(128 + len(r.Body))

	b.WriteString("HTTP/1.1 ")
	b.WriteString(strconv.Itoa(r.StatusCode))
	b.WriteByte(' ')
	b.WriteString(r.StatusReason)
	b.WriteString("\r\n")

	hasContentLength := false
	for name := range r.Headers {
		if strings.EqualFold(name, hdrContentLength) {
			hasContentLength = true
		}
	}
	for name, value := range r.Headers {
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteString("\r\n")
	}
	if len(r.Body) > 0 && !hasContentLength {
		b.WriteString("content-length: ")
		b.WriteString(strconv.Itoa(len(r.Body)))
		b.WriteString("\r\n")
	}
	b.WriteString("\r\n")

	out := make([]byte, 0, b.Len()+len(r.Body))
	out = append(out, b.String()...)
	out = append(out, r.Body...)
	return out
}

// statusText returns the RFC 7231 §6 reason phrase for a status code,
// adapted from the teacher's statusText table in http11/response.go.
func statusText(code int) string {
	switch code {
	case 200:
		return "OK"
	case 201:
		return "Created"
	case 204:
		return "No Content"
	case 301:
		return "Moved Permanently"
	case 302:
		return "Found"
	case 304:
		return "Not Modified"
	case 400:
		return "Bad Request"
	case 401:
		return "Unauthorized"
	case 403:
		return "Forbidden"
	case 404:
		return "Not Found"
	case 405:
		return "Method Not Allowed"
	case 408:
		return "Request Timeout"
	case 413:
		return "Content Too Large"
	case 414:
		return "URI Too Large"
	case 431:
		return "Request Header Fields Too Large"
	case 500:
		return "Internal Server Error"
	case 501:
		return "Not Implemented"
	case 503:
		return "Service Unavailable"
	default:
		return "Unknown"
	}
}

// Error-table responses (spec §6/§7); each call builds a new Response.
func ResponseTimeout408() *Response {
	return &Response{StatusCode: 408, StatusReason: "Request Timeout", Headers: Header{"connection": "close"}}
}

func ResponseURITooLarge414() *Response {
	return &Response{StatusCode: 414, StatusReason: "URI Too Large", Headers: Header{"connection": "close"}}
}

func ResponseHeaderFieldsTooLarge431() *Response {
	return &Response{StatusCode: 431, StatusReason: "Request Header Fields Too Large", Headers: Header{"connection": "close"}}
}

func ResponseContentTooLarge413() *Response {
	return &Response{StatusCode: 413, StatusReason: "Content Too Large", Headers: Header{"connection": "close"}}
}

func ResponseInternalServerError500() *Response {
	return &Response{
		StatusCode:   500,
		StatusReason: "Internal Server Error",
		Headers:      Header{"content-type": "text/plain", "connection": "close"},
		Body:         []byte("Internal Server Error"),
	}
}
