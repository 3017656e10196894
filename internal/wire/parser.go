package wire

import "strconv"

// Limits bounds the five resumable stages. Defaults match spec §4.1/§6.
type Limits struct {
	MaxURISize      int
	MaxHeaders      int
	MaxHeaderName   int
	MaxHeaderValue  int
	MaxBodySize     int
}

// DefaultLimits returns the defaults named in spec §6's HTTP serve options.
func DefaultLimits() Limits {
	return Limits{
		MaxURISize:     256,
		MaxHeaders:     100,
		MaxHeaderName:  64,
		MaxHeaderValue: 2048,
		MaxBodySize:    4096,
	}
}

// Parser is the resumable view over an in-progress request (spec §3
// "Parser State"). A Parser is reused across keep-alive requests on one
// connection; it is never shared across connections/goroutines.
type Parser struct {
	buf      []byte
	pos      int
	size     int
	leftover []byte

	method    Method
	hasMethod bool

	uri    string
	hasURI bool

	protocol    Protocol
	hasProtocol bool

	headers           Header
	headersIncomplete bool
	headerLineStart   int

	body    []byte
	hasBody bool
}

// NewParser returns a fresh parser, pristine like one just Reset.
func NewParser() *Parser {
	p := &Parser{}
	p.Reset()
	return p
}

// HasMethod, HasURI, HasProtocol, HasHeaders report whether that field of
// the in-progress request is already satisfied, so the driver (spec §4.4
// step 5) only re-invokes stages that aren't.
func (p *Parser) HasMethod() bool   { return p.hasMethod }
func (p *Parser) HasURI() bool      { return p.hasURI }
func (p *Parser) HasProtocol() bool { return p.hasProtocol }
func (p *Parser) HasHeaders() bool  { return p.headers != nil && !p.headersIncomplete }
func (p *Parser) HasBody() bool     { return p.hasBody }

// Feed joins newly received bytes with any stashed leftover (spec §4.1
// "leftover join") and resets the read cursor to the start of the joined
// buffer.
func (p *Parser) Feed(data []byte) {
	if p.leftover != nil {
		joined := make([]byte, 0, len(p.leftover)+len(data))
		joined = append(joined, p.leftover...)
		joined = append(joined, data...)
		p.buf = joined
		p.leftover = nil
	} else {
		p.buf = data
	}
	p.pos = 0
	p.size = len(p.buf)
}

// Stash preserves the unconsumed tail of the current buffer as leftover,
// for the next Feed. The driver calls this whenever a stage reports
// KindTooSmall.
func (p *Parser) Stash() {
	if p.pos < p.size {
		tail := make([]byte, p.size-p.pos)
		copy(tail, p.buf[p.pos:p.size])
		p.leftover = tail
	}
	p.buf = nil
	p.pos = 0
	p.size = 0
}

// Reset clears all per-request fields (spec §9 Open Question: this
// implementation clears method/uri/protocol/headers/body, diverging from
// the reference's partial clear, per spec's own recommendation).
func (p *Parser) Reset() {
	p.buf = nil
	p.pos = 0
	p.size = 0
	p.leftover = nil
	p.method = MethodUnknown
	p.hasMethod = false
	p.uri = ""
	p.hasURI = false
	p.protocol = ProtoUnknown
	p.hasProtocol = false
	p.headers = nil
	p.headersIncomplete = false
	p.headerLineStart = 0
	p.body = nil
	p.hasBody = false
}

// ParseMethod implements spec §4.1 parse-method.
func (p *Parser) ParseMethod() ErrKind {
	newPos, m, kind := parseMethod(p.buf, p.pos)
	if kind.IsFailure() {
		return kind
	}
	if kind == KindTooSmall {
		return KindTooSmall
	}
	p.pos = newPos
	p.method = m
	p.hasMethod = true
	return KindNone
}

// ParseURI implements spec §4.1 parse-uri.
func (p *Parser) ParseURI(maxURISize int) ErrKind {
	if p.pos >= p.size {
		return KindTooSmall
	}
	first := p.buf[p.pos]

	if first == '*' {
		if p.size-p.pos < 2 {
			return KindTooSmall
		}
		if p.buf[p.pos+1] != ' ' {
			return KindInvalidURI
		}
		p.uri = "*"
		p.hasURI = true
		p.pos += 2
		return KindNone
	}

	if first != '/' {
		return KindInvalidURI
	}

	i := p.pos
	for i < p.size {
		b := p.buf[i]
		if b == ' ' {
			n := i - p.pos
			if n > maxURISize {
				return KindURITooLarge
			}
			p.uri = string(p.buf[p.pos:i])
			p.hasURI = true
			p.pos = i + 1
			return KindNone
		}
		if b < 0x20 || b > 0x7E {
			return KindInvalidURI
		}
		i++
		if i-p.pos > maxURISize {
			return KindURITooLarge
		}
	}
	return KindTooSmall
}

var http10Bytes = []byte("/1.0")
var http11Bytes = []byte("/1.1")

// ParseProtocol implements spec §4.1 parse-protocol.
func (p *Parser) ParseProtocol() ErrKind {
	if p.size-p.pos < 10 {
		return KindTooSmall
	}
	if string(p.buf[p.pos:p.pos+4]) != "HTTP" {
		return KindInvalidProtocol
	}
	ver := p.buf[p.pos+4 : p.pos+8]
	var proto Protocol
	switch {
	case bytesEqual(ver, http10Bytes):
		proto = ProtoHTTP10
	case bytesEqual(ver, http11Bytes):
		proto = ProtoHTTP11
	default:
		return KindInvalidProtocol
	}
	if p.buf[p.pos+8] != '\r' || p.buf[p.pos+9] != '\n' {
		return KindInvalidProtocol
	}
	p.protocol = proto
	p.hasProtocol = true
	p.pos += 10
	return KindNone
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func isHeaderNameByte(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9') || b == '-' || b == '_'
}

func isHeaderValueByte(b byte) bool {
	return b == '\t' || b == ' ' || (b >= 0x21 && b <= 0x7E)
}

func toLowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// ParseHeaders implements spec §4.1 parse-headers: iteratively consumes
// header lines until the terminating blank line, bounded by maxHeaders
// and per-field size limits. A TooSmall mid-line resumes at the start of
// that same (still incomplete) line on retry, since p.pos is only ever
// advanced past a fully-consumed line and Stash keeps the tail from p.pos.
func (p *Parser) ParseHeaders(limits Limits) ErrKind {
	if p.headers == nil {
		p.headers = make(Header)
	}
	for {
		lineStart := p.pos

		if lineStart >= p.size {
			p.headersIncomplete = true
			return KindTooSmall
		}
		if p.buf[lineStart] == '\r' {
			if p.size-lineStart < 2 {
				p.headersIncomplete = true
				return KindTooSmall
			}
			if p.buf[lineStart+1] != '\n' {
				return KindInvalidHeader
			}
			p.pos = lineStart + 2
			p.headersIncomplete = false
			return KindNone
		}

		if len(p.headers) >= limits.MaxHeaders {
			return KindTooManyHeaders
		}

		i := lineStart
		for i < p.size && p.buf[i] != ':' {
			if !isHeaderNameByte(p.buf[i]) {
				return KindInvalidHeader
			}
			i++
			if i-lineStart > limits.MaxHeaderName {
				return KindHeaderTooLarge
			}
		}
		if i >= p.size {
			p.headersIncomplete = true
			return KindTooSmall
		}
		name := toLowerASCII(string(p.buf[lineStart:i]))
		i++ // skip ':'

		for i < p.size && p.buf[i] == ' ' {
			i++
		}
		valStart := i
		for i < p.size {
			b := p.buf[i]
			if !isHeaderValueByte(b) {
				break
			}
			i++
			if i-valStart >= limits.MaxHeaderValue {
				return KindHeaderTooLarge
			}
		}
		if i >= p.size {
			p.headersIncomplete = true
			return KindTooSmall
		}
		valEnd := i
		if p.buf[i] != '\r' {
			return KindInvalidHeader
		}
		if p.size-i < 2 {
			p.headersIncomplete = true
			return KindTooSmall
		}
		if p.buf[i+1] != '\n' {
			return KindInvalidHeader
		}

		// Duplicate header names: later values overwrite earlier
		// (spec §4.1 "implementer-defined — match the reference").
		p.headers[name] = string(p.buf[valStart:valEnd])
		p.pos = i + 2
	}
}

// ParseBody implements spec §4.1 parse-body.
func (p *Parser) ParseBody(maxBodySize int) ErrKind {
	if p.headers == nil {
		p.hasBody = true
		return KindNone
	}
	if te, ok := p.headers.Get(hdrTransferEncoding); ok {
		if toLowerASCII(te) == "chunked" {
			return KindNotImplemented
		}
	}
	cl, ok := p.headers.Get(hdrContentLength)
	if !ok {
		p.hasBody = true
		return KindNone
	}
	n, err := parseNonNegativeInt(cl)
	if err != nil {
		return KindInvalidContentLength
	}
	if n > maxBodySize {
		return KindTooLarge
	}
	if p.size-p.pos < n {
		return KindTooSmall
	}
	body := make([]byte, n)
	copy(body, p.buf[p.pos:p.pos+n])
	p.body = body
	p.hasBody = true
	p.pos += n
	return KindNone
}

// parseNonNegativeInt parses Content-Length strictly: ASCII digits only,
// no sign, no whitespace (spec §9 Open Question: non-negative integer
// only; leading zeros are accepted, a leading '+' or '-' is not).
func parseNonNegativeInt(s string) (int, error) {
	if s == "" {
		return 0, strconv.ErrSyntax
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, strconv.ErrSyntax
		}
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v < 0 {
		return 0, strconv.ErrSyntax
	}
	return int(v), nil
}

// CanKeepAlive implements spec §4.1/§8: true iff headers exist AND
// (connection header absent OR not "close") AND protocol is HTTP/1.1.
func (p *Parser) CanKeepAlive() bool {
	if p.headers == nil {
		return false
	}
	if p.protocol != ProtoHTTP11 {
		return false
	}
	if v, ok := p.headers.Get(hdrConnection); ok && toLowerASCII(v) == "close" {
		return false
	}
	return true
}

// Request builds the completed Request record for dispatch.
func (p *Parser) Request() *Request {
	return &Request{
		Method:   p.method,
		URI:      p.uri,
		Protocol: p.protocol,
		Headers:  p.headers,
		Body:     p.body,
	}
}
