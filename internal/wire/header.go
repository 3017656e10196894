package wire

import "strings"

// Header is a case-insensitive header map: names are lowercased on
// insertion (spec §3), values are stored verbatim. Get lowercases the
// lookup name, so callers may pass any casing.
type Header map[string]string

// Get looks up a header by name, case-insensitively.
func (h Header) Get(name string) (string, bool) {
	v, ok := h[strings.ToLower(name)]
	return v, ok
}

// Set stores a header, lowercasing the name. Used when building outgoing
// Responses; rejects CRLF injection the way the teacher's header.Add does,
// since a caller-supplied value could otherwise smuggle extra header
// lines into the serialized response.
func (h Header) Set(name, value string) bool {
	if strings.ContainsAny(name, "\r\n") || strings.ContainsAny(value, "\r\n") {
		return false
	}
	h[strings.ToLower(name)] = value
	return true
}

// Well-known lowercase header names, used internally to avoid repeated
// strings.ToLower calls on hot paths.
const (
	hdrContentLength    = "content-length"
	hdrTransferEncoding = "transfer-encoding"
	hdrConnection       = "connection"
	hdrHost             = "host"
)
