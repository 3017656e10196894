// Package wsstub declares a WebSocket upgrade entry point without
// implementing the handshake, per spec §1's explicit Non-goal
// ("WebSocket upgrade (declared but unimplemented)"). Adapted from the
// teacher's RFC 6455 handshake-detection logic in
// pkg/shockwave/websocket/upgrade.go, rewritten against this module's own
// wire.Request/wire.Response types instead of net/http's, and always
// returning ErrNotImplemented once a genuine upgrade request is detected.
package wsstub

import (
	"errors"
	"strings"

	"github.com/shockwave-lite/shockwave-lite/internal/wire"
)

var (
	// ErrNotUpgrade means the request did not carry the headers RFC 6455
	// §4.2.1 requires for a WebSocket handshake.
	ErrNotUpgrade = errors.New("wsstub: not a websocket upgrade request")

	// ErrNotImplemented means the request WAS a valid-looking handshake,
	// but this engine declares the upgrade path without implementing it.
	ErrNotImplemented = errors.New("wsstub: websocket upgrade not implemented")
)

// IsUpgradeRequest reports whether r carries the Connection: Upgrade and
// Upgrade: websocket headers RFC 6455 requires, mirroring the teacher's
// headerContains checks in Upgrader.Upgrade.
func IsUpgradeRequest(r *wire.Request) bool {
	conn, _ := r.Headers.Get("connection")
	upg, _ := r.Headers.Get("upgrade")
	return headerTokenContains(conn, "upgrade") && strings.EqualFold(upg, "websocket")
}

// Upgrade validates the handshake shape the way the teacher's
// Upgrader.Upgrade does (method, Connection/Upgrade headers,
// Sec-WebSocket-Key presence, Sec-WebSocket-Version) and then always
// fails with ErrNotImplemented — the upgrade is declared, reachable, and
// deliberately not completed.
func Upgrade(r *wire.Request) error {
	if r.Method != wire.MethodGET {
		return ErrNotUpgrade
	}
	if !IsUpgradeRequest(r) {
		return ErrNotUpgrade
	}
	if key, ok := r.Headers.Get("sec-websocket-key"); !ok || key == "" {
		return ErrNotUpgrade
	}
	return ErrNotImplemented
}

func headerTokenContains(header, token string) bool {
	for _, part := range strings.Split(header, ",") {
		if strings.EqualFold(strings.TrimSpace(part), token) {
			return true
		}
	}
	return false
}
