// Package config holds the server/connection option structs described in
// spec §6, with the defaults spec.md names. Adapted from the teacher's
// plain Config struct with a DefaultConfig() constructor
// (pkg/shockwave/server/server.go); no flags/viper-style library is used
// since the teacher itself doesn't use one and none appears anywhere in
// the retrieval pack for this purpose.
package config

import "time"

// Options is the HTTP serve options table from spec §6.
type Options struct {
	Port          int
	Address       string
	ReuseAddress  bool
	MaxBodySize   int
	MaxConnections int
	// MaxBacklog is the OS listen backlog named in spec §6. Go's net
	// package (like the teacher's own net.Listen usage) doesn't expose a
	// way to pass a backlog to Listen, so this is currently read nowhere
	// in internal/server; it's kept on Options so a future Control-based
	// SO_... setting (see pkg/socket) has a place to read it from.
	MaxBacklog    int
	ClientTimeout time.Duration
	KeepAlive     KeepAlive

	MaxURISize    int
	MaxHeaders    int

	// Additive socket-tuning knobs beyond spec's bare ReuseAddress
	// (SPEC_FULL.md §12 "Supplemented Features"); zero value means "leave
	// to OS defaults", preserving spec's documented behavior when unset.
	TCPNoDelay bool
	RecvBuffer int
	SendBuffer int
}

// KeepAlive is spec §6's keepAlive.* option group.
type KeepAlive struct {
	Enabled bool
	Timeout time.Duration // 0 => use ClientTimeout
}

// DefaultOptions returns the defaults named in spec §6.
func DefaultOptions() Options {
	return Options{
		Port:           80,
		Address:        "127.0.0.1",
		ReuseAddress:   false,
		MaxBodySize:    4096,
		MaxConnections: 1024,
		MaxBacklog:     512,
		ClientTimeout:  60 * time.Second,
		KeepAlive:      KeepAlive{Enabled: true, Timeout: 0},
		MaxURISize:     256,
		MaxHeaders:     100,
	}
}

// TCPOptions is the TCP host/connect options table from spec §6.
type TCPOptions struct {
	Address        string
	Port           int // 0 => OS-picked
	ReuseAddress   bool
	MaxDataRead    int
	MaxConnections int // clamped to backlog 128
}

// DefaultTCPOptions returns the defaults named in spec §6.
func DefaultTCPOptions() TCPOptions {
	return TCPOptions{
		Address:        "127.0.0.1",
		Port:           0,
		ReuseAddress:   false,
		MaxDataRead:    8192,
		MaxConnections: 512,
	}
}

// KeepAliveTimeout resolves the per-request timeout (spec §4.4 step 1):
// clientTimeout for the first request, keepAlive.timeout if >0 for
// subsequent ones, else clientTimeout.
func (o Options) KeepAliveTimeout(isFirstRequest bool) time.Duration {
	if isFirstRequest {
		return o.ClientTimeout
	}
	if o.KeepAlive.Timeout > 0 {
		return o.KeepAlive.Timeout
	}
	return o.ClientTimeout
}
