// Package logging provides the structured logger used throughout the
// server/connection/accept-loop paths. The teacher carries no logging
// story anywhere in shockwave; this module adopts logrus, the one real
// structured-logging library anywhere in the retrieval pack
// (docker-compose's go.mod), rather than falling back to the stdlib log
// package (see DESIGN.md "Ambient stack").
package logging

import "github.com/sirupsen/logrus"

// Logger is a logrus.FieldLogger, so callers can attach structured
// fields (remote_addr, err, ...) the way bolt's middleware/logger.go
// attaches fields by hand, but through logrus's WithFields.
type Logger = logrus.FieldLogger

var std = logrus.StandardLogger()

// Default returns the package-wide logger. Tests and cmd/ entrypoints may
// configure std's level/formatter directly via logrus.
func Default() Logger {
	return std
}
