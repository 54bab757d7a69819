// Package logger provides the configured zerolog logger.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// New returns a zerolog.Logger tagged with the service name.
func New(serviceName string) zerolog.Logger {
	return newWithWriter(os.Stdout, serviceName)
}

func newWithWriter(w io.Writer, serviceName string) zerolog.Logger {
	return zerolog.New(w).With().
		Str("service", serviceName).
		Timestamp().
		Logger()
}

// Setup installs a service logger as the package-global zerolog logger and
// applies the level; unknown levels fall back to info.
func Setup(serviceName, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	l := New(serviceName)
	log.Logger = l
	return l
}
