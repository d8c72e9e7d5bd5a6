package platform

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// NewLogger builds the process logger: console output on stderr so the
// generated artifacts on stdout and disk stay clean.
func NewLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(lvl).
		With().Timestamp().Logger()
}
