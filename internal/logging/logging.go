// Package logging builds the zerolog logger shared by every component.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ramonehamilton/preordain/internal/config"
)

// Options controls logger construction.
type Options struct {
	// Level is a zerolog level name: trace, debug, info, warn, error.
	Level string

	// Format is "console" for human output or "json".
	Format string

	// Output defaults to os.Stderr.
	Output io.Writer
}

// FromConfig maps the [log] section to Options.
func FromConfig(cfg config.LogConfig) Options {
	return Options{Level: cfg.Level, Format: cfg.Format}
}

// New returns a logger for opts.
func New(opts Options) (zerolog.Logger, error) {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	level := zerolog.InfoLevel
	if opts.Level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}

	switch opts.Format {
	case "", "json":
	case "console":
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	default:
		return zerolog.Nop(), fmt.Errorf("invalid log format %q", opts.Format)
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
}
