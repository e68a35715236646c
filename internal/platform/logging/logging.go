// Package logging builds the process-wide zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

type Options struct {
	// Console selects the human-readable writer instead of JSON.
	Console bool
	Level   string
	// FilePath, when set, receives a JSON copy of every log line.
	FilePath string
}

// New returns a timestamped logger and a close func for the optional file
// sink. stdout is used as the primary output.
func New(opts Options) (zerolog.Logger, func() error, error) {
	return newLogger(os.Stdout, opts)
}

func newLogger(out io.Writer, opts Options) (zerolog.Logger, func() error, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return zerolog.Nop(), nil, err
	}

	var primary io.Writer = out
	if opts.Console {
		primary = zerolog.ConsoleWriter{Out: out}
	}

	closeFn := func() error { return nil }
	w := primary
	if opts.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(opts.FilePath), 0o755); err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(opts.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("open log file %s: %w", opts.FilePath, err)
		}
		w = zerolog.MultiLevelWriter(primary, f)
		closeFn = f.Close
	}

	logger := zerolog.New(w).Level(level).With().Timestamp().Logger()
	return logger, closeFn, nil
}

// ParseLevel accepts zerolog level names; empty means info.
func ParseLevel(s string) (zerolog.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid LOG_LEVEL %q: %w", s, err)
	}
	return level, nil
}
