// Package logutils builds the process-wide zerolog logger.
package logutils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Stderr as a file name selects colored console output on stderr.
const Stderr = "-"

// New parses level and opens the log destination. Files are appended to
// as JSON lines so consecutive runs share one log. The returned func closes
// the file and is safe to call when logging to stderr.
func New(level, file string) (zerolog.Logger, func(), error) {
	noop := func() {}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), noop, fmt.Errorf("log level: %w", err)
	}

	out, closeFn, err := open(file)
	if err != nil {
		return zerolog.Nop(), noop, err
	}

	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), closeFn, nil
}

func open(file string) (io.Writer, func(), error) {
	if file == "" || file == Stderr {
		return zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}, func() {}, nil
	}

	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return nil, nil, fmt.Errorf("log dir: %w", err)
	}
	f, err := os.OpenFile(file, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("log file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
