// Package logutils builds the application logger.
package logutils

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// MaxFileSize is the size at which an existing log file is rotated to
// "<file>.1" before a new run appends to it.
const MaxFileSize = 5 << 20

// New returns a logger for one run of the program.
//
// With a file, events are appended as JSON and a file over MaxFileSize is
// rotated first, keeping one previous generation. With no file, events go to
// stderr in zerolog's console format; stdout belongs to the TUI and to command
// output.
//
// The level parameter can be one of: debug, info, warn, error, fatal.
func New(level string, file string, hooks ...zerolog.Hook) (zerolog.Logger, func(), error) {
	closer := func() {}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Logger{}, closer, err
	}

	if file == "" {
		console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
		return NewWithWriter(console, lvl, hooks...), closer, nil
	}

	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return zerolog.Logger{}, closer, fmt.Errorf("create logs dir: %w", err)
	}
	if err := rotate(file, MaxFileSize); err != nil {
		return zerolog.Logger{}, closer, fmt.Errorf("rotate log file: %w", err)
	}

	osFile, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Logger{}, closer, fmt.Errorf("open log file: %w", err)
	}
	closer = func() { _ = osFile.Close() }

	return NewWithWriter(osFile, lvl, hooks...), closer, nil
}

// rotate moves file to file.1 once it has grown to limit bytes.
func rotate(file string, limit int64) error {
	info, err := os.Stat(file)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if info.Size() < limit {
		return nil
	}
	return os.Rename(file, file+".1")
}

// NewWithWriter returns a JSON logger on w at lvl with hooks attached.
func NewWithWriter(w io.Writer, lvl zerolog.Level, hooks ...zerolog.Hook) zerolog.Logger {
	l := zerolog.New(w).
		With().
		Timestamp().
		Logger().
		Level(lvl)

	for _, h := range hooks {
		l = l.Hook(h)
	}
	return l
}
