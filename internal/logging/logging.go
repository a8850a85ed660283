// Package logging builds the zerolog logger used by the CLI: a console
// writer on stderr and, optionally, a rotated JSON log file.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures New.
type Options struct {
	// Level is a zerolog level name; empty means info.
	Level string

	// File, when set, receives every event as JSON with rotation.
	File string

	// Quiet limits the console to warnings and errors. The file still
	// gets everything at Level.
	Quiet bool

	// Console defaults to os.Stderr.
	Console io.Writer

	// NoColor disables ANSI colors on the console.
	NoColor bool
}

// Rotation limits for the log file.
const (
	maxSizeMB  = 20
	maxBackups = 5
	maxAgeDays = 30
)

// New returns a logger and a closer for its file. Close is a no-op when no
// file is configured.
func New(opts Options) (zerolog.Logger, io.Closer, error) {
	level := zerolog.InfoLevel
	if opts.Level != "" {
		l, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return zerolog.Nop(), nopCloser{}, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = l
	}

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	consoleMin := level
	if opts.Quiet && consoleMin < zerolog.WarnLevel {
		consoleMin = zerolog.WarnLevel
	}

	writers := []io.Writer{
		minLevelWriter{
			w:   zerolog.ConsoleWriter{Out: console, TimeFormat: "15:04:05", NoColor: opts.NoColor},
			min: consoleMin,
		},
	}

	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return zerolog.Nop(), nopCloser{}, fmt.Errorf("failed to create log directory: %w", err)
		}
		file := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
			MaxAge:     maxAgeDays,
			Compress:   true,
		}
		writers = append(writers, file)
		closer = file
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().Timestamp().
		Logger()
	return logger, closer, nil
}

// minLevelWriter drops events below min.
type minLevelWriter struct {
	w   io.Writer
	min zerolog.Level
}

func (m minLevelWriter) Write(p []byte) (int, error) {
	return m.w.Write(p)
}

func (m minLevelWriter) WriteLevel(l zerolog.Level, p []byte) (int, error) {
	if l < m.min {
		return len(p), nil
	}
	return m.w.Write(p)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
