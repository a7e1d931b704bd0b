// internal/logger/logger.go
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	CombinedFile = "combined.log"
	ErrorFile    = "error.log"
)

// Options configures the process-wide logger.
type Options struct {
	Dir     string // directory holding the log files
	Level   string // zerolog level name, "info" when empty
	Console bool   // mirror to stderr in human-readable form
	Stderr  io.Writer
}

// Logger wraps a zerolog.Logger together with the files it writes to.
type Logger struct {
	zerolog.Logger
	files []*os.File
}

// New builds the logger once at process start: JSON entries go to
// combined.log, error and above additionally to error.log, and a console
// mirror is attached when requested.
func New(opts Options) (*Logger, error) {
	level := zerolog.InfoLevel
	if opts.Level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}

	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	combined, err := openLogFile(filepath.Join(opts.Dir, CombinedFile))
	if err != nil {
		return nil, err
	}
	errorsOnly, err := openLogFile(filepath.Join(opts.Dir, ErrorFile))
	if err != nil {
		combined.Close()
		return nil, err
	}

	writers := []io.Writer{
		combined,
		&zerolog.FilteredLevelWriter{
			Writer: zerolog.LevelWriterAdapter{Writer: errorsOnly},
			Level:  zerolog.ErrorLevel,
		},
	}
	if opts.Console {
		out := opts.Stderr
		if out == nil {
			out = os.Stderr
		}
		writers = append(writers, zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
	}

	zl := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Caller().
		Logger()

	return &Logger{Logger: zl, files: []*os.File{combined, errorsOnly}}, nil
}

// Close flushes and closes the log files.
func (l *Logger) Close() error {
	var first error
	for _, f := range l.files {
		if err := f.Sync(); err != nil && first == nil {
			first = err
		}
		if err := f.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func openLogFile(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}
