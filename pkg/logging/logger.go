// Package logging bootstraps the process-wide logrus logger.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Log is the process logger. It discards output until Bootstrap runs.
var Log = newLogger(io.Discard, logrus.InfoLevel)

// Options control where and how much is logged.
type Options struct {
	Level string // logrus level name; empty means "info"
	File  string // append to this file; empty means Stderr
	// Stderr is the fallback writer when File is empty.
	Stderr io.Writer
}

func newLogger(out io.Writer, level logrus.Level) *logrus.Logger {
	return &logrus.Logger{
		Out:   out,
		Hooks: make(logrus.LevelHooks),
		Formatter: &logrus.TextFormatter{
			DisableColors: true,
			FullTimestamp: true,
		},
		Level:    level,
		ExitFunc: os.Exit,
	}
}

// Bootstrap configures Log and returns a closer for the log file, if any.
func Bootstrap(opts Options) (io.Closer, error) {
	level := logrus.InfoLevel
	if opts.Level != "" {
		parsed, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}

	var (
		out    io.Writer = opts.Stderr
		closer io.Closer = io.NopCloser(nil)
	)
	if out == nil {
		out = os.Stderr
	}
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		out, closer = f, f
	}

	Log = newLogger(out, level)
	if level >= logrus.DebugLevel {
		Log.SetReportCaller(true)
	}
	return closer, nil
}
