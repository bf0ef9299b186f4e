// Package logging configures the process-wide slog logger and offers the
// levelled helpers the rest of the module logs through.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

var (
	disabled atomic.Bool
	level    = new(slog.LevelVar)
	logger   = newLogger(os.Stderr)
)

func newLogger(w io.Writer) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		NoColor:    !isTerminal(w),
	}))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// Setup installs the tint handler on w as the slog default. verbose enables
// debug output.
func Setup(w io.Writer, verbose bool) *slog.Logger {
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}
	logger = newLogger(w)
	slog.SetDefault(logger)
	return logger
}

// Disable turns off all logging
func Disable() {
	disabled.Store(true)
}

// Enable turns logging back on
func Enable() {
	disabled.Store(false)
}

func logf(lvl slog.Level, msg string, args ...any) {
	if disabled.Load() {
		return
	}
	logger.Log(context.Background(), lvl, msg, args...)
}

// Info logs an info message with slog key/value pairs
func Info(msg string, args ...any) { logf(slog.LevelInfo, msg, args...) }

// Infof logs a formatted info message
func Infof(format string, v ...any) { logf(slog.LevelInfo, fmt.Sprintf(format, v...)) }

// Warn logs a warning message with slog key/value pairs
func Warn(msg string, args ...any) { logf(slog.LevelWarn, msg, args...) }

// Warnf logs a formatted warning message
func Warnf(format string, v ...any) { logf(slog.LevelWarn, fmt.Sprintf(format, v...)) }

// Error logs an error message with slog key/value pairs
func Error(msg string, args ...any) { logf(slog.LevelError, msg, args...) }

// Errorf logs a formatted error message
func Errorf(format string, v ...any) { logf(slog.LevelError, fmt.Sprintf(format, v...)) }

// Debug logs a debug message with slog key/value pairs
func Debug(msg string, args ...any) { logf(slog.LevelDebug, msg, args...) }

// Debugf logs a formatted debug message
func Debugf(format string, v ...any) { logf(slog.LevelDebug, fmt.Sprintf(format, v...)) }

// With returns the current logger with args attached.
func With(args ...any) *slog.Logger {
	return logger.With(args...)
}
