// Package logger provides verbose logging for the xbm CLI.
// When verbose mode is enabled via the --verbose flag, debug messages
// are printed to stderr to help users follow a sync run. When a log file
// is configured, every message at info level and above (and debug when
// verbose) is also written there as JSON, rotated by size.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation settings for the log file.
const (
	maxLogSizeMB  = 10
	maxLogBackups = 3
	maxLogAgeDays = 28
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
	console           = newConsole(os.Stderr)
	file    *zap.Logger
	rotator *lumberjack.Logger
)

// bracketLevel renders levels as "[DEBUG]", "[INFO]", ...
func bracketLevel(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + l.CapitalString() + "]")
}

func newConsole(w io.Writer) *zap.Logger {
	cfg := zapcore.EncoderConfig{
		MessageKey:       "msg",
		LevelKey:         "level",
		EncodeLevel:      bracketLevel,
		ConsoleSeparator: " ",
		LineEnding:       zapcore.DefaultLineEnding,
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.Lock(zapcore.AddSync(w)), zapcore.DebugLevel)
	return zap.New(core)
}

func newFile(w io.Writer) *zap.Logger {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(cfg), zapcore.AddSync(w), zapcore.DebugLevel)
	return zap.New(core)
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for verbose logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	console = newConsole(w)
}

// SetLogFile directs a copy of all logs to path, rotating it by size.
// An empty path closes any open log file.
func SetLogFile(path string) error {
	mu.Lock()
	defer mu.Unlock()

	if err := closeFileLocked(); err != nil {
		return err
	}
	if path == "" {
		return nil
	}

	rotator = &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxLogSizeMB,
		MaxBackups: maxLogBackups,
		MaxAge:     maxLogAgeDays,
	}
	file = newFile(rotator)
	return nil
}

// Close flushes and closes the log file, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	return closeFileLocked()
}

func closeFileLocked() error {
	if file == nil {
		return nil
	}
	_ = file.Sync()
	err := rotator.Close()
	file = nil
	rotator = nil
	return err
}

func logf(level zapcore.Level, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()

	msg := fmt.Sprintf(format, args...)
	if verbose {
		if ce := console.Check(level, msg); ce != nil {
			ce.Write()
		}
	}
	if file != nil && (verbose || level >= zapcore.InfoLevel) {
		if ce := file.Check(level, msg); ce != nil {
			ce.Write()
		}
	}
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	logf(zapcore.DebugLevel, format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	logf(zapcore.InfoLevel, format, args...)
}

// Warn prints a warning message if verbose mode is enabled.
func Warn(format string, args ...any) {
	logf(zapcore.WarnLevel, format, args...)
}

// Error prints an error message if verbose mode is enabled.
func Error(format string, args ...any) {
	logf(zapcore.ErrorLevel, format, args...)
}
