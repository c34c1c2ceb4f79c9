// Package logging wraps zap with the level and format switches the CLI exposes.
package logging

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a thin wrapper over *zap.Logger.
type Logger struct {
	zap *zap.Logger
}

// New builds a logger writing to w. level is one of debug|info|warn|error and
// format is console or json.
func New(level, format string, w io.Writer) (*Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	var enc zapcore.Encoder
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "console":
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		enc = zapcore.NewConsoleEncoder(cfg)
	case "json":
		cfg := zap.NewProductionEncoderConfig()
		cfg.TimeKey = "ts"
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		enc = zapcore.NewJSONEncoder(cfg)
	default:
		return nil, fmt.Errorf("invalid log format %q (use console|json)", format)
	}
	core := zapcore.NewCore(enc, zapcore.AddSync(w), lvl)
	return &Logger{zap: zap.New(core)}, nil
}

// ParseLevel maps a level name to a zap level; empty means warn.
func ParseLevel(s string) (zapcore.Level, error) {
	if strings.TrimSpace(s) == "" {
		return zapcore.WarnLevel, nil
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(s)))); err != nil {
		return lvl, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return lvl, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger { return &Logger{zap: zap.NewNop()} }

func (l *Logger) Debug(msg string, fields ...zap.Field) { l.zap.Debug(msg, fields...) }
func (l *Logger) Info(msg string, fields ...zap.Field)  { l.zap.Info(msg, fields...) }
func (l *Logger) Warn(msg string, fields ...zap.Field)  { l.zap.Warn(msg, fields...) }
func (l *Logger) Error(msg string, fields ...zap.Field) { l.zap.Error(msg, fields...) }

// With returns a child logger carrying fields.
func (l *Logger) With(fields ...zap.Field) *Logger { return &Logger{zap: l.zap.With(fields...)} }

// Named returns a child logger with a name segment appended.
func (l *Logger) Named(name string) *Logger { return &Logger{zap: l.zap.Named(name)} }

// Enabled reports whether the level would be written.
func (l *Logger) Enabled(level zapcore.Level) bool { return l.zap.Core().Enabled(level) }

// Underlying exposes the zap logger.
func (l *Logger) Underlying() *zap.Logger { return l.zap }

// Sync flushes buffered entries, ignoring the errors stderr returns on Linux.
func (l *Logger) Sync() error {
	err := l.zap.Sync()
	if err != nil && isStdoutSyncError(err) {
		return nil
	}
	return err
}

func isStdoutSyncError(err error) bool {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.EINVAL || errno == syscall.ENOTTY
	}
	return false
}
