package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger streams structured entries tagged with a trace id and a component.
type Logger struct {
	zl      *zap.Logger
	service string
}

// New builds a production JSON logger. level accepts debug, info, warn or error.
func New(service, level string) (*Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))
	cfg.DisableStacktrace = true
	zl, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return &Logger{zl: zl, service: service}, nil
}

// FromZap wraps an existing zap logger.
func FromZap(zl *zap.Logger, service string) *Logger {
	return &Logger{zl: zl, service: service}
}

// Nop discards everything.
func Nop() *Logger {
	return &Logger{zl: zap.NewNop()}
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Log writes msg at level. fields are flattened into the entry; err, when non-nil,
// is attached under "error".
func (l *Logger) Log(level zapcore.Level, traceID, msg string, fields map[string]any, component string, err error) {
	if l == nil || l.zl == nil {
		return
	}
	ce := l.zl.Check(level, msg)
	if ce == nil {
		return
	}
	zf := make([]zap.Field, 0, len(fields)+4)
	if l.service != "" {
		zf = append(zf, zap.String("service", l.service))
	}
	if traceID != "" {
		zf = append(zf, zap.String("traceId", traceID))
	}
	if component != "" {
		zf = append(zf, zap.String("component", component))
	}
	for k, v := range fields {
		zf = append(zf, zap.Any(k, v))
	}
	if err != nil {
		zf = append(zf, zap.Error(err))
	}
	ce.Write(zf...)
}

// Zap exposes the underlying logger for libraries that want one.
func (l *Logger) Zap() *zap.Logger {
	if l == nil || l.zl == nil {
		return zap.NewNop()
	}
	return l.zl
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	if l == nil || l.zl == nil {
		return nil
	}
	return l.zl.Sync()
}
