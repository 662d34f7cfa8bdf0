package nexplock

import "go.uber.org/zap"

// Logger is the structured logging sink the core accepts for advisory
// warnings (best-effort platform hints such as a failed I/O priority
// bump or a failed posix_fadvise call). No secret material is ever
// passed to Warn.
type Logger interface {
	Warn(msg string, fields ...zap.Field)
}

// nopLogger discards everything. It is the default when no Logger is
// supplied.
type nopLogger struct{}

func (nopLogger) Warn(string, ...zap.Field) {}

// NewNopLogger returns a Logger that discards all messages.
func NewNopLogger() Logger { return nopLogger{} }

// zapLogger adapts a *zap.Logger to the Logger interface.
type zapLogger struct {
	l *zap.Logger
}

// NewZapLogger wraps an existing *zap.Logger for use as the core's
// warning sink.
func NewZapLogger(l *zap.Logger) Logger {
	if l == nil {
		return nopLogger{}
	}
	return &zapLogger{l: l}
}

func (z *zapLogger) Warn(msg string, fields ...zap.Field) {
	z.l.Warn(msg, fields...)
}

func loggerOrNop(l Logger) Logger {
	if l == nil {
		return nopLogger{}
	}
	return l
}
