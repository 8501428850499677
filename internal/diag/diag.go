// Package diag routes operator diagnostics to the log, falling back to an
// in-band message queue returned to the caller when the log is unavailable.
package diag

import (
	"errors"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ErrUnavailable is returned by a sink that cannot accept messages.
var ErrUnavailable = errors.New("diagnostics sink unavailable")

// Sink accepts diagnostics. Implementations must not panic.
type Sink interface {
	Add(level zapcore.Level, msg string, fields ...zap.Field) error
}

// Logger is a Sink writing to zap.
type Logger struct{ log *zap.Logger }

// NewLogger wraps log; a nil logger yields a sink that is always unavailable.
func NewLogger(log *zap.Logger) *Logger { return &Logger{log: log} }

// Add implements Sink.
func (l *Logger) Add(level zapcore.Level, msg string, fields ...zap.Field) error {
	if l == nil || l.log == nil {
		return ErrUnavailable
	}
	if ce := l.log.Check(level, msg); ce != nil {
		ce.Write(fields...)
	}
	return nil
}

// Queue collects messages for the caller. The zero value is ready to use.
type Queue struct{ msgs []string }

// Messages returns the queued messages in order.
func (q *Queue) Messages() []string { return q.msgs }

// Emit sends msg to sink, or queues it when the sink refuses.
func Emit(sink Sink, q *Queue, level zapcore.Level, msg string, fields ...zap.Field) {
	if sink != nil {
		if err := sink.Add(level, msg, fields...); err == nil {
			return
		}
	}
	q.msgs = append(q.msgs, msg)
}
