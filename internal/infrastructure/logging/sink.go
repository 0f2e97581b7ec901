package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/GriffinCanCode/ipcsim/internal/domain/events"
)

// EventSink writes simulation events to a logger. Deadlocks are logged at
// warn, everything else at debug.
type EventSink struct {
	logger *zap.Logger
}

// NewEventSink returns a sink logging under the "sim" name.
func NewEventSink(logger *Logger) *EventSink {
	return &EventSink{logger: logger.Named("sim")}
}

// Emit implements events.Sink.
func (s *EventSink) Emit(e events.Event) {
	level := zapcore.DebugLevel
	if e.Type == events.DeadlockDetected {
		level = zapcore.WarnLevel
	}
	if ce := s.logger.Check(level, "event"); ce != nil {
		ce.Write(
			zap.String("type", string(e.Type)),
			zap.Any("payload", e.Payload),
			zap.Time("ts", e.Timestamp),
		)
	}
}
