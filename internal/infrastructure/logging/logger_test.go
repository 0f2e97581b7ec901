package logging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/GriffinCanCode/ipcsim/internal/domain/events"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestNewBuildsBothEncodings(t *testing.T) {
	for _, dev := range []bool{false, true} {
		logger, err := New(Config{Level: "warn", Development: dev, OutputPaths: []string{"stderr"}})
		require.NoError(t, err)
		assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
		assert.True(t, logger.Core().Enabled(zapcore.ErrorLevel))
		assert.NoError(t, logger.Close())
	}
}

func TestEventSinkLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	sink := NewEventSink(&Logger{Logger: zap.New(core)})
	ts := time.Unix(0, 0)

	sink.Emit(events.New(events.ProcessCreated, nil, ts))
	sink.Emit(events.New(events.DeadlockDetected, events.DeadlockPayload{Cycles: [][]string{{"P1", "P2"}}}, ts))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "sim", entries[0].LoggerName)
	assert.Equal(t, "process.created", entries[0].ContextMap()["type"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
}

func TestEventSinkRespectsLevel(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	sink := NewEventSink(&Logger{Logger: zap.New(core)})

	sink.Emit(events.New(events.MessageEnqueued, nil, time.Now()))

	assert.Zero(t, logs.Len())
}
