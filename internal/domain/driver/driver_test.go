package driver

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/ipcsim/internal/domain/events"
	"github.com/GriffinCanCode/ipcsim/internal/domain/sim"
)

type countingStepper struct {
	steps  atomic.Int64
	paused atomic.Bool
}

func (c *countingStepper) Step() [][]sim.PID {
	c.steps.Add(1)
	return nil
}

func (c *countingStepper) Paused() bool { return c.paused.Load() }

func TestTickHonorsPause(t *testing.T) {
	target := &countingStepper{}
	d := New(target, time.Second)

	assert.True(t, d.tick())
	target.paused.Store(true)
	assert.False(t, d.tick())
	target.paused.Store(false)
	assert.True(t, d.tick())

	assert.Equal(t, int64(2), target.steps.Load())
}

func TestRunStopsOnCancel(t *testing.T) {
	target := &countingStepper{}
	var observed atomic.Int64
	d := New(target, time.Millisecond, OnStep(func([][]sim.PID) { observed.Add(1) }))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	assert.Eventually(t, func() bool { return target.steps.Load() >= 3 }, 2*time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("driver did not stop")
	}
	assert.Equal(t, target.steps.Load(), observed.Load())
}

func TestRunWithoutIntervalReturns(t *testing.T) {
	d := New(&countingStepper{}, 0)
	assert.NoError(t, d.Run(context.Background()))
}

func TestDriverDeliversMessages(t *testing.T) {
	rec := events.NewRecorder()
	s := sim.New(sim.WithSink(rec))
	p1 := s.CreateProcess("a", 1)
	p2 := s.CreateProcess("b", 1)
	ch, err := s.CreateChannel(sim.ChannelPipe, 2, "")
	require.NoError(t, err)
	require.NoError(t, s.SendMessage(p1.PID, p2.PID, ch.CID, "x"))

	d := New(s, time.Hour)
	s.Pause()
	d.tick()
	assert.Empty(t, rec.OfType(events.MessageDelivered))

	s.Resume()
	d.tick()
	assert.Len(t, rec.OfType(events.MessageDelivered), 1)
}
