package monitoring

import (
	"github.com/GriffinCanCode/ipcsim/internal/domain/events"
)

// EventSink turns simulation events into metrics.
type EventSink struct {
	metrics *Metrics
}

func NewEventSink(m *Metrics) *EventSink {
	return &EventSink{metrics: m}
}

// Emit implements events.Sink.
func (s *EventSink) Emit(e events.Event) {
	m := s.metrics
	m.EventsTotal.WithLabelValues(string(e.Type)).Inc()

	switch e.Type {
	case events.ProcessCreated:
		m.Processes.Inc()
	case events.ProcessKilled:
		m.Processes.Dec()
	case events.ChannelCreated:
		m.Channels.Inc()
	case events.SimReset:
		m.Processes.Set(0)
		m.Channels.Set(0)
	case events.DeadlockDetected:
		p, ok := e.Payload.(events.DeadlockPayload)
		if !ok {
			return
		}
		for _, cycle := range p.Cycles {
			m.DeadlocksTotal.Inc()
			m.CycleSize.Observe(float64(len(cycle)))
		}
	}
}
