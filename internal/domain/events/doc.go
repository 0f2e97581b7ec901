// Package events defines the simulation event stream.
//
// Every state change in the simulator produces one or more Events delivered
// synchronously to a single Sink. Persistence, metrics and broadcast to
// observers all live behind that interface.
//
// Sinks:
//   - Fanout: delivers to several sinks in order
//   - Recorder: in-memory capture for tests and the CLI
//   - SinkFunc: adapter for plain functions
//
// Example Usage:
//
//	rec := events.NewRecorder()
//	sink := events.NewFanout(rec, logging.NewEventSink(logger))
//	simulator := sim.New(sim.WithSink(sink))
package events
