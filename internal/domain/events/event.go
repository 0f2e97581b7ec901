package events

import "time"

// Type names a simulation event.
type Type string

// Event types emitted by the simulator
const (
	ProcessCreated         Type = "process.created"
	ProcessKilled          Type = "process.killed"
	ProcessUnblocked       Type = "process.unblocked"
	ChannelCreated         Type = "channel.created"
	ChannelFull            Type = "channel.full"
	LockAcquired           Type = "lock.acquired"
	LockWaiting            Type = "lock.waiting"
	LockForceReleased      Type = "lock.force_released"
	LockReleasedAndGranted Type = "lock.force_released_and_granted"
	MessageEnqueued        Type = "message.enqueued"
	MessageDelivered       Type = "message.delivered"
	SharedMemoryWrite      Type = "shm.write"
	DeadlockDetected       Type = "deadlock.detected"
	SimReset               Type = "sim.reset"
	SimPaused              Type = "sim.paused"
	SimResumed             Type = "sim.resumed"
)

// Event is a single structured record of a state change.
//
// Payload is one of the payload structs in payloads.go (or nil). Events are
// immutable once emitted; sinks must not modify them.
type Event struct {
	Type      Type      `json:"type"`
	Payload   any       `json:"payload,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// New creates an event stamped with the given time.
func New(t Type, payload any, ts time.Time) Event {
	return Event{Type: t, Payload: payload, Timestamp: ts}
}
