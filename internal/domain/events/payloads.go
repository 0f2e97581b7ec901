package events

import "time"

// ProcessKilledPayload accompanies ProcessKilled.
type ProcessKilledPayload struct {
	PID string `json:"pid"`
}

// ProcessUnblockedPayload accompanies ProcessUnblocked.
type ProcessUnblockedPayload struct {
	PID       string `json:"pid"`
	ChannelID string `json:"channelId"`
}

// ChannelFullPayload accompanies ChannelFull.
type ChannelFullPayload struct {
	ChannelID string `json:"channelId"`
	From      string `json:"from"`
}

// LockPayload accompanies LockAcquired.
type LockPayload struct {
	PID       string `json:"pid"`
	ChannelID string `json:"channelId"`
	LockName  string `json:"lockName"`
}

// LockWaitingPayload accompanies LockWaiting. Owner is the holder the
// waiter now depends on.
type LockWaitingPayload struct {
	PID       string `json:"pid"`
	ChannelID string `json:"channelId"`
	LockName  string `json:"lockName"`
	Owner     string `json:"owner"`
}

// LockReleasePayload accompanies LockForceReleased and LockReleasedAndGranted.
type LockReleasePayload struct {
	PrevOwner string `json:"prevOwner"`
	NewOwner  string `json:"newOwner,omitempty"`
	ChannelID string `json:"channelId"`
	LockName  string `json:"lockName"`
}

// MessagePayload accompanies MessageEnqueued and MessageDelivered.
type MessagePayload struct {
	ChannelID string      `json:"channelId"`
	Message   MessageInfo `json:"message"`
}

// MessageInfo is the event-facing copy of a buffered message.
type MessageInfo struct {
	ID        string    `json:"id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Payload   any       `json:"payload,omitempty"`
	Timestamp time.Time `json:"ts"`
}

// SharedWritePayload accompanies SharedMemoryWrite.
type SharedWritePayload struct {
	ChannelID string `json:"channelId"`
	Key       string `json:"key"`
	Value     any    `json:"value"`
	By        string `json:"by"`
}

// DeadlockPayload accompanies DeadlockDetected. Each cycle lists the pids of
// one strongly connected component of the wait-for graph.
type DeadlockPayload struct {
	Cycles    [][]string `json:"cycles"`
	Timestamp time.Time  `json:"ts"`
}
