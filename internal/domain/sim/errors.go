package sim

import "errors"

var (
	// ErrProcessNotFound is returned by TryAcquireLock for an unknown pid.
	ErrProcessNotFound = errors.New("process not found")
	// ErrChannelNotFound is returned when sending to a channel that does not exist.
	ErrChannelNotFound = errors.New("channel not found")
	// ErrInvalidChannel is returned for an unknown channel type or a negative buffer size.
	ErrInvalidChannel = errors.New("invalid channel")
	// ErrInvalidPayload is returned when a shared-memory write carries no key.
	ErrInvalidPayload = errors.New("invalid payload")
)
