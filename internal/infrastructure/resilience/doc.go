/*
Package resilience provides a circuit breaker and retry with backoff.

# Overview

This package protects the event log from a failing SQLite file. A Breaker
stops calling a dependency after repeated failures and probes it again after
a timeout. Retry re-runs an operation with exponential backoff and jitter
while its error looks transient.

# Usage

	breaker := resilience.New("eventlog", resilience.Settings{
		Timeout: 5 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	err := breaker.Do(func() error {
		return resilience.Retry(ctx, resilience.DefaultBackoff, isBusy, write)
	})

# States

- Closed: Normal operation, requests pass through
- Open: Service unavailable, requests fail immediately
- Half-Open: Testing if service recovered, limited requests allowed

# Pattern

The circuit breaker transitions between states based on success/failure rates:

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                    [failure]
	                                           |
	                                           v
	                                         Open
*/
package resilience
