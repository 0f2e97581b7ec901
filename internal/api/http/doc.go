// Package http is the REST command surface of the simulator.
//
// Every simulator command has a POST route; reads are GET routes. Replies
// are JSON objects with an "ok" flag and, on failure, an "error" string.
// Status codes:
//   - 200: the command ran (including lock waits and full buffers)
//   - 400: malformed body, unknown or invalid channel, bad shared payload,
//     rejected lock release
//   - 404: unknown process (kill, acquire) or channel (acquire)
//   - 503: event log routes while the event log is disabled
//
// Example Usage:
//
//	h := http.NewHandlers(s, http.WithEventStore(store))
//	h.Register(router)
package http
