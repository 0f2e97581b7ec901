// Package eventlog keeps the simulation event history in SQLite
// (modernc.org/sqlite, no cgo).
//
// Store is the table itself: Append, Recent (newest first), Iterate
// (oldest first), Count, Clear and a gzip NDJSON Export. AsyncSink plugs the
// store into the simulator as an events.Sink without ever blocking a
// command: events are queued, written by one goroutine, and dropped when the
// queue is full.
//
// Example Usage:
//
//	store, err := eventlog.Open("events.sqlite3")
//	sink := eventlog.NewAsyncSink(store, 1024)
//	defer sink.Close()
//	s := sim.New(sim.WithSink(sink))
package eventlog
