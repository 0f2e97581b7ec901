// Package sim is the IPC and deadlock simulation engine.
//
// It models three kinds of entities:
//   - Processes: pid, name, priority, state, held locks, what they wait for
//   - Channels: pipe, mq or shared; bounded FIFO buffer; lazily created locks
//   - Locks: one owner, FIFO waiter queue, hand-off on release
//
// Commands:
//   - CreateProcess / KillProcess
//   - CreateChannel
//   - AcquireLock / ForceReleaseLock
//   - SendMessage / Step
//   - BuildWaitForGraph / DetectDeadlocks
//   - Reset / Pause / Resume / State
//
// Every command runs atomically under one lock and reports each state change
// to an events.Sink before returning. Blocking is simulated: a process that
// cannot get a lock or hits a full buffer is marked blocked, and the call
// returns immediately.
//
// Example Usage:
//
//	s := sim.New(sim.WithSink(sink))
//	p1 := s.CreateProcess("writer", 1)
//	ch, _ := s.CreateChannel(sim.ChannelPipe, 1, "")
//	s.AcquireLock(p1.PID, ch.CID, "L")
//	s.Step()
package sim
