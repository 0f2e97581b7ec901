// Package ws streams the simulation to WebSocket clients.
//
// Message Types (Server → Client):
//   - snapshot: {"kind":"snapshot","state":...} once, right after connecting
//   - event: {"kind":"event","event":{"type","payload","timestamp"}} for
//     every simulation event
//
// Message Types (Client → Server):
//   - control: {"kind":"control","action":"pause"|"resume"|"step"}
//
// Anything else a client sends is ignored. A client that falls more than a
// queue's worth of frames behind is disconnected.
//
// Example Usage:
//
//	hub := ws.NewHub(s, logger, metrics)
//	fanout.Add(hub)
//	router.GET("/ws", hub.HandleConnection)
package ws
