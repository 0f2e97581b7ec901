// Package deadlock finds circular waits in a wait-for graph.
//
// StronglyConnected runs Tarjan's algorithm: each node receives a discovery
// index and a low-link value, and a component is popped off the traversal
// stack whenever a node's low-link equals its own index. Any component with
// more than one node is a deadlock cycle.
//
// The package keeps no state between calls. Graphs in this domain are bounded
// by the number of live processes, so recomputing from scratch is cheap.
package deadlock
