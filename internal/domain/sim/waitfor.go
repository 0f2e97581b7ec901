package sim

import (
	"github.com/GriffinCanCode/ipcsim/internal/domain/deadlock"
	"github.com/GriffinCanCode/ipcsim/internal/domain/events"
)

// Edge says From is waiting on a lock owned by To.
type Edge struct {
	From   PID    `json:"from"`
	To     PID    `json:"to"`
	Reason string `json:"reason"`
}

// WaitForGraph is derived from the current wait state on every call and is
// never cached.
type WaitForGraph struct {
	Nodes []PID  `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Adjacency converts the graph for the deadlock package.
func (g WaitForGraph) Adjacency() deadlock.Graph[PID] {
	adj := make(map[PID][]PID, len(g.Nodes))
	for _, e := range g.Edges {
		adj[e.From] = append(adj[e.From], e.To)
	}
	return deadlock.Graph[PID]{Nodes: g.Nodes, Edges: adj}
}

// ElementaryCycles lists every simple cycle in the graph, not just one per
// strongly connected component.
func (g WaitForGraph) ElementaryCycles() [][]PID {
	return deadlock.ElementaryCycles(g.Adjacency())
}

// BuildWaitForGraph derives the wait-for graph. Only lock waits produce
// edges; a process blocked on a full channel has no owner to point at, so
// buffer-only deadlocks are invisible here.
func (s *Simulator) BuildWaitForGraph() WaitForGraph {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.waitForLocked()
}

func (s *Simulator) waitForLocked() WaitForGraph {
	g := WaitForGraph{
		Nodes: make([]PID, 0, len(s.procOrder)),
		Edges: []Edge{},
	}
	for _, pid := range s.procOrder {
		g.Nodes = append(g.Nodes, pid)

		w, ok := s.processes[pid].waitingFor.(LockWait)
		if !ok {
			continue
		}
		c, ok := s.channels[w.ChannelID]
		if !ok {
			continue
		}
		l, ok := c.locks[w.LockName]
		if !ok || l.owner == "" {
			continue
		}
		g.Edges = append(g.Edges, Edge{
			From:   pid,
			To:     l.owner,
			Reason: "waiting on " + w.Lock().String(),
		})
	}
	return g
}

// DetectDeadlocks runs cycle detection on the current wait-for graph. When
// at least one cycle exists it emits a single deadlock.detected event
// listing all of them; otherwise it emits nothing.
func (s *Simulator) DetectDeadlocks() [][]PID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.detectLocked()
}

func (s *Simulator) detectLocked() [][]PID {
	cycles := deadlock.Cycles(s.waitForLocked().Adjacency())
	if len(cycles) == 0 {
		return nil
	}

	payload := events.DeadlockPayload{
		Cycles:    make([][]string, len(cycles)),
		Timestamp: s.now(),
	}
	for i, cycle := range cycles {
		payload.Cycles[i] = make([]string, len(cycle))
		for j, pid := range cycle {
			payload.Cycles[i][j] = string(pid)
		}
	}
	s.emit(events.DeadlockDetected, payload)
	return cycles
}
