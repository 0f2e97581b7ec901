package deadlock

import (
	"slices"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// ElementaryCycles enumerates every simple cycle of g (Johnson's algorithm,
// via gonum). Where Cycles reports which processes are deadlocked together,
// this reports each distinct circular wait inside those groups.
//
// Each cycle is rotated to start at its earliest node (by position in
// g.Nodes) and the result is ordered by length, then by node position.
// Self edges are ignored.
func ElementaryCycles[N comparable](g Graph[N]) [][]N {
	ids := make(map[N]int64, len(g.Nodes))
	var byID []N
	idOf := func(n N) int64 {
		if id, ok := ids[n]; ok {
			return id
		}
		id := int64(len(byID))
		ids[n] = id
		byID = append(byID, n)
		return id
	}

	dg := simple.NewDirectedGraph()
	for _, n := range g.Nodes {
		addNode(dg, idOf(n))
	}
	for _, from := range g.Nodes {
		for _, to := range g.Edges[from] {
			u, v := idOf(from), idOf(to)
			if u == v {
				continue
			}
			addNode(dg, v)
			dg.SetEdge(dg.NewEdge(dg.Node(u), dg.Node(v)))
		}
	}

	var raw [][]int64
	for _, cycle := range topo.DirectedCyclesIn(dg) {
		// gonum repeats the first node at the end.
		path := make([]int64, 0, len(cycle)-1)
		for _, n := range cycle[:len(cycle)-1] {
			path = append(path, n.ID())
		}
		raw = append(raw, rotateToMin(path))
	}

	slices.SortFunc(raw, func(a, b []int64) int {
		if len(a) != len(b) {
			return len(a) - len(b)
		}
		return slices.Compare(a, b)
	})

	out := make([][]N, len(raw))
	for i, path := range raw {
		out[i] = make([]N, len(path))
		for j, id := range path {
			out[i][j] = byID[id]
		}
	}
	return out
}

func addNode(g *simple.DirectedGraph, id int64) {
	if g.Node(id) == nil {
		g.AddNode(simple.Node(id))
	}
}

func rotateToMin(path []int64) []int64 {
	if len(path) == 0 {
		return path
	}
	at := 0
	for i, id := range path {
		if id < path[at] {
			at = i
		}
	}
	return append(slices.Clone(path[at:]), path[:at]...)
}
