package deadlock

// Graph is a directed graph over comparable node identifiers.
//
// Nodes fixes the traversal order; Edges maps a node to its successors.
// Successors that are not listed in Nodes are still visited.
type Graph[N comparable] struct {
	Nodes []N
	Edges map[N][]N
}

// tarjan holds the per-call traversal state. Nothing survives between calls.
type tarjan[N comparable] struct {
	edges   map[N][]N
	next    int
	index   map[N]int
	lowlink map[N]int
	onStack map[N]bool
	stack   []N
	out     [][]N
}

// StronglyConnected returns every strongly connected component of g using
// Tarjan's algorithm. Components are emitted in the order their roots
// complete; members appear in stack-pop order.
func StronglyConnected[N comparable](g Graph[N]) [][]N {
	t := &tarjan[N]{
		edges:   g.Edges,
		index:   make(map[N]int, len(g.Nodes)),
		lowlink: make(map[N]int, len(g.Nodes)),
		onStack: make(map[N]bool, len(g.Nodes)),
	}
	for _, v := range g.Nodes {
		if _, seen := t.index[v]; !seen {
			t.visit(v)
		}
	}
	return t.out
}

// Cycles returns the strongly connected components with more than one node.
// A lone node is never a cycle, even if it has a self edge.
func Cycles[N comparable](g Graph[N]) [][]N {
	var cycles [][]N
	for _, scc := range StronglyConnected(g) {
		if len(scc) > 1 {
			cycles = append(cycles, scc)
		}
	}
	return cycles
}

func (t *tarjan[N]) visit(v N) {
	t.index[v] = t.next
	t.lowlink[v] = t.next
	t.next++
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	for _, w := range t.edges[v] {
		if _, seen := t.index[w]; !seen {
			t.visit(w)
			t.lowlink[v] = min(t.lowlink[v], t.lowlink[w])
		} else if t.onStack[w] {
			t.lowlink[v] = min(t.lowlink[v], t.index[w])
		}
	}

	if t.lowlink[v] != t.index[v] {
		return
	}

	var comp []N
	for {
		w := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]
		t.onStack[w] = false
		comp = append(comp, w)
		if w == v {
			break
		}
	}
	t.out = append(t.out, comp)
}
