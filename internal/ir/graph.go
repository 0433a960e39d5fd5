package ir

import "fmt"

// Kind classifies a declaration node.
type Kind int

const (
	KindOther Kind = iota
	KindMacro
	KindFunction
	KindVariadicFunction
)

func (k Kind) String() string {
	switch k {
	case KindMacro:
		return "macro"
	case KindFunction:
		return "function"
	case KindVariadicFunction:
		return "variadic_function"
	default:
		return "other"
	}
}

// State is the emission state of a node.
type State int

const (
	// StateActive nodes contribute to the emitted output.
	StateActive State = iota
	// StateSkip nodes were replaced by an inert skip marker (shadowing, out of target).
	StateSkip
	// StateEmpty nodes had their binding expression cleared (redundant alias).
	StateEmpty
)

func (s State) String() string {
	switch s {
	case StateSkip:
		return "skip"
	case StateEmpty:
		return "empty"
	default:
		return "active"
	}
}

// Node is one declaration in a module's declaration graph.
type Node struct {
	ID         string `json:"id"`
	Kind       Kind   `json:"kind"`
	SourcePath string `json:"source_path"`
	Line       int    `json:"line,omitempty"`
	State      State  `json:"state"`
	Expr       Expr   `json:"-"`
}

// Inert reports whether the node no longer contributes to output.
func (n Node) Inert() bool {
	return n.State != StateActive
}

// IsFunction reports whether the node is a non-variadic function declaration.
func (n Node) IsFunction() bool {
	return n.Kind == KindFunction
}

// Graph is an ordered arena of declaration nodes for one module.
//
// Nodes are addressed by stable index and never removed. Passes change a
// node through Prune and Replace only.
type Graph struct {
	nodes []Node
}

// NewGraph creates a graph holding the given nodes in order.
func NewGraph(nodes ...Node) *Graph {
	g := &Graph{nodes: make([]Node, 0, len(nodes))}
	for _, n := range nodes {
		g.Add(n)
	}
	return g
}

// Add appends a node and returns its index.
func (g *Graph) Add(n Node) int {
	g.nodes = append(g.nodes, n)
	return len(g.nodes) - 1
}

// Len returns the number of nodes, inert ones included.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Node returns a copy of the node at index i.
func (g *Graph) Node(i int) Node {
	return g.nodes[i]
}

// Nodes returns a copy of all nodes in order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Prune moves node i into an inert state and clears its expression.
// Returns false if the node was already inert or state is StateActive:
// an inert node is never reactivated and keeps its first inert state.
func (g *Graph) Prune(i int, state State) bool {
	if state == StateActive || g.nodes[i].Inert() {
		return false
	}
	g.nodes[i].State = state
	g.nodes[i].Expr = nil
	return true
}

// Replace installs a rebuilt expression on an active node.
// Returns false, leaving the node untouched, if the node is inert.
func (g *Graph) Replace(i int, e Expr) bool {
	if g.nodes[i].Inert() {
		return false
	}
	g.nodes[i].Expr = e
	return true
}

// Index maps each identifier to the indices of the nodes carrying it,
// in graph order. Built once per pass.
func (g *Graph) Index() map[string][]int {
	idx := make(map[string][]int, len(g.nodes))
	for i, n := range g.nodes {
		idx[n.ID] = append(idx[n.ID], i)
	}
	return idx
}

// Count returns the number of nodes in the given state.
func (g *Graph) Count(state State) int {
	n := 0
	for _, node := range g.nodes {
		if node.State == state {
			n++
		}
	}
	return n
}

// Lookup returns the index of the first node with the given id and kind.
func (g *Graph) Lookup(id string, kind Kind) (int, bool) {
	for i, n := range g.nodes {
		if n.ID == id && n.Kind == kind {
			return i, true
		}
	}
	return -1, false
}

// String renders a short summary, used in logs.
func (g *Graph) String() string {
	return fmt.Sprintf("graph(%d nodes, %d active)", len(g.nodes), g.Count(StateActive))
}
