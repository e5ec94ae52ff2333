// Package graph holds the immutable-per-run representation of a workflow:
// nodes, directed edges, and the neighbor index the context builder and
// the scheduler query. Topology never changes after Build; only per-node
// state does.
package graph

import (
	"github.com/vk/gridflow/internal/config"
)

// Graph is a validated workflow graph. The query surface is pure; edge
// slices are returned in document declaration order.
type Graph struct {
	nodes    map[string]*Node
	order    []string
	edges    []config.Edge
	incoming map[string][]config.Edge
	outgoing map[string][]config.Edge
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes in document declaration order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id])
	}
	return out
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.order) }

// Edges returns all edges in declaration order.
func (g *Graph) Edges() []config.Edge {
	return append([]config.Edge(nil), g.edges...)
}

// Incoming returns the edges terminating at the given node, in declaration
// order. This order fixes how aggregation inputs are merged.
func (g *Graph) Incoming(id string) []config.Edge {
	return append([]config.Edge(nil), g.incoming[id]...)
}

// Outgoing returns the edges originating at the given node, in declaration
// order.
func (g *Graph) Outgoing(id string) []config.Edge {
	return append([]config.Edge(nil), g.outgoing[id]...)
}

// Predecessors returns the nodes feeding into the given node, in edge
// declaration order.
func (g *Graph) Predecessors(id string) []*Node {
	edges := g.incoming[id]
	out := make([]*Node, 0, len(edges))
	for _, e := range edges {
		out = append(out, g.nodes[e.Source])
	}
	return out
}

// Successors returns the nodes fed by the given node, in edge declaration
// order.
func (g *Graph) Successors(id string) []*Node {
	edges := g.outgoing[id]
	out := make([]*Node, 0, len(edges))
	for _, e := range edges {
		out = append(out, g.nodes[e.Target])
	}
	return out
}

// ResetState returns every node to idle with cleared logs and counters.
// Topology is untouched, so the same graph can be run again.
func (g *Graph) ResetState() {
	for _, n := range g.nodes {
		n.ResetState()
	}
}
