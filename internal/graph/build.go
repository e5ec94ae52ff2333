package graph

import (
	"context"

	"github.com/vk/gridflow/internal/config"
	"github.com/vk/gridflow/internal/ctxlog"
	"github.com/vk/gridflow/internal/flowerr"
)

// Build constructs a validated graph from a loaded model. It fails with a
// ValidationError on duplicate node ids, dangling edge endpoints,
// self-referential edges, dependency cycles, or an aggregation node fed by
// an unreachable predecessor. A run never starts on an invalid graph.
func Build(ctx context.Context, model *config.Model) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build: starting graph construction.", "nodes", len(model.Nodes), "edges", len(model.Edges))

	g := &Graph{
		nodes:    make(map[string]*Node, len(model.Nodes)),
		incoming: make(map[string][]config.Edge),
		outgoing: make(map[string][]config.Edge),
	}

	for _, spec := range model.Nodes {
		if spec.ID == "" {
			return nil, flowerr.Validationf("node with empty id")
		}
		if _, exists := g.nodes[spec.ID]; exists {
			return nil, flowerr.Validationf("duplicate node id '%s'", spec.ID)
		}
		g.nodes[spec.ID] = &Node{
			ID:      spec.ID,
			Type:    spec.Type,
			SubType: spec.SubType,
			Preset:  spec.Preset,
			Label:   spec.Label,
			Config:  spec.Config,
			state:   State{Status: StatusIdle},
		}
		g.order = append(g.order, spec.ID)
	}

	for _, e := range model.Edges {
		if e.Source == e.Target {
			return nil, flowerr.Validationf("self-referential edge on '%s'", e.Source)
		}
		if _, ok := g.nodes[e.Source]; !ok {
			return nil, flowerr.Validationf("edge source '%s' does not resolve to a node", e.Source)
		}
		if _, ok := g.nodes[e.Target]; !ok {
			return nil, flowerr.Validationf("edge target '%s' does not resolve to a node", e.Target)
		}
		g.edges = append(g.edges, e)
		g.outgoing[e.Source] = append(g.outgoing[e.Source], e)
		g.incoming[e.Target] = append(g.incoming[e.Target], e)
	}

	if err := g.detectCycles(); err != nil {
		return nil, err
	}
	if err := g.checkAggregationReachability(); err != nil {
		return nil, err
	}

	logger.Debug("Build: graph construction successful.")
	return g, nil
}

// detectCycles runs a depth-first search over successor links with the
// classic three-color marking. Any back edge means the document has no
// topological order and the run must never start.
func (g *Graph) detectCycles() error {
	permanent := make(map[string]bool)
	temporary := make(map[string]bool)

	var visit func(id string) error
	visit = func(id string) error {
		if permanent[id] {
			return nil
		}
		if temporary[id] {
			return flowerr.Validationf("cycle detected involving node '%s'", id)
		}
		temporary[id] = true
		for _, e := range g.outgoing[id] {
			if err := visit(e.Target); err != nil {
				return err
			}
		}
		delete(temporary, id)
		permanent[id] = true
		return nil
	}

	for _, id := range g.order {
		if !permanent[id] {
			if err := visit(id); err != nil {
				return err
			}
		}
	}
	return nil
}

// checkAggregationReachability verifies that every predecessor of an
// aggregation node (in-degree > 1) is reachable from an entry point.
// Starting-type nodes are the preferred roots; documents without one fall
// back to all zero-in-degree nodes.
func (g *Graph) checkAggregationReachability() error {
	var roots []string
	for _, id := range g.order {
		if g.nodes[id].Type == TypeStarting {
			roots = append(roots, id)
		}
	}
	if len(roots) == 0 {
		for _, id := range g.order {
			if len(g.incoming[id]) == 0 {
				roots = append(roots, id)
			}
		}
	}

	reachable := make(map[string]bool)
	queue := append([]string(nil), roots...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if reachable[id] {
			continue
		}
		reachable[id] = true
		for _, e := range g.outgoing[id] {
			queue = append(queue, e.Target)
		}
	}

	for _, id := range g.order {
		if len(g.incoming[id]) < 2 {
			continue
		}
		for _, e := range g.incoming[id] {
			if !reachable[e.Source] {
				return flowerr.Validationf(
					"aggregation node '%s' depends on unreachable node '%s'", id, e.Source)
			}
		}
	}
	return nil
}
