package engine

import (
	"github.com/vk/gridflow/internal/bus"
	"github.com/vk/gridflow/internal/flowerr"
	"github.com/vk/gridflow/internal/graph"
	"github.com/vk/gridflow/internal/script"
)

// buildContext constructs the ExecutionContext for one node from
// already-available state: the node's own view, the resolved left and
// right neighbors, and the merged input payload. It is a pure computation
// and never blocks.
//
// Merge rules: no predecessor means the node is an entry point and is
// seeded from its own config; exactly one predecessor passes that output
// through verbatim; multiple predecessors (aggregation) yield a map keyed
// by predecessor id, populated in edge declaration order, never silently
// picking one.
func (e *Engine) buildContext(n *graph.Node, outputs map[string]any) (*script.Context, error) {
	preds := e.graph.Predecessors(n.ID)

	var left *script.NodeView
	var input any
	var inputs []script.Input

	switch len(preds) {
	case 0:
		input = n.Config.Seed
	case 1:
		p := preds[0]
		out, ok := outputs[p.ID]
		if !ok {
			return nil, &flowerr.NeighborResolutionError{NodeID: n.ID, Neighbor: p.ID}
		}
		left = neighborView(p)
		input = out
		inputs = []script.Input{{NodeID: p.ID, Output: out}}
	default:
		merged := make(map[string]any, len(preds))
		for _, p := range preds {
			out, ok := outputs[p.ID]
			if !ok {
				return nil, &flowerr.NeighborResolutionError{NodeID: n.ID, Neighbor: p.ID}
			}
			merged[p.ID] = out
			inputs = append(inputs, script.Input{NodeID: p.ID, Output: out})
		}
		left = neighborView(preds[0])
		input = merged
	}

	var right *script.NodeView
	if succs := e.graph.Successors(n.ID); len(succs) > 0 {
		right = neighborView(succs[0])
	}

	displayName := n.Label
	if displayName == "" {
		displayName = n.ID
	}

	sc := &script.Context{
		Node:   selfView(n),
		Left:   left,
		Right:  right,
		Input:  input,
		Inputs: inputs,
		Emit: func(typ, content string) {
			e.bus.Emit(n.ID, displayName, bus.EventType(typ), content)
		},
		Log: func(line string) {
			n.AppendLog(graph.LogLine{Text: line, Class: script.Classify(line)})
			e.bus.Emit(n.ID, displayName, bus.EventLog, line)
		},
		Report: n.Report,
	}
	return sc, nil
}

// selfView exposes the executing node's own data to its script.
func selfView(n *graph.Node) script.NodeView {
	data := map[string]any{
		"label":  n.Label,
		"preset": n.Preset,
	}
	if n.Config.Seed != nil {
		data["seed"] = n.Config.Seed
	}
	if n.Config.UI != nil {
		data["ui"] = n.Config.UI
	}
	return script.NodeView{ID: n.ID, Type: n.Type, SubType: n.SubType, Data: data}
}

// neighborView exposes identity only; scripts can introspect a neighbor
// but never reach its data or mutate it.
func neighborView(n *graph.Node) *script.NodeView {
	return &script.NodeView{ID: n.ID, Type: n.Type}
}
