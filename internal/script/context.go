// Package script is the restricted execution boundary a node's behavior
// runs inside. A runner receives a structured Context and returns a
// structured output value; every capability (emit, log, progress report,
// neighbor views) is passed in explicitly, never closed over ambient
// state.
package script

import (
	"context"
	"time"
)

// NodeView is the read-only view of a node handed to scripts. Neighbor
// views carry identity only; Data is populated for the executing node
// itself.
type NodeView struct {
	ID      string
	Type    string
	SubType string
	Data    map[string]any
}

// Input is one predecessor's contribution to an aggregation node's merged
// input, keyed by the predecessor id.
type Input struct {
	NodeID string
	Output any
}

// Context is the capability surface of one node execution. It is built
// immediately before the script runs and discarded after.
type Context struct {
	Node  NodeView
	Left  *NodeView
	Right *NodeView

	// Input is the merged input payload: the entry node's seed, a single
	// predecessor's output verbatim, or (for aggregation nodes) a map of
	// predecessor id to output.
	Input any
	// Inputs lists predecessor outputs in edge declaration order.
	Inputs []Input

	Emit   func(typ, content string)
	Log    func(line string)
	Report func(progress int, task string)
}

// Invocation bundles everything a runner needs for one execution.
type Invocation struct {
	Context *Context
	Script  string
	Sandbox bool
	Timeout time.Duration
}

// Runner executes one node's behavior. Implementations must respect the
// invocation timeout and the context's cancellation signal.
type Runner interface {
	Run(ctx context.Context, inv *Invocation) (any, error)
}
