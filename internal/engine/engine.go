// Package engine implements the scheduler: it walks the graph in
// dependency order, dispatches every currently-eligible node as one
// concurrent group, drives the per-node status machine, merges
// predecessor outputs at aggregation nodes, and emits an ordered stream
// of observable transitions for playback.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/vk/gridflow/internal/bus"
	"github.com/vk/gridflow/internal/ctxlog"
	"github.com/vk/gridflow/internal/flowerr"
	"github.com/vk/gridflow/internal/graph"
	"github.com/vk/gridflow/internal/registry"
	"github.com/vk/gridflow/internal/script"
)

// DefaultSubType is the runner used for nodes that do not declare one.
const DefaultSubType = "cel"

// defaultWorkers bounds concurrent node executions when the caller does
// not configure a pool size.
const defaultWorkers = 8

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers sets the worker pool size for concurrent node executions.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithObserver registers a transition observer. Observers are invoked
// synchronously from the run loop, so they see transitions in a single
// total order.
func WithObserver(fn func(Transition)) Option {
	return func(e *Engine) {
		e.observers = append(e.observers, fn)
	}
}

// Engine schedules one validated graph over a registry of runners and an
// event bus. One Engine drives one run at a time.
type Engine struct {
	graph     *graph.Graph
	reg       *registry.Registry
	bus       *bus.Bus
	workers   int
	observers []func(Transition)
}

// New creates an Engine for the given graph. The graph must have passed
// validation in graph.Build; the bus receives every event of the run.
func New(g *graph.Graph, reg *registry.Registry, b *bus.Bus, opts ...Option) *Engine {
	e := &Engine{graph: g, reg: reg, bus: b, workers: defaultWorkers}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Bus returns the event bus of the current run.
func (e *Engine) Bus() *bus.Bus { return e.bus }

// Graph returns the graph this engine drives.
func (e *Engine) Graph() *graph.Graph { return e.graph }

// Reset returns every node to idle with cleared logs and outputs. The
// event bus is not cleared in place; callers start the next run with a
// fresh bus so the finished run's history remains inspectable.
func (e *Engine) Reset(b *bus.Bus) {
	e.graph.ResetState()
	if b != nil {
		e.bus = b
	}
}

// NodeResult records one node's input/output pair for inspection.
type NodeResult struct {
	Input  any
	Output any
	Err    error
}

// Handle tracks one run in flight.
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	outcome Outcome
	results map[string]NodeResult
}

// Cancel stops dispatch of not-yet-started nodes and requests abort of
// in-flight executions. Already-done nodes keep their output.
func (h *Handle) Cancel() { h.cancel() }

// Done is closed when the run reaches a terminal state.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Wait blocks until the run terminates and returns its outcome.
func (h *Handle) Wait() Outcome {
	<-h.done
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.outcome
}

// Result returns the recorded input/output pair of one node.
func (h *Handle) Result(nodeID string) (NodeResult, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.results[nodeID]
	return r, ok
}

func (h *Handle) setResult(nodeID string, r NodeResult) {
	h.mu.Lock()
	h.results[nodeID] = r
	h.mu.Unlock()
}

// Start launches the run loop and returns immediately. Use Handle.Wait
// for the outcome.
func (e *Engine) Start(ctx context.Context) *Handle {
	runCtx, cancel := context.WithCancel(ctx)
	h := &Handle{
		cancel:  cancel,
		done:    make(chan struct{}),
		results: make(map[string]NodeResult),
	}
	go e.run(runCtx, h)
	return h
}

// completion messages flow from node executions back into the run loop,
// which is the only goroutine that mutates scheduling state or records
// transitions.
type completion struct {
	started bool
	node    *graph.Node
	gid     int
	input   any
	output  any
	err     error
	elapsed time.Duration
}

func (e *Engine) run(ctx context.Context, h *Handle) {
	logger := ctxlog.FromContext(ctx)
	defer close(h.done)

	pool, err := ants.NewPool(e.workers)
	if err != nil {
		logger.Error("Failed to create worker pool.", "error", err)
		h.mu.Lock()
		h.outcome = OutcomeCanceled
		h.mu.Unlock()
		return
	}
	defer pool.Release()

	nodes := e.graph.Nodes()
	depCount := make(map[string]int, len(nodes))
	dispatched := make(map[string]bool, len(nodes))
	skipped := make(map[string]bool, len(nodes))
	outputs := make(map[string]any, len(nodes))
	groupPending := make(map[int]int)
	pending := len(nodes)
	groupSeq := 0
	errorsSeen := false
	canceled := false

	for _, n := range nodes {
		depCount[n.ID] = len(e.graph.Incoming(n.ID))
	}

	completionCh := make(chan completion, 2*len(nodes)+4)

	record := func(tr Transition) {
		tr.Snapshot = e.snapshot()
		for _, fn := range e.observers {
			fn(tr)
		}
	}

	// skipDependents marks the whole downstream closure of a failed node
	// as never-to-run. Skipped nodes stay idle for the rest of the run.
	var skipDependents func(n *graph.Node)
	skipDependents = func(n *graph.Node) {
		for _, dep := range e.graph.Successors(n.ID) {
			if dispatched[dep.ID] || skipped[dep.ID] {
				continue
			}
			logger.Warn("Skipping node due to upstream failure.", "node_id", dep.ID, "failed", n.ID)
			skipped[dep.ID] = true
			pending--
			skipDependents(dep)
		}
	}

	// dispatch collects every eligible node, in declaration order, and
	// hands the group to the pool as one concurrent batch.
	dispatch := func() {
		var batch []*graph.Node
		for _, n := range nodes {
			if !dispatched[n.ID] && !skipped[n.ID] && depCount[n.ID] == 0 {
				batch = append(batch, n)
			}
		}
		if len(batch) == 0 {
			return
		}

		groupSeq++
		gid := groupSeq
		groupPending[gid] = len(batch)

		ids := make([]string, 0, len(batch))
		for _, n := range batch {
			ids = append(ids, n.ID)
		}
		logger.Info("▶️ Dispatching group", "group", gid, "nodes", ids)
		record(Transition{Kind: KindGroupDispatched, NodeIDs: ids})

		for _, n := range batch {
			dispatched[n.ID] = true
			n.SetStatus(graph.StatusWaking)
			record(Transition{Kind: KindNodeWaking, NodeID: n.ID})

			sc, err := e.buildContext(n, outputs)
			if err != nil {
				// Should not occur once validation has passed; contained
				// at this node like a script failure.
				node, fail := n, err
				go func() {
					completionCh <- completion{node: node, gid: gid, err: fail}
				}()
				continue
			}

			node := n
			task := func() {
				completionCh <- completion{started: true, node: node, gid: gid}
				start := time.Now()
				out, runErr := e.invoke(ctx, node, sc)
				completionCh <- completion{
					node:    node,
					gid:     gid,
					input:   sc.Input,
					output:  out,
					err:     runErr,
					elapsed: time.Since(start),
				}
			}
			if err := pool.Submit(task); err != nil {
				node := n
				go func() {
					completionCh <- completion{node: node, gid: gid, err: fmt.Errorf("submitting node execution: %w", err)}
				}()
			}
		}
	}

	logger.Info("🚀 Starting run.", "nodes", len(nodes), "workers", e.workers)
	record(Transition{Kind: KindRunStarted})
	dispatch()

	ctxDone := ctx.Done()
	for pending > 0 {
		select {
		case <-ctxDone:
			ctxDone = nil
			canceled = true
			logger.Warn("Run canceled, stopping dispatch.")
			for _, n := range nodes {
				if !dispatched[n.ID] && !skipped[n.ID] {
					skipped[n.ID] = true
					pending--
				}
			}

		case c := <-completionCh:
			if c.started {
				c.node.SetStatus(graph.StatusRunning)
				record(Transition{Kind: KindNodeRunning, NodeID: c.node.ID})
				continue
			}

			c.node.SetExecTime(c.elapsed)
			if c.err != nil {
				logger.Error("Node execution failed.", "node_id", c.node.ID, "error", c.err)
				c.node.SetStatus(graph.StatusError)
				if !errors.Is(c.err, context.Canceled) {
					errorsSeen = true
					name := c.node.Label
					if name == "" {
						name = c.node.ID
					}
					e.bus.Emit(c.node.ID, name, bus.EventError, c.err.Error())
				}
				h.setResult(c.node.ID, NodeResult{Input: c.input, Err: c.err})
				record(Transition{Kind: KindNodeError, NodeID: c.node.ID, Err: c.err})
				skipDependents(c.node)
			} else {
				logger.Info("✅ Node finished.", "node_id", c.node.ID)
				c.node.SetStatus(graph.StatusDone)
				outputs[c.node.ID] = c.output
				h.setResult(c.node.ID, NodeResult{Input: c.input, Output: c.output})
				record(Transition{Kind: KindNodeDone, NodeID: c.node.ID})
				for _, dep := range e.graph.Successors(c.node.ID) {
					depCount[dep.ID]--
				}
			}
			pending--

			groupPending[c.gid]--
			if groupPending[c.gid] == 0 {
				if pending == 0 {
					outcome := terminalOutcome(canceled, errorsSeen)
					record(Transition{Kind: KindRunCompleted, Outcome: outcome})
				} else {
					record(Transition{Kind: KindGroupCompleted})
				}
			}

			if !canceled {
				dispatch()
			}
		}
	}

	outcome := terminalOutcome(canceled, errorsSeen)
	h.mu.Lock()
	h.outcome = outcome
	h.mu.Unlock()
	logger.Info("🏁 Run finished.", "outcome", outcome)
}

func terminalOutcome(canceled, errorsSeen bool) Outcome {
	switch {
	case canceled:
		return OutcomeCanceled
	case errorsSeen:
		return OutcomeCompletedWithErrors
	default:
		return OutcomeCompleted
	}
}

// invoke resolves the node's runner and executes it, honoring the retry
// budget. Timeouts keep their own error type; everything else surfaces as
// a ScriptError.
func (e *Engine) invoke(ctx context.Context, n *graph.Node, sc *script.Context) (any, error) {
	subType := n.SubType
	if subType == "" {
		subType = DefaultSubType
	}
	runner, ok := e.reg.Runner(subType)
	if !ok {
		return nil, &flowerr.ScriptError{NodeID: n.ID, Err: fmt.Errorf("unknown runner sub-type '%s'", subType)}
	}

	inv := &script.Invocation{
		Context: sc,
		Script:  n.Config.Script,
		Sandbox: n.Config.Sandbox,
		Timeout: n.Config.Timeout,
	}

	var out any
	var err error
	for attempt := 0; attempt <= n.Config.Retries; attempt++ {
		n.AddCall()
		out, err = runner.Run(ctx, inv)
		if err == nil || ctx.Err() != nil {
			break
		}
	}
	if err == nil {
		return out, nil
	}

	var timeout *flowerr.TimeoutError
	var scriptErr *flowerr.ScriptError
	if errors.As(err, &timeout) || errors.As(err, &scriptErr) || errors.Is(err, context.Canceled) {
		return nil, err
	}
	return nil, &flowerr.ScriptError{NodeID: n.ID, Err: err}
}

// snapshot captures per-node statuses and the event history at one
// transition point.
func (e *Engine) snapshot() Snapshot {
	statuses := make(map[string]graph.Status, e.graph.Len())
	for _, n := range e.graph.Nodes() {
		statuses[n.ID] = n.Status()
	}
	return Snapshot{Statuses: statuses, Events: e.bus.History()}
}
