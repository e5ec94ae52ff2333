package graph

import (
	"sync"
	"time"

	"github.com/vk/gridflow/internal/config"
)

// Status is the finite per-node execution status.
type Status string

// Node status values. Transitions only move idle -> waking -> running ->
// done|error during a run; reset returns every node to idle.
const (
	StatusIdle    Status = "idle"
	StatusWaking  Status = "waking"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// Coarse node kinds. The engine only gives special meaning to starting
// nodes (reachability roots); aggregation semantics follow in-degree, not
// the declared kind.
const (
	TypeStarting   = "starting"
	TypeJob        = "job"
	TypeGroup      = "group"
	TypeSubflow    = "subflow"
	TypeAggregator = "aggregator"
)

// LogLine is one captured line of script output, tagged with the semantic
// class derived from its leading marker.
type LogLine struct {
	Text  string
	Class string
}

// State is the mutable execution state of a node. Logs are append-only
// during a run; Progress is monotonically non-decreasing within one
// execution unless the run is reset.
type State struct {
	Status      Status
	CurrentTask string
	Thought     string
	Progress    int
	ExecTime    time.Duration
	CallsCount  int
	Logs        []LogLine
}

// Node is one identified execution unit of the graph. The scheduler is the
// single writer of its state; the mutex exists because progress reports
// arrive from the node's own in-flight execution.
type Node struct {
	ID      string
	Type    string
	SubType string
	Preset  string
	Label   string
	Config  config.NodeConfig

	mu    sync.Mutex
	state State
}

// State returns a copy of the node's current state.
func (n *Node) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	st := n.state
	st.Logs = append([]LogLine(nil), n.state.Logs...)
	return st
}

// Status returns the node's current status.
func (n *Node) Status() Status {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state.Status
}

// SetStatus records a status transition.
func (n *Node) SetStatus(s Status) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.state.Status = s
}

// Report updates progress and the current task from the node's own
// reported values. Progress never moves backwards within one execution.
func (n *Node) Report(progress int, task string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if progress > n.state.Progress {
		n.state.Progress = progress
	}
	if task != "" {
		n.state.CurrentTask = task
	}
}

// AppendLog appends one classified output line.
func (n *Node) AppendLog(line LogLine) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.state.Logs = append(n.state.Logs, line)
}

// AddCall counts one sandbox invocation (retries included).
func (n *Node) AddCall() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.state.CallsCount++
}

// SetExecTime records the elapsed execution duration.
func (n *Node) SetExecTime(d time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.state.ExecTime = d
}

// ResetState returns the node to its pristine idle state, clearing logs,
// progress and counters.
func (n *Node) ResetState() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.state = State{Status: StatusIdle}
}
