package engine

import (
	"github.com/vk/gridflow/internal/bus"
	"github.com/vk/gridflow/internal/graph"
)

// Outcome is the terminal state of a run as observed by callers.
type Outcome string

// Run outcomes. A run that hits node errors still terminates; only
// cancellation short-circuits dispatch.
const (
	OutcomeCompleted           Outcome = "completed"
	OutcomeCompletedWithErrors Outcome = "completed-with-errors"
	OutcomeCanceled            Outcome = "canceled"
)

// Kind identifies one observable transition the scheduler emits.
type Kind string

// Transition kinds, in the vocabulary the step player consumes.
const (
	KindRunStarted      Kind = "run-started"
	KindGroupDispatched Kind = "group-dispatched"
	KindNodeWaking      Kind = "node-waking"
	KindNodeRunning     Kind = "node-running"
	KindNodeDone        Kind = "node-done"
	KindNodeError       Kind = "node-error"
	KindGroupCompleted  Kind = "group-completed"
	KindRunCompleted    Kind = "run-completed"
)

// Snapshot captures the engine state at one transition: every node's
// status plus all events emitted up to that point.
type Snapshot struct {
	Statuses map[string]graph.Status
	Events   []bus.FlowEvent
}

// Transition is one observable scheduler state change. Observers receive
// transitions serialized in run-loop order.
type Transition struct {
	Kind     Kind
	NodeID   string
	NodeIDs  []string
	Err      error
	Outcome  Outcome
	Snapshot Snapshot
}
