// Package flowerr defines the error taxonomy of the workflow engine.
//
// ValidationError is fatal: a run never starts on a malformed document.
// ScriptError and TimeoutError are contained at node granularity: the node
// ends in the error status, its dependents are skipped, and unrelated
// branches keep running. NeighborResolutionError should not occur once
// validation has passed; the scheduler treats it like a ScriptError.
package flowerr

import (
	"fmt"
	"time"
)

// ValidationError reports a malformed workflow document: a duplicate node
// id, a dangling edge endpoint, or a dependency cycle.
type ValidationError struct {
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return "invalid workflow document: " + e.Reason
}

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// ScriptError reports that a node's script raised during execution.
type ScriptError struct {
	NodeID string
	Err    error
}

// Error implements the error interface.
func (e *ScriptError) Error() string {
	return fmt.Sprintf("script error in node '%s': %v", e.NodeID, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *ScriptError) Unwrap() error { return e.Err }

// TimeoutError reports that a node exceeded its execution budget. It is
// propagated exactly like a ScriptError and differs only in diagnostics.
type TimeoutError struct {
	NodeID string
	Budget time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("node '%s' timed out after %s", e.NodeID, e.Budget)
}

// NeighborResolutionError reports that the context builder was asked for a
// neighbor the graph cannot supply.
type NeighborResolutionError struct {
	NodeID   string
	Neighbor string
}

// Error implements the error interface.
func (e *NeighborResolutionError) Error() string {
	return fmt.Sprintf("node '%s' references unresolvable neighbor '%s'", e.NodeID, e.Neighbor)
}
