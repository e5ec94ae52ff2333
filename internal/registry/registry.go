// Package registry holds the runner registry (node sub-type to script
// runner) and a generic keyed container used for preset lookup.
package registry

import (
	"fmt"
	"log/slog"

	"github.com/vk/gridflow/internal/script"
)

// Module is the interface all runner modules implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Registry maps node sub-types to their runners for a single application
// instance. Registration happens at startup; lookups during a run are
// read-only.
type Registry struct {
	runners map[string]script.Runner
	order   []string
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{runners: make(map[string]script.Runner)}
}

// RegisterRunner binds a runner to a node sub-type. Registering the same
// sub-type twice is a programmer error and panics.
func (r *Registry) RegisterRunner(subType string, runner script.Runner) {
	if _, exists := r.runners[subType]; exists {
		panic(fmt.Sprintf("runner for sub-type '%s' already registered", subType))
	}
	slog.Debug("Registering runner.", "sub_type", subType)
	r.runners[subType] = runner
	r.order = append(r.order, subType)
}

// Runner returns the runner bound to the given sub-type.
func (r *Registry) Runner(subType string) (script.Runner, bool) {
	runner, ok := r.runners[subType]
	return runner, ok
}

// SubTypes returns the registered sub-types in registration order.
func (r *Registry) SubTypes() []string {
	return append([]string(nil), r.order...)
}
