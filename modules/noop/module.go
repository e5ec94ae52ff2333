// Package noop provides a passthrough runner: the node's output is its
// merged input, untouched. Useful for grouping nodes and for tests.
package noop

import (
	"context"

	"github.com/vk/gridflow/internal/registry"
	"github.com/vk/gridflow/internal/script"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Runner passes the merged input through.
type Runner struct{}

// Run implements script.Runner.
func (Runner) Run(ctx context.Context, inv *script.Invocation) (any, error) {
	return inv.Context.Input, nil
}

// Register binds the runner to the 'noop' sub-type.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRunner("noop", Runner{})
}
