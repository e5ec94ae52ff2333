// Package print provides a runner that prints its merged input and passes
// it through unchanged.
package print

import (
	"context"
	"fmt"
	"sort"

	"github.com/vk/gridflow/internal/ctxlog"
	"github.com/vk/gridflow/internal/registry"
	"github.com/vk/gridflow/internal/script"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Runner prints the merged input to stdout.
type Runner struct{}

// Run implements script.Runner.
func (Runner) Run(ctx context.Context, inv *script.Invocation) (any, error) {
	ctxlog.FromContext(ctx).Info("Printing input", "node_id", inv.Context.Node.ID)

	switch in := inv.Context.Input.(type) {
	case nil:
		fmt.Println("      (null)")
	case map[string]any:
		// Sort keys for consistent output
		keys := make([]string, 0, len(in))
		for k := range in {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("      %s = %v\n", k, in[k])
		}
	default:
		fmt.Printf("      %v\n", in)
	}

	return inv.Context.Input, nil
}

// Register binds the runner to the 'print' sub-type.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRunner("print", Runner{})
}
