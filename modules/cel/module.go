// Package cel registers the CEL script runner, the default execution
// flavor for script-bodied nodes.
package cel

import (
	"github.com/vk/gridflow/internal/registry"
	"github.com/vk/gridflow/internal/script"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register binds the CEL runner to the 'cel' and 'script' sub-types.
func (m *Module) Register(r *registry.Registry) {
	runner := script.NewCELRunner()
	r.RegisterRunner("cel", runner)
	r.RegisterRunner("script", runner)
}
