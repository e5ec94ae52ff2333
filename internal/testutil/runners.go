package testutil

import (
	"context"
	"errors"

	"github.com/vk/gridflow/internal/registry"
	"github.com/vk/gridflow/internal/script"
)

// FailRunner always fails with its configured message. Registering it
// alongside the real modules lets tests drive nodes into the error status
// on demand.
type FailRunner struct {
	Message string
}

// Run implements script.Runner.
func (f *FailRunner) Run(ctx context.Context, inv *script.Invocation) (any, error) {
	return nil, errors.New(f.Message)
}

// Register binds the runner to the 'fail' sub-type.
func (f *FailRunner) Register(r *registry.Registry) {
	r.RegisterRunner("fail", f)
}
