package script

import (
	"context"
	"fmt"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"

	"github.com/vk/gridflow/internal/flowerr"
)

// CELRunner executes node script bodies as CEL expressions. The expression
// sees exactly the declared context surface: node, left, right, input,
// inputs, plus the emit/log/report capability functions. There is no
// ambient mutable state; a fresh environment is built per invocation so
// the capability bindings close over that invocation only.
type CELRunner struct{}

// NewCELRunner returns a ready-to-use CEL runner.
func NewCELRunner() *CELRunner {
	return &CELRunner{}
}

// Run compiles and evaluates the script body. Exceeding the invocation
// timeout yields a TimeoutError; compile and evaluation failures come back
// as plain errors for the scheduler to wrap.
func (r *CELRunner) Run(ctx context.Context, inv *Invocation) (any, error) {
	env, err := r.newEnv(inv)
	if err != nil {
		return nil, fmt.Errorf("building script environment: %w", err)
	}

	ast, issues := env.Compile(inv.Script)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compiling script: %w", issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("preparing script: %w", err)
	}

	activation := map[string]any{
		"node":   viewToMap(&inv.Context.Node),
		"left":   optionalView(inv.Context.Left),
		"right":  optionalView(inv.Context.Right),
		"input":  inv.Context.Input,
		"inputs": inputsToList(inv.Context.Inputs),
	}

	evalCtx := ctx
	if inv.Timeout > 0 {
		var cancel context.CancelFunc
		evalCtx, cancel = context.WithTimeout(ctx, inv.Timeout)
		defer cancel()
	}
	// A budget that expired before evaluation even starts is a timeout,
	// not a race against the eval goroutine.
	if evalCtx.Err() != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &flowerr.TimeoutError{NodeID: inv.Context.Node.ID, Budget: inv.Timeout}
	}

	type evalResult struct {
		out ref.Val
		err error
	}
	done := make(chan evalResult, 1)
	go func() {
		out, _, err := prg.Eval(activation)
		done <- evalResult{out: out, err: err}
	}()

	select {
	case <-evalCtx.Done():
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &flowerr.TimeoutError{NodeID: inv.Context.Node.ID, Budget: inv.Timeout}
	case res := <-done:
		if res.err != nil {
			return nil, fmt.Errorf("evaluating script: %w", res.err)
		}
		return res.out.Value(), nil
	}
}

// newEnv declares the context variables and binds the capability functions
// to this invocation.
func (r *CELRunner) newEnv(inv *Invocation) (*celgo.Env, error) {
	sc := inv.Context
	return celgo.NewEnv(
		celgo.Variable("node", celgo.DynType),
		celgo.Variable("left", celgo.DynType),
		celgo.Variable("right", celgo.DynType),
		celgo.Variable("input", celgo.DynType),
		celgo.Variable("inputs", celgo.DynType),
		celgo.Function("emit",
			celgo.Overload("emit_string_string",
				[]*celgo.Type{celgo.StringType, celgo.StringType}, celgo.BoolType,
				celgo.BinaryBinding(func(typ, content ref.Val) ref.Val {
					if sc.Emit != nil {
						sc.Emit(fmt.Sprintf("%v", typ.Value()), fmt.Sprintf("%v", content.Value()))
					}
					return types.Bool(true)
				}),
			),
		),
		celgo.Function("log",
			celgo.Overload("log_string",
				[]*celgo.Type{celgo.StringType}, celgo.BoolType,
				celgo.UnaryBinding(func(line ref.Val) ref.Val {
					if sc.Log != nil {
						sc.Log(fmt.Sprintf("%v", line.Value()))
					}
					return types.Bool(true)
				}),
			),
		),
		celgo.Function("report",
			celgo.Overload("report_int_string",
				[]*celgo.Type{celgo.IntType, celgo.StringType}, celgo.BoolType,
				celgo.BinaryBinding(func(progress, task ref.Val) ref.Val {
					if sc.Report != nil {
						p, _ := progress.Value().(int64)
						sc.Report(int(p), fmt.Sprintf("%v", task.Value()))
					}
					return types.Bool(true)
				}),
			),
		),
	)
}

// viewToMap flattens a NodeView for the expression environment.
func viewToMap(v *NodeView) map[string]any {
	m := map[string]any{
		"id":       v.ID,
		"type":     v.Type,
		"sub_type": v.SubType,
	}
	if v.Data != nil {
		m["data"] = v.Data
	}
	return m
}

// optionalView maps an absent neighbor to null so scripts can branch on
// it without throwing.
func optionalView(v *NodeView) any {
	if v == nil {
		return nil
	}
	return viewToMap(v)
}

// inputsToList preserves edge declaration order for aggregation scripts.
func inputsToList(inputs []Input) []any {
	out := make([]any, 0, len(inputs))
	for _, in := range inputs {
		out = append(out, map[string]any{
			"node_id": in.NodeID,
			"output":  in.Output,
		})
	}
	return out
}
