package integration_tests

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/gridflow/internal/bus"
	"github.com/vk/gridflow/internal/engine"
	"github.com/vk/gridflow/internal/graph"
	"github.com/vk/gridflow/internal/testutil"
	"github.com/vk/gridflow/modules/cel"
)

// Test for: a failing node is contained; its dependents are skipped, the
// sibling branch completes, and the run still terminates.
func TestErrorHandling_FailedNodeSkipsDependents(t *testing.T) {
	// --- Arrange ---
	files := map[string]string{
		"flow/main.hcl": `
node "starting" "s" {
  config {
    script = "input"
    seed   = 1
  }
}

node "job" "bad" {
  sub_type = "fail"
}

node "job" "down" {
  config { script = "input" }
}

node "job" "ok" {
  config { script = "input + 1" }
}

edge {
  source = "s"
  target = "bad"
}

edge {
  source = "bad"
  target = "down"
}

edge {
  source = "s"
  target = "ok"
}
`,
	}

	// --- Act ---
	result := testutil.RunFlowTest(t, files,
		&cel.Module{}, &testutil.FailRunner{Message: "boom"})

	// --- Assert ---
	// A node-level failure never fails the run itself.
	require.NoError(t, result.Err)
	run := result.App.LastRun()
	assert.Equal(t, engine.OutcomeCompletedWithErrors, run.Outcome)

	statuses := map[string]graph.Status{}
	for _, n := range run.Graph.Nodes() {
		statuses[n.ID] = n.Status()
	}
	assert.Equal(t, graph.StatusError, statuses["bad"])
	assert.Equal(t, graph.StatusIdle, statuses["down"])
	assert.Equal(t, graph.StatusDone, statuses["ok"])

	var errorEvents int
	for _, evt := range run.Bus.History() {
		if evt.Type == bus.EventError {
			errorEvents++
		}
	}
	assert.Equal(t, 1, errorEvents)
	assert.Contains(t, result.LogOutput, "Node execution failed.")
	assert.Contains(t, result.LogOutput, "Skipping node due to upstream failure.")
}

// Test for: a script compile error is contained exactly like a runtime
// failure.
func TestErrorHandling_ScriptCompileErrorIsContained(t *testing.T) {
	// --- Arrange ---
	files := map[string]string{
		"flow/main.hcl": `
node "starting" "broken" {
  config {
    script = "input +"
    seed   = 1
  }
}
`,
	}

	// --- Act ---
	result := testutil.RunFlowTest(t, files)

	// --- Assert ---
	require.NoError(t, result.Err)
	run := result.App.LastRun()
	assert.Equal(t, engine.OutcomeCompletedWithErrors, run.Outcome)

	broken, ok := run.Handle.Result("broken")
	require.True(t, ok)
	require.Error(t, broken.Err)
	assert.Contains(t, broken.Err.Error(), "compiling script")
}
