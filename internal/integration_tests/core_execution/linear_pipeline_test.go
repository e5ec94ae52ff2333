package integration_tests

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/gridflow/internal/engine"
	"github.com/vk/gridflow/internal/testutil"
)

// Test for: a linear pipeline threads each node's output into the next
// node's input.
func TestCoreExecution_LinearPipeline(t *testing.T) {
	// --- Arrange ---
	files := map[string]string{
		"flow/main.hcl": `
node "starting" "start" {
  config {
    script = "input"
    seed   = 10
  }
}

node "job" "add" {
  config { script = "input + 1" }
}

node "job" "mul" {
  config { script = "input * 3" }
}

node "job" "fin" {
  config { script = "input + 1" }
}

edge {
  source = "start"
  target = "add"
}

edge {
  source = "add"
  target = "mul"
}

edge {
  source = "mul"
  target = "fin"
}
`,
	}

	// --- Act ---
	result := testutil.RunFlowTest(t, files)

	// --- Assert ---
	require.NoError(t, result.Err)
	run := result.App.LastRun()
	require.NotNil(t, run)
	assert.Equal(t, engine.OutcomeCompleted, run.Outcome)

	fin, ok := run.Handle.Result("fin")
	require.True(t, ok)
	assert.Equal(t, int64(34), fin.Output)

	assert.Contains(t, result.LogOutput, "🚀 Starting concurrent execution...")
	assert.Contains(t, result.LogOutput, "🏁 Execution finished.")
}

// Test for: preset defaults merge under document-level overrides.
func TestCoreExecution_PresetDefaultsApply(t *testing.T) {
	// --- Arrange ---
	files := map[string]string{
		"presets/std.hcl": `
preset "doubler" {
  label = "Doubler"
  icon  = "x2"
  config {
    script  = "input * 2"
    timeout = "3s"
  }
}
`,
		"flow/main.hcl": `
node "starting" "seed" {
  config {
    script = "input"
    seed   = 21
  }
}

node "job" "calc" {
  preset = "doubler"
}

edge {
  source = "seed"
  target = "calc"
}
`,
	}

	// --- Act ---
	result := testutil.RunFlowTest(t, files)

	// --- Assert ---
	require.NoError(t, result.Err)

	preset, ok := result.App.Presets().Get("doubler")
	require.True(t, ok)
	assert.Equal(t, "Doubler", preset.Label)

	run := result.App.LastRun()
	calc, ok := run.Handle.Result("calc")
	require.True(t, ok)
	assert.Equal(t, int64(42), calc.Output)
}
