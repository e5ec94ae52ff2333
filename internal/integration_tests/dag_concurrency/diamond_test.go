package integration_tests

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/gridflow/internal/engine"
	"github.com/vk/gridflow/internal/testutil"
)

// Test for: a diamond document fans out into one concurrent group and the
// aggregation node receives a map keyed by predecessor id.
func TestDagConcurrency_DiamondFanOutAndAggregate(t *testing.T) {
	// --- Arrange ---
	files := map[string]string{
		"flow/main.hcl": `
node "starting" "orch" {
  label = "Orchestrator"
  config {
    script = "input"
    seed   = 1
  }
}

node "job" "wa" {
  label = "Worker A"
  config { script = "input + 1" }
}

node "job" "wb" {
  label = "Worker B"
  config { script = "input * 2" }
}

node "aggregator" "agg" {
  label = "Aggregator"
  config { script = "input['wa'] + input['wb']" }
}

edge {
  source = "orch"
  target = "wa"
}

edge {
  source = "orch"
  target = "wb"
}

edge {
  source = "wa"
  target = "agg"
}

edge {
  source = "wb"
  target = "agg"
}
`,
	}

	// --- Act ---
	result := testutil.RunFlowTest(t, files)

	// --- Assert ---
	require.NoError(t, result.Err)
	run := result.App.LastRun()
	assert.Equal(t, engine.OutcomeCompleted, run.Outcome)

	agg, ok := run.Handle.Result("agg")
	require.True(t, ok)
	assert.Equal(t, map[string]any{"wa": int64(2), "wb": int64(2)}, agg.Input)
	assert.Equal(t, int64(4), agg.Output)

	// Both workers were dispatched as one group; the recorded sequence has
	// the fixed step count for this topology.
	assert.Equal(t, 19, run.Player.StepCount())

	var sawConcurrent bool
	for _, step := range run.Player.Steps() {
		if step.Label == "Worker A, Worker B running (concurrent)" {
			sawConcurrent = true
		}
	}
	assert.True(t, sawConcurrent)
}
