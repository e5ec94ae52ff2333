package integration_tests

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/gridflow/internal/testutil"
)

// Test for: a dependency cycle is rejected before any node runs.
func TestDocumentValidation_CycleIsRejected(t *testing.T) {
	// --- Arrange ---
	files := map[string]string{
		"flow/main.hcl": `
node "job" "a" {
  config { script = "input" }
}

node "job" "b" {
  config { script = "input" }
}

edge {
  source = "a"
  target = "b"
}

edge {
  source = "b"
  target = "a"
}
`,
	}

	// --- Act ---
	result := testutil.RunFlowTest(t, files)

	// --- Assert ---
	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "failed to build workflow graph")
	assert.Contains(t, result.Err.Error(), "cycle")
	assert.Nil(t, result.App.LastRun())
}

// Test for: duplicate node ids are rejected.
func TestDocumentValidation_DuplicateNodeIDIsRejected(t *testing.T) {
	// --- Arrange ---
	files := map[string]string{
		"flow/main.hcl": `
node "job" "a" {}

node "job" "a" {}
`,
	}

	// --- Act ---
	result := testutil.RunFlowTest(t, files)

	// --- Assert ---
	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "duplicate node id")
}

// Test for: an edge referencing an undeclared node is rejected.
func TestDocumentValidation_DanglingEdgeIsRejected(t *testing.T) {
	// --- Arrange ---
	files := map[string]string{
		"flow/main.hcl": `
node "job" "a" {}

edge {
  source = "a"
  target = "ghost"
}
`,
	}

	// --- Act ---
	result := testutil.RunFlowTest(t, files)

	// --- Assert ---
	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "ghost")
}

// Test for: an unknown preset reference fails at startup, before the run.
func TestDocumentValidation_UnknownPresetFailsStartup(t *testing.T) {
	// --- Arrange ---
	files := map[string]string{
		"flow/main.hcl": `
node "job" "calc" {
  preset = "ghost"
}
`,
	}

	// --- Act ---
	result := testutil.RunFlowTest(t, files)

	// --- Assert ---
	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "startup panic")
	assert.Contains(t, result.Err.Error(), "unknown preset")
}

// Test for: malformed HCL syntax is rejected at startup.
func TestDocumentValidation_InvalidHCLFailsStartup(t *testing.T) {
	// --- Arrange ---
	files := map[string]string{
		"flow/main.hcl": `
node "job" "a" {
  config {
`,
	}

	// --- Act ---
	result := testutil.RunFlowTest(t, files)

	// --- Assert ---
	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "startup panic")
}
