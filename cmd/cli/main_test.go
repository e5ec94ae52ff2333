package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithoutArgsPrintsUsage(t *testing.T) {
	var out bytes.Buffer
	err := run(&out, nil)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "GridFlow")
}

func TestRunWithHelpFlag(t *testing.T) {
	var out bytes.Buffer
	err := run(&out, []string{"--help"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Usage:")
}

func TestRunRejectsInvalidFlagValue(t *testing.T) {
	var out bytes.Buffer
	err := run(&out, []string{"--log-format", "xml", "demo.hcl"})
	require.Error(t, err)
}
