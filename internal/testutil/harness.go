// Package testutil provides the shared harness for end-to-end tests: it
// writes workflow and preset fixtures to a temp dir, runs the app against
// them, and captures the log output.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/gridflow/internal/app"
	"github.com/vk/gridflow/internal/config"
	"github.com/vk/gridflow/internal/registry"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcomes of an end-to-end test run.
type HarnessResult struct {
	LogOutput string
	Err       error
	App       *app.App
}

// RunFlowTest provides a standardized harness for running end-to-end
// tests using a default background context and the core runner modules.
func RunFlowTest(t *testing.T, files map[string]string, modules ...registry.Module) *HarnessResult {
	t.Helper()
	return RunFlowTestWithContext(context.Background(), t, files, modules...)
}

// RunFlowTestWithContext runs the app against the given fixture files.
// Keys are paths relative to the temp root; files under "flow/" form the
// workflow document, files under "presets/" the preset manifests.
func RunFlowTestWithContext(ctx context.Context, t *testing.T, files map[string]string, modules ...registry.Module) *HarnessResult {
	t.Helper()

	tmpDir := t.TempDir()
	flowDir := filepath.Join(tmpDir, "flow")
	presetsDir := filepath.Join(tmpDir, "presets")
	require.NoError(t, os.Mkdir(flowDir, 0755))
	require.NoError(t, os.Mkdir(presetsDir, 0755))

	for name, content := range files {
		filePath := filepath.Join(tmpDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0644))
	}

	appConfig := &app.Config{
		FlowPath:    flowDir,
		PresetsPath: presetsDir,
		LogLevel:    "debug",
		LogFormat:   "text",
		WorkerCount: 4,
	}

	logBuffer := &SafeBuffer{}
	result := &HarnessResult{}

	func() {
		// The app panics on startup/config failures; surface those as
		// harness errors instead of failing the whole test binary.
		defer func() {
			if r := recover(); r != nil {
				result.Err = fmt.Errorf("startup panic: %v", r)
			}
		}()
		testApp := app.NewApp(logBuffer, appConfig, config.NewLoader(), modules...)
		result.App = testApp
		result.Err = testApp.Run(ctx, appConfig)
	}()

	result.LogOutput = logBuffer.String()
	return result
}
