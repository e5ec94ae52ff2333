package player_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/gridflow/internal/bus"
	"github.com/vk/gridflow/internal/config"
	"github.com/vk/gridflow/internal/engine"
	"github.com/vk/gridflow/internal/graph"
	"github.com/vk/gridflow/internal/player"
	"github.com/vk/gridflow/internal/registry"
	"github.com/vk/gridflow/internal/testutil"
	"github.com/vk/gridflow/modules/cel"
)

func diamondNode(typ, id, label, body string) *config.Node {
	return &config.Node{
		ID:    id,
		Type:  typ,
		Label: label,
		Config: config.NodeConfig{
			Script:  body,
			Sandbox: true,
			Timeout: 5 * time.Second,
		},
	}
}

// recordDiamondRun executes the orchestrator -> two workers -> aggregator
// fixture with the player recording and returns the player and graph.
func recordDiamondRun(t *testing.T) (*player.Player, *graph.Graph) {
	t.Helper()

	orch := diamondNode(graph.TypeStarting, "orch", "Orchestrator", "input")
	orch.Config.Seed = int64(1)

	g, err := graph.Build(context.Background(), &config.Model{
		Nodes: []*config.Node{
			orch,
			diamondNode(graph.TypeJob, "wa", "Worker A", "input + 1"),
			diamondNode(graph.TypeJob, "wb", "Worker B", "input * 2"),
			diamondNode(graph.TypeAggregator, "agg", "Aggregator", "input['wa'] + input['wb']"),
		},
		Edges: []config.Edge{
			{Source: "orch", Target: "wa"},
			{Source: "orch", Target: "wb"},
			{Source: "wa", Target: "agg"},
			{Source: "wb", Target: "agg"},
		},
	})
	require.NoError(t, err)

	reg := registry.New()
	(&cel.Module{}).Register(reg)

	var eng *engine.Engine
	plyr := player.New(g, func() { eng.Reset(bus.New(nil)) })
	eng = engine.New(g, reg, bus.New(nil), engine.WithObserver(plyr.Observer()))

	require.Equal(t, engine.OutcomeCompleted, eng.Start(context.Background()).Wait())
	return plyr, g
}

func TestRecordingProducesNineteenSteps(t *testing.T) {
	plyr, _ := recordDiamondRun(t)

	// One run-started, three group dispatches with twelve node transitions,
	// two group completions, one run completion.
	require.Equal(t, 19, plyr.StepCount())

	steps := plyr.Steps()
	assert.Equal(t, "Run started", steps[0].Label)
	assert.Equal(t, "All nodes done", steps[len(steps)-1].Label)

	for i, step := range steps {
		assert.Equal(t, i+1, step.Index)
	}

	var sawConcurrent bool
	for _, step := range steps {
		if step.Label == "Worker A, Worker B running (concurrent)" {
			sawConcurrent = true
		}
	}
	assert.True(t, sawConcurrent, "expected the two-worker group label")

	// The final snapshot has every node done and the full event history.
	final := steps[len(steps)-1].Snapshot
	for id, status := range final.Statuses {
		assert.Equal(t, graph.StatusDone, status, "status of %s", id)
	}
}

func TestNextPrevCurrent(t *testing.T) {
	plyr, _ := recordDiamondRun(t)
	total := plyr.StepCount()

	step, ok := plyr.Next()
	require.True(t, ok)
	assert.Equal(t, 1, step.Index)
	assert.Equal(t, player.StatePaused, plyr.State())

	_, ok = plyr.Prev()
	assert.False(t, ok, "cannot step back past the first step")

	for i := 2; i <= total; i++ {
		step, ok = plyr.Next()
		require.True(t, ok)
		assert.Equal(t, i, step.Index)
	}
	assert.Equal(t, player.StateFinished, plyr.State())

	_, ok = plyr.Next()
	assert.False(t, ok)
	assert.Equal(t, player.StateFinished, plyr.State())

	// Stepping back reveals the prior snapshot without re-executing.
	step, ok = plyr.Prev()
	require.True(t, ok)
	assert.Equal(t, total-1, step.Index)
	assert.Equal(t, player.StatePaused, plyr.State())

	current, ok := plyr.Current()
	require.True(t, ok)
	assert.Equal(t, total-1, current.Index)

	step, ok = plyr.Next()
	require.True(t, ok)
	assert.Equal(t, total, step.Index)
	assert.Equal(t, player.StateFinished, plyr.State())
}

func TestPlayRunsToCompletion(t *testing.T) {
	plyr, _ := recordDiamondRun(t)
	total := plyr.StepCount()

	var mu sync.Mutex
	var seen []player.Step
	plyr.Play(time.Millisecond, func(s player.Step) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	})

	require.Eventually(t, func() bool {
		return plyr.State() == player.StateFinished
	}, 5*time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, total)
	assert.Equal(t, "Run started", seen[0].Label)
	assert.Equal(t, total, plyr.Cursor())
}

func TestPauseStopsAutoAdvance(t *testing.T) {
	plyr, _ := recordDiamondRun(t)

	plyr.Play(time.Hour, nil)
	assert.Equal(t, player.StatePlaying, plyr.State())

	plyr.Pause()
	assert.Equal(t, player.StatePaused, plyr.State())
	cursor := plyr.Cursor()

	// Manual stepping still works after a pause.
	step, ok := plyr.Next()
	require.True(t, ok)
	assert.Equal(t, cursor+1, step.Index)
}

func TestResetReturnsEverythingToIdle(t *testing.T) {
	plyr, g := recordDiamondRun(t)
	for {
		if _, ok := plyr.Next(); !ok {
			break
		}
	}
	require.Equal(t, player.StateFinished, plyr.State())

	plyr.Reset()
	assert.Equal(t, player.StateIdle, plyr.State())
	assert.Zero(t, plyr.StepCount())
	assert.Zero(t, plyr.Cursor())
	for _, n := range g.Nodes() {
		assert.Equal(t, graph.StatusIdle, n.Status())
	}

	// Resetting an already-idle player changes nothing.
	plyr.Reset()
	assert.Equal(t, player.StateIdle, plyr.State())
	assert.Zero(t, plyr.StepCount())
}

func TestFailureLabels(t *testing.T) {
	bad := diamondNode(graph.TypeStarting, "bad", "", "")
	bad.SubType = "fail"

	g, err := graph.Build(context.Background(), &config.Model{Nodes: []*config.Node{bad}})
	require.NoError(t, err)

	reg := registry.New()
	(&cel.Module{}).Register(reg)
	(&testutil.FailRunner{Message: "boom"}).Register(reg)

	plyr := player.New(g, nil)
	eng := engine.New(g, reg, bus.New(nil), engine.WithObserver(plyr.Observer()))
	require.Equal(t, engine.OutcomeCompletedWithErrors, eng.Start(context.Background()).Wait())

	steps := plyr.Steps()
	require.Equal(t, 6, len(steps))
	assert.Contains(t, steps[4].Label, "bad failed:")
	assert.Equal(t, "Run completed with errors", steps[5].Label)
}
