package app

import (
	"context"
	"fmt"
	"time"

	"github.com/vk/gridflow/internal/bus"
	"github.com/vk/gridflow/internal/ctxlog"
	"github.com/vk/gridflow/internal/engine"
	"github.com/vk/gridflow/internal/graph"
	"github.com/vk/gridflow/internal/player"
	"github.com/vk/gridflow/modules/socketio"
)

// RunResult exposes everything a caller may want to inspect after a run.
type RunResult struct {
	Graph   *graph.Graph
	Bus     *bus.Bus
	Player  *player.Player
	Handle  *engine.Handle
	Outcome engine.Outcome
}

// Run executes the loaded workflow. Node-level failures do not fail the
// run; only a malformed document does. With Playback enabled the recorded
// run is replayed step by step to the output writer afterwards.
func (a *App) Run(ctx context.Context, appConfig *Config) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	g, err := graph.Build(ctx, a.model)
	if err != nil {
		return fmt.Errorf("failed to build workflow graph: %w", err)
	}
	a.logger.Debug("Workflow graph built.", "node_count", g.Len())

	b := bus.New(nil)
	if appConfig.EventSinkURL != "" {
		sink, err := socketio.NewSink(ctx, appConfig.EventSinkURL)
		if err != nil {
			return fmt.Errorf("failed to set up event sink: %w", err)
		}
		defer sink.Close()
		sink.Attach(b)
		a.logger.Info("Event sink attached.", "url", appConfig.EventSinkURL)
	}

	var eng *engine.Engine
	plyr := player.New(g, func() { eng.Reset(bus.New(nil)) })
	eng = engine.New(g, a.registry, b,
		engine.WithWorkers(appConfig.WorkerCount),
		engine.WithObserver(plyr.Observer()))

	a.logger.Info("🚀 Starting concurrent execution...")
	h := eng.Start(ctx)
	outcome := h.Wait()
	a.logger.Info("🏁 Execution finished.", "outcome", outcome)

	a.lastRun = &RunResult{Graph: g, Bus: b, Player: plyr, Handle: h, Outcome: outcome}

	if appConfig.Playback {
		a.replay(plyr, appConfig)
	}
	return nil
}

// replay walks the recorded step sequence and prints each label.
func (a *App) replay(plyr *player.Player, appConfig *Config) {
	total := plyr.StepCount()
	fmt.Fprintf(a.outW, "--- replay: %d steps ---\n", total)
	for {
		step, ok := plyr.Next()
		if !ok {
			break
		}
		fmt.Fprintf(a.outW, "[%2d/%d] %s\n", step.Index, total, step.Label)
		if appConfig.PlayInterval > 0 && step.Index < total {
			// A fixed cadence keeps demo output readable.
			time.Sleep(appConfig.PlayInterval)
		}
	}
}
