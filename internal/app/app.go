// Package app wires the loader, registry, graph builder, engine, and
// step player into one application instance with an isolated logger.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/gridflow/internal/config"
	"github.com/vk/gridflow/internal/ctxlog"
	"github.com/vk/gridflow/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	registry *registry.Registry
	model    *config.Model
	presets  *registry.Container[*config.Preset]

	lastRun *RunResult
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and
// registry. Configuration load failures are fatal startup errors and
// panic; the CLI entrypoint recovers them into a clean exit.
func NewApp(outW io.Writer, appConfig *Config, loader *config.Loader, modules ...registry.Module) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	model, err := loader.Load(ctx, appConfig.FlowPath, appConfig.PresetsPath)
	if err != nil {
		panic(fmt.Errorf("failed to load configuration: %w", err))
	}
	logger.Debug("Configuration loaded into unified model.",
		"nodes", len(model.Nodes), "edges", len(model.Edges), "presets", len(model.Presets))

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All runner modules registered.", "sub_types", reg.SubTypes())

	presets := registry.NewContainer[*config.Preset]()
	for _, p := range model.Presets {
		presets.Add(p)
	}

	return &App{
		outW:     outW,
		logger:   logger,
		registry: reg,
		model:    model,
		presets:  presets,
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Presets returns the loaded preset container.
func (a *App) Presets() *registry.Container[*config.Preset] {
	return a.presets
}

// LastRun returns the result of the most recent Run call.
func (a *App) LastRun() *RunResult {
	return a.lastRun
}
