// Package cli parses command-line arguments into an app configuration.
package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/vk/gridflow/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("gridflow", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
GridFlow - a concurrent workflow graph execution engine.

Usage:
  gridflow [options] [FLOW_PATH]

Arguments:
  FLOW_PATH
    Path to a workflow .hcl file or a directory containing .hcl files.

Options:
`)
		flagSet.PrintDefaults()
	}

	flowFlag := flagSet.String("flow", "", "Path to the workflow file or directory.")
	fFlag := flagSet.String("f", "", "Path to the workflow file or directory (shorthand).")
	presetsFlag := flagSet.String("presets-path", "presets", "Path to the directory containing preset manifests.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	workersFlag := flagSet.Int("workers", 8, "Number of concurrent workers for the engine.")
	playFlag := flagSet.Bool("play", false, "Replay the recorded run step by step after execution.")
	playIntervalFlag := flagSet.Duration("play-interval", 200*time.Millisecond, "Delay between replayed steps.")
	eventSinkFlag := flagSet.String("event-sink", "", "socket.io URL receiving FlowEvents. Empty disables the sink.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *flowFlag != "" {
		path = *flowFlag
	} else if *fFlag != "" {
		path = *fFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Workflow path determined.", "path", path)

	if path == "" {
		slog.Debug("No workflow path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		FlowPath:     path,
		PresetsPath:  *presetsFlag,
		LogFormat:    logFormat,
		LogLevel:     logLevel,
		WorkerCount:  *workersFlag,
		Playback:     *playFlag,
		PlayInterval: *playIntervalFlag,
		EventSinkURL: *eventSinkFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
