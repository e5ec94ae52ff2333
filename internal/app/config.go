package app

import (
	"errors"
	"time"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	FlowPath    string // workflow document .hcl files
	PresetsPath string // preset manifest .hcl files

	LogFormat   string
	LogLevel    string
	WorkerCount int

	Playback     bool // replay the run step by step after it completes
	PlayInterval time.Duration
	EventSinkURL string // optional socket.io endpoint receiving FlowEvents
}

// NewConfig validates a Config and applies defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.FlowPath == "" {
		return nil, errors.New("FlowPath is a required configuration field and cannot be empty")
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 8
	}
	if cfg.PlayInterval <= 0 {
		cfg.PlayInterval = 200 * time.Millisecond
	}
	return &cfg, nil
}
