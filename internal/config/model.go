// Package config loads workflow documents and preset manifests into a
// format-agnostic model. The graph builder and the engine consume this
// model and never touch HCL types directly.
package config

import (
	"time"
)

// DefaultTimeout bounds a node execution when neither the document nor the
// preset specifies one.
const DefaultTimeout = 10 * time.Second

// NodeConfig holds a node's resolved execution parameters plus opaque
// presentation hints. Preset defaults have already been merged under any
// document-level overrides.
type NodeConfig struct {
	Script  string
	Sandbox bool
	Timeout time.Duration
	Retries int
	Seed    any
	UI      map[string]any
}

// Node is one node of the workflow document after preset resolution.
type Node struct {
	ID      string
	Type    string
	SubType string
	Preset  string
	Label   string
	Config  NodeConfig
}

// Edge is a directed connection between two node ids. Handle disambiguates
// multiple ports on one node and is otherwise opaque to the engine.
type Edge struct {
	Source string
	Target string
	Handle string
}

// Preset is a default-config template resolved by id. Icon and Label are
// presentation fields carried through untouched.
type Preset struct {
	ID     string
	Label  string
	Icon   string
	Config NodeConfig
}

// Key implements the keyed-container contract of the registry package.
func (p *Preset) Key() string { return p.ID }

// Model is the loaded, format-agnostic view of one workflow. Node and edge
// order matches document declaration order.
type Model struct {
	Nodes   []*Node
	Edges   []Edge
	Presets map[string]*Preset
}
