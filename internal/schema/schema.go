// Package schema declares the HCL shapes of workflow documents and preset
// manifests. These structs carry hcl tags only; the format-agnostic model
// the engine consumes lives in the config package.
package schema

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// --- Workflow document structures ---

// UIBlock carries presentation hints. The engine never interprets them;
// they are decoded into an opaque attribute map and passed through.
type UIBlock struct {
	Body hcl.Body `hcl:",remain"`
}

// ConfigBlock represents the 'config' block of a node or preset. All
// fields are optional so that preset defaults can be merged under
// document-level overrides.
type ConfigBlock struct {
	Script  *string    `hcl:"script,optional"`
	Sandbox *bool      `hcl:"sandbox,optional"`
	Timeout *string    `hcl:"timeout,optional"`
	Retries *int       `hcl:"retries,optional"`
	Seed    *cty.Value `hcl:"seed,optional"`
	UI      *UIBlock   `hcl:"ui,block"`
}

// Node represents a `node` block from a workflow document. The first label
// is the coarse kind (starting, job, group, subflow, aggregator), the
// second is the unique node id.
type Node struct {
	Type    string       `hcl:"type,label"`
	ID      string       `hcl:"id,label"`
	SubType string       `hcl:"sub_type,optional"`
	Preset  string       `hcl:"preset,optional"`
	Label   string       `hcl:"label,optional"`
	Config  *ConfigBlock `hcl:"config,block"`
}

// Edge represents an `edge` block: a directed connection source -> target,
// optionally tagged with a handle to disambiguate multiple ports.
type Edge struct {
	Source string `hcl:"source"`
	Target string `hcl:"target"`
	Handle string `hcl:"handle,optional"`
}

// Document represents the top-level structure of a workflow file. Block
// declaration order is preserved by the HCL decoder and is load-bearing:
// it fixes dispatch tie-breaks and aggregation input order.
type Document struct {
	Nodes []*Node  `hcl:"node,block"`
	Edges []*Edge  `hcl:"edge,block"`
	Body  hcl.Body `hcl:",remain"`
}

// --- Preset manifest structures ---

// Preset represents a `preset` block from a manifest file. It supplies
// default config values merged under any document-level overrides.
type Preset struct {
	ID     string       `hcl:"id,label"`
	Label  string       `hcl:"label,optional"`
	Icon   string       `hcl:"icon,optional"`
	Config *ConfigBlock `hcl:"config,block"`
}

// Manifest represents the top-level structure of a preset manifest file.
type Manifest struct {
	Presets []*Preset `hcl:"preset,block"`
	Body    hcl.Body  `hcl:",remain"`
}
