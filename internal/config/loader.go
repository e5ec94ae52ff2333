package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/gridflow/internal/ctxlog"
	"github.com/vk/gridflow/internal/flowerr"
	"github.com/vk/gridflow/internal/fsutil"
	"github.com/vk/gridflow/internal/schema"
)

// Loader parses workflow documents and preset manifests from .hcl files
// into the unified Model.
type Loader struct {
	parser *hclparse.Parser
}

// NewLoader returns a ready-to-use Loader.
func NewLoader() *Loader {
	return &Loader{parser: hclparse.NewParser()}
}

// Load reads every .hcl file under docPath (the workflow document) and
// presetsPath (preset manifests, optional), resolves preset references,
// and returns the merged model. Declaration order of nodes and edges is
// preserved across files in discovery order.
func (l *Loader) Load(ctx context.Context, docPath, presetsPath string) (*Model, error) {
	logger := ctxlog.FromContext(ctx)

	model := &Model{Presets: make(map[string]*Preset)}

	if presetsPath != "" {
		files, err := fsutil.FindFilesByExtension(presetsPath, ".hcl")
		switch {
		case errors.Is(err, os.ErrNotExist):
			logger.Debug("Preset path not found, skipping.", "path", presetsPath)
		case err != nil:
			return nil, fmt.Errorf("discovering preset manifests: %w", err)
		}
		for _, file := range files {
			if err := l.loadManifest(file, model); err != nil {
				return nil, err
			}
		}
		logger.Debug("Preset manifests loaded.", "count", len(model.Presets))
	}

	docFiles, err := fsutil.FindFilesByExtension(docPath, ".hcl")
	if err != nil {
		return nil, fmt.Errorf("discovering workflow documents: %w", err)
	}
	if len(docFiles) == 0 {
		return nil, flowerr.Validationf("no workflow documents found at '%s'", docPath)
	}
	for _, file := range docFiles {
		if err := l.loadDocument(file, model); err != nil {
			return nil, err
		}
	}
	logger.Debug("Workflow documents loaded.", "nodes", len(model.Nodes), "edges", len(model.Edges))

	return model, nil
}

// loadManifest parses one manifest file and registers its presets.
func (l *Loader) loadManifest(path string, model *Model) error {
	file, diags := l.parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return fmt.Errorf("parsing manifest %s: %w", path, diags)
	}

	var manifest schema.Manifest
	if diags := gohcl.DecodeBody(file.Body, nil, &manifest); diags.HasErrors() {
		return fmt.Errorf("decoding manifest %s: %w", path, diags)
	}

	for _, p := range manifest.Presets {
		if _, exists := model.Presets[p.ID]; exists {
			return flowerr.Validationf("duplicate preset id '%s'", p.ID)
		}
		cfg, err := resolveConfig(p.Config, nil)
		if err != nil {
			return fmt.Errorf("preset '%s': %w", p.ID, err)
		}
		model.Presets[p.ID] = &Preset{
			ID:     p.ID,
			Label:  p.Label,
			Icon:   p.Icon,
			Config: cfg,
		}
	}
	return nil
}

// loadDocument parses one workflow file and appends its nodes and edges.
func (l *Loader) loadDocument(path string, model *Model) error {
	file, diags := l.parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return fmt.Errorf("parsing document %s: %w", path, diags)
	}

	var doc schema.Document
	if diags := gohcl.DecodeBody(file.Body, nil, &doc); diags.HasErrors() {
		return fmt.Errorf("decoding document %s: %w", path, diags)
	}

	for _, n := range doc.Nodes {
		var base *NodeConfig
		if n.Preset != "" {
			preset, ok := model.Presets[n.Preset]
			if !ok {
				return flowerr.Validationf("node '%s' references unknown preset '%s'", n.ID, n.Preset)
			}
			base = &preset.Config
		}
		cfg, err := resolveConfig(n.Config, base)
		if err != nil {
			return fmt.Errorf("node '%s': %w", n.ID, err)
		}
		model.Nodes = append(model.Nodes, &Node{
			ID:      n.ID,
			Type:    n.Type,
			SubType: n.SubType,
			Preset:  n.Preset,
			Label:   n.Label,
			Config:  cfg,
		})
	}

	for _, e := range doc.Edges {
		model.Edges = append(model.Edges, Edge{
			Source: e.Source,
			Target: e.Target,
			Handle: e.Handle,
		})
	}
	return nil
}

// resolveConfig overlays the fields set in block onto base. A nil base
// starts from built-in defaults; preset-derived values sit under any
// document-level overrides, never over them.
func resolveConfig(block *schema.ConfigBlock, base *NodeConfig) (NodeConfig, error) {
	cfg := NodeConfig{Sandbox: true, Timeout: DefaultTimeout}
	if base != nil {
		cfg = *base
	}
	if block == nil {
		return cfg, nil
	}

	if block.Script != nil {
		cfg.Script = *block.Script
	}
	if block.Sandbox != nil {
		cfg.Sandbox = *block.Sandbox
	}
	if block.Timeout != nil {
		d, err := time.ParseDuration(*block.Timeout)
		if err != nil {
			return cfg, flowerr.Validationf("bad timeout %q: %v", *block.Timeout, err)
		}
		cfg.Timeout = d
	}
	if block.Retries != nil {
		if *block.Retries < 0 {
			return cfg, flowerr.Validationf("retries must not be negative, got %d", *block.Retries)
		}
		cfg.Retries = *block.Retries
	}
	if block.Seed != nil {
		seed, err := ctyToGo(*block.Seed)
		if err != nil {
			return cfg, flowerr.Validationf("bad seed value: %v", err)
		}
		cfg.Seed = seed
	}
	if block.UI != nil {
		ui, err := decodeUI(block.UI)
		if err != nil {
			return cfg, err
		}
		cfg.UI = ui
	}
	return cfg, nil
}

// decodeUI flattens a ui block into an opaque attribute map. The engine
// carries these values but never interprets them.
func decodeUI(block *schema.UIBlock) (map[string]any, error) {
	attrs, diags := block.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("decoding ui block: %w", diags)
	}
	out := make(map[string]any, len(attrs))
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("evaluating ui attribute '%s': %w", name, diags)
		}
		conv, err := ctyToGo(val)
		if err != nil {
			return nil, fmt.Errorf("ui attribute '%s': %w", name, err)
		}
		out[name] = conv
	}
	return out, nil
}
