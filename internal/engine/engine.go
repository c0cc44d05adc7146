// Package engine ties the load, save and generate passes together behind a
// single facade bound to one registry instance.
package engine

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"

	"github.com/vk/hwtree/internal/ctxlog"
	"github.com/vk/hwtree/internal/instantiate"
	"github.com/vk/hwtree/internal/literal"
	"github.com/vk/hwtree/internal/qcfg"
	"github.com/vk/hwtree/internal/registry"
	"github.com/vk/hwtree/internal/serialize"
	"github.com/vk/hwtree/internal/tree"
)

// Engine runs the three tree operations against one registry and one
// backend config template.
type Engine struct {
	reg      *registry.Registry
	template map[string]any
}

// New creates an engine. The template seeds every generated config; nil
// means an empty mapping.
func New(reg *registry.Registry, template map[string]any) *Engine {
	return &Engine{reg: reg, template: template}
}

// Load reconstructs a tree from a literal document. It either fully
// succeeds or fails without returning a partial tree.
func (e *Engine) Load(ctx context.Context, doc any) (*tree.Component, error) {
	logger := ctxlog.FromContext(ctx)
	root, err := instantiate.Root(doc, e.reg)
	if err != nil {
		return nil, err
	}
	logger.Debug("Loaded state document.", "root_type", root.Tag(),
		"components", len(tree.Components(root)))
	return root, nil
}

// LoadJSON parses JSON text and loads it.
func (e *Engine) LoadJSON(ctx context.Context, data []byte) (*tree.Component, error) {
	doc, err := literal.FromJSON(data)
	if err != nil {
		return nil, fmt.Errorf("parsing state document: %w", err)
	}
	return e.Load(ctx, doc)
}

// LoadFile reads and loads a JSON state file.
func (e *Engine) LoadFile(ctx context.Context, path string) (*tree.Component, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading state file: %w", err)
	}
	root, err := e.LoadJSON(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return root, nil
}

// Save serializes a tree to its literal document.
func (e *Engine) Save(ctx context.Context, root *tree.Component, opts serialize.Options) (*literal.Mapping, error) {
	doc, err := serialize.Component(root, opts)
	if err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Debug("Serialized state document.", "root_type", root.Tag())
	return doc, nil
}

// SaveJSON serializes a tree to indented JSON text.
func (e *Engine) SaveJSON(ctx context.Context, root *tree.Component, opts serialize.Options) ([]byte, error) {
	doc, err := e.Save(ctx, root, opts)
	if err != nil {
		return nil, err
	}
	out, err := literal.ToJSONIndent(doc, "    ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

// SaveFile writes the serialized tree to path. Serialization completes
// fully before the destination is touched.
func (e *Engine) SaveFile(ctx context.Context, path string, root *tree.Component, opts serialize.Options) error {
	data, err := e.SaveJSON(ctx, root, opts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing state file: %w", err)
	}
	return nil
}

// Generate compiles the tree into the flat backend configuration,
// returning non-fatal conflict warnings alongside the result.
func (e *Engine) Generate(ctx context.Context, root *tree.Component) (map[string]any, hcl.Diagnostics, error) {
	return qcfg.Generate(ctx, root, e.reg, e.template)
}
