package qcfg

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"

	"github.com/vk/hwtree/internal/ctxlog"
	"github.com/vk/hwtree/internal/registry"
	"github.com/vk/hwtree/internal/tree"
)

// ApplyFunc is the contribution operation a component type registers: it
// reads its component and writes into named regions of the shared config.
type ApplyFunc func(ctx context.Context, c *tree.Component, cfg *Config) error

// Generate compiles the tree into the flat backend configuration. It either
// fully succeeds (possibly with warnings) or fails with no partial mapping.
func Generate(ctx context.Context, root *tree.Component, reg *registry.Registry, template map[string]any) (map[string]any, hcl.Diagnostics, error) {
	logger := ctxlog.FromContext(ctx)

	comps := tree.Components(root)
	labels := make([]string, len(comps))
	byTag := make(map[string][]int)
	for i, c := range comps {
		path, err := tree.PathOf(c)
		if err != nil {
			return nil, nil, fmt.Errorf("component %d (%s): %w", i, c.Tag(), err)
		}
		labels[i] = path.String()
		byTag[c.Tag()] = append(byTag[c.Tag()], i)
	}
	logger.Debug("Starting config generation.", "components", len(comps))

	g := newGraph(labels)
	for i, c := range comps {
		settings := c.Descriptor().Settings
		for _, tag := range settings.Before {
			for _, j := range byTag[tag] {
				g.addEdge(i, j)
			}
		}
		for _, tag := range settings.After {
			for _, j := range byTag[tag] {
				g.addEdge(j, i)
			}
		}
	}

	order, err := g.order()
	if err != nil {
		return nil, nil, err
	}

	cfg := New(template)
	for _, idx := range order {
		c := comps[idx]
		fnAny, ok := reg.Apply(c.Tag())
		if !ok {
			continue
		}
		fn, err := asApplyFunc(fnAny)
		if err != nil {
			return nil, nil, fmt.Errorf("component type %q: %w", c.Tag(), err)
		}
		cfg.current = labels[idx]
		logger.Debug("Applying component contribution.", "component", labels[idx], "tag", c.Tag())
		if err := fn(ctx, c, cfg); err != nil {
			return nil, nil, fmt.Errorf("contribution of %s failed: %w", labels[idx], err)
		}
	}
	cfg.current = ""

	diags := cfg.finalize()
	for _, d := range diags {
		logger.Warn(d.Summary, "detail", d.Detail)
	}
	logger.Info("Config generation finished.", "components", len(comps), "warnings", len(diags))
	return cfg.Data(), diags, nil
}

func asApplyFunc(fnAny any) (ApplyFunc, error) {
	switch fn := fnAny.(type) {
	case ApplyFunc:
		return fn, nil
	case func(context.Context, *tree.Component, *Config) error:
		return fn, nil
	default:
		return nil, fmt.Errorf("registered contribution has unsupported signature %T", fnAny)
	}
}
