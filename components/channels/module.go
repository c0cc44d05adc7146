// Package channels is a small example component catalogue: a machine root,
// single and IQ output channels, and a sticky addon. It exists to exercise
// the engine end to end (shared-port offsets, element sections, ordering
// constraints); a real physics catalogue would live outside this module.
package channels

import (
	"context"
	"fmt"
	"strconv"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/hwtree/internal/qcfg"
	"github.com/vk/hwtree/internal/registry"
	"github.com/vk/hwtree/internal/tree"
	"github.com/vk/hwtree/internal/typeexpr"
)

// Template is the backend-owned skeleton every generated config starts
// from.
func Template() map[string]any {
	return map[string]any{
		"version":     1,
		"controllers": map[string]any{},
		"elements":    map[string]any{},
		"pulses":      map[string]any{},
		"waveforms":   map[string]any{},
	}
}

// Module registers the catalogue's type descriptors and contribution
// functions.
type Module struct{}

// Register implements registry.Module.
func (Module) Register(r *registry.Registry) {
	r.MustRegister(&registry.Descriptor{
		Tag: "Machine",
		Fields: []registry.Field{
			{Name: "channels", Type: typeexpr.Map(typeexpr.String,
				typeexpr.Union(typeexpr.Component("SingleChannel"), typeexpr.Component("IQChannel")))},
			{Name: "shared", Type: typeexpr.Any},
		},
	})

	r.MustRegister(&registry.Descriptor{
		Tag: "SingleChannel",
		Fields: []registry.Field{
			{Name: "controller", Type: typeexpr.String, Required: true},
			{Name: "port", Type: typeexpr.Int, Required: true},
			{Name: "offset", Type: typeexpr.Float, Default: cty.Zero, HasDefault: true},
			{Name: "intermediate_frequency", Type: typeexpr.Float, Default: cty.Zero, HasDefault: true},
			{Name: "output_mode", Type: typeexpr.Literal(cty.StringVal("direct"), cty.StringVal("amplified")),
				Default: cty.StringVal("direct"), HasDefault: true},
			{Name: "sticky", Type: typeexpr.Optional(typeexpr.Component("Sticky"))},
		},
	})

	r.MustRegister(&registry.Descriptor{
		Tag: "IQChannel",
		Fields: []registry.Field{
			{Name: "controller", Type: typeexpr.String, Required: true},
			{Name: "port_i", Type: typeexpr.Int, Required: true},
			{Name: "port_q", Type: typeexpr.Int, Required: true},
			{Name: "offset_i", Type: typeexpr.Float, Default: cty.Zero, HasDefault: true},
			{Name: "offset_q", Type: typeexpr.Float, Default: cty.Zero, HasDefault: true},
			{Name: "intermediate_frequency", Type: typeexpr.Float, Default: cty.Zero, HasDefault: true},
		},
	})

	r.MustRegister(&registry.Descriptor{
		Tag: "Sticky",
		Fields: []registry.Field{
			{Name: "duration", Type: typeexpr.Int, Required: true},
			{Name: "analog", Type: typeexpr.Bool, Default: cty.True, HasDefault: true},
			{Name: "digital", Type: typeexpr.Bool, Default: cty.True, HasDefault: true},
		},
		// The sticky entry amends the element its channel created.
		Settings: registry.Settings{After: []string{"SingleChannel", "IQChannel"}},
	})

	r.RegisterApply("SingleChannel", qcfg.ApplyFunc(applySingleChannel))
	r.RegisterApply("IQChannel", qcfg.ApplyFunc(applyIQChannel))
	r.RegisterApply("Sticky", qcfg.ApplyFunc(applySticky))
}

func applySingleChannel(_ context.Context, c *tree.Component, cfg *qcfg.Config) error {
	name, err := elementName(c)
	if err != nil {
		return err
	}
	controller, err := c.GetString("controller")
	if err != nil {
		return err
	}
	port, err := c.GetInt("port")
	if err != nil {
		return err
	}
	if err := contributePort(cfg, c, controller, port, "offset"); err != nil {
		return err
	}

	freq, err := c.GetFloat("intermediate_frequency")
	if err != nil {
		return err
	}
	portKey := strconv.FormatInt(port, 10)
	if err := cfg.Set(freq, "elements", name, "intermediate_frequency"); err != nil {
		return err
	}
	return cfg.Set(
		map[string]any{"controller": controller, "port": portKey},
		"elements", name, "single_output",
	)
}

func applyIQChannel(_ context.Context, c *tree.Component, cfg *qcfg.Config) error {
	name, err := elementName(c)
	if err != nil {
		return err
	}
	controller, err := c.GetString("controller")
	if err != nil {
		return err
	}
	for _, side := range []struct{ port, offset string }{
		{"port_i", "offset_i"},
		{"port_q", "offset_q"},
	} {
		port, err := c.GetInt(side.port)
		if err != nil {
			return err
		}
		if err := contributePort(cfg, c, controller, port, side.offset); err != nil {
			return err
		}
	}
	freq, err := c.GetFloat("intermediate_frequency")
	if err != nil {
		return err
	}
	return cfg.Set(freq, "elements", name, "intermediate_frequency")
}

// contributePort declares the controller output port the channel drives and
// writes its offset when it deviates from the canonical default. The port's
// offset leaf is required, so the default-fill pass materializes an
// explicit 0.0 for ports that only saw default requests.
func contributePort(cfg *qcfg.Config, c *tree.Component, controller string, port int64, offsetField string) error {
	portKey := strconv.FormatInt(port, 10)
	if err := cfg.Require(0.0, "controllers", controller, "analog_outputs", portKey, "offset"); err != nil {
		return err
	}
	offset, err := c.GetFloat(offsetField)
	if err != nil {
		return err
	}
	return cfg.Set(offset, "controllers", controller, "analog_outputs", portKey, "offset")
}

func applySticky(_ context.Context, c *tree.Component, cfg *qcfg.Config) error {
	channel, ok := c.Parent().(*tree.Component)
	if !ok {
		return fmt.Errorf("sticky addon must be attached to a channel")
	}
	name, err := elementName(channel)
	if err != nil {
		return err
	}
	duration, err := c.GetInt("duration")
	if err != nil {
		return err
	}
	analog, err := c.GetBool("analog")
	if err != nil {
		return err
	}
	digital, err := c.GetBool("digital")
	if err != nil {
		return err
	}
	return cfg.Set(map[string]any{
		"analog":   analog,
		"digital":  digital,
		"duration": duration,
	}, "elements", name, "sticky")
}

// elementName is the channel's key in the machine's channels mapping, read
// off its canonical path.
func elementName(c *tree.Component) (string, error) {
	path, err := tree.PathOf(c)
	if err != nil {
		return "", err
	}
	if len(path.Steps) == 0 {
		return "", fmt.Errorf("component has no element name of its own")
	}
	return path.Steps[len(path.Steps)-1].Name, nil
}
