package qcfg

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/hwtree/internal/errs"
	"github.com/vk/hwtree/internal/registry"
	"github.com/vk/hwtree/internal/tree"
	"github.com/vk/hwtree/internal/typeexpr"
)

func TestConfigSetAndSection(t *testing.T) {
	cfg := New(map[string]any{"version": 1})

	require.NoError(t, cfg.Set(0.5, "controllers", "con1", "analog_outputs", "3", "offset"))

	data := cfg.Data()
	assert.Equal(t, 1, data["version"])
	con1 := data["controllers"].(map[string]any)["con1"].(map[string]any)
	out3 := con1["analog_outputs"].(map[string]any)["3"].(map[string]any)
	assert.Equal(t, 0.5, out3["offset"])

	// A leaf cannot be reopened as a section.
	_, err := cfg.Section("controllers", "con1", "analog_outputs", "3", "offset", "deeper")
	assert.Error(t, err)
}

func TestConfigTemplateIsCopied(t *testing.T) {
	template := map[string]any{"elements": map[string]any{}}
	cfg := New(template)

	require.NoError(t, cfg.Set("x", "elements", "drive", "type"))
	assert.Empty(t, template["elements"].(map[string]any),
		"writes must not leak into the shared template")
}

func TestFinalizeConflictWarnings(t *testing.T) {
	cfg := New(nil)

	// Two distinct non-default writes to one leaf warn; the last one wins.
	cfg.current = "#/channels/a"
	require.NoError(t, cfg.Set(0.1, "controllers", "con1", "offset"))
	cfg.current = "#/channels/b"
	require.NoError(t, cfg.Set(0.2, "controllers", "con1", "offset"))

	// Repeated identical writes do not warn.
	require.NoError(t, cfg.Set(5, "elements", "b", "port"))
	require.NoError(t, cfg.Set(5, "elements", "b", "port"))

	// A default write alongside one non-default write does not warn.
	require.NoError(t, cfg.Set(0.0, "controllers", "con1", "gain"))
	cfg.current = "#/channels/a"
	require.NoError(t, cfg.Set(2.0, "controllers", "con1", "gain"))

	diags := cfg.finalize()
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Detail, "controllers/con1/offset")
	assert.Contains(t, diags[0].Detail, "#/channels/a")
	assert.Contains(t, diags[0].Detail, "#/channels/b")

	offset := cfg.Data()["controllers"].(map[string]any)["con1"].(map[string]any)["offset"]
	assert.Equal(t, 0.2, offset)
}

func TestFinalizeNonDefaultWinsOverLaterDefault(t *testing.T) {
	testCases := []struct {
		name   string
		writes []float64
	}{
		{name: "non-default then default", writes: []float64{0.05, 0.0}},
		{name: "default then non-default", writes: []float64{0.0, 0.05}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := New(nil)
			require.NoError(t, cfg.Require(0.0, "controllers", "con1", "ao", "1", "offset"))
			for _, v := range tc.writes {
				require.NoError(t, cfg.Set(v, "controllers", "con1", "ao", "1", "offset"))
			}

			diags := cfg.finalize()
			assert.Empty(t, diags, "a lone non-default value is not a conflict")

			ao := cfg.Data()["controllers"].(map[string]any)["con1"].(map[string]any)["ao"].(map[string]any)
			assert.Equal(t, 0.05, ao["1"].(map[string]any)["offset"],
				"the non-default value wins regardless of write order")
		})
	}
}

func TestRequireDefaultFill(t *testing.T) {
	cfg := New(nil)

	// Declared but never written: the canonical default is filled in.
	require.NoError(t, cfg.Require(0.0, "controllers", "con1", "ao", "1", "offset"))

	// Declared and written with a default value: still filled with canonical.
	require.NoError(t, cfg.Require(0.0, "controllers", "con1", "ao", "2", "offset"))
	require.NoError(t, cfg.Set(0.0, "controllers", "con1", "ao", "2", "offset"))

	// Declared and written non-default: the written value stays.
	require.NoError(t, cfg.Require(0.0, "controllers", "con1", "ao", "3", "offset"))
	require.NoError(t, cfg.Set(0.7, "controllers", "con1", "ao", "3", "offset"))

	diags := cfg.finalize()
	require.Empty(t, diags)

	ao := cfg.Data()["controllers"].(map[string]any)["con1"].(map[string]any)["ao"].(map[string]any)
	assert.Equal(t, 0.0, ao["1"].(map[string]any)["offset"])
	assert.Equal(t, 0.0, ao["2"].(map[string]any)["offset"])
	assert.Equal(t, 0.7, ao["3"].(map[string]any)["offset"])
}

func TestGraphOrderDeterministic(t *testing.T) {
	g := newGraph([]string{"a", "b", "c", "d"})
	// No constraints: structural order.
	order, err := g.order()
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3}, order)

	// d before a; c before b.
	g.addEdge(3, 0)
	g.addEdge(2, 1)
	order, err = g.order()
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1, 3, 0}, order)
}

func TestGraphCycle(t *testing.T) {
	g := newGraph([]string{"a", "b"})
	g.addEdge(0, 1)
	g.addEdge(1, 0)

	_, err := g.order()
	var cycleErr *errs.OrderingCycleError
	require.ErrorAs(t, err, &cycleErr)
	assert.Contains(t, cycleErr.Detail, "a")
	assert.Contains(t, cycleErr.Detail, "b")
}

// generation fixtures

func genRegistry(t *testing.T, sticky registry.Settings) *registry.Registry {
	t.Helper()
	r := registry.New()
	r.MustRegister(&registry.Descriptor{
		Tag: "Machine",
		Fields: []registry.Field{
			{Name: "channels", Type: typeexpr.Map(typeexpr.String, typeexpr.Component("Channel"))},
		},
	})
	r.MustRegister(&registry.Descriptor{
		Tag: "Channel",
		Fields: []registry.Field{
			{Name: "port", Type: typeexpr.Int},
			{Name: "offset", Type: typeexpr.Float, Default: cty.Zero, HasDefault: true},
			{Name: "sticky", Type: typeexpr.Optional(typeexpr.Component("Sticky"))},
		},
	})
	r.MustRegister(&registry.Descriptor{
		Tag:      "Sticky",
		Fields:   []registry.Field{{Name: "duration", Type: typeexpr.Int}},
		Settings: sticky,
	})
	return r
}

func genTree(t *testing.T, reg *registry.Registry, withSticky bool) *tree.Component {
	t.Helper()
	machineDesc, err := reg.Resolve("Machine")
	require.NoError(t, err)
	channelDesc, err := reg.Resolve("Channel")
	require.NoError(t, err)

	root, err := tree.NewRoot(machineDesc)
	require.NoError(t, err)
	dict := tree.NewDict()
	require.NoError(t, root.Set("channels", dict))

	values := map[string]any{"port": 3, "offset": 0.5}
	if withSticky {
		stickyDesc, err := reg.Resolve("Sticky")
		require.NoError(t, err)
		sticky, err := tree.Build(stickyDesc, map[string]any{"duration": 16})
		require.NoError(t, err)
		values["sticky"] = sticky
	}
	ch, err := tree.Build(channelDesc, values)
	require.NoError(t, err)
	require.NoError(t, dict.SetString("drive", ch))
	return root
}

func elementName(c *tree.Component) (string, error) {
	path, err := tree.PathOf(c)
	if err != nil {
		return "", err
	}
	return path.Steps[len(path.Steps)-1].Name, nil
}

func TestGenerateOrdering(t *testing.T) {
	// Sticky contributes after Channel even though it walks earlier or later
	// structurally; record actual call order to check.
	reg := genRegistry(t, registry.Settings{After: []string{"Channel"}})

	var calls []string
	reg.RegisterApply("Channel", func(ctx context.Context, c *tree.Component, cfg *Config) error {
		calls = append(calls, "channel")
		name, err := elementName(c)
		if err != nil {
			return err
		}
		return cfg.Set(map[string]any{}, "elements", name)
	})
	reg.RegisterApply("Sticky", func(ctx context.Context, c *tree.Component, cfg *Config) error {
		calls = append(calls, "sticky")
		parent := c.Parent().(*tree.Component)
		name, err := elementName(parent)
		if err != nil {
			return err
		}
		duration, err := c.GetInt("duration")
		if err != nil {
			return err
		}
		return cfg.Set(duration, "elements", name, "sticky_duration")
	})

	root := genTree(t, reg, true)
	data, diags, err := Generate(context.Background(), root, reg, map[string]any{"version": 1})
	require.NoError(t, err)
	assert.Empty(t, diags)

	assert.Equal(t, []string{"channel", "sticky"}, calls)

	drive := data["elements"].(map[string]any)["drive"].(map[string]any)
	assert.Equal(t, int64(16), drive["sticky_duration"])
	assert.Equal(t, 1, data["version"])
}

func TestGenerateOrderingCycle(t *testing.T) {
	// Sticky both before and after Channel is contradictory.
	reg := genRegistry(t, registry.Settings{
		Before: []string{"Channel"},
		After:  []string{"Channel"},
	})
	reg.RegisterApply("Channel", func(ctx context.Context, c *tree.Component, cfg *Config) error {
		return nil
	})

	root := genTree(t, reg, true)
	_, _, err := Generate(context.Background(), root, reg, nil)

	var cycleErr *errs.OrderingCycleError
	require.ErrorAs(t, err, &cycleErr)
}

func TestGenerateSkipsTypesWithoutContribution(t *testing.T) {
	reg := genRegistry(t, registry.Settings{})
	root := genTree(t, reg, false)

	data, diags, err := Generate(context.Background(), root, reg, map[string]any{"version": 1})
	require.NoError(t, err)
	assert.Empty(t, diags)
	assert.Equal(t, map[string]any{"version": 1}, data)
}

func TestGenerateSharedPortConflict(t *testing.T) {
	// Two channels on the same controller port with different offsets: the
	// generator warns and the last contribution wins.
	reg := genRegistry(t, registry.Settings{})
	reg.RegisterApply("Channel", func(ctx context.Context, c *tree.Component, cfg *Config) error {
		port, err := c.GetInt("port")
		if err != nil {
			return err
		}
		offset, err := c.GetFloat("offset")
		if err != nil {
			return err
		}
		key := strconv.FormatInt(port, 10)
		if err := cfg.Require(0.0, "controllers", "con1", "analog_outputs", key, "offset"); err != nil {
			return err
		}
		return cfg.Set(offset, "controllers", "con1", "analog_outputs", key, "offset")
	})

	machineDesc, err := reg.Resolve("Machine")
	require.NoError(t, err)
	channelDesc, err := reg.Resolve("Channel")
	require.NoError(t, err)
	root, err := tree.NewRoot(machineDesc)
	require.NoError(t, err)
	dict := tree.NewDict()
	require.NoError(t, root.Set("channels", dict))
	a, err := tree.Build(channelDesc, map[string]any{"port": 1, "offset": 0.1})
	require.NoError(t, err)
	require.NoError(t, dict.SetString("a", a))
	b, err := tree.Build(channelDesc, map[string]any{"port": 1, "offset": 0.2})
	require.NoError(t, err)
	require.NoError(t, dict.SetString("b", b))

	data, diags, err := Generate(context.Background(), root, reg, nil)
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Detail, "#/channels/a")
	assert.Contains(t, diags[0].Detail, "#/channels/b")

	out := data["controllers"].(map[string]any)["con1"].(map[string]any)["analog_outputs"].(map[string]any)
	assert.Equal(t, 0.2, out["1"].(map[string]any)["offset"])
}

func TestGenerateDefaultOffsetFilled(t *testing.T) {
	// A channel that leaves its offset at the default still gets the
	// canonical 0.0 in the final config via the required-leaf pass.
	reg := genRegistry(t, registry.Settings{})
	reg.RegisterApply("Channel", func(ctx context.Context, c *tree.Component, cfg *Config) error {
		return cfg.Require(0.0, "controllers", "con1", "analog_outputs", "3", "offset")
	})

	root := genTree(t, reg, false)
	data, diags, err := Generate(context.Background(), root, reg, nil)
	require.NoError(t, err)
	assert.Empty(t, diags)

	out := data["controllers"].(map[string]any)["con1"].(map[string]any)["analog_outputs"].(map[string]any)
	assert.Equal(t, 0.0, out["3"].(map[string]any)["offset"])
}
