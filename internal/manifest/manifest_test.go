package manifest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/hwtree/internal/literal"
	"github.com/vk/hwtree/internal/registry"
	"github.com/vk/hwtree/internal/typeexpr"
)

const channelManifest = `
component "SingleChannel" {
  field "controller" {
    type     = string
    required = true
  }
  field "offset" {
    type    = float
    default = 0.0
  }
  field "mode" {
    type    = literal("direct", "amplified")
    default = "direct"
  }
  field "sticky" {
    type = optional(Sticky)
  }
}

component "Sticky" {
  field "duration" {
    type = int
  }

  settings {
    after = ["SingleChannel"]
  }
}
`

func TestLoadBytes(t *testing.T) {
	reg := registry.New()
	require.NoError(t, LoadBytes([]byte(channelManifest), "channels.hcl", reg))

	desc, err := reg.Resolve("SingleChannel")
	require.NoError(t, err)
	require.Len(t, desc.Fields, 4)

	controller, ok := desc.Field("controller")
	require.True(t, ok)
	assert.True(t, controller.Required)
	assert.True(t, typeexpr.String.Equal(controller.Type))
	assert.False(t, controller.HasDefault)

	offset, ok := desc.Field("offset")
	require.True(t, ok)
	assert.True(t, typeexpr.Float.Equal(offset.Type))
	require.True(t, offset.HasDefault)
	assert.True(t, literal.Equal(cty.Zero, offset.Default))

	mode, ok := desc.Field("mode")
	require.True(t, ok)
	assert.Equal(t, typeexpr.KindLiteral, mode.Type.Kind())

	sticky, ok := desc.Field("sticky")
	require.True(t, ok)
	assert.True(t, typeexpr.Optional(typeexpr.Component("Sticky")).Equal(sticky.Type))

	stickyDesc, err := reg.Resolve("Sticky")
	require.NoError(t, err)
	assert.Equal(t, []string{"SingleChannel"}, stickyDesc.Settings.After)
}

func TestLoadBytesIdempotent(t *testing.T) {
	reg := registry.New()
	require.NoError(t, LoadBytes([]byte(channelManifest), "channels.hcl", reg))
	require.NoError(t, LoadBytes([]byte(channelManifest), "channels.hcl", reg),
		"re-loading identical manifests is a no-op")

	conflicting := `
component "Sticky" {
  field "duration" {
    type = float
  }
}
`
	assert.Error(t, LoadBytes([]byte(conflicting), "other.hcl", reg),
		"a different shape under a registered tag is rejected")
}

func TestLoadBytesCompositeDefault(t *testing.T) {
	src := `
component "Waveform" {
  field "samples" {
    type    = list(float)
    default = [0.0, 0.1]
  }
  field "ports" {
    type    = map(string, string)
    default = { a = "con1" }
  }
}
`
	reg := registry.New()
	require.NoError(t, LoadBytes([]byte(src), "wf.hcl", reg))

	desc, err := reg.Resolve("Waveform")
	require.NoError(t, err)

	samples, _ := desc.Field("samples")
	seq, ok := samples.Default.(*literal.Sequence)
	require.True(t, ok)
	require.Len(t, seq.Elems, 2)

	ports, _ := desc.Field("ports")
	m, ok := ports.Default.(*literal.Mapping)
	require.True(t, ok)
	v, found := m.GetString("a")
	require.True(t, found)
	assert.True(t, cty.StringVal("con1").RawEquals(v.(cty.Value)))
}

func TestLoadBytesBadType(t *testing.T) {
	src := `
component "Broken" {
  field "x" {
    type = map(float, int)
  }
}
`
	reg := registry.New()
	assert.Error(t, LoadBytes([]byte(src), "broken.hcl", reg))
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "channels.hcl"), []byte(channelManifest), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	reg := registry.New()
	require.NoError(t, LoadDir(context.Background(), dir, reg))
	assert.Equal(t, []string{"SingleChannel", "Sticky"}, reg.Tags())
	require.NoError(t, reg.Validate())
}

func TestLoadDirEmpty(t *testing.T) {
	reg := registry.New()
	require.NoError(t, LoadDir(context.Background(), t.TempDir(), reg))
	assert.Empty(t, reg.Tags())
}

func TestLoadDirParseError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.hcl"), []byte(`component "X" {`), 0o644))

	reg := registry.New()
	assert.Error(t, LoadDir(context.Background(), dir, reg))
}
