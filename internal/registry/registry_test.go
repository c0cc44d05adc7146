package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/hwtree/internal/errs"
	"github.com/vk/hwtree/internal/typeexpr"
)

func portDescriptor() *Descriptor {
	return &Descriptor{
		Tag: "Port",
		Fields: []Field{
			{Name: "number", Type: typeexpr.Int, Required: true},
			{Name: "offset", Type: typeexpr.Float, Default: cty.Zero, HasDefault: true},
		},
	}
}

func TestRegisterAndResolve(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(portDescriptor()))

	d, err := r.Resolve("Port")
	require.NoError(t, err)
	assert.Equal(t, "Port", d.Tag)

	f, ok := d.Field("offset")
	require.True(t, ok)
	assert.True(t, f.HasDefault)

	_, ok = d.Field("missing")
	assert.False(t, ok)
}

func TestResolveUnknownType(t *testing.T) {
	r := New()

	_, err := r.Resolve("Ghost")

	var unknownErr *errs.UnknownTypeError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "Ghost", unknownErr.Tag)
}

func TestRegisterIdempotent(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(portDescriptor()))

	// Same shape again is a no-op.
	require.NoError(t, r.Register(portDescriptor()))

	// A different shape under the same tag is an error.
	changed := portDescriptor()
	changed.Fields[1].Default = cty.NumberFloatVal(0.5)
	assert.Error(t, r.Register(changed))

	assert.Panics(t, func() { r.MustRegister(changed) })
}

func TestRegisterRejectsEmptyTag(t *testing.T) {
	r := New()
	assert.Error(t, r.Register(&Descriptor{}))
}

func TestTagsSorted(t *testing.T) {
	r := New()
	for _, tag := range []string{"Zeta", "Alpha", "Mid"} {
		require.NoError(t, r.Register(&Descriptor{Tag: tag}))
	}
	assert.Equal(t, []string{"Alpha", "Mid", "Zeta"}, r.Tags())
}

func TestRegisterApply(t *testing.T) {
	r := New()
	fn := func() {}
	r.RegisterApply("Port", fn)

	got, ok := r.Apply("Port")
	require.True(t, ok)
	assert.NotNil(t, got)

	_, ok = r.Apply("Other")
	assert.False(t, ok)

	assert.Panics(t, func() { r.RegisterApply("Port", fn) })
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name      string
		setup     func(r *Registry)
		expectErr bool
	}{
		{
			name: "consistent registry",
			setup: func(r *Registry) {
				r.MustRegister(portDescriptor())
				r.MustRegister(&Descriptor{Tag: "Sticky", Settings: Settings{After: []string{"Port"}}})
				r.RegisterApply("Port", func() {})
			},
			expectErr: false,
		},
		{
			name: "apply function without descriptor",
			setup: func(r *Registry) {
				r.RegisterApply("Ghost", func() {})
			},
			expectErr: true,
		},
		{
			name: "ordering hint names unknown type",
			setup: func(r *Registry) {
				r.MustRegister(&Descriptor{Tag: "Sticky", Settings: Settings{Before: []string{"Ghost"}}})
			},
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := New()
			tc.setup(r)

			err := r.Validate()
			if tc.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}
