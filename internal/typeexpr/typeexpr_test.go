package typeexpr

import (
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestString(t *testing.T) {
	testCases := []struct {
		name     string
		typ      Type
		expected string
	}{
		{name: "any", typ: Any, expected: "any"},
		{name: "zero value is any", typ: Type{}, expected: "any"},
		{name: "component", typ: Component("SingleChannel"), expected: "SingleChannel"},
		{name: "optional", typ: Optional(Int), expected: "optional(int)"},
		{name: "list", typ: List(Float), expected: "list(float)"},
		{
			name:     "map with int keys",
			typ:      Map(Int, Component("Port")),
			expected: "map(int, Port)",
		},
		{
			name:     "union",
			typ:      Union(Component("SingleChannel"), Component("IQChannel")),
			expected: "union(SingleChannel, IQChannel)",
		},
		{
			name:     "literal set",
			typ:      Literal(cty.StringVal("direct"), cty.StringVal("amplified")),
			expected: `literal("direct", "amplified")`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.typ.String())
		})
	}
}

func TestEqual(t *testing.T) {
	assert.True(t, Optional(Int).Equal(Optional(Int)))
	assert.True(t, Map(Int, String).Equal(Map(Int, String)))
	assert.False(t, Optional(Int).Equal(Optional(Float)))
	assert.False(t, Map(Int, String).Equal(Map(String, String)))
	assert.False(t, Component("A").Equal(Component("B")))
	assert.False(t, Union(Int, Float).Equal(Union(Float, Int)), "union member order is significant")
	assert.True(t, Literal(cty.NumberIntVal(1)).Equal(Literal(cty.NumberIntVal(1))))
	assert.False(t, Literal(cty.NumberIntVal(1)).Equal(Literal(cty.StringVal("1"))))
}

func TestUnwrap(t *testing.T) {
	assert.Equal(t, KindInt, Optional(Optional(Int)).Unwrap().Kind())
	assert.Equal(t, KindList, List(Int).Unwrap().Kind())
}

func TestMapKeyPanics(t *testing.T) {
	assert.Panics(t, func() { Map(Float, String) })
	assert.Panics(t, func() { Union(Int) })
	assert.Panics(t, func() { Literal() })
}

func mustParseExpr(t *testing.T, src string) hcl.Expression {
	t.Helper()
	expr, diags := hclsyntax.ParseExpression([]byte(src), "test.hcl", hcl.InitialPos)
	require.False(t, diags.HasErrors(), diags.Error())
	return expr
}

func TestEval(t *testing.T) {
	testCases := []struct {
		name      string
		src       string
		expectErr bool
		expected  Type
	}{
		{
			name:     "primitive",
			src:      "float",
			expected: Float,
		},
		{
			name:     "bare identifier becomes component tag",
			src:      "Sticky",
			expected: Component("Sticky"),
		},
		{
			name:     "optional of component",
			src:      "optional(Sticky)",
			expected: Optional(Component("Sticky")),
		},
		{
			name:     "nested map and union",
			src:      "map(string, union(SingleChannel, IQChannel))",
			expected: Map(String, Union(Component("SingleChannel"), Component("IQChannel"))),
		},
		{
			name:     "literal set of strings",
			src:      `literal("direct", "amplified")`,
			expected: Literal(cty.StringVal("direct"), cty.StringVal("amplified")),
		},
		{
			name:     "list of int",
			src:      "list(int)",
			expected: List(Int),
		},
		{
			name:      "error - map key must be scalar",
			src:       "map(float, int)",
			expectErr: true,
		},
		{
			name:      "error - union needs two members",
			src:       "union(int)",
			expectErr: true,
		},
		{
			name:      "error - plain value is not a type",
			src:       `"hello"`,
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			typ, diags := Eval(mustParseExpr(t, tc.src))

			if tc.expectErr {
				require.True(t, diags.HasErrors())
				return
			}

			require.False(t, diags.HasErrors(), diags.Error())
			assert.True(t, tc.expected.Equal(typ), "got %s, want %s", typ, tc.expected)
		})
	}
}
