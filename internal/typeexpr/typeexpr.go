// Package typeexpr models the type expressions that component type
// descriptors use for their fields: primitives, component tags, and the
// optional / union / literal-set / sequence / keyed-mapping combinators.
//
// Expressions are built either with the Go constructors in this package or
// evaluated from HCL type-constraint expressions (see Eval).
package typeexpr

import (
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// Kind discriminates the variants of a Type.
type Kind int

const (
	KindAny Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindComponent
	KindOptional
	KindUnion
	KindLiteral
	KindList
	KindMap
)

// Type is a type expression. The zero value is Any.
type Type struct {
	kind    Kind
	tag     string      // KindComponent
	elem    *Type       // KindOptional, KindList; value type for KindMap
	key     *Type       // KindMap
	members []Type      // KindUnion
	values  []cty.Value // KindLiteral
}

// Primitive and wildcard types.
var (
	Any    = Type{kind: KindAny}
	Bool   = Type{kind: KindBool}
	Int    = Type{kind: KindInt}
	Float  = Type{kind: KindFloat}
	String = Type{kind: KindString}
)

// Component returns a type expression for the component type with the given
// registry tag.
func Component(tag string) Type {
	return Type{kind: KindComponent, tag: tag}
}

// Optional returns a type expression accepting either t or the unset state.
func Optional(t Type) Type {
	return Type{kind: KindOptional, elem: &t}
}

// Union returns a closed tagged union over the given members, tried in
// declaration order during instantiation.
func Union(members ...Type) Type {
	if len(members) < 2 {
		panic("typeexpr: union requires at least two members")
	}
	return Type{kind: KindUnion, members: members}
}

// Literal returns a literal-set constraint accepting only the given scalar
// values.
func Literal(values ...cty.Value) Type {
	if len(values) == 0 {
		panic("typeexpr: literal set requires at least one value")
	}
	return Type{kind: KindLiteral, values: values}
}

// List returns a type expression for an ordered sequence of elem.
func List(elem Type) Type {
	return Type{kind: KindList, elem: &elem}
}

// Map returns a type expression for a keyed mapping. Key must be Int or
// String; arbitrary scalar keys beyond those have no document form.
func Map(key, value Type) Type {
	if key.kind != KindInt && key.kind != KindString {
		panic("typeexpr: map keys must be int or string")
	}
	return Type{kind: KindMap, key: &key, elem: &value}
}

// Kind returns the variant of the type expression.
func (t Type) Kind() Kind { return t.kind }

// Tag returns the component tag for KindComponent types.
func (t Type) Tag() string { return t.tag }

// Elem returns the element type for Optional, List and Map types.
func (t Type) Elem() Type {
	if t.elem == nil {
		return Any
	}
	return *t.elem
}

// Key returns the key type for Map types.
func (t Type) Key() Type {
	if t.key == nil {
		return String
	}
	return *t.key
}

// Members returns the members of a Union type.
func (t Type) Members() []Type { return t.members }

// Values returns the allowed values of a Literal type.
func (t Type) Values() []cty.Value { return t.values }

// Unwrap strips Optional wrappers, returning the underlying type.
func (t Type) Unwrap() Type {
	for t.kind == KindOptional {
		t = t.Elem()
	}
	return t
}

// Equal reports structural equality of two type expressions.
func (t Type) Equal(other Type) bool {
	if t.kind != other.kind || t.tag != other.tag {
		return false
	}
	if (t.elem == nil) != (other.elem == nil) {
		return false
	}
	if t.elem != nil && !t.elem.Equal(*other.elem) {
		return false
	}
	if (t.key == nil) != (other.key == nil) {
		return false
	}
	if t.key != nil && !t.key.Equal(*other.key) {
		return false
	}
	if len(t.members) != len(other.members) {
		return false
	}
	for i := range t.members {
		if !t.members[i].Equal(other.members[i]) {
			return false
		}
	}
	if len(t.values) != len(other.values) {
		return false
	}
	for i := range t.values {
		if !t.values[i].RawEquals(other.values[i]) {
			return false
		}
	}
	return true
}

// String renders the canonical form used in diagnostics, e.g.
// "map(int, union(SingleChannel, IQChannel))".
func (t Type) String() string {
	switch t.kind {
	case KindAny:
		return "any"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindComponent:
		return t.tag
	case KindOptional:
		return fmt.Sprintf("optional(%s)", t.Elem())
	case KindList:
		return fmt.Sprintf("list(%s)", t.Elem())
	case KindMap:
		return fmt.Sprintf("map(%s, %s)", t.Key(), t.Elem())
	case KindUnion:
		names := make([]string, len(t.members))
		for i, m := range t.members {
			names[i] = m.String()
		}
		return fmt.Sprintf("union(%s)", strings.Join(names, ", "))
	case KindLiteral:
		vals := make([]string, len(t.values))
		for i, v := range t.values {
			vals[i] = FormatValue(v)
		}
		return fmt.Sprintf("literal(%s)", strings.Join(vals, ", "))
	default:
		return "?"
	}
}

// FormatValue renders a scalar cty value for diagnostics.
func FormatValue(v cty.Value) string {
	if v.IsNull() {
		return "null"
	}
	switch v.Type() {
	case cty.String:
		return fmt.Sprintf("%q", v.AsString())
	case cty.Number:
		return v.AsBigFloat().Text('f', -1)
	case cty.Bool:
		if v.True() {
			return "true"
		}
		return "false"
	default:
		return v.GoString()
	}
}
