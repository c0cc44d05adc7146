// Package serialize walks a live component tree and produces the ordered
// literal document form.
//
// Fields walk in declaration order, values equal to their declared default
// are omitted, reference fields emit their token untouched, and a component
// in a polymorphic slot carries its explicit type tag so the instantiator
// can pick the exact concrete type back out.
package serialize

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/hwtree/internal/literal"
	"github.com/vk/hwtree/internal/tree"
	"github.com/vk/hwtree/internal/typeexpr"
)

// Options configures one serialization call. The zero value omits defaults
// and ignores nothing.
type Options struct {
	// IncludeDefaults keeps fields whose value equals the declared default.
	IncludeDefaults bool

	// Ignore is a set of field names skipped on every component; names that
	// do not exist on a node are silently irrelevant.
	Ignore map[string]struct{}
}

// Component serializes a component to its literal mapping. The top-level
// component always carries its type tag.
func Component(c *tree.Component, opts Options) (*literal.Mapping, error) {
	return marshalComponent(c, opts, true)
}

func marshalComponent(c *tree.Component, opts Options, needTag bool) (*literal.Mapping, error) {
	out := literal.NewMapping()
	for _, f := range c.Descriptor().Fields {
		if _, skip := opts.Ignore[f.Name]; skip {
			continue
		}
		raw, err := c.Raw(f.Name)
		if err != nil {
			return nil, err
		}
		if raw == nil {
			continue
		}
		lit, err := marshalValue(raw, f.Type, opts)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		if !opts.IncludeDefaults && f.HasDefault && literal.Equal(lit, f.Default) {
			continue
		}
		out.SetString(f.Name, lit)
	}
	if needTag {
		out.SetString(literal.TagKey, cty.StringVal(c.Tag()))
	}
	return out, nil
}

func marshalValue(v any, declared typeexpr.Type, opts Options) (any, error) {
	switch val := v.(type) {
	case *tree.Reference:
		return cty.StringVal(val.Token()), nil
	case cty.Value:
		return val, nil
	case *tree.Component:
		return marshalComponent(val, opts, needsTag(val.Tag(), declared))
	case *tree.List:
		elemType := elemTypeOf(declared)
		seq := &literal.Sequence{Elems: make([]any, 0, val.Len())}
		for i := 0; i < val.Len(); i++ {
			raw, err := val.Raw(i)
			if err != nil {
				return nil, err
			}
			lit, err := marshalValue(raw, elemType, opts)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			seq.Elems = append(seq.Elems, lit)
		}
		return seq, nil
	case *tree.Dict:
		valueType := valueTypeOf(declared)
		out := literal.NewMapping()
		for _, key := range val.Keys() {
			raw, err := val.Raw(key)
			if err != nil {
				return nil, err
			}
			lit, err := marshalValue(raw, valueType, opts)
			if err != nil {
				return nil, fmt.Errorf("key %s: %w", typeexpr.FormatValue(key), err)
			}
			out.Set(key, lit)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported tree value of type %T", v)
	}
}

// needsTag reports whether a component value must carry an explicit type
// tag: always, unless its slot declares exactly that concrete type.
func needsTag(tag string, declared typeexpr.Type) bool {
	d := declared.Unwrap()
	return !(d.Kind() == typeexpr.KindComponent && d.Tag() == tag)
}

func elemTypeOf(declared typeexpr.Type) typeexpr.Type {
	switch d := declared.Unwrap(); d.Kind() {
	case typeexpr.KindList:
		return d.Elem()
	case typeexpr.KindFloat:
		// Numeric-array tolerance: a float slot holding samples.
		return typeexpr.Float
	default:
		return typeexpr.Any
	}
}

func valueTypeOf(declared typeexpr.Type) typeexpr.Type {
	if d := declared.Unwrap(); d.Kind() == typeexpr.KindMap {
		return d.Elem()
	}
	return typeexpr.Any
}
