// Package instantiate reconstructs a live component tree from a literal
// document, directed by the expected type expression at each slot and the
// registered type descriptors.
//
// Reference tokens are wrapped, never chased: resolution stays lazy so a
// document may reference siblings that load later in the same pass.
package instantiate

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/hwtree/internal/errs"
	"github.com/vk/hwtree/internal/literal"
	"github.com/vk/hwtree/internal/refpath"
	"github.com/vk/hwtree/internal/registry"
	"github.com/vk/hwtree/internal/tree"
	"github.com/vk/hwtree/internal/typeexpr"
)

// Root instantiates a whole document. The top-level mapping must carry an
// explicit type tag, since the root's concrete type is never implied by a
// slot.
func Root(doc any, reg *registry.Registry) (*tree.Component, error) {
	m, ok := doc.(*literal.Mapping)
	if !ok {
		return nil, &errs.TypeMismatchError{
			Path:     "/",
			Expected: "component mapping",
			Detail:   fmt.Sprintf("document is %s", describe(doc)),
		}
	}
	tag, ok := explicitTag(m)
	if !ok {
		return nil, &errs.TypeMismatchError{
			Path:     "/",
			Expected: "component mapping",
			Detail:   fmt.Sprintf("root document has no %q key", literal.TagKey),
		}
	}
	desc, err := reg.Resolve(tag)
	if err != nil {
		return nil, err
	}

	in := &inst{reg: reg}
	root, err := in.component(m, desc, "")
	if err != nil {
		return nil, err
	}
	if err := tree.MakeRoot(root); err != nil {
		return nil, err
	}
	return root, nil
}

// Value instantiates a single literal against an expected type expression.
func Value(lit any, want typeexpr.Type, reg *registry.Registry) (any, error) {
	in := &inst{reg: reg}
	return in.value(lit, want, "")
}

type inst struct {
	reg *registry.Registry
}

func (in *inst) value(lit any, want typeexpr.Type, path string) (any, error) {
	// A reference token short-circuits everything, including class-typed
	// slots: the resolver owns its meaning, not the instantiator.
	if token, ok := tokenString(lit); ok {
		return tree.NewReference(token), nil
	}

	if want.Kind() == typeexpr.KindOptional {
		if isNull(lit) {
			return nil, nil
		}
		return in.value(lit, want.Elem(), path)
	}

	if isNull(lit) {
		return nil, nil
	}

	// An explicit tag picks the concrete type; the slot's declared type
	// only has to be compatible with it.
	if m, ok := lit.(*literal.Mapping); ok {
		if tag, tagged := explicitTag(m); tagged {
			if !tagCompatible(tag, want) {
				return nil, &errs.TypeMismatchError{
					Path:     display(path),
					Expected: want.String(),
					Detail:   fmt.Sprintf("explicit tag %q is not compatible", tag),
				}
			}
			desc, err := in.reg.Resolve(tag)
			if err != nil {
				return nil, err
			}
			return in.component(m, desc, path)
		}
	}

	switch want.Kind() {
	case typeexpr.KindAny:
		return in.anyValue(lit, path)
	case typeexpr.KindBool:
		return in.scalar(lit, cty.Bool, want, path)
	case typeexpr.KindString:
		return in.scalar(lit, cty.String, want, path)
	case typeexpr.KindInt:
		return in.intValue(lit, want, path)
	case typeexpr.KindFloat:
		return in.floatValue(lit, want, path)
	case typeexpr.KindLiteral:
		return in.literalSet(lit, want, path)
	case typeexpr.KindComponent:
		return in.componentSlot(lit, want, path)
	case typeexpr.KindUnion:
		return in.union(lit, want, path)
	case typeexpr.KindList:
		return in.list(lit, want, path)
	case typeexpr.KindMap:
		return in.mapping(lit, want, path)
	default:
		return nil, &errs.TypeMismatchError{Path: display(path), Expected: want.String()}
	}
}

func (in *inst) component(m *literal.Mapping, desc *registry.Descriptor, path string) (*tree.Component, error) {
	values := make(map[string]any, m.Len())
	for _, p := range m.Pairs() {
		if p.Key.Type() != cty.String {
			return nil, &errs.TypeMismatchError{
				Path:     display(path),
				Expected: desc.Tag,
				Detail:   fmt.Sprintf("component fields use string keys, got %s", typeexpr.FormatValue(p.Key)),
			}
		}
		name := p.Key.AsString()
		if name == literal.TagKey {
			continue
		}
		f, ok := desc.Field(name)
		if !ok {
			return nil, &errs.TypeMismatchError{
				Path:     display(path),
				Expected: desc.Tag,
				Detail:   fmt.Sprintf("unknown field %q", name),
			}
		}
		v, err := in.value(p.Value, f.Type, path+"/"+name)
		if err != nil {
			return nil, err
		}
		values[name] = v
	}

	for _, f := range desc.Fields {
		if !f.Required || f.HasDefault {
			continue
		}
		if _, present := values[f.Name]; !present {
			return nil, &errs.MissingFieldError{Path: display(path), Field: f.Name}
		}
	}

	c, err := tree.Build(desc, values)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", display(path), err)
	}
	return c, nil
}

func (in *inst) componentSlot(lit any, want typeexpr.Type, path string) (any, error) {
	m, ok := lit.(*literal.Mapping)
	if !ok {
		return nil, &errs.TypeMismatchError{
			Path:     display(path),
			Expected: want.String(),
			Detail:   fmt.Sprintf("literal is %s", describe(lit)),
		}
	}
	desc, err := in.reg.Resolve(want.Tag())
	if err != nil {
		return nil, err
	}
	return in.component(m, desc, path)
}

// union tries members in declaration order. When the literal is a mapping,
// component members are preferred over a lone primitive member.
func (in *inst) union(lit any, want typeexpr.Type, path string) (any, error) {
	members := want.Members()
	ordered := members
	if _, isMapping := lit.(*literal.Mapping); isMapping {
		ordered = componentsFirst(members)
	}
	for _, member := range ordered {
		v, err := in.value(lit, member, path)
		if err == nil {
			return v, nil
		}
	}
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.String()
	}
	return nil, &errs.AmbiguousTypeError{Path: display(path), Members: names}
}

func componentsFirst(members []typeexpr.Type) []typeexpr.Type {
	ordered := make([]typeexpr.Type, 0, len(members))
	var rest []typeexpr.Type
	for _, m := range members {
		if m.Unwrap().Kind() == typeexpr.KindComponent {
			ordered = append(ordered, m)
		} else {
			rest = append(rest, m)
		}
	}
	return append(ordered, rest...)
}

func (in *inst) literalSet(lit any, want typeexpr.Type, path string) (any, error) {
	v, ok := lit.(cty.Value)
	if ok {
		for _, allowed := range want.Values() {
			if v.RawEquals(allowed) {
				return v, nil
			}
		}
	}
	allowed := make([]string, len(want.Values()))
	for i, a := range want.Values() {
		allowed[i] = typeexpr.FormatValue(a)
	}
	return nil, &errs.InvalidLiteralValueError{
		Path:    display(path),
		Value:   describe(lit),
		Allowed: allowed,
	}
}

func (in *inst) list(lit any, want typeexpr.Type, path string) (any, error) {
	seq, ok := lit.(*literal.Sequence)
	if !ok {
		return nil, &errs.TypeMismatchError{
			Path:     display(path),
			Expected: want.String(),
			Detail:   fmt.Sprintf("literal is %s", describe(lit)),
		}
	}
	out := tree.NewList()
	for i, elem := range seq.Elems {
		v, err := in.value(elem, want.Elem(), fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		if err := out.Append(v); err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", display(path), i, err)
		}
	}
	return out, nil
}

func (in *inst) mapping(lit any, want typeexpr.Type, path string) (any, error) {
	m, ok := lit.(*literal.Mapping)
	if !ok {
		return nil, &errs.TypeMismatchError{
			Path:     display(path),
			Expected: want.String(),
			Detail:   fmt.Sprintf("literal is %s", describe(lit)),
		}
	}
	out := tree.NewDict()
	for _, p := range m.Pairs() {
		key, err := coerceKey(p.Key, want.Key(), path)
		if err != nil {
			return nil, err
		}
		v, err := in.value(p.Value, want.Elem(), path+"/"+keyPathSegment(key))
		if err != nil {
			return nil, err
		}
		if err := out.Set(key, v); err != nil {
			return nil, fmt.Errorf("%s: %w", display(path), err)
		}
	}
	return out, nil
}

func (in *inst) anyValue(lit any, path string) (any, error) {
	switch v := lit.(type) {
	case *literal.Mapping:
		// Tagged mappings were intercepted in value(); the rest are plain
		// keyed mappings.
		out := tree.NewDict()
		for _, p := range v.Pairs() {
			elem, err := in.value(p.Value, typeexpr.Any, path+"/"+keyPathSegment(p.Key))
			if err != nil {
				return nil, err
			}
			if err := out.Set(p.Key, elem); err != nil {
				return nil, fmt.Errorf("%s: %w", display(path), err)
			}
		}
		return out, nil
	case *literal.Sequence:
		out := tree.NewList()
		for i, elem := range v.Elems {
			converted, err := in.value(elem, typeexpr.Any, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			if err := out.Append(converted); err != nil {
				return nil, fmt.Errorf("%s[%d]: %w", display(path), i, err)
			}
		}
		return out, nil
	case cty.Value:
		return v, nil
	default:
		return nil, &errs.TypeMismatchError{
			Path:     display(path),
			Expected: "any",
			Detail:   fmt.Sprintf("unsupported literal of type %T", lit),
		}
	}
}

func (in *inst) scalar(lit any, ctyType cty.Type, want typeexpr.Type, path string) (any, error) {
	v, ok := lit.(cty.Value)
	if !ok || v.Type() != ctyType {
		return nil, &errs.TypeMismatchError{
			Path:     display(path),
			Expected: want.String(),
			Detail:   fmt.Sprintf("literal is %s", describe(lit)),
		}
	}
	return v, nil
}

func (in *inst) intValue(lit any, want typeexpr.Type, path string) (any, error) {
	v, ok := lit.(cty.Value)
	if !ok || v.Type() != cty.Number || !v.AsBigFloat().IsInt() {
		return nil, &errs.TypeMismatchError{
			Path:     display(path),
			Expected: want.String(),
			Detail:   fmt.Sprintf("literal is %s", describe(lit)),
		}
	}
	return v, nil
}

// floatValue accepts any number (integer literals included) and, as the
// structural tolerance for waveform-style data, a homogeneous numeric
// sequence.
func (in *inst) floatValue(lit any, want typeexpr.Type, path string) (any, error) {
	if v, ok := lit.(cty.Value); ok && v.Type() == cty.Number {
		return v, nil
	}
	if seq, ok := lit.(*literal.Sequence); ok {
		out := tree.NewList()
		for i, elem := range seq.Elems {
			num, isVal := elem.(cty.Value)
			if !isVal || num.Type() != cty.Number {
				return nil, &errs.TypeMismatchError{
					Path:     display(path),
					Expected: want.String(),
					Detail:   fmt.Sprintf("array element %d is %s, not a number", i, describe(elem)),
				}
			}
			if err := out.Append(num); err != nil {
				return nil, fmt.Errorf("%s[%d]: %w", display(path), i, err)
			}
		}
		return out, nil
	}
	return nil, &errs.TypeMismatchError{
		Path:     display(path),
		Expected: want.String(),
		Detail:   fmt.Sprintf("literal is %s", describe(lit)),
	}
}

func coerceKey(key cty.Value, want typeexpr.Type, path string) (cty.Value, error) {
	switch want.Kind() {
	case typeexpr.KindInt:
		if key.Type() == cty.Number && key.AsBigFloat().IsInt() {
			return key, nil
		}
		return cty.NilVal, &errs.TypeMismatchError{
			Path:     display(path),
			Expected: "integer mapping key",
			Detail:   fmt.Sprintf("got key %s", typeexpr.FormatValue(key)),
		}
	default:
		// Declared string keys: restore keys the JSON layer int-ified.
		if key.Type() == cty.Number {
			return cty.StringVal(key.AsBigFloat().Text('f', -1)), nil
		}
		return key, nil
	}
}

func tagCompatible(tag string, want typeexpr.Type) bool {
	switch w := want.Unwrap(); w.Kind() {
	case typeexpr.KindAny:
		return true
	case typeexpr.KindComponent:
		return w.Tag() == tag
	case typeexpr.KindUnion:
		for _, m := range w.Members() {
			if tagCompatible(tag, m) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func explicitTag(m *literal.Mapping) (string, bool) {
	v, ok := m.GetString(literal.TagKey)
	if !ok {
		return "", false
	}
	s, isVal := v.(cty.Value)
	if !isVal || s.IsNull() || s.Type() != cty.String {
		return "", false
	}
	return s.AsString(), true
}

func tokenString(lit any) (string, bool) {
	v, ok := lit.(cty.Value)
	if !ok || v.IsNull() || v.Type() != cty.String {
		return "", false
	}
	s := v.AsString()
	return s, refpath.IsToken(s)
}

func isNull(lit any) bool {
	if lit == nil {
		return true
	}
	v, ok := lit.(cty.Value)
	return ok && v.IsNull()
}

func keyPathSegment(key cty.Value) string {
	if key.Type() == cty.Number {
		return key.AsBigFloat().Text('f', -1)
	}
	if key.Type() == cty.String {
		return key.AsString()
	}
	return typeexpr.FormatValue(key)
}

func display(path string) string {
	if path == "" {
		return "/"
	}
	return path
}

func describe(lit any) string {
	switch v := lit.(type) {
	case nil:
		return "null"
	case *literal.Mapping:
		return "a mapping"
	case *literal.Sequence:
		return "a sequence"
	case cty.Value:
		if v.IsNull() {
			return "null"
		}
		return typeexpr.FormatValue(v)
	default:
		return fmt.Sprintf("%T", lit)
	}
}
