package tree

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/hwtree/internal/errs"
	"github.com/vk/hwtree/internal/literal"
	"github.com/vk/hwtree/internal/refpath"
)

// adopt converts an incoming value into its tree form and attaches any node
// to parent. Plain Go scalars are converted to cty values; a string in
// reference-token form becomes a *Reference; []any becomes a *List.
func adopt(v any, parent Node) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case *Reference:
		return val, nil
	case *Component, *List, *Dict:
		n := val.(Node)
		if err := attach(n, parent); err != nil {
			return nil, err
		}
		return val, nil
	case cty.Value:
		if val.IsNull() {
			return nil, nil
		}
		if val.Type() == cty.String && refpath.IsToken(val.AsString()) {
			return NewReference(val.AsString()), nil
		}
		if !val.Type().IsPrimitiveType() {
			return nil, fmt.Errorf("composite cty value %s is not a valid tree scalar", val.Type().FriendlyName())
		}
		return val, nil
	case string:
		if refpath.IsToken(val) {
			return NewReference(val), nil
		}
		return cty.StringVal(val), nil
	case bool:
		return cty.BoolVal(val), nil
	case int:
		return cty.NumberIntVal(int64(val)), nil
	case int64:
		return cty.NumberIntVal(val), nil
	case float64:
		return cty.NumberFloatVal(val), nil
	case []any:
		list := NewList()
		if err := attach(list, parent); err != nil {
			return nil, err
		}
		for _, elem := range val {
			if err := list.Append(elem); err != nil {
				return nil, err
			}
		}
		return list, nil
	default:
		return nil, fmt.Errorf("unsupported value of type %T", v)
	}
}

// fromLiteral materializes a literal-domain value (used for descriptor
// defaults) as a tree value attached to parent. Component literals are not
// supported here; defaults are data, not component graphs.
func fromLiteral(v any, parent Node) (any, error) {
	switch val := v.(type) {
	case *literal.Mapping:
		dict := NewDict()
		if err := attach(dict, parent); err != nil {
			return nil, err
		}
		for _, p := range val.Pairs() {
			if err := dict.Set(p.Key, literal.Copy(p.Value)); err != nil {
				return nil, err
			}
		}
		return dict, nil
	case *literal.Sequence:
		list := NewList()
		if err := attach(list, parent); err != nil {
			return nil, err
		}
		for _, elem := range val.Elems {
			if err := list.Append(literal.Copy(elem)); err != nil {
				return nil, err
			}
		}
		return list, nil
	default:
		return adopt(v, parent)
	}
}

// checkOverwrite enforces the reference-overwrite invariant on the current
// slot value: a reference that presently resolves may not be replaced
// directly. A dangling reference may, since nothing dereferenced is lost.
func checkOverwrite(owner Node, slot string, cur any) error {
	ref, ok := cur.(*Reference)
	if !ok {
		return nil
	}
	root, found := RootOf(owner)
	if !found {
		return nil
	}
	if _, err := Resolve(root, ref.Token()); err == nil {
		return &errs.ReferenceOverwriteError{Field: slot, Token: ref.Token()}
	}
	return nil
}

// resolveRead dereferences v when it is a reference, using the root above
// owner. Non-reference values pass through untouched.
func resolveRead(owner Node, v any) (any, error) {
	ref, ok := v.(*Reference)
	if !ok {
		return v, nil
	}
	root, found := RootOf(owner)
	if !found {
		return nil, &errs.UnresolvedReferenceError{
			Token:  ref.Token(),
			Reason: "node is detached from any root",
		}
	}
	return Resolve(root, ref.Token())
}
