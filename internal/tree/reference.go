package tree

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/hwtree/internal/errs"
	"github.com/vk/hwtree/internal/refpath"
)

// Reference is a string token standing in for a value located elsewhere in
// the tree, resolved on read. Its serialized form is the token itself.
type Reference struct {
	token string
}

// NewReference wraps a reference token. The token is not validated here;
// resolution is lazy, so forward references are legal until dereferenced.
func NewReference(token string) *Reference {
	return &Reference{token: token}
}

// Token returns the raw token.
func (r *Reference) Token() string { return r.token }

func (r *Reference) String() string { return r.token }

// Resolve walks a reference token from root to its target value. Chains
// (a reference whose target is itself a reference) are followed to a fixed
// point; revisiting a token fails with ReferenceCycleError.
func Resolve(root *Component, token string) (any, error) {
	return resolveToken(root, token, nil)
}

func resolveToken(root *Component, token string, chain []string) (any, error) {
	for _, seen := range chain {
		if seen == token {
			return nil, &errs.ReferenceCycleError{Chain: append(chain, token)}
		}
	}
	chain = append(chain, token)

	path, err := refpath.Parse(token)
	if err != nil {
		return nil, &errs.UnresolvedReferenceError{Token: token, Reason: err.Error()}
	}

	var cur any = root
	for _, step := range path.Steps {
		if cur, err = derefChain(root, cur, chain); err != nil {
			return nil, err
		}
		if cur, err = lookupStepName(cur, step, token); err != nil {
			return nil, err
		}
		for _, idx := range step.Indexes {
			if cur, err = derefChain(root, cur, chain); err != nil {
				return nil, err
			}
			list, ok := cur.(*List)
			if !ok {
				return nil, &errs.UnresolvedReferenceError{
					Token:  token,
					Reason: fmt.Sprintf("segment %q indexes a non-sequence", step.Name),
				}
			}
			if cur, err = list.Raw(idx); err != nil {
				return nil, &errs.UnresolvedReferenceError{Token: token, Reason: err.Error()}
			}
		}
	}

	final, err := derefChain(root, cur, chain)
	if err != nil {
		return nil, err
	}
	if final == nil {
		return nil, &errs.UnresolvedReferenceError{Token: token, Reason: "target is unset"}
	}
	return final, nil
}

func derefChain(root *Component, v any, chain []string) (any, error) {
	ref, ok := v.(*Reference)
	if !ok {
		return v, nil
	}
	return resolveToken(root, ref.token, chain)
}

func lookupStepName(cur any, step refpath.Step, token string) (any, error) {
	switch n := cur.(type) {
	case *Component:
		v, err := n.Raw(step.Name)
		if err != nil {
			return nil, &errs.UnresolvedReferenceError{Token: token, Reason: err.Error()}
		}
		if v == nil {
			return nil, &errs.UnresolvedReferenceError{
				Token:  token,
				Reason: fmt.Sprintf("field %q is unset", step.Name),
			}
		}
		return v, nil
	case *Dict:
		key := cty.StringVal(step.Name)
		if intKey, ok := step.IntKey(); ok {
			key = cty.NumberIntVal(intKey)
		}
		v, err := n.Raw(key)
		if err != nil {
			return nil, &errs.UnresolvedReferenceError{
				Token:  token,
				Reason: fmt.Sprintf("mapping has no key %q", step.Name),
			}
		}
		return v, nil
	default:
		return nil, &errs.UnresolvedReferenceError{
			Token:  token,
			Reason: fmt.Sprintf("segment %q addresses into a non-container", step.Name),
		}
	}
}
