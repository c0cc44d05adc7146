package typeexpr

import (
	"fmt"
	"reflect"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

// capsuleType carries a Type through cty expression evaluation.
var capsuleType = cty.Capsule("type expression", reflect.TypeOf(Type{}))

func wrap(t Type) cty.Value {
	return cty.CapsuleVal(capsuleType, &t)
}

func unwrap(v cty.Value) (Type, bool) {
	if v.IsNull() || !v.Type().Equals(capsuleType) {
		return Any, false
	}
	return *v.EncapsulatedValue().(*Type), true
}

func typeParam(name string) function.Parameter {
	return function.Parameter{Name: name, Type: capsuleType}
}

func unaryTypeFunc(build func(Type) Type) function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{typeParam("type")},
		Type:   function.StaticReturnType(capsuleType),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			t, ok := unwrap(args[0])
			if !ok {
				return cty.NilVal, fmt.Errorf("argument is not a type expression")
			}
			return wrap(build(t)), nil
		},
	})
}

var evalFuncs = map[string]function.Function{
	"optional": unaryTypeFunc(Optional),
	"list":     unaryTypeFunc(List),
	"map": function.New(&function.Spec{
		Params: []function.Parameter{typeParam("key"), typeParam("value")},
		Type:   function.StaticReturnType(capsuleType),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			kt, ok := unwrap(args[0])
			if !ok {
				return cty.NilVal, fmt.Errorf("map key is not a type expression")
			}
			vt, ok := unwrap(args[1])
			if !ok {
				return cty.NilVal, fmt.Errorf("map value is not a type expression")
			}
			if kt.Kind() != KindInt && kt.Kind() != KindString {
				return cty.NilVal, fmt.Errorf("map keys must be int or string, got %s", kt)
			}
			return wrap(Map(kt, vt)), nil
		},
	}),
	"union": function.New(&function.Spec{
		Params: []function.Parameter{typeParam("first"), typeParam("second")},
		VarParam: &function.Parameter{
			Name: "rest",
			Type: capsuleType,
		},
		Type: function.StaticReturnType(capsuleType),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			members := make([]Type, len(args))
			for i, arg := range args {
				t, ok := unwrap(arg)
				if !ok {
					return cty.NilVal, fmt.Errorf("union member %d is not a type expression", i+1)
				}
				members[i] = t
			}
			return wrap(Union(members...)), nil
		},
	}),
	"literal": function.New(&function.Spec{
		Params: []function.Parameter{{Name: "first", Type: cty.DynamicPseudoType}},
		VarParam: &function.Parameter{
			Name: "rest",
			Type: cty.DynamicPseudoType,
		},
		Type: function.StaticReturnType(capsuleType),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			for i, arg := range args {
				if !arg.Type().IsPrimitiveType() {
					return cty.NilVal, fmt.Errorf("literal-set member %d is not a scalar", i+1)
				}
			}
			return wrap(Literal(args...)), nil
		},
	}),
}

var evalVars = map[string]cty.Value{
	"any":    wrap(Any),
	"bool":   wrap(Bool),
	"int":    wrap(Int),
	"float":  wrap(Float),
	"string": wrap(String),
}

// Eval evaluates an HCL expression as a type constraint. Bare identifiers
// beyond the primitive keywords are taken as component type tags, so a
// manifest can write `union(SingleChannel, IQChannel)` directly. Tag
// existence is checked later, at registry resolution time.
func Eval(expr hcl.Expression) (Type, hcl.Diagnostics) {
	vars := make(map[string]cty.Value, len(evalVars))
	for name, v := range evalVars {
		vars[name] = v
	}
	for _, traversal := range expr.Variables() {
		name := traversal.RootName()
		if _, known := vars[name]; !known {
			vars[name] = wrap(Component(name))
		}
	}

	val, diags := expr.Value(&hcl.EvalContext{
		Variables: vars,
		Functions: evalFuncs,
	})
	if diags.HasErrors() {
		return Any, diags
	}

	t, ok := unwrap(val)
	if !ok {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid type constraint",
			Detail:   "Expression does not evaluate to a type expression.",
			Subject:  expr.Range().Ptr(),
		})
		return Any, diags
	}
	return t, diags
}
