package tree

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// Scalar convenience accessors used by contribution functions. Each
// resolves references like Get and converts the cty scalar to its Go form.

func (c *Component) GetString(name string) (string, error) {
	v, err := c.scalarField(name, cty.String)
	if err != nil {
		return "", err
	}
	return v.AsString(), nil
}

func (c *Component) GetBool(name string) (bool, error) {
	v, err := c.scalarField(name, cty.Bool)
	if err != nil {
		return false, err
	}
	return v.True(), nil
}

func (c *Component) GetInt(name string) (int64, error) {
	v, err := c.scalarField(name, cty.Number)
	if err != nil {
		return 0, err
	}
	n, acc := v.AsBigFloat().Int64()
	if acc != 0 {
		return 0, fmt.Errorf("field %q is not an integer", name)
	}
	return n, nil
}

func (c *Component) GetFloat(name string) (float64, error) {
	v, err := c.scalarField(name, cty.Number)
	if err != nil {
		return 0, err
	}
	f, _ := v.AsBigFloat().Float64()
	return f, nil
}

func (c *Component) scalarField(name string, want cty.Type) (cty.Value, error) {
	v, err := c.Get(name)
	if err != nil {
		return cty.NilVal, err
	}
	scalar, ok := v.(cty.Value)
	if !ok || scalar.IsNull() || scalar.Type() != want {
		return cty.NilVal, fmt.Errorf("field %q is not a %s scalar", name, want.FriendlyName())
	}
	return scalar, nil
}
