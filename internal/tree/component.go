package tree

import (
	"fmt"

	"github.com/vk/hwtree/internal/registry"
)

// Component is one typed node of the hardware-description tree. Its field
// set is fixed by the registered type descriptor; fields hold scalars,
// nested nodes, or references.
type Component struct {
	desc   *registry.Descriptor
	parent Node
	isRoot bool

	// values holds the current field values; a field absent from the map
	// is in the unset state.
	values map[string]any
}

// New constructs a component of the given type with every defaulted field
// materialized.
func New(desc *registry.Descriptor) (*Component, error) {
	c := &Component{
		desc:   desc,
		values: make(map[string]any, len(desc.Fields)),
	}
	for _, f := range desc.Fields {
		if !f.HasDefault {
			continue
		}
		val, err := fromLiteral(f.Default, c)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: bad default: %w", desc.Tag, f.Name, err)
		}
		if val != nil {
			c.values[f.Name] = val
		}
	}
	return c, nil
}

// NewRoot constructs the distinguished root component, the anchor all
// canonical paths are computed from.
func NewRoot(desc *registry.Descriptor) (*Component, error) {
	c, err := New(desc)
	if err != nil {
		return nil, err
	}
	c.isRoot = true
	return c, nil
}

// MakeRoot promotes a parentless component to a distinguished root. The
// instantiator uses it on the top-level component of a loaded document.
func MakeRoot(c *Component) error {
	if c.parent != nil {
		return fmt.Errorf("component with a parent cannot become a root")
	}
	c.isRoot = true
	return nil
}

// Tag returns the component's type tag.
func (c *Component) Tag() string { return c.desc.Tag }

// Descriptor returns the component's type descriptor.
func (c *Component) Descriptor() *registry.Descriptor { return c.desc }

// IsRoot reports whether this component is a distinguished root.
func (c *Component) IsRoot() bool { return c.isRoot }

// Parent returns the owning node, nil for roots and detached components.
func (c *Component) Parent() Node { return c.parent }

func (c *Component) setParent(p Node) { c.parent = p }

// FieldNames returns the declared field names in declaration order.
func (c *Component) FieldNames() []string {
	names := make([]string, len(c.desc.Fields))
	for i, f := range c.desc.Fields {
		names[i] = f.Name
	}
	return names
}

// IsSet reports whether the named field currently holds a value.
func (c *Component) IsSet(name string) bool {
	_, ok := c.values[name]
	return ok
}

// Get returns the field value with references resolved. Unset fields
// return nil.
func (c *Component) Get(name string) (any, error) {
	raw, err := c.Raw(name)
	if err != nil {
		return nil, err
	}
	return resolveRead(c, raw)
}

// Raw returns the field value without resolving references: a field holding
// a reference yields the *Reference itself.
func (c *Component) Raw(name string) (any, error) {
	if _, ok := c.desc.Field(name); !ok {
		return nil, fmt.Errorf("component type %q has no field %q", c.desc.Tag, name)
	}
	return c.values[name], nil
}

// Ref returns the reference currently held by the field, if any.
func (c *Component) Ref(name string) (*Reference, bool) {
	v, ok := c.values[name]
	if !ok {
		return nil, false
	}
	ref, isRef := v.(*Reference)
	return ref, isRef
}

// Set assigns a field. Assigning over a reference that currently resolves
// fails with ReferenceOverwriteError; assigning nil clears the field.
func (c *Component) Set(name string, v any) error {
	if _, ok := c.desc.Field(name); !ok {
		return fmt.Errorf("component type %q has no field %q", c.desc.Tag, name)
	}
	if v == nil {
		return c.Clear(name)
	}
	if err := checkOverwrite(c, name, c.values[name]); err != nil {
		return err
	}
	val, err := adopt(v, c)
	if err != nil {
		return fmt.Errorf("field %q: %w", name, err)
	}
	detachReplaced(c.values[name], val)
	if val == nil {
		delete(c.values, name)
		return nil
	}
	c.values[name] = val
	return nil
}

// Clear puts a field into the unset state, detaching any owned node. This
// is the explicit first half of rebinding a resolved reference.
func (c *Component) Clear(name string) error {
	if _, ok := c.desc.Field(name); !ok {
		return fmt.Errorf("component type %q has no field %q", c.desc.Tag, name)
	}
	detach(c.values[name])
	delete(c.values, name)
	return nil
}

// Build constructs a component with the given field values, applying
// declared defaults for the rest. The instantiator uses it to place freshly
// built values without tripping the overwrite invariant on defaulted
// reference fields.
func Build(desc *registry.Descriptor, values map[string]any) (*Component, error) {
	c, err := New(desc)
	if err != nil {
		return nil, err
	}
	for name, v := range values {
		if _, ok := desc.Field(name); !ok {
			return nil, fmt.Errorf("component type %q has no field %q", desc.Tag, name)
		}
		val, err := adopt(v, c)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		detach(c.values[name])
		if val == nil {
			delete(c.values, name)
			continue
		}
		c.values[name] = val
	}
	return c, nil
}

func (c *Component) childAtom(child Node) (pathAtom, bool) {
	for _, f := range c.desc.Fields {
		if v, ok := c.values[f.Name]; ok {
			if n, isNode := v.(Node); isNode && n == child {
				return pathAtom{name: f.Name}, true
			}
		}
	}
	return pathAtom{}, false
}
