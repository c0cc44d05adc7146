package registry

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/vk/hwtree/internal/errs"
	"github.com/vk/hwtree/internal/literal"
	"github.com/vk/hwtree/internal/typeexpr"
)

// Field describes one declared field of a component type.
type Field struct {
	Name     string
	Type     typeexpr.Type
	Required bool

	// Default is a literal-domain value (cty scalar, *literal.Mapping or
	// *literal.Sequence) applied when a document omits the field. Only
	// meaningful when HasDefault is true.
	Default    any
	HasDefault bool
}

// Settings carries a component type's config-generation ordering hints:
// instances of this type contribute before/after every instance of the
// named type tags.
type Settings struct {
	Before []string
	After  []string
}

// Descriptor describes one registrable component type.
type Descriptor struct {
	Tag      string
	Fields   []Field
	Settings Settings
}

// Field returns the descriptor's field of the given name.
func (d *Descriptor) Field(name string) (*Field, bool) {
	for i := range d.Fields {
		if d.Fields[i].Name == name {
			return &d.Fields[i], true
		}
	}
	return nil, false
}

// Equal reports whether two descriptors declare the same type. Used to make
// re-registration idempotent.
func (d *Descriptor) Equal(other *Descriptor) bool {
	if d.Tag != other.Tag || len(d.Fields) != len(other.Fields) {
		return false
	}
	for i := range d.Fields {
		a, b := d.Fields[i], other.Fields[i]
		if a.Name != b.Name || a.Required != b.Required || a.HasDefault != b.HasDefault {
			return false
		}
		if !a.Type.Equal(b.Type) {
			return false
		}
		if a.HasDefault && !literal.Equal(a.Default, b.Default) {
			return false
		}
	}
	return slicesEqual(d.Settings.Before, other.Settings.Before) &&
		slicesEqual(d.Settings.After, other.Settings.After)
}

func slicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Module is the interface component catalogues implement to self-register.
type Module interface {
	Register(r *Registry)
}

// Registry holds the registered type descriptors and contribution functions
// for a single application instance.
type Registry struct {
	descriptors map[string]*Descriptor

	// applyFns maps a type tag to its config contribution function. Stored
	// as any to keep this package free of tree/config imports; the config
	// generator asserts the concrete signature.
	applyFns map[string]any
}

// New creates and initializes an empty Registry.
func New() *Registry {
	return &Registry{
		descriptors: make(map[string]*Descriptor),
		applyFns:    make(map[string]any),
	}
}

// Register adds a type descriptor. Registering an identical descriptor
// twice is a no-op; registering a different descriptor under an existing
// tag is an error.
func (r *Registry) Register(d *Descriptor) error {
	if d.Tag == "" {
		return fmt.Errorf("descriptor has no type tag")
	}
	if existing, ok := r.descriptors[d.Tag]; ok {
		if existing.Equal(d) {
			return nil
		}
		return fmt.Errorf("component type %q already registered with a different descriptor", d.Tag)
	}
	slog.Debug("Registering component type.", "tag", d.Tag, "fields", len(d.Fields))
	r.descriptors[d.Tag] = d
	return nil
}

// MustRegister is Register for startup paths where a clash is a programming
// error.
func (r *Registry) MustRegister(d *Descriptor) {
	if err := r.Register(d); err != nil {
		panic(err)
	}
}

// Resolve returns the descriptor for a type tag.
func (r *Registry) Resolve(tag string) (*Descriptor, error) {
	d, ok := r.descriptors[tag]
	if !ok {
		return nil, &errs.UnknownTypeError{Tag: tag}
	}
	return d, nil
}

// Has reports whether a tag is registered.
func (r *Registry) Has(tag string) bool {
	_, ok := r.descriptors[tag]
	return ok
}

// Tags returns all registered type tags in sorted order.
func (r *Registry) Tags() []string {
	tags := make([]string, 0, len(r.descriptors))
	for tag := range r.descriptors {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// RegisterApply registers the config contribution function for a type tag.
// Re-registration with a different function panics, matching descriptor
// semantics as closely as function identity allows.
func (r *Registry) RegisterApply(tag string, fn any) {
	if _, exists := r.applyFns[tag]; exists {
		panic(fmt.Sprintf("contribution function for type %q already registered", tag))
	}
	slog.Debug("Registering contribution function.", "tag", tag)
	r.applyFns[tag] = fn
}

// Apply returns the contribution function registered for a tag, if any.
func (r *Registry) Apply(tag string) (any, bool) {
	fn, ok := r.applyFns[tag]
	return fn, ok
}
