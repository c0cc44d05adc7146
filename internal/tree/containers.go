package tree

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/hwtree/internal/literal"
)

// List is a reference-aware ordered sequence. Indexing transparently
// resolves elements that are references.
type List struct {
	parent Node
	elems  []any
}

// NewList returns a detached list over the given elements.
func NewList(elems ...any) *List {
	l := &List{}
	for _, e := range elems {
		if err := l.Append(e); err != nil {
			panic(fmt.Sprintf("tree: NewList: %v", err))
		}
	}
	return l
}

// Parent returns the owning node, nil while detached.
func (l *List) Parent() Node { return l.parent }

func (l *List) setParent(p Node) { l.parent = p }

// Len returns the number of elements.
func (l *List) Len() int { return len(l.elems) }

// Get returns the element at i with references resolved.
func (l *List) Get(i int) (any, error) {
	raw, err := l.Raw(i)
	if err != nil {
		return nil, err
	}
	return resolveRead(l, raw)
}

// Raw returns the element at i without resolving references.
func (l *List) Raw(i int) (any, error) {
	if i < 0 || i >= len(l.elems) {
		return nil, fmt.Errorf("sequence index %d out of range (len %d)", i, len(l.elems))
	}
	return l.elems[i], nil
}

// Set replaces the element at i, enforcing the reference-overwrite
// invariant.
func (l *List) Set(i int, v any) error {
	if i < 0 || i >= len(l.elems) {
		return fmt.Errorf("sequence index %d out of range (len %d)", i, len(l.elems))
	}
	if err := checkOverwrite(l, fmt.Sprintf("[%d]", i), l.elems[i]); err != nil {
		return err
	}
	val, err := adopt(v, l)
	if err != nil {
		return err
	}
	detachReplaced(l.elems[i], val)
	l.elems[i] = val
	return nil
}

// Append adds an element at the end.
func (l *List) Append(v any) error {
	val, err := adopt(v, l)
	if err != nil {
		return err
	}
	l.elems = append(l.elems, val)
	return nil
}

func (l *List) childAtom(child Node) (pathAtom, bool) {
	for i, e := range l.elems {
		if n, ok := e.(Node); ok && n == child {
			return pathAtom{index: i, isIndex: true}, true
		}
	}
	return pathAtom{}, false
}

// Dict is a reference-aware keyed mapping with insertion-ordered keys.
// Keys are scalar cty values; integer keys stay integers.
type Dict struct {
	parent  Node
	keys    []cty.Value
	entries map[string]any
}

// NewDict returns an empty detached dict.
func NewDict() *Dict {
	return &Dict{entries: make(map[string]any)}
}

// Parent returns the owning node, nil while detached.
func (d *Dict) Parent() Node { return d.parent }

func (d *Dict) setParent(p Node) { d.parent = p }

// Len returns the number of entries.
func (d *Dict) Len() int { return len(d.keys) }

// Keys returns the keys in insertion order.
func (d *Dict) Keys() []cty.Value {
	out := make([]cty.Value, len(d.keys))
	copy(out, d.keys)
	return out
}

// Has reports whether key is present.
func (d *Dict) Has(key cty.Value) bool {
	_, ok := d.entries[literal.KeyString(key)]
	return ok
}

// Get returns the value for key with references resolved.
func (d *Dict) Get(key cty.Value) (any, error) {
	raw, err := d.Raw(key)
	if err != nil {
		return nil, err
	}
	return resolveRead(d, raw)
}

// GetString is Get with a string key.
func (d *Dict) GetString(key string) (any, error) {
	return d.Get(cty.StringVal(key))
}

// Raw returns the value for key without resolving references.
func (d *Dict) Raw(key cty.Value) (any, error) {
	v, ok := d.entries[literal.KeyString(key)]
	if !ok {
		return nil, fmt.Errorf("mapping has no key %s", literal.KeyString(key))
	}
	return v, nil
}

// Set adds or replaces the value for key, enforcing the
// reference-overwrite invariant on replacement.
func (d *Dict) Set(key cty.Value, v any) error {
	ks := literal.KeyString(key)
	cur, exists := d.entries[ks]
	if exists {
		if err := checkOverwrite(d, keyAtomName(key), cur); err != nil {
			return err
		}
	}
	val, err := adopt(v, d)
	if err != nil {
		return err
	}
	if exists {
		detachReplaced(cur, val)
	} else {
		d.keys = append(d.keys, key)
	}
	d.entries[ks] = val
	return nil
}

// SetString is Set with a string key.
func (d *Dict) SetString(key string, v any) error {
	return d.Set(cty.StringVal(key), v)
}

// Delete removes the entry for key if present.
func (d *Dict) Delete(key cty.Value) {
	ks := literal.KeyString(key)
	cur, ok := d.entries[ks]
	if !ok {
		return
	}
	detach(cur)
	delete(d.entries, ks)
	for i, k := range d.keys {
		if literal.KeyString(k) == ks {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
}

func (d *Dict) childAtom(child Node) (pathAtom, bool) {
	for _, key := range d.keys {
		if n, ok := d.entries[literal.KeyString(key)].(Node); ok && n == child {
			return pathAtom{name: keyAtomName(key)}, true
		}
	}
	return pathAtom{}, false
}
