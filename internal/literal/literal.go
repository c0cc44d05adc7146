// Package literal models the persisted document form: an ordered, nested
// structure of mappings, sequences and scalar values.
//
// Scalars are cty values, which keeps numeric equality exact and lets
// mapping keys stay typed (integer keys are cty numbers, not decimal
// strings). Mappings preserve insertion order so that save output is
// deterministic and documents round-trip byte-for-byte.
package literal

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// TagKey is the mapping key that carries the explicit component type tag in
// persisted documents.
const TagKey = "__type__"

// Null is the scalar null document value.
var Null = cty.NullVal(cty.DynamicPseudoType)

// Pair is one ordered entry of a Mapping.
type Pair struct {
	Key   cty.Value
	Value any
}

// Mapping is an ordered key/value document node. Keys are scalar cty values
// (strings or numbers).
type Mapping struct {
	pairs []Pair
	index map[string]int
}

// NewMapping returns an empty ordered mapping.
func NewMapping() *Mapping {
	return &Mapping{index: make(map[string]int)}
}

// KeyString returns the canonical map-index form of a scalar key. The kind
// prefix keeps the integer key 3 distinct from the string key "3".
func KeyString(key cty.Value) string {
	if key.IsNull() {
		return "null:"
	}
	switch key.Type() {
	case cty.Number:
		return "n:" + key.AsBigFloat().Text('f', -1)
	case cty.Bool:
		if key.True() {
			return "b:true"
		}
		return "b:false"
	default:
		return "s:" + key.AsString()
	}
}

// Set inserts or replaces the value for key, preserving the original
// insertion position on replace.
func (m *Mapping) Set(key cty.Value, value any) {
	ks := KeyString(key)
	if i, ok := m.index[ks]; ok {
		m.pairs[i].Value = value
		return
	}
	m.index[ks] = len(m.pairs)
	m.pairs = append(m.pairs, Pair{Key: key, Value: value})
}

// SetString is Set with a string key.
func (m *Mapping) SetString(key string, value any) {
	m.Set(cty.StringVal(key), value)
}

// Get returns the value for key.
func (m *Mapping) Get(key cty.Value) (any, bool) {
	i, ok := m.index[KeyString(key)]
	if !ok {
		return nil, false
	}
	return m.pairs[i].Value, true
}

// GetString is Get with a string key.
func (m *Mapping) GetString(key string) (any, bool) {
	return m.Get(cty.StringVal(key))
}

// Delete removes the entry for key if present.
func (m *Mapping) Delete(key cty.Value) {
	ks := KeyString(key)
	i, ok := m.index[ks]
	if !ok {
		return
	}
	m.pairs = append(m.pairs[:i], m.pairs[i+1:]...)
	delete(m.index, ks)
	for j := i; j < len(m.pairs); j++ {
		m.index[KeyString(m.pairs[j].Key)] = j
	}
}

// Len returns the number of entries.
func (m *Mapping) Len() int { return len(m.pairs) }

// Pairs returns the entries in insertion order. The slice is shared; callers
// must not mutate it.
func (m *Mapping) Pairs() []Pair { return m.pairs }

// Sequence is an ordered document array.
type Sequence struct {
	Elems []any
}

// NewSequence returns a sequence over the given elements.
func NewSequence(elems ...any) *Sequence {
	return &Sequence{Elems: elems}
}

// Equal reports deep equality of two document values. Sequences compare
// element-wise in order; mappings compare by key set and per-key value,
// independent of entry order.
func Equal(a, b any) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case cty.Value:
		bv, ok := b.(cty.Value)
		return ok && av.RawEquals(bv)
	case *Sequence:
		bv, ok := b.(*Sequence)
		if !ok || len(av.Elems) != len(bv.Elems) {
			return false
		}
		for i := range av.Elems {
			if !Equal(av.Elems[i], bv.Elems[i]) {
				return false
			}
		}
		return true
	case *Mapping:
		bv, ok := b.(*Mapping)
		if !ok || av.Len() != bv.Len() {
			return false
		}
		for _, p := range av.pairs {
			other, found := bv.Get(p.Key)
			if !found || !Equal(p.Value, other) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Copy returns a deep copy of a document value.
func Copy(v any) any {
	switch val := v.(type) {
	case *Mapping:
		out := NewMapping()
		for _, p := range val.pairs {
			out.Set(p.Key, Copy(p.Value))
		}
		return out
	case *Sequence:
		elems := make([]any, len(val.Elems))
		for i, e := range val.Elems {
			elems[i] = Copy(e)
		}
		return &Sequence{Elems: elems}
	default:
		return v
	}
}

// FromGo converts plain Go values (maps are not accepted, since their order
// is unspecified) into document values. Intended for tests and defaults.
func FromGo(v any) (any, error) {
	switch val := v.(type) {
	case nil:
		return Null, nil
	case cty.Value, *Mapping, *Sequence:
		return val, nil
	case bool:
		return cty.BoolVal(val), nil
	case int:
		return cty.NumberIntVal(int64(val)), nil
	case int64:
		return cty.NumberIntVal(val), nil
	case float64:
		return cty.NumberFloatVal(val), nil
	case string:
		return cty.StringVal(val), nil
	case []any:
		elems := make([]any, len(val))
		for i, e := range val {
			conv, err := FromGo(e)
			if err != nil {
				return nil, err
			}
			elems[i] = conv
		}
		return &Sequence{Elems: elems}, nil
	default:
		return nil, fmt.Errorf("unsupported document value of type %T", v)
	}
}
