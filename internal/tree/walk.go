package tree

import "github.com/vk/hwtree/internal/literal"

// Components returns every component reachable from root through structural
// (non-reference) links, in deterministic pre-order: a component precedes
// its children, fields walk in declaration order, sequences by index and
// mappings by key insertion order. Each component appears exactly once.
func Components(root *Component) []*Component {
	var out []*Component
	walkValue(root, &out)
	return out
}

func walkValue(v any, out *[]*Component) {
	switch n := v.(type) {
	case *Component:
		*out = append(*out, n)
		for _, f := range n.desc.Fields {
			if val, ok := n.values[f.Name]; ok {
				walkValue(val, out)
			}
		}
	case *List:
		for _, e := range n.elems {
			walkValue(e, out)
		}
	case *Dict:
		for _, key := range n.keys {
			walkValue(n.entries[literal.KeyString(key)], out)
		}
	}
}
