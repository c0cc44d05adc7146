package tree

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/hwtree/internal/refpath"
)

// Node is implemented by every structural tree node: *Component, *List and
// *Dict. References and scalars are values, not nodes.
type Node interface {
	// Parent returns the owning node, or nil for the root and for
	// detached nodes.
	Parent() Node

	setParent(p Node)

	// childAtom locates a direct child by identity and returns the path
	// atom that addresses it.
	childAtom(child Node) (pathAtom, bool)
}

// pathAtom is one hop of a canonical path before folding into refpath
// steps: a field/key name or a sequence index.
type pathAtom struct {
	name    string
	index   int
	isIndex bool
}

func attach(child, parent Node) error {
	if child.Parent() == parent {
		return nil
	}
	if child.Parent() != nil {
		return fmt.Errorf("node already has a parent; detach it before attaching elsewhere")
	}
	child.setParent(parent)
	return nil
}

func detach(v any) {
	if n, ok := v.(Node); ok && n != nil {
		n.setParent(nil)
	}
}

// detachReplaced detaches old after new has been adopted in its place.
// When both are the same node the adoption was a no-op, so the parent
// link must be left alone.
func detachReplaced(old, replacement any) {
	if on, ok := old.(Node); ok {
		if rn, ok := replacement.(Node); ok && rn == on {
			return
		}
	}
	detach(old)
}

// RootOf climbs parent links to the tree root. It returns false when the
// chain ends at a node that is not a distinguished root.
func RootOf(n Node) (*Component, bool) {
	for {
		parent := n.Parent()
		if parent == nil {
			c, ok := n.(*Component)
			return c, ok && c.isRoot
		}
		n = parent
	}
}

// PathOf computes the canonical root-relative path of a node. It fails when
// the node is not reachable from a distinguished root.
func PathOf(n Node) (*refpath.Path, error) {
	var atoms []pathAtom
	cur := n
	for {
		parent := cur.Parent()
		if parent == nil {
			break
		}
		atom, ok := parent.childAtom(cur)
		if !ok {
			return nil, fmt.Errorf("node is not a child of its recorded parent")
		}
		atoms = append(atoms, atom)
		cur = parent
	}

	root, ok := cur.(*Component)
	if !ok || !root.isRoot {
		return nil, fmt.Errorf("node is detached from any root")
	}

	// atoms were collected leaf-first; fold them root-first into steps,
	// appending indices onto the step of the container they index into.
	path := &refpath.Path{}
	for i := len(atoms) - 1; i >= 0; i-- {
		atom := atoms[i]
		if atom.isIndex {
			if len(path.Steps) == 0 {
				return nil, fmt.Errorf("sequence index with no preceding segment")
			}
			last := &path.Steps[len(path.Steps)-1]
			last.Indexes = append(last.Indexes, atom.index)
			continue
		}
		if !refpath.ValidName(atom.name) {
			return nil, fmt.Errorf("mapping key %q has no token representation", atom.name)
		}
		path.Steps = append(path.Steps, refpath.Step{Name: atom.name})
	}
	return path, nil
}

// MakeReference returns the reference token addressing target, computed
// from the root regardless of where the referring node lives.
func MakeReference(target Node) (string, error) {
	path, err := PathOf(target)
	if err != nil {
		return "", fmt.Errorf("cannot build reference: %w", err)
	}
	return path.String(), nil
}

// keyAtomName renders a mapping key as a path segment name.
func keyAtomName(key cty.Value) string {
	if key.Type() == cty.Number {
		return key.AsBigFloat().Text('f', -1)
	}
	return key.AsString()
}
