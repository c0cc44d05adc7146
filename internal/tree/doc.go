// Package tree implements the live hardware-description object graph: a
// distinguished root component, typed component nodes, reference-aware
// ordered sequences and keyed mappings, and the lazy reference resolver.
//
// Nodes acquire their parent when attached and a node can have at most one
// parent; sharing between distant parts of the tree is expressed with
// reference tokens (see package refpath), which reads resolve transparently.
// A field holding a reference that currently resolves cannot be overwritten
// directly: it must be cleared first, which keeps rebinding explicit.
package tree
