// Package qcfg generates the flat wire-format configuration consumed by
// the external control backend.
//
// Generation walks every component of the tree in a dependency-respecting
// order (declared before/after constraints layered over structural
// pre-order), invokes each component's contribution function exactly once
// against a shared Config, then runs two closing passes: conflict detection
// over the recorded writes, and explicit default-filling for required
// leaves that no contributor set. Conflicts are warnings, not errors;
// independent components legitimately share physical resources.
package qcfg
