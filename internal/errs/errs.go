package errs

import (
	"fmt"
	"strings"
)

// UnknownTypeError reports a type tag with no registered descriptor.
type UnknownTypeError struct {
	Tag string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown component type %q", e.Tag)
}

// MissingFieldError reports a required field with no default that is absent
// from the literal being instantiated.
type MissingFieldError struct {
	Path  string
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: missing required field %q", e.Path, e.Field)
}

// TypeMismatchError reports a literal whose shape cannot satisfy the
// expected type at its slot.
type TypeMismatchError struct {
	Path     string
	Expected string
	Detail   string
}

func (e *TypeMismatchError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: cannot instantiate as %s: %s", e.Path, e.Expected, e.Detail)
	}
	return fmt.Sprintf("%s: cannot instantiate as %s", e.Path, e.Expected)
}

// AmbiguousTypeError reports a union slot where no member accepted the
// literal. Members lists every union member that was attempted.
type AmbiguousTypeError struct {
	Path    string
	Members []string
}

func (e *AmbiguousTypeError) Error() string {
	return fmt.Sprintf("%s: no union member matches literal (tried %s)",
		e.Path, strings.Join(e.Members, ", "))
}

// InvalidLiteralValueError reports a value outside a literal-set constraint.
type InvalidLiteralValueError struct {
	Path    string
	Value   string
	Allowed []string
}

func (e *InvalidLiteralValueError) Error() string {
	return fmt.Sprintf("%s: value %s is not one of the allowed literals (%s)",
		e.Path, e.Value, strings.Join(e.Allowed, ", "))
}

// UnresolvedReferenceError reports a reference token whose path cannot be
// walked from the root. Raised at read time, never at load time.
type UnresolvedReferenceError struct {
	Token  string
	Reason string
}

func (e *UnresolvedReferenceError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("cannot resolve reference %q: %s", e.Token, e.Reason)
	}
	return fmt.Sprintf("cannot resolve reference %q", e.Token)
}

// ReferenceCycleError reports a reference chain that revisits a token.
type ReferenceCycleError struct {
	Chain []string
}

func (e *ReferenceCycleError) Error() string {
	return fmt.Sprintf("reference cycle: %s", strings.Join(e.Chain, " -> "))
}

// ReferenceOverwriteError reports a direct assignment over a field that
// currently holds a resolvable reference. The caller recovers by clearing
// the field first.
type ReferenceOverwriteError struct {
	Field string
	Token string
}

func (e *ReferenceOverwriteError) Error() string {
	return fmt.Sprintf("field %q holds resolved reference %q; clear it before assigning a new value",
		e.Field, e.Token)
}

// OrderingCycleError reports contradictory before/after generation
// constraints. Generation aborts with no partial output.
type OrderingCycleError struct {
	Detail string
}

func (e *OrderingCycleError) Error() string {
	return fmt.Sprintf("config generation ordering cycle: %s", e.Detail)
}
