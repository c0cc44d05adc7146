package registry

import (
	"fmt"
	"strings"
)

// Validate performs a parity check across the registered material: every
// contribution function must belong to a registered type, and ordering
// hints may only name registered types. Run once after startup
// registration, before any tree is constructed.
func (r *Registry) Validate() error {
	var problems []string

	for tag := range r.applyFns {
		if !r.Has(tag) {
			problems = append(problems, fmt.Sprintf(
				"contribution function registered for unknown type %q", tag))
		}
	}

	for _, tag := range r.Tags() {
		d := r.descriptors[tag]
		for _, ref := range d.Settings.Before {
			if !r.Has(ref) {
				problems = append(problems, fmt.Sprintf(
					"type %q orders before unknown type %q", tag, ref))
			}
		}
		for _, ref := range d.Settings.After {
			if !r.Has(ref) {
				problems = append(problems, fmt.Sprintf(
					"type %q orders after unknown type %q", tag, ref))
			}
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("registry validation failed:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}
