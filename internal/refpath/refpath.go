// Package refpath defines the canonical reference-token grammar.
//
// A token is a root-relative path such as `#/channels/drive[2]/frequency`.
// Segments are separated by `/`; a bracket suffix addresses an element of a
// sequence, while a bare segment addresses a component field or mapping key.
// A bare all-digit segment is an integer mapping key, so `#/ports/3` (key 3)
// stays distinct from `#/ports[3]` (fourth sequence element).
package refpath

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Prefix starts every reference token.
const Prefix = "#/"

// segmentRe parses one path segment: a name optionally followed by one or
// more bracketed sequence indices, e.g. `drive`, `3`, `samples[0][12]`.
var segmentRe = regexp.MustCompile(`^(-?[a-zA-Z0-9_.\- ]+)((?:\[\d+\])*)$`)

var indexRe = regexp.MustCompile(`\[(\d+)\]`)

var nameRe = regexp.MustCompile(`^-?[a-zA-Z0-9_.\- ]+$`)

// ValidName reports whether a string can appear as a segment name in a
// token. Names containing the segment delimiter or bracket characters have
// no token form.
func ValidName(name string) bool {
	return nameRe.MatchString(name)
}

// Step is one resolution move: a field/key lookup by Name followed by zero
// or more sequence index lookups.
type Step struct {
	Name    string
	Indexes []int
}

// IntKey reports whether the step name addresses an integer mapping key,
// and returns it.
func (s Step) IntKey() (int64, bool) {
	if s.Name == "" || s.Name == "-" {
		return 0, false
	}
	n, err := strconv.ParseInt(s.Name, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (s Step) String() string {
	var sb strings.Builder
	sb.WriteString(s.Name)
	for _, idx := range s.Indexes {
		fmt.Fprintf(&sb, "[%d]", idx)
	}
	return sb.String()
}

// Path is the structured form of a reference token.
type Path struct {
	Steps []Step
}

// IsToken reports whether a raw string has the reference-token form.
func IsToken(s string) bool {
	return strings.HasPrefix(s, Prefix)
}

// Parse converts a token into its structured path. The empty path `#/`
// addresses the root itself.
func Parse(token string) (*Path, error) {
	if !IsToken(token) {
		return nil, fmt.Errorf("reference token must start with %q, got %q", Prefix, token)
	}

	rest := strings.TrimPrefix(token, Prefix)
	if rest == "" {
		return &Path{}, nil
	}

	path := &Path{}
	for _, raw := range strings.Split(rest, "/") {
		if raw == "" {
			return nil, fmt.Errorf("reference token %q contains an empty segment", token)
		}
		matches := segmentRe.FindStringSubmatch(raw)
		if matches == nil {
			return nil, fmt.Errorf("invalid reference segment %q in token %q", raw, token)
		}

		step := Step{Name: matches[1]}
		for _, idx := range indexRe.FindAllStringSubmatch(matches[2], -1) {
			n, err := strconv.Atoi(idx[1])
			if err != nil {
				// Unreachable due to the \d+ in indexRe.
				return nil, fmt.Errorf("invalid index in segment %q: %w", raw, err)
			}
			step.Indexes = append(step.Indexes, n)
		}
		path.Steps = append(path.Steps, step)
	}
	return path, nil
}

// String renders the canonical token form of the path.
func (p *Path) String() string {
	if p == nil || len(p.Steps) == 0 {
		return Prefix
	}
	parts := make([]string, len(p.Steps))
	for i, step := range p.Steps {
		parts[i] = step.String()
	}
	return Prefix + strings.Join(parts, "/")
}

// Child returns a new path extending p with the given step.
func (p *Path) Child(step Step) *Path {
	steps := make([]Step, len(p.Steps), len(p.Steps)+1)
	copy(steps, p.Steps)
	return &Path{Steps: append(steps, step)}
}

// Equal reports whether two paths address the same location.
func (p *Path) Equal(other *Path) bool {
	if p == nil || other == nil {
		return p == other
	}
	return p.String() == other.String()
}
