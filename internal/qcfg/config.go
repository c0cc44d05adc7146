package qcfg

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/hashicorp/hcl/v2"
)

// Config is the flat nested mapping under construction. Its schema is owned
// by the external backend; contributions write into it through Set/Require
// so that every leaf write is recorded for the closing passes.
type Config struct {
	data map[string]any

	// writes records every Set per leaf, in first-write order of leaves.
	writes    map[string][]write
	leafOrder []string

	// required maps a leaf to its canonical default, declared by Require.
	required  map[string]any
	reqOrder  []string

	// current is the canonical path of the contributing component, set by
	// the generator around each contribution call.
	current string
}

type write struct {
	by    string
	value any
}

// New creates a Config seeded from a deep copy of the backend's template.
func New(template map[string]any) *Config {
	return &Config{
		data:     copyMap(template),
		writes:   make(map[string][]write),
		required: make(map[string]any),
	}
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return copyMap(val)
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = copyValue(e)
		}
		return out
	default:
		return v
	}
}

// Data returns the underlying nested mapping.
func (c *Config) Data() map[string]any { return c.data }

// Section returns the nested map at path, creating intermediate maps as
// needed. It fails when a non-map value already occupies a segment.
func (c *Config) Section(path ...string) (map[string]any, error) {
	cur := c.data
	for i, seg := range path {
		next, ok := cur[seg]
		if !ok {
			child := make(map[string]any)
			cur[seg] = child
			cur = child
			continue
		}
		child, isMap := next.(map[string]any)
		if !isMap {
			return nil, fmt.Errorf("config path %s is a leaf, not a section", joinPath(path[:i+1]))
		}
		cur = child
	}
	return cur, nil
}

// Set writes a scalar leaf and records the write for the closing passes.
// The closing conflict pass settles every recorded leaf so that the last
// non-default write wins regardless of contribution order.
func (c *Config) Set(value any, path ...string) error {
	if len(path) == 0 {
		return fmt.Errorf("config leaf path is empty")
	}
	parent, err := c.Section(path[:len(path)-1]...)
	if err != nil {
		return err
	}
	leaf := path[len(path)-1]
	parent[leaf] = value

	key := joinPath(path)
	if _, seen := c.writes[key]; !seen {
		c.leafOrder = append(c.leafOrder, key)
	}
	c.writes[key] = append(c.writes[key], write{by: c.current, value: value})
	return nil
}

// Require declares a leaf as required with its canonical default, without
// writing it. The closing default-fill pass materializes the default for
// any required leaf that no contribution set to a non-default value.
func (c *Config) Require(canonical any, path ...string) error {
	if len(path) == 0 {
		return fmt.Errorf("config leaf path is empty")
	}
	if _, err := c.Section(path[:len(path)-1]...); err != nil {
		return err
	}
	key := joinPath(path)
	if _, seen := c.required[key]; !seen {
		c.reqOrder = append(c.reqOrder, key)
	}
	c.required[key] = canonical
	return nil
}

// finalize runs the conflict scan and the default-fill pass, returning
// non-fatal warnings. Each recorded leaf is settled from the write ledger:
// the last non-default write wins even when a default-valued contribution
// ran after it.
func (c *Config) finalize() hcl.Diagnostics {
	var diags hcl.Diagnostics

	for _, key := range c.leafOrder {
		records := c.writes[key]
		canonical := c.required[key]
		var distinct []write
		var winner *write
		for i, w := range records {
			if isDefault(w.value, canonical) {
				continue
			}
			winner = &records[i]
			dup := false
			for _, d := range distinct {
				if reflect.DeepEqual(d.value, w.value) {
					dup = true
					break
				}
			}
			if !dup {
				distinct = append(distinct, w)
			}
		}
		if len(distinct) > 1 {
			writers := make([]string, len(distinct))
			for i, d := range distinct {
				writers[i] = d.by
			}
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagWarning,
				Summary:  "Conflicting config contributions",
				Detail: fmt.Sprintf(
					"Leaf %q received %d different non-default values from %s; the last write wins.",
					key, len(distinct), strings.Join(writers, ", ")),
			})
		}
		if winner != nil {
			path := strings.Split(key, "/")
			if parent, err := c.Section(path[:len(path)-1]...); err == nil {
				parent[path[len(path)-1]] = winner.value
			}
		}
	}

	for _, key := range c.reqOrder {
		canonical := c.required[key]
		nonDefault := false
		for _, w := range c.writes[key] {
			if !isDefault(w.value, canonical) {
				nonDefault = true
				break
			}
		}
		if nonDefault {
			continue
		}
		path := strings.Split(key, "/")
		parent, err := c.Section(path[:len(path)-1]...)
		if err != nil {
			continue
		}
		parent[path[len(path)-1]] = canonical
	}

	return diags
}

// isDefault reports whether a written value counts as the leaf's default:
// equal to the declared canonical default when one exists, or the type's
// zero value otherwise.
func isDefault(v, canonical any) bool {
	if canonical != nil {
		return reflect.DeepEqual(v, canonical)
	}
	switch val := v.(type) {
	case nil:
		return true
	case bool:
		return !val
	case int:
		return val == 0
	case int64:
		return val == 0
	case float64:
		return val == 0
	case string:
		return val == ""
	default:
		return false
	}
}

func joinPath(path []string) string {
	return strings.Join(path, "/")
}
