// Package manifest loads component-type declarations from HCL manifest
// files into the registry.
//
// A manifest declares one or more component types:
//
//	component "SingleChannel" {
//	  field "controller" { type = string; required = true }
//	  field "offset"     { type = float;  default = 0.0 }
//	  field "mode"       { type = literal("direct", "amplified") }
//
//	  settings {
//	    after = ["Mixer"]
//	  }
//	}
//
// Field types are type-constraint expressions evaluated by package
// typeexpr; bare identifiers refer to other component types. Re-loading
// the same manifests is idempotent.
package manifest

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/hwtree/internal/ctxlog"
	"github.com/vk/hwtree/internal/literal"
	"github.com/vk/hwtree/internal/registry"
	"github.com/vk/hwtree/internal/typeexpr"
)

type fileConfig struct {
	Components []*componentBlock `hcl:"component,block"`
}

type componentBlock struct {
	Tag      string         `hcl:"tag,label"`
	Fields   []*fieldBlock  `hcl:"field,block"`
	Settings *settingsBlock `hcl:"settings,block"`
}

type fieldBlock struct {
	Name     string         `hcl:"name,label"`
	Type     hcl.Expression `hcl:"type"`
	Default  hcl.Expression `hcl:"default,optional"`
	Required bool           `hcl:"required,optional"`
}

type settingsBlock struct {
	Before []string `hcl:"before,optional"`
	After  []string `hcl:"after,optional"`
}

// LoadDir loads every .hcl manifest under dir into the registry.
func LoadDir(ctx context.Context, dir string, reg *registry.Registry) error {
	logger := ctxlog.FromContext(ctx)

	paths, err := findManifests(dir)
	if err != nil {
		return fmt.Errorf("walking manifest directory %s: %w", dir, err)
	}
	if len(paths) == 0 {
		logger.Warn("No .hcl manifest files found in path", "path", dir)
		return nil
	}

	parser := hclparse.NewParser()
	for _, path := range paths {
		file, diags := parser.ParseHCLFile(path)
		if diags.HasErrors() {
			return fmt.Errorf("failed to parse manifest %s: %w", path, diags)
		}
		if err := loadFile(file.Body, reg); err != nil {
			return fmt.Errorf("manifest %s: %w", path, err)
		}
		logger.Debug("Loaded component manifest.", "file", path)
	}

	logger.Info("Component manifests loaded.", "files", len(paths), "types", len(reg.Tags()))
	return nil
}

// LoadBytes loads manifest source from memory, mostly for tests.
func LoadBytes(src []byte, filename string, reg *registry.Registry) error {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse manifest %s: %w", filename, diags)
	}
	return loadFile(file.Body, reg)
}

func findManifests(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".hcl") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

func loadFile(body hcl.Body, reg *registry.Registry) error {
	var cfg fileConfig
	if diags := gohcl.DecodeBody(body, nil, &cfg); diags.HasErrors() {
		return fmt.Errorf("decoding manifest: %w", diags)
	}

	for _, block := range cfg.Components {
		desc, err := buildDescriptor(block)
		if err != nil {
			return fmt.Errorf("component %q: %w", block.Tag, err)
		}
		if err := reg.Register(desc); err != nil {
			return err
		}
	}
	return nil
}

func buildDescriptor(block *componentBlock) (*registry.Descriptor, error) {
	desc := &registry.Descriptor{Tag: block.Tag}

	for _, fb := range block.Fields {
		field := registry.Field{Name: fb.Name, Required: fb.Required}

		t, diags := typeexpr.Eval(fb.Type)
		if diags.HasErrors() {
			return nil, fmt.Errorf("field %q: %w", fb.Name, diags)
		}
		field.Type = t

		if fb.Default != nil {
			val, diags := fb.Default.Value(nil)
			if diags.HasErrors() {
				return nil, fmt.Errorf("field %q default: %w", fb.Name, diags)
			}
			def, err := ctyToLiteral(val)
			if err != nil {
				return nil, fmt.Errorf("field %q default: %w", fb.Name, err)
			}
			field.Default = def
			field.HasDefault = true
		}

		desc.Fields = append(desc.Fields, field)
	}

	if block.Settings != nil {
		desc.Settings = registry.Settings{
			Before: block.Settings.Before,
			After:  block.Settings.After,
		}
	}
	return desc, nil
}

// ctyToLiteral converts an evaluated constant into the literal document
// domain used for descriptor defaults.
func ctyToLiteral(v cty.Value) (any, error) {
	if v.IsNull() {
		return literal.Null, nil
	}
	t := v.Type()
	switch {
	case t.IsPrimitiveType():
		return v, nil
	case t.IsTupleType() || t.IsListType() || t.IsSetType():
		seq := &literal.Sequence{}
		for it := v.ElementIterator(); it.Next(); {
			_, elem := it.Element()
			conv, err := ctyToLiteral(elem)
			if err != nil {
				return nil, err
			}
			seq.Elems = append(seq.Elems, conv)
		}
		return seq, nil
	case t.IsObjectType() || t.IsMapType():
		m := literal.NewMapping()
		for it := v.ElementIterator(); it.Next(); {
			key, elem := it.Element()
			conv, err := ctyToLiteral(elem)
			if err != nil {
				return nil, err
			}
			m.Set(key, conv)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unsupported default value type %s", t.FriendlyName())
	}
}
