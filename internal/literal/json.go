package literal

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	gojson "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// intKeyRe matches object keys that encode integer mapping keys.
var intKeyRe = regexp.MustCompile(`^-?\d+$`)

// FromJSON parses JSON text into a document value, preserving object entry
// order. Object keys that are pure decimal integers are restored as integer
// mapping keys.
func FromJSON(data []byte) (any, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid JSON document")
	}
	return fromResult(gjson.ParseBytes(data))
}

func fromResult(res gjson.Result) (any, error) {
	switch res.Type {
	case gjson.Null:
		return Null, nil
	case gjson.True:
		return cty.True, nil
	case gjson.False:
		return cty.False, nil
	case gjson.String:
		return cty.StringVal(res.String()), nil
	case gjson.Number:
		// Parse from the raw text so precision survives the float64 detour
		// gjson would otherwise take.
		num, err := cty.ParseNumberVal(strings.TrimSpace(res.Raw))
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", res.Raw, err)
		}
		return num, nil
	}

	if res.IsArray() {
		seq := &Sequence{}
		var walkErr error
		res.ForEach(func(_, elem gjson.Result) bool {
			v, err := fromResult(elem)
			if err != nil {
				walkErr = err
				return false
			}
			seq.Elems = append(seq.Elems, v)
			return true
		})
		return seq, walkErr
	}

	if res.IsObject() {
		mapping := NewMapping()
		var walkErr error
		res.ForEach(func(key, elem gjson.Result) bool {
			v, err := fromResult(elem)
			if err != nil {
				walkErr = err
				return false
			}
			mapping.Set(parseKey(key.String()), v)
			return true
		})
		return mapping, walkErr
	}

	return nil, fmt.Errorf("unsupported JSON value: %s", res.Raw)
}

func parseKey(raw string) cty.Value {
	if intKeyRe.MatchString(raw) {
		if num, err := cty.ParseNumberVal(raw); err == nil {
			return num
		}
	}
	return cty.StringVal(raw)
}

// ToJSON renders a document value as compact JSON. Mapping order is kept;
// integer keys are written as their decimal form.
func ToJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, v, "", ""); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ToJSONIndent renders a document value as indented JSON.
func ToJSONIndent(v any, indent string) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, v, "", indent); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, v any, prefix, indent string) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
		return nil
	case cty.Value:
		return writeScalar(buf, val)
	case *Sequence:
		return writeSequence(buf, val, prefix, indent)
	case *Mapping:
		return writeMapping(buf, val, prefix, indent)
	default:
		return fmt.Errorf("unsupported document value of type %T", v)
	}
}

func writeScalar(buf *bytes.Buffer, v cty.Value) error {
	if v.IsNull() {
		buf.WriteString("null")
		return nil
	}
	out, err := ctyjson.Marshal(v, v.Type())
	if err != nil {
		return err
	}
	buf.Write(out)
	return nil
}

func writeSequence(buf *bytes.Buffer, seq *Sequence, prefix, indent string) error {
	if len(seq.Elems) == 0 {
		buf.WriteString("[]")
		return nil
	}
	inner := prefix + indent
	buf.WriteByte('[')
	for i, elem := range seq.Elems {
		if i > 0 {
			buf.WriteByte(',')
		}
		newlineIndent(buf, inner, indent)
		if err := writeJSON(buf, elem, inner, indent); err != nil {
			return err
		}
	}
	newlineIndent(buf, prefix, indent)
	buf.WriteByte(']')
	return nil
}

func writeMapping(buf *bytes.Buffer, m *Mapping, prefix, indent string) error {
	if m.Len() == 0 {
		buf.WriteString("{}")
		return nil
	}
	inner := prefix + indent
	buf.WriteByte('{')
	for i, p := range m.Pairs() {
		if i > 0 {
			buf.WriteByte(',')
		}
		newlineIndent(buf, inner, indent)
		if err := writeKey(buf, p.Key); err != nil {
			return err
		}
		buf.WriteByte(':')
		if indent != "" {
			buf.WriteByte(' ')
		}
		if err := writeJSON(buf, p.Value, inner, indent); err != nil {
			return err
		}
	}
	newlineIndent(buf, prefix, indent)
	buf.WriteByte('}')
	return nil
}

func writeKey(buf *bytes.Buffer, key cty.Value) error {
	if key.Type() == cty.Number {
		buf.WriteByte('"')
		buf.WriteString(key.AsBigFloat().Text('f', -1))
		buf.WriteByte('"')
		return nil
	}
	if key.Type() != cty.String {
		return fmt.Errorf("unsupported mapping key type %s", key.Type().FriendlyName())
	}
	out, err := gojson.Marshal(key.AsString())
	if err != nil {
		return err
	}
	buf.Write(out)
	return nil
}

func newlineIndent(buf *bytes.Buffer, prefix, indent string) {
	if indent == "" {
		return
	}
	buf.WriteByte('\n')
	buf.WriteString(prefix)
}
