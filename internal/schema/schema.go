// Package schema parses and checks the type-descriptor strings nodes declare
// for their expected input variables. A descriptor is either a scalar type
// name (int, double, string, boolean, dict, list, None) or a comma-separated
// "name:type" list describing the column types of a tabular dataset.
package schema

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/vk/rulegridgo/internal/flowval"
)

// typeAliases maps accepted spellings to the normalized scalar type names.
var typeAliases = map[string]string{
	"str":     "string",
	"string":  "string",
	"int":     "int",
	"float":   "double",
	"double":  "double",
	"bool":    "boolean",
	"boolean": "boolean",
}

// valueTypes is the full set of normalized scalar descriptor names.
var valueTypes = map[string]struct{}{
	"int": {}, "double": {}, "string": {}, "boolean": {},
	"dict": {}, "list": {}, "None": {},
}

// columnTypes restricts dataset columns to the four cell-bearing scalars.
var columnTypes = map[string]struct{}{
	"int": {}, "double": {}, "string": {}, "boolean": {},
}

// Descriptor is a parsed type descriptor that can check values against itself.
type Descriptor interface {
	// Validate reports whether v conforms to the descriptor.
	Validate(v any) bool
	// String renders the canonical descriptor text.
	String() string
}

// Parse turns descriptor text into a Descriptor. Text containing a colon is a
// dataset descriptor; anything else must be a scalar type name.
func Parse(text string) (Descriptor, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, fmt.Errorf("empty type descriptor")
	}
	if strings.Contains(trimmed, ":") {
		return parseDataset(trimmed)
	}
	return parseValue(trimmed)
}

// IsValid reports whether text parses as a descriptor.
func IsValid(text string) bool {
	_, err := Parse(text)
	return err == nil
}

// Value is a scalar descriptor.
type Value struct {
	// Type is the normalized scalar type name.
	Type string
}

func parseValue(text string) (Value, error) {
	if text == "None" {
		return Value{Type: "None"}, nil
	}
	if norm, ok := typeAliases[strings.ToLower(text)]; ok {
		return Value{Type: norm}, nil
	}
	if _, ok := valueTypes[text]; ok {
		return Value{Type: text}, nil
	}
	return Value{}, fmt.Errorf("unsupported value type %q", text)
}

// Validate implements Descriptor.
func (d Value) Validate(v any) bool {
	switch d.Type {
	case "None":
		return v == nil
	case "int":
		return isInt(v) || isIntegralFloat(v)
	case "double":
		return isInt(v) || isFloat(v)
	case "string":
		_, ok := v.(string)
		return ok
	case "boolean":
		_, ok := v.(bool)
		return ok
	case "dict":
		if v == nil {
			return false
		}
		rv := reflect.ValueOf(v)
		return rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String
	case "list":
		if v == nil {
			return false
		}
		k := reflect.ValueOf(v).Kind()
		return k == reflect.Slice || k == reflect.Array
	}
	return false
}

func (d Value) String() string { return d.Type }

// Column is one column declaration of a dataset descriptor.
type Column struct {
	Name string
	Type string
}

// DatasetDesc describes the required columns of a tabular dataset.
type DatasetDesc struct {
	Columns []Column
}

func parseDataset(text string) (DatasetDesc, error) {
	var cols []Column
	seen := make(map[string]struct{})
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		name, typ, ok := strings.Cut(part, ":")
		if !ok {
			return DatasetDesc{}, fmt.Errorf("column definition %q is not in name:type form", part)
		}
		name = strings.TrimSpace(name)
		typ = strings.TrimSpace(typ)
		if name == "" {
			return DatasetDesc{}, fmt.Errorf("column definition %q has an empty name", part)
		}
		if _, dup := seen[name]; dup {
			return DatasetDesc{}, fmt.Errorf("duplicate column %q", name)
		}
		norm, ok := typeAliases[strings.ToLower(typ)]
		if !ok {
			return DatasetDesc{}, fmt.Errorf("unsupported column type %q for column %q", typ, name)
		}
		if _, ok := columnTypes[norm]; !ok {
			return DatasetDesc{}, fmt.Errorf("type %q cannot be used as a column type", norm)
		}
		seen[name] = struct{}{}
		cols = append(cols, Column{Name: name, Type: norm})
	}
	return DatasetDesc{Columns: cols}, nil
}

// Validate implements Descriptor. The dataset must declare exactly the
// descriptor's column set and every cell must match its column type.
func (d DatasetDesc) Validate(v any) bool {
	ds, ok := v.(*flowval.Dataset)
	if !ok || ds == nil {
		return false
	}
	if len(ds.Columns()) != len(d.Columns) {
		return false
	}
	for _, col := range d.Columns {
		if !ds.HasColumn(col.Name) {
			return false
		}
		cells, err := ds.Column(col.Name)
		if err != nil {
			return false
		}
		cellDesc := Value{Type: col.Type}
		for _, cell := range cells {
			if !cellDesc.Validate(cell) {
				return false
			}
		}
	}
	return true
}

func (d DatasetDesc) String() string {
	parts := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		parts[i] = c.Name + ":" + c.Type
	}
	return strings.Join(parts, ",")
}

func isInt(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	}
	return false
}

func isFloat(v any) bool {
	switch v.(type) {
	case float32, float64:
		return true
	}
	return false
}

// isIntegralFloat accepts numbers that arrive as floats but carry no
// fractional part, which script backends produce for whole-number results.
func isIntegralFloat(v any) bool {
	switch f := v.(type) {
	case float32:
		return f == float32(int64(f))
	case float64:
		return f == float64(int64(f))
	}
	return false
}
