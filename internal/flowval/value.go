package flowval

import (
	"fmt"
	"math/big"
	"reflect"
	"sort"
	"time"

	"github.com/zclconf/go-cty/cty"
)

// typeKey marks objects carrying one of the interchange extensions.
const (
	typeKey       = "__type__"
	typeTimestamp = "Timestamp"
	typeDataset   = "Dataset"
)

// maxDepth bounds recursive encoding. Real values nest a handful of levels;
// hitting the bound means a cyclic reference.
const maxDepth = 64

// Check reports whether v is representable in the canonical interchange
// format. It is the gate every flow-context publish passes through.
func Check(v any) error {
	_, err := Encode(v)
	return err
}

// Encode converts a Go value into its canonical cty representation.
// Unsupported kinds (functions, channels, cyclic structures) return an error.
func Encode(v any) (cty.Value, error) {
	return encode(v, 0)
}

func encode(v any, depth int) (cty.Value, error) {
	if depth > maxDepth {
		return cty.NilVal, fmt.Errorf("value nests deeper than %d levels (cyclic reference?)", maxDepth)
	}

	switch tv := v.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case cty.Value:
		return tv, nil
	case bool:
		return cty.BoolVal(tv), nil
	case string:
		return cty.StringVal(tv), nil
	case int:
		return cty.NumberIntVal(int64(tv)), nil
	case int8:
		return cty.NumberIntVal(int64(tv)), nil
	case int16:
		return cty.NumberIntVal(int64(tv)), nil
	case int32:
		return cty.NumberIntVal(int64(tv)), nil
	case int64:
		return cty.NumberIntVal(tv), nil
	case uint:
		return cty.NumberUIntVal(uint64(tv)), nil
	case uint8:
		return cty.NumberUIntVal(uint64(tv)), nil
	case uint16:
		return cty.NumberUIntVal(uint64(tv)), nil
	case uint32:
		return cty.NumberUIntVal(uint64(tv)), nil
	case uint64:
		return cty.NumberUIntVal(tv), nil
	case float32:
		return cty.NumberFloatVal(float64(tv)), nil
	case float64:
		return cty.NumberFloatVal(tv), nil
	case *big.Float:
		return cty.NumberVal(tv), nil
	case time.Time:
		return cty.ObjectVal(map[string]cty.Value{
			typeKey: cty.StringVal(typeTimestamp),
			"value": cty.StringVal(tv.Format(time.RFC3339Nano)),
		}), nil
	case *Dataset:
		return encodeDataset(tv, depth)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		elems := make([]cty.Value, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			ev, err := encode(rv.Index(i).Interface(), depth+1)
			if err != nil {
				return cty.NilVal, fmt.Errorf("element %d: %w", i, err)
			}
			elems[i] = ev
		}
		if len(elems) == 0 {
			return cty.EmptyTupleVal, nil
		}
		return cty.TupleVal(elems), nil

	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return cty.NilVal, fmt.Errorf("map key type %s is not a string", rv.Type().Key())
		}
		attrs := make(map[string]cty.Value, rv.Len())
		for _, k := range rv.MapKeys() {
			ev, err := encode(rv.MapIndex(k).Interface(), depth+1)
			if err != nil {
				return cty.NilVal, fmt.Errorf("key %q: %w", k.String(), err)
			}
			attrs[k.String()] = ev
		}
		if len(attrs) == 0 {
			return cty.EmptyObjectVal, nil
		}
		return cty.ObjectVal(attrs), nil

	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return cty.NullVal(cty.DynamicPseudoType), nil
		}
		return encode(rv.Elem().Interface(), depth+1)
	}

	return cty.NilVal, fmt.Errorf("value of type %T is not representable in the interchange format", v)
}

func encodeDataset(d *Dataset, depth int) (cty.Value, error) {
	cols := d.Columns()
	colVals := make([]cty.Value, len(cols))
	for i, c := range cols {
		colVals[i] = cty.StringVal(c)
	}
	rows := d.Rows()
	rowVals := make([]cty.Value, len(rows))
	for i, row := range rows {
		cells := make([]cty.Value, len(row))
		for j, cell := range row {
			cv, err := encode(cell, depth+1)
			if err != nil {
				return cty.NilVal, fmt.Errorf("dataset row %d column %q: %w", i, cols[j], err)
			}
			cells[j] = cv
		}
		if len(cells) == 0 {
			rowVals[i] = cty.EmptyTupleVal
		} else {
			rowVals[i] = cty.TupleVal(cells)
		}
	}

	attrs := map[string]cty.Value{
		typeKey: cty.StringVal(typeDataset),
	}
	if len(colVals) == 0 {
		attrs["columns"] = cty.EmptyTupleVal
	} else {
		attrs["columns"] = cty.TupleVal(colVals)
	}
	if len(rowVals) == 0 {
		attrs["rows"] = cty.EmptyTupleVal
	} else {
		attrs["rows"] = cty.TupleVal(rowVals)
	}
	return cty.ObjectVal(attrs), nil
}

// Decode converts a canonical cty value back into a plain Go value.
// Extension objects become time.Time and *Dataset respectively.
func Decode(val cty.Value) (any, error) {
	if val.IsNull() || !val.IsKnown() {
		return nil, nil
	}

	ty := val.Type()
	switch {
	case ty == cty.Bool:
		return val.True(), nil
	case ty == cty.String:
		return val.AsString(), nil
	case ty == cty.Number:
		bf := val.AsBigFloat()
		if i, acc := bf.Int64(); acc == big.Exact {
			return i, nil
		}
		f, _ := bf.Float64()
		return f, nil
	case ty.IsObjectType() || ty.IsMapType():
		if ext, ok, err := decodeExtension(val); ok || err != nil {
			return ext, err
		}
		out := make(map[string]any)
		for it := val.ElementIterator(); it.Next(); {
			k, v := it.Element()
			dv, err := Decode(v)
			if err != nil {
				return nil, err
			}
			out[k.AsString()] = dv
		}
		return out, nil
	case ty.IsTupleType() || ty.IsListType() || ty.IsSetType():
		out := make([]any, 0, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			_, v := it.Element()
			dv, err := Decode(v)
			if err != nil {
				return nil, err
			}
			out = append(out, dv)
		}
		return out, nil
	}
	return nil, fmt.Errorf("cty type %s is not part of the interchange format", ty.FriendlyName())
}

// decodeExtension recognizes the Timestamp and Dataset marker objects.
func decodeExtension(val cty.Value) (any, bool, error) {
	if !val.Type().IsObjectType() || !val.Type().HasAttribute(typeKey) {
		return nil, false, nil
	}
	marker := val.GetAttr(typeKey)
	if marker.Type() != cty.String || marker.IsNull() {
		return nil, false, nil
	}

	ty := val.Type()
	switch marker.AsString() {
	case typeTimestamp:
		if !ty.HasAttribute("value") {
			return nil, false, nil
		}
		raw := val.GetAttr("value")
		if raw.Type() != cty.String || raw.IsNull() {
			return nil, false, nil
		}
		ts, err := time.Parse(time.RFC3339Nano, raw.AsString())
		if err != nil {
			return nil, true, fmt.Errorf("malformed timestamp value %q: %w", raw.AsString(), err)
		}
		return ts, true, nil

	case typeDataset:
		if !ty.HasAttribute("columns") || !ty.HasAttribute("rows") {
			return nil, false, nil
		}
		var cols []string
		for it := val.GetAttr("columns").ElementIterator(); it.Next(); {
			_, c := it.Element()
			cols = append(cols, c.AsString())
		}
		ds, err := NewDataset(cols...)
		if err != nil {
			return nil, true, err
		}
		for it := val.GetAttr("rows").ElementIterator(); it.Next(); {
			_, row := it.Element()
			var cells []any
			for rit := row.ElementIterator(); rit.Next(); {
				_, cell := rit.Element()
				dv, err := Decode(cell)
				if err != nil {
					return nil, true, err
				}
				cells = append(cells, dv)
			}
			if err := ds.AppendRow(cells...); err != nil {
				return nil, true, err
			}
		}
		return ds, true, nil
	}
	return nil, false, nil
}

// SortedKeys returns the keys of a string-keyed map in lexical order.
// Stable iteration keeps exported definitions and log output reproducible.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
