package flowval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestEncodeDecode_Scalars(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   any
		want any
	}{
		{"nil", nil, nil},
		{"bool", true, true},
		{"string", "hello", "hello"},
		{"int", 42, int64(42)},
		{"negative int", -7, int64(-7)},
		{"float", 2.5, 2.5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := Encode(tc.in)
			require.NoError(t, err)
			got, err := Decode(v)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEncodeDecode_Containers(t *testing.T) {
	t.Parallel()

	in := map[string]any{
		"items":  []any{int64(1), "two", 3.5},
		"nested": map[string]any{"ok": true},
	}
	v, err := Encode(in)
	require.NoError(t, err)
	got, err := Decode(v)
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestEncodeDecode_Timestamp(t *testing.T) {
	t.Parallel()

	ts := time.Date(2026, 8, 25, 10, 30, 0, 0, time.UTC)
	v, err := Encode(ts)
	require.NoError(t, err)
	require.True(t, v.Type().IsObjectType())
	assert.Equal(t, "Timestamp", v.GetAttr("__type__").AsString())

	got, err := Decode(v)
	require.NoError(t, err)
	assert.True(t, ts.Equal(got.(time.Time)))
}

func TestEncodeDecode_Dataset(t *testing.T) {
	t.Parallel()

	ds, err := NewDataset("name", "age")
	require.NoError(t, err)
	require.NoError(t, ds.AppendRow("ada", 36))
	require.NoError(t, ds.AppendRow("alan", 41))

	v, err := Encode(ds)
	require.NoError(t, err)
	assert.Equal(t, "Dataset", v.GetAttr("__type__").AsString())

	got, err := Decode(v)
	require.NoError(t, err)
	back, ok := got.(*Dataset)
	require.True(t, ok)
	assert.Equal(t, []string{"name", "age"}, back.Columns())
	assert.Equal(t, 2, back.Len())
	ages, err := back.Column("age")
	require.NoError(t, err)
	assert.Equal(t, []any{int64(36), int64(41)}, ages)
}

func TestCheck_RejectsUnrepresentable(t *testing.T) {
	t.Parallel()

	assert.Error(t, Check(func() {}))
	assert.Error(t, Check(make(chan int)))
	assert.Error(t, Check(map[int]string{1: "a"}))

	cyclic := map[string]any{}
	cyclic["self"] = cyclic
	assert.Error(t, Check(cyclic))
}

func TestCheck_AcceptsInterchangeValues(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Check(nil))
	assert.NoError(t, Check("x"))
	assert.NoError(t, Check([]any{1, 2, 3}))
	assert.NoError(t, Check(map[string]any{"k": []any{true}}))
	assert.NoError(t, Check(time.Now()))
}

func TestDecode_PlainMarkerlessObject(t *testing.T) {
	t.Parallel()

	v := cty.ObjectVal(map[string]cty.Value{
		"a": cty.NumberIntVal(1),
		"b": cty.StringVal("two"),
	})
	got, err := Decode(v)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": int64(1), "b": "two"}, got)
}

func TestSortedKeys(t *testing.T) {
	t.Parallel()

	m := map[string]int{"b": 1, "a": 2, "c": 3}
	assert.Equal(t, []string{"a", "b", "c"}, SortedKeys(m))
}
