package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/rulegridgo/internal/flowval"
)

func TestParse_ScalarAliases(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"int":     "int",
		"str":     "string",
		"string":  "string",
		"float":   "double",
		"double":  "double",
		"bool":    "boolean",
		"boolean": "boolean",
		"None":    "None",
	}
	for text, want := range cases {
		d, err := Parse(text)
		require.NoError(t, err, text)
		assert.Equal(t, want, d.String(), text)
	}

	_, err := Parse("decimal")
	require.Error(t, err)
	_, err = Parse("")
	require.Error(t, err)
}

func TestValue_Validate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		desc  string
		value any
		want  bool
	}{
		{"int", 42, true},
		{"int", int64(42), true},
		{"int", 3.0, true},
		{"int", 3.5, false},
		{"int", "42", false},
		{"double", 3.5, true},
		{"double", 3, true},
		{"double", "3.5", false},
		{"string", "hi", true},
		{"string", 1, false},
		{"boolean", true, true},
		{"boolean", 0, false},
		{"dict", map[string]any{"a": 1}, true},
		{"dict", map[int]any{1: 1}, false},
		{"list", []any{1, 2}, true},
		{"list", "not a list", false},
		{"None", nil, true},
		{"None", 0, false},
	}
	for _, tc := range cases {
		d, err := Parse(tc.desc)
		require.NoError(t, err)
		assert.Equalf(t, tc.want, d.Validate(tc.value), "%s vs %#v", tc.desc, tc.value)
	}
}

func TestParse_Dataset(t *testing.T) {
	t.Parallel()

	d, err := Parse("name:str, age:int, score:float")
	require.NoError(t, err)
	assert.Equal(t, "name:string,age:int,score:double", d.String())

	_, err = Parse("name:str,name:int")
	require.Error(t, err, "duplicate column must be rejected")
	_, err = Parse("name:dict")
	require.Error(t, err, "dict cannot be a column type")
	_, err = Parse("name")
	require.Error(t, err)
}

func TestDataset_Validate(t *testing.T) {
	t.Parallel()

	desc, err := Parse("name:string,age:int")
	require.NoError(t, err)

	ds, err := flowval.NewDataset("name", "age")
	require.NoError(t, err)
	require.NoError(t, ds.AppendRow("ada", 36))
	require.NoError(t, ds.AppendRow("alan", 41))
	assert.True(t, desc.Validate(ds))

	t.Run("wrong cell type", func(t *testing.T) {
		bad, err := flowval.NewDataset("name", "age")
		require.NoError(t, err)
		require.NoError(t, bad.AppendRow("ada", "not an int"))
		assert.False(t, desc.Validate(bad))
	})

	t.Run("column set must match exactly", func(t *testing.T) {
		extra, err := flowval.NewDataset("name", "age", "city")
		require.NoError(t, err)
		assert.False(t, desc.Validate(extra))

		missing, err := flowval.NewDataset("name")
		require.NoError(t, err)
		assert.False(t, desc.Validate(missing))
	})

	t.Run("non-dataset value", func(t *testing.T) {
		assert.False(t, desc.Validate(map[string]any{"name": "ada"}))
	})
}
