package template

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpand_DateTokens(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	cases := []struct {
		name string
		text string
		want string
	}{
		{"plain date", "${yyyy-MM-dd}", "2026-03-31"},
		{"compact date", "${yyyyMMdd}", "20260331"},
		{"year only", "${yyyy}", "2026"},
		{"minus days", "${yyyy-MM-dd-1d}", "2026-03-30"},
		{"plus weeks", "${yyyyMMdd+1w}", "20260407"},
		{"plus years", "${yyyy+2y}", "2028"},
		{"embedded", "load/${yyyyMMdd}/done", "load/20260331/done"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Expand(ctx, tc.text, "2026-03-31", nil)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestExpand_MonthArithmeticClampsDay(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	// The day is clamped to the target month's length instead of
	// normalizing into the month after it.
	got, err := Expand(ctx, "${yyyy-MM-dd+1M}", "2026-01-31", nil)
	require.NoError(t, err)
	assert.Equal(t, "2026-02-28", got)

	got, err = Expand(ctx, "${yyyy-MM-dd-1M}", "2026-03-31", nil)
	require.NoError(t, err)
	assert.Equal(t, "2026-02-28", got)

	got, err = Expand(ctx, "${yyyy-MM-dd+1M}", "2024-01-31", nil)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", got)
}

func TestExpand_TimeUnitsRequireTimeAnchor(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	got, err := Expand(ctx, "${yyyy-MM-dd HH:mm:ss-2H}", "2026-08-25 10:30:00", nil)
	require.NoError(t, err)
	assert.Equal(t, "2026-08-25 08:30:00", got)
}

func TestExpand_Placeholders(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	got, err := Expand(ctx, "region=${region} run=${run_no}", "2026-08-25", map[string]any{
		"region": "emea",
		"run_no": 7,
	})
	require.NoError(t, err)
	assert.Equal(t, "region=emea run=7", got)
}

func TestExpand_UnresolvedPlaceholderFails(t *testing.T) {
	t.Parallel()

	_, err := Expand(context.Background(), "x=${missing}", "2026-08-25", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestExpand_UnknownDateishTokenPassesThrough(t *testing.T) {
	t.Parallel()

	// Not an identifier and not a known date code, so it survives untouched.
	got, err := Expand(context.Background(), "${yyyy-MM-dd*3q}", "2026-08-25", nil)
	require.NoError(t, err)
	assert.Equal(t, "${yyyy-MM-dd*3q}", got)
}

func TestExpand_DateTokensWithoutAnchorPassThrough(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("empty job date", func(t *testing.T) {
		got, err := Expand(ctx, "f/${yyyyMMdd}/x", "", nil)
		require.NoError(t, err)
		assert.Equal(t, "f/${yyyyMMdd}/x", got)
	})

	t.Run("offset form", func(t *testing.T) {
		got, err := Expand(ctx, "${yyyy-MM-dd-7d}", "", nil)
		require.NoError(t, err)
		assert.Equal(t, "${yyyy-MM-dd-7d}", got)
	})

	t.Run("unparsable job date", func(t *testing.T) {
		got, err := Expand(ctx, "${yyyyMMdd}", "not-a-date", nil)
		require.NoError(t, err)
		assert.Equal(t, "${yyyyMMdd}", got)
	})

	t.Run("real placeholders still fail", func(t *testing.T) {
		_, err := Expand(ctx, "${missing}", "", nil)
		require.Error(t, err)
	})
}

func TestExpand_NoTokensIsIdentity(t *testing.T) {
	t.Parallel()

	got, err := Expand(context.Background(), "nothing to do", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "nothing to do", got)
}

func TestParseJobDate(t *testing.T) {
	t.Parallel()

	d, err := ParseJobDate("2026-08-25")
	require.NoError(t, err)
	assert.Equal(t, 2026, d.Year())

	dt, err := ParseJobDate("2026-08-25 13:45:00")
	require.NoError(t, err)
	assert.Equal(t, 13, dt.Hour())

	_, err = ParseJobDate("25/08/2026")
	require.Error(t, err)
}
