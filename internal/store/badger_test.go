package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Badger {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBadger_PutGet(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "rates", "usd", 1.08, 0))

	v, err := s.Get(ctx, "rates", "usd")
	require.NoError(t, err)
	assert.Equal(t, 1.08, v)

	_, err = s.Get(ctx, "rates", "ghost")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = s.Get(ctx, "other-namespace", "usd")
	require.ErrorIs(t, err, ErrNotFound, "namespaces do not leak into each other")
}

func TestBadger_GetJSON(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	doc := map[string]any{"region": "emea", "threshold": 5.0}
	require.NoError(t, s.Put(ctx, "config", "limits", doc, 0))

	var out map[string]any
	require.NoError(t, s.GetJSON(ctx, "config", "limits", &out))
	assert.Equal(t, doc, out)
}

func TestBadger_MultiGet(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "ns", "a", "one", 0))
	require.NoError(t, s.Put(ctx, "ns", "b", "two", 0))

	got, err := s.MultiGet(ctx, "ns", []string{"a", "b", "missing"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": "one", "b": "two"}, got,
		"missing keys are absent, not an error")
}

func TestBadger_SeriesRange(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	day := func(d int) time.Time {
		return time.Date(2026, 8, d, 0, 0, 0, 0, time.UTC)
	}
	require.NoError(t, s.PutSeriesPoint(ctx, "metrics", "load", day(1), 10.0, 0))
	require.NoError(t, s.PutSeriesPoint(ctx, "metrics", "load", day(2), 20.0, 0))
	require.NoError(t, s.PutSeriesPoint(ctx, "metrics", "load", day(3), 30.0, 0))

	points, err := s.GetSeriesRange(ctx, "metrics", "load", day(1), day(2), KeepLast)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, 10.0, points[0].Value)
	assert.Equal(t, 20.0, points[1].Value)
	assert.True(t, points[0].At.Before(points[1].At))
}

func TestBadger_SeriesDuplicateResolution(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	at := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.PutSeriesPoint(ctx, "metrics", "dup", at, "first", 0))
	require.NoError(t, s.PutSeriesPoint(ctx, "metrics", "dup", at, "second", 0))

	first, err := s.GetSeriesRange(ctx, "metrics", "dup", at, at, KeepFirst)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, "first", first[0].Value)

	last, err := s.GetSeriesRange(ctx, "metrics", "dup", at, at, KeepLast)
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.Equal(t, "second", last[0].Value)
}

func TestBadger_SeriesAt(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	day := func(d int) time.Time {
		return time.Date(2026, 8, d, 0, 0, 0, 0, time.UTC)
	}
	require.NoError(t, s.PutSeriesPoint(ctx, "metrics", "rate", day(1), 1.0, 0))
	require.NoError(t, s.PutSeriesPoint(ctx, "metrics", "rate", day(10), 2.0, 0))

	v, err := s.GetSeriesAt(ctx, "metrics", "rate", day(5), KeepLast)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v, "the most recent point at or before the instant")

	_, err = s.GetSeriesAt(ctx, "metrics", "ghost", day(5), KeepLast)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestHydrator_ResolvesDeclaredVariables(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "rates", "usd-2026-08-25", 1.08, 0))
	require.NoError(t, s.Put(ctx, "config", "emea-limits", map[string]any{"max": 9.0}, 0))

	configs := []VariableConfig{
		{Name: "usd_rate", Namespace: "rates", Kind: VariableValue, Key: "usd-${yyyy-MM-dd}"},
		{Name: "limits", Namespace: "config", Kind: VariableDocument, Key: "${region}-limits"},
	}
	vars, err := NewHydrator(s).Hydrate(ctx, configs, "2026-08-25", map[string]any{"region": "emea"})
	require.NoError(t, err)

	assert.Equal(t, 1.08, vars["usd_rate"])
	assert.Equal(t, map[string]any{"max": 9.0}, vars["limits"])
}

func TestHydrator_SeriesWindow(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	for d := 20; d <= 25; d++ {
		at := time.Date(2026, 8, d, 0, 0, 0, 0, time.UTC)
		require.NoError(t, s.PutSeriesPoint(ctx, "metrics", "daily", at, float64(d), 0))
	}

	configs := []VariableConfig{{
		Name:      "window",
		Namespace: "metrics",
		Kind:      VariableSeriesRange,
		Key:       "daily",
		From:      "${yyyy-MM-dd-2d}",
		To:        "${yyyy-MM-dd}",
	}}
	vars, err := NewHydrator(s).Hydrate(ctx, configs, "2026-08-25", nil)
	require.NoError(t, err)
	assert.Equal(t, []any{23.0, 24.0, 25.0}, vars["window"])
}

func TestHydrator_MissingPlaceholderFailsUpFront(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	configs := []VariableConfig{
		{Name: "v", Namespace: "ns", Kind: VariableValue, Key: "${undeclared}"},
	}
	_, err := NewHydrator(s).Hydrate(context.Background(), configs, "2026-08-25", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undeclared")
}

func TestHydrator_StoreMissLoadsNil(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	configs := []VariableConfig{
		{Name: "absent", Namespace: "ns", Kind: VariableValue, Key: "nothing-here"},
	}
	vars, err := NewHydrator(s).Hydrate(context.Background(), configs, "2026-08-25", nil)
	require.NoError(t, err, "a per-variable miss does not sink the hydration")
	require.Contains(t, vars, "absent")
	assert.Nil(t, vars["absent"])
}
