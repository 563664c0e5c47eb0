package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key has no live entry.
var ErrNotFound = errors.New("store: key not found")

// DedupePolicy resolves multiple series points recorded for the same instant.
type DedupePolicy string

const (
	// KeepFirst retains the earliest write for a duplicated instant.
	KeepFirst DedupePolicy = "keep-first"
	// KeepLast retains the latest write for a duplicated instant.
	KeepLast DedupePolicy = "keep-last"
)

// SeriesPoint is one timestamped observation in a series.
type SeriesPoint struct {
	At    time.Time
	Value any
}

// Store holds run inputs under namespaced keys. Values must be
// JSON-marshalable; Get returns them decoded.
type Store interface {
	// Put stores a point value. A zero ttl means the entry never expires.
	Put(ctx context.Context, namespace, key string, value any, ttl time.Duration) error
	// Get returns a point value, or ErrNotFound.
	Get(ctx context.Context, namespace, key string) (any, error)
	// GetJSON decodes a stored document into out.
	GetJSON(ctx context.Context, namespace, key string, out any) error
	// MultiGet fetches several point values in one transaction. Missing keys
	// are absent from the result rather than failing the batch.
	MultiGet(ctx context.Context, namespace string, keys []string) (map[string]any, error)

	// PutSeriesPoint appends one observation. Duplicate instants coexist and
	// are resolved at read time by the caller's policy.
	PutSeriesPoint(ctx context.Context, namespace, key string, at time.Time, value any, ttl time.Duration) error
	// GetSeriesRange returns the points with from <= At <= to in ascending
	// instant order, deduplicated per instant by policy.
	GetSeriesRange(ctx context.Context, namespace, key string, from, to time.Time, policy DedupePolicy) ([]SeriesPoint, error)
	// GetSeriesAt returns the value of the most recent point at or before the
	// given instant, deduplicated by policy, or ErrNotFound.
	GetSeriesAt(ctx context.Context, namespace, key string, at time.Time, policy DedupePolicy) (any, error)

	Close() error
}
