package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/vk/rulegridgo/internal/ctxlog"
)

const (
	kindValue  = "value"
	kindSeries = "series"
)

// Badger is the Store implementation backed by an embedded Badger database.
// Keys are laid out as namespace::kind::key, with series points extending the
// key by a zero-padded instant and a write sequence so duplicate instants
// remain distinguishable.
type Badger struct {
	db *badger.DB
}

// Open opens (or creates) a Badger store at path. An empty path opens an
// in-memory store, which is what the tests use.
func Open(path string) (*Badger, error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(path)
	}
	opts = opts.WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open value store: %w", err)
	}
	return &Badger{db: db}, nil
}

// Close releases the underlying database.
func (s *Badger) Close() error { return s.db.Close() }

func valueKey(namespace, key string) []byte {
	return []byte(fmt.Sprintf("%s::%s::%s", namespace, kindValue, key))
}

func seriesPrefix(namespace, key string) []byte {
	return []byte(fmt.Sprintf("%s::%s::%s::", namespace, kindSeries, key))
}

func seriesKey(namespace, key string, at time.Time, seq int64) []byte {
	return []byte(fmt.Sprintf("%s::%s::%s::%020d::%020d", namespace, kindSeries, key, at.UnixNano(), seq))
}

// Put implements Store.
func (s *Badger) Put(ctx context.Context, namespace, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode value %s/%s: %w", namespace, key, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(valueKey(namespace, key), data)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
}

// Get implements Store.
func (s *Badger) Get(ctx context.Context, namespace, key string) (any, error) {
	var out any
	err := s.getJSON(valueKey(namespace, key), &out)
	return out, err
}

// GetJSON implements Store.
func (s *Badger) GetJSON(ctx context.Context, namespace, key string, out any) error {
	return s.getJSON(valueKey(namespace, key), out)
}

func (s *Badger) getJSON(k []byte, out any) error {
	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(k)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, out)
		})
	})
}

// MultiGet implements Store.
func (s *Badger) MultiGet(ctx context.Context, namespace string, keys []string) (map[string]any, error) {
	out := make(map[string]any, len(keys))
	err := s.db.View(func(txn *badger.Txn) error {
		for _, key := range keys {
			item, err := txn.Get(valueKey(namespace, key))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			var v any
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &v)
			}); err != nil {
				return err
			}
			out[key] = v
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// PutSeriesPoint implements Store.
func (s *Badger) PutSeriesPoint(ctx context.Context, namespace, key string, at time.Time, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode series point %s/%s: %w", namespace, key, err)
	}
	seq := time.Now().UnixNano()
	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(seriesKey(namespace, key, at, seq), data)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
}

// GetSeriesRange implements Store.
func (s *Badger) GetSeriesRange(ctx context.Context, namespace, key string, from, to time.Time, policy DedupePolicy) ([]SeriesPoint, error) {
	logger := ctxlog.FromContext(ctx)
	var points []SeriesPoint
	prefix := seriesPrefix(namespace, key)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			at, err := parseSeriesInstant(item.Key(), prefix)
			if err != nil {
				logger.Warn("skipping malformed series key", "key", string(item.Key()), "error", err)
				continue
			}
			if at.Before(from) || at.After(to) {
				continue
			}
			var v any
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &v)
			}); err != nil {
				return err
			}
			// Iteration is instant-ascending, write-order-ascending within
			// one instant, so the dedupe policy reduces to keep or replace.
			if n := len(points); n > 0 && points[n-1].At.Equal(at) {
				if policy == KeepLast {
					points[n-1].Value = v
				}
				continue
			}
			points = append(points, SeriesPoint{At: at, Value: v})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return points, nil
}

// GetSeriesAt implements Store.
func (s *Badger) GetSeriesAt(ctx context.Context, namespace, key string, at time.Time, policy DedupePolicy) (any, error) {
	points, err := s.GetSeriesRange(ctx, namespace, key, time.Unix(0, 0), at, policy)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, ErrNotFound
	}
	return points[len(points)-1].Value, nil
}

func parseSeriesInstant(key, prefix []byte) (time.Time, error) {
	rest := bytes.TrimPrefix(key, prefix)
	parts := bytes.SplitN(rest, []byte("::"), 2)
	if len(parts) != 2 {
		return time.Time{}, fmt.Errorf("series key %q has no instant segment", key)
	}
	var nanos int64
	if _, err := fmt.Sscanf(string(parts[0]), "%d", &nanos); err != nil {
		return time.Time{}, fmt.Errorf("series key %q has unparsable instant: %w", key, err)
	}
	return time.Unix(0, nanos), nil
}
