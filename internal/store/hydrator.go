package store

import (
	"context"
	"fmt"

	"github.com/vk/rulegridgo/internal/ctxlog"
	"github.com/vk/rulegridgo/internal/template"
)

// VariableKind says how a declared variable is read from the store.
type VariableKind string

const (
	// VariableValue reads a point value by key.
	VariableValue VariableKind = "value"
	// VariableDocument reads a JSON document into a string-keyed map.
	VariableDocument VariableKind = "document"
	// VariableSeriesRange reads a time-bounded slice of a series.
	VariableSeriesRange VariableKind = "series-range"
	// VariableSeriesAt reads a series' value at a single instant.
	VariableSeriesAt VariableKind = "series-at"
)

// VariableConfig declares one variable to hydrate before a run. Key, From,
// To and At are templates; ${...} tokens in them are expanded against the
// job date and placeholders.
type VariableConfig struct {
	Name      string       `json:"name"`
	Namespace string       `json:"namespace"`
	Kind      VariableKind `json:"kind"`
	Key       string       `json:"key"`

	// From and To bound a series-range read; At pins a series-at read.
	// All three accept date-arithmetic tokens, e.g. "${yyyy-MM-dd-7d}".
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
	At   string `json:"at,omitempty"`

	Dedupe DedupePolicy `json:"dedupe,omitempty"`
}

// Hydrator resolves a declared variable set into the variables map passed to
// the engine.
type Hydrator struct {
	store Store
}

// NewHydrator returns a hydrator over the given store.
func NewHydrator(s Store) *Hydrator {
	return &Hydrator{store: s}
}

// Hydrate expands every config's key templates and reads the values. Template
// problems (unresolved placeholders, bad dates) fail the whole call before
// any read; a per-variable store failure loads that variable as nil and is
// logged, so one missing input does not sink the run.
func (h *Hydrator) Hydrate(ctx context.Context, configs []VariableConfig, jobDate string, placeholders map[string]any) (map[string]any, error) {
	logger := ctxlog.FromContext(ctx)

	resolved := make([]VariableConfig, len(configs))
	for i, cfg := range configs {
		r, err := resolveConfig(ctx, cfg, jobDate, placeholders)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", cfg.Name, err)
		}
		resolved[i] = r
	}

	variables := make(map[string]any, len(resolved))
	for _, cfg := range resolved {
		value, err := h.read(ctx, cfg, jobDate)
		if err != nil {
			logger.Error("variable failed to load", "variable", cfg.Name, "key", cfg.Key, "error", err)
			variables[cfg.Name] = nil
			continue
		}
		variables[cfg.Name] = value
	}
	return variables, nil
}

func resolveConfig(ctx context.Context, cfg VariableConfig, jobDate string, placeholders map[string]any) (VariableConfig, error) {
	var err error
	if cfg.Key, err = template.Expand(ctx, cfg.Key, jobDate, placeholders); err != nil {
		return cfg, err
	}
	for _, field := range []*string{&cfg.From, &cfg.To, &cfg.At} {
		if *field == "" {
			continue
		}
		if *field, err = template.Expand(ctx, *field, jobDate, placeholders); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

func (h *Hydrator) read(ctx context.Context, cfg VariableConfig, jobDate string) (any, error) {
	switch cfg.Kind {
	case VariableValue:
		return h.store.Get(ctx, cfg.Namespace, cfg.Key)
	case VariableDocument:
		var doc map[string]any
		if err := h.store.GetJSON(ctx, cfg.Namespace, cfg.Key, &doc); err != nil {
			return nil, err
		}
		return doc, nil
	case VariableSeriesRange:
		from, err := template.ParseJobDate(orDefault(cfg.From, jobDate))
		if err != nil {
			return nil, fmt.Errorf("window start: %w", err)
		}
		to, err := template.ParseJobDate(orDefault(cfg.To, jobDate))
		if err != nil {
			return nil, fmt.Errorf("window end: %w", err)
		}
		points, err := h.store.GetSeriesRange(ctx, cfg.Namespace, cfg.Key, from, to, dedupeOrDefault(cfg.Dedupe))
		if err != nil {
			return nil, err
		}
		values := make([]any, len(points))
		for i, p := range points {
			values[i] = p.Value
		}
		return values, nil
	case VariableSeriesAt:
		at, err := template.ParseJobDate(orDefault(cfg.At, jobDate))
		if err != nil {
			return nil, fmt.Errorf("instant: %w", err)
		}
		return h.store.GetSeriesAt(ctx, cfg.Namespace, cfg.Key, at, dedupeOrDefault(cfg.Dedupe))
	default:
		return nil, fmt.Errorf("unknown variable kind %q", cfg.Kind)
	}
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func dedupeOrDefault(p DedupePolicy) DedupePolicy {
	if p == "" {
		return KeepLast
	}
	return p
}
