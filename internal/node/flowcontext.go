package node

import (
	"fmt"
	"time"

	"github.com/vk/rulegridgo/internal/flowval"
)

// Entry is one variable in a flow-context: its value, the node that produced
// it, and when it was last updated.
type Entry struct {
	Value     any
	Source    string
	UpdatedAt time.Time
}

// FlowContext is a node's private, append-mostly store of variable values it
// has produced or inherited. Publishing follows a recency-wins rule: an
// existing entry is overwritten only by a strictly later timestamp.
type FlowContext struct {
	entries map[string]Entry
}

// NewFlowContext returns an empty flow-context.
func NewFlowContext() *FlowContext {
	return &FlowContext{entries: make(map[string]Entry)}
}

// Publish stores a variable. The value must pass the interchange-format
// serializability check; a failing value leaves the store untouched.
func (fc *FlowContext) Publish(name string, value any, source string, at time.Time) error {
	if err := flowval.Check(value); err != nil {
		return fmt.Errorf("variable %q cannot be stored in flow-context: %w", name, err)
	}
	if existing, ok := fc.entries[name]; ok {
		if !at.After(existing.UpdatedAt) {
			return nil
		}
	}
	fc.entries[name] = Entry{Value: value, Source: source, UpdatedAt: at}
	return nil
}

// Get returns the entry for name.
func (fc *FlowContext) Get(name string) (Entry, bool) {
	e, ok := fc.entries[name]
	return e, ok
}

// Names returns the stored variable names in lexical order.
func (fc *FlowContext) Names() []string {
	return flowval.SortedKeys(fc.entries)
}

// Values returns a name-to-value view without metadata.
func (fc *FlowContext) Values() map[string]any {
	out := make(map[string]any, len(fc.entries))
	for name, e := range fc.entries {
		out[name] = e.Value
	}
	return out
}

// Entries returns a copy of the full store including metadata.
func (fc *FlowContext) Entries() map[string]Entry {
	out := make(map[string]Entry, len(fc.entries))
	for name, e := range fc.entries {
		out[name] = e
	}
	return out
}

// Len returns the number of stored variables.
func (fc *FlowContext) Len() int {
	return len(fc.entries)
}

// Clear removes every entry.
func (fc *FlowContext) Clear() {
	fc.entries = make(map[string]Entry)
}
