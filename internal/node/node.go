package node

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/vk/rulegridgo/internal/schema"
	"github.com/vk/rulegridgo/internal/script"
	"github.com/vk/rulegridgo/internal/template"
)

// Kind identifies a node variant.
type Kind string

const (
	KindStart      Kind = "start"
	KindLogic      Kind = "logic"
	KindGate       Kind = "gate"
	KindCollection Kind = "collection"
)

// Env is the execution environment the engine hands to each node: the
// run-level globals, the job date and placeholders for template expansion,
// and the script backend. Nodes treat Globals as read-only.
type Env struct {
	Globals      map[string]any
	JobDate      string
	Placeholders map[string]any
	Script       script.Engine

	// Now supplies flow-context timestamps; nil means time.Now.
	Now func() time.Time
}

func (e *Env) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// Node is the shared capability of all variants. The engine and the
// dependency graph depend only on this interface.
type Node interface {
	Name() string
	Kind() Kind

	// Execute runs the node against env and returns its outcome. It never
	// panics for script-level problems; those become failed results.
	Execute(ctx context.Context, env *Env) *Result

	TrackedVariables() []string
	SetTrackedVariables(names []string)
	AddTrackedVariable(name string)

	ExpectedInputSchema() map[string]string
	SetExpectedInputSchema(descriptors map[string]string)
	AddExpectedInputSchema(name, descriptor string)

	FlowContext() *FlowContext

	// SetUpstream installs the handles to the node's viable ancestors for the
	// current run; the engine calls it immediately before Execute.
	SetUpstream(nodes []Node)
	Upstream() []Node
}

// core carries the state every variant shares.
type core struct {
	name     string
	kind     Kind
	tracked  []string
	schema   map[string]string
	flow     *FlowContext
	upstream []Node
}

func newCore(name string, kind Kind) core {
	if name == "" {
		name = fmt.Sprintf("%s_%s", kind, randomName(8))
	}
	return core{
		name:   name,
		kind:   kind,
		schema: make(map[string]string),
		flow:   NewFlowContext(),
	}
}

func (c *core) Name() string { return c.name }
func (c *core) Kind() Kind   { return c.kind }

func (c *core) TrackedVariables() []string {
	return append([]string(nil), c.tracked...)
}

func (c *core) SetTrackedVariables(names []string) {
	c.tracked = append([]string(nil), names...)
}

func (c *core) AddTrackedVariable(name string) {
	for _, existing := range c.tracked {
		if existing == name {
			return
		}
	}
	c.tracked = append(c.tracked, name)
}

func (c *core) ExpectedInputSchema() map[string]string {
	out := make(map[string]string, len(c.schema))
	for k, v := range c.schema {
		out[k] = v
	}
	return out
}

func (c *core) SetExpectedInputSchema(descriptors map[string]string) {
	c.schema = make(map[string]string, len(descriptors))
	for k, v := range descriptors {
		c.schema[k] = v
	}
}

func (c *core) AddExpectedInputSchema(name, descriptor string) {
	c.schema[name] = descriptor
}

func (c *core) FlowContext() *FlowContext { return c.flow }

func (c *core) SetUpstream(nodes []Node) {
	c.upstream = append([]Node(nil), nodes...)
}

func (c *core) Upstream() []Node {
	return append([]Node(nil), c.upstream...)
}

// inherit merges every upstream ancestor's flow-context into this node's own
// store, validating schema-declared variables first (collection nodes defer
// their checks to collection time). Inherited entries keep their original
// timestamps so the recency-wins rule compares real production times.
func (c *core) inherit() error {
	for _, up := range c.upstream {
		entries := up.FlowContext().Entries()
		for _, name := range sortedEntryNames(entries) {
			entry := entries[name]
			if descText, declared := c.schema[name]; declared && c.kind != KindCollection {
				desc, err := schema.Parse(descText)
				if err != nil {
					return fmt.Errorf("schema for variable %q: %w", name, err)
				}
				if !desc.Validate(entry.Value) {
					return fmt.Errorf("input variable %q from %q failed validation against %q", name, entry.Source, descText)
				}
			}
			if err := c.flow.Publish(name, entry.Value, entry.Source, entry.UpdatedAt); err != nil {
				return err
			}
		}
	}
	return nil
}

// bindings builds the local variable environment a scripted body sees:
// run-level globals overlaid by this node's flow-context values.
func (c *core) bindings(env *Env) map[string]any {
	out := make(map[string]any, len(env.Globals)+c.flow.Len())
	for k, v := range env.Globals {
		out[k] = v
	}
	for k, v := range c.flow.Values() {
		out[k] = v
	}
	return out
}

// expandStringBindings applies ${...} expansion to every string-valued
// binding, mirroring the expansion applied to the code itself.
func expandStringBindings(ctx context.Context, env *Env, bindings map[string]any) error {
	for k, v := range bindings {
		s, ok := v.(string)
		if !ok || !strings.Contains(s, "${") {
			continue
		}
		expanded, err := template.Expand(ctx, s, env.JobDate, env.Placeholders)
		if err != nil {
			return fmt.Errorf("expand variable %q: %w", k, err)
		}
		bindings[k] = expanded
	}
	return nil
}

// publishTracked commits every tracked variable present in the post-execution
// bindings to the flow-context and returns the tracked subset as the result
// payload.
func (c *core) publishTracked(env *Env, bindings map[string]any) (map[string]any, error) {
	for _, name := range c.tracked {
		v, ok := bindings[name]
		if !ok {
			continue
		}
		if err := c.flow.Publish(name, v, c.name, env.now()); err != nil {
			return nil, err
		}
	}
	values := c.flow.Values()
	data := make(map[string]any, len(c.tracked))
	for _, name := range c.tracked {
		if v, ok := values[name]; ok {
			data[name] = v
		}
	}
	return data, nil
}

func sortedEntryNames(entries map[string]Entry) []string {
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	// Lexical order keeps merges deterministic when timestamps tie.
	sort.Strings(names)
	return names
}

const nameAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func randomName(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = nameAlphabet[rand.Intn(len(nameAlphabet))]
	}
	return string(b)
}
