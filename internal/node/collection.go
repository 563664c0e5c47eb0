package node

import (
	"context"

	"github.com/vk/rulegridgo/internal/schema"
	"github.com/vk/rulegridgo/internal/template"
)

// CollectionVariable is the reserved binding under which a collection node's
// scripted body sees the per-ancestor variable maps.
const CollectionVariable = "collection"

// CollectionNode aggregates upstream results per ancestor instead of merging
// them into one flat namespace. An ancestor's variables are retained only if
// every schema-declared variable is present and individually valid; partial
// matches are discarded entirely for that ancestor.
type CollectionNode struct {
	core
	logicCode string
	collected map[string]map[string]any
}

// NewCollection creates a collection node. An empty name gets a generated one.
func NewCollection(name, logicCode string) *CollectionNode {
	return &CollectionNode{core: newCore(name, KindCollection), logicCode: logicCode}
}

// SetLogic replaces the node's optional scripted body.
func (n *CollectionNode) SetLogic(code string) { n.logicCode = code }

// LogicCode returns the node's scripted body.
func (n *CollectionNode) LogicCode() string { return n.logicCode }

// Collected returns the per-ancestor maps retained by the last execution.
func (n *CollectionNode) Collected() map[string]map[string]any {
	out := make(map[string]map[string]any, len(n.collected))
	for name, vars := range n.collected {
		inner := make(map[string]any, len(vars))
		for k, v := range vars {
			inner[k] = v
		}
		out[name] = inner
	}
	return out
}

// Execute implements Node.
func (n *CollectionNode) Execute(ctx context.Context, env *Env) *Result {
	if err := n.inherit(); err != nil {
		return Failed(KindCollection, err)
	}

	collected, err := n.collect()
	if err != nil {
		return Failed(KindCollection, err)
	}
	n.collected = collected

	if n.logicCode == "" {
		return Succeeded(KindCollection, anyMap(collected))
	}

	code, err := template.Expand(ctx, n.logicCode, env.JobDate, env.Placeholders)
	if err != nil {
		return Failed(KindCollection, err)
	}
	bindings := make(map[string]any, len(env.Globals)+1)
	for k, v := range env.Globals {
		bindings[k] = v
	}
	bindings[CollectionVariable] = anyMap(collected)
	if err := expandStringBindings(ctx, env, bindings); err != nil {
		return Failed(KindCollection, err)
	}

	result, err := env.Script.Evaluate(ctx, code, bindings)
	if err != nil {
		return Failed(KindCollection, err)
	}
	data, err := n.publishTracked(env, result)
	if err != nil {
		return Failed(KindCollection, err)
	}
	return Succeeded(KindCollection, data)
}

// collect applies the all-or-nothing retention rule to each ancestor's
// flow-context.
func (n *CollectionNode) collect() (map[string]map[string]any, error) {
	collected := make(map[string]map[string]any)
	for _, up := range n.upstream {
		values := up.FlowContext().Values()
		if len(values) == 0 {
			continue
		}
		kept := make(map[string]any, len(n.schema))
		complete := true
		for varName, descText := range n.schema {
			desc, err := schema.Parse(descText)
			if err != nil {
				return nil, err
			}
			v, ok := values[varName]
			if !ok || !desc.Validate(v) {
				complete = false
				break
			}
			kept[varName] = v
		}
		if complete {
			collected[up.Name()] = kept
		}
	}
	return collected, nil
}

func anyMap(collected map[string]map[string]any) map[string]any {
	out := make(map[string]any, len(collected))
	for name, vars := range collected {
		out[name] = vars
	}
	return out
}
