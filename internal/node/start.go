package node

import "context"

// StartName is the reserved name of the graph's sole dependency-free root.
const StartName = "start_node"

// StartNode does no work; it exists so every other node is reachable from a
// single root.
type StartNode struct {
	core
}

// NewStart returns the start node. An empty name uses the reserved default.
func NewStart(name string) *StartNode {
	if name == "" {
		name = StartName
	}
	return &StartNode{core: newCore(name, KindStart)}
}

// Execute implements Node.
func (n *StartNode) Execute(ctx context.Context, env *Env) *Result {
	return Succeeded(KindStart, map[string]any{})
}
