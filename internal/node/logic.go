package node

import (
	"context"
	"errors"

	"github.com/vk/rulegridgo/internal/template"
)

// LogicNode produces data: it runs a scripted body against its merged
// variable environment and publishes its tracked variables.
type LogicNode struct {
	core
	logicCode string
}

// NewLogic creates a logic node. An empty name gets a generated one.
func NewLogic(name, logicCode string) *LogicNode {
	return &LogicNode{core: newCore(name, KindLogic), logicCode: logicCode}
}

// SetLogic replaces the node's scripted body.
func (n *LogicNode) SetLogic(code string) { n.logicCode = code }

// LogicCode returns the node's scripted body.
func (n *LogicNode) LogicCode() string { return n.logicCode }

// Execute implements Node.
func (n *LogicNode) Execute(ctx context.Context, env *Env) *Result {
	if n.logicCode == "" {
		return Failed(KindLogic, errors.New("no logic code provided"))
	}
	if err := n.inherit(); err != nil {
		return Failed(KindLogic, err)
	}

	code, err := template.Expand(ctx, n.logicCode, env.JobDate, env.Placeholders)
	if err != nil {
		return Failed(KindLogic, err)
	}
	bindings := n.bindings(env)
	if err := expandStringBindings(ctx, env, bindings); err != nil {
		return Failed(KindLogic, err)
	}

	result, err := env.Script.Evaluate(ctx, code, bindings)
	if err != nil {
		return Failed(KindLogic, err)
	}

	data, err := n.publishTracked(env, result)
	if err != nil {
		return Failed(KindLogic, err)
	}
	return Succeeded(KindLogic, data)
}
