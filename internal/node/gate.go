package node

import (
	"context"
	"fmt"

	"github.com/vk/rulegridgo/internal/template"
)

// GateNode evaluates a boolean condition over its merged environment. It
// never blocks itself; the engine reads ShouldContinue to decide whether the
// gate is a viable path for its dependents.
type GateNode struct {
	core
	condition      string
	shouldContinue bool
}

// NewGate creates a gate node. An empty condition defaults to the literal
// false, so an unconfigured gate denies continuation.
func NewGate(name, condition string) *GateNode {
	if condition == "" {
		condition = "false"
	}
	return &GateNode{core: newCore(name, KindGate), condition: condition}
}

// SetCondition replaces the gate's condition expression, e.g. "x < 2".
func (n *GateNode) SetCondition(condition string) { n.condition = condition }

// Condition returns the gate's condition expression.
func (n *GateNode) Condition() string { return n.condition }

// ShouldContinue reports the outcome of the last evaluation.
func (n *GateNode) ShouldContinue() bool { return n.shouldContinue }

// Execute implements Node.
func (n *GateNode) Execute(ctx context.Context, env *Env) *Result {
	if err := n.inherit(); err != nil {
		return Failed(KindGate, err)
	}

	condition, err := template.Expand(ctx, n.condition, env.JobDate, env.Placeholders)
	if err != nil {
		return Failed(KindGate, err)
	}
	bindings := n.bindings(env)
	if err := expandStringBindings(ctx, env, bindings); err != nil {
		return Failed(KindGate, err)
	}

	value, err := env.Script.EvaluateExpr(ctx, condition, bindings)
	if err != nil {
		return Failed(KindGate, err)
	}
	ok, isBool := value.(bool)
	if !isBool {
		return Failed(KindGate, fmt.Errorf("condition %q evaluated to %T, want a boolean", n.condition, value))
	}

	n.shouldContinue = ok
	return Succeeded(KindGate, map[string]any{"should_continue": ok})
}
