// Package script defines the engine's scripted-body capability. Logic nodes
// carry small scripted bodies and gate nodes carry boolean condition
// expressions; both are evaluated against the node's merged variable
// environment by a pluggable Engine so deployments can choose their backend.
package script

import "context"

// Engine evaluates scripted node bodies and condition expressions against a
// variable environment. Implementations must treat bindings as read-only and
// return a fresh map from Evaluate.
type Engine interface {
	// Evaluate runs a scripted body. The returned map contains every input
	// binding plus any variables the body assigned.
	Evaluate(ctx context.Context, code string, bindings map[string]any) (map[string]any, error)

	// EvaluateExpr evaluates a single expression and returns its value.
	EvaluateExpr(ctx context.Context, expr string, bindings map[string]any) (any, error)
}
