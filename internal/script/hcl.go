package script

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"

	"github.com/vk/rulegridgo/internal/ctxlog"
	"github.com/vk/rulegridgo/internal/flowval"
)

// HCL evaluates scripted bodies as HCL attribute assignments and conditions
// as native HCL expressions. A body is a sequence of `name = expression`
// lines evaluated top to bottom; earlier assignments are visible to later
// expressions.
type HCL struct {
	funcs map[string]function.Function
}

// NewHCL returns an HCL script engine exposing the standard data-manipulation
// helpers.
func NewHCL() *HCL {
	return &HCL{funcs: standardFunctions()}
}

// standardFunctions is the helper surface exposed to every scripted body.
func standardFunctions() map[string]function.Function {
	return map[string]function.Function{
		"abs":      stdlib.AbsoluteFunc,
		"ceil":     stdlib.CeilFunc,
		"floor":    stdlib.FloorFunc,
		"max":      stdlib.MaxFunc,
		"min":      stdlib.MinFunc,
		"upper":    stdlib.UpperFunc,
		"lower":    stdlib.LowerFunc,
		"length":   stdlib.LengthFunc,
		"strlen":   stdlib.StrlenFunc,
		"concat":   stdlib.ConcatFunc,
		"contains": stdlib.ContainsFunc,
		"join":     stdlib.JoinFunc,
		"split":    stdlib.SplitFunc,
		"substr":   stdlib.SubstrFunc,
		"format":   stdlib.FormatFunc,
		"coalesce": stdlib.CoalesceFunc,
		"range":    stdlib.RangeFunc,
		"keys":     stdlib.KeysFunc,
		"values":   stdlib.ValuesFunc,
		"flatten":  stdlib.FlattenFunc,
		"merge":    stdlib.MergeFunc,
		"sort":     stdlib.SortFunc,
		"distinct": stdlib.DistinctFunc,
		"reverse":  stdlib.ReverseListFunc,
	}
}

// evalContext encodes bindings into a cty evaluation context. Bindings that
// cannot be represented in the interchange format are skipped rather than
// failing the whole evaluation; they are simply invisible to the script.
func (h *HCL) evalContext(ctx context.Context, bindings map[string]any) *hcl.EvalContext {
	logger := ctxlog.FromContext(ctx)
	vars := make(map[string]cty.Value, len(bindings))
	for name, v := range bindings {
		cv, err := flowval.Encode(v)
		if err != nil {
			logger.Debug("Binding is not representable, hiding it from the script.", "name", name, "error", err)
			continue
		}
		vars[name] = cv
	}
	return &hcl.EvalContext{Variables: vars, Functions: h.funcs}
}

// Evaluate implements Engine.
func (h *HCL) Evaluate(ctx context.Context, code string, bindings map[string]any) (map[string]any, error) {
	file, diags := hclsyntax.ParseConfig([]byte(code), "logic", hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse logic body: %w", diags)
	}
	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return nil, fmt.Errorf("parse logic body: unexpected body type %T", file.Body)
	}
	if len(body.Blocks) > 0 {
		return nil, fmt.Errorf("logic body may only contain assignments, found a %q block", body.Blocks[0].Type)
	}

	// Attribute maps are unordered; recover source order so assignments see
	// their predecessors.
	attrs := make([]*hclsyntax.Attribute, 0, len(body.Attributes))
	for _, attr := range body.Attributes {
		attrs = append(attrs, attr)
	}
	sort.Slice(attrs, func(i, j int) bool {
		return attrs[i].SrcRange.Start.Byte < attrs[j].SrcRange.Start.Byte
	})

	evalCtx := h.evalContext(ctx, bindings)
	out := make(map[string]any, len(bindings)+len(attrs))
	for name, v := range bindings {
		out[name] = v
	}

	for _, attr := range attrs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		val, diags := attr.Expr.Value(evalCtx)
		if diags.HasErrors() {
			return nil, fmt.Errorf("evaluate %q: %w", attr.Name, diags)
		}
		decoded, err := flowval.Decode(val)
		if err != nil {
			return nil, fmt.Errorf("assignment %q produced a non-interchange value: %w", attr.Name, err)
		}
		evalCtx.Variables[attr.Name] = val
		out[attr.Name] = decoded
	}
	return out, nil
}

// EvaluateExpr implements Engine.
func (h *HCL) EvaluateExpr(ctx context.Context, exprText string, bindings map[string]any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	expr, diags := hclsyntax.ParseExpression([]byte(exprText), "expr", hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse expression: %w", diags)
	}
	val, diags := expr.Value(h.evalContext(ctx, bindings))
	if diags.HasErrors() {
		return nil, fmt.Errorf("evaluate expression: %w", diags)
	}
	return flowval.Decode(val)
}
