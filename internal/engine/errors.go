package engine

import (
	"fmt"
	"strings"
)

// StructuralError aborts a run before any node executes. It aggregates every
// violation found so a broken definition can be reported in one pass.
type StructuralError struct {
	Violations []error
}

func (e *StructuralError) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.Error())
	}
	return fmt.Sprintf("flow failed structural validation: %s", strings.Join(msgs, "; "))
}

// UnknownNodeError mirrors the graph-level error for query methods.
type UnknownNodeError struct {
	Name string
}

func (e *UnknownNodeError) Error() string {
	return fmt.Sprintf("node not found: %s", e.Name)
}
