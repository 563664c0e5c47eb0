package dag

import (
	"fmt"
	"strings"
)

// UnknownNodeError reports a dependency endpoint that is not registered.
type UnknownNodeError struct {
	Name string
}

func (e *UnknownNodeError) Error() string {
	return fmt.Sprintf("node not found: %s", e.Name)
}

// CycleError reports that the dependency relation is not acyclic. Remaining
// names the nodes the topological sort could not resolve.
type CycleError struct {
	Remaining []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("circular dependency detected involving: %s", strings.Join(e.Remaining, ", "))
}

// UnreachableNodeError reports a registered node with no path from the start
// node.
type UnreachableNodeError struct {
	Name string
}

func (e *UnreachableNodeError) Error() string {
	return fmt.Sprintf("unreachable node (not connected to %s): %s", startName, e.Name)
}

// MissingStartError reports a flow without its distinguished start node.
type MissingStartError struct{}

func (e *MissingStartError) Error() string {
	return fmt.Sprintf("missing %s", startName)
}
