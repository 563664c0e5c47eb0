package dag

import (
	"github.com/vk/rulegridgo/internal/node"
)

const startName = node.StartName

// Flow is the dependency graph of one rule flow: a registry of named nodes
// plus a target-to-sources adjacency. Registration order is preserved so that
// topological ordering is reproducible across runs.
type Flow struct {
	nodes map[string]node.Node
	order []string
	// deps maps a target to its dependency sources in insertion order.
	deps map[string][]string
}

// NewFlow returns an empty flow.
func NewFlow() *Flow {
	return &Flow{
		nodes: make(map[string]node.Node),
		deps:  make(map[string][]string),
	}
}

// AddNode registers n under its name, replacing any previous node with the
// same name while keeping its registration slot and dependencies.
func (f *Flow) AddNode(n node.Node) {
	name := n.Name()
	if _, exists := f.nodes[name]; !exists {
		f.order = append(f.order, name)
	}
	f.nodes[name] = n
}

// Node returns the registered node by name, or nil.
func (f *Flow) Node(name string) node.Node {
	return f.nodes[name]
}

// Contains reports whether a node with the given name is registered.
func (f *Flow) Contains(name string) bool {
	_, ok := f.nodes[name]
	return ok
}

// Names returns all node names in registration order.
func (f *Flow) Names() []string {
	return append([]string(nil), f.order...)
}

// Len returns the number of registered nodes.
func (f *Flow) Len() int { return len(f.nodes) }

// AddDependency declares that target depends on source. It is idempotent and
// rejects unknown endpoints.
func (f *Flow) AddDependency(source, target string) error {
	if _, ok := f.nodes[source]; !ok {
		return &UnknownNodeError{Name: source}
	}
	if _, ok := f.nodes[target]; !ok {
		return &UnknownNodeError{Name: target}
	}
	for _, existing := range f.deps[target] {
		if existing == source {
			return nil
		}
	}
	f.deps[target] = append(f.deps[target], source)
	return nil
}

// RemoveDependency removes the edge from source to target if present.
func (f *Flow) RemoveDependency(source, target string) {
	sources := f.deps[target]
	for i, existing := range sources {
		if existing == source {
			f.deps[target] = append(sources[:i:i], sources[i+1:]...)
			return
		}
	}
}

// RemoveNode unregisters the node and every edge touching it.
func (f *Flow) RemoveNode(name string) {
	if _, ok := f.nodes[name]; !ok {
		return
	}
	delete(f.nodes, name)
	delete(f.deps, name)
	for i, existing := range f.order {
		if existing == name {
			f.order = append(f.order[:i:i], f.order[i+1:]...)
			break
		}
	}
	for target := range f.deps {
		f.RemoveDependency(name, target)
	}
}

// Dependencies returns the names target depends on, in insertion order.
func (f *Flow) Dependencies(target string) []string {
	return append([]string(nil), f.deps[target]...)
}

// Dependents returns the names that depend on source, in registration order.
func (f *Flow) Dependents(source string) []string {
	var out []string
	for _, name := range f.order {
		for _, dep := range f.deps[name] {
			if dep == source {
				out = append(out, name)
				break
			}
		}
	}
	return out
}

// ExecutionOrder returns a topological ordering of all registered nodes using
// Kahn's algorithm. Nodes become ready in registration order, so the result
// is stable for a given construction sequence. A cycle yields a CycleError
// naming the unresolved remainder.
func (f *Flow) ExecutionOrder() ([]string, error) {
	indegree := make(map[string]int, len(f.nodes))
	for _, name := range f.order {
		indegree[name] = len(f.deps[name])
	}

	var queue []string
	for _, name := range f.order {
		if indegree[name] == 0 {
			queue = append(queue, name)
		}
	}

	ordered := make([]string, 0, len(f.nodes))
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		ordered = append(ordered, current)
		for _, dependent := range f.Dependents(current) {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(ordered) != len(f.nodes) {
		seen := make(map[string]bool, len(ordered))
		for _, name := range ordered {
			seen[name] = true
		}
		var remaining []string
		for _, name := range f.order {
			if !seen[name] {
				remaining = append(remaining, name)
			}
		}
		return nil, &CycleError{Remaining: remaining}
	}
	return ordered, nil
}

// Reachable returns the set of nodes reachable from the start node by
// following dependency edges forward.
func (f *Flow) Reachable() map[string]bool {
	reachable := make(map[string]bool)
	if _, ok := f.nodes[startName]; !ok {
		return reachable
	}
	queue := []string{startName}
	reachable[startName] = true
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, dependent := range f.Dependents(current) {
			if !reachable[dependent] {
				reachable[dependent] = true
				queue = append(queue, dependent)
			}
		}
	}
	return reachable
}

// Validate checks the structural invariants of the flow and returns every
// violation found: a missing start node, nodes unreachable from it, and
// dependency cycles.
func (f *Flow) Validate() []error {
	var errs []error
	if _, ok := f.nodes[startName]; !ok {
		errs = append(errs, &MissingStartError{})
	} else {
		reachable := f.Reachable()
		for _, name := range f.order {
			if !reachable[name] {
				errs = append(errs, &UnreachableNodeError{Name: name})
			}
		}
	}
	if _, err := f.ExecutionOrder(); err != nil {
		errs = append(errs, err)
	}
	return errs
}
