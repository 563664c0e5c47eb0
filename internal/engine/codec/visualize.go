package codec

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vk/rulegridgo/internal/dag"
)

// Visualize renders a flow as indented text: each node with its kind,
// tracked variables, expected schema and dependencies, followed by the
// execution order when the graph is acyclic.
func Visualize(flow *dag.Flow, name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "flow %q (%d nodes)\n", name, flow.Len())
	for _, nodeName := range flow.Names() {
		n := flow.Node(nodeName)
		fmt.Fprintf(&b, "  %s [%s]\n", nodeName, n.Kind())
		if tracked := n.TrackedVariables(); len(tracked) > 0 {
			fmt.Fprintf(&b, "    tracked: %s\n", strings.Join(tracked, ", "))
		}
		if schema := n.ExpectedInputSchema(); len(schema) > 0 {
			vars := make([]string, 0, len(schema))
			for v := range schema {
				vars = append(vars, v)
			}
			sort.Strings(vars)
			pairs := make([]string, 0, len(vars))
			for _, v := range vars {
				pairs = append(pairs, fmt.Sprintf("%s=%s", v, schema[v]))
			}
			fmt.Fprintf(&b, "    expects: %s\n", strings.Join(pairs, ", "))
		}
		if deps := flow.Dependencies(nodeName); len(deps) > 0 {
			fmt.Fprintf(&b, "    after: %s\n", strings.Join(deps, ", "))
		}
	}
	if order, err := flow.ExecutionOrder(); err == nil {
		fmt.Fprintf(&b, "  order: %s\n", strings.Join(order, " -> "))
	} else {
		fmt.Fprintf(&b, "  order: %v\n", err)
	}
	return b.String()
}
