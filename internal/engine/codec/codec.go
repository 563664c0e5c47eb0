package codec

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/tailscale/hujson"

	"github.com/vk/rulegridgo/internal/dag"
	"github.com/vk/rulegridgo/internal/node"
)

const (
	typeLogic      = "LogicNode"
	typeGate       = "GateNode"
	typeCollection = "CollectionNode"
)

type nodeDef struct {
	Type                string            `json:"type"`
	Name                string            `json:"name"`
	TrackedVariables    []string          `json:"tracked_variables"`
	ExpectedInputSchema map[string]string `json:"expected_input_schema"`
	LogicCode           string            `json:"logic_code,omitempty"`
	Condition           string            `json:"condition,omitempty"`
}

type flowDef struct {
	Name         string              `json:"name"`
	Nodes        map[string]nodeDef  `json:"nodes"`
	Dependencies map[string][]string `json:"dependencies"`
}

// Export serializes a flow definition. The start node is implicit and never
// written; every other node carries the same four declared shapes.
func Export(flow *dag.Flow, name string) ([]byte, error) {
	def := flowDef{
		Name:         name,
		Nodes:        make(map[string]nodeDef),
		Dependencies: make(map[string][]string),
	}
	for _, nodeName := range flow.Names() {
		n := flow.Node(nodeName)
		if n.Kind() == node.KindStart {
			continue
		}
		d := nodeDef{
			Name:                n.Name(),
			TrackedVariables:    n.TrackedVariables(),
			ExpectedInputSchema: n.ExpectedInputSchema(),
		}
		switch v := n.(type) {
		case *node.LogicNode:
			d.Type = typeLogic
			d.LogicCode = v.LogicCode()
		case *node.GateNode:
			d.Type = typeGate
			d.Condition = v.Condition()
		case *node.CollectionNode:
			d.Type = typeCollection
			d.LogicCode = v.LogicCode()
		default:
			return nil, fmt.Errorf("node %q has unserializable kind %q", nodeName, n.Kind())
		}
		def.Nodes[nodeName] = d
	}
	for _, target := range flow.Names() {
		if deps := flow.Dependencies(target); len(deps) > 0 {
			def.Dependencies[target] = deps
		}
	}
	return json.MarshalIndent(def, "", "  ")
}

// Import parses a definition, tolerant of comments and trailing commas, and
// rebuilds the flow: the start node is re-created, nodes are reconstructed by
// type, then every dependency pair is replayed. Pairs whose endpoints are not
// both registered are skipped rather than failing the whole import.
func Import(data []byte) (*dag.Flow, string, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return nil, "", fmt.Errorf("parse flow definition: %w", err)
	}
	var def flowDef
	if err := json.Unmarshal(standardized, &def); err != nil {
		return nil, "", fmt.Errorf("decode flow definition: %w", err)
	}

	flow := dag.NewFlow()
	flow.AddNode(node.NewStart(""))

	// Lexical registration keeps execution order reproducible regardless of
	// map iteration.
	names := make([]string, 0, len(def.Nodes))
	for name := range def.Nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		d := def.Nodes[name]
		n, err := buildNode(name, d)
		if err != nil {
			return nil, "", err
		}
		n.SetTrackedVariables(d.TrackedVariables)
		n.SetExpectedInputSchema(d.ExpectedInputSchema)
		flow.AddNode(n)
	}

	targets := make([]string, 0, len(def.Dependencies))
	for target := range def.Dependencies {
		targets = append(targets, target)
	}
	sort.Strings(targets)
	for _, target := range targets {
		for _, source := range def.Dependencies[target] {
			if !flow.Contains(source) || !flow.Contains(target) {
				continue
			}
			if err := flow.AddDependency(source, target); err != nil {
				return nil, "", err
			}
		}
	}
	return flow, def.Name, nil
}

func buildNode(name string, d nodeDef) (node.Node, error) {
	switch d.Type {
	case typeLogic:
		return node.NewLogic(name, d.LogicCode), nil
	case typeGate:
		return node.NewGate(name, d.Condition), nil
	case typeCollection:
		return node.NewCollection(name, d.LogicCode), nil
	default:
		return nil, fmt.Errorf("node %q has unknown type %q", name, d.Type)
	}
}

// SaveFile exports a flow definition to path.
func SaveFile(flow *dag.Flow, name, path string) error {
	data, err := Export(flow, name)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadFile imports a flow definition from path.
func LoadFile(path string) (*dag.Flow, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read flow definition: %w", err)
	}
	return Import(data)
}
