package engine

import (
	"github.com/vk/rulegridgo/internal/node"
)

// Summary is a read-only aggregate view over the last run's results. The
// success rate excludes blocked nodes from its denominator because blocking
// is an intended control-flow outcome, not a defect.
type Summary struct {
	RunID        string
	Total        int
	Executed     int
	Failed       int
	Blocked      int
	Skipped      int
	SuccessRate  float64
	Order        []string
	FailedNodes  []string
	BlockedNodes []string
}

// Summary derives the aggregate view of the last run.
func (e *Engine) Summary() *Summary {
	s := &Summary{RunID: e.runID, Order: append([]string(nil), e.order...)}
	for _, name := range e.order {
		result, ok := e.results[name]
		if !ok {
			continue
		}
		s.Total++
		switch result.Status {
		case node.StatusExecuted:
			s.Executed++
		case node.StatusFailed:
			s.Failed++
			s.FailedNodes = append(s.FailedNodes, name)
		case node.StatusBlocked:
			s.Blocked++
			s.BlockedNodes = append(s.BlockedNodes, name)
		case node.StatusSkipped:
			s.Skipped++
		}
	}
	if denom := s.Total - s.Blocked; denom > 0 {
		s.SuccessRate = float64(s.Executed) / float64(denom)
	}
	return s
}

// Results returns a copy of the last run's result map.
func (e *Engine) Results() map[string]*node.Result {
	out := make(map[string]*node.Result, len(e.results))
	for name, result := range e.results {
		out[name] = result
	}
	return out
}

// Result returns one node's result from the last run.
func (e *Engine) Result(name string) (*node.Result, bool) {
	result, ok := e.results[name]
	return result, ok
}

// FinalOutputs returns the payload of every node that executed in the last
// run, keyed by node name. Failed, blocked and skipped nodes carry no payload
// and are absent.
func (e *Engine) FinalOutputs() map[string]any {
	out := make(map[string]any)
	for _, name := range e.flow.Names() {
		if result, ok := e.results[name]; ok && result.Status == node.StatusExecuted {
			out[name] = result.Data
		}
	}
	return out
}

// FlowValues returns a node's current flow-context values without metadata.
func (e *Engine) FlowValues(name string) (map[string]any, error) {
	n := e.flow.Node(name)
	if n == nil {
		return nil, &UnknownNodeError{Name: name}
	}
	return n.FlowContext().Values(), nil
}

// FlowEntries returns a node's flow-context including source and timestamp
// metadata.
func (e *Engine) FlowEntries(name string) (map[string]node.Entry, error) {
	n := e.flow.Node(name)
	if n == nil {
		return nil, &UnknownNodeError{Name: name}
	}
	return n.FlowContext().Entries(), nil
}

// NodeInfo describes one node's declared shape and its position in the graph.
type NodeInfo struct {
	Name         string
	Kind         node.Kind
	Tracked      []string
	Schema       map[string]string
	Dependencies []string
	Dependents   []string
}

// NodeInfo returns the declared shape of one node.
func (e *Engine) NodeInfo(name string) (*NodeInfo, error) {
	n := e.flow.Node(name)
	if n == nil {
		return nil, &UnknownNodeError{Name: name}
	}
	return &NodeInfo{
		Name:         n.Name(),
		Kind:         n.Kind(),
		Tracked:      n.TrackedVariables(),
		Schema:       n.ExpectedInputSchema(),
		Dependencies: e.flow.Dependencies(name),
		Dependents:   e.flow.Dependents(name),
	}, nil
}

// Info describes the engine instance itself.
type Info struct {
	RunID       string
	NodeCount   int
	NodeNames   []string
	NodeTimeout string
	HasResults  bool
}

// Info returns a snapshot of the engine's configuration and graph size.
func (e *Engine) Info() *Info {
	timeout := "none"
	if e.cfg.NodeTimeout > 0 {
		timeout = e.cfg.NodeTimeout.String()
	}
	return &Info{
		RunID:       e.runID,
		NodeCount:   e.flow.Len(),
		NodeNames:   e.flow.Names(),
		NodeTimeout: timeout,
		HasResults:  len(e.results) > 0,
	}
}

// Reset discards the last run's results and clears every node's flow-context.
func (e *Engine) Reset() {
	e.results = make(map[string]*node.Result)
	e.order = nil
	e.runID = ""
	for _, name := range e.flow.Names() {
		e.flow.Node(name).FlowContext().Clear()
	}
}
