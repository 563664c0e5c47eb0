// Package node defines the unit of work of the rule engine: the four node
// variants (start, logic, gate, collection), their shared execution contract,
// and the flow-context store through which a node inherits variables from its
// ancestors and republishes its own.
package node
