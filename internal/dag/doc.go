// Package dag owns the dependency graph of a rule flow: the node registry,
// the target-to-sources adjacency, topological ordering, and structural
// validation. It is purely structural; execution lives in the engine.
package dag
