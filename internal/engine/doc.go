// Package engine orchestrates one run over a dag.Flow: structural validation,
// topological execution, the dependency-viability admission rule, and the
// query surface over the recorded results.
package engine
