// Package flowval defines the engine's canonical value interchange format.
// Every value a node publishes into its flow-context must be representable
// here: null, booleans, numbers, strings, sequences, string-keyed maps, plus
// two explicit extensions for timestamps and tabular datasets. The cty type
// system is the backing representation, which is also what the script engine
// evaluates expressions against.
package flowval
