// Package codec persists flow definitions in a relaxed JSON dialect that
// tolerates comments and trailing commas on input, and renders a plain-text
// visualization of a flow.
package codec
