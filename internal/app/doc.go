// Package app wires the pieces into a runnable application: logger setup,
// flow definition loading, variable hydration, engine execution and summary
// reporting.
package app
