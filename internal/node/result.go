package node

import "fmt"

// Status is the terminal per-node outcome of one execution attempt.
type Status string

const (
	// StatusExecuted means the node ran to completion.
	StatusExecuted Status = "executed"
	// StatusBlocked means no viable path reached the node; it never ran.
	StatusBlocked Status = "blocked"
	// StatusFailed means the node ran (or tried to) and errored.
	StatusFailed Status = "failed"
	// StatusSkipped means the run was cancelled before the node started.
	StatusSkipped Status = "skipped"
)

// Result is the immutable outcome record of one node execution attempt.
type Result struct {
	Success    bool
	Data       any
	TextOutput string
	Error      string
	Status     Status
	Kind       Kind
}

// Succeeded returns a successful executed result carrying data.
func Succeeded(kind Kind, data any) *Result {
	return &Result{Success: true, Data: data, Status: StatusExecuted, Kind: kind}
}

// Failed returns a failed result carrying the error text.
func Failed(kind Kind, err error) *Result {
	return &Result{Success: false, Error: err.Error(), Status: StatusFailed, Kind: kind}
}

// Blocked returns a blocked result explaining which admission decision
// stopped the node.
func Blocked(kind Kind, reason string) *Result {
	return &Result{Success: false, Error: reason, Status: StatusBlocked, Kind: kind}
}

// Skipped returns a skipped result for a node pre-empted by run cancellation.
func Skipped(kind Kind, err error) *Result {
	return &Result{Success: false, Error: err.Error(), Status: StatusSkipped, Kind: kind}
}

func (r *Result) String() string {
	return fmt.Sprintf("Result(success=%t, status=%s, kind=%s, error=%q)", r.Success, r.Status, r.Kind, r.Error)
}
