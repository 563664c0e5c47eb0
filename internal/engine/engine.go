package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vk/rulegridgo/internal/ctxlog"
	"github.com/vk/rulegridgo/internal/dag"
	"github.com/vk/rulegridgo/internal/node"
	"github.com/vk/rulegridgo/internal/script"
)

// Config tunes a single engine instance.
type Config struct {
	// NodeTimeout bounds one node's execution; zero disables the deadline.
	// A node that overruns it is recorded as failed, never blocked.
	NodeTimeout time.Duration
}

// Engine executes a flow sequentially in topological order and records one
// Result per node. It is not safe for concurrent use.
type Engine struct {
	flow    *dag.Flow
	script  script.Engine
	cfg     Config
	results map[string]*node.Result
	order   []string
	runID   string
}

// New creates an engine over flow using the given script backend.
func New(flow *dag.Flow, scriptEngine script.Engine, cfg Config) *Engine {
	return &Engine{
		flow:    flow,
		script:  scriptEngine,
		cfg:     cfg,
		results: make(map[string]*node.Result),
	}
}

// Flow returns the engine's graph.
func (e *Engine) Flow() *dag.Flow { return e.flow }

// RunID returns the identifier stamped on the most recent run.
func (e *Engine) RunID() string { return e.runID }

// Execute runs the whole flow once. The run-level variable environment merges
// job_date, then placeholders, then variables, later sources winning on
// collision.
// Structural problems abort before any node runs; otherwise every node gets
// exactly one result.
func (e *Engine) Execute(ctx context.Context, jobDate string, placeholders, variables map[string]any) (map[string]*node.Result, error) {
	e.runID = uuid.NewString()
	logger := ctxlog.FromContext(ctx).With("run_id", e.runID)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Info("starting run", "nodes", e.flow.Len(), "job_date", jobDate)

	if violations := e.flow.Validate(); len(violations) > 0 {
		return nil, &StructuralError{Violations: violations}
	}
	order, err := e.flow.ExecutionOrder()
	if err != nil {
		return nil, &StructuralError{Violations: []error{err}}
	}
	e.order = order

	env := &node.Env{
		Globals:      buildGlobals(jobDate, placeholders, variables),
		JobDate:      jobDate,
		Placeholders: placeholders,
		Script:       e.script,
	}

	// Flow-contexts are scoped to the run, never carried across runs.
	for _, name := range e.flow.Names() {
		e.flow.Node(name).FlowContext().Clear()
	}
	e.results = make(map[string]*node.Result, len(order))

	for _, name := range order {
		n := e.flow.Node(name)
		if ctx.Err() != nil {
			logger.Warn("run cancelled, skipping remaining node", "node", name)
			e.results[name] = node.Skipped(n.Kind(), ctx.Err())
			continue
		}

		deps := e.flow.Dependencies(name)
		viable := e.viableDependencies(deps)
		if len(deps) > 0 && len(viable) == 0 {
			logger.Debug("node blocked", "node", name, "dependencies", deps)
			e.results[name] = node.Blocked(n.Kind(), fmt.Sprintf("no viable path reached node %q", name))
			continue
		}

		n.SetUpstream(viable)
		e.results[name] = e.runNode(ctx, n, env)
	}

	summary := e.Summary()
	logger.Info("run finished",
		"executed", summary.Executed,
		"failed", summary.Failed,
		"blocked", summary.Blocked,
		"skipped", summary.Skipped,
	)
	return e.Results(), nil
}

// viableDependencies classifies every dependency before deciding: a gate is
// viable iff it succeeded and chose to continue, anything else iff it
// succeeded. Never short-circuits, so mixed gate ancestors resolve correctly.
func (e *Engine) viableDependencies(deps []string) []node.Node {
	var viable []node.Node
	for _, depName := range deps {
		result, ok := e.results[depName]
		if !ok || !result.Success {
			continue
		}
		dep := e.flow.Node(depName)
		if gate, isGate := dep.(*node.GateNode); isGate && !gate.ShouldContinue() {
			continue
		}
		viable = append(viable, dep)
	}
	return viable
}

// runNode executes one node under the configured deadline, converting panics
// and overruns into failed results.
func (e *Engine) runNode(ctx context.Context, n node.Node, env *node.Env) *node.Result {
	logger := ctxlog.FromContext(ctx).With("node", n.Name(), "kind", string(n.Kind()))
	logger.Debug("executing node")

	runCtx := ctx
	if e.cfg.NodeTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.cfg.NodeTimeout)
		defer cancel()
	}

	done := make(chan *node.Result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- node.Failed(n.Kind(), fmt.Errorf("panic during execution: %v", r))
			}
		}()
		done <- n.Execute(runCtx, env)
	}()

	var result *node.Result
	select {
	case result = <-done:
	case <-runCtx.Done():
		// Join the body before returning: it notices the cancellation at its
		// next evaluation checkpoint and exits without publishing, so the
		// node's flow-context cannot be mutated after this point.
		<-done
		err := runCtx.Err()
		if errors.Is(err, context.DeadlineExceeded) && e.cfg.NodeTimeout > 0 && ctx.Err() == nil {
			err = fmt.Errorf("execution exceeded %s deadline", e.cfg.NodeTimeout)
		}
		result = node.Failed(n.Kind(), err)
	}

	if result.Success {
		logger.Debug("node finished", "status", string(result.Status))
	} else {
		logger.Warn("node did not succeed", "status", string(result.Status), "error", result.Error)
	}
	return result
}

// buildGlobals merges the three run-level sources; later sources overwrite
// earlier ones on key collision.
func buildGlobals(jobDate string, placeholders, variables map[string]any) map[string]any {
	globals := make(map[string]any, 1+len(placeholders)+len(variables))
	globals["job_date"] = jobDate
	for k, v := range placeholders {
		globals[k] = v
	}
	for k, v := range variables {
		globals[k] = v
	}
	return globals
}
