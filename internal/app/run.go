package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/tailscale/hujson"

	"github.com/vk/rulegridgo/internal/ctxlog"
	"github.com/vk/rulegridgo/internal/engine"
	"github.com/vk/rulegridgo/internal/engine/codec"
	"github.com/vk/rulegridgo/internal/script"
	"github.com/vk/rulegridgo/internal/store"
)

// Run executes one flow: load the definition, hydrate declared variables,
// run the engine and print the summary.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run started", "flow", a.config.FlowPath)

	flow, flowName, err := codec.LoadFile(a.config.FlowPath)
	if err != nil {
		return fmt.Errorf("load flow definition: %w", err)
	}
	a.logger.Debug("flow definition loaded", "name", flowName, "nodes", flow.Len())

	if a.config.Visualize {
		fmt.Fprint(a.outW, codec.Visualize(flow, flowName))
	}

	placeholders := make(map[string]any, len(a.config.Placeholders))
	for k, v := range a.config.Placeholders {
		placeholders[k] = v
	}

	variables, err := a.hydrateVariables(ctx, placeholders)
	if err != nil {
		return err
	}

	eng := engine.New(flow, script.NewHCL(), engine.Config{NodeTimeout: a.config.NodeTimeout})
	if _, err := eng.Execute(ctx, a.config.JobDate, placeholders, variables); err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}

	a.printSummary(eng)
	return nil
}

// hydrateVariables resolves the declared variable set from the value store.
// No declaration file means no variables.
func (a *App) hydrateVariables(ctx context.Context, placeholders map[string]any) (map[string]any, error) {
	if a.config.VarsPath == "" {
		return nil, nil
	}

	data, err := os.ReadFile(a.config.VarsPath)
	if err != nil {
		return nil, fmt.Errorf("read variable declarations: %w", err)
	}
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("parse variable declarations: %w", err)
	}
	var configs []store.VariableConfig
	if err := json.Unmarshal(standardized, &configs); err != nil {
		return nil, fmt.Errorf("decode variable declarations: %w", err)
	}

	st, err := store.Open(a.config.StorePath)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	return store.NewHydrator(st).Hydrate(ctx, configs, a.config.JobDate, placeholders)
}

func (a *App) printSummary(eng *engine.Engine) {
	summary := eng.Summary()
	fmt.Fprintf(a.outW, "run %s: %d nodes, %d executed, %d failed, %d blocked, %d skipped (success rate %.0f%%)\n",
		summary.RunID, summary.Total, summary.Executed, summary.Failed, summary.Blocked, summary.Skipped,
		summary.SuccessRate*100)
	for _, name := range summary.FailedNodes {
		if result, ok := eng.Result(name); ok {
			fmt.Fprintf(a.outW, "  failed: %s: %s\n", name, result.Error)
		}
	}
	for _, name := range summary.BlockedNodes {
		fmt.Fprintf(a.outW, "  blocked: %s\n", name)
	}

	outputs := eng.FinalOutputs()
	names := make([]string, 0, len(outputs))
	for name := range outputs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		data, err := json.Marshal(outputs[name])
		if err != nil {
			a.logger.Warn("final output not renderable", "node", name, "error", err)
			continue
		}
		fmt.Fprintf(a.outW, "  output %s: %s\n", name, data)
	}
}
