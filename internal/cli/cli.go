package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/vk/rulegridgo/internal/app"
)

// ExitError carries a specific process exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// placeholderFlag accumulates repeated -placeholder key=value pairs.
type placeholderFlag map[string]string

func (p placeholderFlag) String() string { return "" }

func (p placeholderFlag) Set(s string) error {
	key, value, found := strings.Cut(s, "=")
	if !found || key == "" {
		return fmt.Errorf("placeholder %q must be key=value", s)
	}
	p[key] = value
	return nil
}

// Parse processes command-line arguments. It returns a populated Config, a
// boolean indicating the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("rulegridgo", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
rulegridgo - a dependency-graph rule execution engine.

Usage:
  rulegridgo [options] [FLOW_PATH]

Arguments:
  FLOW_PATH
    Path to a flow definition file (relaxed JSON).

Options:
`)
		flagSet.PrintDefaults()
	}

	flowFlag := flagSet.String("flow", "", "Path to the flow definition file.")
	fFlag := flagSet.String("f", "", "Path to the flow definition file (shorthand).")
	jobDateFlag := flagSet.String("job-date", "", "Anchor date for ${...} expansion, e.g. 2026-08-25. Defaults to today.")
	placeholders := placeholderFlag{}
	flagSet.Var(placeholders, "placeholder", "Placeholder as key=value; repeatable.")
	varsFlag := flagSet.String("vars", "", "Path to variable declarations hydrated from the value store.")
	storeFlag := flagSet.String("store", "", "Path to the value store directory. Empty uses an in-memory store.")
	timeoutFlag := flagSet.Duration("node-timeout", 0, "Per-node execution deadline. 0 disables it.")
	visualizeFlag := flagSet.Bool("visualize", false, "Print the flow structure before running.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	path := ""
	if *flowFlag != "" {
		path = *flowFlag
	} else if *fFlag != "" {
		path = *fFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}

	if path == "" {
		flagSet.Usage()
		return nil, true, nil
	}

	cfg, err := app.NewConfig(app.Config{
		FlowPath:     path,
		JobDate:      *jobDateFlag,
		Placeholders: placeholders,
		VarsPath:     *varsFlag,
		StorePath:    *storeFlag,
		NodeTimeout:  *timeoutFlag,
		Visualize:    *visualizeFlag,
		LogFormat:    strings.ToLower(*logFormatFlag),
		LogLevel:     strings.ToLower(*logLevelFlag),
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	return cfg, false, nil
}
