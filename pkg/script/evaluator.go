package script

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"

	"github.com/openfroyo/intcode/pkg/engine"
	"github.com/openfroyo/intcode/pkg/telemetry"
)

// DefaultTimeout bounds a script when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// ErrTimeout is returned when a script exceeds its time limit.
var ErrTimeout = errors.New("script execution timeout")

// Evaluator executes Starlark scripts with access to the intcode engine.
type Evaluator struct {
	runner  *engine.Runner
	timeout time.Duration
}

// Result is the outcome of a script execution.
type Result struct {
	// Output holds the script's public globals converted to Go values.
	Output map[string]interface{} `json:"output,omitempty"`

	// Printed holds lines written with print().
	Printed []string `json:"printed,omitempty"`

	// ExecutionTime is how long the script took to execute.
	ExecutionTime time.Duration `json:"execution_time"`
}

// NewEvaluator creates an evaluator. A nil runner gets a default one.
func NewEvaluator(runner *engine.Runner, timeout time.Duration) *Evaluator {
	if runner == nil {
		runner = engine.NewRunner(0, nil, nil)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Evaluator{
		runner:  runner,
		timeout: timeout,
	}
}

// Evaluate executes src. Entries of input become predeclared globals.
func (e *Evaluator) Evaluate(ctx context.Context, filename, src string, input map[string]interface{}) (*Result, error) {
	startTime := time.Now()
	logger := telemetry.FromContext(ctx).NewComponentLogger("script").WithField("script", filename)

	evalCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	predeclared, err := e.predeclared(input)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	var printed []string
	thread := &starlark.Thread{
		Name: filename,
		Print: func(_ *starlark.Thread, msg string) {
			mu.Lock()
			printed = append(printed, msg)
			mu.Unlock()
			logger.Debug(msg)
		},
	}
	thread.SetLocal(contextKey, evalCtx)

	type outcome struct {
		globals starlark.StringDict
		err     error
	}
	done := make(chan outcome, 1)

	go func() {
		globals, err := starlark.ExecFile(thread, filename, src, predeclared)
		done <- outcome{globals: globals, err: err}
	}()

	var res outcome
	select {
	case <-evalCtx.Done():
		thread.Cancel(evalCtx.Err().Error())
		// Wait for the interpreter to observe the cancellation.
		<-done
		if errors.Is(evalCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w after %v", ErrTimeout, e.timeout)
		}
		return nil, fmt.Errorf("script cancelled: %w", ctx.Err())
	case res = <-done:
	}

	if res.err != nil {
		var evalErr *starlark.EvalError
		if errors.As(res.err, &evalErr) {
			return nil, fmt.Errorf("starlark execution failed: %s", evalErr.Backtrace())
		}
		return nil, fmt.Errorf("starlark execution failed: %w", res.err)
	}

	output, err := exportGlobals(res.globals)
	if err != nil {
		return nil, err
	}

	mu.Lock()
	defer mu.Unlock()

	logger.WithField("globals", len(output)).Debug("script finished")
	return &Result{
		Output:        output,
		Printed:       printed,
		ExecutionTime: time.Since(startTime),
	}, nil
}

// predeclared builds the global environment for a script.
func (e *Evaluator) predeclared(input map[string]interface{}) (starlark.StringDict, error) {
	predeclared := starlark.StringDict{
		"struct":       starlark.NewBuiltin("struct", starlarkstruct.Make),
		"parse":        starlark.NewBuiltin("parse", builtinParse),
		"permutations": starlark.NewBuiltin("permutations", builtinPermutations),
		"run":          starlark.NewBuiltin("run", e.builtinRun),
		"amplify":      starlark.NewBuiltin("amplify", e.builtinAmplify),
		"search":       starlark.NewBuiltin("search", e.builtinSearch),
		"sweep":        starlark.NewBuiltin("sweep", e.builtinSweep),
	}

	for key, val := range input {
		if _, exists := predeclared[key]; exists {
			return nil, fmt.Errorf("input %s shadows a builtin", key)
		}
		starlarkVal, err := toStarlark(val)
		if err != nil {
			return nil, fmt.Errorf("failed to convert input %s: %w", key, err)
		}
		predeclared[key] = starlarkVal
	}
	return predeclared, nil
}

// exportGlobals converts public data globals to Go values. Functions and
// names starting with an underscore are skipped.
func exportGlobals(globals starlark.StringDict) (map[string]interface{}, error) {
	names := make([]string, 0, len(globals))
	for name := range globals {
		names = append(names, name)
	}
	sort.Strings(names)

	output := make(map[string]interface{})
	for _, name := range names {
		if strings.HasPrefix(name, "_") {
			continue
		}
		val := globals[name]
		if _, ok := val.(starlark.Callable); ok {
			continue
		}
		goVal, err := fromStarlark(val)
		if err != nil {
			return nil, fmt.Errorf("failed to convert output %s: %w", name, err)
		}
		output[name] = goVal
	}
	return output, nil
}
