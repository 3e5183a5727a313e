package script

import (
	"context"
	"fmt"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"

	"github.com/openfroyo/intcode/pkg/engine"
	"github.com/openfroyo/intcode/pkg/intcode"
	"github.com/openfroyo/intcode/pkg/permute"
)

// contextKey is the thread-local key holding the evaluation context.
const contextKey = "intcode.context"

// maxPermutationItems caps permutations() at 9! results.
const maxPermutationItems = 9

func threadContext(thread *starlark.Thread) context.Context {
	if ctx, ok := thread.Local(contextKey).(context.Context); ok {
		return ctx
	}
	return context.Background()
}

// builtinParse implements parse(text) -> list of ints.
func builtinParse(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var text string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "text", &text); err != nil {
		return nil, err
	}
	program, err := intcode.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}
	return int64List(program), nil
}

// builtinPermutations implements permutations(items) in Heap's order.
func builtinPermutations(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var items starlark.Iterable
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "items", &items); err != nil {
		return nil, err
	}

	var values []starlark.Value
	iter := items.Iterate()
	defer iter.Done()
	var x starlark.Value
	for iter.Next(&x) {
		values = append(values, x)
	}
	if len(values) > maxPermutationItems {
		return nil, fmt.Errorf("%s: at most %d items, got %d", b.Name(), maxPermutationItems, len(values))
	}

	var out []starlark.Value
	for perm := range permute.New(values).All() {
		out = append(out, starlark.NewList(perm))
	}
	return starlark.NewList(out), nil
}

// builtinRun implements run(program, inputs=[]) -> struct.
func (e *Evaluator) builtinRun(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var programVal, inputsVal starlark.Value
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "program", &programVal, "inputs?", &inputsVal); err != nil {
		return nil, err
	}

	program, err := programArg(programVal)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}
	inputs, err := int64sArg(inputsVal)
	if err != nil {
		return nil, fmt.Errorf("%s: inputs: %w", b.Name(), err)
	}

	result, err := e.runner.Diagnose(threadContext(thread), program, inputs)
	if err != nil {
		return nil, err
	}

	return starlarkstruct.FromStringDict(starlarkstruct.Default, starlark.StringDict{
		"state":   starlark.String(result.State),
		"outputs": int64List(result.Outputs),
		"cell0":   starlark.MakeInt64(result.Cell0),
		"steps":   starlark.MakeUint64(result.Steps),
	}), nil
}

// builtinAmplify implements amplify(program, phases, mode="series") -> int.
func (e *Evaluator) builtinAmplify(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var programVal, phasesVal starlark.Value
	mode := string(engine.NetworkSeries)
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "program", &programVal, "phases", &phasesVal, "mode?", &mode); err != nil {
		return nil, err
	}

	program, err := programArg(programVal)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}
	phases, err := int64sArg(phasesVal)
	if err != nil {
		return nil, fmt.Errorf("%s: phases: %w", b.Name(), err)
	}

	result, err := e.runner.Amplify(threadContext(thread), program, phases, engine.NetworkMode(mode))
	if err != nil {
		return nil, err
	}
	return starlark.MakeInt64(result.Signal), nil
}

// builtinSearch implements search(program, phases=None, mode="series") -> struct.
func (e *Evaluator) builtinSearch(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var programVal, phasesVal starlark.Value
	mode := string(engine.NetworkSeries)
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "program", &programVal, "phases?", &phasesVal, "mode?", &mode); err != nil {
		return nil, err
	}

	program, err := programArg(programVal)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}
	phases, err := int64sArg(phasesVal)
	if err != nil {
		return nil, fmt.Errorf("%s: phases: %w", b.Name(), err)
	}
	if len(phases) == 0 {
		phases = engine.DefaultPhases(engine.NetworkMode(mode))
	}

	result, err := e.runner.SearchPhases(threadContext(thread), program, phases, engine.NetworkMode(mode))
	if err != nil {
		return nil, err
	}

	return starlarkstruct.FromStringDict(starlarkstruct.Default, starlark.StringDict{
		"signal": starlark.MakeInt64(result.Signal),
		"phases": int64List(result.Phases),
		"trials": starlark.MakeInt(result.Trials),
	}), nil
}

// builtinSweep implements sweep(program, target, noun_max=99, verb_max=99) -> struct.
func (e *Evaluator) builtinSweep(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var programVal starlark.Value
	var target int64
	spec := engine.DefaultSweepSpec(0)
	if err := starlark.UnpackArgs(b.Name(), args, kwargs,
		"program", &programVal,
		"target", &target,
		"noun_max?", &spec.NounMax,
		"verb_max?", &spec.VerbMax,
	); err != nil {
		return nil, err
	}
	spec.Target = target

	program, err := programArg(programVal)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}

	result, err := e.runner.Sweep(threadContext(thread), program, spec)
	if err != nil {
		return nil, err
	}

	return starlarkstruct.FromStringDict(starlarkstruct.Default, starlark.StringDict{
		"noun":   starlark.MakeInt64(result.Noun),
		"verb":   starlark.MakeInt64(result.Verb),
		"answer": starlark.MakeInt64(result.Answer),
	}), nil
}
