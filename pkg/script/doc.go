// Package script runs Starlark scripts against the intcode engine.
//
// Scripts get these builtins besides the Starlark universe:
//
//	parse(text)                                  -> list of ints
//	permutations(items)                          -> list of lists, Heap order
//	run(program, inputs=[])                      -> struct(state, outputs, cell0, steps)
//	amplify(program, phases, mode="series")      -> int
//	search(program, phases=None, mode="series")  -> struct(signal, phases, trials)
//	sweep(program, target, noun_max=99, verb_max=99) -> struct(noun, verb, answer)
//	struct(**kwargs)
//
// A program argument is either source text or a list of ints. Public
// globals left by the script are returned as Go values.
//
//	best = search(program, mode = "feedback")
//	print("signal", best.signal)
package script
