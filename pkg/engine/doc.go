// Package engine drives Intcode machines.
//
// # Networks
//
// A Network chains amplifier machines, one per phase setting. Each stage
// is a clone of a prototype machine seeded with its phase. In series mode
// the signal passes through every stage once; in feedback mode the last
// stage feeds the first and passes repeat until every stage has halted.
// The network polls its stages round-robin, so no goroutines or channels
// are involved.
//
//	network, err := engine.NewNetwork(intcode.New(program), []int64{9, 8, 7, 6, 5}, engine.NetworkFeedback)
//	signal, err := network.Run(ctx, 0)
//
// # Runs
//
// Runner executes the high-level drivers and records each run:
//
//   - Diagnose: run a program once with fixed inputs
//   - Amplify: run one network for one phase assignment
//   - SearchPhases: try every phase ordering and keep the highest signal
//   - Sweep: patch noun/verb pairs into memory until the result matches
//
// Independent trials run on a TrialScheduler worker pool. Results are
// deterministic: ties in a search go to the earliest ordering in Heap
// order and a sweep reports the first matching pair in noun-major order.
//
// # Errors
//
// Every failure is an *EngineError carrying an ErrorClass and a code
// (ErrCodeMachineFault, ErrCodeNoSignal, ErrCodeStalled, ...). Machine
// faults stay reachable through errors.Is with the intcode sentinels:
//
//	if errors.Is(err, intcode.ErrMemory) { ... }
package engine
