package engine

import (
	"context"
	"fmt"

	"github.com/openfroyo/intcode/pkg/intcode"
)

// Network is a chain of amplifier machines, one per phase setting. Each
// stage receives its phase as its first input and the previous stage's
// signal as every input after that.
type Network struct {
	mode   NetworkMode
	phases []int64
	stages []*intcode.Machine
	rounds int
}

// NewNetwork builds a network of len(phases) clones of prototype.
// The prototype itself is never run.
func NewNetwork(prototype *intcode.Machine, phases []int64, mode NetworkMode) (*Network, error) {
	if err := mode.Validate(); err != nil {
		return nil, err
	}
	if len(phases) == 0 {
		return nil, NewPermanentError("network needs at least one phase setting", nil).
			WithCode(ErrCodeValidation)
	}

	n := &Network{
		mode:   mode,
		phases: append([]int64(nil), phases...),
		stages: make([]*intcode.Machine, len(phases)),
	}
	for i, phase := range phases {
		stage := prototype.Clone()
		stage.SupplyInput(phase)
		n.stages[i] = stage
	}
	return n, nil
}

// Mode returns the network's connection mode.
func (n *Network) Mode() NetworkMode { return n.mode }

// Phases returns a copy of the phase settings.
func (n *Network) Phases() []int64 { return append([]int64(nil), n.phases...) }

// Rounds returns the number of completed passes through every stage.
func (n *Network) Rounds() int { return n.rounds }

// Steps returns the total instructions executed across all stages.
func (n *Network) Steps() uint64 {
	var total uint64
	for _, stage := range n.stages {
		total += stage.Steps()
	}
	return total
}

// Run feeds signal into the first stage and returns the final signal.
//
// In series mode every stage runs once. In feedback mode the last stage's
// output becomes the first stage's next input, and passes repeat until all
// stages have finished; the result is the last stage's final output.
func (n *Network) Run(ctx context.Context, signal int64) (int64, error) {
	for {
		for k, stage := range n.stages {
			stage.SupplyInput(signal)

			state, err := stage.Run()
			if err != nil {
				return 0, classifyError(err, "amplify").WithDetail("stage", k)
			}

			out, ok := stage.TakeOutput()
			if !ok {
				if state == intcode.StateFinished {
					return 0, NewPermanentError(
						fmt.Sprintf("stage %d finished without producing a signal", k), nil).
						WithCode(ErrCodeNoSignal).
						WithOperation("amplify").
						WithDetail("stage", k)
				}
				return 0, NewPermanentError(
					fmt.Sprintf("stage %d suspended without producing a signal", k), nil).
					WithCode(ErrCodeStalled).
					WithOperation("amplify").
					WithDetail("stage", k)
			}
			signal = out
		}
		n.rounds++

		if n.mode == NetworkSeries || n.finished() {
			return signal, nil
		}

		if err := ctx.Err(); err != nil {
			return 0, classifyError(err, "amplify").WithDetail("round", n.rounds)
		}
	}
}

// finished reports whether every stage has halted.
func (n *Network) finished() bool {
	for _, stage := range n.stages {
		if stage.State() != intcode.StateFinished {
			return false
		}
	}
	return true
}
