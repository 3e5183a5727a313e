package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openfroyo/intcode/pkg/engine"
)

func newAmplifyCommand() *cobra.Command {
	var (
		mode   string
		phases string
		fixed  bool
	)

	cmd := &cobra.Command{
		Use:   "amplify [program]",
		Short: "Find the highest amplifier signal over all phase orders",
		Long: `Build a chain of amplifiers, one per phase setting, and search every
ordering of the phase settings for the highest output signal.

In series mode each amplifier runs once. In feedback mode the last output
is fed back to the first amplifier until every amplifier halts.

With --fixed the phases are used in the given order and no search is done.`,
		Example: `  # Search phases 0-4 in series
  intcode amplify day07.txt

  # Search phases 5-9 in a feedback loop
  intcode amplify day07.txt --mode feedback

  # Run one specific ordering
  intcode amplify day07.txt --mode feedback --phases 9,8,7,6,5 --fixed`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnvironment(cmd)
			if err != nil {
				return err
			}
			defer env.close()

			path, err := programPath(args, env.cfg)
			if err != nil {
				return err
			}
			program, err := engine.LoadProgram(path)
			if err != nil {
				return err
			}

			networkMode := env.cfg.NetworkMode()
			if cmd.Flags().Changed("mode") {
				networkMode = engine.NetworkMode(mode)
			}
			if err := networkMode.Validate(); err != nil {
				return err
			}

			var phaseSet []int64
			switch {
			case phases != "":
				phaseSet, err = engine.ParsePhases(phases)
				if err != nil {
					return err
				}
			case len(env.cfg.Amplifier.Phases) > 0:
				phaseSet = env.cfg.Phases()
			default:
				phaseSet = engine.DefaultPhases(networkMode)
			}

			out := cmd.OutOrStdout()
			if fixed {
				result, err := env.runner.Amplify(env.ctx, program, phaseSet, networkMode)
				if err != nil {
					return err
				}
				if jsonOutput {
					return printJSON(out, result)
				}
				fmt.Fprintf(out, "signal %d from phases %s (%s, %d rounds)\n",
					result.Signal, joinInt64s(result.Phases), result.Mode, result.Rounds)
				return nil
			}

			result, err := env.runner.SearchPhases(env.ctx, program, phaseSet, networkMode)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(out, result)
			}
			fmt.Fprintf(out, "max signal %d from phases %s (%s, %d trials in %s)\n",
				result.Signal, joinInt64s(result.Phases), result.Mode, result.Trials, result.Duration)
			return nil
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", string(engine.NetworkSeries), "network mode (series, feedback)")
	cmd.Flags().StringVarP(&phases, "phases", "p", "", "comma-separated phase settings")
	cmd.Flags().BoolVar(&fixed, "fixed", false, "run the phases in the given order without searching")

	return cmd
}
