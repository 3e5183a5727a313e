package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openfroyo/intcode/pkg/engine"
)

func newSweepCommand() *cobra.Command {
	var target int64

	cmd := &cobra.Command{
		Use:   "sweep [program]",
		Short: "Find the noun and verb that produce a target output",
		Long: `Patch every noun/verb pair into the program, run it, and report the
first pair whose result cell equals the target. The answer is 100*noun+verb.

Ranges and addresses come from the sweep section of the config.`,
		Example: `  # Find the pair producing 19690720
  intcode sweep day02.txt --target 19690720`,
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

			spec := env.cfg.SweepSpec()
			if cmd.Flags().Changed("target") {
				spec.Target = target
			}

			result, err := env.runner.Sweep(env.ctx, program, spec)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				return printJSON(out, result)
			}
			fmt.Fprintf(out, "noun=%d verb=%d answer=%d (%d trials, %d faulted)\n",
				result.Noun, result.Verb, result.Answer, result.Trials, result.Faulted)
			return nil
		},
	}

	cmd.Flags().Int64VarP(&target, "target", "t", 0, "value the result cell must hold")

	return cmd
}
