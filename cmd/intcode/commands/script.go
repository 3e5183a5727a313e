package commands

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/openfroyo/intcode/pkg/engine"
	"github.com/openfroyo/intcode/pkg/script"
)

func newScriptCommand() *cobra.Command {
	var (
		program string
		vars    map[string]string
	)

	cmd := &cobra.Command{
		Use:   "script <file.star>",
		Short: "Run a Starlark script against the engine",
		Long: `Execute a Starlark script with access to the engine.

Builtins available to scripts:
  parse(text)                         decode a comma-separated program
  permutations(items)                 every ordering, in generation order
  run(program, inputs=[])             run to completion or suspension
  amplify(program, phases, mode=...)  run one amplifier network
  search(program, phases=None, mode=...)
  sweep(program, target, ...)

The program given with --program (or set in the config) is predeclared as
'program'. Values passed with --set are predeclared as strings. Public
globals left by the script are printed when it finishes.`,
		Example: `  # Search phases from a script
  intcode script search.star --program day07.txt

  # Pass a parameter
  intcode script sweep.star --program day02.txt --set target=19690720`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnvironment(cmd)
			if err != nil {
				return err
			}
			defer env.close()

			filename := args[0]
			src, err := os.ReadFile(filename)
			if err != nil {
				return fmt.Errorf("failed to read script: %w", err)
			}

			input := make(map[string]interface{}, len(vars)+1)
			for k, v := range vars {
				input[k] = v
			}

			if program == "" {
				program = env.cfg.Program
			}
			if program != "" {
				loaded, err := engine.LoadProgram(program)
				if err != nil {
					return err
				}
				input["program"] = loaded
			}

			evaluator := script.NewEvaluator(env.runner, env.cfg.Script.Timeout)
			result, err := evaluator.Evaluate(env.ctx, filename, string(src), input)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				return printJSON(out, result)
			}

			for _, line := range result.Printed {
				fmt.Fprintln(out, line)
			}
			names := make([]string, 0, len(result.Output))
			for name := range result.Output {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(out, "%s = %v\n", name, result.Output[name])
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&program, "program", "p", "", "program file predeclared as 'program'")
	cmd.Flags().StringToStringVar(&vars, "set", nil, "predeclared string variables (key=value)")

	return cmd
}
