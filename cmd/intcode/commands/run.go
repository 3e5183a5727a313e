package commands

import (
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"

	"github.com/openfroyo/intcode/pkg/config"
	"github.com/openfroyo/intcode/pkg/engine"
)

func newRunCommand() *cobra.Command {
	var (
		inputs []int64
		watch  bool
	)

	cmd := &cobra.Command{
		Use:   "run [program]",
		Short: "Run a program with queued input",
		Long: `Run a program until it finishes or waits for input that was not supplied,
then print everything it output.

With --watch the program is re-run every time its file changes.`,
		Example: `  # Run a diagnostic with system ID 1
  intcode run day05.txt --input 1

  # Re-run on every save
  intcode run day05.txt -i 5 --watch`,
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

			out := cmd.OutOrStdout()
			var mu sync.Mutex
			execute := func() error {
				mu.Lock()
				defer mu.Unlock()

				program, err := engine.LoadProgram(path)
				if err != nil {
					return err
				}
				result, err := env.runner.Diagnose(env.ctx, program, inputs)
				if err != nil {
					return err
				}
				return printDiagnostic(out, result)
			}

			if !watch {
				return execute()
			}

			if err := execute(); err != nil {
				env.logger.WithError(err).Warn("run failed")
			}

			watcher := config.NewWatcher(env.logger.Zerolog(), 0)
			defer watcher.Close()

			err = watcher.Watch(env.ctx, []string{path}, func(changed string) {
				env.logger.WithField("path", changed).Info("program changed, re-running")
				if err := execute(); err != nil {
					env.logger.WithError(err).Warn("run failed")
				}
			})
			if err != nil {
				return err
			}

			<-env.ctx.Done()
			return nil
		},
	}

	cmd.Flags().Int64SliceVarP(&inputs, "input", "i", nil, "input value (repeatable, consumed in order)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "re-run when the program file changes")

	return cmd
}

func printDiagnostic(w io.Writer, result *engine.DiagnosticResult) error {
	if jsonOutput {
		return printJSON(w, result)
	}
	fmt.Fprintf(w, "state:   %s\n", result.State)
	fmt.Fprintf(w, "outputs: %s\n", joinInt64s(result.Outputs))
	fmt.Fprintf(w, "steps:   %d\n", result.Steps)
	fmt.Fprintf(w, "cell0:   %d\n", result.Cell0)
	return nil
}
