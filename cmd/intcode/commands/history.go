package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/openfroyo/intcode/pkg/stores"
)

func newHistoryCommand() *cobra.Command {
	var (
		limit  int
		kind   string
		status string
	)

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded runs",
		Long: `List recorded runs, newest first. With a run ID, show that run and its
events.`,
		Example: `  # Last 20 runs
  intcode history

  # Failed sweeps only
  intcode history --kind sweep --status failed

  # One run with its events
  intcode history 3f1c2a9e-...`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnvironment(cmd)
			if err != nil {
				return err
			}
			defer env.close()

			if env.store == nil {
				return errors.New("run history is disabled in the config (store.enabled)")
			}

			out := cmd.OutOrStdout()
			if len(args) == 1 {
				return showRun(env, out, args[0])
			}

			filter := stores.RunFilter{Kind: kind, Status: stores.RunStatus(status)}
			runs, err := env.store.ListRuns(env.ctx, filter, limit, 0)
			if err != nil {
				return err
			}

			if jsonOutput {
				return printJSON(out, runs)
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "no runs recorded")
				return nil
			}

			fmt.Fprintf(out, "%-36s  %-10s  %-9s  %-14s  %s\n", "ID", "KIND", "STATUS", "RESULT", "STARTED")
			for _, run := range runs {
				fmt.Fprintf(out, "%-36s  %-10s  %-9s  %-14s  %s\n",
					run.ID, run.Kind, run.Status, formatResult(run.Result),
					run.StartedAt.Local().Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of runs to list (0 for all)")
	cmd.Flags().StringVar(&kind, "kind", "", "only runs of this kind (diagnostic, amplify, search, sweep)")
	cmd.Flags().StringVar(&status, "status", "", "only runs with this status")

	return cmd
}

func showRun(env *environment, out io.Writer, id string) error {
	run, err := env.store.GetRun(env.ctx, id)
	if err != nil {
		return err
	}
	events, err := env.store.ListEvents(env.ctx, id)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(out, struct {
			Run    *stores.Run     `json:"run"`
			Events []*stores.Event `json:"events"`
		}{run, events})
	}

	fmt.Fprintf(out, "id:       %s\n", run.ID)
	fmt.Fprintf(out, "kind:     %s\n", run.Kind)
	fmt.Fprintf(out, "program:  %s\n", run.ProgramHash)
	fmt.Fprintf(out, "status:   %s\n", run.Status)
	fmt.Fprintf(out, "result:   %s\n", formatResult(run.Result))
	if run.Error != "" {
		fmt.Fprintf(out, "error:    %s\n", run.Error)
	}
	fmt.Fprintf(out, "duration: %dms\n", run.DurationMS)
	fmt.Fprintf(out, "detail:   %s\n", run.Detail)
	fmt.Fprintln(out, "events:")
	for _, e := range events {
		fmt.Fprintf(out, "  %s  %-5s  %-16s  %s\n",
			e.Timestamp.Local().Format("15:04:05.000"), e.Level, e.Type, e.Message)
	}
	return nil
}

func formatResult(result *int64) string {
	if result == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *result)
}
