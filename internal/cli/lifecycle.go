package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sharkusmanch/nssmctl/internal/app"
)

var (
	batchParallel bool
	removeYes     bool
)

var lifecycleOps = []app.BatchOperation{
	app.BatchStart,
	app.BatchStop,
	app.BatchRestart,
	app.BatchRemove,
	app.BatchEnable,
	app.BatchDisable,
}

var lifecycleShort = map[app.BatchOperation]string{
	app.BatchStart:   "Start services",
	app.BatchStop:    "Stop services",
	app.BatchRestart: "Stop and start services",
	app.BatchRemove:  "Stop and remove services",
	app.BatchEnable:  "Set services to start automatically",
	app.BatchDisable: "Prevent services from starting",
}

func newLifecycleCmd(op app.BatchOperation) *cobra.Command {
	cmd := &cobra.Command{
		Use:   string(op) + " <service>...",
		Short: lifecycleShort[op],
		Long: fmt.Sprintf(`%s.

Services are processed one after another unless --parallel is given, in
which case up to max_parallel run at once. A failure on one service does
not stop the others.`, lifecycleShort[op]),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLifecycle(cmd, op, args)
		},
	}

	cmd.Flags().BoolVarP(&batchParallel, "parallel", "p", false, "process services concurrently")
	if op == app.BatchRemove {
		cmd.Flags().BoolVarP(&removeYes, "yes", "y", false, "confirm removal")
	}

	return cmd
}

func runLifecycle(cmd *cobra.Command, op app.BatchOperation, ids []string) error {
	if op == app.BatchRemove && !removeYes && !dryRun {
		return fmt.Errorf("refusing to remove %d services without --yes", len(ids))
	}

	_, reconciler, _, err := setup()
	if err != nil {
		return err
	}

	result, err := reconciler.Batch(cmd.Context(), op, ids, batchParallel)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for i, id := range result.Services {
		switch {
		case result.Errors[i] != nil:
			fmt.Fprintf(out, "%s: %v\n", id, result.Errors[i])
		case result.Reports[i] != nil:
			fmt.Fprintln(out, result.Reports[i].Message())
		}
	}
	if len(ids) > 1 {
		fmt.Fprintln(out, result.Summary())
	}

	return result.Err()
}
