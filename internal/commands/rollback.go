package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRollbackCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "rollback <batch-id>",
		Short: "Delete every row a batch committed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.engine.Rollback(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if res.AlreadyRolledBack {
				fmt.Fprintf(out, "%s was already rolled back\n", res.BatchID)
				return nil
			}
			fmt.Fprintf(out, "%s %s: %d rows removed\n", warnStyle.Render("Rolled back"), res.BatchID, res.RowsReverted)
			return nil
		},
	}
}
