package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBatchesCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batches",
		Short: "Inspect import batches",
	}
	cmd.AddCommand(newBatchesListCommand(configPath), newBatchesShowCommand(configPath))
	return cmd
}

func newBatchesListCommand(configPath *string) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List batches, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			batches, err := a.engine.Batches().List(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), batches)
			}
			renderBatches(cmd.OutOrStdout(), batches)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func newBatchesShowCommand(configPath *string) *cobra.Command {
	var withLog bool

	cmd := &cobra.Command{
		Use:   "show <batch-id|row-id>",
		Short: "Show a batch and its rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			svc := a.engine.Batches()
			b, err := svc.Get(ctx, args[0])
			if err != nil {
				return err
			}
			rows, err := svc.Rows(ctx, b.ID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s  %s  %s\n", titleStyle.Render(b.ID), b.SourceFile, b.Status)
			fmt.Fprintf(out, "%s %d  %s %d  %s %d\n\n",
				labelStyle.Render("imported"), b.ImportedCount,
				labelStyle.Render("duplicates"), b.DuplicateCount,
				labelStyle.Render("errors"), b.ErrorCount)
			if len(rows) > 0 {
				renderBatchRows(out, rows)
			}

			if withLog {
				entries, err := svc.MatchLog(ctx, b.ID)
				if err != nil {
					return err
				}
				fmt.Fprintln(out)
				fmt.Fprintln(out, titleStyle.Render("Match log"))
				renderMatchLog(out, entries)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&withLog, "log", false, "include the entity match log")
	return cmd
}
