package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02"

func newSweepCommand(configPath *string) *cobra.Command {
	var fromStr, toStr string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Find rows committed twice by different batches",
		Long: `Two imports of overlapping exports running at the same time can both pass
the history check. Sweep scans committed rows in a date range for dedup keys
that more than one completed batch wrote.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			to := time.Now().UTC().Truncate(24 * time.Hour)
			from := to.AddDate(0, 0, -90)
			var err error
			if fromStr != "" {
				if from, err = time.Parse(dateLayout, fromStr); err != nil {
					return fmt.Errorf("invalid --from: %w", err)
				}
			}
			if toStr != "" {
				if to, err = time.Parse(dateLayout, toStr); err != nil {
					return fmt.Errorf("invalid --to: %w", err)
				}
			}
			if to.Before(from) {
				return fmt.Errorf("--to %s is before --from %s", to.Format(dateLayout), from.Format(dateLayout))
			}

			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			groups, err := a.engine.Batches().Sweep(cmd.Context(), from, to)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), groups)
			}
			renderDuplicateGroups(cmd.OutOrStdout(), groups)
			return nil
		},
	}
	cmd.Flags().StringVar(&fromStr, "from", "", "start date, YYYY-MM-DD (default 90 days ago)")
	cmd.Flags().StringVar(&toStr, "to", "", "end date, YYYY-MM-DD (default today)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}
