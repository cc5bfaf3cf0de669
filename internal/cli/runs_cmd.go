package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newRunsCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show recent orchestrator runs from the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Catalog == nil {
				return fmt.Errorf("catalog database is not available")
			}

			runs, err := app.Catalog.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no runs recorded")
				return nil
			}

			for _, r := range runs {
				status := "running"
				if r.FinishedAt != nil {
					status = r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-9s  %s  produced=%d skipped=%d failed=%d  %s\n",
					r.StartedAt.Format("2006-01-02 15:04"), r.Kind, r.ID[:8],
					r.Produced, r.Skipped, r.Failed, status)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to show")
	return cmd
}
