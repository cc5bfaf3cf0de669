package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/danielcrane/workback/internal/dataset"
	"github.com/danielcrane/workback/internal/domain"
	"github.com/danielcrane/workback/internal/scenario"
)

func newCalendarCmd(app *App) *cobra.Command {
	var (
		personaPath string
		tier        int
		weeks       int
		startDate   string
		outputDir   string
		format      string
	)

	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Generate labeled synthetic calendars for personas",
		RunE: func(cmd *cobra.Command, args []string) error {
			personas, err := scenario.LoadPersonas(personaPath, tier)
			if err != nil {
				return err
			}
			if len(personas) == 0 {
				return fmt.Errorf("no personas loaded from %s", personaPath)
			}

			var start time.Time
			if startDate != "" {
				start, err = time.Parse(domain.DateLayout, startDate)
				if err != nil {
					return fmt.Errorf("parsing --start-date: %w", err)
				}
			}

			orch := dataset.NewOrchestrator(
				dataset.Config{OutputDir: outputDir, Format: dataset.Format(format)},
				nil, app.Calendar, app.Catalog, app.Observer, app.Progress,
			)

			summary, err := orch.RunCalendars(cmd.Context(), personas, weeks, start)
			if err != nil {
				return err
			}
			printSummary(cmd, summary)
			return nil
		},
	}

	cmd.Flags().StringVar(&personaPath, "persona", "personas", "persona JSON file or directory")
	cmd.Flags().IntVar(&tier, "tier", 0, "only personas of this tier (1-3, 0 = all)")
	cmd.Flags().IntVar(&weeks, "weeks", 4, "number of weeks to generate")
	cmd.Flags().StringVar(&startDate, "start-date", "", "first calendar day (YYYY-MM-DD, default next Monday)")
	cmd.Flags().StringVar(&outputDir, "output-dir", "dataset", "directory for unit and combined files")
	cmd.Flags().StringVar(&format, "format", "json", "output format: json or jsonl")

	return cmd
}
