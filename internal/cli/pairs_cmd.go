package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danielcrane/workback/internal/dataset"
	"github.com/danielcrane/workback/internal/pairs"
	"github.com/danielcrane/workback/internal/scenario"
)

func newPairsCmd(app *App) *cobra.Command {
	var (
		scenariosPath string
		outputDir     string
		format        string
		threshold     float64
		temperatures  []float64
		count         int
	)

	cmd := &cobra.Command{
		Use:   "pairs",
		Short: "Build preference-pair training records from scenario briefs",
		RunE: func(cmd *cobra.Command, args []string) error {
			scenarios, err := scenario.LoadScenarios(scenariosPath)
			if err != nil {
				return err
			}
			if count > 0 && count < len(scenarios) {
				scenarios = scenarios[:count]
			}

			builder := app.NewPairs(pairs.Config{
				Temperatures: temperatures,
				Threshold:    threshold,
			})
			orch := dataset.NewOrchestrator(
				dataset.Config{OutputDir: outputDir, Format: dataset.Format(format)},
				builder, nil, app.Catalog, app.Observer, app.Progress,
			)

			summary, err := orch.RunPairs(cmd.Context(), scenarios)
			if err != nil {
				return err
			}
			printSummary(cmd, summary)
			return nil
		},
	}

	cmd.Flags().StringVar(&scenariosPath, "scenarios", "", "scenario YAML batch or single brief text file")
	cmd.Flags().StringVar(&outputDir, "output-dir", "dataset", "directory for unit and combined files")
	cmd.Flags().StringVar(&format, "format", "json", "output format: json or jsonl")
	cmd.Flags().Float64Var(&threshold, "threshold", 0.15, "minimum better-worse score gap")
	cmd.Flags().Float64SliceVar(&temperatures, "temperatures", nil, "sampling temperatures (default 0.8,1.0,1.2,1.5,1.8)")
	cmd.Flags().IntVar(&count, "count", 0, "process at most this many scenarios (0 = all)")
	cmd.MarkFlagRequired("scenarios")

	return cmd
}

func printSummary(cmd *cobra.Command, s *dataset.Summary) {
	fmt.Fprintf(cmd.OutOrStdout(), "run %s: %d produced, %d skipped, %d failed of %d (%.1fs)\n",
		s.RunID, s.Produced, s.Skipped, len(s.Failed), s.Total, float64(s.WallClockMs)/1000)
	for _, f := range s.Failed {
		fmt.Fprintf(cmd.OutOrStdout(), "  failed %s: %s\n", f.UnitID, f.Reason)
	}
}
