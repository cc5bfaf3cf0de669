package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danielcrane/workback/internal/planner"
)

func newPlanCmd(app *App) *cobra.Command {
	var (
		briefPath      string
		outputPath     string
		analysisModel  string
		structureModel string
		analysisOnly   bool
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Generate a workback plan from a meeting brief",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(briefPath)
			if err != nil {
				return fmt.Errorf("reading brief: %w", err)
			}
			brief := strings.TrimSpace(string(data))
			if brief == "" {
				return fmt.Errorf("brief file %s is empty", briefPath)
			}

			result, err := app.Planner.Generate(cmd.Context(), brief, planner.Options{
				AnalysisModel:  analysisModel,
				StructureModel: structureModel,
				WantStructured: !analysisOnly,
			})
			if err != nil {
				return err
			}

			if analysisOnly {
				fmt.Fprintln(cmd.OutOrStdout(), result.Analysis)
				return nil
			}

			out, err := json.MarshalIndent(result.Structured, "", "  ")
			if err != nil {
				return fmt.Errorf("serializing plan: %w", err)
			}
			if outputPath == "" {
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			}
			if err := os.WriteFile(outputPath, append(out, '\n'), 0o644); err != nil {
				return fmt.Errorf("writing plan: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "plan written to %s\n", outputPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&briefPath, "brief", "", "path to the meeting brief text file")
	cmd.Flags().StringVar(&outputPath, "output", "", "write the plan JSON here instead of stdout")
	cmd.Flags().StringVar(&analysisModel, "analysis-model", "", "override the analysis-stage model")
	cmd.Flags().StringVar(&structureModel, "structure-model", "", "override the structuring-stage model")
	cmd.Flags().BoolVar(&analysisOnly, "analysis-only", false, "stop after the analysis stage")
	cmd.MarkFlagRequired("brief")

	return cmd
}
