package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danielcrane/workback/internal/domain"
)

func newJudgeCmd(app *App) *cobra.Command {
	var (
		planPath  string
		briefPath string
	)

	cmd := &cobra.Command{
		Use:   "judge",
		Short: "Score a plan JSON file against the rubric",
		RunE: func(cmd *cobra.Command, args []string) error {
			planData, err := os.ReadFile(planPath)
			if err != nil {
				return fmt.Errorf("reading plan: %w", err)
			}
			var plan domain.Plan
			if err := json.Unmarshal(planData, &plan); err != nil {
				return fmt.Errorf("parsing plan %s: %w", planPath, err)
			}

			briefData, err := os.ReadFile(briefPath)
			if err != nil {
				return fmt.Errorf("reading brief: %w", err)
			}

			judgment, err := app.Judge.Judge(cmd.Context(), &plan, strings.TrimSpace(string(briefData)))
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(judgment, "", "  ")
			if err != nil {
				return fmt.Errorf("serializing judgment: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&planPath, "plan", "", "path to the plan JSON file")
	cmd.Flags().StringVar(&briefPath, "brief", "", "path to the scenario brief")
	cmd.MarkFlagRequired("plan")
	cmd.MarkFlagRequired("brief")

	return cmd
}
