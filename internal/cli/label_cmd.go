package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/danielcrane/workback/internal/domain"
	"github.com/danielcrane/workback/internal/scenario"
)

func newLabelCmd(app *App) *cobra.Command {
	var (
		personaPath  string
		meetingsPath string
		outputPath   string
	)

	cmd := &cobra.Command{
		Use:   "label",
		Short: "Label a meeting JSON array with a persona's rule base",
		RunE: func(cmd *cobra.Command, args []string) error {
			persona, err := scenario.LoadPersona(personaPath)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(meetingsPath)
			if err != nil {
				return fmt.Errorf("reading meetings: %w", err)
			}
			var meetings []domain.Meeting
			if err := json.Unmarshal(data, &meetings); err != nil {
				return fmt.Errorf("parsing meetings %s: %w", meetingsPath, err)
			}

			labeled := make([]domain.LabeledMeeting, 0, len(meetings))
			for _, m := range meetings {
				labeled = append(labeled, app.Rules.Label(m, persona))
			}

			out, err := json.MarshalIndent(labeled, "", "  ")
			if err != nil {
				return fmt.Errorf("serializing labeled meetings: %w", err)
			}
			if outputPath == "" {
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			}
			if err := os.WriteFile(outputPath, append(out, '\n'), 0o644); err != nil {
				return fmt.Errorf("writing labeled meetings: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "labeled %d meetings to %s\n", len(labeled), outputPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&personaPath, "persona", "", "persona JSON file")
	cmd.Flags().StringVar(&meetingsPath, "meetings", "", "meeting JSON array file")
	cmd.Flags().StringVar(&outputPath, "output", "", "write labeled JSON here instead of stdout")
	cmd.MarkFlagRequired("persona")
	cmd.MarkFlagRequired("meetings")

	return cmd
}
