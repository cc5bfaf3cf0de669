// Package cli wires the workback services into a cobra command tree.
package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/danielcrane/workback/internal/calendar"
	"github.com/danielcrane/workback/internal/judge"
	"github.com/danielcrane/workback/internal/llm"
	"github.com/danielcrane/workback/internal/pairs"
	"github.com/danielcrane/workback/internal/planner"
	"github.com/danielcrane/workback/internal/repository"
	"github.com/danielcrane/workback/internal/rules"
)

// App holds references to the services used by CLI commands.
type App struct {
	Planner  *planner.Generator
	Judge    *judge.Judge
	Calendar *calendar.Generator
	Rules    *rules.Engine
	Catalog  *repository.Catalog // nil when the catalog db is unavailable
	Observer llm.Observer

	// NewPairs builds a preference-pair builder for a command-specific
	// gate configuration.
	NewPairs func(cfg pairs.Config) *pairs.Builder

	// Progress receives per-unit progress lines; nil suppresses them.
	Progress io.Writer
}

// NewRootCmd creates the top-level "workback" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "workback",
		Short:         "Workback planning and training-data pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newPlanCmd(app),
		newJudgeCmd(app),
		newPairsCmd(app),
		newCalendarCmd(app),
		newLabelCmd(app),
		newRunsCmd(app),
	)

	return root
}
