package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/danielcrane/workback/internal/calendar"
	"github.com/danielcrane/workback/internal/cli"
	"github.com/danielcrane/workback/internal/db"
	"github.com/danielcrane/workback/internal/judge"
	"github.com/danielcrane/workback/internal/llm"
	"github.com/danielcrane/workback/internal/pairs"
	"github.com/danielcrane/workback/internal/planner"
	"github.com/danielcrane/workback/internal/repository"
	"github.com/danielcrane/workback/internal/rules"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	llmCfg := llm.LoadConfig()

	var observer llm.Observer = llm.NoopObserver{}
	if v, _ := strconv.ParseBool(os.Getenv("WORKBACK_LOG_LLM_CALLS")); v {
		observer = llm.NewLogObserver(os.Stderr)
	}

	gateway := llm.NewGateway(llmCfg, observer)

	// Internal email domains for external-attendee detection.
	internalDomains := []string{"company.com"}
	if v := os.Getenv("WORKBACK_INTERNAL_DOMAINS"); v != "" {
		internalDomains = strings.Split(v, ",")
	}
	engine := rules.NewEngine(internalDomains)

	gen := planner.NewGenerator(gateway, observer)
	j := judge.NewJudge(gateway, observer)
	cal := calendar.NewGenerator(gateway, engine, observer, 2*time.Second)

	// Catalog path: env var or default ~/.workback/catalog.db. A missing
	// catalog disables run auditing but never blocks generation.
	var catalog *repository.Catalog
	dbPath := os.Getenv("WORKBACK_DB")
	if dbPath == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dbPath = filepath.Join(home, ".workback", "catalog.db")
		}
	}
	if dbPath != "" {
		database, err := db.OpenDB(dbPath)
		if err != nil {
			observer.OnWarning("main", fmt.Sprintf("catalog disabled: %v", err))
		} else {
			defer database.Close()
			catalog = repository.NewCatalog(database)
		}
	}

	// Progress lines only when attached to a terminal.
	var progress io.Writer
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		progress = os.Stderr
	}

	app := &cli.App{
		Planner:  gen,
		Judge:    j,
		Calendar: cal,
		Rules:    engine,
		Catalog:  catalog,
		Observer: observer,
		Progress: progress,
		NewPairs: func(cfg pairs.Config) *pairs.Builder {
			return pairs.NewBuilder(gen, j, observer, cfg)
		},
	}

	return cli.NewRootCmd(app).Execute()
}
