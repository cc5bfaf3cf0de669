// Package dataset orchestrates batch generation over personas and
// scenarios, persisting per-unit and combined outputs with a
// resume-by-presence policy. Orchestration is sequential within a
// process; scale-out is independent processes on disjoint persona sets.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/danielcrane/workback/internal/calendar"
	"github.com/danielcrane/workback/internal/domain"
	"github.com/danielcrane/workback/internal/llm"
	"github.com/danielcrane/workback/internal/pairs"
	"github.com/danielcrane/workback/internal/repository"
	"github.com/danielcrane/workback/internal/scenario"
)

// Format selects the on-disk encoding for unit and combined files.
type Format string

const (
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
)

// Ext returns the file extension for the format.
func (f Format) Ext() string {
	if f == FormatJSONL {
		return "jsonl"
	}
	return "json"
}

// combineEvery controls how often the combined file is reflushed
// mid-run.
const combineEvery = 10

// UnitFailure records one failed unit for the run summary.
type UnitFailure struct {
	UnitID    string `json:"unit_id"`
	PersonaID string `json:"persona_id,omitempty"`
	Reason    string `json:"reason"`
}

// Summary is the run-level aggregate written alongside the dataset.
type Summary struct {
	RunID       string        `json:"run_id"`
	Kind        string        `json:"kind"`
	StartedAt   time.Time     `json:"started_at"`
	FinishedAt  time.Time     `json:"finished_at"`
	Total       int           `json:"total"`
	Produced    int           `json:"produced"`
	Skipped     int           `json:"skipped"`
	Failed      []UnitFailure `json:"failed"`
	WallClockMs int64         `json:"wall_clock_ms"`
	MeanUnitMs  int64         `json:"mean_unit_ms"`
}

// Config holds orchestrator settings.
type Config struct {
	OutputDir string
	Format    Format
}

// Orchestrator drives pair and calendar generation over work-unit
// products. Unit failures are recorded and the run continues; the
// process exits zero as long as the run itself completed.
type Orchestrator struct {
	cfg      Config
	pairs    *pairs.Builder
	calendar *calendar.Generator
	catalog  *repository.Catalog // optional
	observer llm.Observer
	progress io.Writer // optional, TTY progress lines
}

// NewOrchestrator creates an Orchestrator. catalog and progress may be
// nil.
func NewOrchestrator(cfg Config, pb *pairs.Builder, cg *calendar.Generator, catalog *repository.Catalog, observer llm.Observer, progress io.Writer) *Orchestrator {
	if observer == nil {
		observer = llm.NoopObserver{}
	}
	if cfg.Format == "" {
		cfg.Format = FormatJSON
	}
	return &Orchestrator{cfg: cfg, pairs: pb, calendar: cg, catalog: catalog, observer: observer, progress: progress}
}

// RunPairs builds one preference pair per scenario. Existing unit files
// are skipped so an interrupted run can resume against the same output
// directory.
func (o *Orchestrator) RunPairs(ctx context.Context, scenarios []scenario.Scenario) (*Summary, error) {
	if len(scenarios) == 0 {
		return nil, fmt.Errorf("no scenarios to process")
	}

	run := o.startRun(ctx, "pairs")
	var produced []domain.PreferencePair

	for _, sc := range scenarios {
		unitID := fmt.Sprintf("%s_pair", sc.ID)
		path := filepath.Join(o.cfg.OutputDir, unitID+"."+o.cfg.Format.Ext())
		if o.skipExisting(ctx, run, unitID, "", path) {
			continue
		}

		unitStart := time.Now()
		pair, err := o.pairs.Build(ctx, sc.Text())
		if err != nil {
			o.failUnit(ctx, run, unitID, "", err, unitStart)
			if ctx.Err() != nil {
				break
			}
			continue
		}

		if err := o.writeUnit(path, pair, []domain.PreferencePair{*pair}); err != nil {
			o.failUnit(ctx, run, unitID, "", err, unitStart)
			continue
		}
		produced = append(produced, *pair)
		score := pair.Better.Score
		o.produceUnit(ctx, run, unitID, "", path, &score, unitStart)

		if len(produced)%combineEvery == 0 {
			o.flushCombined("pairs", produced)
		}
	}

	if len(produced) > 0 {
		o.flushCombined("pairs", produced)
	}
	return o.finishRun(ctx, run, len(scenarios))
}

// RunCalendars generates one labeled calendar per persona.
func (o *Orchestrator) RunCalendars(ctx context.Context, personas []*domain.Persona, weeks int, startDate time.Time) (*Summary, error) {
	if len(personas) == 0 {
		return nil, fmt.Errorf("no personas to process")
	}
	if weeks <= 0 {
		return nil, fmt.Errorf("weeks must be positive, got %d", weeks)
	}

	run := o.startRun(ctx, "calendars")
	var produced []domain.LabeledMeeting

	for _, p := range personas {
		unitID := fmt.Sprintf("%s_calendar", p.ID)
		path := filepath.Join(o.cfg.OutputDir, unitID+"."+o.cfg.Format.Ext())
		if o.skipExisting(ctx, run, unitID, p.ID, path) {
			continue
		}

		unitStart := time.Now()
		meetings, err := o.calendar.Generate(ctx, p, weeks, startDate)
		if err != nil {
			o.failUnit(ctx, run, unitID, p.ID, err, unitStart)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if len(meetings) == 0 {
			o.failUnit(ctx, run, unitID, p.ID, errors.New("all batches dropped"), unitStart)
			continue
		}

		if err := o.writeUnit(path, meetings, meetings); err != nil {
			o.failUnit(ctx, run, unitID, p.ID, err, unitStart)
			continue
		}
		produced = append(produced, meetings...)
		o.produceUnit(ctx, run, unitID, p.ID, path, nil, unitStart)

		if run.producedUnits%combineEvery == 0 {
			o.flushCombined("calendars", produced)
		}
	}

	if len(produced) > 0 {
		o.flushCombined("calendars", produced)
	}
	return o.finishRun(ctx, run, len(personas))
}

// runState tracks one in-flight run.
type runState struct {
	id            string
	kind          string
	startedAt     time.Time
	producedUnits int
	skipped       int
	failures      []UnitFailure
	unitMs        []int64
}

func (o *Orchestrator) startRun(ctx context.Context, kind string) *runState {
	run := &runState{id: uuid.NewString(), kind: kind, startedAt: time.Now()}
	if o.catalog != nil {
		if err := o.catalog.StartRun(ctx, repository.RunRecord{
			ID: run.id, Kind: kind, OutputDir: o.cfg.OutputDir, StartedAt: run.startedAt,
		}); err != nil {
			o.observer.OnWarning("dataset", fmt.Sprintf("catalog unavailable for run %s: %v", run.id, err))
			o.catalog = nil
		}
	}
	return run
}

// skipExisting implements the resume policy: a present unit file is a
// completed unit and is never rewritten.
func (o *Orchestrator) skipExisting(ctx context.Context, run *runState, unitID, personaID, path string) bool {
	if _, err := os.Stat(path); err != nil {
		return false
	}
	run.skipped++
	o.printf("skip %s (exists)\n", unitID)
	o.recordUnit(ctx, run, repository.UnitRecord{
		RunID: run.id, UnitID: unitID, PersonaID: personaID, Kind: run.kind,
		Path: path, Status: "skipped", CreatedAt: time.Now(),
	})
	return true
}

func (o *Orchestrator) failUnit(ctx context.Context, run *runState, unitID, personaID string, cause error, started time.Time) {
	run.failures = append(run.failures, UnitFailure{UnitID: unitID, PersonaID: personaID, Reason: cause.Error()})
	run.unitMs = append(run.unitMs, time.Since(started).Milliseconds())
	o.printf("fail %s: %v\n", unitID, cause)
	o.recordUnit(ctx, run, repository.UnitRecord{
		RunID: run.id, UnitID: unitID, PersonaID: personaID, Kind: run.kind,
		Status: "failed", Reason: cause.Error(),
		DurationMs: time.Since(started).Milliseconds(), CreatedAt: time.Now(),
	})
}

func (o *Orchestrator) produceUnit(ctx context.Context, run *runState, unitID, personaID, path string, score *float64, started time.Time) {
	run.producedUnits++
	run.unitMs = append(run.unitMs, time.Since(started).Milliseconds())
	o.printf("done %s\n", unitID)
	o.recordUnit(ctx, run, repository.UnitRecord{
		RunID: run.id, UnitID: unitID, PersonaID: personaID, Kind: run.kind,
		Path: path, Status: "produced", Score: score,
		DurationMs: time.Since(started).Milliseconds(), CreatedAt: time.Now(),
	})
}

// writeUnit writes one unit in the configured format: whole-value JSON or
// one record per line.
func (o *Orchestrator) writeUnit(path string, asJSON any, asLines any) error {
	if o.cfg.Format == FormatJSONL {
		switch records := asLines.(type) {
		case []domain.PreferencePair:
			return AtomicWriteJSONLines(path, records)
		case []domain.LabeledMeeting:
			return AtomicWriteJSONLines(path, records)
		default:
			return fmt.Errorf("unsupported jsonl record type %T", asLines)
		}
	}
	return AtomicWriteJSON(path, asJSON)
}

func (o *Orchestrator) flushCombined(scope string, records any) {
	path := filepath.Join(o.cfg.OutputDir, scope+"_combined."+o.cfg.Format.Ext())
	var err error
	if o.cfg.Format == FormatJSONL {
		switch rs := records.(type) {
		case []domain.PreferencePair:
			err = AtomicWriteJSONLines(path, rs)
		case []domain.LabeledMeeting:
			err = AtomicWriteJSONLines(path, rs)
		}
	} else {
		err = AtomicWriteJSON(path, records)
	}
	if err != nil {
		o.observer.OnWarning("dataset", fmt.Sprintf("combined flush failed: %v", err))
	}
}

func (o *Orchestrator) finishRun(ctx context.Context, run *runState, total int) (*Summary, error) {
	finished := time.Now()
	summary := &Summary{
		RunID:       run.id,
		Kind:        run.kind,
		StartedAt:   run.startedAt.UTC(),
		FinishedAt:  finished.UTC(),
		Total:       total,
		Produced:    run.producedUnits,
		Skipped:     run.skipped,
		Failed:      run.failures,
		WallClockMs: finished.Sub(run.startedAt).Milliseconds(),
	}
	if summary.Failed == nil {
		summary.Failed = []UnitFailure{}
	}
	if len(run.unitMs) > 0 {
		var sum int64
		for _, ms := range run.unitMs {
			sum += ms
		}
		summary.MeanUnitMs = sum / int64(len(run.unitMs))
	}

	statsPath := filepath.Join(o.cfg.OutputDir,
		fmt.Sprintf("statistics_%s.json", finished.UTC().Format("20060102T150405")))
	if err := AtomicWriteJSON(statsPath, summary); err != nil {
		return summary, fmt.Errorf("writing statistics: %w", err)
	}

	if o.catalog != nil {
		if err := o.catalog.FinishRun(ctx, run.id, finished, run.producedUnits, run.skipped, len(run.failures)); err != nil {
			o.observer.OnWarning("dataset", fmt.Sprintf("catalog finish failed: %v", err))
		}
	}
	return summary, nil
}

func (o *Orchestrator) recordUnit(ctx context.Context, run *runState, u repository.UnitRecord) {
	if o.catalog == nil {
		return
	}
	if err := o.catalog.RecordUnit(ctx, u); err != nil {
		o.observer.OnWarning("dataset", fmt.Sprintf("catalog record failed for %s: %v", u.UnitID, err))
	}
}

func (o *Orchestrator) printf(format string, args ...any) {
	if o.progress != nil {
		fmt.Fprintf(o.progress, format, args...)
	}
}
