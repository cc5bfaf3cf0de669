// Package planner turns an unstructured meeting brief into a structured
// workback plan via a two-stage LLM pipeline: a slow reasoning model
// decomposes the brief, then a cheaper structured model emits the schema.
package planner

import (
	"context"
	"errors"
	"fmt"

	"github.com/danielcrane/workback/internal/domain"
	"github.com/danielcrane/workback/internal/llm"
)

// ErrSchema indicates the structuring stage produced JSON that is not
// plan-shaped. The generator does not retry; the caller decides.
var ErrSchema = errors.New("structured output is not a workback plan")

// Options are per-call overrides so a single model can serve both stages
// in low-budget environments.
type Options struct {
	AnalysisModel        string
	StructureModel       string
	AnalysisTemperature  *float64
	StructureTemperature *float64
	WantStructured       bool
}

// DefaultOptions requests both stages with configured models.
func DefaultOptions() Options {
	return Options{WantStructured: true}
}

// Result holds the analysis blob and, when requested, the structured plan.
type Result struct {
	Analysis   string
	Structured *domain.Plan
}

// Generator is the two-stage plan generator.
type Generator struct {
	client   llm.Client
	observer llm.Observer
}

// NewGenerator creates a Generator backed by an LLM client.
func NewGenerator(client llm.Client, observer llm.Observer) *Generator {
	if observer == nil {
		observer = llm.NoopObserver{}
	}
	return &Generator{client: client, observer: observer}
}

// Generate runs the analysis stage and, when opts.WantStructured, the
// structuring stage. A structurally flawed plan (dangling owners,
// non-monotonic dates) is returned as-is: the judge is meant to see the
// flaws so the preference signal stays informative.
func (g *Generator) Generate(ctx context.Context, brief string, opts Options) (*Result, error) {
	analysis, err := g.analyze(ctx, brief, opts)
	if err != nil {
		return nil, err
	}

	result := &Result{Analysis: analysis}
	if !opts.WantStructured {
		return result, nil
	}

	plan, err := g.structure(ctx, analysis, opts)
	if err != nil {
		return nil, err
	}
	result.Structured = plan
	return result, nil
}

func (g *Generator) analyze(ctx context.Context, brief string, opts Options) (string, error) {
	resp, err := g.client.Query(ctx, llm.Request{
		Task:         llm.TaskAnalysis,
		Model:        opts.AnalysisModel,
		SystemPrompt: analysisSystemPrompt,
		UserPrompt:   fmt.Sprintf(analysisUserTemplate, brief),
		Temperature:  opts.AnalysisTemperature,
	})
	if err != nil {
		return "", fmt.Errorf("analysis stage: %w", err)
	}
	return resp.Text, nil
}

func (g *Generator) structure(ctx context.Context, analysis string, opts Options) (*domain.Plan, error) {
	resp, err := g.client.Query(ctx, llm.Request{
		Task:         llm.TaskStructure,
		Model:        opts.StructureModel,
		SystemPrompt: structureSystemPrompt,
		UserPrompt:   fmt.Sprintf(structureUserTemplate, analysis),
		Temperature:  opts.StructureTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("structuring stage: %w", err)
	}

	plan, err := llm.ExtractJSON[domain.Plan](resp.Text, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchema, err)
	}
	if err := planShaped(&plan); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchema, err)
	}
	return &plan, nil
}

// planShaped checks only that the object is recognizably a plan. It does
// not enforce referential integrity or date monotonicity.
func planShaped(p *domain.Plan) error {
	if len(p.Participants) == 0 {
		return fmt.Errorf("no participants")
	}
	if len(p.Milestones) == 0 {
		return fmt.Errorf("no milestones")
	}
	for _, m := range p.Milestones {
		if m.ID == "" || m.Title == "" {
			return fmt.Errorf("milestone missing id or title")
		}
	}
	return nil
}
