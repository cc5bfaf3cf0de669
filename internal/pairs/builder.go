// Package pairs builds preference-pair training records: sample candidate
// plans at varied temperatures, judge each against the rubric, and emit a
// {better, worse} record only when the quality gap clears the threshold.
package pairs

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/danielcrane/workback/internal/domain"
	"github.com/danielcrane/workback/internal/judge"
	"github.com/danielcrane/workback/internal/llm"
	"github.com/danielcrane/workback/internal/planner"
)

// ErrGatingRejected indicates no pair was emitted: too few candidates
// survived generation and judging, or the score gap fell below the
// threshold. This is an expected outcome, not a pipeline failure.
var ErrGatingRejected = errors.New("preference pair rejected by quality gate")

// Config controls the sampling sweep and the acceptance gate.
type Config struct {
	Temperatures []float64
	Threshold    float64 // minimum better-worse score gap
}

// DefaultConfig is the standard five-temperature sweep with a 0.15 gap.
func DefaultConfig() Config {
	return Config{
		Temperatures: []float64{0.8, 1.0, 1.2, 1.5, 1.8},
		Threshold:    0.15,
	}
}

// Builder samples, judges, and gates candidate plans. It is stateless
// across scenarios and safe to invoke concurrently with independent
// scenarios on the same gateway.
type Builder struct {
	planner  *planner.Generator
	judge    *judge.Judge
	observer llm.Observer
	cfg      Config
}

// NewBuilder creates a Builder over a plan generator and a judge.
func NewBuilder(gen *planner.Generator, j *judge.Judge, observer llm.Observer, cfg Config) *Builder {
	if observer == nil {
		observer = llm.NoopObserver{}
	}
	if len(cfg.Temperatures) == 0 {
		cfg.Temperatures = DefaultConfig().Temperatures
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultConfig().Threshold
	}
	return &Builder{planner: gen, judge: j, observer: observer, cfg: cfg}
}

// Build runs the full sample-judge-gate loop for one scenario. Candidate
// failures are absorbed: a candidate that fails generation or judging is
// dropped, and ErrGatingRejected is returned if fewer than two survive or
// the best-worst gap is below the threshold.
func (b *Builder) Build(ctx context.Context, scenario string) (*domain.PreferencePair, error) {
	candidates := b.sample(ctx, scenario)
	if len(candidates) < 2 {
		return nil, fmt.Errorf("%w: only %d of %d candidates generated", ErrGatingRejected, len(candidates), len(b.cfg.Temperatures))
	}

	judged := b.judgeAll(ctx, scenario, candidates)
	if len(judged) < 2 {
		return nil, fmt.Errorf("%w: only %d candidates judged", ErrGatingRejected, len(judged))
	}

	sort.SliceStable(judged, func(i, j int) bool {
		return judged[i].Score > judged[j].Score
	})
	best, worst := judged[0], judged[len(judged)-1]

	gap := best.Score - worst.Score
	if gap < b.cfg.Threshold {
		return nil, fmt.Errorf("%w: score gap %.3f below threshold %.3f", ErrGatingRejected, gap, b.cfg.Threshold)
	}

	return &domain.PreferencePair{
		Scenario:       scenario,
		Better:         best,
		Worse:          worst,
		ScoreGap:       gap,
		KeyDifferences: keyDifferences(best, worst),
	}, nil
}

type candidate struct {
	temperature float64
	analysis    string
	plan        *domain.Plan
}

// sample generates one candidate per configured temperature, in
// temperature order, skipping failures.
func (b *Builder) sample(ctx context.Context, scenario string) []candidate {
	var out []candidate
	for _, t := range b.cfg.Temperatures {
		temp := t
		res, err := b.planner.Generate(ctx, scenario, planner.Options{
			AnalysisTemperature:  &temp,
			StructureTemperature: &temp,
			WantStructured:       true,
		})
		if err != nil {
			b.observer.OnWarning("pairs", fmt.Sprintf("candidate at temperature %.1f dropped: %v", t, err))
			continue
		}
		out = append(out, candidate{temperature: t, analysis: res.Analysis, plan: res.Structured})
	}
	return out
}

func (b *Builder) judgeAll(ctx context.Context, scenario string, candidates []candidate) []domain.PlanSample {
	var out []domain.PlanSample
	for _, c := range candidates {
		jd, err := b.judge.Judge(ctx, c.plan, scenario)
		if err != nil {
			b.observer.OnWarning("pairs", fmt.Sprintf("judgment at temperature %.1f dropped: %v", c.temperature, err))
			continue
		}
		out = append(out, domain.PlanSample{
			Plan:        c.plan,
			Analysis:    c.analysis,
			Temperature: c.temperature,
			Score:       jd.Score,
			Passed:      jd.Passed,
			Partial:     jd.Partial,
			Failed:      jd.Failed,
			Feedback:    jd.Feedback,
		})
	}
	return out
}

// keyDifferences names the assertions the better plan passed and the
// worse plan failed. When the intersection is empty, a numeric
// comparison sentence stands in.
func keyDifferences(best, worst domain.PlanSample) []string {
	failed := make(map[string]bool, len(worst.Failed))
	for _, id := range worst.Failed {
		failed[id] = true
	}

	var diffs []string
	for _, id := range best.Passed {
		if failed[id] {
			diffs = append(diffs, fmt.Sprintf("%s: %s", id, judge.AssertionText(id)))
		}
	}
	if len(diffs) == 0 {
		diffs = []string{fmt.Sprintf("better plan scored %.2f vs %.2f with no single decisive assertion", best.Score, worst.Score)}
	}
	return diffs
}
