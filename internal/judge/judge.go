// Package judge scores workback plans against a fixed 50-assertion
// rubric using a judge LLM. The model's numeric score is never trusted;
// the aggregate is always recomputed from the verdict cardinalities.
package judge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/danielcrane/workback/internal/domain"
	"github.com/danielcrane/workback/internal/llm"
)

// ErrJudgeUnavailable indicates the judge model could not be reached at
// all. Parse failures do not raise this; they produce a zero judgment.
var ErrJudgeUnavailable = errors.New("judge model unavailable")

const judgeSystemPrompt = `You are a strict reviewer of workback plans. You receive a scenario, a checklist of assertions, and a plan as JSON.

For each assertion decide: passed (clearly true), partial (partly true), or failed (false or unverifiable).

Output ONLY a JSON object:
{
  "passed": ["A1", ...],
  "partial": ["C3", ...],
  "failed": ["E1", ...],
  "feedback": {"C3": "one-line reason for anything partial or failed"},
  "score": 0.0
}

Every assertion id must appear in exactly one of the three lists. Do not invent assertion ids.`

const judgeUserTemplate = `Scenario:
%s

Assertions:
%s

Plan JSON:
%s

Judge the plan.`

// verdict is the raw shape the judge model emits.
type verdict struct {
	Passed   []string          `json:"passed"`
	Partial  []string          `json:"partial"`
	Failed   []string          `json:"failed"`
	Feedback map[string]string `json:"feedback"`
	Score    float64           `json:"score"`
}

// Judge scores plans with a judge LLM at low temperature.
type Judge struct {
	client   llm.Client
	observer llm.Observer
}

// NewJudge creates a Judge backed by an LLM client.
func NewJudge(client llm.Client, observer llm.Observer) *Judge {
	if observer == nil {
		observer = llm.NoopObserver{}
	}
	return &Judge{client: client, observer: observer}
}

// Judge scores one plan against the rubric for the given scenario. The
// returned judgment is failure-closed: an unparseable verdict yields a
// zero-score judgment with every assertion failed, so downstream gating
// filters it out. An error is returned only when the judge model itself
// is unreachable.
func (j *Judge) Judge(ctx context.Context, plan *domain.Plan, scenario string) (*domain.Judgment, error) {
	planJSON, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serializing plan: %w", err)
	}

	resp, err := j.client.Query(ctx, llm.Request{
		Task:         llm.TaskJudge,
		SystemPrompt: judgeSystemPrompt,
		UserPrompt:   fmt.Sprintf(judgeUserTemplate, scenario, rubricPromptBlock(), planJSON),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrJudgeUnavailable, err)
	}

	v, err := llm.ExtractJSON[verdict](resp.Text, nil)
	if err != nil {
		j.observer.OnWarning("judge", fmt.Sprintf("unparseable verdict, scoring zero: %v", err))
		return zeroJudgment(err), nil
	}

	return normalize(v), nil
}

// normalize reconciles the model's verdict with the rubric: unknown ids
// are dropped, duplicates resolve in favor of the stronger verdict, and
// unmentioned assertions count as failed. The score is recomputed as
// (passed + 0.5*partial) / rubric size.
func normalize(v verdict) *domain.Judgment {
	status := make(map[string]string, RubricSize)
	mark := func(ids []string, s string) {
		for _, id := range ids {
			if _, known := assertionText[id]; !known {
				continue
			}
			if _, already := status[id]; already {
				continue
			}
			status[id] = s
		}
	}
	mark(v.Passed, "passed")
	mark(v.Partial, "partial")
	mark(v.Failed, "failed")

	out := &domain.Judgment{Feedback: make(map[string]string)}
	for _, a := range Rubric {
		switch status[a.ID] {
		case "passed":
			out.Passed = append(out.Passed, a.ID)
		case "partial":
			out.Partial = append(out.Partial, a.ID)
		default:
			out.Failed = append(out.Failed, a.ID)
		}
	}
	for id, note := range v.Feedback {
		if _, known := assertionText[id]; known {
			out.Feedback[id] = note
		}
	}

	out.Score = Score(len(out.Passed), len(out.Partial))
	return out
}

// Score computes the aggregate from verdict cardinalities.
func Score(passed, partial int) float64 {
	return (float64(passed) + 0.5*float64(partial)) / float64(RubricSize)
}

func zeroJudgment(cause error) *domain.Judgment {
	return &domain.Judgment{
		Passed:   nil,
		Partial:  nil,
		Failed:   AllAssertionIDs(),
		Feedback: map[string]string{"error": cause.Error()},
		Score:    0,
	}
}
