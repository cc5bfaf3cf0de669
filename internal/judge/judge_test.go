package judge

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielcrane/workback/internal/domain"
	"github.com/danielcrane/workback/internal/llm"
)

type stubClient struct {
	text     string
	err      error
	requests []llm.Request
}

func (s *stubClient) Query(ctx context.Context, req llm.Request) (*llm.Response, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	return &llm.Response{Text: s.text}, nil
}

func minimalPlan() *domain.Plan {
	return &domain.Plan{
		Participants: []domain.Participant{{ID: "p1", Name: "Dana"}},
		Milestones:   []domain.Milestone{{ID: "m1", Title: "Draft", DueDate: "2026-09-01", OwnerID: "p1"}},
		Meta:         domain.PlanMeta{Goal: "QBR", TargetDate: "2026-09-12"},
	}
}

func verdictText(t *testing.T, v verdict) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

func TestRubric_HasFiftyUniqueAssertions(t *testing.T) {
	assert.Len(t, Rubric, RubricSize)

	seen := make(map[string]bool)
	for _, a := range Rubric {
		assert.False(t, seen[a.ID], "duplicate assertion id %s", a.ID)
		seen[a.ID] = true
		assert.NotEmpty(t, a.Text, a.ID)
	}
}

func TestJudge_ScoreRecomputedFromCardinalities(t *testing.T) {
	ids := AllAssertionIDs()
	client := &stubClient{text: verdictText(t, verdict{
		Passed:  ids[:40],
		Partial: ids[40:44],
		Failed:  ids[44:],
		Score:   0.99, // model's own number is ignored
	})}

	jd, err := NewJudge(client, nil).Judge(context.Background(), minimalPlan(), "scenario")
	require.NoError(t, err)
	assert.InDelta(t, (40+0.5*4)/50.0, jd.Score, 1e-9)
	assert.Len(t, jd.Passed, 40)
	assert.Len(t, jd.Partial, 4)
	assert.Len(t, jd.Failed, 6)
}

func TestJudge_EveryAssertionJudgedExactlyOnce(t *testing.T) {
	// Model mentions only a handful; the rest must come back failed.
	client := &stubClient{text: verdictText(t, verdict{
		Passed:  []string{"A1", "C1"},
		Partial: []string{"U3"},
	})}

	jd, err := NewJudge(client, nil).Judge(context.Background(), minimalPlan(), "scenario")
	require.NoError(t, err)
	assert.Equal(t, RubricSize, len(jd.Passed)+len(jd.Partial)+len(jd.Failed))
	assert.Len(t, jd.Failed, RubricSize-3)
}

func TestJudge_UnknownAssertionIDsDropped(t *testing.T) {
	client := &stubClient{text: verdictText(t, verdict{
		Passed: []string{"A1", "Z99", "TOTALLY_MADE_UP"},
	})}

	jd, err := NewJudge(client, nil).Judge(context.Background(), minimalPlan(), "scenario")
	require.NoError(t, err)
	assert.Equal(t, []string{"A1"}, jd.Passed)
	assert.NotContains(t, jd.Failed, "Z99")
}

func TestJudge_DuplicateVerdictsFavorStronger(t *testing.T) {
	client := &stubClient{text: verdictText(t, verdict{
		Passed: []string{"A1"},
		Failed: []string{"A1"},
	})}

	jd, err := NewJudge(client, nil).Judge(context.Background(), minimalPlan(), "scenario")
	require.NoError(t, err)
	assert.Contains(t, jd.Passed, "A1")
	assert.NotContains(t, jd.Failed, "A1")
}

func TestJudge_UnparseableVerdictScoresZero(t *testing.T) {
	client := &stubClient{text: "The plan is quite good overall, I'd say 8/10."}

	jd, err := NewJudge(client, nil).Judge(context.Background(), minimalPlan(), "scenario")
	require.NoError(t, err)
	assert.Equal(t, 0.0, jd.Score)
	assert.Empty(t, jd.Passed)
	assert.Len(t, jd.Failed, RubricSize)
	assert.Contains(t, jd.Feedback, "error")
}

func TestJudge_ClientFailureIsAnError(t *testing.T) {
	client := &stubClient{err: llm.ErrTransport}

	_, err := NewJudge(client, nil).Judge(context.Background(), minimalPlan(), "scenario")
	assert.ErrorIs(t, err, ErrJudgeUnavailable)
}

func TestJudge_ArithmeticScoreInVerdictParses(t *testing.T) {
	// Models sometimes emit score expressions; extraction resolves them,
	// then the result is discarded in favor of the recomputed score.
	client := &stubClient{text: `{"passed": ["A1"], "partial": [], "failed": [], "score": 9 - (10 - 7)}`}

	jd, err := NewJudge(client, nil).Judge(context.Background(), minimalPlan(), "scenario")
	require.NoError(t, err)
	assert.InDelta(t, 1.0/50.0, jd.Score, 1e-9)
}

func TestJudge_FeedbackFilteredToKnownIDs(t *testing.T) {
	client := &stubClient{text: verdictText(t, verdict{
		Partial:  []string{"C3"},
		Feedback: map[string]string{"C3": "only one milestone", "Z9": "bogus"},
	})}

	jd, err := NewJudge(client, nil).Judge(context.Background(), minimalPlan(), "scenario")
	require.NoError(t, err)
	assert.Equal(t, "only one milestone", jd.Feedback["C3"])
	assert.NotContains(t, jd.Feedback, "Z9")
}

func TestJudge_PromptCarriesScenarioRubricAndPlan(t *testing.T) {
	client := &stubClient{text: verdictText(t, verdict{})}
	j := NewJudge(client, nil)

	_, err := j.Judge(context.Background(), minimalPlan(), "the QBR scenario")
	require.NoError(t, err)

	require.Len(t, client.requests, 1)
	req := client.requests[0]
	assert.Equal(t, llm.TaskJudge, req.Task)
	assert.Contains(t, req.UserPrompt, "the QBR scenario")
	assert.Contains(t, req.UserPrompt, "A1: ")
	assert.Contains(t, req.UserPrompt, "E5: ")
	assert.Contains(t, req.UserPrompt, `"target_date": "2026-09-12"`)
}

func TestScore(t *testing.T) {
	assert.Equal(t, 0.0, Score(0, 0))
	assert.Equal(t, 1.0, Score(50, 0))
	assert.Equal(t, 0.5, Score(25, 0))
	assert.Equal(t, 0.01, Score(0, 1))
}

func TestAssertionText(t *testing.T) {
	assert.NotEmpty(t, AssertionText("A1"))
	assert.Equal(t, "X0", AssertionText("X0"))
}
