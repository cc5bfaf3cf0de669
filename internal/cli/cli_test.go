package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielcrane/workback/internal/calendar"
	"github.com/danielcrane/workback/internal/domain"
	"github.com/danielcrane/workback/internal/judge"
	"github.com/danielcrane/workback/internal/llm"
	"github.com/danielcrane/workback/internal/pairs"
	"github.com/danielcrane/workback/internal/planner"
	"github.com/danielcrane/workback/internal/rules"
)

const stubPlanText = `{
  "participants": [{"id": "p1", "name": "Dana"}],
  "milestones": [{"id": "m1", "title": "Draft", "due_date": "2026-09-01", "owner_id": "p1"}],
  "tasks": [],
  "meta": {"goal": "QBR", "target_date": "2026-09-12", "vertical": "retail"}
}`

type stubClient struct{}

func (stubClient) Query(ctx context.Context, req llm.Request) (*llm.Response, error) {
	switch req.Task {
	case llm.TaskAnalysis:
		return &llm.Response{Text: "analysis of the brief"}, nil
	case llm.TaskStructure:
		return &llm.Response{Text: stubPlanText}, nil
	case llm.TaskJudge:
		v := map[string]any{"passed": judge.AllAssertionIDs(), "partial": []string{}, "failed": []string{}}
		data, _ := json.Marshal(v)
		return &llm.Response{Text: string(data)}, nil
	case llm.TaskCalendar:
		return &llm.Response{Text: `[{"subject": "Team sync", "start": {"dateTime": "2026-09-07T09:00:00", "timeZone": "UTC"}, "end": {"dateTime": "2026-09-07T10:00:00", "timeZone": "UTC"}, "type": "singleInstance", "attendees": []}]`}, nil
	}
	return &llm.Response{Text: "[]"}, nil
}

func testApp() *App {
	client := stubClient{}
	gen := planner.NewGenerator(client, nil)
	j := judge.NewJudge(client, nil)
	engine := rules.NewEngine([]string{"acme.com"})
	return &App{
		Planner:  gen,
		Judge:    j,
		Calendar: calendar.NewGenerator(client, engine, nil, 0),
		Rules:    engine,
		NewPairs: func(cfg pairs.Config) *pairs.Builder {
			return pairs.NewBuilder(gen, j, nil, cfg)
		},
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(testApp())
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestPlanCmd_WritesPlanJSON(t *testing.T) {
	dir := t.TempDir()
	briefPath := filepath.Join(dir, "brief.txt")
	require.NoError(t, os.WriteFile(briefPath, []byte("Prepare the QBR"), 0o644))
	outPath := filepath.Join(dir, "plan.json")

	_, err := execute(t, "plan", "--brief", briefPath, "--output", outPath)
	require.NoError(t, err)

	var plan domain.Plan
	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &plan))
	assert.Equal(t, "m1", plan.Milestones[0].ID)
}

func TestPlanCmd_AnalysisOnlyPrintsText(t *testing.T) {
	dir := t.TempDir()
	briefPath := filepath.Join(dir, "brief.txt")
	require.NoError(t, os.WriteFile(briefPath, []byte("Prepare the QBR"), 0o644))

	out, err := execute(t, "plan", "--brief", briefPath, "--analysis-only")
	require.NoError(t, err)
	assert.Contains(t, out, "analysis of the brief")
}

func TestPlanCmd_MissingBriefFlag(t *testing.T) {
	_, err := execute(t, "plan")
	assert.Error(t, err)
}

func TestPlanCmd_EmptyBriefFile(t *testing.T) {
	dir := t.TempDir()
	briefPath := filepath.Join(dir, "brief.txt")
	require.NoError(t, os.WriteFile(briefPath, []byte("  \n"), 0o644))

	_, err := execute(t, "plan", "--brief", briefPath)
	assert.Error(t, err)
}

func TestJudgeCmd_PrintsJudgment(t *testing.T) {
	dir := t.TempDir()
	planPath := filepath.Join(dir, "plan.json")
	require.NoError(t, os.WriteFile(planPath, []byte(stubPlanText), 0o644))
	briefPath := filepath.Join(dir, "brief.txt")
	require.NoError(t, os.WriteFile(briefPath, []byte("Prepare the QBR"), 0o644))

	out, err := execute(t, "judge", "--plan", planPath, "--brief", briefPath)
	require.NoError(t, err)

	assert.Contains(t, out, `"score": 1`)
}

func TestLabelCmd_LabelsMeetings(t *testing.T) {
	dir := t.TempDir()

	personaPath := filepath.Join(dir, "persona.json")
	require.NoError(t, os.WriteFile(personaPath, []byte(`{
		"id": "exec_01", "tier": 1,
		"meeting_context": {"weekly_meeting_hours": "10"},
		"importance_criteria": {"always_important": ["board"], "usually_important": [], "sometimes_important": [], "rarely_important": []},
		"prep_time_needs": {"requires_prep": ["board"]}
	}`), 0o644))

	meetingsPath := filepath.Join(dir, "meetings.json")
	require.NoError(t, os.WriteFile(meetingsPath, []byte(`[
		{"id": "e1", "subject": "Board review", "start": {"dateTime": "2026-09-07T09:00:00", "timeZone": "UTC"}, "end": {"dateTime": "2026-09-07T10:00:00", "timeZone": "UTC"}, "type": "singleInstance", "attendees": []}
	]`), 0o644))

	outPath := filepath.Join(dir, "labeled.json")
	_, err := execute(t, "label", "--persona", personaPath, "--meetings", meetingsPath, "--output", outPath)
	require.NoError(t, err)

	var labeled []domain.LabeledMeeting
	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &labeled))
	require.Len(t, labeled, 1)
	assert.Equal(t, domain.ImportanceCritical, labeled[0].ImportanceLabel)
	assert.Equal(t, 60, labeled[0].PrepTimeMinutes)
}

func TestPairsCmd_FlatScoresReportGatingFailures(t *testing.T) {
	// The stub judge passes everything, so every candidate scores 1.0 and
	// the gap gate rejects; the command still exits zero with a summary.
	dir := t.TempDir()
	scenariosPath := filepath.Join(dir, "scenarios.yaml")
	require.NoError(t, os.WriteFile(scenariosPath, []byte("- id: qbr\n  brief: Prepare the QBR\n"), 0o644))
	outDir := filepath.Join(dir, "out")

	out, err := execute(t, "pairs",
		"--scenarios", scenariosPath,
		"--output-dir", outDir,
		"--temperatures", "0.8,1.8")
	require.NoError(t, err)
	assert.Contains(t, out, "0 produced")
	assert.Contains(t, out, "failed qbr_pair")

	stats, err := filepath.Glob(filepath.Join(outDir, "statistics_*.json"))
	require.NoError(t, err)
	assert.Len(t, stats, 1)
}

func TestCalendarCmd_GeneratesUnitFiles(t *testing.T) {
	dir := t.TempDir()
	personaPath := filepath.Join(dir, "persona.json")
	require.NoError(t, os.WriteFile(personaPath, []byte(`{
		"id": "exec_01", "tier": 1,
		"meeting_context": {"weekly_meeting_hours": "1"},
		"importance_criteria": {"always_important": [], "usually_important": [], "sometimes_important": [], "rarely_important": []},
		"prep_time_needs": {"requires_prep": []}
	}`), 0o644))
	outDir := filepath.Join(dir, "out")

	out, err := execute(t, "calendar",
		"--persona", personaPath,
		"--weeks", "1",
		"--start-date", "2026-09-07",
		"--output-dir", outDir)
	require.NoError(t, err)
	assert.Contains(t, out, "1 produced")

	_, statErr := os.Stat(filepath.Join(outDir, "exec_01_calendar.json"))
	assert.NoError(t, statErr)
}

func TestRunsCmd_NoCatalog(t *testing.T) {
	_, err := execute(t, "runs")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog")
}

func TestRootCmd_UnknownCommand(t *testing.T) {
	_, err := execute(t, "frobnicate")
	assert.Error(t, err)
}
