package scenario

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielcrane/workback/internal/domain"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const personaJSON = `{
  "id": "exec_01",
  "tier": 1,
  "meeting_context": {"weekly_meeting_hours": "20-25"},
  "importance_criteria": {
    "always_important": ["board meeting"],
    "usually_important": [],
    "sometimes_important": [],
    "rarely_important": []
  },
  "prep_time_needs": {"requires_prep": ["board meeting"]}
}`

func TestLoadScenarios_YAMLList(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "scenarios.yaml", `
- id: qbr_01
  brief: Prepare the quarterly business review
  meeting_date: "2026-09-12"
  attendees: [Dana, Lee]
- id: launch_02
  brief: Plan the launch readiness review
`)

	got, err := LoadScenarios(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "qbr_01", got[0].ID)
	assert.Equal(t, []string{"Dana", "Lee"}, got[0].Attendees)
}

func TestLoadScenarios_YAMLMissingID(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "scenarios.yaml", "- brief: no id here\n")

	_, err := LoadScenarios(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no id")
}

func TestLoadScenarios_YAMLEmptyBrief(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "scenarios.yaml", "- id: x\n  brief: \"  \"\n")

	_, err := LoadScenarios(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty brief")
}

func TestLoadScenarios_PlainTextBrief(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "offsite_brief.txt", "Plan the engineering offsite.\n")

	got, err := LoadScenarios(path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "offsite_brief", got[0].ID)
	assert.Equal(t, "Plan the engineering offsite.", got[0].Brief)
}

func TestLoadScenarios_EmptyTextFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "empty.txt", "   \n")

	_, err := LoadScenarios(path)
	assert.Error(t, err)
}

func TestScenario_Text(t *testing.T) {
	s := Scenario{Brief: "Plan the QBR", MeetingDate: "2026-09-12", Attendees: []string{"Dana", "Lee"}}
	text := s.Text()
	assert.Contains(t, text, "Plan the QBR")
	assert.Contains(t, text, "Target meeting date: 2026-09-12")
	assert.Contains(t, text, "Attendees: Dana, Lee")

	bare := Scenario{Brief: "Plan the QBR"}
	assert.Equal(t, "Plan the QBR", bare.Text())
}

func TestLoadPersona_Valid(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "exec_01.json", personaJSON)

	p, err := LoadPersona(path)
	require.NoError(t, err)
	assert.Equal(t, "exec_01", p.ID)
	assert.Equal(t, 1, p.Tier)
	assert.Equal(t, "20-25", p.MeetingContext.WeeklyMeetingHours)
}

func TestLoadPersona_MalformedJSON(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "bad.json", "{not json")

	_, err := LoadPersona(path)
	assert.ErrorIs(t, err, domain.ErrPersonaInvalid)
}

func TestLoadPersona_FailsValidation(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "tierless.json", `{"id": "x", "tier": 9}`)

	_, err := LoadPersona(path)
	assert.ErrorIs(t, err, domain.ErrPersonaInvalid)
}

func TestLoadPersonas_DirectorySortedAndFiltered(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.json", `{"id": "mgr_02", "tier": 2, "meeting_context": {"weekly_meeting_hours": "10"}, "importance_criteria": {"always_important": [], "usually_important": [], "sometimes_important": [], "rarely_important": []}, "prep_time_needs": {"requires_prep": []}}`)
	writeFile(t, dir, "a.json", personaJSON)
	writeFile(t, dir, "notes.txt", "ignored")

	all, err := LoadPersonas(dir, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "exec_01", all[0].ID)
	assert.Equal(t, "mgr_02", all[1].ID)

	tier2, err := LoadPersonas(dir, 2)
	require.NoError(t, err)
	require.Len(t, tier2, 1)
	assert.Equal(t, "mgr_02", tier2[0].ID)
}

func TestLoadPersonas_SingleFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "exec_01.json", personaJSON)

	got, err := LoadPersonas(path, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "exec_01", got[0].ID)
}

func TestLoadPersonas_MissingPath(t *testing.T) {
	_, err := LoadPersonas(filepath.Join(t.TempDir(), "nope"), 0)
	assert.Error(t, err)
}
