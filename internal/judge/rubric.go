package judge

import "strings"

// Assertion is one yes/partial/no criterion in the fixed rubric.
type Assertion struct {
	ID   string
	Text string
}

// Rubric is the fixed 50-assertion checklist every plan is scored
// against. The grouping (A accuracy, C completeness, R relevance,
// U usefulness, E exceptional) and size are part of the contract.
var Rubric = []Assertion{
	// Accuracy
	{"A1", "Every owner_id in milestones and tasks resolves to a listed participant"},
	{"A2", "Milestone due dates fall on or before the plan's target date"},
	{"A3", "The depends_on relation over milestones contains no cycles"},
	{"A4", "Due dates never decrease along any dependency chain"},
	{"A5", "Every task references exactly one existing milestone"},
	{"A6", "Task start dates do not come after their end dates"},
	{"A7", "Participant emails are well-formed and consistent with the organization named in the brief"},
	{"A8", "Dates use the YYYY-MM-DD calendar format and are real calendar dates"},
	{"A9", "The meta target_date matches the meeting date stated in the brief"},
	{"A10", "No milestone, task, or participant id is duplicated"},
	// Completeness
	{"C1", "Every participant named in the brief appears in the plan"},
	{"C2", "The plan covers preparation work for all artifacts the brief mentions"},
	{"C3", "At least one milestone lands strictly before the target date"},
	{"C4", "Each milestone has at least one supporting task"},
	{"C5", "Review or sign-off checkpoints appear before the final deliverable"},
	{"C6", "Data gathering or input collection is scheduled before synthesis work"},
	{"C7", "A final readiness or dry-run step exists near the target date"},
	{"C8", "Dependencies between workstreams are made explicit rather than implied"},
	{"C9", "Every deliverable named in the brief maps to an artifact or task"},
	{"C10", "Buffer time exists between the last substantive milestone and the target date"},
	{"C11", "Owners are distributed across participants rather than concentrated on one person"},
	{"C12", "The plan includes communication or status-update touchpoints"},
	{"C13", "External or cross-team inputs have their own milestones or tasks"},
	{"C14", "The plan states the goal in its meta section consistently with the brief"},
	{"C15", "No stage of the work implied by the brief is left without tasks"},
	// Relevance
	{"R1", "Milestones address the stated goal rather than generic project boilerplate"},
	{"R2", "Task titles are specific to the brief's subject matter"},
	{"R3", "The vertical or business context from the brief is reflected in the plan"},
	{"R4", "No milestone or task is unrelated to the brief"},
	{"R5", "The sequencing reflects the actual constraints stated in the brief"},
	{"R6", "Participant roles match how the brief describes them"},
	{"R7", "Artifacts correspond to outputs the meeting actually needs"},
	{"R8", "Effort is weighted toward the brief's stated priorities"},
	{"R9", "Timeline density is plausible for the window between now and the target date"},
	{"R10", "Constraints and exclusions stated in the brief are respected"},
	// Usefulness
	{"U1", "An owner could start executing from this plan without clarifying questions"},
	{"U2", "Milestone titles communicate outcomes, not activities"},
	{"U3", "Task granularity is actionable: days of work, not months"},
	{"U4", "Dependencies give a reader the critical path at a glance"},
	{"U5", "Dates give owners realistic lead time for their tasks"},
	{"U6", "The plan surfaces the riskiest handoffs explicitly"},
	{"U7", "Artifacts are named concretely enough to be recognized when produced"},
	{"U8", "The plan would survive one participant being unavailable for a week"},
	{"U9", "Progress against the plan is measurable milestone by milestone"},
	{"U10", "The plan avoids redundant or overlapping tasks"},
	// Exceptional
	{"E1", "The plan anticipates a failure mode the brief does not mention"},
	{"E2", "The decomposition reveals structure not obvious from the brief"},
	{"E3", "Milestone sequencing creates genuine schedule slack where risk is highest"},
	{"E4", "Ownership assignments exploit participants' stated strengths"},
	{"E5", "The plan would be reusable as a template for similar meetings"},
}

// RubricSize is the authoritative assertion count for score computation.
const RubricSize = 50

// assertionText maps assertion ids to their human-readable texts.
var assertionText = func() map[string]string {
	m := make(map[string]string, len(Rubric))
	for _, a := range Rubric {
		m[a.ID] = a.Text
	}
	return m
}()

// AssertionText returns the human text for an assertion id, or the id
// itself when unknown.
func AssertionText(id string) string {
	if t, ok := assertionText[id]; ok {
		return t
	}
	return id
}

// AllAssertionIDs returns the rubric ids in rubric order.
func AllAssertionIDs() []string {
	ids := make([]string, len(Rubric))
	for i, a := range Rubric {
		ids[i] = a.ID
	}
	return ids
}

// rubricPromptBlock renders the rubric as a numbered checklist for the
// judge prompt.
func rubricPromptBlock() string {
	var b strings.Builder
	for _, a := range Rubric {
		b.WriteString(a.ID)
		b.WriteString(": ")
		b.WriteString(a.Text)
		b.WriteString("\n")
	}
	return b.String()
}
