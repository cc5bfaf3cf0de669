package rules

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielcrane/workback/internal/domain"
)

func testPersona() *domain.Persona {
	return &domain.Persona{
		ID:   "exec_01",
		Tier: 1,
		ImportanceCriteria: domain.ImportanceCriteria{
			AlwaysImportant:    []string{"board meeting", "CEO 1:1"},
			UsuallyImportant:   []string{"quarterly review", "customer escalation"},
			SometimesImportant: []string{"team sync"},
			RarelyImportant:    []string{"newsletter"},
		},
		PriorityFramework: []domain.PriorityArea{
			{Name: "Q4 launch", Keywords: []string{"launch", "go-to-market"}},
			{Name: "hiring", Keywords: []string{"interview"}},
		},
		PrepTimeNeeds: domain.PrepTimeNeeds{
			RequiresPrep: []string{"board meeting", "quarterly review"},
		},
	}
}

func testEngine() *Engine {
	e := NewEngine([]string{"@acme.com", "Corp.ACME.com"})
	e.now = func() time.Time { return time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC) }
	return e
}

func meeting(subject, body string, attendees ...domain.Attendee) domain.Meeting {
	return domain.Meeting{
		ID:          "evt-1",
		Subject:     subject,
		BodyPreview: body,
		Type:        domain.EventSingleInstance,
		Attendees:   attendees,
	}
}

func internal(addr string) domain.Attendee {
	return domain.Attendee{Type: domain.AttendeeRequired, EmailAddress: domain.EmailAddress{Address: addr}}
}

func TestLabel_AlwaysImportantIsCritical(t *testing.T) {
	got := testEngine().Label(meeting("Board Meeting prep", ""), testPersona())
	assert.Equal(t, domain.ImportanceCritical, got.ImportanceLabel)
	assert.Contains(t, got.Reasoning, `always-important rule "board meeting"`)
}

func TestLabel_CategoriesShortCircuit(t *testing.T) {
	// Matches both always and usually; always wins and usually is not consulted.
	got := testEngine().Label(meeting("Board meeting and quarterly review", ""), testPersona())
	assert.Equal(t, domain.ImportanceCritical, got.ImportanceLabel)
	assert.NotContains(t, got.Reasoning, "usually-important")
}

func TestLabel_UsuallyImportantIsHigh(t *testing.T) {
	got := testEngine().Label(meeting("Customer escalation: Initech", ""), testPersona())
	assert.Equal(t, domain.ImportanceHigh, got.ImportanceLabel)
}

func TestLabel_RarelyImportantIsLow(t *testing.T) {
	got := testEngine().Label(meeting("Monthly newsletter readout", ""), testPersona())
	assert.Equal(t, domain.ImportanceLow, got.ImportanceLabel)
}

func TestLabel_NoMatchDefaultsToMedium(t *testing.T) {
	got := testEngine().Label(meeting("Coffee chat", ""), testPersona())
	assert.Equal(t, domain.ImportanceMedium, got.ImportanceLabel)
	assert.False(t, got.PrepNeeded)
	assert.Equal(t, 0, got.PrepTimeMinutes)
	assert.Contains(t, got.Reasoning, "no persona rules matched")
}

func TestLabel_PriorityAreaPromotesOneLevel(t *testing.T) {
	// Team sync is medium; the launch keyword promotes it to high.
	got := testEngine().Label(meeting("Team sync on launch readiness", ""), testPersona())
	assert.Equal(t, domain.ImportanceHigh, got.ImportanceLabel)
	assert.Contains(t, got.Reasoning, `promoted by priority area "Q4 launch"`)
}

func TestLabel_PriorityAreaDoesNotPromoteCritical(t *testing.T) {
	got := testEngine().Label(meeting("Board meeting: launch decision", ""), testPersona())
	assert.Equal(t, domain.ImportanceCritical, got.ImportanceLabel)
	assert.Contains(t, got.Reasoning, `priority area "Q4 launch" matched`)
}

func TestLabel_OnlyFirstPriorityAreaApplies(t *testing.T) {
	got := testEngine().Label(meeting("Launch interview debrief", ""), testPersona())
	assert.NotContains(t, got.Reasoning, "hiring")
}

func TestLabel_PrepTimeScalesWithImportance(t *testing.T) {
	e := testEngine()
	p := testPersona()

	critical := e.Label(meeting("Board meeting", ""), p)
	assert.True(t, critical.PrepNeeded)
	assert.Equal(t, 60, critical.PrepTimeMinutes)

	high := e.Label(meeting("Quarterly review", ""), p)
	assert.True(t, high.PrepNeeded)
	assert.Equal(t, 45, high.PrepTimeMinutes)
}

func TestLabel_MatchingIsCaseInsensitiveAcrossSubjectAndBody(t *testing.T) {
	got := testEngine().Label(meeting("Thursday agenda", "Covers the BOARD MEETING materials"), testPersona())
	assert.Equal(t, domain.ImportanceCritical, got.ImportanceLabel)
}

func TestLabel_ExternalAttendeeForcesPrepOnHighImportance(t *testing.T) {
	m := meeting("Customer escalation call", "",
		internal("dana@acme.com"),
		domain.Attendee{Type: domain.AttendeeRequired, EmailAddress: domain.EmailAddress{Address: "client@initech.com"}},
	)
	got := testEngine().Label(m, testPersona())
	assert.Equal(t, domain.ImportanceHigh, got.ImportanceLabel)
	assert.True(t, got.PrepNeeded)
	assert.GreaterOrEqual(t, got.PrepTimeMinutes, 30)
	assert.Contains(t, got.Reasoning, "external attendees")
}

func TestLabel_ExternalAttendeeIgnoredOnMediumImportance(t *testing.T) {
	m := meeting("Coffee chat", "",
		domain.Attendee{Type: domain.AttendeeRequired, EmailAddress: domain.EmailAddress{Address: "friend@other.org"}},
	)
	got := testEngine().Label(m, testPersona())
	assert.False(t, got.PrepNeeded)
}

func TestLabel_ResourceAttendeesAreNotExternal(t *testing.T) {
	m := meeting("Board meeting", "",
		internal("dana@acme.com"),
		domain.Attendee{Type: domain.AttendeeResource, EmailAddress: domain.EmailAddress{Address: "room-4a@rooms.example.com"}},
	)
	got := testEngine().Label(m, testPersona())
	// Prep comes from the requires_prep rule, not the external floor.
	assert.NotContains(t, got.Reasoning, "external attendees")
}

func TestLabel_InternalDomainsNormalized(t *testing.T) {
	e := testEngine()
	// "Corp.ACME.com" was configured with mixed case; a lowercase address matches.
	m := meeting("Customer escalation", "", internal("lee@corp.acme.com"))
	got := e.Label(m, testPersona())
	assert.NotContains(t, got.Reasoning, "external attendees")
}

func TestLabel_ReasoningAndMetadataAlwaysSet(t *testing.T) {
	e := testEngine()
	got := e.Label(meeting("Coffee chat", ""), testPersona())
	require.NotEmpty(t, got.Reasoning)
	assert.Equal(t, "exec_01", got.PersonaID)
	assert.Equal(t, time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC), got.LabeledAt)
}

func TestLabel_ReasonsAccumulateAcrossCategories(t *testing.T) {
	m := meeting("Board meeting on launch", "", internal("dana@acme.com"),
		domain.Attendee{Type: domain.AttendeeRequired, EmailAddress: domain.EmailAddress{Address: "vc@fund.com"}})
	got := testEngine().Label(m, testPersona())
	parts := strings.Split(got.Reasoning, "; ")
	assert.GreaterOrEqual(t, len(parts), 3)
}
