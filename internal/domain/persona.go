package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrPersonaInvalid indicates a persona file that fails structural
// validation and cannot drive labeling.
var ErrPersonaInvalid = errors.New("invalid persona")

// MeetingContext describes a persona's calendar load.
type MeetingContext struct {
	WeeklyMeetingHours string            `json:"weekly_meeting_hours"`
	TypicalBreakdown   map[string]string `json:"typical_breakdown,omitempty"`
}

// ImportanceCriteria holds the persona's declarative importance rules.
// All entries are case-insensitive substrings matched against a meeting's
// subject and body preview.
type ImportanceCriteria struct {
	AlwaysImportant    []string `json:"always_important"`
	UsuallyImportant   []string `json:"usually_important"`
	SometimesImportant []string `json:"sometimes_important"`
	RarelyImportant    []string `json:"rarely_important"`
}

// PriorityArea is a named focus area whose keyword matches promote a
// meeting's importance one level.
type PriorityArea struct {
	Name     string   `json:"name"`
	Keywords []string `json:"keywords"`
}

// PrepTimeNeeds holds the persona's preparation-trigger rules.
type PrepTimeNeeds struct {
	RequiresPrep []string `json:"requires_prep"`
	OptionalPrep []string `json:"optional_prep,omitempty"`
}

// Persona is a declarative user profile with explicit importance,
// priority, and prep-time rules. The rule fields are the oracle for
// training labels; everything else is generation context.
type Persona struct {
	ID                 string             `json:"id"`
	Tier               int                `json:"tier"`
	Demographics       map[string]any     `json:"demographics,omitempty"`
	MeetingContext     MeetingContext     `json:"meeting_context"`
	ImportanceCriteria ImportanceCriteria `json:"importance_criteria"`
	PriorityFramework  []PriorityArea     `json:"priority_framework,omitempty"`
	RSVPRules          json.RawMessage    `json:"rsvp_rules,omitempty"`
	PrepTimeNeeds      PrepTimeNeeds      `json:"prep_time_needs"`
	WorkStyle          string             `json:"work_style,omitempty"`
	CareerStage        string             `json:"career_stage,omitempty"`
	StressLevel        string             `json:"stress_level,omitempty"`
}

// Validate checks the fields the pipeline depends on.
func (p *Persona) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("%w: missing id", ErrPersonaInvalid)
	}
	if p.Tier < 1 || p.Tier > 3 {
		return fmt.Errorf("%w: persona %q tier must be 1-3, got %d", ErrPersonaInvalid, p.ID, p.Tier)
	}
	return nil
}
