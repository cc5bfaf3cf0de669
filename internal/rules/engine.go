// Package rules applies a persona's declarative importance, priority, and
// prep-time rules to meeting records. The engine is the labeling oracle:
// deterministic given its inputs, so training labels stay reproducible
// and auditable.
package rules

import (
	"fmt"
	"strings"
	"time"

	"github.com/danielcrane/workback/internal/domain"
)

// Prep time in minutes by importance once a requires_prep rule fires.
const (
	prepCritical = 60
	prepHigh     = 45
	prepDefault  = 30

	// Floor applied when external attendees force preparation.
	prepExternalMin = 30
)

// Engine labels meetings for personas. internalDomains holds the email
// domains considered in-company for external-attendee detection.
type Engine struct {
	internalDomains map[string]bool
	now             func() time.Time
}

// NewEngine creates an Engine with the given internal email domains.
func NewEngine(internalDomains []string) *Engine {
	m := make(map[string]bool, len(internalDomains))
	for _, d := range internalDomains {
		m[strings.ToLower(strings.TrimPrefix(d, "@"))] = true
	}
	return &Engine{internalDomains: m, now: time.Now}
}

// Label applies the persona's rule base to one meeting. Matching runs
// over the lower-cased concatenation of subject and body preview,
// short-circuiting at the first match per category while accumulating
// reasons across categories.
func (e *Engine) Label(m domain.Meeting, p *domain.Persona) domain.LabeledMeeting {
	text := strings.ToLower(m.Subject + " " + m.BodyPreview)

	var reasons []string
	importance := domain.ImportanceMedium

	if pat, ok := matchAny(text, p.ImportanceCriteria.AlwaysImportant); ok {
		importance = domain.ImportanceCritical
		reasons = append(reasons, fmt.Sprintf("matches always-important rule %q", pat))
	} else if pat, ok := matchAny(text, p.ImportanceCriteria.UsuallyImportant); ok {
		importance = domain.ImportanceHigh
		reasons = append(reasons, fmt.Sprintf("matches usually-important rule %q", pat))
	} else if pat, ok := matchAny(text, p.ImportanceCriteria.SometimesImportant); ok {
		importance = domain.ImportanceMedium
		reasons = append(reasons, fmt.Sprintf("matches sometimes-important rule %q", pat))
	} else if pat, ok := matchAny(text, p.ImportanceCriteria.RarelyImportant); ok {
		importance = domain.ImportanceLow
		reasons = append(reasons, fmt.Sprintf("matches rarely-important rule %q", pat))
	}

	for _, area := range p.PriorityFramework {
		if pat, ok := matchAny(text, area.Keywords); ok {
			promoted := promote(importance)
			if promoted != importance {
				importance = promoted
				reasons = append(reasons, fmt.Sprintf("promoted by priority area %q (keyword %q)", area.Name, pat))
			} else {
				reasons = append(reasons, fmt.Sprintf("priority area %q matched (keyword %q)", area.Name, pat))
			}
			break
		}
	}

	prepNeeded := false
	prepMinutes := 0
	if pat, ok := matchAny(text, p.PrepTimeNeeds.RequiresPrep); ok {
		prepNeeded = true
		prepMinutes = prepTimeFor(importance)
		reasons = append(reasons, fmt.Sprintf("preparation required by rule %q", pat))
	}

	if e.hasExternalAttendee(m) &&
		(importance == domain.ImportanceCritical || importance == domain.ImportanceHigh) {
		prepNeeded = true
		if prepMinutes < prepExternalMin {
			prepMinutes = prepExternalMin
		}
		reasons = append(reasons, "external attendees on a high-importance meeting")
	}

	if len(reasons) == 0 {
		reasons = append(reasons, "no persona rules matched; defaulted to medium importance")
	}

	return domain.LabeledMeeting{
		Meeting:         m,
		ImportanceLabel: importance,
		PrepNeeded:      prepNeeded,
		PrepTimeMinutes: prepMinutes,
		Reasoning:       strings.Join(reasons, "; "),
		PersonaID:       p.ID,
		LabeledAt:       e.now().UTC(),
	}
}

// hasExternalAttendee reports whether any non-resource attendee's email
// domain is outside the configured internal set.
func (e *Engine) hasExternalAttendee(m domain.Meeting) bool {
	for _, a := range m.Attendees {
		if a.Type == domain.AttendeeResource {
			continue
		}
		addr := strings.ToLower(a.EmailAddress.Address)
		at := strings.LastIndexByte(addr, '@')
		if at < 0 {
			continue
		}
		if !e.internalDomains[addr[at+1:]] {
			return true
		}
	}
	return false
}

func matchAny(text string, patterns []string) (string, bool) {
	for _, pat := range patterns {
		if pat == "" {
			continue
		}
		if strings.Contains(text, strings.ToLower(pat)) {
			return pat, true
		}
	}
	return "", false
}

// promote raises importance one level: medium to high, low to medium.
// Critical and high are unchanged.
func promote(importance string) string {
	switch importance {
	case domain.ImportanceMedium:
		return domain.ImportanceHigh
	case domain.ImportanceLow:
		return domain.ImportanceMedium
	default:
		return importance
	}
}

func prepTimeFor(importance string) int {
	switch importance {
	case domain.ImportanceCritical:
		return prepCritical
	case domain.ImportanceHigh:
		return prepHigh
	default:
		return prepDefault
	}
}
