// Package calendar generates multi-week, temporally coherent synthetic
// calendars for personas and labels every meeting through the persona
// rule engine. Temporal properties are requested from the model, not
// enforced; downstream consumers treat them as testable, not guaranteed.
package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/danielcrane/workback/internal/domain"
	"github.com/danielcrane/workback/internal/llm"
	"github.com/danielcrane/workback/internal/rules"
)

const (
	// defaultWeeklyHours stands in when a persona's weekly hour range is
	// missing or malformed.
	defaultWeeklyHours = 20.0

	// Batching limits: larger batches truncate on smaller models.
	maxMeetingsPerBatch = 20
	maxWeeksPerBatch    = 2
)

// Generator produces labeled synthetic calendars.
type Generator struct {
	client     llm.Client
	engine     *rules.Engine
	observer   llm.Observer
	batchDelay time.Duration
}

// NewGenerator creates a Generator. batchDelay is slept between LLM
// batches; zero disables the pause (tests).
func NewGenerator(client llm.Client, engine *rules.Engine, observer llm.Observer, batchDelay time.Duration) *Generator {
	if observer == nil {
		observer = llm.NoopObserver{}
	}
	return &Generator{client: client, engine: engine, observer: observer, batchDelay: batchDelay}
}

// Generate produces a labeled calendar of the given length. Failed
// batches are dropped and generation continues; a partial calendar is an
// acceptable result. The returned slice is sorted ascending by start
// time.
func (g *Generator) Generate(ctx context.Context, persona *domain.Persona, weeks int, startDate time.Time) ([]domain.LabeledMeeting, error) {
	if weeks <= 0 {
		return nil, fmt.Errorf("weeks must be positive, got %d", weeks)
	}
	if startDate.IsZero() {
		startDate = nextMonday(time.Now())
	}

	hours, ok := ParseWeeklyHours(persona.MeetingContext.WeeklyMeetingHours)
	if !ok {
		g.observer.OnWarning("calendar", fmt.Sprintf(
			"persona %s: unparseable weekly hours %q, defaulting to %.0f",
			persona.ID, persona.MeetingContext.WeeklyMeetingHours, defaultWeeklyHours))
	}
	perWeek := int(hours) // 1-hour average meeting assumed

	personaJSON, err := json.MarshalIndent(persona, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serializing persona: %w", err)
	}

	var labeled []domain.LabeledMeeting
	first := true
	for _, b := range planBatches(perWeek, weeks, startDate) {
		if !first && g.batchDelay > 0 {
			select {
			case <-ctx.Done():
				return labeled, ctx.Err()
			case <-time.After(g.batchDelay):
			}
		}
		first = false

		meetings, err := g.generateBatch(ctx, string(personaJSON), b)
		if err != nil {
			g.observer.OnWarning("calendar", fmt.Sprintf(
				"persona %s: batch %s..%s dropped: %v",
				persona.ID, b.start.Format(domain.DateLayout), b.end.Format(domain.DateLayout), err))
			continue
		}
		for _, m := range meetings {
			if m.ID == "" {
				m.ID = uuid.NewString()
			}
			labeled = append(labeled, g.engine.Label(m, persona))
		}
	}

	sortByStart(labeled)
	return labeled, nil
}

type batch struct {
	start, end time.Time
	count      int
	carryNote  string
}

// planBatches slices the requested range into windows of at most two
// weeks and at most twenty meetings per LLM call.
func planBatches(perWeek, weeks int, startDate time.Time) []batch {
	var out []batch
	for week := 0; week < weeks; week += maxWeeksPerBatch {
		spanWeeks := maxWeeksPerBatch
		if weeks-week < spanWeeks {
			spanWeeks = weeks - week
		}
		windowStart := startDate.AddDate(0, 0, week*7)
		windowEnd := windowStart.AddDate(0, 0, spanWeeks*7-1)

		remaining := perWeek * spanWeeks
		for remaining > 0 {
			n := remaining
			if n > maxMeetingsPerBatch {
				n = maxMeetingsPerBatch
			}
			note := ""
			if remaining != perWeek*spanWeeks {
				note = "These meetings extend a window already partially generated; avoid overlapping earlier time slots."
			}
			out = append(out, batch{start: windowStart, end: windowEnd, count: n, carryNote: note})
			remaining -= n
		}
	}
	return out
}

func (g *Generator) generateBatch(ctx context.Context, personaJSON string, b batch) ([]domain.Meeting, error) {
	resp, err := g.client.Query(ctx, llm.Request{
		Task:         llm.TaskCalendar,
		SystemPrompt: generateSystemPrompt,
		UserPrompt: fmt.Sprintf(generateUserTemplate,
			personaJSON, b.count,
			b.start.Format(domain.DateLayout), b.end.Format(domain.DateLayout),
			b.carryNote),
	})
	if err != nil {
		return nil, err
	}

	meetings, err := llm.ExtractJSONArray[domain.Meeting](resp.Text)
	if err != nil {
		return nil, err
	}
	return meetings, nil
}

var hoursPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:-\s*(\d+(?:\.\d+)?))?`)

// ParseWeeklyHours parses forms like "20-25", "28-32 hours", or "15". A
// range yields its midpoint. The boolean is false when the input was
// missing or malformed and the default was used.
func ParseWeeklyHours(s string) (float64, bool) {
	m := hoursPattern.FindStringSubmatch(s)
	if m == nil || m[1] == "" {
		return defaultWeeklyHours, false
	}
	lo, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return defaultWeeklyHours, false
	}
	if m[2] == "" {
		return lo, true
	}
	hi, err := strconv.ParseFloat(m[2], 64)
	if err != nil || hi < lo {
		return defaultWeeklyHours, false
	}
	return (lo + hi) / 2, true
}

func sortByStart(ms []domain.LabeledMeeting) {
	sort.SliceStable(ms, func(i, j int) bool {
		ti, erri := ms[i].Start.Time()
		tj, errj := ms[j].Start.Time()
		if erri != nil || errj != nil {
			return ms[i].Start.DateTime < ms[j].Start.DateTime
		}
		return ti.Before(tj)
	})
}

// nextMonday returns the Monday on or after t, at midnight.
func nextMonday(t time.Time) time.Time {
	t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	for t.Weekday() != time.Monday {
		t = t.AddDate(0, 0, 1)
	}
	return t
}
