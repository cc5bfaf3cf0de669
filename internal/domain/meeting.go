package domain

import "time"

// Meeting event types, mirroring the Microsoft Graph event shape.
const (
	EventSingleInstance = "singleInstance"
	EventOccurrence     = "occurrence"
	EventException      = "exception"
	EventSeriesMaster   = "seriesMaster"
)

// Attendee types.
const (
	AttendeeRequired = "required"
	AttendeeOptional = "optional"
	AttendeeResource = "resource"
)

// Importance labels assigned by the persona rule engine.
const (
	ImportanceCritical = "critical"
	ImportanceHigh     = "high"
	ImportanceMedium   = "medium"
	ImportanceLow      = "low"
)

// DateTimeTimeZone is the Graph-shaped timestamp pair.
type DateTimeTimeZone struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

// Time parses the dateTime field. Graph emits local wall-clock times
// without an offset; the named zone is resolved when loadable, else UTC.
func (d DateTimeTimeZone) Time() (time.Time, error) {
	loc := time.UTC
	if d.TimeZone != "" {
		if l, err := time.LoadLocation(d.TimeZone); err == nil {
			loc = l
		}
	}
	for _, layout := range []string{"2006-01-02T15:04:05.0000000", "2006-01-02T15:04:05", time.RFC3339} {
		if t, err := time.ParseInLocation(layout, d.DateTime, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &time.ParseError{Layout: "2006-01-02T15:04:05", Value: d.DateTime}
}

// EmailAddress is a Graph-shaped name/address pair.
type EmailAddress struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address"`
}

// Attendee is a meeting attendee with a participation type.
type Attendee struct {
	Type         string       `json:"type"`
	EmailAddress EmailAddress `json:"emailAddress"`
}

// Recipient wraps an email address, Graph-style.
type Recipient struct {
	EmailAddress EmailAddress `json:"emailAddress"`
}

// ResponseStatus is the user's RSVP state for the event.
type ResponseStatus struct {
	Response string `json:"response,omitempty"`
	Time     string `json:"time,omitempty"`
}

// Meeting is a Microsoft-Graph-shaped calendar event. It is both the
// input to the persona rule engine and the output of the synthetic
// calendar generator.
type Meeting struct {
	ID             string           `json:"id"`
	Subject        string           `json:"subject"`
	BodyPreview    string           `json:"bodyPreview,omitempty"`
	Start          DateTimeTimeZone `json:"start"`
	End            DateTimeTimeZone `json:"end"`
	Type           string           `json:"type"`
	Organizer      Recipient        `json:"organizer"`
	Attendees      []Attendee       `json:"attendees"`
	ShowAs         string           `json:"showAs,omitempty"`
	ResponseStatus ResponseStatus   `json:"responseStatus,omitempty"`
}

// LabeledMeeting is a meeting augmented with the rule engine's labels.
type LabeledMeeting struct {
	Meeting

	ImportanceLabel string    `json:"importance_label"`
	PrepNeeded      bool      `json:"prep_needed"`
	PrepTimeMinutes int       `json:"prep_time_minutes"`
	Reasoning       string    `json:"reasoning"`
	PersonaID       string    `json:"persona_id"`
	LabeledAt       time.Time `json:"labeled_at"`
}
