package calendar

const generateSystemPrompt = `You generate realistic corporate calendar data as JSON.

Output ONLY a JSON array of calendar events in this exact shape:

[
  {
    "id": "evt-001",
    "subject": "Weekly Team Sync",
    "bodyPreview": "Status updates and blockers",
    "start": {"dateTime": "2025-01-06T09:00:00", "timeZone": "Pacific Standard Time"},
    "end": {"dateTime": "2025-01-06T10:00:00", "timeZone": "Pacific Standard Time"},
    "type": "occurrence",
    "organizer": {"emailAddress": {"name": "Jane Doe", "address": "jane@company.com"}},
    "attendees": [
      {"type": "required", "emailAddress": {"name": "John Roe", "address": "john@company.com"}}
    ],
    "showAs": "busy",
    "responseStatus": {"response": "accepted"}
  }
]

Rules:
- 30-40% of events have "type": "occurrence" (weekly recurring: 1:1s, team syncs, staff meetings); the rest are "singleInstance"
- recurring events repeat on the same weekday at the same time every week in the range
- every event starts at or after 08:00 and ends by 18:00 local time, unless the subject names an explicit emergency or escalation
- events must not overlap each other
- start is always strictly before end; most meetings run 30 or 60 minutes
- vary subjects and attendees realistically for the persona described
- no markdown fences, no text outside the JSON array`

const generateUserTemplate = `Persona:
%s

Generate exactly %d meetings between %s and %s (inclusive).
%s`
