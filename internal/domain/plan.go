package domain

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the calendar-date format used throughout plans.
const DateLayout = "2006-01-02"

// Participant is a person referenced by milestones and tasks.
type Participant struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Milestone is a node in the workback dependency graph. DependsOn lists
// milestone IDs that must complete first.
type Milestone struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	DueDate   string   `json:"due_date"`
	OwnerID   string   `json:"owner_id"`
	DependsOn []string `json:"depends_on,omitempty"`
}

// Task is a unit of work belonging to exactly one milestone.
type Task struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	OwnerID     string `json:"owner_id"`
	MilestoneID string `json:"milestone_id"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
}

// Artifact is a deliverable produced by a task.
type Artifact struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	ProducedByTaskID string `json:"produced_by_task_id"`
}

// PlanMeta carries the plan-level goal and target.
type PlanMeta struct {
	Goal       string `json:"goal"`
	TargetDate string `json:"target_date"`
	Vertical   string `json:"vertical"`
}

// Plan is a structured workback plan: a directed acyclic milestone graph
// with owners, tasks, and optional artifacts. Plans are immutable value
// objects once emitted.
type Plan struct {
	Participants []Participant `json:"participants"`
	Milestones   []Milestone   `json:"milestones"`
	Tasks        []Task        `json:"tasks"`
	Artifacts    []Artifact    `json:"artifacts,omitempty"`
	Meta         PlanMeta      `json:"meta"`
}

// ParticipantByID returns the participant with the given id, if any.
func (p *Plan) ParticipantByID(id string) (Participant, bool) {
	for _, part := range p.Participants {
		if part.ID == id {
			return part, true
		}
	}
	return Participant{}, false
}

// MilestoneByID returns the milestone with the given id, if any.
func (p *Plan) MilestoneByID(id string) (Milestone, bool) {
	for _, m := range p.Milestones {
		if m.ID == id {
			return m, true
		}
	}
	return Milestone{}, false
}

// TopoSort returns milestone IDs in a topological order of the depends_on
// relation, or an error if the graph contains a cycle or a dangling edge.
func (p *Plan) TopoSort() ([]string, error) {
	indegree := make(map[string]int, len(p.Milestones))
	successors := make(map[string][]string, len(p.Milestones))
	for _, m := range p.Milestones {
		if _, dup := indegree[m.ID]; dup {
			return nil, fmt.Errorf("duplicate milestone id %q", m.ID)
		}
		indegree[m.ID] = 0
	}
	for _, m := range p.Milestones {
		for _, dep := range m.DependsOn {
			if _, ok := indegree[dep]; !ok {
				return nil, fmt.Errorf("milestone %q depends on unknown milestone %q", m.ID, dep)
			}
			successors[dep] = append(successors[dep], m.ID)
			indegree[m.ID]++
		}
	}

	queue := make([]string, 0, len(p.Milestones))
	for _, m := range p.Milestones {
		if indegree[m.ID] == 0 {
			queue = append(queue, m.ID)
		}
	}

	order := make([]string, 0, len(p.Milestones))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)
		for _, succ := range successors[id] {
			indegree[succ]--
			if indegree[succ] == 0 {
				queue = append(queue, succ)
			}
		}
	}

	if len(order) != len(p.Milestones) {
		return nil, fmt.Errorf("milestone dependency graph contains a cycle")
	}
	return order, nil
}

// Validate checks the plan invariants: unique participant ids, resolvable
// owner and milestone references, an acyclic dependency graph, and due
// dates that are non-decreasing along every dependency edge. All
// violations are reported, joined into one error.
//
// The plan generator deliberately does not call this; flawed plans flow
// through to the judge so the preference signal stays informative.
func (p *Plan) Validate() error {
	var errs []error

	seen := make(map[string]bool, len(p.Participants))
	for _, part := range p.Participants {
		if part.ID == "" {
			errs = append(errs, fmt.Errorf("participant with empty id"))
			continue
		}
		if seen[part.ID] {
			errs = append(errs, fmt.Errorf("duplicate participant id %q", part.ID))
		}
		seen[part.ID] = true
	}

	dues := make(map[string]time.Time, len(p.Milestones))
	for _, m := range p.Milestones {
		if _, ok := p.ParticipantByID(m.OwnerID); !ok {
			errs = append(errs, fmt.Errorf("milestone %q owner %q does not resolve to a participant", m.ID, m.OwnerID))
		}
		due, err := time.Parse(DateLayout, m.DueDate)
		if err != nil {
			errs = append(errs, fmt.Errorf("milestone %q has unparseable due date %q", m.ID, m.DueDate))
			continue
		}
		dues[m.ID] = due
	}

	if _, err := p.TopoSort(); err != nil {
		errs = append(errs, err)
	} else {
		for _, m := range p.Milestones {
			due, ok := dues[m.ID]
			if !ok {
				continue
			}
			for _, dep := range m.DependsOn {
				depDue, ok := dues[dep]
				if !ok {
					continue
				}
				if depDue.After(due) {
					errs = append(errs, fmt.Errorf("milestone %q due %s precedes its dependency %q due %s",
						m.ID, m.DueDate, dep, depDue.Format(DateLayout)))
				}
			}
		}
	}

	for _, t := range p.Tasks {
		if _, ok := p.ParticipantByID(t.OwnerID); !ok {
			errs = append(errs, fmt.Errorf("task %q owner %q does not resolve to a participant", t.ID, t.OwnerID))
		}
		if _, ok := p.MilestoneByID(t.MilestoneID); !ok {
			errs = append(errs, fmt.Errorf("task %q references unknown milestone %q", t.ID, t.MilestoneID))
		}
		if t.StartDate != "" && t.EndDate != "" {
			start, err1 := time.Parse(DateLayout, t.StartDate)
			end, err2 := time.Parse(DateLayout, t.EndDate)
			if err1 == nil && err2 == nil && start.After(end) {
				errs = append(errs, fmt.Errorf("task %q starts %s after it ends %s", t.ID, t.StartDate, t.EndDate))
			}
		}
	}

	return errors.Join(errs...)
}
