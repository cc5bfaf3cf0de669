// Package scenario loads the pipeline's inputs: meeting briefs (single
// text files or YAML batches) and persona JSON files.
package scenario

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/danielcrane/workback/internal/domain"
)

// Scenario is one brief with optional hints.
type Scenario struct {
	ID          string   `yaml:"id" json:"id"`
	Brief       string   `yaml:"brief" json:"brief"`
	MeetingDate string   `yaml:"meeting_date,omitempty" json:"meeting_date,omitempty"`
	Attendees   []string `yaml:"attendees,omitempty" json:"attendees,omitempty"`
}

// Text renders the brief plus hints as the prompt-ready scenario text.
func (s Scenario) Text() string {
	var b strings.Builder
	b.WriteString(s.Brief)
	if s.MeetingDate != "" {
		fmt.Fprintf(&b, "\n\nTarget meeting date: %s", s.MeetingDate)
	}
	if len(s.Attendees) > 0 {
		fmt.Fprintf(&b, "\nAttendees: %s", strings.Join(s.Attendees, ", "))
	}
	return b.String()
}

// LoadScenarios reads scenarios from path. A .yaml/.yml file holds a list
// of scenarios; any other file is treated as a single UTF-8 brief whose
// id is the file's base name.
func LoadScenarios(path string) ([]Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenarios: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		var scenarios []Scenario
		if err := yaml.Unmarshal(data, &scenarios); err != nil {
			return nil, fmt.Errorf("parsing scenario file %s: %w", path, err)
		}
		for i, s := range scenarios {
			if s.ID == "" {
				return nil, fmt.Errorf("scenario %d in %s has no id", i, path)
			}
			if strings.TrimSpace(s.Brief) == "" {
				return nil, fmt.Errorf("scenario %q has an empty brief", s.ID)
			}
		}
		return scenarios, nil
	}

	brief := strings.TrimSpace(string(data))
	if brief == "" {
		return nil, fmt.Errorf("brief file %s is empty", path)
	}
	id := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return []Scenario{{ID: id, Brief: brief}}, nil
}

// LoadPersona reads and validates one persona JSON file.
func LoadPersona(path string) (*domain.Persona, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading persona: %w", err)
	}
	var p domain.Persona
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrPersonaInvalid, path, err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &p, nil
}

// LoadPersonas loads personas from a single file or every *.json file in
// a directory, optionally filtered by tier (0 keeps all). Results are
// ordered by persona id.
func LoadPersonas(path string, tier int) ([]*domain.Persona, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	var files []string
	if info.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("reading persona dir: %w", err)
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
				continue
			}
			files = append(files, filepath.Join(path, e.Name()))
		}
	} else {
		files = []string{path}
	}

	var personas []*domain.Persona
	for _, f := range files {
		p, err := LoadPersona(f)
		if err != nil {
			return nil, err
		}
		if tier != 0 && p.Tier != tier {
			continue
		}
		personas = append(personas, p)
	}
	sort.Slice(personas, func(i, j int) bool { return personas[i].ID < personas[j].ID })
	return personas, nil
}
