// Package specialist defines the AI personas the router can hand a turn to.
// Definitions live in an embedded YAML file so prompt edits never touch code.
package specialist

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Well-known specialist ids.
const (
	Orchestrator = "orchestrator"
	Nutritionist = "nutritionist"
	SleepExpert  = "sleep_expert"
	FitnessCoach = "fitness_coach"
)

//go:embed specialists.yaml
var specialistsYAML []byte

// Specialist is one named persona with its own system prompt.
type Specialist struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name"`
	SystemPrompt string   `yaml:"system_prompt"`
	Tools        []string `yaml:"tools"`
}

// Set holds the loaded personas.
type Set struct {
	byID map[string]Specialist
}

// Load parses the embedded persona definitions. Fails when the default
// orchestrator persona is missing, since every turn must be routable.
func Load() (*Set, error) {
	var doc struct {
		Specialists []Specialist `yaml:"specialists"`
	}
	if err := yaml.Unmarshal(specialistsYAML, &doc); err != nil {
		return nil, fmt.Errorf("parse specialists: %w", err)
	}
	set := &Set{byID: make(map[string]Specialist, len(doc.Specialists))}
	for _, spec := range doc.Specialists {
		if spec.ID == "" {
			return nil, fmt.Errorf("specialist without id")
		}
		if _, dup := set.byID[spec.ID]; dup {
			return nil, fmt.Errorf("duplicate specialist id: %s", spec.ID)
		}
		set.byID[spec.ID] = spec
	}
	if _, ok := set.byID[Orchestrator]; !ok {
		return nil, fmt.Errorf("missing default specialist %q", Orchestrator)
	}
	return set, nil
}

// Get returns the persona for id.
func (s *Set) Get(id string) (Specialist, bool) {
	spec, ok := s.byID[id]
	return spec, ok
}

// GetOrDefault returns the persona for id, falling back to the orchestrator.
func (s *Set) GetOrDefault(id string) Specialist {
	if spec, ok := s.byID[id]; ok {
		return spec
	}
	return s.byID[Orchestrator]
}

// IDs returns all loaded persona ids.
func (s *Set) IDs() []string {
	ids := make([]string, 0, len(s.byID))
	for id := range s.byID {
		ids = append(ids, id)
	}
	return ids
}
