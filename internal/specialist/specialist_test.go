package specialist

import "testing"

func TestLoad(t *testing.T) {
	set, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	for _, id := range []string{Orchestrator, Nutritionist, SleepExpert, FitnessCoach} {
		spec, ok := set.Get(id)
		if !ok {
			t.Fatalf("missing specialist %s", id)
		}
		if spec.SystemPrompt == "" {
			t.Fatalf("specialist %s has no system prompt", id)
		}
	}
	if len(set.IDs()) != 4 {
		t.Fatalf("expected 4 specialists, got %d", len(set.IDs()))
	}
}

func TestGetOrDefault(t *testing.T) {
	set, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	spec := set.GetOrDefault("no_such_persona")
	if spec.ID != Orchestrator {
		t.Fatalf("expected orchestrator fallback, got %s", spec.ID)
	}
}
