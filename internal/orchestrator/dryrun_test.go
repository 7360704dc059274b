package orchestrator

import (
	"encoding/json"
	"testing"

	"github.com/blacksmith-cli/blacksmith/pkg/models"
)

func TestTierOneDryRunOmitsPlanKeys(t *testing.T) {
	c := models.Classification{
		TaskType: "raw_query", Complexity: models.ComplexityLow,
		Department: "engineering", Tier: models.Tier1, Passthrough: true,
	}
	payload := tierOneDryRun(c, "ollama", "qwen2.5-coder:7b", models.CostEstimate{EstimatedCost: 0})

	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatal(err)
	}

	for _, forbidden := range []string{"spec", "brain", "classification", "worktree", "pipeline_steps"} {
		if _, ok := decoded[forbidden]; ok {
			t.Errorf("tier 1 dry-run payload must not carry %q: %s", forbidden, raw)
		}
	}
	if decoded["tier"] != float64(1) || decoded["passthrough"] != true {
		t.Errorf("routing fields wrong: %s", raw)
	}
	if decoded["model"] != "qwen2.5-coder:7b" || decoded["backend"] != "ollama" {
		t.Errorf("backend fields wrong: %s", raw)
	}
}

func TestTierTwoDryRunCarriesPlan(t *testing.T) {
	c := models.Classification{
		TaskType: "refactor", Complexity: models.ComplexityHigh,
		Department: "engineering", Tier: models.Tier2,
	}
	spec := &models.AgentSpec{Task: "refactor the config loader"}
	steps := []models.Step{{Name: "Research best practices"}, {Name: "Execute refactor"}}

	payload := tierTwoDryRun(c, "claude", "claude-code", models.CostEstimate{EstimatedCost: 0.02},
		[]string{"history-engineering"}, spec, steps)

	if payload.Classification == nil || payload.Classification.TaskType != "refactor" {
		t.Errorf("classification = %+v", payload.Classification)
	}
	if payload.Spec != spec {
		t.Error("spec not attached")
	}
	if len(payload.BrainNotebooks) != 1 || payload.BrainNotebooks[0] != "history-engineering" {
		t.Errorf("notebooks = %v", payload.BrainNotebooks)
	}
	wantSteps := []string{"Research best practices", "Execute refactor"}
	if len(payload.PipelineSteps) != 2 || payload.PipelineSteps[0] != wantSteps[0] || payload.PipelineSteps[1] != wantSteps[1] {
		t.Errorf("pipeline steps = %v, want %v", payload.PipelineSteps, wantSteps)
	}
	if payload.EstimatedCost != 0.02 {
		t.Errorf("cost = %v", payload.EstimatedCost)
	}
}
