package orchestrator

import (
	"github.com/blacksmith-cli/blacksmith/pkg/models"
)

// DryRunPayload is the structured plan returned instead of executing.
// Tier 1 payloads carry only the routing fields; the full plan (spec,
// notebooks, pipeline) appears exclusively for Tier 2.
type DryRunPayload struct {
	Tier          models.Tier           `json:"tier"`
	Passthrough   bool                  `json:"passthrough"`
	Backend       string                `json:"backend"`
	Model         string                `json:"model"`
	EstimatedCost float64               `json:"estimated_cost"`
	Department    string                `json:"department"`

	Classification *models.Classification `json:"classification,omitempty"`
	BrainNotebooks []string               `json:"brain,omitempty"`
	Spec           *models.AgentSpec      `json:"spec,omitempty"`
	Worktree       *WorktreePlan          `json:"worktree,omitempty"`
	PipelineSteps  []string               `json:"pipeline_steps,omitempty"`
}

// WorktreePlan describes the worktree a real run would create.
type WorktreePlan struct {
	Branch string `json:"branch"`
	Path   string `json:"path"`
}

// tierOneDryRun builds the minimal payload. Spec and brain keys are never
// present for passthrough tasks.
func tierOneDryRun(c models.Classification, backendName, model string, cost models.CostEstimate) *DryRunPayload {
	return &DryRunPayload{
		Tier:          c.Tier,
		Passthrough:   c.Passthrough,
		Backend:       backendName,
		Model:         model,
		EstimatedCost: cost.EstimatedCost,
		Department:    c.Department,
	}
}

func tierTwoDryRun(c models.Classification, backendName, model string, cost models.CostEstimate,
	notebooks []string, spec *models.AgentSpec, steps []models.Step) *DryRunPayload {

	payload := tierOneDryRun(c, backendName, model, cost)
	classification := c
	payload.Classification = &classification
	payload.BrainNotebooks = notebooks
	payload.Spec = spec
	for _, s := range steps {
		payload.PipelineSteps = append(payload.PipelineSteps, s.Name)
	}
	return payload
}
