package orchestrator

import (
	"errors"
	"fmt"
	"math"

	"github.com/blacksmith-cli/blacksmith/internal/registry"
	"github.com/blacksmith-cli/blacksmith/pkg/models"
)

// ErrBudgetExceeded marks an estimate above the configured cost hard stop.
var ErrBudgetExceeded = errors.New("estimated cost exceeds configured hard stop")

// CostEstimator projects token usage and dollar cost from registry pricing.
type CostEstimator struct {
	registry *registry.Registry
}

// NewCostEstimator creates a CostEstimator over the model registry.
func NewCostEstimator(r *registry.Registry) *CostEstimator {
	return &CostEstimator{registry: r}
}

// ExpectedCompletionTokens predicts output length from the classification.
func ExpectedCompletionTokens(c models.Classification) int {
	switch {
	case c.TaskType == "commit_message":
		return 80
	case c.TaskType == "raw_query":
		return 120
	case c.Complexity == models.ComplexityHigh:
		return 3000
	case c.Complexity == models.ComplexityMedium:
		return 1000
	default:
		return 200
	}
}

func promptTokens(prompt string) int {
	if prompt == "" {
		return 0
	}
	return (len(prompt) + 3) / 4
}

// Estimate projects the cost of running prompt on modelID. Models missing
// from the registry (or without pricing) estimate to zero cost; the token
// counts are still filled in.
func (e *CostEstimator) Estimate(modelID, prompt string, c models.Classification) (models.CostEstimate, error) {
	resolved := registry.ResolveModelID(modelID)
	entry, err := e.registry.ModelEntry(resolved)
	if err != nil {
		return models.CostEstimate{}, err
	}

	estimate := models.CostEstimate{
		PromptTokens:     promptTokens(prompt),
		CompletionTokens: ExpectedCompletionTokens(c),
	}
	if entry == nil || entry.Cost == nil {
		return estimate, nil
	}

	input := entry.Cost.InputPer1M * float64(estimate.PromptTokens) / 1_000_000
	output := entry.Cost.OutputPer1M * float64(estimate.CompletionTokens) / 1_000_000
	estimate.EstimatedCost = math.Round((input+output)*1e6) / 1e6
	return estimate, nil
}

// EnforceHardStop rejects estimates above the hard stop. Dry runs and
// forced runs pass.
func EnforceHardStop(estimate models.CostEstimate, hardStop float64, dryRun, force bool) error {
	if dryRun || force {
		return nil
	}
	if estimate.EstimatedCost > hardStop {
		return fmt.Errorf("%w: $%.4f > $%.2f, re-run with --force to continue",
			ErrBudgetExceeded, estimate.EstimatedCost, hardStop)
	}
	return nil
}
