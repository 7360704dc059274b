package orchestrator

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/blacksmith-cli/blacksmith/internal/registry"
	"github.com/blacksmith-cli/blacksmith/pkg/models"
)

const testRegistryYAML = `models:
  gemini-2.0-pro:
    provider: google
    cost:
      input_per_1m: 1.25
      output_per_1m: 5.0
  ollama-qwen2.5-coder:
    provider: ollama
    cost:
      input_per_1m: 0
      output_per_1m: 0
  gemini-2.0-flash:
    provider: google
`

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mcr.yaml")
	if err := os.WriteFile(path, []byte(testRegistryYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	return registry.New(path)
}

func TestExpectedCompletionTokens(t *testing.T) {
	tests := []struct {
		taskType   string
		complexity models.Complexity
		want       int
	}{
		{"commit_message", models.ComplexityHigh, 80},
		{"raw_query", models.ComplexityLow, 120},
		{"implementation", models.ComplexityHigh, 3000},
		{"debugging", models.ComplexityMedium, 1000},
		{"raw", models.ComplexityLow, 200},
	}
	for _, tt := range tests {
		got := ExpectedCompletionTokens(models.Classification{TaskType: tt.taskType, Complexity: tt.complexity})
		if got != tt.want {
			t.Errorf("ExpectedCompletionTokens(%s, %s) = %d, want %d", tt.taskType, tt.complexity, got, tt.want)
		}
	}
}

func TestEstimatePricedModel(t *testing.T) {
	e := NewCostEstimator(testRegistry(t))
	c := models.Classification{TaskType: "implementation", Complexity: models.ComplexityHigh}

	est, err := e.Estimate("gemini-2.0-pro", strings.Repeat("x", 400), c)
	if err != nil {
		t.Fatal(err)
	}
	if est.PromptTokens != 100 {
		t.Errorf("prompt tokens = %d, want 100", est.PromptTokens)
	}
	if est.CompletionTokens != 3000 {
		t.Errorf("completion tokens = %d, want 3000", est.CompletionTokens)
	}
	// 100*1.25/1M + 3000*5/1M = 0.000125 + 0.015
	if est.EstimatedCost != 0.015125 {
		t.Errorf("cost = %v, want 0.015125", est.EstimatedCost)
	}
}

func TestEstimateMonotonicInPromptLength(t *testing.T) {
	e := NewCostEstimator(testRegistry(t))
	c := models.Classification{Complexity: models.ComplexityMedium}

	prev := -1.0
	for _, n := range []int{10, 1000, 100000} {
		est, err := e.Estimate("gemini-2.0-pro", strings.Repeat("a", n), c)
		if err != nil {
			t.Fatal(err)
		}
		if est.EstimatedCost < 0 {
			t.Fatalf("negative cost for %d chars", n)
		}
		if est.EstimatedCost <= prev {
			t.Fatalf("cost not increasing: %v after %v", est.EstimatedCost, prev)
		}
		prev = est.EstimatedCost
	}
}

func TestEstimateUnpricedAndUnknownModels(t *testing.T) {
	e := NewCostEstimator(testRegistry(t))
	c := models.Classification{Complexity: models.ComplexityLow}

	for _, model := range []string{"gemini-2.0-flash", "ollama-qwen2.5-coder", "no-such-model"} {
		est, err := e.Estimate(model, "prompt text", c)
		if err != nil {
			t.Fatalf("%s: %v", model, err)
		}
		if est.EstimatedCost != 0 {
			t.Errorf("%s: cost = %v, want 0", model, est.EstimatedCost)
		}
		if est.PromptTokens == 0 || est.CompletionTokens == 0 {
			t.Errorf("%s: token counts must still be filled: %+v", model, est)
		}
	}
}

func TestEnforceHardStop(t *testing.T) {
	over := models.CostEstimate{EstimatedCost: 0.75}
	under := models.CostEstimate{EstimatedCost: 0.10}

	if err := EnforceHardStop(over, 0.5, false, false); !errors.Is(err, ErrBudgetExceeded) {
		t.Errorf("over budget: err = %v, want ErrBudgetExceeded", err)
	}
	if err := EnforceHardStop(under, 0.5, false, false); err != nil {
		t.Errorf("under budget: %v", err)
	}
	if err := EnforceHardStop(over, 0.5, true, false); err != nil {
		t.Errorf("dry run must pass: %v", err)
	}
	if err := EnforceHardStop(over, 0.5, false, true); err != nil {
		t.Errorf("force must pass: %v", err)
	}
}
