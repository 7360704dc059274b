package orchestrator

import (
	"context"
	"regexp"
	"strings"

	"github.com/blacksmith-cli/blacksmith/internal/registry"
	"github.com/blacksmith-cli/blacksmith/pkg/models"
)

// escalationChain maps each model to its stronger successor. Terminal
// models are absent; the chain is a DAG by construction and must stay one.
var escalationChain = map[string]string{
	"ollama-qwen2.5-coder":  "gemini-2.0-flash",
	"ollama-deepseek-r1":    "o3-mini",
	"ollama-llama-3.3-70b":  "gemini-2.0-pro",
	"gemini-2.0-flash":      "gemini-2.0-pro",
	"gpt-4o-mini":           "gpt-4.5",
	"o3-mini":               "o3",
	"claude-3.5-haiku":      "claude-code",
	"codex-cli":             "claude-code",
	"gemini-2.0-pro":        "claude-code",
	"gpt-4.5":               "claude-code",
	"o3":                    "claude-code",
}

// minLengthThresholds is the shortest acceptable answer per complexity.
var minLengthThresholds = map[models.Complexity]int{
	models.ComplexityHigh:   600,
	models.ComplexityMedium: 200,
	models.ComplexityLow:    50,
}

var refusalPattern = regexp.MustCompile(`(?i)^(error|failed|sorry|i can't|unable to)`)

// EscalationTarget returns the next model up the chain, or empty for a
// terminal model.
func EscalationTarget(model string) string {
	return escalationChain[registry.ResolveModelID(model)]
}

// ShouldEscalate applies the length and refusal heuristics. Escalation is
// suppressed when auto-escalate is off or the user pinned a backend.
func ShouldEscalate(result *models.ExecutionResult, c models.Classification, autoEscalate bool, explicitBackend string) bool {
	if !autoEscalate || explicitBackend != "" {
		return false
	}

	text := strings.TrimSpace(result.Text)
	if text == "" {
		return true
	}
	if refusalPattern.MatchString(text) {
		return true
	}

	threshold, ok := minLengthThresholds[c.Complexity]
	if !ok {
		threshold = 50
	}
	return len(text) < threshold
}

// EscalationOutcome reports what Escalate did.
type EscalationOutcome struct {
	Escalated     bool
	Result        *models.ExecutionResult
	Model         string
	Backend       string
	PreviousModel string
}

// invokeFunc runs a model; the orchestrator supplies it so escalation
// reuses its runtime resolution and spinner decoration.
type invokeFunc func(ctx context.Context, model, prompt string) (*models.ExecutionResult, error)

// Escalate re-runs the task one step up the chain and tags the output with
// a provenance marker. A terminal model returns the original result with
// Escalated=false.
func Escalate(ctx context.Context, task string, current *models.ExecutionResult, currentModel string, invoke invokeFunc) (*EscalationOutcome, error) {
	next := EscalationTarget(currentModel)
	if next == "" {
		return &EscalationOutcome{Escalated: false, Result: current, Model: currentModel}, nil
	}

	prompt := task + "\n\nPrevious attempt was insufficient. Return a stronger answer."
	result, err := invoke(ctx, next, prompt)
	if err != nil {
		return nil, err
	}

	tagged := *result
	tagged.Text = result.Text + "\n\n[Escalated from " + currentModel + " to " + next + "]"
	return &EscalationOutcome{
		Escalated:     true,
		Result:        &tagged,
		Model:         next,
		Backend:       registry.BackendForModel(next),
		PreviousModel: currentModel,
	}, nil
}
