package orchestrator

import (
	"fmt"
	"strings"

	"github.com/blacksmith-cli/blacksmith/pkg/models"
)

func step(name, model, prompt, kind string) models.Step {
	return models.Step{Name: name, Model: model, Prompt: prompt, Kind: kind, Department: "engineering"}
}

// PlanSteps returns the hand-authored pipeline for a command, or nil when
// the command has no multi-step workflow.
func PlanSteps(command, task string, c models.Classification) []models.Step {
	switch command {
	case "refactor":
		checkpoint := step("Checkpoint: review plan", "claude-code", fmt.Sprintf("Confirm the refactor plan is safe for: %s", task), "checkpoint")
		checkpoint.Checkpoint = true
		execute := step("Execute refactor", "claude-code", fmt.Sprintf("Execute the refactor for: %s", task), "execute")
		execute.Destructive = true
		research := step("Research best practices", "gemini-2.5-pro", fmt.Sprintf("Research best practices for: %s", task), "research")
		research.Department = "research"
		return []models.Step{
			research,
			step("Analyze current code", "ollama-deepseek-r1", fmt.Sprintf("Analyze current code paths for: %s", task), "analysis"),
			step("Generate refactor plan", "claude-code", fmt.Sprintf("Generate a step-by-step refactor plan for: %s", task), "plan"),
			checkpoint,
			execute,
			step("Run tests", "ollama-qwen2.5-coder", fmt.Sprintf("Generate and validate tests for: %s", task), "tests"),
			step("Final review", "gemini-2.5-pro", fmt.Sprintf("Review the completed refactor for: %s", task), "review"),
		}

	case "build":
		if c.Complexity != models.ComplexityHigh {
			return nil
		}
		checkpoint := step("Checkpoint: review plan", "claude-code", fmt.Sprintf("Confirm the implementation plan for: %s", task), "checkpoint")
		checkpoint.Checkpoint = true
		execute := step("Execute build", "claude-code", fmt.Sprintf("Execute the implementation for: %s", task), "execute")
		execute.Destructive = true
		return []models.Step{
			step("Plan implementation", "claude-code", fmt.Sprintf("Create an implementation plan for: %s", task), "plan"),
			checkpoint,
			execute,
			step("Generate tests", "ollama-qwen2.5-coder", fmt.Sprintf("Draft a test plan for: %s", task), "tests"),
			step("Review", "gemini-2.5-pro", fmt.Sprintf("Review the completed implementation for: %s", task), "review"),
		}

	case "review":
		return []models.Step{
			step("Spec compliance check", "gemini-2.5-flash", fmt.Sprintf("Check spec compliance for: %s. List deviations only.", task), "spec_check"),
			step("Quality review", "gemini-2.5-pro", fmt.Sprintf("Perform a thorough quality review for: %s", task), "quality_review"),
		}

	case "commit":
		confirm := models.Step{
			Name: "Checkpoint: confirm message", Model: "ollama-qwen2.5-coder",
			Prompt: fmt.Sprintf("Confirm commit message for: %s", task),
			Kind:   "checkpoint", Department: "operations", Checkpoint: true,
		}
		summary := step("Generate diff summary", "ollama-qwen2.5-coder", fmt.Sprintf("Summarize the staged diff for: %s", task), "summary")
		summary.Department = "operations"
		message := step("Generate commit message", "ollama-qwen2.5-coder", fmt.Sprintf("Generate a commit message for: %s", task), "message")
		message.Department = "operations"
		return []models.Step{summary, message, confirm}

	case "deploy":
		checkpoint := models.Step{
			Name: "Checkpoint: review plan", Model: "claude-code",
			Prompt: fmt.Sprintf("Confirm deployment plan for: %s", task),
			Kind:   "checkpoint", Department: "infrastructure", Checkpoint: true,
		}
		execute := models.Step{
			Name: "Execute deployment", Model: "claude-code",
			Prompt: fmt.Sprintf("Execute deployment for: %s", task),
			Kind:   "execute", Department: "infrastructure", Destructive: true,
		}
		checks := step("Pre-deploy checks", "gemini-2.5-flash", fmt.Sprintf("Run pre-deployment checks for: %s", task), "checks")
		checks.Department = "infrastructure"
		plan := step("Generate deploy plan", "claude-code", fmt.Sprintf("Create deployment plan for: %s", task), "plan")
		plan.Department = "infrastructure"
		return []models.Step{checks, plan, checkpoint, execute}
	}
	return nil
}

// IsMultiStep reports whether the command runs as a pipeline instead of a
// single primary invocation.
func IsMultiStep(command string, c models.Classification) bool {
	if c.Complexity != models.ComplexityHigh {
		return false
	}
	switch command {
	case "refactor", "build", "deploy":
		return true
	}
	return false
}

// PlanSubAgents produces the flat sub-agent roster used when a full
// pipeline is not warranted.
func PlanSubAgents(c models.Classification, task string) []models.SubAgentSpec {
	sub := func(name, department, model, prompt, kind string) models.SubAgentSpec {
		return models.SubAgentSpec{Name: name, Department: department, Model: model, Prompt: prompt, Kind: kind}
	}

	if c.TaskType == "refactor" {
		return []models.SubAgentSpec{
			sub("Research current approach", "research", "gemini-2.5-pro", fmt.Sprintf("Research best practices for: %s", task), "research"),
			sub("Analyze current code paths", "engineering", "ollama-deepseek-r1", fmt.Sprintf("Analyze current code paths for: %s", task), "analysis"),
			sub("Generate refactor plan", "engineering", "claude-code", fmt.Sprintf("Generate a step-by-step refactor plan for: %s", task), "plan"),
			sub("Generate tests", "engineering", "ollama-qwen2.5-coder", fmt.Sprintf("Generate tests for: %s", task), "tests"),
			sub("Security review", "engineering", "gemini-2.5-pro", fmt.Sprintf("Review the refactor plan for security risks: %s", task), "review"),
		}
	}

	if c.TaskType == "implementation" && c.Complexity == models.ComplexityHigh {
		return []models.SubAgentSpec{
			sub("Plan implementation", "engineering", "claude-code", fmt.Sprintf("Create an implementation plan for: %s", task), "plan"),
			sub("Generate tests", "engineering", "ollama-qwen2.5-coder", fmt.Sprintf("Draft a test plan for: %s", task), "tests"),
		}
	}
	return nil
}

// SummarizeStepResults folds step or sub-agent outputs into a markdown
// digest fed back to the primary model.
func SummarizeStepResults(results []models.StepResult) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		text := r.Text
		if len(text) > 400 {
			text = text[:400]
		}
		parts = append(parts, fmt.Sprintf("### %s\n- Model: %s\n- Outcome: %s", r.Name, r.Model, text))
	}
	return strings.Join(parts, "\n\n")
}
