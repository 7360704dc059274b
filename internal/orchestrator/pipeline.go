package orchestrator

import (
	"context"
	"fmt"

	"github.com/blacksmith-cli/blacksmith/pkg/models"
)

// priorContextBudget is the character ceiling before prior step output is
// compressed.
const priorContextBudget = 4000

// stepInvokeFunc runs one pipeline step's prompt on its model.
type stepInvokeFunc func(ctx context.Context, step models.Step, prompt string) (*models.ExecutionResult, error)

// PipelineRunner executes planned steps strictly in order. Each step sees
// a compressed digest of everything run before it.
type PipelineRunner struct {
	confirmer Confirmer
	invoke    stepInvokeFunc
	// abortOnSkip stops the pipeline after a declined checkpoint instead
	// of running the remaining steps.
	abortOnSkip bool
}

// NewPipelineRunner creates a runner. invoke is supplied by the
// orchestrator so steps share its timeout and model resolution.
func NewPipelineRunner(confirmer Confirmer, invoke stepInvokeFunc, abortOnSkip bool) *PipelineRunner {
	return &PipelineRunner{confirmer: confirmer, invoke: invoke, abortOnSkip: abortOnSkip}
}

// Run executes the steps sequentially and returns one result per step
// reached. Backend failures become step text, never errors; only context
// cancellation aborts the pipeline.
func (p *PipelineRunner) Run(ctx context.Context, steps []models.Step) ([]models.StepResult, error) {
	results := make([]models.StepResult, 0, len(steps))
	prior := ""

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		if step.Checkpoint || step.Destructive {
			ok, err := p.confirmer.Confirm(fmt.Sprintf("Run step %q?", step.Name))
			if err != nil || !ok {
				results = append(results, models.StepResult{
					Name: step.Name, Kind: step.Kind, Model: step.Model, Skipped: true,
				})
				if p.abortOnSkip {
					return results, nil
				}
				continue
			}
		}

		prompt := step.Prompt
		if prior != "" {
			prompt = "Prior context:\n" + CompressText(prior, priorContextBudget) + "\n\n" + prompt
		}

		result, err := p.invoke(ctx, step, prompt)
		sr := models.StepResult{Name: step.Name, Kind: step.Kind, Model: step.Model}
		if err != nil {
			if ctx.Err() != nil {
				results = append(results, sr)
				return results, ctx.Err()
			}
			sr.Text = "Agent failed: " + err.Error()
		} else {
			sr.Text = result.Text
			sr.Usage = result.Usage
		}
		results = append(results, sr)

		prior += fmt.Sprintf("\n## %s\n%s\n", step.Name, sr.Text)
	}
	return results, nil
}

// CompressText bounds text by keeping roughly the first 60% and last 30%
// of the budget with an explicit elision marker in between, preserving
// both setup and conclusion.
func CompressText(text string, budget int) string {
	if budget <= 0 || len(text) <= budget {
		return text
	}
	head := budget * 60 / 100
	tail := budget * 30 / 100
	elided := len(text) - head - tail
	return fmt.Sprintf("%s\n[...compressed %d chars...]\n%s", text[:head], elided, text[len(text)-tail:])
}
