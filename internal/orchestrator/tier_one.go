package orchestrator

import (
	"context"
	"time"

	"github.com/blacksmith-cli/blacksmith/internal/contextload"
	"github.com/blacksmith-cli/blacksmith/internal/registry"
	"github.com/blacksmith-cli/blacksmith/pkg/models"
)

// buildTierOnePrompt is the short-circuit prompt: commit gets the staged
// diff, everything else passes the task through raw.
func buildTierOnePrompt(command, task string, set *contextload.ContextSet, conventional bool) string {
	if command != "commit" {
		return task
	}

	instruction := "Return a single concise commit message."
	if conventional {
		instruction = "Return a single conventional commit message."
	}
	diff := "No staged diff was found."
	if set != nil && set.StagedDiff != "" {
		diff = set.StagedDiff
	}
	return instruction + "\n\nStaged diff:\n```diff\n" + diff + "\n```"
}

// runTierOne short-circuits: deterministic model choice, minimal prompt,
// cost guard, one backend call, one ledger entry. No identity, brain,
// session, or worktree is touched.
func (o *Orchestrator) runTierOne(ctx context.Context, req Request, c models.Classification) (*Response, error) {
	model := chooseFallbackModel(req.Command, c, req.Backend, req.Model)
	backendName := req.Backend
	if backendName == "" {
		backendName = registry.BackendForModel(model)
	}
	runtimeModel := o.resolveRuntimeModelName(backendName, model, req.Model)

	var set *contextload.ContextSet
	if req.Command == "commit" {
		loaded, err := o.loader.Load(ctx, contextload.Request{
			CWD:          req.CWD,
			FilePaths:    req.FilePaths,
			ReviewStaged: true,
			MaxTokens:    contextTokenBudget,
		})
		if err != nil {
			return nil, err
		}
		set = loaded
	}

	prompt := buildTierOnePrompt(req.Command, req.Task, set, req.ConventionalCommit)

	cost, err := o.estimator.Estimate(model, prompt, c)
	if err != nil {
		return nil, err
	}
	if err := EnforceHardStop(cost, o.cfg.Routing.CostHardStop, req.DryRun, req.Force); err != nil {
		return nil, err
	}

	resp := &Response{
		Classification: c,
		Backend:        backendName,
		Model:          model,
		Cost:           cost,
	}

	if req.DryRun {
		resp.DryRun = tierOneDryRun(c, backendName, model, cost)
		return resp, nil
	}

	start := time.Now()
	result, invokeErr := o.invoke(ctx, backendName, model, runtimeModel, prompt, req.CWD, c)

	entry := &models.LedgerEntry{
		CreatedAt:        time.Now().UTC(),
		Command:          req.Command,
		Backend:          backendName,
		Model:            model,
		Workflow:         c.TaskType,
		Department:       c.Department,
		PromptTokens:     cost.PromptTokens,
		CompletionTokens: cost.CompletionTokens,
		EstimatedCost:    cost.EstimatedCost,
		DurationMS:       nowMS(start),
		Success:          invokeErr == nil,
		Project:          projectName(req.CWD),
		Metadata: map[string]string{
			"tier":         "1",
			"route_reason": c.RouteReason,
		},
	}
	if result != nil {
		entry.PromptTokens = result.Usage.PromptTokens
		entry.CompletionTokens = result.Usage.CompletionTokens
	}
	o.logExecution(entry)

	if invokeErr != nil {
		return nil, invokeErr
	}
	resp.Result = result
	return resp, nil
}
