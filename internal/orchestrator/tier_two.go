package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/blacksmith-cli/blacksmith/internal/contextload"
	"github.com/blacksmith-cli/blacksmith/internal/git"
	"github.com/blacksmith-cli/blacksmith/internal/identity"
	"github.com/blacksmith-cli/blacksmith/internal/registry"
	"github.com/blacksmith-cli/blacksmith/internal/session"
	"github.com/blacksmith-cli/blacksmith/internal/worktree"
	"github.com/blacksmith-cli/blacksmith/pkg/models"
)

// worktreeCommands are the destructive-capable commands that isolate
// high-complexity work in a worktree.
var worktreeCommands = map[string]bool{"refactor": true, "build": true}

// contextTokenBudget caps loaded context. Local models top out around 32k
// tokens; half of that leaves room for the rendered instructions and the
// completion.
const contextTokenBudget = 16000

func (o *Orchestrator) worktreeManager(cwd string) *worktree.Manager {
	return worktree.NewManager(git.NewRunner(cwd, o.cmd), "")
}

// runTierTwo is the full orchestration: identity, knowledge base,
// planning, spec assembly, cost guard, session and worktree lifecycle,
// execution, escalation, and bookkeeping.
func (o *Orchestrator) runTierTwo(ctx context.Context, req Request, c models.Classification) (*Response, error) {
	if err := enforceProtectedCommand(req.Command, req.Force, req.DryRun); err != nil {
		return nil, err
	}

	ident, err := o.identity.Load()
	if err != nil {
		return nil, fmt.Errorf("load identity: %w", err)
	}

	brainResult, err := o.brain.Query(ctx, req.Task)
	if err != nil {
		return nil, fmt.Errorf("query knowledge base: %w", err)
	}
	prereqs, err := o.brain.QueryPrerequisites(ctx, req.Task, c)
	if err != nil {
		prereqs = nil
	}

	subAgents := PlanSubAgents(c, req.Task)
	var steps []models.Step
	if IsMultiStep(req.Command, c) {
		steps = PlanSteps(req.Command, req.Task, c)
	}

	model := req.Model
	if model == "" {
		model = identity.PickDepartmentModel(ident, c)
	}
	if model == "" {
		model = chooseFallbackModel(req.Command, c, req.Backend, req.Model)
	}
	resolvedModel := registry.ResolveModelID(model)
	backendName := req.Backend
	if backendName == "" {
		backendName = registry.BackendForModel(resolvedModel)
	}
	runtimeModel := o.resolveRuntimeModelName(backendName, resolvedModel, req.Model)

	executionCWD := req.CWD
	set, err := o.loader.Load(ctx, contextload.Request{
		CWD:          executionCWD,
		FilePaths:    req.FilePaths,
		ReviewStaged: req.ReviewStaged,
		PRNumber:     req.PRNumber,
		MaxTokens:    contextTokenBudget,
	})
	if err != nil {
		return nil, err
	}

	spec := AssembleSpec(AssembleInput{
		Identity:       ident,
		Classification: c,
		Context:        set,
		Brain:          brainResult,
		SubAgents:      subAgents,
		Prerequisites:  prereqs,
		Task:           req.Task,
		Backend:        backendName,
		Model:          resolvedModel,
	})
	prompt := RenderPrompt(spec, set, req.Task)

	cost, err := o.estimator.Estimate(resolvedModel, prompt, c)
	if err != nil {
		return nil, err
	}
	if err := EnforceHardStop(cost, o.cfg.Routing.CostHardStop, req.DryRun, req.Force); err != nil {
		return nil, err
	}

	resp := &Response{
		Classification: c,
		Backend:        backendName,
		Model:          resolvedModel,
		Cost:           cost,
		Spec:           spec,
		BrainNotebooks: brainResult.Notebooks,
	}

	if req.DryRun {
		payload := tierTwoDryRun(c, backendName, resolvedModel, cost, brainResult.Notebooks, spec, steps)
		if worktreeCommands[req.Command] && c.Complexity == models.ComplexityHigh {
			if plan := o.worktreeManager(req.CWD).Plan(ctx, req.Task); plan != nil {
				payload.Worktree = &WorktreePlan{Branch: plan.Branch, Path: plan.Path}
			}
		}
		resp.DryRun = payload
		return resp, nil
	}

	sess, err := o.sessions.Scaffold(map[string]string{
		"command": req.Command,
		"task":    req.Task,
		"cwd":     executionCWD,
		"backend": backendName,
		"model":   resolvedModel,
	})
	if err != nil {
		return nil, err
	}
	resp.SessionID = sess.ID

	var wt *worktree.Worktree
	if worktreeCommands[req.Command] && c.Complexity == models.ComplexityHigh {
		wt, err = o.worktreeManager(req.CWD).Create(ctx, req.Task, sess.ID)
		if err != nil {
			o.logger.Log("worktree creation failed, continuing in place: %v", err)
			wt = nil
		}
	}
	if wt != nil {
		executionCWD = wt.Path
		resp.Worktree = wt

		// Context shifts with the execution directory, so reload and
		// re-render before any backend sees the prompt.
		set, err = o.loader.Load(ctx, contextload.Request{
			CWD:          executionCWD,
			FilePaths:    req.FilePaths,
			ReviewStaged: req.ReviewStaged,
			PRNumber:     req.PRNumber,
			MaxTokens:    contextTokenBudget,
		})
		if err != nil {
			return nil, err
		}
		spec.Context.CWD = executionCWD
		prompt = RenderPrompt(spec, set, req.Task)
	}
	if err := o.sessions.Hydrate(sess, set); err != nil {
		o.logger.Log("session hydrate failed: %v", err)
	}

	start := time.Now()
	currentModel := resolvedModel
	currentBackend := backendName
	var result *models.ExecutionResult
	var execErr error
	escalated := false
	var stepResults []models.StepResult

	defer func() {
		entry := &models.LedgerEntry{
			CreatedAt:        time.Now().UTC(),
			Command:          req.Command,
			Backend:          currentBackend,
			Model:            currentModel,
			Workflow:         c.TaskType,
			Department:       c.Department,
			PromptTokens:     cost.PromptTokens,
			CompletionTokens: cost.CompletionTokens,
			EstimatedCost:    cost.EstimatedCost,
			DurationMS:       nowMS(start),
			Success:          execErr == nil,
			Escalated:        escalated,
			SessionID:        sess.ID,
			Project:          projectName(req.CWD),
			Metadata: map[string]string{
				"tier":         "2",
				"route_reason": c.RouteReason,
			},
		}
		if result != nil {
			entry.PromptTokens = result.Usage.PromptTokens
			entry.CompletionTokens = result.Usage.CompletionTokens
		}
		if wt != nil {
			entry.Metadata["worktree_branch"] = wt.Branch
		}
		o.logExecution(entry)
	}()

	if len(steps) > 0 {
		stepResults, result, execErr = o.runPipelineAndSynthesize(ctx, steps, prompt, currentBackend, currentModel, runtimeModel, executionCWD, c)
	} else {
		result, stepResults, execErr = o.runSinglePass(ctx, req, ident, subAgents, prompt, currentBackend, currentModel, runtimeModel, executionCWD, c)
	}
	resp.SubAgents = stepResults
	if execErr != nil {
		o.finishSession(ctx, sess, nil, escalated, currentModel)
		return nil, execErr
	}

	if ShouldEscalate(result, c, o.cfg.Routing.AutoEscalate, req.Backend) {
		outcome, escErr := Escalate(ctx, prompt, result, currentModel, o.invokerFor(executionCWD, c))
		if escErr != nil {
			o.logger.Log("escalation failed, keeping original result: %v", escErr)
		} else if outcome.Escalated {
			result = outcome.Result
			currentModel = outcome.Model
			currentBackend = outcome.Backend
			escalated = true
		}
	}
	resp.Result = result
	resp.Model = currentModel
	resp.Backend = currentBackend
	resp.Escalated = escalated

	if wt != nil {
		keep, confirmErr := o.confirmer.Confirm(fmt.Sprintf("Keep worktree at %s? (merge manually)", wt.Path))
		if confirmErr != nil {
			keep = false
		}
		if keep {
			resp.WorktreeKept = true
		} else {
			o.worktreeManager(req.CWD).Remove(ctx, wt)
		}
	}

	summary := CompressExecution(CompressInput{
		Command:        req.Command,
		Task:           req.Task,
		Model:          currentModel,
		Backend:        currentBackend,
		Result:         result,
		Classification: c,
		Cost:           cost,
		Project:        projectName(req.CWD),
		Escalated:      escalated,
	})
	notebooks := StoreSummary(ctx, o.brain, summary, cost)
	o.finishSession(ctx, sess, notebooks, escalated, currentModel)

	return resp, nil
}

// finishSession tears the session down best-effort.
func (o *Orchestrator) finishSession(_ context.Context, sess *session.Session, notebooks []string, escalated bool, model string) {
	state := map[string]interface{}{
		"notebooks": notebooks,
		"escalated": escalated,
		"model":     model,
	}
	if err := o.sessions.Teardown(sess, state); err != nil {
		o.logger.Log("session teardown failed: %v", err)
	}
}

// runPipelineAndSynthesize executes the planned steps then asks the
// primary model to synthesize a final answer from their outputs.
func (o *Orchestrator) runPipelineAndSynthesize(ctx context.Context, steps []models.Step, prompt, backendName, model, runtimeModel, cwd string, c models.Classification) ([]models.StepResult, *models.ExecutionResult, error) {
	runner := NewPipelineRunner(o.confirmer, func(ctx context.Context, step models.Step, stepPrompt string) (*models.ExecutionResult, error) {
		stepModel := registry.ResolveModelID(step.Model)
		stepBackend := registry.BackendForModel(stepModel)
		stepRuntime := o.resolveRuntimeModelName(stepBackend, stepModel, "")
		return o.invoke(ctx, stepBackend, stepModel, stepRuntime, stepPrompt, cwd, c)
	}, o.cfg.Routing.AbortOnSkippedCheckpoint)

	stepResults, err := runner.Run(ctx, steps)
	if err != nil {
		return stepResults, nil, err
	}

	synthesisPrompt := prompt + "\n\nPipeline results:\n" + SummarizeStepResults(stepResults) + "\n\nSynthesize a final response."
	result, err := o.invoke(ctx, backendName, model, runtimeModel, synthesisPrompt, cwd, c)
	return stepResults, result, err
}

// runSinglePass handles the non-pipeline Tier 2 shapes: optional
// sequential sub-agents folded into the prompt, the review command's
// two-stage pass, then the primary invocation.
func (o *Orchestrator) runSinglePass(ctx context.Context, req Request, ident *identity.Identity, subAgents []models.SubAgentSpec, prompt, backendName, model, runtimeModel, cwd string, c models.Classification) (*models.ExecutionResult, []models.StepResult, error) {
	var stepResults []models.StepResult

	for _, agent := range subAgents {
		subModel := registry.ResolveModelID(agent.Model)
		subBackend := registry.BackendForModel(subModel)
		subRuntime := o.resolveRuntimeModelName(subBackend, subModel, "")

		sr := models.StepResult{Name: agent.Name, Kind: agent.Kind, Model: subModel}
		subResult, err := o.invoke(ctx, subBackend, subModel, subRuntime, agent.Prompt, cwd, c)
		if err != nil {
			if ctx.Err() != nil {
				return nil, stepResults, ctx.Err()
			}
			sr.Text = "Sub-agent failed: " + err.Error()
		} else {
			sr.Text = subResult.Text
			sr.Usage = subResult.Usage
		}
		stepResults = append(stepResults, sr)
	}
	if len(stepResults) > 0 {
		prompt += "\n\nSub-agent results:\n" + SummarizeStepResults(stepResults)
	}

	if req.Command == "review" {
		if dept := ident.Department("engineering"); dept != nil && dept.ReviewStandard != "" {
			stageOne, err := o.invoke(ctx, "gemini", "gemini-2.0-flash", "gemini-2.0-flash",
				prompt+"\n\nStage 1: Check spec compliance and list deviations only.", cwd, c)
			if err == nil && stageOne.Text != "" {
				prompt += "\n\nStage 1 review findings:\n" + stageOne.Text
			}
		}
	}

	result, err := o.invoke(ctx, backendName, model, runtimeModel, prompt, cwd, c)
	return result, stepResults, err
}
