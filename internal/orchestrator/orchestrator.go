package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/blacksmith-cli/blacksmith/internal/backend"
	"github.com/blacksmith-cli/blacksmith/internal/brain"
	"github.com/blacksmith-cli/blacksmith/internal/config"
	"github.com/blacksmith-cli/blacksmith/internal/contextload"
	"github.com/blacksmith-cli/blacksmith/internal/exec"
	"github.com/blacksmith-cli/blacksmith/internal/identity"
	"github.com/blacksmith-cli/blacksmith/internal/ledger"
	"github.com/blacksmith-cli/blacksmith/internal/registry"
	"github.com/blacksmith-cli/blacksmith/internal/session"
	"github.com/blacksmith-cli/blacksmith/internal/worktree"
	"github.com/blacksmith-cli/blacksmith/pkg/models"
)

// Request is one task invocation.
type Request struct {
	Command   string
	Task      string
	CWD       string
	FilePaths []string
	// Backend pins the backend explicitly; escalation is disabled then.
	Backend string
	// Model pins the model explicitly.
	Model        string
	ReviewStaged bool
	PRNumber     int
	// Deep forces Tier 2 for the ask command.
	Deep               bool
	DryRun             bool
	Force              bool
	ConventionalCommit bool
}

// Response is the outcome of one orchestrated task.
type Response struct {
	Classification models.Classification
	Backend        string
	Model          string
	Cost           models.CostEstimate
	Result         *models.ExecutionResult
	DryRun         *DryRunPayload
	Spec           *models.AgentSpec
	SessionID      string
	Worktree       *worktree.Worktree
	WorktreeKept   bool
	Escalated      bool
	SubAgents      []models.StepResult
	BrainNotebooks []string
}

// Orchestrator sequences classification, cost guarding, execution, and
// bookkeeping for every task. One Orchestrator serves many concurrent
// invocations; all per-task state lives on the stack of Run.
type Orchestrator struct {
	cfg        *config.Config
	classifier *Classifier
	registry   *registry.Registry
	identity   *identity.Loader
	brain      brain.Querier
	estimator  *CostEstimator
	invoker    backend.Invoker
	loader     *contextload.Loader
	sessions   *session.Manager
	ledger     *ledger.Store
	confirmer  Confirmer
	cmd        exec.CommandRunner
	logger     *DebugLogger
	reportsDir string
}

// Deps wires an Orchestrator. Ledger may be nil when disabled.
type Deps struct {
	Config     *config.Config
	Classifier *Classifier
	Registry   *registry.Registry
	Identity   *identity.Loader
	Brain      brain.Querier
	Invoker    backend.Invoker
	Loader     *contextload.Loader
	Sessions   *session.Manager
	Ledger     *ledger.Store
	Confirmer  Confirmer
	Commands   exec.CommandRunner
	Logger     *DebugLogger
	ReportsDir string
}

// New creates an Orchestrator from its dependencies.
func New(deps Deps) *Orchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = NopLogger()
	}
	cmd := deps.Commands
	if cmd == nil {
		cmd = exec.NewRunner()
	}
	return &Orchestrator{
		cfg:        deps.Config,
		classifier: deps.Classifier,
		registry:   deps.Registry,
		identity:   deps.Identity,
		brain:      deps.Brain,
		estimator:  NewCostEstimator(deps.Registry),
		invoker:    deps.Invoker,
		loader:     deps.Loader,
		sessions:   deps.Sessions,
		ledger:     deps.Ledger,
		confirmer:  deps.Confirmer,
		cmd:        cmd,
		logger:     logger,
		reportsDir: deps.ReportsDir,
	}
}

// Run classifies the task and executes the matching tier.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Response, error) {
	classification := o.classifier.Classify(ClassifyInput{
		Command:   req.Command,
		Prompt:    req.Task,
		FilePaths: req.FilePaths,
		Deep:      req.Deep,
	})
	o.logger.Log("classified %s as tier %d (%s, %s): %s",
		req.Command, classification.Tier, classification.Department,
		classification.Complexity, classification.RouteReason)

	if classification.Tier == models.Tier1 {
		return o.runTierOne(ctx, req, classification)
	}
	return o.runTierTwo(ctx, req, classification)
}

// chooseFallbackModel resolves the deterministic command-based model used
// when neither the user nor the identity picked one.
func chooseFallbackModel(command string, c models.Classification, explicitBackend, explicitModel string) string {
	if explicitModel != "" {
		return registry.ResolveModelID(explicitModel)
	}

	switch explicitBackend {
	case "ollama":
		return "ollama-qwen2.5-coder"
	case "claude":
		return "claude-code"
	case "gemini":
		return "gemini-2.0-pro"
	case "openai":
		return "gpt-4.5"
	case "codex":
		return "codex-cli"
	case "jules":
		return "jules-cli"
	}

	switch command {
	case "review":
		return "claude-code"
	case "debug":
		if c.Complexity == models.ComplexityHigh {
			return "claude-code"
		}
		return "ollama-deepseek-r1"
	case "build", "refactor":
		return "claude-code"
	case "research", "compare":
		return "gemini-2.0-pro"
	case "summarize":
		return "gemini-2.0-flash"
	case "deploy", "diagnose", "provision":
		return "claude-code"
	case "commit":
		return "ollama-qwen2.5-coder"
	}
	return "ollama-qwen2.5-coder"
}

// resolveRuntimeModelName maps a registry model id to the concrete name
// the transport needs (the configured Ollama tag, the claude CLI alias).
func (o *Orchestrator) resolveRuntimeModelName(backendName, model, explicitModel string) string {
	if explicitModel != "" && !strings.HasPrefix(explicitModel, "ollama-") {
		return explicitModel
	}

	switch backendName {
	case "ollama":
		if model == "ollama-deepseek-r1" {
			if tag := o.cfg.Backends.Ollama.Models["reasoning"]; tag != "" {
				return tag
			}
			return o.cfg.Backends.Ollama.DefaultModel
		}
		if tag := o.cfg.Backends.Ollama.Models["code"]; tag != "" {
			return tag
		}
		return o.cfg.Backends.Ollama.DefaultModel
	case "claude":
		if o.cfg.Backends.Claude.DefaultModel != "" {
			return o.cfg.Backends.Claude.DefaultModel
		}
		return "sonnet"
	case "gemini":
		if model == "gemini-2.0-flash" {
			return model
		}
		if o.cfg.Backends.Gemini.DefaultModel != "" {
			return o.cfg.Backends.Gemini.DefaultModel
		}
		return "gemini-2.0-pro"
	case "openai":
		if explicitModel != "" {
			return explicitModel
		}
		return model
	}
	return explicitModel
}

// invoke runs one prompt with the orchestrator's timeout policy.
func (o *Orchestrator) invoke(ctx context.Context, backendName, model, runtimeModel, prompt, cwd string, c models.Classification) (*models.ExecutionResult, error) {
	return o.invoker.Invoke(ctx, backendName, model, prompt, backend.Options{
		CWD:       cwd,
		ModelName: runtimeModel,
		Timeout:   o.cfg.TimeoutFor(string(c.Complexity)),
	})
}

// invokerFor builds the invokeFunc handed to escalation and judging: it
// re-resolves backend and runtime name per model.
func (o *Orchestrator) invokerFor(cwd string, c models.Classification) invokeFunc {
	return func(ctx context.Context, model, prompt string) (*models.ExecutionResult, error) {
		resolved := registry.ResolveModelID(model)
		backendName := registry.BackendForModel(resolved)
		runtime := o.resolveRuntimeModelName(backendName, resolved, "")
		return o.invoke(ctx, backendName, resolved, runtime, prompt, cwd, c)
	}
}

// logExecution appends exactly one ledger entry for the invocation and
// regenerates routing reports on the report interval. Ledger failures are
// logged, never surfaced; bookkeeping must not mask the task outcome.
func (o *Orchestrator) logExecution(entry *models.LedgerEntry) {
	if o.ledger == nil || !o.cfg.Ledger.Enabled {
		return
	}
	if err := o.ledger.Append(entry); err != nil {
		o.logger.Log("ledger append failed: %v", err)
		return
	}
	if _, err := MaybeWriteRoutingReports(o.ledger, o.reportsDir); err != nil {
		o.logger.Log("routing report generation failed: %v", err)
	}
}

// projectName derives the ledger project tag from the working directory.
func projectName(cwd string) string {
	base := filepath.Base(filepath.Clean(cwd))
	if base == "." || base == "/" || base == "" {
		return "blacksmith"
	}
	return base
}

// protectedCommands must be explicitly forced before any paid work.
var protectedCommands = map[string]bool{"deploy": true, "provision": true}

// enforceProtectedCommand rejects protected commands without --force.
// Dry runs pass; they never execute anything.
func enforceProtectedCommand(command string, force, dryRun bool) error {
	if protectedCommands[command] && !force && !dryRun {
		return fmt.Errorf("%q requires confirmation, re-run with --force", command)
	}
	return nil
}

func nowMS(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
