package backend

import (
	"context"
	"errors"
	"strconv"

	"github.com/blacksmith-cli/blacksmith/internal/config"
	"github.com/blacksmith-cli/blacksmith/internal/exec"
	"github.com/blacksmith-cli/blacksmith/pkg/models"
)

// CLITransport invokes backends installed as command-line tools (claude,
// gemini, codex, jules). Token usage is estimated since the CLIs do not
// report it.
type CLITransport struct {
	cfg *config.Config
	cmd exec.CommandRunner
}

// NewCLITransport creates a CLITransport using the given command runner.
func NewCLITransport(cfg *config.Config, cmd exec.CommandRunner) *CLITransport {
	if cmd == nil {
		cmd = exec.NewRunner()
	}
	return &CLITransport{cfg: cfg, cmd: cmd}
}

func (t *CLITransport) result(model, prompt, out string) *models.ExecutionResult {
	return &models.ExecutionResult{
		Text:  out,
		Model: model,
		Usage: models.Usage{
			PromptTokens:     estimateTokens(prompt),
			CompletionTokens: estimateTokens(out),
		},
	}
}

// RunClaude invokes the claude CLI in non-interactive print mode.
func (t *CLITransport) RunClaude(ctx context.Context, prompt string, opts Options) (*models.ExecutionResult, error) {
	model := opts.ModelName
	if model == "" {
		model = t.cfg.Backends.Claude.DefaultModel
	}

	out, err := t.cmd.Run(ctx, opts.CWD, "claude",
		"--print",
		"--output-format", "text",
		"--permission-mode", "default",
		"--model", model,
		prompt,
	)
	if err != nil {
		return nil, err
	}
	return t.result(model, prompt, out), nil
}

// RunGemini invokes the gemini CLI.
func (t *CLITransport) RunGemini(ctx context.Context, prompt string, opts Options) (*models.ExecutionResult, error) {
	model := opts.ModelName
	if model == "" {
		model = t.cfg.Backends.Gemini.DefaultModel
	}

	args := []string{"--prompt", prompt, "--output-format", "text", "--approval-mode", "default"}
	if model != "" {
		args = append(args, "--model", model)
	}

	out, err := t.cmd.Run(ctx, opts.CWD, "gemini", args...)
	if err != nil {
		return nil, err
	}
	return t.result(model, prompt, out), nil
}

// RunCodex invokes the codex CLI in sandboxed exec mode.
func (t *CLITransport) RunCodex(ctx context.Context, prompt string, opts Options) (*models.ExecutionResult, error) {
	args := []string{"exec", "--skip-git-repo-check", "--sandbox", "workspace-write"}
	if opts.CWD != "" {
		args = append(args, "--cd", opts.CWD)
	}
	if opts.ModelName != "" {
		args = append(args, "--model", opts.ModelName)
	}
	args = append(args, prompt)

	out, err := t.cmd.Run(ctx, opts.CWD, "codex", args...)
	if err != nil {
		return nil, err
	}

	model := opts.ModelName
	if model == "" {
		model = "codex-default"
	}
	return t.result(model, prompt, out), nil
}

// RunGithub runs a gh operation selected by opts.GitHubMode. It is a data
// backend, not a model: pr-diff and pr-view return raw gh output, anything
// else falls back to gh help.
func (t *CLITransport) RunGithub(ctx context.Context, prompt string, opts Options) (*models.ExecutionResult, error) {
	if !t.cmd.LookPath("gh") {
		return nil, errors.New("GitHub CLI (`gh`) is not installed in this environment")
	}

	args := []string{"help"}
	switch {
	case opts.GitHubMode == "pr-diff" && opts.PRNumber > 0:
		args = []string{"pr", "diff", strconv.Itoa(opts.PRNumber)}
	case opts.GitHubMode == "pr-view" && opts.PRNumber > 0:
		args = []string{"pr", "view", strconv.Itoa(opts.PRNumber), "--json", "title,body,headRefName,baseRefName,author"}
	}

	out, err := t.cmd.Run(ctx, opts.CWD, "gh", args...)
	if err != nil {
		return nil, err
	}
	return t.result("gh", prompt, out), nil
}

// RunJules invokes the jules model through the gemini CLI.
func (t *CLITransport) RunJules(ctx context.Context, prompt string, opts Options) (*models.ExecutionResult, error) {
	out, err := t.cmd.Run(ctx, opts.CWD, "gemini", "--prompt", prompt, "--model", "jules")
	if err != nil {
		return nil, err
	}
	return t.result("jules", prompt, out), nil
}
