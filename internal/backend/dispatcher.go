package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/blacksmith-cli/blacksmith/internal/config"
	"github.com/blacksmith-cli/blacksmith/internal/exec"
	"github.com/blacksmith-cli/blacksmith/internal/registry"
	"github.com/blacksmith-cli/blacksmith/pkg/models"
)

// Dispatcher routes invocations to the transport serving each backend.
type Dispatcher struct {
	cfg       *config.Config
	cli       *CLITransport
	ollama    *OllamaTransport
	anthropic *AnthropicTransport
}

// NewDispatcher creates a Dispatcher over the given configuration. The
// Anthropic transport is optional; pass nil when no API key is configured
// and the claude CLI path will be used instead.
func NewDispatcher(cfg *config.Config, cmd exec.CommandRunner, anthropic *AnthropicTransport) *Dispatcher {
	return &Dispatcher{
		cfg:       cfg,
		cli:       NewCLITransport(cfg, cmd),
		ollama:    NewOllamaTransport(cfg.Backends.Ollama.Host),
		anthropic: anthropic,
	}
}

// Invoke dispatches to the right transport and enforces the local timeout.
// A deadline overrun surfaces as ErrTimeout so callers can distinguish "the
// backend never answered" from "the backend answered with an error".
func (d *Dispatcher) Invoke(ctx context.Context, backendName, model, prompt string, opts Options) (*models.ExecutionResult, error) {
	if backendName == "" {
		backendName = registry.BackendForModel(model)
	}
	if backendName == "" {
		return nil, fmt.Errorf("no backend serves model %q", model)
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := d.dispatch(ctx, backendName, model, prompt, opts)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s on %s after %s", ErrTimeout, model, backendName, time.Since(start).Round(time.Millisecond))
		}
		return nil, err
	}

	result.DurationMS = time.Since(start).Milliseconds()
	result.Success = true
	return result, nil
}

func (d *Dispatcher) dispatch(ctx context.Context, backendName, model, prompt string, opts Options) (*models.ExecutionResult, error) {
	if opts.ModelName == "" {
		opts.ModelName = model
	}
	switch backendName {
	case "ollama":
		opts.ModelName = d.resolveOllamaModel(opts.ModelName)
		return d.ollama.Generate(ctx, prompt, opts)
	case "claude":
		if d.anthropic != nil {
			return d.anthropic.Complete(ctx, prompt, opts)
		}
		return d.cli.RunClaude(ctx, prompt, opts)
	case "gemini":
		return d.cli.RunGemini(ctx, prompt, opts)
	case "codex":
		return d.cli.RunCodex(ctx, prompt, opts)
	case "jules":
		return d.cli.RunJules(ctx, prompt, opts)
	case "github":
		return d.cli.RunGithub(ctx, prompt, opts)
	default:
		return nil, fmt.Errorf("backend %q is not implemented", backendName)
	}
}

// resolveOllamaModel maps registry ids like "ollama-code" to the concrete
// tag configured for that role, falling back to the configured default when
// the id carries no role or the role is unknown.
func (d *Dispatcher) resolveOllamaModel(model string) string {
	const prefix = "ollama-"
	if len(model) > len(prefix) && model[:len(prefix)] == prefix {
		role := model[len(prefix):]
		if tag, ok := d.cfg.Backends.Ollama.Models[role]; ok {
			return tag
		}
		return d.cfg.Backends.Ollama.DefaultModel
	}
	if model == "" {
		return d.cfg.Backends.Ollama.DefaultModel
	}
	return model
}

// Verify Dispatcher implements Invoker at compile time.
var _ Invoker = (*Dispatcher)(nil)
