// Package backend exposes every AI provider through a single invoke
// contract. The orchestrator never cares whether a backend is a spawned CLI
// or an HTTP endpoint; it hands over a prompt and gets text plus usage back.
package backend

import (
	"context"
	"errors"
	"time"

	"github.com/blacksmith-cli/blacksmith/pkg/models"
)

// ErrTimeout marks an invocation that exceeded its local deadline. The
// provider-side operation is only abandoned locally, not cancelled remotely.
var ErrTimeout = errors.New("backend invocation timed out")

// Options tunes one invocation.
type Options struct {
	// CWD is the working directory for CLI backends.
	CWD string
	// ModelName overrides the runtime model name passed to the transport
	// (e.g. the concrete Ollama tag behind an "ollama-*" registry id).
	ModelName string
	// Temperature is the sampling temperature where the transport supports it.
	Temperature float64
	// MaxTokens caps the completion where the transport supports it.
	MaxTokens int
	// Timeout bounds the invocation; zero means no local deadline.
	Timeout time.Duration
	// GitHubMode selects the gh operation ("pr-diff", "pr-view") for the
	// github backend; empty falls back to gh help.
	GitHubMode string
	// PRNumber is the pull request the github backend operates on.
	PRNumber int
}

// Invoker is the uniform backend capability.
type Invoker interface {
	// Invoke runs the prompt against the backend/model pair. Transport
	// failures return an error; the caller decides whether to surface it
	// or capture it as a failed ExecutionResult.
	Invoke(ctx context.Context, backend, model, prompt string, opts Options) (*models.ExecutionResult, error)
}

// estimateTokens approximates token counts for transports that do not
// report usage: one token per four characters, rounded up.
func estimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + 3) / 4
}
