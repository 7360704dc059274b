package backend

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/blacksmith-cli/blacksmith/pkg/models"
)

// StatusInvoker wraps an Invoker and prints colored progress lines around
// each invocation. It changes no behavior; output goes to the given writer.
type StatusInvoker struct {
	inner Invoker
	out   io.Writer
}

// NewStatusInvoker decorates inner with terminal status output.
func NewStatusInvoker(inner Invoker, out io.Writer) *StatusInvoker {
	return &StatusInvoker{inner: inner, out: out}
}

// Invoke reports the model being run, forwards to the inner invoker, and
// reports the outcome with elapsed time.
func (s *StatusInvoker) Invoke(ctx context.Context, backendName, model, prompt string, opts Options) (*models.ExecutionResult, error) {
	fmt.Fprintf(s.out, "%s invoking %s...\n", color.CyanString("⚒"), model)

	start := time.Now()
	result, err := s.inner.Invoke(ctx, backendName, model, prompt, opts)
	elapsed := time.Since(start).Round(time.Millisecond)

	if err != nil {
		fmt.Fprintf(s.out, "%s %s failed after %s: %v\n", color.RedString("✗"), model, elapsed, err)
		return nil, err
	}

	fmt.Fprintf(s.out, "%s %s done in %s (%d in / %d out tokens)\n",
		color.GreenString("✓"), model, elapsed,
		result.Usage.PromptTokens, result.Usage.CompletionTokens)
	return result, nil
}

var _ Invoker = (*StatusInvoker)(nil)
