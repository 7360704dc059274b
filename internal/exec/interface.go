// Package exec provides an interface for command execution.
package exec

import (
	"context"
)

// CommandRunner defines the interface for running external commands.
// This abstraction allows mocking backend CLIs and git in tests.
type CommandRunner interface {
	// Run executes a command and returns its stdout.
	// The working directory is set to workDir if non-empty.
	Run(ctx context.Context, workDir string, name string, args ...string) (output string, err error)

	// RunInput executes a command with the given string piped to stdin.
	// Backend CLIs consume their prompt this way.
	RunInput(ctx context.Context, workDir string, input string, name string, args ...string) (output string, err error)

	// LookPath reports whether the named binary is available on PATH.
	LookPath(name string) bool
}
