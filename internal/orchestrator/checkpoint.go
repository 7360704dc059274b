package orchestrator

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// AutoApproveEnvVar, when set to "1", answers every checkpoint with yes.
// Scripted runs and tests use it to bypass the terminal prompt.
const AutoApproveEnvVar = "BLACKSMITH_AUTO_APPROVE"

// Confirmer answers human checkpoints.
type Confirmer interface {
	// Confirm asks the user a yes/no question. Errors count as "no".
	Confirm(question string) (bool, error)
}

// TerminalConfirmer prompts on the terminal.
type TerminalConfirmer struct {
	in  io.Reader
	out io.Writer
}

// NewTerminalConfirmer creates a Confirmer over stdin/stdout.
func NewTerminalConfirmer() *TerminalConfirmer {
	return &TerminalConfirmer{in: os.Stdin, out: os.Stdout}
}

// Confirm prints the question and reads a y/n answer. The auto-approve
// environment variable short-circuits to yes.
func (t *TerminalConfirmer) Confirm(question string) (bool, error) {
	if os.Getenv(AutoApproveEnvVar) == "1" {
		return true, nil
	}

	fmt.Fprintf(t.out, "%s %s [y/N] ", color.YellowString("?"), question)
	reader := bufio.NewReader(t.in)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes", nil
}

var _ Confirmer = (*TerminalConfirmer)(nil)
