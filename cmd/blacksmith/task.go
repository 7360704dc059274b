package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/blacksmith-cli/blacksmith/internal/orchestrator"
)

var (
	taskFiles        []string
	taskBackend      string
	taskModel        string
	taskDeep         bool
	taskDryRun       bool
	taskForce        bool
	taskStaged       bool
	taskPR           int
	taskConventional bool
)

// taskSpec declares one routed command.
type taskSpec struct {
	use   string
	short string
}

var taskSpecs = []taskSpec{
	{"ask", "Ask a question (passthrough unless --deep)"},
	{"build", "Implement a feature or change"},
	{"review", "Review code, staged changes, or a PR"},
	{"debug", "Diagnose and fix a bug"},
	{"research", "Research a topic in depth"},
	{"compare", "Compare approaches or technologies"},
	{"summarize", "Summarize files or text"},
	{"refactor", "Restructure code without changing behavior"},
	{"commit", "Generate a commit message from the staged diff"},
	{"deploy", "Plan and execute a deployment (requires --force)"},
	{"diagnose", "Diagnose an infrastructure problem"},
	{"provision", "Provision infrastructure (requires --force)"},
}

func taskCommands() []*cobra.Command {
	cmds := make([]*cobra.Command, 0, len(taskSpecs))
	for _, spec := range taskSpecs {
		spec := spec
		cmd := &cobra.Command{
			Use:   spec.use + " [task...]",
			Short: spec.short,
			Args:  cobra.ArbitraryArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runTask(cmd, spec.use, strings.Join(args, " "))
			},
		}
		cmd.Flags().StringArrayVarP(&taskFiles, "file", "f", nil, "Attach a file as context (repeatable)")
		cmd.Flags().StringVar(&taskBackend, "backend", "", "Pin a backend (ollama, claude, gemini, openai, codex, jules)")
		cmd.Flags().StringVar(&taskModel, "model", "", "Pin a model")
		cmd.Flags().BoolVar(&taskDryRun, "dry-run", false, "Show the routing plan without executing")
		cmd.Flags().BoolVar(&taskForce, "force", false, "Bypass the cost hard stop and protected-command guard")
		cmd.Flags().BoolVar(&taskStaged, "staged", false, "Include the staged git diff as context")
		cmd.Flags().IntVar(&taskPR, "pr", 0, "Include a pull request diff as context")
		switch spec.use {
		case "ask":
			cmd.Flags().BoolVar(&taskDeep, "deep", false, "Force full orchestration instead of passthrough")
		case "commit":
			cmd.Flags().BoolVar(&taskConventional, "conventional", false, "Generate a conventional commit message")
		}
		cmds = append(cmds, cmd)
	}
	return cmds
}

func runTask(cmd *cobra.Command, command, task string) error {
	if task == "" && command != "commit" {
		return fmt.Errorf("%s needs a task description", command)
	}

	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Multi-step pipelines can run for minutes; pick up registry edits
	// made while a run is in flight.
	go func() { _ = rt.registry.Watch(ctx) }()

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	resp, err := rt.orch.Run(ctx, orchestrator.Request{
		Command:            command,
		Task:               task,
		CWD:                cwd,
		FilePaths:          taskFiles,
		Backend:            taskBackend,
		Model:              taskModel,
		ReviewStaged:       taskStaged,
		PRNumber:           taskPR,
		Deep:               taskDeep,
		DryRun:             taskDryRun,
		Force:              taskForce,
		ConventionalCommit: taskConventional,
	})
	if err != nil {
		return err
	}

	if resp.DryRun != nil {
		out, err := json.MarshalIndent(resp.DryRun, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	if resp.Result != nil {
		fmt.Println(resp.Result.Text)
	}

	meta := fmt.Sprintf("tier %d · %s/%s · $%.4f", resp.Classification.Tier, resp.Backend, resp.Model, resp.Cost.EstimatedCost)
	if resp.Escalated {
		meta += " · escalated"
	}
	fmt.Fprintln(os.Stderr, color.HiBlackString(meta))

	if resp.WorktreeKept && resp.Worktree != nil {
		fmt.Fprintf(os.Stderr, "Worktree kept at %s (branch %s)\n", resp.Worktree.Path, resp.Worktree.Branch)
	}
	return nil
}
