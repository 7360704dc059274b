package main

import (
	"fmt"
	"os"
	osexec "os/exec"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/blacksmith-cli/blacksmith/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Set up the Blacksmith home directory",
	Long: `Create the Blacksmith home directory and seed its files.

This command:
  - Creates $BLACKSMITH_HOME (default ~/.blacksmith)
  - Writes config.yaml with built-in defaults
  - Seeds mcr.yaml (the model registry), identity.yaml, and brain.yaml
  - Creates the sessions, reports, and brain directories

Existing files are left alone unless --force is given.`,
	RunE: runInitCommand,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing seed files")
}

func printStatus(symbol, message string, attr color.Attribute) {
	c := color.New(attr)
	fmt.Printf("%s %s\n", c.Sprint(symbol), message)
}

func runInitCommand(cmd *cobra.Command, args []string) error {
	home := config.Home()
	fmt.Printf("Initializing Blacksmith in %s...\n\n", home)

	for _, dir := range []string{home, config.SessionsDir(), config.ReportsDir(), config.Path("brain")} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	printStatus("✓", "Home directory ready", color.FgGreen)

	if _, err := osexec.LookPath("git"); err != nil {
		printStatus("⚠", "git not found; worktree isolation will be unavailable", color.FgYellow)
	} else {
		printStatus("✓", "git found", color.FgGreen)
	}
	for _, cli := range []string{"claude", "gemini", "ollama"} {
		if _, err := osexec.LookPath(cli); err != nil {
			printStatus("⚠", cli+" CLI not found (backend will be skipped)", color.FgYellow)
		} else {
			printStatus("✓", cli+" CLI found", color.FgGreen)
		}
	}

	seeds := []struct {
		path    string
		content string
	}{
		{config.RegistryPath(), seedRegistry},
		{config.IdentityPath(), seedIdentity},
		{config.BrainPath(), seedBrain},
	}

	if _, err := os.Stat(config.ConfigPath()); os.IsNotExist(err) || initForce {
		if err := config.Save(config.Default()); err != nil {
			return err
		}
		printStatus("✓", "Wrote config.yaml", color.FgGreen)
	} else {
		printStatus("·", "config.yaml exists, leaving it alone", color.FgWhite)
	}

	for _, seed := range seeds {
		name := filepath.Base(seed.path)
		if _, err := os.Stat(seed.path); err == nil && !initForce {
			printStatus("·", name+" exists, leaving it alone", color.FgWhite)
			continue
		}
		if err := os.WriteFile(seed.path, []byte(seed.content), 0644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		printStatus("✓", "Wrote "+name, color.FgGreen)
	}

	fmt.Println("\nDone. Try: blacksmith ask \"what can you do\"")
	return nil
}

const seedRegistry = `# Model capability registry. Pricing is per million tokens.
models:
  ollama-qwen2.5-coder:
    provider: ollama
    access: local
    speed: fast
    best_for: [code, commit_messages]
  ollama-deepseek-r1:
    provider: ollama
    access: local
    speed: medium
    best_for: [reasoning, debugging]
  ollama-llama-3.3-70b:
    provider: ollama
    access: local
    speed: slow
    best_for: [general]
  gemini-2.0-flash:
    provider: google
    access: cli
    speed: fast
    cost:
      input_per_1m: 0.10
      output_per_1m: 0.40
    best_for: [summaries, quick_review]
  gemini-2.0-pro:
    provider: google
    access: cli
    speed: medium
    cost:
      input_per_1m: 1.25
      output_per_1m: 5.00
    best_for: [research, comparison]
  claude-code:
    provider: anthropic
    access: cli
    speed: medium
    cost:
      input_per_1m: 3.00
      output_per_1m: 15.00
    best_for: [implementation, refactoring, deployment]
  codex-cli:
    provider: openai
    access: cli
    speed: medium
    cost:
      input_per_1m: 1.10
      output_per_1m: 4.40
    best_for: [implementation]
  gpt-4.5:
    provider: openai
    access: api
    speed: slow
    cost:
      input_per_1m: 75.00
      output_per_1m: 150.00
    best_for: [hard_problems]
  o3-mini:
    provider: openai
    access: api
    speed: medium
    cost:
      input_per_1m: 1.10
      output_per_1m: 4.40
    best_for: [reasoning]
  o3:
    provider: openai
    access: api
    speed: slow
    cost:
      input_per_1m: 10.00
      output_per_1m: 40.00
    best_for: [hard_reasoning]
`

const seedIdentity = `mission: Route every task to the cheapest model that can do it well.
values:
  - Prefer local models for routine work
  - Never run destructive work without a checkpoint
owner:
  name: Owner
  role: Engineer
  communication_style: Direct, technical, no fluff
departments:
  engineering:
    focus: implementation and review
    default_models:
      high: claude-code
      medium: ollama-qwen2.5-coder
    review_standard: List concrete deviations before style notes
    methodology:
      - Read the surrounding code before proposing changes
  research:
    focus: investigation and comparison
    default_models:
      deep: gemini-2.0-pro
  infrastructure:
    focus: deployment and diagnosis
    safety_standard: Never modify production without an explicit checkpoint
    automation_level: plan-only unless forced
  operations:
    focus: commits and release chores
`

const seedBrain = `notebooks:
  - name: history-engineering
    kind: history
    file: ~/.blacksmith/brain/history-engineering.md
    description: Engineering task history
  - name: history-research
    kind: history
    file: ~/.blacksmith/brain/history-research.md
    description: Research task history
  - name: history-infrastructure
    kind: history
    file: ~/.blacksmith/brain/history-infrastructure.md
    description: Infrastructure task history
  - name: history-operations
    kind: history
    file: ~/.blacksmith/brain/history-operations.md
    description: Operations task history
  - name: errors
    kind: topic
    file: ~/.blacksmith/brain/errors.md
    description: Failures and their causes
  - name: models
    kind: topic
    file: ~/.blacksmith/brain/models.md
    description: Model behavior notes
  - name: project-blacksmith
    kind: project
    file: ~/.blacksmith/brain/project-blacksmith.md
    description: Default project notebook
`
