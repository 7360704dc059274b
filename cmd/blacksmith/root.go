package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "blacksmith",
	Short: "Task router for local and cloud coding agents",
	Long: `Blacksmith routes tasks to the cheapest model that can handle them.

Simple tasks (commit messages, plain questions) pass straight through to a
local model. Complex tasks get the full treatment: identity-driven agent
assembly, knowledge-base context, cost estimation with a hard stop,
checkpointed multi-step pipelines, and automatic escalation to a stronger
model when the answer comes back weak.

Every invocation lands in an append-only SQLite ledger so routing decisions
can be audited and tuned over time.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(ledgerCmd)
	rootCmd.AddCommand(cleanupCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(brainCmd)
	rootCmd.AddCommand(versionCmd)
	for _, cmd := range taskCommands() {
		rootCmd.AddCommand(cmd)
	}
}
