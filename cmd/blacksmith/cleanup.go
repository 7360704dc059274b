package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/blacksmith-cli/blacksmith/internal/config"
	"github.com/blacksmith-cli/blacksmith/internal/exec"
	"github.com/blacksmith-cli/blacksmith/internal/git"
	"github.com/blacksmith-cli/blacksmith/internal/ledger"
	"github.com/blacksmith-cli/blacksmith/internal/session"
	"github.com/blacksmith-cli/blacksmith/internal/worktree"
)

var (
	cleanupDryRun   bool
	cleanupSessions bool
	cleanupLedger   bool
)

// staleSessionAge is how old a non-torn-down session must be before
// cleanup removes it.
const staleSessionAge = 24 * time.Hour

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove orphaned worktrees and stale sessions",
	Long: `Clean up after crashed or interrupted runs.

This command:
  - Lists blacksmith-prefixed worktrees with no live session
  - Removes them along with their branches
  - Runs git worktree prune

With --sessions it also removes session files that never reached teardown
and are older than a day. With --ledger it purges ledger entries past the
configured retention window.`,
	RunE: runCleanup,
}

func init() {
	cleanupCmd.Flags().BoolVar(&cleanupDryRun, "dry-run", false, "Show what would be removed without removing")
	cleanupCmd.Flags().BoolVar(&cleanupSessions, "sessions", false, "Also remove stale session files")
	cleanupCmd.Flags().BoolVar(&cleanupLedger, "ledger", false, "Also purge ledger entries past retention")
}

func runCleanup(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	runner := exec.NewRunner()
	manager := worktree.NewManager(git.NewRunner(cwd, runner), "")

	if cleanupDryRun {
		orphans, err := manager.Orphans(cmd.Context())
		if err != nil {
			return err
		}
		if len(orphans) == 0 {
			fmt.Println("No orphaned worktrees.")
		}
		for _, wt := range orphans {
			fmt.Printf("would remove %s (%s)\n", wt.Path, wt.Branch)
		}
		return nil
	}

	removed, err := manager.CleanOrphans(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("Removed %d orphaned worktree(s).\n", removed)

	if cleanupSessions {
		ids, err := session.NewManager().CleanStale(staleSessionAge)
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d stale session(s).\n", len(ids))
	}

	if cleanupLedger {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if !cfg.Ledger.Enabled {
			return fmt.Errorf("ledger is disabled in config")
		}
		store, err := ledger.Open(config.ExpandHome(cfg.Ledger.DBPath))
		if err != nil {
			return err
		}
		defer store.Close()

		purged, err := store.Purge(cfg.Ledger.RetentionDays)
		if err != nil {
			return err
		}
		fmt.Printf("Purged %d ledger entrie(s) older than %d days.\n", purged, cfg.Ledger.RetentionDays)
	}
	return nil
}
