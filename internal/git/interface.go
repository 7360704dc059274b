// Package git provides an interface for the git operations Blacksmith needs:
// worktree isolation, staged-diff inspection, and lightweight history context.
package git

import "context"

// Runner defines the git operations consumed by the orchestrator.
// The interface is intentionally narrow so tests can supply fakes.
type Runner interface {
	// IsRepository reports whether the working directory is inside a git
	// working tree.
	IsRepository(ctx context.Context) bool
	// CurrentBranch returns the name of the current branch.
	CurrentBranch(ctx context.Context) (string, error)
	// StagedDiff returns the output of git diff --cached.
	StagedDiff(ctx context.Context) (string, error)
	// RecentLog returns the last n commits in oneline format.
	RecentLog(ctx context.Context, n int) (string, error)
	// BlameHead returns blame output for the first lines of a file.
	BlameHead(ctx context.Context, path string, lines int) (string, error)
	// WorktreeAddNewBranch creates a new worktree with a new branch.
	WorktreeAddNewBranch(ctx context.Context, path, branch string) error
	// WorktreeRemove force-removes the worktree at the given path.
	WorktreeRemove(ctx context.Context, path string) error
	// WorktreeListPorcelain returns raw porcelain output for parsing.
	WorktreeListPorcelain(ctx context.Context) (string, error)
	// WorktreePruneExpireNow prunes stale worktree entries immediately.
	WorktreePruneExpireNow(ctx context.Context) error
	// DeleteBranch force-deletes the named branch.
	DeleteBranch(ctx context.Context, name string) error
}
