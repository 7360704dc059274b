package git

import (
	"context"
	"fmt"
	"strconv"

	"github.com/blacksmith-cli/blacksmith/internal/exec"
)

// ExecRunner implements Runner by shelling out to git through a CommandRunner.
type ExecRunner struct {
	repoPath string
	cmd      exec.CommandRunner
}

// NewRunner creates a git runner rooted at repoPath.
func NewRunner(repoPath string, cmd exec.CommandRunner) *ExecRunner {
	if cmd == nil {
		cmd = exec.NewRunner()
	}
	return &ExecRunner{repoPath: repoPath, cmd: cmd}
}

func (r *ExecRunner) run(ctx context.Context, args ...string) (string, error) {
	return r.cmd.Run(ctx, r.repoPath, "git", args...)
}

// IsRepository reports whether repoPath is inside a git working tree.
func (r *ExecRunner) IsRepository(ctx context.Context) bool {
	out, err := r.run(ctx, "rev-parse", "--is-inside-work-tree")
	return err == nil && out == "true"
}

// CurrentBranch returns the name of the current branch.
func (r *ExecRunner) CurrentBranch(ctx context.Context) (string, error) {
	return r.run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
}

// StagedDiff returns the staged diff.
func (r *ExecRunner) StagedDiff(ctx context.Context) (string, error) {
	return r.run(ctx, "diff", "--cached")
}

// RecentLog returns the last n commits in oneline format.
func (r *ExecRunner) RecentLog(ctx context.Context, n int) (string, error) {
	return r.run(ctx, "log", "--oneline", "-"+strconv.Itoa(n))
}

// BlameHead returns blame output for the first lines of a file.
func (r *ExecRunner) BlameHead(ctx context.Context, path string, lines int) (string, error) {
	return r.run(ctx, "blame", "-L", fmt.Sprintf("1,%d", lines), path)
}

// WorktreeAddNewBranch creates a new worktree with a new branch
// (git worktree add <path> -b <branch>).
func (r *ExecRunner) WorktreeAddNewBranch(ctx context.Context, path, branch string) error {
	_, err := r.run(ctx, "worktree", "add", path, "-b", branch)
	return err
}

// WorktreeRemove force-removes the worktree at the given path.
func (r *ExecRunner) WorktreeRemove(ctx context.Context, path string) error {
	_, err := r.run(ctx, "worktree", "remove", "--force", path)
	return err
}

// WorktreeListPorcelain returns the raw porcelain listing.
func (r *ExecRunner) WorktreeListPorcelain(ctx context.Context) (string, error) {
	return r.run(ctx, "worktree", "list", "--porcelain")
}

// WorktreePruneExpireNow prunes stale worktree entries.
func (r *ExecRunner) WorktreePruneExpireNow(ctx context.Context) error {
	_, err := r.run(ctx, "worktree", "prune", "--expire", "now")
	return err
}

// DeleteBranch force-deletes the named branch.
func (r *ExecRunner) DeleteBranch(ctx context.Context, name string) error {
	_, err := r.run(ctx, "branch", "-D", name)
	return err
}

// Verify ExecRunner implements Runner at compile time.
var _ Runner = (*ExecRunner)(nil)
