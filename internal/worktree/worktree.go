// Package worktree isolates destructive tasks in disposable git worktrees.
// Each worktree gets its own branch named from the task and session, lives
// under the system temp directory, and is removed (branch included) when
// the task finishes unless the user chooses to keep it.
package worktree

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/blacksmith-cli/blacksmith/internal/git"
)

// branchPrefix namespaces task branches away from human branches.
const branchPrefix = "blacksmith/"

// maxSlugLen bounds the task slug inside the branch name.
const maxSlugLen = 40

// Worktree is an isolated workspace bound to one session.
type Worktree struct {
	Branch string
	Path   string
}

// Manager creates and removes task worktrees through a git runner.
type Manager struct {
	git  git.Runner
	base string
}

// NewManager creates a Manager. base overrides the worktree parent
// directory; empty means the system temp directory.
func NewManager(g git.Runner, base string) *Manager {
	if base == "" {
		base = filepath.Join(os.TempDir(), "blacksmith-worktrees")
	}
	return &Manager{git: g, base: base}
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// slug reduces a task description to a branch-safe fragment.
func slug(task string) string {
	s := nonAlnum.ReplaceAllString(strings.ToLower(task), "-")
	s = strings.Trim(s, "-")
	if len(s) > maxSlugLen {
		s = strings.Trim(s[:maxSlugLen], "-")
	}
	if s == "" {
		return "task"
	}
	return s
}

// Create makes a worktree for the task, or returns nil without error when
// the working directory is not a git repository.
func (m *Manager) Create(ctx context.Context, task, sessionID string) (*Worktree, error) {
	if !m.git.IsRepository(ctx) {
		return nil, nil
	}

	sid := sessionID
	if len(sid) > 8 {
		sid = sid[:8]
	}
	branch := fmt.Sprintf("%s%s-%s", branchPrefix, slug(task), sid)
	path := filepath.Join(m.base, strings.ReplaceAll(branch, "/", "-"))

	if err := os.MkdirAll(m.base, 0755); err != nil {
		return nil, fmt.Errorf("create worktree base: %w", err)
	}
	if err := m.git.WorktreeAddNewBranch(ctx, path, branch); err != nil {
		return nil, fmt.Errorf("add worktree: %w", err)
	}
	return &Worktree{Branch: branch, Path: path}, nil
}

// Plan describes the worktree Create would make for the task without
// touching the filesystem, or nil outside a git repository. The session id
// is unknown before scaffolding, so the branch carries a placeholder
// suffix.
func (m *Manager) Plan(ctx context.Context, task string) *Worktree {
	if !m.git.IsRepository(ctx) {
		return nil
	}
	branch := fmt.Sprintf("%s%s-pending", branchPrefix, slug(task))
	return &Worktree{
		Branch: branch,
		Path:   filepath.Join(m.base, strings.ReplaceAll(branch, "/", "-")),
	}
}

// Remove tears down a worktree and its branch. Failures are swallowed;
// cleanup must never fail the task.
func (m *Manager) Remove(ctx context.Context, wt *Worktree) {
	if wt == nil || wt.Path == "" || wt.Branch == "" {
		return
	}
	_ = m.git.WorktreeRemove(ctx, wt.Path)
	_ = m.git.DeleteBranch(ctx, wt.Branch)
}

// Orphans lists leftover task worktrees from earlier runs, parsed from
// porcelain worktree output.
func (m *Manager) Orphans(ctx context.Context) ([]Worktree, error) {
	out, err := m.git.WorktreeListPorcelain(ctx)
	if err != nil {
		return nil, fmt.Errorf("list worktrees: %w", err)
	}

	var orphans []Worktree
	var current Worktree
	for _, line := range strings.Split(out, "\n") {
		switch {
		case strings.HasPrefix(line, "worktree "):
			current = Worktree{Path: strings.TrimPrefix(line, "worktree ")}
		case strings.HasPrefix(line, "branch "):
			ref := strings.TrimPrefix(line, "branch ")
			current.Branch = strings.TrimPrefix(ref, "refs/heads/")
		case line == "":
			if strings.HasPrefix(current.Branch, branchPrefix) {
				orphans = append(orphans, current)
			}
			current = Worktree{}
		}
	}
	if strings.HasPrefix(current.Branch, branchPrefix) {
		orphans = append(orphans, current)
	}
	return orphans, nil
}

// CleanOrphans removes every leftover task worktree and prunes stale
// metadata. Returns how many were removed.
func (m *Manager) CleanOrphans(ctx context.Context) (int, error) {
	orphans, err := m.Orphans(ctx)
	if err != nil {
		return 0, err
	}
	for i := range orphans {
		m.Remove(ctx, &orphans[i])
	}
	_ = m.git.WorktreePruneExpireNow(ctx)
	return len(orphans), nil
}
