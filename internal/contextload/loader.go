// Package contextload gathers the working material an agent receives:
// requested files, staged and PR diffs, the project manifest, recent
// commits, and blame for the touched files. Sources that cannot be read
// degrade to empty rather than failing the invocation.
package contextload

import (
	"context"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/blacksmith-cli/blacksmith/internal/exec"
	"github.com/blacksmith-cli/blacksmith/internal/git"
)

// blameLines bounds blame output to the head of each file.
const blameLines = 20

// recentCommits is how many log lines feed the recent-changes section.
const recentCommits = 5

// manifestNames are probed in order; the first readable one becomes the
// manifest section.
var manifestNames = []string{"go.mod", "package.json", "Cargo.toml", "pyproject.toml"}

// File is one requested file with its resolved path and content. Loaded is
// false when the file could not be read.
type File struct {
	Path     string
	Absolute string
	Content  string
	Loaded   bool
}

// ContextSet is everything loaded for one invocation.
type ContextSet struct {
	CWD           string
	Files         []File
	StagedDiff    string
	PRDiff        string
	Manifest      string
	ManifestName  string
	RecentChanges string
	Blame         map[string]string
}

// HasManifest reports whether a project manifest was found.
func (c *ContextSet) HasManifest() bool { return c.Manifest != "" }

// Request selects what to load.
type Request struct {
	CWD          string
	FilePaths    []string
	ReviewStaged bool
	PRNumber     int
	// MaxTokens caps the loaded context; the least valuable sections are
	// shed first. Zero means no limit.
	MaxTokens int
}

// Loader reads invocation context from the filesystem and git.
type Loader struct {
	cmd exec.CommandRunner
}

// NewLoader creates a Loader using the given command runner for git and gh.
func NewLoader(cmd exec.CommandRunner) *Loader {
	if cmd == nil {
		cmd = exec.NewRunner()
	}
	return &Loader{cmd: cmd}
}

// Load gathers all requested context. Individual sources that fail are
// returned empty; only context cancellation aborts the load.
func (l *Loader) Load(ctx context.Context, req Request) (*ContextSet, error) {
	set := &ContextSet{
		CWD:   req.CWD,
		Files: make([]File, len(req.FilePaths)),
		Blame: make(map[string]string, len(req.FilePaths)),
	}
	repo := git.NewRunner(req.CWD, l.cmd)

	g, gctx := errgroup.WithContext(ctx)

	for i, p := range req.FilePaths {
		i, p := i, p
		g.Go(func() error {
			abs := p
			if !filepath.IsAbs(abs) {
				abs = filepath.Join(req.CWD, p)
			}
			f := File{Path: p, Absolute: abs}
			if data, err := os.ReadFile(abs); err == nil {
				f.Content = string(data)
				f.Loaded = true
			}
			set.Files[i] = f
			return gctx.Err()
		})
	}

	if req.ReviewStaged {
		g.Go(func() error {
			if diff, err := repo.StagedDiff(gctx); err == nil {
				set.StagedDiff = diff
			}
			return gctx.Err()
		})
	}

	if req.PRNumber > 0 {
		g.Go(func() error {
			if out, err := l.cmd.Run(gctx, req.CWD, "gh", "pr", "diff", strconv.Itoa(req.PRNumber)); err == nil {
				set.PRDiff = out
			}
			return gctx.Err()
		})
	}

	g.Go(func() error {
		for _, name := range manifestNames {
			if data, err := os.ReadFile(filepath.Join(req.CWD, name)); err == nil {
				set.Manifest = string(data)
				set.ManifestName = name
				break
			}
		}
		return gctx.Err()
	})

	g.Go(func() error {
		if out, err := repo.RecentLog(gctx, recentCommits); err == nil {
			set.RecentChanges = out
		}
		return gctx.Err()
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Blame runs after the fan-out so the map needs no locking.
	for _, p := range req.FilePaths {
		if out, err := repo.BlameHead(ctx, p, blameLines); err == nil {
			set.Blame[p] = out
		}
	}

	return Truncate(set, req.MaxTokens), nil
}
