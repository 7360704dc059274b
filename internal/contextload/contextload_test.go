package contextload

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// stubCommandRunner serves canned output per command name.
type stubCommandRunner struct {
	outputs map[string]string
	errs    map[string]error
}

func (s *stubCommandRunner) Run(ctx context.Context, workDir, name string, args ...string) (string, error) {
	key := name
	if len(args) > 0 {
		key = name + " " + args[0]
	}
	if err, ok := s.errs[key]; ok {
		return "", err
	}
	if out, ok := s.outputs[key]; ok {
		return out, nil
	}
	return "", os.ErrNotExist
}

func (s *stubCommandRunner) RunInput(ctx context.Context, workDir, input, name string, args ...string) (string, error) {
	return s.Run(ctx, workDir, name, args...)
}

func (s *stubCommandRunner) LookPath(name string) bool { return true }

func TestLoadReadsFilesAndManifest(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module example.com/app\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cmd := &stubCommandRunner{outputs: map[string]string{
		"git log":   "abc123 first\n",
		"git blame": "abc123 (dev) package main\n",
	}}
	loader := NewLoader(cmd)

	set, err := loader.Load(context.Background(), Request{
		CWD:       dir,
		FilePaths: []string{"main.go", "missing.go"},
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if !set.Files[0].Loaded || set.Files[0].Content != "package main\n" {
		t.Errorf("first file not loaded: %+v", set.Files[0])
	}
	if set.Files[1].Loaded {
		t.Error("missing file should not be marked loaded")
	}
	if !set.HasManifest() || set.ManifestName != "go.mod" {
		t.Errorf("manifest = %q (%q)", set.ManifestName, set.Manifest)
	}
	if set.RecentChanges == "" {
		t.Error("recent changes should come from git log")
	}
}

func TestLoadDegradesWhenGitFails(t *testing.T) {
	dir := t.TempDir()
	cmd := &stubCommandRunner{errs: map[string]error{
		"git diff":  os.ErrPermission,
		"git log":   os.ErrPermission,
		"git blame": os.ErrPermission,
		"gh pr":     os.ErrPermission,
	}}
	loader := NewLoader(cmd)

	set, err := loader.Load(context.Background(), Request{
		CWD:          dir,
		FilePaths:    []string{"a.go"},
		ReviewStaged: true,
		PRNumber:     42,
	})
	if err != nil {
		t.Fatalf("Load should degrade, got %v", err)
	}
	if set.StagedDiff != "" || set.PRDiff != "" || set.RecentChanges != "" {
		t.Errorf("failed sources should be empty: %+v", set)
	}
	if len(set.Blame) != 0 {
		t.Errorf("blame should be empty, got %v", set.Blame)
	}
}

func TestEstimateContextTokens(t *testing.T) {
	set := &ContextSet{
		Files:      []File{{Content: strings.Repeat("a", 40)}},
		StagedDiff: strings.Repeat("b", 20),
		Blame:      map[string]string{"f": strings.Repeat("c", 8)},
	}
	if got := EstimateContextTokens(set); got != 10+5+2 {
		t.Errorf("EstimateContextTokens = %d, want 17", got)
	}
}

func TestLoadAppliesTokenBudget(t *testing.T) {
	dir := t.TempDir()
	big := strings.Repeat("x", 4000)
	if err := os.WriteFile(filepath.Join(dir, "big.go"), []byte(big), 0644); err != nil {
		t.Fatal(err)
	}

	cmd := &stubCommandRunner{outputs: map[string]string{
		"git log": strings.Repeat("abc123 change\n", 100),
	}}
	loader := NewLoader(cmd)

	set, err := loader.Load(context.Background(), Request{
		CWD:       dir,
		FilePaths: []string{"big.go"},
		MaxTokens: 500,
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := EstimateContextTokens(set); got > 500 {
		t.Errorf("loaded context is %d tokens, budget 500", got)
	}
	if set.RecentChanges != "" {
		t.Error("recent changes should be shed before file content")
	}
	if len(set.Files[0].Content) >= len(big) {
		t.Error("oversized file should be clipped to fit the budget")
	}
}

func TestTruncateNoopUnderBudget(t *testing.T) {
	set := &ContextSet{StagedDiff: "small"}
	if out := Truncate(set, 1000); out != set {
		t.Error("under-budget context should pass through unchanged")
	}
	if out := Truncate(set, 0); out != set {
		t.Error("zero budget means no limit")
	}
}

func TestTruncateDropOrder(t *testing.T) {
	set := &ContextSet{
		Files:         []File{{Path: "a", Content: strings.Repeat("x", 400)}},
		StagedDiff:    strings.Repeat("s", 400),
		PRDiff:        strings.Repeat("p", 400),
		Manifest:      strings.Repeat("m", 400),
		RecentChanges: strings.Repeat("r", 400),
		Blame:         map[string]string{"a": strings.Repeat("b", 400)},
	}

	// 400 tokens keeps files + staged diff + manifest + recent changes but
	// not blame; each section is 100 tokens, total 600.
	out := Truncate(set, 400)
	if len(out.Blame) != 0 {
		t.Error("blame drops first")
	}
	if out.RecentChanges != "" {
		t.Error("recent changes drops second")
	}
	if out.StagedDiff == "" || out.Manifest == "" {
		t.Error("staged diff and manifest should survive a 400-token budget")
	}
	if out.Files[0].Content == "" {
		t.Error("file content should survive a 400-token budget")
	}

	// The input must not be modified.
	if len(set.Blame) != 1 || set.RecentChanges == "" {
		t.Error("Truncate mutated its input")
	}
}

func TestTruncateClipsFilesLastFirst(t *testing.T) {
	set := &ContextSet{
		Files: []File{
			{Path: "first", Content: strings.Repeat("a", 400)},
			{Path: "second", Content: strings.Repeat("b", 400)},
		},
	}

	// 200 tokens total, budget 150: the last file gives up 50 tokens via a
	// partial clip, the first stays whole.
	out := Truncate(set, 150)
	if got := len(out.Files[1].Content); got != 200 {
		t.Errorf("last file should be clipped to 200 chars, got %d", got)
	}
	if got := len(out.Files[0].Content); got != 400 {
		t.Errorf("first file should be untouched, got %d chars", got)
	}
	if got := EstimateContextTokens(out); got > 150 {
		t.Errorf("truncated context is %d tokens, budget 150", got)
	}

	// A tighter budget empties the last file and clips the first.
	out = Truncate(set, 60)
	if out.Files[1].Content != "" {
		t.Errorf("last file should be emptied, got %d chars", len(out.Files[1].Content))
	}
	if got := len(out.Files[0].Content); got != 240 {
		t.Errorf("first file should be clipped to 240 chars, got %d", got)
	}
}
