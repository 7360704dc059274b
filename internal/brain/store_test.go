package brain

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/blacksmith-cli/blacksmith/pkg/models"
)

func testStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()

	registry := `notebooks:
  - name: models
    kind: knowledge
    file: ` + filepath.Join(dir, "models.md") + `
  - name: reference
    kind: knowledge
    file: ` + filepath.Join(dir, "reference.md") + `
  - name: project-blacksmith
    kind: project
    file: ` + filepath.Join(dir, "project.md") + `
  - name: history-engineering
    kind: history
    file: ` + filepath.Join(dir, "history-engineering.md") + `
`
	regPath := filepath.Join(dir, "brain.yaml")
	if err := os.WriteFile(regPath, []byte(registry), 0644); err != nil {
		t.Fatalf("write registry: %v", err)
	}
	return NewStore(regPath, nil), dir
}

func writeNotebook(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("write notebook: %v", err)
	}
}

func TestNotebooksAppliesPathResolver(t *testing.T) {
	dir := t.TempDir()
	registry := "notebooks:\n  - name: models\n    file: ~/.blacksmith/brain/models.md\n"
	regPath := filepath.Join(dir, "brain.yaml")
	if err := os.WriteFile(regPath, []byte(registry), 0644); err != nil {
		t.Fatalf("write registry: %v", err)
	}

	store := NewStore(regPath, func(p string) string {
		return strings.Replace(p, "~/.blacksmith", dir, 1)
	})
	notebooks, err := store.Notebooks()
	if err != nil {
		t.Fatalf("Notebooks: %v", err)
	}
	if want := filepath.Join(dir, "brain/models.md"); notebooks[0].File != want {
		t.Errorf("resolved file = %q, want %q", notebooks[0].File, want)
	}
}

func TestQueryReturnsMatchingLines(t *testing.T) {
	store, dir := testStore(t)
	writeNotebook(t, dir, "models.md", strings.Join([]string{
		"# Models",
		"gemini handles long context well",
		"ollama is free to run",
		"unrelated line about nothing",
	}, "\n"))

	result, err := store.Query(context.Background(), "gemini cost")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if !reflect.DeepEqual(result.Notebooks, []string{"models"}) {
		t.Fatalf("routed notebooks = %v, want [models]", result.Notebooks)
	}
	if len(result.Results) != 1 {
		t.Fatalf("got %d excerpts, want 1", len(result.Results))
	}
	if !strings.Contains(result.Results[0].Text, "gemini handles long context well") {
		t.Errorf("excerpt missing matched line: %q", result.Results[0].Text)
	}
	if strings.Contains(result.Results[0].Text, "unrelated") {
		t.Errorf("excerpt should not include unmatched lines: %q", result.Results[0].Text)
	}
}

func TestQueryMissingNotebookDegrades(t *testing.T) {
	store, dir := testStore(t)
	writeNotebook(t, dir, "reference.md", "reference content about the guide")
	// project.md is never written; the routed notebook file is missing.

	result, err := store.Query(context.Background(), "anything at all")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if !reflect.DeepEqual(result.Notebooks, []string{"reference", "project-blacksmith"}) {
		t.Fatalf("routed notebooks = %v", result.Notebooks)
	}
	if len(result.Results) != 1 || result.Results[0].Notebook != "reference" {
		t.Errorf("missing notebook should drop out of results, got %+v", result.Results)
	}
}

func TestQueryPrerequisites(t *testing.T) {
	store, dir := testStore(t)
	writeNotebook(t, dir, "history-engineering.md", strings.Join([]string{
		"# Task log",
		"",
		"## Prerequisites",
		"- Review the payments schema before touching billing",
		"- Check feature flags in the payments service",
		"- Rotate credentials quarterly",
		"",
		"## Decisions",
		"- Chose sqlite over postgres",
	}, "\n"))
	writeNotebook(t, dir, "project.md", "no prerequisite sections here")

	classification := models.Classification{Department: "engineering"}
	lines, err := store.QueryPrerequisites(context.Background(), "refactor the payments service", classification)
	if err != nil {
		t.Fatalf("QueryPrerequisites: %v", err)
	}

	want := []string{
		"Check feature flags in the payments service",
		"Review the payments schema before touching billing",
	}
	if !reflect.DeepEqual(lines, want) {
		t.Errorf("prerequisites = %v, want %v", lines, want)
	}
}

func TestQueryPrerequisitesMissingNotebooks(t *testing.T) {
	store, _ := testStore(t)

	lines, err := store.QueryPrerequisites(context.Background(), "anything", models.Classification{Department: "research"})
	if err != nil {
		t.Fatalf("QueryPrerequisites: %v", err)
	}
	if len(lines) != 0 {
		t.Errorf("missing notebooks should contribute nothing, got %v", lines)
	}
}

func TestAppendSummary(t *testing.T) {
	store, dir := testStore(t)
	writeNotebook(t, dir, "models.md", "# Models\nexisting entry\n")

	err := store.AppendSummary(context.Background(), "models", "## New task\n- outcome noted\n")
	if err != nil {
		t.Fatalf("AppendSummary: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "models.md"))
	if err != nil {
		t.Fatalf("read notebook: %v", err)
	}
	got := string(raw)
	if !strings.HasSuffix(got, "existing entry\n\n## New task\n- outcome noted\n") {
		t.Errorf("appended content malformed:\n%s", got)
	}
}

func TestAppendSummaryUnknownNotebook(t *testing.T) {
	store, _ := testStore(t)
	err := store.AppendSummary(context.Background(), "nonexistent", "content")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestExtractSectionBullets(t *testing.T) {
	text := strings.Join([]string{
		"## Prerequisites",
		"- first",
		"* second",
		"not a bullet",
		"## Other",
		"- ignored",
	}, "\n")

	got := extractSectionBullets("prerequisite", text)
	if !reflect.DeepEqual(got, []string{"first", "second"}) {
		t.Errorf("bullets = %v", got)
	}
}
