package orchestrator

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/blacksmith-cli/blacksmith/internal/ledger"
	"github.com/blacksmith-cli/blacksmith/pkg/models"
)

func openSeededLedger(t *testing.T, entries []models.LedgerEntry) *ledger.Store {
	t.Helper()
	store, err := ledger.Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	for i := range entries {
		if err := store.Append(&entries[i]); err != nil {
			t.Fatal(err)
		}
	}
	return store
}

func freeCall(workflow, backend string) models.LedgerEntry {
	return models.LedgerEntry{
		Command: "x", Backend: backend, Model: "m", Workflow: workflow,
		Department: "engineering", DurationMS: 100, Success: true,
	}
}

func TestAnalyzeRoutingSuggestions(t *testing.T) {
	entries := []models.LedgerEntry{
		freeCall("summarization", "ollama"),
		freeCall("summarization", "ollama"),
		freeCall("summarization", "ollama"),
		freeCall("raw_query", "ollama"),
		freeCall("raw_query", "ollama"),
		freeCall("raw_query", "ollama"),
	}
	slow := models.LedgerEntry{
		Command: "build", Backend: "claude", Model: "claude-code", Workflow: "implementation",
		Department: "engineering", DurationMS: 9000, EstimatedCost: 0.05, Success: true,
	}
	entries = append(entries, slow)

	store := openSeededLedger(t, entries)
	analysis, err := AnalyzeRouting(store)
	if err != nil {
		t.Fatal(err)
	}
	if analysis.TotalCalls != 7 {
		t.Errorf("total calls = %d, want 7", analysis.TotalCalls)
	}

	joined := strings.Join(analysis.Suggestions, "\n")
	if !strings.Contains(joined, "promoting 'summarization' on ollama to Tier 1") {
		t.Errorf("missing tier 1 suggestion: %v", analysis.Suggestions)
	}
	if strings.Contains(joined, "raw_query") {
		t.Errorf("raw_query must never be suggested: %v", analysis.Suggestions)
	}
	if !strings.Contains(joined, "'implementation' on claude-code is slow") {
		t.Errorf("missing slowness suggestion: %v", analysis.Suggestions)
	}
}

func TestWriteRoutingReports(t *testing.T) {
	store := openSeededLedger(t, []models.LedgerEntry{freeCall("summarization", "ollama")})
	analysis, err := AnalyzeRouting(store)
	if err != nil {
		t.Fatal(err)
	}

	dir := filepath.Join(t.TempDir(), "reports")
	reportPath, suggestionsPath, err := WriteRoutingReports(dir, analysis)
	if err != nil {
		t.Fatal(err)
	}

	report, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(report), "# Routing Performance Summary") ||
		!strings.Contains(string(report), "summarization via ollama/m: 1 calls") {
		t.Errorf("report content:\n%s", report)
	}
	if _, err := os.Stat(suggestionsPath); err != nil {
		t.Errorf("suggestions report missing: %v", err)
	}
}

func TestMaybeWriteRoutingReportsInterval(t *testing.T) {
	entries := make([]models.LedgerEntry, 0, reportInterval)
	for i := 0; i < reportInterval-1; i++ {
		entries = append(entries, freeCall("debugging", "ollama"))
	}
	store := openSeededLedger(t, entries)
	dir := filepath.Join(t.TempDir(), "reports")

	wrote, err := MaybeWriteRoutingReports(store, dir)
	if err != nil {
		t.Fatal(err)
	}
	if wrote {
		t.Fatalf("should not write at %d entries", reportInterval-1)
	}

	last := freeCall("debugging", "ollama")
	if err := store.Append(&last); err != nil {
		t.Fatal(err)
	}
	wrote, err = MaybeWriteRoutingReports(store, dir)
	if err != nil {
		t.Fatal(err)
	}
	if !wrote {
		t.Fatalf("should write at exactly %d entries", reportInterval)
	}
	if _, err := os.Stat(filepath.Join(dir, "routing-performance.md")); err != nil {
		t.Errorf("routing report not written: %v", err)
	}
}
