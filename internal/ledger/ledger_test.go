package ledger

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/blacksmith-cli/blacksmith/pkg/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func entry(backend, workflow string, cost float64) *models.LedgerEntry {
	return &models.LedgerEntry{
		CreatedAt:        time.Now().UTC(),
		Command:          "build",
		Backend:          backend,
		Model:            "sonnet",
		Workflow:         workflow,
		Department:       "engineering",
		PromptTokens:     100,
		CompletionTokens: 50,
		EstimatedCost:    cost,
		DurationMS:       1200,
		Success:          true,
	}
}

func TestAppendAndTotals(t *testing.T) {
	s := openTestStore(t)

	if err := s.Append(entry("claude", "tier2", 0.25)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := s.Append(entry("ollama", "tier1", 0)); err != nil {
		t.Fatalf("Append: %v", err)
	}

	n, err := s.TotalCalls()
	if err != nil {
		t.Fatalf("TotalCalls: %v", err)
	}
	if n != 2 {
		t.Errorf("TotalCalls = %d, want 2", n)
	}

	totals, err := s.Report(ReportOptions{})
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if totals.Calls != 2 || totals.TotalCost != 0.25 {
		t.Errorf("totals = %+v", totals)
	}
	if totals.PromptTokens != 200 || totals.CompletionTokens != 100 {
		t.Errorf("token totals = %+v", totals)
	}
}

func TestDailySummaryAccumulates(t *testing.T) {
	s := openTestStore(t)

	for i := 0; i < 3; i++ {
		if err := s.Append(entry("claude", "tier2", 0.1)); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if err := s.Append(entry("ollama", "tier1", 0)); err != nil {
		t.Fatalf("Append: %v", err)
	}

	days, err := s.Daily()
	if err != nil {
		t.Fatalf("Daily: %v", err)
	}
	if len(days) != 1 {
		t.Fatalf("days = %d, want 1 (all entries today)", len(days))
	}

	day := days[0]
	if day.TotalTokens != 4*150 {
		t.Errorf("TotalTokens = %d, want 600", day.TotalTokens)
	}
	if day.CallsByBackend["claude"] != 3 || day.CallsByBackend["ollama"] != 1 {
		t.Errorf("CallsByBackend = %v", day.CallsByBackend)
	}
	if day.CallsByWorkflow["tier2"] != 3 {
		t.Errorf("CallsByWorkflow = %v", day.CallsByWorkflow)
	}
}

func TestDailySummaryConcurrentStores(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")

	// Two handles on one database file stand in for two blacksmith
	// processes appending at the same time.
	first, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer first.Close()
	second, err := Open(path)
	if err != nil {
		t.Fatalf("Open second handle: %v", err)
	}
	defer second.Close()

	const perStore = 50
	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, s := range []*Store{first, second} {
		wg.Add(1)
		go func(s *Store) {
			defer wg.Done()
			for i := 0; i < perStore; i++ {
				if err := s.Append(entry("claude", "tier2", 0.01)); err != nil {
					errs <- err
					return
				}
			}
		}(s)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("Append: %v", err)
	}

	n, err := first.TotalCalls()
	if err != nil {
		t.Fatalf("TotalCalls: %v", err)
	}
	if n != 2*perStore {
		t.Fatalf("TotalCalls = %d, want %d", n, 2*perStore)
	}

	days, err := first.Daily()
	if err != nil {
		t.Fatalf("Daily: %v", err)
	}
	if len(days) != 1 {
		t.Fatalf("days = %d, want 1", len(days))
	}
	if got := days[0].CallsByBackend["claude"]; got != 2*perStore {
		t.Errorf("backend counter = %d, want %d (no increments lost)", got, 2*perStore)
	}
	if days[0].TotalTokens != 2*perStore*150 {
		t.Errorf("TotalTokens = %d, want %d", days[0].TotalTokens, 2*perStore*150)
	}
}

func TestReportBy(t *testing.T) {
	s := openTestStore(t)

	if err := s.Append(entry("claude", "tier2", 0.5)); err != nil {
		t.Fatal(err)
	}
	if err := s.Append(entry("ollama", "tier1", 0)); err != nil {
		t.Fatal(err)
	}

	rows, err := s.ReportBy("backend", ReportOptions{})
	if err != nil {
		t.Fatalf("ReportBy: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %v", rows)
	}
	if rows[0].Key != "claude" {
		t.Errorf("highest spend should sort first, got %q", rows[0].Key)
	}

	if _, err := s.ReportBy("model; DROP TABLE ledger_entries", ReportOptions{}); err == nil {
		t.Error("unexpected group column should be rejected")
	}
}

func TestRecentNewestFirst(t *testing.T) {
	s := openTestStore(t)

	first := entry("claude", "tier2", 0.1)
	first.Command = "ask"
	second := entry("ollama", "tier1", 0)
	second.Command = "commit"
	second.Escalated = true
	second.Metadata = map[string]string{"note": "fallback"}

	if err := s.Append(first); err != nil {
		t.Fatal(err)
	}
	if err := s.Append(second); err != nil {
		t.Fatal(err)
	}

	entries, err := s.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Command != "commit" {
		t.Errorf("newest entry should be first, got %q", entries[0].Command)
	}
	if !entries[0].Escalated {
		t.Error("escalated flag should round-trip")
	}
	if entries[0].Metadata["note"] != "fallback" {
		t.Errorf("metadata should round-trip, got %v", entries[0].Metadata)
	}
}

func TestPurge(t *testing.T) {
	s := openTestStore(t)

	old := entry("claude", "tier2", 0.1)
	old.CreatedAt = time.Now().UTC().AddDate(0, 0, -100)
	if err := s.Append(old); err != nil {
		t.Fatal(err)
	}
	if err := s.Append(entry("claude", "tier2", 0.1)); err != nil {
		t.Fatal(err)
	}

	removed, err := s.Purge(90)
	if err != nil {
		t.Fatalf("Purge: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}

	// Retention disabled.
	removed, err = s.Purge(0)
	if err != nil || removed != 0 {
		t.Errorf("Purge(0) = %d, %v", removed, err)
	}
}
