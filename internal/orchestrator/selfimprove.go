package orchestrator

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/blacksmith-cli/blacksmith/internal/ledger"
)

// reportInterval is how many ledger entries between routing reports.
const reportInterval = 50

// RoutingAnalysis is the aggregated routing performance picture.
type RoutingAnalysis struct {
	GeneratedAt time.Time
	TotalCalls  int
	Rows        []RoutingRow
	Suggestions []string
}

// RoutingRow is one workflow/backend/model aggregate.
type RoutingRow struct {
	Workflow      string
	Backend       string
	Model         string
	Calls         int
	Successes     int
	AvgDurationMS float64
	TotalCost     float64
}

// AnalyzeRouting aggregates the ledger by workflow, backend, and model and
// derives tuning suggestions: free high-volume workflows are Tier 1
// candidates, slow ones want their escalation thresholds reviewed.
func AnalyzeRouting(store *ledger.Store) (*RoutingAnalysis, error) {
	entries, err := store.Recent(1 << 20)
	if err != nil {
		return nil, err
	}
	total, err := store.TotalCalls()
	if err != nil {
		return nil, err
	}

	type key struct{ workflow, backend, model string }
	type agg struct {
		calls, successes int
		durationMS       int64
		cost             float64
	}
	groups := map[key]*agg{}
	var order []key
	for _, e := range entries {
		k := key{e.Workflow, e.Backend, e.Model}
		g, ok := groups[k]
		if !ok {
			g = &agg{}
			groups[k] = g
			order = append(order, k)
		}
		g.calls++
		if e.Success {
			g.successes++
		}
		g.durationMS += e.DurationMS
		g.cost += e.EstimatedCost
	}

	analysis := &RoutingAnalysis{GeneratedAt: time.Now().UTC(), TotalCalls: total}
	seen := map[string]bool{}
	suggest := func(s string) {
		if !seen[s] {
			analysis.Suggestions = append(analysis.Suggestions, s)
			seen[s] = true
		}
	}

	for _, k := range order {
		g := groups[k]
		row := RoutingRow{
			Workflow:  k.workflow,
			Backend:   k.backend,
			Model:     k.model,
			Calls:     g.calls,
			Successes: g.successes,
			TotalCost: g.cost,
		}
		if g.calls > 0 {
			row.AvgDurationMS = float64(g.durationMS) / float64(g.calls)
		}
		analysis.Rows = append(analysis.Rows, row)

		if row.Calls >= 3 && row.TotalCost == 0 && row.Workflow != "raw_query" && row.Workflow != "commit_message" {
			suggest(fmt.Sprintf("Consider promoting '%s' on %s to Tier 1 heuristics.", row.Workflow, row.Backend))
		}
		if row.AvgDurationMS > 5000 {
			suggest(fmt.Sprintf("Workflow '%s' on %s is slow; review escalation thresholds.", row.Workflow, row.Model))
		}
	}
	return analysis, nil
}

// WriteRoutingReports renders the analysis into the reports directory and
// returns the two file paths written.
func WriteRoutingReports(dir string, analysis *RoutingAnalysis) (string, string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", "", fmt.Errorf("create reports directory: %w", err)
	}

	var report strings.Builder
	report.WriteString("# Routing Performance Summary\n\n")
	report.WriteString("Generated: " + analysis.GeneratedAt.Format(time.RFC3339) + "\n")
	report.WriteString(fmt.Sprintf("Total calls: %d\n\n## Workflows\n", analysis.TotalCalls))
	for _, row := range analysis.Rows {
		report.WriteString(fmt.Sprintf("- %s via %s/%s: %d calls, %d successes, avg %.2fms, $%.4f\n",
			row.Workflow, row.Backend, row.Model, row.Calls, row.Successes, row.AvgDurationMS, row.TotalCost))
	}

	var suggestions strings.Builder
	suggestions.WriteString("# Orchestrator Prompt Suggestions\n\n")
	for _, s := range analysis.Suggestions {
		suggestions.WriteString("- " + s + "\n")
	}

	reportPath := filepath.Join(dir, "routing-performance.md")
	suggestionsPath := filepath.Join(dir, "orchestrator-suggestions.md")
	if err := os.WriteFile(reportPath, []byte(report.String()), 0644); err != nil {
		return "", "", fmt.Errorf("write routing report: %w", err)
	}
	if err := os.WriteFile(suggestionsPath, []byte(suggestions.String()), 0644); err != nil {
		return "", "", fmt.Errorf("write suggestions report: %w", err)
	}
	return reportPath, suggestionsPath, nil
}

// MaybeWriteRoutingReports regenerates the reports every reportInterval
// ledger entries. Returns true when reports were written.
func MaybeWriteRoutingReports(store *ledger.Store, dir string) (bool, error) {
	total, err := store.TotalCalls()
	if err != nil {
		return false, err
	}
	if total == 0 || total%reportInterval != 0 {
		return false, nil
	}
	analysis, err := AnalyzeRouting(store)
	if err != nil {
		return false, err
	}
	if _, _, err := WriteRoutingReports(dir, analysis); err != nil {
		return false, err
	}
	return true, nil
}
