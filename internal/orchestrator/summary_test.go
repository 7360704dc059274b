package orchestrator

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/blacksmith-cli/blacksmith/internal/brain"
	"github.com/blacksmith-cli/blacksmith/pkg/models"
)

func TestExtractSectionList(t *testing.T) {
	text := strings.Join([]string{
		"## Decisions",
		"- use exponential backoff",
		"* cap retries at five",
		"",
		"## Patterns Discovered",
		"- http clients need explicit timeouts",
		"plain line is ignored",
	}, "\n")

	decisions := extractSectionList("decision", text)
	want := []string{"use exponential backoff", "cap retries at five"}
	if !reflect.DeepEqual(decisions, want) {
		t.Errorf("decisions = %v, want %v", decisions, want)
	}

	patterns := extractSectionList("pattern", text)
	if !reflect.DeepEqual(patterns, []string{"http clients need explicit timeouts"}) {
		t.Errorf("patterns = %v", patterns)
	}

	if got := extractSectionList("prerequisite", text); got != nil {
		t.Errorf("missing section should yield nil, got %v", got)
	}
}

func TestExtractSectionListCaps(t *testing.T) {
	var lines []string
	lines = append(lines, "## Decisions")
	for i := 0; i < 10; i++ {
		lines = append(lines, "- item")
	}
	got := extractSectionList("decision", strings.Join(lines, "\n"))
	if len(got) != maxExtractedItems {
		t.Errorf("extracted %d items, want %d", len(got), maxExtractedItems)
	}
}

func TestCompressExecutionFallbacks(t *testing.T) {
	summary := CompressExecution(CompressInput{
		Command: "debug",
		Task:    "fix the flaky test",
		Model:   "claude-code",
		Backend: "claude",
		Result:  &models.ExecutionResult{Text: "the test was flaky because of a shared port"},
		Classification: models.Classification{
			TaskType:      "debugging",
			Complexity:    models.ComplexityMedium,
			Department:    "engineering",
			Tier:          models.Tier2,
			ContextNeeded: []string{"internal/server/server_test.go"},
		},
	})

	if summary.Task != "debug: fix the flaky test" {
		t.Errorf("task = %q", summary.Task)
	}
	if !reflect.DeepEqual(summary.Decisions, []string{"Completed debug workflow"}) {
		t.Errorf("decisions fallback = %v", summary.Decisions)
	}
	if !reflect.DeepEqual(summary.Patterns, []string{"Tier 2 routing used"}) {
		t.Errorf("patterns fallback = %v", summary.Patterns)
	}
	wantTags := []string{"engineering", "debugging", "medium", "server_test.go"}
	if !reflect.DeepEqual(summary.Tags, wantTags) {
		t.Errorf("tags = %v, want %v", summary.Tags, wantTags)
	}
}

func TestCompressExecutionMinesSections(t *testing.T) {
	outcome := "## Decisions\n- picked sqlite\n\n## Prerequisites\n- run migrations first"
	summary := CompressExecution(CompressInput{
		Command:        "build",
		Task:           "add persistence",
		Result:         &models.ExecutionResult{Text: outcome},
		Classification: models.Classification{TaskType: "implementation", Tier: models.Tier2},
	})
	if !reflect.DeepEqual(summary.Decisions, []string{"picked sqlite"}) {
		t.Errorf("decisions = %v", summary.Decisions)
	}
	if !reflect.DeepEqual(summary.Prereqs, []string{"run migrations first"}) {
		t.Errorf("prereqs = %v", summary.Prereqs)
	}
}

func TestRenderSummaryMarkdown(t *testing.T) {
	md := RenderSummaryMarkdown(brain.TaskSummary{
		Task:       "debug: fix it",
		Model:      "claude-code",
		Department: "engineering",
		Decisions:  []string{"rebuilt the index"},
		Patterns:   []string{"watch for stale caches"},
		Tags:       []string{"engineering", "debugging"},
	}, models.CostEstimate{PromptTokens: 120, CompletionTokens: 80, EstimatedCost: 0.001234})

	for _, want := range []string{
		"## Task: debug: fix it",
		"**Model Used**: claude-code",
		"**Tokens**: 120 in / 80 out ($0.001234)",
		"**Project**: blacksmith | **Dept**: engineering",
		"### Decisions\n- rebuilt the index",
		"### Prerequisites for Follow-up\n- None recorded",
		"### Tags\nengineering, debugging",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("summary missing %q:\n%s", want, md)
		}
	}
}

type recordingQuerier struct {
	appended map[string]string
	failOn   string
}

func (r *recordingQuerier) Query(ctx context.Context, text string) (*brain.QueryResult, error) {
	return &brain.QueryResult{}, nil
}

func (r *recordingQuerier) QueryPrerequisites(ctx context.Context, task string, c models.Classification) ([]string, error) {
	return nil, nil
}

func (r *recordingQuerier) AppendSummary(ctx context.Context, notebook, markdown string) error {
	if notebook == r.failOn {
		return errors.New("notebook locked")
	}
	if r.appended == nil {
		r.appended = map[string]string{}
	}
	r.appended[notebook] = markdown
	return nil
}

func TestStoreSummarySwallowsNotebookFailures(t *testing.T) {
	querier := &recordingQuerier{failOn: "errors"}
	summary := brain.TaskSummary{
		Task: "debug: failed run", Department: "engineering", Outcome: "the error was a nil map",
	}

	notebooks := StoreSummary(context.Background(), querier, summary, models.CostEstimate{})
	if len(notebooks) < 2 {
		t.Fatalf("notebooks = %v", notebooks)
	}
	if _, ok := querier.appended["history-engineering"]; !ok {
		t.Errorf("department history not written: %v", querier.appended)
	}
	// The failing notebook still appears in the routed list.
	found := false
	for _, n := range notebooks {
		if n == "errors" {
			found = true
		}
	}
	if !found {
		t.Errorf("errors notebook should be routed despite the append failure: %v", notebooks)
	}
}
