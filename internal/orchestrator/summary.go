package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/blacksmith-cli/blacksmith/internal/brain"
	"github.com/blacksmith-cli/blacksmith/pkg/models"
)

// maxExtractedItems caps how many bullets an outcome section contributes.
const maxExtractedItems = 6

var headingPattern = regexp.MustCompile(`^#+\s+`)
var bulletPattern = regexp.MustCompile(`^[-*]\s+`)

// extractSectionList pulls bullet lines from the section whose heading
// contains the given word, stopping at the next heading.
func extractSectionList(heading, text string) []string {
	var hits []string
	capture := false
	for _, line := range strings.Split(text, "\n") {
		if strings.Contains(strings.ToLower(line), strings.ToLower(heading)) {
			capture = true
			continue
		}
		if capture && headingPattern.MatchString(line) {
			break
		}
		trimmed := strings.TrimSpace(line)
		if capture && bulletPattern.MatchString(trimmed) {
			hits = append(hits, bulletPattern.ReplaceAllString(trimmed, ""))
			if len(hits) == maxExtractedItems {
				break
			}
		}
	}
	return hits
}

// CompressInput carries everything folded into a task summary.
type CompressInput struct {
	Command        string
	Task           string
	Model          string
	Backend        string
	Result         *models.ExecutionResult
	Classification models.Classification
	Cost           models.CostEstimate
	Project        string
	Escalated      bool
}

// CompressExecution distills a finished execution into the summary stored
// in the knowledge base. Decisions, patterns, and prerequisites are mined
// from the outcome's markdown sections, with fixed fallbacks so every
// summary carries something useful.
func CompressExecution(in CompressInput) brain.TaskSummary {
	outcome := strings.TrimSpace(in.Result.Text)

	decisions := extractSectionList("decision", outcome)
	if len(decisions) == 0 {
		decisions = []string{fmt.Sprintf("Completed %s workflow", in.Command)}
	}
	patterns := extractSectionList("pattern", outcome)
	if len(patterns) == 0 {
		patterns = []string{fmt.Sprintf("Tier %d routing used", in.Classification.Tier)}
	}
	prereqs := extractSectionList("prerequisite", outcome)

	tags := []string{in.Classification.Department, in.Classification.TaskType, string(in.Classification.Complexity)}
	for _, p := range in.Classification.ContextNeeded {
		tags = append(tags, filepath.Base(p))
	}

	return brain.TaskSummary{
		Task:       in.Command + ": " + in.Task,
		Command:    in.Command,
		Model:      in.Model,
		Backend:    in.Backend,
		Project:    in.Project,
		Department: in.Classification.Department,
		Outcome:    outcome,
		Decisions:  decisions,
		Patterns:   patterns,
		Prereqs:    prereqs,
		Tags:       tags,
		Escalated:  in.Escalated,
	}
}

// RenderSummaryMarkdown serializes a task summary for notebook storage.
func RenderSummaryMarkdown(summary brain.TaskSummary, cost models.CostEstimate) string {
	var b strings.Builder
	line := func(s string) { b.WriteString(s); b.WriteByte('\n') }

	project := summary.Project
	if project == "" {
		project = "blacksmith"
	}

	line("## Task: " + summary.Task)
	line("**Date**: " + time.Now().UTC().Format(time.RFC3339))
	line("**Model Used**: " + summary.Model)
	line(fmt.Sprintf("**Tokens**: %d in / %d out ($%.6f)", cost.PromptTokens, cost.CompletionTokens, cost.EstimatedCost))
	line(fmt.Sprintf("**Project**: %s | **Dept**: %s", project, summary.Department))
	line("")
	line("### Decisions")
	for _, d := range summary.Decisions {
		line("- " + d)
	}
	line("")
	line("### Patterns Discovered")
	for _, p := range summary.Patterns {
		line("- " + p)
	}
	line("")
	line("### Prerequisites for Follow-up")
	if len(summary.Prereqs) == 0 {
		line("- None recorded")
	}
	for _, p := range summary.Prereqs {
		line("- " + p)
	}
	line("")
	line("### Tags")
	line(strings.Join(summary.Tags, ", "))

	return strings.TrimSuffix(b.String(), "\n")
}

// StoreSummary routes the summary and appends it to every target notebook.
// Individual notebook failures are swallowed; the notebooks that were
// targeted are returned either way.
func StoreSummary(ctx context.Context, querier brain.Querier, summary brain.TaskSummary, cost models.CostEstimate) []string {
	notebooks := brain.RouteTeardown(summary)
	markdown := RenderSummaryMarkdown(summary, cost)
	for _, name := range notebooks {
		_ = querier.AppendSummary(ctx, name, markdown)
	}
	return notebooks
}
