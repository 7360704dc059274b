package orchestrator

import (
	"fmt"
	"strings"

	"github.com/blacksmith-cli/blacksmith/internal/brain"
	"github.com/blacksmith-cli/blacksmith/internal/contextload"
	"github.com/blacksmith-cli/blacksmith/internal/identity"
	"github.com/blacksmith-cli/blacksmith/pkg/models"
)

// maxBrainExcerpts caps how many knowledge-base lines enter the spec.
const maxBrainExcerpts = 6

// maxBrainPrerequisites caps prior-knowledge lines from earlier tasks.
const maxBrainPrerequisites = 8

// AssembleInput is everything the assembler consumes. The transform is
// deterministic and has no side effects.
type AssembleInput struct {
	Identity      *identity.Identity
	Classification models.Classification
	Context       *contextload.ContextSet
	Brain         *brain.QueryResult
	SubAgents     []models.SubAgentSpec
	Prerequisites []string
	Task          string
	Backend       string
	Model         string
}

func roleForTask(taskType string) string {
	switch taskType {
	case "code_review":
		return "Senior code reviewer"
	case "debugging":
		return "Senior debugging engineer"
	case "implementation":
		return "Senior implementation engineer"
	case "research", "comparison", "summarization":
		return "Senior research analyst"
	case "deployment", "diagnosis", "provisioning":
		return "Senior infrastructure engineer"
	case "refactor":
		return "Senior refactoring engineer"
	case "commit_message":
		return "Senior release operator"
	default:
		return "Senior technical assistant"
	}
}

func outputSpecFor(c models.Classification) models.OutputSpec {
	switch {
	case c.TaskType == "code_review":
		return models.OutputSpec{Format: "structured_review", Sections: []string{"Findings", "Risks", "Recommendations"}}
	case c.Department == "research":
		return models.OutputSpec{Format: "research_report", Sections: []string{"Findings", "Tradeoffs", "Recommendation"}}
	case c.TaskType == "commit_message":
		return models.OutputSpec{Format: "commit_message", Sections: []string{"Commit Message", "Rationale"}}
	default:
		return models.OutputSpec{Format: "implementation_notes", Sections: []string{"Plan", "Changes", "Notes"}}
	}
}

func maxTokensFor(complexity models.Complexity) int {
	switch complexity {
	case models.ComplexityHigh:
		return 6000
	case models.ComplexityMedium:
		return 3000
	default:
		return 1200
	}
}

// AssembleSpec builds the agent spec for one Tier 2 invocation.
func AssembleSpec(in AssembleInput) *models.AgentSpec {
	c := in.Classification
	dept := in.Identity.Department(c.Department)

	focus := c.Department
	var methodology []string
	var safety []string
	if dept != nil {
		if dept.Focus != "" {
			focus = dept.Focus
		}
		methodology = dept.Methodology
		for _, pair := range []struct{ label, value string }{
			{"Review standard", dept.ReviewStandard},
			{"Output standard", dept.OutputStandard},
			{"Safety standard", dept.SafetyStandard},
			{"Automation level", dept.AutomationLevel},
		} {
			if pair.value != "" {
				safety = append(safety, pair.label+": "+pair.value)
			}
		}
	}

	constraints := []string{"Minimize context - only use relevant inputs"}
	switch c.Department {
	case "engineering":
		constraints = append(constraints, "Prioritize correctness before style")
	case "research":
		constraints = append(constraints, "Cite concrete evidence from available context")
	}

	tone := "Direct, technical, no fluff"
	if in.Identity.Owner.CommunicationStyle != "" {
		tone = in.Identity.Owner.CommunicationStyle
	}

	prerequisites := []string{
		"Department: " + c.Department,
		"Complexity: " + string(c.Complexity),
	}
	for _, f := range in.Context.Files {
		prerequisites = append(prerequisites, "Loaded file: "+f.Path)
	}
	prerequisites = append(prerequisites, brainExcerptLines(in.Brain)...)
	for i, p := range in.Prerequisites {
		if i >= maxBrainPrerequisites {
			break
		}
		prerequisites = append(prerequisites, "[Brain] "+p)
	}
	if in.Context.StagedDiff != "" {
		prerequisites = append(prerequisites, "Review staged git diff")
	}
	if in.Context.PRDiff != "" {
		prerequisites = append(prerequisites, "Review pull request diff")
	}

	skills := []string{"file_read"}
	if in.Context.StagedDiff != "" || in.Context.PRDiff != "" {
		skills = append(skills, "git_diff")
	}
	if len(in.Context.Files) > 0 {
		skills = append(skills, "context_loader")
	}
	if len(in.SubAgents) > 0 {
		skills = append(skills, "sub_agent_dispatch")
	}

	refs := make([]models.ContextRef, 0, len(in.Context.Files))
	for _, f := range in.Context.Files {
		refs = append(refs, models.ContextRef{Path: f.Path, Role: "primary context"})
	}

	temperature := 0.2
	if c.Department == "research" {
		temperature = 0.4
	}
	timeout := "30s"
	if c.Complexity == models.ComplexityHigh {
		timeout = "90s"
	}

	ownerName := in.Identity.Owner.Name
	return &models.AgentSpec{
		Department:  c.Department,
		Methodology: methodology,
		Constraints: constraints,
		Soul: models.Soul{
			Identity: fmt.Sprintf("%s for %s, focused on %s", roleForTask(c.TaskType), ownerName, focus),
			Values:   in.Identity.Values,
			Tone:     tone,
			Owner:    models.Owner{Name: ownerName, Role: in.Identity.Owner.Role},
		},
		Prerequisites: prerequisites,
		Context: models.SpecContext{
			CWD:         in.Context.CWD,
			Files:       refs,
			HasManifest: in.Context.HasManifest(),
		},
		Output:    outputSpecFor(c),
		Skills:    skills,
		SubAgents: in.SubAgents,
		Safety:    safety,
		Runtime: models.RuntimeSpec{
			Backend:     in.Backend,
			Model:       in.Model,
			MaxTokens:   maxTokensFor(c.Complexity),
			Temperature: temperature,
			Timeout:     timeout,
		},
		Task: in.Task,
	}
}

// brainExcerptLines flattens query results into at most maxBrainExcerpts
// short lines, taking up to three lines per excerpt.
func brainExcerptLines(result *brain.QueryResult) []string {
	if result == nil {
		return nil
	}
	var lines []string
	for _, excerpt := range result.Results {
		taken := 0
		for _, line := range strings.Split(excerpt.Text, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			lines = append(lines, line)
			taken++
			if taken == 3 || len(lines) == maxBrainExcerpts {
				break
			}
		}
		if len(lines) == maxBrainExcerpts {
			break
		}
	}
	return lines
}

// RenderPrompt serializes a spec plus raw context into the final prompt.
// Section order is fixed; empty optional sections are omitted entirely.
func RenderPrompt(spec *models.AgentSpec, set *contextload.ContextSet, task string) string {
	var b strings.Builder
	line := func(s string) { b.WriteString(s); b.WriteByte('\n') }
	list := func(header string, items []string) {
		if len(items) == 0 {
			return
		}
		line("")
		line(header)
		for _, item := range items {
			line("- " + item)
		}
	}

	line(fmt.Sprintf("You are %s.", spec.Soul.Identity))
	line(fmt.Sprintf("Tone: %s.", spec.Soul.Tone))
	line(fmt.Sprintf("Owner context: %s (%s).", spec.Soul.Owner.Name, spec.Soul.Owner.Role))

	list("Constraints:", spec.Constraints)
	list("Values:", spec.Soul.Values)

	line("")
	line("Task:")
	line(task)

	methodology := spec.Methodology
	if len(methodology) == 0 {
		methodology = []string{"Use pragmatic judgment."}
	}
	list("Methodology:", methodology)
	list("Prerequisites:", spec.Prerequisites)
	list("Safety:", spec.Safety)

	if len(spec.SubAgents) > 0 {
		line("")
		line("Sub-agents:")
		for _, agent := range spec.SubAgents {
			line(fmt.Sprintf("- %s (%s): %s", agent.Name, agent.Model, agent.Prompt))
		}
	}
	list("Skills:", spec.Skills)

	block := func(header, lang, content string) {
		if content == "" {
			return
		}
		line("")
		line(header)
		line("```" + lang)
		line(strings.TrimSpace(content))
		line("```")
	}

	if set.Manifest != "" {
		name := set.ManifestName
		if name == "" {
			name = "manifest"
		}
		block(name+":", manifestLang(name), set.Manifest)
	}
	for _, f := range set.Files {
		if f.Content == "" {
			continue
		}
		block("File: "+f.Path, "", f.Content)
	}
	block("Staged diff:", "diff", set.StagedDiff)
	block("PR diff:", "diff", set.PRDiff)
	block("Recent git changes:", "text", set.RecentChanges)
	for _, f := range set.Files {
		block("Git blame for "+f.Path+":", "text", set.Blame[f.Path])
	}

	return strings.TrimSuffix(b.String(), "\n")
}

func manifestLang(name string) string {
	switch {
	case strings.HasSuffix(name, ".json"):
		return "json"
	case strings.HasSuffix(name, ".toml"):
		return "toml"
	default:
		return "text"
	}
}
