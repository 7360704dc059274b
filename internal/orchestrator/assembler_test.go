package orchestrator

import (
	"reflect"
	"strings"
	"testing"

	"github.com/blacksmith-cli/blacksmith/internal/brain"
	"github.com/blacksmith-cli/blacksmith/internal/contextload"
	"github.com/blacksmith-cli/blacksmith/internal/identity"
	"github.com/blacksmith-cli/blacksmith/pkg/models"
)

func testIdentity() *identity.Identity {
	return &identity.Identity{
		Values: []string{"Ship small, ship often"},
		Owner:  identity.Owner{Name: "Avery", Role: "Staff engineer", CommunicationStyle: "Blunt and brief"},
		Departments: map[string]identity.Department{
			"engineering": {
				Focus:          "backend services",
				Methodology:    []string{"Read before you write"},
				ReviewStandard: "two approvals",
			},
		},
	}
}

func assembleInput() AssembleInput {
	return AssembleInput{
		Identity: testIdentity(),
		Classification: models.Classification{
			TaskType:   "implementation",
			Complexity: models.ComplexityHigh,
			Department: "engineering",
		},
		Context: &contextload.ContextSet{
			CWD:        "/work/repo",
			Files:      []contextload.File{{Path: "main.go", Content: "package main", Loaded: true}},
			StagedDiff: "diff --git a/main.go b/main.go",
		},
		Task:    "add retry logic to the fetcher",
		Backend: "claude",
		Model:   "claude-code",
	}
}

func TestAssembleSpec(t *testing.T) {
	spec := AssembleSpec(assembleInput())

	if spec.Soul.Identity != "Senior implementation engineer for Avery, focused on backend services" {
		t.Errorf("soul identity = %q", spec.Soul.Identity)
	}
	if spec.Soul.Tone != "Blunt and brief" {
		t.Errorf("tone = %q", spec.Soul.Tone)
	}
	if spec.Runtime.MaxTokens != 6000 || spec.Runtime.Timeout != "90s" || spec.Runtime.Temperature != 0.2 {
		t.Errorf("runtime = %+v", spec.Runtime)
	}
	if spec.Output.Format != "implementation_notes" {
		t.Errorf("output format = %q", spec.Output.Format)
	}
	if len(spec.Safety) != 1 || spec.Safety[0] != "Review standard: two approvals" {
		t.Errorf("safety = %v", spec.Safety)
	}

	wantSkills := []string{"file_read", "git_diff", "context_loader"}
	if !reflect.DeepEqual(spec.Skills, wantSkills) {
		t.Errorf("skills = %v, want %v", spec.Skills, wantSkills)
	}

	var hasFile, hasStaged bool
	for _, p := range spec.Prerequisites {
		if p == "Loaded file: main.go" {
			hasFile = true
		}
		if p == "Review staged git diff" {
			hasStaged = true
		}
	}
	if !hasFile || !hasStaged {
		t.Errorf("prerequisites missing expected lines: %v", spec.Prerequisites)
	}
}

func TestAssembleSpecResearchDefaults(t *testing.T) {
	in := assembleInput()
	in.Classification = models.Classification{
		TaskType: "research", Complexity: models.ComplexityMedium, Department: "research",
	}
	in.Context = &contextload.ContextSet{CWD: "/work/repo"}

	spec := AssembleSpec(in)
	if spec.Runtime.Temperature != 0.4 {
		t.Errorf("research temperature = %v, want 0.4", spec.Runtime.Temperature)
	}
	if spec.Runtime.MaxTokens != 3000 || spec.Runtime.Timeout != "30s" {
		t.Errorf("runtime = %+v", spec.Runtime)
	}
	if spec.Output.Format != "research_report" {
		t.Errorf("output format = %q", spec.Output.Format)
	}
	// No department entry exists for research in the test identity.
	if len(spec.Methodology) != 0 || len(spec.Safety) != 0 {
		t.Errorf("unknown department must leave methodology/safety empty: %+v", spec)
	}
}

func TestAssembleSpecDeterministic(t *testing.T) {
	first := AssembleSpec(assembleInput())
	second := AssembleSpec(assembleInput())
	if !reflect.DeepEqual(first, second) {
		t.Error("spec assembly is not deterministic")
	}
}

func TestBrainExcerptCaps(t *testing.T) {
	in := assembleInput()
	in.Brain = &brain.QueryResult{Results: []brain.Excerpt{
		{Notebook: "eng", Text: "one\ntwo\nthree\nfour\nfive"},
		{Notebook: "eng", Text: "six\nseven\neight"},
		{Notebook: "ops", Text: "nine"},
	}}
	in.Prerequisites = make([]string, 12)
	for i := range in.Prerequisites {
		in.Prerequisites[i] = "prior note"
	}

	spec := AssembleSpec(in)

	excerpts, brainPrereqs := 0, 0
	for _, p := range spec.Prerequisites {
		switch {
		case strings.HasPrefix(p, "[Brain] "):
			brainPrereqs++
		case p == "one" || p == "two" || p == "three" || p == "six" || p == "seven" || p == "eight" || p == "nine":
			excerpts++
		}
	}
	if excerpts != maxBrainExcerpts {
		t.Errorf("excerpt lines = %d, want %d", excerpts, maxBrainExcerpts)
	}
	if brainPrereqs != maxBrainPrerequisites {
		t.Errorf("brain prerequisites = %d, want %d", brainPrereqs, maxBrainPrerequisites)
	}
}

func TestRenderPromptSectionOrder(t *testing.T) {
	in := assembleInput()
	in.Context.Manifest = "module example.com/app"
	in.Context.ManifestName = "go.mod"
	in.Context.RecentChanges = "abc123 fix fetcher"
	in.Context.Blame = map[string]string{"main.go": "abc123 (avery) package main"}
	spec := AssembleSpec(in)

	prompt := RenderPrompt(spec, in.Context, in.Task)

	ordered := []string{
		"You are Senior implementation engineer",
		"Tone: Blunt and brief.",
		"Constraints:",
		"Values:",
		"Task:\nadd retry logic to the fetcher",
		"Methodology:",
		"Prerequisites:",
		"Safety:",
		"Skills:",
		"go.mod:",
		"File: main.go",
		"Staged diff:",
		"Recent git changes:",
		"Git blame for main.go:",
	}
	last := -1
	for _, marker := range ordered {
		idx := strings.Index(prompt, marker)
		if idx < 0 {
			t.Fatalf("prompt missing %q:\n%s", marker, prompt)
		}
		if idx <= last {
			t.Fatalf("%q out of order in prompt", marker)
		}
		last = idx
	}

	if strings.Contains(prompt, "Sub-agents:") {
		t.Error("empty sub-agent roster must be omitted")
	}
	if strings.Contains(prompt, "PR diff:") {
		t.Error("empty PR diff must be omitted")
	}
}

func TestRenderPromptMethodologyFallback(t *testing.T) {
	in := assembleInput()
	in.Classification.Department = "operations"
	spec := AssembleSpec(in)
	prompt := RenderPrompt(spec, in.Context, in.Task)
	if !strings.Contains(prompt, "- Use pragmatic judgment.") {
		t.Error("missing methodology fallback")
	}
}
