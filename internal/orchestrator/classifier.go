// Package orchestrator is the task-routing core: it classifies incoming
// commands, estimates their cost, picks a tier, and sequences everything
// from a single backend call up to a checkpointed multi-step pipeline.
package orchestrator

import (
	"strings"

	"github.com/blacksmith-cli/blacksmith/pkg/models"
)

var highComplexityTerms = []string{
	"multi-file",
	"architecture",
	"migration",
	"production",
	"deploy",
	"oauth",
	"system",
	"compare",
	"research",
	"kubernetes",
	"infrastructure",
}

var mediumComplexityTerms = []string{
	"build", "debug", "review", "refactor", "endpoint", "api", "feature", "error",
}

var taskTypes = map[string]string{
	"ask":       "raw_query",
	"build":     "implementation",
	"review":    "code_review",
	"debug":     "debugging",
	"research":  "research",
	"compare":   "comparison",
	"summarize": "summarization",
	"refactor":  "refactor",
	"commit":    "commit_message",
	"deploy":    "deployment",
	"diagnose":  "diagnosis",
	"provision": "provisioning",
}

var infraTerms = []string{"deploy", "infrastructure", "terraform", "network", "kubernetes", "docker", "vlan", "homelab"}
var researchTerms = []string{"research", "compare", "summarize", "analysis", "benchmark"}
var operationsTerms = []string{"commit", "pr", "merge", "ci", "release"}

// PatternStore supplies learned routing overrides keyed by
// "command:complexity". A nil store means no overrides.
type PatternStore interface {
	Lookup(command string, complexity models.Complexity) *models.RoutingOverride
}

// ClassifyInput is everything the classifier looks at.
type ClassifyInput struct {
	Command   string
	Prompt    string
	FilePaths []string
	Deep      bool
}

// Classifier turns a command plus task text into a routing decision. It is
// deterministic for a given input and pattern store state.
type Classifier struct {
	patterns PatternStore
}

// NewClassifier creates a Classifier. patterns may be nil.
func NewClassifier(patterns PatternStore) *Classifier {
	return &Classifier{patterns: patterns}
}

func containsAny(haystack string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(haystack, term) {
			return true
		}
	}
	return false
}

func detectDepartment(lower, command string) string {
	switch command {
	case "research", "compare", "summarize":
		return "research"
	case "deploy", "diagnose", "provision":
		return "infrastructure"
	case "commit":
		return "operations"
	}
	if containsAny(lower, infraTerms) {
		return "infrastructure"
	}
	if containsAny(lower, researchTerms) {
		return "research"
	}
	if containsAny(lower, operationsTerms) {
		return "operations"
	}
	return "engineering"
}

func detectTier(command string, deep bool) (models.Tier, bool, string) {
	if command == "commit" {
		return models.Tier1, true, "deterministic commit-message workflow"
	}
	if command == "ask" && !deep {
		return models.Tier1, true, "raw passthrough ask command"
	}
	return models.Tier2, false, "requires orchestrated agent assembly"
}

// Classify produces the routing decision for one task.
func (c *Classifier) Classify(in ClassifyInput) models.Classification {
	lower := strings.ToLower(in.Command + " " + in.Prompt)
	hasFiles := len(in.FilePaths) > 0

	complexity := models.ComplexityLow
	if containsAny(lower, highComplexityTerms) {
		complexity = models.ComplexityHigh
	} else if containsAny(lower, mediumComplexityTerms) || hasFiles {
		complexity = models.ComplexityMedium
	}

	if (in.Command == "review" || in.Command == "debug") && hasFiles && complexity == models.ComplexityLow {
		complexity = models.ComplexityMedium
	}

	switch in.Command {
	case "refactor", "research", "compare":
		complexity = models.ComplexityHigh
	}

	taskType := taskTypes[in.Command]
	if taskType == "" {
		taskType = in.Command
	}

	subAgents := 0
	switch {
	case in.Command == "refactor":
		subAgents = 5
	case in.Command == "build" && complexity == models.ComplexityHigh:
		subAgents = 2
	}

	requiresCheckpoint := in.Command == "deploy" || in.Command == "provision" ||
		((in.Command == "refactor" || in.Command == "build") && complexity == models.ComplexityHigh)

	tier, passthrough, reason := detectTier(in.Command, in.Deep)

	contextNeeded := []string{}
	contextTokens := 400
	if hasFiles {
		contextNeeded = in.FilePaths
		contextTokens = len(in.FilePaths) * 1500
	}

	out := models.Classification{
		TaskType:               taskType,
		Complexity:             complexity,
		Department:             detectDepartment(lower, in.Command),
		ContextNeeded:          contextNeeded,
		EstimatedContextTokens: contextTokens,
		SubAgentsNeeded:        subAgents,
		RequiresCheckpoint:     requiresCheckpoint,
		Tier:                   tier,
		Passthrough:            passthrough,
		RouteReason:            reason,
	}

	if c.patterns != nil {
		if override := c.patterns.Lookup(in.Command, complexity); override != nil {
			if override.Tier != nil {
				out.Tier = *override.Tier
			}
			if override.Passthrough != nil {
				out.Passthrough = *override.Passthrough
			}
			if override.Reason != nil {
				out.RouteReason = *override.Reason
			}
		}
	}
	return out
}
