package brain

import "strings"

// route maps query keywords to a target notebook.
type route struct {
	notebook string
	keywords []string
}

var queryRoutes = []route{
	{"models", []string{"model", "pricing", "benchmark", "tokens", "cost"}},
	{"errors", []string{"error", "stack", "trace", "failure", "exception"}},
	{"project-blacksmith", []string{"blacksmith", "project", "cli", "orchestrator", "intent", "brain"}},
	{"history-engineering", []string{"build", "review", "debug", "refactor", "architecture", "code"}},
	{"history-research", []string{"research", "compare", "summary", "summarize", "tradeoff", "benchmark"}},
	{"history-infrastructure", []string{"deploy", "diagnose", "provision", "infra", "kubernetes", "docker", "network"}},
	{"history-operations", []string{"commit", "pr", "merge", "ci", "release"}},
	{"reference", []string{"reference", "docs", "doc", "guide", "example"}},
}

// defaultNotebooks are consulted when no route keyword matches.
var defaultNotebooks = []string{"reference", "project-blacksmith"}

// RouteQuery returns the notebooks a query should be answered from.
func RouteQuery(query string) []string {
	lower := strings.ToLower(query)

	var matched []string
	seen := make(map[string]bool)
	for _, r := range queryRoutes {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				if !seen[r.notebook] {
					matched = append(matched, r.notebook)
					seen[r.notebook] = true
				}
				break
			}
		}
	}

	if len(matched) == 0 {
		return append([]string{}, defaultNotebooks...)
	}
	return matched
}

// TaskSummary is the compressed outcome of one task, routed to notebooks at
// teardown.
type TaskSummary struct {
	Task       string
	Command    string
	Model      string
	Backend    string
	Project    string
	Department string
	Outcome    string
	Decisions  []string
	Patterns   []string
	Prereqs    []string
	Tags       []string
	Escalated  bool
}

// RouteTeardown decides which notebooks a task summary lands in: the
// department history, the project notebook, plus errors/models when the
// outcome warrants it.
func RouteTeardown(summary TaskSummary) []string {
	seen := make(map[string]bool)
	var notebooks []string
	add := func(name string) {
		if !seen[name] {
			notebooks = append(notebooks, name)
			seen[name] = true
		}
	}

	department := summary.Department
	if department == "" {
		department = "engineering"
	}
	add("history-" + department)

	if summary.Project != "" {
		add("project-" + summary.Project)
	} else {
		add("project-blacksmith")
	}

	text := strings.ToLower(summary.Task + "\n" + summary.Outcome + "\n" + strings.Join(summary.Tags, " "))
	for _, marker := range []string{"error", "exception", "failed", "stack", "trace"} {
		if strings.Contains(text, marker) {
			add("errors")
			break
		}
	}

	if summary.Escalated {
		add("models")
	}

	return notebooks
}
