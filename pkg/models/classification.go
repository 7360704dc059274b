// Package models defines the shared data types used across Blacksmith.
package models

// Complexity is the estimated difficulty of a task.
type Complexity string

const (
	// ComplexityLow covers trivial single-shot tasks.
	ComplexityLow Complexity = "low"
	// ComplexityMedium covers tasks that touch code or attached files.
	ComplexityMedium Complexity = "medium"
	// ComplexityHigh covers architectural, destructive, or multi-file work.
	ComplexityHigh Complexity = "high"
)

// Tier is the routing level for a task.
type Tier int

const (
	// Tier1 is a deterministic passthrough with no agent assembly.
	Tier1 Tier = 1
	// Tier2 is full orchestration with identity, brain, and cost guards.
	Tier2 Tier = 2
)

// Classification is the structured routing decision for one task.
// It is produced once by the classifier and never mutated afterwards.
type Classification struct {
	// TaskType names the workflow, e.g. "code_review" or "commit_message".
	TaskType string `json:"task_type"`
	// Complexity is low, medium, or high.
	Complexity Complexity `json:"complexity"`
	// Department routes the task to an identity department.
	Department string `json:"department"`
	// ContextNeeded lists the file paths attached to the task.
	ContextNeeded []string `json:"context_needed"`
	// EstimatedContextTokens is a coarse per-file heuristic, not a measurement.
	EstimatedContextTokens int `json:"estimated_context_tokens"`
	// SubAgentsNeeded is how many sub-agents the planner should produce.
	SubAgentsNeeded int `json:"sub_agents_needed"`
	// RequiresCheckpoint marks tasks that need human confirmation before
	// destructive work.
	RequiresCheckpoint bool `json:"requires_checkpoint"`
	// Tier is the routing level.
	Tier Tier `json:"tier"`
	// Passthrough is true when the task bypasses agent assembly entirely.
	Passthrough bool `json:"passthrough"`
	// RouteReason is a human-readable explanation of the tier decision.
	RouteReason string `json:"route_reason"`
}

// RoutingOverride is a learned-pattern override applied on top of the
// computed classification. Only tier, passthrough, and the route reason may
// be overridden; complexity and department never are. Fields are pointers
// so a pattern can override one field and leave the computed values of the
// others in place.
type RoutingOverride struct {
	Tier        *Tier   `json:"tier,omitempty"`
	Passthrough *bool   `json:"passthrough,omitempty"`
	Reason      *string `json:"reason,omitempty"`
}
