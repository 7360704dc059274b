package models

// CostEstimate is the projected token usage and dollar cost of one backend
// invocation. It is derived data and is only persisted as part of a ledger
// entry.
type CostEstimate struct {
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	EstimatedCost    float64 `json:"estimated_cost"`
}
