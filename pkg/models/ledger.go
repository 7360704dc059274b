package models

import "time"

// LedgerEntry is the append-only record of one top-level task invocation.
// Exactly one entry is written per invocation, regardless of how many
// sub-agents or pipeline steps ran underneath it.
type LedgerEntry struct {
	CreatedAt        time.Time         `json:"created_at"`
	Command          string            `json:"command"`
	Backend          string            `json:"backend"`
	Model            string            `json:"model"`
	Workflow         string            `json:"workflow"`
	Department       string            `json:"department"`
	PromptTokens     int               `json:"prompt_tokens"`
	CompletionTokens int               `json:"completion_tokens"`
	EstimatedCost    float64           `json:"estimated_cost"`
	DurationMS       int64             `json:"duration_ms"`
	Success          bool              `json:"success"`
	Escalated        bool              `json:"escalated"`
	SessionID        string            `json:"session_id,omitempty"`
	Project          string            `json:"project,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty"`
}
