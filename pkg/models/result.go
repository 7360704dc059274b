package models

// Usage is the token consumption reported by a backend.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// ExecutionResult is returned by every backend invocation. Backend failures
// are represented as data (Success=false with a descriptive Text) rather
// than panics, so that partial failure never aborts a multi-step task.
type ExecutionResult struct {
	Text       string `json:"text"`
	Usage      Usage  `json:"usage"`
	Model      string `json:"model"`
	DurationMS int64  `json:"duration_ms"`
	Success    bool   `json:"success"`
}
