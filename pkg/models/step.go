package models

// Step is one planned unit of work inside a multi-step pipeline. Steps are
// immutable once planned; the runner never rewrites them.
type Step struct {
	// Name is the human-readable step title shown in dry-run output.
	Name string `json:"name"`
	// Model is the model id the step should run on.
	Model string `json:"model"`
	// Prompt is the step's base prompt before prior-context injection.
	Prompt string `json:"prompt"`
	// Kind tags the step's role: research, analysis, plan, checkpoint,
	// execute, tests, review.
	Kind string `json:"kind"`
	// Department routes the step for identity purposes.
	Department string `json:"department"`
	// Destructive marks steps that modify the working tree.
	Destructive bool `json:"destructive"`
	// Checkpoint marks steps that require human confirmation before running.
	Checkpoint bool `json:"checkpoint"`
}

// SubAgentSpec is a flat, non-sequential planned sub-agent used when a full
// pipeline is not warranted.
type SubAgentSpec struct {
	Name       string `json:"name"`
	Department string `json:"department"`
	Model      string `json:"model"`
	Prompt     string `json:"prompt"`
	Kind       string `json:"kind"`
}

// StepResult is the recorded outcome of one pipeline step or sub-agent.
type StepResult struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Model   string `json:"model"`
	Text    string `json:"text"`
	Usage   Usage  `json:"usage"`
	Skipped bool   `json:"skipped"`
}
