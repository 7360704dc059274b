package models

// Soul carries the identity framing rendered at the top of an agent prompt.
type Soul struct {
	Identity string   `json:"identity"`
	Values   []string `json:"values"`
	Tone     string   `json:"tone"`
	Owner    Owner    `json:"owner"`
}

// Owner identifies the human the agent works for.
type Owner struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// OutputSpec describes the expected shape of the agent's answer.
type OutputSpec struct {
	Format   string   `json:"format"`
	Sections []string `json:"sections"`
}

// RuntimeSpec pins the backend, model, and sampling limits for one run.
type RuntimeSpec struct {
	Backend     string  `json:"backend"`
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	Timeout     string  `json:"timeout"`
}

// ContextRef describes one loaded context file inside an AgentSpec.
type ContextRef struct {
	Path string `json:"path"`
	Role string `json:"role"`
}

// SpecContext summarizes the execution context embedded in an AgentSpec.
type SpecContext struct {
	CWD         string       `json:"cwd"`
	Files       []ContextRef `json:"files,omitempty"`
	HasManifest bool         `json:"has_manifest"`
}

// AgentSpec is the fully assembled execution plan for one Tier 2 invocation.
// It is built fresh per task and owned exclusively by the orchestration call
// that created it.
type AgentSpec struct {
	Department    string         `json:"department"`
	Methodology   []string       `json:"methodology"`
	Constraints   []string       `json:"constraints"`
	Soul          Soul           `json:"soul"`
	Prerequisites []string       `json:"prerequisites"`
	Context       SpecContext    `json:"context"`
	Output        OutputSpec     `json:"output"`
	Skills        []string       `json:"skills"`
	SubAgents     []SubAgentSpec `json:"sub_agents,omitempty"`
	Safety        []string       `json:"safety,omitempty"`
	Runtime       RuntimeSpec    `json:"runtime"`
	Task          string         `json:"task"`
}
