// Package registry loads the model-capability registry (MCR): per-model
// pricing, speed, and capability data used for routing and cost estimation.
// The parsed document is cached in memory keyed by source file modification
// time; callers may see a stale value until the file changes on disk.
package registry

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// ModelCost holds per-million-token pricing for a model.
type ModelCost struct {
	InputPer1M  float64 `yaml:"input_per_1m"`
	OutputPer1M float64 `yaml:"output_per_1m"`
}

// ModelEntry describes one model in the registry.
type ModelEntry struct {
	Provider      string     `yaml:"provider"`
	Access        string     `yaml:"access"`
	ContextWindow int        `yaml:"context_window"`
	Strengths     []string   `yaml:"strengths"`
	Weaknesses    []string   `yaml:"weaknesses"`
	Cost          *ModelCost `yaml:"cost"`
	Speed         string     `yaml:"speed"`
	BestFor       []string   `yaml:"best_for"`
}

// Document is the parsed registry file.
type Document struct {
	Models map[string]ModelEntry `yaml:"models"`
}

// Registry provides cached access to the registry file. The cache is an
// explicit object injected into consumers rather than package-level state.
type Registry struct {
	path string

	mu     sync.RWMutex
	doc    *Document
	loaded time.Time
	mtime  time.Time
}

// New creates a Registry reading from the given file path.
func New(path string) *Registry {
	return &Registry{path: path}
}

// Load returns the parsed registry document, reloading from disk only when
// the source file's modification time has changed since the last parse.
func (r *Registry) Load() (*Document, error) {
	info, err := os.Stat(r.path)
	if err != nil {
		return nil, fmt.Errorf("stat registry: %w", err)
	}

	r.mu.RLock()
	if r.doc != nil && info.ModTime().Equal(r.mtime) {
		doc := r.doc
		r.mu.RUnlock()
		return doc, nil
	}
	r.mu.RUnlock()

	raw, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}

	doc := &Document{}
	if err := yaml.Unmarshal(raw, doc); err != nil {
		return nil, fmt.Errorf("parse registry: %w", err)
	}

	r.mu.Lock()
	r.doc = doc
	r.mtime = info.ModTime()
	r.loaded = time.Now()
	r.mu.Unlock()

	return doc, nil
}

// Invalidate drops the cached document so the next Load re-reads the file.
func (r *Registry) Invalidate() {
	r.mu.Lock()
	r.doc = nil
	r.mtime = time.Time{}
	r.mu.Unlock()
}

// ModelEntry returns the registry entry for a model id, or nil when the
// model is unknown. Unknown models are not an error; cost estimation treats
// them as free.
func (r *Registry) ModelEntry(modelID string) (*ModelEntry, error) {
	doc, err := r.Load()
	if err != nil {
		return nil, err
	}
	entry, ok := doc.Models[ResolveModelID(modelID)]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

// modelAliases maps human-friendly names to canonical registry model ids.
var modelAliases = map[string]string{
	"claude":           "claude-code",
	"claude_code":      "claude-code",
	"claude code":      "claude-code",
	"gemini":           "gemini-2.5-pro",
	"gemini_pro":       "gemini-2.5-pro",
	"gemini pro":       "gemini-2.5-pro",
	"gemini_flash":     "gemini-2.5-flash",
	"gemini flash":     "gemini-2.5-flash",
	"ollama":           "ollama-qwen2.5-coder",
	"ollama_reasoning": "ollama-deepseek-r1",
	"github cli":       "github-cli",
	"codex":            "codex-cli",
	"jules":            "jules-cli",
}

// ResolveModelID maps aliases ("claude", "gemini pro") to canonical model
// ids. Unrecognized names pass through unchanged.
func ResolveModelID(name string) string {
	if name == "" {
		return name
	}
	if canonical, ok := modelAliases[name]; ok {
		return canonical
	}
	normalized := normalizeAlias(name)
	if canonical, ok := modelAliases[normalized]; ok {
		return canonical
	}
	return name
}

func normalizeAlias(name string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, ch := range strings.ToLower(name) {
		if (ch >= 'a' && ch <= 'z') || (ch >= '0' && ch <= '9') {
			b.WriteRune(ch)
			lastUnderscore = false
		} else if !lastUnderscore {
			b.WriteRune('_')
			lastUnderscore = true
		}
	}
	return strings.Trim(b.String(), "_")
}

// BackendForModel returns the backend name that serves a model id, or empty
// when no backend matches.
func BackendForModel(modelID string) string {
	switch {
	case strings.HasPrefix(modelID, "ollama-"):
		return "ollama"
	case strings.HasPrefix(modelID, "claude"):
		return "claude"
	case strings.HasPrefix(modelID, "gemini"):
		return "gemini"
	case strings.HasPrefix(modelID, "gpt"), strings.HasPrefix(modelID, "o3"):
		return "openai"
	case strings.HasPrefix(modelID, "codex"):
		return "codex"
	case strings.HasPrefix(modelID, "jules"):
		return "jules"
	case strings.HasPrefix(modelID, "github"):
		return "github"
	default:
		return ""
	}
}
