// Package identity loads the read-only identity document: mission, values,
// owner, and per-department defaults consumed during agent-spec assembly.
package identity

import (
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Owner describes the human the agents work for.
type Owner struct {
	Name               string `yaml:"name"`
	Role               string `yaml:"role"`
	CommunicationStyle string `yaml:"communication_style"`
}

// Department holds one department's routing defaults and standards.
type Department struct {
	Focus           string            `yaml:"focus"`
	DefaultModels   map[string]string `yaml:"default_models"`
	ReviewStandard  string            `yaml:"review_standard"`
	OutputStandard  string            `yaml:"output_standard"`
	SafetyStandard  string            `yaml:"safety_standard"`
	AutomationLevel string            `yaml:"automation_level"`
	Methodology     []string          `yaml:"methodology"`
}

// Identity is the parsed identity document.
type Identity struct {
	Mission     string                `yaml:"mission"`
	Vision      string                `yaml:"vision"`
	Values      []string              `yaml:"values"`
	Owner       Owner                 `yaml:"owner"`
	Departments map[string]Department `yaml:"departments"`
}

// Loader provides cached access to the identity file, keyed by the source
// file's modification time. The loader is injected into consumers; there is
// no package-level cache.
type Loader struct {
	path string

	mu    sync.RWMutex
	ident *Identity
	mtime time.Time
}

// NewLoader creates a Loader reading from the given file path.
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load returns the parsed identity, re-reading the file only when its
// modification time has changed.
func (l *Loader) Load() (*Identity, error) {
	info, err := os.Stat(l.path)
	if err != nil {
		return nil, fmt.Errorf("stat identity: %w", err)
	}

	l.mu.RLock()
	if l.ident != nil && info.ModTime().Equal(l.mtime) {
		ident := l.ident
		l.mu.RUnlock()
		return ident, nil
	}
	l.mu.RUnlock()

	raw, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read identity: %w", err)
	}

	ident := &Identity{}
	if err := yaml.Unmarshal(raw, ident); err != nil {
		return nil, fmt.Errorf("parse identity: %w", err)
	}

	l.mu.Lock()
	l.ident = ident
	l.mtime = info.ModTime()
	l.mu.Unlock()

	return ident, nil
}

// Department returns the named department, or nil when absent.
func (i *Identity) Department(name string) *Department {
	if i == nil || i.Departments == nil {
		return nil
	}
	dept, ok := i.Departments[name]
	if !ok {
		return nil
	}
	return &dept
}
