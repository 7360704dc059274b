package orchestrator

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/blacksmith-cli/blacksmith/pkg/models"
)

// FilePatternStore reads learned routing overrides from a JSON file keyed
// by "command:complexity". A missing file means no overrides.
type FilePatternStore struct {
	patterns map[string]models.RoutingOverride
}

// LoadPatterns reads the learned-patterns file. A missing file is not an
// error; it yields an empty store.
func LoadPatterns(path string) (*FilePatternStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &FilePatternStore{}, nil
		}
		return nil, fmt.Errorf("read learned patterns: %w", err)
	}

	patterns := map[string]models.RoutingOverride{}
	if err := json.Unmarshal(data, &patterns); err != nil {
		return nil, fmt.Errorf("parse learned patterns: %w", err)
	}
	return &FilePatternStore{patterns: patterns}, nil
}

// Lookup returns the override for command:complexity, or nil.
func (s *FilePatternStore) Lookup(command string, complexity models.Complexity) *models.RoutingOverride {
	if s == nil || s.patterns == nil {
		return nil
	}
	override, ok := s.patterns[command+":"+string(complexity)]
	if !ok {
		return nil
	}
	return &override
}

var _ PatternStore = (*FilePatternStore)(nil)
