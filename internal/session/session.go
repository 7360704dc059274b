// Package session manages the lifecycle files written for each real
// invocation. A session moves through three one-way stages: scaffold when
// work begins, hydrate once context is loaded, and teardown when the
// invocation ends. Each stage overwrites the session's JSON file under the
// sessions directory.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/blacksmith-cli/blacksmith/internal/config"
)

// Stage is a lifecycle position.
type Stage string

const (
	StageScaffold Stage = "scaffold"
	StageHydrate  Stage = "hydrate"
	StageTeardown Stage = "teardown"
)

// ErrInvalidTransition marks an out-of-order stage change.
var ErrInvalidTransition = errors.New("invalid session stage transition")

// Session is one invocation's lifecycle record.
type Session struct {
	ID          string            `json:"id"`
	Stage       Stage             `json:"stage"`
	CreatedAt   time.Time         `json:"created_at,omitempty"`
	HydratedAt  time.Time         `json:"hydrated_at,omitempty"`
	CompletedAt time.Time         `json:"completed_at,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Context     json.RawMessage   `json:"context,omitempty"`
	FinalState  json.RawMessage   `json:"final_state,omitempty"`
}

// Manager persists sessions under a directory.
type Manager struct {
	dir string
}

// NewManager creates a Manager over the standard sessions directory.
func NewManager() *Manager {
	return &Manager{dir: config.SessionsDir()}
}

// NewManagerAt creates a Manager over an explicit directory.
func NewManagerAt(dir string) *Manager {
	return &Manager{dir: dir}
}

func (m *Manager) path(id string) string {
	return filepath.Join(m.dir, id+".json")
}

func (m *Manager) write(s *Session) error {
	if err := os.MkdirAll(m.dir, 0755); err != nil {
		return fmt.Errorf("create sessions directory: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := os.WriteFile(m.path(s.ID), data, 0644); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// Scaffold creates a new session in the scaffold stage with a fresh id.
func (m *Manager) Scaffold(metadata map[string]string) (*Session, error) {
	s := &Session{
		ID:        uuid.New().String(),
		Stage:     StageScaffold,
		CreatedAt: time.Now().UTC(),
		Metadata:  metadata,
	}
	if err := m.write(s); err != nil {
		return nil, err
	}
	return s, nil
}

// Load reads a session by id.
func (m *Manager) Load(id string) (*Session, error) {
	data, err := os.ReadFile(m.path(id))
	if err != nil {
		return nil, fmt.Errorf("read session %s: %w", id, err)
	}
	s := &Session{}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parse session %s: %w", id, err)
	}
	return s, nil
}

// Hydrate moves a scaffolded session to the hydrate stage, attaching the
// loaded context. Re-hydrating is allowed (context is reloaded when the
// execution directory moves into a worktree); hydrating after teardown is
// not.
func (m *Manager) Hydrate(s *Session, contextPayload interface{}) error {
	if s.Stage == StageTeardown {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.Stage, StageHydrate)
	}
	raw, err := json.Marshal(contextPayload)
	if err != nil {
		return fmt.Errorf("marshal session context: %w", err)
	}
	s.Stage = StageHydrate
	s.HydratedAt = time.Now().UTC()
	s.Context = raw
	return m.write(s)
}

// Teardown finishes a session. Scaffolded sessions may tear down directly
// (the invocation failed before context loaded); a torn-down session may
// not tear down again.
func (m *Manager) Teardown(s *Session, finalState interface{}) error {
	if s.Stage == StageTeardown {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.Stage, StageTeardown)
	}
	raw, err := json.Marshal(finalState)
	if err != nil {
		return fmt.Errorf("marshal final state: %w", err)
	}
	s.Stage = StageTeardown
	s.CompletedAt = time.Now().UTC()
	s.FinalState = raw
	return m.write(s)
}

// CleanStale removes session files that never reached teardown and are
// older than maxAge. It returns the removed session ids.
func (m *Manager) CleanStale(maxAge time.Duration) ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read sessions directory: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	var removed []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".json")
		s, err := m.Load(id)
		if err != nil {
			continue
		}
		if s.Stage == StageTeardown {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(m.path(id)); err == nil {
			removed = append(removed, id)
		}
	}
	return removed, nil
}
