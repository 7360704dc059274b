package identity

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/blacksmith-cli/blacksmith/pkg/models"
)

const identityYAML = `mission: Route work to the cheapest capable model.
values:
  - correctness
  - cost discipline
owner:
  name: Avery
  role: Staff engineer
  communication_style: Blunt and brief
departments:
  engineering:
    focus: backend services
    default_models:
      simple: ollama
      complex: claude
    review_standard: two approvals
  research:
    focus: technology evaluation
    default_models:
      deep: gemini
      quick: ollama
`

func writeIdentity(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "identity.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write identity: %v", err)
	}
	return path
}

func TestLoadParsesDocument(t *testing.T) {
	loader := NewLoader(writeIdentity(t, identityYAML))

	ident, err := loader.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ident.Owner.Name != "Avery" {
		t.Errorf("owner name = %q, want Avery", ident.Owner.Name)
	}
	if len(ident.Values) != 2 {
		t.Errorf("got %d values, want 2", len(ident.Values))
	}

	eng := ident.Department("engineering")
	if eng == nil {
		t.Fatal("engineering department missing")
	}
	if eng.ReviewStandard != "two approvals" {
		t.Errorf("review standard = %q", eng.ReviewStandard)
	}
	if ident.Department("marketing") != nil {
		t.Error("unknown department should be nil")
	}
}

func TestLoadReturnsCachedDocument(t *testing.T) {
	loader := NewLoader(writeIdentity(t, identityYAML))

	first, err := loader.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	second, err := loader.Load()
	if err != nil {
		t.Fatalf("Load again: %v", err)
	}
	if first != second {
		t.Error("unchanged file should return the cached identity")
	}
}

func TestLoadMissingFile(t *testing.T) {
	loader := NewLoader(filepath.Join(t.TempDir(), "absent.yaml"))
	if _, err := loader.Load(); err == nil {
		t.Fatal("expected error for missing identity file")
	}
}

func TestDepartmentOnNilIdentity(t *testing.T) {
	var ident *Identity
	if ident.Department("engineering") != nil {
		t.Error("nil identity should have no departments")
	}
}

func TestPickDepartmentModel(t *testing.T) {
	ident := &Identity{
		Departments: map[string]Department{
			"engineering": {DefaultModels: map[string]string{
				"simple":  "ollama",
				"complex": "claude",
			}},
			"research": {DefaultModels: map[string]string{
				"deep":  "gemini",
				"quick": "ollama",
			}},
			"operations": {DefaultModels: map[string]string{
				"commits": "ollama",
			}},
			"infrastructure": {DefaultModels: map[string]string{
				"iac":             "claude",
				"troubleshooting": "gemini",
			}},
			"empty": {},
		},
	}

	tests := []struct {
		name           string
		classification models.Classification
		want           string
	}{
		{
			name: "low complexity prefers simple",
			classification: models.Classification{
				Department: "engineering",
				TaskType:   "implementation",
				Complexity: models.ComplexityLow,
			},
			want: "ollama-qwen2.5-coder",
		},
		{
			name: "high complexity prefers complex",
			classification: models.Classification{
				Department: "engineering",
				TaskType:   "implementation",
				Complexity: models.ComplexityHigh,
			},
			want: "claude-code",
		},
		{
			name: "research department prefers deep",
			classification: models.Classification{
				Department: "research",
				TaskType:   "research",
				Complexity: models.ComplexityMedium,
			},
			want: "gemini-2.5-pro",
		},
		{
			name: "summarization uses the quick slot",
			classification: models.Classification{
				Department: "research",
				TaskType:   "summarization",
				Complexity: models.ComplexityLow,
			},
			want: "ollama-qwen2.5-coder",
		},
		{
			name: "commit messages fall through to commits",
			classification: models.Classification{
				Department: "operations",
				TaskType:   "commit_message",
				Complexity: models.ComplexityLow,
			},
			want: "ollama-qwen2.5-coder",
		},
		{
			name: "diagnosis uses troubleshooting",
			classification: models.Classification{
				Department: "infrastructure",
				TaskType:   "diagnosis",
				Complexity: models.ComplexityHigh,
			},
			want: "gemini-2.5-pro",
		},
		{
			name: "deployment uses iac",
			classification: models.Classification{
				Department: "infrastructure",
				TaskType:   "deployment",
				Complexity: models.ComplexityHigh,
			},
			want: "claude-code",
		},
		{
			name: "department without defaults yields empty",
			classification: models.Classification{
				Department: "empty",
				TaskType:   "implementation",
				Complexity: models.ComplexityHigh,
			},
			want: "",
		},
		{
			name: "unknown department yields empty",
			classification: models.Classification{
				Department: "marketing",
				TaskType:   "implementation",
				Complexity: models.ComplexityLow,
			},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PickDepartmentModel(ident, tt.classification); got != tt.want {
				t.Errorf("PickDepartmentModel = %q, want %q", got, tt.want)
			}
		})
	}
}
