package identity

import (
	"github.com/blacksmith-cli/blacksmith/internal/registry"
	"github.com/blacksmith-cli/blacksmith/pkg/models"
)

// PickDepartmentModel selects a model for the classification from the
// department's default_models table. Returns empty when the department has
// no suitable entry; the caller falls back to the command-based table.
func PickDepartmentModel(ident *Identity, classification models.Classification) string {
	dept := ident.Department(classification.Department)
	if dept == nil || len(dept.DefaultModels) == 0 {
		return ""
	}

	name := selectFromDefaults(dept.DefaultModels, classification)
	if name == "" {
		return ""
	}
	return registry.ResolveModelID(name)
}

// selectFromDefaults walks the same preference ladder for every department:
// task type first, then research depth, then complexity.
func selectFromDefaults(defaults map[string]string, c models.Classification) string {
	pick := func(keys ...string) string {
		for _, key := range keys {
			if v, ok := defaults[key]; ok && v != "" {
				return v
			}
		}
		return ""
	}

	switch c.TaskType {
	case "summarization":
		return pick("quick", "simple", "default")
	case "diagnosis":
		return pick("troubleshooting", "complex", "deep")
	case "deployment", "provisioning":
		return pick("iac", "complex", "default")
	}

	if c.Department == "research" {
		return pick("deep", "primary", "quick")
	}

	if c.Complexity == models.ComplexityLow {
		return pick("simple", "quick", "commits", "default")
	}

	return pick("complex", "deep", "iac", "troubleshooting", "simple", "quick", "default")
}
