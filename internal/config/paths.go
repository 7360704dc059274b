package config

import (
	"os"
	"path/filepath"
	"strings"
)

// HomeEnvVar overrides where all Blacksmith state lives. Tests set it to a
// temp directory so concurrent runs never share sessions, worktrees, or the
// ledger.
const HomeEnvVar = "BLACKSMITH_HOME"

// Home returns the Blacksmith home directory, honoring the override.
func Home() string {
	if dir := os.Getenv(HomeEnvVar); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".blacksmith"
	}
	return filepath.Join(home, ".blacksmith")
}

// Path joins segments onto the Blacksmith home directory.
func Path(segments ...string) string {
	return filepath.Join(append([]string{Home()}, segments...)...)
}

// ConfigPath returns the path to config.yaml.
func ConfigPath() string { return Path("config.yaml") }

// RegistryPath returns the path to the model-capability registry.
func RegistryPath() string { return Path("mcr.yaml") }

// IdentityPath returns the path to the identity document.
func IdentityPath() string { return Path("identity.yaml") }

// BrainPath returns the path to the notebook registry.
func BrainPath() string { return Path("brain.yaml") }

// SessionsDir returns the directory holding session files.
func SessionsDir() string { return Path("sessions") }

// ReportsDir returns the directory holding self-improvement reports.
func ReportsDir() string { return Path("reports") }

// ExpandHome resolves a leading ~/ against the user home directory and a
// leading ~/.blacksmith against the (possibly overridden) Blacksmith home.
func ExpandHome(value string) string {
	switch {
	case value == "~/.blacksmith":
		return Home()
	case strings.HasPrefix(value, "~/.blacksmith/"):
		return Path(strings.TrimPrefix(value, "~/.blacksmith/"))
	case strings.HasPrefix(value, "~/"):
		home, err := os.UserHomeDir()
		if err != nil {
			return value
		}
		return filepath.Join(home, value[2:])
	default:
		return value
	}
}
