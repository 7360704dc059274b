package main

import (
	"fmt"
	"os"

	"github.com/blacksmith-cli/blacksmith/internal/backend"
	"github.com/blacksmith-cli/blacksmith/internal/brain"
	"github.com/blacksmith-cli/blacksmith/internal/config"
	"github.com/blacksmith-cli/blacksmith/internal/contextload"
	"github.com/blacksmith-cli/blacksmith/internal/exec"
	"github.com/blacksmith-cli/blacksmith/internal/identity"
	"github.com/blacksmith-cli/blacksmith/internal/ledger"
	"github.com/blacksmith-cli/blacksmith/internal/orchestrator"
	"github.com/blacksmith-cli/blacksmith/internal/registry"
	"github.com/blacksmith-cli/blacksmith/internal/session"
)

// runtime bundles everything a command needs after wiring.
type runtime struct {
	cfg      *config.Config
	orch     *orchestrator.Orchestrator
	ledger   *ledger.Store
	registry *registry.Registry
}

func (r *runtime) Close() {
	if r.ledger != nil {
		r.ledger.Close()
	}
}

// newRuntime wires the orchestrator from the Blacksmith home directory.
// Run `blacksmith init` first to seed the home files.
func newRuntime() (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	cmd := exec.NewRunner()
	reg := registry.New(config.RegistryPath())

	var anthropic *backend.AnthropicTransport
	if cfg.Backends.Anthropic.APIKey != "" || cfg.Backends.Anthropic.UseAWSBedrock ||
		os.Getenv("ANTHROPIC_API_KEY") != "" {
		anthropic, err = backend.NewAnthropicTransport(cfg.Backends.Anthropic)
		if err != nil {
			return nil, fmt.Errorf("anthropic transport: %w", err)
		}
	}
	invoker := backend.NewStatusInvoker(backend.NewDispatcher(cfg, cmd, anthropic), os.Stderr)

	var store *ledger.Store
	if cfg.Ledger.Enabled {
		store, err = ledger.Open(config.ExpandHome(cfg.Ledger.DBPath))
		if err != nil {
			return nil, fmt.Errorf("open ledger: %w", err)
		}
	}

	patterns, err := orchestrator.LoadPatterns(config.Path("learned-patterns.json"))
	if err != nil {
		return nil, err
	}

	logger, err := orchestrator.NewDebugLogger(debugLogPath(cfg))
	if err != nil {
		return nil, err
	}

	orch := orchestrator.New(orchestrator.Deps{
		Config:     cfg,
		Classifier: orchestrator.NewClassifier(patterns),
		Registry:   reg,
		Identity:   identity.NewLoader(config.IdentityPath()),
		Brain:      brain.NewStore(config.BrainPath(), config.ExpandHome),
		Invoker:    invoker,
		Loader:     contextload.NewLoader(cmd),
		Sessions:   session.NewManager(),
		Ledger:     store,
		Confirmer:  orchestrator.NewTerminalConfirmer(),
		Commands:   cmd,
		Logger:     logger,
		ReportsDir: config.ReportsDir(),
	})

	return &runtime{cfg: cfg, orch: orch, ledger: store, registry: reg}, nil
}

func debugLogPath(cfg *config.Config) string {
	if cfg.Logging.Level != "debug" {
		return ""
	}
	if cfg.Logging.Path != "" {
		return config.ExpandHome(cfg.Logging.Path)
	}
	return config.Path("debug.log")
}
