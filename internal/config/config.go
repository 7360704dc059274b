// Package config handles configuration loading and management for Blacksmith.
// It supports a relocatable home directory, a YAML config file, and
// environment overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for Blacksmith.
type Config struct {
	Backends BackendsConfig `mapstructure:"backends" yaml:"backends"`
	Routing  RoutingConfig  `mapstructure:"routing" yaml:"routing"`
	Ledger   LedgerConfig   `mapstructure:"ledger" yaml:"ledger"`
	Timeouts TimeoutsConfig `mapstructure:"timeouts" yaml:"timeouts"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
}

// BackendsConfig holds per-backend settings.
type BackendsConfig struct {
	Ollama    OllamaConfig    `mapstructure:"ollama" yaml:"ollama"`
	Claude    ClaudeConfig    `mapstructure:"claude" yaml:"claude"`
	Gemini    BackendToggle   `mapstructure:"gemini" yaml:"gemini"`
	Codex     BackendToggle   `mapstructure:"codex" yaml:"codex"`
	Jules     BackendToggle   `mapstructure:"jules" yaml:"jules"`
	Anthropic AnthropicConfig `mapstructure:"anthropic" yaml:"anthropic"`
}

// OllamaConfig holds local Ollama settings.
type OllamaConfig struct {
	Enabled      bool              `mapstructure:"enabled" yaml:"enabled"`
	Host         string            `mapstructure:"host" yaml:"host"`
	DefaultModel string            `mapstructure:"default_model" yaml:"default_model"`
	Models       map[string]string `mapstructure:"models" yaml:"models"`
}

// ClaudeConfig holds Claude CLI settings.
type ClaudeConfig struct {
	Enabled      bool   `mapstructure:"enabled" yaml:"enabled"`
	DefaultModel string `mapstructure:"default_model" yaml:"default_model"`
}

// BackendToggle enables or disables a CLI backend.
type BackendToggle struct {
	Enabled      bool   `mapstructure:"enabled" yaml:"enabled"`
	DefaultModel string `mapstructure:"default_model" yaml:"default_model,omitempty"`
}

// AnthropicConfig holds direct-API settings for the Anthropic backend.
type AnthropicConfig struct {
	APIKey        string `mapstructure:"api_key" yaml:"api_key,omitempty"`
	UseAWSBedrock bool   `mapstructure:"use_aws_bedrock" yaml:"use_aws_bedrock"`
	AWSRegion     string `mapstructure:"aws_region" yaml:"aws_region,omitempty"`
	AWSProfile    string `mapstructure:"aws_profile" yaml:"aws_profile,omitempty"`
}

// RoutingConfig holds cost guardrails and escalation policy.
type RoutingConfig struct {
	CostWarningThreshold float64 `mapstructure:"cost_warning_threshold" yaml:"cost_warning_threshold"`
	CostHardStop         float64 `mapstructure:"cost_hard_stop" yaml:"cost_hard_stop"`
	AutoEscalate         bool    `mapstructure:"auto_escalate" yaml:"auto_escalate"`
	// AbortOnSkippedCheckpoint stops a pipeline when a checkpoint is
	// declined instead of continuing with the remaining steps.
	AbortOnSkippedCheckpoint bool `mapstructure:"abort_on_skipped_checkpoint" yaml:"abort_on_skipped_checkpoint"`
}

// LedgerConfig holds ledger storage settings.
type LedgerConfig struct {
	Enabled       bool   `mapstructure:"enabled" yaml:"enabled"`
	DBPath        string `mapstructure:"db_path" yaml:"db_path"`
	RetentionDays int    `mapstructure:"retention_days" yaml:"retention_days"`
}

// TimeoutsConfig holds per-complexity backend invocation timeouts.
type TimeoutsConfig struct {
	Low    time.Duration `mapstructure:"low" yaml:"low"`
	Medium time.Duration `mapstructure:"medium" yaml:"medium"`
	High   time.Duration `mapstructure:"high" yaml:"high"`
}

// LoggingConfig holds debug logging settings.
type LoggingConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	Path  string `mapstructure:"path" yaml:"path,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Backends: BackendsConfig{
			Ollama: OllamaConfig{
				Enabled:      true,
				Host:         "http://localhost:11434",
				DefaultModel: "qwen2.5-coder:7b",
				Models: map[string]string{
					"code":      "qwen2.5-coder:7b",
					"general":   "llama3.1:8b",
					"reasoning": "deepseek-r1:7b",
				},
			},
			Claude: ClaudeConfig{Enabled: true, DefaultModel: "sonnet"},
			Gemini: BackendToggle{Enabled: true, DefaultModel: "gemini-2.0-pro"},
			Codex:  BackendToggle{Enabled: true},
			Jules:  BackendToggle{Enabled: true},
		},
		Routing: RoutingConfig{
			CostWarningThreshold: 0.5,
			CostHardStop:         2.0,
			AutoEscalate:         true,
		},
		Ledger: LedgerConfig{
			Enabled:       true,
			DBPath:        "~/.blacksmith/ledger.db",
			RetentionDays: 90,
		},
		Timeouts: TimeoutsConfig{
			Low:    30 * time.Second,
			Medium: 30 * time.Second,
			High:   90 * time.Second,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load loads configuration from the Blacksmith home directory and
// environment variables.
// Precedence (highest to lowest):
//  1. Environment variables (ANTHROPIC_API_KEY)
//  2. $BLACKSMITH_HOME/config.yaml
//  3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(Home())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.AutomaticEnv()
	if err := v.BindEnv("backends.anthropic.api_key", "ANTHROPIC_API_KEY"); err != nil {
		return nil, fmt.Errorf("binding api key env: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Ledger.DBPath = ExpandHome(cfg.Ledger.DBPath)
	return cfg, nil
}

// Save writes the configuration to $BLACKSMITH_HOME/config.yaml.
func Save(cfg *Config) error {
	if err := os.MkdirAll(Home(), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(ConfigPath(), data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// TimeoutFor returns the backend timeout for a complexity level.
func (c *Config) TimeoutFor(complexity string) time.Duration {
	switch complexity {
	case "high":
		return c.Timeouts.High
	case "medium":
		return c.Timeouts.Medium
	default:
		return c.Timeouts.Low
	}
}

func setDefaults(v *viper.Viper) {
	def := Default()
	v.SetDefault("backends.ollama.enabled", def.Backends.Ollama.Enabled)
	v.SetDefault("backends.ollama.host", def.Backends.Ollama.Host)
	v.SetDefault("backends.ollama.default_model", def.Backends.Ollama.DefaultModel)
	v.SetDefault("backends.ollama.models", def.Backends.Ollama.Models)
	v.SetDefault("backends.claude.enabled", def.Backends.Claude.Enabled)
	v.SetDefault("backends.claude.default_model", def.Backends.Claude.DefaultModel)
	v.SetDefault("backends.gemini.enabled", def.Backends.Gemini.Enabled)
	v.SetDefault("backends.gemini.default_model", def.Backends.Gemini.DefaultModel)
	v.SetDefault("backends.codex.enabled", def.Backends.Codex.Enabled)
	v.SetDefault("backends.jules.enabled", def.Backends.Jules.Enabled)
	v.SetDefault("routing.cost_warning_threshold", def.Routing.CostWarningThreshold)
	v.SetDefault("routing.cost_hard_stop", def.Routing.CostHardStop)
	v.SetDefault("routing.auto_escalate", def.Routing.AutoEscalate)
	v.SetDefault("routing.abort_on_skipped_checkpoint", def.Routing.AbortOnSkippedCheckpoint)
	v.SetDefault("ledger.enabled", def.Ledger.Enabled)
	v.SetDefault("ledger.db_path", def.Ledger.DBPath)
	v.SetDefault("ledger.retention_days", def.Ledger.RetentionDays)
	v.SetDefault("timeouts.low", def.Timeouts.Low)
	v.SetDefault("timeouts.medium", def.Timeouts.Medium)
	v.SetDefault("timeouts.high", def.Timeouts.High)
	v.SetDefault("logging.level", def.Logging.Level)
}
