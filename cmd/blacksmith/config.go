package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blacksmith-cli/blacksmith/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify Blacksmith configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration lives at $BLACKSMITH_HOME/config.yaml (default ~/.blacksmith).`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		switch len(args) {
		case 0:
			displayAllConfig(cfg)
		case 1:
			displayConfigKey(cfg, args[0])
		default:
			setConfigKey(cfg, args[0], args[1])
		}
	},
}

func displayAllConfig(cfg *config.Config) {
	apiKeyDisplay := "(not set)"
	if cfg.Backends.Anthropic.APIKey != "" {
		apiKeyDisplay = "****"
	}

	fmt.Printf("backends.ollama.host: %s\n", cfg.Backends.Ollama.Host)
	fmt.Printf("backends.ollama.default_model: %s\n", cfg.Backends.Ollama.DefaultModel)
	fmt.Printf("backends.claude.default_model: %s\n", cfg.Backends.Claude.DefaultModel)
	fmt.Printf("backends.gemini.default_model: %s\n", cfg.Backends.Gemini.DefaultModel)
	fmt.Printf("backends.anthropic.api_key: %s\n", apiKeyDisplay)
	fmt.Printf("backends.anthropic.use_aws_bedrock: %t\n", cfg.Backends.Anthropic.UseAWSBedrock)
	fmt.Printf("routing.cost_warning_threshold: %.2f\n", cfg.Routing.CostWarningThreshold)
	fmt.Printf("routing.cost_hard_stop: %.2f\n", cfg.Routing.CostHardStop)
	fmt.Printf("routing.auto_escalate: %t\n", cfg.Routing.AutoEscalate)
	fmt.Printf("routing.abort_on_skipped_checkpoint: %t\n", cfg.Routing.AbortOnSkippedCheckpoint)
	fmt.Printf("ledger.enabled: %t\n", cfg.Ledger.Enabled)
	fmt.Printf("ledger.db_path: %s\n", cfg.Ledger.DBPath)
	fmt.Printf("ledger.retention_days: %d\n", cfg.Ledger.RetentionDays)
	fmt.Printf("timeouts.low: %s\n", cfg.Timeouts.Low)
	fmt.Printf("timeouts.medium: %s\n", cfg.Timeouts.Medium)
	fmt.Printf("timeouts.high: %s\n", cfg.Timeouts.High)
	fmt.Printf("logging.level: %s\n", cfg.Logging.Level)
}

func displayConfigKey(cfg *config.Config, key string) {
	value, err := getConfigValue(cfg, key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(value)
}

func setConfigKey(cfg *config.Config, key, value string) {
	if err := setConfigValue(cfg, key, value); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := config.Save(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Set %s = %s\n", key, value)
}

func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch strings.ToLower(key) {
	case "backends.ollama.host":
		return cfg.Backends.Ollama.Host, nil
	case "backends.ollama.default_model":
		return cfg.Backends.Ollama.DefaultModel, nil
	case "backends.claude.default_model":
		return cfg.Backends.Claude.DefaultModel, nil
	case "backends.gemini.default_model":
		return cfg.Backends.Gemini.DefaultModel, nil
	case "backends.anthropic.api_key":
		if cfg.Backends.Anthropic.APIKey == "" {
			return "(not set)", nil
		}
		return "****", nil
	case "routing.cost_warning_threshold":
		return fmt.Sprintf("%.2f", cfg.Routing.CostWarningThreshold), nil
	case "routing.cost_hard_stop":
		return fmt.Sprintf("%.2f", cfg.Routing.CostHardStop), nil
	case "routing.auto_escalate":
		return strconv.FormatBool(cfg.Routing.AutoEscalate), nil
	case "routing.abort_on_skipped_checkpoint":
		return strconv.FormatBool(cfg.Routing.AbortOnSkippedCheckpoint), nil
	case "ledger.enabled":
		return strconv.FormatBool(cfg.Ledger.Enabled), nil
	case "ledger.db_path":
		return cfg.Ledger.DBPath, nil
	case "ledger.retention_days":
		return strconv.Itoa(cfg.Ledger.RetentionDays), nil
	case "logging.level":
		return cfg.Logging.Level, nil
	default:
		return "", fmt.Errorf("unknown config key: %s", key)
	}
}

func setConfigValue(cfg *config.Config, key, value string) error {
	switch strings.ToLower(key) {
	case "backends.ollama.host":
		cfg.Backends.Ollama.Host = value
	case "backends.ollama.default_model":
		cfg.Backends.Ollama.DefaultModel = value
	case "backends.claude.default_model":
		cfg.Backends.Claude.DefaultModel = value
	case "backends.gemini.default_model":
		cfg.Backends.Gemini.DefaultModel = value
	case "backends.anthropic.api_key":
		cfg.Backends.Anthropic.APIKey = value
	case "routing.cost_warning_threshold":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid number: %s", value)
		}
		cfg.Routing.CostWarningThreshold = f
	case "routing.cost_hard_stop":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid number: %s", value)
		}
		cfg.Routing.CostHardStop = f
	case "routing.auto_escalate":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %s", value)
		}
		cfg.Routing.AutoEscalate = b
	case "routing.abort_on_skipped_checkpoint":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %s", value)
		}
		cfg.Routing.AbortOnSkippedCheckpoint = b
	case "ledger.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %s", value)
		}
		cfg.Ledger.Enabled = b
	case "ledger.retention_days":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer: %s", value)
		}
		cfg.Ledger.RetentionDays = n
	case "logging.level":
		cfg.Logging.Level = value
	default:
		return fmt.Errorf("unknown or read-only config key: %s", key)
	}
	return nil
}
