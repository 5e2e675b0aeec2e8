// Package config implements the key=value configuration format and
// environment fallback chain of spec.md's Ambient Stack: a minimal
// #-comment config file plus SEACLAW_*/ANTHROPIC_API_KEY/OPENAI_API_KEY
// environment overrides, layered file-then-env like the C original's
// config_load / config_load_env pair.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Config holds every setting the agent runtime needs. Field names
// mirror the C original's CClawConfig, minus the SQLite memory store
// (out of scope — see SPEC_FULL.md Non-goals).
type Config struct {
	Workspace string
	Provider  string
	APIKey    string
	Model     string

	Temperature float64

	TelegramEnabled bool
	TelegramToken   string
	TelegramAllowed string

	GatewayPort  int
	GatewayToken string

	LogLevel slog.Level
}

// Defaults returns the built-in configuration, matching config_defaults.
func Defaults() Config {
	return Config{
		Provider:    "anthropic",
		Model:       "claude-sonnet-4-20250514",
		Temperature: 0.7,
		GatewayPort: 3578,
		LogLevel:    slog.LevelInfo,
	}
}

// DefaultPath is the config search path used when the caller doesn't
// pass --config, matching the C original's default search location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home + "/.cclaw/config"
}

// Load reads key=value pairs from path into cfg, skipping blank lines,
// #-comments, and []-section headers (accepted but ignored, matching
// the C original's TOML-ish tolerance). Unknown keys are logged and
// skipped rather than rejected.
func Load(cfg *Config, path string, log *slog.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "[") {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		val = unquote(strings.TrimSpace(val))
		applyKey(cfg, key, val, log)
	}
	return scanner.Err()
}

func unquote(v string) string {
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		return v[1 : len(v)-1]
	}
	return v
}

func applyKey(cfg *Config, key, val string, log *slog.Logger) {
	switch key {
	case "workspace":
		cfg.Workspace = val
	case "provider":
		cfg.Provider = val
	case "api_key":
		cfg.APIKey = val
	case "model":
		cfg.Model = val
	case "temperature":
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Temperature = f
		}
	case "telegram_token":
		cfg.TelegramToken = val
	case "telegram_allowed":
		cfg.TelegramAllowed = val
	case "telegram_enabled":
		cfg.TelegramEnabled = val == "true" || val == "1"
	case "gateway_port":
		if n, err := strconv.Atoi(val); err == nil {
			cfg.GatewayPort = n
		}
	case "gateway_token":
		cfg.GatewayToken = val
	case "log_level":
		if n, err := strconv.Atoi(val); err == nil {
			cfg.LogLevel = slog.Level((n - 2) * 4) // C's 1..4 become slog's -4/0/4/8; 0 and 5 become -8 and 12
		}
	default:
		if log != nil {
			log.Warn("unknown config key", "key", key)
		}
	}
}

// LoadEnv applies the SEACLAW_API_KEY -> ANTHROPIC_API_KEY ->
// OPENAI_API_KEY fallback chain plus workspace/model/telegram/log-level
// overrides. SEACLAW_API_KEY and the overrides take precedence over
// file-loaded values; ANTHROPIC_API_KEY and OPENAI_API_KEY apply only
// when no API key is set yet.
func LoadEnv(cfg *Config) {
	if v := os.Getenv("SEACLAW_WORKSPACE"); v != "" {
		cfg.Workspace = v
	}
	if v := os.Getenv("SEACLAW_API_KEY"); v != "" {
		cfg.APIKey = v
	} else if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" && cfg.APIKey == "" {
		cfg.APIKey = v
	} else if v := os.Getenv("OPENAI_API_KEY"); v != "" && cfg.APIKey == "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("SEACLAW_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("SEACLAW_TELEGRAM_TOKEN"); v != "" {
		cfg.TelegramToken = v
		cfg.TelegramEnabled = true
	}
	if v := os.Getenv("SEACLAW_LOG_LEVEL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.LogLevel = slog.Level((n - 2) * 4)
		}
	}
}

// Summary logs a startup summary with the API key redacted, matching
// config_dump.
func Summary(cfg Config, log *slog.Logger) {
	workspace := cfg.Workspace
	if workspace == "" {
		workspace = "(cwd)"
	}
	apiKey := "(not set)"
	if cfg.APIKey != "" {
		apiKey = "****"
	}
	telegram := "disabled"
	if cfg.TelegramEnabled {
		telegram = "enabled"
	}
	log.Info("seaclaw configuration",
		"workspace", workspace,
		"provider", cfg.Provider,
		"model", cfg.Model,
		"api_key", apiKey,
		"telegram", telegram,
		"gateway_port", cfg.GatewayPort,
	)
}
