package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	d := Defaults()
	if d.Provider != "anthropic" || d.GatewayPort != 3578 || d.LogLevel != slog.LevelInfo {
		t.Fatalf("Defaults() = %+v", d)
	}
}

func TestLoadParsesKeyValueSkippingCommentsAndSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	contents := "# a comment\n" +
		"[general]\n" +
		"\n" +
		"workspace = \"/tmp/ws\"\n" +
		"model=claude-x\n" +
		"temperature = 0.3\n" +
		"gateway_port = 9000\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg := Defaults()
	if err := Load(&cfg, path, slog.Default()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Workspace != "/tmp/ws" {
		t.Fatalf("Workspace = %q, want unquoted /tmp/ws", cfg.Workspace)
	}
	if cfg.Model != "claude-x" || cfg.Temperature != 0.3 || cfg.GatewayPort != 9000 {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLoadUnknownKeyIsSkippedNotRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	if err := os.WriteFile(path, []byte("totally_unknown = 1\nmodel = x\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	cfg := Defaults()
	if err := Load(&cfg, path, slog.Default()); err != nil {
		t.Fatalf("Load() error = %v, want no error for an unknown key", err)
	}
	if cfg.Model != "x" {
		t.Fatalf("Model = %q, subsequent known keys should still apply", cfg.Model)
	}
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	cfg := Defaults()
	if err := Load(&cfg, filepath.Join(t.TempDir(), "nope"), nil); err == nil {
		t.Fatalf("expected error for a missing config file")
	}
}

func TestLoadEnvPrefersSeaclawAPIKeyOverFallbacks(t *testing.T) {
	t.Setenv("SEACLAW_API_KEY", "seaclaw-key")
	t.Setenv("ANTHROPIC_API_KEY", "anthropic-key")
	t.Setenv("OPENAI_API_KEY", "openai-key")

	cfg := Defaults()
	LoadEnv(&cfg)
	if cfg.APIKey != "seaclaw-key" {
		t.Fatalf("APIKey = %q, want seaclaw-key to win", cfg.APIKey)
	}
}

func TestLoadEnvFallsBackToAnthropicThenOpenAI(t *testing.T) {
	t.Setenv("SEACLAW_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "anthropic-key")
	t.Setenv("OPENAI_API_KEY", "openai-key")

	cfg := Defaults()
	LoadEnv(&cfg)
	if cfg.APIKey != "anthropic-key" {
		t.Fatalf("APIKey = %q, want anthropic-key when SEACLAW_API_KEY is unset", cfg.APIKey)
	}

	t.Setenv("ANTHROPIC_API_KEY", "")
	cfg = Defaults()
	LoadEnv(&cfg)
	if cfg.APIKey != "openai-key" {
		t.Fatalf("APIKey = %q, want openai-key when SEACLAW_API_KEY and ANTHROPIC_API_KEY are unset", cfg.APIKey)
	}
}

func TestLoadEnvKeepsFileValueWhenNoEnvOverride(t *testing.T) {
	t.Setenv("SEACLAW_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	cfg := Defaults()
	cfg.APIKey = "from-file"
	LoadEnv(&cfg)
	if cfg.APIKey != "from-file" {
		t.Fatalf("APIKey = %q, want the file-loaded value preserved", cfg.APIKey)
	}
}

func TestLoadEnvWorkspaceAndModelOverrides(t *testing.T) {
	t.Setenv("SEACLAW_WORKSPACE", "/env/ws")
	t.Setenv("SEACLAW_MODEL", "env-model")

	cfg := Defaults()
	LoadEnv(&cfg)
	if cfg.Workspace != "/env/ws" || cfg.Model != "env-model" {
		t.Fatalf("cfg = %+v", cfg)
	}
}
