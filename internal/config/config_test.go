package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LLM_API_ENDPOINT", "")
	t.Setenv("LLM_API_KEY", "")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.LLM.Provider != DefaultLLMProvider {
		t.Errorf("Expected default llm provider %s, got %s", DefaultLLMProvider, cfg.LLM.Provider)
	}
	if cfg.LLM.ModelName != DefaultLLMModelName {
		t.Errorf("Expected default model name %s, got %s", DefaultLLMModelName, cfg.LLM.ModelName)
	}
	if cfg.LLM.RequestTimeoutSec != DefaultLLMRequestTimeout {
		t.Errorf("Expected default llm request timeout %d, got %d", DefaultLLMRequestTimeout, cfg.LLM.RequestTimeoutSec)
	}
	if cfg.Session.TimeoutSec != DefaultSessionTimeoutSec {
		t.Errorf("Expected default session timeout %d, got %d", DefaultSessionTimeoutSec, cfg.Session.TimeoutSec)
	}
	if cfg.Server.Host != DefaultServerHost {
		t.Errorf("Expected default server host %s, got %s", DefaultServerHost, cfg.Server.Host)
	}
	if cfg.Server.Port != DefaultServerPort {
		t.Errorf("Expected default port %d, got %d", DefaultServerPort, cfg.Server.Port)
	}
	if cfg.Server.CORSAllowedOrigins != DefaultCORSOrigins {
		t.Errorf("Expected default cors origins %s, got %s", DefaultCORSOrigins, cfg.Server.CORSAllowedOrigins)
	}
	if cfg.Server.LogLevel != DefaultLogLevel {
		t.Errorf("Expected default log level %s, got %s", DefaultLogLevel, cfg.Server.LogLevel)
	}
	if cfg.Schemas.Dir != DefaultSchemasDir {
		t.Errorf("Expected default schemas dir %s, got %s", DefaultSchemasDir, cfg.Schemas.Dir)
	}
	if cfg.Adapters.Slack.Port != DefaultSlackPort {
		t.Errorf("Expected default slack port %d, got %d", DefaultSlackPort, cfg.Adapters.Slack.Port)
	}
	if cfg.Adapters.Telegram.UpdateTimeout != DefaultTelegramUpdateTimeout {
		t.Errorf("Expected default telegram update timeout %d, got %d", DefaultTelegramUpdateTimeout, cfg.Adapters.Telegram.UpdateTimeout)
	}
	if cfg.Adapters.Slack.Enabled {
		t.Errorf("Expected slack disabled with no bot token configured")
	}
	if cfg.Adapters.Telegram.Enabled {
		t.Errorf("Expected telegram disabled with no bot token configured")
	}
}

func TestLoadEnablesAdaptersWhenTokensPresent(t *testing.T) {
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-test")
	t.Setenv("SLACK_SIGNING_SECRET", "shh")
	t.Setenv("TELEGRAM_BOT_TOKEN", "tg-test")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if !cfg.Adapters.Slack.Enabled {
		t.Error("Expected slack adapter enabled when SLACK_BOT_TOKEN is set")
	}
	if cfg.Adapters.Slack.BotToken != "xoxb-test" {
		t.Errorf("Expected slack bot token xoxb-test, got %s", cfg.Adapters.Slack.BotToken)
	}
	if !cfg.Adapters.Telegram.Enabled {
		t.Error("Expected telegram adapter enabled when TELEGRAM_BOT_TOKEN is set")
	}
}

func TestLoadWithConfigFlag(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	content := []byte(`
server:
  port: 9090
llm:
  model_name: custom-model
`)
	if err := os.WriteFile(configPath, content, 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cmd := &cobra.Command{}
	cmd.Flags().String("config", "", "config file path")
	if err := cmd.Flags().Set("config", configPath); err != nil {
		t.Fatalf("failed to set config flag: %v", err)
	}

	cfg, err := Load(cmd)
	if err != nil {
		t.Fatalf("failed to load config with --config: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Fatalf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.LLM.ModelName != "custom-model" {
		t.Fatalf("expected model name custom-model, got %s", cfg.LLM.ModelName)
	}
}

func TestLoadWithMissingConfigFlagReturnsError(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().String("config", "", "config file path")
	if err := cmd.Flags().Set("config", filepath.Join(t.TempDir(), "missing.yaml")); err != nil {
		t.Fatalf("failed to set config flag: %v", err)
	}

	if _, err := Load(cmd); err == nil {
		t.Fatal("expected error when --config points to missing file")
	}
}

func TestLoad_EnvOverridesFileOverridesDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	content := []byte(`
server:
  port: 9090
  log_level: warn
`)
	if err := os.WriteFile(configPath, content, 0644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	t.Setenv("BACKEND_PORT", "7070")

	cmd := &cobra.Command{}
	cmd.Flags().String("config", "", "config file path")
	if err := cmd.Flags().Set("config", configPath); err != nil {
		t.Fatalf("set config flag: %v", err)
	}

	cfg, err := Load(cmd)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Fatalf("expected env var to override file value, port = %d, want 7070", cfg.Server.Port)
	}
	if cfg.Server.LogLevel != "warn" {
		t.Fatalf("expected file value to survive, log_level = %q, want warn", cfg.Server.LogLevel)
	}
}

func TestServerConfig_AddrFallsBackToDefaults(t *testing.T) {
	var c ServerConfig
	if got, want := c.Addr(), DefaultServerHost+":8000"; got != want {
		t.Fatalf("Addr() = %q, want %q", got, want)
	}
}
