// Package config loads FormPilot's configuration from the environment
// variables enumerated in spec §6, with an optional YAML file and CLI flag
// overlay for local development, using a koanf-based layered loader with
// bare, unprefixed env var names since §6 treats those names as part of
// the external contract.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
)

// Config is FormPilot's full runtime configuration.
type Config struct {
	LLM      LLMConfig
	Session  SessionConfig
	Server   ServerConfig
	Schemas  SchemasConfig
	Adapters AdaptersConfig
}

type LLMConfig struct {
	Provider          string `koanf:"provider"`
	APIEndpoint       string `koanf:"api_endpoint"`
	APIKey            string `koanf:"api_key"`
	ModelName         string `koanf:"model_name"`
	RequestTimeoutSec int    `koanf:"request_timeout_sec"`
}

type SessionConfig struct {
	TimeoutSec int `koanf:"timeout_sec"`
}

type ServerConfig struct {
	Host               string `koanf:"host"`
	Port               int    `koanf:"port"`
	CORSAllowedOrigins string `koanf:"cors_allowed_origins"`
	LogLevel           string `koanf:"log_level"`
}

type SchemasConfig struct {
	Dir string `koanf:"dir"`
}

type AdaptersConfig struct {
	Slack         SlackConfig    `koanf:"slack"`
	Telegram      TelegramConfig `koanf:"telegram"`
	DefaultSchema string         `koanf:"default_schema"`
}

type SlackConfig struct {
	Enabled       bool   `koanf:"enabled"`
	BotToken      string `koanf:"bot_token"`
	SigningSecret string `koanf:"signing_secret"`
	Port          int    `koanf:"port"`
}

type TelegramConfig struct {
	Enabled       bool   `koanf:"enabled"`
	BotToken      string `koanf:"bot_token"`
	UpdateTimeout int    `koanf:"update_timeout"`
}

const (
	DefaultLLMProvider           = "openai"
	DefaultLLMModelName          = "default"
	DefaultLLMRequestTimeout     = 300
	DefaultSessionTimeoutSec     = 1800
	DefaultServerHost            = "0.0.0.0"
	DefaultServerPort            = 8000
	DefaultCORSOrigins           = "*"
	DefaultLogLevel              = "info"
	DefaultSchemasDir            = "./schemas"
	DefaultSlackPort             = 8001
	DefaultTelegramUpdateTimeout = 60
)

// Load reads configuration from (in increasing priority) hardcoded
// defaults, an optional --config YAML file, environment variables, and
// cobra flags bound on cmd.
func Load(cmd *cobra.Command) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"llm.provider":              DefaultLLMProvider,
		"llm.model_name":            DefaultLLMModelName,
		"llm.request_timeout_sec":   DefaultLLMRequestTimeout,
		"session.timeout_sec":       DefaultSessionTimeoutSec,
		"server.host":               DefaultServerHost,
		"server.port":               DefaultServerPort,
		"server.cors_allowed_origins": DefaultCORSOrigins,
		"server.log_level":          DefaultLogLevel,
		"schemas.dir":               DefaultSchemasDir,
		"adapters.slack.port":       DefaultSlackPort,
		"adapters.telegram.update_timeout": DefaultTelegramUpdateTimeout,
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	configPath := ""
	if cmd != nil {
		if flag := cmd.Flags().Lookup("config"); flag != nil {
			configPath = strings.TrimSpace(flag.Value.String())
		}
	}
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	// Bare, unprefixed environment variables per spec §6.
	envMap := map[string]string{
		"LLM_API_ENDPOINT":        "llm.api_endpoint",
		"LLM_API_KEY":             "llm.api_key",
		"LLM_MODEL_NAME":          "llm.model_name",
		"LLM_REQUEST_TIMEOUT_SEC": "llm.request_timeout_sec",
		"LLM_PROVIDER":            "llm.provider",
		"SESSION_TIMEOUT_SEC":     "session.timeout_sec",
		"CORS_ALLOWED_ORIGINS":    "server.cors_allowed_origins",
		"BACKEND_HOST":            "server.host",
		"BACKEND_PORT":            "server.port",
		"LOG_LEVEL":               "server.log_level",
		"SCHEMAS_DIR":             "schemas.dir",
		"SLACK_BOT_TOKEN":         "adapters.slack.bot_token",
		"SLACK_SIGNING_SECRET":    "adapters.slack.signing_secret",
		"SLACK_PORT":              "adapters.slack.port",
		"TELEGRAM_BOT_TOKEN":      "adapters.telegram.bot_token",
		"TELEGRAM_UPDATE_TIMEOUT": "adapters.telegram.update_timeout",
		"ADAPTERS_DEFAULT_SCHEMA": "adapters.default_schema",
	}
	if err := k.Load(env.ProviderWithValue("", ".", func(s, v string) (string, interface{}) {
		key, ok := envMap[s]
		if !ok {
			return "", nil
		}
		return key, v
	}), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	if cmd != nil {
		if err := k.Load(posflag.Provider(cmd.Flags(), ".", k), nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Adapters.Slack.Enabled = cfg.Adapters.Slack.BotToken != ""
	cfg.Adapters.Telegram.Enabled = cfg.Adapters.Telegram.BotToken != ""

	return &cfg, nil
}

// RequestTimeout returns the configured LLM call timeout as a duration.
func (c *LLMConfig) RequestTimeout() time.Duration {
	secs := c.RequestTimeoutSec
	if secs <= 0 {
		secs = DefaultLLMRequestTimeout
	}
	return time.Duration(secs) * time.Second
}

// SessionTimeout returns the configured session idle expiry as a duration.
func (c *SessionConfig) SessionTimeout() time.Duration {
	secs := c.TimeoutSec
	if secs <= 0 {
		secs = DefaultSessionTimeoutSec
	}
	return time.Duration(secs) * time.Second
}

// Addr returns the host:port bind address.
func (c *ServerConfig) Addr() string {
	host := c.Host
	if host == "" {
		host = DefaultServerHost
	}
	port := c.Port
	if port == 0 {
		port = DefaultServerPort
	}
	return host + ":" + strconv.Itoa(port)
}
