// Package config loads application configuration from defaults, an
// optional YAML file and environment variables. All variables use the
// LEARN_ prefix.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Provider selector keys.
const (
	ProviderLocal   = "local"
	ProviderGateway = "gateway"
	ProviderHosted  = "hosted-remote"
)

// Events backends.
const (
	EventsNone     = "none"
	EventsMemory   = "memory"
	EventsPostgres = "postgres"
	EventsSQLite   = "sqlite"
)

// ConfigFileEnv names the variable holding an optional YAML config file.
const ConfigFileEnv = "LEARN_CONFIG_FILE"

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig   `koanf:"server"`
	Database    DatabaseConfig `koanf:"database"`
	Cache       CacheConfig    `koanf:"cache"`
	AI          AIConfig       `koanf:"ai"`
	Events      EventsConfig   `koanf:"events"`
	Log         LogConfig      `koanf:"log"`
	CatalogPath string         `koanf:"catalog_path"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int    `koanf:"port"`
	Host string `koanf:"host"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string `koanf:"url"`
	MaxConns int    `koanf:"max_conns"`
	MinConns int    `koanf:"min_conns"`
}

// CacheConfig holds Dragonfly/Redis connection settings. An empty URL
// disables the analysis cache.
type CacheConfig struct {
	URL string `koanf:"url"`
	TTL int    `koanf:"ttl"` // seconds
}

// AIConfig selects the tutoring backend and holds per-backend settings.
type AIConfig struct {
	Provider string        `koanf:"provider"`
	Gateway  GatewayConfig `koanf:"gateway"`
	Hosted   HostedConfig  `koanf:"hosted"`
	Local    LocalConfig   `koanf:"local"`
}

// GatewayConfig holds OpenRouter settings.
type GatewayConfig struct {
	APIKey  string `koanf:"api_key"`
	Model   string `koanf:"model"`
	BaseURL string `koanf:"base_url"`
}

// HostedConfig holds Vertex AI settings.
type HostedConfig struct {
	ProjectID string `koanf:"project_id"`
	Location  string `koanf:"location"`
	Model     string `koanf:"model"`
	Timeout   int    `koanf:"timeout"` // seconds
}

// LocalConfig holds self-hosted Ollama settings.
type LocalConfig struct {
	URL     string `koanf:"url"`
	Model   string `koanf:"model"`
	Timeout int    `koanf:"timeout"` // seconds
}

// EventsConfig selects where tutoring events are recorded.
type EventsConfig struct {
	Backend    string `koanf:"backend"`
	SQLitePath string `koanf:"sqlite_path"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

func defaults() map[string]any {
	return map[string]any{
		"server.port":          8080,
		"server.host":          "0.0.0.0",
		"database.url":         "",
		"database.max_conns":   10,
		"database.min_conns":   2,
		"cache.url":            "",
		"cache.ttl":            3600,
		"ai.provider":          ProviderLocal,
		"ai.gateway.api_key":   "",
		"ai.gateway.model":     "google/gemini-pro-1.5",
		"ai.gateway.base_url":  "https://openrouter.ai/api/v1",
		"ai.hosted.project_id": "",
		"ai.hosted.location":   "us-central1",
		"ai.hosted.model":      "gemini-1.5-pro",
		"ai.hosted.timeout":    60,
		"ai.local.url":         "http://localhost:11434",
		"ai.local.model":       "llama3:8b",
		"ai.local.timeout":     60,
		"events.backend":       EventsNone,
		"events.sqlite_path":   "tutor-events.db",
		"catalog_path":         "",
		"log.level":            "info",
		"log.format":           "json",
	}
}

// envKeys maps LEARN_ variables to configuration keys.
var envKeys = map[string]string{
	"LEARN_SERVER_PORT":         "server.port",
	"LEARN_SERVER_HOST":         "server.host",
	"LEARN_DATABASE_URL":        "database.url",
	"LEARN_DATABASE_MAX_CONNS":  "database.max_conns",
	"LEARN_DATABASE_MIN_CONNS":  "database.min_conns",
	"LEARN_CACHE_URL":           "cache.url",
	"LEARN_CACHE_TTL":           "cache.ttl",
	"LEARN_AI_PROVIDER":         "ai.provider",
	"LEARN_AI_GATEWAY_API_KEY":  "ai.gateway.api_key",
	"LEARN_AI_GATEWAY_MODEL":    "ai.gateway.model",
	"LEARN_AI_GATEWAY_BASE_URL": "ai.gateway.base_url",
	"LEARN_AI_HOSTED_PROJECT":   "ai.hosted.project_id",
	"LEARN_AI_HOSTED_LOCATION":  "ai.hosted.location",
	"LEARN_AI_HOSTED_MODEL":     "ai.hosted.model",
	"LEARN_AI_HOSTED_TIMEOUT":   "ai.hosted.timeout",
	"LEARN_AI_LOCAL_URL":        "ai.local.url",
	"LEARN_AI_LOCAL_MODEL":      "ai.local.model",
	"LEARN_AI_LOCAL_TIMEOUT":    "ai.local.timeout",
	"LEARN_EVENTS_BACKEND":      "events.backend",
	"LEARN_EVENTS_SQLITE_PATH":  "events.sqlite_path",
	"LEARN_CATALOG_PATH":        "catalog_path",
	"LEARN_LOG_LEVEL":           "log.level",
	"LEARN_LOG_FORMAT":          "log.format",
}

// Load reads configuration: built-in defaults, then the YAML file named by
// LEARN_CONFIG_FILE (if set and present), then LEARN_ environment variables.
func Load() (*Config, error) {
	return LoadFile(os.Getenv(ConfigFileEnv))
}

// LoadFile is Load with an explicit config file path.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("loading config file: %w", err)
			}
		}
	}

	if err := k.Load(env.Provider("LEARN_", ".", func(s string) string {
		return envKeys[s]
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.AI.Provider = strings.ToLower(strings.TrimSpace(cfg.AI.Provider))
	cfg.Events.Backend = strings.ToLower(strings.TrimSpace(cfg.Events.Backend))

	return &cfg, nil
}

// Validate checks that the configuration is usable. An unknown AI provider
// is not an error: the selector falls back to the local backend.
func (c *Config) Validate() error {
	switch c.Events.Backend {
	case EventsNone, EventsMemory:
	case EventsPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("LEARN_DATABASE_URL is required for the postgres events backend")
		}
	case EventsSQLite:
		if c.Events.SQLitePath == "" {
			return fmt.Errorf("LEARN_EVENTS_SQLITE_PATH is required for the sqlite events backend")
		}
	default:
		return fmt.Errorf("LEARN_EVENTS_BACKEND must be one of none, memory, postgres, sqlite, got %q", c.Events.Backend)
	}

	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("LEARN_LOG_FORMAT must be 'json' or 'text', got %q", c.Log.Format)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("LEARN_SERVER_PORT out of range: %d", c.Server.Port)
	}

	if c.AI.Local.Timeout < 0 || c.AI.Hosted.Timeout < 0 {
		return fmt.Errorf("AI timeouts must not be negative")
	}

	return nil
}
