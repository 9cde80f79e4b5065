package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// clearEnv unsets all LEARN_ environment variables for a clean test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		if key, _, _ := strings.Cut(kv, "="); strings.HasPrefix(key, "LEARN_") {
			t.Setenv(key, "")
			_ = os.Unsetenv(key)
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.MaxConns != 10 {
		t.Errorf("Database.MaxConns = %d, want 10", cfg.Database.MaxConns)
	}
	if cfg.Cache.TTL != 3600 {
		t.Errorf("Cache.TTL = %d, want 3600", cfg.Cache.TTL)
	}
	if cfg.AI.Provider != ProviderLocal {
		t.Errorf("AI.Provider = %q, want local", cfg.AI.Provider)
	}
	if cfg.AI.Gateway.Model != "google/gemini-pro-1.5" {
		t.Errorf("AI.Gateway.Model = %q", cfg.AI.Gateway.Model)
	}
	if cfg.AI.Hosted.Location != "us-central1" || cfg.AI.Hosted.Model != "gemini-1.5-pro" {
		t.Errorf("AI.Hosted = %+v", cfg.AI.Hosted)
	}
	if cfg.AI.Local.Timeout != 60 || cfg.AI.Hosted.Timeout != 60 {
		t.Errorf("timeouts = %d/%d, want 60/60", cfg.AI.Local.Timeout, cfg.AI.Hosted.Timeout)
	}
	if cfg.Events.Backend != EventsNone {
		t.Errorf("Events.Backend = %q, want none", cfg.Events.Backend)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() on defaults error = %v", err)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	clearEnv(t)

	t.Setenv("LEARN_SERVER_PORT", "9090")
	t.Setenv("LEARN_AI_PROVIDER", " Gateway ")
	t.Setenv("LEARN_AI_GATEWAY_API_KEY", "sk-or-test")
	t.Setenv("LEARN_AI_GATEWAY_MODEL", "anthropic/claude-3.5-sonnet")
	t.Setenv("LEARN_AI_HOSTED_PROJECT", "demo-project")
	t.Setenv("LEARN_AI_LOCAL_TIMEOUT", "15")
	t.Setenv("LEARN_EVENTS_BACKEND", "sqlite")
	t.Setenv("LEARN_LOG_LEVEL", "debug")
	t.Setenv("LEARN_UNRELATED", "ignored")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.AI.Provider != ProviderGateway {
		t.Errorf("AI.Provider = %q, want gateway", cfg.AI.Provider)
	}
	if cfg.AI.Gateway.APIKey != "sk-or-test" {
		t.Errorf("AI.Gateway.APIKey = %q", cfg.AI.Gateway.APIKey)
	}
	if cfg.AI.Gateway.Model != "anthropic/claude-3.5-sonnet" {
		t.Errorf("AI.Gateway.Model = %q", cfg.AI.Gateway.Model)
	}
	if cfg.AI.Hosted.ProjectID != "demo-project" {
		t.Errorf("AI.Hosted.ProjectID = %q", cfg.AI.Hosted.ProjectID)
	}
	if cfg.AI.Local.Timeout != 15 {
		t.Errorf("AI.Local.Timeout = %d, want 15", cfg.AI.Local.Timeout)
	}
	if cfg.Events.Backend != EventsSQLite {
		t.Errorf("Events.Backend = %q", cfg.Events.Backend)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	err := os.WriteFile(path, []byte(`
ai:
  provider: hosted-remote
  hosted:
    project_id: file-project
    model: gemini-1.5-flash
cache:
  url: redis://localhost:6379
  ttl: 60
`), 0o644)
	if err != nil {
		t.Fatal(err)
	}

	t.Setenv(ConfigFileEnv, path)
	t.Setenv("LEARN_AI_HOSTED_MODEL", "gemini-1.5-pro-002")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.AI.Provider != ProviderHosted {
		t.Errorf("AI.Provider = %q, want hosted-remote", cfg.AI.Provider)
	}
	if cfg.AI.Hosted.ProjectID != "file-project" {
		t.Errorf("AI.Hosted.ProjectID = %q, want file value", cfg.AI.Hosted.ProjectID)
	}
	if cfg.AI.Hosted.Model != "gemini-1.5-pro-002" {
		t.Errorf("AI.Hosted.Model = %q, want env override", cfg.AI.Hosted.Model)
	}
	if cfg.AI.Hosted.Location != "us-central1" {
		t.Errorf("AI.Hosted.Location = %q, want default", cfg.AI.Hosted.Location)
	}
	if cfg.Cache.URL != "redis://localhost:6379" || cfg.Cache.TTL != 60 {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want default", cfg.Server.Port)
	}
}

func TestLoadFile_Malformed(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("ai: [unclosed\n"), 0o644)

	if _, err := LoadFile(path); err == nil {
		t.Fatal("LoadFile() should fail on malformed YAML")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"memory events", func(c *Config) { c.Events.Backend = EventsMemory }, false},
		{"postgres without url", func(c *Config) { c.Events.Backend = EventsPostgres }, true},
		{"postgres with url", func(c *Config) {
			c.Events.Backend = EventsPostgres
			c.Database.URL = "postgres://localhost/db"
		}, false},
		{"sqlite without path", func(c *Config) {
			c.Events.Backend = EventsSQLite
			c.Events.SQLitePath = ""
		}, true},
		{"unknown events backend", func(c *Config) { c.Events.Backend = "kafka" }, true},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, true},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, true},
		{"negative timeout", func(c *Config) { c.AI.Hosted.Timeout = -1 }, true},
		{"unknown provider is allowed", func(c *Config) { c.AI.Provider = "mystery" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			tt.modify(cfg)

			err = cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
