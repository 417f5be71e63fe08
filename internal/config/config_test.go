package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// memBackend is an in-memory ConfigBackend.
type memBackend struct {
	strs map[string]string
	ints map[string]int
}

func newMemBackend() *memBackend {
	return &memBackend{strs: map[string]string{}, ints: map[string]int{}}
}

func (m *memBackend) GetString(key string) (string, bool, error) {
	v, ok := m.strs[key]
	return v, ok, nil
}

func (m *memBackend) GetInt(key string) (int, bool, error) {
	v, ok := m.ints[key]
	return v, ok, nil
}

func (m *memBackend) SetString(key, val string) error { m.strs[key] = val; return nil }
func (m *memBackend) SetInt(key string, val int) error { m.ints[key] = val; return nil }
func (m *memBackend) Delete(key string) error {
	delete(m.strs, key)
	delete(m.ints, key)
	return nil
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, s := range specs {
		t.Setenv(s.env, "")
	}
}

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestDefaults verifies all default values are applied when the backend is empty.
func TestDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := loadWith(newMemBackend())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.ListLimit != 25 {
		t.Errorf("Server.ListLimit = %d, want 25", cfg.Server.ListLimit)
	}
	if cfg.Client.BaseURL != "http://localhost:8080" {
		t.Errorf("Client.BaseURL = %q, want %q", cfg.Client.BaseURL, "http://localhost:8080")
	}
	if d, _ := cfg.Client.TimeoutDuration(); d != 0 {
		t.Errorf("Client timeout = %v, want none", d)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want info", cfg.Log.Level)
	}
	if !strings.HasSuffix(cfg.Storage.DataDir, "corkboard") {
		t.Errorf("Storage.DataDir = %q, want it to end in corkboard", cfg.Storage.DataDir)
	}
}

// TestYAMLParsing verifies that all fields are correctly read from a YAML file.
func TestYAMLParsing(t *testing.T) {
	clearEnv(t)
	path := writeTempConfig(t, `
server:
  port: 5000
  list_limit: 10
client:
  base_url: http://board.internal:5000
  timeout: 3s
storage:
  data_dir: /tmp/corkboard-test
log:
  level: debug
`)

	cfg, err := loadWith(newFileBackend(path))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 5000 {
		t.Errorf("Server.Port = %d, want 5000", cfg.Server.Port)
	}
	if cfg.Server.ListLimit != 10 {
		t.Errorf("Server.ListLimit = %d, want 10", cfg.Server.ListLimit)
	}
	if cfg.Client.BaseURL != "http://board.internal:5000" {
		t.Errorf("Client.BaseURL = %q", cfg.Client.BaseURL)
	}
	if d, _ := cfg.Client.TimeoutDuration(); d != 3*time.Second {
		t.Errorf("Client timeout = %v, want 3s", d)
	}
	if cfg.Storage.DataDir != "/tmp/corkboard-test" {
		t.Errorf("Storage.DataDir = %q", cfg.Storage.DataDir)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}
}

func TestMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := loadWith(newFileBackend(filepath.Join(t.TempDir(), "nope", "config.yaml")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
}

// TestEnvOverride verifies that environment variables override config file values.
func TestEnvOverride(t *testing.T) {
	clearEnv(t)
	path := writeTempConfig(t, "server:\n  port: 5000\n")
	t.Setenv("CORKBOARD_SERVER_PORT", "6000")
	t.Setenv("CORKBOARD_CLIENT_BASE_URL", "http://env:6000")

	cfg, err := loadWith(newFileBackend(path))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 6000 {
		t.Errorf("Server.Port = %d, want 6000", cfg.Server.Port)
	}
	if cfg.Client.BaseURL != "http://env:6000" {
		t.Errorf("Client.BaseURL = %q", cfg.Client.BaseURL)
	}
}

func TestEnvOverride_InvalidIntIgnored(t *testing.T) {
	clearEnv(t)
	t.Setenv("CORKBOARD_SERVER_LIST_LIMIT", "lots")

	cfg, err := loadWith(newMemBackend())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.ListLimit != 25 {
		t.Errorf("Server.ListLimit = %d, want default 25", cfg.Server.ListLimit)
	}
}

func TestInvalidFileInt(t *testing.T) {
	clearEnv(t)
	path := writeTempConfig(t, "server:\n  port: eighty\n")

	if _, err := loadWith(newFileBackend(path)); err == nil {
		t.Fatal("expected error for non-integer server.port")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		mut  func(*Config)
	}{
		{"port zero", func(c *Config) { c.Server.Port = 0 }},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }},
		{"list limit zero", func(c *Config) { c.Server.ListLimit = 0 }},
		{"empty base url", func(c *Config) { c.Client.BaseURL = "" }},
		{"bad timeout", func(c *Config) { c.Client.Timeout = "soon" }},
		{"negative timeout", func(c *Config) { c.Client.Timeout = "-1s" }},
		{"bad log level", func(c *Config) { c.Log.Level = "chatty" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			tt.mut(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}

	if err := defaults().Validate(); err != nil {
		t.Errorf("defaults invalid: %v", err)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("CORKBOARD_SERVER_PORT")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("CORKBOARD_SERVER_PORT=9191\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9191 {
		t.Errorf("Server.Port = %d, want 9191 from .env", cfg.Server.Port)
	}
}

func TestSetKey_RoundTrip(t *testing.T) {
	clearEnv(t)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	if err := SetKey("server.port", "7070"); err != nil {
		t.Fatalf("SetKey: %v", err)
	}
	if err := SetKey("client.base_url", "http://127.0.0.1:7070"); err != nil {
		t.Fatalf("SetKey: %v", err)
	}

	cfg, err := loadWith(newFileBackend(FilePath()))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %d, want 7070", cfg.Server.Port)
	}
	if cfg.Client.BaseURL != "http://127.0.0.1:7070" {
		t.Errorf("Client.BaseURL = %q", cfg.Client.BaseURL)
	}

	if err := UnsetKey("server.port"); err != nil {
		t.Fatalf("UnsetKey: %v", err)
	}
	cfg, err = loadWith(newFileBackend(FilePath()))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d after unset, want 8080", cfg.Server.Port)
	}
	if cfg.Client.BaseURL != "http://127.0.0.1:7070" {
		t.Errorf("Client.BaseURL = %q, unset removed the wrong key", cfg.Client.BaseURL)
	}
}

func TestSetKey_Rejects(t *testing.T) {
	b := newMemBackend()
	cases := []struct{ key, value string }{
		{"server.nope", "1"},
		{"server.port", "abc"},
		{"server.port", "0"},
		{"client.timeout", "whenever"},
	}
	for _, c := range cases {
		if err := setKeyWith(b, c.key, c.value); err == nil {
			t.Errorf("setKeyWith(%q, %q) = nil, want error", c.key, c.value)
		}
	}
	if len(b.strs)+len(b.ints) != 0 {
		t.Errorf("rejected values were written: %v %v", b.strs, b.ints)
	}
}

func TestShowAllMatchesValidKeys(t *testing.T) {
	infos := ShowAll(defaults())
	keys := ValidKeys()
	if len(infos) != len(keys) {
		t.Fatalf("ShowAll returned %d keys, ValidKeys %d", len(infos), len(keys))
	}
	for i, info := range infos {
		if info.Key != keys[i] {
			t.Errorf("key %d = %q, want %q", i, info.Key, keys[i])
		}
		if !strings.HasPrefix(info.EnvVar, "CORKBOARD_") {
			t.Errorf("env var %q lacks CORKBOARD_ prefix", info.EnvVar)
		}
	}
}
