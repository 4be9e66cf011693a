package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigCreatesDefaultFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected default config file to be created: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.RemoteConfigured() {
		t.Error("default config should not report a configured remote")
	}
}

func TestLoadConfigReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
[server]
port = "9090"
host = "127.0.0.1"

[remote]
endpoint = "postgres://snippets@db.example.com:5432/musicbites"
credential = "s3cret"

[storage]
path = "./test.db"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Server.Port)
	}
	if got := cfg.GetAddress(); got != "127.0.0.1:9090" {
		t.Errorf("GetAddress() = %q", got)
	}
	if !cfg.RemoteConfigured() {
		t.Error("expected remote to be configured")
	}
	// Unset sections keep their defaults.
	if !cfg.Uploads.Enabled {
		t.Error("expected uploads to stay enabled by default")
	}
}

func TestRemoteCredentialFromEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
[remote]
endpoint = "postgres://snippets@db.example.com:5432/musicbites"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv(EnvRemoteCredential, "from-env")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Remote.Credential != "from-env" {
		t.Errorf("expected credential from environment, got %q", cfg.Remote.Credential)
	}
	if !cfg.RemoteConfigured() {
		t.Error("endpoint from file plus credential from env should configure remote")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"empty port", func(c *Config) { c.Server.Port = "" }, true},
		{"empty host", func(c *Config) { c.Server.Host = "" }, true},
		{"negative read timeout", func(c *Config) { c.Server.ReadTimeout = -1 }, true},
		{"empty storage path", func(c *Config) { c.Storage.Path = "" }, true},
		{"zero upload size", func(c *Config) { c.Uploads.MaxSizeMB = 0 }, true},
		{"no upload formats", func(c *Config) { c.Uploads.AcceptedFormats = nil }, true},
		{"uploads disabled skips upload checks", func(c *Config) {
			c.Uploads.Enabled = false
			c.Uploads.MaxSizeMB = 0
		}, false},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, true},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestIsFormatAccepted(t *testing.T) {
	cfg := DefaultConfig()
	if !cfg.IsFormatAccepted(".mp3") {
		t.Error("expected .mp3 to be accepted")
	}
	if cfg.IsFormatAccepted(".exe") {
		t.Error("expected .exe to be rejected")
	}
}
