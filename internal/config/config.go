package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Environment variables consulted when the corresponding config values are
// empty. Keeps credentials out of the config file.
const (
	EnvRemoteEndpoint   = "MUSICBITES_REMOTE_ENDPOINT"
	EnvRemoteCredential = "MUSICBITES_REMOTE_CREDENTIAL"
	EnvNgrokAuthToken   = "NGROK_AUTHTOKEN"
)

// Config represents the application configuration
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Remote  RemoteConfig  `toml:"remote"`
	Storage StorageConfig `toml:"storage"`
	Uploads UploadsConfig `toml:"uploads"`
	Logging LoggingConfig `toml:"logging"`
	Ngrok   NgrokConfig   `toml:"ngrok"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Port        string `toml:"port"`
	Host        string `toml:"host"`
	StaticDir   string `toml:"static_dir"`
	EnableCORS  bool   `toml:"enable_cors"`
	ReadTimeout int    `toml:"read_timeout_seconds"`
}

// RemoteConfig points at the shared snippet store. Both endpoint and
// credential must be present for remote mode; otherwise the app runs
// against local storage only.
type RemoteConfig struct {
	Endpoint   string `toml:"endpoint"`
	Credential string `toml:"credential"`
}

// StorageConfig contains local storage configuration
type StorageConfig struct {
	Path string `toml:"path"`
}

// UploadsConfig contains audio upload configuration
type UploadsConfig struct {
	Enabled         bool     `toml:"enabled"`
	MaxSizeMB       int64    `toml:"max_size_mb"`
	AcceptedFormats []string `toml:"accepted_formats"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level          string `toml:"level"`
	Format         string `toml:"format"`
	RequestLogging bool   `toml:"request_logging"`
}

// NgrokConfig contains ngrok tunnel configuration
type NgrokConfig struct {
	Enabled      bool   `toml:"enabled"`
	AuthToken    string `toml:"auth_token"`
	Domain       string `toml:"domain"`
	EnableAuth   bool   `toml:"enable_auth"`
	AuthProvider string `toml:"auth_provider"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        "8080",
			Host:        "0.0.0.0",
			StaticDir:   "./static",
			EnableCORS:  true,
			ReadTimeout: 30,
		},
		Remote: RemoteConfig{
			Endpoint:   "",
			Credential: "",
		},
		Storage: StorageConfig{
			Path: "./musicbites.db",
		},
		Uploads: UploadsConfig{
			Enabled:         true,
			MaxSizeMB:       50,
			AcceptedFormats: []string{".mp3", ".flac", ".wav", ".m4a", ".ogg"},
		},
		Logging: LoggingConfig{
			Level:          "info",
			Format:         "text",
			RequestLogging: true,
		},
		Ngrok: NgrokConfig{
			Enabled:      false,
			AuthToken:    "",
			Domain:       "",
			EnableAuth:   false,
			AuthProvider: "google",
		},
	}
}

// LoadConfig loads configuration from a TOML file, creating a default file
// on first run. Empty remote and ngrok credentials fall back to environment
// variables (a .env file beside the binary is honored).
func LoadConfig(configPath string) (*Config, error) {
	// Start with defaults
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		// Config file doesn't exist, create it with defaults
		if err := cfg.SaveToFile(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config file: %w", err)
		}
		fmt.Printf("Created default configuration file at: %s\n", configPath)
		cfg.applyEnv()
		return cfg, nil
	}

	// Load from file
	if _, err := toml.DecodeFile(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnv()

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyEnv fills empty secret-bearing fields from the environment.
func (c *Config) applyEnv() {
	if _, err := os.Stat(".env"); err == nil {
		// Ignore load errors; explicit env vars still apply.
		_ = godotenv.Load(".env")
	}

	if c.Remote.Endpoint == "" {
		c.Remote.Endpoint = os.Getenv(EnvRemoteEndpoint)
	}
	if c.Remote.Credential == "" {
		c.Remote.Credential = os.Getenv(EnvRemoteCredential)
	}
	if c.Ngrok.AuthToken == "" {
		c.Ngrok.AuthToken = os.Getenv(EnvNgrokAuthToken)
	}
}

// SaveToFile saves the configuration to a TOML file
func (c *Config) SaveToFile(configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Create or open file
	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	// Write header comment
	header := `# Music Bites Configuration
# This file contains all configuration options for the music-bites snippet editor.
# The remote endpoint and credential can also be supplied via
# MUSICBITES_REMOTE_ENDPOINT and MUSICBITES_REMOTE_CREDENTIAL (a .env file
# next to the binary is honored).

`
	if _, err := file.WriteString(header); err != nil {
		return fmt.Errorf("failed to write config header: %w", err)
	}

	// Encode configuration to TOML
	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config to TOML: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("server port cannot be empty")
	}
	if c.Server.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Server.ReadTimeout < 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	// Validate local storage config
	if c.Storage.Path == "" {
		return fmt.Errorf("storage path cannot be empty")
	}

	// Validate uploads config
	if c.Uploads.Enabled {
		if c.Uploads.MaxSizeMB < 1 {
			return fmt.Errorf("upload max size must be at least 1 MB")
		}
		if len(c.Uploads.AcceptedFormats) == 0 {
			return fmt.Errorf("at least one accepted upload format must be specified")
		}
	}

	// Validate logging config
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"text": true, "json": true,
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.Logging.Format)
	}

	return nil
}

// RemoteConfigured reports whether both remote settings are present. Their
// absence is the sole trigger for starting in local mode.
func (c *Config) RemoteConfigured() bool {
	return c.Remote.Endpoint != "" && c.Remote.Credential != ""
}

// GetAddress returns the full server address
func (c *Config) GetAddress() string {
	return c.Server.Host + ":" + c.Server.Port
}

// IsFormatAccepted checks if an upload file extension is accepted
func (c *Config) IsFormatAccepted(ext string) bool {
	for _, accepted := range c.Uploads.AcceptedFormats {
		if accepted == ext {
			return true
		}
	}
	return false
}
