// Package config provides configuration loading for tasksync.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

// Config represents the complete tasksync configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Sync    SyncConfig    `yaml:"sync"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
	UI      UIConfig      `yaml:"ui"`
}

// ServerConfig configures the sync server connection
type ServerConfig struct {
	// URL is the server root; the task collection lives at URL + "/tasks"
	URL string `yaml:"url"`
	// Timeout bounds each request (0 = no timeout)
	Timeout time.Duration `yaml:"timeout"`
}

// SyncConfig configures pull and push
type SyncConfig struct {
	// Interval between full pushes
	Interval time.Duration `yaml:"interval"`
	// PullOnStart fetches the server's list once at startup
	PullOnStart bool `yaml:"pull_on_start"`
}

// StorageConfig configures local persistence
type StorageConfig struct {
	// Backend is "sqlite" or "diskv"
	Backend string `yaml:"backend"`
	// Key names the list inside the store
	Key string `yaml:"key"`
	// DataDir holds the database, the lock file and the log; "~" is expanded
	DataDir string `yaml:"data_dir"`
}

// LogConfig configures diagnostics
type LogConfig struct {
	Level string `yaml:"level"`
}

// UIConfig configures the terminal UI
type UIConfig struct {
	Theme string `yaml:"theme"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			URL:     "http://[::]:8000",
			Timeout: 10 * time.Second,
		},
		Sync: SyncConfig{
			Interval:    5 * time.Second,
			PullOnStart: true,
		},
		Storage: StorageConfig{
			Backend: "sqlite",
			Key:     "tasksync.self",
			DataDir: "~/.local/share/tasksync",
		},
		Log: LogConfig{
			Level: "info",
		},
		UI: UIConfig{
			Theme: "nord",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Server.URL == "" {
		return fmt.Errorf("server.url is required")
	}
	u, err := url.Parse(c.Server.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("server.url must be an http(s) URL, got %q", c.Server.URL)
	}
	if c.Server.Timeout < 0 {
		return fmt.Errorf("server.timeout must not be negative")
	}
	if c.Sync.Interval <= 0 {
		return fmt.Errorf("sync.interval must be positive")
	}
	switch c.Storage.Backend {
	case "sqlite", "diskv":
	default:
		return fmt.Errorf("storage.backend must be sqlite or diskv, got %q", c.Storage.Backend)
	}
	if c.Storage.Key == "" {
		return fmt.Errorf("storage.key is required")
	}
	// diskv stores each list as a file named after the key
	if c.Storage.Backend == "diskv" && strings.ContainsAny(c.Storage.Key, `/\`) {
		return fmt.Errorf("storage.key must not contain path separators with the diskv backend, got %q", c.Storage.Key)
	}
	if c.Storage.DataDir == "" {
		return fmt.Errorf("storage.data_dir is required")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	return nil
}

// DataDir returns the storage directory with "~" expanded
func (c *Config) DataDir() (string, error) {
	dir, err := homedir.Expand(c.Storage.DataDir)
	if err != nil {
		return "", fmt.Errorf("expand data dir: %w", err)
	}
	return filepath.Clean(dir), nil
}

// decodeFile overlays the keys present in path onto c
func (c *Config) decodeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Overrides holds command-line values. Zero values leave the config alone.
type Overrides struct {
	ServerURL string
	Interval  time.Duration
	Backend   string
	DataDir   string
	LogLevel  string
	Theme     string
	NoPull    bool
}

// Apply merges non-zero overrides into c
func (c *Config) Apply(o Overrides) {
	if o.ServerURL != "" {
		c.Server.URL = o.ServerURL
	}
	if o.Interval != 0 {
		c.Sync.Interval = o.Interval
	}
	if o.Backend != "" {
		c.Storage.Backend = o.Backend
	}
	if o.DataDir != "" {
		c.Storage.DataDir = o.DataDir
	}
	if o.LogLevel != "" {
		c.Log.Level = o.LogLevel
	}
	if o.Theme != "" {
		c.UI.Theme = o.Theme
	}
	if o.NoPull {
		c.Sync.PullOnStart = false
	}
}
