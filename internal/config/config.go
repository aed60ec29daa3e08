// Package config loads the optional wise configuration file.
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/wise/internal/alert"
)

// DefaultArtifactsDir is where run writes its documents unless told otherwise.
const DefaultArtifactsDir = ".truthlock/artifacts"

// WatchConfig tunes the watch command.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// Config holds everything a command may need besides its flags.
type Config struct {
	ArtifactsDir    string              `yaml:"artifacts_dir"`
	AuditLog        string              `yaml:"audit_log"`
	MetricsTextfile string              `yaml:"metrics_textfile"`
	Alerts          []alert.AlertConfig `yaml:"alerts"`
	Watch           WatchConfig         `yaml:"watch"`
}

// Default returns the built-in configuration: no audit log, no metrics,
// no alerts.
func Default() *Config {
	return &Config{
		ArtifactsDir: DefaultArtifactsDir,
		Watch: WatchConfig{
			Debounce: 200 * time.Millisecond,
		},
	}
}

// DefaultPath returns ~/.wise/config.yaml, or "" when there is no home.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".wise", "config.yaml")
}

// Load reads the configuration at path.
// Empty path falls back to ~/.wise/config.yaml.
// Missing file returns defaults. Invalid YAML returns an error.
func Load(path string) (*Config, error) {
	cfg, _, err := LoadWithHash(path)
	return cfg, err
}

// LoadWithHash loads the configuration and returns the SHA-256 of the raw
// file, recorded in audit entries so readers know which settings were in
// force. Without a file the hash is the SHA-256 of empty input.
func LoadWithHash(path string) (*Config, string, error) {
	if path == "" {
		path = DefaultPath()
	}
	if path == "" {
		return Default(), hashBytes(nil), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), hashBytes(nil), nil
		}
		return nil, "", fmt.Errorf("failed to read config: %w", err)
	}

	// Start with defaults, YAML overwrites only specified fields
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, hashBytes(data), nil
}

// Validate checks fields that would otherwise fail late.
func (c *Config) Validate() error {
	if c.ArtifactsDir == "" {
		return fmt.Errorf("artifacts_dir must not be empty")
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	for i, a := range c.Alerts {
		if a.URL == "" {
			return fmt.Errorf("alerts[%d]: url is required", i)
		}
		if len(a.Events) == 0 {
			return fmt.Errorf("alerts[%d]: at least one event is required", i)
		}
	}
	return nil
}

func hashBytes(data []byte) string {
	h := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(h[:])
}
