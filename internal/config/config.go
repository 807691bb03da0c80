// Package config handles reading and writing ~/.canvaschat/config.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the top-level structure for config.yaml.
type Config struct {
	Version     int               `yaml:"version"`
	Backend     BackendConfig     `yaml:"backend"`
	Attachments AttachmentsConfig `yaml:"attachments"`
	Log         LogConfig         `yaml:"log"`
}

// BackendConfig points the client at the assistant backend.
type BackendConfig struct {
	URL            string `yaml:"url"`
	ChatPath       string `yaml:"chat_path"`
	ResetPath      string `yaml:"reset_path"`
	StatePath      string `yaml:"state_path"`
	CoursesPath    string `yaml:"courses_path"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	ResetOnClear   bool   `yaml:"reset_on_clear"` // also reset the backend supervisor on ctrl+l
}

// AttachmentsConfig controls client-side attachment validation.
type AttachmentsConfig struct {
	MaxSizeBytes     int64 `yaml:"max_size_bytes"`
	MaxPages         int   `yaml:"max_pages"`
	EnforcePageLimit bool  `yaml:"enforce_page_limit"` // false = advisory notice only
}

// LogConfig controls the JSONL event log.
type LogConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Timeout returns the backend request timeout as a duration.
func (b BackendConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutSeconds) * time.Second
}

const (
	configDir  = ".canvaschat"
	configFile = "config.yaml"
)

// Environment variables that override values from the file.
const (
	EnvBackendURL       = "CANVASCHAT_BACKEND_URL"
	EnvTimeoutSeconds   = "CANVASCHAT_TIMEOUT_SECONDS"
	EnvMaxPages         = "CANVASCHAT_MAX_PAGES"
	EnvEnforcePageLimit = "CANVASCHAT_ENFORCE_PAGE_LIMIT"
)

// DefaultDir returns ~/.canvaschat, falling back to ./.canvaschat when the
// home directory cannot be resolved.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return configDir
	}
	return filepath.Join(home, configDir)
}

// ReadConfig reads config.yaml from the given config directory.
// Returns an error if the file is not found or YAML is malformed.
func ReadConfig(dir string) (*Config, error) {
	path := filepath.Join(dir, configFile)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// WriteConfig writes cfg to config.yaml in the given config directory.
// Creates the directory if it does not exist.
func WriteConfig(dir string, cfg *Config) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	path := filepath.Join(dir, configFile)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// Load reads the config file if present (defaults otherwise), loads a .env
// file from the working directory when one exists, and applies environment
// overrides on top.
func Load(dir string) (*Config, error) {
	cfg, err := ReadConfig(dir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		cfg = DefaultConfig()
	}

	// A missing .env is the common case.
	_ = godotenv.Load()

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv(EnvBackendURL); v != "" {
		cfg.Backend.URL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv(EnvTimeoutSeconds); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("%s: invalid value %q", EnvTimeoutSeconds, v)
		}
		cfg.Backend.TimeoutSeconds = n
	}
	if v := os.Getenv(EnvMaxPages); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("%s: invalid value %q", EnvMaxPages, v)
		}
		cfg.Attachments.MaxPages = n
	}
	if v := os.Getenv(EnvEnforcePageLimit); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: invalid value %q", EnvEnforcePageLimit, v)
		}
		cfg.Attachments.EnforcePageLimit = b
	}
	return nil
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Backend: BackendConfig{
			URL:            "http://localhost:8000",
			ChatPath:       "/agent-workflow/form",
			ResetPath:      "/reset-supervisor",
			StatePath:      "/supervisor-state",
			CoursesPath:    "/courses",
			TimeoutSeconds: 120,
			ResetOnClear:   false,
		},
		Attachments: AttachmentsConfig{
			MaxSizeBytes:     10 << 20,
			MaxPages:         3,
			EnforcePageLimit: false,
		},
		Log: LogConfig{
			Enabled: true,
		},
	}
}
