// Package cliconfig loads the gqlnav shell configuration.
//
// Precedence, highest to lowest:
//
//  1. Command-line flags (applied by the command layer)
//  2. Environment variables (GQLNAV_* prefix)
//  3. Config file (~/.config/gqlnav/config.yaml, or GQLNAV_CONFIG)
//  4. Default values
//
// A missing config file is not an error; the defaults apply.
package cliconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/gqlnav/gqlnav/pkg/graphql"
)

// Environment variable names.
const (
	EnvEndpoint  = "GQLNAV_ENDPOINT"
	EnvConfig    = "GQLNAV_CONFIG"
	EnvLogLevel  = "GQLNAV_LOG_LEVEL"
	EnvVerifyTLS = "GQLNAV_VERIFY_TLS"
)

const (
	configDirName  = "gqlnav"
	configFileName = "config.yaml"
)

// Config is the shell configuration.
type Config struct {
	// Endpoint is the default GraphQL endpoint URL.
	Endpoint string `yaml:"endpoint"`
	// Headers are sent with every request, before per-invocation
	// headers. Order and duplicates are preserved.
	Headers []graphql.Header `yaml:"headers"`
	// VerifyTLS toggles certificate verification. Nil means on.
	VerifyTLS *bool `yaml:"verifyTls"`
	// LogLevel is debug, info, warn, or error.
	LogLevel string `yaml:"logLevel"`
	// LogFormat is text or json.
	LogFormat string `yaml:"logFormat"`
}

// NewDefault returns the built-in defaults.
func NewDefault() *Config {
	return &Config{LogLevel: "warn", LogFormat: "text"}
}

// VerifyTLSOrDefault resolves the optional flag, defaulting to on.
func (c *Config) VerifyTLSOrDefault() bool {
	return c.VerifyTLS == nil || *c.VerifyTLS
}

// DefaultPath returns the conventional config file location. Empty
// when the user config directory cannot be resolved.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, configDirName, configFileName)
}

// LoadFile reads a config file. A syntactically invalid file is an
// error; a missing one is handled by Load.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := NewDefault()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Load resolves the configuration from file and environment. path ""
// selects GQLNAV_CONFIG, then the default location.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if path == "" {
		path = os.Getenv(EnvConfig)
		explicit = path != ""
	}
	if path == "" {
		path = DefaultPath()
	}

	cfg := NewDefault()
	if path != "" {
		loaded, err := LoadFile(path)
		switch {
		case err == nil:
			cfg = loaded
		case os.IsNotExist(err) && !explicit:
			// Defaults apply.
		default:
			return nil, err
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

// applyEnv overrides file values with environment variables.
func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvEndpoint); v != "" {
		cfg.Endpoint = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvVerifyTLS); v != "" {
		verify := v != "false" && v != "0"
		cfg.VerifyTLS = &verify
	}
}
