// Package config loads process-level settings for edgescriptd from
// environment variables, with an optional YAML file whose non-zero values
// override the environment-derived ones.
//
// Configuration is loaded with LoadFromEnv() and should be checked with
// Validate() before use:
//
//	cfg := config.LoadFromEnv()
//	if err := cfg.Validate(); err != nil {
//		log.Fatalf("invalid config: %v", err)
//	}
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all edgescriptd configuration.
type Config struct {
	Store   StoreConfig
	Server  ServerConfig
	Auth    AuthConfig
	Logging LoggingConfig
}

// StoreConfig controls the SQL backend (spec §4.1's Edge store).
type StoreConfig struct {
	// DSN is the database/sql data source name, e.g. "file:edges.db" or
	// ":memory:".
	DSN string `yaml:"dsn"`
	// CommitInterval is loaded and validated (it must not be negative),
	// but no component reads it: there is no idle-commit timer, and a
	// DM's writes reach the store only when its caller invokes Commit.
	CommitInterval time.Duration `yaml:"commit_interval"`
}

// ServerConfig controls the script-tree request listener.
type ServerConfig struct {
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
}

// AuthConfig controls how (paper, pen) credentials map to spec §5 auth
// roles.
type AuthConfig struct {
	// RootToken, if non-empty, is the opaque token that maps to auth.Root.
	// Leaving it empty disables the root role entirely.
	RootToken string `yaml:"root_token"`
}

// LoggingConfig controls the ambient stdlib logger.
type LoggingConfig struct {
	// Verbose enables debug-level log lines.
	Verbose bool `yaml:"verbose"`
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

// LoadFromEnv builds a Config from environment variables, falling back to
// defaults suitable for local development.
//
// Environment variables:
//   - EDGESCRIPT_STORE_DSN (default "edgescript.db")
//   - EDGESCRIPT_COMMIT_INTERVAL (Go duration string, default "0"; stored
//     in Store.CommitInterval, which nothing reads)
//   - EDGESCRIPT_ADDRESS (default "0.0.0.0")
//   - EDGESCRIPT_PORT (default 8177)
//   - EDGESCRIPT_ROOT_TOKEN (default "")
//   - EDGESCRIPT_VERBOSE (default false)
func LoadFromEnv() *Config {
	return &Config{
		Store: StoreConfig{
			DSN:            getEnv("EDGESCRIPT_STORE_DSN", "edgescript.db"),
			CommitInterval: getEnvDuration("EDGESCRIPT_COMMIT_INTERVAL", 0),
		},
		Server: ServerConfig{
			Address: getEnv("EDGESCRIPT_ADDRESS", "0.0.0.0"),
			Port:    getEnvInt("EDGESCRIPT_PORT", 8177),
		},
		Auth: AuthConfig{
			RootToken: getEnv("EDGESCRIPT_ROOT_TOKEN", ""),
		},
		Logging: LoggingConfig{
			Verbose: getEnvBool("EDGESCRIPT_VERBOSE", false),
		},
	}
}

// MergeYAMLFile decodes a YAML file at path and overlays any fields it sets
// onto c, leaving fields the file omits untouched. A zero-value yaml field
// (empty string, zero int/duration, false bool) is treated as "not set".
func (c *Config) MergeYAMLFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	var override Config
	if err := yaml.Unmarshal(data, &override); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	c.mergeFrom(&override)
	return nil
}

func (c *Config) mergeFrom(o *Config) {
	if o.Store.DSN != "" {
		c.Store.DSN = o.Store.DSN
	}
	if o.Store.CommitInterval != 0 {
		c.Store.CommitInterval = o.Store.CommitInterval
	}
	if o.Server.Address != "" {
		c.Server.Address = o.Server.Address
	}
	if o.Server.Port != 0 {
		c.Server.Port = o.Server.Port
	}
	if o.Auth.RootToken != "" {
		c.Auth.RootToken = o.Auth.RootToken
	}
	if o.Logging.Verbose {
		c.Logging.Verbose = o.Logging.Verbose
	}
}

// Validate reports whether c is usable for startup.
func (c *Config) Validate() error {
	if c.Store.DSN == "" {
		return fmt.Errorf("store DSN must not be empty")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Store.CommitInterval < 0 {
		return fmt.Errorf("commit interval must not be negative: %s", c.Store.CommitInterval)
	}
	return nil
}

// String returns a representation safe for logging: the root token is
// redacted.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Store: %s, Listen: %s:%d, RootAuth: %v}",
		c.Store.DSN, c.Server.Address, c.Server.Port, c.Auth.RootToken != "",
	)
}
