// Package config loads the solrdex CLI configuration from YAML files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the solrdex CLI configuration.
type Config struct {
	Solr    SolrConfig    `yaml:"solr"`
	Mock    MockConfig    `yaml:"mock"`
	Logging LoggingConfig `yaml:"logging"`
}

// SolrConfig holds the target node settings.
type SolrConfig struct {
	Scheme string `yaml:"scheme"` // http or https (default: http)
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"` // default: 8983
}

// MockConfig holds settings for the local mock node.
type MockConfig struct {
	Port int `yaml:"port"` // default: 8983
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.Solr.Scheme == "" {
		c.Solr.Scheme = "http"
	}
	if c.Solr.Host == "" {
		c.Solr.Host = "localhost"
	}
	if c.Solr.Port <= 0 {
		c.Solr.Port = 8983
	}
	if c.Mock.Port <= 0 {
		c.Mock.Port = 8983
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.Solr.Scheme != "http" && c.Solr.Scheme != "https" {
		return fmt.Errorf("solr.scheme must be http or https, got %q", c.Solr.Scheme)
	}
	if c.Solr.Port > 65535 {
		return fmt.Errorf("solr.port must be between 1 and 65535, got %d", c.Solr.Port)
	}
	if c.Mock.Port > 65535 {
		return fmt.Errorf("mock.port must be between 1 and 65535, got %d", c.Mock.Port)
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
		// ok
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
