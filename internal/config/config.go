package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the top-level application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Bridge  BridgeConfig  `yaml:"bridge"`
	Scripts ScriptsConfig `yaml:"scripts"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	WebDir string `yaml:"web_dir"` // front-end extension scripts served under /extensions/pyexec
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// BridgeConfig controls the wait for browser-evaluated code.
type BridgeConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"` // default: 100ms
	MaxAttempts  int           `yaml:"max_attempts"`  // default: 300
}

// ScriptsConfig holds settings for the script evaluators.
type ScriptsConfig struct {
	DefaultLanguage string        `yaml:"default_language"` // python, python3, expr, javascript
	PythonBinary    string        `yaml:"python_binary"`    // interpreter used by the python3 language
	PythonTimeout   time.Duration `yaml:"python_timeout"`
}

// defaults returns a Config populated with sensible default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8189,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Bridge: BridgeConfig{
			PollInterval: 100 * time.Millisecond,
			MaxAttempts:  300,
		},
		Scripts: ScriptsConfig{
			DefaultLanguage: "python",
			PythonBinary:    "python3",
			PythonTimeout:   30 * time.Second,
		},
	}
}

// Load reads a YAML configuration file at path and returns a Config.
// Environment overrides are applied on top of the file contents.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	cfg.normalize()
	return cfg, nil
}

// LoadDefault loads ".env" (if present) into the process environment and
// then tries "config.yaml" from the current directory.
// If the config file does not exist, it returns defaults with environment
// overrides applied. Any other error is returned.
func LoadDefault() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg, err := Load("config.yaml")
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg = defaults()
			if err := applyEnv(cfg); err != nil {
				return nil, err
			}
			cfg.normalize()
			return cfg, nil
		}
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides selected fields from PYEXEC_* environment variables.
func applyEnv(cfg *Config) error {
	if v := os.Getenv("PYEXEC_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("PYEXEC_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PYEXEC_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("PYEXEC_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("PYEXEC_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("PYEXEC_PYTHON"); v != "" {
		cfg.Scripts.PythonBinary = v
	}
	return nil
}

// normalize restores defaults for zero values left by a partial file.
func (c *Config) normalize() {
	d := defaults()
	if c.Bridge.PollInterval <= 0 {
		c.Bridge.PollInterval = d.Bridge.PollInterval
	}
	if c.Bridge.MaxAttempts <= 0 {
		c.Bridge.MaxAttempts = d.Bridge.MaxAttempts
	}
	if c.Scripts.DefaultLanguage == "" {
		c.Scripts.DefaultLanguage = d.Scripts.DefaultLanguage
	}
	if c.Scripts.PythonBinary == "" {
		c.Scripts.PythonBinary = d.Scripts.PythonBinary
	}
	if c.Scripts.PythonTimeout <= 0 {
		c.Scripts.PythonTimeout = d.Scripts.PythonTimeout
	}
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
