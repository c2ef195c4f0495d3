// Package config resolves psagent settings from built-in defaults, a YAML
// file, a .env file and the process environment. Command-line flags are
// applied on top by the caller.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fwojciec/psagent"
	"github.com/fwojciec/psagent/powershell"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Environment variables read by ApplyEnv. GEMINI_API_KEY wins over
// GOOGLE_API_KEY when both are set.
const (
	EnvGeminiAPIKey = "GEMINI_API_KEY"
	EnvGoogleAPIKey = "GOOGLE_API_KEY"
	EnvModel        = "PSAGENT_MODEL"
	EnvShell        = "PSAGENT_SHELL"
	EnvLogLevel     = "PSAGENT_LOG_LEVEL"
)

// Config holds every tunable setting.
type Config struct {
	APIKey            string        `yaml:"api_key,omitempty"`
	Model             string        `yaml:"model"`
	MaxTokens         int           `yaml:"max_tokens"`
	Temperature       float64       `yaml:"temperature"`
	Thinking          bool          `yaml:"thinking"`
	MaxTurns          int           `yaml:"max_turns"`
	RequestsPerMinute float64       `yaml:"requests_per_minute"`
	Burst             int           `yaml:"burst"`
	Shell             string        `yaml:"shell,omitempty"`
	CommandTimeout    time.Duration `yaml:"command_timeout"`
	SearchTimeout     time.Duration `yaml:"search_timeout"`
	SystemPrompt      string        `yaml:"system_prompt,omitempty"`
	LogFile           string        `yaml:"log_file,omitempty"`
	LogLevel          string        `yaml:"log_level"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Model:             "gemini-2.0-flash",
		MaxTokens:         500,
		Temperature:       0.7,
		MaxTurns:          psagent.DefaultMaxTurns,
		RequestsPerMinute: 4,
		Burst:             4,
		CommandTimeout:    powershell.DefaultTimeout,
		SearchTimeout:     powershell.DefaultSearchTimeout,
		SystemPrompt:      DefaultSystemPrompt,
		LogLevel:          "info",
	}
}

// Dir returns ~/.psagent.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".psagent"), nil
}

// DefaultPath returns the config file read when --config is not given.
func DefaultPath() string {
	dir, err := Dir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the YAML file at path over Default. A missing file is only an
// error when explicit is true.
func Load(path string, explicit bool) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist) && !explicit:
		logrus.WithField("path", path).Debug("no config file, using defaults")
		return cfg, nil
	default:
		return cfg, fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// LookupFunc reports the value of an environment variable.
type LookupFunc func(key string) (string, bool)

// EnvLookup returns a LookupFunc over the process environment, falling back
// to the variables in dotenv. A missing dotenv file is ignored; the process
// environment always wins.
func EnvLookup(dotenv string) (LookupFunc, error) {
	file := map[string]string{}
	if dotenv != "" {
		m, err := godotenv.Read(dotenv)
		switch {
		case err == nil:
			file = m
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("read %s: %w", dotenv, err)
		}
	}
	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := file[key]
		return v, ok
	}, nil
}

// ApplyEnv overrides settings from the environment.
func (c *Config) ApplyEnv(lookup LookupFunc) {
	if v, ok := lookup(EnvGoogleAPIKey); ok && v != "" {
		c.APIKey = v
	}
	if v, ok := lookup(EnvGeminiAPIKey); ok && v != "" {
		c.APIKey = v
	}
	if v, ok := lookup(EnvModel); ok && v != "" {
		c.Model = v
	}
	if v, ok := lookup(EnvShell); ok && v != "" {
		c.Shell = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.LogLevel = v
	}
}

// Interpreter returns the configured interpreter, or the platform default
// when Shell is empty.
func (c Config) Interpreter() (powershell.Interpreter, error) {
	if strings.TrimSpace(c.Shell) == "" {
		return powershell.DefaultInterpreter(), nil
	}
	return powershell.ParseInterpreter(c.Shell)
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch {
	case c.Model == "":
		return fmt.Errorf("%w: model is required", psagent.ErrValidation)
	case c.MaxTokens < 0:
		return fmt.Errorf("%w: max_tokens must be non-negative, got %d", psagent.ErrValidation, c.MaxTokens)
	case c.Temperature < 0 || c.Temperature > 2:
		return fmt.Errorf("%w: temperature must be between 0 and 2, got %g", psagent.ErrValidation, c.Temperature)
	case c.MaxTurns < 1:
		return fmt.Errorf("%w: max_turns must be at least 1, got %d", psagent.ErrValidation, c.MaxTurns)
	case c.RequestsPerMinute < 0:
		return fmt.Errorf("%w: requests_per_minute must be non-negative", psagent.ErrValidation)
	case c.CommandTimeout <= 0:
		return fmt.Errorf("%w: command_timeout must be positive", psagent.ErrValidation)
	case c.SearchTimeout <= 0:
		return fmt.Errorf("%w: search_timeout must be positive", psagent.ErrValidation)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log_level: %w", psagent.ErrValidation, err)
	}
	if _, err := c.Interpreter(); err != nil {
		return fmt.Errorf("%w: shell: %w", psagent.ErrValidation, err)
	}
	return nil
}

// RequireAPIKey reports a missing API key with a hint on where to set it.
func (c Config) RequireAPIKey() error {
	if c.APIKey == "" {
		return fmt.Errorf("%w: no API key: set %s (or %s), add it to .env, or pass --api-key",
			psagent.ErrValidation, EnvGeminiAPIKey, EnvGoogleAPIKey)
	}
	return nil
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	if c.APIKey != "" {
		c.APIKey = "****"
	}
	return c
}

// YAML renders c as a config file.
func (c Config) YAML() (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return buf.String(), nil
}
