package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fwojciec/psagent/config"
)

// dotenvPath is read from the working directory, like a project .env.
const dotenvPath = ".env"

// flags holds the persistent flags shared by every command.
type flags struct {
	configPath string
	model      string
	apiKey     string
	logFile    string
	logLevel   string
	shell      string
}

func newRootCommand() *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		Use:   "psagent",
		Short: "Execute PowerShell commands using natural language",
		Long: `psagent turns plain-language requests into PowerShell commands with Google Gemini,
runs them and explains the result.

Run without a subcommand for the interactive shell.`,
		Example: `  Start the shell:
  $ psagent

  Ask a single question:
  $ psagent ask "Show me the top 5 processes by CPU usage"

  Use PowerShell 7 with a profile:
  $ psagent --shell "pwsh -NonInteractive -Command"`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runShell(cmd, f)
		},
	}
	pf := cmd.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "Config file (default ~/.psagent/config.yaml)")
	pf.StringVar(&f.model, "model", "", "Gemini model ID")
	pf.StringVar(&f.apiKey, "api-key", "", "Gemini API key (overrides "+config.EnvGeminiAPIKey+")")
	pf.StringVar(&f.logFile, "log-file", "", "Log file (default ~/.psagent/psagent.log)")
	pf.StringVar(&f.logLevel, "log-level", "", "Logging level [trace, debug, info, warn, error]")
	pf.StringVar(&f.shell, "shell", "", `Interpreter command line, e.g. "pwsh -NoProfile -Command"`)

	cmd.AddCommand(
		newAskCommand(f),
		newExecCommand(f),
		newSearchCommand(f),
		newMCPCommand(f),
		newConfigCommand(f),
	)
	return cmd
}

// resolveConfig layers defaults, the config file, .env and the process
// environment, and finally the flags.
func resolveConfig(f *flags, lookup config.LookupFunc) (config.Config, error) {
	path, explicit := f.configPath, f.configPath != ""
	if !explicit {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path, explicit)
	if err != nil {
		return cfg, err
	}
	cfg.ApplyEnv(lookup)

	if f.model != "" {
		cfg.Model = f.model
	}
	if f.apiKey != "" {
		cfg.APIKey = f.apiKey
	}
	if f.logFile != "" {
		cfg.LogFile = f.logFile
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	if f.shell != "" {
		cfg.Shell = f.shell
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// loadConfig resolves the configuration from the real environment and sends
// logs to the configured file. The returned func closes the log file.
func loadConfig(f *flags) (config.Config, func(), error) {
	lookup, err := config.EnvLookup(dotenvPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	cfg, err := resolveConfig(f, lookup)
	if err != nil {
		return cfg, nil, err
	}
	closeLog, err := setupLogging(cfg)
	if err != nil {
		return cfg, nil, err
	}
	logrus.WithFields(logrus.Fields{
		"model":   cfg.Model,
		"shell":   cfg.Shell,
		"rpm":     cfg.RequestsPerMinute,
		"version": version,
	}).Info("config resolved")
	return cfg, closeLog, nil
}

// setupLogging points logrus at the log file. The shell owns the terminal,
// so logs never go to stderr.
func setupLogging(cfg config.Config) (func(), error) {
	lvl, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	path, err := logPath(cfg)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	logrus.SetOutput(file)
	logrus.SetLevel(lvl)
	logrus.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	return func() {
		logrus.SetOutput(os.Stderr)
		_ = file.Close()
	}, nil
}

func logPath(cfg config.Config) (string, error) {
	if cfg.LogFile != "" {
		return cfg.LogFile, nil
	}
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "psagent.log"), nil
}
