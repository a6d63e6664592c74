package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads and parses configuration from a file. A missing file is not an
// error: the defaults are returned and Save will create the file.
func Load(configPath string) (*Config, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
	}

	cfg := Defaults()
	cfg.path = absPath

	data, err := os.ReadFile(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", absPath, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", absPath, err)
	}
	if cfg.Contexts == nil {
		cfg.Contexts = map[string]*Context{}
	}

	cfg = applyConfigDefaults(cfg)
	cfg.Journal.Path = interpolateEnv(cfg.Journal.Path)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration %s: %w", absPath, err)
	}
	return cfg, nil
}

// Discover finds the config file by checking standard locations.
// Priority order: $HCPCTL_CONFIG, ~/.config/hcpctl/config.yaml, ~/.hcpctl/config.yaml.
// When none exists the first user location is returned so Save can create it.
func Discover() string {
	if path := os.Getenv("HCPCTL_CONFIG"); path != "" {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "hcpctl.yaml"
	}

	candidates := []string{
		filepath.Join(homeDir, ".config", "hcpctl", "config.yaml"),
		filepath.Join(homeDir, ".hcpctl", "config.yaml"),
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return candidates[0]
}

// DefaultJournalPath returns ~/.local/state/hcpctl/journal.db.
func DefaultJournalPath() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "hcpctl", "journal.db")
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "hcpctl-journal.db"
	}
	return filepath.Join(homeDir, ".local", "state", "hcpctl", "journal.db")
}

// Path returns the file this config was loaded from.
func (c *Config) Path() string {
	return c.path
}

// Save writes the configuration back to its file with owner-only permissions.
func (c *Config) Save() error {
	if c.path == "" {
		return fmt.Errorf("config has no file path")
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0o600); err != nil {
		return fmt.Errorf("write config %s: %w", c.path, err)
	}
	return nil
}

func applyConfigDefaults(cfg *Config) *Config {
	def := Defaults()

	if cfg.Settings.Concurrency <= 0 {
		cfg.Settings.Concurrency = def.Settings.Concurrency
	}
	if cfg.Settings.Parallelism <= 0 {
		cfg.Settings.Parallelism = def.Settings.Parallelism
	}
	if cfg.Settings.Timeout <= 0 {
		cfg.Settings.Timeout = def.Settings.Timeout
	}
	if cfg.Settings.PollInterval <= 0 {
		cfg.Settings.PollInterval = def.Settings.PollInterval
	}
	if cfg.Settings.PageSize <= 0 {
		cfg.Settings.PageSize = def.Settings.PageSize
	}
	if cfg.Settings.Retry.MaxAttempts <= 0 {
		cfg.Settings.Retry.MaxAttempts = def.Settings.Retry.MaxAttempts
	}
	if cfg.Settings.Retry.BackoffBase <= 0 {
		cfg.Settings.Retry.BackoffBase = def.Settings.Retry.BackoffBase
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = def.Log.Format
	}
	return cfg
}

func interpolateEnv(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		// Unset variables expand to nothing so the resolver moves on.
		return ""
	})
}

// validate performs basic validation on the configuration.
func validate(cfg *Config) error {
	if cfg.Settings.PageSize > 100 {
		return fmt.Errorf("settings.page_size must be at most 100 (got %d)", cfg.Settings.PageSize)
	}
	if cfg.Settings.Timeout < time.Second {
		return fmt.Errorf("settings.timeout must be at least 1s (got %s)", cfg.Settings.Timeout)
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[cfg.Log.Level] {
		return fmt.Errorf("log.level must be one of: debug, info, warn, error (got %q)", cfg.Log.Level)
	}

	names := make([]string, 0, len(cfg.Contexts))
	for name := range cfg.Contexts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if ctx := cfg.Contexts[name]; ctx == nil || ctx.Host == "" {
			return fmt.Errorf("contexts.%s.host is required", name)
		}
	}
	if cfg.CurrentContext != "" {
		if _, ok := cfg.Contexts[cfg.CurrentContext]; !ok {
			return fmt.Errorf("current_context %q is not defined in contexts", cfg.CurrentContext)
		}
	}
	return nil
}
