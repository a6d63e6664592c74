package config

import "time"

// Config represents the complete hcpctl configuration file.
type Config struct {
	CurrentContext string              `yaml:"current_context,omitempty"`
	Contexts       map[string]*Context `yaml:"contexts,omitempty"`
	Settings       Settings            `yaml:"settings"`
	Journal        JournalConfig       `yaml:"journal"`
	Log            LogConfig           `yaml:"log"`

	// path is the file the config was loaded from and will be saved to.
	path string
	// selected overrides CurrentContext for this invocation only.
	selected string
}

// Context is a named host/token/org triple. Token and Host may reference
// environment variables as ${VAR}; they are expanded on read, never on save.
type Context struct {
	Host  string `yaml:"host"`
	Token string `yaml:"token,omitempty"`
	Org   string `yaml:"org,omitempty"`
}

// Settings tunes the API client and the long-running commands.
type Settings struct {
	// Concurrency caps in-flight HTTP requests across the whole process.
	Concurrency int `yaml:"concurrency"`
	// Parallelism caps concurrent per-organization fetches.
	Parallelism  int           `yaml:"parallelism"`
	Timeout      time.Duration `yaml:"timeout"`
	PollInterval time.Duration `yaml:"poll_interval"`
	PageSize     int           `yaml:"page_size"`
	Retry        RetryConfig   `yaml:"retry"`
}

// RetryConfig defines retry behavior for rate-limited and transient failures.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BackoffBase time.Duration `yaml:"backoff_base"`
}

// JournalConfig defines where destructive operations are recorded.
type JournalConfig struct {
	Disabled bool   `yaml:"disabled,omitempty"`
	Path     string `yaml:"path,omitempty"`
}

// LogConfig defines the default logging settings.
type LogConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// Defaults returns a Config with every setting at its default value.
func Defaults() *Config {
	return &Config{
		Contexts: map[string]*Context{},
		Settings: Settings{
			Concurrency:  10,
			Parallelism:  8,
			Timeout:      30 * time.Second,
			PollInterval: 3 * time.Second,
			PageSize:     100,
			Retry: RetryConfig{
				MaxAttempts: 3,
				BackoffBase: 250 * time.Millisecond,
			},
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}
