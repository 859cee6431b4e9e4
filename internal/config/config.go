// Package config handles configuration loading and management for crewcal.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for crewcal.
type Config struct {
	Anthropic    AnthropicConfig    `mapstructure:"anthropic"`
	Completion   CompletionConfig   `mapstructure:"completion"`
	Directory    DirectoryConfig    `mapstructure:"directory"`
	Calendar     CalendarConfig     `mapstructure:"calendar"`
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator"`
	Log          LogConfig          `mapstructure:"log"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey     string `mapstructure:"api_key"`
	Model      string `mapstructure:"model"`
	UseBedrock bool   `mapstructure:"use_bedrock"`
	AWSRegion  string `mapstructure:"aws_region"`
	AWSProfile string `mapstructure:"aws_profile"`
}

// CompletionConfig bounds each completion call.
type CompletionConfig struct {
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// DirectoryConfig locates the directory database.
type DirectoryConfig struct {
	// Path is the SQLite file. Empty means the XDG data default.
	Path string `mapstructure:"path"`
}

// CalendarConfig selects and configures the calendar provider.
type CalendarConfig struct {
	// Provider is "google" or "local".
	Provider string `mapstructure:"provider"`
	// LocalPath is the SQLite file backing the local provider.
	LocalPath string       `mapstructure:"local_path"`
	Google    GoogleConfig `mapstructure:"google"`
}

// GoogleConfig holds the OAuth client used for Google Calendar.
type GoogleConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURL  string `mapstructure:"redirect_url"`
}

// OrchestratorConfig tunes supervisor workflows.
type OrchestratorConfig struct {
	// ProbeConcurrency caps parallel availability probes. 1 probes sequentially.
	ProbeConcurrency int `mapstructure:"probe_concurrency"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level string `mapstructure:"level"`
	// File appends logs to a file instead of stderr when set.
	File string `mapstructure:"file"`
}

// Provider names accepted in calendar.provider.
const (
	ProviderGoogle = "google"
	ProviderLocal  = "local"
)

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY, GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET)
// 2. Project config (.crewcal.yaml in current directory or parent)
// 3. User config (~/.config/crewcal/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(getUserConfigDir())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	bindEnv(v)

	return unmarshal(v)
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	return unmarshal(v)
}

func bindEnv(v *viper.Viper) {
	v.AutomaticEnv()
	_ = v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	_ = v.BindEnv("calendar.google.client_id", "GOOGLE_CLIENT_ID")
	_ = v.BindEnv("calendar.google.client_secret", "GOOGLE_CLIENT_SECRET")
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Expand ${VAR} references in secrets
	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)
	cfg.Calendar.Google.ClientSecret = expandEnv(cfg.Calendar.Google.ClientSecret)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings no component can work with.
func (c *Config) Validate() error {
	switch c.Calendar.Provider {
	case ProviderGoogle, ProviderLocal:
	default:
		return fmt.Errorf("calendar.provider must be %q or %q, got %q", ProviderGoogle, ProviderLocal, c.Calendar.Provider)
	}
	if c.Completion.MaxTokens <= 0 {
		return fmt.Errorf("completion.max_tokens must be positive, got %d", c.Completion.MaxTokens)
	}
	if c.Completion.Timeout <= 0 {
		return fmt.Errorf("completion.timeout must be positive, got %s", c.Completion.Timeout)
	}
	if c.Orchestrator.ProbeConcurrency < 1 {
		return fmt.Errorf("orchestrator.probe_concurrency must be at least 1, got %d", c.Orchestrator.ProbeConcurrency)
	}
	return nil
}

// Save writes the current configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(filepath.Join(userConfigDir, "config.yaml"))

	v.Set("anthropic.api_key", cfg.Anthropic.APIKey)
	v.Set("anthropic.model", cfg.Anthropic.Model)
	v.Set("anthropic.use_bedrock", cfg.Anthropic.UseBedrock)
	v.Set("anthropic.aws_region", cfg.Anthropic.AWSRegion)
	v.Set("anthropic.aws_profile", cfg.Anthropic.AWSProfile)
	v.Set("completion.max_tokens", cfg.Completion.MaxTokens)
	v.Set("completion.temperature", cfg.Completion.Temperature)
	v.Set("completion.timeout", cfg.Completion.Timeout.String())
	v.Set("directory.path", cfg.Directory.Path)
	v.Set("calendar.provider", cfg.Calendar.Provider)
	v.Set("calendar.local_path", cfg.Calendar.LocalPath)
	v.Set("calendar.google.client_id", cfg.Calendar.Google.ClientID)
	v.Set("calendar.google.client_secret", cfg.Calendar.Google.ClientSecret)
	v.Set("calendar.google.redirect_url", cfg.Calendar.Google.RedirectURL)
	v.Set("orchestrator.probe_concurrency", cfg.Orchestrator.ProbeConcurrency)
	v.Set("log.level", cfg.Log.Level)
	v.Set("log.file", cfg.Log.File)

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// DirectoryPath returns the configured directory database, or the XDG default.
func (c *Config) DirectoryPath() string {
	if c.Directory.Path != "" {
		return c.Directory.Path
	}
	return filepath.Join(getDataDir(), "directory.db")
}

// LocalCalendarPath returns the configured local calendar database, or the XDG default.
func (c *Config) LocalCalendarPath() string {
	if c.Calendar.LocalPath != "" {
		return c.Calendar.LocalPath
	}
	return filepath.Join(getDataDir(), "calendar.db")
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", "claude-3-5-haiku-latest")
	v.SetDefault("anthropic.use_bedrock", false)

	// Completion calls are capped to keep chat latency predictable
	v.SetDefault("completion.max_tokens", 500)
	v.SetDefault("completion.temperature", 0.1)
	v.SetDefault("completion.timeout", "30s")

	v.SetDefault("directory.path", "")

	v.SetDefault("calendar.provider", ProviderLocal)
	v.SetDefault("calendar.local_path", "")
	v.SetDefault("calendar.google.redirect_url", "http://localhost:8085/callback")

	v.SetDefault("orchestrator.probe_concurrency", 4)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
}

// getUserConfigDir returns the XDG config directory for crewcal.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "crewcal")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "crewcal")
	}
	return filepath.Join(home, ".config", "crewcal")
}

// getDataDir returns the XDG data directory for crewcal.
func getDataDir() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, _ := os.UserHomeDir()
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "crewcal")
}

// findProjectConfig searches for .crewcal.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".crewcal.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Anthropic: AnthropicConfig{
			Model: "claude-3-5-haiku-latest",
		},
		Completion: CompletionConfig{
			MaxTokens:   500,
			Temperature: 0.1,
			Timeout:     30 * time.Second,
		},
		Calendar: CalendarConfig{
			Provider: ProviderLocal,
			Google: GoogleConfig{
				RedirectURL: "http://localhost:8085/callback",
			},
		},
		Orchestrator: OrchestratorConfig{
			ProbeConcurrency: 4,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
