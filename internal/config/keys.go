package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

var (
	// ErrNoAPIKey is returned when no Anthropic API key is configured.
	ErrNoAPIKey = errors.New("no Anthropic API key configured")
	// ErrNoGoogleClient is returned when the Google OAuth client is incomplete.
	ErrNoGoogleClient = errors.New("google calendar client id/secret not configured")
)

// Environment variables consulted before the config file.
const (
	EnvAnthropicKey       = "ANTHROPIC_API_KEY"
	EnvGoogleClientSecret = "GOOGLE_CLIENT_SECRET"
)

// KeySource represents where a secret was loaded from.
type KeySource string

const (
	KeySourceEnv    KeySource = "environment"
	KeySourceConfig KeySource = "config_file"
	KeySourceNone   KeySource = "none"
)

// resolveSecret prefers the environment over the configured value. A
// configured "${VAR}" that expands to nothing counts as unset.
func resolveSecret(envVar, configured string) (string, KeySource) {
	if v := os.Getenv(envVar); v != "" {
		return v, KeySourceEnv
	}
	v := os.ExpandEnv(configured)
	if v == "" || strings.HasPrefix(v, "${") {
		return "", KeySourceNone
	}
	return v, KeySourceConfig
}

// GetAPIKey returns the Anthropic API key from the environment or config.
func GetAPIKey(cfg *Config) (string, error) {
	var configured string
	if cfg != nil {
		configured = cfg.Anthropic.APIKey
	}
	key, src := resolveSecret(EnvAnthropicKey, configured)
	if src == KeySourceNone {
		return "", ErrNoAPIKey
	}
	if err := ValidateAPIKey(key); err != nil {
		return "", fmt.Errorf("%s key: %w", src, err)
	}
	return key, nil
}

// GetAPIKeySource returns where the API key would be loaded from.
func GetAPIKeySource(cfg *Config) KeySource {
	var configured string
	if cfg != nil {
		configured = cfg.Anthropic.APIKey
	}
	_, src := resolveSecret(EnvAnthropicKey, configured)
	return src
}

// ValidateAPIKey checks the key format without contacting Anthropic.
func ValidateAPIKey(key string) error {
	if key == "" {
		return ErrNoAPIKey
	}
	if !strings.HasPrefix(key, "sk-ant-") {
		return errors.New("invalid API key format: expected 'sk-ant-' prefix")
	}
	if len(key) < 20 {
		return errors.New("invalid API key format: key too short")
	}
	return nil
}

// MaskSecret keeps the first 7 and last 4 characters of long secrets and
// hides short ones entirely.
func MaskSecret(s string) string {
	switch {
	case s == "":
		return "(not set)"
	case len(s) <= 15:
		return "****"
	default:
		return s[:7] + "..." + s[len(s)-4:]
	}
}

// GoogleClient returns the OAuth client id and secret used for Google Calendar.
func GoogleClient(cfg *Config) (id, secret string, err error) {
	if cfg == nil || cfg.Calendar.Google.ClientID == "" {
		return "", "", ErrNoGoogleClient
	}
	secret, src := resolveSecret(EnvGoogleClientSecret, cfg.Calendar.Google.ClientSecret)
	if src == KeySourceNone {
		return "", "", ErrNoGoogleClient
	}
	return cfg.Calendar.Google.ClientID, secret, nil
}
