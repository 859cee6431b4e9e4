package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/crewcal/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify crewcal configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/crewcal/config.yaml
Project-specific overrides can be placed in .crewcal.yaml`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := appConfig
		out := cmd.OutOrStdout()

		switch len(args) {
		case 0:
			displayAllConfig(out, cfg)
			return nil
		case 1:
			value, err := getConfigValue(cfg, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(out, value)
			return nil
		default:
			if err := setConfigValue(cfg, args[0], args[1]); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := config.Save(cfg); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			fmt.Fprintf(out, "Set %s = %s\n", args[0], args[1])
			return nil
		}
	},
}

var configKeys = []string{
	"anthropic.api_key",
	"anthropic.model",
	"anthropic.use_bedrock",
	"anthropic.aws_region",
	"anthropic.aws_profile",
	"completion.max_tokens",
	"completion.temperature",
	"completion.timeout",
	"directory.path",
	"calendar.provider",
	"calendar.local_path",
	"calendar.google.client_id",
	"calendar.google.client_secret",
	"calendar.google.redirect_url",
	"orchestrator.probe_concurrency",
	"log.level",
	"log.file",
}

// displayAllConfig prints all configuration values.
func displayAllConfig(w io.Writer, cfg *config.Config) {
	for _, key := range configKeys {
		value, _ := getConfigValue(cfg, key)
		fmt.Fprintf(w, "%s: %s\n", key, value)
	}
	fmt.Fprintf(w, "\n(api key source: %s)\n", config.GetAPIKeySource(cfg))
}

func orUnset(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		key, err := config.GetAPIKey(cfg)
		if err != nil {
			return "(not set)", nil
		}
		return config.MaskSecret(key), nil
	case "anthropic.model":
		return cfg.Anthropic.Model, nil
	case "anthropic.use_bedrock":
		return strconv.FormatBool(cfg.Anthropic.UseBedrock), nil
	case "anthropic.aws_region":
		return orUnset(cfg.Anthropic.AWSRegion), nil
	case "anthropic.aws_profile":
		return orUnset(cfg.Anthropic.AWSProfile), nil
	case "completion.max_tokens":
		return strconv.Itoa(cfg.Completion.MaxTokens), nil
	case "completion.temperature":
		return strconv.FormatFloat(cfg.Completion.Temperature, 'g', -1, 64), nil
	case "completion.timeout":
		return cfg.Completion.Timeout.String(), nil
	case "directory.path":
		return cfg.DirectoryPath(), nil
	case "calendar.provider":
		return cfg.Calendar.Provider, nil
	case "calendar.local_path":
		return cfg.LocalCalendarPath(), nil
	case "calendar.google.client_id":
		return orUnset(cfg.Calendar.Google.ClientID), nil
	case "calendar.google.client_secret":
		return config.MaskSecret(cfg.Calendar.Google.ClientSecret), nil
	case "calendar.google.redirect_url":
		return cfg.Calendar.Google.RedirectURL, nil
	case "orchestrator.probe_concurrency":
		return strconv.Itoa(cfg.Orchestrator.ProbeConcurrency), nil
	case "log.level":
		return cfg.Log.Level, nil
	case "log.file":
		return orUnset(cfg.Log.File), nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.Config, key, value string) error {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		cfg.Anthropic.APIKey = value
	case "anthropic.model":
		cfg.Anthropic.Model = value
	case "anthropic.use_bedrock":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for anthropic.use_bedrock: %w", err)
		}
		cfg.Anthropic.UseBedrock = b
	case "anthropic.aws_region":
		cfg.Anthropic.AWSRegion = value
	case "anthropic.aws_profile":
		cfg.Anthropic.AWSProfile = value
	case "completion.max_tokens":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for completion.max_tokens: %w", err)
		}
		cfg.Completion.MaxTokens = n
	case "completion.temperature":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid value for completion.temperature: %w", err)
		}
		cfg.Completion.Temperature = f
	case "completion.timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for completion.timeout: %w", err)
		}
		cfg.Completion.Timeout = d
	case "directory.path":
		cfg.Directory.Path = value
	case "calendar.provider":
		cfg.Calendar.Provider = value
	case "calendar.local_path":
		cfg.Calendar.LocalPath = value
	case "calendar.google.client_id":
		cfg.Calendar.Google.ClientID = value
	case "calendar.google.client_secret":
		cfg.Calendar.Google.ClientSecret = value
	case "calendar.google.redirect_url":
		cfg.Calendar.Google.RedirectURL = value
	case "orchestrator.probe_concurrency":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for orchestrator.probe_concurrency: %w", err)
		}
		cfg.Orchestrator.ProbeConcurrency = n
	case "log.level":
		cfg.Log.Level = value
	case "log.file":
		cfg.Log.File = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}
