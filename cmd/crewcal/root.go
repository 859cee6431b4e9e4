package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/crewcal/internal/config"
	"github.com/ShayCichocki/crewcal/internal/logging"
)

var (
	configPath string
	logLevel   string

	appConfig *config.Config
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "crewcal",
	Short: "Calendar assistants for a team and the supervisors who delegate to them",
	Long: `crewcal gives every employee a calendar assistant that understands plain
language, and gives supervisors an agent that delegates work across the team.

A supervisor directive such as "assign the quarterly report to someone
tomorrow at 2pm" picks the team members whose local time puts them on the
matching day or night shift, asks each of their assistants whether they are
free, and books the task on the first free calendar.

Getting started:
  crewcal directory import team.yaml
  crewcal calendar connect alice
  crewcal chat alice
  crewcal boss bo`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}
		closer, err := logging.Setup(cfg.Log.Level, cfg.Log.File)
		if err != nil {
			return err
		}
		appConfig = cfg
		logCloser = closer
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			_ = logCloser.Close()
		}
	},
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromPath(configPath)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/crewcal/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log.level (debug, info, warn, error)")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(bossCmd)
	rootCmd.AddCommand(directoryCmd)
	rootCmd.AddCommand(calendarCmd)
	rootCmd.AddCommand(teamCmd)
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
