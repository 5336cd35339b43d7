// Package cmd implements the command-line interface for wikiseed.
// It provides the root command and subcommands for syncing wiki data
// into the relational store.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"wikiseed/cmd/schedule"
	cmdsync "wikiseed/cmd/sync"
	"wikiseed/internal/config"
)

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	// debug enables debug logging for all commands.
	debug bool

	// rootCmd represents the root command for the wikiseed CLI.
	rootCmd = &cobra.Command{
		Use:   "wikiseed",
		Short: "Sync game-reference wiki data into a relational store",
		Long: `wikiseed incrementally syncs structured game-reference data
(sub-districts, cyberware, consumables) from a MediaWiki-compatible API
into PostgreSQL (or a local SQLite fallback), skipping pages whose
revision has not changed since the last run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	// Load .env file early so environment variables are available
	_ = godotenv.Load()

	if err := initConfig(); err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}

	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"config file (default is ./config.yaml)",
	)
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("wikiseed version %s\n", "1.0.0")
		},
	})

	rootCmd.AddCommand(cmdsync.Command())
	rootCmd.AddCommand(schedule.Command())
}

// initConfig reads in the config file and environment variables if set.
func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	// Config file is optional: defaults and environment variables cover
	// a plain run.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "Warning: config file not read: %v\n", err)
		}
	}

	if debug {
		viper.Set("logger.level", "debug")
		viper.Set("logger.development", true)
	}

	return nil
}

// setDefaults sets default configuration values.
func setDefaults() {
	viper.SetDefault("api", map[string]any{
		"base_url":           config.DefaultAPIBaseURL,
		"user_agent":         config.DefaultUserAgent,
		"rate_every":         config.DefaultRateEvery.String(),
		"request_timeout":    config.DefaultTimeout.String(),
		"max_attempts":       config.DefaultAttempts,
		"retry_initial_wait": "1s",
		"retry_max_wait":     "30s",
	})

	viper.SetDefault("database", map[string]any{
		"url":         "",
		"sqlite_path": config.DefaultSQLitePath,
	})

	viper.SetDefault("pipeline", map[string]any{
		"workers":    config.DefaultWorkers,
		"output_dir": config.DefaultOutputDir,
		"schedule":   config.DefaultSchedule,
	})

	viper.SetDefault("logger", map[string]any{
		"level":       config.DefaultLogLevel,
		"development": false,
	})
}
