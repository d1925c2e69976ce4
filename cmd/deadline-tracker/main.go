// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the deadline-tracker CLI.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/deadline-tracker/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// logger is built in PersistentPreRunE once flags are parsed.
var logger = zap.NewNop()

// rootCmd is the base command for the deadline-tracker CLI. Without a
// subcommand it performs a single run.
var rootCmd = &cobra.Command{
	Use:   "deadline-tracker",
	Short: "Collect Canvas course deadlines into a Markdown report",
	Long: `deadline-tracker signs in to Canvas, reads each enrolled course's
introductory documents and announcements, extracts assessment deadlines with
a language model, and writes deadlines.json, deadlines.md, and (when
something moved since the last run) changes.json.

Without a subcommand it performs one run. Use "watch" to run on a schedule,
"diff" to compare two snapshots offline, and "report" to re-render the last
saved snapshot.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := newLogger(viper.GetBool("log.verbose"), viper.GetString("log.file"))
		if err != nil {
			return err
		}
		logger = l

		s, err := secrets.Load(".secrets/", logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Debug("loaded secrets", zap.Strings("keys", keys))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
	RunE: runRun,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./deadline-tracker.yaml or ~/.config/deadline-tracker/config.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().String("log-file", "", "also write logs to this file")
	_ = viper.BindPFlag("log.verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("log.file", rootCmd.PersistentFlags().Lookup("log-file"))

	addRunFlags(rootCmd)
}

func initConfig() {
	// A .env file is optional; real environment variables take precedence.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "Ignoring .env:", err)
	}

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("deadline-tracker")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "deadline-tracker"))
		}
	}

	viper.SetEnvPrefix("DEADLINE_TRACKER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults(viper.GetViper())
	bindEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
