// server/root.go
package main

import (
	"context"
	"errors"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vinizap/notesync/server/config"
	"github.com/vinizap/notesync/server/logging"
	"github.com/vinizap/notesync/server/postgres"
)

var (
	cfg    config.Config
	logger zerolog.Logger

	envFile     string
	databaseURL string
	logLevel    string
	logPretty   bool
)

var rootCmd = &cobra.Command{
	Use:          "notesync",
	Short:        "NoteSync note server",
	Long:         `NoteSync keeps folders, nested notes and share links behind a JSON API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var files []string
		if envFile != "" {
			files = append(files, envFile)
		}
		var err error
		if cfg, err = config.Load(files...); err != nil {
			return err
		}

		flags := cmd.Flags()
		if flags.Changed("database-url") {
			cfg.DatabaseURL = databaseURL
		}
		if flags.Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		if flags.Changed("log-pretty") {
			cfg.LogPretty = logPretty
		}

		logger, err = logging.New(os.Stderr, cfg.LogLevel, cfg.LogPretty)
		return err
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&envFile, "env-file", "", "env file to load (default .env)")
	flags.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (NOTESYNC_DATABASE_URL)")
	flags.StringVar(&logLevel, "log-level", "info", "log level (NOTESYNC_LOG_LEVEL)")
	flags.BoolVar(&logPretty, "log-pretty", false, "human-readable logs (NOTESYNC_LOG_PRETTY)")
}

func Execute() error {
	return rootCmd.Execute()
}

func requireDatabase() error {
	if cfg.DatabaseURL == "" {
		return errors.New("no database configured: set NOTESYNC_DATABASE_URL or --database-url")
	}
	return nil
}

func openStore(ctx context.Context) (*postgres.Store, error) {
	if err := requireDatabase(); err != nil {
		return nil, err
	}
	return postgres.Open(ctx, cfg.DatabaseURL, logger)
}
