// server/config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr            string
	DatabaseURL     string
	PublicURL       string
	LogLevel        string
	LogPretty       bool
	MigrateOnStart  bool
	ShutdownTimeout time.Duration
}

// Load reads the given env files (".env" when none are named) and then the
// NOTESYNC_* variables. Missing env files are ignored and variables already
// set in the environment win over file values.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}

	cfg := Config{
		Addr:        envOr("NOTESYNC_ADDR", ":8080"),
		DatabaseURL: os.Getenv("NOTESYNC_DATABASE_URL"),
		PublicURL:   os.Getenv("NOTESYNC_PUBLIC_URL"),
		LogLevel:    envOr("NOTESYNC_LOG_LEVEL", "info"),
	}

	var err error
	if cfg.LogPretty, err = parseBoolOr("NOTESYNC_LOG_PRETTY", false); err != nil {
		return Config{}, err
	}
	if cfg.MigrateOnStart, err = parseBoolOr("NOTESYNC_MIGRATE_ON_START", true); err != nil {
		return Config{}, err
	}
	if cfg.ShutdownTimeout, err = parseDurationOr("NOTESYNC_SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBoolOr(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func parseDurationOr(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: must be positive", key)
	}
	return d, nil
}
