// Package config reads settings from the environment and an optional .env file.
package config

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/ridoystarlord/ormschema/node"
	"github.com/ridoystarlord/ormschema/policy"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

type Config struct {
	DatabaseURL string
	ModelsFile  string
	Unknown     node.UnknownPolicy
	Callables   policy.CallableMode
	LogLevel    slog.Level
}

func LoadEnv() {
	err := godotenv.Load()
	if err != nil {
		log.Println("ℹ️  No .env file found, continuing...")
	}
}

// Load reads the configuration from the environment. Call LoadEnv first to
// pick up a .env file.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		ModelsFile:  os.Getenv("ORMSCHEMA_MODELS"),
	}
	if cfg.ModelsFile == "" {
		cfg.ModelsFile = "models.yaml"
	}

	unknown, err := node.ParseUnknown(os.Getenv("ORMSCHEMA_UNKNOWN"))
	if err != nil {
		return nil, fmt.Errorf("ORMSCHEMA_UNKNOWN: %w", err)
	}
	cfg.Unknown = unknown

	callables, err := policy.ParseCallableMode(os.Getenv("ORMSCHEMA_CALLABLE_MISSING"))
	if err != nil {
		return nil, fmt.Errorf("ORMSCHEMA_CALLABLE_MISSING: %w", err)
	}
	cfg.Callables = callables

	if level := os.Getenv("ORMSCHEMA_LOG_LEVEL"); level != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("ORMSCHEMA_LOG_LEVEL: %w", err)
		}
	} else {
		cfg.LogLevel = slog.LevelInfo
	}

	return cfg, nil
}

// Driver names the database/sql driver DatabaseURL is meant for, or "" when
// no database is configured.
func (c *Config) Driver() (string, error) {
	switch {
	case c.DatabaseURL == "":
		return "", nil
	case strings.HasPrefix(c.DatabaseURL, "postgres://"), strings.HasPrefix(c.DatabaseURL, "postgresql://"):
		return DriverPostgres, nil
	case strings.HasPrefix(c.DatabaseURL, "sqlite://"), strings.HasPrefix(c.DatabaseURL, "file:"):
		return DriverSQLite, nil
	}
	return "", fmt.Errorf("unsupported DATABASE_URL scheme in '%s'", c.DatabaseURL)
}

// SQLitePath returns the data source name for the sqlite3 driver.
func (c *Config) SQLitePath() string {
	return strings.TrimPrefix(c.DatabaseURL, "sqlite://")
}

// Logger returns a text logger on stderr at the configured level.
func (c *Config) Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: c.LogLevel}))
}
