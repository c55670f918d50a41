package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	ServerAddress string `env:"SERVER_ADDRESS"`
	Environment   string `env:"ENVIRONMENT"`
	Timezone      string `env:"TIMEZONE"`
	Database      DatabaseConfig
	Log           LogConfig
	Import        ImportConfig
}

type DatabaseConfig struct {
	Path          string `env:"DB_PATH"`
	BusyTimeoutMS int    `env:"DB_BUSY_TIMEOUT_MS"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL"`
	Format string `env:"LOG_FORMAT"`
	File   string `env:"LOG_FILE"`
}

type ImportConfig struct {
	Timeout     time.Duration `env:"IMPORT_TIMEOUT_SECONDS"`
	MaxUploadMB int64         `env:"IMPORT_MAX_UPLOAD_MB"`
}

func LoadConfig() (*Config, error) {
	return LoadConfigFrom(".env")
}

// LoadConfigFrom reads an optional env file and overlays process environment variables.
func LoadConfigFrom(envFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("SERVER_ADDRESS", "127.0.0.1:8080")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("TIMEZONE", "Local")
	v.SetDefault("DB_PATH", "dues-ledger.db")
	v.SetDefault("DB_BUSY_TIMEOUT_MS", 5000)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("LOG_FILE", "")
	v.SetDefault("IMPORT_TIMEOUT_SECONDS", 30)
	v.SetDefault("IMPORT_MAX_UPLOAD_MB", 10)

	if err := v.ReadInConfig(); err != nil && !isMissingConfig(err) {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	config := &Config{
		ServerAddress: v.GetString("SERVER_ADDRESS"),
		Environment:   v.GetString("ENVIRONMENT"),
		Timezone:      v.GetString("TIMEZONE"),
		Database: DatabaseConfig{
			Path:          v.GetString("DB_PATH"),
			BusyTimeoutMS: v.GetInt("DB_BUSY_TIMEOUT_MS"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
			File:   v.GetString("LOG_FILE"),
		},
		Import: ImportConfig{
			Timeout:     time.Duration(v.GetInt("IMPORT_TIMEOUT_SECONDS")) * time.Second,
			MaxUploadMB: v.GetInt64("IMPORT_MAX_UPLOAD_MB"),
		},
	}

	if config.Database.Path == "" {
		return nil, fmt.Errorf("DB_PATH must not be empty")
	}

	return config, nil
}

func isMissingConfig(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
}

// Location resolves the configured timezone used for calendar-day queries
func (c *Config) Location() *time.Location {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// GetDSN returns the SQLite DSN string
func (c *Config) GetDSN() string {
	return fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=%d&_foreign_keys=on",
		c.Database.Path,
		c.Database.BusyTimeoutMS,
	)
}

// GetMigrationDBURL returns the database URL for migrations
func (c *Config) GetMigrationDBURL() string {
	return fmt.Sprintf("sqlite3://%s?_busy_timeout=%d",
		c.Database.Path,
		c.Database.BusyTimeoutMS,
	)
}
