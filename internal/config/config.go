package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"

	"pcadash/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server  ServerConfig  `validate:"required"`
	Paths   PathConfig    `validate:"required"`
	Logging LoggingConfig `validate:"required"`
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string `validate:"required,numeric"`
	APIPort string `validate:"required,numeric"`
	GinMode string `validate:"oneof=debug release test"`
}

// PathConfig holds the flat-file inputs of a dashboard session
type PathConfig struct {
	ResultsFile   string `validate:"required"`
	ProcessedFile string `validate:"required"`
	LimitsFile    string `validate:"required"`
	OverviewFile  string
}

// LoggingConfig holds structured logging settings
type LoggingConfig struct {
	Level  string `validate:"oneof=debug info warn error"`
	Format string `validate:"oneof=json text"`
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server:  *loadServerConfig(),
		Paths:   *loadPathConfig(),
		Logging: *loadLoggingConfig(),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:    getEnvOrDefault("PORT", "8501"),
		APIPort: getEnvOrDefault("API_PORT", "8080"),
		GinMode: getEnvOrDefault("GIN_MODE", "release"),
	}
}

func loadPathConfig() *PathConfig {
	return &PathConfig{
		ResultsFile:   getEnvOrDefault("PCA_RESULTS_FILE", "data/pca_results.csv"),
		ProcessedFile: getEnvOrDefault("PROCESSED_DATA_FILE", "data/processed/cleaned_data.csv"),
		LimitsFile:    getEnvOrDefault("LIMITS_FILE", "data/limits.json"),
		OverviewFile:  getEnvOrDefault("OVERVIEW_FILE", ""),
	}
}

func loadLoggingConfig() *LoggingConfig {
	return &LoggingConfig{
		Level:  strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")),
		Format: strings.ToLower(getEnvOrDefault("LOG_FORMAT", "json")),
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func validateConfig(config *Config) error {
	if err := validate.Struct(config); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			fe := verrs[0]
			return errors.ConfigInvalid(fmt.Sprintf("%s failed %s validation (got %q)", fe.Namespace(), fe.Tag(), fmt.Sprint(fe.Value())))
		}
		return errors.WithCode(errors.CodeConfigInvalid, err)
	}
	return nil
}

// SlogLevel maps the configured level to slog
func (c LoggingConfig) SlogLevel() slog.Level {
	switch c.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
