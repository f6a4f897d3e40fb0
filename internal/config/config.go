// Package config loads factoryplan settings from a config file, FACTORYPLAN_*
// environment variables and defaults.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable key.
// catalog.dir is read from FACTORYPLAN_CATALOG_DIR.
const EnvPrefix = "FACTORYPLAN"

// Config is the main configuration struct combining all sections.
type Config struct {
	Catalog CatalogConfig `mapstructure:"catalog"`
	Store   StoreConfig   `mapstructure:"store"`
	Logging LoggingConfig `mapstructure:"logging"`
	Engine  EngineConfig  `mapstructure:"engine"`
}

// CatalogConfig locates the CUE catalog. An empty Dir means the built-in
// fixture catalog.
type CatalogConfig struct {
	Dir string `mapstructure:"dir"`
}

// StoreConfig holds the tab database location.
type StoreConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Log level: debug, info, warn, error
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`

	// Log format: json, text
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

// EngineConfig holds recompute engine settings.
type EngineConfig struct {
	// Run the two-pass cold start (with import pruning) when a plan is loaded.
	ColdStartOnLoad bool `mapstructure:"cold_start_on_load"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("catalog.dir", "")
	v.SetDefault("store.path", "factoryplan.db")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("engine.cold_start_on_load", true)
}

// Load loads configuration from multiple sources with priority:
// 1. Environment variables (highest priority)
// 2. Config file (factoryplan.yaml, or configPath when set)
// 3. Defaults (lowest priority)
//
// A .env file in the working directory is loaded into the environment first.
func Load(configPath string) (*Config, error) {
	// Missing .env is fine
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("factoryplan")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Default returns the configuration produced when no file or environment
// overrides are present.
func Default() *Config {
	return &Config{
		Store:   StoreConfig{Path: "factoryplan.db"},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Engine:  EngineConfig{ColdStartOnLoad: true},
	}
}
