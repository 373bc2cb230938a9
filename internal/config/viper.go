// Package config provides Viper-based hierarchical configuration management
package config

import (
	"fmt"
	"strings"
	"time"

	"budge/statements/internal/logging"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Store backends
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// Config represents the complete application configuration
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Input struct {
		Delimiter   string   `mapstructure:"delimiter" yaml:"delimiter"`
		DateLayouts []string `mapstructure:"date_layouts" yaml:"date_layouts"`
		Extensions  []string `mapstructure:"extensions" yaml:"extensions"`
		Workers     int      `mapstructure:"workers" yaml:"workers"`
	} `mapstructure:"input" yaml:"input"`

	Rules struct {
		File         string `mapstructure:"file" yaml:"file"`
		MappingsFile string `mapstructure:"mappings_file" yaml:"mappings_file"`
	} `mapstructure:"rules" yaml:"rules"`

	Accounts struct {
		File string `mapstructure:"file" yaml:"file"`
	} `mapstructure:"accounts" yaml:"accounts"`

	Matcher struct {
		AmountTolerance string `mapstructure:"amount_tolerance" yaml:"amount_tolerance"`
		DateWindowDays  int    `mapstructure:"date_window_days" yaml:"date_window_days"`
	} `mapstructure:"matcher" yaml:"matcher"`

	Transfer struct {
		Boilerplate []string `mapstructure:"boilerplate" yaml:"boilerplate"`
	} `mapstructure:"transfer" yaml:"transfer"`

	Store struct {
		Backend string `mapstructure:"backend" yaml:"backend"`
		Path    string `mapstructure:"path" yaml:"path"`
		DSN     string `mapstructure:"dsn" yaml:"-"` // may carry credentials
	} `mapstructure:"store" yaml:"store"`

	AI struct {
		Enabled        bool   `mapstructure:"enabled" yaml:"enabled"`
		Model          string `mapstructure:"model" yaml:"model"`
		TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
		Learn          bool   `mapstructure:"learn" yaml:"learn"`
		APIKey         string `mapstructure:"api_key" yaml:"-"` // Never serialize API key
	} `mapstructure:"ai" yaml:"ai"`

	Schedule struct {
		Cron           string `mapstructure:"cron" yaml:"cron"`
		Timezone       string `mapstructure:"timezone" yaml:"timezone"`
		TimeoutMinutes int    `mapstructure:"timeout_minutes" yaml:"timeout_minutes"`
	} `mapstructure:"schedule" yaml:"schedule"`
}

// InitializeConfig initializes Viper configuration with hierarchical loading.
// An explicit configFile replaces the search path.
func InitializeConfig(configFile string) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Config file locations
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.budge")
		v.AddConfigPath(".budge")
		v.AddConfigPath(".")
	}

	// 3. Environment variables
	v.SetEnvPrefix("BUDGE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 4. Read config file (optional unless named explicitly)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if configFile != "" {
				return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
			}
			fmt.Printf("Warning: error reading config file %s: %v\n", v.ConfigFileUsed(), err)
		}
	}

	// 5. The API key keeps its conventional unprefixed name
	if err := v.BindEnv("ai.api_key", "GEMINI_API_KEY"); err != nil {
		fmt.Printf("Warning: failed to bind GEMINI_API_KEY environment variable: %v\n", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 6. Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Default returns the configuration built from defaults alone, without
// reading files or the environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		panic(fmt.Sprintf("invalid configuration defaults: %v", err))
	}
	return &config
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("input.delimiter", ",")
	v.SetDefault("input.date_layouts", []string{"01/02/2006", "2006-01-02"})
	v.SetDefault("input.extensions", []string{".csv"})
	v.SetDefault("input.workers", 4)

	v.SetDefault("rules.file", "rules.yaml")
	v.SetDefault("rules.mappings_file", "mappings.yaml")
	v.SetDefault("accounts.file", "accounts.yaml")

	v.SetDefault("matcher.amount_tolerance", "0.01")
	v.SetDefault("matcher.date_window_days", 5)

	v.SetDefault("transfer.boilerplate", []string{"- -SCU Mobile/", "Home Banking Transfer/", "/-SCU Mobile"})

	v.SetDefault("store.backend", BackendMemory)
	v.SetDefault("store.path", "records.yaml")
	v.SetDefault("store.dsn", "")

	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.model", "gemini-1.5-flash")
	v.SetDefault("ai.timeout_seconds", 30)
	v.SetDefault("ai.learn", true)

	v.SetDefault("schedule.cron", "0 6 * * *")
	v.SetDefault("schedule.timezone", "UTC")
	v.SetDefault("schedule.timeout_minutes", 10)
}

// validateConfig validates the configuration values
func validateConfig(config *Config) error {
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	if len(config.Input.Delimiter) != 1 {
		return fmt.Errorf("input delimiter must be a single character, got: %s", config.Input.Delimiter)
	}

	if config.Input.Workers < 1 {
		return fmt.Errorf("input.workers must be at least 1, got: %d", config.Input.Workers)
	}

	if len(config.Input.DateLayouts) == 0 {
		return fmt.Errorf("input.date_layouts must not be empty")
	}

	tolerance, err := decimal.NewFromString(config.Matcher.AmountTolerance)
	if err != nil {
		return fmt.Errorf("matcher.amount_tolerance is not a number: %s", config.Matcher.AmountTolerance)
	}
	if tolerance.IsNegative() {
		return fmt.Errorf("matcher.amount_tolerance must not be negative, got: %s", config.Matcher.AmountTolerance)
	}

	if config.Matcher.DateWindowDays < 0 {
		return fmt.Errorf("matcher.date_window_days must not be negative, got: %d", config.Matcher.DateWindowDays)
	}

	switch config.Store.Backend {
	case BackendMemory:
	case BackendPostgres:
		if config.Store.DSN == "" {
			return fmt.Errorf("store.dsn required when store backend is postgres")
		}
	default:
		return fmt.Errorf("invalid store backend: %s (must be 'memory' or 'postgres')", config.Store.Backend)
	}

	if config.AI.Enabled {
		if config.AI.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY required when AI is enabled")
		}

		if config.AI.TimeoutSeconds < 1 || config.AI.TimeoutSeconds > 300 {
			return fmt.Errorf("ai.timeout_seconds must be between 1 and 300, got: %d", config.AI.TimeoutSeconds)
		}
	}

	if _, err := cron.ParseStandard(config.Schedule.Cron); err != nil {
		return fmt.Errorf("invalid schedule.cron %q: %v", config.Schedule.Cron, err)
	}

	if config.Schedule.TimeoutMinutes < 1 {
		return fmt.Errorf("schedule.timeout_minutes must be at least 1, got: %d", config.Schedule.TimeoutMinutes)
	}

	return nil
}

// AmountTolerance returns the parsed matcher tolerance. Call after validation.
func (c *Config) AmountTolerance() decimal.Decimal {
	tolerance, err := decimal.NewFromString(c.Matcher.AmountTolerance)
	if err != nil {
		return decimal.Zero
	}
	return tolerance
}

// AITimeout returns the per-request AI deadline.
func (c *Config) AITimeout() time.Duration {
	return time.Duration(c.AI.TimeoutSeconds) * time.Second
}

// ScheduleTimeout bounds a single scheduled reprocess run.
func (c *Config) ScheduleTimeout() time.Duration {
	return time.Duration(c.Schedule.TimeoutMinutes) * time.Minute
}

// ConfigureLoggingFromConfig configures logging based on the Config struct
func ConfigureLoggingFromConfig(config *Config) logging.Logger {
	return logging.NewLogrusAdapter(strings.ToLower(config.Log.Level), strings.ToLower(config.Log.Format))
}
