// Package root contains the root command for the application
package root

import (
	"context"
	"fmt"

	"budge/statements/internal/config"
	"budge/statements/internal/container"
	"budge/statements/internal/logging"

	"github.com/spf13/cobra"
)

var (
	// ConfigFile is an explicit config file; empty searches the default locations.
	ConfigFile string

	// LogLevel overrides log.level from configuration when set.
	LogLevel string

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "budge",
		Short: "Ingest bank statement CSV files and classify their transactions.",
		Long: `budge reads bank statement CSV exports, classifies each transaction with
configurable rules, links transfers between your own accounts and keeps the
result in a record store that can be reprocessed and exported.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Init initializes the root command and all flags
func Init() {
	Cmd.PersistentFlags().StringVarP(&ConfigFile, "config", "c", "", "Config file (default config.yaml in $HOME/.budge, .budge or .)")
	Cmd.PersistentFlags().StringVar(&LogLevel, "log-level", "", "Override the configured log level")
}

// LoadConfig loads the environment and configuration honoring the global flags.
func LoadConfig() (*config.Config, error) {
	config.LoadEnv(nil)

	cfg, err := config.InitializeConfig(ConfigFile)
	if err != nil {
		return nil, err
	}
	if LogLevel != "" {
		cfg.Log.Level = LogLevel
	}
	return cfg, nil
}

// NewContainer builds the application container for cmd. The caller owns the
// container and must Close it.
func NewContainer(cmd *cobra.Command) (*container.Container, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	c, err := container.NewContainer(Context(cmd), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize: %w", err)
	}
	return c, nil
}

// CloseContainer closes c and folds a close failure into err.
func CloseContainer(c *container.Container, err *error) {
	if closeErr := c.Close(); closeErr != nil {
		c.GetLogger().Error("Failed to persist state", logging.F(logging.FieldError, closeErr))
		if *err == nil {
			*err = closeErr
		}
	}
}

// Context returns the command context, or a background context when the
// command runs outside Execute.
func Context(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
