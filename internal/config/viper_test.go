package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inTempDir isolates a test from config files in the working directory and
// the user's home.
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func defaultConfig(t *testing.T) *Config {
	t.Helper()
	return Default()
}

func TestInitializeConfig_Defaults(t *testing.T) {
	clearTestEnvVars(t)
	inTempDir(t)

	config, err := InitializeConfig("")
	require.NoError(t, err)

	assert.Equal(t, "info", config.Log.Level)
	assert.Equal(t, "text", config.Log.Format)
	assert.Equal(t, ",", config.Input.Delimiter)
	assert.Equal(t, []string{"01/02/2006", "2006-01-02"}, config.Input.DateLayouts)
	assert.Equal(t, []string{".csv"}, config.Input.Extensions)
	assert.Equal(t, 4, config.Input.Workers)
	assert.Equal(t, "rules.yaml", config.Rules.File)
	assert.Equal(t, "mappings.yaml", config.Rules.MappingsFile)
	assert.Equal(t, "accounts.yaml", config.Accounts.File)
	assert.True(t, decimal.RequireFromString("0.01").Equal(config.AmountTolerance()))
	assert.Equal(t, 5, config.Matcher.DateWindowDays)
	assert.Len(t, config.Transfer.Boilerplate, 3)
	assert.Equal(t, BackendMemory, config.Store.Backend)
	assert.Equal(t, "records.yaml", config.Store.Path)
	assert.False(t, config.AI.Enabled)
	assert.Equal(t, "gemini-1.5-flash", config.AI.Model)
	assert.Equal(t, "0 6 * * *", config.Schedule.Cron)
	assert.Equal(t, "UTC", config.Schedule.Timezone)
}

func TestInitializeConfig_FromFile(t *testing.T) {
	clearTestEnvVars(t)
	dir := inTempDir(t)

	configContent := `
log:
  level: "warn"
  format: "json"
input:
  delimiter: ";"
  workers: 2
  date_layouts: ["02.01.2006"]
matcher:
  amount_tolerance: "0.05"
  date_window_days: 3
store:
  backend: "postgres"
  dsn: "postgres://localhost/budge"
schedule:
  cron: "*/15 * * * *"
  timezone: "Europe/Zurich"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(configContent), 0600))

	config, err := InitializeConfig("")
	require.NoError(t, err)

	assert.Equal(t, "warn", config.Log.Level)
	assert.Equal(t, "json", config.Log.Format)
	assert.Equal(t, ";", config.Input.Delimiter)
	assert.Equal(t, 2, config.Input.Workers)
	assert.Equal(t, []string{"02.01.2006"}, config.Input.DateLayouts)
	assert.True(t, decimal.RequireFromString("0.05").Equal(config.AmountTolerance()))
	assert.Equal(t, 3, config.Matcher.DateWindowDays)
	assert.Equal(t, BackendPostgres, config.Store.Backend)
	assert.Equal(t, "postgres://localhost/budge", config.Store.DSN)
	assert.Equal(t, "*/15 * * * *", config.Schedule.Cron)
	assert.Equal(t, "Europe/Zurich", config.Schedule.Timezone)
}

func TestInitializeConfig_ExplicitFile(t *testing.T) {
	clearTestEnvVars(t)
	dir := inTempDir(t)

	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0600))

	config, err := InitializeConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", config.Log.Level)

	_, err = InitializeConfig(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestInitializeConfig_HierarchicalPrecedence(t *testing.T) {
	clearTestEnvVars(t)
	dir := inTempDir(t)

	configContent := `
log:
  level: "warn"
input:
  delimiter: "|"
  workers: 2
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(configContent), 0600))

	t.Setenv("BUDGE_LOG_LEVEL", "error")
	t.Setenv("BUDGE_INPUT_WORKERS", "8")
	t.Setenv("BUDGE_AI_ENABLED", "true")
	t.Setenv("GEMINI_API_KEY", "env-api-key")

	config, err := InitializeConfig("")
	require.NoError(t, err)

	assert.Equal(t, "error", config.Log.Level)       // env var wins
	assert.Equal(t, "|", config.Input.Delimiter)     // config file value
	assert.Equal(t, 8, config.Input.Workers)         // env var wins
	assert.True(t, config.AI.Enabled)                // env var
	assert.Equal(t, "env-api-key", config.AI.APIKey) // unprefixed API key
}

func TestInitializeConfig_InvalidFromEnv(t *testing.T) {
	clearTestEnvVars(t)
	inTempDir(t)
	t.Setenv("BUDGE_STORE_BACKEND", "sqlite")

	_, err := InitializeConfig("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid store backend")
}

func TestValidateConfig_Defaults(t *testing.T) {
	assert.NoError(t, validateConfig(defaultConfig(t)))
}

func TestValidateConfig_InvalidValues(t *testing.T) {
	tests := []struct {
		name         string
		modifyConfig func(*Config)
		expectError  string
	}{
		{
			name:         "invalid log level",
			modifyConfig: func(c *Config) { c.Log.Level = "invalid" },
			expectError:  "invalid log level",
		},
		{
			name:         "invalid log format",
			modifyConfig: func(c *Config) { c.Log.Format = "invalid" },
			expectError:  "invalid log format",
		},
		{
			name:         "multi-character delimiter",
			modifyConfig: func(c *Config) { c.Input.Delimiter = "abc" },
			expectError:  "input delimiter must be a single character",
		},
		{
			name:         "zero workers",
			modifyConfig: func(c *Config) { c.Input.Workers = 0 },
			expectError:  "input.workers must be at least 1",
		},
		{
			name:         "no date layouts",
			modifyConfig: func(c *Config) { c.Input.DateLayouts = nil },
			expectError:  "input.date_layouts must not be empty",
		},
		{
			name:         "non-numeric tolerance",
			modifyConfig: func(c *Config) { c.Matcher.AmountTolerance = "cents" },
			expectError:  "matcher.amount_tolerance is not a number",
		},
		{
			name:         "negative tolerance",
			modifyConfig: func(c *Config) { c.Matcher.AmountTolerance = "-0.5" },
			expectError:  "matcher.amount_tolerance must not be negative",
		},
		{
			name:         "negative date window",
			modifyConfig: func(c *Config) { c.Matcher.DateWindowDays = -1 },
			expectError:  "matcher.date_window_days must not be negative",
		},
		{
			name:         "unknown backend",
			modifyConfig: func(c *Config) { c.Store.Backend = "sqlite" },
			expectError:  "invalid store backend",
		},
		{
			name:         "postgres without dsn",
			modifyConfig: func(c *Config) { c.Store.Backend = BackendPostgres },
			expectError:  "store.dsn required",
		},
		{
			name: "AI enabled without API key",
			modifyConfig: func(c *Config) {
				c.AI.Enabled = true
				c.AI.APIKey = ""
			},
			expectError: "GEMINI_API_KEY required when AI is enabled",
		},
		{
			name: "invalid timeout seconds",
			modifyConfig: func(c *Config) {
				c.AI.Enabled = true
				c.AI.APIKey = "test-key"
				c.AI.TimeoutSeconds = 0
			},
			expectError: "ai.timeout_seconds must be between 1 and 300",
		},
		{
			name:         "invalid cron",
			modifyConfig: func(c *Config) { c.Schedule.Cron = "every morning" },
			expectError:  "invalid schedule.cron",
		},
		{
			name:         "zero schedule timeout",
			modifyConfig: func(c *Config) { c.Schedule.TimeoutMinutes = 0 },
			expectError:  "schedule.timeout_minutes must be at least 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := defaultConfig(t)
			tt.modifyConfig(config)
			err := validateConfig(config)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectError)
		})
	}
}

func TestConfigureLoggingFromConfig(t *testing.T) {
	for _, format := range []string{"text", "json"} {
		t.Run(format, func(t *testing.T) {
			config := defaultConfig(t)
			config.Log.Format = format
			assert.NotNil(t, ConfigureLoggingFromConfig(config))
		})
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("BUDGE_TEST_VALUE", "set")
	assert.Equal(t, "set", GetEnv("BUDGE_TEST_VALUE", "fallback"))
	assert.Equal(t, "fallback", GetEnv("BUDGE_TEST_UNSET_VALUE", "fallback"))
}

// clearTestEnvVars unsets variables that would leak into config tests.
func clearTestEnvVars(t *testing.T) {
	envVars := []string{
		"BUDGE_LOG_LEVEL",
		"BUDGE_LOG_FORMAT",
		"BUDGE_INPUT_DELIMITER",
		"BUDGE_INPUT_WORKERS",
		"BUDGE_MATCHER_AMOUNT_TOLERANCE",
		"BUDGE_MATCHER_DATE_WINDOW_DAYS",
		"BUDGE_STORE_BACKEND",
		"BUDGE_STORE_PATH",
		"BUDGE_STORE_DSN",
		"BUDGE_AI_ENABLED",
		"BUDGE_AI_MODEL",
		"BUDGE_AI_TIMEOUT_SECONDS",
		"BUDGE_SCHEDULE_CRON",
		"BUDGE_SCHEDULE_TIMEZONE",
		"GEMINI_API_KEY",
	}

	for _, envVar := range envVars {
		// t.Setenv registers restoration; Unsetenv then removes it for the test
		t.Setenv(envVar, "")
		require.NoError(t, os.Unsetenv(envVar))
	}
}
