package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, 10*time.Second, cfg.Extractor.Timeout.Std())
	assert.Equal(t, 5000, cfg.Extractor.MaxContentChars)
	assert.Equal(t, 3000, cfg.Analysis.MaxPromptChars)
	assert.Equal(t, ProviderAnthropic, cfg.Analysis.Provider)
	assert.Contains(t, cfg.Extractor.UserAgent, "Mozilla/5.0")
	assert.False(t, cfg.Scheduler.Enabled())
	assert.False(t, cfg.Notifications.Telegram.Enabled())
}

func TestParse_Durations(t *testing.T) {
	raw := []byte(`
extractor:
  timeout: 3s
analysis:
  provider: openai
  timeout: 1m30s
scheduler:
  cronExpression: "0 6 * * *"
  urls:
    - https://example.com
`)

	cfg, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.Extractor.Timeout.Std())
	assert.Equal(t, 90*time.Second, cfg.Analysis.Timeout.Std())
	assert.Equal(t, ProviderOpenAI, cfg.Analysis.Provider)
	assert.True(t, cfg.Scheduler.Enabled())
}

func TestParse_InvalidDuration(t *testing.T) {
	_, err := Parse([]byte("extractor:\n  timeout: soon\n"))
	require.Error(t, err)
}

func TestMergeConfig_KeepsDefaultsForZeroValues(t *testing.T) {
	override := Config{
		Database: DatabaseConfig{DSN: "/tmp/other.db"},
		Analysis: AnalysisConfig{Model: "gpt-4o-mini"},
	}

	merged := mergeConfig(defaultConfig(), override)

	assert.Equal(t, DriverSQLite, merged.Database.Driver)
	assert.Equal(t, "/tmp/other.db", merged.Database.DSN)
	assert.Equal(t, "gpt-4o-mini", merged.Analysis.Model)
	assert.Equal(t, ProviderAnthropic, merged.Analysis.Provider)
	assert.Equal(t, 3000, merged.Analysis.MaxPromptChars)
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  dsn: from-file.db
logging:
  level: debug
scheduler:
  timezone: Europe/Berlin
`), 0o600))

	t.Setenv(configPathEnv, path)
	t.Setenv(logLevelEnv, "warn")
	t.Setenv(telegramToken, "token")
	t.Setenv(telegramChatEnv, "42")

	cfg := Load()

	assert.Equal(t, "from-file.db", cfg.Database.DSN)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.True(t, cfg.Notifications.Telegram.Enabled())
	assert.Equal(t, "Europe/Berlin", cfg.Scheduler.Location().String())
}

func TestLoad_UnknownTimezoneFallsBackToUTC(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scheduler:\n  timezone: Mars/Olympus\n"), 0o600))
	t.Setenv(configPathEnv, path)

	cfg := Load()

	assert.Equal(t, "UTC", cfg.Scheduler.Location().String())
}

func TestLoadFrom_MissingFileUsesDefaults(t *testing.T) {
	cfg := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))

	assert.Equal(t, Default().Database, cfg.Database)
	assert.Equal(t, ":5000", cfg.Server.Addr)
}
