package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "UTC"
	configPathEnv   = "RESEARCH_AGENT_CONFIG"
	databaseDrvEnv  = "DATABASE_DRIVER"
	databaseDSNEnv  = "DATABASE_DSN"
	httpAddrEnv     = "HTTP_ADDR"
	logLevelEnv     = "LOG_LEVEL"
	llmProviderEnv  = "LLM_PROVIDER"
	llmModelEnv     = "LLM_MODEL"
	telegramToken   = "TELEGRAM_BOT_TOKEN"
	telegramChatEnv = "TELEGRAM_CHAT_ID"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Supported LLM providers.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// Config holds high-level settings required across the application.
type Config struct {
	Database      DatabaseConfig     `yaml:"database"`
	Server        ServerConfig       `yaml:"server"`
	Logging       LoggingConfig      `yaml:"logging"`
	Extractor     ExtractorConfig    `yaml:"extractor"`
	Analysis      AnalysisConfig     `yaml:"analysis"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Notifications NotificationConfig `yaml:"notifications"`
}

// DatabaseConfig selects the SQL backend. The sqlite DSN is a file path.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig sets the slog level and output format ("text" or "json").
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ExtractorConfig bounds page fetching.
type ExtractorConfig struct {
	Timeout         Duration `yaml:"timeout"`
	UserAgent       string   `yaml:"userAgent"`
	MaxContentChars int      `yaml:"maxContentChars"`
}

// AnalysisConfig selects the LLM provider and bounds the prompt.
// Endpoint overrides the provider's default base URL when set.
type AnalysisConfig struct {
	Provider       string   `yaml:"provider"`
	Model          string   `yaml:"model"`
	Endpoint       string   `yaml:"endpoint"`
	MaxTokens      int      `yaml:"maxTokens"`
	MaxPromptChars int      `yaml:"maxPromptChars"`
	Timeout        Duration `yaml:"timeout"`
}

// SchedulerConfig defines the watchlist and when it is resubmitted.
// An empty CronExpression or URL list disables the scheduler.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	URLs           []string       `yaml:"urls"`
	location       *time.Location `yaml:"-"`
}

// Enabled reports whether a watchlist run is configured.
func (s SchedulerConfig) Enabled() bool {
	return strings.TrimSpace(s.CronExpression) != "" && len(s.URLs) > 0
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// NotificationConfig encapsulates outbound channels.
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// Enabled reports whether both the token and the chat are set.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

// Duration is a time.Duration that unmarshals from strings like "10s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Load reads the YAML file named by RESEARCH_AGENT_CONFIG (if set) and
// applies environment overrides.
func Load() Config {
	return LoadFrom(os.Getenv(configPathEnv))
}

// LoadFrom reads the YAML file at path (if non-empty) and applies environment
// overrides. Unreadable files are logged and ignored.
func LoadFrom(path string) Config {
	cfg := defaultConfig()

	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			fileCfg, err := Parse(raw)
			if err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg
}

// Parse decodes a YAML document without applying defaults.
func Parse(raw []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDrvEnv); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv(httpAddrEnv); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(llmProviderEnv); v != "" {
		c.Analysis.Provider = v
	}
	if v := os.Getenv(llmModelEnv); v != "" {
		c.Analysis.Model = v
	}
	if v := os.Getenv(telegramToken); v != "" {
		c.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Database.Driver != "" {
		base.Database.Driver = override.Database.Driver
	}
	if override.Database.DSN != "" {
		base.Database.DSN = override.Database.DSN
	}

	if override.Server.Addr != "" {
		base.Server.Addr = override.Server.Addr
	}
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.Extractor.Timeout > 0 {
		base.Extractor.Timeout = override.Extractor.Timeout
	}
	if override.Extractor.UserAgent != "" {
		base.Extractor.UserAgent = override.Extractor.UserAgent
	}
	if override.Extractor.MaxContentChars > 0 {
		base.Extractor.MaxContentChars = override.Extractor.MaxContentChars
	}

	if override.Analysis.Provider != "" {
		base.Analysis.Provider = override.Analysis.Provider
	}
	if override.Analysis.Model != "" {
		base.Analysis.Model = override.Analysis.Model
	}
	if override.Analysis.Endpoint != "" {
		base.Analysis.Endpoint = override.Analysis.Endpoint
	}
	if override.Analysis.MaxTokens > 0 {
		base.Analysis.MaxTokens = override.Analysis.MaxTokens
	}
	if override.Analysis.MaxPromptChars > 0 {
		base.Analysis.MaxPromptChars = override.Analysis.MaxPromptChars
	}
	if override.Analysis.Timeout > 0 {
		base.Analysis.Timeout = override.Analysis.Timeout
	}

	if override.Scheduler.CronExpression != "" {
		base.Scheduler.CronExpression = override.Scheduler.CronExpression
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}
	if len(override.Scheduler.URLs) > 0 {
		base.Scheduler.URLs = override.Scheduler.URLs
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	return base
}

// Default returns the built-in configuration without env or file overrides.
func Default() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Database: DatabaseConfig{Driver: DriverSQLite, DSN: "research.db"},
		Server:   ServerConfig{Addr: ":5000"},
		Logging:  LoggingConfig{Level: "info", Format: "text"},
		Extractor: ExtractorConfig{
			Timeout:         Duration(10 * time.Second),
			UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			MaxContentChars: 5000,
		},
		Analysis: AnalysisConfig{
			Provider:       ProviderAnthropic,
			Model:          "claude-sonnet-4-20250514",
			MaxTokens:      1024,
			MaxPromptChars: 3000,
			Timeout:        Duration(60 * time.Second),
		},
		Scheduler: SchedulerConfig{Timezone: defaultTimezone, location: tz},
	}
}
