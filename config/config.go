package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"golang.org/x/text/language"

	apperrors "github.com/rajasatyajit/QuakeAlert/internal/errors"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Feed      FeedConfig
	Filter    FilterConfig
	Telegram  TelegramConfig
	Translate TranslateConfig
	Store     StoreConfig
	Pipeline  PipelineConfig
	Logging   LoggingConfig
	Metrics   MetricsConfig
}

type ServerConfig struct {
	Host                    string
	Port                    int
	ReadTimeout             time.Duration
	WriteTimeout            time.Duration
	IdleTimeout             time.Duration
	GracefulShutdownTimeout time.Duration
}

type FeedConfig struct {
	URL            string
	FetchTimeout   time.Duration
	RetryAttempts  int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
}

type FilterConfig struct {
	MinMagnitude float64
	CountryCode  string
}

type TelegramConfig struct {
	BotToken      string
	ChannelID     string
	RetryAttempts int
	RetryDelay    time.Duration
}

type TranslateConfig struct {
	Endpoint   string
	TargetLang string
	Timeout    time.Duration
}

type StoreConfig struct {
	// Path of the processed-id file. Empty selects the in-memory store,
	// which forgets everything on restart; meant for dry runs and tests.
	Path string
}

type PipelineConfig struct {
	PollInterval time.Duration
	MessageDelay time.Duration
}

type LoggingConfig struct {
	Level  string
	Format string // json or text
}

type MetricsConfig struct {
	Enabled bool
	Port    int
	Path    string
}

// Load loads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:                    getEnv("SERVER_HOST", "0.0.0.0"),
			Port:                    getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:             getEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:            getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:             getEnvDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			GracefulShutdownTimeout: getEnvDuration("SERVER_GRACEFUL_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Feed: FeedConfig{
			URL:            getEnv("FEED_URL", "https://earthquake.tmd.go.th/feed/rss_tmd.xml"),
			FetchTimeout:   getEnvDuration("FEED_FETCH_TIMEOUT", 10*time.Second),
			RetryAttempts:  getEnvInt("FEED_RETRY_ATTEMPTS", 3),
			RetryBaseDelay: getEnvDuration("FEED_RETRY_BASE_DELAY", 1*time.Second),
			RetryMaxDelay:  getEnvDuration("FEED_RETRY_MAX_DELAY", 30*time.Second),
		},
		Filter: FilterConfig{
			MinMagnitude: getEnvFloat("FILTER_MIN_MAGNITUDE", 2.9),
			CountryCode:  getEnv("FILTER_COUNTRY_CODE", "MM"),
		},
		Telegram: TelegramConfig{
			BotToken:      getEnv("TELEGRAM_BOT_TOKEN", ""),
			ChannelID:     getEnv("TELEGRAM_CHANNEL_ID", ""),
			RetryAttempts: getEnvInt("TELEGRAM_RETRY_ATTEMPTS", 3),
			RetryDelay:    getEnvDuration("TELEGRAM_RETRY_DELAY", 5*time.Second),
		},
		Translate: TranslateConfig{
			Endpoint:   getEnv("TRANSLATE_ENDPOINT", "https://translate.googleapis.com/translate_a/single"),
			TargetLang: getEnv("TRANSLATE_TARGET_LANG", "en"),
			Timeout:    getEnvDuration("TRANSLATE_TIMEOUT", 10*time.Second),
		},
		Store: StoreConfig{
			Path: getEnv("STORE_PATH", "processed_ids.txt"),
		},
		Pipeline: PipelineConfig{
			PollInterval: getEnvDuration("PIPELINE_POLL_INTERVAL", 10*time.Second),
			MessageDelay: getEnvDuration("PIPELINE_MESSAGE_DELAY", 2*time.Second),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
			Port:    getEnvInt("METRICS_PORT", 9090),
			Path:    getEnv("METRICS_PATH", "/metrics"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration, collecting every problem so a bad
// deployment surfaces all of them in one startup failure
func (c *Config) Validate() error {
	var errs apperrors.MultiError

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs.Add(apperrors.ValidationError{Field: "server.port", Message: fmt.Sprintf("invalid port: %d", c.Server.Port)})
	}
	if c.Feed.URL == "" {
		errs.Add(apperrors.ValidationError{Field: "feed.url", Message: "must not be empty"})
	}
	if c.Feed.FetchTimeout <= 0 {
		errs.Add(apperrors.ValidationError{Field: "feed.fetch_timeout", Message: "must be positive"})
	}
	if c.Feed.RetryAttempts < 1 {
		errs.Add(apperrors.ValidationError{Field: "feed.retry_attempts", Message: "must be at least 1"})
	}
	if c.Filter.MinMagnitude < 0 {
		errs.Add(apperrors.ValidationError{Field: "filter.min_magnitude", Message: "must not be negative"})
	}
	if len(c.Filter.CountryCode) != 2 {
		errs.Add(apperrors.ValidationError{Field: "filter.country_code", Message: "must be an ISO 3166-1 alpha-2 code"})
	}
	if c.Telegram.BotToken == "" {
		errs.Add(apperrors.ValidationError{Field: "telegram.bot_token", Message: "must not be empty"})
	}
	if c.Telegram.ChannelID == "" {
		errs.Add(apperrors.ValidationError{Field: "telegram.channel_id", Message: "must not be empty"})
	}
	if c.Telegram.RetryAttempts < 1 {
		errs.Add(apperrors.ValidationError{Field: "telegram.retry_attempts", Message: "must be at least 1"})
	}
	if _, err := language.Parse(c.Translate.TargetLang); err != nil {
		errs.Add(apperrors.ValidationError{Field: "translate.target_lang", Message: fmt.Sprintf("not a valid language tag: %v", err)})
	}
	if c.Pipeline.PollInterval <= 0 {
		errs.Add(apperrors.ValidationError{Field: "pipeline.poll_interval", Message: "must be positive"})
	}
	if c.Pipeline.MessageDelay < 0 {
		errs.Add(apperrors.ValidationError{Field: "pipeline.message_delay", Message: "must not be negative"})
	}
	if c.Metrics.Enabled && (c.Metrics.Port < 1 || c.Metrics.Port > 65535) {
		errs.Add(apperrors.ValidationError{Field: "metrics.port", Message: fmt.Sprintf("invalid port: %d", c.Metrics.Port)})
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
