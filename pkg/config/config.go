package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds runtime configuration for the gift basket bot.
type Config struct {
	AppEnv string `mapstructure:"app_env"`

	Bot       BotConfig       `mapstructure:"bot" validate:"required"`
	Budget    BudgetConfig    `mapstructure:"budget" validate:"required"`
	Deadline  DeadlineConfig  `mapstructure:"deadline" validate:"required"`
	Notifier  NotifierConfig  `mapstructure:"notifier"`
	State     StateConfig     `mapstructure:"state"`
	Redis     RedisConfig     `mapstructure:"redis"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Sentry    SentryConfig    `mapstructure:"sentry"`
	Server    ServerConfig    `mapstructure:"server"`
}

// BotConfig configures the Telegram transport.
type BotConfig struct {
	Token      string        `mapstructure:"token" validate:"required"`
	Mode       string        `mapstructure:"mode" validate:"oneof=polling webhook"`
	Timeout    time.Duration `mapstructure:"timeout"`
	WebhookURL string        `mapstructure:"webhook_url" validate:"required_if=Mode webhook"`
	Listen     string        `mapstructure:"listen"`
	AdminID    int64         `mapstructure:"admin_id" validate:"required"`
	Language   string        `mapstructure:"language" validate:"oneof=ru en"`
	MediaDir   string        `mapstructure:"media_dir"`
}

// BudgetConfig holds the hidden spending limit.
type BudgetConfig struct {
	Limit    string `mapstructure:"limit" validate:"required,numeric"`
	MaxPrice string `mapstructure:"max_price" validate:"required,numeric"`
	Currency string `mapstructure:"currency" validate:"required"`
}

// DeadlineConfig configures the submission cutoff and the countdown reminder.
type DeadlineConfig struct {
	At           string `mapstructure:"at" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	Timezone     string `mapstructure:"timezone" validate:"required,timezone"`
	ReminderSpec string `mapstructure:"reminder_spec" validate:"required"`
}

// NotifierConfig tunes broadcast fan-out.
type NotifierConfig struct {
	Concurrency int           `mapstructure:"concurrency" validate:"gte=1"`
	SendTimeout time.Duration `mapstructure:"send_timeout"`
}

// StateConfig selects where conversation state lives and how long abandoned flows survive.
type StateConfig struct {
	Backend         string        `mapstructure:"backend" validate:"oneof=memory redis"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// RedisConfig mirrors pkg/redis.Config for viper decoding.
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr" validate:"required_if=Enabled true"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	PoolTimeout  time.Duration `mapstructure:"pool_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	MaxRetries   int           `mapstructure:"max_retries"`
}

// RateLimitRule describes a limit over a window such as "1m".
type RateLimitRule struct {
	Limit  int    `mapstructure:"limit"`
	Window string `mapstructure:"window"`
}

// RateLimitConfig configures per-user throttling of incoming updates.
type RateLimitConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	PerUser   RateLimitRule `mapstructure:"per_user"`
	Whitelist []int64       `mapstructure:"whitelist"`
}

// LoggerConfig configures slog output.
type LoggerConfig struct {
	Level  string        `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string        `mapstructure:"format" validate:"oneof=json text"`
	File   LogFileConfig `mapstructure:"file"`
}

// LogFileConfig enables rotating file output through lumberjack.
type LogFileConfig struct {
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// SentryConfig configures error reporting.
type SentryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	DSN         string `mapstructure:"dsn" validate:"required_if=Enabled true"`
	Environment string `mapstructure:"environment"`
}

// ServerConfig configures the metrics and health HTTP server.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// BudgetLimit parses the configured spending limit.
func (c *Config) BudgetLimit() (decimal.Decimal, error) {
	limit, err := decimal.NewFromString(c.Budget.Limit)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse budget limit: %w", err)
	}
	if !limit.IsPositive() {
		return decimal.Zero, fmt.Errorf("budget limit must be positive, got %s", limit)
	}

	return limit, nil
}

// MaxPrice parses the largest price a single item may carry.
func (c *Config) MaxPrice() (decimal.Decimal, error) {
	maxPrice, err := decimal.NewFromString(c.Budget.MaxPrice)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse max price: %w", err)
	}

	return maxPrice, nil
}

// Location loads the deadline time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Deadline.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Deadline.Timezone, err)
	}

	return loc, nil
}

// Cutoff returns the deadline instant in the configured time zone.
func (c *Config) Cutoff() (time.Time, error) {
	at, err := time.Parse(time.RFC3339, c.Deadline.At)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse deadline: %w", err)
	}

	loc, err := c.Location()
	if err != nil {
		return time.Time{}, err
	}

	return at.In(loc), nil
}
