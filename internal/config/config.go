package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/codex-k8s/telegram-listener/internal/telegram/updates"
)

// DefaultPrefix prefixes every environment variable read by Load.
const DefaultPrefix = "TG_LISTENER_"

// Config describes runtime configuration for telegram-listener.
type Config struct {
	// ServiceName is a human-friendly service name for logs.
	ServiceName string `env:"SERVICE_NAME" envDefault:"telegram-listener"`
	// Token is the Telegram bot token.
	Token string `env:"TOKEN,required"`
	// LogLevel controls log verbosity (debug, info, warn, error).
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	// LogFormat selects the log encoding (text or json).
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
	// Lang selects the default reply language (en or ru).
	Lang string `env:"LANG" envDefault:"en"`
	// AllowedUpdates filters the update kinds Telegram delivers.
	AllowedUpdates []string `env:"ALLOWED_UPDATES" envSeparator:","`
	// PollTimeout is the long polling getUpdates timeout, whole seconds in [1s, 60s].
	PollTimeout time.Duration `env:"POLL_TIMEOUT" envDefault:"10s"`
	// WebhookURL is the public base URL Telegram calls in webhook mode.
	WebhookURL string `env:"WEBHOOK_URL"`
	// WebhookPath is the route appended to WebhookURL.
	WebhookPath string `env:"WEBHOOK_PATH"`
	// BindAddr is the ip:port the webhook server listens on.
	BindAddr string `env:"BIND_ADDR"`
	// WebhookSecret is the optional Telegram webhook secret token.
	WebhookSecret string `env:"WEBHOOK_SECRET"`
	// MaxBodySize caps a single webhook request body in bytes.
	MaxBodySize int64 `env:"WEBHOOK_MAX_BODY_SIZE" envDefault:"1048576"`
	// RateLimit is the accepted webhook requests per second (0 disables).
	RateLimit float64 `env:"WEBHOOK_RATE_LIMIT" envDefault:"0"`
	// RateBurst is the webhook rate limiter burst size.
	RateBurst int `env:"WEBHOOK_RATE_BURST" envDefault:"20"`
	// ShutdownTimeout is the graceful shutdown timeout.
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	webhook *updates.HTTPConfig
}

// Load parses configuration from environment variables with DefaultPrefix.
func Load() (Config, error) {
	return LoadWithPrefix(DefaultPrefix)
}

// LoadWithPrefix parses configuration from environment variables with the
// given prefix. Webhook mode is selected only when WEBHOOK_URL, WEBHOOK_PATH
// and BIND_ADDR are all set; otherwise the bot falls back to long polling.
func LoadWithPrefix(prefix string) (Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](env.Options{Prefix: prefix})
	if err != nil {
		return Config{}, err
	}

	cfg.Lang = strings.ToLower(strings.TrimSpace(cfg.Lang))
	if cfg.Lang == "" {
		cfg.Lang = "en"
	}
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))

	if strings.TrimSpace(cfg.Token) == "" {
		return Config{}, fmt.Errorf("token is required")
	}
	if cfg.PollTimeout < time.Second || cfg.PollTimeout > 60*time.Second {
		return Config{}, fmt.Errorf("poll timeout must be between 1s and 60s")
	}
	if cfg.PollTimeout%time.Second != 0 {
		return Config{}, fmt.Errorf("poll timeout must be a whole number of seconds")
	}
	if cfg.MaxBodySize <= 0 {
		return Config{}, fmt.Errorf("webhook max body size must be positive")
	}
	if cfg.RateLimit < 0 {
		return Config{}, fmt.Errorf("webhook rate limit must not be negative")
	}
	if cfg.ShutdownTimeout <= 0 {
		return Config{}, fmt.Errorf("shutdown timeout must be positive")
	}

	if cfg.WebhookURL != "" && cfg.WebhookPath != "" && cfg.BindAddr != "" {
		webhook, err := updates.NewHTTPConfig(cfg.WebhookURL, cfg.WebhookPath, cfg.BindAddr)
		if err != nil {
			return Config{}, err
		}
		cfg.webhook = &webhook
	}

	return cfg, nil
}

// WebhookEnabled reports whether webhook mode is configured.
func (c Config) WebhookEnabled() bool {
	return c.webhook != nil
}

// Webhook returns the validated webhook settings in webhook mode.
func (c Config) Webhook() (updates.HTTPConfig, bool) {
	if c.webhook == nil {
		return updates.HTTPConfig{}, false
	}
	return *c.webhook, true
}
