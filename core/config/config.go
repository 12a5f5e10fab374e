// Package config holds the settings every bot built on core shares: the
// Telegram connection, logging and the per-user rate limit. Apps embed
// Config inline in their own YAML document.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Telegram run modes.
const (
	RunModeWebhook  = "webhook"
	RunModeLongpoll = "longpoll"
)

// Update kinds accepted by rate_limit.exclude_updates.
const (
	UpdateCallback    = "callback"
	UpdateMessage     = "message"
	UpdateInlineQuery = "inline_query"
)

var updateKinds = []string{UpdateCallback, UpdateMessage, UpdateInlineQuery}

// TelegramConfig is the Bot API connection.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	AdminID int64  `yaml:"admin_id" envconfig:"TELEGRAM_ADMIN_ID"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds of 0 selects 10s.
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
	// RequestTimeoutSeconds bounds one Bot API call that carries no file.
	// A long poll gets this on top of its hold time. 0 selects 30s.
	RequestTimeoutSeconds int `yaml:"request_timeout_seconds" envconfig:"TELEGRAM_REQUEST_TIMEOUT_SECONDS"`
	// UploadTimeoutSeconds bounds one file upload. 0 selects 10m.
	UploadTimeoutSeconds int `yaml:"upload_timeout_seconds" envconfig:"TELEGRAM_UPLOAD_TIMEOUT_SECONDS"`
}

// WebhookConfig is used when run_mode is webhook.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format string `yaml:"format" envconfig:"LOG_FORMAT"`
	// KeysOrder is a comma separated key list, or "default".
	KeysOrder string `yaml:"keys_order"`
	// DebugSample is "n/d" or "d"; sampled debug lines pass n of every d.
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir" envconfig:"LOG_DIR"`
	BotFile     string `yaml:"bot_file"`
	MaxSizeMB   int    `yaml:"max_size_mb"`
	MaxBackups  int    `yaml:"max_backups"`
	MaxAgeDays  int    `yaml:"max_age_days"`
	Compress    bool   `yaml:"compress"`
	// Profile such as "prod" or "debug"; debug and dev default to kv output.
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
}

// RateLimitConfig gives each user a token bucket of Burst tokens refilled
// every IntervalMS. An interval of 0 disables limiting.
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	Burst          int      `yaml:"burst" envconfig:"RATE_LIMIT_BURST"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// Config aggregates the core sections.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// Decode fills dst from the YAML file at path, then applies environment
// variables on top. An empty path reads the environment only.
func Decode(path string, dst any) error {
	if path = strings.TrimSpace(path); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, dst); err != nil {
			return fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}
	if err := envconfig.Process("", dst); err != nil {
		return fmt.Errorf("failed to process env: %w", err)
	}
	return nil
}

// Normalize fills defaults and reports every invalid setting at once.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return errors.New("nil config")
	}
	var result *multierror.Error
	result = multierror.Append(result, cfg.Telegram.normalize(&cfg.Webhook)...)
	result = multierror.Append(result, cfg.RateLimit.normalize()...)
	return result.ErrorOrNil()
}

func (t *TelegramConfig) normalize(wh *WebhookConfig) []error {
	var errs []error
	if t.Token == "" {
		errs = append(errs, errors.New("telegram token is required"))
	}
	if t.RequestTimeoutSeconds < 0 {
		errs = append(errs, errors.New("telegram.request_timeout_seconds must be >= 0"))
	}
	if t.UploadTimeoutSeconds < 0 {
		errs = append(errs, errors.New("telegram.upload_timeout_seconds must be >= 0"))
	}

	mode := strings.ToLower(strings.TrimSpace(t.RunMode))
	switch mode {
	case "", "polling", RunModeLongpoll:
		t.RunMode = RunModeLongpoll
		if t.LongPollTimeoutSeconds < 0 {
			errs = append(errs, errors.New("telegram.longpoll_timeout_seconds must be >= 0"))
		}
	case RunModeWebhook:
		t.RunMode = RunModeWebhook
		if strings.TrimSpace(wh.URL) == "" {
			errs = append(errs, errors.New("webhook.url is required when telegram.run_mode is 'webhook'"))
		}
		if wh.Port <= 0 {
			errs = append(errs, errors.New("webhook.port must be > 0 when telegram.run_mode is 'webhook'"))
		}
		if strings.TrimSpace(wh.Listen) == "" {
			wh.Listen = "0.0.0.0"
		}
	default:
		errs = append(errs, fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", t.RunMode))
	}
	return errs
}

func (r *RateLimitConfig) normalize() []error {
	var errs []error
	if r.IntervalMS < 0 {
		errs = append(errs, errors.New("rate_limit.interval_ms must be >= 0"))
	}
	r.Burst = max(r.Burst, 1)

	kinds := r.ExcludeUpdates[:0]
	for _, v := range r.ExcludeUpdates {
		kind := strings.ToLower(strings.TrimSpace(v))
		switch {
		case kind == "":
		case slices.Contains(updateKinds, kind):
			kinds = append(kinds, kind)
		default:
			errs = append(errs, fmt.Errorf("invalid rate_limit.exclude_updates value %q; allowed: %s", v, strings.Join(updateKinds, ", ")))
		}
	}
	r.ExcludeUpdates = kinds
	return errs
}
