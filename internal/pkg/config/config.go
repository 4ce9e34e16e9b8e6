package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ModePolling = "polling"
	ModeWebhook = "webhook"
)

type Config struct {
	Telegram TelegramCfg `yaml:"telegram"`
	Webhook  WebhookCfg  `yaml:"webhook"`
	DB       DBCfg       `yaml:"db"`
	HTTP     HTTPCfg     `yaml:"http"`
	Storage  StorageCfg  `yaml:"storage"`
	Reminder ReminderCfg `yaml:"reminder"`
	Media    MediaCfg    `yaml:"media"`
	Log      LogCfg      `yaml:"log"`
	Timezone string      `yaml:"timezone" env:"TIMEZONE"`
}

type TelegramCfg struct {
	Token string `yaml:"token" env:"TELEGRAM_BOT_TOKEN"`
	Mode  string `yaml:"mode" env:"TELEGRAM_MODE"`
}

type WebhookCfg struct {
	BaseURL string `yaml:"base_url" env:"WEBHOOK_BASE_URL"`
	Path    string `yaml:"path" env:"WEBHOOK_PATH"`
	Secret  string `yaml:"secret" env:"WEBHOOK_SECRET"`
}

// URL is the public address Telegram delivers updates to.
func (w WebhookCfg) URL() string {
	return strings.TrimRight(w.BaseURL, "/") + w.Path
}

type DBCfg struct {
	URL      string `yaml:"url" env:"DATABASE_URL"`
	MaxConns int    `yaml:"max_conns" env:"DB_MAX_CONNS"`
}

type HTTPCfg struct {
	Addr string `yaml:"addr" env:"HTTP_ADDR"`
	// AdminToken guards /api/telegram. Empty rejects every admin request.
	AdminToken string `yaml:"admin_token" env:"ADMIN_TOKEN"`
}

type StorageCfg struct {
	DirPath string `yaml:"dir_path" env:"STORAGE_DIR"`
}

type ReminderCfg struct {
	// Sweep is a robfig/cron schedule, e.g. "@every 1m".
	Sweep string `yaml:"sweep" env:"REMINDER_SWEEP"`
}

type MediaCfg struct {
	GroupWindow     time.Duration `yaml:"group_window" env:"MEDIA_GROUP_WINDOW"`
	ReplayPerSecond int           `yaml:"replay_per_second" env:"MEDIA_REPLAY_PER_SECOND"`
}

type LogCfg struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

// Load reads the optional YAML file at path, then .env and the process
// environment. Environment values override the file.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse YAML config: %w", err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize fills defaults and validates required fields.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		return fmt.Errorf("telegram token is required")
	}
	if strings.TrimSpace(cfg.DB.URL) == "" {
		return fmt.Errorf("database url is required")
	}

	mode := strings.ToLower(strings.TrimSpace(cfg.Telegram.Mode))
	switch mode {
	case "", "longpoll":
		mode = ModePolling
	}
	switch mode {
	case ModePolling:
	case ModeWebhook:
		if strings.TrimSpace(cfg.Webhook.BaseURL) == "" {
			return fmt.Errorf("webhook.base_url is required when telegram.mode is 'webhook'")
		}
	default:
		return fmt.Errorf("invalid telegram.mode %q; allowed: polling, webhook", cfg.Telegram.Mode)
	}
	cfg.Telegram.Mode = mode

	if cfg.Webhook.Path == "" {
		cfg.Webhook.Path = "/telegram/webhook"
	}
	if !strings.HasPrefix(cfg.Webhook.Path, "/") {
		cfg.Webhook.Path = "/" + cfg.Webhook.Path
	}
	if cfg.DB.MaxConns <= 0 {
		cfg.DB.MaxConns = 10
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.Storage.DirPath == "" {
		cfg.Storage.DirPath = "data/evidence"
	}
	if cfg.Reminder.Sweep == "" {
		cfg.Reminder.Sweep = "@every 1m"
	}
	if cfg.Media.GroupWindow <= 0 {
		cfg.Media.GroupWindow = time.Second
	}
	if cfg.Media.ReplayPerSecond <= 0 {
		cfg.Media.ReplayPerSecond = 3
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Asia/Jakarta"
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}
	return nil
}

// Location returns the configured display zone, falling back to WIB.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.FixedZone("WIB", 7*60*60)
	}
	return loc
}
