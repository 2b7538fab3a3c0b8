package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Push backends selectable with PUSH_BACKEND.
const (
	PushBackendFCM      = "fcm"
	PushBackendTelegram = "telegram"
	PushBackendLog      = "log"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	DatabaseURL    string `env:"DATABASE_URL,required,notEmpty"`
	DBMaxOpenConns int    `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	Environment    string `env:"ENVIRONMENT" envDefault:"development"`
	HTTPAddr       string `env:"HTTP_ADDR" envDefault:":8080"`

	SweepCronSpec string        `env:"SWEEP_CRON_SPEC" envDefault:"*/5 * * * *"` // every 5 minutes
	SweepTimeout  time.Duration `env:"SWEEP_TIMEOUT" envDefault:"4m"`

	FanoutConcurrency      int           `env:"FANOUT_CONCURRENCY" envDefault:"32"`
	CallableMaxConcurrency int64         `env:"CALLABLE_MAX_CONCURRENCY" envDefault:"10"`
	CallableTimeout        time.Duration `env:"CALLABLE_TIMEOUT" envDefault:"60s"`

	PushBackend string `env:"PUSH_BACKEND" envDefault:"log"`
	// FCM
	FirebaseCredentialsFile string `env:"FIREBASE_CREDENTIALS_FILE"`
	FirebaseProjectID       string `env:"FIREBASE_PROJECT_ID"`
	// Telegram: topic name -> channel chat id, e.g. "articles:-1001,polls:-1002".
	TelegramToken    string           `env:"TELEGRAM_TOKEN"`
	TelegramChannels map[string]int64 `env:"TELEGRAM_CHANNELS" envKeyValSeparator:":"`

	// Optional job claims across overlapping sweeps. Empty disables them.
	RedisURL string `env:"REDIS_URL"`
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.Environment = strings.ToLower(cfg.Environment)
	cfg.PushBackend = strings.ToLower(cfg.PushBackend)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) validate() error {
	switch c.PushBackend {
	case PushBackendLog:
	case PushBackendFCM:
		if c.FirebaseCredentialsFile == "" && c.FirebaseProjectID == "" {
			return fmt.Errorf("FIREBASE_CREDENTIALS_FILE or FIREBASE_PROJECT_ID is required for the fcm push backend")
		}
	case PushBackendTelegram:
		if c.TelegramToken == "" {
			return fmt.Errorf("TELEGRAM_TOKEN is required for the telegram push backend")
		}
	default:
		return fmt.Errorf("unknown PUSH_BACKEND %q", c.PushBackend)
	}
	if c.FanoutConcurrency <= 0 {
		return fmt.Errorf("FANOUT_CONCURRENCY must be positive, got %d", c.FanoutConcurrency)
	}
	if c.DBMaxOpenConns <= 0 {
		return fmt.Errorf("DB_MAX_OPEN_CONNS must be positive, got %d", c.DBMaxOpenConns)
	}
	if c.CallableMaxConcurrency <= 0 {
		return fmt.Errorf("CALLABLE_MAX_CONCURRENCY must be positive, got %d", c.CallableMaxConcurrency)
	}
	return nil
}
