package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"

	LimitKeyUser      = "user"
	LimitKeyApartment = "apartment"
)

type Config struct {
	Environment string `envconfig:"ENV" default:"development"`
	HTTPAddr    string `envconfig:"HTTP_ADDR" default:":8080"`

	Storage    string `envconfig:"STORAGE" default:"postgres"`
	DBDSN      string `envconfig:"DB_DSN"`
	Migrations bool   `envconfig:"MIGRATIONS" default:"true"`

	JWTSecret string        `envconfig:"JWT_SECRET" required:"true"`
	JWTTTL    time.Duration `envconfig:"JWT_TTL" default:"30m"`

	// Ключ лимита "одно активное бронирование": user или apartment
	LimitKey string `envconfig:"LIMIT_KEY" default:"user"`
	// Часовой пояс, в котором проверяются рабочие часы и выходные
	Timezone         string        `envconfig:"TIMEZONE" default:"Asia/Seoul"`
	CompleteInterval time.Duration `envconfig:"COMPLETE_INTERVAL" default:"10m"`

	TelegramToken       string `envconfig:"TELEGRAM_TOKEN"`
	TelegramAdminChatID int64  `envconfig:"TELEGRAM_ADMIN_CHAT_ID"`
	TelegramAdminUserID int64  `envconfig:"TELEGRAM_ADMIN_USER_ID"`

	AMQPURL      string `envconfig:"AMQP_URL"`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"reservations"`

	RedisURL           string `envconfig:"REDIS_URL"`
	RateLimitPerMinute int    `envconfig:"RATE_LIMIT_PER_MINUTE" default:"120"`

	AdminUsername string `envconfig:"ADMIN_USERNAME"`
	AdminPassword string `envconfig:"ADMIN_PASSWORD"`
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}

	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate проверяет согласованность настроек
func (c *Config) Validate() error {
	switch c.Storage {
	case StoragePostgres:
		if c.DBDSN == "" {
			return fmt.Errorf("DB_DSN is required but not set")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("unknown STORAGE %q", c.Storage)
	}

	if c.LimitKey != LimitKeyUser && c.LimitKey != LimitKeyApartment {
		return fmt.Errorf("unknown LIMIT_KEY %q", c.LimitKey)
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	if c.TelegramToken != "" && c.TelegramAdminChatID == 0 {
		return fmt.Errorf("TELEGRAM_ADMIN_CHAT_ID is required when TELEGRAM_TOKEN is set")
	}

	if c.CompleteInterval <= 0 {
		return fmt.Errorf("COMPLETE_INTERVAL must be positive")
	}

	return nil
}

// Location часовой пояс для бизнес-правил
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
