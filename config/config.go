package config

import (
	"fmt"
	"time"
	_ "time/tzdata" // образы без /usr/share/zoneinfo

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/Dosada05/league-buysell/storage"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseDriver string `env:"DATABASE_DRIVER" envDefault:"postgres"`
	DatabaseURL    string `env:"DATABASE_URL,required"`
	JWTSecretKey   string `env:"JWT_SECRET_KEY,required"`
	ServerPort     int    `env:"SERVER_PORT" envDefault:"8080"`

	LeagueTimezone string         `env:"LEAGUE_TIMEZONE" envDefault:"America/Los_Angeles"`
	Location       *time.Location `env:"-"`

	RedisURL             string        `env:"REDIS_URL"`
	LockerRoom13CacheTTL time.Duration `env:"LOCKERROOM13_CACHE_TTL" envDefault:"30s"`

	AMQPURL      string `env:"AMQP_URL"`
	AMQPExchange string `env:"AMQP_EXCHANGE" envDefault:"marketplace.activity"`

	R2AccountID       string `env:"R2_ACCOUNT_ID"`
	R2AccessKeyID     string `env:"R2_ACCESS_KEY_ID"`
	R2SecretAccessKey string `env:"R2_SECRET_ACCESS_KEY"`
	R2BucketName      string `env:"R2_BUCKET_NAME"`
	R2PublicBaseURL   string `env:"R2_PUBLIC_BASE_URL"`

	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	// Отсутствие .env не ошибка.
	_ = godotenv.Load()
	return Parse()
}

// Parse читает только переменные окружения, без .env.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	switch cfg.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("DATABASE_DRIVER must be postgres or sqlite, got %q", cfg.DatabaseDriver)
	}
	if cfg.ServerPort <= 0 || cfg.ServerPort > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", cfg.ServerPort)
	}
	loc, err := time.LoadLocation(cfg.LeagueTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid LEAGUE_TIMEZONE %q: %w", cfg.LeagueTimezone, err)
	}
	cfg.Location = loc
	if cfg.LockerRoom13CacheTTL < 0 {
		return nil, fmt.Errorf("LOCKERROOM13_CACHE_TTL cannot be negative, got %s", cfg.LockerRoom13CacheTTL)
	}
	return &cfg, nil
}

func (c *Config) R2() storage.R2Config {
	return storage.R2Config{
		AccountID:       c.R2AccountID,
		AccessKeyID:     c.R2AccessKeyID,
		SecretAccessKey: c.R2SecretAccessKey,
		BucketName:      c.R2BucketName,
		PublicBaseURL:   c.R2PublicBaseURL,
	}
}
