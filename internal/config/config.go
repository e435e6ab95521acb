package config

import (
	"fmt"

	"github.com/Netflix/go-env"
)

type Config struct {
	DatabaseDSN      string `env:"DATABASE_DSN,required=true"`
	RedisURL         string `env:"REDIS_URL,required=true"`
	RabbitMQURL      string `env:"RABBITMQ_URL,required=true"`
	NoContactLimit   int    `env:"NO_CONTACT_LIMIT,default=6"`
	CallLockTTLSec   int    `env:"CALL_LOCK_TTL_SEC,default=10"`
	MaxImportSize    int    `env:"MAX_IMPORT_SIZE,default=5000"`
	APIPort          int    `env:"API_PORT,default=8080"`
	LogLevel         string `env:"LOG_LEVEL,default=info"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}
