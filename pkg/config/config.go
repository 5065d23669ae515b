package config

import (
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort  string `env:"SERVER_PORT" envDefault:"8080"`
	BrokerURL   string `env:"BROKER_URL" envDefault:"http://localhost:8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	JWTSecret   string `env:"JWT_SECRET" envDefault:"dev-secret"`

	// RequestTimeout bounds every remote call; a call that exceeds it is
	// treated as a network failure, not retried.
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`

	// Poll cadences. Active chat views poll faster than background feeds.
	ChatPollInterval         time.Duration `env:"CHAT_POLL_INTERVAL" envDefault:"5s"`
	ListPollInterval         time.Duration `env:"LIST_POLL_INTERVAL" envDefault:"20s"`
	NotificationPollInterval time.Duration `env:"NOTIFICATION_POLL_INTERVAL" envDefault:"15s"`
}

func Load() (*Config, error) {
	godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
