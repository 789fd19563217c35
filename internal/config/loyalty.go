package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type LoyaltyConfig struct {
	QueueSize  int           `env:"LOYALTY_QUEUE_SIZE" envDefault:"256"`
	Workers    int           `env:"LOYALTY_WORKERS" envDefault:"2"`
	RetryMax   int           `env:"LOYALTY_RETRY_MAX" envDefault:"5"`
	RetryBase  time.Duration `env:"LOYALTY_RETRY_BASE" envDefault:"500ms"`
	JobTimeout time.Duration `env:"LOYALTY_JOB_TIMEOUT" envDefault:"10s"`
}

func LoadLoyalty() (LoyaltyConfig, error) {
	var cfg LoyaltyConfig
	err := env.Parse(&cfg)
	return cfg, err
}
