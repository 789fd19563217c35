package config

import "github.com/caarlos0/env/v11"

type ReconcileConfig struct {
	Enabled bool   `env:"RECONCILE_ENABLED" envDefault:"true"`
	Cron    string `env:"RECONCILE_CRON" envDefault:"*/15 * * * *"`
}

func LoadReconcile() (ReconcileConfig, error) {
	var cfg ReconcileConfig
	err := env.Parse(&cfg)
	return cfg, err
}
