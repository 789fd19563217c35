package config

import "github.com/caarlos0/env/v11"

// GamingConfig covers the casino-local rules: which casino this instance
// serves, when its business day starts, and the compliance thresholds.
type GamingConfig struct {
	CasinoID           string `env:"CASINO_ID" envDefault:"main"`
	GamingDayTZ        string `env:"GAMING_DAY_TZ" envDefault:"America/Los_Angeles"`
	GamingDayStartHour int    `env:"GAMING_DAY_START_HOUR" envDefault:"6"`

	WatchlistFloor string `env:"COMPLIANCE_WATCHLIST_FLOOR" envDefault:"3000"`
	CTRAmount      string `env:"COMPLIANCE_CTR_AMOUNT" envDefault:"10000"`
}

func LoadGaming() (GamingConfig, error) {
	var cfg GamingConfig
	err := env.Parse(&cfg)
	return cfg, err
}
