package config

type AppConfig struct {
	Server    ServerConfig
	Log       LogConfig
	Gaming    GamingConfig
	Loyalty   LoyaltyConfig
	Reconcile ReconcileConfig
}

func LoadApp() (AppConfig, error) {
	logCfg, err := LoadLog()
	if err != nil {
		return AppConfig{}, err
	}
	serverCfg, err := LoadServer()
	if err != nil {
		return AppConfig{}, err
	}
	gamingCfg, err := LoadGaming()
	if err != nil {
		return AppConfig{}, err
	}
	loyaltyCfg, err := LoadLoyalty()
	if err != nil {
		return AppConfig{}, err
	}
	reconcileCfg, err := LoadReconcile()
	if err != nil {
		return AppConfig{}, err
	}
	return AppConfig{
		Server:    serverCfg,
		Log:       logCfg,
		Gaming:    gamingCfg,
		Loyalty:   loyaltyCfg,
		Reconcile: reconcileCfg,
	}, nil
}
