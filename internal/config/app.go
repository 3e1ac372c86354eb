package config

type AppConfig struct {
	Server ServerConfig
	Round  RoundConfig
	Log    LogConfig
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
	roundCfg, err := LoadRound()
	if err != nil {
		return AppConfig{}, err
	}
	return AppConfig{
		Server: serverCfg,
		Round:  roundCfg,
		Log:    logCfg,
	}, nil
}
