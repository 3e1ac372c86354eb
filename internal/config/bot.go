package config

import "github.com/caarlos0/env/v11"

type BotConfig struct {
	WSURL   string `env:"WS_URL" envDefault:"ws://localhost:8080/ws/tables"`
	TableID string `env:"TABLE_ID,required,notEmpty"`
	Seat    string `env:"SEAT" envDefault:"east"`
}

func LoadBot() (BotConfig, error) {
	var cfg BotConfig
	err := env.Parse(&cfg)
	return cfg, err
}
