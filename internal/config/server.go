package config

import "github.com/caarlos0/env/v11"

type ServerConfig struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`
	// PostgresDSN is optional. Without it rounds are kept in memory only.
	PostgresDSN string `env:"POSTGRES_DSN"`

	// AdminAPIKey guards the debug routes when set.
	AdminAPIKey string `env:"ADMIN_API_KEY"`

	EventBufferSize int `env:"EVENT_BUFFER_SIZE" envDefault:"500"`
	MaxTables       int `env:"MAX_TABLES" envDefault:"64"`

	SpectatorPushEnabled     bool   `env:"SPECTATOR_PUSH_ENABLED" envDefault:"false"`
	SpectatorPushConfigPath  string `env:"SPECTATOR_PUSH_CONFIG_PATH"`
	SpectatorPushConfigJSON  string `env:"SPECTATOR_PUSH_TARGETS_JSON"`
	SpectatorPushWorkers     int    `env:"SPECTATOR_PUSH_WORKERS" envDefault:"2"`
	SpectatorPushRetryMax    int    `env:"SPECTATOR_PUSH_RETRY_MAX" envDefault:"3"`
	SpectatorPushRetryBaseMS int    `env:"SPECTATOR_PUSH_RETRY_BASE_MS" envDefault:"500"`
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	err := env.Parse(&cfg)
	return cfg, err
}
