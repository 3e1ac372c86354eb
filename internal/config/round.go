package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// RoundConfig tunes how a kyoku controller waits on its seats.
type RoundConfig struct {
	PollMin        time.Duration `env:"POLL_MIN" envDefault:"2ms"`
	PollMax        time.Duration `env:"POLL_MAX" envDefault:"100ms"`
	DiscardTimeout time.Duration `env:"DISCARD_TIMEOUT" envDefault:"20s"`
	CallTimeout    time.Duration `env:"CALL_TIMEOUT" envDefault:"10s"`
	RoundTimeout   time.Duration `env:"ROUND_TIMEOUT" envDefault:"1h"`
	// WallSeed fixes the shuffle when non-zero.
	WallSeed int64 `env:"WALL_SEED" envDefault:"0"`
}

func LoadRound() (RoundConfig, error) {
	var cfg RoundConfig
	err := env.Parse(&cfg)
	return cfg, err
}
