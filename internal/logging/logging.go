package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"kyoku-table/internal/config"
)

var (
	mu     sync.RWMutex
	writer io.Writer = os.Stdout
)

// Init configures the global zerolog logger. With LOG_FILE set, records go
// to stdout and to a size-capped file.
func Init(cfg config.LogConfig) {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	var out io.Writer = os.Stdout
	if cfg.File != "" {
		fw, err := newSizeLimitedWriter(cfg.File, cfg.MaxMB)
		if err != nil {
			log.Warn().Err(err).Str("path", cfg.File).Msg("log file unavailable; logging to stdout only")
		} else {
			out = io.MultiWriter(os.Stdout, fw)
		}
	}
	mu.Lock()
	writer = out
	mu.Unlock()

	var sink io.Writer = out
	if cfg.Pretty {
		sink = zerolog.ConsoleWriter{Out: out}
	}

	zerolog.SetGlobalLevel(level)
	ctx := zerolog.New(sink).With().Timestamp()
	if cfg.Service != "" {
		ctx = ctx.Str("service", cfg.Service)
	}
	logger := ctx.Logger()
	if cfg.SampleEvery > 1 {
		logger = logger.Sample(&zerolog.BasicSampler{N: uint32(cfg.SampleEvery)})
	}
	log.Logger = logger
}

// Writer is the raw sink chosen by Init, for loggers that do their own
// encoding such as the HTTP request log.
func Writer() io.Writer {
	mu.RLock()
	defer mu.RUnlock()
	return writer
}
