package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"kyoku-table/internal/agentgateway"
	"kyoku-table/internal/config"
	"kyoku-table/internal/logging"
	"kyoku-table/internal/spectatorpush"
	"kyoku-table/internal/store"
	httptransport "kyoku-table/internal/transport/http"
)

func main() {
	logCfg, err := config.LoadLog()
	if err != nil {
		panic(err)
	}
	logging.Init(logCfg)
	cfg, err := config.LoadServer()
	if err != nil {
		log.Fatal().Err(err).Msg("load server config failed")
	}
	roundCfg, err := config.LoadRound()
	if err != nil {
		log.Fatal().Err(err).Msg("load round config failed")
	}

	var st *store.Store
	if cfg.PostgresDSN != "" {
		st, err = store.New(cfg.PostgresDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("store init failed")
		}
		defer st.Close()
		if err := st.Ping(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("db ping failed")
		}
	} else {
		log.Warn().Msg("POSTGRES_DSN not set; rounds are not persisted")
	}

	coord := agentgateway.NewCoordinator(agentgateway.Options{
		Store:      st,
		Round:      roundCfg,
		BufferSize: cfg.EventBufferSize,
		MaxTables:  cfg.MaxTables,
	})

	pushCfg, err := spectatorpush.ConfigFromServer(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("spectator push config failed")
	}
	pushCtx, stopPush := context.WithCancel(context.Background())
	defer stopPush()
	pushMgr := spectatorpush.NewManager(pushCfg)
	if err := pushMgr.Start(pushCtx); err != nil {
		log.Fatal().Err(err).Msg("spectator push start failed")
	}
	coord.SetTableLifecycleObserver(pushMgr)

	r := httptransport.NewRouter(st, cfg, coord)
	httptransport.LogRoutes(r)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := coord.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("coordinator shutdown incomplete")
		}
		stopPush()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("http shutdown incomplete")
		}
	}()

	log.Info().Str("addr", cfg.HTTPAddr).Msg("http listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server stopped")
	}
	log.Info().Msg("server stopped")
}
