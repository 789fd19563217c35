package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pitboss/internal/app/mtl"
	"pitboss/internal/app/rating"
	"pitboss/internal/compliance"
	"pitboss/internal/config"
	"pitboss/internal/logging"
	"pitboss/internal/loyalty"
	"pitboss/internal/reconcile"
	"pitboss/internal/store"
	httptransport "pitboss/internal/transport/http"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

func main() {
	cfg, err := config.LoadApp()
	if err != nil {
		panic(err)
	}
	logging.Init(cfg.Log)

	st, err := store.New(cfg.Server.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("store init failed")
	}
	defer st.Close()
	if err := st.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("db ping failed")
	}
	if err := st.EnsureDefaults(context.Background(), cfg.Gaming.CasinoID); err != nil {
		log.Fatal().Err(err).Msg("ensure default tables failed")
	}

	thresholds, err := thresholdsFromConfig(cfg.Gaming)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid compliance thresholds")
	}
	days, err := compliance.NewResolver(cfg.Gaming.GamingDayTZ, cfg.Gaming.GamingDayStartHour)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid gaming day settings")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dispatcher := loyalty.NewDispatcher(st, cfg.Loyalty)
	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	mtlSvc := mtl.NewService(st, cfg.Gaming.CasinoID, thresholds, days)
	ratingSvc := rating.NewService(st, mtlSvc, dispatcher, cfg.Gaming.CasinoID)

	if cfg.Reconcile.Enabled {
		rec := reconcile.New(st, cfg.Gaming.CasinoID, thresholds, days, cfg.Reconcile)
		if err := rec.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("reconciler start failed")
		}
		defer rec.Stop()
	}

	r := httptransport.NewRouter(st, ratingSvc, mtlSvc, cfg.Gaming.CasinoID)
	httptransport.LogRoutes(r)

	server := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.Server.HTTPAddr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
}

func thresholdsFromConfig(cfg config.GamingConfig) (compliance.Thresholds, error) {
	floor, err := decimal.NewFromString(cfg.WatchlistFloor)
	if err != nil {
		return compliance.Thresholds{}, err
	}
	ctr, err := decimal.NewFromString(cfg.CTRAmount)
	if err != nil {
		return compliance.Thresholds{}, err
	}
	return compliance.Thresholds{WatchlistFloor: floor, CTRAmount: ctr}, nil
}
